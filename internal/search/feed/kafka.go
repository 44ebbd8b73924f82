package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"
)

// KafkaFeed publishes commit events to a Kafka topic and consumes them into
// the indexer. Events are keyed by article ID so per-article ordering holds
// within a partition; the stamp check in the index absorbs any replays the
// at-least-once consumer produces.
type KafkaFeed struct {
	client *kgo.Client
	topic  string
	logger *slog.Logger
}

// NewKafka connects to the brokers and joins the indexer consumer group.
func NewKafka(brokers []string, topic, group string, logger *slog.Logger) (*KafkaFeed, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ConsumeTopics(topic),
		kgo.ConsumerGroup(group),
		kgo.DisableAutoCommit(),
	)
	if err != nil {
		return nil, fmt.Errorf("connect kafka: %w", err)
	}
	return &KafkaFeed{client: client, topic: topic, logger: logger}, nil
}

// EnsureTopic creates the commit topic if it does not exist yet.
func EnsureTopic(ctx context.Context, brokers []string, topic string) error {
	client, err := kgo.NewClient(kgo.SeedBrokers(brokers...))
	if err != nil {
		return fmt.Errorf("connect kafka admin: %w", err)
	}
	defer client.Close()

	adm := kadm.NewClient(client)
	responses, err := adm.CreateTopics(ctx, 1, 1, nil, topic)
	if err != nil {
		return fmt.Errorf("create commit topic: %w", err)
	}
	for _, response := range responses {
		if response.Err != nil && !errors.Is(response.Err, kerr.TopicAlreadyExists) {
			return fmt.Errorf("create commit topic %s: %w", response.Topic, response.Err)
		}
	}
	return nil
}

func (f *KafkaFeed) Publish(ctx context.Context, event CommitEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal commit event: %w", err)
	}
	record := &kgo.Record{
		Topic: f.topic,
		Key:   []byte(event.ArticleID),
		Value: payload,
	}
	if err := f.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("publish commit event: %w", err)
	}
	return nil
}

// Run consumes commit events until the context is cancelled. Offsets commit
// only after Apply returns, which keeps delivery at-least-once.
func (f *KafkaFeed) Run(ctx context.Context, applier Applier) error {
	for {
		fetches := f.client.PollFetches(ctx)
		if fetches.IsClientClosed() {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		fetches.EachError(func(topic string, partition int32, err error) {
			f.logger.ErrorContext(ctx, "commit feed fetch error",
				"topic", topic,
				"partition", partition,
				"error", err.Error(),
			)
		})
		fetches.EachRecord(func(record *kgo.Record) {
			var event CommitEvent
			if err := json.Unmarshal(record.Value, &event); err != nil {
				f.logger.ErrorContext(ctx, "commit feed decode failed",
					"offset", record.Offset,
					"error", err.Error(),
				)
				return
			}
			if err := applier.Apply(ctx, event); err != nil {
				f.logger.ErrorContext(ctx, "commit feed apply failed",
					"article_id", event.ArticleID,
					"revision", event.Revision,
					"error", err.Error(),
				)
			}
		})
		if err := f.client.CommitUncommittedOffsets(ctx); err != nil {
			f.logger.ErrorContext(ctx, "commit feed offset commit failed",
				"error", err.Error(),
			)
		}
	}
}

func (f *KafkaFeed) Close() {
	f.client.Close()
}
