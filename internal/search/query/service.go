// Package query answers search requests. Relevance comes from the index;
// the exact-match flag comes from the name registry, through the same
// normalization the write path uses, so "does this article exist" never
// disagrees with creation or rename.
package query

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"quill/internal/search/index"
	searchmetrics "quill/internal/search/metrics"
	"quill/internal/wiki/models"
	"quill/internal/wiki/store/registry"
	dErrors "quill/pkg/domainerrors"
)

// resultLimit caps how many hits one query returns.
const resultLimit = 10

// Result is one ranked search hit, ready for rendering.
type Result struct {
	Title      string    `json:"title"`
	Snippet    string    `json:"snippet"`
	LastEdited time.Time `json:"last_edited"`
}

// Response is the full answer to a query. ExactMatch reports whether an
// article with exactly the (normalized) query as its name exists, which the
// caller uses to offer "create this article" instead of a plain hit list.
type Response struct {
	ExactMatch bool     `json:"exact_match"`
	Results    []Result `json:"results"`
}

// Service answers search queries.
type Service struct {
	index    index.Index
	registry registry.Store
	metrics  *searchmetrics.Metrics
	tracer   trace.Tracer
}

func New(ix index.Index, reg registry.Store, metrics *searchmetrics.Metrics) *Service {
	return &Service{
		index:    ix,
		registry: reg,
		metrics:  metrics,
		tracer:   otel.Tracer("quill/search"),
	}
}

// Search runs the query against the index and probes the registry for an
// exact name match. An empty query returns an empty response rather than
// an error.
func (s *Service) Search(ctx context.Context, query string) (*Response, error) {
	ctx, span := s.tracer.Start(ctx, "search.query")
	defer span.End()
	start := time.Now()
	defer func() {
		if s.metrics != nil {
			s.metrics.QueryDuration.Observe(time.Since(start).Seconds())
		}
	}()

	normalized := registry.Normalize(query)
	if normalized == "" {
		return &Response{Results: []Result{}}, nil
	}

	exact := false
	if _, err := s.registry.Resolve(ctx, normalized); err == nil {
		exact = true
	} else if !errors.Is(err, models.ErrNotFound) {
		span.RecordError(err)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check exact match")
	}

	hits, err := s.index.Search(ctx, normalized, resultLimit)
	if err != nil {
		span.RecordError(err)
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "search is temporarily unavailable")
	}

	results := make([]Result, 0, len(hits))
	for _, hit := range hits {
		results = append(results, Result{
			Title:      hit.Name,
			Snippet:    hit.Snippet,
			LastEdited: hit.EditedAt,
		})
	}
	return &Response{ExactMatch: exact, Results: results}, nil
}
