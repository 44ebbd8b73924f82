package service

import (
	"context"
	"errors"
	"time"

	"quill/internal/wiki/models"
)

const (
	writeAttempts = 3
	writeBackoff  = 50 * time.Millisecond
)

// retryTransient runs fn up to writeAttempts times with doubling backoff
// before reporting the failure as fatal for the request. Sentinel outcomes
// carry information the caller has to act on, so only errors that look like
// transient storage trouble are retried.
func (s *ArticleService) retryTransient(ctx context.Context, op string, fn func() error) error {
	backoff := writeBackoff
	var err error
	for attempt := 1; ; attempt++ {
		err = fn()
		if err == nil || !isTransient(err) || attempt == writeAttempts {
			return err
		}
		s.logger.WarnContext(ctx, "transient storage failure, retrying",
			"op", op,
			"attempt", attempt,
			"error", err.Error(),
		)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}
}

// isTransient reports whether a storage error is worth another attempt.
// Conflicts and misses are definite outcomes, never retried.
func isTransient(err error) bool {
	switch {
	case errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return false
	case errors.Is(err, models.ErrNotFound),
		errors.Is(err, models.ErrRevisionNotFound),
		errors.Is(err, models.ErrNameTaken),
		errors.Is(err, models.ErrStaleEdit),
		errors.Is(err, models.ErrConcurrentAppend):
		return false
	}
	return true
}
