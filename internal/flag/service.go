package flag

import (
	"context"
	"errors"
	"log/slog"
)

// Service reads flags with a per-flag default and exposes the admin toggle.
type Service struct {
	store    Store
	defaults map[string]bool
	logger   *slog.Logger
}

func NewService(store Store, defaults map[string]bool, logger *slog.Logger) *Service {
	if defaults == nil {
		defaults = map[string]bool{}
	}
	return &Service{store: store, defaults: defaults, logger: logger}
}

// Enabled returns the flag value, falling back to the configured default
// for flags that were never set. A store failure also falls back, logged:
// feature gating should degrade, not break requests.
func (s *Service) Enabled(ctx context.Context, name string) bool {
	value, err := s.store.Get(ctx, name)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.logger.ErrorContext(ctx, "flag store read failed", "flag", name, "error", err.Error())
		}
		return s.defaults[name]
	}
	return value
}

// Set toggles a flag.
func (s *Service) Set(ctx context.Context, name string, value bool) error {
	return s.store.Set(ctx, name, value)
}
