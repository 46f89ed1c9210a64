package subscription

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/bookingkit/pkg/clock"
)

// DefaultTrialDuration is the length of the one-time free trial.
const DefaultTrialDuration = 7 * 24 * time.Hour

// DeletionHook runs after the live record of owner's plugin subscription
// has been deleted.
type DeletionHook func(ctx context.Context, ownerID, pluginID uuid.UUID) error

// ServiceOption configures a Service instance.
type ServiceOption func(*Service)

// WithClock sets the time source. Tests pass a clockwork fake clock.
func WithClock(c clock.Clock) ServiceOption {
	return func(s *Service) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithLogger sets the logger. Defaults to a discard logger.
func WithLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithTrialDuration overrides DefaultTrialDuration. Non-positive values are ignored.
func WithTrialDuration(d time.Duration) ServiceOption {
	return func(s *Service) {
		if d > 0 {
			s.trialDuration = d
		}
	}
}

// WithCheckoutURLs sets the default redirect targets for hosted checkouts.
func WithCheckoutURLs(successURL, cancelURL string) ServiceOption {
	return func(s *Service) {
		s.successURL = successURL
		s.cancelURL = cancelURL
	}
}

// WithDeletionHook registers a hook run by Delete. Hooks run in registration order.
func WithDeletionHook(h DeletionHook) ServiceOption {
	return func(s *Service) {
		if h != nil {
			s.hooks = append(s.hooks, h)
		}
	}
}
