package team

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/bookingkit/pkg/clock"
	"github.com/dmitrymomot/bookingkit/pkg/subscription"
)

// DefaultInvitationTTL is how long an invitation can be accepted.
const DefaultInvitationTTL = 7 * 24 * time.Hour

// StatusResolver reports the effective subscription status of an owner's
// plugin. *subscription.Service satisfies it.
type StatusResolver interface {
	EffectiveStatus(ctx context.Context, ownerID, pluginID uuid.UUID) subscription.Status
}

// RemovalHook runs after a member has been deactivated.
type RemovalHook func(ctx context.Context, m *Member) error

// ServiceOption configures a Service instance.
type ServiceOption func(*Service)

func WithClock(c clock.Clock) ServiceOption {
	return func(s *Service) {
		if c != nil {
			s.clock = c
		}
	}
}

func WithLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMaxMembers caps active members plus pending invitations per owner.
// Zero or negative disables the cap.
func WithMaxMembers(n int) ServiceOption {
	return func(s *Service) {
		s.maxMembers = n
	}
}

// WithUnlimitedPlugin lifts the member cap for owners whose subscription to
// pluginID is usable (trial or active, including the cancellation grace period).
func WithUnlimitedPlugin(pluginID uuid.UUID, statuses StatusResolver) ServiceOption {
	return func(s *Service) {
		s.unlimitedPlugin = pluginID
		s.statuses = statuses
	}
}

func WithInvitationTTL(d time.Duration) ServiceOption {
	return func(s *Service) {
		if d > 0 {
			s.invitationTTL = d
		}
	}
}

// WithRemovalHook registers a hook run by Remove. Hooks run in registration order.
func WithRemovalHook(h RemovalHook) ServiceOption {
	return func(s *Service) {
		if h != nil {
			s.hooks = append(s.hooks, h)
		}
	}
}
