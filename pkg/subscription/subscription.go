package subscription

import (
	"time"

	"github.com/google/uuid"
)

// Status is the stored lifecycle status of a subscription.
type Status string

const (
	StatusNone      Status = "none" // no record exists; never stored
	StatusTrial     Status = "trial"
	StatusActive    Status = "active"
	StatusCancelled Status = "cancelled"
	StatusExpired   Status = "expired"
)

func (s Status) String() string {
	return string(s)
}

// Usable reports whether an effective status grants access to the plugin.
func (s Status) Usable() bool {
	return s == StatusTrial || s == StatusActive
}

// Subscription is an owner's subscription to a single plugin.
// There is at most one live record per owner and plugin.
type Subscription struct {
	ID                 uuid.UUID  `json:"id"`
	OwnerID            uuid.UUID  `json:"owner_id"`
	PluginID           uuid.UUID  `json:"plugin_id"`
	Status             Status     `json:"status"`
	IsTrial            bool       `json:"is_trial"`
	TrialEndsAt        *time.Time `json:"trial_ends_at,omitempty"`
	TrialUsed          bool       `json:"trial_used"` // sticky, never reset
	CurrentPeriodStart *time.Time `json:"current_period_start,omitempty"`
	CurrentPeriodEnd   *time.Time `json:"current_period_end,omitempty"`
	ProcessorRef       string     `json:"processor_ref,omitempty"` // billing provider subscription id, set once active
	CancelledAt        *time.Time `json:"cancelled_at,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`

	// Version is the compare-and-swap token. Stores bump it on every write.
	Version int `json:"-"`
}

// Clone returns a deep copy of s.
func (s *Subscription) Clone() *Subscription {
	if s == nil {
		return nil
	}
	c := *s
	c.TrialEndsAt = cloneTime(s.TrialEndsAt)
	c.CurrentPeriodStart = cloneTime(s.CurrentPeriodStart)
	c.CurrentPeriodEnd = cloneTime(s.CurrentPeriodEnd)
	c.CancelledAt = cloneTime(s.CancelledAt)
	return &c
}

// EffectiveStatus derives the status used for every access decision from the
// stored record and the current time. A nil record yields StatusNone.
//
//   - trial before trial end: trial; at or after trial end: expired
//   - active: active
//   - cancelled before period end: active (grace period); otherwise expired
//   - anything else: expired
func EffectiveStatus(sub *Subscription, now time.Time) Status {
	if sub == nil {
		return StatusNone
	}

	switch sub.Status {
	case StatusTrial:
		if sub.TrialEndsAt != nil && now.Before(*sub.TrialEndsAt) {
			return StatusTrial
		}
		return StatusExpired
	case StatusActive:
		return StatusActive
	case StatusCancelled:
		if sub.CurrentPeriodEnd != nil && now.Before(*sub.CurrentPeriodEnd) {
			return StatusActive
		}
		return StatusExpired
	default:
		return StatusExpired
	}
}

// IsUsable reports whether sub grants access at now.
func IsUsable(sub *Subscription, now time.Time) bool {
	return EffectiveStatus(sub, now).Usable()
}

// TrialDaysRemaining returns the whole days left in the trial, rounded up,
// so 23h59m left reads as 1 day. Returns 0 for non-trial records and
// expired trials.
func TrialDaysRemaining(sub *Subscription, now time.Time) int {
	if sub == nil || sub.Status != StatusTrial || sub.TrialEndsAt == nil {
		return 0
	}

	remaining := sub.TrialEndsAt.Sub(now)
	if remaining <= 0 {
		return 0
	}

	const day = 24 * time.Hour
	days := remaining / day
	if remaining%day != 0 {
		days++
	}
	return int(days)
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
