package subscription

import (
	"context"
	"time"

	"github.com/dmitrymomot/bookingkit/pkg/statemachine"
)

// Lifecycle events.
const (
	EventStartTrial = statemachine.StringEvent("start_trial")
	EventActivate   = statemachine.StringEvent("activate")
	EventRenew      = statemachine.StringEvent("renew")
	EventCancel     = statemachine.StringEvent("cancel")
)

var (
	stateNone      = statemachine.StringState(StatusNone)
	stateTrial     = statemachine.StringState(StatusTrial)
	stateActive    = statemachine.StringState(StatusActive)
	stateCancelled = statemachine.StringState(StatusCancelled)
	stateExpired   = statemachine.StringState(StatusExpired)
)

// trialUnused vetoes a trial for records that already consumed one.
// The durable ledger is checked by the store; this guards the live record.
func trialUnused(_ context.Context, _ statemachine.State, _ statemachine.Event, data any) bool {
	sub, _ := data.(*Subscription)
	return sub == nil || !sub.TrialUsed
}

// lifecycle is shared by every subscription; it holds no per-record state.
var lifecycle = statemachine.MustNew(
	statemachine.WithTransition(stateNone, stateTrial, EventStartTrial, statemachine.WithGuard(trialUnused)),
	statemachine.WithTransition(stateExpired, stateTrial, EventStartTrial, statemachine.WithGuard(trialUnused)),

	statemachine.WithTransition(stateNone, stateActive, EventActivate),
	statemachine.WithTransition(stateTrial, stateActive, EventActivate),
	statemachine.WithTransition(stateActive, stateActive, EventActivate),
	statemachine.WithTransition(stateCancelled, stateActive, EventActivate),
	statemachine.WithTransition(stateExpired, stateActive, EventActivate),

	statemachine.WithTransition(stateActive, stateActive, EventRenew),
	statemachine.WithTransition(stateCancelled, stateActive, EventRenew),
	statemachine.WithTransition(stateExpired, stateActive, EventRenew),

	statemachine.WithTransition(stateActive, stateCancelled, EventCancel),
)

// lifecycleState is the stored status with time-based expiry applied, so a
// lapsed trial or a cancelled record past its period end is treated as
// expired. Grace-period records stay cancelled: they cannot be cancelled again.
func lifecycleState(sub *Subscription, now time.Time) statemachine.State {
	if sub == nil {
		return stateNone
	}
	switch EffectiveStatus(sub, now) {
	case StatusExpired:
		return stateExpired
	case StatusTrial:
		return stateTrial
	}
	return statemachine.StringState(sub.Status)
}

// transition fires event against sub and returns the resulting status.
func transition(ctx context.Context, sub *Subscription, now time.Time, event statemachine.Event) (Status, error) {
	next, err := lifecycle.Fire(ctx, lifecycleState(sub, now), event, sub)
	if err != nil {
		return "", err
	}
	return Status(next.Name()), nil
}

// CanTransition reports whether event is accepted for sub at now.
func CanTransition(ctx context.Context, sub *Subscription, now time.Time, event statemachine.Event) bool {
	return lifecycle.CanFire(ctx, lifecycleState(sub, now), event, sub)
}
