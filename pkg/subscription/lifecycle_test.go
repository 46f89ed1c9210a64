package subscription_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/bookingkit/pkg/statemachine"
	"github.com/dmitrymomot/bookingkit/pkg/subscription"
)

func TestCanTransition(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	trial := &subscription.Subscription{Status: subscription.StatusTrial, TrialUsed: true, TrialEndsAt: at(time.Hour)}
	lapsedTrial := &subscription.Subscription{Status: subscription.StatusTrial, TrialUsed: true, TrialEndsAt: at(-time.Hour)}
	active := &subscription.Subscription{Status: subscription.StatusActive, ProcessorRef: "sub_1", CurrentPeriodEnd: at(time.Hour)}
	grace := &subscription.Subscription{Status: subscription.StatusCancelled, CurrentPeriodEnd: at(time.Hour)}
	lapsedPaid := &subscription.Subscription{Status: subscription.StatusCancelled, CurrentPeriodEnd: at(-time.Hour)}

	tests := []struct {
		name  string
		sub   *subscription.Subscription
		event statemachine.Event
		want  bool
	}{
		{"trial from nothing", nil, subscription.EventStartTrial, true},
		{"trial during trial", trial, subscription.EventStartTrial, false},
		{"trial after lapsed trial", lapsedTrial, subscription.EventStartTrial, false},
		{"trial after lapsed paid period", lapsedPaid, subscription.EventStartTrial, true},
		{"trial while active", active, subscription.EventStartTrial, false},
		{"activate from nothing", nil, subscription.EventActivate, true},
		{"activate during trial", trial, subscription.EventActivate, true},
		{"activate in grace", grace, subscription.EventActivate, true},
		{"cancel active", active, subscription.EventCancel, true},
		{"cancel trial", trial, subscription.EventCancel, false},
		{"cancel in grace", grace, subscription.EventCancel, false},
		{"cancel nothing", nil, subscription.EventCancel, false},
		{"renew in grace", grace, subscription.EventRenew, true},
		{"renew trial", trial, subscription.EventRenew, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, subscription.CanTransition(ctx, tt.sub, now, tt.event))
		})
	}
}
