// Package subscription implements the per-plugin subscription lifecycle of an
// owner account: the one-time free trial, paid activation confirmed by the
// billing provider, renewal, cancellation with a grace period, and expiry.
//
// # Stored versus effective status
//
// A Subscription stores an explicit Status, but access decisions never read
// it directly. EffectiveStatus derives the status at a given instant:
//
//	trial      before TrialEndsAt            -> trial
//	trial      at or after TrialEndsAt       -> expired
//	active                                   -> active
//	cancelled  before CurrentPeriodEnd       -> active (grace period)
//	cancelled  at or after CurrentPeriodEnd  -> expired
//
// TrialDaysRemaining rounds up, so a trial with a few hours left shows one day.
//
// # Transitions
//
// Lifecycle rules live in a shared statemachine.Table evaluated against the
// stored record:
//
//	none|expired --start_trial--> trial      (only if no trial was ever used)
//	any          --activate-----> active     (payment confirmed)
//	active|cancelled|expired --renew--> active
//	active       --cancel-------> cancelled
//
// # Trial guard
//
// Starting a trial claims an entry in a durable trial ledger that survives
// deletion of the live record. Store.StartTrial claims the ledger entry and
// writes the record atomically, so of two concurrent calls exactly one wins
// and the loser gets ErrTrialAlreadyUsed. Deleting and recreating a
// subscription never yields a second trial.
//
// # Concurrency
//
// Every write is a compare-and-swap on Subscription.Version. The service
// re-reads and retries once after ErrConcurrentModification.
//
// # Billing provider
//
// RequestCheckout opens a hosted checkout through a BillingProvider and
// returns immediately; nothing changes until the provider's webhook arrives.
// HandleWebhook verifies the callback and routes it to ConfirmPaidActivation,
// Renew or Cancel. The owner and plugin identifiers travel as checkout
// metadata. PaddleProvider implements the boundary with the Paddle SDK.
//
//	svc := subscription.NewService(store, cat, provider,
//	    subscription.WithClock(clock.New()),
//	    subscription.WithTrialDuration(7*24*time.Hour),
//	)
//	sub, err := svc.StartTrial(ctx, ownerID, pluginID)
//	if errors.Is(err, subscription.ErrTrialAlreadyUsed) {
//	    // offer checkout instead
//	}
package subscription
