// Package clock provides the time source shared by the entitlement services.
//
// The services never call time.Now directly. They receive a Clock through a
// WithClock option and default to the system clock:
//
//	svc := subscription.NewService(store, catalog, provider,
//		subscription.WithClock(clock.New()),
//	)
//
// Tests use a fake clock and advance it explicitly:
//
//	fc := clockwork.NewFakeClockAt(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
//	svc := subscription.NewService(store, catalog, provider, subscription.WithClock(fc))
//	fc.Advance(8 * 24 * time.Hour)
package clock
