package subscription

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/bookingkit/pkg/catalog"
	"github.com/dmitrymomot/bookingkit/pkg/clock"
	"github.com/dmitrymomot/bookingkit/pkg/logger"
)

// PluginCatalog resolves catalog plugins. *catalog.Catalog satisfies it.
type PluginCatalog interface {
	Get(ctx context.Context, id uuid.UUID) (catalog.Plugin, error)
}

// Service runs the per-plugin subscription lifecycle.
type Service struct {
	store    Store
	catalog  PluginCatalog
	provider BillingProvider
	clock    clock.Clock
	logger   *slog.Logger

	trialDuration time.Duration
	successURL    string
	cancelURL     string
	hooks         []DeletionHook
}

// NewService creates a Service. Panics if a required dependency is nil.
func NewService(store Store, plugins PluginCatalog, provider BillingProvider, opts ...ServiceOption) *Service {
	if store == nil {
		panic("subscription: Store is required")
	}
	if plugins == nil {
		panic("subscription: PluginCatalog is required")
	}
	if provider == nil {
		panic("subscription: BillingProvider is required")
	}

	s := &Service{
		store:         store,
		catalog:       plugins,
		provider:      provider,
		clock:         clock.New(),
		logger:        logger.Discard(),
		trialDuration: DefaultTrialDuration,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns the live subscription of owner to plugin.
func (s *Service) Get(ctx context.Context, ownerID, pluginID uuid.UUID) (*Subscription, error) {
	return s.store.Get(ctx, ownerID, pluginID)
}

// ListByOwner returns every live subscription of owner.
func (s *Service) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*Subscription, error) {
	return s.store.ListByOwner(ctx, ownerID)
}

// HasUsedTrial reports whether owner ever started a trial of plugin,
// including trials whose record was later deleted.
func (s *Service) HasUsedTrial(ctx context.Context, ownerID, pluginID uuid.UUID) (bool, error) {
	return s.store.HasUsedTrial(ctx, ownerID, pluginID)
}

// EffectiveStatus returns the effective status of owner's plugin subscription
// at the current time. Lookup failures resolve to StatusNone.
func (s *Service) EffectiveStatus(ctx context.Context, ownerID, pluginID uuid.UUID) Status {
	sub, err := s.current(ctx, ownerID, pluginID)
	if err != nil {
		s.logger.WarnContext(ctx, "failed to load subscription",
			logger.OwnerID(ownerID), logger.PluginID(pluginID), logger.Error(err))
		return StatusNone
	}
	return EffectiveStatus(sub, s.now())
}

// StartTrial starts the one-time free trial of plugin for owner.
//
// Fails with ErrTrialAlreadyUsed when the owner ever had a trial of the
// plugin, with ErrAlreadySubscribed when a usable subscription exists and
// with catalog errors for unknown or inactive plugins. Of two concurrent
// calls exactly one succeeds.
func (s *Service) StartTrial(ctx context.Context, ownerID, pluginID uuid.UUID) (*Subscription, error) {
	plugin, err := s.catalog.Get(ctx, pluginID)
	if err != nil {
		return nil, err
	}
	if !plugin.Purchasable() {
		return nil, catalog.ErrPluginUnavailable
	}

	sub, err := s.retry(ctx, func() (*Subscription, error) {
		used, err := s.store.HasUsedTrial(ctx, ownerID, pluginID)
		if err != nil {
			return nil, err
		}
		if used {
			return nil, ErrTrialAlreadyUsed
		}

		current, err := s.current(ctx, ownerID, pluginID)
		if err != nil {
			return nil, err
		}

		now := s.now()
		if _, err := transition(ctx, current, now, EventStartTrial); err != nil {
			if current != nil && current.TrialUsed {
				return nil, ErrTrialAlreadyUsed
			}
			return nil, ErrAlreadySubscribed
		}

		next, prev := s.prepare(current, ownerID, pluginID, now)
		trialEnd := now.Add(s.trialDuration)
		next.Status = StatusTrial
		next.IsTrial = true
		next.TrialUsed = true
		next.TrialEndsAt = &trialEnd
		next.CurrentPeriodStart = &now
		next.CurrentPeriodEnd = nil
		next.ProcessorRef = ""
		next.CancelledAt = nil

		if err := s.store.StartTrial(ctx, next, prev); err != nil {
			return nil, err
		}
		return next, nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "plugin trial started",
		logger.OwnerID(ownerID), logger.PluginID(pluginID), logger.Event(EventStartTrial.Name()))
	return sub, nil
}

// ConfirmPaidActivation applies a payment confirmed by the processor: the
// subscription becomes active with the given processor reference and
// billing period end. Repeating a confirmation for the same reference is a
// no-op that returns the stored record.
func (s *Service) ConfirmPaidActivation(ctx context.Context, ownerID, pluginID uuid.UUID, processorRef string, periodEnd time.Time) (*Subscription, error) {
	if processorRef == "" {
		return nil, ErrProcessorRefRequired
	}
	if periodEnd.IsZero() {
		return nil, ErrInvalidPeriodEnd
	}
	// Paid confirmations are honoured even for plugins retired from sale.
	if _, err := s.catalog.Get(ctx, pluginID); err != nil {
		return nil, err
	}

	noop := false
	sub, err := s.retry(ctx, func() (*Subscription, error) {
		current, err := s.current(ctx, ownerID, pluginID)
		if err != nil {
			return nil, err
		}
		if current != nil && current.ProcessorRef == processorRef &&
			(current.Status == StatusActive || current.Status == StatusCancelled) {
			noop = true
			return current, nil
		}

		now := s.now()
		status, err := transition(ctx, current, now, EventActivate)
		if err != nil {
			return nil, err
		}

		next, prev := s.prepare(current, ownerID, pluginID, now)
		end := periodEnd.UTC()
		next.Status = status
		next.IsTrial = false
		next.ProcessorRef = processorRef
		next.CurrentPeriodStart = &now
		next.CurrentPeriodEnd = &end
		next.CancelledAt = nil

		if err := s.store.Save(ctx, next, prev); err != nil {
			return nil, err
		}
		return next, nil
	})
	if err != nil {
		return nil, err
	}

	if !noop {
		s.logger.InfoContext(ctx, "plugin subscription activated",
			logger.OwnerID(ownerID), logger.PluginID(pluginID), logger.Event(EventActivate.Name()))
	}
	return sub, nil
}

// Renew applies a new billing period reported by the processor for an
// existing subscription. A cancelled subscription is reactivated.
func (s *Service) Renew(ctx context.Context, ownerID, pluginID uuid.UUID, processorRef string, periodEnd time.Time) (*Subscription, error) {
	if processorRef == "" {
		return nil, ErrProcessorRefRequired
	}
	if periodEnd.IsZero() {
		return nil, ErrInvalidPeriodEnd
	}

	return s.retry(ctx, func() (*Subscription, error) {
		current, err := s.store.Get(ctx, ownerID, pluginID)
		if err != nil {
			return nil, err
		}
		if current.ProcessorRef != processorRef {
			return nil, ErrProcessorRefMismatch
		}

		end := periodEnd.UTC()
		if current.Status == StatusActive && current.CurrentPeriodEnd != nil && current.CurrentPeriodEnd.Equal(end) {
			return current, nil
		}

		now := s.now()
		status, err := transition(ctx, current, now, EventRenew)
		if err != nil {
			return nil, ErrNoActiveSubscription
		}

		next, prev := s.prepare(current, ownerID, pluginID, now)
		next.Status = status
		next.IsTrial = false
		next.CurrentPeriodStart = &now
		next.CurrentPeriodEnd = &end
		next.CancelledAt = nil

		if err := s.store.Save(ctx, next, prev); err != nil {
			return nil, err
		}

		s.logger.InfoContext(ctx, "plugin subscription renewed",
			logger.OwnerID(ownerID), logger.PluginID(pluginID), logger.Event(EventRenew.Name()))
		return next, nil
	})
}

// Cancel cancels an active subscription. Access continues until the current
// period ends. Fails with ErrNoActiveSubscription unless the stored status
// is active, so trials and already cancelled subscriptions are rejected.
func (s *Service) Cancel(ctx context.Context, ownerID, pluginID uuid.UUID) (*Subscription, error) {
	sub, err := s.retry(ctx, func() (*Subscription, error) {
		current, err := s.current(ctx, ownerID, pluginID)
		if err != nil {
			return nil, err
		}

		now := s.now()
		status, err := transition(ctx, current, now, EventCancel)
		if err != nil {
			return nil, ErrNoActiveSubscription
		}

		next, prev := s.prepare(current, ownerID, pluginID, now)
		next.Status = status
		next.CancelledAt = &now

		if err := s.store.Save(ctx, next, prev); err != nil {
			return nil, err
		}
		return next, nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "plugin subscription cancelled",
		logger.OwnerID(ownerID), logger.PluginID(pluginID), logger.Event(EventCancel.Name()))
	return sub, nil
}

// Delete removes the live record of owner's plugin subscription and runs the
// deletion hooks. The trial ledger is kept, so a deleted trial cannot be
// started again. Records that still grant access fail with
// ErrSubscriptionInUse. Hook failures are joined with ErrDeletionHookFailed
// after the record is gone.
func (s *Service) Delete(ctx context.Context, ownerID, pluginID uuid.UUID) error {
	current, err := s.store.Get(ctx, ownerID, pluginID)
	if err != nil {
		return err
	}
	if IsUsable(current, s.now()) {
		return ErrSubscriptionInUse
	}
	if err := s.store.Delete(ctx, ownerID, pluginID); err != nil {
		return err
	}

	var errs []error
	for _, hook := range s.hooks {
		if err := hook(ctx, ownerID, pluginID); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		err := errors.Join(append([]error{ErrDeletionHookFailed}, errs...)...)
		s.logger.ErrorContext(ctx, "subscription deletion hook failed",
			logger.OwnerID(ownerID), logger.PluginID(pluginID), logger.Error(err))
		return err
	}

	s.logger.InfoContext(ctx, "plugin subscription deleted",
		logger.OwnerID(ownerID), logger.PluginID(pluginID))
	return nil
}

// RequestCheckout opens a hosted checkout for plugin and returns the
// redirect handle. It never changes subscription state; an abandoned
// checkout leaves the subscription as it was.
func (s *Service) RequestCheckout(ctx context.Context, ownerID, pluginID uuid.UUID, opts CheckoutOptions) (*CheckoutLink, error) {
	plugin, err := s.catalog.Get(ctx, pluginID)
	if err != nil {
		return nil, err
	}
	if !plugin.Purchasable() {
		return nil, catalog.ErrPluginUnavailable
	}
	if plugin.PriceID == "" {
		return nil, ErrMissingPriceID
	}

	current, err := s.current(ctx, ownerID, pluginID)
	if err != nil {
		return nil, err
	}
	if EffectiveStatus(current, s.now()) == StatusActive {
		return nil, ErrAlreadySubscribed
	}

	req := CheckoutRequest{
		OwnerID:    ownerID,
		PluginID:   pluginID,
		PriceID:    plugin.PriceID,
		Email:      opts.Email,
		SuccessURL: firstNonEmpty(opts.SuccessURL, s.successURL),
		CancelURL:  firstNonEmpty(opts.CancelURL, s.cancelURL),
	}

	link, err := s.provider.CreateCheckoutLink(ctx, req)
	if err != nil {
		return nil, errors.Join(ErrProviderError, err)
	}

	s.logger.InfoContext(ctx, "plugin checkout requested",
		logger.OwnerID(ownerID), logger.PluginID(pluginID), slog.String("session_id", link.SessionID))
	return link, nil
}

// HandleWebhook verifies a processor callback and applies it.
// Events that carry no lifecycle change are acknowledged and ignored.
func (s *Service) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	event, err := s.provider.ParseWebhook(ctx, payload, signature)
	if err != nil {
		return err
	}

	log := s.logger.With(
		logger.Event(event.ProviderEvent),
		slog.String("event_id", event.EventID),
		logger.OwnerID(event.OwnerID),
		logger.PluginID(event.PluginID),
	)

	switch event.Type {
	case EventSubscriptionCreated, EventSubscriptionActivated:
		if err := validateWebhookEvent(event); err != nil {
			return err
		}
		_, err = s.ConfirmPaidActivation(ctx, event.OwnerID, event.PluginID, event.SubscriptionID, *event.PeriodEnd)
		return err

	case EventSubscriptionUpdated, EventSubscriptionResumed:
		if event.Status != "active" {
			log.DebugContext(ctx, "ignoring non-active subscription update", logger.Status(event.Status))
			return nil
		}
		if err := validateWebhookEvent(event); err != nil {
			return err
		}
		_, err = s.Renew(ctx, event.OwnerID, event.PluginID, event.SubscriptionID, *event.PeriodEnd)
		if errors.Is(err, ErrSubscriptionNotFound) || errors.Is(err, ErrProcessorRefMismatch) {
			_, err = s.ConfirmPaidActivation(ctx, event.OwnerID, event.PluginID, event.SubscriptionID, *event.PeriodEnd)
		}
		return err

	case EventSubscriptionCancelled:
		if event.OwnerID == uuid.Nil || event.PluginID == uuid.Nil {
			return ErrMissingWebhookMetadata
		}
		_, err = s.Cancel(ctx, event.OwnerID, event.PluginID)
		if errors.Is(err, ErrNoActiveSubscription) {
			log.WarnContext(ctx, "cancellation for subscription that is not active")
			return nil
		}
		return err

	default:
		log.DebugContext(ctx, "ignoring billing event")
		return nil
	}
}

func validateWebhookEvent(event *WebhookEvent) error {
	switch {
	case event.OwnerID == uuid.Nil || event.PluginID == uuid.Nil:
		return ErrMissingWebhookMetadata
	case event.SubscriptionID == "":
		return ErrProcessorRefRequired
	case event.PeriodEnd == nil:
		return ErrInvalidPeriodEnd
	}
	return nil
}

// current returns the live record, or nil when none exists.
func (s *Service) current(ctx context.Context, ownerID, pluginID uuid.UUID) (*Subscription, error) {
	sub, err := s.store.Get(ctx, ownerID, pluginID)
	if errors.Is(err, ErrSubscriptionNotFound) {
		return nil, nil
	}
	return sub, err
}

// prepare returns the record to write and the version it was read at.
func (s *Service) prepare(current *Subscription, ownerID, pluginID uuid.UUID, now time.Time) (*Subscription, int) {
	if current == nil {
		return &Subscription{
			ID:        uuid.New(),
			OwnerID:   ownerID,
			PluginID:  pluginID,
			CreatedAt: now,
			UpdatedAt: now,
		}, 0
	}
	next := current.Clone()
	next.UpdatedAt = now
	return next, current.Version
}

// retry runs op again once after losing a compare-and-swap race.
func (s *Service) retry(ctx context.Context, op func() (*Subscription, error)) (*Subscription, error) {
	sub, err := op()
	if errors.Is(err, ErrConcurrentModification) {
		s.logger.DebugContext(ctx, "retrying subscription write after concurrent modification")
		sub, err = op()
	}
	return sub, err
}

func (s *Service) now() time.Time {
	return clock.NowUTC(s.clock)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
