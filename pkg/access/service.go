package access

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/bookingkit/pkg/catalog"
	"github.com/dmitrymomot/bookingkit/pkg/clock"
	"github.com/dmitrymomot/bookingkit/pkg/logger"
	"github.com/dmitrymomot/bookingkit/pkg/subscription"
	"github.com/dmitrymomot/bookingkit/pkg/team"
	"github.com/dmitrymomot/bookingkit/pkg/validator"
)

// Plugins resolves catalog plugins. *catalog.Catalog satisfies it.
type Plugins interface {
	Get(ctx context.Context, id uuid.UUID) (catalog.Plugin, error)
	List(ctx context.Context) []catalog.Plugin
}

// Subscriptions reads owner subscriptions. *subscription.Service satisfies it.
type Subscriptions interface {
	Get(ctx context.Context, ownerID, pluginID uuid.UUID) (*subscription.Subscription, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*subscription.Subscription, error)
	HasUsedTrial(ctx context.Context, ownerID, pluginID uuid.UUID) (bool, error)
}

// Members reads team members. *team.Service satisfies it.
type Members interface {
	Get(ctx context.Context, memberID uuid.UUID) (*team.Member, error)
	GetByUser(ctx context.Context, ownerID, userID uuid.UUID) (*team.Member, error)
}

// Service resolves plugin access for owners and their team members and
// manages per-member overrides.
type Service struct {
	store         OverrideStore
	plugins       Plugins
	subscriptions Subscriptions
	members       Members
	clock         clock.Clock
	logger        *slog.Logger
}

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

// NewService creates a Service. Panics if a dependency is nil.
func NewService(store OverrideStore, plugins Plugins, subscriptions Subscriptions, members Members, opts ...ServiceOption) *Service {
	switch {
	case store == nil:
		panic("access: OverrideStore is required")
	case plugins == nil:
		panic("access: Plugins is required")
	case subscriptions == nil:
		panic("access: Subscriptions is required")
	case members == nil:
		panic("access: Members is required")
	}

	s := &Service{
		store:         store,
		plugins:       plugins,
		subscriptions: subscriptions,
		members:       members,
		clock:         clock.New(),
		logger:        logger.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CanAccess reports whether user may use plugin under owner's account.
//
// The owner needs a usable subscription and nothing else. A team member
// additionally needs to be active and to hold an override granting the
// plugin; a missing override denies. Lookup failures deny.
func (s *Service) CanAccess(ctx context.Context, userID, ownerID, pluginID uuid.UUID) bool {
	log := s.logger.With(logger.UserID(userID), logger.OwnerID(ownerID), logger.PluginID(pluginID))

	if _, err := s.plugins.Get(ctx, pluginID); err != nil {
		return false
	}

	var member *team.Member
	if userID != ownerID {
		m, err := s.members.GetByUser(ctx, ownerID, userID)
		if err != nil {
			if !errors.Is(err, team.ErrMemberNotFound) {
				log.WarnContext(ctx, "failed to load team member", logger.Error(err))
			}
			return false
		}
		if !m.Active {
			return false
		}
		member = m
	}

	if !s.ownerCanUse(ctx, ownerID, pluginID) {
		return false
	}
	if member == nil {
		return true
	}

	o, err := s.store.Get(ctx, member.ID, pluginID)
	if err != nil {
		if !errors.Is(err, ErrOverrideNotFound) {
			log.WarnContext(ctx, "failed to load access override", logger.Error(err))
		}
		return false
	}
	return o.CanAccess
}

// ListAccessiblePlugins returns the catalog plugins user may use under
// owner's account, in catalog order. It never fails; errors yield an empty list.
func (s *Service) ListAccessiblePlugins(ctx context.Context, userID, ownerID uuid.UUID) []catalog.Plugin {
	log := s.logger.With(logger.UserID(userID), logger.OwnerID(ownerID))
	out := make([]catalog.Plugin, 0)

	var granted map[uuid.UUID]bool
	if userID != ownerID {
		m, err := s.members.GetByUser(ctx, ownerID, userID)
		if err != nil || !m.Active {
			if err != nil && !errors.Is(err, team.ErrMemberNotFound) {
				log.WarnContext(ctx, "failed to load team member", logger.Error(err))
			}
			return out
		}
		overrides, err := s.store.ListByMember(ctx, m.ID)
		if err != nil {
			log.WarnContext(ctx, "failed to load access overrides", logger.Error(err))
			return out
		}
		granted = make(map[uuid.UUID]bool, len(overrides))
		for _, o := range overrides {
			granted[o.PluginID] = o.CanAccess
		}
	}

	subs, err := s.subscriptions.ListByOwner(ctx, ownerID)
	if err != nil {
		log.WarnContext(ctx, "failed to load subscriptions", logger.Error(err))
		return out
	}
	now := s.now()
	usable := make(map[uuid.UUID]bool, len(subs))
	for _, sub := range subs {
		usable[sub.PluginID] = subscription.IsUsable(sub, now)
	}

	for _, p := range s.plugins.List(ctx) {
		if !usable[p.ID] {
			continue
		}
		if granted != nil && !granted[p.ID] {
			continue
		}
		out = append(out, p)
	}
	return out
}

// State is the subscription view of one plugin for an owner, shaped for UI
// gating: badges, countdowns and upsell prompts.
type State struct {
	PluginID           uuid.UUID           `json:"plugin_id"`
	Status             subscription.Status `json:"status"`
	IsTrial            bool                `json:"is_trial"`
	TrialDaysRemaining int                 `json:"trial_days_remaining"`
	TrialEndsAt        *time.Time          `json:"trial_ends_at,omitempty"`
	CurrentPeriodEnd   *time.Time          `json:"current_period_end,omitempty"`
	Cancelled          bool                `json:"cancelled"` // cancelled, still in grace period
	TrialAvailable     bool                `json:"trial_available"`
	ShowUpsell         bool                `json:"show_upsell"`
}

// PluginState returns the effective subscription state of owner's plugin.
// Unknown plugins and lookup failures yield StatusNone with no offers.
func (s *Service) PluginState(ctx context.Context, ownerID, pluginID uuid.UUID) State {
	state := State{PluginID: pluginID, Status: subscription.StatusNone}

	plugin, err := s.plugins.Get(ctx, pluginID)
	if err != nil {
		return state
	}

	sub, err := s.subscriptions.Get(ctx, ownerID, pluginID)
	if err != nil && !errors.Is(err, subscription.ErrSubscriptionNotFound) {
		s.logger.WarnContext(ctx, "failed to load subscription",
			logger.OwnerID(ownerID), logger.PluginID(pluginID), logger.Error(err))
		return state
	}
	if err != nil {
		sub = nil
	}

	now := s.now()
	state.Status = subscription.EffectiveStatus(sub, now)
	if sub != nil {
		state.IsTrial = state.Status == subscription.StatusTrial
		state.TrialDaysRemaining = subscription.TrialDaysRemaining(sub, now)
		state.TrialEndsAt = sub.TrialEndsAt
		state.CurrentPeriodEnd = sub.CurrentPeriodEnd
		state.Cancelled = sub.Status == subscription.StatusCancelled && state.Status == subscription.StatusActive
	}
	if !state.IsTrial {
		state.TrialDaysRemaining = 0
	}

	if plugin.Purchasable() && state.Status != subscription.StatusActive {
		state.ShowUpsell = true
		if subscription.CanTransition(ctx, sub, now, subscription.EventStartTrial) {
			used, err := s.subscriptions.HasUsedTrial(ctx, ownerID, pluginID)
			if err != nil {
				s.logger.WarnContext(ctx, "failed to check trial eligibility",
					logger.OwnerID(ownerID), logger.PluginID(pluginID), logger.Error(err))
			}
			state.TrialAvailable = err == nil && !used
		}
	}
	return state
}

// SetOverride grants or denies member access to plugin.
func (s *Service) SetOverride(ctx context.Context, memberID, pluginID uuid.UUID, canAccess bool) (*Override, error) {
	overrides, err := s.BulkSetOverrides(ctx, memberID, []Grant{{PluginID: pluginID, CanAccess: canAccess}})
	if err != nil {
		return nil, err
	}
	return &overrides[0], nil
}

// BulkSetOverrides applies grants for member as one all-or-nothing batch.
// Unknown plugins fail the whole batch. Later grants for the same plugin win.
func (s *Service) BulkSetOverrides(ctx context.Context, memberID uuid.UUID, grants []Grant) ([]Override, error) {
	if len(grants) == 0 {
		return nil, ErrEmptyBatch
	}
	rules := make([]validator.Rule, 0, len(grants))
	for _, g := range grants {
		rules = append(rules, validator.RequiredUUID("plugin_id", g.PluginID))
	}
	if err := validator.Apply(rules...); err != nil {
		return nil, err
	}

	m, err := s.activeMember(ctx, memberID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	index := make(map[uuid.UUID]int, len(grants))
	batch := make([]Override, 0, len(grants))
	for _, g := range grants {
		if _, err := s.plugins.Get(ctx, g.PluginID); err != nil {
			return nil, err
		}
		o := Override{
			MemberID:  m.ID,
			OwnerID:   m.OwnerID,
			PluginID:  g.PluginID,
			CanAccess: g.CanAccess,
			UpdatedAt: now,
		}
		if i, ok := index[g.PluginID]; ok {
			batch[i] = o
			continue
		}
		index[g.PluginID] = len(batch)
		batch = append(batch, o)
	}

	if err := s.store.ApplyBatch(ctx, batch); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "plugin access overrides updated",
		logger.OwnerID(m.OwnerID), logger.MemberID(m.ID), slog.Int("count", len(batch)))
	return batch, nil
}

// Overrides returns every override of member.
func (s *Service) Overrides(ctx context.Context, memberID uuid.UUID) ([]Override, error) {
	return s.store.ListByMember(ctx, memberID)
}

// PurgeMember deletes every override of member. Register it as a
// team.RemovalHook so removed members leave no overrides behind.
func (s *Service) PurgeMember(ctx context.Context, memberID uuid.UUID) error {
	if err := s.store.DeleteByMember(ctx, memberID); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "plugin access overrides purged", logger.MemberID(memberID))
	return nil
}

// PurgeOwnerPlugin deletes the overrides of every member of owner for plugin.
// Register it as a subscription.DeletionHook so deleted subscriptions leave
// no overrides behind.
func (s *Service) PurgeOwnerPlugin(ctx context.Context, ownerID, pluginID uuid.UUID) error {
	if err := s.store.DeleteByOwnerPlugin(ctx, ownerID, pluginID); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "plugin access overrides purged", logger.OwnerID(ownerID), logger.PluginID(pluginID))
	return nil
}

func (s *Service) activeMember(ctx context.Context, memberID uuid.UUID) (*team.Member, error) {
	m, err := s.members.Get(ctx, memberID)
	if err != nil {
		return nil, err
	}
	if !m.Active {
		return nil, team.ErrMemberInactive
	}
	return m, nil
}

func (s *Service) ownerCanUse(ctx context.Context, ownerID, pluginID uuid.UUID) bool {
	sub, err := s.subscriptions.Get(ctx, ownerID, pluginID)
	if err != nil {
		if !errors.Is(err, subscription.ErrSubscriptionNotFound) {
			s.logger.WarnContext(ctx, "failed to load subscription",
				logger.OwnerID(ownerID), logger.PluginID(pluginID), logger.Error(err))
		}
		return false
	}
	return subscription.IsUsable(sub, s.now())
}

func (s *Service) now() time.Time {
	return clock.NowUTC(s.clock)
}
