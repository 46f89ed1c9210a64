package access_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/bookingkit/pkg/access"
	"github.com/dmitrymomot/bookingkit/pkg/catalog"
	"github.com/dmitrymomot/bookingkit/pkg/rbac"
	"github.com/dmitrymomot/bookingkit/pkg/subscription"
	"github.com/dmitrymomot/bookingkit/pkg/team"
)

var now = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

type noopProvider struct{}

func (noopProvider) CreateCheckoutLink(context.Context, subscription.CheckoutRequest) (*subscription.CheckoutLink, error) {
	return nil, errors.New("not implemented")
}

func (noopProvider) ParseWebhook(context.Context, []byte, string) (*subscription.WebhookEvent, error) {
	return nil, errors.New("not implemented")
}

type fixture struct {
	access  *access.Service
	subs    *subscription.Service
	team    *team.Service
	clock   *clockwork.FakeClock
	reports catalog.Plugin
	pos     catalog.Plugin
	retired catalog.Plugin
	owner   uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	f := &fixture{
		clock:   clockwork.NewFakeClockAt(now),
		reports: catalog.Plugin{ID: uuid.New(), Slug: "reports", Name: "Reports", PriceID: "pri_reports", Active: true},
		pos:     catalog.Plugin{ID: uuid.New(), Slug: "pos", Name: "POS", PriceID: "pri_pos", Active: true},
		retired: catalog.Plugin{ID: uuid.New(), Slug: "fax", Name: "Fax", PriceID: "pri_fax"},
		owner:   uuid.New(),
	}

	cat, err := catalog.New(ctx, catalog.NewInMemSource(f.reports, f.pos, f.retired))
	require.NoError(t, err)

	f.subs = subscription.NewService(subscription.NewMemoryStore(), cat, noopProvider{},
		subscription.WithClock(f.clock),
		subscription.WithDeletionHook(func(ctx context.Context, ownerID, pluginID uuid.UUID) error {
			return f.access.PurgeOwnerPlugin(ctx, ownerID, pluginID)
		}),
	)
	f.team = team.NewService(team.NewMemoryStore(), team.WithClock(f.clock),
		team.WithRemovalHook(func(ctx context.Context, m *team.Member) error {
			return f.access.PurgeMember(ctx, m.ID)
		}),
	)
	f.access = access.NewService(access.NewMemoryStore(), cat, f.subs, f.team, access.WithClock(f.clock))
	return f
}

func (f *fixture) member(t *testing.T, role rbac.Role) *team.Member {
	t.Helper()
	ctx := context.Background()
	inv, err := f.team.Invite(ctx, f.owner, f.owner, uuid.NewString()+"@example.com", role, nil)
	require.NoError(t, err)
	m, err := f.team.AcceptInvitation(ctx, inv.ID, uuid.New())
	require.NoError(t, err)
	return m
}

func (f *fixture) activate(t *testing.T, plugin uuid.UUID, period time.Duration) {
	t.Helper()
	_, err := f.subs.ConfirmPaidActivation(context.Background(), f.owner, plugin, "sub_"+plugin.String(), f.clock.Now().Add(period))
	require.NoError(t, err)
}

func TestCanAccess_TrialScenario(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	assert.False(t, f.access.CanAccess(ctx, f.owner, f.owner, f.reports.ID))

	_, err := f.subs.StartTrial(ctx, f.owner, f.reports.ID)
	require.NoError(t, err)
	assert.True(t, f.access.CanAccess(ctx, f.owner, f.owner, f.reports.ID))

	f.clock.Advance(7 * 24 * time.Hour)
	assert.False(t, f.access.CanAccess(ctx, f.owner, f.owner, f.reports.ID))
}

func TestCanAccess_MemberScenario(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	f.activate(t, f.pos.ID, 30*24*time.Hour)
	m := f.member(t, rbac.RoleEmployee)

	assert.False(t, f.access.CanAccess(ctx, m.UserID, f.owner, f.pos.ID), "no override denies")

	_, err := f.access.SetOverride(ctx, m.ID, f.pos.ID, true)
	require.NoError(t, err)
	assert.True(t, f.access.CanAccess(ctx, m.UserID, f.owner, f.pos.ID))

	_, err = f.subs.Cancel(ctx, f.owner, f.pos.ID)
	require.NoError(t, err)
	assert.True(t, f.access.CanAccess(ctx, m.UserID, f.owner, f.pos.ID), "grace period")

	f.clock.Advance(30 * 24 * time.Hour)
	assert.False(t, f.access.CanAccess(ctx, m.UserID, f.owner, f.pos.ID))
	assert.False(t, f.access.CanAccess(ctx, f.owner, f.owner, f.pos.ID))
}

func TestCanAccess_Rules(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("overrides never apply to the owner", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		f.activate(t, f.pos.ID, time.Hour)
		m := f.member(t, rbac.RoleAdmin)

		_, err := f.access.SetOverride(ctx, m.ID, f.pos.ID, false)
		require.NoError(t, err)
		assert.True(t, f.access.CanAccess(ctx, f.owner, f.owner, f.pos.ID))
		assert.False(t, f.access.CanAccess(ctx, m.UserID, f.owner, f.pos.ID))
	})

	t.Run("overrides cannot grant beyond the owner subscription", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		m := f.member(t, rbac.RoleManager)

		_, err := f.access.SetOverride(ctx, m.ID, f.reports.ID, true)
		require.NoError(t, err)
		assert.False(t, f.access.CanAccess(ctx, m.UserID, f.owner, f.reports.ID))
	})

	t.Run("removed member has no access", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		f.activate(t, f.pos.ID, time.Hour)
		m := f.member(t, rbac.RoleEmployee)
		_, err := f.access.SetOverride(ctx, m.ID, f.pos.ID, true)
		require.NoError(t, err)

		require.NoError(t, f.team.Remove(ctx, m.ID))
		assert.False(t, f.access.CanAccess(ctx, m.UserID, f.owner, f.pos.ID))

		overrides, err := f.access.Overrides(ctx, m.ID)
		require.NoError(t, err)
		assert.Empty(t, overrides, "removal hook purges overrides")

		_, err = f.access.SetOverride(ctx, m.ID, f.pos.ID, true)
		assert.ErrorIs(t, err, team.ErrMemberInactive)
	})

	t.Run("unknown inputs resolve to false", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		f.activate(t, f.pos.ID, time.Hour)

		assert.False(t, f.access.CanAccess(ctx, f.owner, f.owner, uuid.New()))
		assert.False(t, f.access.CanAccess(ctx, uuid.New(), f.owner, f.pos.ID))
		m := f.member(t, rbac.RoleEmployee)
		assert.False(t, f.access.CanAccess(ctx, m.UserID, uuid.New(), f.pos.ID), "member of another owner")
	})
}

func TestListAccessiblePlugins(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	f.activate(t, f.pos.ID, 30*24*time.Hour)
	f.activate(t, f.retired.ID, 30*24*time.Hour)
	_, err := f.subs.StartTrial(ctx, f.owner, f.reports.ID)
	require.NoError(t, err)

	ids := func(plugins []catalog.Plugin) []uuid.UUID {
		out := make([]uuid.UUID, 0, len(plugins))
		for _, p := range plugins {
			out = append(out, p.ID)
		}
		return out
	}

	assert.ElementsMatch(t, []uuid.UUID{f.pos.ID, f.reports.ID, f.retired.ID},
		ids(f.access.ListAccessiblePlugins(ctx, f.owner, f.owner)))

	m := f.member(t, rbac.RoleEmployee)
	assert.Empty(t, f.access.ListAccessiblePlugins(ctx, m.UserID, f.owner))

	_, err = f.access.BulkSetOverrides(ctx, m.ID, []access.Grant{
		{PluginID: f.pos.ID, CanAccess: true},
		{PluginID: f.reports.ID, CanAccess: false},
	})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{f.pos.ID}, ids(f.access.ListAccessiblePlugins(ctx, m.UserID, f.owner)))

	f.clock.Advance(7 * 24 * time.Hour)
	assert.ElementsMatch(t, []uuid.UUID{f.pos.ID, f.retired.ID},
		ids(f.access.ListAccessiblePlugins(ctx, f.owner, f.owner)), "trial expired")

	assert.Empty(t, f.access.ListAccessiblePlugins(ctx, uuid.New(), f.owner))
}

func TestBulkSetOverrides(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("all or nothing", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		m := f.member(t, rbac.RoleEmployee)

		_, err := f.access.BulkSetOverrides(ctx, m.ID, []access.Grant{
			{PluginID: f.pos.ID, CanAccess: true},
			{PluginID: uuid.New(), CanAccess: true},
		})
		assert.ErrorIs(t, err, catalog.ErrPluginNotFound)

		overrides, err := f.access.Overrides(ctx, m.ID)
		require.NoError(t, err)
		assert.Empty(t, overrides)
	})

	t.Run("later grants win", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		m := f.member(t, rbac.RoleEmployee)

		batch, err := f.access.BulkSetOverrides(ctx, m.ID, []access.Grant{
			{PluginID: f.pos.ID, CanAccess: true},
			{PluginID: f.pos.ID, CanAccess: false},
		})
		require.NoError(t, err)
		require.Len(t, batch, 1)
		assert.False(t, batch[0].CanAccess)
		assert.Equal(t, f.owner, batch[0].OwnerID)
	})

	t.Run("errors", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)

		_, err := f.access.BulkSetOverrides(ctx, uuid.New(), nil)
		assert.ErrorIs(t, err, access.ErrEmptyBatch)
		_, err = f.access.SetOverride(ctx, uuid.New(), f.pos.ID, true)
		assert.ErrorIs(t, err, team.ErrMemberNotFound)
	})
}

func TestPurgeOwnerPlugin(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	a, b := f.member(t, rbac.RoleEmployee), f.member(t, rbac.RoleViewer)

	for _, m := range []*team.Member{a, b} {
		_, err := f.access.BulkSetOverrides(ctx, m.ID, []access.Grant{
			{PluginID: f.pos.ID, CanAccess: true},
			{PluginID: f.reports.ID, CanAccess: true},
		})
		require.NoError(t, err)
	}

	f.activate(t, f.pos.ID, 24*time.Hour)
	_, err := f.subs.Cancel(ctx, f.owner, f.pos.ID)
	require.NoError(t, err)
	assert.ErrorIs(t, f.subs.Delete(ctx, f.owner, f.pos.ID), subscription.ErrSubscriptionInUse)

	f.clock.Advance(24 * time.Hour)
	require.NoError(t, f.subs.Delete(ctx, f.owner, f.pos.ID))

	for _, m := range []*team.Member{a, b} {
		overrides, err := f.access.Overrides(ctx, m.ID)
		require.NoError(t, err)
		require.Len(t, overrides, 1)
		assert.Equal(t, f.reports.ID, overrides[0].PluginID)
	}
}

func TestPluginState(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("no subscription", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)

		state := f.access.PluginState(ctx, f.owner, f.reports.ID)
		assert.Equal(t, subscription.StatusNone, state.Status)
		assert.True(t, state.TrialAvailable)
		assert.True(t, state.ShowUpsell)
	})

	t.Run("trial countdown", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		_, err := f.subs.StartTrial(ctx, f.owner, f.reports.ID)
		require.NoError(t, err)

		f.clock.Advance(6*24*time.Hour + time.Minute)
		state := f.access.PluginState(ctx, f.owner, f.reports.ID)
		assert.Equal(t, subscription.StatusTrial, state.Status)
		assert.True(t, state.IsTrial)
		assert.Equal(t, 1, state.TrialDaysRemaining)
		assert.False(t, state.TrialAvailable)
		assert.True(t, state.ShowUpsell)

		f.clock.Advance(24 * time.Hour)
		state = f.access.PluginState(ctx, f.owner, f.reports.ID)
		assert.Equal(t, subscription.StatusExpired, state.Status)
		assert.False(t, state.IsTrial)
		assert.Zero(t, state.TrialDaysRemaining)
		assert.False(t, state.TrialAvailable, "trial used")
		assert.True(t, state.ShowUpsell)
	})

	t.Run("active and cancelled", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		f.activate(t, f.pos.ID, 10*24*time.Hour)

		state := f.access.PluginState(ctx, f.owner, f.pos.ID)
		assert.Equal(t, subscription.StatusActive, state.Status)
		assert.False(t, state.ShowUpsell)
		assert.False(t, state.Cancelled)
		require.NotNil(t, state.CurrentPeriodEnd)

		_, err := f.subs.Cancel(ctx, f.owner, f.pos.ID)
		require.NoError(t, err)
		state = f.access.PluginState(ctx, f.owner, f.pos.ID)
		assert.Equal(t, subscription.StatusActive, state.Status)
		assert.True(t, state.Cancelled)

		f.clock.Advance(10 * 24 * time.Hour)
		state = f.access.PluginState(ctx, f.owner, f.pos.ID)
		assert.Equal(t, subscription.StatusExpired, state.Status)
		assert.False(t, state.Cancelled)
		assert.True(t, state.TrialAvailable, "paid plans do not consume the trial")
	})

	t.Run("retired and unknown plugins", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)

		state := f.access.PluginState(ctx, f.owner, f.retired.ID)
		assert.False(t, state.ShowUpsell)
		assert.False(t, state.TrialAvailable)

		state = f.access.PluginState(ctx, f.owner, uuid.New())
		assert.Equal(t, subscription.StatusNone, state.Status)
	})
}
