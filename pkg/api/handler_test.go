package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/bookingkit/pkg/access"
	"github.com/dmitrymomot/bookingkit/pkg/api"
	"github.com/dmitrymomot/bookingkit/pkg/catalog"
	"github.com/dmitrymomot/bookingkit/pkg/subscription"
	"github.com/dmitrymomot/bookingkit/pkg/team"
)

var now = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

type stubProvider struct {
	link  *subscription.CheckoutLink
	event *subscription.WebhookEvent
	err   error
	req   subscription.CheckoutRequest
}

func (p *stubProvider) CreateCheckoutLink(_ context.Context, req subscription.CheckoutRequest) (*subscription.CheckoutLink, error) {
	p.req = req
	return p.link, p.err
}

func (p *stubProvider) ParseWebhook(context.Context, []byte, string) (*subscription.WebhookEvent, error) {
	return p.event, p.err
}

type fixture struct {
	handler  http.Handler
	subs     *subscription.Service
	team     *team.Service
	access   *access.Service
	provider *stubProvider
	clock    *clockwork.FakeClock
	reports  catalog.Plugin
	pos      catalog.Plugin
	owner    uuid.UUID
}

func newFixture(t *testing.T, opts ...api.Option) *fixture {
	t.Helper()

	f := &fixture{
		provider: &stubProvider{},
		clock:    clockwork.NewFakeClockAt(now),
		reports:  catalog.Plugin{ID: uuid.New(), Slug: "reports", Name: "Reports", PriceID: "pri_reports", Active: true},
		pos:      catalog.Plugin{ID: uuid.New(), Slug: "pos", Name: "POS", PriceID: "pri_pos", Active: true},
		owner:    uuid.New(),
	}

	cat, err := catalog.New(context.Background(), catalog.NewInMemSource(f.reports, f.pos))
	require.NoError(t, err)

	f.subs = subscription.NewService(subscription.NewMemoryStore(), cat, f.provider,
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
	f.handler = api.NewHandler(cat, f.subs, f.team, f.access, opts...).Routes()
	return f
}

type envelope struct {
	Data  json.RawMessage  `json:"data"`
	Error *api.ErrorDetail `json:"error"`
}

func (f *fixture) do(t *testing.T, user uuid.UUID, method, path string, body any) (int, envelope) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if user != uuid.Nil {
		req.Header.Set(api.UserHeader, user.String())
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	}
	return rec.Code, env
}

func decode[T any](t *testing.T, env envelope) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(env.Data, &v))
	return v
}

func (f *fixture) ownerPath(parts ...string) string {
	p := "/owners/" + f.owner.String()
	for _, part := range parts {
		p += "/" + part
	}
	return p
}

// join invites email with role and accepts as a fresh user.
func (f *fixture) join(t *testing.T, role string) (uuid.UUID, team.Member) {
	t.Helper()
	code, env := f.do(t, f.owner, http.MethodPost, f.ownerPath("members"), map[string]any{
		"email": uuid.NewString() + "@example.com",
		"role":  role,
	})
	require.Equal(t, http.StatusCreated, code)
	inv := decode[team.Invitation](t, env)

	user := uuid.New()
	code, env = f.do(t, user, http.MethodPost, "/invitations/"+inv.ID.String()+"/accept", nil)
	require.Equal(t, http.StatusOK, code)
	return user, decode[team.Member](t, env)
}

func (f *fixture) canAccess(t *testing.T, user uuid.UUID, plugin uuid.UUID) bool {
	t.Helper()
	code, env := f.do(t, user, http.MethodGet, f.ownerPath("plugins", plugin.String(), "access"), nil)
	require.Equal(t, http.StatusOK, code)
	return decode[struct {
		CanAccess bool `json:"can_access"`
	}](t, env).CanAccess
}

func TestActorHeader(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	code, env := f.do(t, uuid.Nil, http.MethodGet, "/plugins", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "unauthenticated", env.Error.Code)

	req := httptest.NewRequest(http.MethodGet, "/plugins", nil)
	req.Header.Set(api.UserHeader, "not-a-uuid")
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	code, env = f.do(t, f.owner, http.MethodGet, "/plugins", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Len(t, decode[[]catalog.Plugin](t, env), 2)
}

func TestInvalidPathID(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	code, env := f.do(t, f.owner, http.MethodGet, "/owners/nope/plugins", nil)
	assert.Equal(t, http.StatusBadRequest, code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "invalid_id", env.Error.Code)
}

func TestTrialFlow(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	trial := f.ownerPath("plugins", f.reports.ID.String(), "trial")

	assert.False(t, f.canAccess(t, f.owner, f.reports.ID))

	code, env := f.do(t, f.owner, http.MethodPost, trial, nil)
	require.Equal(t, http.StatusCreated, code)
	sub := decode[subscription.Subscription](t, env)
	assert.Equal(t, subscription.StatusTrial, sub.Status)
	assert.True(t, f.canAccess(t, f.owner, f.reports.ID))

	code, env = f.do(t, f.owner, http.MethodGet, f.ownerPath("plugins", f.reports.ID.String(), "state"), nil)
	require.Equal(t, http.StatusOK, code)
	state := decode[access.State](t, env)
	assert.True(t, state.IsTrial)
	assert.Equal(t, 7, state.TrialDaysRemaining)
	assert.False(t, state.TrialAvailable)

	code, env = f.do(t, f.owner, http.MethodPost, trial, nil)
	assert.Equal(t, http.StatusConflict, code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "trial_already_used", env.Error.Code)

	code, env = f.do(t, f.owner, http.MethodPost, f.ownerPath("plugins", f.reports.ID.String(), "cancel"), nil)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "no_active_subscription", env.Error.Code)

	code, env = f.do(t, f.owner, http.MethodPost, f.ownerPath("plugins", uuid.NewString(), "trial"), nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "plugin_not_found", env.Error.Code)

	code, env = f.do(t, f.owner, http.MethodGet, f.ownerPath("plugins"), nil)
	require.Equal(t, http.StatusOK, code)
	plugins := decode[[]catalog.Plugin](t, env)
	require.Len(t, plugins, 1)
	assert.Equal(t, f.reports.ID, plugins[0].ID)
}

func TestMemberAccessFlow(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.subs.ConfirmPaidActivation(ctx, f.owner, f.reports.ID, "sub_1", now.Add(30*24*time.Hour))
	require.NoError(t, err)

	user, member := f.join(t, "employee")
	assert.False(t, f.canAccess(t, user, f.reports.ID), "no override denies")

	code, env := f.do(t, f.owner, http.MethodPut,
		f.ownerPath("members", member.ID.String(), "plugins", f.reports.ID.String()),
		map[string]bool{"can_access": true})
	require.Equal(t, http.StatusOK, code)
	o := decode[access.Override](t, env)
	assert.True(t, o.CanAccess)
	assert.True(t, f.canAccess(t, user, f.reports.ID))

	code, env = f.do(t, user, http.MethodGet, f.ownerPath("plugins"), nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, decode[[]catalog.Plugin](t, env), 1)

	code, _ = f.do(t, f.owner, http.MethodPut, f.ownerPath("members", member.ID.String(), "plugins"), map[string]any{
		"grants": []map[string]any{
			{"plugin_id": f.reports.ID, "can_access": false},
			{"plugin_id": f.pos.ID, "can_access": true},
		},
	})
	require.Equal(t, http.StatusOK, code)
	assert.False(t, f.canAccess(t, user, f.reports.ID))
	assert.False(t, f.canAccess(t, user, f.pos.ID), "override cannot exceed the owner's subscription")

	code, env = f.do(t, f.owner, http.MethodGet, f.ownerPath("members", member.ID.String(), "plugins"), nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, decode[[]access.Override](t, env), 2)

	code, env = f.do(t, f.owner, http.MethodPut, f.ownerPath("members", member.ID.String(), "plugins"), map[string]any{
		"grants": []map[string]any{
			{"plugin_id": f.pos.ID, "can_access": false},
			{"plugin_id": uuid.New(), "can_access": true},
		},
	})
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "plugin_not_found", env.Error.Code)
}

func TestPermissions(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	employee, _ := f.join(t, "employee")
	admin, _ := f.join(t, "admin")
	stranger := uuid.New()

	tests := []struct {
		name   string
		user   uuid.UUID
		method string
		path   string
		body   any
		code   int
		errKey string
	}{
		{"employee cannot start trial", employee, http.MethodPost, f.ownerPath("plugins", f.reports.ID.String(), "trial"), nil, http.StatusForbidden, "forbidden"},
		{"employee cannot read plugin state", employee, http.MethodGet, f.ownerPath("plugins", f.reports.ID.String(), "state"), nil, http.StatusForbidden, "forbidden"},
		{"employee cannot invite", employee, http.MethodPost, f.ownerPath("members"), map[string]string{"email": "a@example.com", "role": "viewer"}, http.StatusForbidden, "forbidden"},
		{"stranger cannot list members", stranger, http.MethodGet, f.ownerPath("members"), nil, http.StatusForbidden, "forbidden"},
		{"admin cannot start trial", admin, http.MethodPost, f.ownerPath("plugins", f.reports.ID.String(), "trial"), nil, http.StatusForbidden, "forbidden"},
		{"admin cannot invite admin", admin, http.MethodPost, f.ownerPath("members"), map[string]string{"email": "b@example.com", "role": "admin"}, http.StatusForbidden, "cannot_manage_role"},
		{"admin invites manager", admin, http.MethodPost, f.ownerPath("members"), map[string]string{"email": "c@example.com", "role": "manager"}, http.StatusCreated, ""},
		{"admin reads plugin state", admin, http.MethodGet, f.ownerPath("plugins", f.reports.ID.String(), "state"), nil, http.StatusOK, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, env := f.do(t, tt.user, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.code, code)
			if tt.errKey != "" {
				require.NotNil(t, env.Error)
				assert.Equal(t, tt.errKey, env.Error.Code)
			}
		})
	}
}

func TestInviteValidation(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	code, env := f.do(t, f.owner, http.MethodPost, f.ownerPath("members"), map[string]any{
		"email":              "not-an-email",
		"role":               "employee",
		"custom_permissions": []string{"bookings:read", "rockets:launch"},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "validation_error", env.Error.Code)
	assert.Contains(t, env.Error.Details, "email")
	assert.Contains(t, env.Error.Details, "custom_permissions")

	code, env = f.do(t, f.owner, http.MethodPost, f.ownerPath("members"), map[string]any{
		"email": "x@example.com",
		"role":  "owner",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Contains(t, env.Error.Details, "role")

	code, env = f.do(t, f.owner, http.MethodPost, f.ownerPath("members"), map[string]any{
		"email": "x@example.com",
		"extra": true,
	})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "invalid_json", env.Error.Code)

	req := httptest.NewRequest(http.MethodPost, f.ownerPath("members"), bytes.NewBufferString(`email=x`))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set(api.UserHeader, f.owner.String())
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
}

func TestInvitationLifecycle(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	code, env := f.do(t, f.owner, http.MethodPost, f.ownerPath("members"), map[string]string{
		"email": "pat@example.com", "role": "viewer",
	})
	require.Equal(t, http.StatusCreated, code)
	inv := decode[team.Invitation](t, env)

	code, env = f.do(t, f.owner, http.MethodPost, f.ownerPath("members"), map[string]string{
		"email": "pat@example.com", "role": "viewer",
	})
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "invitation_exists", env.Error.Code)

	code, env = f.do(t, f.owner, http.MethodGet, f.ownerPath("invitations"), nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, decode[[]team.Invitation](t, env), 1)

	code, _ = f.do(t, f.owner, http.MethodDelete, f.ownerPath("invitations", inv.ID.String()), nil)
	assert.Equal(t, http.StatusNoContent, code)

	code, env = f.do(t, uuid.New(), http.MethodPost, "/invitations/"+inv.ID.String()+"/accept", nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "invitation_not_found", env.Error.Code)
}

func TestRemoveMember(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	_, err := f.subs.StartTrial(context.Background(), f.owner, f.reports.ID)
	require.NoError(t, err)

	user, member := f.join(t, "manager")
	admin, adminMember := f.join(t, "admin")

	code, _ := f.do(t, f.owner, http.MethodPut,
		f.ownerPath("members", member.ID.String(), "plugins", f.reports.ID.String()),
		map[string]bool{"can_access": true})
	require.Equal(t, http.StatusOK, code)
	require.True(t, f.canAccess(t, user, f.reports.ID))

	code, env := f.do(t, admin, http.MethodDelete, f.ownerPath("members", adminMember.ID.String()), nil)
	assert.Equal(t, http.StatusForbidden, code, "peers cannot remove each other")
	assert.Equal(t, "cannot_manage_role", env.Error.Code)

	code, _ = f.do(t, admin, http.MethodDelete, f.ownerPath("members", member.ID.String()), nil)
	assert.Equal(t, http.StatusNoContent, code)
	assert.False(t, f.canAccess(t, user, f.reports.ID))

	overrides, err := f.access.Overrides(context.Background(), member.ID)
	require.NoError(t, err)
	assert.Empty(t, overrides)

	code, env = f.do(t, f.owner, http.MethodDelete, f.ownerPath("members", member.ID.String()), nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "member_not_found", env.Error.Code)
}

func TestForeignMember(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	_, member := f.join(t, "employee")

	otherOwner := uuid.New()
	path := "/owners/" + otherOwner.String() + "/members/" + member.ID.String() + "/plugins/" + f.reports.ID.String()
	code, env := f.do(t, otherOwner, http.MethodPut, path, map[string]bool{"can_access": true})
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "member_not_found", env.Error.Code)
}

func TestUpdateRole(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	_, member := f.join(t, "viewer")

	code, env := f.do(t, f.owner, http.MethodPut, f.ownerPath("members", member.ID.String(), "role"), map[string]string{"role": "manager"})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "manager", decode[team.Member](t, env).Role.String())

	admin, _ := f.join(t, "admin")
	code, env = f.do(t, admin, http.MethodPut, f.ownerPath("members", member.ID.String(), "role"), map[string]string{"role": "admin"})
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "cannot_manage_role", env.Error.Code)
}

func TestGrantLimits(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	_, err := f.subs.StartTrial(context.Background(), f.owner, f.reports.ID)
	require.NoError(t, err)

	admin, adminMember := f.join(t, "admin")
	_, peer := f.join(t, "admin")
	_, viewer := f.join(t, "viewer")

	code, env := f.do(t, admin, http.MethodPost, f.ownerPath("members"), map[string]any{
		"email":              "escalate@example.com",
		"role":               "viewer",
		"custom_permissions": []string{"billing:manage", "team:manage"},
	})
	assert.Equal(t, http.StatusForbidden, code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "permission_escalation", env.Error.Code)

	code, _ = f.do(t, admin, http.MethodPost, f.ownerPath("members"), map[string]any{
		"email":              "helper@example.com",
		"role":               "viewer",
		"custom_permissions": []string{"team:manage"},
	})
	assert.Equal(t, http.StatusCreated, code, "admins grant what they hold")

	overridePath := func(m team.Member) string {
		return f.ownerPath("members", m.ID.String(), "plugins", f.reports.ID.String())
	}
	tests := []struct {
		name   string
		method string
		path   string
		body   any
		code   int
		errKey string
	}{
		{"override on peer", http.MethodPut, overridePath(peer), map[string]bool{"can_access": true}, http.StatusForbidden, "cannot_manage_role"},
		{"override on self", http.MethodPut, overridePath(adminMember), map[string]bool{"can_access": true}, http.StatusForbidden, "cannot_manage_role"},
		{"bulk override on peer", http.MethodPut, f.ownerPath("members", peer.ID.String(), "plugins"),
			map[string]any{"grants": []map[string]any{{"plugin_id": f.reports.ID, "can_access": true}}}, http.StatusForbidden, "cannot_manage_role"},
		{"override on viewer", http.MethodPut, overridePath(viewer), map[string]bool{"can_access": true}, http.StatusOK, ""},
		{"permissions not held", http.MethodPut, f.ownerPath("members", viewer.ID.String(), "permissions"),
			map[string]any{"custom_permissions": []string{"billing:manage"}}, http.StatusForbidden, "permission_escalation"},
		{"permissions on peer", http.MethodPut, f.ownerPath("members", peer.ID.String(), "permissions"),
			map[string]any{"custom_permissions": []string{"bookings:read"}}, http.StatusForbidden, "cannot_manage_role"},
		{"permissions held", http.MethodPut, f.ownerPath("members", viewer.ID.String(), "permissions"),
			map[string]any{"custom_permissions": []string{"clients:write"}}, http.StatusOK, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, env := f.do(t, admin, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.code, code)
			if tt.errKey != "" {
				require.NotNil(t, env.Error)
				assert.Equal(t, tt.errKey, env.Error.Code)
			}
		})
	}

	m, err := f.team.Get(context.Background(), viewer.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"clients:write"}, m.Permissions())
}

func TestDeleteSubscription(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	path := f.ownerPath("plugins", f.reports.ID.String(), "subscription")

	_, err := f.subs.StartTrial(ctx, f.owner, f.reports.ID)
	require.NoError(t, err)
	employee, member := f.join(t, "employee")
	_, err = f.access.SetOverride(ctx, member.ID, f.reports.ID, true)
	require.NoError(t, err)

	code, env := f.do(t, employee, http.MethodDelete, path, nil)
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "forbidden", env.Error.Code)

	code, env = f.do(t, f.owner, http.MethodDelete, path, nil)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "subscription_in_use", env.Error.Code)

	f.clock.Advance(7 * 24 * time.Hour)
	code, _ = f.do(t, f.owner, http.MethodDelete, path, nil)
	assert.Equal(t, http.StatusNoContent, code)

	overrides, err := f.access.Overrides(ctx, member.ID)
	require.NoError(t, err)
	assert.Empty(t, overrides)

	code, env = f.do(t, f.owner, http.MethodPost, f.ownerPath("plugins", f.reports.ID.String(), "trial"), nil)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "trial_already_used", env.Error.Code)

	code, env = f.do(t, f.owner, http.MethodDelete, path, nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "subscription_not_found", env.Error.Code)
}

func TestRequestCheckout(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	path := f.ownerPath("plugins", f.reports.ID.String(), "checkout")

	f.provider.link = &subscription.CheckoutLink{URL: "https://pay.example.com/c/1", SessionID: "txn_1"}
	code, env := f.do(t, f.owner, http.MethodPost, path, map[string]string{
		"success_url": "https://app.example.com/ok",
	})
	require.Equal(t, http.StatusCreated, code)
	link := decode[subscription.CheckoutLink](t, env)
	assert.Equal(t, "https://pay.example.com/c/1", link.URL)
	assert.Equal(t, "pri_reports", f.provider.req.PriceID)
	assert.Equal(t, "https://app.example.com/ok", f.provider.req.SuccessURL)

	code, _ = f.do(t, f.owner, http.MethodPost, path, nil)
	assert.Equal(t, http.StatusCreated, code, "empty body uses defaults")

	code, env = f.do(t, f.owner, http.MethodPost, path, map[string]string{"success_url": "ftp://x"})
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Contains(t, env.Error.Details, "success_url")

	f.provider.link, f.provider.err = nil, errors.New("upstream down")
	code, env = f.do(t, f.owner, http.MethodPost, path, nil)
	assert.Equal(t, http.StatusBadGateway, code)
	assert.Equal(t, "billing_provider_error", env.Error.Code)

	_, err := f.subs.ConfirmPaidActivation(context.Background(), f.owner, f.reports.ID, "sub_1", now.Add(24*time.Hour))
	require.NoError(t, err)
	code, env = f.do(t, f.owner, http.MethodPost, path, nil)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "already_subscribed", env.Error.Code)
}

func TestPaddleWebhook(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	end := now.Add(30 * 24 * time.Hour)

	post := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/webhooks/paddle", bytes.NewBufferString(`{"event_type":"subscription.created"}`))
		req.Header.Set(api.PaddleSignatureHeader, "ts=1;h1=abc")
		rec := httptest.NewRecorder()
		f.handler.ServeHTTP(rec, req)
		return rec
	}

	f.provider.event = &subscription.WebhookEvent{
		Type: subscription.EventSubscriptionCreated, SubscriptionID: "sub_1",
		OwnerID: f.owner, PluginID: f.reports.ID, Status: "active", PeriodEnd: &end,
	}
	rec := post()
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.True(t, f.canAccess(t, f.owner, f.reports.ID))

	f.provider.event, f.provider.err = nil, subscription.ErrWebhookVerificationFailed
	rec = post()
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	f.provider.err = nil
	f.provider.event = &subscription.WebhookEvent{Type: subscription.EventSubscriptionCreated, SubscriptionID: "sub_2"}
	rec = post()
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealthProbes(t *testing.T) {
	t.Parallel()
	f := newFixture(t,
		api.WithProbe("postgres", func(context.Context) error { return nil }),
		api.WithProbe("redis", func(context.Context) error { return errors.New("down") }),
	)

	code := func(path string) int {
		rec := httptest.NewRecorder()
		f.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		return rec.Code
	}
	assert.Equal(t, http.StatusOK, code("/health/live"))
	assert.Equal(t, http.StatusServiceUnavailable, code("/health/ready"))
}

func TestNewHandler_PanicsOnMissingDependencies(t *testing.T) {
	t.Parallel()
	assert.Panics(t, func() { api.NewHandler(nil, nil, nil, nil) })
}
