package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/dmitrymomot/bookingkit/pkg/access"
	"github.com/dmitrymomot/bookingkit/pkg/catalog"
	"github.com/dmitrymomot/bookingkit/pkg/httpserver"
	"github.com/dmitrymomot/bookingkit/pkg/logger"
	"github.com/dmitrymomot/bookingkit/pkg/rbac"
	"github.com/dmitrymomot/bookingkit/pkg/requestid"
	"github.com/dmitrymomot/bookingkit/pkg/subscription"
	"github.com/dmitrymomot/bookingkit/pkg/team"
)

// PluginLister lists the plugin catalog.
type PluginLister interface {
	List(ctx context.Context) []catalog.Plugin
}

// Handler serves the entitlement HTTP API.
type Handler struct {
	plugins       PluginLister
	subscriptions *subscription.Service
	team          *team.Service
	access        *access.Service
	readiness     map[string]httpserver.Check
	logger        *slog.Logger
	maxBodySize   int64
}

// Option configures a Handler.
type Option func(*Handler)

// WithLogger sets the request and error logger.
func WithLogger(l *slog.Logger) Option {
	return func(h *Handler) {
		if l != nil {
			h.logger = l
		}
	}
}

// WithProbe registers a named readiness check.
func WithProbe(name string, check httpserver.Check) Option {
	return func(h *Handler) {
		h.readiness[name] = check
	}
}

// WithMaxBodySize overrides DefaultMaxBodySize.
func WithMaxBodySize(n int64) Option {
	return func(h *Handler) {
		if n > 0 {
			h.maxBodySize = n
		}
	}
}

// NewHandler creates the API handler. It panics on nil services.
func NewHandler(plugins PluginLister, subs *subscription.Service, members *team.Service, acc *access.Service, opts ...Option) *Handler {
	if plugins == nil {
		panic("api: plugin lister is required")
	}
	if subs == nil {
		panic("api: subscription service is required")
	}
	if members == nil {
		panic("api: team service is required")
	}
	if acc == nil {
		panic("api: access service is required")
	}

	h := &Handler{
		plugins:       plugins,
		subscriptions: subs,
		team:          members,
		access:        acc,
		readiness:     make(map[string]httpserver.Check),
		logger:        logger.Discard(),
		maxBodySize:   DefaultMaxBodySize,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Routes returns the chi router with every endpoint mounted.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(requestid.Middleware)
	r.Use(h.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/health/live", httpserver.LivenessHandler())
	r.Get("/health/ready", httpserver.ReadinessHandler(h.logger, h.readiness))

	r.Post("/webhooks/paddle", h.paddleWebhook)

	r.Group(func(r chi.Router) {
		r.Use(h.requireActor)

		r.Get("/plugins", h.listPlugins)
		r.Post("/invitations/{invitationID}/accept", h.acceptInvitation)

		r.Route("/owners/{ownerID}", func(r chi.Router) {
			r.Get("/plugins", h.listAccessiblePlugins)
			r.Get("/subscriptions", h.listSubscriptions)
			r.Route("/plugins/{pluginID}", func(r chi.Router) {
				r.Get("/access", h.canAccess)
				r.Get("/state", h.pluginState)
				r.Post("/trial", h.startTrial)
				r.Post("/checkout", h.requestCheckout)
				r.Post("/cancel", h.cancel)
				r.Delete("/subscription", h.deleteSubscription)
			})

			r.Get("/members", h.listMembers)
			r.Post("/members", h.invite)
			r.Get("/invitations", h.listInvitations)
			r.Delete("/invitations/{invitationID}", h.revokeInvitation)
			r.Route("/members/{memberID}", func(r chi.Router) {
				r.Delete("/", h.removeMember)
				r.Put("/role", h.updateRole)
				r.Put("/permissions", h.setPermissions)
				r.Get("/plugins", h.listOverrides)
				r.Put("/plugins", h.bulkSetOverrides)
				r.Put("/plugins/{pluginID}", h.setOverride)
			})
		})
	})
	return r
}

// fail writes err as a JSON error envelope. Server errors are logged with
// their cause; client errors at debug level.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, detail := classify(err)
	level := slog.LevelDebug
	if status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	h.logger.Log(r.Context(), level, "request failed",
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.Int("status", status),
		logger.Error(err),
	)
	writeJSON(w, status, Envelope{Error: detail})
}

func (h *Handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		h.logger.InfoContext(r.Context(), "http request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", ww.Status()),
			slog.Duration("duration", time.Since(start)),
		)
	})
}

// authorize checks the acting user's permission under owner. Users that are
// not active members of owner are forbidden rather than not found.
func (h *Handler) authorize(ctx context.Context, ownerID uuid.UUID, permission string) error {
	err := h.team.Authorize(ctx, ownerID, ActorFromContext(ctx), permission)
	if errors.Is(err, team.ErrMemberNotFound) || errors.Is(err, team.ErrMemberInactive) {
		return rbac.ErrInsufficientPermissions
	}
	return err
}

// manageable returns memberID when it belongs to owner and the acting user
// outranks it.
func (h *Handler) manageable(ctx context.Context, ownerID, memberID uuid.UUID) (*team.Member, error) {
	m, err := h.memberOf(ctx, ownerID, memberID)
	if err != nil {
		return nil, err
	}
	actorRole, err := h.team.Role(ctx, ownerID, ActorFromContext(ctx))
	if err != nil {
		return nil, err
	}
	if !rbac.CanManage(actorRole, m.Role) {
		return nil, rbac.ErrCannotManageRole
	}
	return m, nil
}

// memberOf returns memberID when it belongs to owner.
func (h *Handler) memberOf(ctx context.Context, ownerID, memberID uuid.UUID) (*team.Member, error) {
	m, err := h.team.Get(ctx, memberID)
	if err != nil {
		return nil, err
	}
	if m.OwnerID != ownerID {
		return nil, ErrForeignMember
	}
	return m, nil
}
