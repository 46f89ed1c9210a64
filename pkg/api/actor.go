package api

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

// UserHeader carries the authenticated user's id. Authentication happens
// upstream; the API trusts this header.
const UserHeader = "X-User-ID"

type actorKey struct{}

// WithActor stores the acting user id in ctx.
func WithActor(ctx context.Context, userID uuid.UUID) context.Context {
	return context.WithValue(ctx, actorKey{}, userID)
}

// ActorFromContext returns the acting user id, or uuid.Nil.
func ActorFromContext(ctx context.Context) uuid.UUID {
	id, _ := ctx.Value(actorKey{}).(uuid.UUID)
	return id
}

// requireActor rejects requests without a valid UserHeader.
func (h *Handler) requireActor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := r.Header.Get(UserHeader)
		if raw == "" {
			h.fail(w, r, ErrMissingUser)
			return
		}
		id, err := uuid.Parse(raw)
		if err != nil || id == uuid.Nil {
			h.fail(w, r, ErrInvalidUser)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), id)))
	})
}
