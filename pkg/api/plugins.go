package api

import (
	"errors"
	"net/http"

	"github.com/dmitrymomot/bookingkit/pkg/logger"
	"github.com/dmitrymomot/bookingkit/pkg/rbac"
	"github.com/dmitrymomot/bookingkit/pkg/subscription"
	"github.com/dmitrymomot/bookingkit/pkg/validator"
)

type accessResponse struct {
	PluginID  string `json:"plugin_id"`
	CanAccess bool   `json:"can_access"`
}

type checkoutRequest struct {
	Email      string `json:"email"`
	SuccessURL string `json:"success_url"`
	CancelURL  string `json:"cancel_url"`
}

func (h *Handler) listPlugins(w http.ResponseWriter, r *http.Request) {
	respond(w, http.StatusOK, h.plugins.List(r.Context()))
}

func (h *Handler) listAccessiblePlugins(w http.ResponseWriter, r *http.Request) {
	ownerID, err := pathID(r, "ownerID")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond(w, http.StatusOK, h.access.ListAccessiblePlugins(r.Context(), ActorFromContext(r.Context()), ownerID))
}

func (h *Handler) listSubscriptions(w http.ResponseWriter, r *http.Request) {
	ownerID, err := pathID(r, "ownerID")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.authorize(r.Context(), ownerID, rbac.PermBillingRead); err != nil {
		h.fail(w, r, err)
		return
	}
	subs, err := h.subscriptions.ListByOwner(r.Context(), ownerID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond(w, http.StatusOK, subs)
}

func (h *Handler) canAccess(w http.ResponseWriter, r *http.Request) {
	ids, err := pathIDs(r, "ownerID", "pluginID")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	ok := h.access.CanAccess(r.Context(), ActorFromContext(r.Context()), ids[0], ids[1])
	respond(w, http.StatusOK, accessResponse{PluginID: ids[1].String(), CanAccess: ok})
}

func (h *Handler) pluginState(w http.ResponseWriter, r *http.Request) {
	ids, err := pathIDs(r, "ownerID", "pluginID")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.authorize(r.Context(), ids[0], rbac.PermPluginsRead); err != nil {
		h.fail(w, r, err)
		return
	}
	respond(w, http.StatusOK, h.access.PluginState(r.Context(), ids[0], ids[1]))
}

func (h *Handler) startTrial(w http.ResponseWriter, r *http.Request) {
	ids, err := pathIDs(r, "ownerID", "pluginID")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.authorize(r.Context(), ids[0], rbac.PermBillingManage); err != nil {
		h.fail(w, r, err)
		return
	}
	sub, err := h.subscriptions.StartTrial(r.Context(), ids[0], ids[1])
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond(w, http.StatusCreated, sub)
}

func (h *Handler) requestCheckout(w http.ResponseWriter, r *http.Request) {
	ids, err := pathIDs(r, "ownerID", "pluginID")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.authorize(r.Context(), ids[0], rbac.PermBillingManage); err != nil {
		h.fail(w, r, err)
		return
	}

	var req checkoutRequest
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodySize)
	if err := decodeJSON(r, &req, true); err != nil {
		h.fail(w, r, err)
		return
	}
	rules := []validator.Rule{
		validator.OptionalURL("success_url", req.SuccessURL),
		validator.OptionalURL("cancel_url", req.CancelURL),
	}
	if req.Email != "" {
		rules = append(rules, validator.ValidEmail("email", req.Email))
	}
	if err := validator.Apply(rules...); err != nil {
		h.fail(w, r, err)
		return
	}

	link, err := h.subscriptions.RequestCheckout(r.Context(), ids[0], ids[1], subscription.CheckoutOptions{
		Email:      req.Email,
		SuccessURL: req.SuccessURL,
		CancelURL:  req.CancelURL,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond(w, http.StatusCreated, link)
}

func (h *Handler) cancel(w http.ResponseWriter, r *http.Request) {
	ids, err := pathIDs(r, "ownerID", "pluginID")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.authorize(r.Context(), ids[0], rbac.PermBillingManage); err != nil {
		h.fail(w, r, err)
		return
	}
	sub, err := h.subscriptions.Cancel(r.Context(), ids[0], ids[1])
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond(w, http.StatusOK, sub)
}

func (h *Handler) deleteSubscription(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ids, err := pathIDs(r, "ownerID", "pluginID")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.authorize(ctx, ids[0], rbac.PermBillingManage); err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.subscriptions.Delete(ctx, ids[0], ids[1]); err != nil {
		// The record is gone; leftover overrides no longer grant access.
		if !errors.Is(err, subscription.ErrDeletionHookFailed) {
			h.fail(w, r, err)
			return
		}
		h.logger.WarnContext(ctx, "subscription deleted with pending cleanup",
			logger.OwnerID(ids[0]), logger.PluginID(ids[1]), logger.Error(err))
	}
	w.WriteHeader(http.StatusNoContent)
}
