package api

import (
	"errors"
	"net/http"

	"github.com/dmitrymomot/bookingkit/pkg/access"
	"github.com/dmitrymomot/bookingkit/pkg/logger"
	"github.com/dmitrymomot/bookingkit/pkg/rbac"
	"github.com/dmitrymomot/bookingkit/pkg/team"
)

type inviteRequest struct {
	Email             string   `json:"email"`
	Role              string   `json:"role"`
	CustomPermissions []string `json:"custom_permissions"`
}

type roleRequest struct {
	Role string `json:"role"`
}

type permissionsRequest struct {
	CustomPermissions []string `json:"custom_permissions"`
}

type overrideRequest struct {
	CanAccess bool `json:"can_access"`
}

type bulkOverrideRequest struct {
	Grants []access.Grant `json:"grants"`
}

func (h *Handler) listMembers(w http.ResponseWriter, r *http.Request) {
	ownerID, err := pathID(r, "ownerID")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.authorize(r.Context(), ownerID, rbac.PermTeamRead); err != nil {
		h.fail(w, r, err)
		return
	}
	members, err := h.team.List(r.Context(), ownerID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond(w, http.StatusOK, members)
}

func (h *Handler) invite(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ownerID, err := pathID(r, "ownerID")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.authorize(ctx, ownerID, rbac.PermTeamManage); err != nil {
		h.fail(w, r, err)
		return
	}

	var req inviteRequest
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodySize)
	if err := decodeJSON(r, &req, false); err != nil {
		h.fail(w, r, err)
		return
	}

	inv, err := h.team.Invite(ctx, ownerID, ActorFromContext(ctx), req.Email, rbac.Role(req.Role), req.CustomPermissions)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond(w, http.StatusCreated, inv)
}

func (h *Handler) listInvitations(w http.ResponseWriter, r *http.Request) {
	ownerID, err := pathID(r, "ownerID")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.authorize(r.Context(), ownerID, rbac.PermTeamRead); err != nil {
		h.fail(w, r, err)
		return
	}
	invitations, err := h.team.ListInvitations(r.Context(), ownerID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond(w, http.StatusOK, invitations)
}

func (h *Handler) revokeInvitation(w http.ResponseWriter, r *http.Request) {
	ids, err := pathIDs(r, "ownerID", "invitationID")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.authorize(r.Context(), ids[0], rbac.PermTeamManage); err != nil {
		h.fail(w, r, err)
		return
	}
	invitations, err := h.team.ListInvitations(r.Context(), ids[0])
	if err != nil {
		h.fail(w, r, err)
		return
	}
	found := false
	for _, inv := range invitations {
		if inv.ID == ids[1] {
			found = true
			break
		}
	}
	if !found {
		h.fail(w, r, team.ErrInvitationNotFound)
		return
	}
	if err := h.team.RevokeInvitation(r.Context(), ids[1]); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) acceptInvitation(w http.ResponseWriter, r *http.Request) {
	invitationID, err := pathID(r, "invitationID")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	m, err := h.team.AcceptInvitation(r.Context(), invitationID, ActorFromContext(r.Context()))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond(w, http.StatusOK, m)
}

func (h *Handler) removeMember(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ids, err := pathIDs(r, "ownerID", "memberID")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.authorize(ctx, ids[0], rbac.PermTeamManage); err != nil {
		h.fail(w, r, err)
		return
	}
	m, err := h.manageable(ctx, ids[0], ids[1])
	if err != nil {
		h.fail(w, r, err)
		return
	}

	if err := h.team.Remove(ctx, m.ID); err != nil {
		// The member is already deactivated and resolves to no access.
		if !errors.Is(err, team.ErrRemovalHookFailed) {
			h.fail(w, r, err)
			return
		}
		h.logger.WarnContext(ctx, "member removed with pending cleanup",
			logger.MemberID(m.ID), logger.Error(err))
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) updateRole(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ids, err := pathIDs(r, "ownerID", "memberID")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.authorize(ctx, ids[0], rbac.PermTeamManage); err != nil {
		h.fail(w, r, err)
		return
	}
	if _, err := h.memberOf(ctx, ids[0], ids[1]); err != nil {
		h.fail(w, r, err)
		return
	}

	var req roleRequest
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodySize)
	if err := decodeJSON(r, &req, false); err != nil {
		h.fail(w, r, err)
		return
	}
	actorRole, err := h.team.Role(ctx, ids[0], ActorFromContext(ctx))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	m, err := h.team.UpdateRole(ctx, actorRole, ids[1], rbac.Role(req.Role))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond(w, http.StatusOK, m)
}

// setPermissions replaces a member's custom permission set; a null set
// restores the role defaults.
func (h *Handler) setPermissions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ids, err := pathIDs(r, "ownerID", "memberID")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.authorize(ctx, ids[0], rbac.PermTeamManage); err != nil {
		h.fail(w, r, err)
		return
	}
	if _, err := h.memberOf(ctx, ids[0], ids[1]); err != nil {
		h.fail(w, r, err)
		return
	}

	var req permissionsRequest
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodySize)
	if err := decodeJSON(r, &req, false); err != nil {
		h.fail(w, r, err)
		return
	}
	m, err := h.team.SetCustomPermissions(ctx, ActorFromContext(ctx), ids[1], req.CustomPermissions)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond(w, http.StatusOK, m)
}

func (h *Handler) listOverrides(w http.ResponseWriter, r *http.Request) {
	ids, err := pathIDs(r, "ownerID", "memberID")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.authorize(r.Context(), ids[0], rbac.PermTeamRead); err != nil {
		h.fail(w, r, err)
		return
	}
	if _, err := h.memberOf(r.Context(), ids[0], ids[1]); err != nil {
		h.fail(w, r, err)
		return
	}
	overrides, err := h.access.Overrides(r.Context(), ids[1])
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond(w, http.StatusOK, overrides)
}

func (h *Handler) setOverride(w http.ResponseWriter, r *http.Request) {
	ids, err := pathIDs(r, "ownerID", "memberID", "pluginID")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.authorize(r.Context(), ids[0], rbac.PermTeamManage); err != nil {
		h.fail(w, r, err)
		return
	}
	if _, err := h.manageable(r.Context(), ids[0], ids[1]); err != nil {
		h.fail(w, r, err)
		return
	}

	var req overrideRequest
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodySize)
	if err := decodeJSON(r, &req, false); err != nil {
		h.fail(w, r, err)
		return
	}
	o, err := h.access.SetOverride(r.Context(), ids[1], ids[2], req.CanAccess)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond(w, http.StatusOK, o)
}

func (h *Handler) bulkSetOverrides(w http.ResponseWriter, r *http.Request) {
	ids, err := pathIDs(r, "ownerID", "memberID")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.authorize(r.Context(), ids[0], rbac.PermTeamManage); err != nil {
		h.fail(w, r, err)
		return
	}
	if _, err := h.manageable(r.Context(), ids[0], ids[1]); err != nil {
		h.fail(w, r, err)
		return
	}

	var req bulkOverrideRequest
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodySize)
	if err := decodeJSON(r, &req, false); err != nil {
		h.fail(w, r, err)
		return
	}
	overrides, err := h.access.BulkSetOverrides(r.Context(), ids[1], req.Grants)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond(w, http.StatusOK, overrides)
}
