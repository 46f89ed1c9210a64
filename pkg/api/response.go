package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrymomot/bookingkit/pkg/access"
	"github.com/dmitrymomot/bookingkit/pkg/catalog"
	"github.com/dmitrymomot/bookingkit/pkg/rbac"
	"github.com/dmitrymomot/bookingkit/pkg/subscription"
	"github.com/dmitrymomot/bookingkit/pkg/team"
	"github.com/dmitrymomot/bookingkit/pkg/validator"
)

// Envelope is the body of every JSON response. Data is null on errors.
type Envelope struct {
	Data  any          `json:"data"`
	Error *ErrorDetail `json:"error,omitempty"`
}

// ErrorDetail describes a failed request.
type ErrorDetail struct {
	Code    string              `json:"code"`
	Message string              `json:"message"`
	Details map[string][]string `json:"details,omitempty"`
}

type errorMapping struct {
	err    error
	status int
	code   string
}

// errorMappings is matched in order with errors.Is; the first hit wins.
var errorMappings = []errorMapping{
	{ErrMissingUser, http.StatusUnauthorized, "unauthenticated"},
	{ErrInvalidUser, http.StatusUnauthorized, "unauthenticated"},
	{ErrInvalidID, http.StatusBadRequest, "invalid_id"},
	{ErrMissingContentType, http.StatusUnsupportedMediaType, "unsupported_media_type"},
	{ErrUnsupportedMediaType, http.StatusUnsupportedMediaType, "unsupported_media_type"},
	{ErrInvalidJSON, http.StatusBadRequest, "invalid_json"},
	{ErrPayloadTooLarge, http.StatusRequestEntityTooLarge, "payload_too_large"},
	{ErrForeignMember, http.StatusNotFound, "member_not_found"},

	{rbac.ErrInsufficientPermissions, http.StatusForbidden, "forbidden"},
	{rbac.ErrCannotManageRole, http.StatusForbidden, "cannot_manage_role"},
	{rbac.ErrPermissionEscalation, http.StatusForbidden, "permission_escalation"},
	{rbac.ErrInvalidRole, http.StatusUnprocessableEntity, "invalid_role"},

	{catalog.ErrPluginNotFound, http.StatusNotFound, "plugin_not_found"},
	{catalog.ErrPluginUnavailable, http.StatusConflict, "plugin_unavailable"},

	{subscription.ErrSubscriptionNotFound, http.StatusNotFound, "subscription_not_found"},
	{subscription.ErrTrialAlreadyUsed, http.StatusConflict, "trial_already_used"},
	{subscription.ErrAlreadySubscribed, http.StatusConflict, "already_subscribed"},
	{subscription.ErrSubscriptionAlreadyExists, http.StatusConflict, "subscription_exists"},
	{subscription.ErrNoActiveSubscription, http.StatusConflict, "no_active_subscription"},
	{subscription.ErrSubscriptionInUse, http.StatusConflict, "subscription_in_use"},
	{subscription.ErrConcurrentModification, http.StatusConflict, "concurrent_modification"},
	{subscription.ErrProcessorRefMismatch, http.StatusConflict, "processor_ref_mismatch"},
	{subscription.ErrWebhookVerificationFailed, http.StatusUnauthorized, "invalid_signature"},
	{subscription.ErrInvalidWebhookPayload, http.StatusBadRequest, "invalid_webhook"},
	{subscription.ErrMissingWebhookMetadata, http.StatusBadRequest, "invalid_webhook"},
	{subscription.ErrProcessorRefRequired, http.StatusBadRequest, "invalid_webhook"},
	{subscription.ErrInvalidPeriodEnd, http.StatusBadRequest, "invalid_webhook"},
	{subscription.ErrMissingPriceID, http.StatusConflict, "plugin_unavailable"},
	{subscription.ErrProviderError, http.StatusBadGateway, "billing_provider_error"},
	{subscription.ErrNoCheckoutURL, http.StatusBadGateway, "billing_provider_error"},

	{team.ErrMemberNotFound, http.StatusNotFound, "member_not_found"},
	{team.ErrMemberInactive, http.StatusNotFound, "member_not_found"},
	{team.ErrMemberAlreadyExists, http.StatusConflict, "member_exists"},
	{team.ErrOwnerNotMember, http.StatusConflict, "owner_not_member"},
	{team.ErrInvitationNotFound, http.StatusNotFound, "invitation_not_found"},
	{team.ErrInvitationExpired, http.StatusGone, "invitation_expired"},
	{team.ErrInvitationAccepted, http.StatusConflict, "invitation_accepted"},
	{team.ErrInvitationExists, http.StatusConflict, "invitation_exists"},
	{team.ErrTeamLimitReached, http.StatusPaymentRequired, "team_limit_reached"},

	{access.ErrEmptyBatch, http.StatusUnprocessableEntity, "empty_batch"},
	{access.ErrOverrideNotFound, http.StatusNotFound, "override_not_found"},
}

func writeJSON(w http.ResponseWriter, status int, body Envelope) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func respond(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, Envelope{Data: data})
}

// classify maps err to a status and an error body. Unknown errors become an
// opaque 500 so internal messages never leak.
func classify(err error) (int, *ErrorDetail) {
	if errors.Is(err, validator.ErrValidationFailed) {
		return http.StatusUnprocessableEntity, &ErrorDetail{
			Code:    "validation_error",
			Message: "validation failed",
			Details: validator.ExtractValidationErrors(err).Map(),
		}
	}
	for _, m := range errorMappings {
		if errors.Is(err, m.err) {
			return m.status, &ErrorDetail{Code: m.code, Message: m.err.Error()}
		}
	}
	return http.StatusInternalServerError, &ErrorDetail{
		Code:    "internal_error",
		Message: http.StatusText(http.StatusInternalServerError),
	}
}
