package subscription

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// BillingProvider is the boundary to the external payment processor. The
// engine only opens hosted checkouts and consumes the processor's signed
// callbacks; payment capture happens entirely on the provider side.
type BillingProvider interface {
	// CreateCheckoutLink opens a hosted checkout session. The owner and plugin
	// identifiers travel as metadata so the confirmation can be correlated.
	CreateCheckoutLink(ctx context.Context, req CheckoutRequest) (*CheckoutLink, error)

	// ParseWebhook verifies the signature and normalizes the payload.
	ParseWebhook(ctx context.Context, payload []byte, signature string) (*WebhookEvent, error)
}

// CheckoutRequest contains data needed to create a checkout session.
type CheckoutRequest struct {
	OwnerID    uuid.UUID
	PluginID   uuid.UUID
	PriceID    string // provider's price identifier
	Email      string // optional billing email
	SuccessURL string
	CancelURL  string
}

// CheckoutLink is the opaque redirect handle returned to the caller.
type CheckoutLink struct {
	URL       string    `json:"url"`
	SessionID string    `json:"session_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

// CheckoutOptions are caller-supplied checkout settings. Empty URLs fall
// back to the service defaults.
type CheckoutOptions struct {
	Email      string
	SuccessURL string
	CancelURL  string
}

// WebhookEvent is a provider callback normalized for the lifecycle service.
type WebhookEvent struct {
	Type           EventType
	ProviderEvent  string    // original provider event name
	EventID        string    // provider's event id
	SubscriptionID string    // processor reference
	OwnerID        uuid.UUID // from checkout metadata
	PluginID       uuid.UUID // from checkout metadata
	Status         string    // provider's subscription status
	PriceID        string
	PeriodEnd      *time.Time // end of the current billing period
	Raw            map[string]any
}

// EventType is the normalized billing event type.
type EventType string

const (
	EventSubscriptionCreated   EventType = "subscription_created"
	EventSubscriptionActivated EventType = "subscription_activated"
	EventSubscriptionUpdated   EventType = "subscription_updated"
	EventSubscriptionCancelled EventType = "subscription_cancelled"
	EventSubscriptionResumed   EventType = "subscription_resumed"
	EventPaymentSucceeded      EventType = "payment_succeeded"
	EventPaymentFailed         EventType = "payment_failed"
)
