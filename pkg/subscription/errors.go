package subscription

import "errors"

var (
	ErrTrialAlreadyUsed          = errors.New("trial already used for this plugin")
	ErrNoActiveSubscription      = errors.New("no active subscription")
	ErrConcurrentModification    = errors.New("subscription was modified concurrently")
	ErrSubscriptionNotFound      = errors.New("subscription not found")
	ErrSubscriptionAlreadyExists = errors.New("subscription already exists")
	ErrAlreadySubscribed         = errors.New("plugin already subscribed")
	ErrProcessorRefRequired      = errors.New("processor reference is required")
	ErrProcessorRefMismatch      = errors.New("processor reference does not match subscription")
	ErrInvalidPeriodEnd          = errors.New("invalid billing period end")
	ErrProviderError             = errors.New("subscription provider error")
	ErrSubscriptionInUse         = errors.New("subscription still grants access")
	ErrDeletionHookFailed        = errors.New("subscription deletion hook failed")

	// Webhook and provider errors
	ErrMissingAPIKey             = errors.New("billing provider API key is required")
	ErrMissingWebhookSecret      = errors.New("billing provider webhook secret is required")
	ErrInvalidProviderEnv        = errors.New("invalid billing provider environment")
	ErrWebhookVerificationFailed = errors.New("webhook signature verification failed")
	ErrInvalidWebhookPayload     = errors.New("invalid webhook payload")
	ErrMissingWebhookMetadata    = errors.New("webhook is missing owner or plugin metadata")
	ErrNoCheckoutURL             = errors.New("no checkout URL returned from provider")
	ErrMissingPriceID            = errors.New("price ID is required")
)
