// Package api exposes the entitlement engine over HTTP.
//
// Routes are mounted on a chi router by Handler.Routes. The acting user is
// read from the X-User-ID header, which an upstream gateway sets after
// authentication. Responses use a single JSON envelope:
//
//	{"data": ...}
//	{"error": {"code": "trial_already_used", "message": "...", "details": {...}}}
//
// Permission checks run against the acting user's role or custom permission
// set under the owner in the path. Plugin access itself is answered by the
// access package and never errors: denied or unknown resolves to false.
//
// The Paddle webhook endpoint is unauthenticated at the header level and
// relies on the Paddle-Signature check performed by the billing provider.
package api
