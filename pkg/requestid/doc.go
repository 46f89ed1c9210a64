// Package requestid propagates a request correlation ID through the HTTP
// layer and into structured logs.
//
//	r := chi.NewRouter()
//	r.Use(requestid.Middleware)
//
//	log := logger.New(logger.WithContextExtractors(requestid.LoggerExtractor()))
//
// Client-supplied X-Request-ID values are reused only when they are at most
// 128 characters of letters, digits, dashes and underscores.
package requestid
