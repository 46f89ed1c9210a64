// Package logger builds log/slog loggers for the service and provides
// attribute helpers for the identifiers the entitlement engine logs.
//
//	log := logger.New(
//	    logger.WithEnvironment(cfg.Env, "entitlementd"),
//	    logger.WithContextExtractors(requestid.LoggerExtractor()),
//	)
//	log.InfoContext(ctx, "trial started",
//	    logger.OwnerID(ownerID),
//	    logger.PluginID(pluginID),
//	)
//
// Context extractors run on every record, so request-scoped values such as
// the request ID are attached without passing loggers around. Discard returns
// a no-op logger used as the default by services.
package logger
