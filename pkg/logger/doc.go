// Package logger builds the slog loggers used across formguard and provides
// attribute constructors that keep key names consistent between packages.
//
// New creates a *slog.Logger from functional options. The handler is
// wrapped in LogHandlerDecorator, which adds attributes pulled from the
// context of each call, for example the request id of an HTTP request:
//
//	log := logger.New(
//	    logger.WithEnvironment("production", "formguard"),
//	    logger.WithContextValue("request_id", middleware.RequestIDKey),
//	)
//	log.WarnContext(ctx, "using legacy message template",
//	    logger.Rule("required"),
//	    logger.Field("email"),
//	    logger.Tier(3),
//	)
//
// Error and Errors return an empty attribute for nil errors so callers can
// pass them without a nil check. Library packages that accept an optional
// logger fall back to Discard.
package logger
