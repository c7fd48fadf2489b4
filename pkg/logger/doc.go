// Package logger builds *slog.Logger values for the notification client.
//
// New accepts functional options selecting the output format (text or
// JSON), minimum level, static attributes and ContextExtractor callbacks
// that copy values out of context.Context into every record. Attribute
// helpers (Error, Domain, Attempt, CloseCode and friends) keep key names
// consistent between the connection manager, the router and the
// notification syncers.
//
//	log := logger.New(logger.WithEnvironment(os.Getenv("APP_ENV"), "questnotify"))
//	log.Warn("refresh failed", logger.Domain("user"), logger.Error(err))
//
// Error and Errors return an empty attribute for nil errors, so they can be
// passed unconditionally.
package logger
