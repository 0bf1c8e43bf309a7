// Package logger builds log/slog loggers with context extraction and
// optional Sentry reporting.
//
// A [Config] picks the handler (JSON or text), the minimum level and the
// writer. [ContextExtractor] functions add request-scoped attributes, such as
// a request ID, to every record logged with a context:
//
//	log := logger.New(logger.Config{Level: "debug"}, requestIDExtractor)
//	log.InfoContext(ctx, "formatted", slog.String("locale", "en"))
//
// [NewWithSentry] also sends warnings and errors to Sentry; without a DSN it
// falls back to the local handler, so the same code path works everywhere.
//
// Libraries in this module accept a *slog.Logger and default to [NewNope].
package logger
