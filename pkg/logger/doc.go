// Package logger builds configured slog.Logger instances with optional
// context-attribute injection.
//
// The factory returns a standard *slog.Logger so the rest of the codebase
// depends only on log/slog. Attribute helpers keep log keys consistent
// across packages (user_id, entity_id, trigger, channel).
//
// Usage:
//
//	log := logger.New(
//		logger.WithLevel(slog.LevelDebug),
//		logger.WithFormat(logger.FormatText),
//		logger.WithAttrs(slog.String("service", "dispatch")),
//	)
//	log.Info("notification queued", logger.Trigger("PAYMENT_CONFIRMED"))
package logger
