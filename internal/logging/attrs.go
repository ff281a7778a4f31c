package logging

import (
	"context"
	"log/slog"
)

type Attr = slog.Attr

func Bool(key string, value bool) Attr { return slog.Bool(key, value) }

func Int(key string, value int) Attr { return slog.Int(key, value) }

func Int64(key string, value int64) Attr { return slog.Int64(key, value) }

func String(key string, value string) Attr { return slog.String(key, value) }

func Error(err error) Attr {
	if err == nil {
		return slog.String("error", "<nil>")
	}
	return slog.Any("error", err)
}

// Hint is the operator's next step for a warning or error.
func Hint(text string) Attr { return slog.String(FieldErrorHint, text) }

// Impact states what the failure means for the box or piece at hand.
func Impact(text string) Attr { return slog.String(FieldImpact, text) }

func NewNop() *slog.Logger {
	return slog.New(NoopHandler{})
}

// NewComponentLogger tags logger with a component name. A nil logger yields a
// no-op logger.
func NewComponentLogger(logger *slog.Logger, component string) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	return logger.With(String(FieldComponent, component))
}

// WarnWithContext logs a warning that always carries event_type, error_hint
// and impact. Missing hint or impact attrs get generic defaults.
func WarnWithContext(logger *slog.Logger, msg, eventType string, attrs ...Attr) {
	if logger == nil {
		return
	}
	logger.Warn(msg, incidentArgs(attrs, eventType, "operation completed with warnings")...)
}

// ErrorWithContext is WarnWithContext at error level.
func ErrorWithContext(logger *slog.Logger, msg, eventType string, attrs ...Attr) {
	if logger == nil {
		return
	}
	logger.Error(msg, incidentArgs(attrs, eventType, "operation did not complete")...)
}

func incidentArgs(attrs []Attr, eventType, impact string) []any {
	defaults := map[string]string{
		FieldEventType: eventType,
		FieldErrorHint: "see packline.log for details",
		FieldImpact:    impact,
	}
	args := make([]any, 0, len(attrs)+len(defaults))
	for _, attr := range attrs {
		delete(defaults, attr.Key)
		args = append(args, attr)
	}
	for _, key := range []string{FieldEventType, FieldErrorHint, FieldImpact} {
		if value, ok := defaults[key]; ok {
			args = append(args, slog.String(key, value))
		}
	}
	return args
}

// NoopHandler discards all log output.
type NoopHandler struct{}

func (NoopHandler) Enabled(context.Context, slog.Level) bool { return false }

func (NoopHandler) Handle(context.Context, slog.Record) error { return nil }

func (NoopHandler) WithAttrs([]slog.Attr) slog.Handler { return NoopHandler{} }

func (NoopHandler) WithGroup(string) slog.Handler { return NoopHandler{} }
