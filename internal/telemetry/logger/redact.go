package logger

import (
	"log/slog"
	"strings"
)

// Payload keys that hold information players must not see. Hook errors
// sometimes echo payload fragments, so these are masked at the sink.
var secretKeyPatterns = []string{
	"secret",
	"hidden",
	"gm_note",
	"dm_note",
	"spoiler",
}

// RedactedValue replaces masked values.
const RedactedValue = "***REDACTED***"

func redact(a slog.Attr) slog.Attr {
	if a.Value.Kind() == slog.KindGroup {
		attrs := a.Value.Group()
		out := make([]slog.Attr, len(attrs))
		for i, attr := range attrs {
			out[i] = redact(attr)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(out...)}
	}

	if IsSecretKey(a.Key) {
		return slog.String(a.Key, RedactedValue)
	}
	return a
}

// IsSecretKey reports whether values under key must be masked.
func IsSecretKey(key string) bool {
	key = strings.ToLower(key)
	for _, pattern := range secretKeyPatterns {
		if strings.Contains(key, pattern) {
			return true
		}
	}
	return false
}
