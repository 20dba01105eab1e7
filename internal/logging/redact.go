package logging

import (
	"log/slog"
	"strings"
)

// Redacted replaces the value of any attribute whose key names a credential.
const Redacted = "[REDACTED]"

var sensitiveKeys = []string{"password", "secret", "token", "seed", "digest"}

func sensitive(key string) bool {
	k := strings.ToLower(key)
	for _, s := range sensitiveKeys {
		if strings.Contains(k, s) {
			return true
		}
	}
	return false
}

// redactArgs returns args with credential values masked. It understands
// alternating key/value pairs and slog.Attr values; anything else is copied.
func redactArgs(args []any) []any {
	out := make([]any, len(args))
	copy(out, args)
	for i := 0; i < len(out); i++ {
		switch v := out[i].(type) {
		case slog.Attr:
			if sensitive(v.Key) {
				out[i] = slog.String(v.Key, Redacted)
			}
		case string:
			if i+1 < len(out) {
				if sensitive(v) {
					out[i+1] = Redacted
				}
				i++
			}
		}
	}
	return out
}
