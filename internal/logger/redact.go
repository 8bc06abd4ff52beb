package logger

import "strings"

// sensitiveFields must be masked before a payload reaches any log line
// or audit event.
var sensitiveFields = []string{"password", "token", "secret", "pin", "authorization"}

const redactedPlaceholder = "***REDACTED***"

// Redact returns a copy of the payload with sensitive keys masked. Nested
// maps are redacted recursively; the input map is not modified.
func Redact(payload map[string]any) map[string]any {
	if payload == nil {
		return nil
	}

	out := make(map[string]any, len(payload))
	for k, v := range payload {
		if isSensitive(k) {
			out[k] = redactedPlaceholder
			continue
		}
		switch nested := v.(type) {
		case map[string]any:
			out[k] = Redact(nested)
		case map[string]string:
			out[k] = RedactStrings(nested)
		default:
			out[k] = v
		}
	}
	return out
}

// RedactStrings masks sensitive keys in a flat string map.
func RedactStrings(params map[string]string) map[string]string {
	if params == nil {
		return nil
	}

	out := make(map[string]string, len(params))
	for k, v := range params {
		if isSensitive(k) {
			out[k] = redactedPlaceholder
		} else {
			out[k] = v
		}
	}
	return out
}

func isSensitive(key string) bool {
	lower := strings.ToLower(key)
	for _, field := range sensitiveFields {
		if strings.Contains(lower, field) {
			return true
		}
	}
	return false
}
