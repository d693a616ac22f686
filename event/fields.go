package event

import (
	"fmt"
	"strings"
)

// stringField extracts a trimmed string for key. A one-element string array
// is coerced to its single element. Values empty after trimming are absent.
func stringField(m map[string]any, key string) (string, bool) {
	switch v := m[key].(type) {
	case string:
		s := strings.TrimSpace(v)
		return s, s != ""
	case []any:
		if len(v) != 1 {
			return "", false
		}
		s, ok := v[0].(string)
		if !ok {
			return "", false
		}
		s = strings.TrimSpace(s)
		return s, s != ""
	default:
		return "", false
	}
}

// textField extracts free-form text for key. Unlike stringField the original
// content is preserved; only the absence check trims.
func textField(m map[string]any, key string) (string, bool) {
	v, ok := m[key].(string)
	if !ok || strings.TrimSpace(v) == "" {
		return "", false
	}
	return v, true
}

// boolField extracts a literal boolean for key. Absent or wrong-typed values
// are reported as missing, never defaulted.
func boolField(m map[string]any, key string) (bool, bool) {
	v, ok := m[key].(bool)
	return v, ok
}

// listField extracts the object elements of a list value. Non-object entries
// are dropped individually.
func listField(m map[string]any, key string) []map[string]any {
	raw, ok := m[key].([]any)
	if !ok {
		return nil
	}
	entries := make([]map[string]any, 0, len(raw))
	for _, item := range raw {
		if entry, ok := item.(map[string]any); ok {
			entries = append(entries, entry)
		}
	}
	return entries
}

// requiredString extracts a required field, producing an ErrInvalidEvent
// wrapped error when absent.
func requiredString(m map[string]any, key string) (string, error) {
	v, ok := stringField(m, key)
	if !ok {
		return "", fmt.Errorf("%w: missing required field %q", ErrInvalidEvent, key)
	}
	return v, nil
}
