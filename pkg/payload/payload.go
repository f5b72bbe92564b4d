// Package payload coerces loosely-typed JSON request bodies. Clients send
// numbers as strings, wrap bodies in a data envelope, and use legacy field
// aliases; every sanitizer builds on these helpers.
package payload

import (
	"strconv"
	"strings"
)

// Unwrap peels the optional {"data": ...} envelope off a decoded body.
func Unwrap(body map[string]interface{}) map[string]interface{} {
	if body == nil {
		return nil
	}
	if inner, ok := body["data"].(map[string]interface{}); ok {
		return inner
	}
	return body
}

// UnwrapAny peels the envelope when the inner value may be an array.
func UnwrapAny(body interface{}) interface{} {
	if object, ok := body.(map[string]interface{}); ok {
		if inner, exists := object["data"]; exists {
			return inner
		}
	}
	return body
}

// Has reports whether the client sent the key at all, null included.
func Has(object map[string]interface{}, key string) bool {
	_, ok := object[key]
	return ok
}

// TrimmedString renders strings, numbers, and booleans to a trimmed string.
// Anything else is empty.
func TrimmedString(value interface{}) string {
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strings.TrimSpace(strconv.FormatFloat(v, 'f', -1, 64))
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case bool:
		return strconv.FormatBool(v)
	}
	return ""
}

// FirstString returns the first alias key the client provided, trimmed.
func FirstString(object map[string]interface{}, keys ...string) string {
	for _, key := range keys {
		if value, ok := object[key]; ok {
			if trimmed := TrimmedString(value); trimmed != "" {
				return trimmed
			}
		}
	}
	return ""
}

// FirstPresent returns the value of the first alias key present, even when it
// is null or empty.
func FirstPresent(object map[string]interface{}, keys ...string) (interface{}, bool) {
	for _, key := range keys {
		if value, ok := object[key]; ok {
			return value, true
		}
	}
	return nil, false
}

// Number coerces a numeric or numeric-string value.
func Number(value interface{}) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return 0, false
		}
		parsed, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return 0, false
		}
		return parsed, true
	}
	return 0, false
}

// Bool interprets the loose truthy forms clients send for checkbox fields.
// The third result is false when the value is unrecognizable.
func Bool(value interface{}) (result, ok bool) {
	switch v := value.(type) {
	case bool:
		return v, true
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true", "1", "yes", "si", "sí", "checked":
			return true, true
		case "false", "0", "no", "unchecked":
			return false, true
		}
	case float64:
		if v == 1 {
			return true, true
		}
		if v == 0 {
			return false, true
		}
	}
	return false, false
}

// NullableString trims to a string or reports an explicit null. The sent flag
// distinguishes an absent key from a provided null.
func NullableString(object map[string]interface{}, key string) (value string, null, sent bool) {
	raw, ok := object[key]
	if !ok {
		return "", false, false
	}
	if raw == nil {
		return "", true, true
	}
	trimmed := TrimmedString(raw)
	if trimmed == "" {
		return "", true, true
	}
	return trimmed, false, true
}

// Round2 rounds money-like values to two decimals.
func Round2(value float64) float64 {
	if value >= 0 {
		return float64(int64(value*100+0.5)) / 100
	}
	return float64(int64(value*100-0.5)) / 100
}
