package domain

import (
	"sort"
	"strings"
	"time"
)

const (
	TypeDebt    = "deuda"
	TypePayment = "abono"
)

// Entry is one ledger movement, either a debt or a payment against one.
type Entry struct {
	ID        string      `json:"id"`
	Title     string      `json:"title"`
	Amount    float64     `json:"amount"`
	Type      string      `json:"type"`
	Date      string      `json:"date"`
	Notes     interface{} `json:"notes"`
	CreatedAt interface{} `json:"createdAt"`
	UpdatedAt interface{} `json:"updatedAt"`
}

// OrderSpec is a parsed ?order= query: a field with an optional +/- prefix.
type OrderSpec struct {
	Field     string
	Direction string
}

// OrderFields are the ledger fields a client may sort by.
var OrderFields = map[string]bool{
	"date":      true,
	"createdAt": true,
	"updatedAt": true,
	"amount":    true,
}

// NormalizeType maps the legacy synonyms onto the two ledger types.
// Unrecognized values count as a debt.
func NormalizeType(value string) string {
	normalized := strings.ToLower(strings.TrimSpace(value))
	switch normalized {
	case TypeDebt, TypePayment:
		return normalized
	case "pago", "payment":
		return TypePayment
	case "loan", "prestamo":
		return TypeDebt
	}
	return TypeDebt
}

// NormalizeDate renders any recognizable date input as RFC3339, defaulting to
// now.
func NormalizeDate(value interface{}, now time.Time) string {
	fallback := now.UTC().Format("2006-01-02T15:04:05.000Z07:00")
	switch v := value.(type) {
	case time.Time:
		return v.UTC().Format("2006-01-02T15:04:05.000Z07:00")
	case float64:
		return time.UnixMilli(int64(v)).UTC().Format("2006-01-02T15:04:05.000Z07:00")
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return fallback
		}
		for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02"} {
			if parsed, err := time.Parse(layout, trimmed); err == nil {
				return parsed.UTC().Format("2006-01-02T15:04:05.000Z07:00")
			}
		}
	}
	return fallback
}

// ParseOrderSpec interprets a ?order= value like "-date" or "+amount",
// falling back to date descending.
func ParseOrderSpec(value string) OrderSpec {
	spec := OrderSpec{Field: "date", Direction: "desc"}
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return spec
	}
	direction := "asc"
	field := trimmed
	if strings.HasPrefix(trimmed, "-") {
		direction = "desc"
		field = trimmed[1:]
	} else if strings.HasPrefix(trimmed, "+") {
		field = trimmed[1:]
	}
	if !OrderFields[field] {
		field = "date"
	}
	return OrderSpec{Field: field, Direction: direction}
}

// Sort puts the newest movements first regardless of the backend ordering,
// so unindexed fallback reads still come out stable.
func Sort(entries []Entry) []Entry {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.Date != "" && b.Date != "" && a.Date != b.Date {
			return a.Date > b.Date
		}
		createdA, createdB := stringValue(a.CreatedAt), stringValue(b.CreatedAt)
		if createdA != "" && createdB != "" && createdA != createdB {
			return createdA > createdB
		}
		updatedA, updatedB := stringValue(a.UpdatedAt), stringValue(b.UpdatedAt)
		if updatedA != "" && updatedB != "" {
			return updatedA > updatedB
		}
		return false
	})
	return entries
}

func stringValue(value interface{}) string {
	if text, ok := value.(string); ok {
		return text
	}
	return ""
}
