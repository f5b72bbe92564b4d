package domain

import (
	"sort"
	"strconv"
	"strings"
	"time"
)

// Orderable is the slice of a sibling document the repair planner looks at.
type Orderable struct {
	ID        string
	Order     *int64
	CreatedAt string
}

// Assignment is one repaired order value to persist.
type Assignment struct {
	ID    string
	Order int64
}

// PlanRepair assigns order values to the siblings that lack a valid one.
// Documents that already carry a valid order are untouched; the rest are
// sorted by creation timestamp (document ID breaking ties) and numbered
// consecutively after the highest existing order. An empty return means the
// scope needs no write.
func PlanRepair(items []Orderable) []Assignment {
	highest := int64(-1)
	var unordered []Orderable
	for _, item := range items {
		if item.Order == nil {
			unordered = append(unordered, item)
			continue
		}
		if *item.Order > highest {
			highest = *item.Order
		}
	}
	if len(unordered) == 0 {
		return nil
	}

	sort.SliceStable(unordered, func(i, j int) bool {
		a, b := unordered[i], unordered[j]
		if a.CreatedAt != "" && b.CreatedAt != "" && a.CreatedAt != b.CreatedAt {
			return a.CreatedAt < b.CreatedAt
		}
		return a.ID < b.ID
	})

	assignments := make([]Assignment, len(unordered))
	next := highest
	for i, item := range unordered {
		next++
		assignments[i] = Assignment{ID: item.ID, Order: next}
	}
	return assignments
}

// SortByOrder produces the stable listing order: order ascending with missing
// orders after every numbered document, then creation timestamp, then ID.
func SortByOrder(items []Orderable) []Orderable {
	sorted := make([]Orderable, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		switch {
		case a.Order != nil && b.Order != nil && *a.Order != *b.Order:
			return *a.Order < *b.Order
		case a.Order != nil && b.Order == nil:
			return true
		case a.Order == nil && b.Order != nil:
			return false
		}
		if a.CreatedAt != "" && b.CreatedAt != "" && a.CreatedAt != b.CreatedAt {
			return a.CreatedAt < b.CreatedAt
		}
		return a.ID < b.ID
	})
	return sorted
}

// HasInvalidOrder reports whether any sibling lacks a usable order value.
func HasInvalidOrder(items []Orderable) bool {
	for _, item := range items {
		if item.Order == nil {
			return true
		}
	}
	return false
}

// ParseOrderValue coerces a stored order field to an integer. Numbers are
// truncated; numeric strings accepted; anything else is invalid.
func ParseOrderValue(value interface{}) *int64 {
	switch v := value.(type) {
	case int64:
		return &v
	case int:
		parsed := int64(v)
		return &parsed
	case float64:
		parsed := int64(v)
		return &parsed
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return nil
		}
		if parsed, err := strconv.ParseFloat(trimmed, 64); err == nil {
			truncated := int64(parsed)
			return &truncated
		}
	}
	return nil
}

// ComparableTimestamp renders a stored timestamp field to a lexicographically
// comparable string. Firestore timestamps and stored ISO strings both map onto
// the same ordering; the fixed-width millisecond layout matters because a
// variable-precision rendering breaks string comparison within a second.
func ComparableTimestamp(value interface{}) string {
	switch v := value.(type) {
	case string:
		return v
	case time.Time:
		return v.UTC().Format("2006-01-02T15:04:05.000Z07:00")
	}
	return ""
}

// NeedsRescan reports whether an ordered query result has to be replaced by a
// full scan. Order-by queries silently omit documents without the order field,
// so a result shorter than the independent total means invisible siblings.
func NeedsRescan(returned, total int64) bool {
	return returned != total
}
