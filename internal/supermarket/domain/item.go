package domain

import (
	"sort"
	"strings"

	"pendientes-backend/pkg/apperr"
	"pendientes-backend/pkg/payload"
)

// Defaults applied to fields a full write does not provide.
const (
	DefaultQuantity  = 1.0
	DefaultUnit      = "pz"
	DefaultPriority  = 2
	DefaultRecurring = "none"
)

var recurringValues = map[string]bool{
	"none":     true,
	"weekly":   true,
	"biweekly": true,
	"monthly":  true,
}

// Item is one shopping-list entry.
type Item struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Quantity  float64  `json:"quantity"`
	Unit      string   `json:"unit"`
	Category  *string  `json:"category"`
	Store     *string  `json:"store"`
	Notes     *string  `json:"notes"`
	Price     *float64 `json:"price"`
	Priority  int      `json:"priority"`
	Checked   bool     `json:"checked"`
	Recurring string   `json:"recurring"`
	Tags      []string `json:"tags"`
	CreatedAt *string  `json:"createdAt"`
	UpdatedAt *string  `json:"updatedAt"`
}

// Stats summarizes a full listing.
type Stats struct {
	Total          int     `json:"total"`
	Checked        int     `json:"checked"`
	Pending        int     `json:"pending"`
	EstimatedTotal float64 `json:"estimatedTotal"`
}

// Filter narrows a listing. Zero values mean no constraint.
type Filter struct {
	Checked  string
	Category string
	Search   string
}

// Sanitize validates an item payload into Firestore fields. Partial mode only
// touches the keys the client sent; a full write fills every default.
func Sanitize(body map[string]interface{}, partial bool) (map[string]interface{}, error) {
	fields := map[string]interface{}{}
	var invalid []string

	if !partial || payload.Has(body, "name") {
		name := payload.TrimmedString(body["name"])
		if name == "" {
			invalid = append(invalid, "name")
		} else {
			fields["name"] = name
		}
	}

	if payload.Has(body, "quantity") {
		quantity, ok := payload.Number(body["quantity"])
		if !ok || quantity < 0 {
			invalid = append(invalid, "quantity")
		} else {
			fields["quantity"] = payload.Round2(quantity)
		}
	} else if !partial {
		fields["quantity"] = DefaultQuantity
	}

	if payload.Has(body, "unit") {
		unit := payload.TrimmedString(body["unit"])
		if unit == "" {
			invalid = append(invalid, "unit")
		} else {
			fields["unit"] = unit
		}
	} else if !partial {
		fields["unit"] = DefaultUnit
	}

	for _, key := range []string{"category", "store", "notes"} {
		value, null, sent := payload.NullableString(body, key)
		if sent {
			if null {
				fields[key] = nil
			} else {
				fields[key] = value
			}
		} else if !partial {
			fields[key] = nil
		}
	}

	if payload.Has(body, "price") {
		raw := body["price"]
		if raw == nil || payload.TrimmedString(raw) == "" {
			fields["price"] = nil
		} else {
			price, ok := payload.Number(raw)
			if !ok || price < 0 {
				invalid = append(invalid, "price")
			} else {
				fields["price"] = payload.Round2(price)
			}
		}
	} else if !partial {
		fields["price"] = nil
	}

	if payload.Has(body, "priority") {
		priority, ok := payload.Number(body["priority"])
		whole := int(priority)
		if !ok || priority != float64(whole) || whole < 1 || whole > 3 {
			invalid = append(invalid, "priority")
		} else {
			fields["priority"] = whole
		}
	} else if !partial {
		fields["priority"] = DefaultPriority
	}

	if payload.Has(body, "checked") {
		checked, ok := payload.Bool(body["checked"])
		if !ok {
			invalid = append(invalid, "checked")
		} else {
			fields["checked"] = checked
		}
	} else if !partial {
		fields["checked"] = false
	}

	if payload.Has(body, "recurring") {
		recurring := strings.ToLower(payload.TrimmedString(body["recurring"]))
		switch {
		case recurring == "":
			fields["recurring"] = DefaultRecurring
		case recurringValues[recurring]:
			fields["recurring"] = recurring
		default:
			invalid = append(invalid, "recurring")
		}
	} else if !partial {
		fields["recurring"] = DefaultRecurring
	}

	if payload.Has(body, "tags") {
		tags, ok := sanitizeTags(body["tags"])
		if !ok {
			invalid = append(invalid, "tags")
		} else {
			fields["tags"] = tags
		}
	} else if !partial {
		fields["tags"] = []string{}
	}

	if len(invalid) > 0 {
		return nil, apperr.Validation("Campos invalidos: " + strings.Join(invalid, ", "))
	}
	return fields, nil
}

// sanitizeTags accepts an array or comma-separated string, deduplicated in
// order. Null clears the list.
func sanitizeTags(value interface{}) ([]string, bool) {
	if value == nil {
		return []string{}, true
	}
	var source []string
	switch v := value.(type) {
	case []interface{}:
		for _, item := range v {
			source = append(source, payload.TrimmedString(item))
		}
	case string:
		source = strings.Split(v, ",")
	default:
		return nil, false
	}
	seen := map[string]bool{}
	tags := []string{}
	for _, tag := range source {
		tag = strings.TrimSpace(tag)
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		tags = append(tags, tag)
	}
	return tags, true
}

// Sort orders items for listing: unchecked first, then priority, name, and
// creation time.
func Sort(items []Item) []Item {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.Checked != b.Checked {
			return !a.Checked
		}
		if a.Priority != b.Priority {
			return a.Priority < b.Priority
		}
		nameA := strings.ToLower(a.Name)
		nameB := strings.ToLower(b.Name)
		if nameA != nameB {
			return nameA < nameB
		}
		return createdValue(a) < createdValue(b)
	})
	return items
}

func createdValue(item Item) string {
	if item.CreatedAt != nil {
		return *item.CreatedAt
	}
	return ""
}

// ComputeStats summarizes the whole list, estimating the total from priced
// items.
func ComputeStats(items []Item) Stats {
	stats := Stats{Total: len(items)}
	estimate := 0.0
	for _, item := range items {
		if item.Checked {
			stats.Checked++
		}
		if item.Price != nil {
			estimate += *item.Price * item.Quantity
		}
	}
	stats.Pending = stats.Total - stats.Checked
	stats.EstimatedTotal = payload.Round2(estimate)
	return stats
}

// Apply filters a sorted listing.
func (f Filter) Apply(items []Item) []Item {
	category := strings.ToLower(strings.TrimSpace(f.Category))
	search := strings.ToLower(strings.TrimSpace(f.Search))

	filtered := make([]Item, 0, len(items))
	for _, item := range items {
		if f.Checked == "true" && !item.Checked {
			continue
		}
		if f.Checked == "false" && item.Checked {
			continue
		}
		if category != "" {
			if item.Category == nil || strings.ToLower(*item.Category) != category {
				continue
			}
		}
		if search != "" && !matchesSearch(item, search) {
			continue
		}
		filtered = append(filtered, item)
	}
	return filtered
}

func matchesSearch(item Item, search string) bool {
	parts := []string{item.Name}
	for _, field := range []*string{item.Notes, item.Category, item.Store} {
		if field != nil {
			parts = append(parts, *field)
		}
	}
	return strings.Contains(strings.ToLower(strings.Join(parts, " ")), search)
}
