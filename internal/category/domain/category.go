package domain

import "strings"

// Category is one pendientes list. Timestamps are stored as ISO strings so
// documents written by older clients keep comparing correctly.
type Category struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Color       string `json:"color,omitempty"`
	Icon        string `json:"icon,omitempty"`
	Order       *int64 `json:"order"`
	CreatedAt   string `json:"createdAt,omitempty"`
	UpdatedAt   string `json:"updatedAt,omitempty"`

	Tasks      []Task `json:"tasks,omitempty"`
	TasksCount *int   `json:"tasksCount,omitempty"`
}

// Task lives in a subcollection under its category.
type Task struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Status      string `json:"status"`
	DueDate     string `json:"dueDate,omitempty"`
	Order       *int64 `json:"order"`
	CreatedAt   string `json:"createdAt,omitempty"`
	UpdatedAt   string `json:"updatedAt,omitempty"`
}

const DefaultTaskStatus = "pendiente"

// NormalizeStatus lowercases and validates a task status against the
// configured set, falling back to the default when the value is empty and
// rejecting anything unknown.
func NormalizeStatus(value string, allowed []string) (string, bool) {
	trimmed := strings.ToLower(strings.TrimSpace(value))
	if trimmed == "" {
		return DefaultTaskStatus, true
	}
	for _, status := range allowed {
		if trimmed == status {
			return trimmed, true
		}
	}
	return "", false
}

// Orderable projects a category onto the repair planner's view.
func (c Category) Orderable() Orderable {
	return Orderable{ID: c.ID, Order: c.Order, CreatedAt: c.CreatedAt}
}

// Orderable projects a task onto the repair planner's view.
func (t Task) Orderable() Orderable {
	return Orderable{ID: t.ID, Order: t.Order, CreatedAt: t.CreatedAt}
}
