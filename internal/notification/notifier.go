package notification

import (
	"context"
	"fmt"
	"strings"
)

// Deliverer is the dispatcher surface the entity adapter depends on.
type Deliverer interface {
	Deliver(ctx context.Context, payload Payload) (*DeliveryResult, error)
}

// EventNotifier is the adapter surface entity services announce mutations
// through.
type EventNotifier interface {
	NotifyCreated(ctx context.Context, event Event) error
	NotifyUpdated(ctx context.Context, event Event) error
}

// Event is the entity-level notification a CRUD handler emits.
type Event struct {
	Title string
	Body  string
	Data  map[string]interface{}
}

// Notifier translates entity mutations into broadcasts. Delivery failures are
// returned to the caller but are never meant to fail the triggering write;
// call sites log the error and move on.
type Notifier struct {
	dispatcher Deliverer
	sound      string
}

func NewNotifier(dispatcher Deliverer, sound string) *Notifier {
	return &Notifier{dispatcher: dispatcher, sound: sound}
}

func (n *Notifier) NotifyCreated(ctx context.Context, event Event) error {
	title := event.Title
	if title == "" {
		title = "Nuevo registro"
	}
	_, err := n.dispatcher.Deliver(ctx, Payload{
		Title: title,
		Body:  event.Body,
		Data:  event.Data,
		Sound: n.sound,
	})
	if err != nil {
		return fmt.Errorf("entity broadcast failed: %w", err)
	}
	return nil
}

func (n *Notifier) NotifyUpdated(ctx context.Context, event Event) error {
	data := make(map[string]interface{}, len(event.Data)+1)
	for key, value := range event.Data {
		data[key] = value
	}
	if _, ok := data["action"]; !ok {
		data["action"] = "updated"
	}

	title := event.Title
	if title == "" {
		title = "Registro actualizado"
	}
	return n.NotifyCreated(ctx, Event{Title: title, Body: event.Body, Data: data})
}

// TruncateText caps a snippet used in notification bodies, appending an
// ellipsis when content was cut.
func TruncateText(text string, max int) string {
	trimmed := strings.TrimSpace(text)
	runes := []rune(trimmed)
	if max <= 0 || len(runes) <= max {
		return trimmed
	}
	return strings.TrimSpace(string(runes[:max])) + "..."
}
