package usecase

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"pendientes-backend/internal/notification"
	"pendientes-backend/internal/supermarket/domain"
	"pendientes-backend/internal/supermarket/repository"
	"pendientes-backend/pkg/apperr"
	"pendientes-backend/pkg/payload"
)

// ListResult bundles a filtered listing with the whole-list stats.
type ListResult struct {
	Items    []domain.Item
	Total    int
	Filtered int
	Stats    domain.Stats
}

// ItemService exposes the shopping-list operations
type ItemService interface {
	List(ctx context.Context, filter domain.Filter) (*ListResult, error)
	Create(ctx context.Context, body map[string]interface{}) (*domain.Item, error)
	Update(ctx context.Context, id string, body map[string]interface{}, partial bool) (*domain.Item, error)
	Delete(ctx context.Context, id string) error
}

type itemService struct {
	repo     repository.ItemRepository
	notifier notification.EventNotifier
	now      func() time.Time
}

func NewItemService(repo repository.ItemRepository, notifier notification.EventNotifier) ItemService {
	return &itemService{repo: repo, notifier: notifier, now: time.Now}
}

func (s *itemService) nowISO() string {
	return s.now().UTC().Format("2006-01-02T15:04:05.000Z07:00")
}

func (s *itemService) List(ctx context.Context, filter domain.Filter) (*ListResult, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	domain.Sort(items)
	stats := domain.ComputeStats(items)
	filtered := filter.Apply(items)
	return &ListResult{
		Items:    filtered,
		Total:    len(items),
		Filtered: len(filtered),
		Stats:    stats,
	}, nil
}

func (s *itemService) Create(ctx context.Context, body map[string]interface{}) (*domain.Item, error) {
	fields, err := domain.Sanitize(body, false)
	if err != nil {
		return nil, err
	}

	id := payload.TrimmedString(body["id"])
	if id == "" {
		id = s.repo.NewID()
	}
	now := s.nowISO()
	fields["id"] = id
	fields["createdAt"] = now
	fields["updatedAt"] = now

	if err := s.repo.Set(ctx, id, fields); err != nil {
		return nil, fmt.Errorf("failed to create supermarket item: %w", err)
	}
	created, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *itemService) Update(ctx context.Context, id string, body map[string]interface{}, partial bool) (*domain.Item, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperr.Validation("Identificador de producto invalido")
	}

	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, apperr.NotFound("Producto no encontrado")
	}

	fields, err := domain.Sanitize(body, partial)
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, apperr.Validation("No hay cambios para aplicar")
	}
	fields["updatedAt"] = s.nowISO()
	fields["id"] = id

	if err := s.repo.SetMerge(ctx, id, fields); err != nil {
		return nil, fmt.Errorf("failed to update supermarket item %s: %w", id, err)
	}
	updated, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, apperr.NotFound("Producto no encontrado")
	}
	s.announceUpdate(ctx, updated)
	return updated, nil
}

func (s *itemService) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return apperr.Validation("Identificador de producto invalido")
	}
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if existing == nil {
		return apperr.NotFound("Producto no encontrado")
	}
	return s.repo.Delete(ctx, id)
}

func (s *itemService) announceUpdate(ctx context.Context, item *domain.Item) {
	name := item.Name
	if name == "" {
		name = "Producto"
	}

	var details []string
	if item.Quantity > 0 {
		details = append(details, strings.TrimSpace(fmt.Sprintf("%v %s", item.Quantity, item.Unit)))
	}
	if item.Category != nil {
		details = append(details, "Categoría "+*item.Category)
	}
	if item.Store != nil {
		details = append(details, "Tienda "+*item.Store)
	}
	body := strings.Join(details, " | ")
	if body == "" && item.Notes != nil {
		body = notification.TruncateText(*item.Notes, 90)
	}

	err := s.notifier.NotifyUpdated(ctx, notification.Event{
		Title: "Lista actualizada: " + name,
		Body:  body,
		Data: map[string]interface{}{
			"entityType": "supermarket",
			"itemId":     item.ID,
			"name":       name,
			"checked":    item.Checked,
			"category":   item.Category,
		},
	})
	if err != nil {
		log.Printf("[SUPERMARKET] broadcast error: %v", err)
	}
}
