package repository

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"pendientes-backend/internal/supermarket/domain"
	"pendientes-backend/pkg/database"
)

// ItemRepository defines the Firestore operations behind the shopping list
type ItemRepository interface {
	List(ctx context.Context) ([]domain.Item, error)
	Get(ctx context.Context, id string) (*domain.Item, error)
	Set(ctx context.Context, id string, fields map[string]interface{}) error
	SetMerge(ctx context.Context, id string, fields map[string]interface{}) error
	Delete(ctx context.Context, id string) error
	NewID() string
}

type itemRepository struct {
	db         *database.Database
	collection string
}

// NewItemRepository creates a Firestore-backed shopping list store.
func NewItemRepository(db *database.Database, collection string) ItemRepository {
	return &itemRepository{db: db, collection: collection}
}

func (r *itemRepository) List(ctx context.Context) ([]domain.Item, error) {
	snaps, err := r.db.Collection(r.collection).Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to list supermarket items: %w", err)
	}
	items := make([]domain.Item, 0, len(snaps))
	for _, snap := range snaps {
		items = append(items, mapItem(snap))
	}
	return items, nil
}

func (r *itemRepository) Get(ctx context.Context, id string) (*domain.Item, error) {
	snap, err := r.db.Collection(r.collection).Doc(id).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read supermarket item %s: %w", id, err)
	}
	item := mapItem(snap)
	return &item, nil
}

func (r *itemRepository) Set(ctx context.Context, id string, fields map[string]interface{}) error {
	_, err := r.db.Collection(r.collection).Doc(id).Set(ctx, fields)
	return err
}

func (r *itemRepository) SetMerge(ctx context.Context, id string, fields map[string]interface{}) error {
	_, err := r.db.Collection(r.collection).Doc(id).Set(ctx, fields, firestore.MergeAll)
	return err
}

func (r *itemRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.Collection(r.collection).Doc(id).Delete(ctx)
	return err
}

func (r *itemRepository) NewID() string {
	return r.db.Collection(r.collection).NewDoc().ID
}

// mapItem normalizes legacy documents: missing quantities, priorities outside
// 1..3, and absent flags fall back to the listing defaults.
func mapItem(snap *firestore.DocumentSnapshot) domain.Item {
	data := snap.Data()

	item := domain.Item{
		ID:        snap.Ref.ID,
		Name:      stringField(data, "name"),
		Quantity:  domain.DefaultQuantity,
		Unit:      domain.DefaultUnit,
		Priority:  domain.DefaultPriority,
		Recurring: domain.DefaultRecurring,
		Tags:      []string{},
	}

	if quantity, ok := numberField(data["quantity"]); ok {
		item.Quantity = quantity
	}
	if unit := stringField(data, "unit"); unit != "" {
		item.Unit = unit
	}
	if priority, ok := numberField(data["priority"]); ok {
		whole := int(priority)
		if whole >= 1 && whole <= 3 {
			item.Priority = whole
		}
	}
	if checked, ok := data["checked"].(bool); ok {
		item.Checked = checked
	}
	if recurring := stringField(data, "recurring"); recurring != "" {
		switch recurring {
		case "none", "weekly", "biweekly", "monthly":
			item.Recurring = recurring
		}
	}
	if tags, ok := data["tags"].([]interface{}); ok {
		for _, tag := range tags {
			if value, isString := tag.(string); isString {
				item.Tags = append(item.Tags, value)
			}
		}
	}
	item.Category = nullableField(data, "category")
	item.Store = nullableField(data, "store")
	item.Notes = nullableField(data, "notes")
	if price, ok := numberField(data["price"]); ok {
		item.Price = &price
	}
	item.CreatedAt = timestampField(data, "createdAt")
	item.UpdatedAt = timestampField(data, "updatedAt")
	return item
}

func stringField(data map[string]interface{}, key string) string {
	if value, ok := data[key].(string); ok {
		return value
	}
	return ""
}

func nullableField(data map[string]interface{}, key string) *string {
	if value, ok := data[key].(string); ok && value != "" {
		return &value
	}
	return nil
}

func numberField(value interface{}) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case int64:
		return float64(v), true
	}
	return 0, false
}

func timestampField(data map[string]interface{}, key string) *string {
	if value, ok := data[key].(string); ok && value != "" {
		return &value
	}
	return nil
}
