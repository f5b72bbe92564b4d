package repository

import (
	"context"
	"fmt"
	"log"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/firestore/apiv1/firestorepb"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"pendientes-backend/internal/category/domain"
	"pendientes-backend/pkg/database"
)

// CategoryRepository defines the Firestore operations behind categories and
// their task subcollections. Ordered reads self-heal: any sibling set with
// missing or unparsable order values is renumbered before it is returned.
type CategoryRepository interface {
	ListOrdered(ctx context.Context) ([]domain.Category, error)
	Get(ctx context.Context, id string) (*domain.Category, error)
	Create(ctx context.Context, id string, fields map[string]interface{}) error
	Update(ctx context.Context, id string, fields map[string]interface{}) error
	Delete(ctx context.Context, id string) error
	SetOrders(ctx context.Context, assignments []domain.Assignment) error
	ExistingIDs(ctx context.Context) (map[string]bool, error)

	CountTasks(ctx context.Context, categoryID string) (int64, error)
	ListTasksOrdered(ctx context.Context, categoryID string) ([]domain.Task, error)
	GetTask(ctx context.Context, categoryID, taskID string) (*domain.Task, error)
	CreateTask(ctx context.Context, categoryID, taskID string, fields map[string]interface{}) error
	UpdateTask(ctx context.Context, categoryID, taskID string, fields map[string]interface{}) error
	DeleteTask(ctx context.Context, categoryID, taskID string) error
	SetTaskOrders(ctx context.Context, categoryID string, assignments []domain.Assignment) error
	TaskIDs(ctx context.Context, categoryID string) (map[string]bool, error)
}

type categoryRepository struct {
	db             *database.Database
	collection     string
	tasksCol       string
	timestampValue func() string
}

// NewCategoryRepository creates a Firestore-backed category store.
func NewCategoryRepository(db *database.Database, collection, tasksSubcollection string, now func() string) CategoryRepository {
	return &categoryRepository{
		db:             db,
		collection:     collection,
		tasksCol:       tasksSubcollection,
		timestampValue: now,
	}
}

func (r *categoryRepository) col() *firestore.CollectionRef {
	return r.db.Collection(r.collection)
}

func (r *categoryRepository) taskCol(categoryID string) *firestore.CollectionRef {
	return r.col().Doc(categoryID).Collection(r.tasksCol)
}

// safeGet runs an ordered query, falling back to an unordered scan when the
// backend rejects it for a missing index. A successful ordered query is also
// checked against an independent count: order-by drops documents without the
// order field, and those are exactly the ones the repair pass must see.
func (r *categoryRepository) safeGet(ctx context.Context, col *firestore.CollectionRef, label string) ([]*firestore.DocumentSnapshot, error) {
	snaps, err := col.OrderBy("order", firestore.Asc).Documents(ctx).GetAll()
	if status.Code(err) == codes.FailedPrecondition {
		log.Printf("[CATEGORIES] ordered query unavailable for %s, scanning unordered: %v", label, err)
		return col.Documents(ctx).GetAll()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", label, err)
	}

	total, err := r.countDocs(ctx, col, label)
	if err != nil {
		log.Printf("[CATEGORIES] count unavailable for %s, scanning unordered: %v", label, err)
		return col.Documents(ctx).GetAll()
	}
	if domain.NeedsRescan(int64(len(snaps)), total) {
		log.Printf("[CATEGORIES] ordered query returned %d of %d documents in %s, scanning unordered", len(snaps), total, label)
		return col.Documents(ctx).GetAll()
	}
	return snaps, nil
}

// countDocs counts a collection through the aggregation API, scanning when the
// backend does not implement it.
func (r *categoryRepository) countDocs(ctx context.Context, col *firestore.CollectionRef, label string) (int64, error) {
	query := col.NewAggregationQuery().WithCount("total")
	results, err := query.Get(ctx)
	if status.Code(err) == codes.Unimplemented {
		snaps, scanErr := col.Documents(ctx).GetAll()
		if scanErr != nil {
			return 0, fmt.Errorf("failed to count %s: %w", label, scanErr)
		}
		return int64(len(snaps)), nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", label, err)
	}
	value, ok := results["total"].(*firestorepb.Value)
	if !ok {
		return 0, fmt.Errorf("unexpected aggregation result for %s", label)
	}
	return value.GetIntegerValue(), nil
}

func (r *categoryRepository) ListOrdered(ctx context.Context) ([]domain.Category, error) {
	snaps, err := r.safeGet(ctx, r.col(), "categories")
	if err != nil {
		return nil, err
	}
	ordered, err := r.ensureSequential(ctx, r.col(), snaps, "categories")
	if err != nil {
		return nil, err
	}
	categories := make([]domain.Category, 0, len(ordered))
	for _, snap := range ordered {
		categories = append(categories, mapCategory(snap))
	}
	return categories, nil
}

// ensureSequential detects missing or unparsable order values, renumbers only
// the affected documents in one batch, and returns the snapshots in final
// listing order. A fully valid set commits nothing.
func (r *categoryRepository) ensureSequential(ctx context.Context, col *firestore.CollectionRef, snaps []*firestore.DocumentSnapshot, label string) ([]*firestore.DocumentSnapshot, error) {
	byID := make(map[string]*firestore.DocumentSnapshot, len(snaps))
	items := make([]domain.Orderable, 0, len(snaps))
	for _, snap := range snaps {
		byID[snap.Ref.ID] = snap
		items = append(items, orderableOf(snap))
	}

	assignments := domain.PlanRepair(items)
	if len(assignments) > 0 {
		batch := r.db.Batch()
		for _, assignment := range assignments {
			batch.Set(col.Doc(assignment.ID), map[string]interface{}{
				"order":     assignment.Order,
				"updatedAt": r.timestampValue(),
			}, firestore.MergeAll)
		}
		if _, err := batch.Commit(ctx); err != nil {
			return nil, fmt.Errorf("failed to repair %s ordering: %w", label, err)
		}
		log.Printf("[CATEGORIES] repaired order for %d documents in %s", len(assignments), label)
		assigned := make(map[string]int64, len(assignments))
		for _, assignment := range assignments {
			assigned[assignment.ID] = assignment.Order
		}
		for i := range items {
			if order, ok := assigned[items[i].ID]; ok {
				value := order
				items[i].Order = &value
			}
		}
	}

	ordered := make([]*firestore.DocumentSnapshot, 0, len(items))
	for _, item := range domain.SortByOrder(items) {
		ordered = append(ordered, byID[item.ID])
	}
	return ordered, nil
}

func (r *categoryRepository) Get(ctx context.Context, id string) (*domain.Category, error) {
	snap, err := r.col().Doc(id).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read category %s: %w", id, err)
	}
	category := mapCategory(snap)
	return &category, nil
}

func (r *categoryRepository) Create(ctx context.Context, id string, fields map[string]interface{}) error {
	_, err := r.col().Doc(id).Set(ctx, fields)
	return err
}

func (r *categoryRepository) Update(ctx context.Context, id string, fields map[string]interface{}) error {
	_, err := r.col().Doc(id).Set(ctx, fields, firestore.MergeAll)
	return err
}

// Delete removes the category and every task beneath it in one batch.
func (r *categoryRepository) Delete(ctx context.Context, id string) error {
	taskSnaps, err := r.taskCol(id).Documents(ctx).GetAll()
	if err != nil {
		return fmt.Errorf("failed to list tasks of category %s: %w", id, err)
	}
	batch := r.db.Batch()
	for _, snap := range taskSnaps {
		batch.Delete(snap.Ref)
	}
	batch.Delete(r.col().Doc(id))
	_, err = batch.Commit(ctx)
	return err
}

func (r *categoryRepository) SetOrders(ctx context.Context, assignments []domain.Assignment) error {
	return r.commitOrders(ctx, r.col(), assignments)
}

func (r *categoryRepository) commitOrders(ctx context.Context, col *firestore.CollectionRef, assignments []domain.Assignment) error {
	if len(assignments) == 0 {
		return nil
	}
	batch := r.db.Batch()
	for _, assignment := range assignments {
		batch.Set(col.Doc(assignment.ID), map[string]interface{}{
			"order":     assignment.Order,
			"updatedAt": r.timestampValue(),
		}, firestore.MergeAll)
	}
	_, err := batch.Commit(ctx)
	return err
}

func (r *categoryRepository) ExistingIDs(ctx context.Context) (map[string]bool, error) {
	snaps, err := r.col().Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return idSet(snaps), nil
}

// CountTasks uses the aggregation API, falling back to a scan when the
// backend does not implement it.
func (r *categoryRepository) CountTasks(ctx context.Context, categoryID string) (int64, error) {
	return r.countDocs(ctx, r.taskCol(categoryID), "tasks of "+categoryID)
}

func (r *categoryRepository) ListTasksOrdered(ctx context.Context, categoryID string) ([]domain.Task, error) {
	snaps, err := r.safeGet(ctx, r.taskCol(categoryID), "tasks of "+categoryID)
	if err != nil {
		return nil, err
	}
	ordered, err := r.ensureSequential(ctx, r.taskCol(categoryID), snaps, "tasks of "+categoryID)
	if err != nil {
		return nil, err
	}
	tasks := make([]domain.Task, 0, len(ordered))
	for _, snap := range ordered {
		tasks = append(tasks, mapTask(snap))
	}
	return tasks, nil
}

func (r *categoryRepository) GetTask(ctx context.Context, categoryID, taskID string) (*domain.Task, error) {
	snap, err := r.taskCol(categoryID).Doc(taskID).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read task %s: %w", taskID, err)
	}
	task := mapTask(snap)
	return &task, nil
}

func (r *categoryRepository) CreateTask(ctx context.Context, categoryID, taskID string, fields map[string]interface{}) error {
	_, err := r.taskCol(categoryID).Doc(taskID).Set(ctx, fields)
	return err
}

func (r *categoryRepository) UpdateTask(ctx context.Context, categoryID, taskID string, fields map[string]interface{}) error {
	_, err := r.taskCol(categoryID).Doc(taskID).Set(ctx, fields, firestore.MergeAll)
	return err
}

func (r *categoryRepository) DeleteTask(ctx context.Context, categoryID, taskID string) error {
	_, err := r.taskCol(categoryID).Doc(taskID).Delete(ctx)
	return err
}

func (r *categoryRepository) SetTaskOrders(ctx context.Context, categoryID string, assignments []domain.Assignment) error {
	return r.commitOrders(ctx, r.taskCol(categoryID), assignments)
}

func (r *categoryRepository) TaskIDs(ctx context.Context, categoryID string) (map[string]bool, error) {
	snaps, err := r.taskCol(categoryID).Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks of category %s: %w", categoryID, err)
	}
	return idSet(snaps), nil
}

func idSet(snaps []*firestore.DocumentSnapshot) map[string]bool {
	ids := make(map[string]bool, len(snaps))
	for _, snap := range snaps {
		ids[snap.Ref.ID] = true
	}
	return ids
}

func orderableOf(snap *firestore.DocumentSnapshot) domain.Orderable {
	data := snap.Data()
	return domain.Orderable{
		ID:        snap.Ref.ID,
		Order:     domain.ParseOrderValue(data["order"]),
		CreatedAt: domain.ComparableTimestamp(data["createdAt"]),
	}
}

func mapCategory(snap *firestore.DocumentSnapshot) domain.Category {
	data := snap.Data()
	return domain.Category{
		ID:          snap.Ref.ID,
		Title:       stringField(data, "title"),
		Description: stringField(data, "description"),
		Color:       stringField(data, "color"),
		Icon:        stringField(data, "icon"),
		Order:       domain.ParseOrderValue(data["order"]),
		CreatedAt:   domain.ComparableTimestamp(data["createdAt"]),
		UpdatedAt:   domain.ComparableTimestamp(data["updatedAt"]),
	}
}

func mapTask(snap *firestore.DocumentSnapshot) domain.Task {
	data := snap.Data()
	taskStatus := stringField(data, "status")
	if taskStatus == "" {
		taskStatus = domain.DefaultTaskStatus
	}
	return domain.Task{
		ID:          snap.Ref.ID,
		Title:       stringField(data, "title"),
		Description: stringField(data, "description"),
		Status:      taskStatus,
		DueDate:     stringField(data, "dueDate"),
		Order:       domain.ParseOrderValue(data["order"]),
		CreatedAt:   domain.ComparableTimestamp(data["createdAt"]),
		UpdatedAt:   domain.ComparableTimestamp(data["updatedAt"]),
	}
}

func stringField(data map[string]interface{}, key string) string {
	if value, ok := data[key].(string); ok {
		return value
	}
	return ""
}
