package usecase

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"pendientes-backend/internal/category/domain"
	"pendientes-backend/internal/category/repository"
	"pendientes-backend/internal/notification"
	"pendientes-backend/pkg/apperr"
	"pendientes-backend/pkg/payload"
)

// CategoryService exposes the category and task operations behind the HTTP
// surface. Loosely-typed payload maps come straight from the request body so
// the legacy field aliases keep working.
type CategoryService interface {
	List(ctx context.Context, includeTasks, includeTaskCounts bool) ([]domain.Category, error)
	Create(ctx context.Context, body map[string]interface{}) (*domain.Category, error)
	Reorder(ctx context.Context, raw interface{}) (int, error)
	GetByID(ctx context.Context, id string, includeTasks bool) (*domain.Category, error)
	Update(ctx context.Context, id string, body map[string]interface{}) error
	Delete(ctx context.Context, id string) error

	ListTasks(ctx context.Context, categoryID string) ([]domain.Task, error)
	CreateTask(ctx context.Context, categoryID string, body map[string]interface{}) (*domain.Task, error)
	ReorderTasks(ctx context.Context, categoryID string, raw interface{}) (int, error)
	UpdateTask(ctx context.Context, categoryID, taskID string, body map[string]interface{}) (*domain.Task, error)
	DeleteTask(ctx context.Context, categoryID, taskID string) error

	StatusCatalog() []string
}

type categoryService struct {
	repo     repository.CategoryRepository
	notifier notification.EventNotifier
	statuses []string
	now      func() time.Time
}

// NewCategoryService creates the category/task service.
func NewCategoryService(repo repository.CategoryRepository, notifier notification.EventNotifier, statuses []string) CategoryService {
	return &categoryService{
		repo:     repo,
		notifier: notifier,
		statuses: statuses,
		now:      time.Now,
	}
}

// NowISO renders a timestamp the way every stored document carries it.
func NowISO(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z07:00")
}

func (s *categoryService) nowISO() string {
	return NowISO(s.now())
}

func (s *categoryService) StatusCatalog() []string {
	return s.statuses
}

func (s *categoryService) List(ctx context.Context, includeTasks, includeTaskCounts bool) ([]domain.Category, error) {
	categories, err := s.repo.ListOrdered(ctx)
	if err != nil {
		return nil, err
	}
	for i := range categories {
		if includeTasks {
			tasks, err := s.repo.ListTasksOrdered(ctx, categories[i].ID)
			if err != nil {
				return nil, err
			}
			categories[i].Tasks = tasks
			count := len(tasks)
			categories[i].TasksCount = &count
		} else if includeTaskCounts {
			count, err := s.repo.CountTasks(ctx, categories[i].ID)
			if err != nil {
				return nil, err
			}
			total := int(count)
			categories[i].TasksCount = &total
		}
	}
	return categories, nil
}

func (s *categoryService) Create(ctx context.Context, body map[string]interface{}) (*domain.Category, error) {
	title := payload.FirstString(body, "title", "name", "nombre")
	if title == "" {
		return nil, apperr.Validation(`El campo "title" es obligatorio`)
	}

	now := s.nowISO()
	order := s.now().UnixMilli()
	if provided := domain.ParseOrderValue(body["order"]); provided != nil {
		order = *provided
	}
	description := payload.FirstString(body, "description", "descripcion")
	color := payload.TrimmedString(body["color"])

	id := uuid.New().String()
	fields := map[string]interface{}{
		"title":       title,
		"description": description,
		"order":       order,
		"createdAt":   now,
		"updatedAt":   now,
	}
	if color != "" {
		fields["color"] = color
	} else {
		fields["color"] = nil
	}
	if err := s.repo.Create(ctx, id, fields); err != nil {
		return nil, fmt.Errorf("failed to create category: %w", err)
	}

	count := 0
	return &domain.Category{
		ID:          id,
		Title:       title,
		Description: description,
		Color:       color,
		Order:       &order,
		CreatedAt:   now,
		UpdatedAt:   now,
		TasksCount:  &count,
	}, nil
}

func (s *categoryService) Reorder(ctx context.Context, raw interface{}) (int, error) {
	assignments, err := domain.ParseReorderEntries(raw, []string{"categories", "items", "data"}, []string{"id", "categoryId", "cid"}, "categoria")
	if err != nil {
		return 0, err
	}

	existing, err := s.repo.ExistingIDs(ctx)
	if err != nil {
		return 0, err
	}
	var missing []string
	for _, assignment := range assignments {
		if !existing[assignment.ID] {
			missing = append(missing, assignment.ID)
		}
	}
	if len(missing) > 0 {
		return 0, apperr.NotFound("No se encontraron las categorias: " + strings.Join(missing, ", "))
	}

	if err := s.repo.SetOrders(ctx, assignments); err != nil {
		return 0, fmt.Errorf("failed to reorder categories: %w", err)
	}
	return len(assignments), nil
}

func (s *categoryService) GetByID(ctx context.Context, id string, includeTasks bool) (*domain.Category, error) {
	category, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if category == nil {
		return nil, apperr.NotFound("Categoria no encontrada")
	}
	if includeTasks {
		tasks, err := s.repo.ListTasksOrdered(ctx, id)
		if err != nil {
			return nil, err
		}
		category.Tasks = tasks
		count := len(tasks)
		category.TasksCount = &count
	} else {
		count, err := s.repo.CountTasks(ctx, id)
		if err != nil {
			return nil, err
		}
		total := int(count)
		category.TasksCount = &total
	}
	return category, nil
}

func (s *categoryService) Update(ctx context.Context, id string, body map[string]interface{}) error {
	category, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if category == nil {
		return apperr.NotFound("Categoria no encontrada")
	}

	updates := map[string]interface{}{}
	if title := payload.FirstString(body, "title", "name", "nombre"); title != "" {
		updates["title"] = title
	}
	if _, sent := payload.FirstPresent(body, "description", "descripcion"); sent {
		updates["description"] = payload.FirstString(body, "description", "descripcion")
	}
	if payload.Has(body, "color") {
		if color := payload.TrimmedString(body["color"]); color != "" {
			updates["color"] = color
		} else {
			updates["color"] = nil
		}
	}
	if payload.Has(body, "order") {
		order := domain.ParseOrderValue(body["order"])
		if order == nil {
			return apperr.Validation(`El campo "order" debe ser numerico`)
		}
		updates["order"] = *order
	}
	if len(updates) == 0 {
		return apperr.Validation("No hay cambios para aplicar")
	}
	updates["updatedAt"] = s.nowISO()

	if err := s.repo.Update(ctx, id, updates); err != nil {
		return fmt.Errorf("failed to update category %s: %w", id, err)
	}
	return nil
}

func (s *categoryService) Delete(ctx context.Context, id string) error {
	category, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if category == nil {
		return apperr.NotFound("Categoria no encontrada")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete category %s: %w", id, err)
	}
	return nil
}

func (s *categoryService) ListTasks(ctx context.Context, categoryID string) ([]domain.Task, error) {
	category, err := s.repo.Get(ctx, categoryID)
	if err != nil {
		return nil, err
	}
	if category == nil {
		return nil, apperr.NotFound("Categoria no encontrada")
	}
	return s.repo.ListTasksOrdered(ctx, categoryID)
}

func (s *categoryService) CreateTask(ctx context.Context, categoryID string, body map[string]interface{}) (*domain.Task, error) {
	category, err := s.repo.Get(ctx, categoryID)
	if err != nil {
		return nil, err
	}
	if category == nil {
		return nil, apperr.NotFound("Categoria no encontrada")
	}

	title := payload.FirstString(body, "title", "name", "nombre")
	if title == "" {
		return nil, apperr.Validation(`El campo "title" es obligatorio`)
	}

	rawStatus := payload.FirstString(body, "status", "estatus", "state")
	taskStatus, valid := domain.NormalizeStatus(rawStatus, s.statuses)
	if !valid {
		return nil, apperr.Validation("Estatus de tarea no valido")
	}

	order := s.now().UnixMilli()
	if source, sent := payload.FirstPresent(body, "order", "position"); sent {
		if number, numeric := payload.Number(source); numeric {
			order = int64(number)
		}
	}

	now := s.nowISO()
	description := payload.FirstString(body, "description", "descripcion")
	dueDate := payload.FirstString(body, "dueDate", "fecha")

	id := uuid.New().String()
	fields := map[string]interface{}{
		"title":       title,
		"description": description,
		"status":      taskStatus,
		"order":       order,
		"createdAt":   now,
		"updatedAt":   now,
	}
	if dueDate != "" {
		fields["dueDate"] = dueDate
	} else {
		fields["dueDate"] = nil
	}
	if err := s.repo.CreateTask(ctx, categoryID, id, fields); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	task := &domain.Task{
		ID:          id,
		Title:       title,
		Description: description,
		Status:      taskStatus,
		DueDate:     dueDate,
		Order:       &order,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.announceTask(ctx, category, task, true)
	return task, nil
}

// announceTask broadcasts a task mutation. Failures are logged, never
// surfaced.
func (s *categoryService) announceTask(ctx context.Context, category *domain.Category, task *domain.Task, created bool) {
	categoryTitle := strings.TrimSpace(category.Title)
	if categoryTitle == "" {
		categoryTitle = "Pendientes"
	}

	var bodyParts []string
	if task.DueDate != "" {
		bodyParts = append(bodyParts, "Fecha limite "+task.DueDate)
	}
	if snippet := notification.TruncateText(task.Description, 90); snippet != "" {
		bodyParts = append(bodyParts, snippet)
	}
	body := strings.Join(bodyParts, " | ")
	if body == "" {
		body = task.Title
	}

	data := map[string]interface{}{
		"entityType":    "task",
		"taskId":        task.ID,
		"categoryId":    category.ID,
		"categoryTitle": categoryTitle,
		"title":         task.Title,
		"status":        task.Status,
		"dueDate":       nullableValue(task.DueDate),
	}

	var err error
	if created {
		data["action"] = "created"
		err = s.notifier.NotifyCreated(ctx, notification.Event{
			Title: "Nueva tarea en " + categoryTitle,
			Body:  body,
			Data:  data,
		})
	} else {
		err = s.notifier.NotifyUpdated(ctx, notification.Event{
			Title: "Tarea actualizada en " + categoryTitle,
			Body:  body,
			Data:  data,
		})
	}
	if err != nil {
		log.Printf("[CATEGORIES] task broadcast error: %v", err)
	}
}

func (s *categoryService) ReorderTasks(ctx context.Context, categoryID string, raw interface{}) (int, error) {
	assignments, err := domain.ParseReorderEntries(raw, []string{"tasks", "items", "data"}, []string{"id", "taskId", "tid"}, "tarea")
	if err != nil {
		return 0, err
	}

	category, err := s.repo.Get(ctx, categoryID)
	if err != nil {
		return 0, err
	}
	if category == nil {
		return 0, apperr.NotFound("Categoria no encontrada")
	}

	existing, err := s.repo.TaskIDs(ctx, categoryID)
	if err != nil {
		return 0, err
	}
	var missing []string
	for _, assignment := range assignments {
		if !existing[assignment.ID] {
			missing = append(missing, assignment.ID)
		}
	}
	if len(missing) > 0 {
		return 0, apperr.NotFound("No se encontraron las tareas: " + strings.Join(missing, ", "))
	}

	if err := s.repo.SetTaskOrders(ctx, categoryID, assignments); err != nil {
		return 0, fmt.Errorf("failed to reorder tasks: %w", err)
	}
	return len(assignments), nil
}

func (s *categoryService) UpdateTask(ctx context.Context, categoryID, taskID string, body map[string]interface{}) (*domain.Task, error) {
	category, err := s.repo.Get(ctx, categoryID)
	if err != nil {
		return nil, err
	}
	if category == nil {
		return nil, apperr.NotFound("Categoria no encontrada")
	}
	task, err := s.repo.GetTask(ctx, categoryID, taskID)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, apperr.NotFound("Tarea no encontrada")
	}

	updates := map[string]interface{}{}
	if title := payload.FirstString(body, "title", "name", "nombre"); title != "" {
		updates["title"] = title
	}
	if _, sent := payload.FirstPresent(body, "description", "descripcion"); sent {
		updates["description"] = payload.FirstString(body, "description", "descripcion")
	}
	if _, sent := payload.FirstPresent(body, "dueDate", "fecha"); sent {
		if dueDate := payload.FirstString(body, "dueDate", "fecha"); dueDate != "" {
			updates["dueDate"] = dueDate
		} else {
			updates["dueDate"] = nil
		}
	}
	if source, sent := payload.FirstPresent(body, "order", "position"); sent {
		number, numeric := payload.Number(source)
		if !numeric {
			return nil, apperr.Validation(`El campo "order" debe ser numerico`)
		}
		updates["order"] = int64(number)
	}
	if _, sent := payload.FirstPresent(body, "status", "estatus", "state"); sent {
		rawStatus := payload.FirstString(body, "status", "estatus", "state")
		taskStatus, valid := domain.NormalizeStatus(rawStatus, s.statuses)
		if !valid {
			return nil, apperr.Validation("Estatus de tarea no valido")
		}
		updates["status"] = taskStatus
	}
	if len(updates) == 0 {
		return nil, apperr.Validation("No hay cambios para aplicar")
	}
	updates["updatedAt"] = s.nowISO()

	if err := s.repo.UpdateTask(ctx, categoryID, taskID, updates); err != nil {
		return nil, fmt.Errorf("failed to update task %s: %w", taskID, err)
	}
	updated, err := s.repo.GetTask(ctx, categoryID, taskID)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, apperr.NotFound("Tarea no encontrada")
	}
	s.announceTask(ctx, category, updated, false)
	return updated, nil
}

func (s *categoryService) DeleteTask(ctx context.Context, categoryID, taskID string) error {
	category, err := s.repo.Get(ctx, categoryID)
	if err != nil {
		return err
	}
	if category == nil {
		return apperr.NotFound("Categoria no encontrada")
	}
	task, err := s.repo.GetTask(ctx, categoryID, taskID)
	if err != nil {
		return err
	}
	if task == nil {
		return apperr.NotFound("Tarea no encontrada")
	}
	if err := s.repo.DeleteTask(ctx, categoryID, taskID); err != nil {
		return fmt.Errorf("failed to delete task %s: %w", taskID, err)
	}
	return nil
}

func nullableValue(value string) interface{} {
	if value == "" {
		return nil
	}
	return value
}
