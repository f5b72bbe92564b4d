package usecase

import (
	"context"
	"log"
	"time"

	"pendientes-backend/internal/note/domain"
	"pendientes-backend/internal/note/repository"
	"pendientes-backend/internal/notification"
	"pendientes-backend/pkg/apperr"
)

// NoteService exposes note CRUD with broadcast side effects
type NoteService interface {
	List(ctx context.Context) ([]domain.Note, error)
	Create(ctx context.Context, body map[string]interface{}) (*domain.Note, error)
	Update(ctx context.Context, id string, body map[string]interface{}) (*domain.Note, error)
	Delete(ctx context.Context, id string) error
}

type noteService struct {
	repo     repository.NoteRepository
	notifier notification.EventNotifier
	now      func() time.Time
}

func NewNoteService(repo repository.NoteRepository, notifier notification.EventNotifier) NoteService {
	return &noteService{repo: repo, notifier: notifier, now: time.Now}
}

func (s *noteService) nowISO() string {
	return s.now().UTC().Format("2006-01-02T15:04:05.000Z07:00")
}

func (s *noteService) List(ctx context.Context) ([]domain.Note, error) {
	notes, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	return domain.Sort(notes), nil
}

func (s *noteService) Create(ctx context.Context, body map[string]interface{}) (*domain.Note, error) {
	now := s.nowISO()
	fields, err := domain.Sanitize(body, false, now)
	if err != nil {
		return nil, err
	}

	id, err := s.repo.Add(ctx, fields)
	if err != nil {
		return nil, err
	}

	created := noteFromFields(id, fields)
	s.announce(ctx, created, true)
	return created, nil
}

func (s *noteService) Update(ctx context.Context, id string, body map[string]interface{}) (*domain.Note, error) {
	fields, err := domain.Sanitize(body, true, s.nowISO())
	if err != nil {
		return nil, err
	}
	if len(fields) <= 1 {
		// nothing but the updatedAt stamp
		return nil, apperr.Validation("No hay cambios para aplicar")
	}

	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, apperr.NotFound("Nota no encontrada")
	}

	if err := s.repo.SetMerge(ctx, id, fields); err != nil {
		return nil, err
	}
	updated, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, apperr.NotFound("Nota no encontrada")
	}
	s.announce(ctx, updated, false)
	return updated, nil
}

func (s *noteService) Delete(ctx context.Context, id string) error {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if existing == nil {
		return apperr.NotFound("Nota no encontrada")
	}
	return s.repo.Delete(ctx, id)
}

func (s *noteService) announce(ctx context.Context, note *domain.Note, created bool) {
	title := note.Title
	if title == "" {
		if created {
			title = "Nota nueva"
		} else {
			title = "Nota"
		}
	}

	snippet := notification.TruncateText(note.Content, 120)
	data := map[string]interface{}{
		"entityType": "note",
		"noteId":     note.ID,
		"title":      title,
		"type":       note.Type,
		"isManzana":  note.IsManzana,
	}

	var err error
	if created {
		if snippet == "" {
			snippet = "Nota sin contenido"
		}
		data["action"] = "created"
		err = s.notifier.NotifyCreated(ctx, notification.Event{
			Title: "Nueva nota: " + title,
			Body:  snippet,
			Data:  data,
		})
	} else {
		if snippet == "" {
			snippet = "Nota actualizada."
		}
		err = s.notifier.NotifyUpdated(ctx, notification.Event{
			Title: "Nota actualizada: " + title,
			Body:  snippet,
			Data:  data,
		})
	}
	if err != nil {
		log.Printf("[NOTES] broadcast error: %v", err)
	}
}

func noteFromFields(id string, fields map[string]interface{}) *domain.Note {
	note := &domain.Note{ID: id}
	if title, ok := fields["title"].(string); ok {
		note.Title = title
	}
	if content, ok := fields["content"].(string); ok {
		note.Content = content
	}
	if noteType, ok := fields["type"].(string); ok {
		note.Type = noteType
	}
	if flag, ok := fields["isManzana"].(bool); ok {
		note.IsManzana = flag
	}
	note.CreatedAt = fields["createdAt"]
	note.UpdatedAt = fields["updatedAt"]
	return note
}
