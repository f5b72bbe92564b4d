package repository

import (
	"context"
	"fmt"
	"strings"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"pendientes-backend/internal/note/domain"
	"pendientes-backend/pkg/database"
)

// NoteRepository defines the Firestore operations behind notes
type NoteRepository interface {
	List(ctx context.Context) ([]domain.Note, error)
	Get(ctx context.Context, id string) (*domain.Note, error)
	Add(ctx context.Context, fields map[string]interface{}) (string, error)
	SetMerge(ctx context.Context, id string, fields map[string]interface{}) error
	Delete(ctx context.Context, id string) error
}

type noteRepository struct {
	db         *database.Database
	collection string
}

// NewNoteRepository creates a Firestore-backed note store.
func NewNoteRepository(db *database.Database, collection string) NoteRepository {
	return &noteRepository{db: db, collection: collection}
}

func (r *noteRepository) List(ctx context.Context) ([]domain.Note, error) {
	snaps, err := r.db.Collection(r.collection).Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to list notes: %w", err)
	}
	notes := make([]domain.Note, 0, len(snaps))
	for _, snap := range snaps {
		notes = append(notes, mapNote(snap))
	}
	return notes, nil
}

func (r *noteRepository) Get(ctx context.Context, id string) (*domain.Note, error) {
	snap, err := r.db.Collection(r.collection).Doc(id).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read note %s: %w", id, err)
	}
	note := mapNote(snap)
	return &note, nil
}

func (r *noteRepository) Add(ctx context.Context, fields map[string]interface{}) (string, error) {
	ref, _, err := r.db.Collection(r.collection).Add(ctx, fields)
	if err != nil {
		return "", fmt.Errorf("failed to create note: %w", err)
	}
	return ref.ID, nil
}

func (r *noteRepository) SetMerge(ctx context.Context, id string, fields map[string]interface{}) error {
	_, err := r.db.Collection(r.collection).Doc(id).Set(ctx, fields, firestore.MergeAll)
	return err
}

func (r *noteRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.Collection(r.collection).Doc(id).Delete(ctx)
	return err
}

func mapNote(snap *firestore.DocumentSnapshot) domain.Note {
	data := snap.Data()
	noteType := strings.ToLower(strings.TrimSpace(stringField(data, "type")))
	if noteType != domain.TypeNormal && noteType != domain.TypeManzana {
		noteType = domain.DefaultType
	}
	isManzana, hasFlag := data["isManzana"].(bool)
	if !hasFlag {
		isManzana = noteType == domain.TypeManzana
	}
	if isManzana {
		noteType = domain.TypeManzana
	}
	return domain.Note{
		ID:        snap.Ref.ID,
		Title:     stringField(data, "title"),
		Content:   stringField(data, "content"),
		Type:      noteType,
		IsManzana: isManzana,
		CreatedAt: data["createdAt"],
		UpdatedAt: data["updatedAt"],
	}
}

func stringField(data map[string]interface{}, key string) string {
	if value, ok := data[key].(string); ok {
		return value
	}
	return ""
}
