package repository

import (
	"context"
	"fmt"
	"strings"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"pendientes-backend/internal/device/domain"
	"pendientes-backend/pkg/database"
)

// TokenRepository defines the Firestore operations behind the token registry
type TokenRepository interface {
	Get(ctx context.Context, docID string) (*domain.PushToken, error)
	SetMerge(ctx context.Context, docID string, fields map[string]interface{}) error
	DeactivateOthersForDevice(ctx context.Context, deviceID, keepDocID string) error
	MarkInactive(ctx context.Context, tokens []string) error
	Touch(ctx context.Context, token string) error
	ListActive(ctx context.Context) ([]domain.PushToken, error)
	ListByProvider(ctx context.Context, kind domain.ProviderKind) ([]domain.PushToken, error)
	ListAll(ctx context.Context) ([]domain.PushToken, error)
}

type tokenRepository struct {
	db         *database.Database
	collection string
}

// NewTokenRepository creates a Firestore-backed token registry
func NewTokenRepository(db *database.Database, collection string) TokenRepository {
	return &tokenRepository{db: db, collection: collection}
}

func (r *tokenRepository) docRef(docID string) *firestore.DocumentRef {
	return r.db.Collection(r.collection).Doc(docID)
}

// Get returns the record for a document ID, or nil when it does not exist.
func (r *tokenRepository) Get(ctx context.Context, docID string) (*domain.PushToken, error) {
	snap, err := r.docRef(docID).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read push token %s: %w", docID, err)
	}
	return snapshotToToken(snap), nil
}

func (r *tokenRepository) SetMerge(ctx context.Context, docID string, fields map[string]interface{}) error {
	_, err := r.docRef(docID).Set(ctx, fields, firestore.MergeAll)
	return err
}

// DeactivateOthersForDevice marks every record sharing the device identifier,
// except the surviving one, inactive with a duplicateOf back-reference. One
// atomic batch.
func (r *tokenRepository) DeactivateOthersForDevice(ctx context.Context, deviceID, keepDocID string) error {
	snaps, err := r.db.Collection(r.collection).Where("deviceId", "==", deviceID).Documents(ctx).GetAll()
	if err != nil {
		return fmt.Errorf("failed to query device records for %s: %w", deviceID, err)
	}

	batch := r.db.Batch()
	hasUpdates := false
	for _, snap := range snaps {
		if snap.Ref.ID == keepDocID {
			continue
		}
		batch.Set(snap.Ref, map[string]interface{}{
			"active":        false,
			"duplicateOf":   keepDocID,
			"updatedAt":     firestore.ServerTimestamp,
			"deactivatedAt": firestore.ServerTimestamp,
		}, firestore.MergeAll)
		hasUpdates = true
	}
	if !hasUpdates {
		return nil
	}
	_, err = batch.Commit(ctx)
	return err
}

// MarkInactive batch-deactivates the records for the given raw tokens.
// Unknown tokens are merged in place rather than rejected.
func (r *tokenRepository) MarkInactive(ctx context.Context, tokens []string) error {
	batch := r.db.Batch()
	hasUpdates := false
	for _, token := range tokens {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		batch.Set(r.docRef(domain.TokenDocID(token)), map[string]interface{}{
			"active":        false,
			"deactivatedAt": firestore.ServerTimestamp,
			"updatedAt":     firestore.ServerTimestamp,
		}, firestore.MergeAll)
		hasUpdates = true
	}
	if !hasUpdates {
		return nil
	}
	_, err := batch.Commit(ctx)
	return err
}

// Touch refreshes the delivery timestamps after a confirmed send.
func (r *tokenRepository) Touch(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil
	}
	_, err := r.docRef(domain.TokenDocID(token)).Set(ctx, map[string]interface{}{
		"active":     true,
		"lastUsedAt": firestore.ServerTimestamp,
		"updatedAt":  firestore.ServerTimestamp,
	}, firestore.MergeAll)
	return err
}

func (r *tokenRepository) ListActive(ctx context.Context) ([]domain.PushToken, error) {
	snaps, err := r.db.Collection(r.collection).Where("active", "==", true).Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to query active push tokens: %w", err)
	}
	return snapshotsToTokens(snaps), nil
}

func (r *tokenRepository) ListByProvider(ctx context.Context, kind domain.ProviderKind) ([]domain.PushToken, error) {
	snaps, err := r.db.Collection(r.collection).Where("tokenType", "==", string(kind)).Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to query %s push tokens: %w", kind, err)
	}
	return snapshotsToTokens(snaps), nil
}

func (r *tokenRepository) ListAll(ctx context.Context) ([]domain.PushToken, error) {
	snaps, err := r.db.Collection(r.collection).Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to list push tokens: %w", err)
	}
	return snapshotsToTokens(snaps), nil
}

func snapshotToToken(snap *firestore.DocumentSnapshot) *domain.PushToken {
	var token domain.PushToken
	// Records written by older app versions may miss fields; DataTo leaves
	// them at their zero values.
	if err := snap.DataTo(&token); err != nil {
		return &domain.PushToken{ID: snap.Ref.ID, Active: true}
	}
	token.ID = snap.Ref.ID
	// Records predating the active flag count as active.
	if _, ok := snap.Data()["active"]; !ok {
		token.Active = true
	}
	return &token
}

func snapshotsToTokens(snaps []*firestore.DocumentSnapshot) []domain.PushToken {
	tokens := make([]domain.PushToken, 0, len(snaps))
	for _, snap := range snaps {
		tokens = append(tokens, *snapshotToToken(snap))
	}
	return tokens
}
