package notification

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"

	"pendientes-backend/pkg/database"
)

// ChatMessage is one persisted broadcast message with its delivery outcome.
type ChatMessage struct {
	ID                string                 `firestore:"-" json:"id"`
	Title             string                 `firestore:"title" json:"title"`
	Message           string                 `firestore:"message" json:"message"`
	SenderToken       string                 `firestore:"senderToken" json:"senderToken"`
	SenderDeviceID    string                 `firestore:"senderDeviceId" json:"senderDeviceId"`
	SenderDisplayName string                 `firestore:"senderDisplayName" json:"senderDisplayName"`
	SenderPlatform    string                 `firestore:"senderPlatform" json:"senderPlatform"`
	AppVersion        string                 `firestore:"appVersion" json:"appVersion"`
	RecipientTokens   []string               `firestore:"recipientTokens" json:"recipientTokens"`
	Data              map[string]interface{} `firestore:"data" json:"data"`
	DeliveredCount    int                    `firestore:"deliveredCount" json:"deliveredCount"`
	InvalidCount      int                    `firestore:"invalidCount" json:"invalidCount"`
	CreatedAt         time.Time              `firestore:"createdAt" json:"createdAt"`
	UpdatedAt         time.Time              `firestore:"updatedAt" json:"updatedAt"`
	DeliveredAt       time.Time              `firestore:"deliveredAt" json:"deliveredAt"`
}

// MessageRepository persists the broadcast message log.
type MessageRepository interface {
	Add(ctx context.Context, fields map[string]interface{}) (string, error)
	Get(ctx context.Context, id string) (*ChatMessage, error)
	ListRecent(ctx context.Context, limit int) ([]ChatMessage, error)
	SetDelivery(ctx context.Context, id string, delivered, invalid int) error
}

type messageRepository struct {
	db         *database.Database
	collection string
}

func NewMessageRepository(db *database.Database, collection string) MessageRepository {
	return &messageRepository{db: db, collection: collection}
}

func (r *messageRepository) Add(ctx context.Context, fields map[string]interface{}) (string, error) {
	ref, _, err := r.db.Collection(r.collection).Add(ctx, fields)
	if err != nil {
		return "", fmt.Errorf("failed to store chat message: %w", err)
	}
	return ref.ID, nil
}

func (r *messageRepository) Get(ctx context.Context, id string) (*ChatMessage, error) {
	snap, err := r.db.Collection(r.collection).Doc(id).Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read chat message %s: %w", id, err)
	}
	var message ChatMessage
	if err := snap.DataTo(&message); err != nil {
		return nil, fmt.Errorf("failed to decode chat message %s: %w", id, err)
	}
	message.ID = snap.Ref.ID
	return &message, nil
}

// ListRecent returns the newest messages first.
func (r *messageRepository) ListRecent(ctx context.Context, limit int) ([]ChatMessage, error) {
	snaps, err := r.db.Collection(r.collection).
		OrderBy("createdAt", firestore.Desc).
		Limit(limit).
		Documents(ctx).
		GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to list chat messages: %w", err)
	}

	messages := make([]ChatMessage, 0, len(snaps))
	for _, snap := range snaps {
		var message ChatMessage
		if err := snap.DataTo(&message); err != nil {
			continue
		}
		message.ID = snap.Ref.ID
		messages = append(messages, message)
	}
	return messages, nil
}

func (r *messageRepository) SetDelivery(ctx context.Context, id string, delivered, invalid int) error {
	fields := map[string]interface{}{
		"deliveredCount": delivered,
		"invalidCount":   invalid,
		"updatedAt":      firestore.ServerTimestamp,
	}
	if delivered > 0 {
		fields["deliveredAt"] = firestore.ServerTimestamp
	}
	_, err := r.db.Collection(r.collection).Doc(id).Set(ctx, fields, firestore.MergeAll)
	return err
}
