package notification

import (
	"context"
	"log"
	"strings"

	"cloud.google.com/go/firestore"

	devdomain "pendientes-backend/internal/device/domain"
	"pendientes-backend/pkg/apperr"
)

// SenderDirectory resolves the registry record behind a sender token.
type SenderDirectory interface {
	GetDevice(ctx context.Context, docID string) (*devdomain.PushToken, error)
}

// MessageInput is one inbound chat message to persist and broadcast.
type MessageInput struct {
	Message         string
	Title           string
	SenderToken     string
	RecipientTokens []string
	Data            map[string]interface{}
	Sound           string
}

// MessageService persists chat messages and fans them out to every device
// except the sender.
type MessageService struct {
	messages     MessageRepository
	senders      SenderDirectory
	dispatcher   Deliverer
	defaultSound string
	defaultLimit int
	maxLimit     int
}

func NewMessageService(messages MessageRepository, senders SenderDirectory, dispatcher Deliverer, defaultSound string, defaultLimit, maxLimit int) *MessageService {
	if defaultLimit <= 0 {
		defaultLimit = 50
	}
	if maxLimit <= 0 {
		maxLimit = 200
	}
	return &MessageService{
		messages:     messages,
		senders:      senders,
		dispatcher:   dispatcher,
		defaultSound: defaultSound,
		defaultLimit: defaultLimit,
		maxLimit:     maxLimit,
	}
}

// List returns up to limit recent messages in chronological order.
func (s *MessageService) List(ctx context.Context, limit int) ([]ChatMessage, error) {
	if limit <= 0 {
		limit = s.defaultLimit
	}
	if limit > s.maxLimit {
		limit = s.maxLimit
	}
	messages, err := s.messages.ListRecent(ctx, limit)
	if err != nil {
		return nil, err
	}
	// Stored newest-first, served oldest-first.
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

// Create stores the message, delivers it (to the explicit recipients, or as a
// broadcast excluding the sender), and writes the delivery counters back onto
// the stored document.
func (s *MessageService) Create(ctx context.Context, input MessageInput) (*ChatMessage, *DeliveryResult, error) {
	message := strings.TrimSpace(input.Message)
	if message == "" {
		return nil, nil, apperr.Validation("El mensaje es requerido")
	}
	senderToken := strings.TrimSpace(input.SenderToken)
	if senderToken == "" {
		return nil, nil, apperr.Validation("Se requiere el token del remitente")
	}

	title := strings.TrimSpace(input.Title)
	if title == "" {
		title = "Mensaje nuevo"
	}

	var recipients []string
	seen := make(map[string]bool)
	for _, token := range input.RecipientTokens {
		token = strings.TrimSpace(token)
		if token == "" || seen[token] {
			continue
		}
		seen[token] = true
		recipients = append(recipients, token)
	}

	sender := s.lookupSender(ctx, senderToken)

	fields := map[string]interface{}{
		"title":             title,
		"message":           message,
		"senderToken":       senderToken,
		"senderDeviceId":    nullable(sender.DeviceID),
		"senderDisplayName": nullable(sender.DisplayName),
		"senderPlatform":    nullable(sender.Platform),
		"appVersion":        nullable(sender.AppVersion),
		"recipientTokens":   recipients,
		"data":              input.Data,
		"createdAt":         firestore.ServerTimestamp,
		"updatedAt":         firestore.ServerTimestamp,
	}
	id, err := s.messages.Add(ctx, fields)
	if err != nil {
		return nil, nil, err
	}

	data := make(map[string]interface{}, len(input.Data)+4)
	for key, value := range input.Data {
		data[key] = value
	}
	data["chat"] = "true"
	data["chatMessageId"] = id
	data["senderDeviceId"] = sender.DeviceID
	data["senderDisplayName"] = sender.DisplayName

	sound := input.Sound
	if sound == "" {
		sound = s.defaultSound
	}

	delivery, err := s.dispatcher.Deliver(ctx, Payload{
		Title:          title,
		Body:           message,
		Data:           data,
		Sound:          sound,
		ExplicitTokens: recipients,
		SenderToken:    senderToken,
	})
	if err != nil {
		return nil, nil, err
	}

	if err := s.messages.SetDelivery(ctx, id, delivery.Delivered, delivery.InvalidTokens); err != nil {
		return nil, nil, err
	}

	stored, err := s.messages.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return stored, delivery, nil
}

// lookupSender tolerates unregistered senders; the message still goes out.
func (s *MessageService) lookupSender(ctx context.Context, senderToken string) devdomain.PushToken {
	record, err := s.senders.GetDevice(ctx, devdomain.TokenDocID(senderToken))
	if err != nil {
		if !apperr.IsNotFound(err) {
			log.Printf("[NOTIFICATIONS] sender lookup error: %v", err)
		}
		return devdomain.PushToken{}
	}
	return *record
}

func nullable(value string) interface{} {
	if value == "" {
		return nil
	}
	return value
}
