package usecase

import (
	"context"
	"log"
	"time"

	"pendientes-backend/internal/debt/domain"
	"pendientes-backend/internal/debt/repository"
	"pendientes-backend/internal/notification"
	"pendientes-backend/pkg/apperr"
	"pendientes-backend/pkg/payload"
)

// DebtService exposes the ledger operations
type DebtService interface {
	List(ctx context.Context, orderQuery string) ([]domain.Entry, error)
	Create(ctx context.Context, body map[string]interface{}) (*domain.Entry, error)
}

type debtService struct {
	repo     repository.DebtRepository
	notifier notification.EventNotifier
	now      func() time.Time
}

func NewDebtService(repo repository.DebtRepository, notifier notification.EventNotifier) DebtService {
	return &debtService{repo: repo, notifier: notifier, now: time.Now}
}

func (s *debtService) List(ctx context.Context, orderQuery string) ([]domain.Entry, error) {
	entries, err := s.repo.List(ctx, domain.ParseOrderSpec(orderQuery))
	if err != nil {
		return nil, err
	}
	return domain.Sort(entries), nil
}

func (s *debtService) Create(ctx context.Context, body map[string]interface{}) (*domain.Entry, error) {
	title := payload.FirstString(body, "title", "name")
	if title == "" {
		return nil, apperr.Validation(`El campo "title" es requerido`)
	}

	amountSource, _ := payload.FirstPresent(body, "amount", "monto", "value")
	amount, ok := payload.Number(amountSource)
	if !ok || amount <= 0 {
		return nil, apperr.Validation("El monto debe ser un numero mayor que cero")
	}

	dateSource, _ := payload.FirstPresent(body, "date", "fecha", "createdAt")
	now := s.now()
	isoNow := now.UTC().Format("2006-01-02T15:04:05.000Z07:00")

	fields := map[string]interface{}{
		"title":     title,
		"amount":    amount,
		"type":      domain.NormalizeType(payload.TrimmedString(body["type"])),
		"date":      domain.NormalizeDate(dateSource, now),
		"createdAt": isoNow,
		"updatedAt": isoNow,
	}
	if notes := payload.FirstString(body, "notes", "description"); notes != "" {
		fields["notes"] = notes
	}

	created, err := s.repo.Add(ctx, fields)
	if err != nil {
		return nil, err
	}

	s.announce(ctx, created)
	return created, nil
}

func (s *debtService) announce(ctx context.Context, entry *domain.Entry) {
	body := "Se registro un abono por " + entry.Title
	if entry.Type == domain.TypeDebt {
		body = "Se registro una deuda por " + entry.Title
	}
	err := s.notifier.NotifyCreated(ctx, notification.Event{
		Title: "Nuevo movimiento de deuda",
		Body:  body,
		Data: map[string]interface{}{
			"entity": "debt",
			"id":     entry.ID,
			"amount": entry.Amount,
			"type":   entry.Type,
		},
	})
	if err != nil {
		log.Printf("[DEBTS] broadcast error: %v", err)
	}
}
