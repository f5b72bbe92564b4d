package repository

import (
	"context"
	"fmt"
	"log"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"pendientes-backend/internal/debt/domain"
	"pendientes-backend/pkg/database"
	"pendientes-backend/pkg/payload"
)

// DebtRepository reads the ledger across the candidate collections left by
// older app versions and writes to the primary one.
type DebtRepository interface {
	List(ctx context.Context, spec domain.OrderSpec) ([]domain.Entry, error)
	Add(ctx context.Context, fields map[string]interface{}) (*domain.Entry, error)
}

type debtRepository struct {
	db         *database.Database
	primary    string
	candidates []string
}

// NewDebtRepository creates a Firestore-backed ledger. The first candidate is
// the write target.
func NewDebtRepository(db *database.Database, candidates []string) DebtRepository {
	primary := "Debts"
	if len(candidates) > 0 {
		primary = candidates[0]
	}
	return &debtRepository{db: db, primary: primary, candidates: candidates}
}

// List tries each candidate collection until one read succeeds. Ordered
// queries degrade to unordered scans when the index is missing.
func (r *debtRepository) List(ctx context.Context, spec domain.OrderSpec) ([]domain.Entry, error) {
	var lastErr error
	for _, collection := range r.candidates {
		col := r.db.Collection(collection)
		direction := firestore.Asc
		if spec.Direction == "desc" {
			direction = firestore.Desc
		}
		snaps, err := col.OrderBy(spec.Field, direction).Documents(ctx).GetAll()
		if status.Code(err) == codes.FailedPrecondition {
			snaps, err = col.Documents(ctx).GetAll()
		}
		if err != nil {
			lastErr = err
			log.Printf("[DEBTS] read error on %s: %v", collection, err)
			continue
		}
		entries := make([]domain.Entry, 0, len(snaps))
		for _, snap := range snaps {
			entries = append(entries, mapEntry(snap))
		}
		return entries, nil
	}
	if lastErr != nil {
		return nil, fmt.Errorf("failed to read debt ledger: %w", lastErr)
	}
	return []domain.Entry{}, nil
}

func (r *debtRepository) Add(ctx context.Context, fields map[string]interface{}) (*domain.Entry, error) {
	ref, _, err := r.db.Collection(r.primary).Add(ctx, fields)
	if err != nil {
		return nil, fmt.Errorf("failed to create debt entry: %w", err)
	}
	snap, err := ref.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to reload debt entry %s: %w", ref.ID, err)
	}
	entry := mapEntry(snap)
	return &entry, nil
}

// mapEntry tolerates the field aliases accumulated across app versions.
func mapEntry(snap *firestore.DocumentSnapshot) domain.Entry {
	data := snap.Data()

	title := payload.FirstString(data, "title", "name")
	amountSource, _ := payload.FirstPresent(data, "amount", "monto", "value")
	amount, ok := payload.Number(amountSource)
	if !ok {
		amount = 0
	}
	dateSource, _ := payload.FirstPresent(data, "date", "fecha", "createdAt")

	entry := domain.Entry{
		ID:        snap.Ref.ID,
		Title:     title,
		Amount:    amount,
		Type:      domain.NormalizeType(payload.TrimmedString(data["type"])),
		Date:      domain.NormalizeDate(dateSource, time.Now()),
		CreatedAt: isoOrNil(data["createdAt"]),
		UpdatedAt: isoOrNil(data["updatedAt"]),
	}
	if notes, isString := data["notes"].(string); isString {
		entry.Notes = notes
	}
	return entry
}

func isoOrNil(value interface{}) interface{} {
	switch v := value.(type) {
	case string:
		if v == "" {
			return nil
		}
		return v
	case time.Time:
		return v.UTC().Format("2006-01-02T15:04:05.000Z07:00")
	}
	return nil
}
