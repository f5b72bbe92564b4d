package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeType(t *testing.T) {
	assert.Equal(t, TypeDebt, NormalizeType("deuda"))
	assert.Equal(t, TypeDebt, NormalizeType(" Prestamo "))
	assert.Equal(t, TypeDebt, NormalizeType("loan"))
	assert.Equal(t, TypePayment, NormalizeType("ABONO"))
	assert.Equal(t, TypePayment, NormalizeType("pago"))
	assert.Equal(t, TypePayment, NormalizeType("payment"))
	assert.Equal(t, TypeDebt, NormalizeType(""), "unknown values count as debt")
	assert.Equal(t, TypeDebt, NormalizeType("transferencia"))
}

func TestNormalizeDate(t *testing.T) {
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, "2026-03-01T08:30:00.000Z", NormalizeDate("2026-03-01T08:30:00Z", now))
	assert.Equal(t, "2026-03-01T00:00:00.000Z", NormalizeDate("2026-03-01", now))
	assert.Equal(t, "2026-08-29T12:00:00.000Z", NormalizeDate("", now))
	assert.Equal(t, "2026-08-29T12:00:00.000Z", NormalizeDate("no es fecha", now))
	assert.Equal(t, "2026-08-29T12:00:00.000Z", NormalizeDate(nil, now))

	millis := float64(time.Date(2026, 5, 1, 6, 0, 0, 0, time.UTC).UnixMilli())
	assert.Equal(t, "2026-05-01T06:00:00.000Z", NormalizeDate(millis, now))

	assert.Equal(t, "2026-07-15T09:00:00.000Z",
		NormalizeDate(time.Date(2026, 7, 15, 9, 0, 0, 0, time.UTC), now))
}

func TestParseOrderSpec(t *testing.T) {
	assert.Equal(t, OrderSpec{Field: "date", Direction: "desc"}, ParseOrderSpec(""))
	assert.Equal(t, OrderSpec{Field: "date", Direction: "desc"}, ParseOrderSpec("-date"))
	assert.Equal(t, OrderSpec{Field: "amount", Direction: "asc"}, ParseOrderSpec("+amount"))
	assert.Equal(t, OrderSpec{Field: "createdAt", Direction: "asc"}, ParseOrderSpec("createdAt"))
	assert.Equal(t, OrderSpec{Field: "date", Direction: "desc"}, ParseOrderSpec("-saldo"),
		"unknown fields fall back to date")
}

func TestSortNewestFirst(t *testing.T) {
	entries := []Entry{
		{ID: "old", Date: "2026-01-01T00:00:00.000Z"},
		{ID: "new", Date: "2026-06-01T00:00:00.000Z"},
		{ID: "mid", Date: "2026-03-01T00:00:00.000Z"},
	}

	sorted := Sort(entries)
	assert.Equal(t, "new", sorted[0].ID)
	assert.Equal(t, "mid", sorted[1].ID)
	assert.Equal(t, "old", sorted[2].ID)
}

func TestSortFallsBackToCreatedAt(t *testing.T) {
	date := "2026-04-01T00:00:00.000Z"
	entries := []Entry{
		{ID: "a", Date: date, CreatedAt: "2026-04-01T10:00:00.000Z"},
		{ID: "b", Date: date, CreatedAt: "2026-04-01T12:00:00.000Z"},
	}

	sorted := Sort(entries)
	assert.Equal(t, "b", sorted[0].ID)
	assert.Equal(t, "a", sorted[1].ID)
}

func TestSortKeepsOrderWhenNothingComparable(t *testing.T) {
	entries := []Entry{
		{ID: "first"},
		{ID: "second", CreatedAt: "2026-04-01T12:00:00.000Z"},
	}

	sorted := Sort(entries)
	assert.Equal(t, "first", sorted[0].ID, "entries missing both stamps keep arrival order")
}
