package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func orderOf(value int64) *int64 {
	return &value
}

func TestPlanRepairKeepsValidDocuments(t *testing.T) {
	items := []Orderable{
		{ID: "a", Order: orderOf(0)},
		{ID: "b", Order: orderOf(1)},
		{ID: "c", Order: orderOf(2)},
	}
	assert.Empty(t, PlanRepair(items), "a fully valid set must produce zero writes")
}

func TestPlanRepairEmptySet(t *testing.T) {
	assert.Empty(t, PlanRepair(nil))
}

func TestPlanRepairNumbersAfterHighestValid(t *testing.T) {
	items := []Orderable{
		{ID: "a", Order: orderOf(7)},
		{ID: "b", CreatedAt: "2026-01-02T00:00:00.000Z"},
		{ID: "c", CreatedAt: "2026-01-01T00:00:00.000Z"},
	}

	assignments := PlanRepair(items)
	require.Len(t, assignments, 2)
	// Oldest first, numbered from max(valid)+1.
	assert.Equal(t, Assignment{ID: "c", Order: 8}, assignments[0])
	assert.Equal(t, Assignment{ID: "b", Order: 9}, assignments[1])
}

func TestPlanRepairAllInvalidStartsAtZero(t *testing.T) {
	items := []Orderable{
		{ID: "b", CreatedAt: "2026-01-02T00:00:00.000Z"},
		{ID: "a", CreatedAt: "2026-01-01T00:00:00.000Z"},
	}

	assignments := PlanRepair(items)
	require.Len(t, assignments, 2)
	assert.Equal(t, int64(0), assignments[0].Order)
	assert.Equal(t, int64(1), assignments[1].Order)
}

func TestPlanRepairTieBreaksByID(t *testing.T) {
	created := "2026-03-01T12:00:00.000Z"
	items := []Orderable{
		{ID: "zz", CreatedAt: created},
		{ID: "aa", CreatedAt: created},
	}

	assignments := PlanRepair(items)
	require.Len(t, assignments, 2)
	assert.Equal(t, "aa", assignments[0].ID)
	assert.Equal(t, "zz", assignments[1].ID)
}

func TestPlanRepairIsDeterministic(t *testing.T) {
	items := []Orderable{
		{ID: "d", Order: orderOf(3)},
		{ID: "x", CreatedAt: "2026-01-05T00:00:00.000Z"},
		{ID: "y"},
		{ID: "z", CreatedAt: "2026-01-04T00:00:00.000Z"},
	}

	first := PlanRepair(items)
	second := PlanRepair(items)
	assert.Equal(t, first, second)
}

func TestSortByOrder(t *testing.T) {
	items := []Orderable{
		{ID: "unordered", CreatedAt: "2026-01-01T00:00:00.000Z"},
		{ID: "second", Order: orderOf(2)},
		{ID: "first", Order: orderOf(1)},
	}

	sorted := SortByOrder(items)
	require.Len(t, sorted, 3)
	assert.Equal(t, "first", sorted[0].ID)
	assert.Equal(t, "second", sorted[1].ID)
	// Missing orders sort after every numbered document.
	assert.Equal(t, "unordered", sorted[2].ID)
}

func TestHasInvalidOrder(t *testing.T) {
	assert.False(t, HasInvalidOrder([]Orderable{{ID: "a", Order: orderOf(0)}}))
	assert.True(t, HasInvalidOrder([]Orderable{{ID: "a", Order: orderOf(0)}, {ID: "b"}}))
}

func TestParseOrderValue(t *testing.T) {
	assert.Equal(t, int64(3), *ParseOrderValue(int64(3)))
	assert.Equal(t, int64(3), *ParseOrderValue(3.9), "floats truncate")
	assert.Equal(t, int64(12), *ParseOrderValue(" 12 "))
	assert.Equal(t, int64(4), *ParseOrderValue("4.5"))
	assert.Nil(t, ParseOrderValue(nil))
	assert.Nil(t, ParseOrderValue(""))
	assert.Nil(t, ParseOrderValue("abc"))
	assert.Nil(t, ParseOrderValue(true))
}

func TestComparableTimestamp(t *testing.T) {
	assert.Equal(t, "2026-01-01T00:00:00.000Z", ComparableTimestamp("2026-01-01T00:00:00.000Z"))
	stamp := time.Date(2026, 1, 1, 12, 30, 0, 0, time.UTC)
	assert.Equal(t, "2026-01-01T12:30:00.000Z", ComparableTimestamp(stamp))
	assert.Equal(t, "", ComparableTimestamp(nil))
	assert.Equal(t, "", ComparableTimestamp(42))
}

func TestComparableTimestampPreservesSubSecondOrder(t *testing.T) {
	whole := time.Date(2026, 1, 1, 12, 30, 5, 0, time.UTC)
	half := whole.Add(500 * time.Millisecond)

	// The rendered strings must compare the way the instants do.
	assert.Less(t, ComparableTimestamp(whole), ComparableTimestamp(half))
}

func TestPlanRepairFollowsCreationOrderWithinASecond(t *testing.T) {
	earlier := time.Date(2026, 1, 1, 12, 30, 5, 0, time.UTC)
	later := earlier.Add(500 * time.Millisecond)

	items := []Orderable{
		{ID: "later", CreatedAt: ComparableTimestamp(later)},
		{ID: "earlier", CreatedAt: ComparableTimestamp(earlier)},
	}

	assignments := PlanRepair(items)
	require.Len(t, assignments, 2)
	assert.Equal(t, "earlier", assignments[0].ID)
	assert.Equal(t, "later", assignments[1].ID)
}

func TestNeedsRescan(t *testing.T) {
	assert.False(t, NeedsRescan(2, 2))
	// An ordered query drops documents without the order field; any shortfall
	// against the independent total forces the full scan.
	assert.True(t, NeedsRescan(1, 2))
	assert.True(t, NeedsRescan(0, 2))
	assert.False(t, NeedsRescan(0, 0))
}

func TestNormalizeStatus(t *testing.T) {
	allowed := []string{"pendiente", "en_progreso", "detenida", "completada"}

	status, ok := NormalizeStatus("", allowed)
	assert.True(t, ok)
	assert.Equal(t, "pendiente", status)

	status, ok = NormalizeStatus("  EN_PROGRESO  ", allowed)
	assert.True(t, ok)
	assert.Equal(t, "en_progreso", status)

	_, ok = NormalizeStatus("archivada", allowed)
	assert.False(t, ok)
}
