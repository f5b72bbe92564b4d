package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string     { return &s }
func floatPtr(f float64) *float64 { return &f }

func TestSanitizeFullWriteFillsDefaults(t *testing.T) {
	fields, err := Sanitize(map[string]interface{}{"name": " Leche "}, false)
	require.NoError(t, err)

	assert.Equal(t, "Leche", fields["name"])
	assert.Equal(t, DefaultQuantity, fields["quantity"])
	assert.Equal(t, DefaultUnit, fields["unit"])
	assert.Equal(t, DefaultPriority, fields["priority"])
	assert.Equal(t, DefaultRecurring, fields["recurring"])
	assert.Equal(t, false, fields["checked"])
	assert.Nil(t, fields["category"])
	assert.Nil(t, fields["price"])
	assert.Equal(t, []string{}, fields["tags"])
}

func TestSanitizeRejectsBadFields(t *testing.T) {
	_, err := Sanitize(map[string]interface{}{
		"name":     "",
		"quantity": -1,
		"priority": 5,
	}, false)
	require.Error(t, err)
	assert.EqualError(t, err, "Campos invalidos: name, quantity, priority")
}

func TestSanitizeRejectsFractionalPriority(t *testing.T) {
	_, err := Sanitize(map[string]interface{}{"name": "pan", "priority": 1.5}, false)
	require.Error(t, err)
	assert.EqualError(t, err, "Campos invalidos: priority")
}

func TestSanitizeRoundsMoneyValues(t *testing.T) {
	fields, err := Sanitize(map[string]interface{}{
		"name":     "pan",
		"quantity": 1.005,
		"price":    "12.349",
	}, false)
	require.NoError(t, err)
	assert.Equal(t, 1.0, fields["quantity"])
	assert.Equal(t, 12.35, fields["price"])
}

func TestSanitizeEmptyPriceClears(t *testing.T) {
	fields, err := Sanitize(map[string]interface{}{"name": "pan", "price": ""}, false)
	require.NoError(t, err)
	assert.Nil(t, fields["price"])
}

func TestSanitizePartialTouchesOnlySentKeys(t *testing.T) {
	fields, err := Sanitize(map[string]interface{}{"checked": true}, true)
	require.NoError(t, err)

	assert.Equal(t, map[string]interface{}{"checked": true}, fields)
}

func TestSanitizePartialNullClearsNullable(t *testing.T) {
	fields, err := Sanitize(map[string]interface{}{"category": nil}, true)
	require.NoError(t, err)

	value, sent := fields["category"]
	assert.True(t, sent)
	assert.Nil(t, value)
}

func TestSanitizeTagsFromString(t *testing.T) {
	fields, err := Sanitize(map[string]interface{}{
		"name": "pan",
		"tags": "lacteos, basicos,lacteos, ",
	}, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"lacteos", "basicos"}, fields["tags"])
}

func TestSanitizeTagsFromArray(t *testing.T) {
	fields, err := Sanitize(map[string]interface{}{
		"name": "pan",
		"tags": []interface{}{" oferta ", "oferta", "semanal"},
	}, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"oferta", "semanal"}, fields["tags"])
}

func TestSanitizeTagsRejectsObjects(t *testing.T) {
	_, err := Sanitize(map[string]interface{}{
		"name": "pan",
		"tags": map[string]interface{}{"a": 1},
	}, false)
	require.Error(t, err)
	assert.EqualError(t, err, "Campos invalidos: tags")
}

func TestSortUncheckedFirstThenPriority(t *testing.T) {
	items := []Item{
		{ID: "done", Name: "a", Priority: 1, Checked: true},
		{ID: "low", Name: "b", Priority: 3},
		{ID: "high", Name: "c", Priority: 1},
		{ID: "alpha", Name: "B", Priority: 3},
	}

	sorted := Sort(items)
	assert.Equal(t, "high", sorted[0].ID)
	assert.Equal(t, "low", sorted[1].ID, "name compares case-insensitively, stable for ties")
	assert.Equal(t, "alpha", sorted[2].ID)
	assert.Equal(t, "done", sorted[3].ID)
}

func TestComputeStats(t *testing.T) {
	items := []Item{
		{Name: "a", Quantity: 2, Price: floatPtr(10.5)},
		{Name: "b", Quantity: 1, Checked: true},
		{Name: "c", Quantity: 3, Price: floatPtr(1.333), Checked: true},
	}

	stats := ComputeStats(items)
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 2, stats.Checked)
	assert.Equal(t, 1, stats.Pending)
	assert.Equal(t, 25.0, stats.EstimatedTotal)
}

func TestFilterByCheckedAndCategory(t *testing.T) {
	items := []Item{
		{ID: "1", Name: "leche", Category: strPtr("Lacteos")},
		{ID: "2", Name: "pan", Category: strPtr("panaderia"), Checked: true},
		{ID: "3", Name: "queso", Category: strPtr("lacteos"), Checked: true},
	}

	filtered := Filter{Checked: "true", Category: "LACTEOS"}.Apply(items)
	require.Len(t, filtered, 1)
	assert.Equal(t, "3", filtered[0].ID)
}

func TestFilterSearchSpansTextFields(t *testing.T) {
	items := []Item{
		{ID: "1", Name: "leche"},
		{ID: "2", Name: "pan", Notes: strPtr("de la tienda Soriana")},
		{ID: "3", Name: "jugo", Store: strPtr("soriana")},
	}

	filtered := Filter{Search: "soriana"}.Apply(items)
	require.Len(t, filtered, 2)
	assert.Equal(t, "2", filtered[0].ID)
	assert.Equal(t, "3", filtered[1].ID)
}
