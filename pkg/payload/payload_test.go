package payload

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUnwrapPeelsDataEnvelope(t *testing.T) {
	inner := map[string]interface{}{"title": "x"}

	assert.Equal(t, inner, Unwrap(map[string]interface{}{"data": inner}))
	assert.Equal(t, inner, Unwrap(inner), "bare bodies pass through")
	assert.Nil(t, Unwrap(nil))
}

func TestUnwrapAnyKeepsArrays(t *testing.T) {
	list := []interface{}{"a", "b"}

	assert.Equal(t, list, UnwrapAny(map[string]interface{}{"data": list}))
	assert.Equal(t, list, UnwrapAny(list))
}

func TestTrimmedString(t *testing.T) {
	assert.Equal(t, "hola", TrimmedString("  hola  "))
	assert.Equal(t, "3", TrimmedString(float64(3)))
	assert.Equal(t, "3.5", TrimmedString(3.5))
	assert.Equal(t, "true", TrimmedString(true))
	assert.Equal(t, "", TrimmedString(nil))
	assert.Equal(t, "", TrimmedString([]interface{}{"a"}))
}

func TestFirstStringFollowsAliases(t *testing.T) {
	body := map[string]interface{}{"nombre": " Casa ", "name": ""}

	assert.Equal(t, "Casa", FirstString(body, "title", "name", "nombre"))
	assert.Equal(t, "", FirstString(body, "title"))
}

func TestNumberCoercions(t *testing.T) {
	value, ok := Number(" 12.5 ")
	assert.True(t, ok)
	assert.Equal(t, 12.5, value)

	value, ok = Number(float64(7))
	assert.True(t, ok)
	assert.Equal(t, 7.0, value)

	_, ok = Number("doce")
	assert.False(t, ok)
	_, ok = Number(nil)
	assert.False(t, ok)
	_, ok = Number("")
	assert.False(t, ok)
}

func TestBoolTruthyForms(t *testing.T) {
	for _, truthy := range []interface{}{true, "true", "1", "si", "sí", "checked", float64(1)} {
		value, ok := Bool(truthy)
		assert.True(t, ok, "%v should be recognized", truthy)
		assert.True(t, value, "%v should be truthy", truthy)
	}
	for _, falsy := range []interface{}{false, "false", "0", "no", "unchecked", float64(0)} {
		value, ok := Bool(falsy)
		assert.True(t, ok, "%v should be recognized", falsy)
		assert.False(t, value, "%v should be falsy", falsy)
	}
	_, ok := Bool("tal vez")
	assert.False(t, ok)
}

func TestNullableString(t *testing.T) {
	body := map[string]interface{}{
		"category": " Lacteos ",
		"store":    nil,
		"notes":    "   ",
	}

	value, null, sent := NullableString(body, "category")
	assert.True(t, sent)
	assert.False(t, null)
	assert.Equal(t, "Lacteos", value)

	_, null, sent = NullableString(body, "store")
	assert.True(t, sent)
	assert.True(t, null, "explicit null clears the field")

	_, null, sent = NullableString(body, "notes")
	assert.True(t, sent)
	assert.True(t, null, "blank strings clear like null")

	_, _, sent = NullableString(body, "price")
	assert.False(t, sent)
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 12.35, Round2(12.349))
	assert.Equal(t, 0.1, Round2(0.1))
	assert.Equal(t, -2.68, Round2(-2.676))
}
