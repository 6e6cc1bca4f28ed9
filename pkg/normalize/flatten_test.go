package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFlatten(t *testing.T) {
	t.Run("nested maps are joined with the separator", func(t *testing.T) {
		flat := Flatten(map[string]any{
			"address": map[string]any{"street": "123 Main St"},
			"price":   2000,
		}, "")

		assert.Equal(t, map[string]any{
			"address__street": "123 Main St",
			"price":           2000,
		}, flat)
	})

	t.Run("deeply nested maps flatten recursively", func(t *testing.T) {
		flat := Flatten(map[string]any{
			"a": map[string]any{"b": map[string]any{"c": 1}},
		}, "")

		assert.Equal(t, map[string]any{"a__b__c": 1}, flat)
	})

	t.Run("sequences are preserved as-is", func(t *testing.T) {
		flat := Flatten(map[string]any{
			"tags": []any{"a", "b"},
		}, "")

		assert.Equal(t, map[string]any{"tags": []any{"a", "b"}}, flat)
	})

	t.Run("sequences of maps are not descended into", func(t *testing.T) {
		units := []any{map[string]any{"price": 1495}}
		flat := Flatten(map[string]any{"units": units}, "")

		assert.Equal(t, map[string]any{"units": units}, flat)
	})

	t.Run("prefix is applied to every key", func(t *testing.T) {
		flat := Flatten(map[string]any{"x": 1}, "outer")
		assert.Equal(t, map[string]any{"outer__x": 1}, flat)
	})

	t.Run("empty input yields empty output", func(t *testing.T) {
		assert.Empty(t, Flatten(map[string]any{}, ""))
	})
}

func TestExpandUnits(t *testing.T) {
	t.Run("writes 1-based indexed keys", func(t *testing.T) {
		flat := map[string]any{}
		ExpandUnits(flat, []any{
			map[string]any{"price": 1495, "beds": 1, "bathrooms": 1},
			map[string]any{"price": 1795, "beds": 2},
		})

		assert.Equal(t, map[string]any{
			"price_1":     1495,
			"beds_1":      1,
			"bathrooms_1": 1,
			"price_2":     1795,
			"beds_2":      2,
		}, flat)
	})

	t.Run("missing fields are omitted not defaulted", func(t *testing.T) {
		flat := map[string]any{}
		ExpandUnits(flat, []any{map[string]any{"beds": 2}})

		assert.Equal(t, map[string]any{"beds_1": 2}, flat)
		assert.NotContains(t, flat, "price_1")
		assert.NotContains(t, flat, "bathrooms_1")
	})

	t.Run("non-map entries are skipped", func(t *testing.T) {
		flat := map[string]any{}
		ExpandUnits(flat, []any{"not a unit", map[string]any{"price": 900}})

		assert.Equal(t, map[string]any{"price_2": 900}, flat)
	})
}
