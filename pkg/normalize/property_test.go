package normalize

import (
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testNormalizer() *Normalizer {
	return New(ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {}))
}

func TestToProperty(t *testing.T) {
	n := testNormalizer()

	t.Run("coerces a full record", func(t *testing.T) {
		property, err := n.ToProperty(map[string]any{
			"detailUrl":    "/homedetails/123_zpid/",
			"price":        float64(2000),
			"bedrooms":     float64(2),
			"bathrooms":    float64(1),
			"livingArea":   float64(850),
			"latitude":     36.16,
			"longitude":    -86.78,
			"propertyType": "APARTMENT",
			"address":      "123 Main St, Nashville, TN",
		})
		require.NoError(t, err)

		assert.Equal(t, "/homedetails/123_zpid/", property.DetailURL)
		require.NotNil(t, property.Price)
		assert.Equal(t, float64(2000), *property.Price)
		require.NotNil(t, property.Address)
		assert.Equal(t, "123 Main St, Nashville, TN", *property.Address)
	})

	t.Run("missing optionals stay nil", func(t *testing.T) {
		property, err := n.ToProperty(map[string]any{"detailUrl": "/a"})
		require.NoError(t, err)

		assert.Nil(t, property.Price)
		assert.Nil(t, property.Address)
		assert.Nil(t, property.Units)
	})

	t.Run("integer prices coerce to float", func(t *testing.T) {
		property, err := n.ToProperty(map[string]any{"detailUrl": "/a", "price": 1500})
		require.NoError(t, err)
		require.NotNil(t, property.Price)
		assert.Equal(t, float64(1500), *property.Price)
	})

	t.Run("missing detail url is rejected", func(t *testing.T) {
		_, err := n.ToProperty(map[string]any{"price": float64(2000)})
		require.Error(t, err)
	})

	t.Run("empty detail url is rejected", func(t *testing.T) {
		_, err := n.ToProperty(map[string]any{"detailUrl": ""})
		require.Error(t, err)
	})

	t.Run("non-string detail url is rejected", func(t *testing.T) {
		_, err := n.ToProperty(map[string]any{"detailUrl": 12345})
		require.Error(t, err)
	})

	t.Run("wrong typed optional is rejected", func(t *testing.T) {
		_, err := n.ToProperty(map[string]any{"detailUrl": "/a", "price": "cheap"})
		require.Error(t, err)
	})

	t.Run("units are expanded and re-attached", func(t *testing.T) {
		property, err := n.ToProperty(map[string]any{
			"detailUrl": "/a",
			"units": []any{
				map[string]any{"price": "$1,495+", "beds": float64(1)},
				map[string]any{"price": "$1,795+", "beds": float64(2), "bathrooms": float64(1)},
			},
		})
		require.NoError(t, err)

		require.Len(t, property.Units, 2)
		assert.Equal(t, "$1,495+", property.Units[0].Price)
		assert.Equal(t, float64(2), property.Units[1].Beds)
	})
}

func TestToProperties(t *testing.T) {
	n := testNormalizer()

	t.Run("keeps valid records in order and drops invalid ones", func(t *testing.T) {
		properties := n.ToProperties([]map[string]any{
			{"detailUrl": "/a"},
			{"price": float64(900)},
			{"detailUrl": "/b"},
		})

		require.Len(t, properties, 2)
		assert.Equal(t, "/a", properties[0].DetailURL)
		assert.Equal(t, "/b", properties[1].DetailURL)
	})

	t.Run("empty input yields empty output", func(t *testing.T) {
		assert.Empty(t, n.ToProperties(nil))
	})
}
