package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func floatPtr(f float64) *float64 { return &f }
func strPtr(s string) *string     { return &s }

func TestNewRental(t *testing.T) {
	date := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)

	t.Run("derives a stable id from the detail url", func(t *testing.T) {
		a := NewRental(Property{DetailURL: "/a"}, date)
		b := NewRental(Property{DetailURL: "/a"}, date)
		assert.Equal(t, a.ID, b.ID)
		assert.Len(t, a.ID, 64)
	})

	t.Run("converts price to minor units", func(t *testing.T) {
		rental := NewRental(Property{DetailURL: "/a", Price: floatPtr(2000.50)}, date)
		require.True(t, rental.Price.Valid)
		assert.Equal(t, int64(200050), rental.Price.Int64)
	})

	t.Run("nil price stays null", func(t *testing.T) {
		rental := NewRental(Property{DetailURL: "/a"}, date)
		assert.False(t, rental.Price.Valid)
		assert.False(t, rental.Address.Valid)
		assert.False(t, rental.Bedrooms.Valid)
	})

	t.Run("copies optional fields", func(t *testing.T) {
		rental := NewRental(Property{
			DetailURL:    "/a",
			Address:      strPtr("123 Main St"),
			Bedrooms:     floatPtr(2),
			PropertyType: strPtr("APARTMENT"),
		}, date)

		assert.Equal(t, "123 Main St", rental.Address.String)
		assert.Equal(t, float64(2), rental.Bedrooms.Float64)
		assert.Equal(t, "APARTMENT", rental.PropertyType.String)
		assert.Equal(t, date, rental.IngestionDate)
	})

	t.Run("units are carried as json", func(t *testing.T) {
		rental := NewRental(Property{
			DetailURL: "/a",
			Units:     []Unit{{Price: "$1,495+", Beds: float64(1)}},
		}, date)

		units := rental.Units.GetValue()
		require.Len(t, units, 1)
		assert.Equal(t, "$1,495+", units[0].Price)
	})
}

func TestToMinorUnits(t *testing.T) {
	assert.Equal(t, int64(200050), ToMinorUnits(2000.50))
	assert.Equal(t, int64(159999), ToMinorUnits(1599.99))
	assert.Equal(t, int64(100), ToMinorUnits(1.004))
	// 1.125 is exactly representable, so the half rounds away from zero.
	// 1.005 is not: it stores as 1.00499..., which rounds down.
	assert.Equal(t, int64(113), ToMinorUnits(1.125))
	assert.Equal(t, int64(100), ToMinorUnits(1.005))
	assert.Equal(t, int64(0), ToMinorUnits(0))
}

func TestToMajorUnits(t *testing.T) {
	assert.Equal(t, 2000.50, ToMajorUnits(200050))
	assert.Equal(t, 1599.99, ToMajorUnits(159999))
}

func TestDeduplicate(t *testing.T) {
	date := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)

	t.Run("last occurrence wins", func(t *testing.T) {
		first := NewRental(Property{DetailURL: "/a", Price: floatPtr(1000)}, date)
		second := NewRental(Property{DetailURL: "/a", Price: floatPtr(1200)}, date)

		deduped := Deduplicate([]Rental{first, second})
		require.Len(t, deduped, 1)
		assert.Equal(t, int64(120000), deduped[0].Price.Int64)
	})

	t.Run("no duplicates preserves length and order", func(t *testing.T) {
		rentals := []Rental{
			NewRental(Property{DetailURL: "/a"}, date),
			NewRental(Property{DetailURL: "/b"}, date),
			NewRental(Property{DetailURL: "/c"}, date),
		}

		deduped := Deduplicate(rentals)
		require.Len(t, deduped, 3)
		assert.Equal(t, "/a", deduped[0].DetailURL)
		assert.Equal(t, "/b", deduped[1].DetailURL)
		assert.Equal(t, "/c", deduped[2].DetailURL)
	})

	t.Run("duplicate keeps first-seen position", func(t *testing.T) {
		rentals := []Rental{
			NewRental(Property{DetailURL: "/a", Price: floatPtr(1)}, date),
			NewRental(Property{DetailURL: "/b"}, date),
			NewRental(Property{DetailURL: "/a", Price: floatPtr(2)}, date),
		}

		deduped := Deduplicate(rentals)
		require.Len(t, deduped, 2)
		assert.Equal(t, "/a", deduped[0].DetailURL)
		assert.Equal(t, int64(200), deduped[0].Price.Int64)
		assert.Equal(t, "/b", deduped[1].DetailURL)
	})

	t.Run("empty input yields empty output", func(t *testing.T) {
		assert.Empty(t, Deduplicate(nil))
	})
}
