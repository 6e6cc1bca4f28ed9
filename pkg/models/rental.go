package models

import (
	"database/sql"
	"math"
	"time"

	"github.com/zach-wendland/bna-rentals/pkg/database"
	"github.com/zach-wendland/bna-rentals/pkg/fingerprint"
)

// Rental is the stored form of a Property. The id is the fingerprint of
// the detail URL; uniqueness is still enforced on detail_url itself, so
// upserts key on the natural key and the id recomputation stays
// idempotent. Price is held in minor currency units.
type Rental struct {
	ID            string                 `db:"id" json:"id"`
	DetailURL     string                 `db:"detail_url" json:"detailUrl"`
	Longitude     sql.NullFloat64        `db:"longitude" json:"-"`
	Latitude      sql.NullFloat64        `db:"latitude" json:"-"`
	Address       sql.NullString         `db:"address" json:"-"`
	Price         sql.NullInt64          `db:"price" json:"-"`
	Bedrooms      sql.NullFloat64        `db:"bedrooms" json:"-"`
	Bathrooms     sql.NullFloat64        `db:"bathrooms" json:"-"`
	LivingArea    sql.NullFloat64        `db:"living_area" json:"-"`
	PropertyType  sql.NullString         `db:"property_type" json:"-"`
	Units         database.JSONB[[]Unit] `db:"units" json:"units,omitempty"`
	IngestionDate time.Time              `db:"ingestion_date" json:"ingestionDate"`
}

// NewRental converts a validated property into its storage record.
// Prices arrive in major currency units and are stored as minor units,
// multiplied by 100 and rounded to the nearest integer. Nil stays nil.
func NewRental(property Property, ingestionDate time.Time) Rental {
	rental := Rental{
		ID:            fingerprint.DetailURL(property.DetailURL),
		DetailURL:     property.DetailURL,
		IngestionDate: ingestionDate,
	}

	if property.Longitude != nil {
		rental.Longitude = sql.NullFloat64{Float64: *property.Longitude, Valid: true}
	}
	if property.Latitude != nil {
		rental.Latitude = sql.NullFloat64{Float64: *property.Latitude, Valid: true}
	}
	if property.Address != nil {
		rental.Address = sql.NullString{String: *property.Address, Valid: true}
	}
	if property.Price != nil {
		rental.Price = sql.NullInt64{Int64: ToMinorUnits(*property.Price), Valid: true}
	}
	if property.Bedrooms != nil {
		rental.Bedrooms = sql.NullFloat64{Float64: *property.Bedrooms, Valid: true}
	}
	if property.Bathrooms != nil {
		rental.Bathrooms = sql.NullFloat64{Float64: *property.Bathrooms, Valid: true}
	}
	if property.LivingArea != nil {
		rental.LivingArea = sql.NullFloat64{Float64: *property.LivingArea, Valid: true}
	}
	if property.PropertyType != nil {
		rental.PropertyType = sql.NullString{String: *property.PropertyType, Valid: true}
	}
	if len(property.Units) > 0 {
		rental.Units = database.NewJSONB(property.Units)
	}

	return rental
}

// ToMinorUnits converts a major-unit amount to minor units.
func ToMinorUnits(major float64) int64 {
	return int64(math.Round(major * 100))
}

// ToMajorUnits converts a stored minor-unit amount back to major units.
func ToMajorUnits(minor int64) float64 {
	return float64(minor) / 100
}

// Deduplicate keeps exactly one rental per detail URL. The last
// occurrence in input order wins; output order follows the order detail
// URLs were first seen.
func Deduplicate(rentals []Rental) []Rental {
	byURL := make(map[string]Rental, len(rentals))
	order := make([]string, 0, len(rentals))
	for _, rental := range rentals {
		if _, seen := byURL[rental.DetailURL]; !seen {
			order = append(order, rental.DetailURL)
		}
		byURL[rental.DetailURL] = rental
	}

	deduped := make([]Rental, 0, len(order))
	for _, url := range order {
		deduped = append(deduped, byURL[url])
	}
	return deduped
}
