package normalize

import (
	"fmt"

	"github.com/Gobusters/ectologger"
	"github.com/go-playground/validator/v10"
	"github.com/zach-wendland/bna-rentals/pkg/models"
)

// Normalizer converts raw listing records into validated properties.
type Normalizer struct {
	logger   ectologger.Logger
	validate *validator.Validate
}

func New(logger ectologger.Logger) *Normalizer {
	return &Normalizer{
		logger:   logger,
		validate: validator.New(),
	}
}

// ToProperty flattens a raw record, expands its units when present, and
// coerces the result into a Property. A record without a usable detail
// URL is invalid.
func (n *Normalizer) ToProperty(raw map[string]any) (*models.Property, error) {
	flat := Flatten(raw, "")

	var rawUnits []any
	if units, ok := flat["units"].([]any); ok && len(units) > 0 {
		rawUnits = units
		ExpandUnits(flat, rawUnits)
	}

	detailURL, err := anyToType[string](flat["detailUrl"])
	if err != nil {
		return nil, fmt.Errorf("field \"detailUrl\": %w", err)
	}

	property := &models.Property{DetailURL: detailURL}
	if property.Longitude, err = optionalField[float64](flat, "longitude"); err != nil {
		return nil, err
	}
	if property.Latitude, err = optionalField[float64](flat, "latitude"); err != nil {
		return nil, err
	}
	if property.Address, err = optionalField[string](flat, "address"); err != nil {
		return nil, err
	}
	if property.Price, err = optionalField[float64](flat, "price"); err != nil {
		return nil, err
	}
	if property.Bedrooms, err = optionalField[float64](flat, "bedrooms"); err != nil {
		return nil, err
	}
	if property.Bathrooms, err = optionalField[float64](flat, "bathrooms"); err != nil {
		return nil, err
	}
	if property.LivingArea, err = optionalField[float64](flat, "livingArea"); err != nil {
		return nil, err
	}
	if property.PropertyType, err = optionalField[string](flat, "propertyType"); err != nil {
		return nil, err
	}
	property.Units = toUnits(rawUnits)

	if err := n.validate.Struct(property); err != nil {
		return nil, fmt.Errorf("invalid property: %w", err)
	}

	return property, nil
}

// ToProperties maps ToProperty over the records, keeping only the valid
// ones in their original order. Invalid records are logged and dropped;
// they never abort the batch.
func (n *Normalizer) ToProperties(records []map[string]any) []models.Property {
	properties := make([]models.Property, 0, len(records))
	for _, record := range records {
		property, err := n.ToProperty(record)
		if err != nil {
			n.logger.WithError(err).WithField("detailUrl", record["detailUrl"]).Warn("dropping invalid listing record")
			continue
		}
		properties = append(properties, *property)
	}
	return properties
}

func toUnits(raw []any) []models.Unit {
	if len(raw) == 0 {
		return nil
	}
	units := make([]models.Unit, 0, len(raw))
	for _, item := range raw {
		record, ok := item.(map[string]any)
		if !ok {
			continue
		}
		units = append(units, models.Unit{
			Price:     record["price"],
			Beds:      record["beds"],
			Bathrooms: record["bathrooms"],
		})
	}
	return units
}
