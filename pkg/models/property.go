package models

// Unit is one sub-record of a multi-unit listing. The upstream reports
// these fields in inconsistent shapes ("$1,495+", 1495, "2") so they are
// carried through untyped and stored as JSON.
type Unit struct {
	Price     any `json:"price,omitempty"`
	Beds      any `json:"beds,omitempty"`
	Bathrooms any `json:"bathrooms,omitempty"`
}

// Property is a validated listing record. The detail URL is the natural
// key and the only required field; everything else is independently
// nullable.
type Property struct {
	DetailURL    string   `json:"detailUrl" validate:"required"`
	Longitude    *float64 `json:"longitude"`
	Latitude     *float64 `json:"latitude"`
	Address      *string  `json:"address"`
	Price        *float64 `json:"price"`
	Bedrooms     *float64 `json:"bedrooms"`
	Bathrooms    *float64 `json:"bathrooms"`
	LivingArea   *float64 `json:"livingArea"`
	PropertyType *string  `json:"propertyType"`
	Units        []Unit   `json:"units,omitempty"`
}
