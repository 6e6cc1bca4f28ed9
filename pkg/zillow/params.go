package zillow

import (
	"net/url"
	"strconv"
)

// SearchParams holds the query parameters for one listings search. The
// zero value of a numeric field means "not set" and is omitted from the
// query string.
type SearchParams struct {
	Location string
	Status   string
	MinPrice int
	MaxPrice int
	BedsMin  int
	BedsMax  int
	SqftMin  int
	SqftMax  int
}

// WithLocation returns a copy of the params scoped to one search area.
func (p SearchParams) WithLocation(location string) SearchParams {
	p.Location = location
	return p
}

// Query builds the request query string for the given page.
func (p SearchParams) Query(page int) url.Values {
	values := url.Values{}
	values.Set("location", p.Location)
	if p.Status != "" {
		values.Set("status", p.Status)
	}
	if p.MinPrice > 0 {
		values.Set("price_min", strconv.Itoa(p.MinPrice))
	}
	if p.MaxPrice > 0 {
		values.Set("price_max", strconv.Itoa(p.MaxPrice))
	}
	if p.BedsMin > 0 {
		values.Set("beds_min", strconv.Itoa(p.BedsMin))
	}
	if p.BedsMax > 0 {
		values.Set("beds_max", strconv.Itoa(p.BedsMax))
	}
	if p.SqftMin > 0 {
		values.Set("sqft_min", strconv.Itoa(p.SqftMin))
	}
	if p.SqftMax > 0 {
		values.Set("sqft_max", strconv.Itoa(p.SqftMax))
	}
	values.Set("page", strconv.Itoa(page))
	return values
}
