package normalize

import "fmt"

// Separator joins nested keys in a flattened record.
const Separator = "__"

// Flatten collapses nested maps into a single-level record, joining keys
// with Separator. Sequences are preserved as-is and never descended into.
func Flatten(record map[string]any, prefix string) map[string]any {
	flat := make(map[string]any, len(record))
	flattenInto(flat, record, prefix)
	return flat
}

func flattenInto(flat map[string]any, record map[string]any, prefix string) {
	for key, value := range record {
		flatKey := key
		if prefix != "" {
			flatKey = prefix + Separator + key
		}
		if nested, ok := value.(map[string]any); ok {
			flattenInto(flat, nested, flatKey)
			continue
		}
		flat[flatKey] = value
	}
}

// ExpandUnits writes each unit's price, beds and bathrooms into the flat
// record under 1-based indexed keys (price_1, beds_1, ...). Fields a
// unit does not carry are omitted, not defaulted.
func ExpandUnits(flat map[string]any, units []any) {
	for i, raw := range units {
		unit, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		if price, ok := unit["price"]; ok {
			flat[fmt.Sprintf("price_%d", i+1)] = price
		}
		if beds, ok := unit["beds"]; ok {
			flat[fmt.Sprintf("beds_%d", i+1)] = beds
		}
		if bathrooms, ok := unit["bathrooms"]; ok {
			flat[fmt.Sprintf("bathrooms_%d", i+1)] = bathrooms
		}
	}
}
