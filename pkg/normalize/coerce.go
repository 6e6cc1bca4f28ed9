package normalize

import (
	"fmt"
	"reflect"
)

func anyToType[T any](input any) (T, error) {
	var zero T
	if input == nil {
		return zero, nil
	}

	// Try direct type assertion first
	if result, ok := input.(T); ok {
		return result, nil
	}

	targetType := reflect.TypeOf(zero)
	if targetType == nil {
		return zero, fmt.Errorf("type mismatch: expected %T, got %T", zero, input)
	}

	inputValue := reflect.ValueOf(input)

	// Numeric conversions only (avoid surprising conversions like int -> string (rune)).
	if isNumericKind(inputValue.Kind()) && isNumericKind(targetType.Kind()) && inputValue.Type().ConvertibleTo(targetType) {
		converted := inputValue.Convert(targetType)
		if result, ok := converted.Interface().(T); ok {
			return result, nil
		}
	}

	return zero, fmt.Errorf("type mismatch: expected %T, got %T", zero, input)
}

func isNumericKind(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	default:
		return false
	}
}

// optionalField reads key from the flat record, coercing it to T. An
// absent or nil value yields nil; a present value of an incompatible
// type is an error.
func optionalField[T any](flat map[string]any, key string) (*T, error) {
	raw, ok := flat[key]
	if !ok || raw == nil {
		return nil, nil
	}
	value, err := anyToType[T](raw)
	if err != nil {
		return nil, fmt.Errorf("field %q: %w", key, err)
	}
	return &value, nil
}
