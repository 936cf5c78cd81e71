package device

import (
	"fmt"
	"math"
	"reflect"
	"strconv"

	"github.com/mitchellh/mapstructure"
)

// immutableFields are never taken from caller input.
var immutableFields = []string{"id", "_id", "ownerId", "createdAt", "updatedAt"}

// decodeFields copies coerced values onto target by their JSON names.
// Keys without a matching field are ignored. Fields absent from input keep
// their current contents.
func decodeFields(input any, target any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		DecodeHook:       scalarHook,
		Result:           target,
	})
	if err != nil {
		return fmt.Errorf("building decoder: %w", err)
	}

	if err := dec.Decode(input); err != nil {
		return fmt.Errorf("%w: %w", ErrBadRequest, err)
	}
	return nil
}

// scalarHook keeps text fields readable when the coercer produced a number
// or boolean ("2024" stays "2024", "true" stays "true") and rejects
// fractional values for integer fields.
func scalarHook(_ reflect.Type, to reflect.Type, data any) (any, error) {
	switch v := data.(type) {
	case bool:
		if to.Kind() == reflect.String {
			return strconv.FormatBool(v), nil
		}
	case float64:
		switch to.Kind() {
		case reflect.String:
			return strconv.FormatFloat(v, 'f', -1, 64), nil
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			if v != math.Trunc(v) {
				return nil, fmt.Errorf("expected a whole number, got %v", v)
			}
		}
	}
	return data, nil
}

// withoutKeys returns a shallow copy of values without the given keys.
func withoutKeys(values map[string]any, keys ...string) map[string]any {
	out := make(map[string]any, len(values))
	for k, v := range values {
		out[k] = v
	}
	for _, k := range keys {
		delete(out, k)
	}
	return out
}

// takeImageDimensions removes "imageDimensions" from values and decodes it.
func takeImageDimensions(values map[string]any) ([]ImageDimensions, error) {
	raw, ok := values["imageDimensions"]
	delete(values, "imageDimensions")
	if !ok || raw == nil {
		return nil, nil
	}

	switch raw.(type) {
	case []any, map[string]any:
	default:
		return nil, fmt.Errorf("%w: imageDimensions must be a JSON array", ErrBadRequest)
	}

	var dims []ImageDimensions
	if err := decodeFields(raw, &dims); err != nil {
		return nil, fmt.Errorf("imageDimensions: %w", err)
	}
	return dims, nil
}
