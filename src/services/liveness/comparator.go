package liveness

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"

	"curationsapi/src/domain/entities"
	"curationsapi/src/infra/catalog"
)

// IsLive reports whether the observed catalog record already reflects the curation.
// A nil record (lookup failed, entity or nested location missing) is never live.
func IsLive(curation entities.Curation, observed catalog.Record) bool {
	if observed == nil {
		return false
	}

	if curation.CreateNew {
		return matchesAllFields(curation.PropertyValue, observed)
	}

	return matchesProperty(curation, observed)
}

// matchesAllFields compares every key of the submitted object; a missing key fails the whole check.
func matchesAllFields(rawValue *string, observed catalog.Record) bool {
	if rawValue == nil {
		return false
	}

	expected, err := DecodeObject(*rawValue)
	if err != nil {
		return false
	}

	for key, want := range expected {
		got, ok := observed[key]
		if !ok || !jsonEqual(got, want) {
			return false
		}
	}

	return true
}

// matchesProperty compares the stringified observed value with the requested text.
// Absent and null observed values only match a null request; "" only matches "".
func matchesProperty(curation entities.Curation, observed catalog.Record) bool {
	current, present := observed[curation.PropertyName()]
	if !present || current == nil {
		return curation.PropertyValue == nil
	}

	if curation.PropertyValue == nil {
		return false
	}

	return Stringify(current) == *curation.PropertyValue
}

// Stringify renders a decoded JSON value the way requested values are submitted:
// booleans as "true"/"false", strings verbatim, numbers as written by the catalog and
// objects or arrays as compact JSON.
func Stringify(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case bool:
		if v {
			return "true"
		}
		return "false"
	case string:
		return v
	case json.Number:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case map[string]any, []any, catalog.Record:
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(data)
	default:
		return fmt.Sprint(v)
	}
}

// DecodeObject parses a create-new payload. Numbers are kept as json.Number.
func DecodeObject(raw string) (map[string]any, error) {
	decoder := json.NewDecoder(bytes.NewReader([]byte(raw)))
	decoder.UseNumber()

	var object map[string]any
	if err := decoder.Decode(&object); err != nil {
		return nil, err
	}
	if object == nil {
		return nil, fmt.Errorf("expected a JSON object, got null")
	}

	return object, nil
}

func jsonEqual(a any, b any) bool {
	return reflect.DeepEqual(normalize(a), normalize(b))
}

// normalize makes 1 and 1.0 equal, like the catalog's own JSON semantics.
func normalize(value any) any {
	switch v := value.(type) {
	case json.Number:
		if f, err := v.Float64(); err == nil {
			return f
		}
		return v.String()
	case catalog.Record:
		return normalize(map[string]any(v))
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, item := range v {
			out[key] = normalize(item)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = normalize(item)
		}
		return out
	default:
		return v
	}
}
