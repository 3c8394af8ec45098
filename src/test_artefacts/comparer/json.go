package comparer

import (
	"encoding/json"
	"reflect"

	"github.com/google/go-cmp/cmp"
)

// JSONText compara strings que carregam JSON ignorando espaços e a ordem das chaves.
// Strings que não são JSON válido caem na comparação exata.
func JSONText() cmp.Option {
	return cmp.FilterValues(func(x, y string) bool {
		return json.Valid([]byte(x)) && json.Valid([]byte(y))
	}, cmp.Comparer(func(x, y string) bool {
		var xObj, yObj any

		if err := json.Unmarshal([]byte(x), &xObj); err != nil {
			return false
		}

		if err := json.Unmarshal([]byte(y), &yObj); err != nil {
			return false
		}

		return reflect.DeepEqual(xObj, yObj)
	}))
}
