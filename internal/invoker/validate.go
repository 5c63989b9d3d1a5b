package invoker

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"sort"

	"github.com/giantswarm/lantern/internal/api"
)

// Validate checks args against the parameters of op. Every problem is
// reported in one ValidationError.
func Validate(op api.Operation, args map[string]any) error {
	var problems []string

	var unknown []string
	for name := range args {
		if _, ok := op.Parameter(name); !ok {
			unknown = append(unknown, name)
		}
	}
	sort.Strings(unknown)
	for _, name := range unknown {
		problems = append(problems, fmt.Sprintf("unknown parameter %q", name))
	}

	for _, name := range op.RequiredParameters() {
		if _, ok := args[name]; !ok {
			problems = append(problems, fmt.Sprintf("missing required parameter %q", name))
		}
	}

	for _, p := range op.Parameters {
		value, ok := args[p.Name]
		if !ok {
			continue
		}
		if !matchesType(p.Type, value) {
			problems = append(problems, fmt.Sprintf("parameter %q must be %s, got %s", p.Name, p.Type, describe(value)))
		}
	}

	if len(problems) > 0 {
		return &api.ValidationError{Server: op.Server, Operation: op.Name, Problems: problems}
	}
	return nil
}

// matchesType reports whether value is acceptable for a declared JSON
// schema type. Unknown types accept anything.
func matchesType(typ string, value any) bool {
	switch typ {
	case "string":
		_, ok := value.(string)
		return ok
	case "boolean":
		_, ok := value.(bool)
		return ok
	case "number":
		_, ok := number(value)
		return ok
	case "integer":
		f, ok := number(value)
		return ok && f == math.Trunc(f)
	case "object":
		return value != nil && reflect.TypeOf(value).Kind() == reflect.Map
	case "array":
		if value == nil {
			return false
		}
		kind := reflect.TypeOf(value).Kind()
		return kind == reflect.Slice || kind == reflect.Array
	case "null":
		return value == nil
	default:
		return true
	}
}

func number(value any) (float64, bool) {
	switch v := value.(type) {
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case nil, bool, string:
		return 0, false
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	default:
		return 0, false
	}
}

func describe(value any) string {
	switch value.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "boolean"
	case json.Number:
		return "number"
	}
	switch reflect.TypeOf(value).Kind() {
	case reflect.Map:
		return "object"
	case reflect.Slice, reflect.Array:
		return "array"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return "number"
	default:
		return fmt.Sprintf("%T", value)
	}
}
