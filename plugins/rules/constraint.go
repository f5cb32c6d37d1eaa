package rules

import (
	"encoding/json"
	"fmt"
	"regexp"

	"github.com/shopspring/decimal"
)

// Satisfies reports whether a lifted document satisfies a constraint. A
// constraint maps field names to specifications; every field specification
// must hold for the constraint to hold. Fields not named by the constraint
// are always allowed.
//
// Supported specification keys:
//
//	required: true      the field must be present
//	forbidden: true     the field must be absent
//	allowed: [...]      the value must be one of the listed values
//	regex: "..."        the value's string form must match the regex
//	type: "..."         string, number, boolean, date, list, or dict
//	min: n / max: n     numeric bounds, inclusive
//	schema: {...}       nested constraint applied to a dict value
//
// A malformed specification fails the constraint rather than panicking.
func Satisfies(constraint map[string]any, doc map[string]any) bool {
	for field, rawSpec := range constraint {
		spec, ok := rawSpec.(map[string]any)
		if !ok {
			return false
		}

		value, present := doc[field]
		if !fieldSatisfies(spec, value, present) {
			return false
		}
	}
	return true
}

func fieldSatisfies(spec map[string]any, value any, present bool) bool {
	if isTrue(spec["required"]) && !present {
		return false
	}
	if isTrue(spec["forbidden"]) && present {
		return false
	}
	if !present {
		return true
	}

	if allowed, ok := spec["allowed"].([]any); ok {
		if !valueIn(value, allowed) {
			return false
		}
	}

	if pattern, ok := spec["regex"].(string); ok {
		re, err := regexp.Compile(pattern)
		if err != nil || !re.MatchString(stringForm(value)) {
			return false
		}
	}

	if typeName, ok := spec["type"].(string); ok {
		if !hasType(value, typeName) {
			return false
		}
	}

	if minValue, ok := spec["min"]; ok {
		v, vok := toDecimal(value)
		m, mok := toDecimal(minValue)
		if !vok || !mok || v.LessThan(m) {
			return false
		}
	}
	if maxValue, ok := spec["max"]; ok {
		v, vok := toDecimal(value)
		m, mok := toDecimal(maxValue)
		if !vok || !mok || v.GreaterThan(m) {
			return false
		}
	}

	if nested, ok := spec["schema"].(map[string]any); ok {
		child, ok := value.(map[string]any)
		if !ok || !Satisfies(nested, child) {
			return false
		}
	}

	return true
}

func isTrue(value any) bool {
	b, ok := value.(bool)
	return ok && b
}

var datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

func hasType(value any, typeName string) bool {
	switch typeName {
	case "string":
		_, ok := value.(string)
		return ok
	case "number":
		_, ok := toDecimal(value)
		return ok
	case "boolean":
		_, ok := value.(bool)
		return ok
	case "date":
		s, ok := value.(string)
		return ok && datePattern.MatchString(s)
	case "list":
		_, ok := value.([]any)
		return ok
	case "dict":
		_, ok := value.(map[string]any)
		return ok
	default:
		return false
	}
}

func valueIn(value any, allowed []any) bool {
	for _, candidate := range allowed {
		if valueEqual(value, candidate) {
			return true
		}
	}
	return false
}

// valueEqual compares a lifted value with a value from the rules file.
// Numbers compare numerically so "10.00" matches 10.
func valueEqual(a, b any) bool {
	if da, ok := toDecimal(a); ok {
		if db, ok := toDecimal(b); ok {
			return da.Equal(db)
		}
		return false
	}
	return stringForm(a) == stringForm(b)
}

func toDecimal(value any) (decimal.Decimal, bool) {
	switch v := value.(type) {
	case json.Number:
		d, err := decimal.NewFromString(v.String())
		return d, err == nil
	case int:
		return decimal.NewFromInt(int64(v)), true
	case int64:
		return decimal.NewFromInt(v), true
	case float64:
		return decimal.NewFromFloat(v), true
	default:
		return decimal.Decimal{}, false
	}
}

func stringForm(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	default:
		return fmt.Sprintf("%v", value)
	}
}
