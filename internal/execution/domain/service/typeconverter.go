// Package service hosts the scheduler's pure logic: type coercion,
// reference resolution, ready-set selection, and result propagation.
package service

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/linkflow-ai/linkflow-ai/internal/execution/domain/model"
)

// typeAliases normalizes the declared parameter type names to a canonical
// set before dispatch, following the source's alias table.
var typeAliases = map[string]string{
	"integer": "int",
	"number":  "int",
	"int":     "int",
	"text":    "string",
	"str":     "string",
	"string":  "string",
	"float":   "float",
	"bool":    "boolean",
	"boolean": "boolean",
	"list":    "array",
	"array":   "array",
	"dict":    "object",
	"json":    "object",
	"object":  "object",
}

var trueStrings = map[string]bool{"true": true, "1": true, "yes": true, "on": true}
var falseStrings = map[string]bool{"false": true, "0": true, "no": true, "off": true, "": true}

// TypeConverter coerces raw resolved values into a parameter's declared type.
type TypeConverter struct{}

// Convert dispatches to the per-type coercion given a (possibly aliased)
// expected type name, returning INVALID_INPUT naming paramName on failure.
func (TypeConverter) Convert(paramName string, value any, expectedType string) (any, error) {
	canonical, ok := typeAliases[strings.ToLower(expectedType)]
	if !ok {
		return nil, model.InvalidInput(paramName, fmt.Sprintf(
			"unknown type %q; expected one of string, int, float, boolean, array, object", expectedType))
	}

	switch canonical {
	case "string":
		return toString(paramName, value)
	case "int":
		return toInteger(paramName, value)
	case "float":
		return toFloat(paramName, value)
	case "boolean":
		return toBoolean(paramName, value)
	case "array":
		return toArray(paramName, value)
	case "object":
		return toObject(paramName, value)
	default:
		return nil, model.InvalidInput(paramName, fmt.Sprintf("unsupported type %q", expectedType))
	}
}

func toString(paramName string, value any) (string, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case nil:
		return "", model.InvalidInput(paramName, "value is required")
	default:
		return fmt.Sprintf("%v", v), nil
	}
}

func toInteger(paramName string, value any) (int64, error) {
	switch v := value.(type) {
	case int:
		return int64(v), nil
	case int64:
		return v, nil
	case float64:
		return int64(v), nil
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return 0, model.InvalidInput(paramName, fmt.Sprintf("%q is not a valid integer", v))
		}
		return n, nil
	default:
		return 0, model.InvalidInput(paramName, fmt.Sprintf("cannot convert %T to integer", value))
	}
}

func toFloat(paramName string, value any) (float64, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, model.InvalidInput(paramName, fmt.Sprintf("%q is not a valid float", v))
		}
		return f, nil
	default:
		return 0, model.InvalidInput(paramName, fmt.Sprintf("cannot convert %T to float", value))
	}
}

func toBoolean(paramName string, value any) (bool, error) {
	switch v := value.(type) {
	case bool:
		return v, nil
	case string:
		normalized := strings.ToLower(strings.TrimSpace(v))
		if trueStrings[normalized] {
			return true, nil
		}
		if falseStrings[normalized] {
			return false, nil
		}
		return false, model.InvalidInput(paramName, fmt.Sprintf("%q is not a valid boolean", v))
	default:
		return false, model.InvalidInput(paramName, fmt.Sprintf("cannot convert %T to boolean", value))
	}
}

func toArray(paramName string, value any) ([]any, error) {
	switch v := value.(type) {
	case []any:
		return v, nil
	case string:
		var arr []any
		if err := json.Unmarshal([]byte(v), &arr); err != nil {
			return nil, model.InvalidInput(paramName, "value is not a JSON array")
		}
		return arr, nil
	default:
		return nil, model.InvalidInput(paramName, fmt.Sprintf("cannot convert %T to array", value))
	}
}

func toObject(paramName string, value any) (map[string]any, error) {
	switch v := value.(type) {
	case map[string]any:
		return v, nil
	case string:
		var obj map[string]any
		if err := json.Unmarshal([]byte(v), &obj); err != nil {
			return nil, model.InvalidInput(paramName, "value is not a JSON object")
		}
		return obj, nil
	default:
		return nil, model.InvalidInput(paramName, fmt.Sprintf("cannot convert %T to object", value))
	}
}
