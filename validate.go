package valmap

import (
	"fmt"
	"math"
	"math/big"
	"regexp"
	"strconv"
	"strings"
)

// defRules maps a constraint kind to the checks its parameters must pass.
// Kinds without an entry (custom kinds created with Generic) only get the common checks.
var defRules = map[string]func(d Def, path string) []FieldError{
	KindSize:       validateBounds,
	KindLength:     validateBounds,
	KindRange:      validateBounds,
	KindMin:        validateValue,
	KindMax:        validateValue,
	KindDecimalMin: validateDecimal,
	KindDecimalMax: validateDecimal,
	KindDigits:     validateDigits,
	KindPattern:    validatePattern,
}

// validateDef checks a definition before it is attached to a location.
// Returns a slice of FieldError for every invalid parameter.
func validateDef(d Def, path string) []FieldError {
	var errors []FieldError

	if strings.TrimSpace(d.kind) == "" {
		return append(errors, defError(path, "constraint kind is empty"))
	}

	if v, ok := d.params[ParamMessage]; ok {
		if _, isString := v.(string); !isString {
			errors = append(errors, defError(path, fmt.Sprintf("%s: message must be a string, got %T", d.kind, v)))
		}
	}

	if v, ok := d.params[ParamGroups]; ok {
		switch v.(type) {
		case []Group, []string:
		default:
			errors = append(errors, defError(path, fmt.Sprintf("%s: groups must be a list of names, got %T", d.kind, v)))
		}
	}

	if rule, ok := defRules[d.kind]; ok {
		errors = append(errors, rule(d, path)...)
	}

	return errors
}

// validateBounds validates min/max parameters: both optional integers, min >= 0 for sizes, min <= max.
func validateBounds(d Def, path string) []FieldError {
	var errors []FieldError

	minVal, hasMin, err := intParam(d, "min")
	if err != nil {
		errors = append(errors, defError(path, err.Error()))
	}
	maxVal, hasMax, err := intParam(d, "max")
	if err != nil {
		errors = append(errors, defError(path, err.Error()))
	}
	if len(errors) > 0 {
		return errors
	}

	if d.kind != KindRange {
		if hasMin && minVal < 0 {
			errors = append(errors, defError(path, fmt.Sprintf("%s: min %d is negative", d.kind, minVal)))
		}
		if hasMax && maxVal < 0 {
			errors = append(errors, defError(path, fmt.Sprintf("%s: max %d is negative", d.kind, maxVal)))
		}
	}

	if hasMin && hasMax && minVal > maxVal {
		errors = append(errors, defError(path, fmt.Sprintf("%s: min %d exceeds max %d", d.kind, minVal, maxVal)))
	}

	return errors
}

// validateValue validates the required integer "value" parameter of Min and Max.
func validateValue(d Def, path string) []FieldError {
	_, ok, err := intParam(d, "value")
	if err != nil {
		return []FieldError{defError(path, err.Error())}
	}
	if !ok {
		return []FieldError{defError(path, fmt.Sprintf("%s: value is required", d.kind))}
	}
	return nil
}

// validateDecimal validates the decimal string "value" of DecimalMin and DecimalMax.
func validateDecimal(d Def, path string) []FieldError {
	var errors []FieldError

	v, ok := d.params["value"]
	if !ok {
		return []FieldError{defError(path, fmt.Sprintf("%s: value is required", d.kind))}
	}

	s := fmt.Sprint(v)
	if _, ok := new(big.Float).SetString(s); !ok {
		errors = append(errors, defError(path, fmt.Sprintf("%s: value %q is not a decimal number", d.kind, s)))
	}

	if inc, ok := d.params["inclusive"]; ok {
		if _, err := boolValue(inc); err != nil {
			errors = append(errors, defError(path, fmt.Sprintf("%s: inclusive: %v", d.kind, err)))
		}
	}

	return errors
}

// validateDigits validates the non-negative integer and fraction digit counts.
func validateDigits(d Def, path string) []FieldError {
	var errors []FieldError

	for _, name := range []string{"integer", "fraction"} {
		n, ok, err := intParam(d, name)
		switch {
		case err != nil:
			errors = append(errors, defError(path, err.Error()))
		case !ok:
			errors = append(errors, defError(path, fmt.Sprintf("%s: %s is required", d.kind, name)))
		case n < 0:
			errors = append(errors, defError(path, fmt.Sprintf("%s: %s %d is negative", d.kind, name, n)))
		}
	}

	return errors
}

// validatePattern validates that the regexp parameter compiles.
func validatePattern(d Def, path string) []FieldError {
	v, ok := d.params["regexp"]
	if !ok {
		return []FieldError{defError(path, fmt.Sprintf("%s: regexp is required", d.kind))}
	}

	expr, isString := v.(string)
	if !isString {
		return []FieldError{defError(path, fmt.Sprintf("%s: regexp must be a string, got %T", d.kind, v))}
	}

	if _, err := regexp.Compile(expr); err != nil {
		return []FieldError{defError(path, fmt.Sprintf("%s: %v", d.kind, err))}
	}
	return nil
}

// intParam reads an integer parameter. Documents decode numbers as int, int64 or float64
// depending on the format, and strings are accepted from environment-like sources.
func intParam(d Def, name string) (int64, bool, error) {
	v, ok := d.params[name]
	if !ok {
		return 0, false, nil
	}

	switch n := v.(type) {
	case int:
		return int64(n), true, nil
	case int8:
		return int64(n), true, nil
	case int16:
		return int64(n), true, nil
	case int32:
		return int64(n), true, nil
	case int64:
		return n, true, nil
	case uint:
		return unsignedParam(d, name, uint64(n))
	case uint8:
		return int64(n), true, nil
	case uint16:
		return int64(n), true, nil
	case uint32:
		return int64(n), true, nil
	case uint64:
		return unsignedParam(d, name, n)
	case uintptr:
		return unsignedParam(d, name, uint64(n))
	case float32:
		if f := float64(n); f >= math.MinInt64 && f < math.MaxInt64 && float64(int64(f)) == f {
			return int64(f), true, nil
		}
	case float64:
		if n >= math.MinInt64 && n < math.MaxInt64 && float64(int64(n)) == n {
			return int64(n), true, nil
		}
	case string:
		if i, err := strconv.ParseInt(n, 10, 64); err == nil {
			return i, true, nil
		}
	}

	return 0, true, fmt.Errorf("%s: %s must be an integer, got %v (%T)", d.kind, name, v, v)
}

func unsignedParam(d Def, name string, n uint64) (int64, bool, error) {
	if n > math.MaxInt64 {
		return 0, true, fmt.Errorf("%s: %s %d is out of range", d.kind, name, n)
	}
	return int64(n), true, nil
}

func boolValue(v any) (bool, error) {
	switch b := v.(type) {
	case bool:
		return b, nil
	case string:
		return strconv.ParseBool(b)
	default:
		return false, fmt.Errorf("expected a boolean, got %T", v)
	}
}

func defError(path, message string) FieldError {
	return FieldError{FieldPath: path, Code: ErrCodeInvalidDefinition, Message: message}
}
