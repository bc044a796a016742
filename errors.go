package valmap

import (
	"errors"
	"fmt"
	"strings"
)

// Error codes for invalid declarations.
const (
	ErrCodeNilType             = "nil_type"
	ErrCodeNotStruct           = "not_struct"
	ErrCodeUnknownProperty     = "unknown_property"
	ErrCodeUnknownMethod       = "unknown_method"
	ErrCodeParameterIndex      = "parameter_index"
	ErrCodeNoReturnValue       = "no_return_value"
	ErrCodeInvalidElement      = "invalid_element"
	ErrCodeInvalidDefinition   = "invalid_definition"
	ErrCodeConflictingSequence = "conflicting_sequence"
	ErrCodeInvalidTag          = "invalid_tag"
)

// ErrNilMapping is returned when a nil *ConstraintMapping is used.
var ErrNilMapping = errors.New("valmap: mapping is nil")

// ValidationError aggregates invalid constraint declarations.
type ValidationError struct {
	FieldErrors []FieldError
}

// Error formats declaration errors as a multi-line message.
func (e *ValidationError) Error() string {
	if len(e.FieldErrors) == 0 {
		return "constraint mapping invalid: no errors"
	}

	var b strings.Builder
	if len(e.FieldErrors) == 1 {
		b.WriteString("constraint mapping invalid: 1 error\n")
	} else {
		fmt.Fprintf(&b, "constraint mapping invalid: %d errors\n", len(e.FieldErrors))
	}

	for _, fe := range e.FieldErrors {
		fmt.Fprintf(&b, "  - %s: %s (%s)\n", fe.FieldPath, fe.Code, fe.Message)
	}

	return strings.TrimRight(b.String(), "\n")
}

// Has reports whether any error carries the given code.
func (e *ValidationError) Has(code string) bool {
	for _, fe := range e.FieldErrors {
		if fe.Code == code {
			return true
		}
	}
	return false
}

// FieldError represents a single invalid declaration.
type FieldError struct {
	FieldPath string `json:"path"`    // Location of the declaration (e.g., "model.Person.firstName")
	Code      string `json:"code"`    // Error code (e.g., "unknown_property")
	Message   string `json:"message"` // Human-readable description
}
