package bootstrap

import (
	"errors"
	"fmt"
)

// Errors wrapped by ConfigurationError.
var (
	// ErrUnsupportedSchemaVersion is returned when the resource declares a version without a known schema.
	ErrUnsupportedSchemaVersion = errors.New("bootstrap: unsupported schema version")

	// ErrUnknownSchemaVersion is returned when the root element cannot be read to determine the version.
	ErrUnknownSchemaVersion = errors.New("bootstrap: unable to determine schema version")

	// ErrUnparsableXML is returned when the resource cannot be unmarshalled.
	ErrUnparsableXML = errors.New("bootstrap: unable to parse configuration")

	// ErrSchemaViolation is returned when the resource does not conform to its schema.
	ErrSchemaViolation = errors.New("bootstrap: configuration does not conform to schema")

	// ErrStreamReset is returned when the stream cannot be rewound after reading the version.
	ErrStreamReset = errors.New("bootstrap: unable to reset input stream")

	// ErrResourceRead is returned when an existing resource cannot be opened or read.
	ErrResourceRead = errors.New("bootstrap: unable to read resource")
)

// ConfigurationError is a fatal configuration failure. Retrying the same load yields the same
// failure; the resource has to be fixed.
type ConfigurationError struct {
	Resource string // Resource path (e.g., "META-INF/validation.xml")
	Op       string // Failed step (e.g., "version", "schema", "validate", "unmarshal")
	Err      error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Resource, e.Err)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// Retryable reports false: configuration errors are never transient.
func (e *ConfigurationError) Retryable() bool {
	return false
}

func configError(resource, op string, err error) *ConfigurationError {
	return &ConfigurationError{Resource: resource, Op: op, Err: err}
}
