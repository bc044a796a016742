package bootstrap

import (
	"context"
	"fmt"
	"strings"
)

// Field names used as keys of ConfigurationSource.Origins. They match the XML element names.
const (
	FieldDefaultProvider            = "default-provider"
	FieldMessageInterpolator        = "message-interpolator"
	FieldTraversableResolver        = "traversable-resolver"
	FieldConstraintValidatorFactory = "constraint-validator-factory"
	FieldParameterNameProvider      = "parameter-name-provider"
	FieldExecutableValidation       = "executable-validation"
	FieldConstraintMapping          = "constraint-mapping"
	FieldProperty                   = "property"
)

// ExecutableType selects which executables get method validation by default.
type ExecutableType string

const (
	ExecutableImplicit         ExecutableType = "IMPLICIT"
	ExecutableNone             ExecutableType = "NONE"
	ExecutableConstructors     ExecutableType = "CONSTRUCTORS"
	ExecutableNonGetterMethods ExecutableType = "NON_GETTER_METHODS"
	ExecutableGetterMethods    ExecutableType = "GETTER_METHODS"
	ExecutableAll              ExecutableType = "ALL"
)

// ParseExecutableType parses an executable type name (case-insensitive, surrounding space ignored).
func ParseExecutableType(s string) (ExecutableType, error) {
	t := ExecutableType(strings.ToUpper(strings.TrimSpace(s)))
	switch t {
	case ExecutableImplicit, ExecutableNone, ExecutableConstructors,
		ExecutableNonGetterMethods, ExecutableGetterMethods, ExecutableAll:
		return t, nil
	default:
		return "", fmt.Errorf("unknown executable type %q", s)
	}
}

// ExecutableValidation configures method and constructor validation.
type ExecutableValidation struct {
	Enabled                         bool
	DefaultValidatedExecutableTypes []ExecutableType
}

// Resolved expands IMPLICIT and ALL into concrete executable types.
// Returns nil when validation is disabled or NONE is listed.
func (e ExecutableValidation) Resolved() []ExecutableType {
	if !e.Enabled {
		return nil
	}

	seen := make(map[ExecutableType]bool)
	var out []ExecutableType
	add := func(types ...ExecutableType) {
		for _, t := range types {
			if !seen[t] {
				seen[t] = true
				out = append(out, t)
			}
		}
	}

	for _, t := range e.DefaultValidatedExecutableTypes {
		switch t {
		case ExecutableNone:
			return nil
		case ExecutableImplicit:
			add(ExecutableConstructors, ExecutableNonGetterMethods)
		case ExecutableAll:
			add(ExecutableConstructors, ExecutableNonGetterMethods, ExecutableGetterMethods)
		default:
			add(t)
		}
	}
	return out
}

// ConfigurationSource carries the bootstrap parameters read from the configuration resource.
// Empty strings mean "not configured".
type ConfigurationSource struct {
	SchemaVersion              string // Empty for the default configuration
	DefaultProvider            string
	ConstraintValidatorFactory string
	MessageInterpolator        string
	TraversableResolver        string
	ParameterNameProvider      string

	// ConstraintMappings is a set of mapping resource paths kept in declaration order.
	ConstraintMappings []string

	Properties           map[string]string
	ExecutableValidation ExecutableValidation

	// Origins maps a field name (Field* constants, "property:<name>" for properties)
	// to the source that set it (e.g., "file:META-INF/validation.xml", "env:VALIDATION_DEFAULT_PROVIDER").
	Origins map[string]string
}

// DefaultConfiguration returns the configuration used when no resource is present.
func DefaultConfiguration() *ConfigurationSource {
	return &ConfigurationSource{
		Properties: make(map[string]string),
		ExecutableValidation: ExecutableValidation{
			Enabled:                         true,
			DefaultValidatedExecutableTypes: []ExecutableType{ExecutableImplicit},
		},
		Origins: make(map[string]string),
	}
}

// AddConstraintMapping adds a mapping path unless it is already present.
// Returns whether the path was added.
func (c *ConfigurationSource) AddConstraintMapping(path, origin string) bool {
	for _, existing := range c.ConstraintMappings {
		if existing == path {
			return false
		}
	}
	c.ConstraintMappings = append(c.ConstraintMappings, path)
	c.SetOrigin(FieldConstraintMapping+":"+path, origin)
	return true
}

// SetProperty sets a property; a later value for the same name replaces the earlier one.
func (c *ConfigurationSource) SetProperty(name, value, origin string) {
	if c.Properties == nil {
		c.Properties = make(map[string]string)
	}
	c.Properties[name] = value
	c.SetOrigin(FieldProperty+":"+name, origin)
}

// SetOrigin records which source set a field.
func (c *ConfigurationSource) SetOrigin(field, origin string) {
	if c.Origins == nil {
		c.Origins = make(map[string]string)
	}
	c.Origins[field] = origin
}

// Origin returns the source that set a field.
func (c *ConfigurationSource) Origin(field string) (string, bool) {
	origin, ok := c.Origins[field]
	return origin, ok
}

// Overlay adjusts a loaded configuration, e.g. with environment overrides.
// Overlays run after the resource was parsed, also when it is absent.
type Overlay interface {
	Apply(ctx context.Context, cfg *ConfigurationSource) error
	Name() string
}
