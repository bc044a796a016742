package valmap

import (
	"context"
	"fmt"
	"reflect"
)

// OriginProgrammatic is the origin of declarations made directly through the builder.
const OriginProgrammatic = "programmatic"

// ConstraintMapping accumulates constraint declarations for Go types.
// Declarations are added through the handles returned by Type and ForType.
// Not safe for concurrent modification; treat it as read-only once handed to an engine.
type ConstraintMapping struct {
	configured  []reflect.Type
	seen        map[reflect.Type]bool
	constraints map[reflect.Type][]ConstraintConfig
	cascades    map[reflect.Type][]CascadeConfig
	sequences   map[reflect.Type][]Group
	providers   map[reflect.Type]DefaultGroupSequenceProvider
	errs        []FieldError
	origin      string
}

// NewConstraintMapping creates an empty mapping.
func NewConstraintMapping() *ConstraintMapping {
	return &ConstraintMapping{
		seen:        make(map[reflect.Type]bool),
		constraints: make(map[reflect.Type][]ConstraintConfig),
		cascades:    make(map[reflect.Type][]CascadeConfig),
		sequences:   make(map[reflect.Type][]Group),
		providers:   make(map[reflect.Type]DefaultGroupSequenceProvider),
		origin:      OriginProgrammatic,
	}
}

// Apply lets each source add its declarations, in order.
// Declarations added by a source carry the source's name as origin.
func (m *ConstraintMapping) Apply(ctx context.Context, sources ...Source) error {
	if m == nil {
		return ErrNilMapping
	}

	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			return err
		}

		previous := m.origin
		m.origin = src.Name()
		err := src.Apply(ctx, m)
		m.origin = previous

		if err != nil {
			return fmt.Errorf("apply source %s: %w", src.Name(), err)
		}
	}

	return nil
}

// ConfiguredTypes returns the types declarations were made for, in first-use order.
func (m *ConstraintMapping) ConfiguredTypes() []reflect.Type {
	return append([]reflect.Type(nil), m.configured...)
}

// Constraints returns the constraint declarations of a type in declaration order.
func (m *ConstraintMapping) Constraints(t reflect.Type) []ConstraintConfig {
	return append([]ConstraintConfig(nil), m.constraints[baseType(t)]...)
}

// AllConstraints returns every constraint declaration, grouped by type in first-use order.
func (m *ConstraintMapping) AllConstraints() []ConstraintConfig {
	var all []ConstraintConfig
	for _, t := range m.configured {
		all = append(all, m.constraints[t]...)
	}
	return all
}

// Cascades returns the locations of a type marked for cascaded validation.
func (m *ConstraintMapping) Cascades(t reflect.Type) []CascadeConfig {
	return append([]CascadeConfig(nil), m.cascades[baseType(t)]...)
}

// DefaultGroupSequence returns the default group sequence declared for a type.
func (m *ConstraintMapping) DefaultGroupSequence(t reflect.Type) ([]Group, bool) {
	seq, ok := m.sequences[baseType(t)]
	if !ok {
		return nil, false
	}
	return append([]Group(nil), seq...), true
}

// DefaultGroupSequenceProvider returns the provider declared for a type.
func (m *ConstraintMapping) DefaultGroupSequenceProvider(t reflect.Type) (DefaultGroupSequenceProvider, bool) {
	p, ok := m.providers[baseType(t)]
	return p, ok
}

// Err reports every invalid declaration made so far, or nil.
// The returned error is a *ValidationError.
func (m *ConstraintMapping) Err() error {
	errs := append([]FieldError(nil), m.errs...)

	for _, t := range m.configured {
		_, hasSeq := m.sequences[t]
		_, hasProvider := m.providers[t]
		if hasSeq && hasProvider {
			errs = append(errs, FieldError{
				FieldPath: typeName(t),
				Code:      ErrCodeConflictingSequence,
				Message:   "default group sequence and default group sequence provider are both defined",
			})
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return &ValidationError{FieldErrors: errs}
}

func (m *ConstraintMapping) configure(t reflect.Type) {
	if !m.seen[t] {
		m.seen[t] = true
		m.configured = append(m.configured, t)
	}
}

func (m *ConstraintMapping) addConstraint(loc Location, def Def) {
	if errs := validateDef(def, loc.String()); len(errs) > 0 {
		m.errs = append(m.errs, errs...)
		return
	}

	m.configure(loc.Type)
	m.constraints[loc.Type] = append(m.constraints[loc.Type], ConstraintConfig{
		Location: loc,
		Def:      def.clone(),
		Origin:   m.origin,
	})
}

func (m *ConstraintMapping) addCascade(loc Location) {
	m.configure(loc.Type)
	for _, c := range m.cascades[loc.Type] {
		if sameLocation(c.Location, loc) {
			return
		}
	}
	m.cascades[loc.Type] = append(m.cascades[loc.Type], CascadeConfig{Location: loc, Origin: m.origin})
}

func (m *ConstraintMapping) addDefaultGroupSequence(t reflect.Type, groups []Group) {
	m.configure(t)
	m.sequences[t] = append([]Group(nil), groups...)
}

func (m *ConstraintMapping) addDefaultGroupSequenceProvider(t reflect.Type, p DefaultGroupSequenceProvider) {
	m.configure(t)
	m.providers[t] = p
}

func (m *ConstraintMapping) fail(path, code, message string) {
	m.errs = append(m.errs, FieldError{FieldPath: path, Code: code, Message: message})
}

func sameLocation(a, b Location) bool {
	if a.Type != b.Type || a.ElementType != b.ElementType || a.Property != b.Property ||
		a.Method != b.Method || a.ParameterIndex != b.ParameterIndex ||
		len(a.ParameterTypes) != len(b.ParameterTypes) {
		return false
	}
	for i := range a.ParameterTypes {
		if a.ParameterTypes[i] != b.ParameterTypes[i] {
			return false
		}
	}
	return true
}

// baseType strips pointers so *T and T share declarations.
func baseType(t reflect.Type) reflect.Type {
	for t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t
}
