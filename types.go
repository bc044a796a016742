package valmap

import (
	"context"
	"fmt"
	"reflect"
	"strings"
)

// Source contributes constraint declarations from outside the program (mapping files, remote stores).
// Implementations replay their declarations through the fluent builder of the mapping they receive.
type Source interface {
	// Apply adds the source's declarations to m. Missing optional sources should add nothing.
	Apply(ctx context.Context, m *ConstraintMapping) error

	// Name identifies the source in provenance and dumps (e.g., "file:constraints.yaml").
	Name() string
}

// ElementType tells which element of a type a declaration applies to.
type ElementType int

const (
	// ElementTypeLevel is the class level of a type.
	ElementTypeLevel ElementType = iota
	// ElementField is a property accessed through an exported struct field.
	ElementField
	// ElementGetter is a property accessed through a getter method.
	ElementGetter
	// ElementParameter is a method parameter.
	ElementParameter
	// ElementReturnValue is the (first) result of a method.
	ElementReturnValue
)

func (e ElementType) String() string {
	switch e {
	case ElementTypeLevel:
		return "type"
	case ElementField:
		return "field"
	case ElementGetter:
		return "getter"
	case ElementParameter:
		return "parameter"
	case ElementReturnValue:
		return "return-value"
	default:
		return fmt.Sprintf("ElementType(%d)", int(e))
	}
}

// Group names a validation group.
type Group string

// DefaultGroup is the group constraints belong to when none is given.
const DefaultGroup Group = "Default"

// DefaultGroupSequenceProvider computes the default group sequence of a bean at validation time.
type DefaultGroupSequenceProvider interface {
	ValidationGroups(bean any) []Group
}

// DefaultGroupSequenceProviderFunc is a function adapter for DefaultGroupSequenceProvider.
type DefaultGroupSequenceProviderFunc func(bean any) []Group

func (f DefaultGroupSequenceProviderFunc) ValidationGroups(bean any) []Group {
	return f(bean)
}

// Location identifies the element a declaration is attached to.
type Location struct {
	Type           reflect.Type
	ElementType    ElementType
	Property       string         // Set for ElementField and ElementGetter
	Method         string         // Set for ElementParameter and ElementReturnValue
	ParameterTypes []reflect.Type // Method signature, receiver excluded
	ParameterIndex int            // Set for ElementParameter, -1 otherwise
}

// String renders the location, e.g. "model.Person.firstName" or "model.Person#Rename(string)[0]".
func (l Location) String() string {
	var b strings.Builder
	b.WriteString(typeName(l.Type))

	switch l.ElementType {
	case ElementField, ElementGetter:
		b.WriteString(".")
		b.WriteString(l.Property)
	case ElementParameter, ElementReturnValue:
		b.WriteString("#")
		b.WriteString(signature(l.Method, l.ParameterTypes))
		if l.ElementType == ElementParameter {
			fmt.Fprintf(&b, "[%d]", l.ParameterIndex)
		} else {
			b.WriteString(".<return>")
		}
	}

	return b.String()
}

// ConstraintConfig is a constraint definition attached to a location.
type ConstraintConfig struct {
	Location Location
	Def      Def
	Origin   string // Source name, OriginProgrammatic for builder calls
}

// CascadeConfig marks a location for cascaded validation.
type CascadeConfig struct {
	Location Location
	Origin   string
}

func typeName(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}
	return t.String()
}

func signature(method string, params []reflect.Type) string {
	names := make([]string, len(params))
	for i, p := range params {
		names[i] = typeName(p)
	}
	return method + "(" + strings.Join(names, ", ") + ")"
}
