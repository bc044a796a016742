package valmap

import (
	"fmt"
	"reflect"
)

// TypeConstraints declares constraints for a single type.
// Until Property or Method is called, constraints apply on type level.
type TypeConstraints struct {
	mapping *ConstraintMapping
	typ     reflect.Type
	valid   bool
}

// Type starts declarations for t. Pointer types are reduced to their element type.
func (m *ConstraintMapping) Type(t reflect.Type) *TypeConstraints {
	t = baseType(t)
	if t == nil {
		m.fail(typeName(nil), ErrCodeNilType, "cannot declare constraints for a nil type")
		return &TypeConstraints{mapping: m}
	}

	m.configure(t)
	return &TypeConstraints{mapping: m, typ: t, valid: true}
}

// ForType starts declarations for T.
func ForType[T any](m *ConstraintMapping) *TypeConstraints {
	return m.Type(reflect.TypeOf((*T)(nil)).Elem())
}

// Constraint adds a type-level constraint. The definition is copied.
func (c *TypeConstraints) Constraint(def Def) *TypeConstraints {
	if c.valid {
		c.mapping.addConstraint(Location{
			Type:           c.typ,
			ElementType:    ElementTypeLevel,
			ParameterIndex: -1,
		}, def)
	}
	return c
}

// DefaultGroupSequence defines the default group sequence of the type.
// A later call replaces an earlier one.
func (c *TypeConstraints) DefaultGroupSequence(groups ...Group) *TypeConstraints {
	if c.valid {
		c.mapping.addDefaultGroupSequence(c.typ, groups)
	}
	return c
}

// DefaultGroupSequenceProvider defines the provider computing the default group sequence.
// A later call replaces an earlier one.
func (c *TypeConstraints) DefaultGroupSequenceProvider(p DefaultGroupSequenceProvider) *TypeConstraints {
	if !c.valid {
		return c
	}
	if p == nil {
		c.mapping.fail(typeName(c.typ), ErrCodeInvalidDefinition, "default group sequence provider is nil")
		return c
	}
	c.mapping.addDefaultGroupSequenceProvider(c.typ, p)
	return c
}

// Type starts declarations for another type on the same mapping.
func (c *TypeConstraints) Type(t reflect.Type) *TypeConstraints {
	return c.mapping.Type(t)
}

// Property switches to a property of the type, accessed as field or getter.
func (c *TypeConstraints) Property(name string, et ElementType) *PropertyConstraints {
	return newPropertyConstraints(c.mapping, c.typ, c.valid, name, et)
}

// Method switches to a method of the type identified by name and parameter types.
func (c *TypeConstraints) Method(name string, parameterTypes ...reflect.Type) *MethodConstraints {
	return newMethodConstraints(c.mapping, c.typ, c.valid, name, parameterTypes)
}

// PropertyConstraints declares constraints for a property.
type PropertyConstraints struct {
	mapping *ConstraintMapping
	typ     reflect.Type
	loc     Location
	valid   bool
}

func newPropertyConstraints(m *ConstraintMapping, t reflect.Type, valid bool, name string, et ElementType) *PropertyConstraints {
	pc := &PropertyConstraints{mapping: m}
	if !valid {
		return pc
	}
	pc.typ = t

	property, ferr := resolveProperty(t, name, et)
	if ferr != nil {
		m.errs = append(m.errs, *ferr)
		return pc
	}

	pc.loc = Location{Type: t, ElementType: et, Property: property, ParameterIndex: -1}
	pc.valid = true
	return pc
}

// Constraint adds a constraint to the property. The definition is copied.
func (c *PropertyConstraints) Constraint(def Def) *PropertyConstraints {
	if c.valid {
		c.mapping.addConstraint(c.loc, def)
	}
	return c
}

// Valid marks the property for cascaded validation.
func (c *PropertyConstraints) Valid() *PropertyConstraints {
	if c.valid {
		c.mapping.addCascade(c.loc)
	}
	return c
}

// Property switches to another property of the same type.
func (c *PropertyConstraints) Property(name string, et ElementType) *PropertyConstraints {
	return newPropertyConstraints(c.mapping, c.typ, c.typ != nil, name, et)
}

// Method switches to a method of the same type.
func (c *PropertyConstraints) Method(name string, parameterTypes ...reflect.Type) *MethodConstraints {
	return newMethodConstraints(c.mapping, c.typ, c.typ != nil, name, parameterTypes)
}

// Type starts declarations for another type on the same mapping.
func (c *PropertyConstraints) Type(t reflect.Type) *TypeConstraints {
	return c.mapping.Type(t)
}

// MethodConstraints selects a parameter or the return value of a method.
type MethodConstraints struct {
	mapping *ConstraintMapping
	typ     reflect.Type
	name    string
	params  []reflect.Type
	fn      reflect.Type
	valid   bool
}

func newMethodConstraints(m *ConstraintMapping, t reflect.Type, valid bool, name string, params []reflect.Type) *MethodConstraints {
	mc := &MethodConstraints{
		mapping: m,
		typ:     t,
		name:    name,
		params:  append([]reflect.Type(nil), params...),
	}
	if !valid {
		return mc
	}

	fn, ferr := resolveMethod(t, name, mc.params)
	if ferr != nil {
		m.errs = append(m.errs, *ferr)
		return mc
	}

	mc.fn = fn
	mc.valid = true
	return mc
}

// Parameter switches to the parameter at index (zero-based, receiver excluded).
func (c *MethodConstraints) Parameter(index int) *MethodElementConstraints {
	return c.element(ElementParameter, index)
}

// ReturnValue switches to the return value of the method.
func (c *MethodConstraints) ReturnValue() *MethodElementConstraints {
	return c.element(ElementReturnValue, -1)
}

// Property switches to a property of the same type.
func (c *MethodConstraints) Property(name string, et ElementType) *PropertyConstraints {
	return newPropertyConstraints(c.mapping, c.typ, c.typ != nil, name, et)
}

// Method switches to another method of the same type.
func (c *MethodConstraints) Method(name string, parameterTypes ...reflect.Type) *MethodConstraints {
	return newMethodConstraints(c.mapping, c.typ, c.typ != nil, name, parameterTypes)
}

// Type starts declarations for another type on the same mapping.
func (c *MethodConstraints) Type(t reflect.Type) *TypeConstraints {
	return c.mapping.Type(t)
}

func (c *MethodConstraints) element(et ElementType, index int) *MethodElementConstraints {
	ec := &MethodElementConstraints{method: c}
	if !c.valid {
		return ec
	}

	loc := Location{
		Type:           c.typ,
		ElementType:    et,
		Method:         c.name,
		ParameterTypes: c.params,
		ParameterIndex: index,
	}

	switch et {
	case ElementParameter:
		if index < 0 || index >= c.fn.NumIn() {
			c.mapping.fail(loc.String(), ErrCodeParameterIndex,
				fmt.Sprintf("parameter index %d out of range, method has %d parameters", index, c.fn.NumIn()))
			return ec
		}
	case ElementReturnValue:
		if c.fn.NumOut() == 0 {
			c.mapping.fail(loc.String(), ErrCodeNoReturnValue, "method has no return value")
			return ec
		}
	}

	ec.loc = loc
	ec.valid = true
	return ec
}

// MethodElementConstraints declares constraints for a method parameter or return value.
type MethodElementConstraints struct {
	method *MethodConstraints
	loc    Location
	valid  bool
}

// Constraint adds a constraint to the parameter or return value. The definition is copied.
func (c *MethodElementConstraints) Constraint(def Def) *MethodElementConstraints {
	if c.valid {
		c.method.mapping.addConstraint(c.loc, def)
	}
	return c
}

// Valid marks the parameter or return value for cascaded validation.
func (c *MethodElementConstraints) Valid() *MethodElementConstraints {
	if c.valid {
		c.method.mapping.addCascade(c.loc)
	}
	return c
}

// Parameter switches to another parameter of the same method.
func (c *MethodElementConstraints) Parameter(index int) *MethodElementConstraints {
	return c.method.Parameter(index)
}

// ReturnValue switches to the return value of the same method.
func (c *MethodElementConstraints) ReturnValue() *MethodElementConstraints {
	return c.method.ReturnValue()
}

// Method switches to another method of the same type.
func (c *MethodElementConstraints) Method(name string, parameterTypes ...reflect.Type) *MethodConstraints {
	return c.method.Method(name, parameterTypes...)
}

// Property switches to a property of the same type.
func (c *MethodElementConstraints) Property(name string, et ElementType) *PropertyConstraints {
	return c.method.Property(name, et)
}

// Type starts declarations for another type on the same mapping.
func (c *MethodElementConstraints) Type(t reflect.Type) *TypeConstraints {
	return c.method.Type(t)
}
