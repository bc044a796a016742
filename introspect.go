package valmap

import (
	"fmt"
	"reflect"

	"github.com/Azhovan/valmap/internal/normalize"
)

// resolveProperty checks that t exposes the property through the requested access
// and returns the canonical property name.
func resolveProperty(t reflect.Type, property string, et ElementType) (string, *FieldError) {
	path := typeName(t) + "." + property

	if property == "" {
		return "", &FieldError{FieldPath: path, Code: ErrCodeUnknownProperty, Message: "property name is empty"}
	}

	switch et {
	case ElementField:
		if t.Kind() != reflect.Struct {
			return "", &FieldError{
				FieldPath: path,
				Code:      ErrCodeNotStruct,
				Message:   fmt.Sprintf("field access requires a struct type, got %s", t.Kind()),
			}
		}
		for _, name := range []string{property, normalize.ExportedName(property)} {
			if f, ok := t.FieldByName(name); ok && f.IsExported() {
				return normalize.PropertyName(f.Name), nil
			}
		}
		return "", &FieldError{
			FieldPath: path,
			Code:      ErrCodeUnknownProperty,
			Message:   fmt.Sprintf("no exported field %q", normalize.ExportedName(property)),
		}

	case ElementGetter:
		for _, name := range normalize.GetterNames(property) {
			fn, ok := methodType(t, name)
			if ok && fn.NumIn() == 0 && fn.NumOut() > 0 {
				return normalize.PropertyName(property), nil
			}
		}
		return "", &FieldError{
			FieldPath: path,
			Code:      ErrCodeUnknownProperty,
			Message:   fmt.Sprintf("no getter for property %q", property),
		}

	default:
		return "", &FieldError{
			FieldPath: path,
			Code:      ErrCodeInvalidElement,
			Message:   fmt.Sprintf("properties are accessed as field or getter, got %s", et),
		}
	}
}

// resolveMethod returns the signature (receiver excluded) of a method whose parameter
// types match params exactly.
func resolveMethod(t reflect.Type, name string, params []reflect.Type) (reflect.Type, *FieldError) {
	path := typeName(t) + "#" + signature(name, params)

	fn, ok := methodType(t, name)
	if !ok {
		return nil, &FieldError{
			FieldPath: path,
			Code:      ErrCodeUnknownMethod,
			Message:   fmt.Sprintf("no method %q", name),
		}
	}

	matches := fn.NumIn() == len(params)
	for i := 0; matches && i < len(params); i++ {
		matches = fn.In(i) == params[i]
	}
	if !matches {
		return nil, &FieldError{
			FieldPath: path,
			Code:      ErrCodeUnknownMethod,
			Message:   fmt.Sprintf("method %q has signature %s", name, fn),
		}
	}

	return fn, nil
}

// methodType looks name up in the method set of *t (or t for interfaces)
// and returns the function type without the receiver.
func methodType(t reflect.Type, name string) (reflect.Type, bool) {
	if t.Kind() == reflect.Interface {
		m, ok := t.MethodByName(name)
		if !ok {
			return nil, false
		}
		return m.Type, true
	}

	m, ok := reflect.PointerTo(t).MethodByName(name)
	if !ok {
		return nil, false
	}

	in := make([]reflect.Type, 0, m.Type.NumIn()-1)
	for i := 1; i < m.Type.NumIn(); i++ {
		in = append(in, m.Type.In(i))
	}
	out := make([]reflect.Type, 0, m.Type.NumOut())
	for i := 0; i < m.Type.NumOut(); i++ {
		out = append(out, m.Type.Out(i))
	}
	return reflect.FuncOf(in, out, m.Type.IsVariadic()), true
}
