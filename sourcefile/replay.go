package sourcefile

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/Azhovan/valmap"
	"github.com/Azhovan/valmap/internal/normalize"
)

var builtinTypes = map[string]reflect.Type{
	"bool":            reflect.TypeOf(false),
	"string":          reflect.TypeOf(""),
	"int":             reflect.TypeOf(int(0)),
	"int8":            reflect.TypeOf(int8(0)),
	"int16":           reflect.TypeOf(int16(0)),
	"int32":           reflect.TypeOf(int32(0)),
	"int64":           reflect.TypeOf(int64(0)),
	"uint":            reflect.TypeOf(uint(0)),
	"uint8":           reflect.TypeOf(uint8(0)),
	"uint16":          reflect.TypeOf(uint16(0)),
	"uint32":          reflect.TypeOf(uint32(0)),
	"uint64":          reflect.TypeOf(uint64(0)),
	"float32":         reflect.TypeOf(float32(0)),
	"float64":         reflect.TypeOf(float64(0)),
	"byte":            reflect.TypeOf(byte(0)),
	"rune":            reflect.TypeOf(rune(0)),
	"any":             reflect.TypeOf((*any)(nil)).Elem(),
	"error":           reflect.TypeOf((*error)(nil)).Elem(),
	"time.Time":       reflect.TypeOf(time.Time{}),
	"time.Duration":   reflect.TypeOf(time.Duration(0)),
	"context.Context": reflect.TypeOf((*context.Context)(nil)).Elem(),
}

// replay turns document entries into builder calls, collecting entries it cannot resolve.
type replay struct {
	types     map[string]reflect.Type
	providers map[string]valmap.DefaultGroupSequenceProvider
	errs      []valmap.FieldError
}

func newReplay(opts Options) *replay {
	r := &replay{
		types:     make(map[string]reflect.Type),
		providers: opts.Providers,
	}

	// First registration wins for ambiguous short names.
	for _, t := range opts.Types {
		if t == nil {
			continue
		}
		for _, name := range []string{t.PkgPath() + "." + t.Name(), t.String(), t.Name()} {
			if name == "" || name == "." {
				continue
			}
			if _, exists := r.types[name]; !exists {
				r.types[name] = t
			}
		}
	}
	return r
}

// resolve looks up a type name. "*T" and "[]T" are resolved from T.
func (r *replay) resolve(name string) (reflect.Type, error) {
	name = strings.TrimSpace(name)
	switch {
	case name == "":
		return nil, fmt.Errorf("type name is empty")
	case strings.HasPrefix(name, "*"):
		elem, err := r.resolve(name[1:])
		if err != nil {
			return nil, err
		}
		return reflect.PointerTo(elem), nil
	case strings.HasPrefix(name, "[]"):
		elem, err := r.resolve(name[2:])
		if err != nil {
			return nil, err
		}
		return reflect.SliceOf(elem), nil
	}

	if t, ok := r.types[name]; ok {
		return t, nil
	}
	if t, ok := builtinTypes[name]; ok {
		return t, nil
	}
	return nil, fmt.Errorf("unknown type %q", name)
}

func (r *replay) fail(path, code, message string) {
	r.errs = append(r.errs, valmap.FieldError{FieldPath: path, Code: code, Message: message})
}

func (r *replay) typeStep(td typeDoc, path string) func(*valmap.ConstraintMapping) {
	t, err := r.resolve(td.Type)
	if err != nil {
		r.fail(normalize.ApplyPrefix(path, "type"), ErrCodeUnknownType, err.Error())
		return nil
	}

	var provider valmap.DefaultGroupSequenceProvider
	if td.DefaultGroupSequenceProvider != "" {
		p, ok := r.providers[td.DefaultGroupSequenceProvider]
		if !ok {
			r.fail(normalize.ApplyPrefix(path, "defaultGroupSequenceProvider"), ErrCodeUnknownProvider,
				fmt.Sprintf("unknown default group sequence provider %q", td.DefaultGroupSequenceProvider))
		}
		provider = p
	}

	sequence := make([]valmap.Group, 0, len(td.DefaultGroupSequence))
	for _, g := range td.DefaultGroupSequence {
		sequence = append(sequence, valmap.Group(g))
	}

	defs := defsOf(td.Constraints)

	var properties []func(*valmap.TypeConstraints)
	for i, pd := range td.Properties {
		if step := r.propertyStep(pd, fmt.Sprintf("%s.properties[%d]", path, i)); step != nil {
			properties = append(properties, step)
		}
	}

	var methods []func(*valmap.TypeConstraints)
	for i, md := range td.Methods {
		if step := r.methodStep(md, fmt.Sprintf("%s.methods[%d]", path, i)); step != nil {
			methods = append(methods, step)
		}
	}

	return func(m *valmap.ConstraintMapping) {
		tc := m.Type(t)
		for _, d := range defs {
			tc.Constraint(d)
		}
		if len(sequence) > 0 {
			tc.DefaultGroupSequence(sequence...)
		}
		if provider != nil {
			tc.DefaultGroupSequenceProvider(provider)
		}
		for _, step := range properties {
			step(tc)
		}
		for _, step := range methods {
			step(tc)
		}
	}
}

func (r *replay) propertyStep(pd propertyDoc, path string) func(*valmap.TypeConstraints) {
	var et valmap.ElementType
	switch strings.ToLower(strings.TrimSpace(pd.Element)) {
	case "", valmap.ElementField.String():
		et = valmap.ElementField
	case valmap.ElementGetter.String():
		et = valmap.ElementGetter
	default:
		r.fail(normalize.ApplyPrefix(path, "element"), valmap.ErrCodeInvalidElement,
			fmt.Sprintf("element must be %q or %q, got %q", valmap.ElementField, valmap.ElementGetter, pd.Element))
		return nil
	}

	defs := defsOf(pd.Constraints)
	return func(tc *valmap.TypeConstraints) {
		pc := tc.Property(pd.Name, et)
		for _, d := range defs {
			pc.Constraint(d)
		}
		if pd.Valid {
			pc.Valid()
		}
	}
}

func (r *replay) methodStep(md methodDoc, path string) func(*valmap.TypeConstraints) {
	params := make([]reflect.Type, 0, len(md.Parameters))
	failed := false
	for i, name := range md.Parameters {
		t, err := r.resolve(name)
		if err != nil {
			r.fail(fmt.Sprintf("%s.parameters[%d]", path, i), ErrCodeUnknownType, err.Error())
			failed = true
			continue
		}
		params = append(params, t)
	}
	if failed {
		return nil
	}

	return func(tc *valmap.TypeConstraints) {
		mc := tc.Method(md.Name, params...)
		for _, arg := range md.Arguments {
			ec := mc.Parameter(arg.Index)
			for _, d := range defsOf(arg.Constraints) {
				ec.Constraint(d)
			}
			if arg.Valid {
				ec.Valid()
			}
		}
		if rv := md.ReturnValue; rv != nil {
			ec := mc.ReturnValue()
			for _, d := range defsOf(rv.Constraints) {
				ec.Constraint(d)
			}
			if rv.Valid {
				ec.Valid()
			}
		}
	}
}

// defsOf converts document constraints. Parameter values are checked by the mapping.
func defsOf(docs []constraintDoc) []valmap.Def {
	defs := make([]valmap.Def, 0, len(docs))
	for _, cd := range docs {
		d := valmap.Generic(strings.TrimSpace(cd.Kind))
		for name, value := range cd.Params {
			switch name {
			case valmap.ParamGroups, valmap.ParamPayload:
				value = stringList(value)
			}
			d = d.Param(name, value)
		}
		defs = append(defs, d)
	}
	return defs
}

// stringList converts a decoded list of strings to []string; other values are returned unchanged.
func stringList(value any) any {
	switch v := value.(type) {
	case string:
		return []string{v}
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return value
			}
			out = append(out, s)
		}
		return out
	default:
		return value
	}
}
