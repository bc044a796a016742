package valmap

import (
	"reflect"
	"sort"
)

// Well-known constraint kinds.
const (
	KindNotNull     = "NotNull"
	KindNull        = "Null"
	KindNotEmpty    = "NotEmpty"
	KindNotBlank    = "NotBlank"
	KindAssertTrue  = "AssertTrue"
	KindAssertFalse = "AssertFalse"
	KindSize        = "Size"
	KindLength      = "Length"
	KindMin         = "Min"
	KindMax         = "Max"
	KindDecimalMin  = "DecimalMin"
	KindDecimalMax  = "DecimalMax"
	KindRange       = "Range"
	KindDigits      = "Digits"
	KindPattern     = "Pattern"
	KindEmail       = "Email"
	KindURL         = "URL"
	KindPast        = "Past"
	KindFuture      = "Future"
)

// Parameter names shared by all kinds.
const (
	ParamMessage = "message"
	ParamGroups  = "groups"
	ParamPayload = "payload"
)

// Def is a constraint definition: a kind plus its parameters.
// Def has value semantics; every setter returns a modified copy, so a Def can be reused
// as a template across declarations.
type Def struct {
	kind   string
	params map[string]any
}

// Generic creates a definition for an arbitrary constraint kind.
// Parameters are set with Param.
func Generic(kind string) Def {
	return Def{kind: kind}
}

func NotNull() Def     { return Generic(KindNotNull) }
func Null() Def        { return Generic(KindNull) }
func NotEmpty() Def    { return Generic(KindNotEmpty) }
func NotBlank() Def    { return Generic(KindNotBlank) }
func AssertTrue() Def  { return Generic(KindAssertTrue) }
func AssertFalse() Def { return Generic(KindAssertFalse) }
func Email() Def       { return Generic(KindEmail) }
func URL() Def         { return Generic(KindURL) }
func Past() Def        { return Generic(KindPast) }
func Future() Def      { return Generic(KindFuture) }

// Size bounds the length of strings, slices, maps and arrays.
func Size(min, max int) Def {
	return Generic(KindSize).Param("min", min).Param("max", max)
}

// Length bounds the length of a string.
func Length(min, max int) Def {
	return Generic(KindLength).Param("min", min).Param("max", max)
}

func Min(value int64) Def {
	return Generic(KindMin).Param("value", value)
}

func Max(value int64) Def {
	return Generic(KindMax).Param("value", value)
}

// DecimalMin takes the bound as a decimal string to keep precision.
func DecimalMin(value string, inclusive bool) Def {
	return Generic(KindDecimalMin).Param("value", value).Param("inclusive", inclusive)
}

func DecimalMax(value string, inclusive bool) Def {
	return Generic(KindDecimalMax).Param("value", value).Param("inclusive", inclusive)
}

func Range(min, max int64) Def {
	return Generic(KindRange).Param("min", min).Param("max", max)
}

// Digits limits the integral and fractional digit counts of a number.
func Digits(integer, fraction int) Def {
	return Generic(KindDigits).Param("integer", integer).Param("fraction", fraction)
}

// Pattern requires a string to match the regular expression (RE2 syntax).
func Pattern(regexp string) Def {
	return Generic(KindPattern).Param("regexp", regexp)
}

// Kind returns the constraint kind.
func (d Def) Kind() string {
	return d.kind
}

// Param returns a copy of d with the parameter set. Slice and map values are copied.
func (d Def) Param(name string, value any) Def {
	params := make(map[string]any, len(d.params)+1)
	for k, v := range d.params {
		params[k] = v
	}
	params[name] = copyValue(value)
	return Def{kind: d.kind, params: params}
}

// Message sets the message template reported on violation.
func (d Def) Message(message string) Def {
	return d.Param(ParamMessage, message)
}

// Groups sets the groups the constraint belongs to.
func (d Def) Groups(groups ...Group) Def {
	return d.Param(ParamGroups, groups)
}

// Payload attaches payload names to the constraint.
func (d Def) Payload(payload ...string) Def {
	return d.Param(ParamPayload, payload)
}

// Get returns a copy of a parameter value.
func (d Def) Get(name string) (any, bool) {
	v, ok := d.params[name]
	return copyValue(v), ok
}

// Params returns a deep copy of all parameters.
func (d Def) Params() map[string]any {
	params := make(map[string]any, len(d.params))
	for k, v := range d.params {
		params[k] = copyValue(v)
	}
	return params
}

// ParamNames returns the parameter names in sorted order.
func (d Def) ParamNames() []string {
	names := make([]string, 0, len(d.params))
	for k := range d.params {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// GroupList returns the declared groups, or DefaultGroup when none were set.
func (d Def) GroupList() []Group {
	switch g := d.params[ParamGroups].(type) {
	case []Group:
		if len(g) > 0 {
			return append([]Group(nil), g...)
		}
	case []string:
		if len(g) > 0 {
			groups := make([]Group, len(g))
			for i, name := range g {
				groups[i] = Group(name)
			}
			return groups
		}
	}
	return []Group{DefaultGroup}
}

func (d Def) clone() Def {
	return Def{kind: d.kind, params: d.Params()}
}

// copyValue copies slices and maps so a Def never shares storage with its caller.
func copyValue(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case []any:
		if x == nil {
			return x
		}
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = copyValue(e)
		}
		return out
	case map[string]any:
		if x == nil {
			return x
		}
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[k] = copyValue(e)
		}
		return out
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice:
		if rv.IsNil() {
			return v
		}
		out := reflect.MakeSlice(rv.Type(), rv.Len(), rv.Len())
		reflect.Copy(out, rv)
		return out.Interface()
	case reflect.Map:
		if rv.IsNil() {
			return v
		}
		out := reflect.MakeMapWithSize(rv.Type(), rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out.SetMapIndex(iter.Key(), iter.Value())
		}
		return out.Interface()
	}
	return v
}
