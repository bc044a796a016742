package sourcefile

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"testing/fstest"

	"github.com/Azhovan/valmap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type Customer struct {
	Name  string
	Email string
}

type Order struct {
	Number   string
	Items    []string
	Customer *Customer
}

func (o *Order) Total() int64 { return 0 }

func (o *Order) Place(customer string, quantity int) error { return nil }

var (
	orderType    = reflect.TypeOf(Order{})
	customerType = reflect.TypeOf(Customer{})
)

func testOptions() Options {
	return Options{Types: []reflect.Type{orderType, customerType}}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func applyFile(t *testing.T, path string, opts Options) *valmap.ConstraintMapping {
	t.Helper()
	m := valmap.NewConstraintMapping()
	require.NoError(t, m.Apply(context.Background(), New(path, opts)))
	require.NoError(t, m.Err())
	return m
}

// assertOrderMapping checks the declarations shared by the YAML, JSON and TOML fixtures.
func assertOrderMapping(t *testing.T, m *valmap.ConstraintMapping, source string) {
	t.Helper()

	assert.Equal(t, []reflect.Type{orderType}, m.ConfiguredTypes())

	sequence, ok := m.DefaultGroupSequence(orderType)
	require.True(t, ok)
	assert.Equal(t, []valmap.Group{"Order", valmap.DefaultGroup}, sequence)

	constraints := m.Constraints(orderType)
	require.Len(t, constraints, 3)

	assert.Equal(t, valmap.ElementTypeLevel, constraints[0].Location.ElementType)
	assert.Equal(t, valmap.KindNotNull, constraints[0].Def.Kind())

	number := constraints[1]
	assert.Equal(t, valmap.ElementField, number.Location.ElementType)
	assert.Equal(t, "number", number.Location.Property)
	assert.Equal(t, valmap.KindSize, number.Def.Kind())
	assert.Equal(t, []valmap.Group{"Strict"}, number.Def.GroupList())
	assert.Equal(t, source, number.Origin)

	quantity := constraints[2]
	assert.Equal(t, valmap.ElementParameter, quantity.Location.ElementType)
	assert.Equal(t, "Place", quantity.Location.Method)
	assert.Equal(t, 1, quantity.Location.ParameterIndex)
	assert.Equal(t, valmap.KindRange, quantity.Def.Kind())

	cascades := m.Cascades(orderType)
	require.Len(t, cascades, 2)
	assert.Equal(t, "customer", cascades[0].Location.Property)
	assert.Equal(t, valmap.ElementReturnValue, cascades[1].Location.ElementType)
}

func TestFileSource_Apply_YAML(t *testing.T) {
	path := writeFile(t, "order.yaml", `
types:
  - type: sourcefile.Order
    defaultGroupSequence: [Order, Default]
    constraints:
      - kind: NotNull
    properties:
      - name: number
        constraints:
          - kind: Size
            params: {min: 1, max: 36, message: "invalid order number", groups: [Strict]}
      - name: customer
        valid: true
    methods:
      - name: Place
        parameters: [string, int]
        arguments:
          - index: 1
            constraints:
              - kind: Range
                params: {min: 1, max: 100}
        returnValue:
          valid: true
`)

	m := applyFile(t, path, testOptions())
	assertOrderMapping(t, m, "file:order.yaml")

	msg, ok := m.Constraints(orderType)[1].Def.Get(valmap.ParamMessage)
	require.True(t, ok)
	assert.Equal(t, "invalid order number", msg)
}

func TestFileSource_Apply_JSON(t *testing.T) {
	path := writeFile(t, "order.json", `{
  "types": [{
    "type": "github.com/Azhovan/valmap/sourcefile.Order",
    "defaultGroupSequence": ["Order", "Default"],
    "constraints": [{"kind": "NotNull"}],
    "properties": [
      {"name": "number", "constraints": [{"kind": "Size", "params": {"min": 1, "max": 36, "groups": ["Strict"]}}]},
      {"name": "customer", "valid": true}
    ],
    "methods": [{
      "name": "Place",
      "parameters": ["string", "int"],
      "arguments": [{"index": 1, "constraints": [{"kind": "Range", "params": {"min": 1, "max": 100}}]}],
      "returnValue": {"valid": true}
    }]
  }]
}`)

	m := applyFile(t, path, testOptions())
	assertOrderMapping(t, m, "file:order.json")

	// JSON numbers are float64
	maxParam, _ := m.Constraints(orderType)[1].Def.Get("max")
	assert.Equal(t, float64(36), maxParam)
}

func TestFileSource_Apply_TOML(t *testing.T) {
	path := writeFile(t, "order.toml", `
[[types]]
type = "Order"
defaultGroupSequence = ["Order", "Default"]
constraints = [{ kind = "NotNull" }]

[[types.properties]]
name = "number"
constraints = [{ kind = "Size", params = { min = 1, max = 36, groups = ["Strict"] } }]

[[types.properties]]
name = "customer"
valid = true

[[types.methods]]
name = "Place"
parameters = ["string", "int"]
returnValue = { valid = true }
arguments = [{ index = 1, constraints = [{ kind = "Range", params = { min = 1, max = 100 } }] }]
`)

	m := applyFile(t, path, testOptions())
	assertOrderMapping(t, m, "file:order.toml")
}

func TestFileSource_Getter(t *testing.T) {
	path := writeFile(t, "order.yaml", `
types:
  - type: sourcefile.Order
    properties:
      - name: total
        element: getter
        constraints:
          - kind: Min
            params: {value: 0}
`)

	m := applyFile(t, path, testOptions())

	constraints := m.Constraints(orderType)
	require.Len(t, constraints, 1)
	assert.Equal(t, valmap.ElementGetter, constraints[0].Location.ElementType)
	assert.Equal(t, "total", constraints[0].Location.Property)
}

func TestFileSource_PointerAndSliceTypes(t *testing.T) {
	r := newReplay(testOptions())

	got, err := r.resolve("*sourcefile.Customer")
	require.NoError(t, err)
	assert.Equal(t, reflect.PointerTo(customerType), got)

	got, err = r.resolve("[]string")
	require.NoError(t, err)
	assert.Equal(t, reflect.TypeOf([]string(nil)), got)

	got, err = r.resolve("time.Duration")
	require.NoError(t, err)
	assert.Equal(t, "time.Duration", got.String())

	_, err = r.resolve("*Unknown")
	assert.Error(t, err)
}

func TestFileSource_UnknownType(t *testing.T) {
	path := writeFile(t, "order.yaml", `
types:
  - type: sourcefile.Order
    constraints: [{kind: NotNull}]
  - type: shop.Invoice
  - type: sourcefile.Order
    methods:
      - name: Place
        parameters: [string, decimal]
`)

	m := valmap.NewConstraintMapping()
	err := m.Apply(context.Background(), New(path, testOptions()))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "apply source file:order.yaml")

	var valErr *valmap.ValidationError
	require.True(t, errors.As(err, &valErr))
	require.Len(t, valErr.FieldErrors, 2)
	assert.Equal(t, "types[1].type", valErr.FieldErrors[0].FieldPath)
	assert.Equal(t, ErrCodeUnknownType, valErr.FieldErrors[0].Code)
	assert.Equal(t, "types[2].methods[0].parameters[1]", valErr.FieldErrors[1].FieldPath)

	// Nothing is replayed from a document with unresolved entries.
	assert.Empty(t, m.ConfiguredTypes())
}

func TestFileSource_InvalidElement(t *testing.T) {
	path := writeFile(t, "order.yaml", `
types:
  - type: sourcefile.Order
    properties:
      - name: number
        element: parameter
`)

	m := valmap.NewConstraintMapping()
	err := m.Apply(context.Background(), New(path, testOptions()))
	require.Error(t, err)

	var valErr *valmap.ValidationError
	require.True(t, errors.As(err, &valErr))
	assert.True(t, valErr.Has(valmap.ErrCodeInvalidElement))
	assert.Equal(t, "types[0].properties[0].element", valErr.FieldErrors[0].FieldPath)
}

func TestFileSource_Providers(t *testing.T) {
	provider := valmap.DefaultGroupSequenceProviderFunc(func(bean any) []valmap.Group {
		return []valmap.Group{valmap.DefaultGroup}
	})

	path := writeFile(t, "order.yaml", `
types:
  - type: sourcefile.Order
    defaultGroupSequenceProvider: byState
`)

	opts := testOptions()
	opts.Providers = map[string]valmap.DefaultGroupSequenceProvider{"byState": provider}
	m := applyFile(t, path, opts)

	got, ok := m.DefaultGroupSequenceProvider(orderType)
	require.True(t, ok)
	assert.Equal(t, []valmap.Group{valmap.DefaultGroup}, got.ValidationGroups(nil))

	m = valmap.NewConstraintMapping()
	err := m.Apply(context.Background(), New(path, testOptions()))
	require.Error(t, err)

	var valErr *valmap.ValidationError
	require.True(t, errors.As(err, &valErr))
	assert.True(t, valErr.Has(ErrCodeUnknownProvider))
}

func TestFileSource_InvalidDefinitionRecordedByMapping(t *testing.T) {
	path := writeFile(t, "order.yaml", `
types:
  - type: sourcefile.Order
    properties:
      - name: number
        constraints:
          - kind: Size
            params: {min: 10, max: 1}
          - kind: NotBlank
      - name: missing
`)

	m := valmap.NewConstraintMapping()
	require.NoError(t, m.Apply(context.Background(), New(path, testOptions())))

	err := m.Err()
	require.Error(t, err)

	var valErr *valmap.ValidationError
	require.True(t, errors.As(err, &valErr))
	assert.True(t, valErr.Has(valmap.ErrCodeInvalidDefinition))
	assert.True(t, valErr.Has(valmap.ErrCodeUnknownProperty))

	constraints := m.Constraints(orderType)
	require.Len(t, constraints, 1)
	assert.Equal(t, valmap.KindNotBlank, constraints[0].Def.Kind())
}

func TestFileSource_UnknownField(t *testing.T) {
	path := writeFile(t, "order.yaml", `
types:
  - type: sourcefile.Order
    propertys: []
`)

	m := valmap.NewConstraintMapping()
	err := m.Apply(context.Background(), New(path, testOptions()))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse YAML file")
}

func TestFileSource_FormatInference(t *testing.T) {
	tests := []struct {
		path     string
		expected string
	}{
		{"mapping.yaml", "yaml"},
		{"mapping.yml", "yaml"},
		{"mapping.YAML", "yaml"},
		{"mapping.json", "json"},
		{"mapping.toml", "toml"},
		{"mapping.xml", ""},
		{"mapping", ""},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.expected, inferFormat(tt.path))
		})
	}
}

func TestFileSource_ExplicitFormat(t *testing.T) {
	path := writeFile(t, "order.conf", `types: [{type: sourcefile.Order, constraints: [{kind: NotNull}]}]`)

	m := applyFile(t, path, Options{Format: "yaml", Types: []reflect.Type{orderType}})
	assert.Len(t, m.Constraints(orderType), 1)
}

func TestFileSource_UnsupportedFormat(t *testing.T) {
	path := writeFile(t, "order.conf", `types: []`)

	m := valmap.NewConstraintMapping()
	err := m.Apply(context.Background(), New(path, Options{}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported file format")
}

func TestFileSource_MissingFile_NotRequired(t *testing.T) {
	m := valmap.NewConstraintMapping()
	err := m.Apply(context.Background(), New("/nonexistent/order.yaml", Options{}))
	require.NoError(t, err)
	assert.Empty(t, m.ConfiguredTypes())
}

func TestFileSource_MissingFile_Required(t *testing.T) {
	m := valmap.NewConstraintMapping()
	err := m.Apply(context.Background(), New("/nonexistent/order.yaml", Options{Required: true}))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.Contains(t, err.Error(), "required mapping file not found")
}

func TestFileSource_InvalidSyntax(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"order.yaml", "types: [unclosed", "parse YAML file"},
		{"order.json", `{"types": [`, "parse JSON file"},
		{"order.toml", "[[types]\ntype = ", "parse TOML file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, tt.name, tt.content)
			err := valmap.NewConstraintMapping().Apply(context.Background(), New(path, Options{}))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestFileSource_TrailingContent(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		want    string
	}{
		{
			name:    "second JSON value",
			file:    "order.json",
			content: `{"types": [{"type": "Order"}]} {"types": [{"type": "Customer"}]}`,
			want:    "parse JSON file",
		},
		{
			name:    "trailing JSON garbage",
			file:    "order.json",
			content: `{"types": []} ]`,
			want:    "parse JSON file",
		},
		{
			name:    "second YAML document",
			file:    "order.yaml",
			content: "types: [{type: Order}]\n---\ntypes: [{type: Customer}]\n",
			want:    "parse YAML file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, tt.file, tt.content)
			m := valmap.NewConstraintMapping()
			err := m.Apply(context.Background(), New(path, testOptions()))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
			assert.Empty(t, m.ConfiguredTypes())
		})
	}
}

func TestFileSource_CommentOnlyYAML(t *testing.T) {
	path := writeFile(t, "order.yaml", "# no mappings yet\n")

	m := applyFile(t, path, Options{})
	assert.Empty(t, m.ConfiguredTypes())
}

func TestFileSource_EmptyFile(t *testing.T) {
	path := writeFile(t, "order.yaml", "\n")

	m := applyFile(t, path, Options{})
	assert.Empty(t, m.ConfiguredTypes())
}

func TestFileSource_FS(t *testing.T) {
	fsys := fstest.MapFS{
		"META-INF/mappings/order.yaml":    &fstest.MapFile{Data: []byte(`types: [{type: Order, constraints: [{kind: NotNull}]}]`)},
		"META-INF/mappings/customer.json": &fstest.MapFile{Data: []byte(`{"types": [{"type": "Customer", "properties": [{"name": "email", "constraints": [{"kind": "Email"}]}]}]}`)},
	}

	opts := testOptions()
	opts.FS = fsys
	sources := FromPaths([]string{"META-INF/mappings/order.yaml", "META-INF/mappings/customer.json"}, opts)
	require.Len(t, sources, 2)
	assert.Equal(t, "file:order.yaml", sources[0].Name())
	assert.Equal(t, "file:customer.json", sources[1].Name())

	m := valmap.NewConstraintMapping()
	require.NoError(t, m.Apply(context.Background(), sources...))
	require.NoError(t, m.Err())

	assert.Equal(t, []reflect.Type{orderType, customerType}, m.ConfiguredTypes())
	assert.Equal(t, "file:customer.json", m.Constraints(customerType)[0].Origin)
}

func TestFromPaths_Required(t *testing.T) {
	opts := testOptions()
	opts.FS = fstest.MapFS{}

	sources := FromPaths([]string{"META-INF/mappings/missing.yaml"}, opts)
	err := valmap.NewConstraintMapping().Apply(context.Background(), sources...)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required mapping file not found")
}

func TestFileSource_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	src := New("order.yaml", Options{})
	assert.ErrorIs(t, src.Apply(ctx, valmap.NewConstraintMapping()), context.Canceled)
}
