package bootstrap

import (
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchemaResource(t *testing.T) {
	resource, ok := SchemaResource("1.0")
	require.True(t, ok)
	assert.Equal(t, "schema/validation-configuration-1.0.xsd", resource)

	resource, ok = SchemaResource("1.1")
	require.True(t, ok)
	assert.Equal(t, "schema/validation-configuration-1.1.xsd", resource)

	_, ok = SchemaResource("2.0")
	assert.False(t, ok)

	assert.ElementsMatch(t, []string{"1.0", "1.1"}, SupportedVersions())
}

func TestSchemaResource_Concurrent(t *testing.T) {
	var wg sync.WaitGroup
	errs := make(chan error, 64)

	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			version := "1.0"
			if i%2 == 1 {
				version = "1.1"
			}

			resource, ok := SchemaResource(version)
			if !ok {
				errs <- errors.New("missing schema for " + version)
				return
			}
			if _, err := compileEmbedded(resource); err != nil {
				errs <- err
			}
		}(i)
	}

	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}

func TestCompileEmbedded_Cached(t *testing.T) {
	first, err := compileEmbedded("schema/validation-configuration-1.1.xsd")
	require.NoError(t, err)
	second, err := compileEmbedded("schema/validation-configuration-1.1.xsd")
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, "schema/validation-configuration-1.1.xsd", first.Resource())
}

func TestCompileSchema_Errors(t *testing.T) {
	fsys := fstest.MapFS{
		"broken.xsd":   &fstest.MapFile{Data: []byte("<xs:schema")},
		"empty.xsd":    &fstest.MapFile{Data: []byte(`<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema"/>`)},
		"unknown.xsd":  &fstest.MapFile{Data: []byte(`<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema"><xs:element name="a" type="x:missing"/></xs:schema>`)},
		"badregex.xsd": &fstest.MapFile{Data: []byte(`<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema"><xs:element name="a"><xs:simpleType><xs:restriction base="xs:string"><xs:pattern value="("/></xs:restriction></xs:simpleType></xs:element></xs:schema>`)},
	}

	for _, name := range []string{"missing.xsd", "broken.xsd", "empty.xsd", "unknown.xsd", "badregex.xsd"} {
		t.Run(name, func(t *testing.T) {
			_, err := compileSchema(fsys, name)
			assert.Error(t, err)
		})
	}
}

func TestSchema_ValidateMaxOccurs(t *testing.T) {
	fsys := fstest.MapFS{"s.xsd": &fstest.MapFile{Data: []byte(`<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema" targetNamespace="urn:t">
    <xs:element name="root">
        <xs:complexType>
            <xs:sequence>
                <xs:element name="item" type="xs:int" minOccurs="1" maxOccurs="2"/>
            </xs:sequence>
        </xs:complexType>
    </xs:element>
</xs:schema>`)}}

	schema, err := compileSchema(fsys, "s.xsd")
	require.NoError(t, err)

	violations, err := schema.Validate(strings.NewReader(`<root xmlns="urn:t"><item>1</item><item> 2 </item></root>`))
	require.NoError(t, err)
	assert.Empty(t, violations)

	violations, err = schema.Validate(strings.NewReader(`<root xmlns="urn:t"><item>1</item><item>2</item><item>3</item></root>`))
	require.NoError(t, err)
	assert.Equal(t, []string{"/root/item: unexpected element"}, violations)

	violations, err = schema.Validate(strings.NewReader(`<root xmlns="urn:t"><item>x</item></root>`))
	require.NoError(t, err)
	assert.Equal(t, []string{`/root/item: "x" is not an integer`}, violations)

	violations, err = schema.Validate(strings.NewReader(`<root xmlns="urn:t"></root>`))
	require.NoError(t, err)
	assert.Equal(t, []string{"/root: missing element <item>"}, violations)
}

func TestMarkReader(t *testing.T) {
	mr := newMarkReader(strings.NewReader("abcdef"), 4)

	buf := make([]byte, 3)
	n, err := mr.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "abc", string(buf[:n]))

	r, err := mr.reset()
	require.NoError(t, err)
	all, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "abcdef", string(all))
}

func TestMarkReader_OverLimit(t *testing.T) {
	mr := newMarkReader(strings.NewReader("abcdef"), 4)

	_, err := io.ReadAll(mr)
	require.NoError(t, err)

	_, err = mr.reset()
	assert.Error(t, err)
}

func TestReadVersion(t *testing.T) {
	tests := []struct {
		doc  string
		want string
	}{
		{`<validation-config version="1.1"/>`, "1.1"},
		{`<?xml version="1.0"?><!-- c --><validation-config version=" 1.0 "/>`, "1.0"},
		{`<validation-config/>`, "1.0"},
		{`<validation-config xmlns:x="urn:x" x:version="9"/>`, "1.0"},
	}

	for _, tt := range tests {
		got, err := readVersion(strings.NewReader(tt.doc))
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, tt.doc)
	}
}
