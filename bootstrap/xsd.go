package bootstrap

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
)

// The schema language supported here is the subset used by the configuration schemas:
// global elements, named and anonymous complex types with a sequence of elements,
// simple content extensions, attributes, and simple types restricted by enumeration or pattern.

const (
	xsiNamespace   = "http://www.w3.org/2001/XMLSchema-instance"
	xmlnsNamespace = "xmlns"
	unbounded      = -1
)

type xsdSchema struct {
	TargetNamespace string           `xml:"targetNamespace,attr"`
	Elements        []xsdElement     `xml:"element"`
	ComplexTypes    []xsdComplexType `xml:"complexType"`
	SimpleTypes     []xsdSimpleType  `xml:"simpleType"`
}

type xsdElement struct {
	Name       string          `xml:"name,attr"`
	Type       string          `xml:"type,attr"`
	MinOccurs  string          `xml:"minOccurs,attr"`
	MaxOccurs  string          `xml:"maxOccurs,attr"`
	SimpleType *xsdSimpleType  `xml:"simpleType"`
	Complex    *xsdComplexType `xml:"complexType"`
}

type xsdComplexType struct {
	Name       string         `xml:"name,attr"`
	Sequence   []xsdElement   `xml:"sequence>element"`
	Attributes []xsdAttribute `xml:"attribute"`
	Extension  *xsdExtension  `xml:"simpleContent>extension"`
}

type xsdExtension struct {
	Base       string         `xml:"base,attr"`
	Attributes []xsdAttribute `xml:"attribute"`
}

type xsdAttribute struct {
	Name    string `xml:"name,attr"`
	Type    string `xml:"type,attr"`
	Use     string `xml:"use,attr"`
	Fixed   string `xml:"fixed,attr"`
	Default string `xml:"default,attr"`
}

type xsdSimpleType struct {
	Name        string         `xml:"name,attr"`
	Restriction xsdRestriction `xml:"restriction"`
}

type xsdRestriction struct {
	Base         string     `xml:"base,attr"`
	Enumerations []xsdFacet `xml:"enumeration"`
	Patterns     []xsdFacet `xml:"pattern"`
}

type xsdFacet struct {
	Value string `xml:"value,attr"`
}

// Schema is a compiled configuration schema.
type Schema struct {
	resource  string
	namespace string
	elements  map[string]*elementDecl
}

// Resource returns the resource the schema was compiled from.
func (s *Schema) Resource() string {
	return s.resource
}

type elementDecl struct {
	name      string
	minOccurs int
	maxOccurs int
	complex   *complexDecl
	simple    *simpleDecl
}

type complexDecl struct {
	sequence    []*elementDecl
	attributes  []attributeDecl
	textContent bool
}

type attributeDecl struct {
	name     string
	simple   *simpleDecl
	required bool
	fixed    string
}

type simpleDecl struct {
	base         string
	enumerations []string
	patterns     []*regexp.Regexp
}

// schemaCompiler resolves named type references while building declarations.
type schemaCompiler struct {
	complexTypes map[string]*xsdComplexType
	simpleTypes  map[string]*xsdSimpleType
	compiled     map[string]*complexDecl
}

func parseXSD(data []byte) (*Schema, error) {
	var raw xsdSchema
	if err := xml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	c := &schemaCompiler{
		complexTypes: make(map[string]*xsdComplexType),
		simpleTypes:  make(map[string]*xsdSimpleType),
		compiled:     make(map[string]*complexDecl),
	}
	for i := range raw.ComplexTypes {
		c.complexTypes[raw.ComplexTypes[i].Name] = &raw.ComplexTypes[i]
	}
	for i := range raw.SimpleTypes {
		c.simpleTypes[raw.SimpleTypes[i].Name] = &raw.SimpleTypes[i]
	}

	schema := &Schema{
		namespace: raw.TargetNamespace,
		elements:  make(map[string]*elementDecl),
	}
	for _, el := range raw.Elements {
		decl, err := c.element(el)
		if err != nil {
			return nil, err
		}
		schema.elements[decl.name] = decl
	}

	if len(schema.elements) == 0 {
		return nil, errors.New("schema declares no global element")
	}
	return schema, nil
}

func (c *schemaCompiler) element(el xsdElement) (*elementDecl, error) {
	if el.Name == "" {
		return nil, errors.New("element without name")
	}

	decl := &elementDecl{name: el.Name, minOccurs: 1, maxOccurs: 1}

	if el.MinOccurs != "" {
		n, err := strconv.Atoi(el.MinOccurs)
		if err != nil {
			return nil, fmt.Errorf("element %s: minOccurs: %w", el.Name, err)
		}
		decl.minOccurs = n
	}
	switch el.MaxOccurs {
	case "":
	case "unbounded":
		decl.maxOccurs = unbounded
	default:
		n, err := strconv.Atoi(el.MaxOccurs)
		if err != nil {
			return nil, fmt.Errorf("element %s: maxOccurs: %w", el.Name, err)
		}
		decl.maxOccurs = n
	}

	var err error
	switch {
	case el.Complex != nil:
		decl.complex, err = c.complexType(el.Complex)
	case el.SimpleType != nil:
		decl.simple, err = c.simpleType(el.SimpleType)
	default:
		decl.complex, decl.simple, err = c.resolve(el.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("element %s: %w", el.Name, err)
	}
	return decl, nil
}

// resolve turns a type reference ("xs:string", "config:propertyType") into a declaration.
func (c *schemaCompiler) resolve(ref string) (*complexDecl, *simpleDecl, error) {
	name := localName(ref)
	if name == "" {
		return nil, &simpleDecl{base: "string"}, nil
	}

	if ct, ok := c.complexTypes[name]; ok {
		if decl, ok := c.compiled[name]; ok {
			return decl, nil, nil
		}
		decl, err := c.complexType(ct)
		if err != nil {
			return nil, nil, err
		}
		c.compiled[name] = decl
		return decl, nil, nil
	}

	if st, ok := c.simpleTypes[name]; ok {
		decl, err := c.simpleType(st)
		return nil, decl, err
	}

	if isBuiltin(name) {
		return nil, &simpleDecl{base: name}, nil
	}

	return nil, nil, fmt.Errorf("unknown type %q", ref)
}

func (c *schemaCompiler) complexType(ct *xsdComplexType) (*complexDecl, error) {
	decl := &complexDecl{}

	for _, el := range ct.Sequence {
		child, err := c.element(el)
		if err != nil {
			return nil, err
		}
		decl.sequence = append(decl.sequence, child)
	}

	attrs := ct.Attributes
	if ct.Extension != nil {
		decl.textContent = true
		attrs = append(attrs, ct.Extension.Attributes...)
	}

	for _, a := range attrs {
		_, simple, err := c.resolve(a.Type)
		if err != nil {
			return nil, fmt.Errorf("attribute %s: %w", a.Name, err)
		}
		if simple == nil {
			return nil, fmt.Errorf("attribute %s: complex type %q not allowed", a.Name, a.Type)
		}
		decl.attributes = append(decl.attributes, attributeDecl{
			name:     a.Name,
			simple:   simple,
			required: a.Use == "required",
			fixed:    a.Fixed,
		})
	}

	return decl, nil
}

func (c *schemaCompiler) simpleType(st *xsdSimpleType) (*simpleDecl, error) {
	decl := &simpleDecl{base: localName(st.Restriction.Base)}
	if decl.base == "" {
		decl.base = "string"
	}

	for _, e := range st.Restriction.Enumerations {
		decl.enumerations = append(decl.enumerations, e.Value)
	}
	for _, p := range st.Restriction.Patterns {
		re, err := regexp.Compile("^(?:" + p.Value + ")$")
		if err != nil {
			return nil, fmt.Errorf("pattern %q: %w", p.Value, err)
		}
		decl.patterns = append(decl.patterns, re)
	}
	return decl, nil
}

func isBuiltin(name string) bool {
	switch name {
	case "string", "token", "boolean", "int", "integer", "anyURI":
		return true
	default:
		return false
	}
}

func localName(ref string) string {
	if i := strings.LastIndex(ref, ":"); i >= 0 {
		return ref[i+1:]
	}
	return ref
}

// check validates a lexical value against the simple type.
func (s *simpleDecl) check(value string) error {
	v := value
	if s.base != "string" {
		v = strings.Join(strings.Fields(value), " ")
	}

	switch s.base {
	case "boolean":
		switch v {
		case "true", "false", "1", "0":
		default:
			return fmt.Errorf("%q is not a boolean", value)
		}
	case "int", "integer":
		if _, err := strconv.ParseInt(v, 10, 64); err != nil {
			return fmt.Errorf("%q is not an integer", value)
		}
	}

	if len(s.enumerations) > 0 {
		found := false
		for _, e := range s.enumerations {
			if v == e {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("%q must be one of: %s", value, strings.Join(s.enumerations, ", "))
		}
	}

	for _, re := range s.patterns {
		if !re.MatchString(v) {
			return fmt.Errorf("%q does not match pattern %s", value, re)
		}
	}
	return nil
}

// node is a parsed document element.
type node struct {
	name     xml.Name
	attrs    []xml.Attr
	children []*node
	text     bytes.Buffer
}

func parseTree(r io.Reader) (*node, error) {
	dec := newDecoder(r)

	var root *node
	var stack []*node
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			n := &node{name: t.Name, attrs: t.Attr}
			if len(stack) > 0 {
				parent := stack[len(stack)-1]
				parent.children = append(parent.children, n)
			} else if root == nil {
				root = n
			} else {
				return nil, fmt.Errorf("%w: element <%s>", errContentAfterRoot, t.Name.Local)
			}
			stack = append(stack, n)
		case xml.EndElement:
			stack = stack[:len(stack)-1]
		case xml.CharData:
			if len(stack) > 0 {
				stack[len(stack)-1].text.Write(t)
			} else if trimmed := bytes.TrimSpace(t); len(trimmed) > 0 {
				if root == nil {
					return nil, fmt.Errorf("text %q before the root element", truncate(string(trimmed)))
				}
				return nil, fmt.Errorf("%w: text %q", errContentAfterRoot, truncate(string(trimmed)))
			}
		}
	}

	if root == nil {
		return nil, errors.New("document has no root element")
	}
	return root, nil
}

// Validate checks a document against the schema and returns every violation found.
func (s *Schema) Validate(r io.Reader) ([]string, error) {
	root, err := parseTree(r)
	if err != nil {
		return nil, err
	}

	decl, ok := s.elements[root.name.Local]
	if !ok {
		return []string{fmt.Sprintf("unexpected root element <%s>", root.name.Local)}, nil
	}

	var violations []string
	if root.name.Space != s.namespace {
		violations = append(violations, fmt.Sprintf("<%s>: namespace %q, expected %q", root.name.Local, root.name.Space, s.namespace))
	}
	return append(violations, s.validateElement(root, decl, "/"+root.name.Local)...), nil
}

func (s *Schema) validateElement(n *node, decl *elementDecl, path string) []string {
	var violations []string

	if decl.complex == nil {
		if len(n.children) > 0 {
			violations = append(violations, fmt.Sprintf("%s: element content not allowed", path))
		}
		if decl.simple != nil {
			if err := decl.simple.check(n.text.String()); err != nil {
				violations = append(violations, fmt.Sprintf("%s: %v", path, err))
			}
		}
		for _, a := range n.attrs {
			if !isNamespaceAttr(a) {
				violations = append(violations, fmt.Sprintf("%s: unexpected attribute %q", path, a.Name.Local))
			}
		}
		return violations
	}

	ct := decl.complex
	violations = append(violations, s.validateAttributes(n, ct, path)...)

	if ct.textContent {
		if len(n.children) > 0 {
			violations = append(violations, fmt.Sprintf("%s: element content not allowed", path))
		}
		return violations
	}

	if strings.TrimSpace(n.text.String()) != "" {
		violations = append(violations, fmt.Sprintf("%s: text content not allowed", path))
	}

	return append(violations, s.validateSequence(n, ct.sequence, path)...)
}

func (s *Schema) validateAttributes(n *node, ct *complexDecl, path string) []string {
	var violations []string

	present := make(map[string]bool)
	for _, a := range n.attrs {
		if isNamespaceAttr(a) {
			continue
		}

		var decl *attributeDecl
		for i := range ct.attributes {
			if ct.attributes[i].name == a.Name.Local && a.Name.Space == "" {
				decl = &ct.attributes[i]
				break
			}
		}
		if decl == nil {
			violations = append(violations, fmt.Sprintf("%s: unexpected attribute %q", path, a.Name.Local))
			continue
		}

		present[decl.name] = true
		if err := decl.simple.check(a.Value); err != nil {
			violations = append(violations, fmt.Sprintf("%s/@%s: %v", path, decl.name, err))
			continue
		}
		if decl.fixed != "" && strings.TrimSpace(a.Value) != decl.fixed {
			violations = append(violations, fmt.Sprintf("%s/@%s: value %q must be %q", path, decl.name, a.Value, decl.fixed))
		}
	}

	for _, decl := range ct.attributes {
		if decl.required && !present[decl.name] {
			violations = append(violations, fmt.Sprintf("%s: missing required attribute %q", path, decl.name))
		}
	}

	return violations
}

// validateSequence matches children against the declared sequence in order,
// honoring minOccurs and maxOccurs.
func (s *Schema) validateSequence(n *node, seq []*elementDecl, path string) []string {
	var violations []string

	i, count := 0, 0
	for _, child := range n.children {
		childPath := path + "/" + child.name.Local

		j := -1
		for k := i; k < len(seq); k++ {
			if seq[k].name != child.name.Local {
				continue
			}
			if k == i && seq[k].maxOccurs != unbounded && count >= seq[k].maxOccurs {
				continue
			}
			j = k
			break
		}
		if j < 0 {
			violations = append(violations, fmt.Sprintf("%s: unexpected element", childPath))
			continue
		}

		for k := i; k < j; k++ {
			seen := 0
			if k == i {
				seen = count
			}
			if seen < seq[k].minOccurs {
				violations = append(violations, fmt.Sprintf("%s: missing element <%s>", path, seq[k].name))
			}
		}
		if j != i {
			i, count = j, 0
		}
		count++

		if child.name.Space != s.namespace {
			violations = append(violations, fmt.Sprintf("%s: namespace %q, expected %q", childPath, child.name.Space, s.namespace))
		}
		violations = append(violations, s.validateElement(child, seq[j], childPath)...)
	}

	for k := i; k < len(seq); k++ {
		seen := 0
		if k == i {
			seen = count
		}
		if seen < seq[k].minOccurs {
			violations = append(violations, fmt.Sprintf("%s: missing element <%s>", path, seq[k].name))
		}
	}

	return violations
}

func isNamespaceAttr(a xml.Attr) bool {
	return a.Name.Space == xmlnsNamespace || (a.Name.Space == "" && a.Name.Local == xmlnsNamespace) ||
		a.Name.Space == xsiNamespace || a.Name.Space == "xsi"
}
