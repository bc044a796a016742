package bootstrap

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"golang.org/x/net/html/charset"
)

// validationConfig mirrors the validation-config root element of both schema versions.
type validationConfig struct {
	XMLName                    xml.Name                 `xml:"validation-config"`
	Version                    string                   `xml:"version,attr"`
	DefaultProvider            *string                  `xml:"default-provider"`
	MessageInterpolator        *string                  `xml:"message-interpolator"`
	TraversableResolver        *string                  `xml:"traversable-resolver"`
	ParameterNameProvider      *string                  `xml:"parameter-name-provider"`
	ConstraintValidatorFactory *string                  `xml:"constraint-validator-factory"`
	ExecutableValidation       *executableValidationXML `xml:"executable-validation"`
	ConstraintMappings         []string                 `xml:"constraint-mapping"`
	Properties                 []propertyXML            `xml:"property"`
}

type executableValidationXML struct {
	Enabled *bool               `xml:"enabled,attr"`
	Types   *executableTypesXML `xml:"default-validated-executable-types"`
}

type executableTypesXML struct {
	Types []string `xml:"executable-type"`
}

type propertyXML struct {
	Name  string `xml:"name,attr"`
	Value string `xml:",chardata"`
}

var errContentAfterRoot = errors.New("content after the root element")

// newDecoder returns a decoder that understands the encodings an XML declaration may name
// (ISO-8859-1, windows-1252, UTF-16, ...).
func newDecoder(r io.Reader) *xml.Decoder {
	dec := xml.NewDecoder(r)
	dec.CharsetReader = charset.NewReaderLabel
	return dec
}

func unmarshalConfig(r io.Reader) (*validationConfig, error) {
	dec := newDecoder(r)

	start, err := rootElement(dec)
	if err != nil {
		return nil, err
	}

	var cfg validationConfig
	if err := dec.DecodeElement(&cfg, &start); err != nil {
		return nil, err
	}
	if err := checkEpilog(dec); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// rootElement skips the prolog and returns the root start element.
func rootElement(dec *xml.Decoder) (xml.StartElement, error) {
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return xml.StartElement{}, errors.New("document has no root element")
		}
		if err != nil {
			return xml.StartElement{}, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			return t, nil
		case xml.CharData:
			if trimmed := bytes.TrimSpace(t); len(trimmed) > 0 {
				return xml.StartElement{}, fmt.Errorf("text %q before the root element", truncate(string(trimmed)))
			}
		}
	}
}

// checkEpilog reads the rest of the document. Only whitespace, comments,
// processing instructions and directives may follow the root element.
func checkEpilog(dec *xml.Decoder) error {
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		switch t := tok.(type) {
		case xml.Comment, xml.ProcInst, xml.Directive:
		case xml.CharData:
			if len(bytes.TrimSpace(t)) > 0 {
				return fmt.Errorf("%w: text %q", errContentAfterRoot, truncate(string(bytes.TrimSpace(t))))
			}
		case xml.StartElement:
			return fmt.Errorf("%w: element <%s>", errContentAfterRoot, t.Name.Local)
		default:
			return fmt.Errorf("%w: %T", errContentAfterRoot, tok)
		}
	}
}

func truncate(s string) string {
	const limit = 32
	if len(s) > limit {
		return s[:limit] + "..."
	}
	return s
}

// toSource converts the unmarshalled document. Class names and mapping paths are trimmed;
// property values are kept as written.
func (v *validationConfig) toSource(resource, version string, logger *slog.Logger) (*ConfigurationSource, error) {
	src := DefaultConfiguration()
	src.SchemaVersion = version
	origin := "file:" + resource

	set := func(field string, value *string, dst *string) {
		if value == nil {
			return
		}
		*dst = strings.TrimSpace(*value)
		src.SetOrigin(field, origin)
	}
	set(FieldDefaultProvider, v.DefaultProvider, &src.DefaultProvider)
	set(FieldMessageInterpolator, v.MessageInterpolator, &src.MessageInterpolator)
	set(FieldTraversableResolver, v.TraversableResolver, &src.TraversableResolver)
	set(FieldConstraintValidatorFactory, v.ConstraintValidatorFactory, &src.ConstraintValidatorFactory)
	set(FieldParameterNameProvider, v.ParameterNameProvider, &src.ParameterNameProvider)

	for _, path := range v.ConstraintMappings {
		path = strings.TrimSpace(path)
		if path == "" {
			continue
		}
		src.AddConstraintMapping(path, origin)
	}

	for _, p := range v.Properties {
		name := strings.TrimSpace(p.Name)
		logger.Debug("found property", "name", name, "value", p.Value, "resource", resource)
		src.SetProperty(name, p.Value, origin)
	}

	if ev := v.ExecutableValidation; ev != nil {
		if ev.Enabled != nil {
			src.ExecutableValidation.Enabled = *ev.Enabled
		}
		if ev.Types != nil {
			types := make([]ExecutableType, 0, len(ev.Types.Types))
			for _, raw := range ev.Types.Types {
				t, err := ParseExecutableType(raw)
				if err != nil {
					return nil, fmt.Errorf("executable-validation: %w", err)
				}
				types = appendUnique(types, t)
			}
			src.ExecutableValidation.DefaultValidatedExecutableTypes = types
		}
		src.SetOrigin(FieldExecutableValidation, origin)
	}

	return src, nil
}

func appendUnique(types []ExecutableType, t ExecutableType) []ExecutableType {
	for _, existing := range types {
		if existing == t {
			return types
		}
	}
	return append(types, t)
}
