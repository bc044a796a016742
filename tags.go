package valmap

import (
	"context"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/Azhovan/valmap/internal/normalize"
)

// TagName is the struct tag read by FromTags.
const TagName = "constraint"

// flagKinds maps value-less directives to constraint kinds.
var flagKinds = map[string]string{
	"required":    KindNotNull,
	"notnull":     KindNotNull,
	"null":        KindNull,
	"notempty":    KindNotEmpty,
	"notblank":    KindNotBlank,
	"asserttrue":  KindAssertTrue,
	"assertfalse": KindAssertFalse,
	"email":       KindEmail,
	"url":         KindURL,
	"past":        KindPast,
	"future":      KindFuture,
}

var boundedKinds = map[string]string{
	"size":  KindSize,
	"len":   KindLength,
	"range": KindRange,
}

// valueDirectives take a value that never contains a comma.
var valueDirectives = []string{"min", "max", "size", "len", "range", "digits", "decimalmin", "decimalmax", "groups"}

// greedyDirectives take the rest of the tag up to the next known directive, commas included.
var greedyDirectives = []string{"pattern", "message"}

// tagConfig holds the parsed directives of a struct field's `constraint` tag.
type tagConfig struct {
	defs    []Def
	groups  []Group
	message string
	valid   bool
}

// parseTag parses a `constraint` struct tag.
// Tag format: "directive1:value1,directive2,..."
// Flag directives can be written with an explicit ":true" or ":false".
func parseTag(tag string) (tagConfig, error) {
	cfg := tagConfig{}

	for _, directive := range splitDirectives(tag) {
		directive = strings.TrimSpace(directive)
		if directive == "" {
			continue
		}

		parts := strings.SplitN(directive, ":", 2)
		name := strings.ToLower(strings.TrimSpace(parts[0]))
		var value string
		hasValue := len(parts) > 1
		if hasValue {
			value = parts[1] // Pattern and message values keep their spaces
		}

		if kind, ok := flagKinds[name]; ok {
			on, err := parseFlag(name, value, hasValue)
			if err != nil {
				return cfg, err
			}
			if on {
				cfg.defs = append(cfg.defs, Generic(kind))
			}
			continue
		}

		switch name {
		case "valid":
			on, err := parseFlag(name, value, hasValue)
			if err != nil {
				return cfg, err
			}
			cfg.valid = on
		case "min", "max":
			n, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
			if err != nil {
				return cfg, fmt.Errorf("%s: %q is not an integer", name, value)
			}
			if name == "min" {
				cfg.defs = append(cfg.defs, Min(n))
			} else {
				cfg.defs = append(cfg.defs, Max(n))
			}
		case "size", "len", "range":
			def, err := parseBounds(boundedKinds[name], value)
			if err != nil {
				return cfg, fmt.Errorf("%s: %w", name, err)
			}
			cfg.defs = append(cfg.defs, def)
		case "digits":
			integer, fraction, ok := strings.Cut(value, ":")
			i, errI := strconv.Atoi(strings.TrimSpace(integer))
			f, errF := strconv.Atoi(strings.TrimSpace(fraction))
			if !ok || errI != nil || errF != nil {
				return cfg, fmt.Errorf("digits: %q is not INTEGER:FRACTION", value)
			}
			cfg.defs = append(cfg.defs, Digits(i, f))
		case "decimalmin":
			cfg.defs = append(cfg.defs, DecimalMin(strings.TrimSpace(value), true))
		case "decimalmax":
			cfg.defs = append(cfg.defs, DecimalMax(strings.TrimSpace(value), true))
		case "pattern":
			cfg.defs = append(cfg.defs, Pattern(value))
		case "message":
			cfg.message = value
		case "groups":
			for _, g := range strings.Split(value, "|") {
				if g = strings.TrimSpace(g); g != "" {
					cfg.groups = append(cfg.groups, Group(g))
				}
			}
		default:
			return cfg, fmt.Errorf("unknown directive %q", name)
		}
	}

	for i, d := range cfg.defs {
		if cfg.message != "" {
			d = d.Message(cfg.message)
		}
		if len(cfg.groups) > 0 {
			d = d.Groups(cfg.groups...)
		}
		cfg.defs[i] = d
	}

	return cfg, nil
}

func parseFlag(name, value string, hasValue bool) (bool, error) {
	if !hasValue {
		return true, nil
	}
	switch strings.TrimSpace(value) {
	case "", "true":
		return true, nil
	case "false":
		return false, nil
	default:
		return false, fmt.Errorf("%s: %q is not a boolean", name, value)
	}
}

// parseBounds parses "MIN..MAX", "MIN.." or "..MAX".
func parseBounds(kind, value string) (Def, error) {
	lo, hi, ok := strings.Cut(value, "..")
	if !ok {
		return Def{}, fmt.Errorf("%q is not MIN..MAX", value)
	}

	def := Generic(kind)
	for _, bound := range []struct{ name, text string }{{"min", lo}, {"max", hi}} {
		text := strings.TrimSpace(bound.text)
		if text == "" {
			continue
		}
		n, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return Def{}, fmt.Errorf("%s %q is not an integer", bound.name, text)
		}
		def = def.Param(bound.name, n)
	}
	return def, nil
}

// splitDirectives splits a tag into directives. Greedy directives (pattern, message)
// swallow commas until the remainder starts with a known directive.
func splitDirectives(tag string) []string {
	var directives []string
	var current strings.Builder
	greedy := false

	for i := 0; i < len(tag); i++ {
		ch := tag[i]

		if ch != ',' {
			if current.Len() == 0 && !greedy {
				greedy = startsWithGreedy(tag[i:])
			}
			current.WriteByte(ch)
			continue
		}

		if greedy && !startsWithDirective(tag[i+1:]) {
			current.WriteByte(ch)
			continue
		}

		directives = append(directives, current.String())
		current.Reset()
		greedy = false
	}

	if current.Len() > 0 {
		directives = append(directives, current.String())
	}

	return directives
}

func startsWithGreedy(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, d := range greedyDirectives {
		if strings.HasPrefix(s, d+":") {
			return true
		}
	}
	return false
}

// startsWithDirective checks if a string starts with a known directive name
// followed by a colon, a comma or the end of the tag.
func startsWithDirective(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))

	names := append(append([]string{"valid"}, valueDirectives...), greedyDirectives...)
	for name := range flagKinds {
		names = append(names, name)
	}

	for _, name := range names {
		if !strings.HasPrefix(s, name) {
			continue
		}
		rest := s[len(name):]
		if rest == "" || rest[0] == ':' || rest[0] == ',' {
			return true
		}
	}
	return false
}

// tagSource declares constraints from `constraint` struct tags.
type tagSource struct {
	types []reflect.Type
}

// FromTags returns a Source declaring the constraints written in the `constraint`
// tags of the exported fields of each type. Pointer types are reduced to their element type.
//
//	type Person struct {
//		Name    string   `constraint:"notblank,size:1..50,message:name is required"`
//		Email   string   `constraint:"email,groups:Contact|Default"`
//		Address *Address `constraint:"required,valid"`
//	}
func FromTags(types ...reflect.Type) Source {
	return &tagSource{types: append([]reflect.Type(nil), types...)}
}

// Name returns "tags".
func (s *tagSource) Name() string {
	return "tags"
}

// Apply replays the tags through the builder. Malformed tags are recorded
// with ErrCodeInvalidTag and reported by m.Err.
func (s *tagSource) Apply(ctx context.Context, m *ConstraintMapping) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	for _, t := range s.types {
		tc := m.Type(t)
		t = baseType(t)
		if t == nil {
			continue
		}
		if t.Kind() != reflect.Struct {
			m.fail(typeName(t), ErrCodeNotStruct, fmt.Sprintf("struct tags require a struct type, got %s", t.Kind()))
			continue
		}

		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			tag, ok := f.Tag.Lookup(TagName)
			if !ok || tag == "-" || !f.IsExported() {
				continue
			}

			cfg, err := parseTag(tag)
			if err != nil {
				m.fail(typeName(t)+"."+normalize.PropertyName(f.Name), ErrCodeInvalidTag, err.Error())
				continue
			}

			pc := tc.Property(f.Name, ElementField)
			for _, def := range cfg.defs {
				pc.Constraint(def)
			}
			if cfg.valid {
				pc.Valid()
			}
		}
	}

	return nil
}
