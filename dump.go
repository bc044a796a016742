package valmap

import (
	"encoding/json"
	"fmt"
	"io"
	"reflect"
	"sort"
	"strings"
)

// DumpOption configures dump behavior using the functional options pattern.
type DumpOption func(*dumpConfig)

// dumpConfig holds options for DumpMapping.
type dumpConfig struct {
	withSources bool   // Include the origin of each declaration
	asJSON      bool   // Output as JSON instead of text format
	indent      string // Indentation for JSON output (default: "  ")
}

// WithSources includes the origin of each declaration in the output.
func WithSources() DumpOption {
	return func(cfg *dumpConfig) {
		cfg.withSources = true
	}
}

// AsJSON outputs the mapping as JSON instead of text format.
func AsJSON() DumpOption {
	return func(cfg *dumpConfig) {
		cfg.asJSON = true
	}
}

// WithIndent sets the indentation for JSON output.
// Default is two spaces ("  ").
func WithIndent(indent string) DumpOption {
	return func(cfg *dumpConfig) {
		cfg.indent = indent
	}
}

// DumpMapping writes a human-readable representation of the mapping.
// Returns an error if writing to the writer fails.
func DumpMapping(w io.Writer, m *ConstraintMapping, opts ...DumpOption) error {
	if m == nil {
		return ErrNilMapping
	}

	config := dumpConfig{
		indent: "  ",
	}
	for _, opt := range opts {
		opt(&config)
	}

	if config.asJSON {
		return dumpAsJSON(w, m, config)
	}
	return dumpAsText(w, m, config)
}

// dumpAsText outputs one line per declaration (location [element]: Kind{params}).
func dumpAsText(w io.Writer, m *ConstraintMapping, config dumpConfig) error {
	for _, t := range m.configured {
		var lines []string

		if seq, ok := m.sequences[t]; ok {
			lines = append(lines, fmt.Sprintf("%s: default group sequence %s", typeName(t), formatGroups(seq)))
		}
		if p, ok := m.providers[t]; ok {
			lines = append(lines, fmt.Sprintf("%s: default group sequence provider %T", typeName(t), p))
		}

		for _, c := range m.constraints[t] {
			line := fmt.Sprintf("%s [%s]: %s", c.Location, c.Location.ElementType, formatDef(c.Def))
			if config.withSources && c.Origin != "" {
				line += fmt.Sprintf(" (source: %s)", c.Origin)
			}
			lines = append(lines, line)
		}

		for _, c := range m.cascades[t] {
			line := fmt.Sprintf("%s [%s]: %s", c.Location, c.Location.ElementType, KindValid)
			if config.withSources && c.Origin != "" {
				line += fmt.Sprintf(" (source: %s)", c.Origin)
			}
			lines = append(lines, line)
		}

		for _, line := range lines {
			if _, err := io.WriteString(w, line+"\n"); err != nil {
				return fmt.Errorf("write error: %w", err)
			}
		}
	}

	return nil
}

// dumpAsJSON outputs the mapping as a JSON array of types.
func dumpAsJSON(w io.Writer, m *ConstraintMapping, config dumpConfig) error {
	result := snapshotTypes(m, config.withSources, nil)

	var data []byte
	var err error
	if config.indent != "" {
		data, err = json.MarshalIndent(result, "", config.indent)
	} else {
		data, err = json.Marshal(result)
	}

	if err != nil {
		return fmt.Errorf("json marshal error: %w", err)
	}

	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write error: %w", err)
	}

	// Add newline for better formatting
	if _, err := w.Write([]byte("\n")); err != nil {
		return fmt.Errorf("write error: %w", err)
	}

	return nil
}

// formatDef renders a definition as Kind{name=value, ...} with parameters sorted by name.
func formatDef(d Def) string {
	names := d.ParamNames()
	if len(names) == 0 {
		return d.Kind()
	}

	parts := make([]string, len(names))
	for i, name := range names {
		v, _ := d.Get(name)
		parts[i] = name + "=" + formatParam(v)
	}
	return d.Kind() + "{" + strings.Join(parts, ", ") + "}"
}

// formatParam formats a parameter value for text output.
func formatParam(v any) string {
	rv := reflect.ValueOf(v)
	if !rv.IsValid() {
		return "<nil>"
	}

	switch rv.Kind() {
	case reflect.String:
		return fmt.Sprintf("%q", rv.String())
	case reflect.Slice, reflect.Array:
		items := make([]string, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			items[i] = fmt.Sprint(rv.Index(i).Interface())
		}
		return "[" + strings.Join(items, ", ") + "]"
	case reflect.Map:
		keys := make([]string, 0, rv.Len())
		for _, k := range rv.MapKeys() {
			keys = append(keys, fmt.Sprint(k.Interface()))
		}
		sort.Strings(keys)
		return "{" + strings.Join(keys, ", ") + "}"
	default:
		return fmt.Sprint(v)
	}
}

func formatGroups(groups []Group) string {
	names := make([]string, len(groups))
	for i, g := range groups {
		names[i] = string(g)
	}
	return "[" + strings.Join(names, ", ") + "]"
}
