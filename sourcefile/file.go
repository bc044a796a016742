package sourcefile

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/Azhovan/valmap"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Error codes for document entries that cannot be replayed.
const (
	ErrCodeUnknownType     = "unknown_type"
	ErrCodeUnknownProvider = "unknown_provider"
)

// Options configures file source behavior.
type Options struct {
	// Format: "yaml", "json", or "toml". Auto-detected from extension if empty.
	Format string

	// Required: if true, missing files cause an error. Default: false (contributes nothing).
	Required bool

	// Types lists the types a document may name. A type matches by its qualified name
	// ("github.com/acme/shop.Order"), its package-qualified name ("shop.Order") or its bare name.
	Types []reflect.Type

	// Providers names the default group sequence providers a document may reference.
	Providers map[string]valmap.DefaultGroupSequenceProvider

	// FS, if set, is the file system paths are resolved against. Default: the OS file system.
	FS fs.FS
}

type fileSource struct {
	path string
	opts Options
}

// New creates a file-based constraint mapping source.
func New(path string, opts Options) valmap.Source {
	return &fileSource{
		path: path,
		opts: opts,
	}
}

// FromPaths creates one source per path, in order. Listed paths must exist.
func FromPaths(paths []string, opts Options) []valmap.Source {
	opts.Required = true

	sources := make([]valmap.Source, 0, len(paths))
	for _, p := range paths {
		sources = append(sources, New(p, opts))
	}
	return sources
}

// Apply reads the document and replays its declarations through the builder of m.
// Nothing is added when the document names unknown types, elements or providers.
func (f *fileSource) Apply(ctx context.Context, m *valmap.ConstraintMapping) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	doc, err := f.read()
	if err != nil {
		return err
	}

	r := newReplay(f.opts)
	steps := make([]func(*valmap.ConstraintMapping), 0, len(doc.Types))
	for i, td := range doc.Types {
		if step := r.typeStep(td, fmt.Sprintf("types[%d]", i)); step != nil {
			steps = append(steps, step)
		}
	}

	if len(r.errs) > 0 {
		return &valmap.ValidationError{FieldErrors: r.errs}
	}

	for _, step := range steps {
		step(m)
	}
	return nil
}

func (f *fileSource) read() (*document, error) {
	var data []byte
	var err error
	if f.opts.FS != nil {
		data, err = fs.ReadFile(f.opts.FS, f.path)
	} else {
		data, err = os.ReadFile(f.path)
	}
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			if f.opts.Required {
				return nil, fmt.Errorf("required mapping file not found: %s: %w", f.path, err)
			}
			return &document{}, nil
		}
		return nil, fmt.Errorf("read mapping file %s: %w", f.path, err)
	}

	format := f.opts.Format
	if format == "" {
		format = inferFormat(f.path)
	}

	var doc document
	if len(bytes.TrimSpace(data)) == 0 {
		return &doc, nil
	}

	switch format {
	case "yaml", "yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&doc); err != nil {
			if err == io.EOF {
				return &doc, nil // comments only
			}
			return nil, fmt.Errorf("parse YAML file %s: %w", f.path, err)
		}
		if err := expectEOF(dec.Decode); err != nil {
			return nil, fmt.Errorf("parse YAML file %s: %w", f.path, err)
		}
	case "json":
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&doc); err != nil {
			return nil, fmt.Errorf("parse JSON file %s: %w", f.path, err)
		}
		if err := expectEOF(dec.Decode); err != nil {
			return nil, fmt.Errorf("parse JSON file %s: %w", f.path, err)
		}
	case "toml":
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&doc); err != nil {
			return nil, fmt.Errorf("parse TOML file %s: %w", f.path, err)
		}
	default:
		return nil, fmt.Errorf("unsupported file format: %s (supported: yaml, json, toml)", format)
	}

	return &doc, nil
}

// expectEOF fails unless the stream holds no further document.
func expectEOF(decode func(any) error) error {
	var extra any
	err := decode(&extra)
	if err == io.EOF {
		return nil
	}
	if err != nil {
		return err
	}
	return errors.New("unexpected content after the first document")
}

// Name returns a human-readable identifier for this source.
func (f *fileSource) Name() string {
	return "file:" + filepath.Base(f.path)
}

func inferFormat(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		return "yaml"
	case ".json":
		return "json"
	case ".toml":
		return "toml"
	default:
		return ""
	}
}
