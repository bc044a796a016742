package bootstrap

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"
)

// DefaultResource is the conventional location of the bootstrap configuration.
const DefaultResource = "META-INF/validation.xml"

// Loader locates, validates and converts the bootstrap configuration resource.
// A Loader is not safe for concurrent configuration changes; Load may be called concurrently.
type Loader struct {
	fsys     []fs.FS
	resource string
	overlays []Overlay
	logger   *slog.Logger
	schemas  fs.FS // Schema lookup override; nil uses the embedded schemas
}

// NewLoader creates a Loader reading DefaultResource relative to the working directory.
func NewLoader() *Loader {
	return &Loader{
		resource: DefaultResource,
		logger:   slog.Default(),
	}
}

// WithFS adds roots searched for the resource. Roots are searched in order; the first hit wins.
func (l *Loader) WithFS(fsys ...fs.FS) *Loader {
	l.fsys = append(l.fsys, fsys...)
	return l
}

// WithResource sets the resource path (slash-separated, relative to each root).
func (l *Loader) WithResource(resource string) *Loader {
	l.resource = resource
	return l
}

// WithOverlay adds an overlay. Overlays run in order after the resource is loaded.
func (l *Loader) WithOverlay(o Overlay) *Loader {
	l.overlays = append(l.overlays, o)
	return l
}

// WithLogger sets the logger. A nil logger restores slog.Default().
func (l *Loader) WithLogger(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	l.logger = logger
	return l
}

func (l *Loader) withSchemaFS(fsys fs.FS) *Loader {
	l.schemas = fsys
	return l
}

// Load reads the configuration resource and applies overlays.
// An absent resource yields DefaultConfiguration. Any other failure is a *ConfigurationError.
func (l *Loader) Load(ctx context.Context) (*ConfigurationSource, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l.logger.Debug("trying to load configuration", "resource", l.resource)

	f, err := l.open()
	var src *ConfigurationSource
	switch {
	case errors.Is(err, fs.ErrNotExist):
		l.logger.Debug("no configuration found, using defaults", "resource", l.resource)
		src = DefaultConfiguration()
	case err != nil:
		return nil, configError(l.resource, "open", fmt.Errorf("%w: %v", ErrResourceRead, err))
	default:
		src, err = l.Parse(ctx, f, l.resource)
		if cerr := f.Close(); cerr != nil {
			l.logger.Warn("unable to close configuration", "resource", l.resource, "error", cerr)
		}
		if err != nil {
			return nil, err
		}
	}

	for _, o := range l.overlays {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := o.Apply(ctx, src); err != nil {
			return nil, fmt.Errorf("apply overlay %s: %w", o.Name(), err)
		}
	}

	return src, nil
}

// Parse runs the version, schema and unmarshal steps over an open stream.
// name identifies the stream in errors, logs and origins. Overlays are not applied.
func (l *Loader) Parse(ctx context.Context, r io.Reader, name string) (*ConfigurationSource, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l.logger.Info("parsing XML file", "resource", name)

	version, r, err := schemaVersion(name, r)
	if err != nil {
		return nil, err
	}

	resource, ok := SchemaResource(version)
	if !ok {
		return nil, configError(name, "version", fmt.Errorf("%w: %q (supported: %s)",
			ErrUnsupportedSchemaVersion, version, strings.Join(SupportedVersions(), ", ")))
	}

	schema, err := l.schema(resource)
	if err != nil {
		l.logger.Warn("unable to create schema, configuration is not validated",
			"resource", name, "schema", resource, "error", err)
	}

	var doc *validationConfig
	if schema != nil {
		// Validation consumes the stream, so buffer it for the unmarshal pass.
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, configError(name, "read", fmt.Errorf("%w: %v", ErrResourceRead, err))
		}

		violations, err := schema.Validate(bytes.NewReader(data))
		if err != nil {
			return nil, configError(name, "validate", fmt.Errorf("%w: %v", ErrUnparsableXML, err))
		}
		if len(violations) > 0 {
			return nil, configError(name, "validate", fmt.Errorf("%w: %s",
				ErrSchemaViolation, strings.Join(violations, "; ")))
		}

		doc, err = unmarshalConfig(bytes.NewReader(data))
		if err != nil {
			return nil, configError(name, "unmarshal", fmt.Errorf("%w: %v", ErrUnparsableXML, err))
		}
	} else {
		doc, err = unmarshalConfig(r)
		if err != nil {
			return nil, configError(name, "unmarshal", fmt.Errorf("%w: %v", ErrUnparsableXML, err))
		}
	}

	src, err := doc.toSource(name, version, l.logger)
	if err != nil {
		return nil, configError(name, "convert", fmt.Errorf("%w: %v", ErrUnparsableXML, err))
	}
	return src, nil
}

func (l *Loader) schema(resource string) (*Schema, error) {
	if l.schemas != nil {
		return compileSchema(l.schemas, resource)
	}
	return compileEmbedded(resource)
}

// open returns the resource from the first root that has it.
func (l *Loader) open() (fs.File, error) {
	roots := l.fsys
	if len(roots) == 0 {
		roots = []fs.FS{os.DirFS(".")}
	}

	for _, root := range roots {
		f, err := root.Open(l.resource)
		if err == nil {
			return f, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}
	return nil, fs.ErrNotExist
}
