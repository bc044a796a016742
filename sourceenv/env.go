package sourceenv

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"reflect"
	"strings"

	"github.com/Azhovan/valmap/bootstrap"
	"github.com/Azhovan/valmap/internal/normalize"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// DefaultPrefix is used when Options.Prefix is empty.
const DefaultPrefix = "VALIDATION_"

// Variable names, relative to the prefix.
const (
	VarDefaultProvider             = "DEFAULT_PROVIDER"
	VarConstraintValidatorFactory  = "CONSTRAINT_VALIDATOR_FACTORY"
	VarMessageInterpolator         = "MESSAGE_INTERPOLATOR"
	VarTraversableResolver         = "TRAVERSABLE_RESOLVER"
	VarParameterNameProvider       = "PARAMETER_NAME_PROVIDER"
	VarConstraintMappings          = "CONSTRAINT_MAPPINGS"
	VarExecutableValidationEnabled = "EXECUTABLE_VALIDATION_ENABLED"
	VarDefaultValidatedExecutables = "DEFAULT_VALIDATED_EXECUTABLE_TYPES"
	VarPropertyPrefix              = "PROPERTY__"
)

// Options configures the environment overlay.
type Options struct {
	// Prefix is prepended to every variable name. Default: DefaultPrefix.
	Prefix string

	// DotEnvFiles are read in order before the process environment; later files override
	// earlier ones and the process environment overrides all of them. Missing files are skipped.
	DotEnvFiles []string
}

// overrides receives the typed variables. Nil fields were not set.
type overrides struct {
	DefaultProvider             *string                    `env:"DEFAULT_PROVIDER"`
	ConstraintValidatorFactory  *string                    `env:"CONSTRAINT_VALIDATOR_FACTORY"`
	MessageInterpolator         *string                    `env:"MESSAGE_INTERPOLATOR"`
	TraversableResolver         *string                    `env:"TRAVERSABLE_RESOLVER"`
	ParameterNameProvider       *string                    `env:"PARAMETER_NAME_PROVIDER"`
	ConstraintMappings          []string                   `env:"CONSTRAINT_MAPPINGS" envSeparator:","`
	ExecutableValidationEnabled *bool                      `env:"EXECUTABLE_VALIDATION_ENABLED"`
	DefaultValidatedExecutables []bootstrap.ExecutableType `env:"DEFAULT_VALIDATED_EXECUTABLE_TYPES" envSeparator:","`
}

type envOverlay struct {
	opts Options
}

// New creates an overlay that applies environment overrides to a bootstrap configuration.
func New(opts Options) bootstrap.Overlay {
	if opts.Prefix == "" {
		opts.Prefix = DefaultPrefix
	}
	return &envOverlay{opts: opts}
}

// Apply overrides cfg with the variables present in the environment.
// Scalar fields and properties are replaced; constraint mappings are appended.
func (e *envOverlay) Apply(ctx context.Context, cfg *bootstrap.ConfigurationSource) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	environ, err := e.environment()
	if err != nil {
		return err
	}

	var o overrides
	err = env.ParseWithOptions(&o, env.Options{
		Prefix:      e.opts.Prefix,
		Environment: environ,
		FuncMap: map[reflect.Type]env.ParserFunc{
			reflect.TypeOf(bootstrap.ExecutableType("")): func(v string) (any, error) {
				return bootstrap.ParseExecutableType(v)
			},
		},
	})
	if err != nil {
		return fmt.Errorf("parse environment: %w", err)
	}

	e.setString(cfg, bootstrap.FieldDefaultProvider, VarDefaultProvider, o.DefaultProvider, &cfg.DefaultProvider)
	e.setString(cfg, bootstrap.FieldConstraintValidatorFactory, VarConstraintValidatorFactory, o.ConstraintValidatorFactory, &cfg.ConstraintValidatorFactory)
	e.setString(cfg, bootstrap.FieldMessageInterpolator, VarMessageInterpolator, o.MessageInterpolator, &cfg.MessageInterpolator)
	e.setString(cfg, bootstrap.FieldTraversableResolver, VarTraversableResolver, o.TraversableResolver, &cfg.TraversableResolver)
	e.setString(cfg, bootstrap.FieldParameterNameProvider, VarParameterNameProvider, o.ParameterNameProvider, &cfg.ParameterNameProvider)

	for _, path := range o.ConstraintMappings {
		if path = strings.TrimSpace(path); path != "" {
			cfg.AddConstraintMapping(path, e.origin(VarConstraintMappings))
		}
	}

	if o.ExecutableValidationEnabled != nil {
		cfg.ExecutableValidation.Enabled = *o.ExecutableValidationEnabled
		cfg.SetOrigin(bootstrap.FieldExecutableValidation, e.origin(VarExecutableValidationEnabled))
	}
	if len(o.DefaultValidatedExecutables) > 0 {
		cfg.ExecutableValidation.DefaultValidatedExecutableTypes = o.DefaultValidatedExecutables
		cfg.SetOrigin(bootstrap.FieldExecutableValidation, e.origin(VarDefaultValidatedExecutables))
	}

	propertyPrefix := e.opts.Prefix + VarPropertyPrefix
	for key, value := range environ {
		if !strings.HasPrefix(key, propertyPrefix) {
			continue
		}
		name := normalize.ToLowerDotPath(key[len(propertyPrefix):])
		if name == "" {
			continue
		}
		cfg.SetProperty(name, value, "env:"+key)
	}

	return nil
}

func (e *envOverlay) setString(cfg *bootstrap.ConfigurationSource, field, variable string, value *string, dst *string) {
	if value == nil {
		return
	}
	*dst = strings.TrimSpace(*value)
	cfg.SetOrigin(field, e.origin(variable))
}

func (e *envOverlay) origin(variable string) string {
	return "env:" + e.opts.Prefix + variable
}

// environment merges the .env files with the process environment.
func (e *envOverlay) environment() (map[string]string, error) {
	environ := make(map[string]string)

	for _, file := range e.opts.DotEnvFiles {
		values, err := godotenv.Read(file)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("read env file %s: %w", file, err)
		}
		for k, v := range values {
			environ[k] = v
		}
	}

	for _, kv := range os.Environ() {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || key == "" {
			continue
		}
		environ[key] = value
	}

	return environ, nil
}

// Name returns a human-readable identifier for this overlay.
func (e *envOverlay) Name() string {
	return "env"
}
