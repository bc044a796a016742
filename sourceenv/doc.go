// Package sourceenv overrides the bootstrap configuration from environment variables.
//
// Variables (with the default prefix VALIDATION_):
//
//	VALIDATION_DEFAULT_PROVIDER                   replaces default-provider
//	VALIDATION_CONSTRAINT_VALIDATOR_FACTORY       replaces constraint-validator-factory
//	VALIDATION_MESSAGE_INTERPOLATOR               replaces message-interpolator
//	VALIDATION_TRAVERSABLE_RESOLVER               replaces traversable-resolver
//	VALIDATION_PARAMETER_NAME_PROVIDER            replaces parameter-name-provider
//	VALIDATION_CONSTRAINT_MAPPINGS                comma list, appended to constraint-mapping
//	VALIDATION_EXECUTABLE_VALIDATION_ENABLED      replaces executable-validation/@enabled
//	VALIDATION_DEFAULT_VALIDATED_EXECUTABLE_TYPES comma list, replaces the executable types
//	VALIDATION_PROPERTY__<KEY>                    sets property <key>
//
// Property key normalization: FOO__BAR → foo.bar, FOO_BAR → foo_bar
//
// Example:
//
//	overlay := sourceenv.New(sourceenv.Options{DotEnvFiles: []string{".env"}})
//	src, err := bootstrap.NewLoader().WithOverlay(overlay).Load(ctx)
package sourceenv
