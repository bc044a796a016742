// Package bootstrap reads the bootstrap configuration of the validation engine.
//
// The configuration lives in an optional XML resource (META-INF/validation.xml by default).
// Its root element declares a schema version; versions 1.0 and 1.1 are supported, and a
// document without a version attribute is read as 1.0. The document is validated against
// the embedded schema of its version before it is converted into a ConfigurationSource.
// An absent resource yields DefaultConfiguration.
//
// Example:
//
//	src, err := bootstrap.NewLoader().
//		WithFS(os.DirFS("resources")).
//		WithOverlay(sourceenv.New(sourceenv.Options{})).
//		Load(ctx)
//	if err != nil {
//		var cfgErr *bootstrap.ConfigurationError
//		if errors.As(err, &cfgErr) {
//			log.Fatalf("invalid %s: %v", cfgErr.Resource, cfgErr.Err)
//		}
//	}
//
// Every configured field records its origin:
//
//	origin, _ := src.Origin(bootstrap.FieldDefaultProvider) // "file:META-INF/validation.xml"
package bootstrap
