package bootstrap

import (
	"embed"
	"fmt"
	"io/fs"
	"sync"
)

//go:embed schema/*.xsd
var embeddedSchemas embed.FS

// schemasByVersion maps a schema version to its resource in the schema FS.
// Read-mostly; safe for concurrent lookup.
var schemasByVersion sync.Map

// compiledSchemas caches schemas compiled from embeddedSchemas by resource path.
var compiledSchemas sync.Map

func init() {
	schemasByVersion.Store("1.0", "schema/validation-configuration-1.0.xsd")
	schemasByVersion.Store("1.1", "schema/validation-configuration-1.1.xsd")
}

// SchemaResource returns the schema resource for a version.
func SchemaResource(version string) (string, bool) {
	v, ok := schemasByVersion.Load(version)
	if !ok {
		return "", false
	}
	resource, ok := v.(string)
	return resource, ok
}

// SupportedVersions lists the known schema versions.
func SupportedVersions() []string {
	var versions []string
	schemasByVersion.Range(func(key, _ any) bool {
		versions = append(versions, key.(string))
		return true
	})
	return versions
}

// compileEmbedded returns the compiled embedded schema for a resource, compiling it on first use.
func compileEmbedded(resource string) (*Schema, error) {
	if cached, ok := compiledSchemas.Load(resource); ok {
		return cached.(*Schema), nil
	}

	schema, err := compileSchema(embeddedSchemas, resource)
	if err != nil {
		return nil, err
	}

	actual, _ := compiledSchemas.LoadOrStore(resource, schema)
	return actual.(*Schema), nil
}

// compileSchema reads and compiles a schema resource from fsys.
func compileSchema(fsys fs.FS, resource string) (*Schema, error) {
	data, err := fs.ReadFile(fsys, resource)
	if err != nil {
		return nil, fmt.Errorf("read schema %s: %w", resource, err)
	}

	schema, err := parseXSD(data)
	if err != nil {
		return nil, fmt.Errorf("compile schema %s: %w", resource, err)
	}
	schema.resource = resource
	return schema, nil
}
