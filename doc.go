// Package valmap provides a fluent, programmatic API for declaring validation constraints on
// Go types, properties and methods.
//
// Quick Start:
//
//	m := valmap.NewConstraintMapping()
//	valmap.ForType[Person](m).
//	    Constraint(valmap.Generic("ValidPerson")).
//	    DefaultGroupSequence("Person", "Strict").
//	    Property("name", valmap.ElementField).
//	        Constraint(valmap.NotNull()).
//	        Constraint(valmap.Size(1, 64).Message("name too long")).
//	    Property("address", valmap.ElementField).
//	        Valid().
//	    Method("Rename", reflect.TypeOf("")).
//	        Parameter(0).Constraint(valmap.NotBlank())
//
//	if err := m.Err(); err != nil {
//	    // *ValidationError listing every invalid declaration
//	}
//
// Declarations can also come from `constraint` struct tags (FromTags) or mapping documents
// (see sourcefile) through ConstraintMapping.Apply. CreateSnapshot and WriteSnapshot persist
// the effective mapping. The mapping only collects declarations; evaluating them is the
// job of a validation engine.
//
// See example_test.go for detailed usage.
package valmap
