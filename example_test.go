package valmap_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"reflect"

	"github.com/Azhovan/valmap"
)

type Address struct {
	Street string
	City   string
}

type Person struct {
	FirstName string
	Age       int
	Address   *Address
}

func (p *Person) Rename(first string) error {
	p.FirstName = first
	return nil
}

// Example demonstrates declaring constraints with the fluent builder.
func Example() {
	m := valmap.NewConstraintMapping()

	valmap.ForType[Person](m).
		DefaultGroupSequence("Person", valmap.DefaultGroup).
		Property("firstName", valmap.ElementField).
		Constraint(valmap.NotBlank()).
		Constraint(valmap.Size(1, 50)).
		Property("age", valmap.ElementField).
		Constraint(valmap.Min(0)).
		Property("address", valmap.ElementField).
		Valid().
		Method("Rename", reflect.TypeOf("")).
		Parameter(0).
		Constraint(valmap.NotBlank())

	if err := m.Err(); err != nil {
		fmt.Println(err)
		return
	}

	if err := valmap.DumpMapping(os.Stdout, m); err != nil {
		fmt.Println(err)
	}

	// Output:
	// valmap_test.Person: default group sequence [Person, Default]
	// valmap_test.Person.firstName [field]: NotBlank
	// valmap_test.Person.firstName [field]: Size{max=50, min=1}
	// valmap_test.Person.age [field]: Min{value=0}
	// valmap_test.Person#Rename(string)[0] [parameter]: NotBlank
	// valmap_test.Person.address [field]: Valid
}

// ExampleValidationError shows how invalid declarations are reported.
func ExampleValidationError() {
	m := valmap.NewConstraintMapping()

	valmap.ForType[Person](m).
		Property("middleName", valmap.ElementField).
		Constraint(valmap.NotNull()).
		Method("Rename", reflect.TypeOf(0)).
		ReturnValue().
		Constraint(valmap.NotNull())

	var ve *valmap.ValidationError
	if errors.As(m.Err(), &ve) {
		for _, fe := range ve.FieldErrors {
			fmt.Printf("%s: %s\n", fe.Code, fe.FieldPath)
		}
	}

	// Output:
	// unknown_property: valmap_test.Person.middleName
	// unknown_method: valmap_test.Person#Rename(int)
}

// ExampleDumpMapping_asJSON demonstrates JSON output.
func ExampleDumpMapping_asJSON() {
	m := valmap.NewConstraintMapping()
	valmap.ForType[Address](m).
		Property("city", valmap.ElementField).
		Constraint(valmap.NotBlank().Message("city required"))

	if err := valmap.DumpMapping(os.Stdout, m, valmap.AsJSON()); err != nil {
		fmt.Println(err)
	}

	// Output:
	// [
	//   {
	//     "type": "valmap_test.Address",
	//     "constraints": [
	//       {
	//         "location": "valmap_test.Address.city",
	//         "element": "field",
	//         "kind": "NotBlank",
	//         "params": {
	//           "message": "city required"
	//         }
	//       }
	//     ]
	//   }
	// ]
}

// addressRules is a Source contributing declarations for Address.
type addressRules struct{}

func (addressRules) Name() string { return "rules:address" }

func (addressRules) Apply(ctx context.Context, m *valmap.ConstraintMapping) error {
	valmap.ForType[Address](m).
		Property("street", valmap.ElementField).
		Constraint(valmap.NotBlank())
	return nil
}

// ExampleConstraintMapping_Provenance demonstrates tracing declarations back to their source.
func ExampleConstraintMapping_Provenance() {
	m := valmap.NewConstraintMapping()
	valmap.ForType[Person](m).Constraint(valmap.NotNull())

	if err := m.Apply(context.Background(), addressRules{}); err != nil {
		fmt.Println(err)
		return
	}

	for _, d := range m.Provenance().Declarations {
		fmt.Printf("%s %s <- %s\n", d.Location, d.Kind, d.SourceName)
	}

	// Output:
	// valmap_test.Person NotNull <- programmatic
	// valmap_test.Address.street NotBlank <- rules:address
}
