package valmap

import "reflect"

type Address struct {
	Street string
	City   string
}

type Person struct {
	FirstName string
	Age       int
	Address   *Address
	Tags      []string
	nickname  string
}

func (p *Person) FullName() string { return p.FirstName }

func (p *Person) IsAdult() bool { return p.Age >= 18 }

func (p *Person) Rename(first, last string) error { return nil }

func (p *Person) Relocate(a Address) *Address { return &a }

func (p *Person) Touch() {}

type Named interface {
	Name() string
	Greet(greeting string) string
}

type Celsius float64

func (c Celsius) Fahrenheit() float64 { return float64(c)*9/5 + 32 }

var (
	personType  = reflect.TypeOf(Person{})
	addressType = reflect.TypeOf(Address{})
	namedType   = reflect.TypeOf((*Named)(nil)).Elem()
	stringType  = reflect.TypeOf("")
)

// validationErr returns the *ValidationError reported by m, or nil.
func validationErr(m *ConstraintMapping) *ValidationError {
	err := m.Err()
	if err == nil {
		return nil
	}
	return err.(*ValidationError)
}
