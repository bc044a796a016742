// Package sourcefile loads constraint mappings from YAML, JSON, or TOML files.
//
// Format is auto-detected from extension (.yaml, .json, .toml).
// A document lists types with their class-level constraints, properties and methods:
//
//	types:
//	  - type: shop.Order
//	    defaultGroupSequence: [Order, Default]
//	    properties:
//	      - name: number
//	        constraints:
//	          - kind: Size
//	            params: {min: 1, max: 36, message: "invalid order number"}
//	      - name: customer
//	        valid: true
//	    methods:
//	      - name: Place
//	        parameters: [string, int]
//	        arguments:
//	          - index: 1
//	            constraints: [{kind: Range, params: {min: 1, max: 100}}]
//
// Type names are resolved from Options.Types; predeclared types, time.Time, time.Duration
// and context.Context are always known.
//
// Example:
//
//	source := sourcefile.New("order.yaml", sourcefile.Options{
//		Required: true,
//		Types:    []reflect.Type{reflect.TypeOf(shop.Order{})},
//	})
//	err := mapping.Apply(ctx, source)
package sourcefile
