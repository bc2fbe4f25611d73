// Package validators contains table-level validators: checks spanning
// multiple rows or columns that run after every field has validated cleanly.
//
// Validators are stateless and must not mutate the frame they inspect.
package validators

import "tabular/internal/frame"

// Validator inspects a fully coerced frame and returns zero or more
// table-level error messages.
type Validator interface {
	Validate(f *frame.Frame) []string
}

// Func adapts a plain function to the Validator interface.
type Func func(f *frame.Frame) []string

// Validate calls fn.
func (fn Func) Validate(f *frame.Frame) []string { return fn(f) }
