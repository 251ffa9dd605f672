// Package validator wraps go-playground struct validation so handlers
// take an injected instance instead of a package global.
package validator

import "github.com/go-playground/validator/v10"

// Validator validates request DTOs against their `validate` tags.
type Validator struct {
	v *validator.Validate
}

// New creates a Validator with the default tag set.
func New() *Validator {
	return &Validator{v: validator.New()}
}

// Struct validates a struct based on its validation tags.
func (val *Validator) Struct(s interface{}) error {
	return val.v.Struct(s)
}
