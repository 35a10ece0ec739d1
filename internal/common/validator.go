package common

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// ValidationError carries field messages and, for forms, the rejected input so it can be shown again.
type ValidationError struct {
	Errors map[string]string
	Input  map[string]string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation errors: %+v", e.Errors)
}

type Validator struct {
	Errors map[string]string
	Input  map[string]string
}

func NewValidator() *Validator {
	return &Validator{Errors: make(map[string]string)}
}

func (v *Validator) Valid() bool {
	return len(v.Errors) == 0
}

func (v *Validator) AddError(field, message string) {
	if _, ok := v.Errors[field]; !ok {
		v.Errors[field] = message
	}
}

func (v *Validator) Check(ok bool, field, message string) {
	if !ok {
		v.AddError(field, message)
	}
}

// Keep records a submitted value that is echoed back in the ValidationError.
func (v *Validator) Keep(field, value string) {
	if v.Input == nil {
		v.Input = make(map[string]string)
	}
	v.Input[field] = value
}

func (v *Validator) CheckStringLength(s string, min, max int) bool {
	n := utf8.RuneCountInString(s)
	return n >= min && n <= max
}

func (v *Validator) NotBlank(s string) bool {
	return strings.TrimSpace(s) != ""
}

func (v *Validator) ValidationError() error {
	return ValidationError{Errors: v.Errors, Input: v.Input}
}
