// Package apperr holds the error taxonomy shared by the lifecycle handlers.
package apperr

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrValidation = errors.New("validation failed")
	ErrPermission = errors.New("permission denied")
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
	ErrStorage    = errors.New("storage failure")
)

// FieldError describes a single rejected input field.
type FieldError struct {
	Field   string
	Message string
	Cause   error
}

func (f FieldError) String() string {
	if f.Field == "" {
		return f.Message
	}
	return f.Field + ": " + f.Message
}

// ValidationError carries one or more field-level failures.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	if e == nil || len(e.Fields) == 0 {
		return ErrValidation.Error()
	}
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.String())
	}
	return ErrValidation.Error() + ": " + strings.Join(parts, "; ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func (e *ValidationError) Unwrap() []error {
	if e == nil {
		return nil
	}
	causes := make([]error, 0, len(e.Fields))
	for _, f := range e.Fields {
		if f.Cause != nil {
			causes = append(causes, f.Cause)
		}
	}
	return causes
}

// Map returns field -> message, the shape the HTTP adapter renders.
func (e *ValidationError) Map() map[string]string {
	out := make(map[string]string, len(e.Fields))
	for _, f := range e.Fields {
		out[f.Field] = f.Message
	}
	return out
}

// Collector accumulates field errors while validating a payload.
type Collector struct {
	fields []FieldError
}

// Add records err against field. Nil errors are ignored.
func (c *Collector) Add(field string, err error) {
	if err == nil {
		return
	}
	c.fields = append(c.fields, FieldError{Field: field, Message: err.Error(), Cause: err})
}

// Addf records a message without an underlying cause.
func (c *Collector) Addf(field, format string, args ...any) {
	c.fields = append(c.fields, FieldError{Field: field, Message: fmt.Sprintf(format, args...)})
}

func (c *Collector) Empty() bool {
	return len(c.fields) == 0
}

// Err returns nil when nothing was collected.
func (c *Collector) Err() error {
	if len(c.fields) == 0 {
		return nil
	}
	return &ValidationError{Fields: append([]FieldError(nil), c.fields...)}
}

// Field wraps a single cause into a ValidationError.
func Field(field string, err error) error {
	if err == nil {
		return nil
	}
	return &ValidationError{Fields: []FieldError{{Field: field, Message: err.Error(), Cause: err}}}
}

func NotFound(kind, id string) error {
	return fmt.Errorf("%w: %s %s", ErrNotFound, kind, id)
}

func Permission(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrPermission, fmt.Sprintf(format, args...))
}

// Merge folds several validation failures into one so the caller sees every
// rejected field. The first non-validation error is returned unchanged.
func Merge(errs ...error) error {
	var out []FieldError
	for _, err := range errs {
		if err == nil {
			continue
		}
		var verr *ValidationError
		if !errors.As(err, &verr) {
			return err
		}
		out = append(out, verr.Fields...)
	}
	if len(out) == 0 {
		return nil
	}
	return &ValidationError{Fields: out}
}
