package api

import "fmt"

// ErrCreateOpenapiSchema is returned when the schema for one of the api's
// types cannot be generated.
type ErrCreateOpenapiSchema struct {
	name string
	err  error
}

func (e *ErrCreateOpenapiSchema) Error() string {
	return fmt.Sprintf("failed to create schema for %s: %v", e.name, e.err)
}

func (e *ErrCreateOpenapiSchema) Unwrap() error {
	return e.err
}
