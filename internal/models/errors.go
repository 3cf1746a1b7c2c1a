package models

import "fmt"

// ValidationError is returned when user input is rejected before any work
// is done: no file selected, unsupported type, or file too large.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// ReadError is returned when file content could not be read or decoded.
type ReadError struct {
	FileName string
	Err      error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("failed to read %s: %v", e.FileName, e.Err)
}

func (e *ReadError) Unwrap() error {
	return e.Err
}

// ErrMissingInput is returned when analysis is requested before any file
// was supplied.
var ErrMissingInput = &ValidationError{Message: "please upload a file first"}

// NewUnsupportedFileError reports a file whose type intake does not accept.
func NewUnsupportedFileError(name string) *ValidationError {
	return &ValidationError{
		Message: fmt.Sprintf("unsupported file type: %s (allowed: txt, csv, xlsx, xls, jpg, jpeg, png)", name),
	}
}
