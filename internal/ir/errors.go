package ir

import (
	"errors"
	"fmt"
)

// InputErrorKind classifies a defect found in the raw inputs.
type InputErrorKind string

const (
	// ErrKindMalformed marks missing fields, unparseable values, or records
	// for which no handling rule exists.
	ErrKindMalformed InputErrorKind = "malformed"

	// ErrKindUnresolved marks a team or player reference that the roster
	// cannot resolve.
	ErrKindUnresolved InputErrorKind = "unresolved"
)

// InputError identifies the offending document and record.
type InputError struct {
	Kind     InputErrorKind
	Document string
	Record   string
	Message  string
	Err      error
}

func (e *InputError) Error() string {
	msg := e.Message
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	switch {
	case e.Document != "" && e.Record != "":
		return fmt.Sprintf("%s: %s: %s", e.Document, e.Record, msg)
	case e.Document != "":
		return fmt.Sprintf("%s: %s", e.Document, msg)
	}
	return msg
}

func (e *InputError) Unwrap() error {
	return e.Err
}

// Malformed creates a malformed-input error.
func Malformed(document, record, format string, args ...any) *InputError {
	return &InputError{Kind: ErrKindMalformed, Document: document, Record: record, Message: fmt.Sprintf(format, args...)}
}

// Unresolved creates an unresolved-reference error.
func Unresolved(document, record, format string, args ...any) *InputError {
	return &InputError{Kind: ErrKindUnresolved, Document: document, Record: record, Message: fmt.Sprintf(format, args...)}
}

// AsInputError extracts an InputError from an error chain.
func AsInputError(err error) (*InputError, bool) {
	var ie *InputError
	if errors.As(err, &ie) {
		return ie, true
	}
	return nil, false
}
