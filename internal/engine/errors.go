package engine

import (
	"errors"
	"fmt"

	"github.com/roach88/icetime/internal/ir"
)

// ErrorCode categorizes game failures.
type ErrorCode string

const (
	// ErrCodeMalformedInput indicates a document that is missing fields,
	// carries unparseable values, or contains a record with no handling rule.
	ErrCodeMalformedInput ErrorCode = "MALFORMED_INPUT"

	// ErrCodeUnresolvedReference indicates a team or player reference the
	// roster cannot resolve.
	ErrCodeUnresolvedReference ErrorCode = "UNRESOLVED_REFERENCE"

	// ErrCodeReconciliationFailed indicates recounted time on ice disagrees
	// with the reported totals.
	ErrCodeReconciliationFailed ErrorCode = "RECONCILIATION_FAILED"

	// ErrCodeMissingInput indicates a required document does not exist.
	ErrCodeMissingInput ErrorCode = "MISSING_INPUT"
)

// GameError is a failure reconstructing one game.
type GameError struct {
	// Code identifies the error category.
	Code ErrorCode

	// GameID identifies the affected game.
	GameID int64

	// Document and Record locate input defects.
	Document string
	Record   string

	// Message is a human-readable description.
	Message string

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *GameError) Error() string {
	msg := e.Message
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	loc := ""
	switch {
	case e.Document != "" && e.Record != "":
		loc = fmt.Sprintf(" (%s, %s)", e.Document, e.Record)
	case e.Document != "":
		loc = fmt.Sprintf(" (%s)", e.Document)
	}
	if e.GameID != 0 {
		return fmt.Sprintf("%s: game %d%s: %s", e.Code, e.GameID, loc, msg)
	}
	return fmt.Sprintf("%s%s: %s", e.Code, loc, msg)
}

func (e *GameError) Unwrap() error {
	return e.Err
}

// CodeOf returns the code of the first GameError in err's chain, or "".
func CodeOf(err error) ErrorCode {
	var ge *GameError
	if errors.As(err, &ge) {
		return ge.Code
	}
	return ""
}

// IsInputError returns true if err reports a malformed or unresolved input.
func IsInputError(err error) bool {
	code := CodeOf(err)
	return code == ErrCodeMalformedInput || code == ErrCodeUnresolvedReference
}

// IsReconciliationError returns true if err reports a time-on-ice mismatch.
func IsReconciliationError(err error) bool {
	return CodeOf(err) == ErrCodeReconciliationFailed
}

// IsMissingInputError returns true if err reports an absent document.
func IsMissingInputError(err error) bool {
	return CodeOf(err) == ErrCodeMissingInput
}

// Game outcome statuses.
const (
	StatusVerified   = "verified"
	StatusUnverified = "unverified"
	StatusFailed     = "failed"
	StatusMissing    = "missing"
)

// StatusOf classifies the error returned for one game. A nil error means
// the timeline was verified.
func StatusOf(err error) string {
	switch {
	case err == nil:
		return StatusVerified
	case IsMissingInputError(err):
		return StatusMissing
	case IsReconciliationError(err):
		return StatusUnverified
	default:
		return StatusFailed
	}
}

// NewMissingInputError creates a GameError for an absent document.
func NewMissingInputError(gameID int64, document string, err error) *GameError {
	return &GameError{
		Code:     ErrCodeMissingInput,
		GameID:   gameID,
		Document: document,
		Message:  "input document not found",
		Err:      err,
	}
}

// fromInputError lifts a decoding or scan failure into a GameError.
// Errors that are not input errors pass through unchanged.
func fromInputError(gameID int64, err error) error {
	ie, ok := ir.AsInputError(err)
	if !ok {
		return err
	}
	code := ErrCodeMalformedInput
	if ie.Kind == ir.ErrKindUnresolved {
		code = ErrCodeUnresolvedReference
	}
	return &GameError{
		Code:     code,
		GameID:   gameID,
		Document: ie.Document,
		Record:   ie.Record,
		Message:  ie.Message,
		Err:      ie.Err,
	}
}
