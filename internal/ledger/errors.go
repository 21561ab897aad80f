package ledger

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrValidation indicates missing or malformed caller input.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound indicates the code does not resolve to an active record.
	ErrNotFound = errors.New("record not found")
	// ErrInvalidStage indicates the record is not at the stage the operation requires.
	ErrInvalidStage = errors.New("invalid stage for operation")
	// ErrBackendUnavailable indicates the persistence layer could not be reached.
	ErrBackendUnavailable = errors.New("ledger backend unavailable")
	// ErrCodeExhausted indicates no unused code could be generated.
	ErrCodeExhausted = errors.New("unable to generate unique code")
)

// FieldError describes one rejected input field.
type FieldError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Message string `json:"message"`
}

// ValidationError carries the field-level details of a rejected call.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return ErrValidation.Error()
	}
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Message)
	}
	return fmt.Sprintf("%s: %s", ErrValidation.Error(), strings.Join(parts, "; "))
}

// Unwrap lets errors.Is match ErrValidation.
func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// StageError reports a transition attempted from the wrong stage.
type StageError struct {
	Code     string
	Actual   string
	Required string
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: record %s is at stage %s, requires %s", ErrInvalidStage.Error(), e.Code, e.Actual, e.Required)
}

// Unwrap lets errors.Is match ErrInvalidStage.
func (e *StageError) Unwrap() error {
	return ErrInvalidStage
}

func notFound(code string) error {
	return fmt.Errorf("%w: %s", ErrNotFound, code)
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrBackendUnavailable, op, err)
}

// Wire codes used by the HTTP API and its clients.
const (
	CodeValidation   = "VALIDATION_ERROR"
	CodeNotFound     = "NOT_FOUND"
	CodeInvalidStage = "INVALID_STAGE"
	CodeUnavailable  = "BACKEND_UNAVAILABLE"
	CodeInternal     = "INTERNAL_ERROR"
)

// ErrorCode classifies err into a wire code.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrValidation):
		return CodeValidation
	case errors.Is(err, ErrNotFound):
		return CodeNotFound
	case errors.Is(err, ErrInvalidStage):
		return CodeInvalidStage
	case errors.Is(err, ErrBackendUnavailable):
		return CodeUnavailable
	default:
		return CodeInternal
	}
}

// FromCode rebuilds a ledger error from a wire code so errors.Is keeps working
// across the API boundary.
func FromCode(code, message string, fields []FieldError) error {
	switch code {
	case CodeValidation:
		if len(fields) == 0 {
			fields = []FieldError{{Tag: "invalid", Message: message}}
		}
		return &ValidationError{Fields: fields}
	case CodeNotFound:
		return rewrap(ErrNotFound, message)
	case CodeInvalidStage:
		return rewrap(ErrInvalidStage, message)
	case CodeUnavailable:
		return rewrap(ErrBackendUnavailable, message)
	default:
		return fmt.Errorf("ledger api: %s", message)
	}
}

func rewrap(sentinel error, message string) error {
	detail := strings.TrimPrefix(message, sentinel.Error()+": ")
	if detail == "" || detail == sentinel.Error() {
		return sentinel
	}
	return fmt.Errorf("%w: %s", sentinel, detail)
}
