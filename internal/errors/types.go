package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// ConvertError describes a failure of a conversion run with enough context
// to tell the user which input, token or row caused it.
type ConvertError struct {
	Type    ErrorType `json:"type"`
	Message string    `json:"message"`
	Path    string    `json:"path,omitempty"`
	Token   string    `json:"token,omitempty"`
	Row     int       `json:"row"`
	Err     error     `json:"-"`
}

// ErrorType represents the categories of conversion errors
type ErrorType int

const (
	ErrorTypeUnknown ErrorType = iota
	ErrorTypeInputNotFound
	ErrorTypeInputUnreadable
	ErrorTypeInvalidRowSelection
	ErrorTypeOutputDirectory
	ErrorTypeRenderFailure
	ErrorTypeNoRowsSelected
)

// Error implements the error interface
func (e *ConvertError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s", e.Type.String(), e.Message)
	if e.Token != "" {
		fmt.Fprintf(&b, " (token %q)", e.Token)
	}
	if e.Path != "" {
		fmt.Fprintf(&b, ": %s", e.Path)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

// Unwrap returns the underlying cause
func (e *ConvertError) Unwrap() error {
	return e.Err
}

// Is reports whether target is a ConvertError of the same type.
// This lets callers match on kind with errors.Is(err, &ConvertError{Type: ...}).
func (e *ConvertError) Is(target error) bool {
	t, ok := target.(*ConvertError)
	if !ok {
		return false
	}
	return t.Type == e.Type
}

// String returns a string representation of the ErrorType
func (et ErrorType) String() string {
	switch et {
	case ErrorTypeInputNotFound:
		return "INPUT_NOT_FOUND"
	case ErrorTypeInputUnreadable:
		return "INPUT_UNREADABLE"
	case ErrorTypeInvalidRowSelection:
		return "INVALID_ROW_SELECTION"
	case ErrorTypeOutputDirectory:
		return "OUTPUT_DIRECTORY"
	case ErrorTypeRenderFailure:
		return "RENDER_FAILURE"
	case ErrorTypeNoRowsSelected:
		return "NO_ROWS_SELECTED"
	default:
		return "UNKNOWN"
	}
}

// IsRecoverable reports whether a run may continue past this error when
// per-row isolation is enabled. Only row-scoped failures qualify.
func (et ErrorType) IsRecoverable() bool {
	return et == ErrorTypeRenderFailure
}

// New creates a ConvertError of the given type
func New(errorType ErrorType, message string) *ConvertError {
	return &ConvertError{Type: errorType, Message: message, Row: -1}
}

// Wrap wraps err as a ConvertError of the given type
func Wrap(errorType ErrorType, message string, err error) *ConvertError {
	return &ConvertError{Type: errorType, Message: message, Err: err, Row: -1}
}

// WithPath adds file path information
func (e *ConvertError) WithPath(path string) *ConvertError {
	e.Path = path
	return e
}

// WithToken records the offending selection token
func (e *ConvertError) WithToken(token string) *ConvertError {
	e.Token = token
	return e
}

// WithRow records the zero-based row index the error belongs to
func (e *ConvertError) WithRow(row int) *ConvertError {
	e.Row = row
	return e
}

// IsType reports whether err, or any error it wraps or joins, is a
// ConvertError of type t
func IsType(err error, t ErrorType) bool {
	return stderrors.Is(err, &ConvertError{Type: t})
}

// ErrorCollection accumulates per-row failures of a run
type ErrorCollection struct {
	Errors   []*ConvertError `json:"errors"`
	FilePath string          `json:"file_path,omitempty"`
}

// NewErrorCollection creates a new error collection for an input file
func NewErrorCollection(filePath string) *ErrorCollection {
	return &ErrorCollection{
		Errors:   make([]*ConvertError, 0),
		FilePath: filePath,
	}
}

// Add appends an error, inheriting the collection's file path
func (ec *ErrorCollection) Add(err *ConvertError) {
	if err.Path == "" && ec.FilePath != "" {
		err.Path = ec.FilePath
	}
	ec.Errors = append(ec.Errors, err)
}

// Count returns the number of collected errors
func (ec *ErrorCollection) Count() int {
	return len(ec.Errors)
}

// Summary returns a text summary of all errors
func (ec *ErrorCollection) Summary() string {
	if len(ec.Errors) == 0 {
		return "No errors"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d row(s) failed", len(ec.Errors))
	for _, err := range ec.Errors {
		fmt.Fprintf(&b, "\n  row %d: %s", err.Row, err.Error())
	}
	return b.String()
}

// Err returns the collection as a single error, or nil when empty. The
// result unwraps to every collected ConvertError.
func (ec *ErrorCollection) Err() error {
	if len(ec.Errors) == 0 {
		return nil
	}
	errs := make([]error, len(ec.Errors))
	for i, err := range ec.Errors {
		errs[i] = err
	}
	return &collectionError{summary: ec.Summary(), errs: errs}
}

type collectionError struct {
	summary string
	errs    []error
}

func (e *collectionError) Error() string   { return e.summary }
func (e *collectionError) Unwrap() []error { return e.errs }
