// Package errors provides the error taxonomy for the hostcheck CLI.
//
// Every failure a test case can end in is expressed as a CheckError with
// one of a small set of codes, so callers can branch on the category
// without parsing messages.
//
// # Error Codes
//
//   - SPAWN: the subprocess could not be launched (missing binary or workdir)
//   - TIMEOUT: the wall-clock budget was exceeded and the process was killed
//   - NON_ZERO_EXIT: the process exited with an error status the policy rejects
//   - PREDICATE_MISMATCH: output did not satisfy an expectation
//   - VALIDATION: a suite or case definition is malformed
//   - CONFIG: the tool configuration could not be read or parsed
//   - INTERNAL: anything else
//
// # Usage
//
//	return errors.WrapCase(errors.ErrCodeSpawn, "local cert", "starting shell", err)
//
//	if errors.Is(err, errors.ErrTimeout) {
//	    // the case ran out of time
//	}
//
//	var ce *errors.CheckError
//	if errors.As(err, &ce) {
//	    fmt.Println(ce.Code, ce.Case)
//	}
package errors

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes errors for programmatic handling.
type ErrorCode string

// Error codes for different error categories.
const (
	ErrCodeSpawn             ErrorCode = "SPAWN"              // Process could not start
	ErrCodeTimeout           ErrorCode = "TIMEOUT"            // Wall-clock budget exceeded
	ErrCodeNonZeroExit       ErrorCode = "NON_ZERO_EXIT"      // Exit status rejected by policy
	ErrCodePredicateMismatch ErrorCode = "PREDICATE_MISMATCH" // Expected output missing
	ErrCodeValidation        ErrorCode = "VALIDATION"         // Malformed suite or case
	ErrCodeConfig            ErrorCode = "CONFIG"             // Configuration error
	ErrCodeInternal          ErrorCode = "INTERNAL"           // Internal/unexpected error
)

// CheckError is a categorized error, optionally tied to a named test case.
type CheckError struct {
	Code    ErrorCode
	Message string
	Case    string // test case name (if applicable)
	Err     error
}

// Error implements the error interface.
func (e *CheckError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Code)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	if e.Case != "" {
		return fmt.Sprintf("case %q: %s", e.Case, msg)
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *CheckError) Unwrap() error {
	return e.Err
}

// Is reports whether target is a CheckError with the same code.
func (e *CheckError) Is(target error) bool {
	t, ok := target.(*CheckError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// Sentinel errors, one per code. Use with errors.Is.
var (
	ErrSpawn             = &CheckError{Code: ErrCodeSpawn, Message: "process could not be started"}
	ErrTimeout           = &CheckError{Code: ErrCodeTimeout, Message: "process timed out"}
	ErrNonZeroExit       = &CheckError{Code: ErrCodeNonZeroExit, Message: "process exited with non-zero status"}
	ErrPredicateMismatch = &CheckError{Code: ErrCodePredicateMismatch, Message: "output did not match expectation"}
	ErrInvalidSuite      = &CheckError{Code: ErrCodeValidation, Message: "invalid suite"}
	ErrConfigInvalid     = &CheckError{Code: ErrCodeConfig, Message: "invalid configuration"}
)

// Validation creates a validation error with a custom message.
func Validation(format string, args ...any) error {
	return &CheckError{
		Code:    ErrCodeValidation,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates an error with the given code, message and cause.
func Wrap(code ErrorCode, msg string, err error) error {
	return &CheckError{
		Code:    code,
		Message: msg,
		Err:     err,
	}
}

// WrapCase is Wrap with the name of the test case attached.
func WrapCase(code ErrorCode, name, msg string, err error) error {
	return &CheckError{
		Code:    code,
		Message: msg,
		Case:    name,
		Err:     err,
	}
}

// CodeOf returns the code of the first CheckError in err's chain,
// or ErrCodeInternal when there is none.
func CodeOf(err error) ErrorCode {
	var ce *CheckError
	if errors.As(err, &ce) {
		return ce.Code
	}
	return ErrCodeInternal
}

// Is is a re-export of errors.Is.
var Is = errors.Is

// As is a re-export of errors.As.
var As = errors.As
