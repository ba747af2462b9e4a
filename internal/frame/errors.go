package frame

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes structural errors.
type ErrorCode string

const (
	// ErrCodeNotScalarProjection: comparison on something other than a
	// single-column projection.
	ErrCodeNotScalarProjection ErrorCode = "E201"

	// ErrCodeInvalidSelection: a selection element is neither a column name,
	// a column reference, nor a single-column projection.
	ErrCodeInvalidSelection ErrorCode = "E202"

	// ErrCodeJoinLeftColumn: name-pair join column missing on the left side.
	ErrCodeJoinLeftColumn ErrorCode = "E203"

	// ErrCodeJoinRightColumn: name-pair join column missing on the right side.
	ErrCodeJoinRightColumn ErrorCode = "E204"

	// ErrCodeUnsupportedOperand: literal or index key of an unsupported type.
	ErrCodeUnsupportedOperand ErrorCode = "E205"

	// ErrCodeMissingOperand: nil frame or nil join condition.
	ErrCodeMissingOperand ErrorCode = "E206"
)

// StructuralError reports a violated structural precondition.
// Raised synchronously by builder methods and never retried; the receiver
// frame is left untouched.
type StructuralError struct {
	Code    ErrorCode
	Message string

	// Element describes the offending operand, when there is one.
	Element string
}

// Error implements the error interface.
func (e *StructuralError) Error() string {
	if e.Element != "" {
		return fmt.Sprintf("%s: %s (got %s)", e.Code, e.Message, e.Element)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func structuralError(code ErrorCode, element, format string, args ...any) *StructuralError {
	return &StructuralError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Element: element,
	}
}

// IsStructuralError reports whether err is, or wraps, a *StructuralError.
func IsStructuralError(err error) bool {
	var se *StructuralError
	return errors.As(err, &se)
}

// StructuralCode extracts the code of a (possibly wrapped) StructuralError.
func StructuralCode(err error) (ErrorCode, bool) {
	var se *StructuralError
	if errors.As(err, &se) {
		return se.Code, true
	}
	return "", false
}

// ErrNoGenerator is returned by materializing calls on a frame whose Session
// has no Generator.
var ErrNoGenerator = errors.New("frame: no generator configured")
