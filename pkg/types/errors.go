package types

import (
	"errors"
	"fmt"
	"time"
)

// Error codes produced by the bridge itself. Hosts may send any other code.
const (
	CodeTimeout         = "TIMEOUT"
	CodeConnectionError = "CONNECTION_ERROR"
)

// CEPError is the error value carried by every failed bridge call.
type CEPError struct {
	Code      string    `json:"code"`
	Message   string    `json:"message"`
	Details   any       `json:"details,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewCEPError creates a CEPError stamped with the current time.
func NewCEPError(code, message string, details any) *CEPError {
	return &CEPError{
		Code:      code,
		Message:   message,
		Details:   details,
		Timestamp: time.Now(),
	}
}

func (e *CEPError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsTimeout reports whether err is a bridge timeout.
func IsTimeout(err error) bool {
	return hasCode(err, CodeTimeout)
}

// IsConnectionError reports whether err means the host could not be reached.
func IsConnectionError(err error) bool {
	return hasCode(err, CodeConnectionError)
}

func hasCode(err error, code string) bool {
	var cepErr *CEPError
	if errors.As(err, &cepErr) {
		return cepErr.Code == code
	}
	return false
}

// Domain errors for type validation
var (
	ErrEmptyQuery        = errors.New("query cannot be empty")
	ErrInvalidScope      = errors.New("invalid search scope")
	ErrInvalidMatchRange = errors.New("match columns out of range")
)
