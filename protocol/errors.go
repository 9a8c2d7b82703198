package protocol

import "fmt"

// ValidationError is returned by Validate methods across this package when a
// message violates a structural invariant of the wire protocol. It is
// distinguished from transport or server-reported errors so callers can
// treat it uniformly as a DataCorrupt-class fault (client.Request.Do
// classifies a failed GetResponse.Validate as DataCorrupt).
type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string { return e.msg }

// NewValidationError returns a *ValidationError built from a format string,
// mirroring the teacher's pb.NewValidationError helper.
func NewValidationError(format string, args ...interface{}) error {
	return &ValidationError{msg: fmt.Sprintf(format, args...)}
}

// Validator is implemented by wire messages capable of self-validation
// before being sent or after being received.
type Validator interface {
	Validate() error
}
