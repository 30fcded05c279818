package hanabi

import "fmt"

// Client-side error codes. Hub-side codes (BAD_MESSAGE, ROOM_FULL, ...)
// arrive verbatim in protocol errors.
const (
	ErrCodeConnect      = "CONNECT_FAILED"
	ErrCodeNotConnected = "NOT_CONNECTED"
	ErrCodeTransport    = "TRANSPORT_ERROR"
)

// ClientError is a structured transport or protocol failure.
type ClientError struct {
	Code    string
	Message string
	Wrapped error
}

func (e *ClientError) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Wrapped)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ClientError) Unwrap() error {
	return e.Wrapped
}

// Is matches on the error code, so callers can compare against a
// prototype error.
func (e *ClientError) Is(target error) bool {
	t, ok := target.(*ClientError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

func newError(code, message string) *ClientError {
	return &ClientError{Code: code, Message: message}
}

func wrapError(code, message string, err error) *ClientError {
	return &ClientError{Code: code, Message: message, Wrapped: err}
}
