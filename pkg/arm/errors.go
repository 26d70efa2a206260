package arm

import (
	"fmt"
)

// UpstreamError - ARM answered with a non-success status
type UpstreamError struct {
	Operation  string
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s: code: %d, detail:%s", e.Operation, e.StatusCode, e.Body)
}

// MalformedResponseError - ARM answered 2xx but the body does not have the expected shape
type MalformedResponseError struct {
	Operation string
	Cause     error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("%s: malformed response: %v", e.Operation, e.Cause)
}

func (e *MalformedResponseError) Unwrap() error { return e.Cause }
