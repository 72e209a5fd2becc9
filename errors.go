package textgen

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

var (
	// ErrInvalidConfiguration is returned when a generator is built without the
	// settings it needs to reach its endpoint.
	ErrInvalidConfiguration = errors.New("invalid configuration")
	// ErrInvalidInput is returned when a request cannot be turned into a prompt.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotSupported is returned for features a generator does not implement.
	ErrNotSupported = errors.New("not supported")
	// ErrRemoteRequestFailed is returned when the provider answers with a
	// non-successful status.
	ErrRemoteRequestFailed = errors.New("remote request failed")
)

// RemoteError is the error returned when the provider responds with an
// unexpected HTTP status. Body is the raw response body, unmodified.
type RemoteError struct {
	StatusCode int
	Body       string
}

// NewRemoteError builds a RemoteError, which matches ErrRemoteRequestFailed.
func NewRemoteError(statusCode int, body string) error {
	return &RemoteError{StatusCode: statusCode, Body: body}
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("request failed with status %d: %s", e.StatusCode, e.Body)
}

func (e *RemoteError) Is(target error) bool {
	return target == ErrRemoteRequestFailed
}
