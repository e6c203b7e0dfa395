package domain

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	infraerrors "github.com/sivakumaru2002/devops-ease-access/infrastructure/errors"
)

var (
	// ErrUnauthorized means no session exists for the given id.
	ErrUnauthorized = errors.New("invalid session")
	// ErrSessionExpired means the session existed but outlived its TTL. The
	// entry is removed when this is returned.
	ErrSessionExpired = errors.New("session expired")
	// ErrRunNotFound means a requested run id is not among the fetched runs.
	ErrRunNotFound = errors.New("run not found")
)

// UpstreamError wraps a failed provider listing call. It is fatal to the
// request that triggered it.
type UpstreamError struct {
	Op  string
	Err error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream %s: %v", e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// StatusCode is the provider's HTTP status, or 0 for transport failures.
func (e *UpstreamError) StatusCode() int {
	if code, ok := infraerrors.GetHTTPStatusCode(e.Err); ok {
		return code
	}
	return 0
}

// Timeout reports whether the call ran out of time.
func (e *UpstreamError) Timeout() bool {
	return errors.Is(e.Err, context.DeadlineExceeded)
}

// AuthRejected reports whether the provider refused the credential.
func (e *UpstreamError) AuthRejected() bool {
	code := e.StatusCode()
	return code == http.StatusUnauthorized || code == http.StatusForbidden
}

// NewUpstreamError wraps err for op, or returns nil for a nil err.
func NewUpstreamError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &UpstreamError{Op: op, Err: err}
}
