package model

import (
	"errors"
	"fmt"
)

var (
	// Share reference errors
	ErrInvalidShareURL = errors.New("not a share link")

	// Token related errors
	ErrTokenNotFound = errors.New("no active token")

	// Remote listing errors
	ErrUnexpectedResponse = errors.New("unexpected remote response")

	// Gateway errors
	ErrNoLinkAvailable = errors.New("no direct link available")
	ErrLinkExpired     = errors.New("direct link expired")

	// Record errors
	ErrContainerNotFound = errors.New("container not found")
	ErrItemNotFound      = errors.New("item not found")
)

// RemoteAPIError is a structured failure answered by the remote host: the
// call reached the API and the API said no. Retryable, unlike
// ErrUnexpectedResponse which signals a stale session.
type RemoteAPIError struct {
	Errno int
}

func (e *RemoteAPIError) Error() string {
	return fmt.Sprintf("remote api error (errno %d)", e.Errno)
}

// UpstreamError is a non-success status from a direct-link fetch that is not
// an auth failure. May be transient.
type UpstreamError struct {
	Status int
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream returned status %d", e.Status)
}
