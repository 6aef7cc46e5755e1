package broker

import (
	"errors"
	"fmt"
)

var (
	// ErrPublishFailed is matched by every *PublishError.
	ErrPublishFailed = errors.New("event publish failed")

	// ErrTransport is matched by every *TransportError.
	ErrTransport = errors.New("broker transport error")

	// ErrSerialization is returned when an envelope cannot be encoded. It is never retried.
	ErrSerialization = errors.New("envelope serialization failed")

	// ErrPublisherClosed is returned by Publish after Close.
	ErrPublisherClosed = errors.New("publisher is closed")
)

// maxBodySnippet bounds how much of a gateway response is kept on a TransportError.
const maxBodySnippet = 512

// TransportError describes one failed delivery attempt: a network failure,
// a per-attempt timeout, or a non-2xx response from the gateway.
type TransportError struct {
	Topic      string
	StatusCode int    // zero when no response was received
	Body       string // redacted, at most maxBodySnippet bytes
	Err        error
}

// Error implements the error interface for TransportError.
func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		if e.Body != "" {
			return fmt.Sprintf("publish to %q: gateway returned %d: %s", e.Topic, e.StatusCode, e.Body)
		}
		return fmt.Sprintf("publish to %q: gateway returned %d", e.Topic, e.StatusCode)
	}
	return fmt.Sprintf("publish to %q: %v", e.Topic, e.Err)
}

// Unwrap returns the underlying network or context error, if any.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrTransport.
func (e *TransportError) Is(target error) bool {
	return target == ErrTransport
}

// PublishError is returned when an envelope could not be delivered within
// the retry budget, or when the caller's context ended first.
type PublishError struct {
	EventID   string
	EventType string
	Topic     string
	Attempts  int
	Err       error
}

// Error implements the error interface for PublishError.
func (e *PublishError) Error() string {
	return fmt.Sprintf("publish %s event %s to %q failed after %d attempt(s): %v",
		e.EventType, e.EventID, e.Topic, e.Attempts, e.Err)
}

// Unwrap returns the last attempt's error.
func (e *PublishError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrPublishFailed.
func (e *PublishError) Is(target error) bool {
	return target == ErrPublishFailed
}
