package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when no active search exists for an id.
	ErrNotFound = errors.New("search not found")

	// ErrCapacityExceeded is returned when a user already runs the maximum
	// number of concurrent searches.
	ErrCapacityExceeded = errors.New("search capacity exceeded")

	// ErrShuttingDown is returned for submissions arriving after quiesce
	// has begun.
	ErrShuttingDown = errors.New("scheduler is shutting down")
)

// ValidationError rejects a malformed request before any record exists.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// TransientError marks a probe failure worth retrying: network hiccups,
// timeouts, bad gateway responses from the booking site.
type TransientError struct {
	Op  string
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("transient %s failure: %v", e.Op, e.Err)
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// DeliveryError marks a failed notification. It is logged and dropped.
type DeliveryError struct {
	UserID int64
	Err    error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("notification to user %d failed: %v", e.UserID, e.Err)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}
