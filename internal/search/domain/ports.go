package domain

import (
	"context"
)

// AvailabilityResult is what one probe of the booking site yields. The
// fingerprint identifies the matched offer so an already-announced offer is
// not announced twice.
type AvailabilityResult struct {
	Available   bool
	Fingerprint string
}

// AvailabilityProbe performs one remote availability check. "No tickets" is
// a successful result with Available=false; only network or site trouble is
// an error, reported as *TransientError.
type AvailabilityProbe interface {
	Check(ctx context.Context, request SearchRequest) (AvailabilityResult, error)
}

// NotificationSink delivers a message to a user. Delivery failure never
// rolls back a search's terminal state.
type NotificationSink interface {
	Notify(ctx context.Context, userID int64, message string) error
}
