package domain

import (
	"context"
	"strings"
	"time"
)

const (
	DateFormat = "2006-01-02"
	TimeFormat = "15:04"
)

// SearchRequest is the immutable description of what a user wants watched:
// one route at one departure on one date.
type SearchRequest struct {
	Origin      string
	Destination string
	TravelDate  string
	TravelTime  string
	UserID      int64
	CreatedAt   time.Time
}

// NewSearchRequest validates the raw input and returns the request. The
// departure is validated in loc, the timezone of the rail operator.
func NewSearchRequest(origin, destination, travelDate, travelTime string, userID int64, loc *time.Location) (SearchRequest, error) {
	origin = strings.TrimSpace(origin)
	destination = strings.TrimSpace(destination)

	if origin == "" {
		return SearchRequest{}, &ValidationError{Field: "origin", Reason: "must not be empty"}
	}
	if destination == "" {
		return SearchRequest{}, &ValidationError{Field: "destination", Reason: "must not be empty"}
	}
	if strings.EqualFold(origin, destination) {
		return SearchRequest{}, &ValidationError{Field: "destination", Reason: "must differ from origin"}
	}
	if userID <= 0 {
		return SearchRequest{}, &ValidationError{Field: "userId", Reason: "must be positive"}
	}

	departure, err := time.ParseInLocation(DateFormat+" "+TimeFormat, travelDate+" "+travelTime, loc)
	if err != nil {
		return SearchRequest{}, &ValidationError{Field: "date/time", Reason: "expected YYYY-MM-DD and HH:MM"}
	}
	if departure.Before(time.Now().In(loc)) {
		return SearchRequest{}, &ValidationError{Field: "date/time", Reason: "departure is in the past"}
	}

	return SearchRequest{
		Origin:      origin,
		Destination: destination,
		TravelDate:  travelDate,
		TravelTime:  travelTime,
		UserID:      userID,
		CreatedAt:   time.Now().In(loc),
	}, nil
}

// DepartureIn parses the request's departure instant in loc.
func (r SearchRequest) DepartureIn(loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(DateFormat+" "+TimeFormat, r.TravelDate+" "+r.TravelTime, loc)
}

// Route renders "origin → destination" for logs and notifications.
func (r SearchRequest) Route() string {
	return r.Origin + " → " + r.Destination
}

// SearchRecord is the mutable unit of work owned by the scheduler while
// active, and the sole durable representation of a search.
type SearchRecord struct {
	ID           string      `json:"id" gorm:"primaryKey"`
	UserID       int64       `json:"userId" gorm:"index"`
	Origin       string      `json:"origin"`
	Destination  string      `json:"destination"`
	TravelDate   string      `json:"travelDate"`
	TravelTime   string      `json:"travelTime"`
	State        SearchState `json:"state" gorm:"index"`
	LastPolledAt time.Time   `json:"lastPolledAt"`
	FailureCount int         `json:"failureCount"`
	PollSeq      uint64      `json:"pollSeq"`
	CreatedAt    time.Time   `json:"createdAt"`
}

// NewSearchRecord wraps a validated request into an Active record under the
// given id.
func NewSearchRecord(id string, request SearchRequest) SearchRecord {
	return SearchRecord{
		ID:          id,
		UserID:      request.UserID,
		Origin:      request.Origin,
		Destination: request.Destination,
		TravelDate:  request.TravelDate,
		TravelTime:  request.TravelTime,
		State:       StateActive,
		CreatedAt:   request.CreatedAt,
	}
}

// Request rebuilds the immutable request carried by the record.
func (rec SearchRecord) Request() SearchRequest {
	return SearchRequest{
		Origin:      rec.Origin,
		Destination: rec.Destination,
		TravelDate:  rec.TravelDate,
		TravelTime:  rec.TravelTime,
		UserID:      rec.UserID,
		CreatedAt:   rec.CreatedAt,
	}
}

// SearchRepository is the persistence port for search records. FindAll is
// used only during startup recovery; its failure is fatal there, while
// Save/Update/Delete failures are retryable checkpoints.
type SearchRepository interface {
	Save(ctx context.Context, record SearchRecord) error
	Update(ctx context.Context, record SearchRecord) error
	Delete(ctx context.Context, id string) error
	FindAll(ctx context.Context) ([]SearchRecord, error)
	FindByUserID(ctx context.Context, userID int64) ([]SearchRecord, error)
}
