package application_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mateusmacedo/go-railwatch/internal/search/application"
	"github.com/mateusmacedo/go-railwatch/internal/search/domain"
)

type noopLogger struct{}

func (noopLogger) Info(context.Context, string, map[string]interface{})  {}
func (noopLogger) Debug(context.Context, string, map[string]interface{}) {}
func (noopLogger) Error(context.Context, string, map[string]interface{}) {}
func (noopLogger) Trace(context.Context, string, map[string]interface{}) {}

type spyScheduler struct {
	submitted []domain.SearchRequest
	cancelled []string
	submitErr error
}

func (s *spyScheduler) Submit(ctx context.Context, request domain.SearchRequest) (string, error) {
	if s.submitErr != nil {
		return "", s.submitErr
	}
	s.submitted = append(s.submitted, request)
	return "id-1", nil
}

func (s *spyScheduler) Cancel(ctx context.Context, id string) error {
	s.cancelled = append(s.cancelled, id)
	return nil
}

func (s *spyScheduler) CancelAllForUser(ctx context.Context, userID int64) int {
	return 0
}

func TestSubmitSearchHandlerValidatesBeforeScheduling(t *testing.T) {
	sched := &spyScheduler{}
	handler := application.NewSubmitSearchHandler(sched, time.UTC, noopLogger{})
	tomorrow := time.Now().UTC().Add(24 * time.Hour).Format(domain.DateFormat)

	err := handler.Handle(context.Background(), application.NewSubmitSearchCommand(application.SubmitSearchData{
		Origin:      "Minsk",
		Destination: "Minsk",
		TravelDate:  tomorrow,
		TravelTime:  "08:30",
		UserID:      1,
	}))
	var validation *domain.ValidationError
	require.ErrorAs(t, err, &validation)
	require.Empty(t, sched.submitted, "invalid submissions never reach the scheduler")

	err = handler.Handle(context.Background(), application.NewSubmitSearchCommand(application.SubmitSearchData{
		Origin:      "Minsk",
		Destination: "Brest",
		TravelDate:  tomorrow,
		TravelTime:  "08:30",
		UserID:      1,
	}))
	require.NoError(t, err)
	require.Len(t, sched.submitted, 1)
	require.Equal(t, "Minsk", sched.submitted[0].Origin)
}

func TestCancelSearchHandlerForwardsID(t *testing.T) {
	sched := &spyScheduler{}
	handler := application.NewCancelSearchHandler(sched, noopLogger{})

	err := handler.Handle(context.Background(), application.NewCancelSearchCommand(application.CancelSearchData{SearchID: "id-9"}))
	require.NoError(t, err)
	require.Equal(t, []string{"id-9"}, sched.cancelled)
}
