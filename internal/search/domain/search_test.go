package domain_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mateusmacedo/go-railwatch/internal/search/domain"
)

func TestNewSearchRequestValidation(t *testing.T) {
	tomorrow := time.Now().UTC().Add(24 * time.Hour).Format(domain.DateFormat)

	tests := []struct {
		name        string
		origin      string
		destination string
		date        string
		timeOfDay   string
		userID      int64
		wantField   string
	}{
		{"valid", "Minsk", "Brest", tomorrow, "08:30", 1, ""},
		{"trims whitespace", "  Minsk  ", " Brest ", tomorrow, "08:30", 1, ""},
		{"empty origin", "", "Brest", tomorrow, "08:30", 1, "origin"},
		{"empty destination", "Minsk", "   ", tomorrow, "08:30", 1, "destination"},
		{"same endpoints", "Minsk", "minsk", tomorrow, "08:30", 1, "destination"},
		{"non positive user", "Minsk", "Brest", tomorrow, "08:30", 0, "userId"},
		{"bad date", "Minsk", "Brest", "31-12-2030", "08:30", 1, "date/time"},
		{"bad time", "Minsk", "Brest", tomorrow, "8h30", 1, "date/time"},
		{"past departure", "Minsk", "Brest", "2020-01-01", "08:30", 1, "date/time"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			request, err := domain.NewSearchRequest(tt.origin, tt.destination, tt.date, tt.timeOfDay, tt.userID, time.UTC)
			if tt.wantField == "" {
				require.NoError(t, err)
				require.Equal(t, "Minsk", request.Origin)
				require.Equal(t, "Brest", request.Destination)
				return
			}
			var validation *domain.ValidationError
			require.ErrorAs(t, err, &validation)
			require.Equal(t, tt.wantField, validation.Field)
		})
	}
}

func TestSearchRecordRoundTrip(t *testing.T) {
	tomorrow := time.Now().UTC().Add(24 * time.Hour).Format(domain.DateFormat)
	request, err := domain.NewSearchRequest("Minsk", "Brest", tomorrow, "08:30", 7, time.UTC)
	require.NoError(t, err)

	record := domain.NewSearchRecord("id-1", request)
	require.Equal(t, domain.StateActive, record.State)
	require.Equal(t, int64(7), record.UserID)
	require.Zero(t, record.FailureCount)
	require.Zero(t, record.PollSeq)

	rebuilt := record.Request()
	require.Equal(t, request.Origin, rebuilt.Origin)
	require.Equal(t, request.Destination, rebuilt.Destination)
	require.Equal(t, request.TravelDate, rebuilt.TravelDate)
	require.Equal(t, request.TravelTime, rebuilt.TravelTime)

	departure, err := rebuilt.DepartureIn(time.UTC)
	require.NoError(t, err)
	require.Equal(t, 8, departure.Hour())
	require.Equal(t, 30, departure.Minute())
	require.Equal(t, "Minsk → Brest", rebuilt.Route())
}

func TestStateTransitions(t *testing.T) {
	terminal := []domain.SearchState{domain.StateFound, domain.StateExpired, domain.StateFailed, domain.StateCancelled}

	for _, target := range terminal {
		require.True(t, domain.StateActive.CanTransition(target), "active must reach %s", target)
		require.True(t, target.Terminal())
	}
	require.False(t, domain.StateActive.Terminal())

	// Terminal states never transition anywhere, not even back to active.
	for _, from := range terminal {
		require.False(t, from.CanTransition(domain.StateActive))
		for _, to := range terminal {
			require.False(t, from.CanTransition(to))
		}
	}
}
