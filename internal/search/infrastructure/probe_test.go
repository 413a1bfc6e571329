package infrastructure_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mateusmacedo/go-railwatch/internal/search/domain"
	"github.com/mateusmacedo/go-railwatch/internal/search/infrastructure"
)

type noopLogger struct{}

func (noopLogger) Info(context.Context, string, map[string]interface{})  {}
func (noopLogger) Debug(context.Context, string, map[string]interface{}) {}
func (noopLogger) Error(context.Context, string, map[string]interface{}) {}
func (noopLogger) Trace(context.Context, string, map[string]interface{}) {}

const schedulePage = `<html><body>
<div class="sch-table__body">
  <div class="sch-table__row" data-ticket_selling_allowed="false">
    <div class="sch-table__time train-from-time">06:10</div>
  </div>
  <div class="sch-table__row" data-ticket_selling_allowed="true">
    <div class="sch-table__time train-from-time"> 08:30 </div>
  </div>
  <div class="sch-table__row" data-ticket_selling_allowed="false">
    <div class="sch-table__time train-from-time">17:05</div>
  </div>
</div>
</body></html>`

func probeRequest(t *testing.T, travelTime string) domain.SearchRequest {
	t.Helper()
	tomorrow := time.Now().UTC().Add(24 * time.Hour).Format(domain.DateFormat)
	request, err := domain.NewSearchRequest("Minsk", "Brest", tomorrow, travelTime, 1, time.UTC)
	require.NoError(t, err)
	return request
}

func TestRailProbeReadsSellingFlag(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path + "?" + r.URL.RawQuery
		fmt.Fprint(w, schedulePage)
	}))
	defer server.Close()

	probe := infrastructure.NewRailProbe(server.URL, noopLogger{})

	result, err := probe.Check(context.Background(), probeRequest(t, "08:30"))
	require.NoError(t, err)
	require.True(t, result.Available)
	require.NotEmpty(t, result.Fingerprint)
	require.Contains(t, gotPath, "/route/")
	require.Contains(t, gotPath, "from=Minsk")
	require.Contains(t, gotPath, "to=Brest")

	result, err = probe.Check(context.Background(), probeRequest(t, "17:05"))
	require.NoError(t, err)
	require.False(t, result.Available, "listed departure without selling flag has no offer")

	result, err = probe.Check(context.Background(), probeRequest(t, "23:59"))
	require.NoError(t, err)
	require.False(t, result.Available, "unlisted departure has no offer")
}

func TestRailProbeServerTroubleIsTransient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	probe := infrastructure.NewRailProbe(server.URL, noopLogger{})
	_, err := probe.Check(context.Background(), probeRequest(t, "08:30"))

	var transient *domain.TransientError
	require.ErrorAs(t, err, &transient)
}

func TestRailProbeErrorPageIsTransient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body><div class="error_content">No such route</div></body></html>`)
	}))
	defer server.Close()

	probe := infrastructure.NewRailProbe(server.URL, noopLogger{})
	_, err := probe.Check(context.Background(), probeRequest(t, "08:30"))

	var transient *domain.TransientError
	require.ErrorAs(t, err, &transient)
}

func TestRailProbeHonorsContextDeadline(t *testing.T) {
	started := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(started)
		<-r.Context().Done()
	}))
	defer server.Close()

	probe := infrastructure.NewRailProbe(server.URL, noopLogger{})
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := probe.Check(ctx, probeRequest(t, "08:30"))
	<-started

	var transient *domain.TransientError
	require.ErrorAs(t, err, &transient)
}
