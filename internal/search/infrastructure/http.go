package infrastructure

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	searchApp "github.com/mateusmacedo/go-railwatch/internal/search/application"
	"github.com/mateusmacedo/go-railwatch/internal/search/domain"
	pkgApp "github.com/mateusmacedo/go-railwatch/pkg/application"
	pkgDomain "github.com/mateusmacedo/go-railwatch/pkg/domain"
)

// SearchHTTPHandler exposes the watch lifecycle over REST. Submission and
// cancellation talk to the scheduler directly because their responses carry
// scheduler results; listing goes through the query bus.
type SearchHTTPHandler struct {
	scheduler searchApp.SearchScheduler
	queryBus  pkgApp.QueryBus[pkgDomain.Query[searchApp.ListUserSearchesData], searchApp.ListUserSearchesData, []domain.SearchRecord]
	location  *time.Location
	logger    pkgApp.AppLogger
}

func NewSearchHTTPHandler(
	scheduler searchApp.SearchScheduler,
	queryBus pkgApp.QueryBus[pkgDomain.Query[searchApp.ListUserSearchesData], searchApp.ListUserSearchesData, []domain.SearchRecord],
	location *time.Location,
	logger pkgApp.AppLogger,
) *SearchHTTPHandler {
	return &SearchHTTPHandler{
		scheduler: scheduler,
		queryBus:  queryBus,
		location:  location,
		logger:    logger,
	}
}

func (h *SearchHTTPHandler) HandleSubmitSearch(w http.ResponseWriter, r *http.Request) {
	var data searchApp.SubmitSearchData
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
		handleError(w, "Invalid request", http.StatusBadRequest)
		return
	}

	request, err := domain.NewSearchRequest(data.Origin, data.Destination, data.TravelDate, data.TravelTime, data.UserID, h.location)
	if err != nil {
		handleError(w, err.Error(), statusFor(err))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	id, err := h.scheduler.Submit(ctx, request)
	if err != nil {
		handleError(w, err.Error(), statusFor(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(map[string]interface{}{"id": id, "state": domain.StateActive}); err != nil {
		handleError(w, err.Error(), http.StatusInternalServerError)
	}
}

func (h *SearchHTTPHandler) HandleCancelSearch(w http.ResponseWriter, r *http.Request) {
	searchID := chi.URLParam(r, "searchID")

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	if err := h.scheduler.Cancel(ctx, searchID); err != nil {
		handleError(w, err.Error(), statusFor(err))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *SearchHTTPHandler) HandleCancelUserSearches(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil {
		handleError(w, "Invalid user id", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	cancelled := h.scheduler.CancelAllForUser(ctx, userID)

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]interface{}{"cancelled": cancelled}); err != nil {
		handleError(w, err.Error(), http.StatusInternalServerError)
	}
}

func (h *SearchHTTPHandler) HandleListUserSearches(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil {
		handleError(w, "Invalid user id", http.StatusBadRequest)
		return
	}

	query := searchApp.NewListUserSearchesQuery(searchApp.ListUserSearchesData{UserID: userID})

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	records, err := h.queryBus.Dispatch(ctx, query)
	if err != nil {
		handleError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if records == nil {
		records = []domain.SearchRecord{}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(records); err != nil {
		handleError(w, err.Error(), http.StatusInternalServerError)
	}
}

func (h *SearchHTTPHandler) RegisterRoutes(router chi.Router) {
	router.Post("/searches", h.HandleSubmitSearch)
	router.Delete("/searches/{searchID}", h.HandleCancelSearch)
	router.Delete("/users/{userID}/searches", h.HandleCancelUserSearches)
	router.Get("/users/{userID}/searches", h.HandleListUserSearches)
}

func statusFor(err error) int {
	var validation *domain.ValidationError
	switch {
	case errors.As(err, &validation):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrCapacityExceeded):
		return http.StatusTooManyRequests
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrShuttingDown):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func handleError(w http.ResponseWriter, message string, statusCode int) {
	http.Error(w, message, statusCode)
}
