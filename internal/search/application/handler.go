package application

import (
	"context"
	"time"

	"github.com/mateusmacedo/go-railwatch/internal/search/domain"
	pkgApp "github.com/mateusmacedo/go-railwatch/pkg/application"
	pkgDomain "github.com/mateusmacedo/go-railwatch/pkg/domain"
)

// SearchScheduler is the slice's view of the scheduling core.
type SearchScheduler interface {
	Submit(ctx context.Context, request domain.SearchRequest) (string, error)
	Cancel(ctx context.Context, id string) error
	CancelAllForUser(ctx context.Context, userID int64) int
}

type submitSearchHandler struct {
	scheduler SearchScheduler
	location  *time.Location
	logger    pkgApp.AppLogger
}

func (h *submitSearchHandler) Handle(ctx context.Context, command pkgDomain.Command[SubmitSearchData]) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	data := command.Payload()
	request, err := domain.NewSearchRequest(data.Origin, data.Destination, data.TravelDate, data.TravelTime, data.UserID, h.location)
	if err != nil {
		pkgApp.LogError(ctx, h.logger, "rejecting search submission", err, map[string]interface{}{
			"user_id": data.UserID,
		})
		return err
	}

	id, err := h.scheduler.Submit(ctx, request)
	if err != nil {
		pkgApp.LogError(ctx, h.logger, "search submission failed", err, map[string]interface{}{
			"user_id": data.UserID,
		})
		return err
	}

	h.logger.Info(ctx, "search accepted", map[string]interface{}{
		"search_id": id,
		"user_id":   data.UserID,
	})
	return nil
}

func NewSubmitSearchHandler(scheduler SearchScheduler, location *time.Location, logger pkgApp.AppLogger) pkgApp.CommandHandler[pkgDomain.Command[SubmitSearchData], SubmitSearchData] {
	return &submitSearchHandler{
		scheduler: scheduler,
		location:  location,
		logger:    logger,
	}
}

type cancelSearchHandler struct {
	scheduler SearchScheduler
	logger    pkgApp.AppLogger
}

func (h *cancelSearchHandler) Handle(ctx context.Context, command pkgDomain.Command[CancelSearchData]) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return h.scheduler.Cancel(ctx, command.Payload().SearchID)
}

func NewCancelSearchHandler(scheduler SearchScheduler, logger pkgApp.AppLogger) pkgApp.CommandHandler[pkgDomain.Command[CancelSearchData], CancelSearchData] {
	return &cancelSearchHandler{
		scheduler: scheduler,
		logger:    logger,
	}
}

type cancelUserSearchesHandler struct {
	scheduler SearchScheduler
	logger    pkgApp.AppLogger
}

func (h *cancelUserSearchesHandler) Handle(ctx context.Context, command pkgDomain.Command[CancelUserSearchesData]) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	userID := command.Payload().UserID
	cancelled := h.scheduler.CancelAllForUser(ctx, userID)
	h.logger.Info(ctx, "user searches cancelled", map[string]interface{}{
		"user_id":   userID,
		"cancelled": cancelled,
	})
	return nil
}

func NewCancelUserSearchesHandler(scheduler SearchScheduler, logger pkgApp.AppLogger) pkgApp.CommandHandler[pkgDomain.Command[CancelUserSearchesData], CancelUserSearchesData] {
	return &cancelUserSearchesHandler{
		scheduler: scheduler,
		logger:    logger,
	}
}

type listUserSearchesHandler struct {
	repository domain.SearchRepository
	logger     pkgApp.AppLogger
}

func (h *listUserSearchesHandler) Handle(ctx context.Context, query pkgDomain.Query[ListUserSearchesData]) ([]domain.SearchRecord, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	data := query.Payload()
	records, err := h.repository.FindByUserID(ctx, data.UserID)
	if err != nil {
		pkgApp.LogError(ctx, h.logger, "listing searches failed", err, map[string]interface{}{
			"user_id": data.UserID,
		})
		return nil, err
	}
	return records, nil
}

func NewListUserSearchesHandler(repository domain.SearchRepository, logger pkgApp.AppLogger) pkgApp.QueryHandler[pkgDomain.Query[ListUserSearchesData], ListUserSearchesData, []domain.SearchRecord] {
	return &listUserSearchesHandler{
		repository: repository,
		logger:     logger,
	}
}

// searchNotificationHandler is the default delivery: it logs the message.
// The chat front end registers its own handler for real delivery.
type searchNotificationHandler struct {
	logger pkgApp.AppLogger
}

func (h *searchNotificationHandler) Handle(ctx context.Context, event pkgDomain.Event[SearchNotificationData]) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	data := event.Payload()
	h.logger.Info(ctx, "notification delivered", map[string]interface{}{
		"user_id": data.UserID,
		"message": data.Message,
	})
	return nil
}

func NewSearchNotificationHandler(logger pkgApp.AppLogger) pkgApp.EventHandler[pkgDomain.Event[SearchNotificationData], SearchNotificationData] {
	return &searchNotificationHandler{logger: logger}
}
