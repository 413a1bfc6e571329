package infrastructure

import (
	"context"

	searchApp "github.com/mateusmacedo/go-railwatch/internal/search/application"
	"github.com/mateusmacedo/go-railwatch/internal/search/domain"
	pkgApp "github.com/mateusmacedo/go-railwatch/pkg/application"
	pkgDomain "github.com/mateusmacedo/go-railwatch/pkg/domain"
)

// EventBusNotifier delivers user notifications by publishing them on the
// event bus. Whatever front end is wired to the bus performs the actual
// delivery.
type EventBusNotifier struct {
	bus pkgApp.EventBus[pkgDomain.Event[searchApp.SearchNotificationData], searchApp.SearchNotificationData]
}

func NewEventBusNotifier(bus pkgApp.EventBus[pkgDomain.Event[searchApp.SearchNotificationData], searchApp.SearchNotificationData]) *EventBusNotifier {
	return &EventBusNotifier{bus: bus}
}

func (n *EventBusNotifier) Notify(ctx context.Context, userID int64, message string) error {
	event := searchApp.NewSearchNotificationEvent(searchApp.SearchNotificationData{
		UserID:  userID,
		Message: message,
	})
	if err := n.bus.Publish(ctx, event); err != nil {
		return &domain.DeliveryError{UserID: userID, Err: err}
	}
	return nil
}
