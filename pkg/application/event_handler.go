package application

import (
	"context"

	"github.com/mateusmacedo/go-railwatch/pkg/domain"
)

// EventHandler reacts to a published event. Multiple handlers may be
// registered for the same event name.
type EventHandler[E domain.Event[T], T any] interface {
	Handle(ctx context.Context, event E) error
}

// EventBus fans a published event out to every registered handler.
type EventBus[E domain.Event[D], D any] interface {
	RegisterHandler(eventName string, handler EventHandler[E, D])
	Publish(ctx context.Context, event E) error
}
