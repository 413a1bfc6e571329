package adapter

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/mateusmacedo/go-railwatch/pkg/application"
	"github.com/mateusmacedo/go-railwatch/pkg/domain"
)

// WatermillEventBus fans events out over a watermill publisher/subscriber
// pair. Handlers run on the subscriber side, so publishers never block on
// handler work.
type WatermillEventBus[E domain.Event[D], D any] struct {
	publisher  message.Publisher
	subscriber message.Subscriber
	handlers   map[string][]application.EventHandler[E, D]
	mu         sync.RWMutex
	logger     application.AppLogger
	subscribed map[string]bool
}

func NewWatermillEventBus[E domain.Event[D], D any](publisher message.Publisher, subscriber message.Subscriber, logger application.AppLogger) *WatermillEventBus[E, D] {
	return &WatermillEventBus[E, D]{
		publisher:  publisher,
		subscriber: subscriber,
		handlers:   make(map[string][]application.EventHandler[E, D]),
		logger:     logger,
		subscribed: make(map[string]bool),
	}
}

func (bus *WatermillEventBus[E, D]) RegisterHandler(eventName string, handler application.EventHandler[E, D]) {
	bus.mu.Lock()
	bus.handlers[eventName] = append(bus.handlers[eventName], handler)
	alreadySubscribed := bus.subscribed[eventName]
	bus.subscribed[eventName] = true
	bus.mu.Unlock()

	if alreadySubscribed {
		return
	}

	go func() {
		ctx := context.Background()
		messages, err := bus.subscriber.Subscribe(ctx, eventName)
		if err != nil {
			application.LogError(ctx, bus.logger, "error subscribing to event", err, map[string]interface{}{
				"event_name": eventName,
			})
			return
		}

		for msg := range messages {
			var payload D
			if err := json.Unmarshal(msg.Payload, &payload); err != nil {
				application.LogError(ctx, bus.logger, "error unmarshalling event payload", err, map[string]interface{}{
					"event_name": eventName,
				})
				msg.Nack()
				continue
			}

			event := &dynamicEvent[D]{eventName: eventName, payload: payload}
			typedEvent, ok := interface{}(event).(E)
			if !ok {
				bus.logger.Error(ctx, "error asserting event type", map[string]interface{}{
					"event_name": eventName,
				})
				msg.Nack()
				continue
			}

			bus.mu.RLock()
			handlers := bus.handlers[eventName]
			bus.mu.RUnlock()

			failed := false
			for _, h := range handlers {
				if err := h.Handle(msg.Context(), typedEvent); err != nil {
					application.LogError(ctx, bus.logger, "error handling event", err, map[string]interface{}{
						"event_name": eventName,
					})
					failed = true
					break
				}
			}
			if failed {
				msg.Nack()
				continue
			}
			msg.Ack()
		}
	}()
}

func (bus *WatermillEventBus[E, D]) Publish(ctx context.Context, event E) error {
	payload, err := json.Marshal(event.Payload())
	if err != nil {
		return err
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.SetContext(ctx)
	return bus.publisher.Publish(event.EventName(), msg)
}

type dynamicEvent[D any] struct {
	eventName string
	payload   D
}

func (e *dynamicEvent[D]) EventName() string {
	return e.eventName
}

func (e *dynamicEvent[D]) Payload() D {
	return e.payload
}
