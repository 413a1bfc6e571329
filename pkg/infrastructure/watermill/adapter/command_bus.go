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

// WatermillCommandBus routes commands over a watermill publisher/subscriber
// pair. The command name doubles as the topic.
type WatermillCommandBus[C domain.Command[T], T any] struct {
	publisher  message.Publisher
	subscriber message.Subscriber
	handlers   map[string]application.CommandHandler[C, T]
	mu         sync.RWMutex
	logger     application.AppLogger
}

func NewWatermillCommandBus[C domain.Command[T], T any](publisher message.Publisher, subscriber message.Subscriber, logger application.AppLogger) *WatermillCommandBus[C, T] {
	return &WatermillCommandBus[C, T]{
		publisher:  publisher,
		subscriber: subscriber,
		handlers:   make(map[string]application.CommandHandler[C, T]),
		logger:     logger,
	}
}

func (bus *WatermillCommandBus[C, T]) RegisterHandler(commandName string, handler application.CommandHandler[C, T]) {
	bus.mu.Lock()
	bus.handlers[commandName] = handler
	bus.mu.Unlock()

	go func() {
		ctx := context.Background()
		messages, err := bus.subscriber.Subscribe(ctx, commandName)
		if err != nil {
			application.LogError(ctx, bus.logger, "error subscribing to command", err, map[string]interface{}{
				"command_name": commandName,
			})
			return
		}

		for msg := range messages {
			var payload T
			if err := json.Unmarshal(msg.Payload, &payload); err != nil {
				application.LogError(ctx, bus.logger, "error unmarshalling command payload", err, map[string]interface{}{
					"command_name": commandName,
				})
				msg.Nack()
				continue
			}

			command := &dynamicCommand[T]{commandName: commandName, payload: payload}
			typedCommand, ok := interface{}(command).(C)
			if !ok {
				bus.logger.Error(ctx, "error asserting command type", map[string]interface{}{
					"command_name": commandName,
				})
				msg.Nack()
				continue
			}

			if err := handler.Handle(msg.Context(), typedCommand); err != nil {
				application.LogError(ctx, bus.logger, "error handling command", err, map[string]interface{}{
					"command_name": commandName,
				})
				msg.Nack()
				continue
			}
			msg.Ack()
		}
	}()
}

func (bus *WatermillCommandBus[C, T]) Dispatch(ctx context.Context, command C) error {
	payload, err := json.Marshal(command.Payload())
	if err != nil {
		return err
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.SetContext(ctx)
	return bus.publisher.Publish(command.CommandName(), msg)
}

type dynamicCommand[T any] struct {
	commandName string
	payload     T
}

func (c *dynamicCommand[T]) CommandName() string {
	return c.commandName
}

func (c *dynamicCommand[T]) Payload() T {
	return c.payload
}
