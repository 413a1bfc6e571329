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

// WatermillQueryBus routes queries over a watermill publisher/subscriber
// pair. The reply travels on the "<query name>_response" topic.
type WatermillQueryBus[Q domain.Query[D], D any, R any] struct {
	publisher  message.Publisher
	subscriber message.Subscriber
	handlers   map[string]application.QueryHandler[Q, D, R]
	mu         sync.RWMutex
	logger     application.AppLogger
}

func NewWatermillQueryBus[Q domain.Query[D], D any, R any](publisher message.Publisher, subscriber message.Subscriber, logger application.AppLogger) *WatermillQueryBus[Q, D, R] {
	return &WatermillQueryBus[Q, D, R]{
		publisher:  publisher,
		subscriber: subscriber,
		handlers:   make(map[string]application.QueryHandler[Q, D, R]),
		logger:     logger,
	}
}

func (bus *WatermillQueryBus[Q, D, R]) RegisterHandler(queryName string, handler application.QueryHandler[Q, D, R]) {
	bus.mu.Lock()
	bus.handlers[queryName] = handler
	bus.mu.Unlock()

	go func() {
		ctx := context.Background()
		messages, err := bus.subscriber.Subscribe(ctx, queryName)
		if err != nil {
			application.LogError(ctx, bus.logger, "error subscribing to query", err, map[string]interface{}{
				"query_name": queryName,
			})
			return
		}

		for msg := range messages {
			var payload D
			if err := json.Unmarshal(msg.Payload, &payload); err != nil {
				application.LogError(ctx, bus.logger, "error unmarshalling query payload", err, map[string]interface{}{
					"query_name": queryName,
				})
				msg.Nack()
				continue
			}

			query := &dynamicQuery[D]{queryName: queryName, payload: payload}
			typedQuery, ok := interface{}(query).(Q)
			if !ok {
				bus.logger.Error(ctx, "error asserting query type", map[string]interface{}{
					"query_name": queryName,
				})
				msg.Nack()
				continue
			}

			result, err := handler.Handle(msg.Context(), typedQuery)
			if err != nil {
				application.LogError(ctx, bus.logger, "error handling query", err, map[string]interface{}{
					"query_name": queryName,
				})
				msg.Nack()
				continue
			}

			responsePayload, err := json.Marshal(result)
			if err != nil {
				application.LogError(ctx, bus.logger, "error marshalling query result", err, map[string]interface{}{
					"query_name": queryName,
				})
				msg.Nack()
				continue
			}

			responseMsg := message.NewMessage(watermill.NewUUID(), responsePayload)
			if err := bus.publisher.Publish(queryName+"_response", responseMsg); err != nil {
				application.LogError(ctx, bus.logger, "error publishing query response", err, map[string]interface{}{
					"query_name": queryName,
				})
				msg.Nack()
				continue
			}
			msg.Ack()
		}
	}()
}

func (bus *WatermillQueryBus[Q, D, R]) Dispatch(ctx context.Context, query Q) (R, error) {
	var zero R

	payload, err := json.Marshal(query.Payload())
	if err != nil {
		return zero, err
	}

	responseMessages, err := bus.subscriber.Subscribe(ctx, query.QueryName()+"_response")
	if err != nil {
		return zero, err
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.SetContext(ctx)
	if err := bus.publisher.Publish(query.QueryName(), msg); err != nil {
		return zero, err
	}

	select {
	case responseMsg := <-responseMessages:
		var result R
		if err := json.Unmarshal(responseMsg.Payload, &result); err != nil {
			return zero, err
		}
		responseMsg.Ack()
		return result, nil
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

type dynamicQuery[D any] struct {
	queryName string
	payload   D
}

func (q *dynamicQuery[D]) QueryName() string {
	return q.queryName
}

func (q *dynamicQuery[D]) Payload() D {
	return q.payload
}
