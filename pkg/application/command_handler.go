package application

import (
	"context"

	"github.com/mateusmacedo/go-railwatch/pkg/domain"
)

// CommandHandler processes a single named command.
type CommandHandler[C domain.Command[T], T any] interface {
	Handle(ctx context.Context, command C) error
}

// CommandBus routes commands to their registered handler.
type CommandBus[C domain.Command[T], T any] interface {
	RegisterHandler(commandName string, handler CommandHandler[C, T])
	Dispatch(ctx context.Context, command C) error
}
