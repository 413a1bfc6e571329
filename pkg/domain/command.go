package domain

// Command carries a named intent to change system state.
type Command[T any] interface {
	CommandName() string
	Payload() T
}
