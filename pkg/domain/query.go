package domain

// Query carries a named read request.
type Query[T any] interface {
	QueryName() string
	Payload() T
}
