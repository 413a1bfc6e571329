package infrastructure

import (
	"encoding/json"

	"github.com/google/uuid"
)

func GenerateUUID() string {
	return uuid.New().String()
}

func MarshalPayload[T any](payload T) ([]byte, error) {
	return json.Marshal(payload)
}
