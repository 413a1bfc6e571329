package application

import (
	"github.com/mateusmacedo/go-railwatch/pkg/domain"
)

// SearchNotificationData is the payload of every user-facing notification
// leaving the scheduler: a found ticket or a search that gave up.
type SearchNotificationData struct {
	UserID  int64  `json:"userId"`
	Message string `json:"message"`
}

type searchNotificationEvent struct {
	data SearchNotificationData
}

func (e searchNotificationEvent) EventName() string {
	return "SearchNotification"
}

func (e searchNotificationEvent) Payload() SearchNotificationData {
	return e.data
}

func NewSearchNotificationEvent(data SearchNotificationData) domain.Event[SearchNotificationData] {
	return searchNotificationEvent{data: data}
}
