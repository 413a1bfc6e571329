package application

import (
	"github.com/mateusmacedo/go-railwatch/pkg/domain"
)

// ListUserSearchesData selects the searches of one user.
type ListUserSearchesData struct {
	UserID int64 `json:"userId"`
}

type listUserSearchesQuery struct {
	data ListUserSearchesData
}

func (q listUserSearchesQuery) QueryName() string {
	return "ListUserSearches"
}

func (q listUserSearchesQuery) Payload() ListUserSearchesData {
	return q.data
}

func NewListUserSearchesQuery(data ListUserSearchesData) domain.Query[ListUserSearchesData] {
	return listUserSearchesQuery{data: data}
}
