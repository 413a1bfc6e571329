package application

import (
	"github.com/mateusmacedo/go-railwatch/pkg/domain"
)

// SubmitSearchData carries the raw user input for a new search.
type SubmitSearchData struct {
	Origin      string `json:"origin"`
	Destination string `json:"destination"`
	TravelDate  string `json:"travelDate"`
	TravelTime  string `json:"travelTime"`
	UserID      int64  `json:"userId"`
}

type submitSearchCommand struct {
	data SubmitSearchData
}

func (c submitSearchCommand) CommandName() string {
	return "SubmitSearch"
}

func (c submitSearchCommand) Payload() SubmitSearchData {
	return c.data
}

func NewSubmitSearchCommand(data SubmitSearchData) domain.Command[SubmitSearchData] {
	return submitSearchCommand{data: data}
}

// CancelSearchData identifies one search to stop.
type CancelSearchData struct {
	SearchID string `json:"searchId"`
}

type cancelSearchCommand struct {
	data CancelSearchData
}

func (c cancelSearchCommand) CommandName() string {
	return "CancelSearch"
}

func (c cancelSearchCommand) Payload() CancelSearchData {
	return c.data
}

func NewCancelSearchCommand(data CancelSearchData) domain.Command[CancelSearchData] {
	return cancelSearchCommand{data: data}
}

// CancelUserSearchesData identifies a user whose searches are all stopped.
type CancelUserSearchesData struct {
	UserID int64 `json:"userId"`
}

type cancelUserSearchesCommand struct {
	data CancelUserSearchesData
}

func (c cancelUserSearchesCommand) CommandName() string {
	return "CancelUserSearches"
}

func (c cancelUserSearchesCommand) Payload() CancelUserSearchesData {
	return c.data
}

func NewCancelUserSearchesCommand(data CancelUserSearchesData) domain.Command[CancelUserSearchesData] {
	return cancelUserSearchesCommand{data: data}
}
