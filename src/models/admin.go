package models

import (
	"time"
)

// AdminRef identifies the administrator who performed an action
type AdminRef struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

// AdminAction represents one immutable entry of the admin audit trail
type AdminAction struct {
	ID         string    `json:"id"`
	Admin      AdminRef  `json:"admin"`
	AdminName  string    `json:"admin_name"`
	Action     string    `json:"action"`
	TargetType string    `json:"target_type"`
	TargetID   *string   `json:"target_id,omitempty"`
	Details    string    `json:"details"`
	Timestamp  time.Time `json:"timestamp"`
}

// HistoryPagination is the pagination metadata the backend attaches to history pages
type HistoryPagination struct {
	CurrentPage  int `json:"current_page"`
	TotalPages   int `json:"total_pages"`
	TotalItems   int `json:"total_items"`
	ItemsPerPage int `json:"items_per_page"`
}

// HasMore reports whether the metadata announces a further page.
// Missing metadata (zero TotalPages) is treated as "more may follow".
func (p HistoryPagination) HasMore() bool {
	if p.TotalPages == 0 {
		return true
	}
	return p.CurrentPage < p.TotalPages
}

// HistoryPage is one fetched page of admin actions
type HistoryPage struct {
	Items      []AdminAction     `json:"items"`
	Pagination HistoryPagination `json:"pagination"`
}
