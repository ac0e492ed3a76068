package gateway

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/khabaroff/roster-console/src/models"
)

// Wire shapes of the user-management backend. They are converted to models
// at this boundary and never leave the package.

type wireUser struct {
	ID        string `json:"_id"`
	Name      string `json:"nom"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	Active    bool   `json:"actif"`
	CreatedAt string `json:"createdAt"`
	Avatar    string `json:"avatar,omitempty"`
}

type wireAdminRef struct {
	ID    string `json:"_id"`
	Name  string `json:"nom"`
	Email string `json:"email"`
}

type wireAction struct {
	ID         string        `json:"_id"`
	Admin      *wireAdminRef `json:"adminId"`
	AdminName  string        `json:"adminName"`
	Action     string        `json:"action"`
	TargetType string        `json:"targetType"`
	TargetID   *string       `json:"targetId"`
	Details    string        `json:"details"`
	Timestamp  string        `json:"timestamp"`
}

type wirePagination struct {
	CurrentPage  int `json:"currentPage"`
	TotalPages   int `json:"totalPages"`
	TotalItems   int `json:"totalItems"`
	ItemsPerPage int `json:"itemsPerPage"`
}

type wireCreateUser struct {
	Name     string `json:"nom"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role,omitempty"`
	Active   *bool  `json:"actif,omitempty"`
}

type wireUpdateUser struct {
	ID     string `json:"_id"`
	Name   string `json:"nom"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	Active bool   `json:"actif"`
}

type wireCredentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// envelope is the generic backend response: a message plus optional payloads
type envelope struct {
	Message string          `json:"message"`
	Error   string          `json:"error"`
	Token   string          `json:"token"`
	User    json.RawMessage `json:"user"`
}

func (e envelope) text() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Error
}

func (u wireUser) model() models.User {
	return models.User{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      models.Role(u.Role),
		Active:    u.Active,
		CreatedAt: parseTime(u.CreatedAt),
		Avatar:    u.Avatar,
	}
}

func (a wireAction) model() models.AdminAction {
	out := models.AdminAction{
		ID:         a.ID,
		AdminName:  a.AdminName,
		Action:     a.Action,
		TargetType: a.TargetType,
		TargetID:   a.TargetID,
		Details:    a.Details,
		Timestamp:  parseTime(a.Timestamp),
	}
	if a.Admin != nil {
		out.Admin = models.AdminRef{ID: a.Admin.ID, Name: a.Admin.Name, Email: a.Admin.Email}
	}
	return out
}

var timeLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"}

// parseTime returns the zero time for missing or unparseable values
func parseTime(s string) time.Time {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// decodeUserList accepts {"users":[...]} or a bare array
func decodeUserList(data []byte) ([]models.User, error) {
	var wire []wireUser

	switch firstByte(data) {
	case '[':
		if err := json.Unmarshal(data, &wire); err != nil {
			return nil, fmt.Errorf("%w: user list: %v", ErrInvalidResponse, err)
		}
	case '{':
		var wrapped struct {
			Users *[]wireUser `json:"users"`
		}
		if err := json.Unmarshal(data, &wrapped); err != nil {
			return nil, fmt.Errorf("%w: user list: %v", ErrInvalidResponse, err)
		}
		if wrapped.Users == nil {
			return nil, fmt.Errorf("%w: user list: missing users field", ErrInvalidResponse)
		}
		wire = *wrapped.Users
	default:
		return nil, fmt.Errorf("%w: user list: unexpected payload", ErrInvalidResponse)
	}

	users := make([]models.User, 0, len(wire))
	for _, u := range wire {
		users = append(users, u.model())
	}
	return users, nil
}

// decodeUser accepts {"user":{...}} or a bare user object
func decodeUser(data []byte) (models.User, error) {
	if firstByte(data) != '{' {
		return models.User{}, fmt.Errorf("%w: user: unexpected payload", ErrInvalidResponse)
	}

	var wrapped struct {
		User *wireUser `json:"user"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return models.User{}, fmt.Errorf("%w: user: %v", ErrInvalidResponse, err)
	}
	if wrapped.User != nil {
		return validUser(*wrapped.User)
	}

	var bare wireUser
	if err := json.Unmarshal(data, &bare); err != nil {
		return models.User{}, fmt.Errorf("%w: user: %v", ErrInvalidResponse, err)
	}
	return validUser(bare)
}

func validUser(u wireUser) (models.User, error) {
	if u.ID == "" {
		return models.User{}, fmt.Errorf("%w: user: missing _id", ErrInvalidResponse)
	}
	return u.model(), nil
}

// decodeHistory accepts {"history":[...],"pagination":{...}}
func decodeHistory(data []byte) (models.HistoryPage, error) {
	var wrapped struct {
		History    *[]wireAction  `json:"history"`
		Pagination wirePagination `json:"pagination"`
	}
	if firstByte(data) != '{' {
		return models.HistoryPage{}, fmt.Errorf("%w: history: unexpected payload", ErrInvalidResponse)
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return models.HistoryPage{}, fmt.Errorf("%w: history: %v", ErrInvalidResponse, err)
	}
	if wrapped.History == nil {
		return models.HistoryPage{}, fmt.Errorf("%w: history: missing history field", ErrInvalidResponse)
	}

	items := make([]models.AdminAction, 0, len(*wrapped.History))
	for _, a := range *wrapped.History {
		items = append(items, a.model())
	}
	p := wrapped.Pagination
	return models.HistoryPage{
		Items: items,
		Pagination: models.HistoryPagination{
			CurrentPage:  p.CurrentPage,
			TotalPages:   p.TotalPages,
			TotalItems:   p.TotalItems,
			ItemsPerPage: p.ItemsPerPage,
		},
	}, nil
}

func firstByte(data []byte) byte {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return 0
	}
	return trimmed[0]
}
