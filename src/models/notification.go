package models

import (
	"time"

	"github.com/google/uuid"
)

// NotificationLevel is the severity of an operator notification
type NotificationLevel string

const (
	NotificationSuccess NotificationLevel = "success"
	NotificationError   NotificationLevel = "error"
	NotificationInfo    NotificationLevel = "info"
)

// Notification is a message surfaced to the operator of a console session
type Notification struct {
	ID        uuid.UUID         `json:"id"`
	SessionID string            `json:"-"`
	Level     NotificationLevel `json:"level"`
	Message   string            `json:"message"`
	CreatedAt time.Time         `json:"created_at"`
}
