package domain

import (
	"time"

	"github.com/google/uuid"
)

// NotificationType classifies what a notification is about.
type NotificationType string

const (
	NotificationTypeEvent       NotificationType = "event"
	NotificationTypeTicket      NotificationType = "ticket"
	NotificationTypeTransaction NotificationType = "transaction"
	NotificationTypeSystem      NotificationType = "system"
)

// ValidNotificationType reports whether t is a known type.
func ValidNotificationType(t NotificationType) bool {
	switch t {
	case NotificationTypeEvent, NotificationTypeTicket,
		NotificationTypeTransaction, NotificationTypeSystem:
		return true
	}
	return false
}

// NotificationData links a notification to the records it is about.
type NotificationData struct {
	EventID       *uuid.UUID `json:"eventId,omitempty"`
	TicketID      *uuid.UUID `json:"ticketId,omitempty"`
	TransactionID *uuid.UUID `json:"transactionId,omitempty"`
	ActionURL     *string    `json:"actionUrl,omitempty"`
}

// Notification is an in-app message addressed to one user.
type Notification struct {
	ID        uuid.UUID        `json:"id"`
	UserID    uuid.UUID        `json:"userId"`
	Type      NotificationType `json:"type"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	Read      bool             `json:"read"`
	Data      NotificationData `json:"data"`
	CreatedAt time.Time        `json:"createdAt"`
	UpdatedAt time.Time        `json:"updatedAt"`
}
