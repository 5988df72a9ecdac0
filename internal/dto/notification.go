package dto

import (
	"github.com/google/uuid"

	"github.com/bodefavour/web3event/internal/domain"
)

// CreateNotificationRequest pushes an in-app message to a user.
type CreateNotificationRequest struct {
	UserID        uuid.UUID  `json:"userId" binding:"required"`
	Type          string     `json:"type" binding:"required,oneof=event ticket transaction system"`
	Title         string     `json:"title" binding:"required"`
	Message       string     `json:"message" binding:"required"`
	EventID       *uuid.UUID `json:"eventId"`
	TicketID      *uuid.UUID `json:"ticketId"`
	TransactionID *uuid.UUID `json:"transactionId"`
	ActionURL     *string    `json:"actionUrl"`
}

// NotificationListQuery filters a notification listing.
type NotificationListQuery struct {
	UnreadOnly bool `form:"unreadOnly"`
	Limit      int  `form:"limit,default=20"`
	Offset     int  `form:"offset,default=0"`
}

// NotificationListResponse returns notifications with the unread total so
// clients can badge without a second call.
type NotificationListResponse struct {
	Notifications []*domain.Notification `json:"notifications"`
	UnreadCount   int64                  `json:"unreadCount"`
}
