package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/bodefavour/web3event/internal/domain"
)

// CreateEventRequest creates an event with its ticket tiers in one call.
type CreateEventRequest struct {
	Title       string                    `json:"title" binding:"required"`
	Description string                    `json:"description"`
	Category    string                    `json:"category" binding:"required"`
	Venue       string                    `json:"venue" binding:"required"`
	Location    LocationPayload           `json:"location" binding:"required"`
	StartDate   time.Time                 `json:"startDate" binding:"required"`
	EndDate     time.Time                 `json:"endDate" binding:"required"`
	ImageURL    *string                   `json:"image"`
	Network     string                    `json:"network"`
	TicketTypes []CreateTicketTypePayload `json:"ticketTypes" binding:"required,min=1,dive"`
}

// LocationPayload is the venue address block.
type LocationPayload struct {
	Address   string   `json:"address" binding:"required"`
	City      string   `json:"city" binding:"required"`
	Country   string   `json:"country" binding:"required"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

// CreateTicketTypePayload defines one purchasable tier.
type CreateTicketTypePayload struct {
	Name        string   `json:"name" binding:"required"`
	Description string   `json:"description"`
	Price       float64  `json:"price" binding:"min=0"`
	Quantity    int      `json:"quantity" binding:"required,min=1"`
	Benefits    []string `json:"benefits"`
}

// UpdateEventRequest patches mutable event fields. Nil means unchanged.
type UpdateEventRequest struct {
	Title       *string          `json:"title"`
	Description *string          `json:"description"`
	Category    *string          `json:"category"`
	Venue       *string          `json:"venue"`
	Location    *LocationPayload `json:"location"`
	StartDate   *time.Time       `json:"startDate"`
	EndDate     *time.Time       `json:"endDate"`
	ImageURL    *string          `json:"image"`
	Status      *string          `json:"status"`
}

// EventListQuery filters an event listing.
type EventListQuery struct {
	Category string     `form:"category"`
	Status   string     `form:"status"`
	City     string     `form:"city"`
	HostID   *uuid.UUID `form:"hostId"`
	Search   string     `form:"search"`
	Limit    int        `form:"limit,default=20"`
	Offset   int        `form:"offset,default=0"`
}

// EventResponse is an event plus derived totals.
type EventResponse struct {
	*domain.Event
	TotalTickets int `json:"totalTickets"`
	SoldTickets  int `json:"soldTickets"`
}

// NewEventResponse wraps an event with its derived totals.
func NewEventResponse(e *domain.Event) *EventResponse {
	return &EventResponse{
		Event:        e,
		TotalTickets: e.TotalTickets(),
		SoldTickets:  e.SoldTickets(),
	}
}
