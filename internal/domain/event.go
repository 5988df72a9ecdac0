package domain

import (
	"time"

	"github.com/google/uuid"
)

// EventStatus is the lifecycle state of an event.
type EventStatus string

const (
	EventStatusDraft     EventStatus = "draft"
	EventStatusPublished EventStatus = "published"
	EventStatusOngoing   EventStatus = "ongoing"
	EventStatusCompleted EventStatus = "completed"
	EventStatusCancelled EventStatus = "cancelled"
)

// ValidEventStatus reports whether s is a known lifecycle state.
func ValidEventStatus(s EventStatus) bool {
	switch s {
	case EventStatusDraft, EventStatusPublished, EventStatusOngoing,
		EventStatusCompleted, EventStatusCancelled:
		return true
	}
	return false
}

// Location is the physical venue of an event.
type Location struct {
	Address   string   `json:"address"`
	City      string   `json:"city"`
	Country   string   `json:"country"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}

// ChainInfo records where an event's ticket contract lives.
type ChainInfo struct {
	Network         string     `json:"network"`
	ContractAddress *string    `json:"contractAddress,omitempty"`
	DeployedAt      *time.Time `json:"deployedAt,omitempty"`
}

// Event is a ticketed event with one or more ticket tiers.
type Event struct {
	ID          uuid.UUID    `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	HostID      uuid.UUID    `json:"hostId"`
	Category    string       `json:"category"`
	Venue       string       `json:"venue"`
	Location    Location     `json:"location"`
	StartDate   time.Time    `json:"startDate"`
	EndDate     time.Time    `json:"endDate"`
	ImageURL    *string      `json:"image,omitempty"`
	Status      EventStatus  `json:"status"`
	Chain       ChainInfo    `json:"blockchain"`
	TicketTypes []TicketType `json:"ticketTypes,omitempty"`
	Views       int64        `json:"views"`
	Favorites   int64        `json:"favorites"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}

// TotalTickets sums capacity across all tiers.
func (e *Event) TotalTickets() int {
	var total int
	for i := range e.TicketTypes {
		total += e.TicketTypes[i].Quantity
	}
	return total
}

// SoldTickets sums sold counts across all tiers.
func (e *Event) SoldTickets() int {
	var sold int
	for i := range e.TicketTypes {
		sold += e.TicketTypes[i].Sold
	}
	return sold
}

// OnSale reports whether tickets can currently be purchased.
func (e *Event) OnSale() bool {
	return e.Status == EventStatusPublished || e.Status == EventStatusOngoing
}

// TicketType is one purchasable tier of an event, with a fixed capacity.
// Sold never exceeds Quantity; the repository enforces that atomically.
type TicketType struct {
	ID          uuid.UUID `json:"id"`
	EventID     uuid.UUID `json:"eventId"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
	Quantity    int       `json:"quantity"`
	Sold        int       `json:"sold"`
	Benefits    []string  `json:"benefits,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Remaining returns the number of tickets still available in this tier.
func (t *TicketType) Remaining() int {
	return t.Quantity - t.Sold
}
