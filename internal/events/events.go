package events

import (
	"time"

	"github.com/google/uuid"
)

// Event kinds carried on the ticket topic.
const (
	KindTicketPurchased    = "ticket.purchased"
	KindTicketCheckedIn    = "ticket.checked_in"
	KindTransactionSettled = "transaction.settled"
)

// Envelope wraps every published message so consumers can dispatch on
// Kind without decoding the payload first.
type Envelope struct {
	Kind       string    `json:"kind"`
	OccurredAt time.Time `json:"occurredAt"`
	Payload    any       `json:"payload"`
}

// TicketPurchased is emitted after a successful purchase commit.
type TicketPurchased struct {
	TicketID        uuid.UUID `json:"ticketId"`
	TransactionID   uuid.UUID `json:"transactionId"`
	EventID         uuid.UUID `json:"eventId"`
	OwnerID         uuid.UUID `json:"ownerId"`
	TicketTypeName  string    `json:"ticketType"`
	Quantity        int       `json:"quantity"`
	Amount          float64   `json:"amount"`
	TransactionHash string    `json:"transactionHash"`
}

// TicketCheckedIn is emitted after a gate scan succeeds.
type TicketCheckedIn struct {
	TicketID uuid.UUID `json:"ticketId"`
	EventID  uuid.UUID `json:"eventId"`
	OwnerID  uuid.UUID `json:"ownerId"`
	UsedDate time.Time `json:"usedDate"`
}

// TransactionSettled is emitted when on-chain verification resolves a
// pending transaction.
type TransactionSettled struct {
	TransactionID uuid.UUID `json:"transactionId"`
	UserID        uuid.UUID `json:"userId"`
	EventID       uuid.UUID `json:"eventId"`
	Status        string    `json:"status"`
	ErrorMessage  *string   `json:"errorMessage,omitempty"`
}
