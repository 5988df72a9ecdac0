package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/bodefavour/web3event/internal/domain"
)

// PurchaseTicketRequest is the payload for buying tickets. The transaction
// hash is treated as an opaque payment reference.
type PurchaseTicketRequest struct {
	EventID         uuid.UUID `json:"eventId" binding:"required"`
	TicketType      string    `json:"ticketType" binding:"required"`
	Quantity        int       `json:"quantity" binding:"required,min=1"`
	TransactionHash string    `json:"transactionHash" binding:"required"`
	ContractAddress string    `json:"contractAddress,omitempty"`
	WalletAddress   string    `json:"walletAddress,omitempty"`
	PaymentMethod   string    `json:"paymentMethod,omitempty"`
}

// PurchaseTicketResponse returns the created ticket plus its transaction.
type PurchaseTicketResponse struct {
	Ticket      *domain.Ticket      `json:"ticket"`
	Transaction *domain.Transaction `json:"transaction"`
	// Replayed is true when the transaction hash was already recorded
	// for this owner and the original purchase is returned instead.
	Replayed bool `json:"replayed,omitempty"`
}

// VerifyTicketRequest carries the QR code scanned at the gate.
type VerifyTicketRequest struct {
	QRCode string `json:"qrCode" binding:"required"`
}

// VerifyTicketResponse confirms a check-in.
type VerifyTicketResponse struct {
	Ticket   *domain.Ticket `json:"ticket"`
	UsedDate time.Time      `json:"usedDate"`
}

// TicketStats counts an event's tickets per lifecycle state.
type TicketStats struct {
	Total     int `json:"total"`
	Active    int `json:"active"`
	Used      int `json:"used"`
	Cancelled int `json:"cancelled"`
}

// EventTicketsResponse is the host's view of an event's tickets.
type EventTicketsResponse struct {
	Tickets []*domain.Ticket `json:"tickets"`
	Stats   TicketStats      `json:"stats"`
}

// TicketListQuery filters a ticket listing.
type TicketListQuery struct {
	EventID *uuid.UUID `form:"eventId"`
	Status  string     `form:"status"`
	Limit   int        `form:"limit,default=20"`
	Offset  int        `form:"offset,default=0"`
}
