package dto

import (
	"github.com/google/uuid"
)

// CreateTransactionRequest records a money movement that did not come
// through the ticket purchase path, such as refunds or transfers.
type CreateTransactionRequest struct {
	EventID         uuid.UUID  `json:"eventId" binding:"required"`
	TicketID        *uuid.UUID `json:"ticketId"`
	Type            string     `json:"type" binding:"required,oneof=purchase refund transfer"`
	Amount          float64    `json:"amount" binding:"min=0"`
	Currency        string     `json:"currency"`
	PaymentMethod   string     `json:"paymentMethod" binding:"omitempty,oneof=crypto card other"`
	TransactionHash string     `json:"transactionHash" binding:"required"`
	WalletAddress   *string    `json:"walletAddress"`
	FromAddress     *string    `json:"fromAddress"`
	ToAddress       *string    `json:"toAddress"`
}

// UpdateTransactionStatusRequest moves a transaction along the
// settlement funnel.
type UpdateTransactionStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// TransactionListQuery filters a transaction listing.
type TransactionListQuery struct {
	Type   string `form:"type"`
	Status string `form:"status"`
	Limit  int    `form:"limit,default=20"`
	Offset int    `form:"offset,default=0"`
}
