package domain

import (
	"time"

	"github.com/google/uuid"
)

// TransactionType classifies a money movement.
type TransactionType string

const (
	TransactionTypePurchase TransactionType = "purchase"
	TransactionTypeRefund   TransactionType = "refund"
	TransactionTypeTransfer TransactionType = "transfer"
)

// TransactionStatus is the settlement state of a transaction.
type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "pending"
	TransactionStatusCompleted TransactionStatus = "completed"
	TransactionStatusFailed    TransactionStatus = "failed"
	TransactionStatusRefunded  TransactionStatus = "refunded"
)

// ValidTransactionStatus reports whether s names a known settlement state.
func ValidTransactionStatus(s TransactionStatus) bool {
	switch s {
	case TransactionStatusPending, TransactionStatusCompleted,
		TransactionStatusFailed, TransactionStatusRefunded:
		return true
	}
	return false
}

// CanTransitionTo enforces the one-way settlement funnel: pending moves
// to completed or failed, and only completed money can be refunded.
func (s TransactionStatus) CanTransitionTo(next TransactionStatus) bool {
	switch s {
	case TransactionStatusPending:
		return next == TransactionStatusCompleted || next == TransactionStatusFailed
	case TransactionStatusCompleted:
		return next == TransactionStatusRefunded
	}
	return false
}

// PaymentMethod is how a transaction was paid.
type PaymentMethod string

const (
	PaymentMethodCrypto PaymentMethod = "crypto"
	PaymentMethodCard   PaymentMethod = "card"
	PaymentMethodOther  PaymentMethod = "other"
)

// TransactionChain holds the on-chain references for a crypto payment.
// TransactionHash is unique across all transactions.
type TransactionChain struct {
	TransactionHash string  `json:"transactionHash"`
	BlockNumber     *int64  `json:"blockNumber,omitempty"`
	Network         string  `json:"network"`
	GasUsed         *string `json:"gasUsed,omitempty"`
	GasPaid         *string `json:"gasPaid,omitempty"`
}

// TransactionMeta carries auxiliary payment details.
type TransactionMeta struct {
	WalletAddress *string `json:"walletAddress,omitempty"`
	FromAddress   *string `json:"fromAddress,omitempty"`
	ToAddress     *string `json:"toAddress,omitempty"`
	ErrorMessage  *string `json:"errorMessage,omitempty"`
}

// Transaction is the financial record behind a ticket purchase, refund,
// or transfer.
type Transaction struct {
	ID            uuid.UUID         `json:"id"`
	UserID        uuid.UUID         `json:"userId"`
	EventID       uuid.UUID         `json:"eventId"`
	TicketID      *uuid.UUID        `json:"ticketId,omitempty"`
	Type          TransactionType   `json:"type"`
	Amount        float64           `json:"amount"`
	Currency      string            `json:"currency"`
	Status        TransactionStatus `json:"status"`
	PaymentMethod PaymentMethod     `json:"paymentMethod"`
	Chain         TransactionChain  `json:"blockchain"`
	Meta          TransactionMeta   `json:"metadata"`
	CreatedAt     time.Time         `json:"createdAt"`
	UpdatedAt     time.Time         `json:"updatedAt"`
}
