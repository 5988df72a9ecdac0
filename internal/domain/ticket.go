package domain

import (
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/google/uuid"
)

// TicketStatus is the lifecycle state of a purchased ticket.
type TicketStatus string

const (
	TicketStatusActive      TicketStatus = "active"
	TicketStatusUsed        TicketStatus = "used"
	TicketStatusTransferred TicketStatus = "transferred"
	TicketStatusCancelled   TicketStatus = "cancelled"
)

// TicketChain records the on-chain provenance of a ticket purchase. The
// values are opaque references; the chain itself is never called on the
// purchase path.
type TicketChain struct {
	TransactionHash string  `json:"transactionHash"`
	ContractAddress *string `json:"contractAddress,omitempty"`
	TokenID         *string `json:"tokenId,omitempty"`
	Network         string  `json:"network"`
}

// Ticket is a purchased admission right. TicketTypeName and Price are
// snapshots taken at purchase time so later tier edits do not rewrite
// history.
type Ticket struct {
	ID             uuid.UUID    `json:"id"`
	EventID        uuid.UUID    `json:"eventId"`
	OwnerID        uuid.UUID    `json:"ownerId"`
	TicketTypeID   uuid.UUID    `json:"ticketTypeId"`
	TicketTypeName string       `json:"ticketType"`
	Price          float64      `json:"price"`
	Quantity       int          `json:"quantity"`
	QRCode         string       `json:"qrCode"`
	Status         TicketStatus `json:"status"`
	Chain          TicketChain  `json:"blockchain"`
	PurchaseDate   time.Time    `json:"purchaseDate"`
	UsedDate       *time.Time   `json:"usedDate,omitempty"`
	CreatedAt      time.Time    `json:"createdAt"`
	UpdatedAt      time.Time    `json:"updatedAt"`
}

// NewQRCode generates the opaque admission code stored on a ticket:
// 32 random bytes, hex encoded.
func NewQRCode() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
