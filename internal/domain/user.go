package domain

import (
	"time"

	"github.com/google/uuid"
)

// User is an account holder identified by a wallet address.
type User struct {
	ID            uuid.UUID `json:"id"`
	WalletAddress string    `json:"walletAddress"`
	Email         *string   `json:"email,omitempty"`
	Name          string    `json:"name"`
	AvatarURL     *string   `json:"avatar,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}
