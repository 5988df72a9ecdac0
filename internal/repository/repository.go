package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/bodefavour/web3event/internal/domain"
	"github.com/bodefavour/web3event/internal/dto"
)

// EventFilter narrows event listings.
type EventFilter struct {
	Category string
	Status   string
	City     string
	HostID   *uuid.UUID
	Search   string
	Limit    int
	Offset   int
}

// EventRepository persists events together with their ticket tiers.
type EventRepository interface {
	Create(ctx context.Context, event *domain.Event) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Event, error)
	List(ctx context.Context, filter EventFilter) ([]*domain.Event, error)
	Update(ctx context.Context, event *domain.Event) error
	// Delete removes an event unless active tickets exist for it.
	Delete(ctx context.Context, id uuid.UUID) error
	// AddViews applies a batch of buffered view counts.
	AddViews(ctx context.Context, counts map[uuid.UUID]int64) error
	IncrementFavorites(ctx context.Context, id uuid.UUID, delta int64) error
}

// PurchaseResult is what the atomic purchase write produces.
type PurchaseResult struct {
	Ticket      *domain.Ticket
	Transaction *domain.Transaction
}

// TicketFilter narrows ticket listings.
type TicketFilter struct {
	OwnerID *uuid.UUID
	EventID *uuid.UUID
	Status  string
	Limit   int
	Offset  int
}

// TicketRepository persists tickets. Purchase and CheckIn are the two
// guarded writes that keep capacity and admission consistent under
// concurrency.
type TicketRepository interface {
	// Purchase claims capacity on the tier and records the ticket and its
	// transaction in one database transaction. The claim fails with
	// domain.ErrCapacityExceeded when the tier cannot cover the quantity,
	// and with domain.ErrDuplicateTransaction when the transaction hash
	// was already recorded. Ticket price and tier name are snapshotted
	// from the claimed row.
	Purchase(ctx context.Context, ticket *domain.Ticket, txn *domain.Transaction) (*PurchaseResult, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Ticket, error)
	GetByTransactionHash(ctx context.Context, hash string) (*domain.Ticket, error)
	List(ctx context.Context, filter TicketFilter) ([]*domain.Ticket, error)
	// CheckIn marks an active ticket used. Exactly one concurrent caller
	// can succeed per ticket.
	CheckIn(ctx context.Context, id uuid.UUID, at time.Time) error
	// CountByStatus tallies an event's tickets per status.
	CountByStatus(ctx context.Context, eventID uuid.UUID) (map[domain.TicketStatus]int, error)
}

// TransactionFilter narrows transaction listings.
type TransactionFilter struct {
	UserID *uuid.UUID
	Type   string
	Status string
	Limit  int
	Offset int
}

// TransactionRepository persists financial records.
type TransactionRepository interface {
	Create(ctx context.Context, txn *domain.Transaction) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error)
	GetByHash(ctx context.Context, hash string) (*domain.Transaction, error)
	List(ctx context.Context, filter TransactionFilter) ([]*domain.Transaction, error)
	// ListPending returns transactions awaiting on-chain confirmation.
	ListPending(ctx context.Context, limit int) ([]*domain.Transaction, error)
	// Settle records the outcome of on-chain verification.
	Settle(ctx context.Context, id uuid.UUID, status domain.TransactionStatus, blockNumber *int64, gasUsed *string, errMsg *string) error
	// UpdateStatus moves a transaction from one settlement state to
	// another. The update is guarded on the expected current state so a
	// concurrent change loses cleanly.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to domain.TransactionStatus) error
}

// NotificationRepository persists in-app notifications.
type NotificationRepository interface {
	Create(ctx context.Context, n *domain.Notification) error
	ListByUser(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit, offset int) ([]*domain.Notification, error)
	CountUnread(ctx context.Context, userID uuid.UUID) (int64, error)
	MarkRead(ctx context.Context, id, userID uuid.UUID) error
	MarkAllRead(ctx context.Context, userID uuid.UUID) error
	Delete(ctx context.Context, id, userID uuid.UUID) error
}

// UserRepository persists accounts.
type UserRepository interface {
	Create(ctx context.Context, u *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByWallet(ctx context.Context, wallet string) (*domain.User, error)
	Update(ctx context.Context, u *domain.User) error
}

// AnalyticsRepository aggregates sales figures per event and per host.
type AnalyticsRepository interface {
	Overview(ctx context.Context, eventID uuid.UUID) (*dto.AnalyticsOverview, error)
	SalesByType(ctx context.Context, eventID uuid.UUID) ([]dto.TypeSales, error)
	SalesOverTime(ctx context.Context, eventID uuid.UUID, since time.Time) ([]dto.DailySales, error)
	// HostOverview rolls the figures up across every event of one host.
	HostOverview(ctx context.Context, hostID uuid.UUID) (*dto.HostOverview, error)
}

// ViewCounter buffers event page views off the hot read path. Flush
// drains the buffer and returns the counts to apply.
type ViewCounter interface {
	Record(ctx context.Context, eventID uuid.UUID) error
	Flush(ctx context.Context) (map[uuid.UUID]int64, error)
}
