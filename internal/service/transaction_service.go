package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/bodefavour/web3event/internal/domain"
	"github.com/bodefavour/web3event/internal/dto"
	"github.com/bodefavour/web3event/internal/repository"
	"github.com/bodefavour/web3event/pkg/telemetry"
)

// TransactionService records and reads financial history. Purchases are
// written by the ticket path; this service covers refunds, transfers,
// and lookups.
type TransactionService interface {
	Create(ctx context.Context, userID uuid.UUID, req *dto.CreateTransactionRequest) (*domain.Transaction, error)
	Get(ctx context.Context, id, callerID uuid.UUID) (*domain.Transaction, error)
	ListByUser(ctx context.Context, userID uuid.UUID, query *dto.TransactionListQuery) ([]*domain.Transaction, error)
	// UpdateStatus moves the caller's transaction along the one-way
	// settlement funnel: pending to completed or failed, refunded only
	// from completed.
	UpdateStatus(ctx context.Context, id, callerID uuid.UUID, status domain.TransactionStatus) (*domain.Transaction, error)
}

type transactionService struct {
	repo repository.TransactionRepository
}

// NewTransactionService creates the transaction service.
func NewTransactionService(repo repository.TransactionRepository) TransactionService {
	return &transactionService{repo: repo}
}

var _ TransactionService = (*transactionService)(nil)

func (s *transactionService) Create(ctx context.Context, userID uuid.UUID, req *dto.CreateTransactionRequest) (*domain.Transaction, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.transaction.create")
	defer span.End()

	if req.TransactionHash == "" {
		return nil, domain.ErrMissingTransaction
	}

	currency := req.Currency
	if currency == "" {
		currency = "ETH"
	}
	paymentMethod := domain.PaymentMethod(req.PaymentMethod)
	if paymentMethod == "" {
		paymentMethod = domain.PaymentMethodCrypto
	}

	txn := &domain.Transaction{
		ID:            uuid.New(),
		UserID:        userID,
		EventID:       req.EventID,
		TicketID:      req.TicketID,
		Type:          domain.TransactionType(req.Type),
		Amount:        req.Amount,
		Currency:      currency,
		Status:        domain.TransactionStatusPending,
		PaymentMethod: paymentMethod,
		Chain: domain.TransactionChain{
			TransactionHash: req.TransactionHash,
			Network:         "sepolia",
		},
		Meta: domain.TransactionMeta{
			WalletAddress: req.WalletAddress,
			FromAddress:   req.FromAddress,
			ToAddress:     req.ToAddress,
		},
	}

	if err := s.repo.Create(ctx, txn); err != nil {
		return nil, err
	}
	return txn, nil
}

func (s *transactionService) Get(ctx context.Context, id, callerID uuid.UUID) (*domain.Transaction, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.transaction.get")
	defer span.End()

	txn, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	// Transactions are private to their owner.
	if txn.UserID != callerID {
		return nil, domain.ErrTransactionNotFound
	}
	return txn, nil
}

func (s *transactionService) UpdateStatus(ctx context.Context, id, callerID uuid.UUID, status domain.TransactionStatus) (*domain.Transaction, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.transaction.update_status")
	defer span.End()

	if !domain.ValidTransactionStatus(status) {
		return nil, domain.ErrUnknownTransactionStatus
	}

	txn, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if txn.UserID != callerID {
		return nil, domain.ErrTransactionNotFound
	}
	if !txn.Status.CanTransitionTo(status) {
		return nil, domain.ErrInvalidStatusChange
	}

	// Guarded on the status just read, so a settlement racing past the
	// read surfaces as a conflict instead of a silent overwrite.
	if err := s.repo.UpdateStatus(ctx, id, txn.Status, status); err != nil {
		return nil, err
	}
	txn.Status = status
	return txn, nil
}

func (s *transactionService) ListByUser(ctx context.Context, userID uuid.UUID, query *dto.TransactionListQuery) ([]*domain.Transaction, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.transaction.list_by_user")
	defer span.End()

	return s.repo.List(ctx, repository.TransactionFilter{
		UserID: &userID,
		Type:   query.Type,
		Status: query.Status,
		Limit:  query.Limit,
		Offset: query.Offset,
	})
}
