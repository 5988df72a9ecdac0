package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/bodefavour/web3event/internal/domain"
	"github.com/bodefavour/web3event/internal/dto"
	"github.com/bodefavour/web3event/internal/events"
	"github.com/bodefavour/web3event/internal/metrics"
	"github.com/bodefavour/web3event/internal/repository"
	"github.com/bodefavour/web3event/pkg/logger"
	"github.com/bodefavour/web3event/pkg/telemetry"
)

// TicketService handles purchases, listings, and gate verification.
type TicketService interface {
	// Purchase buys quantity tickets in one tier against a payment
	// reference. Replaying the same transaction hash for the same buyer
	// returns the original purchase instead of selling again.
	Purchase(ctx context.Context, ownerID uuid.UUID, req *dto.PurchaseTicketRequest) (*dto.PurchaseTicketResponse, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Ticket, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID, query *dto.TicketListQuery) ([]*domain.Ticket, error)
	// ListByEvent is the host's attendance view: the event's tickets plus
	// per-status counts. Only the event's host may call it.
	ListByEvent(ctx context.Context, eventID, callerID uuid.UUID, query *dto.TicketListQuery) (*dto.EventTicketsResponse, error)
	// Verify checks a ticket in at the gate. The QR code must match and
	// the ticket must still be active.
	Verify(ctx context.Context, ticketID uuid.UUID, qrCode string) (*dto.VerifyTicketResponse, error)
}

type ticketService struct {
	tickets      repository.TicketRepository
	transactions repository.TransactionRepository
	eventRepo    repository.EventRepository
	publisher    events.Publisher
	metrics      *metrics.Metrics
	log          *zap.Logger
}

// NewTicketService creates the ticket service.
func NewTicketService(
	tickets repository.TicketRepository,
	transactions repository.TransactionRepository,
	eventRepo repository.EventRepository,
	publisher events.Publisher,
	m *metrics.Metrics,
) TicketService {
	return &ticketService{
		tickets:      tickets,
		transactions: transactions,
		eventRepo:    eventRepo,
		publisher:    publisher,
		metrics:      m,
		log:          logger.Get(),
	}
}

var _ TicketService = (*ticketService)(nil)

func (s *ticketService) Purchase(ctx context.Context, ownerID uuid.UUID, req *dto.PurchaseTicketRequest) (*dto.PurchaseTicketResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.ticket.purchase")
	defer span.End()

	start := time.Now()
	span.SetAttributes(
		attribute.String("event.id", req.EventID.String()),
		attribute.String("ticket_type.name", req.TicketType),
		attribute.Int("quantity", req.Quantity),
	)

	if req.Quantity < 1 {
		s.metrics.PurchaseRejections.Inc(ctx, metrics.Reason("invalid_quantity"))
		return nil, domain.ErrInvalidQuantity
	}
	if req.TicketType == "" {
		s.metrics.PurchaseRejections.Inc(ctx, metrics.Reason("missing_ticket_type"))
		return nil, domain.ErrInvalidTicketType
	}
	if req.TransactionHash == "" {
		s.metrics.PurchaseRejections.Inc(ctx, metrics.Reason("missing_tx_hash"))
		return nil, domain.ErrMissingTransaction
	}

	event, err := s.eventRepo.GetByID(ctx, req.EventID)
	if err != nil {
		s.metrics.PurchaseRejections.Inc(ctx, metrics.Reason("event_not_found"))
		return nil, err
	}
	if !event.OnSale() {
		s.metrics.PurchaseRejections.Inc(ctx, metrics.Reason("event_not_on_sale"))
		return nil, domain.ErrInvalidEventStatus
	}

	qrCode, err := domain.NewQRCode()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "qr generation failed")
		return nil, fmt.Errorf("generate qr code: %w", err)
	}

	paymentMethod := domain.PaymentMethod(req.PaymentMethod)
	if paymentMethod == "" {
		paymentMethod = domain.PaymentMethodCrypto
	}

	var walletAddress *string
	if req.WalletAddress != "" {
		walletAddress = &req.WalletAddress
	}

	// The event's contract is the default; a caller paying through a
	// different contract may say so.
	contractAddress := event.Chain.ContractAddress
	if req.ContractAddress != "" {
		contractAddress = &req.ContractAddress
	}

	ticket := &domain.Ticket{
		ID:             uuid.New(),
		EventID:        req.EventID,
		OwnerID:        ownerID,
		TicketTypeName: req.TicketType,
		Quantity:       req.Quantity,
		QRCode:         qrCode,
		Status:         domain.TicketStatusActive,
		Chain: domain.TicketChain{
			TransactionHash: req.TransactionHash,
			ContractAddress: contractAddress,
			Network:         event.Chain.Network,
		},
	}
	txn := &domain.Transaction{
		ID:            uuid.New(),
		UserID:        ownerID,
		EventID:       req.EventID,
		Type:          domain.TransactionTypePurchase,
		Currency:      "ETH",
		Status:        domain.TransactionStatusPending,
		PaymentMethod: paymentMethod,
		Chain: domain.TransactionChain{
			TransactionHash: req.TransactionHash,
			Network:         event.Chain.Network,
		},
		Meta: domain.TransactionMeta{
			WalletAddress: walletAddress,
			FromAddress:   walletAddress,
		},
	}

	result, err := s.tickets.Purchase(ctx, ticket, txn)
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateTransaction) {
			return s.replayPurchase(ctx, ownerID, req)
		}
		if errors.Is(err, domain.ErrCapacityExceeded) {
			s.metrics.PurchaseRejections.Inc(ctx, metrics.Reason("capacity_exceeded"))
			span.SetStatus(codes.Error, "capacity exceeded")
			return nil, err
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "purchase failed")
		return nil, err
	}

	s.metrics.RecordPurchase(ctx, result.Ticket.Quantity)
	s.metrics.PurchaseDuration.Record(ctx, time.Since(start).Seconds())

	s.publisher.TicketPurchased(ctx, events.TicketPurchased{
		TicketID:        result.Ticket.ID,
		TransactionID:   result.Transaction.ID,
		EventID:         result.Ticket.EventID,
		OwnerID:         result.Ticket.OwnerID,
		TicketTypeName:  result.Ticket.TicketTypeName,
		Quantity:        result.Ticket.Quantity,
		Amount:          result.Transaction.Amount,
		TransactionHash: result.Ticket.Chain.TransactionHash,
	})

	s.log.Info("ticket purchased",
		zap.String("ticket_id", result.Ticket.ID.String()),
		zap.String("event_id", result.Ticket.EventID.String()),
		zap.String("tier", result.Ticket.TicketTypeName),
		zap.Int("quantity", result.Ticket.Quantity))

	span.SetStatus(codes.Ok, "")
	return &dto.PurchaseTicketResponse{
		Ticket:      result.Ticket,
		Transaction: result.Transaction,
	}, nil
}

// replayPurchase resolves a duplicate transaction hash. The same buyer
// retrying the same purchase gets the original result back; anyone else
// reusing the hash is rejected.
func (s *ticketService) replayPurchase(ctx context.Context, ownerID uuid.UUID, req *dto.PurchaseTicketRequest) (*dto.PurchaseTicketResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.ticket.purchase_replay")
	defer span.End()

	existing, err := s.tickets.GetByTransactionHash(ctx, req.TransactionHash)
	if err != nil {
		// The hash exists only on a manually recorded transaction, not a
		// ticket. Treat as a conflict.
		if errors.Is(err, domain.ErrTicketNotFound) {
			s.metrics.PurchaseRejections.Inc(ctx, metrics.Reason("duplicate_tx_hash"))
			return nil, domain.ErrDuplicateTransaction
		}
		return nil, err
	}

	if existing.OwnerID != ownerID || existing.EventID != req.EventID {
		s.metrics.PurchaseRejections.Inc(ctx, metrics.Reason("duplicate_tx_hash"))
		return nil, domain.ErrDuplicateTransaction
	}

	txn, err := s.transactions.GetByHash(ctx, req.TransactionHash)
	if err != nil {
		return nil, err
	}

	s.log.Info("purchase replayed for duplicate transaction hash",
		zap.String("ticket_id", existing.ID.String()),
		zap.String("owner_id", ownerID.String()))

	return &dto.PurchaseTicketResponse{
		Ticket:      existing,
		Transaction: txn,
		Replayed:    true,
	}, nil
}

func (s *ticketService) GetByID(ctx context.Context, id uuid.UUID) (*domain.Ticket, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.ticket.get_by_id")
	defer span.End()

	return s.tickets.GetByID(ctx, id)
}

func (s *ticketService) ListByOwner(ctx context.Context, ownerID uuid.UUID, query *dto.TicketListQuery) ([]*domain.Ticket, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.ticket.list_by_owner")
	defer span.End()

	return s.tickets.List(ctx, repository.TicketFilter{
		OwnerID: &ownerID,
		EventID: query.EventID,
		Status:  query.Status,
		Limit:   query.Limit,
		Offset:  query.Offset,
	})
}

func (s *ticketService) ListByEvent(ctx context.Context, eventID, callerID uuid.UUID, query *dto.TicketListQuery) (*dto.EventTicketsResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.ticket.list_by_event")
	defer span.End()

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event.HostID != callerID {
		return nil, domain.ErrEventNotFound
	}

	tickets, err := s.tickets.List(ctx, repository.TicketFilter{
		EventID: &eventID,
		Status:  query.Status,
		Limit:   query.Limit,
		Offset:  query.Offset,
	})
	if err != nil {
		return nil, err
	}

	counts, err := s.tickets.CountByStatus(ctx, eventID)
	if err != nil {
		return nil, err
	}

	stats := dto.TicketStats{
		Active:    counts[domain.TicketStatusActive],
		Used:      counts[domain.TicketStatusUsed],
		Cancelled: counts[domain.TicketStatusCancelled],
	}
	for _, n := range counts {
		stats.Total += n
	}

	return &dto.EventTicketsResponse{Tickets: tickets, Stats: stats}, nil
}

func (s *ticketService) Verify(ctx context.Context, ticketID uuid.UUID, qrCode string) (*dto.VerifyTicketResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.ticket.verify")
	defer span.End()

	span.SetAttributes(attribute.String("ticket.id", ticketID.String()))

	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		s.metrics.CheckinRejections.Inc(ctx, metrics.Reason("not_found"))
		return nil, err
	}
	if ticket.QRCode != qrCode {
		s.metrics.CheckinRejections.Inc(ctx, metrics.Reason("invalid_qr"))
		return nil, domain.ErrInvalidQRCode
	}

	// The guarded CheckIn is the source of truth for the active-to-used
	// transition; the read above only authenticates the QR code. A scan
	// that races past it still loses here, and the fields reused from
	// the read below are immutable after purchase.
	usedAt := time.Now().UTC()
	if err := s.tickets.CheckIn(ctx, ticketID, usedAt); err != nil {
		switch {
		case errors.Is(err, domain.ErrTicketAlreadyUsed):
			s.metrics.CheckinRejections.Inc(ctx, metrics.Reason("already_used"))
		case errors.Is(err, domain.ErrTicketNotActive):
			s.metrics.CheckinRejections.Inc(ctx, metrics.Reason("not_active"))
		}
		return nil, err
	}

	ticket.Status = domain.TicketStatusUsed
	ticket.UsedDate = &usedAt

	s.metrics.CheckinsTotal.Inc(ctx)
	s.publisher.TicketCheckedIn(ctx, events.TicketCheckedIn{
		TicketID: ticket.ID,
		EventID:  ticket.EventID,
		OwnerID:  ticket.OwnerID,
		UsedDate: usedAt,
	})

	s.log.Info("ticket checked in",
		zap.String("ticket_id", ticket.ID.String()),
		zap.String("event_id", ticket.EventID.String()))

	return &dto.VerifyTicketResponse{Ticket: ticket, UsedDate: usedAt}, nil
}
