package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/bodefavour/web3event/internal/domain"
	"github.com/bodefavour/web3event/internal/dto"
	"github.com/bodefavour/web3event/internal/events"
	"github.com/bodefavour/web3event/internal/metrics"
	"github.com/bodefavour/web3event/internal/repository"
)

// --- Mocks ---

type mockTicketRepository struct {
	PurchaseFunc             func(ctx context.Context, ticket *domain.Ticket, txn *domain.Transaction) (*repository.PurchaseResult, error)
	GetByIDFunc              func(ctx context.Context, id uuid.UUID) (*domain.Ticket, error)
	GetByTransactionHashFunc func(ctx context.Context, hash string) (*domain.Ticket, error)
	ListFunc                 func(ctx context.Context, filter repository.TicketFilter) ([]*domain.Ticket, error)
	CheckInFunc              func(ctx context.Context, id uuid.UUID, at time.Time) error
	CountByStatusFunc        func(ctx context.Context, eventID uuid.UUID) (map[domain.TicketStatus]int, error)
}

func (m *mockTicketRepository) Purchase(ctx context.Context, ticket *domain.Ticket, txn *domain.Transaction) (*repository.PurchaseResult, error) {
	return m.PurchaseFunc(ctx, ticket, txn)
}

func (m *mockTicketRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Ticket, error) {
	return m.GetByIDFunc(ctx, id)
}

func (m *mockTicketRepository) GetByTransactionHash(ctx context.Context, hash string) (*domain.Ticket, error) {
	return m.GetByTransactionHashFunc(ctx, hash)
}

func (m *mockTicketRepository) List(ctx context.Context, filter repository.TicketFilter) ([]*domain.Ticket, error) {
	return m.ListFunc(ctx, filter)
}

func (m *mockTicketRepository) CheckIn(ctx context.Context, id uuid.UUID, at time.Time) error {
	return m.CheckInFunc(ctx, id, at)
}

func (m *mockTicketRepository) CountByStatus(ctx context.Context, eventID uuid.UUID) (map[domain.TicketStatus]int, error) {
	return m.CountByStatusFunc(ctx, eventID)
}

type mockTransactionRepository struct {
	CreateFunc      func(ctx context.Context, txn *domain.Transaction) error
	GetByIDFunc     func(ctx context.Context, id uuid.UUID) (*domain.Transaction, error)
	GetByHashFunc   func(ctx context.Context, hash string) (*domain.Transaction, error)
	ListFunc        func(ctx context.Context, filter repository.TransactionFilter) ([]*domain.Transaction, error)
	ListPendingFunc  func(ctx context.Context, limit int) ([]*domain.Transaction, error)
	SettleFunc       func(ctx context.Context, id uuid.UUID, status domain.TransactionStatus, blockNumber *int64, gasUsed *string, errMsg *string) error
	UpdateStatusFunc func(ctx context.Context, id uuid.UUID, from, to domain.TransactionStatus) error
}

func (m *mockTransactionRepository) Create(ctx context.Context, txn *domain.Transaction) error {
	return m.CreateFunc(ctx, txn)
}

func (m *mockTransactionRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	return m.GetByIDFunc(ctx, id)
}

func (m *mockTransactionRepository) GetByHash(ctx context.Context, hash string) (*domain.Transaction, error) {
	return m.GetByHashFunc(ctx, hash)
}

func (m *mockTransactionRepository) List(ctx context.Context, filter repository.TransactionFilter) ([]*domain.Transaction, error) {
	return m.ListFunc(ctx, filter)
}

func (m *mockTransactionRepository) ListPending(ctx context.Context, limit int) ([]*domain.Transaction, error) {
	return m.ListPendingFunc(ctx, limit)
}

func (m *mockTransactionRepository) Settle(ctx context.Context, id uuid.UUID, status domain.TransactionStatus, blockNumber *int64, gasUsed *string, errMsg *string) error {
	return m.SettleFunc(ctx, id, status, blockNumber, gasUsed, errMsg)
}

func (m *mockTransactionRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to domain.TransactionStatus) error {
	return m.UpdateStatusFunc(ctx, id, from, to)
}

type mockEventRepository struct {
	CreateFunc             func(ctx context.Context, event *domain.Event) error
	GetByIDFunc            func(ctx context.Context, id uuid.UUID) (*domain.Event, error)
	ListFunc               func(ctx context.Context, filter repository.EventFilter) ([]*domain.Event, error)
	UpdateFunc             func(ctx context.Context, event *domain.Event) error
	DeleteFunc             func(ctx context.Context, id uuid.UUID) error
	AddViewsFunc           func(ctx context.Context, counts map[uuid.UUID]int64) error
	IncrementFavoritesFunc func(ctx context.Context, id uuid.UUID, delta int64) error
}

func (m *mockEventRepository) Create(ctx context.Context, event *domain.Event) error {
	return m.CreateFunc(ctx, event)
}

func (m *mockEventRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Event, error) {
	return m.GetByIDFunc(ctx, id)
}

func (m *mockEventRepository) List(ctx context.Context, filter repository.EventFilter) ([]*domain.Event, error) {
	return m.ListFunc(ctx, filter)
}

func (m *mockEventRepository) Update(ctx context.Context, event *domain.Event) error {
	return m.UpdateFunc(ctx, event)
}

func (m *mockEventRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.DeleteFunc(ctx, id)
}

func (m *mockEventRepository) AddViews(ctx context.Context, counts map[uuid.UUID]int64) error {
	return m.AddViewsFunc(ctx, counts)
}

func (m *mockEventRepository) IncrementFavorites(ctx context.Context, id uuid.UUID, delta int64) error {
	return m.IncrementFavoritesFunc(ctx, id, delta)
}

// --- Fixtures ---

var (
	testEventID  = uuid.MustParse("11111111-1111-1111-1111-111111111111")
	testTierID   = uuid.MustParse("22222222-2222-2222-2222-222222222222")
	testOwnerID  = uuid.MustParse("33333333-3333-3333-3333-333333333333")
	testTicketID = uuid.MustParse("44444444-4444-4444-4444-444444444444")
)

func publishedEvent() *domain.Event {
	return &domain.Event{
		ID:     testEventID,
		Title:  "Summit",
		Status: domain.EventStatusPublished,
		Chain:  domain.ChainInfo{Network: "sepolia"},
		TicketTypes: []domain.TicketType{
			{ID: testTierID, EventID: testEventID, Name: "VIP", Price: 0.5, Quantity: 5, Sold: 3},
		},
	}
}

func eventRepoReturning(event *domain.Event) *mockEventRepository {
	return &mockEventRepository{
		GetByIDFunc: func(ctx context.Context, id uuid.UUID) (*domain.Event, error) {
			if event == nil || id != event.ID {
				return nil, domain.ErrEventNotFound
			}
			return event, nil
		},
	}
}

func newTicketServiceForTest(tickets *mockTicketRepository, txns *mockTransactionRepository, eventRepo *mockEventRepository) TicketService {
	return NewTicketService(tickets, txns, eventRepo, events.NopPublisher{}, metrics.New())
}

func purchaseReq(quantity int, hash string) *dto.PurchaseTicketRequest {
	return &dto.PurchaseTicketRequest{
		EventID:         testEventID,
		TicketType:      "VIP",
		Quantity:        quantity,
		TransactionHash: hash,
	}
}

// --- Purchase ---

func TestPurchase_Success(t *testing.T) {
	var gotTicket *domain.Ticket
	tickets := &mockTicketRepository{
		PurchaseFunc: func(ctx context.Context, ticket *domain.Ticket, txn *domain.Transaction) (*repository.PurchaseResult, error) {
			ticket.TicketTypeName = "VIP"
			ticket.Price = 0.5
			txn.Amount = 0.5 * float64(ticket.Quantity)
			gotTicket = ticket
			return &repository.PurchaseResult{Ticket: ticket, Transaction: txn}, nil
		},
	}

	svc := newTicketServiceForTest(tickets, &mockTransactionRepository{}, eventRepoReturning(publishedEvent()))

	result, err := svc.Purchase(context.Background(), testOwnerID, purchaseReq(2, "0xabc"))
	if err != nil {
		t.Fatalf("Purchase() error = %v", err)
	}
	if result.Replayed {
		t.Error("Purchase() replayed = true, want false")
	}
	if result.Ticket.TicketTypeName != "VIP" {
		t.Errorf("ticket tier = %q, want VIP", result.Ticket.TicketTypeName)
	}
	if result.Ticket.Price != 0.5 {
		t.Errorf("ticket price = %v, want 0.5", result.Ticket.Price)
	}
	if result.Transaction.Amount != 1.0 {
		t.Errorf("transaction amount = %v, want 1.0", result.Transaction.Amount)
	}
	if result.Transaction.Status != domain.TransactionStatusPending {
		t.Errorf("transaction status = %q, want pending", result.Transaction.Status)
	}
	if gotTicket.QRCode == "" {
		t.Error("ticket QR code not generated")
	}
	if gotTicket.Status != domain.TicketStatusActive {
		t.Errorf("ticket status = %q, want active", gotTicket.Status)
	}
	if gotTicket.Chain.Network != "sepolia" {
		t.Errorf("ticket network = %q, want sepolia", gotTicket.Chain.Network)
	}
	if gotTicket.TicketTypeName != "VIP" {
		t.Errorf("claimed tier name = %q, want VIP", gotTicket.TicketTypeName)
	}
}

func TestPurchase_ContractAddress(t *testing.T) {
	eventContract := "0xevent-contract"

	tests := []struct {
		name         string
		reqContract  string
		wantContract string
	}{
		{name: "defaults to the event's contract", reqContract: "", wantContract: eventContract},
		{name: "caller override wins", reqContract: "0xother-contract", wantContract: "0xother-contract"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event := publishedEvent()
			event.Chain.ContractAddress = &eventContract

			var gotTicket *domain.Ticket
			tickets := &mockTicketRepository{
				PurchaseFunc: func(ctx context.Context, ticket *domain.Ticket, txn *domain.Transaction) (*repository.PurchaseResult, error) {
					gotTicket = ticket
					return &repository.PurchaseResult{Ticket: ticket, Transaction: txn}, nil
				},
			}
			svc := newTicketServiceForTest(tickets, &mockTransactionRepository{}, eventRepoReturning(event))

			req := purchaseReq(1, "0xabc")
			req.ContractAddress = tt.reqContract
			if _, err := svc.Purchase(context.Background(), testOwnerID, req); err != nil {
				t.Fatalf("Purchase() error = %v", err)
			}
			if gotTicket.Chain.ContractAddress == nil || *gotTicket.Chain.ContractAddress != tt.wantContract {
				t.Errorf("contract address = %v, want %q", gotTicket.Chain.ContractAddress, tt.wantContract)
			}
		})
	}
}

func TestPurchase_Validation(t *testing.T) {
	tests := []struct {
		name    string
		req     *dto.PurchaseTicketRequest
		event   *domain.Event
		wantErr error
	}{
		{
			name:    "zero quantity",
			req:     purchaseReq(0, "0xabc"),
			event:   publishedEvent(),
			wantErr: domain.ErrInvalidQuantity,
		},
		{
			name:    "negative quantity",
			req:     purchaseReq(-1, "0xabc"),
			event:   publishedEvent(),
			wantErr: domain.ErrInvalidQuantity,
		},
		{
			name: "missing ticket type name",
			req: func() *dto.PurchaseTicketRequest {
				r := purchaseReq(1, "0xabc")
				r.TicketType = ""
				return r
			}(),
			event:   publishedEvent(),
			wantErr: domain.ErrInvalidTicketType,
		},
		{
			name:    "missing transaction hash",
			req:     purchaseReq(1, ""),
			event:   publishedEvent(),
			wantErr: domain.ErrMissingTransaction,
		},
		{
			name:    "event not found",
			req:     purchaseReq(1, "0xabc"),
			event:   nil,
			wantErr: domain.ErrEventNotFound,
		},
		{
			name: "event not on sale",
			req:  purchaseReq(1, "0xabc"),
			event: func() *domain.Event {
				e := publishedEvent()
				e.Status = domain.EventStatusDraft
				return e
			}(),
			wantErr: domain.ErrInvalidEventStatus,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tickets := &mockTicketRepository{
				PurchaseFunc: func(ctx context.Context, ticket *domain.Ticket, txn *domain.Transaction) (*repository.PurchaseResult, error) {
					t.Fatal("Purchase should not reach the repository")
					return nil, nil
				},
			}
			svc := newTicketServiceForTest(tickets, &mockTransactionRepository{}, eventRepoReturning(tt.event))

			_, err := svc.Purchase(context.Background(), testOwnerID, tt.req)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Purchase() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

// The capacity rule: a tier with quantity 5 and sold 3 can cover 2 more
// tickets but not 3.
func TestPurchase_CapacityBoundary(t *testing.T) {
	tier := publishedEvent().TicketTypes[0]

	claim := func(quantity int) error {
		if tier.Sold+quantity > tier.Quantity {
			return domain.ErrCapacityExceeded
		}
		return nil
	}

	tests := []struct {
		name     string
		quantity int
		wantErr  error
	}{
		{name: "fits exactly", quantity: 2, wantErr: nil},
		{name: "one over", quantity: 3, wantErr: domain.ErrCapacityExceeded},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tickets := &mockTicketRepository{
				PurchaseFunc: func(ctx context.Context, ticket *domain.Ticket, txn *domain.Transaction) (*repository.PurchaseResult, error) {
					if err := claim(ticket.Quantity); err != nil {
						return nil, err
					}
					return &repository.PurchaseResult{Ticket: ticket, Transaction: txn}, nil
				},
			}
			svc := newTicketServiceForTest(tickets, &mockTransactionRepository{}, eventRepoReturning(publishedEvent()))

			_, err := svc.Purchase(context.Background(), testOwnerID, purchaseReq(tt.quantity, "0xabc"))
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Purchase(quantity=%d) error = %v, want %v", tt.quantity, err, tt.wantErr)
			}
		})
	}
}

// Two concurrent purchases of 3 tickets against 5 remaining: exactly one
// succeeds and the loser leaves the sold count untouched.
func TestPurchase_ConcurrentClaims(t *testing.T) {
	event := publishedEvent()
	event.TicketTypes[0].Sold = 0

	var mu sync.Mutex
	sold := 0
	const quantity, capacity = 3, 5

	tickets := &mockTicketRepository{
		PurchaseFunc: func(ctx context.Context, ticket *domain.Ticket, txn *domain.Transaction) (*repository.PurchaseResult, error) {
			mu.Lock()
			defer mu.Unlock()
			if sold+ticket.Quantity > capacity {
				return nil, domain.ErrCapacityExceeded
			}
			sold += ticket.Quantity
			return &repository.PurchaseResult{Ticket: ticket, Transaction: txn}, nil
		},
	}
	svc := newTicketServiceForTest(tickets, &mockTransactionRepository{}, eventRepoReturning(event))

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Purchase(context.Background(), uuid.New(),
				purchaseReq(quantity, "0x"+uuid.NewString()))
		}(i)
	}
	wg.Wait()

	var successes, capacityFailures int
	for _, err := range errs {
		switch {
		case err == nil:
			successes++
		case errors.Is(err, domain.ErrCapacityExceeded):
			capacityFailures++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if successes != 1 || capacityFailures != 1 {
		t.Errorf("got %d successes and %d capacity failures, want 1 and 1", successes, capacityFailures)
	}
	if sold != quantity {
		t.Errorf("sold = %d, want %d", sold, quantity)
	}
}

// --- Duplicate transaction hash ---

func TestPurchase_DuplicateHashReplay(t *testing.T) {
	existing := &domain.Ticket{
		ID:      testTicketID,
		EventID: testEventID,
		OwnerID: testOwnerID,
		Status:  domain.TicketStatusActive,
		Chain:   domain.TicketChain{TransactionHash: "0xdup"},
	}
	existingTxn := &domain.Transaction{
		ID:    uuid.New(),
		Chain: domain.TransactionChain{TransactionHash: "0xdup"},
	}

	tickets := &mockTicketRepository{
		PurchaseFunc: func(ctx context.Context, ticket *domain.Ticket, txn *domain.Transaction) (*repository.PurchaseResult, error) {
			return nil, domain.ErrDuplicateTransaction
		},
		GetByTransactionHashFunc: func(ctx context.Context, hash string) (*domain.Ticket, error) {
			if hash == "0xdup" {
				return existing, nil
			}
			return nil, domain.ErrTicketNotFound
		},
	}
	txns := &mockTransactionRepository{
		GetByHashFunc: func(ctx context.Context, hash string) (*domain.Transaction, error) {
			return existingTxn, nil
		},
	}
	svc := newTicketServiceForTest(tickets, txns, eventRepoReturning(publishedEvent()))

	t.Run("same buyer gets original purchase", func(t *testing.T) {
		result, err := svc.Purchase(context.Background(), testOwnerID, purchaseReq(1, "0xdup"))
		if err != nil {
			t.Fatalf("Purchase() error = %v", err)
		}
		if !result.Replayed {
			t.Error("Purchase() replayed = false, want true")
		}
		if result.Ticket.ID != testTicketID {
			t.Errorf("ticket id = %v, want original %v", result.Ticket.ID, testTicketID)
		}
	})

	t.Run("different buyer is rejected", func(t *testing.T) {
		_, err := svc.Purchase(context.Background(), uuid.New(), purchaseReq(1, "0xdup"))
		if !errors.Is(err, domain.ErrDuplicateTransaction) {
			t.Errorf("Purchase() error = %v, want ErrDuplicateTransaction", err)
		}
	})
}

// --- Verify ---

func activeTicket(qr string) *domain.Ticket {
	return &domain.Ticket{
		ID:      testTicketID,
		EventID: testEventID,
		OwnerID: testOwnerID,
		QRCode:  qr,
		Status:  domain.TicketStatusActive,
	}
}

func TestVerify(t *testing.T) {
	tests := []struct {
		name       string
		ticket     *domain.Ticket
		qrCode     string
		checkInErr error
		wantErr    error
	}{
		{
			name:   "success",
			ticket: activeTicket("code-1"),
			qrCode: "code-1",
		},
		{
			name:    "ticket not found",
			ticket:  nil,
			qrCode:  "code-1",
			wantErr: domain.ErrTicketNotFound,
		},
		{
			name:    "qr mismatch",
			ticket:  activeTicket("code-1"),
			qrCode:  "wrong",
			wantErr: domain.ErrInvalidQRCode,
		},
		{
			name:       "already used",
			ticket:     activeTicket("code-1"),
			qrCode:     "code-1",
			checkInErr: domain.ErrTicketAlreadyUsed,
			wantErr:    domain.ErrTicketAlreadyUsed,
		},
		{
			name:       "cancelled ticket",
			ticket:     activeTicket("code-1"),
			qrCode:     "code-1",
			checkInErr: domain.ErrTicketNotActive,
			wantErr:    domain.ErrTicketNotActive,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tickets := &mockTicketRepository{
				GetByIDFunc: func(ctx context.Context, id uuid.UUID) (*domain.Ticket, error) {
					if tt.ticket == nil {
						return nil, domain.ErrTicketNotFound
					}
					return tt.ticket, nil
				},
				CheckInFunc: func(ctx context.Context, id uuid.UUID, at time.Time) error {
					return tt.checkInErr
				},
			}
			svc := newTicketServiceForTest(tickets, &mockTransactionRepository{}, eventRepoReturning(publishedEvent()))

			result, err := svc.Verify(context.Background(), testTicketID, tt.qrCode)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Verify() error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr != nil {
				return
			}
			if result.Ticket.Status != domain.TicketStatusUsed {
				t.Errorf("ticket status = %q, want used", result.Ticket.Status)
			}
			if result.Ticket.UsedDate == nil {
				t.Error("used date not set")
			}
		})
	}
}

func TestListByEvent(t *testing.T) {
	event := publishedEvent()
	event.HostID = testOwnerID

	tickets := &mockTicketRepository{
		ListFunc: func(ctx context.Context, filter repository.TicketFilter) ([]*domain.Ticket, error) {
			if filter.EventID == nil || *filter.EventID != testEventID {
				t.Errorf("filter event id = %v, want %v", filter.EventID, testEventID)
			}
			if filter.OwnerID != nil {
				t.Error("host view must not filter by owner")
			}
			return []*domain.Ticket{activeTicket("code-1")}, nil
		},
		CountByStatusFunc: func(ctx context.Context, eventID uuid.UUID) (map[domain.TicketStatus]int, error) {
			return map[domain.TicketStatus]int{
				domain.TicketStatusActive: 3,
				domain.TicketStatusUsed:   2,
			}, nil
		},
	}
	svc := newTicketServiceForTest(tickets, &mockTransactionRepository{}, eventRepoReturning(event))

	t.Run("host gets tickets with stats", func(t *testing.T) {
		result, err := svc.ListByEvent(context.Background(), testEventID, testOwnerID, &dto.TicketListQuery{})
		if err != nil {
			t.Fatalf("ListByEvent() error = %v", err)
		}
		if len(result.Tickets) != 1 {
			t.Errorf("tickets = %d, want 1", len(result.Tickets))
		}
		want := dto.TicketStats{Total: 5, Active: 3, Used: 2}
		if result.Stats != want {
			t.Errorf("stats = %+v, want %+v", result.Stats, want)
		}
	})

	t.Run("non-host sees not found", func(t *testing.T) {
		_, err := svc.ListByEvent(context.Background(), testEventID, uuid.New(), &dto.TicketListQuery{})
		if !errors.Is(err, domain.ErrEventNotFound) {
			t.Errorf("ListByEvent() error = %v, want ErrEventNotFound", err)
		}
	})
}

// A second scan of the same code is rejected once the first wins.
func TestVerify_SecondScanRejected(t *testing.T) {
	ticket := activeTicket("code-1")

	var mu sync.Mutex
	checkedIn := false
	tickets := &mockTicketRepository{
		GetByIDFunc: func(ctx context.Context, id uuid.UUID) (*domain.Ticket, error) {
			return ticket, nil
		},
		CheckInFunc: func(ctx context.Context, id uuid.UUID, at time.Time) error {
			mu.Lock()
			defer mu.Unlock()
			if checkedIn {
				return domain.ErrTicketAlreadyUsed
			}
			checkedIn = true
			return nil
		},
	}
	svc := newTicketServiceForTest(tickets, &mockTransactionRepository{}, eventRepoReturning(publishedEvent()))

	if _, err := svc.Verify(context.Background(), testTicketID, "code-1"); err != nil {
		t.Fatalf("first Verify() error = %v", err)
	}
	if _, err := svc.Verify(context.Background(), testTicketID, "code-1"); !errors.Is(err, domain.ErrTicketAlreadyUsed) {
		t.Errorf("second Verify() error = %v, want ErrTicketAlreadyUsed", err)
	}
}
