package repository

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bodefavour/web3event/internal/domain"
)

func skipIfNoIntegration(t *testing.T) {
	if os.Getenv("INTEGRATION_TEST") != "true" {
		t.Skip("Skipping integration test. Set INTEGRATION_TEST=true to run.")
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// getPostgresPool connects to the test database. The schema from
// migrations/ must already be applied.
func getPostgresPool(t *testing.T) *pgxpool.Pool {
	skipIfNoIntegration(t)

	connStr := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		getEnv("TEST_POSTGRES_USER", "postgres"),
		getEnv("TEST_POSTGRES_PASSWORD", "postgres"),
		getEnv("TEST_POSTGRES_HOST", "localhost"),
		getEnv("TEST_POSTGRES_PORT", "5432"),
		getEnv("TEST_POSTGRES_DB", "web3event_test"),
	)

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		t.Fatalf("create pool: %v", err)
	}
	if err := pool.Ping(ctx); err != nil {
		t.Fatalf("ping postgres: %v", err)
	}
	t.Cleanup(pool.Close)
	return pool
}

type purchaseFixture struct {
	EventID uuid.UUID
	OwnerID uuid.UUID
	TierID  uuid.UUID
}

// seedPurchaseFixture inserts a host, a buyer, a published event, and a
// VIP tier with the given capacity. Everything is removed on cleanup.
func seedPurchaseFixture(t *testing.T, pool *pgxpool.Pool, capacity int) purchaseFixture {
	t.Helper()
	ctx := context.Background()

	f := purchaseFixture{
		EventID: uuid.New(),
		OwnerID: uuid.New(),
		TierID:  uuid.New(),
	}
	hostID := uuid.New()

	_, err := pool.Exec(ctx, `
		INSERT INTO users (id, wallet_address) VALUES
		($1, $2), ($3, $4)`,
		hostID, "0xhost-"+hostID.String(), f.OwnerID, "0xbuyer-"+f.OwnerID.String())
	if err != nil {
		t.Fatalf("seed users: %v", err)
	}

	_, err = pool.Exec(ctx, `
		INSERT INTO events (id, title, host_id, category, venue, start_date, end_date, status)
		VALUES ($1, 'Summit', $2, 'conference', 'Hall A', $3, $4, 'published')`,
		f.EventID, hostID, time.Now().Add(24*time.Hour), time.Now().Add(48*time.Hour))
	if err != nil {
		t.Fatalf("seed event: %v", err)
	}

	_, err = pool.Exec(ctx, `
		INSERT INTO ticket_types (id, event_id, name, price, quantity, sold)
		VALUES ($1, $2, 'VIP', 0.5, $3, 0)`,
		f.TierID, f.EventID, capacity)
	if err != nil {
		t.Fatalf("seed tier: %v", err)
	}

	t.Cleanup(func() {
		ctx := context.Background()
		pool.Exec(ctx, `DELETE FROM transactions WHERE event_id = $1`, f.EventID)
		pool.Exec(ctx, `DELETE FROM tickets WHERE event_id = $1`, f.EventID)
		pool.Exec(ctx, `DELETE FROM ticket_types WHERE event_id = $1`, f.EventID)
		pool.Exec(ctx, `DELETE FROM events WHERE id = $1`, f.EventID)
		pool.Exec(ctx, `DELETE FROM users WHERE id IN ($1, $2)`, hostID, f.OwnerID)
	})
	return f
}

func purchasePair(f purchaseFixture, tier string, quantity int, hash string) (*domain.Ticket, *domain.Transaction) {
	qr, _ := domain.NewQRCode()
	ticket := &domain.Ticket{
		ID:             uuid.New(),
		EventID:        f.EventID,
		OwnerID:        f.OwnerID,
		TicketTypeName: tier,
		Quantity:       quantity,
		QRCode:         qr,
		Status:         domain.TicketStatusActive,
		Chain: domain.TicketChain{
			TransactionHash: hash,
			Network:         "sepolia",
		},
	}
	txn := &domain.Transaction{
		ID:            uuid.New(),
		UserID:        f.OwnerID,
		EventID:       f.EventID,
		Type:          domain.TransactionTypePurchase,
		Currency:      "ETH",
		Status:        domain.TransactionStatusPending,
		PaymentMethod: domain.PaymentMethodCrypto,
		Chain: domain.TransactionChain{
			TransactionHash: hash,
			Network:         "sepolia",
		},
	}
	return ticket, txn
}

// Four buyers race for 5 seats, 2 at a time. Exactly two claims fit; the
// database predicate, not application code, must turn the rest away.
func TestPostgresPurchase_ConcurrentClaims(t *testing.T) {
	pool := getPostgresPool(t)
	f := seedPurchaseFixture(t, pool, 5)
	repo := NewPostgresTicketRepository(pool)

	const buyers, quantity = 4, 2

	var wg sync.WaitGroup
	errs := make([]error, buyers)
	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ticket, txn := purchasePair(f, "VIP", quantity, fmt.Sprintf("0xrace-%s-%d", f.EventID, i))
			_, errs[i] = repo.Purchase(context.Background(), ticket, txn)
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
	if successes != 2 || capacityFailures != 2 {
		t.Errorf("got %d successes and %d capacity failures, want 2 and 2", successes, capacityFailures)
	}

	var sold int
	if err := pool.QueryRow(context.Background(),
		`SELECT sold FROM ticket_types WHERE id = $1`, f.TierID).Scan(&sold); err != nil {
		t.Fatalf("read sold: %v", err)
	}
	if sold != successes*quantity {
		t.Errorf("sold = %d, want %d", sold, successes*quantity)
	}
}

func TestPostgresPurchase_UnknownTierName(t *testing.T) {
	pool := getPostgresPool(t)
	f := seedPurchaseFixture(t, pool, 5)
	repo := NewPostgresTicketRepository(pool)

	ticket, txn := purchasePair(f, "Backstage", 1, "0xno-tier-"+f.EventID.String())
	_, err := repo.Purchase(context.Background(), ticket, txn)
	if !errors.Is(err, domain.ErrTicketTypeNotFound) {
		t.Errorf("Purchase() error = %v, want %v", err, domain.ErrTicketTypeNotFound)
	}
}

func TestPostgresPurchase_DuplicateHash(t *testing.T) {
	pool := getPostgresPool(t)
	f := seedPurchaseFixture(t, pool, 5)
	repo := NewPostgresTicketRepository(pool)

	hash := "0xdup-" + f.EventID.String()
	ticket, txn := purchasePair(f, "VIP", 1, hash)
	if _, err := repo.Purchase(context.Background(), ticket, txn); err != nil {
		t.Fatalf("first Purchase() error = %v", err)
	}

	ticket2, txn2 := purchasePair(f, "VIP", 1, hash)
	_, err := repo.Purchase(context.Background(), ticket2, txn2)
	if !errors.Is(err, domain.ErrDuplicateTransaction) {
		t.Errorf("second Purchase() error = %v, want %v", err, domain.ErrDuplicateTransaction)
	}

	// The losing claim must not hold capacity.
	var sold int
	if err := pool.QueryRow(context.Background(),
		`SELECT sold FROM ticket_types WHERE id = $1`, f.TierID).Scan(&sold); err != nil {
		t.Fatalf("read sold: %v", err)
	}
	if sold != 1 {
		t.Errorf("sold = %d, want 1", sold)
	}
}
