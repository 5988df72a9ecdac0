package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/bodefavour/web3event/internal/domain"
	"github.com/bodefavour/web3event/internal/events"
	"github.com/bodefavour/web3event/internal/metrics"
	"github.com/bodefavour/web3event/internal/repository"
	"github.com/bodefavour/web3event/pkg/logger"
	"github.com/bodefavour/web3event/pkg/retry"
	"github.com/bodefavour/web3event/pkg/telemetry"
)

// ChainVerifyWorker polls pending transactions and resolves them against
// on-chain receipts. A transaction whose receipt reports success becomes
// completed; a reverted one becomes failed. Receipts that are not yet
// available stay pending for the next sweep.
type ChainVerifyWorker struct {
	transactions repository.TransactionRepository
	chain        ChainClient
	publisher    events.Publisher
	metrics      *metrics.Metrics
	retrier      *retry.Retrier
	log          *zap.Logger

	interval  time.Duration
	batchSize int

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// NewChainVerifyWorker creates the verification worker.
func NewChainVerifyWorker(
	transactions repository.TransactionRepository,
	chain ChainClient,
	publisher events.Publisher,
	m *metrics.Metrics,
	interval time.Duration,
	batchSize int,
) *ChainVerifyWorker {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	if batchSize <= 0 {
		batchSize = 50
	}
	return &ChainVerifyWorker{
		transactions: transactions,
		chain:        chain,
		publisher:    publisher,
		metrics:      m,
		retrier:      retry.New(retry.DefaultConfig()),
		log:          logger.Get(),
		interval:     interval,
		batchSize:    batchSize,
		stopCh:       make(chan struct{}),
	}
}

// Start launches the poll loop.
func (w *ChainVerifyWorker) Start(ctx context.Context) {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()

		for {
			select {
			case <-w.stopCh:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				w.sweep(ctx)
			}
		}
	}()
}

// Stop signals the loop to exit and waits for the in-flight sweep.
func (w *ChainVerifyWorker) Stop() {
	close(w.stopCh)
	w.wg.Wait()
}

func (w *ChainVerifyWorker) sweep(ctx context.Context) {
	ctx, span := telemetry.StartSpan(ctx, "worker.chain_verify.sweep")
	defer span.End()

	pending, err := w.transactions.ListPending(ctx, w.batchSize)
	if err != nil {
		w.log.Error("pending transaction listing failed", zap.Error(err))
		return
	}

	for _, txn := range pending {
		select {
		case <-w.stopCh:
			return
		case <-ctx.Done():
			return
		default:
		}
		w.verify(ctx, txn)
	}
}

func (w *ChainVerifyWorker) verify(ctx context.Context, txn *domain.Transaction) {
	w.metrics.PendingTxInFlight.Inc(ctx)
	defer w.metrics.PendingTxInFlight.Dec(ctx)

	var receipt *Receipt
	result := w.retrier.Do(ctx, func(ctx context.Context) error {
		r, err := w.chain.GetReceipt(ctx, txn.Chain.TransactionHash)
		if err != nil {
			// A missing receipt is not a node failure; stop retrying and
			// pick the transaction up again next sweep.
			if errors.Is(err, ErrReceiptNotFound) {
				return retry.Permanent(err)
			}
			return err
		}
		receipt = r
		return nil
	})
	if result.Err != nil {
		if !errors.Is(result.Err, ErrReceiptNotFound) {
			w.log.Warn("receipt fetch failed",
				zap.String("tx_hash", txn.Chain.TransactionHash),
				zap.Int("attempts", result.Attempts),
				zap.Error(result.Err))
		}
		return
	}

	status := domain.TransactionStatusCompleted
	var errMsg *string
	if !receipt.Succeeded {
		status = domain.TransactionStatusFailed
		msg := "transaction reverted on chain"
		errMsg = &msg
	}

	if err := w.transactions.Settle(ctx, txn.ID, status, &receipt.BlockNumber, &receipt.GasUsed, errMsg); err != nil {
		if !errors.Is(err, domain.ErrTransactionNotFound) {
			w.log.Error("transaction settle failed",
				zap.String("transaction_id", txn.ID.String()), zap.Error(err))
		}
		return
	}

	w.metrics.ChainVerifications.Inc(ctx, metrics.Status(string(status)))
	w.publisher.TransactionSettled(ctx, events.TransactionSettled{
		TransactionID: txn.ID,
		UserID:        txn.UserID,
		EventID:       txn.EventID,
		Status:        string(status),
		ErrorMessage:  errMsg,
	})

	w.log.Info("transaction settled",
		zap.String("transaction_id", txn.ID.String()),
		zap.String("status", string(status)),
		zap.Int64("block", receipt.BlockNumber))
}
