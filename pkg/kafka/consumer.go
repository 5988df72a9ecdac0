package kafka

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
	"go.uber.org/zap"

	"github.com/bodefavour/web3event/pkg/logger"
)

// ConsumerConfig holds Kafka consumer group settings.
type ConsumerConfig struct {
	Brokers          []string
	ConsumerGroup    string
	Topics           []string
	ClientID         string
	SessionTimeout   time.Duration
	RebalanceTimeout time.Duration
}

// Handler processes one record. Returning an error leaves the offset
// uncommitted so the record is redelivered.
type Handler func(ctx context.Context, record *kgo.Record) error

// Consumer runs a consumer-group poll loop with manual commits.
type Consumer struct {
	client *kgo.Client
	log    *zap.Logger

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// NewConsumer builds a consumer group client and verifies connectivity.
func NewConsumer(ctx context.Context, cfg *ConsumerConfig) (*Consumer, error) {
	if cfg.SessionTimeout <= 0 {
		cfg.SessionTimeout = 30 * time.Second
	}
	if cfg.RebalanceTimeout <= 0 {
		cfg.RebalanceTimeout = 60 * time.Second
	}

	client, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.ConsumerGroup(cfg.ConsumerGroup),
		kgo.ConsumeTopics(cfg.Topics...),
		kgo.ClientID(cfg.ClientID),
		kgo.DisableAutoCommit(),
		kgo.SessionTimeout(cfg.SessionTimeout),
		kgo.RebalanceTimeout(cfg.RebalanceTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka consumer: %w", err)
	}

	if err := client.Ping(ctx); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping kafka brokers: %w", err)
	}

	return &Consumer{
		client: client,
		log:    logger.Get(),
		stopCh: make(chan struct{}),
	}, nil
}

// Start launches the poll loop in a goroutine. Records that fail handling
// are not committed and will be redelivered on the next rebalance or poll.
func (c *Consumer) Start(ctx context.Context, handler Handler) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		for {
			select {
			case <-c.stopCh:
				return
			case <-ctx.Done():
				return
			default:
			}

			fetches := c.client.PollFetches(ctx)
			if fetches.IsClientClosed() {
				return
			}
			fetches.EachError(func(topic string, partition int32, err error) {
				c.log.Error("fetch error",
					zap.String("topic", topic),
					zap.Int32("partition", partition),
					zap.Error(err))
			})

			var failed bool
			fetches.EachRecord(func(record *kgo.Record) {
				if failed {
					return
				}
				if err := handler(ctx, record); err != nil {
					failed = true
					c.log.Error("record handling failed",
						zap.String("topic", record.Topic),
						zap.Int64("offset", record.Offset),
						zap.Error(err))
				}
			})
			if failed {
				continue
			}

			if err := c.client.CommitUncommittedOffsets(ctx); err != nil {
				c.log.Error("offset commit failed", zap.Error(err))
			}
		}
	}()
}

// Stop signals the poll loop to exit and waits for it.
func (c *Consumer) Stop() {
	close(c.stopCh)
	c.client.Close()
	c.wg.Wait()
}
