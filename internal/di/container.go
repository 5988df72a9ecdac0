package di

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/bodefavour/web3event/internal/events"
	"github.com/bodefavour/web3event/internal/handler"
	"github.com/bodefavour/web3event/internal/metrics"
	"github.com/bodefavour/web3event/internal/repository"
	"github.com/bodefavour/web3event/internal/service"
	"github.com/bodefavour/web3event/internal/worker"
	"github.com/bodefavour/web3event/pkg/config"
	"github.com/bodefavour/web3event/pkg/database"
	"github.com/bodefavour/web3event/pkg/kafka"
	"github.com/bodefavour/web3event/pkg/redis"
)

// Container wires the API service's dependency graph.
type Container struct {
	Config *config.Config

	DB       *database.Postgres
	Cache    *redis.Client
	Producer *kafka.Producer

	Metrics *metrics.Metrics

	TicketService       service.TicketService
	EventService        service.EventService
	TransactionService  service.TransactionService
	NotificationService service.NotificationService
	UserService         service.UserService
	AnalyticsService    service.AnalyticsService

	ViewFlushWorker   *worker.ViewFlushWorker
	ChainVerifyWorker *worker.ChainVerifyWorker

	Router *gin.Engine
}

// New builds the full graph. Kafka is optional: when the brokers are
// unreachable the API still serves, with events dropped.
func New(ctx context.Context, cfg *config.Config) (*Container, error) {
	db, err := database.Connect(ctx, &cfg.Database, database.Options{
		EnableTracing: cfg.OTel.Enabled,
	})
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	cache, err := redis.Connect(ctx, &cfg.Redis)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("connect redis: %w", err)
	}

	var publisher events.Publisher = events.NopPublisher{}
	producer, err := kafka.NewProducer(ctx, &kafka.ProducerConfig{
		Brokers:  cfg.Kafka.Brokers,
		ClientID: cfg.Kafka.ClientID,
	})
	if err == nil {
		publisher = events.NewKafkaPublisher(producer, cfg.Kafka.TicketTopic)
	}

	m := metrics.New()

	pool := db.Pool()
	eventRepo := repository.NewCachedEventRepository(
		repository.NewPostgresEventRepository(pool), cache)
	ticketRepo := repository.NewPostgresTicketRepository(pool)
	transactionRepo := repository.NewPostgresTransactionRepository(pool)
	notificationRepo := repository.NewPostgresNotificationRepository(pool)
	userRepo := repository.NewPostgresUserRepository(pool)
	analyticsRepo := repository.NewPostgresAnalyticsRepository(pool)
	viewCounter := repository.NewRedisViewCounter(cache)

	c := &Container{
		Config:   cfg,
		DB:       db,
		Cache:    cache,
		Producer: producer,
		Metrics:  m,

		TicketService:       service.NewTicketService(ticketRepo, transactionRepo, eventRepo, publisher, m),
		EventService:        service.NewEventService(eventRepo, viewCounter, m),
		TransactionService:  service.NewTransactionService(transactionRepo),
		NotificationService: service.NewNotificationService(notificationRepo),
		UserService:         service.NewUserService(userRepo, cfg.JWT),
		AnalyticsService:    service.NewAnalyticsService(analyticsRepo, eventRepo),
	}

	c.ViewFlushWorker = worker.NewViewFlushWorker(viewCounter, eventRepo, cfg.Worker.ViewFlushInterval)
	c.ChainVerifyWorker = worker.NewChainVerifyWorker(
		transactionRepo,
		worker.NewRPCChainClient(&cfg.Chain),
		publisher,
		m,
		cfg.Worker.ChainPollInterval,
		cfg.Worker.ChainBatchSize,
	)

	c.Router = handler.NewRouter(cfg, cache, &handler.Handlers{
		Events:        handler.NewEventHandler(c.EventService),
		Tickets:       handler.NewTicketHandler(c.TicketService),
		Transactions:  handler.NewTransactionHandler(c.TransactionService),
		Notifications: handler.NewNotificationHandler(c.NotificationService),
		Users:         handler.NewUserHandler(c.UserService),
		Analytics:     handler.NewAnalyticsHandler(c.AnalyticsService),
		Health:        handler.NewHealthHandler(db, cache),
	})

	return c, nil
}

// StartWorkers launches the background loops.
func (c *Container) StartWorkers(ctx context.Context) {
	c.ViewFlushWorker.Start(ctx)
	c.ChainVerifyWorker.Start(ctx)
}

// Close stops workers and releases connections.
func (c *Container) Close() {
	c.ViewFlushWorker.Stop()
	c.ChainVerifyWorker.Stop()
	if c.Producer != nil {
		c.Producer.Close()
	}
	_ = c.Cache.Close()
	c.DB.Close()
}
