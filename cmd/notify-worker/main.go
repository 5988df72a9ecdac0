package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/bodefavour/web3event/internal/metrics"
	"github.com/bodefavour/web3event/internal/repository"
	"github.com/bodefavour/web3event/internal/service"
	"github.com/bodefavour/web3event/internal/worker"
	"github.com/bodefavour/web3event/pkg/config"
	"github.com/bodefavour/web3event/pkg/database"
	"github.com/bodefavour/web3event/pkg/kafka"
	"github.com/bodefavour/web3event/pkg/logger"
	"github.com/bodefavour/web3event/pkg/telemetry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.Init(cfg.App.Environment)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if _, err := telemetry.Init(ctx, &telemetry.Config{
		Enabled:        cfg.OTel.Enabled,
		ServiceName:    cfg.OTel.ServiceName + "-notify-worker",
		ServiceVersion: cfg.App.Version,
		Environment:    cfg.App.Environment,
		CollectorAddr:  cfg.OTel.CollectorAddr,
		SampleRatio:    cfg.OTel.SampleRatio,
	}); err != nil {
		log.Fatal("telemetry init failed", zap.Error(err))
	}

	db, err := database.Connect(ctx, &cfg.Database, database.Options{
		EnableTracing: cfg.OTel.Enabled,
	})
	if err != nil {
		log.Fatal("postgres connect failed", zap.Error(err))
	}
	defer db.Close()

	consumer, err := kafka.NewConsumer(ctx, &kafka.ConsumerConfig{
		Brokers:       cfg.Kafka.Brokers,
		ConsumerGroup: cfg.Kafka.ConsumerGroup + "-notify",
		Topics:        []string{cfg.Kafka.TicketTopic},
		ClientID:      cfg.Kafka.ClientID + "-notify",
	})
	if err != nil {
		log.Fatal("kafka consumer setup failed", zap.Error(err))
	}

	notifications := service.NewNotificationService(
		repository.NewPostgresNotificationRepository(db.Pool()))
	fanout := worker.NewNotificationConsumer(notifications, metrics.New())

	consumer.Start(ctx, fanout.Handle)
	log.Info("notification worker consuming",
		zap.String("topic", cfg.Kafka.TicketTopic))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	consumer.Stop()
	log.Info("shutdown complete")
}
