package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"storefront/internal/config"
	"storefront/internal/database"
	"storefront/internal/gateway"
	"storefront/internal/logging"
	"storefront/internal/models"
	"storefront/internal/repositories"
	"storefront/internal/search"
	"storefront/internal/services"
	"storefront/pkg/kafka"
	"storefront/pkg/rabbitmq"

	"github.com/streadway/amqp"
)

func main() {
	if err := run(); err != nil {
		slog.Error("storefront stopped", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// --- Configuration ---
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logging.New(cfg.LogLevel)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx = logging.IntoContext(ctx, log)

	// --- Repositories ---
	var st stores
	if cfg.DBDriver == database.DriverMemory {
		log.Warn("using in-memory repositories, data is lost on exit")
		st = memoryStores()
	} else {
		db, err := database.Open(cfg.DBDriver, cfg.DatabaseDSN)
		if err != nil {
			return err
		}
		if sqlDB, err := db.DB(); err == nil {
			defer sqlDB.Close()
		}
		st = stores{
			items:  repositories.NewGORMItemRepository(db),
			carts:  repositories.NewGORMCartRepository(db),
			orders: repositories.NewGORMOrderRepository(db),
			users:  repositories.NewGORMUserRepository(db),
		}
	}

	// --- Events ---
	var publisher services.EventPublisher
	var mqClient *rabbitmq.Client
	switch cfg.EventsBroker {
	case "rabbitmq":
		mqClient, err = rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL, Exchange: cfg.RabbitMQExchange}, log)
		if err != nil {
			log.Warn("events disabled, RabbitMQ unavailable", "error", err)
			break
		}
		defer mqClient.Close()
		publisher = mqClient
	case "kafka":
		producer, err := kafka.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic)
		if err != nil {
			log.Warn("events disabled, Kafka misconfigured", "error", err)
			break
		}
		defer producer.Close()
		publisher = producer
	}

	// --- Payment processors ---
	chargers := map[models.PaymentOption]gateway.Charger{}
	if cfg.StripeSecretKey != "" {
		chargers[models.PaymentOptionStripe] = gateway.NewStripeCharger(cfg.StripeSecretKey, cfg.GatewayTimeout, log)
	} else {
		log.Warn("STRIPE_SECRET_KEY not set, card payments unavailable")
	}

	// --- Search ---
	var searcher services.ItemSearcher
	if cfg.ElasticsearchURL != "" {
		es, err := search.NewClient(search.Config{
			URL:      cfg.ElasticsearchURL,
			User:     cfg.ElasticsearchUser,
			Password: cfg.ElasticsearchPassword,
			Index:    cfg.ElasticsearchIndex,
		}, log)
		if err != nil {
			log.Warn("search index unavailable, using database search", "error", err)
		} else {
			searcher = search.NewElasticItemSearcher(es, cfg.ElasticsearchIndex)
		}
	}

	broker := cfg.EventsBroker
	if publisher == nil {
		broker = "none"
	}
	a := newApplication(st, cfg.JWTSecret, chargers, publisher, searcher, broker)
	if cfg.SeedCatalog {
		seedItems(ctx, a.items, log)
	}

	if mqClient != nil {
		if err := mqClient.ConsumeEvents(ctx, logEvent(log)); err != nil {
			log.Error("failed to start RabbitMQ consumer", "error", err)
		}
	}

	// --- HTTP server ---
	app := newApp(a, log)
	serverErr := make(chan error, 1)
	go func() {
		log.Info("starting server", "addr", cfg.AppPort)
		serverErr <- app.Listen(cfg.AppPort)
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutting down server")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Error("error during shutdown", "error", err)
	}
	log.Info("server gracefully stopped")
	return nil
}

// logEvent writes every consumed event to the log; alerts at error level for the operator.
func logEvent(log *slog.Logger) func(msg amqp.Delivery) error {
	return func(msg amqp.Delivery) error {
		level := slog.LevelInfo
		if strings.HasPrefix(msg.RoutingKey, "alert.") {
			level = slog.LevelError
		}
		log.Log(context.Background(), level, "storefront event",
			"routing_key", msg.RoutingKey,
			"body", string(msg.Body),
		)
		return nil
	}
}
