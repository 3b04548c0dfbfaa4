package consumers

import (
	"context"
	"log/slog"

	"yatra/internal/auth"
	"yatra/internal/cache"
	"yatra/internal/config"
	"yatra/internal/database"
	"yatra/internal/messaging"
	"yatra/internal/models"
	"yatra/internal/repository"
	"yatra/internal/search"
	"yatra/internal/service"
)

const queueGroup = "consumers"

type ConsumerService struct {
	db       *database.DB
	nats     *messaging.NATSClient
	valkey   *cache.ValkeyClient
	services *service.Services
	handlers *Handlers
	indexing bool
}

func NewConsumerService(ctx context.Context, cfg *config.Config) (*ConsumerService, error) {
	// Connect to database
	db, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	// Connect to NATS
	natsClient, err := messaging.NewNATSClient(cfg.NATS)
	if err != nil {
		db.Close()
		return nil, err
	}

	cs := &ConsumerService{db: db, nats: natsClient}
	repos := repository.NewRepositories(db.DB)
	deps := service.Deps{
		Repos:     repos,
		Publisher: natsClient,
	}

	// Trip lifecycle changes must drop cached listings; a missing cache only costs freshness
	if valkeyClient, err := cache.NewValkeyClient(cfg.Cache); err != nil {
		slog.Warn("Valkey unavailable, trip listings cache will not be invalidated", "error", err)
	} else {
		cs.valkey = valkeyClient
		deps.Cache = valkeyClient
	}

	var index TripIndex
	if cfg.Elasticsearch.Enabled {
		esClient, err := search.NewElasticsearchClient(ctx, cfg.Elasticsearch)
		if err != nil {
			cs.Shutdown(ctx)
			return nil, err
		}
		index = esClient
		cs.indexing = true
	}

	cs.services = service.NewServices(deps)
	cs.handlers = NewHandlers(cs.services.Payments, repos.Trips, repos.Bookings, index, auth.LogSender{})
	return cs, nil
}

// Trips exposes the trip service to background jobs
func (cs *ConsumerService) Trips() *service.TripService {
	return cs.services.Trips
}

func (cs *ConsumerService) Start() error {
	slog.Info("Starting NATS consumers...")

	subscriptions := map[string]func(ctx context.Context, data []byte) error{
		models.EventPaymentCallback:  cs.handlers.HandlePaymentCallback,
		models.EventBookingCreated:   cs.handlers.HandleBookingCreated,
		models.EventBookingCancelled: cs.handlers.HandleBookingCancelled,
	}
	if cs.indexing {
		subscriptions[models.EventTripCreated] = cs.handlers.HandleTripChanged
		subscriptions[models.EventTripUpdated] = cs.handlers.HandleTripChanged
	}

	for subject, handler := range subscriptions {
		if _, err := cs.nats.SubscribeQueue(subject, queueGroup, ackable(subject, handler)); err != nil {
			return err
		}
	}

	slog.Info("All consumers started successfully", "subscriptions", len(subscriptions))
	return nil
}

func (cs *ConsumerService) Shutdown(ctx context.Context) error {
	slog.Info("Shutting down consumer service...")

	if cs.nats != nil {
		if err := cs.nats.Close(); err != nil {
			slog.Error("Error closing NATS connection", "error", err)
		}
	}

	if cs.valkey != nil {
		cs.valkey.Close()
	}

	if cs.db != nil {
		if err := cs.db.Close(); err != nil {
			slog.Error("Error closing database connection", "error", err)
			return err
		}
	}

	return nil
}
