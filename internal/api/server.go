package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"yatra/internal/auth"
	"yatra/internal/cache"
	"yatra/internal/config"
	"yatra/internal/database"
	"yatra/internal/external"
	"yatra/internal/handlers"
	"yatra/internal/messaging"
	"yatra/internal/metrics"
	"yatra/internal/middleware"
	"yatra/internal/repository"
	"yatra/internal/search"
	"yatra/internal/service"
)

// Server представляет HTTP сервер API
type Server struct {
	router   *gin.Engine
	config   *config.Config
	db       *database.DB
	nats     *messaging.NATSClient
	valkey   *cache.ValkeyClient
	services *service.Services
	tokens   *auth.TokenManager
	metrics  *metrics.Metrics
}

// NewServer создает новый экземпляр сервера и подключает внешние зависимости
func NewServer(ctx context.Context, cfg *config.Config) (*Server, error) {
	// Устанавливаем режим Gin
	gin.SetMode(cfg.GinMode)

	// Подключаемся к базе данных
	db, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	// Запускаем миграции
	if err := db.RunMigrations(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	// Valkey хранит коды входа, поэтому обязателен
	valkeyClient, err := cache.NewValkeyClient(cfg.Cache)
	if err != nil {
		db.Close()
		return nil, err
	}

	s := &Server{
		config:  cfg,
		db:      db,
		valkey:  valkeyClient,
		tokens:  auth.NewTokenManager(cfg.Auth.Tokens),
		metrics: metrics.New(),
	}

	deps := service.Deps{
		Repos:   repository.NewRepositories(db.DB),
		Cache:   valkeyClient,
		Gateway: external.NewPaymentClient(cfg.Payment),
		OTP:     valkeyClient,
		SMS:     auth.LogSender{},
		Tokens:  s.tokens,
		Auth:    cfg.Auth,
		Metrics: s.metrics,
	}

	// NATS опционален: без него события не публикуются, а уведомления шлюза применяются сразу
	if cfg.NATS.Enabled {
		natsClient, err := messaging.NewNATSClient(cfg.NATS)
		if err != nil {
			s.Cleanup()
			return nil, err
		}
		s.nats = natsClient
		deps.Publisher = natsClient
		deps.RelayCallbacks = true
	}

	if cfg.Elasticsearch.Enabled {
		esClient, err := search.NewElasticsearchClient(ctx, cfg.Elasticsearch)
		if err != nil {
			slog.Warn("Elasticsearch unavailable, trip search falls back to PostgreSQL", "error", err)
		} else {
			deps.Searcher = esClient
			// Без NATS индекс обновляется прямо из API, иначе этим занимаются consumers
			if !cfg.NATS.Enabled {
				deps.Indexer = esClient
			}
		}
	}

	s.services = service.NewServices(deps)
	s.router = s.newRouter()
	return s, nil
}

func (s *Server) newRouter() *gin.Engine {
	router := gin.New()

	// Применяем middleware
	router.Use(middleware.RequestID())
	router.Use(middleware.Recovery())
	router.Use(middleware.CORS(s.config.CORSOrigins))
	router.Use(middleware.Logger())
	router.Use(s.metrics.Middleware())
	router.Use(middleware.Timeout(s.config.RequestTimeout))

	h := handlers.NewHandlers(s.services.Trips, s.services.Bookings, s.services.Payments, s.services.Auth)
	h.Register(router.Group("/api"), s.tokens)

	// Health check endpoint
	router.GET("/health", handlers.Health(s.healthCheck))
	router.GET("/metrics", gin.WrapH(s.metrics.Handler()))

	return router
}

// healthCheck проверяет доступность базы данных
func (s *Server) healthCheck(ctx context.Context) error {
	if hc := s.db.HealthCheck(ctx); hc.Status != "healthy" {
		return fmt.Errorf("database %s: %s", hc.Status, hc.Error)
	}
	return nil
}

// Handler возвращает роутер для http.Server и тестов
func (s *Server) Handler() http.Handler {
	return s.router
}

// Cleanup закрывает соединения
func (s *Server) Cleanup() error {
	if s.nats != nil {
		if err := s.nats.Close(); err != nil {
			slog.Error("Error closing NATS connection", "error", err)
		}
	}

	if s.valkey != nil {
		s.valkey.Close()
	}

	if s.db != nil {
		if err := s.db.Close(); err != nil {
			slog.Error("Error closing database connection", "error", err)
			return err
		}
	}

	return nil
}
