package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"bot-dashboard/internal/client"
	"bot-dashboard/internal/config"
	"bot-dashboard/internal/jobs"
	custommiddleware "bot-dashboard/internal/middleware"
	"bot-dashboard/internal/repository"
	"bot-dashboard/internal/service"
	"bot-dashboard/internal/transport"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Store is the product persistence backing the server
type Store struct {
	Products repository.ProductRepository
	Health   transport.HealthChecker
	Close    func() error
}

type Server struct {
	*http.Server
	config    *config.Config
	logger    *zap.Logger
	store     Store
	redis     *redis.Client
	products  service.ProductService
	scheduler *jobs.Scheduler
}

func NewServer(cfg *config.Config, logger *zap.Logger, store Store) (*Server, error) {
	router := chi.NewRouter()

	// Global middleware
	for _, mw := range custommiddleware.DefaultMiddlewareStack() {
		router.Use(mw)
	}
	router.Use(custommiddleware.LoggingMiddleware(logger))
	router.Use(custommiddleware.ErrorHandlingMiddleware(logger))
	router.Use(custommiddleware.CORSMiddleware(cfg.CORS.Origins, cfg.Server.IsDevelopment()))

	// Initialize services
	registry := client.NewPhoneRegistryClient(cfg.PhoneRegistry, logger)
	productService := service.NewProductService(store.Products)
	dashboardService := service.NewDashboardService(store.Products)
	phoneService := service.NewPhoneService(registry)

	// Initialize handlers
	healthHandler := transport.NewHealthHandler(store.Health)
	productHandler := transport.NewProductHandler(productService, dashboardService, logger)
	phoneHandler := transport.NewPhoneHandler(phoneService, logger)

	// Rate limit only the routes that call the external registry
	var redisClient *redis.Client
	var phoneMiddleware []func(http.Handler) http.Handler
	if cfg.RateLimit.Enabled {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		phoneMiddleware = append(phoneMiddleware, custommiddleware.RateLimitMiddleware(redisClient, custommiddleware.RateLimitConfig{
			RequestsPerWindow: cfg.RateLimit.Requests,
			Window:            cfg.RateLimit.Window,
			KeyPrefix:         "rate_limit:phone",
		}, logger))
		logger.Info("Rate limiting enabled for phone registry routes",
			zap.Int("requests", cfg.RateLimit.Requests),
			zap.Duration("window", cfg.RateLimit.Window),
		)
	}

	// Register routes
	healthHandler.RegisterRoutes(router)
	productHandler.RegisterRoutes(router)
	phoneHandler.RegisterRoutes(router, phoneMiddleware...)

	// Initialize background jobs
	var scheduler *jobs.Scheduler
	if cfg.Jobs.Enabled {
		var err error
		scheduler, err = jobs.NewScheduler(cfg.Jobs, productService, phoneService, logger)
		if err != nil {
			if redisClient != nil {
				redisClient.Close()
			}
			return nil, err
		}
	}

	// Create server
	server := &Server{
		Server: &http.Server{
			Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
			Handler:      router,
			IdleTimeout:  time.Minute,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 90 * time.Second,
		},
		config:    cfg,
		logger:    logger,
		store:     store,
		redis:     redisClient,
		products:  productService,
		scheduler: scheduler,
	}

	return server, nil
}

// StartBackground brings stored statuses up to date and starts the scheduler
func (s *Server) StartBackground(ctx context.Context) {
	if changed, err := s.products.RefreshStatuses(ctx); err != nil {
		s.logger.Error("Initial status refresh failed", zap.Error(err))
	} else {
		s.logger.Info("Initial status refresh completed", zap.Int64("changed", changed))
	}

	if s.scheduler != nil {
		s.scheduler.Start()
	}
}

// Close stops background jobs and releases the store and redis connections
func (s *Server) Close(ctx context.Context) error {
	s.logger.Info("Closing server resources")

	// Stop jobs before the store they write to
	if s.scheduler != nil {
		s.scheduler.Stop(ctx)
	}

	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.logger.Error("Failed to close redis client", zap.Error(err))
		}
	}

	if s.store.Close != nil {
		if err := s.store.Close(); err != nil {
			s.logger.Error("Failed to close database connection", zap.Error(err))
			return err
		}
	}

	return nil
}
