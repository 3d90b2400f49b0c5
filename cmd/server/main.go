package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/platterhub/service-booking/internal/application"
	"github.com/platterhub/service-booking/internal/auth"
	"github.com/platterhub/service-booking/internal/config"
	"github.com/platterhub/service-booking/internal/database"
	bookingDomain "github.com/platterhub/service-booking/internal/domain/booking"
	"github.com/platterhub/service-booking/internal/domain/catalog"
	bookingEvents "github.com/platterhub/service-booking/internal/events"
	"github.com/platterhub/service-booking/internal/handler"
	"github.com/platterhub/service-booking/internal/logger"
	"github.com/platterhub/service-booking/internal/middleware"
	"github.com/platterhub/service-booking/internal/obs"
	"github.com/platterhub/service-booking/internal/repository"
	"github.com/platterhub/service-booking/migrations"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

const serviceName = "service-booking"

// store bundles the booking repository and menu catalog of one backend.
type store struct {
	bookings bookingDomain.BookingRepository
	catalog  catalog.Catalog
	check    handler.Check
	close    func()
}

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.NewNamed(cfg.AppEnv, serviceName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	log.Info("starting service-booking",
		zap.String("port", cfg.Port),
		zap.String("store", cfg.StoreDriver),
		zap.String("events", cfg.Events.Driver),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Tracing
	shutdownTracer := obs.ShutdownFunc(obs.Noop)
	if cfg.Tracing.Enabled {
		shutdownTracer, err = obs.InitTracer(ctx, serviceName, cfg.AppEnv, cfg.Tracing.Endpoint)
		if err != nil {
			log.Fatal("failed to initialize tracing", zap.Error(err))
		}
	}

	// Booking store and menu catalog
	st, err := openStore(ctx, cfg, log)
	if err != nil {
		log.Fatal("failed to open store", zap.Error(err))
	}
	defer st.close()

	// Worker availability read-model
	rdb, err := database.ConnectRedis(ctx, cfg.Redis)
	if err != nil {
		log.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer func() { _ = rdb.Close() }()
	availability := repository.NewRedisAvailabilityStore(rdb)

	// Event publisher
	publisher, err := openPublisher(cfg, log)
	if err != nil {
		log.Fatal("failed to initialize event publisher", zap.Error(err))
	}
	defer func() { _ = publisher.Close() }()

	// Initialize JWT manager
	jwtManager := auth.NewJWTManager(cfg.JWTConfig.Secret, cfg.JWTConfig.AccessTTL)

	// Initialize application service
	bookingService := application.NewBookingService(
		st.bookings,
		bookingDomain.NewCatalogPricingResolver(st.catalog),
		availability,
		publisher,
		log,
	)

	// Keep worker availability current from identity events
	groupID := cfg.KafkaConfig.GroupPrefix + "booking-service"
	availabilityConsumer := bookingEvents.NewAvailabilityConsumer(
		cfg.KafkaConfig.Brokers,
		groupID,
		availability,
		log,
	)
	defer func() { _ = availabilityConsumer.Close() }()

	go func() {
		log.Info("starting worker availability consumer")
		if err := availabilityConsumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("worker availability consumer error", zap.Error(err))
		}
	}()

	// Claim rate limit
	var claimRate gin.HandlerFunc
	if cfg.RateLimit.Enabled {
		limiter := middleware.NewRedisTokenBucket(rdb, middleware.RateLimitConfig{
			Enabled:        true,
			Prefix:         "rl:claim",
			Capacity:       cfg.RateLimit.Capacity,
			RefillTokens:   cfg.RateLimit.RefillTokens,
			RefillInterval: cfg.RateLimit.RefillInterval,
			TTL:            cfg.RateLimit.TTL,
		})
		claimRate = middleware.RateLimit(limiter, cfg.RateLimit.Capacity, log)
	}

	// Initialize HTTP handlers
	bookingHandler := handler.NewBookingHandler(bookingService)
	jobHandler := handler.NewJobHandler(bookingService, claimRate)
	adminBookingHandler := handler.NewAdminBookingHandler(bookingService)
	healthHandler := handler.NewHealthHandler(serviceName, map[string]handler.Check{
		cfg.StoreDriver: st.check,
		"redis": func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		},
	})

	// Setup Gin router
	if cfg.AppEnv != "development" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	// Apply global middleware
	router.Use(middleware.RecoveryMiddleware(log))
	router.Use(middleware.LoggerMiddleware(log))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.SecurityHeadersMiddleware())

	// Register routes
	healthHandler.RegisterRoutes(router)
	bookingHandler.RegisterRoutes(&router.RouterGroup, jwtManager)
	jobHandler.RegisterRoutes(&router.RouterGroup, jwtManager)
	adminBookingHandler.RegisterRoutes(&router.RouterGroup, jwtManager)

	// Create HTTP server
	srv := &http.Server{
		Addr:         cfg.Port,
		Handler:      otelhttp.NewHandler(router, serviceName),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info("HTTP server starting", zap.String("addr", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down service-booking...")

	// Cancel the consumer context
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server forced shutdown", zap.Error(err))
	}
	if err := shutdownTracer(shutdownCtx); err != nil {
		log.Warn("tracer shutdown failed", zap.Error(err))
	}

	log.Info("service-booking stopped")
}

func openStore(ctx context.Context, cfg *config.ServiceConfig, log *zap.Logger) (*store, error) {
	switch cfg.StoreDriver {
	case config.StoreDriverMongo:
		client, db, err := database.ConnectMongo(ctx, cfg.MongoConfig, log)
		if err != nil {
			return nil, err
		}
		repo := repository.NewMongoBookingRepository(db)
		if err := repo.EnsureIndexes(ctx); err != nil {
			_ = client.Disconnect(ctx)
			return nil, fmt.Errorf("failed to create indexes: %w", err)
		}
		return &store{
			bookings: repo,
			catalog:  repository.NewMongoCatalog(db),
			check: func(ctx context.Context) error {
				return client.Ping(ctx, nil)
			},
			close: func() { _ = client.Disconnect(context.Background()) },
		}, nil

	default:
		db, err := database.Connect(cfg.DBConfig, log)
		if err != nil {
			return nil, err
		}
		if err := database.RunMigrations(cfg.DBConfig.DatabaseURL(), migrations.FS, log); err != nil {
			return nil, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get sql.DB: %w", err)
		}
		return &store{
			bookings: repository.NewGormBookingRepository(db),
			catalog:  repository.NewGormCatalog(db),
			check:    sqlDB.PingContext,
			close:    func() { _ = sqlDB.Close() },
		}, nil
	}
}

func openPublisher(cfg *config.ServiceConfig, log *zap.Logger) (bookingEvents.Publisher, error) {
	switch cfg.Events.Driver {
	case config.EventsDriverNATS:
		return bookingEvents.NewNATSPublisher(cfg.Events.NATSURL)
	case config.EventsDriverAMQP:
		return bookingEvents.NewAMQPPublisher(cfg.Events.AMQPURL, cfg.Events.AMQPExchange)
	case config.EventsDriverNone:
		return bookingEvents.NoopPublisher{}, nil
	default:
		return bookingEvents.NewKafkaPublisher(cfg.KafkaConfig.Brokers, log), nil
	}
}
