package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"parkingslots/internal/api"
	"parkingslots/internal/config"
	"parkingslots/internal/logging"
	"parkingslots/internal/metrics"
	"parkingslots/internal/repository"
	"parkingslots/internal/service"
)

func main() {
	cfg, err := config.LoadWithFile(".env")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.IsProduction())
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}

	err = run(cfg, logger)
	if err != nil {
		logger.Error("server stopped", zap.Error(err))
	}
	_ = logger.Sync()
	if err != nil {
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	registry, err := service.LoadSlotRegistry(ctx, store, service.SlotsFromNames(cfg.CarSlots, cfg.BikeSlots))
	if err != nil {
		return err
	}
	logger.Info("slot catalog loaded", zap.Int("slots", len(registry.ListSlots())), zap.String("driver", cfg.DatabaseDriver))

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	cache := availabilityCache(ctx, cfg, logger)
	events := eventPublisher(cfg, logger)
	defer func() { _ = events.Close() }()
	sender := service.NewSenderService(emailSender(cfg, logger), smsSender(cfg, logger), cfg.Location, logger)

	svc := service.NewReservationService(store, registry, service.EngineConfig{
		Window:       service.OperatingWindow{Location: cfg.Location, Open: cfg.OpenTime, Close: cfg.CloseTime},
		Horizon:      cfg.BookingHorizon,
		LockAttempts: cfg.LockRetryAttempts,
		LockBackoff:  cfg.LockRetryBackoff,
	}, service.Dependencies{
		Cache:    cache,
		Events:   events,
		Notifier: sender,
		Metrics:  m,
		Logger:   logger,
	})

	jobs := service.NewJobService(store, registry, sender, cfg.ReminderLead, time.Now, logger)
	runner, err := jobs.Start(cfg.ReminderSchedule)
	if err != nil {
		return err
	}

	handler := api.NewUserReservationHandler(svc, cfg.Location, logger)
	router := api.NewRouter(handler, api.RouterOptions{
		Logger:         logger,
		Metrics:        m,
		Gatherer:       reg,
		RateLimiter:    api.NewIPRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst).TrustProxies(cfg.TrustedProxies),
		JWTSecret:      cfg.JWTSecret,
		AllowedOrigins: cfg.CORSAllowedOrigins,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return serve(ctx, srv, logger, func() {
		<-runner.Stop().Done()
		sender.Wait()
	})
}

// serve runs srv until ctx is cancelled or the listener fails. Either way the server is shut
// down and drain runs before serve returns the listener error, if any.
func serve(ctx context.Context, srv *http.Server, logger *zap.Logger, drain func()) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("server running", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var serveErr error
	select {
	case serveErr = <-errCh:
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown failed", zap.Error(err))
	}
	drain()
	return serveErr
}

func openStore(ctx context.Context, cfg *config.Config) (repository.Store, error) {
	switch cfg.DatabaseDriver {
	case config.DriverPostgres:
		conn, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := conn.PingContext(ctx); err != nil {
			_ = conn.Close()
			return nil, err
		}
		store, err := repository.NewPostgresBookingRepository(ctx, conn)
		if err != nil {
			_ = conn.Close()
			return nil, err
		}
		return store, nil
	case config.DriverSQLite:
		store, err := repository.NewSQLiteBookingRepository(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return repository.NewMemoryBookingRepository(), nil
	}
}

func availabilityCache(ctx context.Context, cfg *config.Config, logger *zap.Logger) service.AvailabilityCache {
	if cfg.RedisAddr == "" {
		return service.NoopCache{}
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		// cache errors are logged and reads fall through to the store
		logger.Warn("redis unreachable, availability cache degraded", zap.String("addr", cfg.RedisAddr), zap.Error(err))
	}
	return service.NewRedisAvailabilityCache(client, cfg.AvailabilityCacheTTL)
}

func eventPublisher(cfg *config.Config, logger *zap.Logger) service.EventPublisher {
	if len(cfg.KafkaBrokers) == 0 {
		return service.NoopPublisher{}
	}
	p, err := service.NewKafkaEventPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
	if err != nil {
		logger.Warn("booking events disabled", zap.Error(err))
		return service.NoopPublisher{}
	}
	return p
}

func emailSender(cfg *config.Config, logger *zap.Logger) service.EmailSender {
	s, err := service.NewSendGridEmailSender(cfg.SendGridAPIKey, cfg.SendGridFromEmail, cfg.SendGridFromName, logger)
	if err != nil {
		logger.Info("email notifications disabled", zap.Error(err))
		return service.LogEmailSender{Logger: logger}
	}
	return s
}

func smsSender(cfg *config.Config, logger *zap.Logger) service.SMSSender {
	s, err := service.NewTwilioSMSSender(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioFromNumber, logger)
	if err != nil {
		logger.Info("sms notifications disabled", zap.Error(err))
		return service.LogSMSSender{Logger: logger}
	}
	return s
}
