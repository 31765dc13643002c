package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"parkwise/internal/api"
	"parkwise/internal/config"
	"parkwise/internal/database"
	"parkwise/internal/events"
	"parkwise/internal/export"
	"parkwise/internal/inventory"
	"parkwise/internal/logging"
	"parkwise/internal/metrics"
	"parkwise/internal/repository"
	"parkwise/internal/service"
	"parkwise/internal/sheets"
	"parkwise/internal/worker"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, logger, closer, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	if closer != nil {
		defer (func(c io.Closer) { _ = c.Close() })(closer)
	}

	if err := prepareDirectories(cfg, logger); err != nil {
		return err
	}

	catalog, err := inventory.Load(cfg.Inventory.Path)
	if err != nil {
		logger.Error().Err(err).Str("path", cfg.Inventory.Path).Msg("inventory load failed")
		return err
	}
	logger.Info().Strs("cities", catalog.Cities()).Msg("inventory loaded")

	db, err := database.NewDB(cfg.Database.Path, logger)
	if err != nil {
		logger.Error().Err(err).Msg("database init failed")
		return err
	}
	defer db.Close()

	metrics.Register()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	redisClient, stateService := initStateService(ctx, cfg, logger)

	sheetsService := initSheets(ctx, cfg, logger)

	var syncWorker *worker.SyncWorker
	if sheetsService != nil {
		retryPolicy := worker.RetryPolicy{MaxRetries: 5, InitialDelay: 2 * time.Second, MaxDelay: time.Minute, BackoffFactor: 2}
		syncWorker = worker.NewSyncWorker(db, sheetsService, redisClient, retryPolicy, logger)
		go syncWorker.Start(ctx)
	}

	eventBus := events.NewEventBus()
	subscribeBookingEvents(eventBus, logger)

	userService := service.NewUserService(db, eventBus, cfg.Demo, logger)
	savedService := service.NewSavedService(db, catalog, logger)
	var bookingService *service.BookingService
	if syncWorker != nil {
		bookingService = service.NewBookingService(db, eventBus, syncWorker, logger)
	} else {
		bookingService = service.NewBookingService(db, eventBus, nil, logger)
	}
	wizardService := service.NewWizardService(stateService, catalog, bookingService, userService, cfg.Wizard, logger)
	exporter := export.NewExporter(cfg.Exports.Path, logger)

	if cfg.Monitoring.PrometheusEnabled {
		go startMetricsServer(cfg.Monitoring.PrometheusPort, logger)
	}

	apiServer := api.NewHTTPServer(
		cfg.API, wizardService, bookingService, userService,
		savedService, catalog, exporter, logger,
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- apiServer.Start()
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("API shutdown error")
	}

	if redisClient != nil {
		_ = repository.Close(redisClient)
	}

	logger.Info().Msg("Shutdown complete.")
	return nil
}

func loadConfigAndLogger() (*config.Config, *zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, nil, err
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, nil, nil, err
	}
	logger := baseLogger.With().Str("component", "api-main").Logger()

	return cfg, &logger, closer, nil
}

func prepareDirectories(cfg *config.Config, logger *zerolog.Logger) error {
	if cfg.Database.Path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
			logger.Error().Err(err).Msg("database directory create failed")
			return err
		}
	}
	if err := os.MkdirAll(cfg.Exports.Path, 0o755); err != nil {
		logger.Error().Err(err).Msg("export directory create failed")
		return err
	}
	return nil
}

func initStateService(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (*redis.Client, *service.StateService) {
	var redisClient *redis.Client
	if cfg.Redis.Address != "" {
		redisClient = repository.NewRedisClient(cfg.Redis)
		if err := repository.Ping(ctx, redisClient); err != nil {
			logger.Warn().Err(err).Msg("Redis unavailable, falling back to memory state")
		}
	}

	fallbackRepo := repository.NewMemoryStateRepository(cfg.Wizard.StateTTL)
	if redisClient == nil {
		return nil, service.NewStateService(fallbackRepo, logger)
	}

	primaryRepo := repository.NewRedisStateRepository(redisClient, cfg.Wizard.StateTTL)
	stateRepo := repository.NewFailoverStateRepository(primaryRepo, fallbackRepo, logger)
	return redisClient, service.NewStateService(stateRepo, logger)
}

// initSheets is best-effort: the spreadsheet mirror is optional and the
// API runs without it.
func initSheets(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) *sheets.SheetsService {
	if cfg.Google.CredentialsFile == "" || cfg.Google.BookingSpreadSheetID == "" {
		logger.Info().Msg("Google Sheets mirror disabled")
		return nil
	}

	svc, err := sheets.NewSheetsService(cfg.Google.CredentialsFile, cfg.Google.BookingSpreadSheetID)
	if err != nil {
		logger.Warn().Err(err).Msg("Google Sheets init failed, mirror disabled")
		return nil
	}

	if err := svc.TestConnection(ctx); err != nil {
		if email, emailErr := svc.GetServiceAccountEmail(cfg.Google.CredentialsFile); emailErr == nil {
			logger.Warn().Err(err).Str("service_account", email).
				Msg("Google Sheets connection test failed, mirror disabled; share the spreadsheet with the service account")
		} else {
			logger.Warn().Err(err).Msg("Google Sheets connection test failed, mirror disabled")
		}
		return nil
	}

	logger.Info().Msg("Google Sheets mirror enabled")
	return svc
}

func startMetricsServer(port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Info().Str("addr", srv.Addr).Msg("metrics listening")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("metrics server error")
	}
}

// subscribeBookingEvents writes an audit line for every booking
// lifecycle event. Sheet sync is enqueued by the booking service itself.
func subscribeBookingEvents(bus *events.EventBus, logger *zerolog.Logger) {
	audit := func(ev *events.Event) error {
		var payload events.BookingEventPayload
		if err := json.Unmarshal(ev.Payload, &payload); err != nil {
			logger.Error().Err(err).Str("event", ev.Type).Msg("event bus: decode payload")
			return nil
		}

		logger.Info().
			Str("event", ev.Type).
			Str("order_id", payload.OrderID).
			Int64("user_id", payload.UserID).
			Str("status", payload.Status).
			Int64("total_cents", payload.TotalCents).
			Msg("booking event")
		return nil
	}

	bus.Subscribe(events.EventBookingCreated, audit)
	bus.Subscribe(events.EventBookingCancelled, audit)
	bus.Subscribe(events.EventBookingCompleted, audit)
}
