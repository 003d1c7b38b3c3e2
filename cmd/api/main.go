package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"carspa/internal/api"
	"carspa/internal/booking"
	"carspa/internal/bot"
	"carspa/internal/config"
	"carspa/internal/database"
	"carspa/internal/domain"
	"carspa/internal/events"
	"carspa/internal/export"
	"carspa/internal/logging"
	"carspa/internal/metrics"
	"carspa/internal/models"
	"carspa/internal/repository"
	"carspa/internal/service"
	"carspa/internal/worker"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, catalog, logger, closer, err := loadConfigAndLogger()
	if closer != nil {
		defer (func(c io.Closer) { _ = c.Close() })(closer)
	}
	if err != nil {
		return err
	}

	if err := prepareDirectories(cfg, logger); err != nil {
		return err
	}

	loc, err := cfg.Booking.Location()
	if err != nil {
		return err
	}
	closedDays, err := cfg.Booking.ClosedWeekdays()
	if err != nil {
		return err
	}

	db, err := database.NewDB(cfg.Database.Path, logging.Component(logger, "database"))
	if err != nil {
		logger.Error().Err(err).Msg("Failed to initialize database")
		return err
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	redisClient, sessions := initSessionStore(ctx, cfg, logger)
	defer func() { _ = repository.Close(redisClient) }()

	botAPI, err := initTelegram(cfg, logger)
	if err != nil {
		return err
	}
	notifier := newNotifier(botAPI, cfg, logger)

	eventBus := events.NewEventBus()

	base, maxDelay := cfg.Worker.Delays()
	retryPolicy := worker.RetryPolicy{
		MaxRetries:    cfg.Worker.MaxRetries,
		InitialDelay:  base,
		MaxDelay:      maxDelay,
		BackoffFactor: 2,
		Jitter:        0.2,
	}
	notifyWorker := worker.NewNotifyWorker(notifier, cfg.Worker.QueueSize, retryPolicy, logging.Component(logger, "notify-worker"))
	notifyWorker.Subscribe(eventBus)
	notifyWorker.Start(ctx)
	defer notifyWorker.Stop()

	if cfg.Backup.Enabled {
		backupService := database.NewBackupService(db, cfg.Backup, logging.Component(logger, "backup"))
		go backupService.Start(ctx)
	}

	startMetrics(ctx, cfg, logger)

	policy := booking.Policy{ClosedDays: closedDays, TimeSlots: catalog.SlotValues(), Location: loc, Now: time.Now}
	bookingService := service.NewBookingService(
		sessions, eventBus, policy,
		cfg.Booking.SubmitLimit, cfg.Booking.Window(),
		logging.Component(logger, "booking"),
	)
	pricingService := service.NewPricingService(logging.Component(logger, "pricing"))
	contactService := service.NewContactService(db, sessions, eventBus, logging.Component(logger, "contact"))

	if botAPI != nil {
		exporter := export.NewExporter(db, cfg.Exports.Path, loc, logging.Component(logger, "export"))
		managerBot := bot.NewBot(bot.NewBotWrapper(botAPI), cfg.Telegram.ManagerChatIDs, contactService, exporter, catalog, loc, logging.Component(logger, "bot"))
		go managerBot.Start(ctx)
		defer managerBot.Stop()
	}

	httpServer := api.NewHTTPServer(cfg.HTTP, cfg.Auth, api.Deps{
		Bookings: bookingService,
		Pricing:  pricingService,
		Contacts: contactService,
		Catalog:  catalog,
		Location: loc,
		Ready:    db.PingContext,
	}, logging.Component(logger, "http"))

	return serve(ctx, cfg, httpServer, logger)
}

func loadConfigAndLogger() (*config.Config, *models.Catalog, *zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, nil, nil, err
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	logger := logging.Component(baseLogger, "api-main")

	catalog, err := config.LoadCatalog(cfg.CatalogPath)
	if err != nil {
		logger.Error().Err(err).Str("path", cfg.CatalogPath).Msg("Failed to load catalog")
		return nil, nil, nil, closer, err
	}

	return cfg, catalog, logger, closer, nil
}

func prepareDirectories(cfg *config.Config, logger *zerolog.Logger) error {
	if cfg == nil {
		return os.ErrInvalid
	}
	dirs := []string{filepath.Dir(cfg.Database.Path), cfg.Exports.Path}
	if cfg.Backup.Enabled {
		dirs = append(dirs, cfg.Backup.StoragePath)
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			logger.Error().Err(err).Str("dir", dir).Msg("Failed to create directory")
			return err
		}
	}
	return nil
}

// initSessionStore prefers Redis and falls back to process memory when Redis
// is disabled or goes away.
func initSessionStore(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (*redis.Client, domain.SessionRepository) {
	ttl := cfg.Session.Duration()
	memory := repository.NewMemorySessionRepository(ttl)
	if !cfg.Redis.Enabled {
		logger.Info().Msg("redis disabled, sessions kept in memory")
		return nil, memory
	}

	redisClient := repository.NewRedisClient(cfg.Redis)
	if err := repository.Ping(ctx, redisClient); err != nil {
		logger.Warn().Err(err).Msg("Redis unavailable, starting on memory fallback")
	} else {
		logger.Info().Str("addr", cfg.Redis.Address).Msg("redis connected")
	}

	primary := repository.NewRedisSessionRepository(redisClient, ttl)
	return redisClient, repository.NewFailoverSessionRepository(primary, memory, logging.Component(logger, "sessions"))
}

// initTelegram returns nil when no bot token is configured.
func initTelegram(cfg *config.Config, logger *zerolog.Logger) (*tgbotapi.BotAPI, error) {
	if cfg.Telegram.BotToken == "" {
		logger.Warn().Msg("telegram bot token is not set, manager notifications and bot disabled")
		return nil, nil
	}

	botAPI, err := tgbotapi.NewBotAPI(cfg.Telegram.BotToken)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to create BotAPI")
		return nil, err
	}
	botAPI.Debug = cfg.Telegram.Debug
	logger.Info().Str("bot", botAPI.Self.UserName).Int("managers", len(cfg.Telegram.ManagerChatIDs)).Msg("telegram enabled")
	return botAPI, nil
}

func newNotifier(botAPI *tgbotapi.BotAPI, cfg *config.Config, logger *zerolog.Logger) *service.NotificationService {
	notifyLogger := logging.Component(logger, "notifications")
	if botAPI == nil {
		return service.NewNotificationService(nil, nil, notifyLogger)
	}
	return service.NewNotificationService(botAPI, cfg.Telegram.ManagerChatIDs, notifyLogger)
}

func startMetrics(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) {
	if !cfg.Monitoring.PrometheusEnabled {
		return
	}

	metrics.Register()
	go startMetricsServer(ctx, cfg.Monitoring.PrometheusPort, logger)
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error().Err(err).Msg("metrics server error")
	}
}

func serve(ctx context.Context, cfg *config.Config, httpServer *api.HTTPServer, logger *zerolog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.Start()
	}()

	logger.Info().Int("http_port", cfg.HTTP.Port).Msg("API server started")

	select {
	case <-ctx.Done():
		logger.Info().Msg("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			logger.Error().Err(err).Msg("http server stopped")
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownTimeout)*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown failed")
	}

	logger.Info().Msg("API server stopped")
	return nil
}
