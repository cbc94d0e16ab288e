package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Dosada05/prediction-pool/brackets"
	"github.com/Dosada05/prediction-pool/config"
	"github.com/Dosada05/prediction-pool/db"
	"github.com/Dosada05/prediction-pool/handlers"
	"github.com/Dosada05/prediction-pool/models"
	"github.com/Dosada05/prediction-pool/repositories"
	api "github.com/Dosada05/prediction-pool/routes"
	"github.com/Dosada05/prediction-pool/services"
	"github.com/Dosada05/prediction-pool/storage"
)

func main() {
	if err := run(); err != nil {
		slog.Error("application failed", slog.Any("error", err))
		os.Exit(1)
	}
	slog.Info("application exited")
}

func run() error {
	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Настройка логгера
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort), slog.String("log_level", cfg.LogLevel.String()))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Подключение к базе данных
	dbConn, err := db.Connect(cfg.DatabaseURL, db.PoolConfig{
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnMaxLifetime,
	}, cfg.DBConnectTimeout)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		} else {
			logger.Info("database connection closed")
		}
	}()
	logger.Info("database connection established")

	if err := db.Migrate(ctx, dbConn); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	crossRules, err := brackets.CrossRuleTableByName(cfg.ThirdPlaceTable)
	if err != nil {
		return err
	}

	// Архив отчётов пересчёта (опционально)
	var archiver storage.ReportArchiver
	if cfg.ArchiveEnabled() {
		archiver, err = storage.NewCloudflareR2Archiver(ctx, storage.CloudflareR2Config{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			BucketName:      cfg.R2BucketName,
			Prefix:          cfg.R2ReportPrefix,
			Endpoint:        cfg.R2Endpoint,
		})
		if err != nil {
			return fmt.Errorf("failed to initialize Cloudflare R2 archiver: %w", err)
		}
		logger.Info("Cloudflare R2 report archiver initialized", slog.String("bucket", cfg.R2BucketName))
	}

	// Инициализация WebSocket Hub
	wsHub := brackets.NewHub(logger)
	go wsHub.Run()
	defer wsHub.Stop()

	// Инициализация репозиториев
	repos := services.Repositories{
		Tx:          repositories.NewTxRunner(dbConn),
		Tournaments: repositories.NewPostgresTournamentRepository(dbConn),
		Groups:      repositories.NewPostgresGroupRepository(dbConn),
		Games:       repositories.NewPostgresGameRepository(dbConn),
		Results:     repositories.NewPostgresResultRepository(dbConn),
		Guesses:     repositories.NewPostgresGuessRepository(dbConn),
		Positions:   repositories.NewPostgresGroupPositionGuessRepository(dbConn),
		Scores:      repositories.NewPostgresTournamentScoreRepository(dbConn),
	}

	// Инициализация сервисов
	standingsService := services.NewStandingsService(repos, crossRules, wsHub, logger)
	scoreService := services.NewScoreService(
		repos,
		brackets.NewResolver(crossRules),
		standingsService,
		wsHub,
		archiver,
		services.ScoreServiceConfig{Workers: cfg.ScoringWorkers},
		logger,
	)
	leaderboardService := services.NewLeaderboardService(repos)

	active := models.StatusActive
	if err := standingsService.ValidateBrackets(ctx, &active); err != nil {
		logger.Warn("active tournaments have bracket defects", slog.Any("error", err))
	}

	if cfg.ResumeOnStartup {
		resumed, err := scoreService.ResumeInterrupted(ctx)
		if err != nil {
			logger.Error("failed to resume interrupted amendments", slog.Int("resumed", resumed), slog.Any("error", err))
		} else if resumed > 0 {
			logger.Info("interrupted amendments resumed", slog.Int("resumed", resumed))
		}
	}

	// Планировщик очистки очков по черновым результатам
	if cfg.CleanupInterval > 0 {
		go runCleanup(ctx, scoreService, cfg.CleanupInterval, logger)
	}

	// Настройка маршрутизатора
	router := chi.NewRouter()
	api.SetupRoutes(router, api.Handlers{
		Standings: handlers.NewStandingsHandler(standingsService),
		Scores:    handlers.NewScoreHandler(scoreService, leaderboardService),
		WebSocket: handlers.NewWebSocketHandler(wsHub, cfg.CORSOrigins, logger),
	}, api.Options{
		JWTSecret:      []byte(cfg.JWTSecretKey),
		AllowedOrigins: cfg.CORSOrigins,
		Logger:         logger,
	})

	// Настройка и запуск HTTP-сервера
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	// Ожидание сигнала завершения
	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		logger.Info("server stopped gracefully")
	case <-ctx.Done():
		logger.Info("shutdown signal received")
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

		logger.Info("shutting down server", slog.Duration("timeout", 15*time.Second))
		if err := server.Shutdown(shutdownCtx); err != nil {
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		logger.Info("server shutdown complete")
	}
	return nil
}

func runCleanup(ctx context.Context, scores services.ScoreService, interval time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	logger.Info("draft cleanup scheduler started", slog.Duration("interval", interval))

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			report, err := scores.CleanupDraftGuesses(ctx)
			if err != nil {
				logger.Error("scheduled draft cleanup failed", slog.Any("error", err))
				continue
			}
			if len(report.Cleaned) > 0 {
				logger.Info("scheduled draft cleanup done", slog.Int("cleaned", len(report.Cleaned)))
			}
		}
	}
}
