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
	_ "github.com/lib/pq"
	"github.com/robfig/cron/v3"

	"github.com/IlyaVolvo/spin-master-sub001/brackets"
	"github.com/IlyaVolvo/spin-master-sub001/cache"
	"github.com/IlyaVolvo/spin-master-sub001/config"
	"github.com/IlyaVolvo/spin-master-sub001/db"
	"github.com/IlyaVolvo/spin-master-sub001/handlers"
	"github.com/IlyaVolvo/spin-master-sub001/middleware"
	"github.com/IlyaVolvo/spin-master-sub001/notify"
	"github.com/IlyaVolvo/spin-master-sub001/repositories"
	api "github.com/IlyaVolvo/spin-master-sub001/routes"
	"github.com/IlyaVolvo/spin-master-sub001/services"
	"github.com/IlyaVolvo/spin-master-sub001/storage"
)

func main() {
	// Настройка логгера
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort))

	// Подключение к базе данных
	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		}
	}()
	logger.Info("database connection established")

	// Кэш турнирных таблиц (опционален: без Redis считаем каждый раз)
	var standingsCache *cache.StandingsCache
	if cfg.RedisAddr != "" {
		standingsCache, err = cache.NewStandingsCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			logger.Error("failed to connect to redis", slog.Any("error", err))
			os.Exit(1)
		}
		defer standingsCache.Close()
		logger.Info("standings cache connected", slog.String("addr", cfg.RedisAddr))
	}

	// Загрузчик файлов (Cloudflare R2, опционален)
	var uploader storage.FileUploader
	if cfg.R2AccountID != "" {
		uploader, err = storage.NewCloudflareR2Uploader(storage.CloudflareR2UploaderConfig{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			BucketName:      cfg.R2Bucket,
			PublicBaseURL:   cfg.R2PublicBaseURL,
		})
		if err != nil {
			logger.Error("failed to initialize Cloudflare R2 uploader", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("Cloudflare R2 uploader initialized")
	}

	// Telegram-анонсы результатов (опциональны)
	var announcer notify.Announcer
	if cfg.TelegramBotToken != "" && cfg.TelegramChatID != 0 {
		announcer, err = notify.NewTelegramAnnouncer(cfg.TelegramBotToken, cfg.TelegramChatID)
		if err != nil {
			logger.Error("failed to initialize telegram announcer", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("telegram announcer initialized")
	}

	// WebSocket Hub
	wsHub := brackets.NewHub()
	go wsHub.Run()

	// Репозитории
	playerRepo := repositories.NewPostgresPlayerRepository(dbConn)
	tournamentRepo := repositories.NewPostgresTournamentRepository(dbConn)
	participantRepo := repositories.NewPostgresParticipantRepository(dbConn)
	matchRepo := repositories.NewPostgresMatchRepository(dbConn)
	nodeRepo := repositories.NewPostgresBracketNodeRepository(dbConn)
	ratingRepo := repositories.NewPostgresRatingChangeRepository(dbConn)

	// Сервисы
	authService := services.NewAuthService(playerRepo, cfg.JWTSecretKey)
	playerService := services.NewPlayerService(playerRepo, ratingRepo, uploader)
	participantService := services.NewParticipantService(participantRepo, tournamentRepo, playerRepo)
	tournamentService := services.NewTournamentService(
		dbConn,
		tournamentRepo,
		participantRepo,
		matchRepo,
		nodeRepo,
		playerRepo,
		wsHub,
		uploader,
		logger,
	)
	matchService := services.NewMatchService(
		dbConn,
		tournamentRepo,
		participantRepo,
		matchRepo,
		nodeRepo,
		ratingRepo,
		playerRepo,
		wsHub,
		standingsCache,
		announcer,
		logger,
	)
	standingsService := services.NewStandingsService(tournamentRepo, participantRepo, matchRepo, standingsCache, logger)
	logger.Info("services initialized")

	// Планировщик продвижения статусов турниров по датам
	scheduler := cron.New()
	if _, err := scheduler.AddFunc("@every 30s", func() {
		if err := tournamentService.AutoUpdateStatusesByDates(context.Background()); err != nil {
			logger.Error("scheduler run failed", slog.Any("error", err))
		}
	}); err != nil {
		logger.Error("failed to schedule status updates", slog.Any("error", err))
		os.Exit(1)
	}
	scheduler.Start()
	defer scheduler.Stop()
	logger.Info("tournament status scheduler started")

	// HTTP-обработчики и маршруты
	authenticator := middleware.NewAuthenticator(cfg.JWTSecretKey)
	authHandler := handlers.NewAuthHandler(authService)
	playerHandler := handlers.NewPlayerHandler(playerService)
	tournamentHandler := handlers.NewTournamentHandler(tournamentService, participantService, standingsService)
	matchHandler := handlers.NewMatchHandler(matchService)
	webSocketHandler := handlers.NewWebSocketHandler(wsHub, logger)

	router := chi.NewRouter()
	api.SetupRoutes(
		router,
		authenticator,
		authHandler,
		playerHandler,
		tournamentHandler,
		matchHandler,
		webSocketHandler,
	)
	logger.Info("routes configured")

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("server stopped gracefully")
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			os.Exit(1)
		}
		logger.Info("server shutdown complete")
	}
	logger.Info("application exited")
}
