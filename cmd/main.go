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

	_ "github.com/lib/pq"

	"github.com/Dosada05/swiss-tournaments/config"
	"github.com/Dosada05/swiss-tournaments/db"
	"github.com/Dosada05/swiss-tournaments/handlers"
	"github.com/Dosada05/swiss-tournaments/middleware"
	"github.com/Dosada05/swiss-tournaments/pairing"
	"github.com/Dosada05/swiss-tournaments/realtime"
	"github.com/Dosada05/swiss-tournaments/repositories"
	api "github.com/Dosada05/swiss-tournaments/routes"
	"github.com/Dosada05/swiss-tournaments/services"
	"github.com/Dosada05/swiss-tournaments/storage"
)

const schedulerInterval = 30 * time.Second

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort))

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

	var uploader storage.FileUploader
	if cfg.R2AccountID != "" {
		uploader, err = storage.NewCloudflareR2Uploader(storage.CloudflareR2UploaderConfig{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			BucketName:      cfg.R2BucketName,
			PublicBaseURL:   cfg.R2PublicBaseURL,
		})
		if err != nil {
			logger.Error("failed to initialize Cloudflare R2 uploader", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("Cloudflare R2 uploader initialized")
	} else {
		logger.Warn("R2 is not configured, banner uploads disabled")
	}

	hub := realtime.NewHub(logger)
	go hub.Run()
	logger.Info("websocket hub started")

	userRepo := repositories.NewPostgresUserRepository(dbConn)
	profileRepo := repositories.NewPostgresGameProfileRepository(dbConn)
	tournamentRepo := repositories.NewPostgresTournamentRepository(dbConn)
	participantRepo := repositories.NewPostgresParticipantRepository(dbConn)
	roundRepo := repositories.NewPostgresRoundRepository(dbConn)
	matchRepo := repositories.NewPostgresMatchRepository(dbConn)
	historyRepo := repositories.NewPostgresMatchHistoryRepository(dbConn)
	standingRepo := repositories.NewPostgresStandingRepository(dbConn)
	txRunner := repositories.NewTxRunner(dbConn)
	logger.Info("repositories initialized")

	locks := services.NewTournamentLocks()
	emailService := services.NewEmailService(cfg, logger)

	authService := services.NewAuthService(userRepo)
	profileService := services.NewGameProfileService(profileRepo, uploader)
	tournamentService := services.NewTournamentService(
		tournamentRepo, profileRepo, participantRepo, roundRepo, matchRepo,
		standingRepo, uploader, hub, locks,
	)
	participantService := services.NewParticipantService(
		participantRepo, tournamentRepo, userRepo, txRunner, emailService, hub, locks,
	)
	standingsService := services.NewStandingsService(
		standingRepo, tournamentRepo, participantRepo, roundRepo, matchRepo, txRunner, hub,
	)
	roundService := services.NewRoundService(
		roundRepo, matchRepo, participantRepo, tournamentRepo, standingsService,
		pairing.NewSwissGenerator(), txRunner, hub, locks,
	)
	matchService := services.NewMatchService(
		matchRepo, historyRepo, tournamentRepo, standingsService, txRunner, hub, locks,
	)
	logger.Info("services initialized")

	scheduler := services.NewRegistrationScheduler(tournamentRepo, tournamentService, logger, schedulerInterval)
	schedulerCtx, stopScheduler := context.WithCancel(context.Background())
	defer stopScheduler()
	go scheduler.Run(schedulerCtx)

	auth := middleware.NewAuthenticator([]byte(cfg.JWTSecretKey))
	router := api.InitRoutes(api.Handlers{
		Auth:         handlers.NewAuthHandler(authService, []byte(cfg.JWTSecretKey)),
		GameProfiles: handlers.NewGameProfileHandler(profileService),
		Tournaments:  handlers.NewTournamentHandler(tournamentService),
		Participants: handlers.NewParticipantHandler(participantService),
		Rounds:       handlers.NewRoundHandler(roundService),
		Matches:      handlers.NewMatchHandler(matchService),
		Standings:    handlers.NewStandingsHandler(standingsService),
		WebSocket:    handlers.NewWebSocketHandler(hub, logger),
	}, auth)
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
		stopScheduler()

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
