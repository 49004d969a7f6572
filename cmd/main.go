package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"waitlist_funnel/internal/clock"
	"waitlist_funnel/internal/config"
	"waitlist_funnel/internal/infrastructure"
	handler "waitlist_funnel/internal/interfaces/http"
	"waitlist_funnel/internal/logging"
	"waitlist_funnel/internal/repository"
	"waitlist_funnel/internal/usecases"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal(err, "load config")
	}
	logger := logging.Setup(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx = logger.WithContext(ctx)

	// Connect to PostgreSQL
	pgClient, err := infrastructure.NewPostgresClient(ctx, cfg.DatabaseURL)
	if err != nil {
		logging.Fatal(err, "connect to database")
	}
	defer pgClient.Close()

	// Initialize Repositories
	subscriberRepo := repository.NewSubscriberRepository(pgClient.Pool)
	adminRepo := repository.NewAdminRepository(pgClient.Pool)

	// Initialize Usecases
	dashboardUsecase := usecases.NewDashboardUsecase(subscriberRepo, cfg.PageSize, cfg.ExportLocation())
	authUsecase := usecases.NewAuthUsecase(adminRepo, cfg.JWTSecret, cfg.TokenTTL, dashboardUsecase)
	submissionUsecase := usecases.NewSubmissionUsecase(subscriberRepo)
	chatRegistry := usecases.NewChatRegistry(clock.Real(), usecases.DefaultChatScript(), usecases.DefaultChatTiming(), cfg.ChatSessionTTL)

	if err := authUsecase.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		log.Warn().Err(err).Msg("failed to ensure admin user")
	}

	go chatRegistry.RunSweeper(ctx, time.Minute)
	go func() {
		ticker := time.NewTicker(10 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				dashboardUsecase.SweepIdle(cfg.TokenTTL)
			}
		}
	}()

	// 5 requests per second per client, bursts of 10
	httpLimiter := infrastructure.NewKeyedRateLimiter(rate.Limit(5), 10, 10*time.Minute)
	go httpLimiter.RunCleanup(ctx, 5*time.Minute)
	channelLimiter := infrastructure.NewKeyedRateLimiter(rate.Limit(1), 5, 10*time.Minute)
	go channelLimiter.RunCleanup(ctx, 5*time.Minute)

	h := handler.NewHandler(authUsecase, dashboardUsecase, chatRegistry, submissionUsecase)

	// Telegram channel
	if cfg.TelegramBotToken != "" {
		tg, err := infrastructure.NewTelegramChannel(cfg.TelegramBotToken, chatRegistry, channelLimiter, logger)
		if err != nil {
			log.Warn().Err(err).Msg("telegram disabled")
		} else {
			h.WithChannel(tg)
			go tg.Run(ctx)
		}
	} else {
		log.Info().Msg("telegram disabled (no token)")
	}

	// WhatsApp channel
	if cfg.WhatsAppEnabled {
		wa, err := infrastructure.NewWhatsAppChannel(ctx, cfg.WhatsAppStorePath, chatRegistry, channelLimiter, logger)
		if err != nil {
			log.Warn().Err(err).Msg("whatsapp disabled")
		} else {
			if err := wa.Connect(ctx); err != nil {
				log.Warn().Err(err).Msg("whatsapp connect failed")
			}
			h.WithChannel(wa).WithPairing(wa)
			defer wa.Disconnect()
		}
	}

	// Setup HTTP server
	gin.SetMode(cfg.GinMode)
	r := gin.New()
	r.Use(gin.Recovery())
	handler.SetupRoutes(r, h, handler.NewMiddleware(authUsecase, dashboardUsecase, httpLimiter, cfg.CORSOrigin))

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Fatal(err, "http server")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
}
