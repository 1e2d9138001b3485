package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/reelforge/reelforge-api/internal/config"
	"github.com/reelforge/reelforge-api/internal/domain/admin"
	"github.com/reelforge/reelforge-api/internal/domain/auth"
	"github.com/reelforge/reelforge-api/internal/domain/credit"
	"github.com/reelforge/reelforge-api/internal/domain/generation"
	"github.com/reelforge/reelforge-api/internal/domain/order"
	"github.com/reelforge/reelforge-api/internal/domain/redemption"
	"github.com/reelforge/reelforge-api/internal/domain/upload"
	"github.com/reelforge/reelforge-api/internal/domain/user"
	"github.com/reelforge/reelforge-api/internal/middleware"
	"github.com/reelforge/reelforge-api/internal/pkg/database"
	"github.com/reelforge/reelforge-api/internal/pkg/email"
	"github.com/reelforge/reelforge-api/internal/pkg/jwt"
	"github.com/reelforge/reelforge-api/internal/pkg/logger"
	"github.com/reelforge/reelforge-api/internal/pkg/metrics"
	"github.com/reelforge/reelforge-api/internal/pkg/oauth"
	"github.com/reelforge/reelforge-api/internal/pkg/paygate"
	"github.com/reelforge/reelforge-api/internal/pkg/response"
	"github.com/reelforge/reelforge-api/internal/pkg/sms"
	"github.com/reelforge/reelforge-api/internal/pkg/storage"
	"github.com/reelforge/reelforge-api/internal/pkg/veo"
)

func main() {
	cfg := config.Load()
	logger.Init(logger.Config{Level: cfg.LogLevel, Environment: cfg.Env})

	log.Info().
		Str("env", cfg.Env).
		Str("port", cfg.Port).
		Msg("Starting ReelForge API")

	db, err := database.NewPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer database.ClosePostgres(db)

	rdb, err := database.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer database.CloseRedis(rdb)

	m := metrics.Registry("reelforge")

	// ---------- Clients ----------
	jwtService := jwt.NewService(cfg.JWTSecret, cfg.JWTAccessTTL, cfg.JWTRefreshTTL)

	mailService := email.NewService(email.ClientConfig{
		APIKey:    cfg.MailAPIKey,
		FromEmail: cfg.MailFromEmail,
		FromName:  cfg.MailFromName,
	})
	defer mailService.Close()

	smsClient := sms.NewClient(sms.Config{
		APIKey:  cfg.SMSAPIKey,
		BaseURL: cfg.SMSBaseURL,
		Sender:  cfg.SMSSender,
	})

	googleClient := oauth.NewGoogleClient(oauth.GoogleConfig{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		RedirectURL:  cfg.GoogleRedirectURL,
	})

	payConfig := paygate.Config{
		MerchantLogin: cfg.PayMerchantLogin,
		Password1:     cfg.PayPassword1,
		Password2:     cfg.PayPassword2,
		TestMode:      cfg.PayTestMode,
	}
	gateway := paygate.NewClient(payConfig)

	videoClient := veo.NewClient(veo.Config{
		APIKey:      cfg.VideoAPIKey,
		BaseURL:     cfg.VideoBaseURL,
		Timeout:     time.Duration(cfg.VideoTimeoutSeconds) * time.Second,
		CallbackURL: cfg.VideoCallbackURL,
	})

	store, err := storage.NewS3Storage(storage.Config{
		Endpoint:  cfg.S3Endpoint,
		Region:    cfg.S3Region,
		AccessKey: cfg.S3AccessKey,
		SecretKey: cfg.S3SecretKey,
		Bucket:    cfg.S3Bucket,
		PublicURL: cfg.S3PublicURL,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create S3 storage")
	}

	// ---------- Repositories ----------
	userRepo := user.NewRepository(db)
	orderRepo := order.NewRepository(db)
	uploadRepo := upload.NewRepository(db)

	// ---------- Services ----------
	userService := user.NewService(db)
	creditService := credit.NewService(db, m)
	authService := auth.NewService(userRepo, jwtService, rdb, mailService, smsClient, googleClient)
	generationService := generation.NewService(db, creditService, userRepo, videoClient, mailService, m)
	orderService := order.NewService(db, creditService, userRepo, gateway, mailService)
	redemptionService := redemption.NewService(db, creditService)
	uploadService := upload.NewService(uploadRepo, store, userService)
	adminService := admin.NewService(db, userRepo, creditService)

	// ---------- Handlers ----------
	authHandler := auth.NewHandler(authService)
	userHandler := user.NewHandler(userService)
	creditHandler := credit.NewHandler(creditService)
	generationHandler := generation.NewHandler(generationService)
	generationWebhook := generation.NewWebhookHandler(generationService)
	orderHandler := order.NewHandler(orderService)
	orderWebhook := order.NewWebhookHandler(orderService, payConfig)
	redemptionHandler := redemption.NewHandler(redemptionService)
	uploadHandler := upload.NewHandler(uploadService)
	adminHandler := admin.NewHandler(adminService, admin.NewAllowListAuthorizer(cfg.AdminEmails),
		redemptionService, orderRepo, creditService)

	authMiddleware := middleware.Auth(jwtService)

	// ---------- Router ----------
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recover)
	r.Use(middleware.Logger)
	r.Use(middleware.CORSHandler(cfg.AllowedOrigins))
	r.Use(middleware.Metrics(m))
	r.Use(middleware.RateLimit(rdb, cfg.RateLimitPerMinute))
	r.Use(chimw.Compress(5))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		response.OK(w, map[string]string{
			"status":  "ok",
			"version": "1.0.0",
		})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Mount("/auth", authHandler.Routes())
		r.Mount("/users", userHandler.Routes(authMiddleware))
		r.Mount("/credits", creditHandler.Routes(authMiddleware))
		r.Mount("/generations", generationHandler.Routes(authMiddleware))
		r.Mount("/orders", orderHandler.Routes(authMiddleware))
		r.Mount("/codes", redemptionHandler.Routes(authMiddleware))

		r.Route("/uploads", func(r chi.Router) {
			r.Use(authMiddleware)
			r.Mount("/", uploadHandler.Routes())
		})
	})

	r.Route("/webhooks", func(r chi.Router) {
		r.Post("/video", generationWebhook.Handle)
		r.Post("/payment/result", orderWebhook.HandleResult)
		r.Get("/payment/result", orderWebhook.HandleResult)
	})

	r.Mount("/api/admin", adminHandler.Routes(authMiddleware))

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited properly")
}
