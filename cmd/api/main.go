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
	"github.com/rs/zerolog/log"

	"github.com/vispass/vispass-api/internal/config"
	"github.com/vispass/vispass-api/internal/domain/account"
	"github.com/vispass/vispass-api/internal/domain/auth"
	"github.com/vispass/vispass-api/internal/domain/notification"
	"github.com/vispass/vispass-api/internal/domain/pass"
	"github.com/vispass/vispass-api/internal/domain/proof"
	"github.com/vispass/vispass-api/internal/domain/topup"
	"github.com/vispass/vispass-api/internal/domain/wallet"
	"github.com/vispass/vispass-api/internal/middleware"
	"github.com/vispass/vispass-api/internal/pkg/database"
	"github.com/vispass/vispass-api/internal/pkg/imaging"
	"github.com/vispass/vispass-api/internal/pkg/jwt"
	"github.com/vispass/vispass-api/internal/pkg/logger"
	pkgresponse "github.com/vispass/vispass-api/internal/pkg/response"
	"github.com/vispass/vispass-api/internal/pkg/storage"
	"github.com/vispass/vispass-api/internal/ws"
)

const (
	sweepInterval   = time.Minute
	cleanupInterval = 6 * time.Hour
)

func main() {
	cfg := config.Load()

	if err := logger.Init(logger.Config{Level: cfg.LogLevel, Environment: cfg.Env}); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize logger")
	}

	log.Info().
		Str("env", cfg.Env).
		Str("port", cfg.Port).
		Msg("Starting VisPass API")

	db, err := database.NewPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer database.ClosePostgres(db)

	redis, err := database.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer database.CloseRedis(redis)

	jwtService := jwt.NewService(cfg.JWTSecret, cfg.JWTAccessTTL)

	// ---------- Proof image storage ----------
	var proofStorage storage.Storage
	if cfg.HasS3() {
		proofStorage, err = storage.NewS3Storage(storage.S3Config{
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
	} else {
		proofStorage, err = storage.NewLocalStorage(cfg.LocalStoragePath, "/files")
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create local storage")
		}
		log.Warn().Str("path", cfg.LocalStoragePath).Msg("S3 not configured, storing proofs on local disk")
	}

	// ---------- Push hub ----------
	hub := ws.NewHub(redis)
	go hub.Run()
	defer hub.Stop()

	// ---------- Repositories ----------
	accountRepo := account.NewRepository(db)
	walletRepo := wallet.NewRepository(db)
	topupRepo := topup.NewRepository(db)
	passRepo := pass.NewRepository(db)
	proofRepo := proof.NewRepository(db)
	notificationRepo := notification.NewRepository(db)

	// ---------- Services ----------
	notificationService := notification.NewService(notificationRepo, notification.NewWSPublisher(hub))
	notifier := notification.NewNotifier(notificationService)

	accountService := account.NewService(accountRepo)
	authService := auth.NewService(accountRepo, walletRepo, jwtService)
	walletService := wallet.NewService(walletRepo)
	topupService := topup.NewService(topupRepo, walletRepo, notifier)
	passService := pass.NewService(passRepo, walletRepo, notifier, pass.Config{
		Fee: cfg.PassFee,
		TTL: cfg.PassTTL,
	})
	proofService := proof.NewService(proofRepo, proofStorage, imaging.NewProcessor(imaging.DefaultConfig()))

	// ---------- Background jobs ----------
	jobCtx, jobCancel := context.WithCancel(context.Background())
	defer jobCancel()

	go pass.NewSweeper(passService).Start(jobCtx, sweepInterval)
	go notification.NewCleanupJob(notificationRepo, 90*24*time.Hour).Start(jobCtx, cleanupInterval)

	// ---------- Handlers ----------
	accountHandler := account.NewHandler(accountService)
	authHandler := auth.NewHandler(authService)
	walletHandler := wallet.NewHandler(walletService)
	topupHandler := topup.NewHandler(topupService)
	passHandler := pass.NewHandler(passService)
	proofHandler := proof.NewHandler(proofService)
	notificationHandler := notification.NewHandler(notificationService, hub, cfg.AllowedOrigins)

	authMiddleware := middleware.Auth(jwtService)
	adminMiddleware := middleware.RequireAdmin()
	staffMiddleware := middleware.RequireStaff()

	// ---------- Router ----------
	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recover)
	r.Use(middleware.CORSHandler(cfg.AllowedOrigins))

	// WebSocket endpoint (before Compress). Browsers cannot set headers on
	// WS dial, so the token arrives as a query parameter.
	r.Get("/ws", func(w http.ResponseWriter, r *http.Request) {
		token := r.URL.Query().Get("token")
		if token != "" {
			r.Header.Set("Authorization", "Bearer "+token)
		}
		authMiddleware(http.HandlerFunc(notificationHandler.WebSocket)).ServeHTTP(w, r)
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		pkgresponse.OK(w, map[string]string{
			"status":  "ok",
			"version": "1.0.0",
		})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(chimw.Compress(5))

		r.Mount("/auth", authHandler.Routes(authMiddleware))
		r.Mount("/accounts", accountHandler.Routes(authMiddleware, adminMiddleware))
		r.Mount("/wallet", walletHandler.Routes(authMiddleware, adminMiddleware))
		r.Mount("/topups", topupHandler.Routes(authMiddleware, adminMiddleware))
		r.Mount("/passes", passHandler.Routes(authMiddleware, staffMiddleware))
		r.Mount("/proofs", proofHandler.Routes(authMiddleware))
		r.Mount("/notifications", notificationHandler.Routes(authMiddleware))
	})

	// Locally stored proof images (development only)
	if !cfg.HasS3() {
		fileServer := http.StripPrefix("/files/", http.FileServer(http.Dir(cfg.LocalStoragePath)))
		r.Get("/files/*", fileServer.ServeHTTP)
	}

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
