package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/freshcatch/seafood-api/auth"
	"github.com/freshcatch/seafood-api/cart"
	"github.com/freshcatch/seafood-api/config"
	cartControllers "github.com/freshcatch/seafood-api/controllers/cart"
	orderControllers "github.com/freshcatch/seafood-api/controllers/order"
	telrControllers "github.com/freshcatch/seafood-api/controllers/telr"
	"github.com/freshcatch/seafood-api/database"
	"github.com/freshcatch/seafood-api/logger"
	"github.com/freshcatch/seafood-api/notify"
	"github.com/freshcatch/seafood-api/repository"
	"github.com/freshcatch/seafood-api/routes"
	"github.com/freshcatch/seafood-api/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	zlog, err := logger.New(cfg.Environment)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, zlog); err != nil {
		zlog.Fatal("server stopped", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, zlog *zap.Logger) error {
	db, err := database.Open(cfg, zlog)
	if err != nil {
		return err
	}
	if err := database.Migrate(db); err != nil {
		return err
	}
	zlog.Info("database ready")

	var store storage.Store
	var local bool
	if cfg.CloudinaryURL != "" {
		if store, err = storage.NewCloudinaryStore(cfg.CloudinaryURL); err != nil {
			return err
		}
		zlog.Info("images stored on cloudinary")
	} else {
		if store, err = storage.NewLocalStore(cfg.UploadDir, cfg.PublicBaseURL); err != nil {
			return err
		}
		local = true

		backup := storage.Backup{
			Source:    cfg.UploadDir,
			Dest:      cfg.BackupDir,
			Retention: cfg.BackupRetention,
			Hour:      cfg.BackupHour,
			Log:       zlog,
		}
		go backup.Run(ctx)
	}

	var google auth.GoogleVerifier
	if cfg.FirebaseProjectID != "" {
		verifier, err := auth.NewFirebaseVerifier(ctx, cfg.FirebaseProjectID, cfg.FirebaseCredentialsJSON)
		if err != nil {
			return err
		}
		google = verifier
	} else {
		zlog.Warn("FIREBASE_PROJECT_ID not set, google login disabled")
	}

	shipping := cart.Shipping{Fee: cfg.ShippingFee, FreeOver: cfg.FreeShippingThreshold}
	hub := orderControllers.NewHub(zlog)
	orders := orderControllers.NewHandler(db, shipping, notify.NewMailer(cfg, zlog), hub, zlog)

	r := routes.NewRouter(routes.Deps{
		DB:     db,
		Config: cfg,
		Log:    zlog,
		Store:  store,
		Tokens: auth.NewTokens(cfg.JWTSecret, cfg.JWTLifetime),
		Google: google,
		Hub:    hub,
		Orders: orders,
		Carts: cartControllers.NewHandler(
			repository.NewCartRepository(db),
			cartControllers.Pricing{Shipping: shipping, Currency: cfg.Currency},
			zlog,
		),
		Telr: telrControllers.NewHandler(db, telrControllers.NewClient(cfg), orders, cfg.Currency, zlog),
	})
	if local {
		r.Static("/uploads", cfg.UploadDir)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		zlog.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	zlog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
