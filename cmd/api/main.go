package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"

	"github.com/freshkart-labs/freshkart-backend/api/routes"
	"github.com/freshkart-labs/freshkart-backend/internal/auth"
	"github.com/freshkart-labs/freshkart-backend/internal/cart"
	"github.com/freshkart-labs/freshkart-backend/internal/catalog"
	checkoutsvc "github.com/freshkart-labs/freshkart-backend/internal/checkout"
	"github.com/freshkart-labs/freshkart-backend/internal/notifications"
	"github.com/freshkart-labs/freshkart-backend/internal/orders"
	"github.com/freshkart-labs/freshkart-backend/internal/users"
	"github.com/freshkart-labs/freshkart-backend/internal/verification"
	"github.com/freshkart-labs/freshkart-backend/internal/wishlist"
	"github.com/freshkart-labs/freshkart-backend/pkg/auth/session"
	"github.com/freshkart-labs/freshkart-backend/pkg/config"
	"github.com/freshkart-labs/freshkart-backend/pkg/db"
	"github.com/freshkart-labs/freshkart-backend/pkg/env"
	"github.com/freshkart-labs/freshkart-backend/pkg/logger"
	"github.com/freshkart-labs/freshkart-backend/pkg/migrate"
	"github.com/freshkart-labs/freshkart-backend/pkg/outbox"
	"github.com/freshkart-labs/freshkart-backend/pkg/redis"
)

func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(ctx, ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	requireResource(ctx, logg, "config", err)

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(ctx, cfg.DB, logg)
	requireResource(ctx, logg, "database", err)
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(ctx, "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		requireResource(ctx, logg, "dev migrations", err)
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	requireResource(ctx, logg, "redis", err)
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(ctx, "error closing redis", err)
		}
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	requireResource(ctx, logg, "session manager", err)

	conn := dbClient.DB()
	catalogRepo := catalog.NewRepository(conn)
	cartRepo := cart.NewRepository(conn)
	ordersRepo := orders.NewRepository(conn)

	outboxSvc, err := outbox.NewService(outbox.NewRepository(conn), logg)
	requireResource(ctx, logg, "outbox service", err)

	authSvc, err := auth.NewService(auth.ServiceParams{
		UserRepo:       users.NewRepository(conn),
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
	})
	requireResource(ctx, logg, "auth service", err)

	registerSvc, err := auth.NewRegisterService(auth.RegisterServiceParams{
		DB:             dbClient,
		PasswordConfig: cfg.Password,
	})
	requireResource(ctx, logg, "register service", err)

	catalogSvc, err := catalog.NewService(catalogRepo)
	requireResource(ctx, logg, "catalog service", err)

	cartSvc, err := cart.NewService(cartRepo, catalogRepo)
	requireResource(ctx, logg, "cart service", err)

	ordersSvc, err := orders.NewService(orders.ServiceParams{
		DB:     dbClient,
		Repo:   ordersRepo,
		Stock:  catalogRepo,
		Outbox: outboxSvc,
	})
	requireResource(ctx, logg, "orders service", err)

	checkoutSvc, err := checkoutsvc.NewService(checkoutsvc.ServiceParams{
		DB:     dbClient,
		Carts:  cartRepo,
		Orders: ordersRepo,
		Stock:  catalogRepo,
		Outbox: outboxSvc,
	})
	requireResource(ctx, logg, "checkout service", err)

	wishlistSvc, err := wishlist.NewService(wishlist.NewRepository(conn), catalogRepo)
	requireResource(ctx, logg, "wishlist service", err)

	notifySvc, err := notifications.NewService(notifications.NewRepository(conn))
	requireResource(ctx, logg, "notifications service", err)

	artifact, err := verification.LoadArtifact(cfg.Verification.ArtifactPath)
	requireResource(ctx, logg, "verification artifact", err)
	scorer, err := verification.NewScorer(artifact, cfg.Verification.WeightTolerancePercent)
	requireResource(ctx, logg, "verification scorer", err)
	verifySvc, err := verification.NewService(verification.NewRepository(conn), ordersRepo, scorer)
	requireResource(ctx, logg, "verification service", err)

	handler := routes.NewRouter(routes.RouterParams{
		Config:   cfg,
		Logger:   logg,
		DB:       dbClient,
		Redis:    redisClient,
		Sessions: sessionManager,
		Auth:     authSvc,
		Register: registerSvc,
		Catalog:  catalogSvc,
		Cart:     cartSvc,
		Checkout: checkoutSvc,
		Orders:   ordersSvc,
		Wishlist: wishlistSvc,
		Notify:   notifySvc,
		Verify:   verifySvc,
	})

	addr := ":" + env.Get("PORT", cfg.App.Port)
	runCtx := logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(runCtx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	stopCtx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(runCtx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-stopCtx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(runCtx, "api server shutdown failed", err)
		}
		logg.Info(runCtx, "api server stopped")
	}
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, "resource not working: "+resource, err)
	os.Exit(1)
}
