// Command shopgate starts an in-memory storefront gateway for local
// development. It serves the same API the hosted gateway does and
// comes pre-seeded with demo accounts and a small catalog.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/naveenspark/shopterm/internal/gateway"
	"github.com/naveenspark/shopterm/pkg/domain"
)

var version = "dev"

func main() {
	addr := flag.String("addr", ":9000", "listen address")
	secret := flag.String("jwt-key", "shopgate-dev-secret", "HS256 signing key")
	tokenTTL := flag.Duration("token-ttl", time.Hour, "access token lifetime")
	flag.Parse()

	logger, _ := zap.NewProduction()
	defer func() { _ = logger.Sync() }()
	logger.Info("starting",
		zap.String("version", version),
		zap.String("addr", *addr),
	)

	g := gateway.New(logger)
	if err := g.Seed(seedUsers(), seedProducts()); err != nil {
		logger.Fatal("seeding demo data", zap.Error(err))
	}

	cfg := gateway.DefaultConfig([]byte(*secret))
	cfg.TokenTTL = *tokenTTL

	mux := http.NewServeMux()
	mux.Handle("/api/", http.StripPrefix("/api", g.Handler(cfg)))

	srv := &http.Server{
		Addr:              *addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	logger.Info("listening", zap.String("addr", *addr))

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("serve", zap.Error(err))
		}
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown", zap.Error(err))
		}
	}
}

func seedUsers() []gateway.SeedUser {
	return []gateway.SeedUser{
		{Name: "Demo Customer", Email: "customer@shop.dev", Password: "customer1", Role: domain.RoleCustomer},
		{Name: "Demo Seller", Email: "seller@shop.dev", Password: "seller12", Role: domain.RoleSeller},
		{Name: "Demo Admin", Email: "admin@shop.dev", Password: "admin123", Role: domain.RoleAdmin},
	}
}

func seedProducts() []domain.Product {
	return []domain.Product{
		{Name: "Mechanical Keyboard", Price: 89.0, Stock: 12},
		{Name: "Trackball Mouse", Price: 34.5, Stock: 30},
		{Name: "USB-C Dock", Price: 129.99, Stock: 7},
		{Name: "27\" Monitor", Price: 249.0, Stock: 4},
	}
}
