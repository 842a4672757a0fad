package main

//go:generate swag init

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/satheeshds/invoicehub/auth"
	"github.com/satheeshds/invoicehub/clock"
	"github.com/satheeshds/invoicehub/config"
	"github.com/satheeshds/invoicehub/db"
	_ "github.com/satheeshds/invoicehub/docs"
	"github.com/satheeshds/invoicehub/handlers"
	"github.com/satheeshds/invoicehub/ledger"
	"github.com/satheeshds/invoicehub/memstore"
	"github.com/shopspring/decimal"
)

// @title           Invoicehub API
// @version         1.0.0
// @description     Purchases, creditors, shared payments and billing-cycle analytics.
// @host            localhost:8080
// @BasePath        /api/v1
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
// @securityDefinitions.apikey  ApiKeyAuth
// @in                          header
// @name                        X-KEY

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	// Configure structured logging
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel})))

	store, closeStore, err := openStore(cfg)
	if err != nil {
		slog.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer closeStore()

	secret := cfg.Token.Secret
	if secret == "" {
		slog.Warn("TOKEN_SECRET not set, tokens will not survive a restart")
		secret = rand.Text()
	}

	// Money goes over the wire as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true

	clk := clock.NewReal()
	svc := ledger.NewService(store, clk, slog.Default())
	tokens := auth.NewIssuer(secret, cfg.Token.Issuer, cfg.Token.TTL, clk)
	h := handlers.New(svc, tokens, cfg.APIKey, slog.Default())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.SweepInterval > 0 {
		go runSweeper(ctx, svc, cfg.SweepInterval)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           h.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown failed", "error", err)
		}
	}()

	slog.Info("server starting", "address", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

// openStore returns the configured ledger store and a function releasing it.
func openStore(cfg config.Config) (ledger.Store, func(), error) {
	if cfg.DB.Driver == config.DriverMemory {
		slog.Warn("using in-memory store, data is lost on exit")
		return memstore.New(), func() {}, nil
	}

	database, err := db.Open(cfg.DB)
	if err != nil {
		return nil, nil, err
	}
	if err := db.Migrate(database, cfg.DB.Driver); err != nil {
		database.Close()
		return nil, nil, err
	}
	return db.NewStore(database, cfg.DB.Driver), func() { database.Close() }, nil
}

// runSweeper marks overdue purchases every interval until ctx is cancelled.
func runSweeper(ctx context.Context, svc *ledger.Service, interval time.Duration) {
	slog.Info("overdue sweeper started", "interval", interval)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := svc.SweepOverdue(ctx, svc.Now()); err != nil && ctx.Err() == nil {
			slog.Error("overdue sweep failed", "error", err)
		}
		select {
		case <-ctx.Done():
			slog.Info("overdue sweeper stopped")
			return
		case <-ticker.C:
		}
	}
}
