package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"loyalty-program/internal/config"
	"loyalty-program/internal/db"
	"loyalty-program/internal/httpserver"
	customerrepo "loyalty-program/internal/repository/customer"
	ledgerrepo "loyalty-program/internal/repository/ledger"
	customersvc "loyalty-program/internal/service/customer"
	ledgersvc "loyalty-program/internal/service/ledger"
)

func main() {
	cfg := config.FromEnv()
	logger := log.New(os.Stdout, "[api] ", log.LstdFlags|log.LUTC|log.Lshortfile)

	ctx := context.Background()
	dbpool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		logger.Fatalf("connect to db: %v", err)
	}
	defer dbpool.Close()

	customerRepo := customerrepo.NewPostgres(dbpool, logger)
	ledgerRepo := ledgerrepo.NewPostgres(dbpool, logger)
	customerService := customersvc.New(customerRepo, customersvc.Config{
		SelfRegisterRate:     cfg.SelfRegisterRate,
		NotifyThresholdCents: cfg.NotifyThresholdCents,
	})
	ledgerService := ledgersvc.New(ledgerRepo, ledgersvc.Options{
		DiscountAccrual: cfg.DiscountAccrual,
	})

	srv, err := httpserver.New(cfg.HTTPAddr, logger, dbpool, httpserver.Deps{
		CustomerSvc: customerService,
		LedgerSvc:   ledgerService,
	}, httpserver.Options{
		PublicBaseURL:      cfg.PublicBaseURL,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
	})
	if err != nil {
		logger.Fatalf("init server: %v", err)
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Printf("starting http server on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stopCh:
		logger.Printf("received signal %s, shutting down", sig)
	case err := <-serverErr:
		logger.Printf("server error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Printf("graceful shutdown failed: %v", err)
	} else {
		logger.Printf("server stopped")
	}
}
