package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/krishichain/internal/config"
	"github.com/mamadbah2/krishichain/internal/ledger"
	"github.com/mamadbah2/krishichain/internal/repository/memory"
	"github.com/mamadbah2/krishichain/internal/repository/mongodb"
	"github.com/mamadbah2/krishichain/internal/repository/sheets"
	"github.com/mamadbah2/krishichain/internal/repository/sqlite"
	"github.com/mamadbah2/krishichain/internal/scheduler"
	"github.com/mamadbah2/krishichain/internal/server/handlers"
	"github.com/mamadbah2/krishichain/internal/server/router"
	reportingsvc "github.com/mamadbah2/krishichain/internal/service/reporting"
	"github.com/mamadbah2/krishichain/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New(cfg.Log.Level))
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		svc      ledger.Service
		archiver reportingsvc.SummaryArchiver
	)

	switch cfg.Ledger.Backend {
	case config.BackendMemory:
		svc = ledger.New(memory.NewStore(), baseLogger.Named("ledger"))
	case config.BackendSQLite:
		store, err := sqlite.Open(ctx, cfg.Ledger.SQLitePath, baseLogger.Named("repo.sqlite"))
		if err != nil {
			baseLogger.Fatal("failed to open sqlite store", zap.Error(err))
		}
		defer func() {
			if err := store.Close(); err != nil {
				baseLogger.Error("failed to close sqlite store", zap.Error(err))
			}
		}()
		svc = ledger.New(store, baseLogger.Named("ledger"))
	case config.BackendMongoDB:
		mongoRepo, err := mongodb.NewMongoDBRepository(ctx, cfg.MongoDB.URI, cfg.MongoDB.DBName)
		if err != nil {
			baseLogger.Fatal("failed to init mongodb repository", zap.Error(err))
		}
		defer func() {
			if err := mongoRepo.Close(context.Background()); err != nil {
				baseLogger.Error("failed to close mongodb connection", zap.Error(err))
			}
		}()
		svc = ledger.New(mongoRepo, baseLogger.Named("ledger"))
		archiver = mongoRepo
	case config.BackendRemote:
		svc = connectRemote(ctx, cfg.Ledger, baseLogger.Named("remote"))
	}

	if cfg.Ledger.SeedSample {
		code, err := ledger.SeedSample(ctx, svc)
		if err != nil {
			baseLogger.Error("failed to seed sample record", zap.Error(err))
		} else if code != "" {
			baseLogger.Info("sample record seeded", zap.String("code", code))
		}
	}

	var sheetsRepo sheets.Repository
	if cfg.Sheets.Enabled() {
		repo, err := sheets.NewGoogleSheetRepository(ctx, cfg.Sheets, baseLogger.Named("repo.sheets"))
		if err != nil {
			baseLogger.Fatal("failed to init sheets repository", zap.Error(err))
		}
		sheetsRepo = repo
	} else {
		baseLogger.Warn("google sheets not configured, scheduled export disabled")
	}

	reportingSvc := reportingsvc.NewService(svc, sheetsRepo, archiver, baseLogger.Named("svc.reporting"))

	if sheetsRepo != nil {
		sched, err := scheduler.NewScheduler(cfg.Reporting, reportingSvc, baseLogger.Named("scheduler"))
		if err != nil {
			baseLogger.Fatal("failed to init scheduler", zap.Error(err))
		}
		if err := sched.Start(); err != nil {
			baseLogger.Fatal("failed to start scheduler", zap.Error(err))
		}
		defer sched.Stop()
	}

	ledgerHandler := handlers.NewLedgerHandler(svc, reportingSvc, baseLogger.Named("handlers.ledger"))
	engine := router.New(ledgerHandler, baseLogger.Named("router"))

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		baseLogger.Info("server starting", zap.String("port", cfg.Server.Port), zap.String("backend", cfg.Ledger.Backend))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Fatal("http server crashed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	baseLogger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("graceful shutdown failed", zap.Error(err))
	}
}
