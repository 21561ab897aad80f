package main

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/krishichain/internal/config"
	"github.com/mamadbah2/krishichain/internal/ledger"
	"github.com/mamadbah2/krishichain/internal/repository/memory"
	"github.com/mamadbah2/krishichain/pkg/clients/ledgerapi"
)

const (
	remoteTimeout      = 15 * time.Second
	remotePingDeadline = 5 * time.Second
)

// connectRemote returns the remote ledger client after a health check. When the
// check fails and cfg.RemoteFallback is set, an in-memory ledger is used instead.
func connectRemote(ctx context.Context, cfg config.LedgerConfig, logger *zap.Logger) ledger.Service {
	client := ledgerapi.NewClient(cfg.RemoteURL, remoteTimeout)

	pingCtx, cancel := context.WithTimeout(ctx, remotePingDeadline)
	defer cancel()

	err := client.Ping(pingCtx)
	if err == nil {
		logger.Info("using remote ledger", zap.String("url", cfg.RemoteURL))
		return client
	}

	if !cfg.RemoteFallback {
		logger.Warn("remote ledger health check failed, continuing with remote backend",
			zap.String("url", cfg.RemoteURL), zap.Error(err))
		return client
	}

	logger.Warn("remote ledger health check failed, falling back to in-memory ledger",
		zap.String("url", cfg.RemoteURL), zap.Error(err))
	return ledger.New(memory.NewStore(), logger.Named("ledger"))
}
