package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/mamadbah2/krishichain/internal/config"
	"github.com/mamadbah2/krishichain/internal/ledger"
	"github.com/mamadbah2/krishichain/pkg/clients/ledgerapi"
)

func TestConnectRemote(t *testing.T) {
	healthy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}))
	t.Cleanup(healthy.Close)

	down := httptest.NewServer(http.NotFoundHandler())
	downURL := down.URL
	down.Close()

	tests := []struct {
		name       string
		url        string
		fallback   bool
		wantRemote bool
	}{
		{name: "healthy remote", url: healthy.URL, fallback: true, wantRemote: true},
		{name: "down without fallback", url: downURL, fallback: false, wantRemote: true},
		{name: "down with fallback", url: downURL, fallback: true, wantRemote: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := connectRemote(context.Background(), config.LedgerConfig{
				Backend:        config.BackendRemote,
				RemoteURL:      tt.url,
				RemoteFallback: tt.fallback,
			}, zaptest.NewLogger(t))

			if tt.wantRemote {
				assert.IsType(t, &ledgerapi.Client{}, svc)
				return
			}
			require.IsType(t, &ledger.Ledger{}, svc)

			code, err := svc.Create(context.Background(), ledger.SampleOrigin)
			require.NoError(t, err)
			assert.NotEmpty(t, code)
		})
	}
}
