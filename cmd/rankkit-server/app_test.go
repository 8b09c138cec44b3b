package main

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rankkit/config"
)

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLogLevel("debug"))
	assert.Equal(t, slog.LevelWarn, parseLogLevel("warn"))
	assert.Equal(t, slog.LevelError, parseLogLevel("error"))
	assert.Equal(t, slog.LevelInfo, parseLogLevel("verbose"))
}

func TestSetupSeasonProvider(t *testing.T) {
	p, err := setupSeasonProvider(config.SeasonConfig{Provider: "none"})
	require.NoError(t, err)
	assert.Nil(t, p)

	p, err = setupSeasonProvider(config.SeasonConfig{Provider: "fixed", Fixed: "s9"})
	require.NoError(t, err)
	s, err := p.CurrentSeason(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "s9", s)

	p, err = setupSeasonProvider(config.SeasonConfig{
		Provider: "periodic",
		Epoch:    time.Now().Add(-36 * time.Hour),
		Period:   24 * time.Hour,
		Prefix:   "d",
	})
	require.NoError(t, err)
	s, err = p.CurrentSeason(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "d2", s)

	_, err = setupSeasonProvider(config.SeasonConfig{Provider: "lunar"})
	assert.Error(t, err)
}

func TestSetupStorage(t *testing.T) {
	cfg := config.DefaultConfig()

	store, cleanup, err := setupStorage(context.Background(), cfg)
	require.NoError(t, err)
	cleanup()
	require.NoError(t, store.Ping(context.Background()))

	cfg.Storage.Adapter = "file"
	cfg.Storage.File.Path = filepath.Join(t.TempDir(), "boards.json")
	store, cleanup, err = setupStorage(context.Background(), cfg)
	require.NoError(t, err)
	defer cleanup()
	require.NoError(t, store.Ping(context.Background()))

	cfg.Storage.Adapter = "cassandra"
	_, _, err = setupStorage(context.Background(), cfg)
	assert.Error(t, err)
}

func TestProvideHandlerServesMetrics(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Metrics.Enabled = true
	cfg.Metrics.Address = cfg.Server.Address
	cfg.Metrics.CollectSystem = false

	logger := slog.New(slog.DiscardHandler)
	hub := provideHub()
	prom := providePrometheus(cfg)
	rec := provideRecorder(prom)
	store, cleanup, err := provideStorage(context.Background(), cfg, rec)
	require.NoError(t, err)
	defer cleanup()
	reg, closeBoards, err := provideBoards(cfg, logger, hub, store, nil, rec, provideWebhooks(cfg, logger))
	require.NoError(t, err)
	defer closeBoards()
	assert.Equal(t, []string{"leaderboard"}, reg.Names())
	assert.Nil(t, provideMetricsServer(cfg, prom))

	srv := httptest.NewServer(provideHandler(reg, hub, cfg, prom))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/boards/leaderboard/entries/alice/rank")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "rankkit_store_operations_total")
}

func TestProvideMetricsServerOnSeparateAddress(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Metrics.Enabled = true
	ms := provideMetricsServer(cfg, providePrometheus(cfg))
	require.NotNil(t, ms)
	assert.Equal(t, ":9090", ms.Addr)
}
