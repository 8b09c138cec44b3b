package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"rankkit/adapters/jsonfile"
	mem "rankkit/adapters/memory"
	redisAdapter "rankkit/adapters/redis"
	"rankkit/analytics"
	"rankkit/api/httpapi"
	"rankkit/boards"
	"rankkit/config"
	"rankkit/core"
	"rankkit/engine"
	"rankkit/integrations/webhook"
	"rankkit/realtime"
	"rankkit/season"
)

// App aggregates the assembled server components.
type App struct {
	Config  *config.Config
	Logger  *slog.Logger
	Hub     *realtime.Hub
	Boards  *boards.Registry
	Handler http.Handler
	Server  *http.Server

	// MetricsServer is nil unless metrics are served on their own address.
	MetricsServer *metricsServer
}

type metricsServer struct{ *http.Server }

func provideConfig(ctx context.Context) (*config.Config, error) {
	if path := os.Getenv("RANKKIT_CONFIG_FILE"); path != "" {
		return config.LoadFromFile(path)
	}
	return config.Load()
}

func provideLogger(cfg *config.Config) *slog.Logger {
	return setupLogging(cfg)
}

func provideHub() *realtime.Hub {
	return realtime.NewHub()
}

func providePrometheus(cfg *config.Config) *prometheus.Registry {
	reg := prometheus.NewRegistry()
	if cfg.Metrics.CollectSystem {
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	return reg
}

func provideRecorder(reg *prometheus.Registry) *analytics.Recorder {
	return analytics.NewRecorder(analytics.WithRegisterer(reg))
}

func provideStorage(ctx context.Context, cfg *config.Config, rec *analytics.Recorder) (engine.RankingStore, func(), error) {
	store, cleanup, err := setupStorage(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	if cfg.Metrics.Enabled {
		return rec.Instrument(store), cleanup, nil
	}
	return store, cleanup, nil
}

func provideSeasonProvider(cfg *config.Config) (engine.SeasonProvider, error) {
	return setupSeasonProvider(cfg.Season)
}

func provideWebhooks(cfg *config.Config, logger *slog.Logger) *webhook.Sink {
	types := make([]core.EventType, 0, len(cfg.Webhooks.Events))
	for _, e := range cfg.Webhooks.Events {
		types = append(types, core.EventType(e))
	}
	return webhook.New(cfg.Webhooks.Endpoints,
		webhook.WithClient(&http.Client{Timeout: cfg.Webhooks.Timeout}),
		webhook.WithEventTypes(types...),
		webhook.WithLogger(logger),
	)
}

func provideBoards(
	cfg *config.Config,
	logger *slog.Logger,
	hub *realtime.Hub,
	store engine.RankingStore,
	provider engine.SeasonProvider,
	rec *analytics.Recorder,
	sink *webhook.Sink,
) (*boards.Registry, func(), error) {
	opts := []boards.Option{
		boards.WithStore(store),
		boards.WithDispatchMode(engine.DispatchAsync),
		boards.WithRealtime(hub),
		boards.WithSeasonTTL(cfg.Season.CacheTTL),
		boards.WithLogger(logger),
		boards.WithEventHandler(sink.OnEvent),
	}
	if provider != nil {
		opts = append(opts, boards.WithSeasonProvider(provider))
	}
	if cfg.Metrics.Enabled {
		opts = append(opts, boards.WithEventHandler(rec.OnEvent))
	}
	reg := boards.New(opts...)
	for _, b := range cfg.EffectiveBoards() {
		if _, err := reg.Register(boards.Definition{
			Name:       b.Name,
			RankKey:    b.RankKey,
			DataKey:    b.DataKey,
			ArchiveKey: b.ArchiveKey,
			MaxNum:     b.MaxNum,
			Seasonal:   b.Seasonal,
		}); err != nil {
			reg.Close()
			return nil, nil, fmt.Errorf("register board %q: %w", b.Name, err)
		}
	}
	return reg, reg.Close, nil
}

func provideHandler(reg *boards.Registry, hub *realtime.Hub, cfg *config.Config, metrics *prometheus.Registry) http.Handler {
	api := httpapi.NewMux(reg, hub, httpapi.Options{
		PathPrefix:       cfg.Server.PathPrefix,
		AllowCORSOrigin:  cfg.Server.CORSOrigin,
		APIKeys:          cfg.Security.APIKeys,
		RateLimitEnabled: cfg.Security.EnableRateLimit,
		RateLimitRPM:     cfg.Security.RateLimit.RequestsPerMinute,
		RateLimitBurst:   cfg.Security.RateLimit.BurstSize,
	})
	if !cfg.Metrics.Enabled || !sharesServerAddress(cfg) {
		return api
	}
	mux := http.NewServeMux()
	mux.Handle(cfg.Metrics.Path, promhttp.HandlerFor(metrics, promhttp.HandlerOpts{}))
	mux.Handle("/", api)
	return mux
}

func provideServer(cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           handler,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}
}

func provideMetricsServer(cfg *config.Config, metrics *prometheus.Registry) *metricsServer {
	if !cfg.Metrics.Enabled || sharesServerAddress(cfg) {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle(cfg.Metrics.Path, promhttp.HandlerFor(metrics, promhttp.HandlerOpts{}))
	return &metricsServer{&http.Server{
		Addr:              cfg.Metrics.Address,
		Handler:           mux,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
	}}
}

func sharesServerAddress(cfg *config.Config) bool {
	return cfg.Metrics.Address == "" || cfg.Metrics.Address == cfg.Server.Address
}

// setupLogging configures the logger based on configuration.
func setupLogging(cfg *config.Config) *slog.Logger {
	var handler slog.Handler

	opts := &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Logging.Level),
	}

	var out io.Writer = os.Stdout
	if cfg.Logging.Output == "stderr" {
		out = os.Stderr
	}

	switch cfg.Logging.Format {
	case "text":
		handler = slog.NewTextHandler(out, opts)
	default:
		handler = slog.NewJSONHandler(out, opts)
	}

	if len(cfg.Logging.Attributes) > 0 {
		handler = handler.WithAttrs(convertAttributes(cfg.Logging.Attributes))
	}

	logger := slog.New(handler).With("service", "rankkit")
	slog.SetDefault(logger)
	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func convertAttributes(attrs map[string]string) []slog.Attr {
	result := make([]slog.Attr, 0, len(attrs))
	for k, v := range attrs {
		result = append(result, slog.String(k, v))
	}
	return result
}

// setupStorage creates the ranking store selected by configuration.
func setupStorage(_ context.Context, cfg *config.Config) (engine.RankingStore, func(), error) {
	noop := func() {}
	switch cfg.Storage.Adapter {
	case "memory":
		return mem.New(), noop, nil
	case "redis":
		store, err := redisAdapter.New(cfg.Storage.Redis)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { _ = store.Close() }, nil
	case "file":
		store, err := jsonfile.New(cfg.Storage.File.Path)
		if err != nil {
			return nil, nil, err
		}
		return store, noop, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage adapter: %s", cfg.Storage.Adapter)
	}
}

// setupSeasonProvider returns nil when no provider is configured.
func setupSeasonProvider(cfg config.SeasonConfig) (engine.SeasonProvider, error) {
	switch cfg.Provider {
	case "", "none":
		return nil, nil
	case "fixed":
		return season.Fixed(cfg.Fixed), nil
	case "periodic":
		return season.NewPeriodic(cfg.Epoch, cfg.Period, cfg.Prefix)
	default:
		return nil, fmt.Errorf("unknown season provider: %s", cfg.Provider)
	}
}
