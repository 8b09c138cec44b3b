package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	mem "rankkit/adapters/memory"
	"rankkit/api/httpapi"
	"rankkit/boards"
	"rankkit/realtime"
	"rankkit/season"
)

func main() {
	// Use readable text logging for development/demo
	textHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	logger := slog.New(textHandler)
	slog.SetDefault(logger)

	hub := realtime.NewHub()
	weekly, err := season.NewPeriodic(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), 7*24*time.Hour, "w")
	if err != nil {
		slog.Error("season provider", "error", err)
		os.Exit(1)
	}
	reg := boards.New(
		boards.WithStore(mem.New()),
		boards.WithRealtime(hub),
		boards.WithSeasonProvider(weekly),
		boards.WithLogger(logger),
	)
	defer reg.Close()

	for _, def := range []boards.Definition{
		{Name: "arena", MaxNum: 10},
		{Name: "weekly", MaxNum: 10, Seasonal: true},
	} {
		if _, err := reg.Register(def); err != nil {
			slog.Error("register board", "board", def.Name, "error", err)
			os.Exit(1)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go reg.WatchSeasons(ctx, time.Minute)

	mux := httpapi.NewMux(reg, hub, httpapi.Options{PathPrefix: "/api", AllowCORSOrigin: "*"})

	slog.Info("starting demo server on :8080", "boards", reg.Names())

	if err := http.ListenAndServe(":8080", mux); err != nil {
		slog.Error("demo server crashed", "error", err)
		os.Exit(1)
	}
}
