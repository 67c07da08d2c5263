package main

import (
	"context"
	"log/slog"
	"os"
	"strings"

	"tablevote/internal/db"
	"tablevote/internal/group"
	"tablevote/internal/llm"
	"tablevote/internal/places"
	"tablevote/internal/router"
	"tablevote/internal/storage"
	"tablevote/pkg/logging"

	"github.com/joho/godotenv"
)

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func main() {
	logging.Setup()

	// ───────────────────────── ENV ─────────────────────────
	if os.Getenv("APP_ENV") != "production" {
		_ = godotenv.Load()
	}

	required := []string{
		"DATABASE_URL",
		"GOOGLE_API_KEY",
	}

	for _, k := range required {
		if os.Getenv(k) == "" {
			slog.Error("missing env var", "name", k)
			os.Exit(1)
		}
	}

	// ───────────────────────── DB ─────────────────────────
	pgDB := db.ConnectPostgres()
	defer pgDB.Close()

	// ───────────────────────── SUMMARIES ─────────────────────────
	summarizer, err := llm.FromEnv()
	if err != nil {
		slog.Error("summary backend misconfigured", "error", err)
		os.Exit(1)
	}
	if summarizer == nil {
		slog.Info("no summary backend configured, candidate summaries disabled")
	}

	// ───────────────────────── PHOTO MIRROR ─────────────────────────
	var mirror places.PhotoMirror
	if os.Getenv("R2_ENDPOINT") != "" {
		r2Client, err := storage.NewR2Client(context.Background())
		if err != nil {
			slog.Error("R2 init failed", "error", err)
			os.Exit(1)
		}
		mirror = r2Client
		slog.Info("photo mirroring enabled")
	}

	// ───────────────────────── WIRING ─────────────────────────
	provider := places.NewGoogleClient(os.Getenv("GOOGLE_API_KEY"), summarizer, mirror)
	groupRepo := group.NewPostgresRepository(pgDB)
	groupService := group.NewService(groupRepo, provider, getEnv("FRONTEND_BASE_URL", "http://localhost:5173"))
	groupHandler := group.NewHandler(groupService)
	placesHandler := places.NewHandler(provider, summarizer)

	origins := strings.Split(
		getEnv("ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:3000"),
		",",
	)

	r := router.NewRouter(groupHandler, placesHandler, origins)

	// ───────────────────────── START ─────────────────────────
	addr := ":" + getEnv("PORT", "8000")
	slog.Info("API starting", "address", addr)
	if err := r.Run(addr); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}
