package db

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

func ConnectPostgres() *pgxpool.Pool {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		slog.Error("DATABASE_URL not set")
		os.Exit(1)
	}

	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		slog.Error("invalid DATABASE_URL", "error", err)
		os.Exit(1)
	}

	config.MaxConns = 10
	config.MinConns = 2
	config.MaxConnLifetime = time.Hour

	pool, err := pgxpool.NewWithConfig(context.Background(), config)
	if err != nil {
		slog.Error("failed to create connection pool", "error", err)
		os.Exit(1)
	}

	if err := pool.Ping(context.Background()); err != nil {
		slog.Error("postgres connection failed", "error", err)
		os.Exit(1)
	}

	slog.Info("connected to PostgreSQL")

	if err := initSchema(pool); err != nil {
		slog.Error("failed to initialize schema", "error", err)
		os.Exit(1)
	}

	return pool
}

// initSchema creates or updates the database schema
func initSchema(pool *pgxpool.Pool) error {
	ctx := context.Background()

	// -------------------------------
	// GROUPS
	// -------------------------------
	groupsSQL := `
		CREATE TABLE IF NOT EXISTS groups (
			id VARCHAR(36) PRIMARY KEY,
			group_name VARCHAR(50) NOT NULL DEFAULT '',
			organizer_id VARCHAR(64) NOT NULL,
			latitude DOUBLE PRECISION NOT NULL,
			longitude DOUBLE PRECISION NOT NULL,
			radius INTEGER NOT NULL,
			min_price INTEGER,
			max_price INTEGER,
			types JSONB,
			status VARCHAR(20) NOT NULL DEFAULT 'voting',
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`
	if _, err := pool.Exec(ctx, groupsSQL); err != nil {
		return err
	}

	// -------------------------------
	// MEMBERS
	// -------------------------------
	membersSQL := `
		CREATE TABLE IF NOT EXISTS group_members (
			id SERIAL PRIMARY KEY,
			group_id VARCHAR(36) NOT NULL REFERENCES groups(id) ON DELETE CASCADE,
			member_id VARCHAR(64) NOT NULL,
			joined_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UNIQUE (group_id, member_id)
		);
		CREATE INDEX IF NOT EXISTS idx_group_members_group_id
			ON group_members (group_id);
	`
	if _, err := pool.Exec(ctx, membersSQL); err != nil {
		return err
	}

	// -------------------------------
	// CANDIDATES (frozen at creation)
	// -------------------------------
	candidatesSQL := `
		CREATE TABLE IF NOT EXISTS group_candidates (
			id SERIAL PRIMARY KEY,
			group_id VARCHAR(36) NOT NULL REFERENCES groups(id) ON DELETE CASCADE,
			place_id VARCHAR(128) NOT NULL,
			position INTEGER NOT NULL,
			name VARCHAR(255) NOT NULL,
			address VARCHAR(255) NOT NULL DEFAULT '',
			rating DOUBLE PRECISION,
			price_level INTEGER,
			photo_url TEXT NOT NULL DEFAULT '',
			photo_urls JSONB,
			lat DOUBLE PRECISION NOT NULL,
			lng DOUBLE PRECISION NOT NULL,
			types JSONB,
			reviews JSONB,
			phone_number VARCHAR(64) NOT NULL DEFAULT '',
			website VARCHAR(255) NOT NULL DEFAULT '',
			maps_url VARCHAR(255) NOT NULL DEFAULT '',
			user_ratings_total INTEGER,
			opening_hours JSONB,
			summary TEXT NOT NULL DEFAULT '',
			UNIQUE (group_id, place_id)
		);
		CREATE INDEX IF NOT EXISTS idx_group_candidates_group_id
			ON group_candidates (group_id);
	`
	if _, err := pool.Exec(ctx, candidatesSQL); err != nil {
		return err
	}

	// -------------------------------
	// VOTES (one row per member+place)
	// -------------------------------
	votesSQL := `
		CREATE TABLE IF NOT EXISTS group_votes (
			id SERIAL PRIMARY KEY,
			group_id VARCHAR(36) NOT NULL REFERENCES groups(id) ON DELETE CASCADE,
			member_id VARCHAR(64) NOT NULL,
			place_id VARCHAR(128) NOT NULL,
			value VARCHAR(10) NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UNIQUE (group_id, member_id, place_id)
		);
		CREATE INDEX IF NOT EXISTS idx_group_votes_group_id
			ON group_votes (group_id);
	`
	if _, err := pool.Exec(ctx, votesSQL); err != nil {
		return err
	}

	slog.Info("schema initialized")
	return nil
}
