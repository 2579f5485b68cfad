package db

import (
	"context"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sudo-init-do/artmaster/internal/config"
)

// Connect opens the Postgres pool and pings it.
func Connect(ctx context.Context, cfg config.DBConfig) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = int32(cfg.MaxConns)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	log.Println("Connected to Postgres successfully")
	return pool, nil
}

// EnsureSchema creates every table, constraint and index if missing. It is
// idempotent and safe to run on each boot.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt.sql); err != nil {
			return fmt.Errorf("ensure %s: %w", stmt.name, err)
		}
	}
	log.Printf("schema ensured (%d statements)", len(schema))
	return nil
}

type statement struct {
	name string
	sql  string
}

var schema = []statement{
	{"users", `
		CREATE TABLE IF NOT EXISTS users (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			username VARCHAR(150) NOT NULL,
			email VARCHAR(254) NOT NULL,
			first_name VARCHAR(150) NOT NULL DEFAULT '',
			last_name VARCHAR(150) NOT NULL DEFAULT '',
			password TEXT NOT NULL,
			role TEXT NOT NULL DEFAULT 'client',
			phone TEXT NOT NULL DEFAULT '',
			photo TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			CONSTRAINT users_username_key UNIQUE (username),
			CONSTRAINT users_email_key UNIQUE (email),
			CONSTRAINT users_username_email_key UNIQUE (username, email),
			CONSTRAINT users_role_check CHECK (role IN ('client','master','admin'))
		)`},
	{"users_phone_idx", `CREATE UNIQUE INDEX IF NOT EXISTS users_phone_key ON users(phone) WHERE phone <> ''`},
	{"tags", `
		CREATE TABLE IF NOT EXISTS tags (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			name VARCHAR(200) NOT NULL,
			slug VARCHAR(200) NOT NULL,
			color VARCHAR(7) NOT NULL,
			CONSTRAINT tags_name_key UNIQUE (name),
			CONSTRAINT tags_slug_key UNIQUE (slug),
			CONSTRAINT tags_color_key UNIQUE (color)
		)`},
	{"activities", `
		CREATE TABLE IF NOT EXISTS activities (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			name VARCHAR(256) NOT NULL,
			slug VARCHAR(200) NOT NULL,
			description TEXT NOT NULL,
			CONSTRAINT activities_name_key UNIQUE (name),
			CONSTRAINT activities_slug_key UNIQUE (slug)
		)`},
	{"locations", `
		CREATE TABLE IF NOT EXISTS locations (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			country VARCHAR(50) NOT NULL,
			city VARCHAR(50) NOT NULL,
			street VARCHAR(100) NOT NULL,
			house_number INTEGER NOT NULL,
			building VARCHAR(1) NULL,
			office_number INTEGER NULL
		)`},
	{"services", `
		CREATE TABLE IF NOT EXISTS services (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			name VARCHAR(256) NOT NULL,
			description TEXT NOT NULL,
			master_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			image TEXT NOT NULL DEFAULT '',
			about_master TEXT NULL,
			site_address TEXT NULL,
			phone_number TEXT NOT NULL,
			social_network_contacts VARCHAR(100) NULL,
			created TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			CONSTRAINT services_master_name_key UNIQUE (master_id, name)
		)`},
	{"services_created_idx", `CREATE INDEX IF NOT EXISTS idx_services_created ON services(created)`},
	{"activity_services", `
		CREATE TABLE IF NOT EXISTS activity_services (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			activity_id UUID NOT NULL REFERENCES activities(id) ON DELETE CASCADE,
			service_id UUID NOT NULL REFERENCES services(id) ON DELETE CASCADE,
			CONSTRAINT activity_services_pair_key UNIQUE (activity_id, service_id)
		)`},
	{"tag_services", `
		CREATE TABLE IF NOT EXISTS tag_services (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			tag_id UUID NOT NULL REFERENCES tags(id) ON DELETE CASCADE,
			service_id UUID NOT NULL REFERENCES services(id) ON DELETE CASCADE,
			CONSTRAINT tag_services_pair_key UNIQUE (tag_id, service_id)
		)`},
	{"location_services", `
		CREATE TABLE IF NOT EXISTS location_services (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			location_id UUID NOT NULL REFERENCES locations(id) ON DELETE CASCADE,
			service_id UUID NOT NULL REFERENCES services(id) ON DELETE CASCADE,
			CONSTRAINT location_services_pair_key UNIQUE (location_id, service_id)
		)`},
	{"reviews", `
		CREATE TABLE IF NOT EXISTS reviews (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			service_id UUID NOT NULL REFERENCES services(id) ON DELETE CASCADE,
			author_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			text TEXT NOT NULL,
			score SMALLINT NOT NULL CHECK (score BETWEEN 1 AND 10),
			pub_date TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			CONSTRAINT reviews_service_author_key UNIQUE (service_id, author_id)
		)`},
	{"reviews_pub_date_idx", `CREATE INDEX IF NOT EXISTS idx_reviews_pub_date ON reviews(pub_date)`},
	{"comments", `
		CREATE TABLE IF NOT EXISTS comments (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			review_id UUID NOT NULL REFERENCES reviews(id) ON DELETE CASCADE,
			author_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			text TEXT NOT NULL,
			pub_date TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`},
	{"comments_review_idx", `CREATE INDEX IF NOT EXISTS idx_comments_review ON comments(review_id, pub_date)`},
	{"favorites", `
		CREATE TABLE IF NOT EXISTS favorites (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			service_id UUID NOT NULL REFERENCES services(id) ON DELETE CASCADE,
			CONSTRAINT favorites_user_service_key UNIQUE (user_id, service_id)
		)`},
	{"subscriptions", `
		CREATE TABLE IF NOT EXISTS subscriptions (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			client_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			master_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			CONSTRAINT subscriptions_client_master_key UNIQUE (client_id, master_id),
			CONSTRAINT subscriptions_not_self CHECK (client_id <> master_id)
		)`},
}
