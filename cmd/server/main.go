package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/sudo-init-do/artmaster/internal/admin"
	"github.com/sudo-init-do/artmaster/internal/auth"
	"github.com/sudo-init-do/artmaster/internal/catalog"
	"github.com/sudo-init-do/artmaster/internal/config"
	"github.com/sudo-init-do/artmaster/internal/db"
	"github.com/sudo-init-do/artmaster/internal/marketplace"
	"github.com/sudo-init-do/artmaster/internal/relation"
	"github.com/sudo-init-do/artmaster/internal/server"
	"github.com/sudo-init-do/artmaster/internal/user"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := db.Connect(ctx, cfg.DB)
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer pool.Close()

	if err := db.EnsureSchema(ctx, pool); err != nil {
		log.Fatalf("schema: %v", err)
	}

	tokens := auth.NewTokens(cfg.JWTSecret, cfg.JWTTTL)
	users := user.NewStore(pool)
	catalogStore := catalog.NewStore(pool)
	serviceStore := marketplace.NewStore(pool)
	adminStore := admin.NewStore(pool)

	subscriptions := relation.NewTable(pool, "subscriptions", "client_id", "master_id")
	favorites := relation.NewTable(pool, "favorites", "user_id", "service_id")

	services := marketplace.NewServices(serviceStore, catalogStore, db.NewTxManager(pool), favorites, cfg.PhoneRegion)
	reviews := marketplace.NewReviews(marketplace.NewReviewStore(pool), serviceStore)

	e := server.New(cfg, server.Deps{
		Auth:        auth.NewHandler(users, tokens, cfg.PhoneRegion),
		Users:       user.NewHandler(users, subscriptions, cfg.PhoneRegion),
		Catalog:     catalog.NewHandler(catalogStore),
		Marketplace: marketplace.NewHandler(services, reviews),
		Admin:       admin.NewHandler(adminStore),
		Tokens:      tokens,
		Roles:       users.Role,
		Admins:      adminStore,
		DB:          pool,
	})

	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
	log.Println("server stopped")
}
