package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/joho/godotenv"

	"github.com/sudo-init-do/artmaster/internal/access"
	"github.com/sudo-init-do/artmaster/internal/admin"
	"github.com/sudo-init-do/artmaster/internal/config"
	"github.com/sudo-init-do/artmaster/internal/db"
)

// promote_admin sets a user's role to 'admin' by email.
// Usage:
//
//	go run ./cmd/adminutil/promote_admin -email user@example.com
func main() {
	email := flag.String("email", "", "Email of the user to promote to admin")
	flag.Parse()

	if *email == "" {
		log.Fatalf("usage: go run ./cmd/adminutil/promote_admin -email user@example.com")
	}

	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DB)
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer pool.Close()

	// Make sure the users table and its role check exist before updating
	if err := db.EnsureSchema(ctx, pool); err != nil {
		log.Fatalf("schema: %v", err)
	}

	if err := admin.NewStore(pool).SetRoleByEmail(ctx, *email, access.RoleAdmin); err != nil {
		log.Fatalf("failed to promote user to admin: %v", err)
	}

	fmt.Printf("User %s promoted to admin.\n", *email)
}
