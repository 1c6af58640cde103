package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/jackc/pgx/v5"
	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is not set")
	}

	if len(os.Args) < 2 {
		fmt.Println("Usage: go run main.go [up|drop|seed]")
		os.Exit(1)
	}

	command := os.Args[1]

	ctx := context.Background()
	conn, err := pgx.Connect(ctx, dbURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer conn.Close(ctx)

	switch command {
	case "up":
		if err := createTables(ctx, conn); err != nil {
			log.Fatalf("Failed to create tables: %v", err)
		}
		fmt.Println("All tables created successfully")

	case "drop":
		if err := dropTables(ctx, conn); err != nil {
			log.Fatalf("Failed to drop tables: %v", err)
		}
		fmt.Println("All tables dropped successfully")

	case "seed":
		if err := seedData(ctx, conn); err != nil {
			log.Fatalf("Failed to seed data: %v", err)
		}
		fmt.Println("Data seeded successfully")

	default:
		fmt.Printf("Unknown command: %s\n", command)
		os.Exit(1)
	}
}

func createTables(ctx context.Context, conn *pgx.Conn) error {
	queries := []string{
		// One live challenge per email; a new request overwrites the row
		`CREATE TABLE IF NOT EXISTS auth_challenges (
			email VARCHAR(254) PRIMARY KEY,
			code_hash CHAR(64) NOT NULL,
			expires_at TIMESTAMPTZ NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			requester_ip INET
		)`,

		// Subscription snapshots, written by the billing sync job
		`CREATE TABLE IF NOT EXISTS subscriptions (
			email VARCHAR(254) PRIMARY KEY,
			status VARCHAR(50) NOT NULL,
			plan VARCHAR(100) NOT NULL DEFAULT '',
			current_period_end TIMESTAMPTZ,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE INDEX IF NOT EXISTS idx_auth_challenges_expires_at ON auth_challenges(expires_at)`,
		`CREATE INDEX IF NOT EXISTS idx_subscriptions_status ON subscriptions(status)`,
	}

	for _, query := range queries {
		if _, err := conn.Exec(ctx, query); err != nil {
			return fmt.Errorf("query failed: %w", err)
		}
	}
	return nil
}

func dropTables(ctx context.Context, conn *pgx.Conn) error {
	queries := []string{
		`DROP TABLE IF EXISTS auth_challenges`,
		`DROP TABLE IF EXISTS subscriptions`,
	}

	for _, query := range queries {
		if _, err := conn.Exec(ctx, query); err != nil {
			return fmt.Errorf("query failed: %w", err)
		}
	}
	return nil
}

func seedData(ctx context.Context, conn *pgx.Conn) error {
	query := `
		INSERT INTO subscriptions (email, status, plan, current_period_end)
		VALUES
			('active@example.com', 'active', 'pro', NOW() + INTERVAL '30 days'),
			('trial@example.com', 'trialing', 'pro', NOW() + INTERVAL '14 days'),
			('lapsed@example.com', 'canceled', 'pro', NOW() - INTERVAL '10 days')
		ON CONFLICT (email) DO UPDATE
		SET status = EXCLUDED.status,
		    plan = EXCLUDED.plan,
		    current_period_end = EXCLUDED.current_period_end,
		    updated_at = NOW()
	`

	if _, err := conn.Exec(ctx, query); err != nil {
		return fmt.Errorf("seed failed: %w", err)
	}
	return nil
}
