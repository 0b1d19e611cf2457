// seed-demo is a one-shot tool that loads the baseline configuration and a
// small demo catalog. Safe to re-run: every insert is an upsert.
//
// Usage: go run ./cmd/seed-demo
package main

import (
	"context"
	"log"

	"sales-ledger/internal/db"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	ctx := context.Background()
	pool, err := db.NewPool(ctx)
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	defer pool.Close()

	tx, err := pool.Begin(ctx)
	if err != nil {
		log.Fatalf("Failed to begin transaction: %v", err)
	}
	defer tx.Rollback(ctx)

	log.Println("Seeding system configuration...")
	_, err = tx.Exec(ctx, `
		INSERT INTO system_config (key, value, description) VALUES
		    ('price_cash',          '3.0',           'Global per-kg price for cash sales'),
		    ('price_credit',        '3.2',           'Global per-kg price for credit sales'),
		    ('low_stock_threshold', '100',           'Stock level (kg) below which a warning is raised'),
		    ('default_operator',    'Jose Burgueno', 'Actor recorded when no auth gate is configured')
		ON CONFLICT (key) DO NOTHING;
	`)
	if err != nil {
		log.Fatalf("Failed to seed config: %v", err)
	}

	log.Println("Seeding box specs...")
	_, err = tx.Exec(ctx, `
		INSERT INTO specs (name, width, length, kg_per_box, created_by)
		VALUES
		    ('Large crate 40kg',  50, 70, 40, 'seed'),
		    ('Medium crate 25kg', 40, 60, 25, 'seed'),
		    ('Small box 10kg',    30, 40, 10, 'seed')
		ON CONFLICT (name) DO NOTHING;
	`)
	if err != nil {
		log.Fatalf("Failed to seed specs: %v", err)
	}

	log.Println("Seeding customers...")
	_, err = tx.Exec(ctx, `
		INSERT INTO customers (name, credit_allowed, created_by)
		VALUES
		    ('Mercado Central',   true,  'seed'),
		    ('Frutas del Norte',  true,  'seed'),
		    ('Puesto San Miguel', false, 'seed')
		ON CONFLICT (name) DO NOTHING;
	`)
	if err != nil {
		log.Fatalf("Failed to seed customers: %v", err)
	}

	log.Println("Seeding products...")
	_, err = tx.Exec(ctx, `
		INSERT INTO products (name, cash_price, credit_price, created_by)
		VALUES
		    ('Tomato',  2.8, 3.0, 'seed'),
		    ('Avocado', 4.5, 4.8, 'seed'),
		    ('Onion',   1.9, 2.1, 'seed')
		ON CONFLICT (name) DO NOTHING;
	`)
	if err != nil {
		log.Fatalf("Failed to seed products: %v", err)
	}

	if err := tx.Commit(ctx); err != nil {
		log.Fatalf("Failed to commit: %v", err)
	}
	log.Println("Seed complete.")
}
