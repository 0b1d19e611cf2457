package core_test

import (
	"context"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

func setupTestDB(t *testing.T) *pgxpool.Pool {
	_ = godotenv.Load("../../.env")

	// Use a dedicated TEST database to avoid wiping the live app database.
	// Set TEST_DATABASE_URL in your .env or environment to run integration tests.
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set — skipping integration test to protect live database")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	// Clean and seed test DB
	_, err = pool.Exec(ctx, `
		TRUNCATE TABLE audit_logs, remittances, inventory_checks, stock_moves,
		               sale_items, sales, purchase_items, purchases,
		               doc_sequences, system_config, products, customers, specs CASCADE;

		INSERT INTO specs (id, name, kg_per_box, created_by) VALUES
		    (1, 'Large crate 40kg', 40, 'test'),
		    (2, 'Small box 10kg', 10, 'test');
		INSERT INTO specs (id, name, kg_per_box, active, created_by) VALUES
		    (3, 'Retired crate', 20, false, 'test');
		SELECT setval('specs_id_seq', 10);

		INSERT INTO customers (id, name, credit_allowed, created_by) VALUES
		    (1, 'Mercado Central', true, 'test'),
		    (2, 'Puesto San Miguel', false, 'test');
		INSERT INTO customers (id, name, credit_allowed, active, created_by) VALUES
		    (3, 'Closed Stand', true, false, 'test');
		SELECT setval('customers_id_seq', 10);

		INSERT INTO products (id, name, cash_price, credit_price, created_by) VALUES
		    (1, 'Tomato', 2.8, 3.0, 'test');
		SELECT setval('products_id_seq', 10);

		INSERT INTO system_config (key, value) VALUES
		    ('price_cash', '3.0'),
		    ('price_credit', '3.2'),
		    ('low_stock_threshold', '100');
	`)
	if err != nil {
		t.Fatalf("Failed to seed test database: %v", err)
	}

	return pool
}
