package core_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"sales-ledger/internal/core"
)

func TestPurchaseService_CreatePurchase(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	ctx := context.Background()
	purchases := core.NewPurchaseService(pool)

	p, err := purchases.CreatePurchase(ctx, core.CreatePurchaseInput{
		Supplier: "Finca El Rosal",
		Lines: []core.PurchaseLineInput{
			{ProductName: "Tomato", Kg: d("200"), UnitPrice: d("1.5")},
			{ProductName: "Onion", Kg: d("100"), UnitPrice: d("0.8")},
		},
		Actor: "test",
	})
	if err != nil {
		t.Fatalf("CreatePurchase failed: %v", err)
	}

	if !p.TotalKg.Equal(d("300")) {
		t.Errorf("total kg = %s, want 300", p.TotalKg)
	}
	if !p.TotalAmount.Equal(d("380")) {
		t.Errorf("total amount = %s, want 380", p.TotalAmount)
	}
	if !strings.HasPrefix(p.ID, "PURCH-") {
		t.Errorf("id %s missing PURCH prefix", p.ID)
	}
	if len(p.Items) != 2 {
		t.Fatalf("items = %d, want 2", len(p.Items))
	}

	// One inbound move for the whole receipt.
	var moveKg, moveType string
	err = pool.QueryRow(ctx, `
		SELECT kg::text, move_type FROM stock_moves
		WHERE reference_type = 'purchase' AND reference_id = $1 AND status = 'active'
	`, p.ID).Scan(&moveKg, &moveType)
	if err != nil {
		t.Fatalf("failed to fetch purchase stock move: %v", err)
	}
	if !d(moveKg).Equal(d("300")) {
		t.Errorf("move kg = %s, want 300", moveKg)
	}
	if moveType != string(core.MovePurchaseIn) {
		t.Errorf("move type = %s, want purchase-in", moveType)
	}

	// "Onion" was not in the catalog, so it gets created priced at cost.
	var cashPrice, creditPrice string
	err = pool.QueryRow(ctx,
		"SELECT cash_price::text, credit_price::text FROM products WHERE name = 'Onion'",
	).Scan(&cashPrice, &creditPrice)
	if err != nil {
		t.Fatalf("auto-created product not found: %v", err)
	}
	if !d(cashPrice).Equal(d("0.8")) || !d(creditPrice).Equal(d("0.8")) {
		t.Errorf("auto-created prices = %s/%s, want 0.8/0.8", cashPrice, creditPrice)
	}

	// "Tomato" already existed; its prices must be untouched.
	err = pool.QueryRow(ctx,
		"SELECT cash_price::text FROM products WHERE name = 'Tomato'",
	).Scan(&cashPrice)
	if err != nil {
		t.Fatalf("existing product lookup failed: %v", err)
	}
	if !d(cashPrice).Equal(d("2.8")) {
		t.Errorf("existing product cash price = %s, want 2.8 unchanged", cashPrice)
	}
}

func TestPurchaseService_CreatePurchase_InvalidLines(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	ctx := context.Background()
	purchases := core.NewPurchaseService(pool)

	tests := []struct {
		name    string
		lines   []core.PurchaseLineInput
		wantErr error
	}{
		{"no lines", nil, core.ErrEmptyOrder},
		{"blank product name",
			[]core.PurchaseLineInput{{ProductName: "  ", Kg: d("10"), UnitPrice: d("1")}},
			core.ErrInvalidLine},
		{"zero kg",
			[]core.PurchaseLineInput{{ProductName: "Tomato", Kg: d("0"), UnitPrice: d("1")}},
			core.ErrInvalidLine},
		{"negative unit price",
			[]core.PurchaseLineInput{{ProductName: "Tomato", Kg: d("10"), UnitPrice: d("-1")}},
			core.ErrInvalidLine},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := purchases.CreatePurchase(ctx, core.CreatePurchaseInput{
				Supplier: "Finca El Rosal",
				Lines:    tt.lines,
				Actor:    "test",
			})
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestPurchaseService_VoidPurchase(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	ctx := context.Background()
	purchases := core.NewPurchaseService(pool)

	p, err := purchases.CreatePurchase(ctx, core.CreatePurchaseInput{
		Supplier: "Finca El Rosal",
		Lines:    []core.PurchaseLineInput{{ProductName: "Tomato", Kg: d("150"), UnitPrice: d("1.2")}},
		Actor:    "test",
	})
	if err != nil {
		t.Fatalf("CreatePurchase failed: %v", err)
	}

	if _, err := purchases.VoidPurchase(ctx, p.ID, "", "test"); !errors.Is(err, core.ErrMissingReason) {
		t.Fatalf("void without reason: error = %v, want ErrMissingReason", err)
	}

	voided, err := purchases.VoidPurchase(ctx, p.ID, "wrong supplier invoice", "test")
	if err != nil {
		t.Fatalf("VoidPurchase failed: %v", err)
	}
	if voided.Status != core.StatusVoid {
		t.Errorf("status = %s, want void", voided.Status)
	}

	// The original receipt stays in the ledger; a compensating return brings
	// the net back to zero.
	rows, err := pool.Query(ctx, `
		SELECT move_type, kg::text FROM stock_moves
		WHERE reference_id = $1 AND status = 'active'
		ORDER BY id
	`, p.ID)
	if err != nil {
		t.Fatalf("query moves: %v", err)
	}
	defer rows.Close()

	var moves []struct {
		moveType string
		kg       string
	}
	for rows.Next() {
		var m struct {
			moveType string
			kg       string
		}
		if err := rows.Scan(&m.moveType, &m.kg); err != nil {
			t.Fatalf("scan move: %v", err)
		}
		moves = append(moves, m)
	}
	if len(moves) != 2 {
		t.Fatalf("active moves = %d, want 2 (purchase-in + return)", len(moves))
	}
	if moves[0].moveType != string(core.MovePurchaseIn) || !d(moves[0].kg).Equal(d("150")) {
		t.Errorf("first move = %s %s, want purchase-in 150", moves[0].moveType, moves[0].kg)
	}
	if moves[1].moveType != string(core.MoveReturn) || !d(moves[1].kg).Equal(d("-150")) {
		t.Errorf("second move = %s %s, want return -150", moves[1].moveType, moves[1].kg)
	}

	if _, err := purchases.VoidPurchase(ctx, p.ID, "again", "test"); !errors.Is(err, core.ErrAlreadyVoided) {
		t.Fatalf("second void: error = %v, want ErrAlreadyVoided", err)
	}
	if _, err := purchases.VoidPurchase(ctx, "PURCH-19990101-001", "x", "test"); !errors.Is(err, core.ErrPurchaseNotFound) {
		t.Fatalf("void unknown purchase: error = %v, want ErrPurchaseNotFound", err)
	}
}
