package core_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"sales-ledger/internal/core"
)

func TestSaleService_CreateSale_CashSale(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	ctx := context.Background()
	config := core.NewConfigService(pool)
	sales := core.NewSaleService(pool, config)

	// 2 boxes of the 40 kg crate plus 5 kg loose at the global cash price of 3.0/kg.
	sale, err := sales.CreateSale(ctx, core.CreateSaleInput{
		CustomerID:  1,
		PaymentType: core.PaymentCash,
		Lines: []core.SaleLineInput{
			{SpecID: 1, BoxQty: 2, ExtraKg: d("5")},
		},
		Actor: "test",
	})
	if err != nil {
		t.Fatalf("CreateSale failed: %v", err)
	}

	if !sale.TotalKg.Equal(d("85")) {
		t.Errorf("total kg = %s, want 85", sale.TotalKg)
	}
	if !sale.TotalAmount.Equal(d("255")) {
		t.Errorf("total amount = %s, want 255", sale.TotalAmount)
	}
	if sale.PaymentStatus != core.PaymentPaid {
		t.Errorf("payment status = %s, want paid (cash sales settle on the spot)", sale.PaymentStatus)
	}
	if sale.Status != core.StatusActive {
		t.Errorf("status = %s, want active", sale.Status)
	}
	if len(sale.Items) != 1 {
		t.Fatalf("items = %d, want 1", len(sale.Items))
	}
	if !sale.Items[0].SubtotalKg.Equal(d("85")) {
		t.Errorf("line subtotal kg = %s, want 85", sale.Items[0].SubtotalKg)
	}

	// The sale must have produced exactly one outbound move of -85 kg.
	var moveKg string
	var moveType string
	err = pool.QueryRow(ctx, `
		SELECT kg::text, move_type FROM stock_moves
		WHERE reference_type = 'sale' AND reference_id = $1 AND status = 'active'
	`, sale.ID).Scan(&moveKg, &moveType)
	if err != nil {
		t.Fatalf("failed to fetch sale stock move: %v", err)
	}
	if !d(moveKg).Equal(d("-85")) {
		t.Errorf("move kg = %s, want -85", moveKg)
	}
	if moveType != string(core.MoveSale) {
		t.Errorf("move type = %s, want sale", moveType)
	}
}

func TestSaleService_CreateSale_ProductPriceOverridesGlobal(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	ctx := context.Background()
	sales := core.NewSaleService(pool, core.NewConfigService(pool))

	productID := 1
	sale, err := sales.CreateSale(ctx, core.CreateSaleInput{
		CustomerID:  1,
		PaymentType: core.PaymentCredit,
		Lines: []core.SaleLineInput{
			{SpecID: 2, ProductID: &productID, BoxQty: 1}, // 10 kg of Tomato at credit price 3.0
		},
		Actor: "test",
	})
	if err != nil {
		t.Fatalf("CreateSale failed: %v", err)
	}

	if !sale.TotalAmount.Equal(d("30")) {
		t.Errorf("total amount = %s, want 30 (product credit price, not global)", sale.TotalAmount)
	}
	if sale.PaymentStatus != core.PaymentUnpaid {
		t.Errorf("payment status = %s, want unpaid for a credit sale", sale.PaymentStatus)
	}
}

func TestSaleService_CreateSale_DiscountAndManualTotal(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	ctx := context.Background()
	sales := core.NewSaleService(pool, core.NewConfigService(pool))

	sale, err := sales.CreateSale(ctx, core.CreateSaleInput{
		CustomerID:  1,
		PaymentType: core.PaymentCash,
		Lines:       []core.SaleLineInput{{SpecID: 2, BoxQty: 1}}, // 10 kg × 3.0 = 30
		Discount:    d("5"),
		Actor:       "test",
	})
	if err != nil {
		t.Fatalf("CreateSale failed: %v", err)
	}
	if !sale.TotalAmount.Equal(d("25")) {
		t.Errorf("discounted total = %s, want 25", sale.TotalAmount)
	}

	manual := d("99")
	sale, err = sales.CreateSale(ctx, core.CreateSaleInput{
		CustomerID:  1,
		PaymentType: core.PaymentCash,
		Lines:       []core.SaleLineInput{{SpecID: 2, BoxQty: 1}},
		ManualTotal: &manual,
		Actor:       "test",
	})
	if err != nil {
		t.Fatalf("CreateSale failed: %v", err)
	}
	if !sale.TotalAmount.Equal(d("99")) {
		t.Errorf("manual total = %s, want 99", sale.TotalAmount)
	}
}

func TestSaleService_CreateSale_ValidationOrder(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	ctx := context.Background()
	sales := core.NewSaleService(pool, core.NewConfigService(pool))

	line := []core.SaleLineInput{{SpecID: 1, BoxQty: 1}}

	tests := []struct {
		name    string
		input   core.CreateSaleInput
		wantErr error
	}{
		{
			"unknown customer",
			core.CreateSaleInput{CustomerID: 999, PaymentType: core.PaymentCash, Lines: line},
			core.ErrCustomerNotFound,
		},
		{
			"inactive customer",
			core.CreateSaleInput{CustomerID: 3, PaymentType: core.PaymentCash, Lines: line},
			core.ErrCustomerInactive,
		},
		{
			"credit to cash-only customer",
			core.CreateSaleInput{CustomerID: 2, PaymentType: core.PaymentCredit, Lines: line},
			core.ErrCreditNotAllowed,
		},
		{
			"no lines",
			core.CreateSaleInput{CustomerID: 1, PaymentType: core.PaymentCash},
			core.ErrEmptyOrder,
		},
		{
			"unknown spec",
			core.CreateSaleInput{CustomerID: 1, PaymentType: core.PaymentCash,
				Lines: []core.SaleLineInput{{SpecID: 999, BoxQty: 1}}},
			core.ErrInvalidSpec,
		},
		{
			"inactive spec",
			core.CreateSaleInput{CustomerID: 1, PaymentType: core.PaymentCash,
				Lines: []core.SaleLineInput{{SpecID: 3, BoxQty: 1}}},
			core.ErrInvalidSpec,
		},
		{
			"unknown product",
			core.CreateSaleInput{CustomerID: 1, PaymentType: core.PaymentCash,
				Lines: []core.SaleLineInput{{SpecID: 1, ProductID: intPtr(999), BoxQty: 1}}},
			core.ErrInvalidProduct,
		},
		{
			"bogus payment type",
			core.CreateSaleInput{CustomerID: 1, PaymentType: core.PaymentType("barter"), Lines: line},
			core.ErrInvalidPayment,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.input.Actor = "test"
			_, err := sales.CreateSale(ctx, tt.input)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	// Nothing may have been persisted by the failed attempts.
	var count int
	if err := pool.QueryRow(ctx, "SELECT COUNT(*) FROM sales").Scan(&count); err != nil {
		t.Fatalf("count sales: %v", err)
	}
	if count != 0 {
		t.Errorf("sales persisted after failed validation: %d", count)
	}
}

func TestSaleService_SequentialDocumentIDs(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	ctx := context.Background()
	sales := core.NewSaleService(pool, core.NewConfigService(pool))

	var ids []string
	for i := 0; i < 3; i++ {
		sale, err := sales.CreateSale(ctx, core.CreateSaleInput{
			CustomerID:  1,
			PaymentType: core.PaymentCash,
			Lines:       []core.SaleLineInput{{SpecID: 2, BoxQty: 1}},
			Actor:       "test",
		})
		if err != nil {
			t.Fatalf("CreateSale %d failed: %v", i, err)
		}
		ids = append(ids, sale.ID)
	}

	for i := 1; i < len(ids); i++ {
		if ids[i] <= ids[i-1] {
			t.Errorf("ids not strictly increasing: %v", ids)
		}
	}
	if got := ids[0][len(ids[0])-4:]; got != "-001" {
		t.Errorf("first id %s does not end with -001", ids[0])
	}
}

func TestSaleService_ConcurrentCreateSale(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	ctx := context.Background()
	sales := core.NewSaleService(pool, core.NewConfigService(pool))

	const n = 10
	var wg sync.WaitGroup
	errCh := make(chan error, n)
	idCh := make(chan string, n)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sale, err := sales.CreateSale(ctx, core.CreateSaleInput{
				CustomerID:  1,
				PaymentType: core.PaymentCash,
				Lines:       []core.SaleLineInput{{SpecID: 2, BoxQty: 1}},
				Actor:       "test",
			})
			if err != nil {
				errCh <- err
				return
			}
			idCh <- sale.ID
		}()
	}

	wg.Wait()
	close(errCh)
	close(idCh)

	for err := range errCh {
		t.Errorf("concurrent create error: %v", err)
	}

	// Same prefix and date for all, so the counter must have handed out
	// exactly -001 through -010 with no duplicate and no gap.
	suffixes := make(map[string]bool)
	for id := range idCh {
		suffixes[id[len(id)-4:]] = true
	}
	if len(suffixes) != n {
		t.Fatalf("distinct id suffixes = %d, want %d", len(suffixes), n)
	}
	for i := 1; i <= n; i++ {
		want := fmt.Sprintf("-%03d", i)
		if !suffixes[want] {
			t.Errorf("missing id suffix %s", want)
		}
	}

	var distinct int
	if err := pool.QueryRow(ctx, "SELECT COUNT(DISTINCT id) FROM sales").Scan(&distinct); err != nil {
		t.Fatalf("count sales: %v", err)
	}
	if distinct != n {
		t.Errorf("persisted distinct sales = %d, want %d", distinct, n)
	}
}

func TestSaleService_VoidSale(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	ctx := context.Background()
	sales := core.NewSaleService(pool, core.NewConfigService(pool))

	sale, err := sales.CreateSale(ctx, core.CreateSaleInput{
		CustomerID:  1,
		PaymentType: core.PaymentCash,
		Lines:       []core.SaleLineInput{{SpecID: 1, BoxQty: 2, ExtraKg: d("5")}},
		Actor:       "test",
	})
	if err != nil {
		t.Fatalf("CreateSale failed: %v", err)
	}

	// Missing reason is rejected before anything changes.
	if _, err := sales.VoidSale(ctx, sale.ID, "  ", "test"); !errors.Is(err, core.ErrMissingReason) {
		t.Fatalf("void without reason: error = %v, want ErrMissingReason", err)
	}

	voided, err := sales.VoidSale(ctx, sale.ID, "customer returned the goods", "test")
	if err != nil {
		t.Fatalf("VoidSale failed: %v", err)
	}
	if voided.Status != core.StatusVoid {
		t.Errorf("status = %s, want void", voided.Status)
	}
	if voided.VoidReason == nil || *voided.VoidReason != "customer returned the goods" {
		t.Errorf("void reason not recorded: %v", voided.VoidReason)
	}

	// The sale's stock move must be void too, restoring the ledger sum.
	var activeMoves int
	err = pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM stock_moves WHERE reference_id = $1 AND status = 'active'",
		sale.ID,
	).Scan(&activeMoves)
	if err != nil {
		t.Fatalf("count moves: %v", err)
	}
	if activeMoves != 0 {
		t.Errorf("active moves after void = %d, want 0", activeMoves)
	}

	// Voiding is terminal.
	if _, err := sales.VoidSale(ctx, sale.ID, "again", "test"); !errors.Is(err, core.ErrAlreadyVoided) {
		t.Fatalf("second void: error = %v, want ErrAlreadyVoided", err)
	}

	// Unknown sale.
	if _, err := sales.VoidSale(ctx, "SALE-19990101-001", "whatever", "test"); !errors.Is(err, core.ErrSaleNotFound) {
		t.Fatalf("void unknown sale: error = %v, want ErrSaleNotFound", err)
	}
}

func intPtr(v int) *int { return &v }
