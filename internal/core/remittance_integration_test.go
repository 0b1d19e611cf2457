package core_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"sales-ledger/internal/core"
)

// creditSale creates an active credit sale of 1 small box (10 kg at the
// global credit price 3.2 = 32) for customer 1.
func creditSale(t *testing.T, sales core.SaleService) *core.Sale {
	t.Helper()
	sale, err := sales.CreateSale(context.Background(), core.CreateSaleInput{
		CustomerID:  1,
		PaymentType: core.PaymentCredit,
		Lines:       []core.SaleLineInput{{SpecID: 2, BoxQty: 1}},
		Actor:       "test",
	})
	if err != nil {
		t.Fatalf("CreateSale failed: %v", err)
	}
	return sale
}

func TestRemittanceService_PartialThenFullPayment(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	ctx := context.Background()
	sales := core.NewSaleService(pool, core.NewConfigService(pool))
	remittances := core.NewRemittanceService(pool)

	sale := creditSale(t, sales) // total 32, unpaid

	rem, err := remittances.CreateRemittance(ctx, sale.ID, d("12"), nil, nil, "test")
	if err != nil {
		t.Fatalf("first remittance failed: %v", err)
	}
	if !rem.Amount.Equal(d("12")) {
		t.Errorf("remittance amount = %s, want 12", rem.Amount)
	}

	sum, err := remittances.Summary(ctx, sale.ID)
	if err != nil {
		t.Fatalf("Summary failed: %v", err)
	}
	if sum.PaymentStatus != core.PaymentPartial {
		t.Errorf("status after partial payment = %s, want partial", sum.PaymentStatus)
	}
	if !sum.UnpaidAmount.Equal(d("20")) {
		t.Errorf("unpaid = %s, want 20", sum.UnpaidAmount)
	}

	// Paying the exact remainder settles the sale.
	if _, err := remittances.CreateRemittance(ctx, sale.ID, d("20"), nil, nil, "test"); err != nil {
		t.Fatalf("final remittance failed: %v", err)
	}
	sum, err = remittances.Summary(ctx, sale.ID)
	if err != nil {
		t.Fatalf("Summary failed: %v", err)
	}
	if sum.PaymentStatus != core.PaymentPaid {
		t.Errorf("status after full payment = %s, want paid", sum.PaymentStatus)
	}
	if !sum.UnpaidAmount.IsZero() {
		t.Errorf("unpaid = %s, want 0", sum.UnpaidAmount)
	}
	if sum.RemittanceCount != 2 {
		t.Errorf("remittance count = %d, want 2", sum.RemittanceCount)
	}

	// A settled sale accepts no further payments.
	if _, err := remittances.CreateRemittance(ctx, sale.ID, d("1"), nil, nil, "test"); !errors.Is(err, core.ErrAlreadyPaid) {
		t.Fatalf("payment after settle: error = %v, want ErrAlreadyPaid", err)
	}

	history, err := remittances.History(ctx, sale.ID)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("history length = %d, want 2", len(history))
	}
	if !history[0].Amount.Equal(d("12")) || !history[1].Amount.Equal(d("20")) {
		t.Errorf("history amounts = %s, %s", history[0].Amount, history[1].Amount)
	}
}

func TestRemittanceService_Rejections(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	ctx := context.Background()
	sales := core.NewSaleService(pool, core.NewConfigService(pool))
	remittances := core.NewRemittanceService(pool)

	credit := creditSale(t, sales)

	cash, err := sales.CreateSale(ctx, core.CreateSaleInput{
		CustomerID:  1,
		PaymentType: core.PaymentCash,
		Lines:       []core.SaleLineInput{{SpecID: 2, BoxQty: 1}},
		Actor:       "test",
	})
	if err != nil {
		t.Fatalf("cash sale failed: %v", err)
	}

	voidedCredit := creditSale(t, sales)
	if _, err := sales.VoidSale(ctx, voidedCredit.ID, "typo", "test"); err != nil {
		t.Fatalf("VoidSale failed: %v", err)
	}

	tests := []struct {
		name    string
		saleID  string
		amount  string
		wantErr error
	}{
		{"unknown sale", "SALE-19990101-001", "10", core.ErrSaleNotFound},
		{"voided sale", voidedCredit.ID, "10", core.ErrSaleNotActive},
		{"cash sale", cash.ID, "10", core.ErrNotCreditSale},
		{"zero amount", credit.ID, "0", core.ErrInvalidAmount},
		{"negative amount", credit.ID, "-5", core.ErrInvalidAmount},
		{"overpayment", credit.ID, "32.01", core.ErrOverpayment},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := remittances.CreateRemittance(ctx, tt.saleID, d(tt.amount), nil, nil, "test")
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	// Overpayment accounts for money already collected, not just the total.
	if _, err := remittances.CreateRemittance(ctx, credit.ID, d("30"), nil, nil, "test"); err != nil {
		t.Fatalf("partial payment failed: %v", err)
	}
	if _, err := remittances.CreateRemittance(ctx, credit.ID, d("3"), nil, nil, "test"); !errors.Is(err, core.ErrOverpayment) {
		t.Fatalf("over remaining balance: error = %v, want ErrOverpayment", err)
	}
}

func TestRemittanceService_ConcurrentPaymentsNeverOverpay(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	ctx := context.Background()
	sales := core.NewSaleService(pool, core.NewConfigService(pool))
	remittances := core.NewRemittanceService(pool)

	sale := creditSale(t, sales) // total 32

	// Ten operators each try to collect 5 at once. The sale-row lock
	// serializes them: exactly six fit under the 32 total, the other four
	// must see the updated balance and be rejected.
	const n = 10
	var wg sync.WaitGroup
	errCh := make(chan error, n)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := remittances.CreateRemittance(ctx, sale.ID, d("5"), nil, nil, "test"); err != nil {
				errCh <- err
			}
		}()
	}

	wg.Wait()
	close(errCh)

	var rejected int
	for err := range errCh {
		if !errors.Is(err, core.ErrOverpayment) {
			t.Errorf("unexpected concurrent payment error: %v", err)
		}
		rejected++
	}
	if rejected != 4 {
		t.Errorf("rejected payments = %d, want 4", rejected)
	}

	var paid string
	if err := pool.QueryRow(ctx,
		"SELECT COALESCE(SUM(amount), 0)::text FROM remittances WHERE sale_id = $1", sale.ID,
	).Scan(&paid); err != nil {
		t.Fatalf("sum remittances: %v", err)
	}
	if !d(paid).Equal(d("30")) {
		t.Errorf("collected = %s, want 30", paid)
	}
	if d(paid).GreaterThan(d("32")) {
		t.Errorf("collected %s exceeds sale total 32", paid)
	}

	sum, err := remittances.Summary(ctx, sale.ID)
	if err != nil {
		t.Fatalf("Summary failed: %v", err)
	}
	if sum.PaymentStatus != core.PaymentPartial {
		t.Errorf("status = %s, want partial at 30 of 32", sum.PaymentStatus)
	}
}

func TestRemittanceService_ListCreditSales(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	ctx := context.Background()
	sales := core.NewSaleService(pool, core.NewConfigService(pool))
	remittances := core.NewRemittanceService(pool)

	first := creditSale(t, sales)
	second := creditSale(t, sales)

	// Settle the second; only the first should remain outstanding.
	if _, err := remittances.CreateRemittance(ctx, second.ID, d("32"), nil, nil, "test"); err != nil {
		t.Fatalf("settling remittance failed: %v", err)
	}
	// Partial payment keeps the first on the list with its balance.
	if _, err := remittances.CreateRemittance(ctx, first.ID, d("10"), nil, nil, "test"); err != nil {
		t.Fatalf("partial remittance failed: %v", err)
	}

	open, err := remittances.ListCreditSales(ctx)
	if err != nil {
		t.Fatalf("ListCreditSales failed: %v", err)
	}
	if len(open) != 1 {
		t.Fatalf("open credit sales = %d, want 1", len(open))
	}
	if open[0].SaleID != first.ID {
		t.Errorf("open sale = %s, want %s", open[0].SaleID, first.ID)
	}
	if open[0].CustomerName != "Mercado Central" {
		t.Errorf("customer name = %s", open[0].CustomerName)
	}
	if !open[0].UnpaidAmount.Equal(d("22")) {
		t.Errorf("unpaid = %s, want 22", open[0].UnpaidAmount)
	}
	if open[0].PaymentStatus != core.PaymentPartial {
		t.Errorf("status = %s, want partial", open[0].PaymentStatus)
	}
}
