package core_test

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"sales-ledger/internal/core"
)

func TestCostingService_DailyCost(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	ctx := context.Background()
	purchases := core.NewPurchaseService(pool)
	costing := core.NewCostingService(pool, zap.NewNop())

	earlier := time.Now().Add(-48 * time.Hour)
	later := time.Now().Add(-24 * time.Hour)
	if _, err := purchases.CreatePurchase(ctx, core.CreatePurchaseInput{
		Supplier:     "Finca El Rosal",
		Lines:        []core.PurchaseLineInput{{ProductName: "Tomato", Kg: d("100"), UnitPrice: d("1")}},
		PurchaseTime: &earlier,
		Actor:        "test",
	}); err != nil {
		t.Fatalf("CreatePurchase failed: %v", err)
	}
	if _, err := purchases.CreatePurchase(ctx, core.CreatePurchaseInput{
		Supplier:     "Finca El Rosal",
		Lines:        []core.PurchaseLineInput{{ProductName: "Tomato", Kg: d("100"), UnitPrice: d("2")}},
		PurchaseTime: &later,
		Actor:        "test",
	}); err != nil {
		t.Fatalf("CreatePurchase failed: %v", err)
	}

	// 150 kg sold: 100 kg from the older lot at 1, 50 kg from the newer at 2.
	result, err := costing.DailyCost(ctx, time.Now(), d("150"))
	if err != nil {
		t.Fatalf("DailyCost failed: %v", err)
	}
	if !result.CostAmount.Equal(d("200")) {
		t.Errorf("cost = %s, want 200", result.CostAmount)
	}
	if !result.ShortfallKg.IsZero() {
		t.Errorf("shortfall = %s, want 0", result.ShortfallKg)
	}

	// Demand beyond recorded purchases reports a shortfall, not an error.
	result, err = costing.DailyCost(ctx, time.Now(), d("250"))
	if err != nil {
		t.Fatalf("DailyCost failed: %v", err)
	}
	if !result.CostAmount.Equal(d("300")) {
		t.Errorf("cost = %s, want 300 (full supply)", result.CostAmount)
	}
	if !result.ShortfallKg.Equal(d("50")) {
		t.Errorf("shortfall = %s, want 50", result.ShortfallKg)
	}
}

func TestReportingService_DailyReport(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	ctx := context.Background()
	config := core.NewConfigService(pool)
	sales := core.NewSaleService(pool, config)
	purchases := core.NewPurchaseService(pool)
	remittances := core.NewRemittanceService(pool)
	costing := core.NewCostingService(pool, zap.NewNop())
	reporting := core.NewReportingService(pool, sales, costing)

	yesterday := time.Now().Add(-24 * time.Hour)
	if _, err := purchases.CreatePurchase(ctx, core.CreatePurchaseInput{
		Supplier:     "Finca El Rosal",
		Lines:        []core.PurchaseLineInput{{ProductName: "Tomato", Kg: d("500"), UnitPrice: d("1.5")}},
		PurchaseTime: &yesterday,
		Actor:        "test",
	}); err != nil {
		t.Fatalf("CreatePurchase failed: %v", err)
	}

	// One cash sale (40 kg × 3.0 = 120) and one credit sale (10 kg × 3.2 = 32).
	if _, err := sales.CreateSale(ctx, core.CreateSaleInput{
		CustomerID:  2,
		PaymentType: core.PaymentCash,
		Lines:       []core.SaleLineInput{{SpecID: 1, BoxQty: 1}},
		Actor:       "test",
	}); err != nil {
		t.Fatalf("cash sale failed: %v", err)
	}
	credit, err := sales.CreateSale(ctx, core.CreateSaleInput{
		CustomerID:  1,
		PaymentType: core.PaymentCredit,
		Lines:       []core.SaleLineInput{{SpecID: 2, BoxQty: 1}},
		Actor:       "test",
	})
	if err != nil {
		t.Fatalf("credit sale failed: %v", err)
	}
	if _, err := remittances.CreateRemittance(ctx, credit.ID, d("10"), nil, nil, "test"); err != nil {
		t.Fatalf("remittance failed: %v", err)
	}

	// A voided sale must not count.
	voided, err := sales.CreateSale(ctx, core.CreateSaleInput{
		CustomerID:  1,
		PaymentType: core.PaymentCash,
		Lines:       []core.SaleLineInput{{SpecID: 1, BoxQty: 5}},
		Actor:       "test",
	})
	if err != nil {
		t.Fatalf("sale failed: %v", err)
	}
	if _, err := sales.VoidSale(ctx, voided.ID, "entry error", "test"); err != nil {
		t.Fatalf("VoidSale failed: %v", err)
	}

	// A sale stamped exactly at next-day midnight belongs to tomorrow's
	// report: it must appear in neither the listing nor the totals.
	now := time.Now()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).AddDate(0, 0, 1)
	if _, err := sales.CreateSale(ctx, core.CreateSaleInput{
		CustomerID:  1,
		PaymentType: core.PaymentCash,
		Lines:       []core.SaleLineInput{{SpecID: 1, BoxQty: 2}},
		SaleTime:    &midnight,
		Actor:       "test",
	}); err != nil {
		t.Fatalf("midnight sale failed: %v", err)
	}

	report, err := reporting.DailyReport(ctx, time.Now())
	if err != nil {
		t.Fatalf("DailyReport failed: %v", err)
	}
	sum := report.Summary

	if sum.OrderCount != 2 {
		t.Errorf("order count = %d, want 2", sum.OrderCount)
	}
	if !sum.TotalKg.Equal(d("50")) {
		t.Errorf("total kg = %s, want 50", sum.TotalKg)
	}
	if !sum.TotalAmount.Equal(d("152")) {
		t.Errorf("total amount = %s, want 152", sum.TotalAmount)
	}
	if !sum.CashAmount.Equal(d("120")) {
		t.Errorf("cash amount = %s, want 120", sum.CashAmount)
	}
	if !sum.CreditAmount.Equal(d("32")) {
		t.Errorf("credit amount = %s, want 32", sum.CreditAmount)
	}
	// 50 kg out of the 500 kg lot at 1.5.
	if !sum.TotalCost.Equal(d("75")) {
		t.Errorf("total cost = %s, want 75", sum.TotalCost)
	}
	if !sum.Profit.Equal(d("77")) {
		t.Errorf("profit = %s, want 77", sum.Profit)
	}
	// The remittance counts toward today because it settles today's sale.
	if !sum.RemittancesAmount.Equal(d("10")) {
		t.Errorf("remittances = %s, want 10", sum.RemittancesAmount)
	}
	if !sum.DailyCashIncome.Equal(d("130")) {
		t.Errorf("daily cash income = %s, want 130", sum.DailyCashIncome)
	}
	if len(report.Sales) != 2 {
		t.Errorf("report sales = %d, want 2", len(report.Sales))
	}

	today, err := reporting.TodaySummary(ctx)
	if err != nil {
		t.Fatalf("TodaySummary failed: %v", err)
	}
	if today.OrderCount != 2 {
		t.Errorf("today order count = %d, want 2", today.OrderCount)
	}
	if !today.CreditOutstanding.Equal(d("22")) {
		t.Errorf("credit outstanding = %s, want 22", today.CreditOutstanding)
	}
}

func TestReportingService_RankingAndSpecUsage(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	ctx := context.Background()
	config := core.NewConfigService(pool)
	sales := core.NewSaleService(pool, config)
	costing := core.NewCostingService(pool, zap.NewNop())
	reporting := core.NewReportingService(pool, sales, costing)

	for i := 0; i < 2; i++ {
		if _, err := sales.CreateSale(ctx, core.CreateSaleInput{
			CustomerID:  1,
			PaymentType: core.PaymentCash,
			Lines:       []core.SaleLineInput{{SpecID: 1, BoxQty: 1}},
			Actor:       "test",
		}); err != nil {
			t.Fatalf("sale failed: %v", err)
		}
	}
	if _, err := sales.CreateSale(ctx, core.CreateSaleInput{
		CustomerID:  2,
		PaymentType: core.PaymentCash,
		Lines:       []core.SaleLineInput{{SpecID: 2, BoxQty: 3}},
		Actor:       "test",
	}); err != nil {
		t.Fatalf("sale failed: %v", err)
	}

	from := time.Now().Add(-time.Hour)
	to := time.Now().Add(time.Hour)

	ranks, err := reporting.CustomerRanking(ctx, from, to, 10)
	if err != nil {
		t.Fatalf("CustomerRanking failed: %v", err)
	}
	if len(ranks) != 2 {
		t.Fatalf("ranks = %d, want 2", len(ranks))
	}
	if ranks[0].CustomerName != "Mercado Central" || ranks[0].SaleCount != 2 {
		t.Errorf("top customer = %s (%d sales), want Mercado Central (2)", ranks[0].CustomerName, ranks[0].SaleCount)
	}
	if !ranks[0].TotalKg.Equal(d("80")) {
		t.Errorf("top customer kg = %s, want 80", ranks[0].TotalKg)
	}

	usage, err := reporting.SpecUsage(ctx, from, to)
	if err != nil {
		t.Fatalf("SpecUsage failed: %v", err)
	}
	if len(usage) != 2 {
		t.Fatalf("spec usage rows = %d, want 2", len(usage))
	}
	// Ordered by total kg sold: 80 kg of large crates before 30 kg of small boxes.
	if usage[0].SpecID != 1 || !usage[0].TotalKg.Equal(d("80")) {
		t.Errorf("top spec = %d/%s, want 1/80", usage[0].SpecID, usage[0].TotalKg)
	}
	if usage[1].BoxQty != 3 {
		t.Errorf("small box qty = %d, want 3", usage[1].BoxQty)
	}
}
