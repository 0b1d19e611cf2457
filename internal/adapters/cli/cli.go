package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"sales-ledger/internal/app"
	"sales-ledger/internal/core"

	"github.com/shopspring/decimal"
)

// Run executes a one-shot CLI command and exits. actor is the operator name
// writes are attributed to; args is os.Args[1:] — the first element is the
// subcommand name.
func Run(ctx context.Context, svc app.ApplicationService, actor string, args []string) {
	if len(args) == 0 {
		usage()
	}

	switch args[0] {
	case "stock", "s":
		result, err := svc.CurrentStock(ctx)
		if err != nil {
			log.Fatalf("Failed to get stock: %v", err)
		}
		printStock(result.Snapshot)

	case "moves", "m":
		result, err := svc.ListMoves(ctx, core.MoveFilter{Limit: 50})
		if err != nil {
			log.Fatalf("Failed to list moves: %v", err)
		}
		printMoves(result.Moves)

	case "today", "t":
		summary, err := svc.TodaySummary(ctx)
		if err != nil {
			log.Fatalf("Failed to get today's summary: %v", err)
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		enc.Encode(summary)

	case "daily", "d":
		if len(args) < 2 {
			log.Fatal("Usage: app daily <YYYY-MM-DD>")
		}
		day, err := time.ParseInLocation("2006-01-02", args[1], time.Local)
		if err != nil {
			log.Fatalf("Invalid date %q: %v", args[1], err)
		}
		report, err := svc.DailyReport(ctx, day)
		if err != nil {
			log.Fatalf("Failed to build daily report: %v", err)
		}
		printDailyReport(report)

	case "credit", "cr":
		balances, err := svc.ListCreditSales(ctx)
		if err != nil {
			log.Fatalf("Failed to list credit sales: %v", err)
		}
		printCreditSales(balances)

	case "summary":
		if len(args) < 2 {
			log.Fatal("Usage: app summary <sale-id>")
		}
		summary, err := svc.RemittanceSummary(ctx, args[1])
		if err != nil {
			log.Fatalf("Failed to get remittance summary: %v", err)
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		enc.Encode(summary)

	case "reconcile":
		if len(args) < 2 {
			log.Fatal("Usage: app reconcile <actual-kg>")
		}
		actualKg, err := decimal.NewFromString(args[1])
		if err != nil {
			log.Fatalf("Invalid kg %q: %v", args[1], err)
		}
		result, err := svc.Reconcile(ctx, app.ReconcileRequest{
			ActualKg: actualKg,
			Actor:    actor,
		})
		if err != nil {
			log.Fatalf("Reconcile failed: %v", err)
		}
		check := result.Check
		fmt.Printf("Inventory check #%d: actual %s kg, theoretical %s kg, difference %s kg\n",
			check.ID, check.ActualKg.StringFixed(1), check.TheoreticalKg.StringFixed(1), check.DifferenceKg.StringFixed(1))

	case "intake", "i":
		if len(args) < 2 {
			log.Fatal("Usage: app intake \"<order description>\"")
		}
		result, err := svc.InterpretOrder(ctx, args[1])
		if err != nil {
			log.Fatalf("Agent error: %v", err)
		}
		if result.IsClarification {
			fmt.Fprintln(os.Stderr, "AI needs clarification:", result.ClarificationMessage)
			os.Exit(1)
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		enc.Encode(result.Draft)

	default:
		usage()
	}
}

func usage() {
	log.Fatal("Available commands: stock, moves, today, daily <date>, credit, summary <sale-id>, reconcile <kg>, intake \"<text>\"")
}

func printStock(snap *core.StockSnapshot) {
	fmt.Println()
	fmt.Println(strings.Repeat("=", 50))
	fmt.Printf("  CURRENT STOCK : %s kg\n", snap.StockKg.StringFixed(1))
	if snap.LastMoveTime != nil {
		fmt.Printf("  Last move     : %s\n", snap.LastMoveTime.Format("2006-01-02 15:04"))
	}
	if snap.LowStockWarning {
		fmt.Printf("  WARNING       : below threshold of %s kg\n", snap.ThresholdKg.StringFixed(1))
	}
	fmt.Println(strings.Repeat("=", 50))
}

func printMoves(moves []core.StockMove) {
	fmt.Println()
	fmt.Printf("  %-6s %-15s %-20s %12s  %s\n", "ID", "TYPE", "SOURCE", "KG", "TIME")
	fmt.Println(strings.Repeat("-", 76))
	for _, m := range moves {
		fmt.Printf("  %-6d %-15s %-20s %12s  %s\n",
			m.ID, m.MoveType, m.Source, m.Kg.StringFixed(1), m.MoveTime.Format("2006-01-02 15:04"))
	}
}

func printDailyReport(report *core.DailyReport) {
	s := report.Summary
	fmt.Println()
	fmt.Println(strings.Repeat("=", 62))
	fmt.Printf("  DAILY REPORT %s\n", s.Date)
	fmt.Println(strings.Repeat("=", 62))
	fmt.Printf("  Orders            : %d\n", s.OrderCount)
	fmt.Printf("  Total weight      : %s kg (cash %s, credit %s)\n",
		s.TotalKg.StringFixed(1), s.CashKg.StringFixed(1), s.CreditKg.StringFixed(1))
	fmt.Printf("  Revenue           : %s (cash %s, credit %s)\n",
		s.TotalAmount.StringFixed(2), s.CashAmount.StringFixed(2), s.CreditAmount.StringFixed(2))
	fmt.Printf("  Cost (FIFO)       : %s\n", s.TotalCost.StringFixed(2))
	if s.CostShortfallKg.IsPositive() {
		fmt.Printf("  Cost shortfall    : %s kg not covered by purchases\n", s.CostShortfallKg.StringFixed(1))
	}
	fmt.Printf("  Profit            : %s\n", s.Profit.StringFixed(2))
	fmt.Printf("  Remittances       : %s\n", s.RemittancesAmount.StringFixed(2))
	fmt.Printf("  Daily cash income : %s\n", s.DailyCashIncome.StringFixed(2))
	fmt.Println(strings.Repeat("=", 62))
	for _, sale := range report.Sales {
		fmt.Printf("  %-18s %-20s %-7s %10s kg %12s\n",
			sale.ID, sale.CustomerName, sale.PaymentType, sale.TotalKg.StringFixed(1), sale.TotalAmount.StringFixed(2))
	}
}

func printCreditSales(balances []core.CreditSaleBalance) {
	fmt.Println()
	fmt.Printf("  %-18s %-20s %12s %12s %12s  %s\n", "SALE", "CUSTOMER", "TOTAL", "PAID", "UNPAID", "STATUS")
	fmt.Println(strings.Repeat("-", 88))
	for _, b := range balances {
		fmt.Printf("  %-18s %-20s %12s %12s %12s  %s\n",
			b.SaleID, b.CustomerName, b.TotalAmount.StringFixed(2), b.PaidAmount.StringFixed(2),
			b.UnpaidAmount.StringFixed(2), b.PaymentStatus)
	}
}
