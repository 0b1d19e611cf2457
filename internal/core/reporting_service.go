package core

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// TodaySummary is the at-a-glance dashboard for the current day.
type TodaySummary struct {
	Date              string          `json:"date"`
	OrderCount        int             `json:"order_count"`
	TotalKg           decimal.Decimal `json:"total_kg"`
	CashKg            decimal.Decimal `json:"cash_kg"`
	CreditKg          decimal.Decimal `json:"credit_kg"`
	TotalAmount       decimal.Decimal `json:"total_amount"`
	CashReceived      decimal.Decimal `json:"cash_received"`
	CreditOutstanding decimal.Decimal `json:"credit_outstanding"`
}

// DailySummary aggregates one day's active sales with FIFO cost and the
// collections attributed to that day's sales.
type DailySummary struct {
	Date              string          `json:"date"`
	OrderCount        int             `json:"order_count"`
	TotalKg           decimal.Decimal `json:"total_kg"`
	TotalAmount       decimal.Decimal `json:"total_amount"`
	CashKg            decimal.Decimal `json:"cash_kg"`
	CashAmount        decimal.Decimal `json:"cash_amount"`
	CreditKg          decimal.Decimal `json:"credit_kg"`
	CreditAmount      decimal.Decimal `json:"credit_amount"`
	TotalCost         decimal.Decimal `json:"total_cost"`
	CostShortfallKg   decimal.Decimal `json:"cost_shortfall_kg"`
	Profit            decimal.Decimal `json:"profit"`
	RemittancesAmount decimal.Decimal `json:"remittances_amount"`
	DailyCashIncome   decimal.Decimal `json:"daily_cash_income"`
}

// DailyReport is the day's sales plus the derived summary.
type DailyReport struct {
	Summary DailySummary `json:"summary"`
	Sales   []Sale       `json:"sales"`
}

// CustomerRank is one row of the customer ranking report.
type CustomerRank struct {
	CustomerID   int             `json:"customer_id"`
	CustomerName string          `json:"customer_name"`
	SaleCount    int             `json:"sale_count"`
	TotalKg      decimal.Decimal `json:"total_kg"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
}

// SpecUsage is one row of the spec usage report.
type SpecUsage struct {
	SpecID    int             `json:"spec_id"`
	SpecName  string          `json:"spec_name"`
	LineCount int             `json:"line_count"`
	BoxQty    int             `json:"box_qty"`
	TotalKg   decimal.Decimal `json:"total_kg"`
}

// ReportingService derives read-only aggregates from the transactional
// tables. Voided records are excluded everywhere.
type ReportingService interface {
	TodaySummary(ctx context.Context) (*TodaySummary, error)
	// DailyReport aggregates the given day's active sales. Remittances are
	// attributed to the day of the sale they settle, not the day the money
	// arrived, so daily cash income reflects that day's business.
	DailyReport(ctx context.Context, day time.Time) (*DailyReport, error)
	CustomerRanking(ctx context.Context, from, to time.Time, limit int) ([]CustomerRank, error)
	SpecUsage(ctx context.Context, from, to time.Time) ([]SpecUsage, error)
}

type reportingService struct {
	pool    *pgxpool.Pool
	sales   SaleService
	costing CostingService
}

func NewReportingService(pool *pgxpool.Pool, sales SaleService, costing CostingService) ReportingService {
	return &reportingService{pool: pool, sales: sales, costing: costing}
}

func dayBounds(day time.Time) (time.Time, time.Time) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	return start, start.AddDate(0, 0, 1)
}

func (s *reportingService) TodaySummary(ctx context.Context) (*TodaySummary, error) {
	start, end := dayBounds(time.Now())

	var sum TodaySummary
	sum.Date = start.Format("2006-01-02")
	err := s.pool.QueryRow(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(total_kg), 0),
		       COALESCE(SUM(total_kg) FILTER (WHERE payment_type = 'cash'), 0),
		       COALESCE(SUM(total_kg) FILTER (WHERE payment_type = 'credit'), 0),
		       COALESCE(SUM(total_amount), 0),
		       COALESCE(SUM(total_amount) FILTER (WHERE payment_type = 'cash'), 0)
		FROM sales
		WHERE status = 'active' AND sale_time >= $1 AND sale_time < $2
	`, start, end).Scan(&sum.OrderCount, &sum.TotalKg, &sum.CashKg, &sum.CreditKg, &sum.TotalAmount, &sum.CashReceived)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate today's sales: %w", err)
	}

	// Outstanding credit across all days, not just today.
	err = s.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(s.total_amount - paid.amount), 0)
		FROM sales s
		JOIN LATERAL (
			SELECT COALESCE(SUM(r.amount), 0) AS amount
			FROM remittances r WHERE r.sale_id = s.id
		) paid ON true
		WHERE s.status = 'active'
		  AND s.payment_type = 'credit'
		  AND s.payment_status IN ('unpaid', 'partial')
	`).Scan(&sum.CreditOutstanding)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate outstanding credit: %w", err)
	}
	return &sum, nil
}

func (s *reportingService) DailyReport(ctx context.Context, day time.Time) (*DailyReport, error) {
	start, end := dayBounds(day)
	sales, err := s.sales.ListSales(ctx, SaleFilter{Status: StatusActive, DateFrom: &start, DateTo: &end})
	if err != nil {
		return nil, err
	}

	// The filter's DateTo is inclusive; the report's day-end bound is not. A
	// sale stamped exactly at next-day midnight belongs to the next day's
	// report, so drop it from the listing as well as the totals.
	daySales := sales[:0]
	for i := range sales {
		if sales[i].SaleTime.Before(end) {
			daySales = append(daySales, sales[i])
		}
	}
	sales = daySales

	summary := DailySummary{Date: start.Format("2006-01-02")}
	for i := range sales {
		sale := &sales[i]
		summary.OrderCount++
		summary.TotalKg = summary.TotalKg.Add(sale.TotalKg)
		summary.TotalAmount = summary.TotalAmount.Add(sale.TotalAmount)
		switch sale.PaymentType {
		case PaymentCash:
			summary.CashKg = summary.CashKg.Add(sale.TotalKg)
			summary.CashAmount = summary.CashAmount.Add(sale.TotalAmount)
		case PaymentCredit:
			summary.CreditKg = summary.CreditKg.Add(sale.TotalKg)
			summary.CreditAmount = summary.CreditAmount.Add(sale.TotalAmount)
		}
	}

	cost, err := s.costing.DailyCost(ctx, day, summary.TotalKg)
	if err != nil {
		return nil, err
	}
	summary.TotalCost = cost.CostAmount
	summary.CostShortfallKg = cost.ShortfallKg
	summary.Profit = summary.TotalAmount.Sub(cost.CostAmount)

	// Collections against this day's credit sales, whenever they were paid.
	err = s.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(r.amount), 0)
		FROM remittances r
		JOIN sales s ON s.id = r.sale_id
		WHERE s.status = 'active' AND s.sale_time >= $1 AND s.sale_time < $2
	`, start, end).Scan(&summary.RemittancesAmount)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate remittances: %w", err)
	}
	summary.DailyCashIncome = summary.CashAmount.Add(summary.RemittancesAmount)

	return &DailyReport{Summary: summary, Sales: sales}, nil
}

func (s *reportingService) CustomerRanking(ctx context.Context, from, to time.Time, limit int) ([]CustomerRank, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.pool.Query(ctx, `
		SELECT s.customer_id, c.name, COUNT(*),
		       COALESCE(SUM(s.total_kg), 0), COALESCE(SUM(s.total_amount), 0)
		FROM sales s
		JOIN customers c ON c.id = s.customer_id
		WHERE s.status = 'active' AND s.sale_time >= $1 AND s.sale_time < $2
		GROUP BY s.customer_id, c.name
		ORDER BY SUM(s.total_amount) DESC
		LIMIT $3
	`, from, to, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query customer ranking: %w", err)
	}
	defer rows.Close()

	var ranks []CustomerRank
	for rows.Next() {
		var r CustomerRank
		if err := rows.Scan(&r.CustomerID, &r.CustomerName, &r.SaleCount, &r.TotalKg, &r.TotalAmount); err != nil {
			return nil, fmt.Errorf("failed to scan customer rank: %w", err)
		}
		ranks = append(ranks, r)
	}
	return ranks, rows.Err()
}

func (s *reportingService) SpecUsage(ctx context.Context, from, to time.Time) ([]SpecUsage, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT si.spec_id, sp.name, COUNT(*),
		       COALESCE(SUM(si.box_qty), 0), COALESCE(SUM(si.subtotal_kg), 0)
		FROM sale_items si
		JOIN sales s ON s.id = si.sale_id
		JOIN specs sp ON sp.id = si.spec_id
		WHERE s.status = 'active' AND s.sale_time >= $1 AND s.sale_time < $2
		GROUP BY si.spec_id, sp.name
		ORDER BY SUM(si.subtotal_kg) DESC
	`, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query spec usage: %w", err)
	}
	defer rows.Close()

	var usage []SpecUsage
	for rows.Next() {
		var u SpecUsage
		if err := rows.Scan(&u.SpecID, &u.SpecName, &u.LineCount, &u.BoxQty, &u.TotalKg); err != nil {
			return nil, fmt.Errorf("failed to scan spec usage: %w", err)
		}
		usage = append(usage, u)
	}
	return usage, rows.Err()
}
