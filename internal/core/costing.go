package core

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CostBatch is one purchased lot available for cost allocation.
type CostBatch struct {
	Kg        decimal.Decimal
	UnitPrice decimal.Decimal
}

// AllocateFIFO walks batches oldest-first, consuming weight until demandKg is
// covered, and returns the accumulated cost. When the batches run out before
// the demand does, the uncovered remainder comes back as shortfallKg and the
// cost covers only the allocated portion. Deterministic for a given input
// order; the caller is responsible for sorting batches oldest-first.
func AllocateFIFO(batches []CostBatch, demandKg decimal.Decimal) (cost, shortfallKg decimal.Decimal) {
	remaining := demandKg
	for _, b := range batches {
		if !remaining.IsPositive() {
			break
		}
		take := b.Kg
		if take.GreaterThan(remaining) {
			take = remaining
		}
		cost = cost.Add(take.Mul(b.UnitPrice))
		remaining = remaining.Sub(take)
	}
	if remaining.IsPositive() {
		shortfallKg = remaining
	}
	return cost, shortfallKg
}

// DailyCostResult is the FIFO cost of one day's sold weight. A non-zero
// ShortfallKg means purchase history could not cover the demand; the cost is
// then a lower bound, reported as a warning rather than an error.
type DailyCostResult struct {
	CostAmount  decimal.Decimal `json:"cost_amount"`
	ShortfallKg decimal.Decimal `json:"shortfall_kg"`
}

// CostingService estimates cost of goods sold from purchase history.
type CostingService interface {
	// DailyCost allocates the day's sold weight against active purchase
	// lines recorded up to the end of that day, oldest first.
	DailyCost(ctx context.Context, day time.Time, totalKgSold decimal.Decimal) (*DailyCostResult, error)
}

type costingService struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func NewCostingService(pool *pgxpool.Pool, logger *zap.Logger) CostingService {
	return &costingService{pool: pool, logger: logger}
}

func (s *costingService) DailyCost(ctx context.Context, day time.Time, totalKgSold decimal.Decimal) (*DailyCostResult, error) {
	if !totalKgSold.IsPositive() {
		return &DailyCostResult{}, nil
	}

	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	dayEnd := dayStart.AddDate(0, 0, 1)

	rows, err := s.pool.Query(ctx, `
		SELECT pi.kg, pi.unit_price
		FROM purchase_items pi
		JOIN purchases p ON p.id = pi.purchase_id
		WHERE p.status = 'active' AND p.purchase_time < $1
		ORDER BY p.purchase_time ASC, pi.id ASC
	`, dayEnd)
	if err != nil {
		return nil, fmt.Errorf("failed to query purchase batches: %w", err)
	}
	defer rows.Close()

	var batches []CostBatch
	for rows.Next() {
		var b CostBatch
		if err := rows.Scan(&b.Kg, &b.UnitPrice); err != nil {
			return nil, fmt.Errorf("failed to scan purchase batch: %w", err)
		}
		batches = append(batches, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	cost, shortfall := AllocateFIFO(batches, totalKgSold)
	if shortfall.IsPositive() {
		s.logger.Warn("purchase history does not cover sold weight, cost is a lower bound",
			zap.String("day", dayStart.Format("2006-01-02")),
			zap.String("demand_kg", totalKgSold.String()),
			zap.String("shortfall_kg", shortfall.String()),
		)
	}
	return &DailyCostResult{CostAmount: cost, ShortfallKg: shortfall}, nil
}
