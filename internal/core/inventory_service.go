package core

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// NormalizeMoveKg applies the sign policy for a stock move: inbound types
// (purchase-in, count-surplus) force a positive kg, outbound types (transfer,
// return, count-shortage, sale) force a negative kg, regardless of the sign
// the caller passed. Returns ErrInvalidMoveType for unknown types.
func NormalizeMoveKg(moveType MoveType, kg decimal.Decimal) (decimal.Decimal, error) {
	switch moveType {
	case MovePurchaseIn, MoveCountSurplus:
		return kg.Abs(), nil
	case MoveTransfer, MoveReturn, MoveCountShortage, MoveSale:
		return kg.Abs().Neg(), nil
	default:
		return decimal.Zero, fmt.Errorf("%w: %s", ErrInvalidMoveType, moveType)
	}
}

// StockSnapshot is the result of a current-stock query.
type StockSnapshot struct {
	StockKg         decimal.Decimal `json:"stock_kg"`
	LastMoveTime    *time.Time      `json:"last_move_time,omitempty"`
	LowStockWarning bool            `json:"low_stock_warning"`
	ThresholdKg     decimal.Decimal `json:"threshold_kg"`
}

// ProductStock is a per-product balance derived from purchase and sale lines.
// Negative StockKg signals oversold inventory — a reporting signal, not an
// error.
type ProductStock struct {
	ProductName string          `json:"product_name"`
	PurchasedKg decimal.Decimal `json:"purchased_kg"`
	SoldKg      decimal.Decimal `json:"sold_kg"`
	StockKg     decimal.Decimal `json:"stock_kg"`
}

// StockHistoryPoint is one day's net change and the cumulative balance.
type StockHistoryPoint struct {
	Date         string          `json:"date"`
	DailyChange  decimal.Decimal `json:"daily_change_kg"`
	CumulativeKg decimal.Decimal `json:"cumulative_kg"`
}

// MoveTypeTotal aggregates active moves by type.
type MoveTypeTotal struct {
	MoveType MoveType        `json:"move_type"`
	Count    int             `json:"count"`
	TotalKg  decimal.Decimal `json:"total_kg"`
}

// MoveFilter narrows ListMoves. Zero values mean "no filter".
type MoveFilter struct {
	MoveType MoveType
	DateFrom *time.Time
	DateTo   *time.Time
	Status   RecordStatus
	Limit    int
}

// InventoryService maintains the append-only stock-movement ledger and
// derives current and aggregate stock from it.
type InventoryService interface {
	// RecordMove appends a manually entered stock move. The kg sign is
	// normalized per NormalizeMoveKg. Type "sale" is reserved for the sale
	// engine's side effect and rejected here.
	RecordMove(ctx context.Context, moveType MoveType, source string, kg decimal.Decimal, notes *string, actor string) (*StockMove, error)

	// CurrentStock sums kg over active moves. LowStockWarning is set when the
	// balance is below the configured threshold.
	CurrentStock(ctx context.Context) (*StockSnapshot, error)

	// StockByProduct derives per-product stock: active PurchaseItem.kg minus
	// active SaleItem.subtotal_kg joined through the product catalog.
	StockByProduct(ctx context.Context) ([]ProductStock, error)

	// Reconcile records a physical count and, when the difference is nonzero,
	// appends a compensating count-surplus/count-shortage move atomically with
	// the check. A concurrent sale landing after the theoretical snapshot is
	// an accepted staleness window of the count, not a consistency violation.
	Reconcile(ctx context.Context, actualKg decimal.Decimal, notes *string, actor string) (*InventoryCheck, error)

	ListMoves(ctx context.Context, filter MoveFilter) ([]StockMove, error)
	StockHistory(ctx context.Context, days int) ([]StockHistoryPoint, error)
	StockByType(ctx context.Context) ([]MoveTypeTotal, error)
}

type inventoryService struct {
	pool   *pgxpool.Pool
	config ConfigService
	logger *zap.Logger
}

func NewInventoryService(pool *pgxpool.Pool, config ConfigService, logger *zap.Logger) InventoryService {
	return &inventoryService{pool: pool, config: config, logger: logger}
}

func (s *inventoryService) RecordMove(ctx context.Context, moveType MoveType, source string, kg decimal.Decimal, notes *string, actor string) (*StockMove, error) {
	if moveType == MoveSale {
		return nil, fmt.Errorf("%w: sale moves are created by the sale engine", ErrInvalidMoveType)
	}
	normalized, err := NormalizeMoveKg(moveType, kg)
	if err != nil {
		return nil, err
	}

	move := StockMove{
		MoveType:  moveType,
		Source:    source,
		Kg:        normalized,
		MoveTime:  time.Now(),
		Notes:     notes,
		CreatedBy: actor,
	}
	if err := insertMove(ctx, s.pool, &move); err != nil {
		return nil, err
	}
	return &move, nil
}

// insertMove appends a stock move row via pool or tx and fills in the
// generated fields.
func insertMove(ctx context.Context, q pgxQuerier, m *StockMove) error {
	err := q.QueryRow(ctx, `
		INSERT INTO stock_moves (move_type, source, kg, move_time, reference_id, reference_type, notes, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, status, created_at
	`, string(m.MoveType), m.Source, m.Kg, m.MoveTime, m.ReferenceID, m.ReferenceType, m.Notes, m.CreatedBy).
		Scan(&m.ID, &m.Status, &m.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert stock move: %w", err)
	}
	return nil
}

func (s *inventoryService) CurrentStock(ctx context.Context) (*StockSnapshot, error) {
	var snap StockSnapshot
	err := s.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(kg), 0), MAX(move_time)
		FROM stock_moves
		WHERE status = 'active'
	`).Scan(&snap.StockKg, &snap.LastMoveTime)
	if err != nil {
		return nil, fmt.Errorf("failed to query current stock: %w", err)
	}

	threshold, err := s.config.LowStockThreshold(ctx)
	if err != nil {
		return nil, err
	}
	snap.ThresholdKg = threshold
	snap.LowStockWarning = snap.StockKg.LessThan(threshold)
	if snap.LowStockWarning && s.logger != nil {
		s.logger.Warn("stock below threshold",
			zap.String("stock_kg", snap.StockKg.String()),
			zap.String("threshold_kg", threshold.String()))
	}
	return &snap, nil
}

func (s *inventoryService) StockByProduct(ctx context.Context) ([]ProductStock, error) {
	rows, err := s.pool.Query(ctx, `
		WITH purchased AS (
			SELECT pi.product_name, SUM(pi.kg) AS kg
			FROM purchase_items pi
			JOIN purchases p ON p.id = pi.purchase_id
			WHERE p.status = 'active'
			GROUP BY pi.product_name
		), sold AS (
			SELECT pr.name AS product_name, SUM(si.subtotal_kg) AS kg
			FROM sale_items si
			JOIN sales s     ON s.id  = si.sale_id
			JOIN products pr ON pr.id = si.product_id
			WHERE s.status = 'active' AND si.product_id IS NOT NULL
			GROUP BY pr.name
		)
		SELECT COALESCE(p.product_name, s.product_name),
		       COALESCE(p.kg, 0),
		       COALESCE(s.kg, 0)
		FROM purchased p
		FULL OUTER JOIN sold s ON s.product_name = p.product_name
		ORDER BY 1
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query stock by product: %w", err)
	}
	defer rows.Close()

	var result []ProductStock
	for rows.Next() {
		var ps ProductStock
		if err := rows.Scan(&ps.ProductName, &ps.PurchasedKg, &ps.SoldKg); err != nil {
			return nil, fmt.Errorf("failed to scan product stock: %w", err)
		}
		ps.StockKg = ps.PurchasedKg.Sub(ps.SoldKg)
		result = append(result, ps)
	}
	return result, rows.Err()
}

func (s *inventoryService) Reconcile(ctx context.Context, actualKg decimal.Decimal, notes *string, actor string) (*InventoryCheck, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var theoretical decimal.Decimal
	err = tx.QueryRow(ctx,
		"SELECT COALESCE(SUM(kg), 0) FROM stock_moves WHERE status = 'active'",
	).Scan(&theoretical)
	if err != nil {
		return nil, fmt.Errorf("failed to snapshot theoretical stock: %w", err)
	}

	check := InventoryCheck{
		CheckTime:     time.Now(),
		ActualKg:      actualKg,
		TheoreticalKg: theoretical,
		DifferenceKg:  actualKg.Sub(theoretical),
		Notes:         notes,
		CreatedBy:     actor,
	}
	err = tx.QueryRow(ctx, `
		INSERT INTO inventory_checks (check_time, actual_kg, theoretical_kg, difference_kg, notes, created_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`, check.CheckTime, check.ActualKg, check.TheoreticalKg, check.DifferenceKg, check.Notes, check.CreatedBy).
		Scan(&check.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to insert inventory check: %w", err)
	}

	if !check.DifferenceKg.IsZero() {
		moveType := MoveCountSurplus
		if check.DifferenceKg.IsNegative() {
			moveType = MoveCountShortage
		}
		kg, err := NormalizeMoveKg(moveType, check.DifferenceKg)
		if err != nil {
			return nil, err
		}
		moveNotes := fmt.Sprintf("inventory check #%d", check.ID)
		move := StockMove{
			MoveType:  moveType,
			Source:    "inventory-check",
			Kg:        kg,
			MoveTime:  check.CheckTime,
			Notes:     &moveNotes,
			CreatedBy: actor,
		}
		if err := insertMove(ctx, tx, &move); err != nil {
			return nil, err
		}
	}

	if err := writeAudit(ctx, tx, "inventory_check", fmt.Sprintf("%d", check.ID), AuditInsert, nil, map[string]string{
		"actual_kg":      check.ActualKg.String(),
		"theoretical_kg": check.TheoreticalKg.String(),
		"difference_kg":  check.DifferenceKg.String(),
	}, actor); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit reconcile: %w", err)
	}
	return &check, nil
}

func (s *inventoryService) ListMoves(ctx context.Context, filter MoveFilter) ([]StockMove, error) {
	query := `
		SELECT id, move_type, source, kg, move_time, reference_id, reference_type,
		       status, void_reason, void_time, void_by, notes, created_by, created_at
		FROM stock_moves`
	var args []any

	status := filter.Status
	if status == "" {
		status = StatusActive
	}
	args = append(args, string(status))
	query += fmt.Sprintf(" WHERE status = $%d", len(args))

	if filter.MoveType != "" {
		args = append(args, string(filter.MoveType))
		query += fmt.Sprintf(" AND move_type = $%d", len(args))
	}
	if filter.DateFrom != nil {
		args = append(args, *filter.DateFrom)
		query += fmt.Sprintf(" AND move_time >= $%d", len(args))
	}
	if filter.DateTo != nil {
		args = append(args, *filter.DateTo)
		query += fmt.Sprintf(" AND move_time <= $%d", len(args))
	}
	query += " ORDER BY move_time DESC, id DESC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query stock moves: %w", err)
	}
	defer rows.Close()

	var moves []StockMove
	for rows.Next() {
		var m StockMove
		if err := rows.Scan(
			&m.ID, &m.MoveType, &m.Source, &m.Kg, &m.MoveTime, &m.ReferenceID, &m.ReferenceType,
			&m.Status, &m.VoidReason, &m.VoidTime, &m.VoidBy, &m.Notes, &m.CreatedBy, &m.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan stock move: %w", err)
		}
		moves = append(moves, m)
	}
	return moves, rows.Err()
}

func (s *inventoryService) StockHistory(ctx context.Context, days int) ([]StockHistoryPoint, error) {
	if days <= 0 {
		days = 30
	}
	rows, err := s.pool.Query(ctx, `
		SELECT move_time::date::text, SUM(kg)
		FROM stock_moves
		WHERE status = 'active'
		  AND move_time >= NOW() - make_interval(days => $1)
		GROUP BY move_time::date
		ORDER BY move_time::date
	`, days)
	if err != nil {
		return nil, fmt.Errorf("failed to query stock history: %w", err)
	}
	defer rows.Close()

	var history []StockHistoryPoint
	cumulative := decimal.Zero
	for rows.Next() {
		var p StockHistoryPoint
		if err := rows.Scan(&p.Date, &p.DailyChange); err != nil {
			return nil, fmt.Errorf("failed to scan stock history row: %w", err)
		}
		cumulative = cumulative.Add(p.DailyChange)
		p.CumulativeKg = cumulative
		history = append(history, p)
	}
	return history, rows.Err()
}

func (s *inventoryService) StockByType(ctx context.Context) ([]MoveTypeTotal, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT move_type, COUNT(*), COALESCE(SUM(kg), 0)
		FROM stock_moves
		WHERE status = 'active'
		GROUP BY move_type
		ORDER BY move_type
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query stock by type: %w", err)
	}
	defer rows.Close()

	var totals []MoveTypeTotal
	for rows.Next() {
		var t MoveTypeTotal
		if err := rows.Scan(&t.MoveType, &t.Count, &t.TotalKg); err != nil {
			return nil, fmt.Errorf("failed to scan move type total: %w", err)
		}
		totals = append(totals, t)
	}
	return totals, rows.Err()
}

// voidMovesForReference flips every active stock move referencing the given
// record to void, inheriting the reason/time/actor of the originating void.
// Used by the sale engine inside its void transaction.
func voidMovesForReference(ctx context.Context, tx pgx.Tx, referenceType, referenceID, reason string, voidTime time.Time, actor string) error {
	_, err := tx.Exec(ctx, `
		UPDATE stock_moves
		SET status = 'void', void_reason = $1, void_time = $2, void_by = $3
		WHERE reference_type = $4 AND reference_id = $5 AND status = 'active'
	`, reason, voidTime, actor, referenceType, referenceID)
	if err != nil {
		return fmt.Errorf("failed to void stock moves for %s %s: %w", referenceType, referenceID, err)
	}
	return nil
}
