package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// PurchaseLineInput is one requested line of a new purchase. Products are
// referenced by name; unknown names create a catalog entry on the fly.
type PurchaseLineInput struct {
	ProductName string
	Kg          decimal.Decimal
	UnitPrice   decimal.Decimal
}

// CreatePurchaseInput carries everything needed to record a purchase.
type CreatePurchaseInput struct {
	Supplier     string
	Lines        []PurchaseLineInput
	Notes        *string
	PurchaseTime *time.Time
	Actor        string
}

// PurchaseFilter narrows ListPurchases. Zero values mean "no filter".
type PurchaseFilter struct {
	Status   RecordStatus
	DateFrom *time.Time
	DateTo   *time.Time
	Limit    int
}

// PurchaseService records inbound goods, keeps the product catalog in sync,
// and emits the inventory and audit side effects.
type PurchaseService interface {
	// CreatePurchase validates every line up front (first failure wins),
	// assigns the document ID, appends one inbound "purchase-in" stock move
	// for the summed weight, and creates any products the catalog does not
	// know yet, all within one transaction.
	CreatePurchase(ctx context.Context, input CreatePurchaseInput) (*Purchase, error)

	// VoidPurchase transitions active -> void and appends a compensating
	// outbound "return" move for the purchased weight. The original
	// purchase-in move stays active so the goods-received history survives.
	VoidPurchase(ctx context.Context, purchaseID, reason, actor string) (*Purchase, error)

	GetPurchase(ctx context.Context, purchaseID string) (*Purchase, error)
	ListPurchases(ctx context.Context, filter PurchaseFilter) ([]Purchase, error)
}

type purchaseService struct {
	pool *pgxpool.Pool
}

func NewPurchaseService(pool *pgxpool.Pool) PurchaseService {
	return &purchaseService{pool: pool}
}

func (s *purchaseService) CreatePurchase(ctx context.Context, input CreatePurchaseInput) (*Purchase, error) {
	if len(input.Lines) == 0 {
		return nil, ErrEmptyOrder
	}
	for i, line := range input.Lines {
		if strings.TrimSpace(line.ProductName) == "" {
			return nil, fmt.Errorf("line %d: %w: missing product name", i+1, ErrInvalidLine)
		}
		if !line.Kg.IsPositive() {
			return nil, fmt.Errorf("line %d: %w: kg must be positive", i+1, ErrInvalidLine)
		}
		if !line.UnitPrice.IsPositive() {
			return nil, fmt.Errorf("line %d: %w: unit price must be positive", i+1, ErrInvalidLine)
		}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	purchaseTime := time.Now()
	if input.PurchaseTime != nil {
		purchaseTime = *input.PurchaseTime
	}

	purchaseID, err := NextDocumentID(ctx, tx, PurchasePrefix, purchaseTime)
	if err != nil {
		return nil, err
	}

	var totalKg, totalAmount decimal.Decimal
	for _, line := range input.Lines {
		totalKg = totalKg.Add(line.Kg)
		totalAmount = totalAmount.Add(line.Kg.Mul(line.UnitPrice))
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO purchases (id, purchase_time, supplier, total_kg, total_amount, notes, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, purchaseID, purchaseTime, input.Supplier, totalKg, totalAmount, input.Notes, input.Actor)
	if err != nil {
		return nil, fmt.Errorf("failed to insert purchase: %w", err)
	}

	for i, line := range input.Lines {
		name := strings.TrimSpace(line.ProductName)
		_, err = tx.Exec(ctx, `
			INSERT INTO purchase_items (purchase_id, product_name, kg, unit_price, total_amount)
			VALUES ($1, $2, $3, $4, $5)
		`, purchaseID, name, line.Kg, line.UnitPrice, line.Kg.Mul(line.UnitPrice))
		if err != nil {
			return nil, fmt.Errorf("failed to insert purchase line %d: %w", i+1, err)
		}
		if err := s.ensureProduct(ctx, tx, name, line.UnitPrice, input.Actor); err != nil {
			return nil, err
		}
	}

	refType := "purchase"
	notes := fmt.Sprintf("purchase from %s", input.Supplier)
	move := StockMove{
		MoveType:      MovePurchaseIn,
		Source:        input.Supplier,
		Kg:            totalKg,
		MoveTime:      purchaseTime,
		ReferenceID:   &purchaseID,
		ReferenceType: &refType,
		Notes:         &notes,
		CreatedBy:     input.Actor,
	}
	if err := insertMove(ctx, tx, &move); err != nil {
		return nil, err
	}

	if err := writeAudit(ctx, tx, "purchase", purchaseID, AuditInsert, nil, map[string]any{
		"supplier":     input.Supplier,
		"total_kg":     totalKg.String(),
		"total_amount": totalAmount.String(),
	}, input.Actor); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit purchase creation: %w", err)
	}

	return s.GetPurchase(ctx, purchaseID)
}

// ensureProduct creates a catalog row for an unknown product name, priced at
// cost for both cash and credit until someone sets real prices. The auto
// creation is audit-logged like any other insert.
func (s *purchaseService) ensureProduct(ctx context.Context, tx pgx.Tx, name string, unitPrice decimal.Decimal, actor string) error {
	var existingID int
	err := tx.QueryRow(ctx, "SELECT id FROM products WHERE name = $1", name).Scan(&existingID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("failed to look up product %s: %w", name, err)
	}

	var newID int
	err = tx.QueryRow(ctx, `
		INSERT INTO products (name, cash_price, credit_price, created_by)
		VALUES ($1, $2, $2, $3)
		RETURNING id
	`, name, unitPrice, actor).Scan(&newID)
	if err != nil {
		return fmt.Errorf("failed to auto-create product %s: %w", name, err)
	}

	return writeAudit(ctx, tx, "product", fmt.Sprintf("%d", newID), AuditInsert, nil, map[string]any{
		"name":         name,
		"cash_price":   unitPrice.String(),
		"credit_price": unitPrice.String(),
		"source":       "purchase auto-create",
	}, actor)
}

func (s *purchaseService) VoidPurchase(ctx context.Context, purchaseID, reason, actor string) (*Purchase, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var status RecordStatus
	var supplier string
	var totalKg decimal.Decimal
	err = tx.QueryRow(ctx,
		"SELECT status, supplier, total_kg FROM purchases WHERE id = $1 FOR UPDATE",
		purchaseID,
	).Scan(&status, &supplier, &totalKg)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrPurchaseNotFound, purchaseID)
		}
		return nil, fmt.Errorf("failed to lock purchase %s: %w", purchaseID, err)
	}
	if status == StatusVoid {
		return nil, fmt.Errorf("%w: purchase %s", ErrAlreadyVoided, purchaseID)
	}
	if strings.TrimSpace(reason) == "" {
		return nil, ErrMissingReason
	}

	voidTime := time.Now()
	_, err = tx.Exec(ctx, `
		UPDATE purchases
		SET status = 'void', void_reason = $1, void_time = $2, void_by = $3
		WHERE id = $4
	`, reason, voidTime, actor, purchaseID)
	if err != nil {
		return nil, fmt.Errorf("failed to void purchase %s: %w", purchaseID, err)
	}

	// Goods already received go back out as a return, rather than pretending
	// the receipt never happened.
	if totalKg.IsPositive() {
		refType := "purchase"
		notes := fmt.Sprintf("return on void of purchase %s: %s", purchaseID, reason)
		move := StockMove{
			MoveType:      MoveReturn,
			Source:        supplier,
			Kg:            totalKg.Neg(),
			MoveTime:      voidTime,
			ReferenceID:   &purchaseID,
			ReferenceType: &refType,
			Notes:         &notes,
			CreatedBy:     actor,
		}
		if err := insertMove(ctx, tx, &move); err != nil {
			return nil, err
		}
	}

	if err := writeAudit(ctx, tx, "purchase", purchaseID, AuditVoid,
		map[string]any{"status": StatusActive, "total_kg": totalKg.String()},
		map[string]any{"status": StatusVoid, "void_reason": reason},
		actor); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit purchase void: %w", err)
	}

	return s.GetPurchase(ctx, purchaseID)
}

func (s *purchaseService) GetPurchase(ctx context.Context, purchaseID string) (*Purchase, error) {
	var p Purchase
	err := s.pool.QueryRow(ctx, `
		SELECT id, purchase_time, supplier, total_kg, total_amount, notes,
		       status, void_reason, void_time, void_by, created_by, created_at
		FROM purchases
		WHERE id = $1
	`, purchaseID).Scan(
		&p.ID, &p.PurchaseTime, &p.Supplier, &p.TotalKg, &p.TotalAmount, &p.Notes,
		&p.Status, &p.VoidReason, &p.VoidTime, &p.VoidBy, &p.CreatedBy, &p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrPurchaseNotFound, purchaseID)
		}
		return nil, fmt.Errorf("failed to fetch purchase %s: %w", purchaseID, err)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, purchase_id, product_name, kg, unit_price, total_amount
		FROM purchase_items
		WHERE purchase_id = $1
		ORDER BY id
	`, purchaseID)
	if err != nil {
		return nil, fmt.Errorf("failed to query purchase items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var it PurchaseItem
		if err := rows.Scan(&it.ID, &it.PurchaseID, &it.ProductName, &it.Kg, &it.UnitPrice, &it.TotalAmount); err != nil {
			return nil, fmt.Errorf("failed to scan purchase item: %w", err)
		}
		p.Items = append(p.Items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *purchaseService) ListPurchases(ctx context.Context, filter PurchaseFilter) ([]Purchase, error) {
	query := `
		SELECT id, purchase_time, supplier, total_kg, total_amount, notes,
		       status, void_reason, void_time, void_by, created_by, created_at
		FROM purchases
		WHERE 1=1`
	var args []any

	if filter.Status != "" {
		args = append(args, string(filter.Status))
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if filter.DateFrom != nil {
		args = append(args, *filter.DateFrom)
		query += fmt.Sprintf(" AND purchase_time >= $%d", len(args))
	}
	if filter.DateTo != nil {
		args = append(args, *filter.DateTo)
		query += fmt.Sprintf(" AND purchase_time <= $%d", len(args))
	}
	query += " ORDER BY purchase_time DESC, id DESC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query purchases: %w", err)
	}
	defer rows.Close()

	var purchases []Purchase
	for rows.Next() {
		var p Purchase
		if err := rows.Scan(
			&p.ID, &p.PurchaseTime, &p.Supplier, &p.TotalKg, &p.TotalAmount, &p.Notes,
			&p.Status, &p.VoidReason, &p.VoidTime, &p.VoidBy, &p.CreatedBy, &p.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan purchase: %w", err)
		}
		purchases = append(purchases, p)
	}
	return purchases, rows.Err()
}
