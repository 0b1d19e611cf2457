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

// SaleLineInput is one requested line of a new sale. ProductID is optional:
// without it the global configured per-kg price applies.
type SaleLineInput struct {
	SpecID    int
	ProductID *int
	BoxQty    int
	ExtraKg   decimal.Decimal
}

// CreateSaleInput carries everything needed to create a sale.
type CreateSaleInput struct {
	CustomerID  int
	PaymentType PaymentType
	Lines       []SaleLineInput
	Discount    decimal.Decimal
	ManualTotal *decimal.Decimal
	SaleTime    *time.Time
	Actor       string
}

// SaleFilter narrows ListSales. Zero values mean "no filter".
type SaleFilter struct {
	Status     RecordStatus
	CustomerID *int
	DateFrom   *time.Time
	DateTo     *time.Time
	Limit      int
}

// SaleService validates and creates sales, computes derived weights and
// amounts, emits the inventory and audit side effects, and supports voiding.
type SaleService interface {
	// CreateSale runs the full validation chain (customer, credit, lines,
	// spec/product references — first failure wins), computes derived fields,
	// assigns the document ID, and appends the outbound "sale" stock move,
	// all within one transaction.
	CreateSale(ctx context.Context, input CreateSaleInput) (*Sale, error)

	// VoidSale transitions active -> void (terminal), records the void
	// metadata, and voids every stock move referencing the sale so the
	// ledger sum reverts while history is preserved.
	VoidSale(ctx context.Context, saleID, reason, actor string) (*Sale, error)

	GetSale(ctx context.Context, saleID string) (*Sale, error)
	ListSales(ctx context.Context, filter SaleFilter) ([]Sale, error)
}

type saleService struct {
	pool   *pgxpool.Pool
	prices PriceSource
}

func NewSaleService(pool *pgxpool.Pool, prices PriceSource) SaleService {
	return &saleService{pool: pool, prices: prices}
}

func (s *saleService) CreateSale(ctx context.Context, input CreateSaleInput) (*Sale, error) {
	if input.PaymentType != PaymentCash && input.PaymentType != PaymentCredit {
		return nil, fmt.Errorf("%w: %s", ErrInvalidPayment, input.PaymentType)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// Resolve and validate the customer.
	var customerName string
	var creditAllowed, customerActive bool
	err = tx.QueryRow(ctx,
		"SELECT name, credit_allowed, active FROM customers WHERE id = $1",
		input.CustomerID,
	).Scan(&customerName, &creditAllowed, &customerActive)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: id %d", ErrCustomerNotFound, input.CustomerID)
		}
		return nil, fmt.Errorf("failed to resolve customer %d: %w", input.CustomerID, err)
	}
	if !customerActive {
		return nil, fmt.Errorf("%w: %s", ErrCustomerInactive, customerName)
	}
	if input.PaymentType == PaymentCredit && !creditAllowed {
		return nil, fmt.Errorf("%w: %s", ErrCreditNotAllowed, customerName)
	}

	if len(input.Lines) == 0 {
		return nil, ErrEmptyOrder
	}

	// The global fallback price is resolved once per sale, inside the tx.
	fallbackPrice, err := s.prices.UnitPriceFor(ctx, tx, input.PaymentType)
	if err != nil {
		return nil, err
	}

	type resolvedLine struct {
		specID      int
		productID   *int
		boxQty      int
		extraKg     decimal.Decimal
		subtotalKg  decimal.Decimal
		unitPrice   *decimal.Decimal
		totalAmount decimal.Decimal
	}
	var resolved []resolvedLine
	var totalKg, computedAmount decimal.Decimal

	for i, line := range input.Lines {
		var kgPerBox decimal.Decimal
		var specActive bool
		err = tx.QueryRow(ctx,
			"SELECT kg_per_box, active FROM specs WHERE id = $1",
			line.SpecID,
		).Scan(&kgPerBox, &specActive)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, fmt.Errorf("line %d: %w: spec id %d", i+1, ErrInvalidSpec, line.SpecID)
			}
			return nil, fmt.Errorf("line %d: failed to resolve spec: %w", i+1, err)
		}
		if !specActive {
			return nil, fmt.Errorf("line %d: %w: spec id %d", i+1, ErrInvalidSpec, line.SpecID)
		}

		unitPrice := fallbackPrice
		if line.ProductID != nil {
			var productName string
			var cashPrice, creditPrice decimal.Decimal
			var productActive bool
			err = tx.QueryRow(ctx,
				"SELECT name, cash_price, credit_price, active FROM products WHERE id = $1",
				*line.ProductID,
			).Scan(&productName, &cashPrice, &creditPrice, &productActive)
			if err != nil {
				if errors.Is(err, pgx.ErrNoRows) {
					return nil, fmt.Errorf("line %d: %w: product id %d", i+1, ErrInvalidProduct, *line.ProductID)
				}
				return nil, fmt.Errorf("line %d: failed to resolve product: %w", i+1, err)
			}
			if !productActive {
				return nil, fmt.Errorf("line %d: %w: %s", i+1, ErrInvalidProduct, productName)
			}
			price := cashPrice
			if input.PaymentType == PaymentCredit {
				price = creditPrice
			}
			unitPrice = &price
		}

		subtotalKg := kgPerBox.Mul(decimal.NewFromInt(int64(line.BoxQty))).Add(line.ExtraKg)
		lineTotal := decimal.Zero
		if unitPrice != nil {
			lineTotal = subtotalKg.Mul(*unitPrice)
		}

		totalKg = totalKg.Add(subtotalKg)
		computedAmount = computedAmount.Add(lineTotal)
		resolved = append(resolved, resolvedLine{
			specID:      line.SpecID,
			productID:   line.ProductID,
			boxQty:      line.BoxQty,
			extraKg:     line.ExtraKg,
			subtotalKg:  subtotalKg,
			unitPrice:   unitPrice,
			totalAmount: lineTotal,
		})
	}

	totalAmount := computedAmount.Sub(input.Discount)
	if input.ManualTotal != nil {
		totalAmount = *input.ManualTotal
	}

	// Cash sales are collected on the spot; credit sales start unpaid.
	paymentStatus := PaymentPaid
	if input.PaymentType == PaymentCredit {
		paymentStatus = PaymentUnpaid
	}

	saleTime := time.Now()
	if input.SaleTime != nil {
		saleTime = *input.SaleTime
	}

	saleID, err := NextDocumentID(ctx, tx, SalePrefix, saleTime)
	if err != nil {
		return nil, err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO sales (id, sale_time, customer_id, payment_type, payment_status,
		                   total_kg, total_amount, discount, manual_total_amount, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, saleID, saleTime, input.CustomerID, string(input.PaymentType), string(paymentStatus),
		totalKg, totalAmount, input.Discount, input.ManualTotal, input.Actor)
	if err != nil {
		return nil, fmt.Errorf("failed to insert sale: %w", err)
	}

	for i, rl := range resolved {
		_, err = tx.Exec(ctx, `
			INSERT INTO sale_items (sale_id, spec_id, product_id, box_qty, extra_kg, subtotal_kg, unit_price, total_amount)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, saleID, rl.specID, rl.productID, rl.boxQty, rl.extraKg, rl.subtotalKg, rl.unitPrice, rl.totalAmount)
		if err != nil {
			return nil, fmt.Errorf("failed to insert sale line %d: %w", i+1, err)
		}
	}

	// Outbound ledger entry for the shipped weight — side effect of a
	// successful sale, not caller-invoked.
	if totalKg.IsPositive() {
		refType := "sale"
		notes := fmt.Sprintf("sale to %s", customerName)
		move := StockMove{
			MoveType:      MoveSale,
			Source:        customerName,
			Kg:            totalKg.Neg(),
			MoveTime:      saleTime,
			ReferenceID:   &saleID,
			ReferenceType: &refType,
			Notes:         &notes,
			CreatedBy:     input.Actor,
		}
		if err := insertMove(ctx, tx, &move); err != nil {
			return nil, err
		}
	}

	if err := writeAudit(ctx, tx, "sale", saleID, AuditInsert, nil, map[string]any{
		"customer_id":  input.CustomerID,
		"payment_type": input.PaymentType,
		"total_kg":     totalKg.String(),
		"total_amount": totalAmount.String(),
	}, input.Actor); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit sale creation: %w", err)
	}

	return s.GetSale(ctx, saleID)
}

func (s *saleService) VoidSale(ctx context.Context, saleID, reason, actor string) (*Sale, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var status RecordStatus
	var totalKg decimal.Decimal
	err = tx.QueryRow(ctx,
		"SELECT status, total_kg FROM sales WHERE id = $1 FOR UPDATE",
		saleID,
	).Scan(&status, &totalKg)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrSaleNotFound, saleID)
		}
		return nil, fmt.Errorf("failed to lock sale %s: %w", saleID, err)
	}
	if status == StatusVoid {
		return nil, fmt.Errorf("%w: sale %s", ErrAlreadyVoided, saleID)
	}
	if strings.TrimSpace(reason) == "" {
		return nil, ErrMissingReason
	}

	voidTime := time.Now()
	_, err = tx.Exec(ctx, `
		UPDATE sales
		SET status = 'void', void_reason = $1, void_time = $2, void_by = $3
		WHERE id = $4
	`, reason, voidTime, actor, saleID)
	if err != nil {
		return nil, fmt.Errorf("failed to void sale %s: %w", saleID, err)
	}

	if err := voidMovesForReference(ctx, tx, "sale", saleID, reason, voidTime, actor); err != nil {
		return nil, err
	}

	if err := writeAudit(ctx, tx, "sale", saleID, AuditVoid,
		map[string]any{"status": StatusActive, "total_kg": totalKg.String()},
		map[string]any{"status": StatusVoid, "void_reason": reason},
		actor); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit sale void: %w", err)
	}

	return s.GetSale(ctx, saleID)
}

func (s *saleService) GetSale(ctx context.Context, saleID string) (*Sale, error) {
	var sale Sale
	err := s.pool.QueryRow(ctx, `
		SELECT s.id, s.sale_time, s.customer_id, c.name, s.payment_type, s.payment_status,
		       s.total_kg, s.total_amount, s.discount, s.manual_total_amount,
		       s.status, s.void_reason, s.void_time, s.void_by, s.created_by, s.created_at
		FROM sales s
		JOIN customers c ON c.id = s.customer_id
		WHERE s.id = $1
	`, saleID).Scan(
		&sale.ID, &sale.SaleTime, &sale.CustomerID, &sale.CustomerName, &sale.PaymentType, &sale.PaymentStatus,
		&sale.TotalKg, &sale.TotalAmount, &sale.Discount, &sale.ManualTotalAmount,
		&sale.Status, &sale.VoidReason, &sale.VoidTime, &sale.VoidBy, &sale.CreatedBy, &sale.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrSaleNotFound, saleID)
		}
		return nil, fmt.Errorf("failed to fetch sale %s: %w", saleID, err)
	}

	items, err := fetchSaleItemsQ(ctx, s.pool, saleID)
	if err != nil {
		return nil, err
	}
	sale.Items = items
	return &sale, nil
}

func (s *saleService) ListSales(ctx context.Context, filter SaleFilter) ([]Sale, error) {
	query := `
		SELECT s.id, s.sale_time, s.customer_id, c.name, s.payment_type, s.payment_status,
		       s.total_kg, s.total_amount, s.discount, s.manual_total_amount,
		       s.status, s.void_reason, s.void_time, s.void_by, s.created_by, s.created_at
		FROM sales s
		JOIN customers c ON c.id = s.customer_id
		WHERE 1=1`
	var args []any

	if filter.Status != "" {
		args = append(args, string(filter.Status))
		query += fmt.Sprintf(" AND s.status = $%d", len(args))
	}
	if filter.CustomerID != nil {
		args = append(args, *filter.CustomerID)
		query += fmt.Sprintf(" AND s.customer_id = $%d", len(args))
	}
	if filter.DateFrom != nil {
		args = append(args, *filter.DateFrom)
		query += fmt.Sprintf(" AND s.sale_time >= $%d", len(args))
	}
	if filter.DateTo != nil {
		args = append(args, *filter.DateTo)
		query += fmt.Sprintf(" AND s.sale_time <= $%d", len(args))
	}
	query += " ORDER BY s.sale_time DESC, s.id DESC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sales: %w", err)
	}
	defer rows.Close()

	var sales []Sale
	for rows.Next() {
		var sale Sale
		if err := rows.Scan(
			&sale.ID, &sale.SaleTime, &sale.CustomerID, &sale.CustomerName, &sale.PaymentType, &sale.PaymentStatus,
			&sale.TotalKg, &sale.TotalAmount, &sale.Discount, &sale.ManualTotalAmount,
			&sale.Status, &sale.VoidReason, &sale.VoidTime, &sale.VoidBy, &sale.CreatedBy, &sale.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan sale: %w", err)
		}
		sales = append(sales, sale)
	}
	return sales, rows.Err()
}

func fetchSaleItemsQ(ctx context.Context, q pgxRowQuerier, saleID string) ([]SaleItem, error) {
	rows, err := q.Query(ctx, `
		SELECT si.id, si.sale_id, si.spec_id, sp.name, si.product_id, pr.name,
		       si.box_qty, si.extra_kg, si.subtotal_kg, si.unit_price, si.total_amount
		FROM sale_items si
		JOIN specs sp ON sp.id = si.spec_id
		LEFT JOIN products pr ON pr.id = si.product_id
		WHERE si.sale_id = $1
		ORDER BY si.id
	`, saleID)
	if err != nil {
		return nil, fmt.Errorf("failed to query sale items: %w", err)
	}
	defer rows.Close()

	var items []SaleItem
	for rows.Next() {
		var it SaleItem
		if err := rows.Scan(
			&it.ID, &it.SaleID, &it.SpecID, &it.SpecName, &it.ProductID, &it.ProductName,
			&it.BoxQty, &it.ExtraKg, &it.SubtotalKg, &it.UnitPrice, &it.TotalAmount,
		); err != nil {
			return nil, fmt.Errorf("failed to scan sale item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}
