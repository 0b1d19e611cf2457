package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// RemittanceSummary describes how much of a credit sale has been collected.
type RemittanceSummary struct {
	SaleID          string          `json:"sale_id"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	PaidAmount      decimal.Decimal `json:"paid_amount"`
	UnpaidAmount    decimal.Decimal `json:"unpaid_amount"`
	PaymentStatus   PaymentStatus   `json:"payment_status"`
	RemittanceCount int             `json:"remittance_count"`
}

// CreditSaleBalance is one open credit sale in the outstanding list.
type CreditSaleBalance struct {
	SaleID        string          `json:"sale_id"`
	SaleTime      time.Time       `json:"sale_time"`
	CustomerID    int             `json:"customer_id"`
	CustomerName  string          `json:"customer_name"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	PaidAmount    decimal.Decimal `json:"paid_amount"`
	UnpaidAmount  decimal.Decimal `json:"unpaid_amount"`
	PaymentStatus PaymentStatus   `json:"payment_status"`
}

// RemittanceService records payments against credit sales and maintains the
// derived payment status on the sale.
type RemittanceService interface {
	// CreateRemittance validates the target sale (active, credit, not yet
	// settled), rejects amounts that are non-positive or exceed the unpaid
	// balance, then inserts the payment and moves the sale to partial or
	// paid. The sale row is locked for the duration so two concurrent
	// payments cannot jointly overpay.
	CreateRemittance(ctx context.Context, saleID string, amount decimal.Decimal, notes *string, remittanceTime *time.Time, actor string) (*Remittance, error)

	Summary(ctx context.Context, saleID string) (*RemittanceSummary, error)
	History(ctx context.Context, saleID string) ([]Remittance, error)
	// ListCreditSales returns active credit sales that still carry an unpaid
	// balance, oldest first.
	ListCreditSales(ctx context.Context) ([]CreditSaleBalance, error)
}

type remittanceService struct {
	pool *pgxpool.Pool
}

func NewRemittanceService(pool *pgxpool.Pool) RemittanceService {
	return &remittanceService{pool: pool}
}

func (s *remittanceService) CreateRemittance(ctx context.Context, saleID string, amount decimal.Decimal, notes *string, remittanceTime *time.Time, actor string) (*Remittance, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var status RecordStatus
	var paymentType PaymentType
	var paymentStatus PaymentStatus
	var totalAmount decimal.Decimal
	err = tx.QueryRow(ctx, `
		SELECT status, payment_type, payment_status, total_amount
		FROM sales WHERE id = $1 FOR UPDATE
	`, saleID).Scan(&status, &paymentType, &paymentStatus, &totalAmount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrSaleNotFound, saleID)
		}
		return nil, fmt.Errorf("failed to lock sale %s: %w", saleID, err)
	}
	if status != StatusActive {
		return nil, fmt.Errorf("%w: sale %s is %s", ErrSaleNotActive, saleID, status)
	}
	if paymentType != PaymentCredit {
		return nil, fmt.Errorf("%w: sale %s", ErrNotCreditSale, saleID)
	}
	if paymentStatus == PaymentPaid {
		return nil, fmt.Errorf("%w: sale %s", ErrAlreadyPaid, saleID)
	}
	if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidAmount, amount)
	}

	var paidSoFar decimal.Decimal
	err = tx.QueryRow(ctx,
		"SELECT COALESCE(SUM(amount), 0) FROM remittances WHERE sale_id = $1",
		saleID,
	).Scan(&paidSoFar)
	if err != nil {
		return nil, fmt.Errorf("failed to sum remittances for sale %s: %w", saleID, err)
	}

	unpaid := totalAmount.Sub(paidSoFar)
	if amount.GreaterThan(unpaid) {
		return nil, fmt.Errorf("%w: amount %s exceeds unpaid balance %s", ErrOverpayment, amount, unpaid)
	}

	at := time.Now()
	if remittanceTime != nil {
		at = *remittanceTime
	}

	var rem Remittance
	err = tx.QueryRow(ctx, `
		INSERT INTO remittances (sale_id, amount, remittance_time, notes, created_by)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, sale_id, amount, remittance_time, notes, created_by, created_at
	`, saleID, amount, at, notes, actor).Scan(
		&rem.ID, &rem.SaleID, &rem.Amount, &rem.RemittanceTime, &rem.Notes, &rem.CreatedBy, &rem.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert remittance: %w", err)
	}

	newPaid := paidSoFar.Add(amount)
	newStatus := PaymentPartial
	if newPaid.GreaterThanOrEqual(totalAmount) {
		newStatus = PaymentPaid
	}
	_, err = tx.Exec(ctx, "UPDATE sales SET payment_status = $1 WHERE id = $2", string(newStatus), saleID)
	if err != nil {
		return nil, fmt.Errorf("failed to update payment status for sale %s: %w", saleID, err)
	}

	if err := writeAudit(ctx, tx, "sale", saleID, AuditUpdate,
		map[string]any{"payment_status": paymentStatus, "paid_amount": paidSoFar.String()},
		map[string]any{"payment_status": newStatus, "paid_amount": newPaid.String()},
		actor); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit remittance: %w", err)
	}
	return &rem, nil
}

func (s *remittanceService) Summary(ctx context.Context, saleID string) (*RemittanceSummary, error) {
	var sum RemittanceSummary
	err := s.pool.QueryRow(ctx, `
		SELECT s.id, s.total_amount, s.payment_status,
		       COALESCE(SUM(r.amount), 0), COUNT(r.id)
		FROM sales s
		LEFT JOIN remittances r ON r.sale_id = s.id
		WHERE s.id = $1
		GROUP BY s.id, s.total_amount, s.payment_status
	`, saleID).Scan(&sum.SaleID, &sum.TotalAmount, &sum.PaymentStatus, &sum.PaidAmount, &sum.RemittanceCount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrSaleNotFound, saleID)
		}
		return nil, fmt.Errorf("failed to fetch remittance summary for %s: %w", saleID, err)
	}
	sum.UnpaidAmount = sum.TotalAmount.Sub(sum.PaidAmount)
	return &sum, nil
}

func (s *remittanceService) History(ctx context.Context, saleID string) ([]Remittance, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, sale_id, amount, remittance_time, notes, created_by, created_at
		FROM remittances
		WHERE sale_id = $1
		ORDER BY remittance_time, id
	`, saleID)
	if err != nil {
		return nil, fmt.Errorf("failed to query remittances for %s: %w", saleID, err)
	}
	defer rows.Close()

	var rems []Remittance
	for rows.Next() {
		var r Remittance
		if err := rows.Scan(&r.ID, &r.SaleID, &r.Amount, &r.RemittanceTime, &r.Notes, &r.CreatedBy, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan remittance: %w", err)
		}
		rems = append(rems, r)
	}
	return rems, rows.Err()
}

func (s *remittanceService) ListCreditSales(ctx context.Context) ([]CreditSaleBalance, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT s.id, s.sale_time, s.customer_id, c.name, s.total_amount, s.payment_status,
		       COALESCE(SUM(r.amount), 0)
		FROM sales s
		JOIN customers c ON c.id = s.customer_id
		LEFT JOIN remittances r ON r.sale_id = s.id
		WHERE s.status = 'active'
		  AND s.payment_type = 'credit'
		  AND s.payment_status IN ('unpaid', 'partial')
		GROUP BY s.id, s.sale_time, s.customer_id, c.name, s.total_amount, s.payment_status
		ORDER BY s.sale_time, s.id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query credit sales: %w", err)
	}
	defer rows.Close()

	var balances []CreditSaleBalance
	for rows.Next() {
		var b CreditSaleBalance
		if err := rows.Scan(&b.SaleID, &b.SaleTime, &b.CustomerID, &b.CustomerName, &b.TotalAmount, &b.PaymentStatus, &b.PaidAmount); err != nil {
			return nil, fmt.Errorf("failed to scan credit sale: %w", err)
		}
		b.UnpaidAmount = b.TotalAmount.Sub(b.PaidAmount)
		balances = append(balances, b)
	}
	return balances, rows.Err()
}
