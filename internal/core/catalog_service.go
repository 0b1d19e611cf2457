package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// CreateSpecInput describes a new box specification. Width and Length are
// optional dimensions in cm; KgPerBox is required and drives weight math.
type CreateSpecInput struct {
	Name     string
	Width    *decimal.Decimal
	Length   *decimal.Decimal
	KgPerBox decimal.Decimal
	Actor    string
}

// UpdateSpecInput carries partial updates; nil fields are left untouched.
type UpdateSpecInput struct {
	Name     *string
	Width    *decimal.Decimal
	Length   *decimal.Decimal
	KgPerBox *decimal.Decimal
	Active   *bool
	Actor    string
}

type CreateCustomerInput struct {
	Name          string
	CreditAllowed bool
	Notes         *string
	Actor         string
}

type UpdateCustomerInput struct {
	Name          *string
	CreditAllowed *bool
	Active        *bool
	Notes         *string
	Actor         string
}

type UpdateProductInput struct {
	Name        *string
	CashPrice   *decimal.Decimal
	CreditPrice *decimal.Decimal
	Active      *bool
	Actor       string
}

// CatalogService manages the reference entities sales and purchases resolve
// against: box specs, customers, and products. Mutations are audit-logged;
// rows are deactivated rather than deleted so history keeps resolving.
type CatalogService interface {
	CreateSpec(ctx context.Context, input CreateSpecInput) (*Spec, error)
	UpdateSpec(ctx context.Context, id int, input UpdateSpecInput) (*Spec, error)
	ListSpecs(ctx context.Context, includeInactive bool) ([]Spec, error)

	CreateCustomer(ctx context.Context, input CreateCustomerInput) (*Customer, error)
	UpdateCustomer(ctx context.Context, id int, input UpdateCustomerInput) (*Customer, error)
	ListCustomers(ctx context.Context, includeInactive bool) ([]Customer, error)

	UpdateProduct(ctx context.Context, id int, input UpdateProductInput) (*Product, error)
	ListProducts(ctx context.Context, includeInactive bool) ([]Product, error)
}

type catalogService struct {
	pool *pgxpool.Pool
}

func NewCatalogService(pool *pgxpool.Pool) CatalogService {
	return &catalogService{pool: pool}
}

func (s *catalogService) CreateSpec(ctx context.Context, input CreateSpecInput) (*Spec, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, fmt.Errorf("%w: missing name", ErrInvalidSpec)
	}
	if !input.KgPerBox.IsPositive() {
		return nil, fmt.Errorf("%w: kg per box must be positive", ErrInvalidSpec)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var spec Spec
	err = tx.QueryRow(ctx, `
		INSERT INTO specs (name, width, length, kg_per_box, created_by)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, name, width, length, kg_per_box, active, created_by, created_at
	`, strings.TrimSpace(input.Name), input.Width, input.Length, input.KgPerBox, input.Actor).Scan(
		&spec.ID, &spec.Name, &spec.Width, &spec.Length, &spec.KgPerBox, &spec.Active, &spec.CreatedBy, &spec.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert spec: %w", err)
	}

	if err := writeAudit(ctx, tx, "spec", fmt.Sprintf("%d", spec.ID), AuditInsert, nil, map[string]any{
		"name":       spec.Name,
		"kg_per_box": spec.KgPerBox.String(),
	}, input.Actor); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit spec creation: %w", err)
	}
	return &spec, nil
}

func (s *catalogService) UpdateSpec(ctx context.Context, id int, input UpdateSpecInput) (*Spec, error) {
	if input.KgPerBox != nil && !input.KgPerBox.IsPositive() {
		return nil, fmt.Errorf("%w: kg per box must be positive", ErrInvalidSpec)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var old Spec
	err = tx.QueryRow(ctx, `
		SELECT id, name, width, length, kg_per_box, active, created_by, created_at
		FROM specs WHERE id = $1 FOR UPDATE
	`, id).Scan(&old.ID, &old.Name, &old.Width, &old.Length, &old.KgPerBox, &old.Active, &old.CreatedBy, &old.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: spec id %d", ErrInvalidSpec, id)
		}
		return nil, fmt.Errorf("failed to lock spec %d: %w", id, err)
	}

	updated := old
	if input.Name != nil {
		updated.Name = strings.TrimSpace(*input.Name)
	}
	if input.Width != nil {
		updated.Width = input.Width
	}
	if input.Length != nil {
		updated.Length = input.Length
	}
	if input.KgPerBox != nil {
		updated.KgPerBox = *input.KgPerBox
	}
	if input.Active != nil {
		updated.Active = *input.Active
	}

	_, err = tx.Exec(ctx, `
		UPDATE specs SET name = $1, width = $2, length = $3, kg_per_box = $4, active = $5
		WHERE id = $6
	`, updated.Name, updated.Width, updated.Length, updated.KgPerBox, updated.Active, id)
	if err != nil {
		return nil, fmt.Errorf("failed to update spec %d: %w", id, err)
	}

	if err := writeAudit(ctx, tx, "spec", fmt.Sprintf("%d", id), AuditUpdate,
		map[string]any{"name": old.Name, "kg_per_box": old.KgPerBox.String(), "active": old.Active},
		map[string]any{"name": updated.Name, "kg_per_box": updated.KgPerBox.String(), "active": updated.Active},
		input.Actor); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit spec update: %w", err)
	}
	return &updated, nil
}

func (s *catalogService) ListSpecs(ctx context.Context, includeInactive bool) ([]Spec, error) {
	query := "SELECT id, name, width, length, kg_per_box, active, created_by, created_at FROM specs"
	if !includeInactive {
		query += " WHERE active"
	}
	query += " ORDER BY name"

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query specs: %w", err)
	}
	defer rows.Close()

	var specs []Spec
	for rows.Next() {
		var sp Spec
		if err := rows.Scan(&sp.ID, &sp.Name, &sp.Width, &sp.Length, &sp.KgPerBox, &sp.Active, &sp.CreatedBy, &sp.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan spec: %w", err)
		}
		specs = append(specs, sp)
	}
	return specs, rows.Err()
}

func (s *catalogService) CreateCustomer(ctx context.Context, input CreateCustomerInput) (*Customer, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, fmt.Errorf("%w: missing name", ErrCustomerNotFound)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var c Customer
	err = tx.QueryRow(ctx, `
		INSERT INTO customers (name, credit_allowed, notes, created_by)
		VALUES ($1, $2, $3, $4)
		RETURNING id, name, credit_allowed, active, notes, created_by, created_at
	`, strings.TrimSpace(input.Name), input.CreditAllowed, input.Notes, input.Actor).Scan(
		&c.ID, &c.Name, &c.CreditAllowed, &c.Active, &c.Notes, &c.CreatedBy, &c.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert customer: %w", err)
	}

	if err := writeAudit(ctx, tx, "customer", fmt.Sprintf("%d", c.ID), AuditInsert, nil, map[string]any{
		"name":           c.Name,
		"credit_allowed": c.CreditAllowed,
	}, input.Actor); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit customer creation: %w", err)
	}
	return &c, nil
}

func (s *catalogService) UpdateCustomer(ctx context.Context, id int, input UpdateCustomerInput) (*Customer, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var old Customer
	err = tx.QueryRow(ctx, `
		SELECT id, name, credit_allowed, active, notes, created_by, created_at
		FROM customers WHERE id = $1 FOR UPDATE
	`, id).Scan(&old.ID, &old.Name, &old.CreditAllowed, &old.Active, &old.Notes, &old.CreatedBy, &old.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: id %d", ErrCustomerNotFound, id)
		}
		return nil, fmt.Errorf("failed to lock customer %d: %w", id, err)
	}

	updated := old
	if input.Name != nil {
		updated.Name = strings.TrimSpace(*input.Name)
	}
	if input.CreditAllowed != nil {
		updated.CreditAllowed = *input.CreditAllowed
	}
	if input.Active != nil {
		updated.Active = *input.Active
	}
	if input.Notes != nil {
		updated.Notes = input.Notes
	}

	_, err = tx.Exec(ctx, `
		UPDATE customers SET name = $1, credit_allowed = $2, active = $3, notes = $4
		WHERE id = $5
	`, updated.Name, updated.CreditAllowed, updated.Active, updated.Notes, id)
	if err != nil {
		return nil, fmt.Errorf("failed to update customer %d: %w", id, err)
	}

	if err := writeAudit(ctx, tx, "customer", fmt.Sprintf("%d", id), AuditUpdate,
		map[string]any{"name": old.Name, "credit_allowed": old.CreditAllowed, "active": old.Active},
		map[string]any{"name": updated.Name, "credit_allowed": updated.CreditAllowed, "active": updated.Active},
		input.Actor); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit customer update: %w", err)
	}
	return &updated, nil
}

func (s *catalogService) ListCustomers(ctx context.Context, includeInactive bool) ([]Customer, error) {
	query := "SELECT id, name, credit_allowed, active, notes, created_by, created_at FROM customers"
	if !includeInactive {
		query += " WHERE active"
	}
	query += " ORDER BY name"

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query customers: %w", err)
	}
	defer rows.Close()

	var customers []Customer
	for rows.Next() {
		var c Customer
		if err := rows.Scan(&c.ID, &c.Name, &c.CreditAllowed, &c.Active, &c.Notes, &c.CreatedBy, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan customer: %w", err)
		}
		customers = append(customers, c)
	}
	return customers, rows.Err()
}

func (s *catalogService) UpdateProduct(ctx context.Context, id int, input UpdateProductInput) (*Product, error) {
	if input.CashPrice != nil && !input.CashPrice.IsPositive() {
		return nil, fmt.Errorf("%w: cash price must be positive", ErrInvalidProduct)
	}
	if input.CreditPrice != nil && !input.CreditPrice.IsPositive() {
		return nil, fmt.Errorf("%w: credit price must be positive", ErrInvalidProduct)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var old Product
	err = tx.QueryRow(ctx, `
		SELECT id, name, cash_price, credit_price, active, created_by, created_at
		FROM products WHERE id = $1 FOR UPDATE
	`, id).Scan(&old.ID, &old.Name, &old.CashPrice, &old.CreditPrice, &old.Active, &old.CreatedBy, &old.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: product id %d", ErrInvalidProduct, id)
		}
		return nil, fmt.Errorf("failed to lock product %d: %w", id, err)
	}

	updated := old
	if input.Name != nil {
		updated.Name = strings.TrimSpace(*input.Name)
	}
	if input.CashPrice != nil {
		updated.CashPrice = *input.CashPrice
	}
	if input.CreditPrice != nil {
		updated.CreditPrice = *input.CreditPrice
	}
	if input.Active != nil {
		updated.Active = *input.Active
	}

	_, err = tx.Exec(ctx, `
		UPDATE products SET name = $1, cash_price = $2, credit_price = $3, active = $4
		WHERE id = $5
	`, updated.Name, updated.CashPrice, updated.CreditPrice, updated.Active, id)
	if err != nil {
		return nil, fmt.Errorf("failed to update product %d: %w", id, err)
	}

	if err := writeAudit(ctx, tx, "product", fmt.Sprintf("%d", id), AuditUpdate,
		map[string]any{"name": old.Name, "cash_price": old.CashPrice.String(), "credit_price": old.CreditPrice.String(), "active": old.Active},
		map[string]any{"name": updated.Name, "cash_price": updated.CashPrice.String(), "credit_price": updated.CreditPrice.String(), "active": updated.Active},
		input.Actor); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit product update: %w", err)
	}
	return &updated, nil
}

func (s *catalogService) ListProducts(ctx context.Context, includeInactive bool) ([]Product, error) {
	query := "SELECT id, name, cash_price, credit_price, active, created_by, created_at FROM products"
	if !includeInactive {
		query += " WHERE active"
	}
	query += " ORDER BY name"

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	var products []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Name, &p.CashPrice, &p.CreditPrice, &p.Active, &p.CreatedBy, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}
