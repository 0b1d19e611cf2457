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

// Well-known configuration keys.
const (
	ConfigPriceCash         = "price_cash"
	ConfigPriceCredit       = "price_credit"
	ConfigLowStockThreshold = "low_stock_threshold"
	ConfigDefaultOperator   = "default_operator"
)

// DefaultLowStockKg is used when no low_stock_threshold row is configured.
var DefaultLowStockKg = decimal.NewFromInt(100)

// DefaultOperator is the fallback actor name when none is configured or
// supplied by the auth gate.
const DefaultOperator = "Jose Burgueno"

// PriceSource resolves the global per-kg fallback price for a payment type.
// Returns nil when no price is configured — lines are then created unpriced.
// The sale engine depends on this interface rather than the config table
// directly so tests can inject fixed prices.
type PriceSource interface {
	UnitPriceFor(ctx context.Context, q pgxQuerier, paymentType PaymentType) (*decimal.Decimal, error)
}

// ConfigService manages the system_config key-value table.
type ConfigService interface {
	PriceSource

	Get(ctx context.Context, key string) (string, bool, error)
	// GetDecimal returns nil (no error) when the key is absent.
	GetDecimal(ctx context.Context, key string) (*decimal.Decimal, error)
	// Set upserts a key and writes an audit entry recording the change.
	Set(ctx context.Context, key, value, actor string) (*ConfigEntry, error)
	List(ctx context.Context) ([]ConfigEntry, error)
	// LowStockThreshold returns the configured threshold or DefaultLowStockKg.
	LowStockThreshold(ctx context.Context) (decimal.Decimal, error)
	// DefaultOperatorName returns the configured default_operator or
	// DefaultOperator.
	DefaultOperatorName(ctx context.Context) (string, error)
}

type configService struct {
	pool *pgxpool.Pool
}

func NewConfigService(pool *pgxpool.Pool) ConfigService {
	return &configService{pool: pool}
}

func (s *configService) Get(ctx context.Context, key string) (string, bool, error) {
	return getConfigQ(ctx, s.pool, key)
}

func getConfigQ(ctx context.Context, q pgxQuerier, key string) (string, bool, error) {
	var value string
	err := q.QueryRow(ctx, "SELECT value FROM system_config WHERE key = $1", key).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to read config %s: %w", key, err)
	}
	return value, true, nil
}

func (s *configService) GetDecimal(ctx context.Context, key string) (*decimal.Decimal, error) {
	return getConfigDecimalQ(ctx, s.pool, key)
}

func getConfigDecimalQ(ctx context.Context, q pgxQuerier, key string) (*decimal.Decimal, error) {
	value, ok, err := getConfigQ(ctx, q, key)
	if err != nil || !ok {
		return nil, err
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return nil, fmt.Errorf("config %s holds non-numeric value %q: %w", key, value, err)
	}
	return &d, nil
}

// UnitPriceFor resolves the global per-kg price for a payment type from the
// config table, using the caller's querier so it participates in the sale
// creation transaction.
func (s *configService) UnitPriceFor(ctx context.Context, q pgxQuerier, paymentType PaymentType) (*decimal.Decimal, error) {
	key := ConfigPriceCash
	if paymentType == PaymentCredit {
		key = ConfigPriceCredit
	}
	return getConfigDecimalQ(ctx, q, key)
}

func (s *configService) Set(ctx context.Context, key, value, actor string) (*ConfigEntry, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	oldValue, hadOld, err := getConfigQ(ctx, tx, key)
	if err != nil {
		return nil, err
	}

	var entry ConfigEntry
	err = tx.QueryRow(ctx, `
		INSERT INTO system_config (key, value, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()
		RETURNING key, value, description, updated_at
	`, key, value).Scan(&entry.Key, &entry.Value, &entry.Description, &entry.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert config %s: %w", key, err)
	}

	var oldSnapshot any
	if hadOld {
		oldSnapshot = map[string]string{"value": oldValue}
	}
	action := AuditInsert
	if hadOld {
		action = AuditUpdate
	}
	if err := writeAudit(ctx, tx, "system_config", key, action, oldSnapshot, map[string]string{"value": value}, actor); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit config update: %w", err)
	}
	return &entry, nil
}

func (s *configService) List(ctx context.Context) ([]ConfigEntry, error) {
	rows, err := s.pool.Query(ctx, "SELECT key, value, description, updated_at FROM system_config ORDER BY key")
	if err != nil {
		return nil, fmt.Errorf("failed to query config: %w", err)
	}
	defer rows.Close()

	var entries []ConfigEntry
	for rows.Next() {
		var e ConfigEntry
		if err := rows.Scan(&e.Key, &e.Value, &e.Description, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan config entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *configService) DefaultOperatorName(ctx context.Context) (string, error) {
	value, ok, err := s.Get(ctx, ConfigDefaultOperator)
	if err != nil {
		return "", err
	}
	if !ok || strings.TrimSpace(value) == "" {
		return DefaultOperator, nil
	}
	return value, nil
}

func (s *configService) LowStockThreshold(ctx context.Context) (decimal.Decimal, error) {
	d, err := s.GetDecimal(ctx, ConfigLowStockThreshold)
	if err != nil {
		return decimal.Zero, err
	}
	if d == nil {
		return DefaultLowStockKg, nil
	}
	return *d, nil
}
