package core

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// writeAudit appends an audit log row inside the caller's transaction.
// oldValue/newValue are JSON-encoded snapshots; pass nil to omit one side.
// Audit rows are append-only and never mutated by any engine.
func writeAudit(ctx context.Context, tx pgx.Tx, table, recordID string, action AuditAction, oldValue, newValue any, actor string) error {
	encode := func(v any) (*string, error) {
		if v == nil {
			return nil, nil
		}
		b, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		s := string(b)
		return &s, nil
	}

	oldJSON, err := encode(oldValue)
	if err != nil {
		return fmt.Errorf("failed to encode audit old value: %w", err)
	}
	newJSON, err := encode(newValue)
	if err != nil {
		return fmt.Errorf("failed to encode audit new value: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO audit_logs (table_name, record_id, action, old_value, new_value, created_by)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, table, recordID, string(action), oldJSON, newJSON, actor)
	if err != nil {
		return fmt.Errorf("failed to write audit log for %s %s: %w", table, recordID, err)
	}
	return nil
}
