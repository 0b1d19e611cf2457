package core

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// Document ID prefixes.
const (
	SalePrefix     = "SALE"
	PurchasePrefix = "PURCH"
)

// FormatDocumentID renders "PREFIX-YYYYMMDD-NNN". The sequence is zero-padded
// to three digits but keeps growing past 999 without truncation.
func FormatDocumentID(prefix string, at time.Time, seq int64) string {
	return fmt.Sprintf("%s-%s-%03d", prefix, at.Format("20060102"), seq)
}

// NextDocumentID assigns the next sequential document ID for the given prefix
// and date, inside the caller's transaction.
//
// Concurrency-safe: the per-(prefix, date) counter row is upserted with
// ON CONFLICT DO UPDATE, so two concurrent same-day creations serialize on
// the row and receive distinct consecutive numbers. Because the counter
// advances in the same transaction as the insert it names, a rollback
// releases the number without ever exposing it.
func NextDocumentID(ctx context.Context, tx pgx.Tx, prefix string, at time.Time) (string, error) {
	var lastNumber int64
	err := tx.QueryRow(ctx, `
		INSERT INTO doc_sequences (prefix, seq_date, last_number)
		VALUES ($1, $2::date, 1)
		ON CONFLICT (prefix, seq_date)
		DO UPDATE SET last_number = doc_sequences.last_number + 1
		RETURNING last_number
	`, prefix, at.Format("2006-01-02")).Scan(&lastNumber)
	if err != nil {
		return "", fmt.Errorf("failed to advance document sequence %s: %w", prefix, err)
	}
	return FormatDocumentID(prefix, at, lastNumber), nil
}
