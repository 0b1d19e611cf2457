package core_test

import (
	"testing"
	"time"

	"sales-ledger/internal/core"
)

func TestFormatDocumentID(t *testing.T) {
	day := time.Date(2025, 3, 7, 14, 30, 0, 0, time.UTC)

	tests := []struct {
		prefix string
		seq    int64
		want   string
	}{
		{core.SalePrefix, 1, "SALE-20250307-001"},
		{core.SalePrefix, 42, "SALE-20250307-042"},
		{core.PurchasePrefix, 7, "PURCH-20250307-007"},
		{core.SalePrefix, 999, "SALE-20250307-999"},
		// Past three digits the number keeps growing, never truncates.
		{core.SalePrefix, 1000, "SALE-20250307-1000"},
	}

	for _, tt := range tests {
		got := core.FormatDocumentID(tt.prefix, day, tt.seq)
		if got != tt.want {
			t.Errorf("FormatDocumentID(%s, %d) = %s, want %s", tt.prefix, tt.seq, got, tt.want)
		}
	}
}
