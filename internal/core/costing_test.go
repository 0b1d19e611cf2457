package core_test

import (
	"testing"

	"sales-ledger/internal/core"

	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func TestAllocateFIFO(t *testing.T) {
	tests := []struct {
		name          string
		batches       []core.CostBatch
		demandKg      string
		wantCost      string
		wantShortfall string
	}{
		{
			name: "demand spans two batches",
			batches: []core.CostBatch{
				{Kg: d("100"), UnitPrice: d("2.0")},
				{Kg: d("100"), UnitPrice: d("3.0")},
			},
			demandKg:      "150",
			wantCost:      "350", // 100×2.0 + 50×3.0
			wantShortfall: "0",
		},
		{
			name: "demand fits in first batch",
			batches: []core.CostBatch{
				{Kg: d("100"), UnitPrice: d("2.5")},
				{Kg: d("50"), UnitPrice: d("4.0")},
			},
			demandKg:      "40",
			wantCost:      "100",
			wantShortfall: "0",
		},
		{
			name: "demand exactly drains all batches",
			batches: []core.CostBatch{
				{Kg: d("60"), UnitPrice: d("2.0")},
				{Kg: d("40"), UnitPrice: d("3.0")},
			},
			demandKg:      "100",
			wantCost:      "240",
			wantShortfall: "0",
		},
		{
			name: "demand exceeds supply",
			batches: []core.CostBatch{
				{Kg: d("80"), UnitPrice: d("2.0")},
			},
			demandKg:      "120",
			wantCost:      "160",
			wantShortfall: "40",
		},
		{
			name:          "no batches at all",
			batches:       nil,
			demandKg:      "50",
			wantCost:      "0",
			wantShortfall: "50",
		},
		{
			name: "zero demand touches nothing",
			batches: []core.CostBatch{
				{Kg: d("100"), UnitPrice: d("2.0")},
			},
			demandKg:      "0",
			wantCost:      "0",
			wantShortfall: "0",
		},
		{
			name: "fractional weights",
			batches: []core.CostBatch{
				{Kg: d("10.5"), UnitPrice: d("2.4")},
				{Kg: d("5.5"), UnitPrice: d("3.2")},
			},
			demandKg:      "12",
			wantCost:      "30", // 10.5×2.4 + 1.5×3.2
			wantShortfall: "0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cost, shortfall := core.AllocateFIFO(tt.batches, d(tt.demandKg))
			if !cost.Equal(d(tt.wantCost)) {
				t.Errorf("cost = %s, want %s", cost, tt.wantCost)
			}
			if !shortfall.Equal(d(tt.wantShortfall)) {
				t.Errorf("shortfall = %s, want %s", shortfall, tt.wantShortfall)
			}
		})
	}
}

func TestAllocateFIFO_Deterministic(t *testing.T) {
	batches := []core.CostBatch{
		{Kg: d("30"), UnitPrice: d("1.1")},
		{Kg: d("30"), UnitPrice: d("1.2")},
		{Kg: d("30"), UnitPrice: d("1.3")},
	}
	firstCost, firstShort := core.AllocateFIFO(batches, d("75"))
	for i := 0; i < 10; i++ {
		cost, short := core.AllocateFIFO(batches, d("75"))
		if !cost.Equal(firstCost) || !short.Equal(firstShort) {
			t.Fatalf("run %d: got (%s, %s), want (%s, %s)", i, cost, short, firstCost, firstShort)
		}
	}
}
