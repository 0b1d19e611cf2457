package app

import "sales-ledger/internal/core"

// SaleResult is returned by sale lifecycle operations.
type SaleResult struct {
	Sale *core.Sale
}

// SaleListResult is returned by ListSales.
type SaleListResult struct {
	Sales []core.Sale
}

// PurchaseResult is returned by purchase lifecycle operations.
type PurchaseResult struct {
	Purchase *core.Purchase
}

// PurchaseListResult is returned by ListPurchases.
type PurchaseListResult struct {
	Purchases []core.Purchase
}

// MoveResult is returned by RecordMove.
type MoveResult struct {
	Move *core.StockMove
}

// MoveListResult is returned by ListMoves.
type MoveListResult struct {
	Moves []core.StockMove
}

// StockResult is returned by CurrentStock.
type StockResult struct {
	Snapshot *core.StockSnapshot
}

// ReconcileResult is returned by Reconcile.
type ReconcileResult struct {
	Check *core.InventoryCheck
}

// RemittanceResult is returned by CreateRemittance.
type RemittanceResult struct {
	Remittance *core.Remittance
}

// IntakeResult is returned by InterpretOrder. Exactly one of Draft or
// ClarificationMessage is set.
type IntakeResult struct {
	IsClarification      bool
	ClarificationMessage string
	Draft                *core.SaleDraft
}
