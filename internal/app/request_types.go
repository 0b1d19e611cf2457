package app

import (
	"time"

	"github.com/shopspring/decimal"

	"sales-ledger/internal/core"
)

// CreateSaleRequest is the input for creating a new sale.
type CreateSaleRequest struct {
	CustomerID  int
	PaymentType string
	Lines       []SaleLineRequest
	Discount    decimal.Decimal
	ManualTotal *decimal.Decimal
	SaleTime    *time.Time
	Actor       string
}

// SaleLineRequest is a single line within a CreateSaleRequest.
type SaleLineRequest struct {
	SpecID    int
	ProductID *int // nil means "use the global per-kg price"
	BoxQty    int
	ExtraKg   decimal.Decimal
}

// CreatePurchaseRequest is the input for recording a goods receipt.
type CreatePurchaseRequest struct {
	Supplier     string
	Lines        []PurchaseLineRequest
	Notes        *string
	PurchaseTime *time.Time
	Actor        string
}

// PurchaseLineRequest is a single line within a CreatePurchaseRequest.
type PurchaseLineRequest struct {
	ProductName string
	Kg          decimal.Decimal
	UnitPrice   decimal.Decimal
}

// RecordMoveRequest is the input for a manual inventory move.
type RecordMoveRequest struct {
	MoveType core.MoveType
	Source   string
	Kg       decimal.Decimal
	Notes    *string
	Actor    string
}

// ReconcileRequest is the input for a physical-count reconciliation.
type ReconcileRequest struct {
	ActualKg decimal.Decimal
	Notes    *string
	Actor    string
}

// CreateRemittanceRequest is the input for recording a payment against a
// credit sale.
type CreateRemittanceRequest struct {
	SaleID         string
	Amount         decimal.Decimal
	Notes          *string
	RemittanceTime *time.Time
	Actor          string
}
