package core

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentType string

const (
	PaymentCash   PaymentType = "cash"
	PaymentCredit PaymentType = "credit"
)

type PaymentStatus string

const (
	PaymentUnpaid  PaymentStatus = "unpaid"
	PaymentPartial PaymentStatus = "partial"
	PaymentPaid    PaymentStatus = "paid"
)

// RecordStatus is the soft-delete state shared by sales, purchases and stock
// moves. Rows are never deleted; voiding flips the status and records who,
// when and why.
type RecordStatus string

const (
	StatusActive RecordStatus = "active"
	StatusVoid   RecordStatus = "void"
)

type MoveType string

const (
	MovePurchaseIn    MoveType = "purchase-in"
	MoveTransfer      MoveType = "transfer"
	MoveReturn        MoveType = "return"
	MoveCountSurplus  MoveType = "count-surplus"
	MoveCountShortage MoveType = "count-shortage"
	MoveSale          MoveType = "sale"
)

type AuditAction string

const (
	AuditInsert AuditAction = "INSERT"
	AuditUpdate AuditAction = "UPDATE"
	AuditVoid   AuditAction = "VOID"
)

// Spec is a packaging template: a fixed weight per box used to convert box
// counts into kilograms.
type Spec struct {
	ID        int              `json:"id"`
	Name      string           `json:"name"`
	Width     *decimal.Decimal `json:"width,omitempty"`
	Length    *decimal.Decimal `json:"length,omitempty"`
	KgPerBox  decimal.Decimal  `json:"kg_per_box"`
	Active    bool             `json:"active"`
	CreatedBy string           `json:"created_by"`
	CreatedAt time.Time        `json:"created_at"`
}

type Product struct {
	ID          int             `json:"id"`
	Name        string          `json:"name"`
	CashPrice   decimal.Decimal `json:"cash_price"`
	CreditPrice decimal.Decimal `json:"credit_price"`
	Active      bool            `json:"active"`
	CreatedBy   string          `json:"created_by"`
	CreatedAt   time.Time       `json:"created_at"`
}

type Customer struct {
	ID            int       `json:"id"`
	Name          string    `json:"name"`
	CreditAllowed bool      `json:"credit_allowed"`
	Active        bool      `json:"active"`
	Notes         *string   `json:"notes,omitempty"`
	CreatedBy     string    `json:"created_by"`
	CreatedAt     time.Time `json:"created_at"`
}

// Sale is a transaction header. TotalKg and TotalAmount always equal the sum
// over the items (adjusted by discount or manual override) — engines recompute
// them explicitly on creation, never relying on persistence hooks.
type Sale struct {
	ID                string           `json:"id"`
	SaleTime          time.Time        `json:"sale_time"`
	CustomerID        int              `json:"customer_id"`
	CustomerName      string           `json:"customer_name"`
	PaymentType       PaymentType      `json:"payment_type"`
	PaymentStatus     PaymentStatus    `json:"payment_status"`
	TotalKg           decimal.Decimal  `json:"total_kg"`
	TotalAmount       decimal.Decimal  `json:"total_amount"`
	Discount          decimal.Decimal  `json:"discount"`
	ManualTotalAmount *decimal.Decimal `json:"manual_total_amount,omitempty"`
	Status            RecordStatus     `json:"status"`
	VoidReason        *string          `json:"void_reason,omitempty"`
	VoidTime          *time.Time       `json:"void_time,omitempty"`
	VoidBy            *string          `json:"void_by,omitempty"`
	CreatedBy         string           `json:"created_by"`
	CreatedAt         time.Time        `json:"created_at"`
	Items             []SaleItem       `json:"items"`
}

// SaleItem is a single line within a Sale. SubtotalKg and TotalAmount are
// derived at creation: box_qty × spec.kg_per_box + extra_kg, priced per kg.
// UnitPrice is nil when neither the product nor the global config carries a
// price for the sale's payment type.
type SaleItem struct {
	ID          int              `json:"id"`
	SaleID      string           `json:"sale_id"`
	SpecID      int              `json:"spec_id"`
	SpecName    string           `json:"spec_name"`
	ProductID   *int             `json:"product_id,omitempty"`
	ProductName *string          `json:"product_name,omitempty"`
	BoxQty      int              `json:"box_qty"`
	ExtraKg     decimal.Decimal  `json:"extra_kg"`
	SubtotalKg  decimal.Decimal  `json:"subtotal_kg"`
	UnitPrice   *decimal.Decimal `json:"unit_price,omitempty"`
	TotalAmount decimal.Decimal  `json:"total_amount"`
}

type Purchase struct {
	ID           string          `json:"id"`
	PurchaseTime time.Time       `json:"purchase_time"`
	Supplier     string          `json:"supplier"`
	TotalKg      decimal.Decimal `json:"total_kg"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
	Notes        *string         `json:"notes,omitempty"`
	Status       RecordStatus    `json:"status"`
	VoidReason   *string         `json:"void_reason,omitempty"`
	VoidTime     *time.Time      `json:"void_time,omitempty"`
	VoidBy       *string         `json:"void_by,omitempty"`
	CreatedBy    string          `json:"created_by"`
	CreatedAt    time.Time       `json:"created_at"`
	Items        []PurchaseItem  `json:"items"`
}

// PurchaseItem is a FIFO cost batch: its kg and unit price are consumed in
// chronological order by the costing engine.
type PurchaseItem struct {
	ID          int             `json:"id"`
	PurchaseID  string          `json:"purchase_id"`
	ProductName string          `json:"product_name"`
	Kg          decimal.Decimal `json:"kg"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

// StockMove is one signed entry in the append-only inventory ledger.
// Current stock is the sum of active moves; no other field caches it.
type StockMove struct {
	ID            int             `json:"id"`
	MoveType      MoveType        `json:"move_type"`
	Source        string          `json:"source"`
	Kg            decimal.Decimal `json:"kg"`
	MoveTime      time.Time       `json:"move_time"`
	ReferenceID   *string         `json:"reference_id,omitempty"`
	ReferenceType *string         `json:"reference_type,omitempty"`
	Status        RecordStatus    `json:"status"`
	VoidReason    *string         `json:"void_reason,omitempty"`
	VoidTime      *time.Time      `json:"void_time,omitempty"`
	VoidBy        *string         `json:"void_by,omitempty"`
	Notes         *string         `json:"notes,omitempty"`
	CreatedBy     string          `json:"created_by"`
	CreatedAt     time.Time       `json:"created_at"`
}

type Remittance struct {
	ID             int             `json:"id"`
	SaleID         string          `json:"sale_id"`
	Amount         decimal.Decimal `json:"amount"`
	RemittanceTime time.Time       `json:"remittance_time"`
	Notes          *string         `json:"notes,omitempty"`
	CreatedBy      string          `json:"created_by"`
	CreatedAt      time.Time       `json:"created_at"`
}

// InventoryCheck is a physical-count reconciliation event. A nonzero
// difference triggers a compensating count-surplus/count-shortage move
// written atomically with the check.
type InventoryCheck struct {
	ID            int             `json:"id"`
	CheckTime     time.Time       `json:"check_time"`
	ActualKg      decimal.Decimal `json:"actual_kg"`
	TheoreticalKg decimal.Decimal `json:"theoretical_kg"`
	DifferenceKg  decimal.Decimal `json:"difference_kg"`
	Notes         *string         `json:"notes,omitempty"`
	CreatedBy     string          `json:"created_by"`
}

type AuditLog struct {
	ID        int         `json:"id"`
	TableName string      `json:"table_name"`
	RecordID  string      `json:"record_id"`
	Action    AuditAction `json:"action"`
	OldValue  *string     `json:"old_value,omitempty"`
	NewValue  *string     `json:"new_value,omitempty"`
	CreatedBy string      `json:"created_by"`
	CreatedAt time.Time   `json:"created_at"`
}

type ConfigEntry struct {
	Key         string    `json:"key"`
	Value       string    `json:"value"`
	Description *string   `json:"description,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// DraftLine is a single order line proposed by the intake assistant.
type DraftLine struct {
	SpecName    string `json:"spec_name" jsonschema_description:"The exact packaging spec name from the provided catalog"`
	ProductName string `json:"product_name" jsonschema_description:"The exact product name from the catalog, or empty string to use the global per-kg price"`
	BoxQty      int    `json:"box_qty" jsonschema_description:"Number of whole boxes (>= 0)"`
	ExtraKg     string `json:"extra_kg" jsonschema_description:"Loose weight in kg beyond whole boxes, as a decimal string (e.g. \"5\" or \"2.5\"), \"0\" if none"`
}

// SaleDraft is the AI-generated interpretation of a natural-language order.
// It is a proposal only: callers confirm and submit it through CreateSale.
type SaleDraft struct {
	CustomerName string      `json:"customer_name" jsonschema_description:"The exact customer name from the provided customer list"`
	PaymentType  string      `json:"payment_type" jsonschema_description:"Either \"cash\" or \"credit\""`
	Discount     string      `json:"discount" jsonschema_description:"Discount amount as a decimal string, \"0\" if none"`
	Confidence   float64     `json:"confidence" jsonschema_description:"Confidence score between 0.0 and 1.0"`
	Reasoning    string      `json:"reasoning" jsonschema_description:"Explanation of how the order text was interpreted"`
	Lines        []DraftLine `json:"lines" jsonschema_description:"The order lines"`
}

// ClarificationRequest is returned by the assistant when the order text is
// ambiguous or missing critical information.
type ClarificationRequest struct {
	Message string `json:"message" jsonschema_description:"A question asking the operator for the missing details"`
}

// IntakeResponse wraps the assistant output: exactly one of Draft or
// Clarification is set.
type IntakeResponse struct {
	IsClarificationRequest bool                  `json:"is_clarification_request" jsonschema_description:"Set to true ONLY if you lack enough information to build a confident draft."`
	Clarification          *ClarificationRequest `json:"clarification,omitempty" jsonschema_description:"Required if is_clarification_request is true."`
	Draft                  *SaleDraft            `json:"draft,omitempty" jsonschema_description:"Required if is_clarification_request is false."`
}
