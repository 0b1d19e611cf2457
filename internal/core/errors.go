package core

import "errors"

// Sentinel errors for validation and business-rule failures. Engines wrap
// these with fmt.Errorf("%w: ...") to attach detail; callers branch with
// errors.Is. Validation failures are always raised before any write, so a
// returned sentinel implies no partial state was persisted.
var (
	ErrCustomerNotFound = errors.New("customer not found")
	ErrCustomerInactive = errors.New("customer is inactive")
	ErrCreditNotAllowed = errors.New("customer is not allowed credit payment")
	ErrEmptyOrder       = errors.New("order must have at least one line")
	ErrInvalidSpec      = errors.New("spec not found or inactive")
	ErrInvalidProduct   = errors.New("product not found or inactive")
	ErrInvalidPayment   = errors.New("invalid payment type")

	ErrSaleNotFound  = errors.New("sale not found")
	ErrAlreadyVoided = errors.New("record is already voided")
	ErrMissingReason = errors.New("void reason is required")

	ErrPurchaseNotFound = errors.New("purchase not found")
	ErrInvalidLine      = errors.New("invalid purchase line")

	ErrInvalidMoveType = errors.New("invalid stock move type")

	ErrSaleNotActive = errors.New("sale is not active")
	ErrNotCreditSale = errors.New("sale is not a credit sale")
	ErrAlreadyPaid   = errors.New("sale is already fully paid")
	ErrInvalidAmount = errors.New("amount must be greater than zero")
	ErrOverpayment   = errors.New("amount exceeds unpaid balance")
)
