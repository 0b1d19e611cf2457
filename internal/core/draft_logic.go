package core

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Normalize cleans up model output in place: trims whitespace, lowercases the
// payment type, and fills empty numeric strings with "0". Call before
// Validate.
func (d *SaleDraft) Normalize() {
	d.CustomerName = strings.TrimSpace(d.CustomerName)
	d.PaymentType = strings.ToLower(strings.TrimSpace(d.PaymentType))
	d.Discount = strings.TrimSpace(d.Discount)
	if d.Discount == "" {
		d.Discount = "0"
	}
	for i := range d.Lines {
		line := &d.Lines[i]
		line.SpecName = strings.TrimSpace(line.SpecName)
		line.ProductName = strings.TrimSpace(line.ProductName)
		line.ExtraKg = strings.TrimSpace(line.ExtraKg)
		if line.ExtraKg == "" {
			line.ExtraKg = "0"
		}
	}
}

// Validate checks structural integrity of a normalized draft. Catalog
// resolution (does the customer or spec actually exist) is deliberately left
// to the sale engine; this only rejects drafts no engine call could accept.
func (d *SaleDraft) Validate() error {
	if d.CustomerName == "" {
		return fmt.Errorf("draft has no customer name")
	}
	if d.PaymentType != string(PaymentCash) && d.PaymentType != string(PaymentCredit) {
		return fmt.Errorf("draft has invalid payment type %q", d.PaymentType)
	}
	if discount, err := decimal.NewFromString(d.Discount); err != nil {
		return fmt.Errorf("draft has non-numeric discount %q", d.Discount)
	} else if discount.IsNegative() {
		return fmt.Errorf("draft has negative discount %s", discount)
	}
	if len(d.Lines) == 0 {
		return fmt.Errorf("draft has no lines")
	}
	for i, line := range d.Lines {
		if line.SpecName == "" {
			return fmt.Errorf("draft line %d has no spec name", i+1)
		}
		if line.BoxQty < 0 {
			return fmt.Errorf("draft line %d has negative box qty %d", i+1, line.BoxQty)
		}
		extraKg, err := decimal.NewFromString(line.ExtraKg)
		if err != nil {
			return fmt.Errorf("draft line %d has non-numeric extra kg %q", i+1, line.ExtraKg)
		}
		if extraKg.IsNegative() {
			return fmt.Errorf("draft line %d has negative extra kg %s", i+1, extraKg)
		}
		if line.BoxQty == 0 && extraKg.IsZero() {
			return fmt.Errorf("draft line %d has no weight", i+1)
		}
	}
	return nil
}

// Validate ensures the intake response names exactly one outcome.
func (r *IntakeResponse) Validate() error {
	if r.IsClarificationRequest {
		if r.Clarification == nil || strings.TrimSpace(r.Clarification.Message) == "" {
			return fmt.Errorf("clarification request has no message")
		}
		return nil
	}
	if r.Draft == nil {
		return fmt.Errorf("response has neither draft nor clarification")
	}
	r.Draft.Normalize()
	return r.Draft.Validate()
}
