// Package llm refines rule-extracted invoice fields with a language model.
// Refinement only ever fills gaps: a field the rule engine extracted as valid
// is never overwritten by a model answer.
package llm

import (
	"context"

	"github.com/rmtsu9/OCRdocTH/constants"
	"github.com/rmtsu9/OCRdocTH/internal/entity"
)

// InvoiceFields is the normalized shape we want back from a refiner. All
// values are strings in canonical form: ISO dates, two-decimal amounts,
// 13 bare digits for the tax ID.
type InvoiceFields struct {
	InvoiceNumber   string  `json:"invoice_number,omitempty"`
	IssueDate       string  `json:"issue_date,omitempty"` // YYYY-MM-DD
	DueDate         string  `json:"due_date,omitempty"`
	TaxDate         string  `json:"tax_date,omitempty"`
	Reference       string  `json:"reference,omitempty"`
	Organization    string  `json:"organization,omitempty"`
	Branch          string  `json:"branch,omitempty"`
	Address         string  `json:"address,omitempty"`
	Telephone       string  `json:"telephone,omitempty"`
	Email           string  `json:"email,omitempty"`
	TaxID           string  `json:"tax_id,omitempty"`     // 13 digits
	TaxOption       string  `json:"tax_option,omitempty"` // "in" | "ex"
	VATRate         string  `json:"vat_rate,omitempty"`
	Subtotal        string  `json:"subtotal,omitempty"`
	VATAmount       string  `json:"vat_amount,omitempty"`
	TotalAmount     string  `json:"total_amount,omitempty"`
	ModelConfidence float32 `json:"confidence,omitempty"` // 0..1
}

// Value returns the string value for a field key, or "".
func (f InvoiceFields) Value(key constants.FieldKey) string {
	switch key {
	case constants.FieldInvoiceNumber:
		return f.InvoiceNumber
	case constants.FieldIssueDate:
		return f.IssueDate
	case constants.FieldDueDate:
		return f.DueDate
	case constants.FieldTaxDate:
		return f.TaxDate
	case constants.FieldReference:
		return f.Reference
	case constants.FieldOrganization:
		return f.Organization
	case constants.FieldBranch:
		return f.Branch
	case constants.FieldAddress:
		return f.Address
	case constants.FieldTelephone:
		return f.Telephone
	case constants.FieldEmail:
		return f.Email
	case constants.FieldTaxID:
		return f.TaxID
	case constants.FieldTaxOption:
		return f.TaxOption
	case constants.FieldVATRate:
		return f.VATRate
	case constants.FieldSubtotal:
		return f.Subtotal
	case constants.FieldVATAmount:
		return f.VATAmount
	case constants.FieldTotalAmount:
		return f.TotalAmount
	}
	return ""
}

// RefineRequest carries the OCR text and the rule engine's baseline record.
type RefineRequest struct {
	OCRText    string
	SourceFile string
	Baseline   entity.InvoiceRecord
}

// Refiner is the interface the pipeline depends on.
type Refiner interface {
	Name() string
	Refine(ctx context.Context, req RefineRequest) (InvoiceFields, []byte /*rawJSON*/, error)
}
