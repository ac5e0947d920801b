package constants

// FieldKey identifies one extractable invoice field. The declared order of
// Fields is the canonical output order for records and exports.
type FieldKey string

const (
	FieldInvoiceNumber FieldKey = "invoice_number"
	FieldIssueDate     FieldKey = "issue_date"
	FieldDueDate       FieldKey = "due_date"
	FieldTaxDate       FieldKey = "tax_date"
	FieldReference     FieldKey = "reference"
	FieldOrganization  FieldKey = "organization"
	FieldBranch        FieldKey = "branch"
	FieldAddress       FieldKey = "address"
	FieldTelephone     FieldKey = "telephone"
	FieldEmail         FieldKey = "email"
	FieldTaxID         FieldKey = "tax_id"
	FieldTaxOption     FieldKey = "tax_option"
	FieldVATRate       FieldKey = "vat_rate"
	FieldSubtotal      FieldKey = "subtotal"
	FieldVATAmount     FieldKey = "vat_amount"
	FieldTotalAmount   FieldKey = "total_amount"
)

// Fields lists every extractable field in canonical order.
var Fields = []FieldKey{
	FieldInvoiceNumber,
	FieldIssueDate,
	FieldDueDate,
	FieldTaxDate,
	FieldReference,
	FieldOrganization,
	FieldBranch,
	FieldAddress,
	FieldTelephone,
	FieldEmail,
	FieldTaxID,
	FieldTaxOption,
	FieldVATRate,
	FieldSubtotal,
	FieldVATAmount,
	FieldTotalAmount,
}

// FieldStatus is the per-field extraction status, distinct from any numeric
// OCR confidence.
type FieldStatus string

const (
	StatusValid   FieldStatus = "valid"   // matched and typed successfully
	StatusSuspect FieldStatus = "suspect" // matched but failed conversion or a cross-check
	StatusMissing FieldStatus = "missing" // no rule produced a match
)
