package llm

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/rmtsu9/OCRdocTH/constants"
	"github.com/rmtsu9/OCRdocTH/internal/entity"
	"github.com/rmtsu9/OCRdocTH/internal/extract"
)

// defaultModelConfidence applies when a refiner reports none of its own.
const defaultModelConfidence = 0.7

var dateKeys = map[constants.FieldKey]struct{}{
	constants.FieldIssueDate: {},
	constants.FieldDueDate:   {},
	constants.FieldTaxDate:   {},
}

var amountKeys = map[constants.FieldKey]struct{}{
	constants.FieldSubtotal:    {},
	constants.FieldVATAmount:   {},
	constants.FieldTotalAmount: {},
}

// Merge fills missing and suspect fields in the rule engine's field map from
// refiner output. Valid rule fields are never overwritten, and a refiner
// value that fails typed conversion is ignored rather than degrading the
// record further. The input map is not mutated.
func Merge(fields map[constants.FieldKey]entity.Field, refined InvoiceFields, refinerName string) map[constants.FieldKey]entity.Field {
	conf := refined.ModelConfidence
	if conf <= 0 || conf > 1 {
		conf = defaultModelConfidence
	}

	out := make(map[constants.FieldKey]entity.Field, len(fields))
	for key, f := range fields {
		out[key] = f
		if f.Status == constants.StatusValid {
			continue
		}
		value := strings.TrimSpace(refined.Value(key))
		if value == "" {
			continue
		}
		nf, ok := typedField(key, value)
		if !ok {
			continue
		}
		nf.Status = constants.StatusValid
		nf.Source = entity.SourceLLM
		nf.Rule = refinerName
		nf.Confidence = conf
		nf.Raw = f.Raw // keep what the rules saw, if anything
		out[key] = nf
	}
	return out
}

func typedField(key constants.FieldKey, value string) (entity.Field, bool) {
	f := entity.Field{Key: key}
	switch {
	case isDateKey(key):
		d, ok := extract.ParseThaiDate(value)
		if !ok {
			return f, false
		}
		f.Date = &d
		f.Text = d.Format("2006-01-02")
	case isAmountKey(key):
		amt, err := decimal.NewFromString(strings.ReplaceAll(value, ",", ""))
		if err != nil || !amt.IsPositive() {
			return f, false
		}
		f.Amount = &amt
		f.Text = amt.StringFixed(2)
	case key == constants.FieldTaxID:
		if len(value) != 13 {
			return f, false
		}
		f.Text = value
	default:
		f.Text = value
	}
	return f, true
}

func isDateKey(key constants.FieldKey) bool {
	_, ok := dateKeys[key]
	return ok
}

func isAmountKey(key constants.FieldKey) bool {
	_, ok := amountKeys[key]
	return ok
}
