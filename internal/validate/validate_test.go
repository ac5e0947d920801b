package validate

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rmtsu9/OCRdocTH/constants"
	"github.com/rmtsu9/OCRdocTH/internal/entity"
)

func fixedNow() time.Time {
	return time.Date(2025, 8, 20, 12, 0, 0, 0, time.UTC)
}

func newValidator() *Validator {
	cfg := DefaultConfig()
	cfg.Now = fixedNow
	return New(cfg)
}

func amountField(key constants.FieldKey, v string) entity.Field {
	amt := decimal.RequireFromString(v)
	return entity.Field{
		Key: key, Amount: &amt, Text: amt.StringFixed(2),
		Status: constants.StatusValid, Confidence: 0.95, Source: entity.SourceRules,
	}
}

func dateField(key constants.FieldKey, t time.Time) entity.Field {
	return entity.Field{
		Key: key, Date: &t, Text: t.Format("2006-01-02"),
		Status: constants.StatusValid, Confidence: 0.95, Source: entity.SourceRules,
	}
}

func textField(key constants.FieldKey, v string) entity.Field {
	return entity.Field{
		Key: key, Text: v,
		Status: constants.StatusValid, Confidence: 0.95, Source: entity.SourceRules,
	}
}

func TestValidate_ArithmeticConsistent(t *testing.T) {
	fields := map[constants.FieldKey]entity.Field{
		constants.FieldSubtotal:    amountField(constants.FieldSubtotal, "100.00"),
		constants.FieldVATAmount:   amountField(constants.FieldVATAmount, "7.00"),
		constants.FieldTotalAmount: amountField(constants.FieldTotalAmount, "107.00"),
	}
	out := newValidator().Validate(fields)

	for key, f := range out {
		assert.Equal(t, constants.StatusValid, f.Status, "field %s", key)
		assert.Empty(t, f.Checks)
	}
}

func TestValidate_ArithmeticWithinTolerance(t *testing.T) {
	fields := map[constants.FieldKey]entity.Field{
		constants.FieldSubtotal:    amountField(constants.FieldSubtotal, "5449.60"),
		constants.FieldVATAmount:   amountField(constants.FieldVATAmount, "381.47"),
		constants.FieldTotalAmount: amountField(constants.FieldTotalAmount, "5831.00"),
	}
	out := newValidator().Validate(fields)
	assert.Equal(t, constants.StatusValid, out[constants.FieldTotalAmount].Status)
}

func TestValidate_ArithmeticMismatch(t *testing.T) {
	fields := map[constants.FieldKey]entity.Field{
		constants.FieldSubtotal:    amountField(constants.FieldSubtotal, "100.00"),
		constants.FieldVATAmount:   amountField(constants.FieldVATAmount, "7.00"),
		constants.FieldTotalAmount: amountField(constants.FieldTotalAmount, "108.50"),
	}
	out := newValidator().Validate(fields)

	for _, key := range []constants.FieldKey{
		constants.FieldSubtotal, constants.FieldVATAmount, constants.FieldTotalAmount,
	} {
		f := out[key]
		assert.Equal(t, constants.StatusSuspect, f.Status, "field %s", key)
		assert.Contains(t, f.Checks, CheckAmountMismatch)
		// value is kept for review, never dropped
		require.NotNil(t, f.Amount)
	}
}

func TestValidate_ArithmeticSkippedWhenAmountMissing(t *testing.T) {
	fields := map[constants.FieldKey]entity.Field{
		constants.FieldSubtotal:    {Key: constants.FieldSubtotal, Status: constants.StatusMissing},
		constants.FieldVATAmount:   amountField(constants.FieldVATAmount, "7.00"),
		constants.FieldTotalAmount: amountField(constants.FieldTotalAmount, "107.00"),
	}
	out := newValidator().Validate(fields)

	// no cross-derivation: the missing subtotal stays missing and the
	// present amounts stay valid
	assert.Equal(t, constants.StatusMissing, out[constants.FieldSubtotal].Status)
	assert.Nil(t, out[constants.FieldSubtotal].Amount)
	assert.Equal(t, constants.StatusValid, out[constants.FieldTotalAmount].Status)
}

func TestValidTaxIDChecksum(t *testing.T) {
	assert.True(t, ValidTaxIDChecksum("0105556100739"))
	assert.False(t, ValidTaxIDChecksum("0105556100731"))
	assert.False(t, ValidTaxIDChecksum("0135563000952"))
	assert.False(t, ValidTaxIDChecksum("123"))
	assert.False(t, ValidTaxIDChecksum("01055561007x9"))
}

func TestValidate_TaxID(t *testing.T) {
	fields := map[constants.FieldKey]entity.Field{
		constants.FieldTaxID: textField(constants.FieldTaxID, "0135563000952"),
	}
	out := newValidator().Validate(fields)

	f := out[constants.FieldTaxID]
	assert.Equal(t, constants.StatusSuspect, f.Status)
	assert.Contains(t, f.Checks, CheckTaxIDChecksum)
	assert.Equal(t, "0135563000952", f.Text)

	fields[constants.FieldTaxID] = textField(constants.FieldTaxID, "0105556100739")
	out = newValidator().Validate(fields)
	assert.Equal(t, constants.StatusValid, out[constants.FieldTaxID].Status)
}

func TestValidate_Dates(t *testing.T) {
	old := time.Date(1968, 8, 1, 0, 0, 0, 0, time.UTC)
	future := fixedNow().Add(45 * 24 * time.Hour)
	ok := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)

	fields := map[constants.FieldKey]entity.Field{
		constants.FieldIssueDate: dateField(constants.FieldIssueDate, old),
		constants.FieldDueDate:   dateField(constants.FieldDueDate, future),
		constants.FieldTaxDate:   dateField(constants.FieldTaxDate, ok),
	}
	out := newValidator().Validate(fields)

	assert.Contains(t, out[constants.FieldIssueDate].Checks, CheckDateTooOld)
	assert.Equal(t, constants.StatusSuspect, out[constants.FieldIssueDate].Status)
	assert.Contains(t, out[constants.FieldDueDate].Checks, CheckDateInFuture)
	assert.Equal(t, constants.StatusValid, out[constants.FieldTaxDate].Status)
}

func TestValidate_VATRate(t *testing.T) {
	for _, rate := range []string{"0", "7", "10"} {
		fields := map[constants.FieldKey]entity.Field{
			constants.FieldVATRate: textField(constants.FieldVATRate, rate),
		}
		out := newValidator().Validate(fields)
		assert.Equal(t, constants.StatusValid, out[constants.FieldVATRate].Status, "rate %s", rate)
	}

	fields := map[constants.FieldKey]entity.Field{
		constants.FieldVATRate: textField(constants.FieldVATRate, "13"),
	}
	out := newValidator().Validate(fields)
	assert.Contains(t, out[constants.FieldVATRate].Checks, CheckVATRateOdd)
}

func TestValidate_DoesNotMutateInput(t *testing.T) {
	fields := map[constants.FieldKey]entity.Field{
		constants.FieldSubtotal:    amountField(constants.FieldSubtotal, "100.00"),
		constants.FieldVATAmount:   amountField(constants.FieldVATAmount, "7.00"),
		constants.FieldTotalAmount: amountField(constants.FieldTotalAmount, "200.00"),
	}
	_ = newValidator().Validate(fields)

	assert.Equal(t, constants.StatusValid, fields[constants.FieldTotalAmount].Status)
	assert.Empty(t, fields[constants.FieldTotalAmount].Checks)
}
