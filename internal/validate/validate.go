// Package validate cross-checks extracted fields against each other and
// against domain rules. Checks only downgrade status and record reasons;
// they never remove a value or invent one.
package validate

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/rmtsu9/OCRdocTH/constants"
	"github.com/rmtsu9/OCRdocTH/internal/entity"
)

// Check names recorded on downgraded fields.
const (
	CheckAmountMismatch = "amount_mismatch"
	CheckTaxIDChecksum  = "tax_id_checksum"
	CheckDateTooOld     = "date_too_old"
	CheckDateInFuture   = "date_in_future"
	CheckVATRateOdd     = "vat_rate_unusual"
)

// Config tunes the validator's tolerances.
type Config struct {
	// Tolerance is the max absolute difference, in THB, accepted between
	// subtotal + VAT and the stated total before all three become suspect.
	Tolerance decimal.Decimal
	// MinYear is the earliest plausible invoice year.
	MinYear int
	// MaxFuture is how far past "now" an invoice date may sit; OCR runs can
	// lag a few days behind document dates, not the other way round.
	MaxFuture time.Duration
	// Now is the clock, overridable in tests. Defaults to time.Now.
	Now func() time.Time
}

// DefaultConfig returns the production tolerances: ten satang of rounding
// slack, no invoices older than 2000, none more than 30 days ahead.
func DefaultConfig() Config {
	return Config{
		Tolerance: decimal.RequireFromString("0.10"),
		MinYear:   2000,
		MaxFuture: 30 * 24 * time.Hour,
	}
}

// Validator applies cross-field checks. Safe for concurrent use.
type Validator struct {
	cfg Config
}

func New(cfg Config) *Validator {
	if cfg.Tolerance.IsZero() {
		cfg.Tolerance = decimal.RequireFromString("0.10")
	}
	if cfg.MinYear == 0 {
		cfg.MinYear = 2000
	}
	if cfg.MaxFuture == 0 {
		cfg.MaxFuture = 30 * 24 * time.Hour
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Validator{cfg: cfg}
}

// Validate returns a new field map with statuses downgraded where checks
// fail. Input fields are never mutated; missing fields stay missing.
func (v *Validator) Validate(fields map[constants.FieldKey]entity.Field) map[constants.FieldKey]entity.Field {
	out := make(map[constants.FieldKey]entity.Field, len(fields))
	for k, f := range fields {
		out[k] = cloneField(f)
	}

	v.checkArithmetic(out)
	v.checkTaxID(out)
	v.checkDates(out)
	v.checkVATRate(out)

	return out
}

// checkArithmetic verifies subtotal + VAT = total within tolerance. A
// mismatch cannot say which figure is wrong, so all three become suspect.
func (v *Validator) checkArithmetic(fields map[constants.FieldKey]entity.Field) {
	sub := fields[constants.FieldSubtotal]
	vat := fields[constants.FieldVATAmount]
	total := fields[constants.FieldTotalAmount]
	if sub.Amount == nil || vat.Amount == nil || total.Amount == nil {
		return
	}
	diff := sub.Amount.Add(*vat.Amount).Sub(*total.Amount).Abs()
	if diff.LessThanOrEqual(v.cfg.Tolerance) {
		return
	}
	for _, key := range []constants.FieldKey{
		constants.FieldSubtotal, constants.FieldVATAmount, constants.FieldTotalAmount,
	} {
		downgrade(fields, key, CheckAmountMismatch)
	}
}

func (v *Validator) checkTaxID(fields map[constants.FieldKey]entity.Field) {
	f := fields[constants.FieldTaxID]
	if f.Missing() || len(f.Text) != 13 {
		return
	}
	if !ValidTaxIDChecksum(f.Text) {
		downgrade(fields, constants.FieldTaxID, CheckTaxIDChecksum)
	}
}

func (v *Validator) checkDates(fields map[constants.FieldKey]entity.Field) {
	limit := v.cfg.Now().Add(v.cfg.MaxFuture)
	for _, key := range []constants.FieldKey{
		constants.FieldIssueDate, constants.FieldDueDate, constants.FieldTaxDate,
	} {
		f := fields[key]
		if f.Date == nil {
			continue
		}
		switch {
		case f.Date.Year() < v.cfg.MinYear:
			downgrade(fields, key, CheckDateTooOld)
		case f.Date.After(limit):
			downgrade(fields, key, CheckDateInFuture)
		}
	}
}

// checkVATRate flags rates other than the standard 7% (and the 0% and 10%
// cases the revenue code allows) without rejecting them.
func (v *Validator) checkVATRate(fields map[constants.FieldKey]entity.Field) {
	f := fields[constants.FieldVATRate]
	if f.Text == "" {
		return
	}
	switch f.Text {
	case "0", "7", "10":
		return
	}
	downgrade(fields, constants.FieldVATRate, CheckVATRateOdd)
}

// ValidTaxIDChecksum verifies the mod 11 check digit of a 13-digit Thai
// taxpayer identification number.
func ValidTaxIDChecksum(id string) bool {
	if len(id) != 13 {
		return false
	}
	sum := 0
	for i := 0; i < 12; i++ {
		d := id[i]
		if d < '0' || d > '9' {
			return false
		}
		sum += int(d-'0') * (13 - i)
	}
	last := id[12]
	if last < '0' || last > '9' {
		return false
	}
	check := (11 - sum%11) % 10
	return int(last-'0') == check
}

func downgrade(fields map[constants.FieldKey]entity.Field, key constants.FieldKey, check string) {
	f := fields[key]
	f.Status = constants.StatusSuspect
	f.Checks = append(f.Checks, check)
	if f.Confidence > 0.3 {
		f.Confidence = 0.3
	}
	fields[key] = f
}

func cloneField(f entity.Field) entity.Field {
	if len(f.Checks) > 0 {
		f.Checks = append([]string(nil), f.Checks...)
	}
	return f
}
