package extract

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rmtsu9/OCRdocTH/constants"
	"github.com/rmtsu9/OCRdocTH/internal/entity"
	"github.com/rmtsu9/OCRdocTH/internal/patterns"
)

// Typed conversion failure reasons, recorded on the field's Checks.
const (
	CheckDateParse   = "date_parse"
	CheckAmountParse = "amount_parse"
	CheckAmountRange = "amount_range"
	CheckTaxIDLength = "tax_id_length"
)

// amountMax bounds plausible invoice amounts in THB.
var amountMax = decimal.NewFromInt(10_000_000)

var (
	reDateNumeric = regexp.MustCompile(`(\d{1,2})\s*[/.-]\s*(\d{1,2})\s*[/.-]\s*(\d{2,4})`)
	reDateThai    = regexp.MustCompile(`(\d{1,2})\s+(\S+)\s+(\d{4})`)
	reNonDigits   = regexp.MustCompile(`\D`)
)

// convert applies the field kind's typed conversion to the chosen candidate
// and fills in value, status and check names. A value that matched a rule but
// cannot be typed is suspect, never silently dropped.
func convert(kind patterns.Kind, value string, f *entity.Field) {
	switch kind {
	case patterns.KindDate:
		d, ok := ParseThaiDate(value)
		if !ok {
			markSuspect(f, value, CheckDateParse)
			return
		}
		f.Date = &d
		f.Text = d.Format("2006-01-02")
		f.Status = constants.StatusValid
	case patterns.KindAmount:
		amt, err := decimal.NewFromString(strings.ReplaceAll(value, ",", ""))
		if err != nil {
			markSuspect(f, value, CheckAmountParse)
			return
		}
		if !amt.IsPositive() || amt.GreaterThanOrEqual(amountMax) {
			markSuspect(f, value, CheckAmountRange)
			return
		}
		f.Amount = &amt
		f.Text = amt.StringFixed(2)
		f.Status = constants.StatusValid
	case patterns.KindIdentifier:
		digits := reNonDigits.ReplaceAllString(value, "")
		if len(digits) != 13 {
			markSuspect(f, value, CheckTaxIDLength)
			return
		}
		f.Text = digits
		f.Status = constants.StatusValid
	default:
		f.Text = value
		f.Status = constants.StatusValid
	}
}

func markSuspect(f *entity.Field, value, check string) {
	f.Text = value
	f.Status = constants.StatusSuspect
	f.Checks = append(f.Checks, check)
	if f.Confidence > 0.3 {
		f.Confidence = 0.3
	}
}

// ParseThaiDate parses a day-first date as written on Thai invoices:
// "1/8/2568", "01-08-2025", "1/8/68" or "15 สิงหาคม 2568". Buddhist Era
// years are converted to Gregorian. The result is midnight UTC.
func ParseThaiDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if m := reDateNumeric.FindStringSubmatch(s); m != nil {
		return buildDate(m[1], m[2], m[3])
	}
	if m := reDateThai.FindStringSubmatch(s); m != nil {
		month, ok := patterns.ThaiMonths[strings.TrimSpace(m[2])]
		if !ok {
			return time.Time{}, false
		}
		return buildDate(m[1], month, m[3])
	}
	return time.Time{}, false
}

func buildDate(dayStr, monthStr, yearStr string) (time.Time, bool) {
	day, err1 := strconv.Atoi(dayStr)
	month, err2 := strconv.Atoi(monthStr)
	year, err3 := strconv.Atoi(yearStr)
	if err1 != nil || err2 != nil || err3 != nil {
		return time.Time{}, false
	}
	year = toGregorianYear(year)
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	// reject impossible dates that time.Date would roll over (31/02)
	if t.Day() != day || t.Month() != time.Month(month) || t.Year() != year {
		return time.Time{}, false
	}
	return t, true
}

// toGregorianYear widens two-digit years and converts Buddhist Era years
// (offset 543) to Gregorian.
func toGregorianYear(year int) int {
	if year < 100 {
		if year < 50 {
			year += 2000
		} else {
			year += 1900
		}
	}
	if year > 2400 {
		year -= 543
	}
	return year
}
