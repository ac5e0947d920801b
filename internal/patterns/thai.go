package patterns

import (
	"regexp"
	"strings"

	"github.com/rmtsu9/OCRdocTH/constants"
)

// ThaiMonths maps Thai month names and abbreviations to their two-digit
// month numbers. Shared with the date converter.
var ThaiMonths = map[string]string{
	"มกราคม": "01", "กุมภาพันธ์": "02", "มีนาคม": "03", "เมษายน": "04",
	"พฤษภาคม": "05", "มิถุนายน": "06", "กรกฎาคม": "07", "สิงหาคม": "08",
	"กันยายน": "09", "ตุลาคม": "10", "พฤศจิกายน": "11", "ธันวาคม": "12",
	"ม.ค.": "01", "ก.พ.": "02", "มี.ค.": "03", "เม.ย.": "04",
	"พ.ค.": "05", "มิ.ย.": "06", "ก.ค.": "07", "ส.ค.": "08",
	"ก.ย.": "09", "ต.ค.": "10", "พ.ย.": "11", "ธ.ค.": "12",
}

const (
	// dateNumeric matches d/m/y with -, . or / separators.
	dateNumeric = `(\d{1,2})\s*[/.-]\s*(\d{1,2})\s*[/.-]\s*(\d{4})`
	dateShort   = `(\d{1,2})\s*[/.-]\s*(\d{1,2})\s*[/.-]\s*(\d{2})\b`
	dateThai    = `(\d{1,2})\s+([ก-๙]{1,4}\.?[ก-๙]{0,12}\.?)\s+(\d{4})`
	// amount matches 1,234.56 style figures; a decimal part is optional.
	amount = `(\d{1,3}(?:,\d{3})*(?:\.\d{1,2})?|\d+(?:\.\d{1,2})?)`
)

// thaiDefinitions declares the default rule set for Thai tax invoices
// (ใบกำกับภาษี). Field order here is the canonical record order.
func thaiDefinitions() []DefinitionSpec {
	return []DefinitionSpec{
		{
			Key: constants.FieldInvoiceNumber, Kind: KindString, Mandatory: true,
			Anchor: `เลขที่บิล|เลขทีบิล|เลขบิล|เลขที่|หมายเลข|(?i:No\.)`,
			Rules: []RuleSpec{
				{
					Name:      "labeled-series",
					Pattern:   `(?i)(?:เลขที่บิล|เลขทีบิล|เลขบิล|เลขที่|หมายเลข|No\.?)\s*:?\s*([A-Z]{1,3}\s?\d{2}[-\s]?\d{6,})`,
					Group:     1,
					Transform: upperNoSpaces,
				},
				{
					Name:      "bare-series",
					Pattern:   `([A-Z]{1,3}\s?\d{2}[-\s]?\d{6,})`,
					Group:     1,
					Transform: upperNoSpaces,
				},
				{
					Name:      "labeled-generic",
					Pattern:   `(?i)(?:เลขที่|No\.?)\s*:?\s*([A-Z0-9][A-Z0-9/-]{4,})`,
					Group:     1,
					Transform: upperNoSpaces,
				},
				{
					Name:    "prefix-serial",
					Pattern: `([A-Z]{2,4}[-/]?\d{6,})`,
					Group:   1,
				},
				{
					Name:    "barcode",
					Pattern: `\b(\d{12,13})\b`,
					Group:   1,
				},
			},
		},
		{
			Key: constants.FieldIssueDate, Kind: KindDate, Mandatory: true,
			Anchor: `วันที่|(?i:Date)`,
			Rules: []RuleSpec{
				{Name: "labeled-numeric", Pattern: `(?:วันที่|(?i)date)\s*:?\s*(` + dateNumeric + `)`, Group: 1},
				{Name: "numeric", Pattern: dateNumeric, Group: 0},
				{Name: "thai-month", Pattern: dateThai, Group: 0},
				{Name: "numeric-short", Pattern: dateShort, Group: 0},
			},
		},
		{
			Key: constants.FieldDueDate, Kind: KindDate,
			Anchor: `กำหนด|ครบกำหนด|(?i:Due)`,
			Rules: []RuleSpec{
				{
					Name:    "labeled",
					Pattern: `(?i)(?:กำหนดชำระ|ครบกำหนด|due\s*date|due)\D{0,12}(\d{1,2}\s*[/.-]\s*\d{1,2}\s*[/.-]\s*\d{2,4})`,
					Group:   1,
				},
			},
		},
		{
			Key: constants.FieldTaxDate, Kind: KindDate,
			Rules: []RuleSpec{
				{
					Name:    "labeled",
					Pattern: `(?i)(?:วันที่เสียภาษี|tax\s*date)\D{0,8}(\d{1,2}\s*[/.-]\s*\d{1,2}\s*[/.-]\s*\d{2,4})`,
					Group:   1,
				},
			},
		},
		{
			Key: constants.FieldReference, Kind: KindString,
			Rules: []RuleSpec{
				{
					Name:      "labeled",
					Pattern:   `(?i)(?:เอกสารอ้างอิง|อ้างอิง|reference|ref\.?)\s*:?\s*([A-Z0-9][A-Z0-9/-]{2,})`,
					Group:     1,
					Transform: strings.TrimSpace,
				},
			},
		},
		{
			Key: constants.FieldOrganization, Kind: KindString,
			Rules: []RuleSpec{
				{
					Name:      "header-indicator",
					Pattern:   `(?m)^.*(?:บริษัท|ห้างหุ้นส่วน|ร้าน|องค์การ|มหาวิทยาลัย|โรงงาน|สำนักงาน|ศูนย์|สถาบัน).*$`,
					Group:     0,
					Strategy:  ScanHead,
					HeadLines: 10,
					Transform: cleanOrganization,
				},
			},
		},
		{
			Key: constants.FieldBranch, Kind: KindString,
			Rules: []RuleSpec{
				{
					Name:    "labeled",
					Pattern: `(?:สาขาที่|สาขา)\s*:?\s*(\d{1,5}|สำนักงานใหญ่)`,
					Group:   1,
				},
			},
		},
		{
			Key: constants.FieldAddress, Kind: KindString,
			Rules: []RuleSpec{
				{
					Name:      "indicator-lines",
					Pattern:   `ที่อยู่|จังหวัด|แขวง|เขต|ตำบล|อำเภอ|ถนน|หมู่`,
					Group:     0,
					Strategy:  ScanJoinLines,
					JoinLimit: 3,
					Transform: cleanAddressLine,
				},
			},
		},
		{
			Key: constants.FieldTelephone, Kind: KindString,
			Anchor: `โทรศัพท์|โทร|(?i:Tel)`,
			Rules: []RuleSpec{
				{Name: "landline", Pattern: `\b(0[2-9][\s-]?\d{3}[\s-]?\d{4})\b`, Group: 1, Transform: stripSeparators},
				{Name: "mobile", Pattern: `\b(0[6-9][\s-]?\d{4}[\s-]?\d{4})\b`, Group: 1, Transform: stripSeparators},
			},
		},
		{
			Key: constants.FieldEmail, Kind: KindString,
			Rules: []RuleSpec{
				{Name: "address", Pattern: `([A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,})`, Group: 1},
			},
		},
		{
			Key: constants.FieldTaxID, Kind: KindIdentifier, Mandatory: true,
			Anchor: `เลขประจำตัวผู้เสียภาษี|(?i:Tax\s*ID)`,
			Rules: []RuleSpec{
				{
					Name:    "labeled",
					Pattern: `(?i)(?:เลขประจำตัวผู้เสียภาษี(?:อากร)?|tax\s*id)\D{0,6}((?:\d[\s-]*){12}\d)`,
					Group:   1,
				},
				{
					Name:    "bare-13-digit",
					Pattern: `\b((?:\d[\s-]*){12}\d)\b`,
					Group:   1,
				},
			},
		},
		{
			Key: constants.FieldTaxOption, Kind: KindString,
			Rules: []RuleSpec{
				{
					Name:      "exclusive",
					Pattern:   `(?i)(ไม่รวมภาษี|ก่อนภาษี|excluded|exclusive|before\s*tax)`,
					Group:     1,
					Transform: func(string) string { return "ex" },
				},
				{
					Name:      "inclusive",
					Pattern:   `(?i)(รวมภาษี|included|inclusive)`,
					Group:     1,
					Transform: func(string) string { return "in" },
				},
			},
		},
		{
			Key: constants.FieldVATRate, Kind: KindString,
			Rules: []RuleSpec{
				{Name: "labeled", Pattern: `(?i)(?:VAT|ภาษีมูลค่าเพิ่ม|อัตราภาษี|อัตรา)\s*(\d{1,2})\s*%`, Group: 1},
			},
		},
		{
			Key: constants.FieldSubtotal, Kind: KindAmount,
			Anchor: `รวมเป็นเงิน|รวมทั้งสิ้น|รวมราคา|(?i:Sub\s*-?\s*total)`,
			Rules: []RuleSpec{
				{
					Name:    "labeled",
					Pattern: `(?i)(?:รวมเป็นเงิน|รวมทั้งสิ้น|รวมราคา|ยอดรวมก่อนภาษี|sub\s*-?\s*total)\s*:?\s*` + amount,
					Group:   1,
				},
				{
					Name:    "loose",
					Pattern: `รวม\s*:?\s*(\d{1,3}(?:,\d{3})*\.\d{2})\b`,
					Group:   1,
				},
			},
		},
		{
			Key: constants.FieldVATAmount, Kind: KindAmount,
			Anchor: `ภาษีมูลค่าเพิ่ม|(?i:VAT)|ภาษี`,
			Rules: []RuleSpec{
				{
					Name:    "labeled",
					Pattern: `(?i)(?:ภาษีมูลค่าเพิ่ม|VAT)\s*(?:\d{1,2}\s*%)?\s*:?\s*` + amount,
					Group:   1,
				},
				{
					Name:    "loose",
					Pattern: `ภาษี\s*:?\s*(\d{1,3}(?:,\d{3})*\.\d{2})\b`,
					Group:   1,
				},
			},
		},
		{
			Key: constants.FieldTotalAmount, Kind: KindAmount, Mandatory: true,
			Anchor: `ยอดเงินสุทธิ|ยอดรวมสุทธิ|จำนวนเงินทั้งสิ้น|(?i:Grand\s*Total)`,
			Rules: []RuleSpec{
				{
					Name:    "labeled",
					Pattern: `(?i)(?:ยอดเงินสุทธิ|ยอดรวมสุทธิ|จำนวนเงินทั้งสิ้น|grand\s*total|net\s*total)\s*:?\s*` + amount,
					Group:   1,
				},
				{
					Name:    "total-keyword",
					Pattern: `(?i)total\s*:?\s*` + amount,
					Group:   1,
				},
			},
		},
	}
}

var (
	reSpaces      = regexp.MustCompile(`\s+`)
	reSeparators  = regexp.MustCompile(`[\s-]+`)
	reParenthetic = regexp.MustCompile(`\(.*?\)`)
	reOrgTrailer  = regexp.MustCompile(`\s*(?:ใบกำกับภาษี|ใบเสร็จรับเงิน|ใบ|ที่อยู่|โทร).*$`)
	reAddrLabel   = regexp.MustCompile(`(?i)(?:ที่อยู่|Address)\s*:?\s*`)
)

func upperNoSpaces(s string) string {
	return strings.ToUpper(reSpaces.ReplaceAllString(strings.TrimSpace(s), ""))
}

func stripSeparators(s string) string {
	return reSeparators.ReplaceAllString(s, "")
}

// cleanOrganization trims a company header line down to the company name:
// parenthesized branch suffixes and trailing document boilerplate go.
func cleanOrganization(s string) string {
	s = reParenthetic.ReplaceAllString(s, "")
	s = reOrgTrailer.ReplaceAllString(s, "")
	s = reSpaces.ReplaceAllString(strings.TrimSpace(s), " ")
	// a bare indicator word ("บริษัท" on its own line) is not a name
	if len([]rune(s)) < 8 {
		return ""
	}
	return s
}

func cleanAddressLine(s string) string {
	return strings.TrimSpace(reAddrLabel.ReplaceAllString(s, ""))
}
