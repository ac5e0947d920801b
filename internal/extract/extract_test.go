package extract

import (
	"bytes"
	"testing"
	"text/template"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rmtsu9/OCRdocTH/constants"
	"github.com/rmtsu9/OCRdocTH/internal/patterns"
)

const sampleInvoice = `ใบเสร็จรับเงิน/ใบกำกับภาษี
บริษัท ซี 111 เดคคอร์ จำกัด (สาขาที่ 00001)
ที่อยู่ 99 หมู่ 4 ถนนพหลโยธิน
ตำบลคลองหนึ่ง อำเภอคลองหลวง จังหวัดปทุมธานี 12120
โทร 02-123-4567
เลขประจำตัวผู้เสียภาษี 0135556300952
เลขที่บิล CT 68-000612
วันที่ 1/8/2568
สินค้า กระเบื้อง 60x60 จำนวน 20 กล่อง
รวมเป็นเงิน 5,449.60
ภาษีมูลค่าเพิ่ม 7% 381.47
ยอดเงินสุทธิ 5,831.07`

func newExtractor(t *testing.T) *Extractor {
	t.Helper()
	reg, err := patterns.NewRegistry()
	require.NoError(t, err)
	return New(reg, Config{})
}

func TestExtract_SampleInvoice(t *testing.T) {
	e := newExtractor(t)
	fields := e.Extract(sampleInvoice)

	inv := fields[constants.FieldInvoiceNumber]
	assert.Equal(t, constants.StatusValid, inv.Status)
	assert.Equal(t, "CT68-000612", inv.Text)
	assert.Equal(t, "labeled-series", inv.Rule)

	date := fields[constants.FieldIssueDate]
	require.Equal(t, constants.StatusValid, date.Status)
	require.NotNil(t, date.Date)
	assert.Equal(t, time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC), *date.Date)
	assert.Equal(t, "2025-08-01", date.Text)

	taxID := fields[constants.FieldTaxID]
	assert.Equal(t, constants.StatusValid, taxID.Status)
	assert.Equal(t, "0135556300952", taxID.Text)

	org := fields[constants.FieldOrganization]
	assert.Equal(t, constants.StatusValid, org.Status)
	assert.Equal(t, "บริษัท ซี 111 เดคคอร์ จำกัด", org.Text)

	branch := fields[constants.FieldBranch]
	assert.Equal(t, "00001", branch.Text)

	tel := fields[constants.FieldTelephone]
	assert.Equal(t, "021234567", tel.Text)

	total := fields[constants.FieldTotalAmount]
	require.Equal(t, constants.StatusValid, total.Status)
	require.NotNil(t, total.Amount)
	assert.True(t, total.Amount.Equal(decimal.RequireFromString("5831.07")))
	assert.Equal(t, "5831.07", total.Text)

	sub := fields[constants.FieldSubtotal]
	require.NotNil(t, sub.Amount)
	assert.True(t, sub.Amount.Equal(decimal.RequireFromString("5449.60")))

	vat := fields[constants.FieldVATAmount]
	require.NotNil(t, vat.Amount)
	assert.True(t, vat.Amount.Equal(decimal.RequireFromString("381.47")))

	rate := fields[constants.FieldVATRate]
	assert.Equal(t, "7", rate.Text)
}

func TestExtract_MissingFields(t *testing.T) {
	e := newExtractor(t)
	fields := e.Extract("รายการสินค้า กระเบื้องปูพื้น")

	for _, key := range []constants.FieldKey{
		constants.FieldInvoiceNumber,
		constants.FieldIssueDate,
		constants.FieldTaxID,
		constants.FieldTotalAmount,
		constants.FieldEmail,
	} {
		f := fields[key]
		assert.Equal(t, constants.StatusMissing, f.Status, "field %s", key)
		assert.Empty(t, f.Text)
		assert.Nil(t, f.Date)
		assert.Nil(t, f.Amount)
		assert.Zero(t, f.Confidence)
	}
}

func TestExtract_AllFieldsPresentInResult(t *testing.T) {
	e := newExtractor(t)
	fields := e.Extract("")
	assert.Len(t, fields, len(constants.Fields))
}

func TestExtract_Deterministic(t *testing.T) {
	e := newExtractor(t)
	first := e.Extract(sampleInvoice)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, e.Extract(sampleInvoice))
	}
}

func TestExtract_AnchorProximityTieBreak(t *testing.T) {
	// two document numbers match the bare pattern; the one sitting next to
	// the bill-number label wins even though the other appears first
	text := `รายการ CT 67-111111
สินค้า กระเบื้อง
เลขที่บิล ดูบรรทัดถัดไป
CT 68-000612`
	e := newExtractor(t)
	fields := e.Extract(text)

	inv := fields[constants.FieldInvoiceNumber]
	require.Equal(t, constants.StatusValid, inv.Status)
	assert.Equal(t, "CT68-000612", inv.Text)
	assert.Equal(t, "bare-series", inv.Rule)
}

func TestExtract_FirstOccurrenceWithoutAnchor(t *testing.T) {
	text := "รายการ CT 67-111111 และ CT 68-000612"
	e := newExtractor(t)
	fields := e.Extract(text)

	inv := fields[constants.FieldInvoiceNumber]
	require.Equal(t, constants.StatusValid, inv.Status)
	assert.Equal(t, "CT67-111111", inv.Text)
}

func TestExtract_SuspectOnConversionFailure(t *testing.T) {
	e := newExtractor(t)
	fields := e.Extract("วันที่ 31/2/2568")

	date := fields[constants.FieldIssueDate]
	assert.Equal(t, constants.StatusSuspect, date.Status)
	assert.Contains(t, date.Checks, CheckDateParse)
	assert.Nil(t, date.Date)
	assert.NotEmpty(t, date.Raw)
}

func TestExtract_AmountOutOfRange(t *testing.T) {
	e := newExtractor(t)
	fields := e.Extract("ยอดเงินสุทธิ 99,000,000.00")

	total := fields[constants.FieldTotalAmount]
	assert.Equal(t, constants.StatusSuspect, total.Status)
	assert.Contains(t, total.Checks, CheckAmountRange)
	assert.Nil(t, total.Amount)
}

// invoiceTemplate renders a synthetic document from known field values so
// extraction can be checked against the values that produced the text.
var invoiceTemplate = template.Must(template.New("invoice").Parse(`ใบเสร็จรับเงิน/ใบกำกับภาษี
{{.Org}}
เลขประจำตัวผู้เสียภาษี {{.TaxID}}
เลขที่บิล {{.Invoice}}
วันที่ {{.Date}}
รวมเป็นเงิน {{.Subtotal}}
ภาษีมูลค่าเพิ่ม 7% {{.VAT}}
ยอดเงินสุทธิ {{.Total}}
`))

type syntheticInvoice struct {
	Org      string
	TaxID    string
	Invoice  string
	Date     string
	Subtotal string
	VAT      string
	Total    string
}

func TestExtract_SyntheticRoundTrip(t *testing.T) {
	e := newExtractor(t)

	invoices := []struct{ written, want string }{
		{"CT 68-000612", "CT68-000612"},
		{"ct68-000001", "CT68-000001"},
		{"INV 25 123456", "INV25123456"},
	}
	dates := []struct{ written, want string }{
		{"1/8/2568", "2025-08-01"},
		{"15-01-2567", "2024-01-15"},
		{"31.12.2024", "2024-12-31"},
	}
	amounts := []struct{ sub, vat, total, wantSub, wantVAT, wantTotal string }{
		{"100.00", "7.00", "107.00", "100.00", "7.00", "107.00"},
		{"5,449.60", "381.47", "5,831.07", "5449.60", "381.47", "5831.07"},
		{"1,250,000.00", "87,500.00", "1,337,500.00", "1250000.00", "87500.00", "1337500.00"},
	}
	taxIDs := []string{"0105556100739", "0135563000952"}

	for _, inv := range invoices {
		for _, date := range dates {
			for _, amt := range amounts {
				for _, taxID := range taxIDs {
					doc := syntheticInvoice{
						Org:      "บริษัท ทดสอบการอ่านเอกสาร จำกัด",
						TaxID:    taxID,
						Invoice:  inv.written,
						Date:     date.written,
						Subtotal: amt.sub,
						VAT:      amt.vat,
						Total:    amt.total,
					}
					var buf bytes.Buffer
					require.NoError(t, invoiceTemplate.Execute(&buf, doc))

					fields := e.Extract(buf.String())
					label := inv.written + " " + date.written + " " + amt.total

					assert.Equal(t, inv.want, fields[constants.FieldInvoiceNumber].Text, label)
					assert.Equal(t, date.want, fields[constants.FieldIssueDate].Text, label)
					assert.Equal(t, taxID, fields[constants.FieldTaxID].Text, label)
					assert.Equal(t, amt.wantSub, fields[constants.FieldSubtotal].Text, label)
					assert.Equal(t, amt.wantVAT, fields[constants.FieldVATAmount].Text, label)
					assert.Equal(t, amt.wantTotal, fields[constants.FieldTotalAmount].Text, label)
					assert.Equal(t, doc.Org, fields[constants.FieldOrganization].Text, label)
					assert.Equal(t, "7", fields[constants.FieldVATRate].Text, label)
				}
			}
		}
	}
}

func TestParseThaiDate(t *testing.T) {
	cases := []struct {
		in   string
		want time.Time
		ok   bool
	}{
		{"1/8/2568", time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC), true},
		{"01-08-2025", time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC), true},
		{"15 สิงหาคม 2568", time.Date(2025, 8, 15, 0, 0, 0, 0, time.UTC), true},
		{"15 ส.ค. 2568", time.Date(2025, 8, 15, 0, 0, 0, 0, time.UTC), true},
		{"31.12.2567", time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC), true},
		{"5/1/25", time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC), true},
		{"31/2/2568", time.Time{}, false},
		{"15 เดือนแปลก 2568", time.Time{}, false},
		{"not a date", time.Time{}, false},
	}
	for _, tc := range cases {
		got, ok := ParseThaiDate(tc.in)
		assert.Equal(t, tc.ok, ok, "input %q", tc.in)
		if tc.ok {
			assert.Equal(t, tc.want, got, "input %q", tc.in)
		}
	}
}
