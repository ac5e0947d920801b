package llm

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"

	"github.com/rmtsu9/OCRdocTH/constants"
	"github.com/rmtsu9/OCRdocTH/internal/extract"
)

var (
	// mangled bill-number labels still seen in low quality scans
	reBillRecovery = regexp.MustCompile(`(?i)(?:เลขที่บิล|เลขทีบิล|เลขที่)\D{0,10}([Cc][Tt]\s*\d{2}[-\s]*\d{6})`)
	reLooseDate    = regexp.MustCompile(`(\d{1,2}\s*[/.-]\s*\d{1,2}\s*[/.-]\s*\d{2,4})`)
	reCompanyLine  = regexp.MustCompile(`(?m)^.*(?:บริษัท|ห้างหุ้นส่วน|ร้าน).{4,}$`)
	reBillSpaces   = regexp.MustCompile(`[\s-]+`)
)

// RuleRefiner recovers fields with targeted heuristics over the raw OCR
// text. It is the offline fallback when no model provider is configured and
// the second voter in ensemble runs.
type RuleRefiner struct{}

func (RuleRefiner) Name() string { return "rule-fallback" }

func (r RuleRefiner) Refine(_ context.Context, req RefineRequest) (InvoiceFields, []byte, error) {
	var out InvoiceFields

	if needsValue(req, constants.FieldInvoiceNumber) {
		if m := reBillRecovery.FindStringSubmatch(req.OCRText); m != nil {
			digits := reBillSpaces.ReplaceAllString(m[1], "")
			// CT6800061 -> CT68-000612 style
			out.InvoiceNumber = strings.ToUpper(digits[:4]) + "-" + digits[4:]
		}
	}

	if needsValue(req, constants.FieldIssueDate) {
		for _, m := range reLooseDate.FindAllString(req.OCRText, -1) {
			if d, ok := extract.ParseThaiDate(m); ok && d.Year() >= 2000 {
				out.IssueDate = d.Format("2006-01-02")
				break
			}
		}
	}

	if needsValue(req, constants.FieldOrganization) {
		if m := reCompanyLine.FindString(req.OCRText); m != "" {
			out.Organization = strings.TrimSpace(m)
		}
	}

	out.ModelConfidence = 0.6
	raw, err := json.Marshal(out)
	return out, raw, err
}

// needsValue reports whether the baseline left the field missing or suspect.
func needsValue(req RefineRequest, key constants.FieldKey) bool {
	f, ok := req.Baseline.Field(key)
	return !ok || f.Status != constants.StatusValid
}
