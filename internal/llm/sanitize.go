package llm

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	reDecimalStr = regexp.MustCompile(`^\d+(\.\d{1,2})?$`)
	reDigitsOnly = regexp.MustCompile(`\D`)

	moneyKeys = []string{"subtotal", "vat_amount", "total_amount"}
)

// SanitizeFields repairs common model output defects so a mostly-right
// answer can still validate: numeric money values become strings, nulls and
// empties are dropped, the tax ID loses its separators, and unknown keys go.
func SanitizeFields(doc []byte) ([]byte, []string, error) {
	var m map[string]any
	if err := json.Unmarshal(doc, &m); err != nil {
		return nil, nil, fmt.Errorf("sanitize: decode: %w", err)
	}

	var dropped []string
	drop := func(k, reason string) {
		delete(m, k)
		dropped = append(dropped, k+"("+reason+")")
	}

	// money: coerce numbers to two-decimal strings, strip thousands commas
	for _, k := range moneyKeys {
		v, ok := m[k]
		if !ok {
			continue
		}
		switch t := v.(type) {
		case nil:
			drop(k, "null")
		case float64:
			m[k] = fmt.Sprintf("%.2f", t)
		case string:
			s := strings.ReplaceAll(strings.TrimSpace(t), ",", "")
			if s == "" || strings.EqualFold(s, "null") {
				drop(k, "empty")
				continue
			}
			if !reDecimalStr.MatchString(s) {
				if f, err := strconv.ParseFloat(s, 64); err == nil && f >= 0 {
					s = fmt.Sprintf("%.2f", f)
				} else {
					drop(k, "unparsable")
					continue
				}
			}
			m[k] = s
		default:
			drop(k, "type")
		}
	}

	// tax_id: keep digits only, must end up 13 long
	if v, ok := m["tax_id"].(string); ok {
		digits := reDigitsOnly.ReplaceAllString(v, "")
		if len(digits) == 13 {
			m["tax_id"] = digits
		} else {
			drop("tax_id", "length")
		}
	}

	// tax_option: normalize casing and synonyms
	if v, ok := m["tax_option"].(string); ok {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "in", "inclusive", "included":
			m["tax_option"] = "in"
		case "ex", "exclusive", "excluded":
			m["tax_option"] = "ex"
		default:
			drop("tax_option", "value")
		}
	}

	// telephone: strip separators
	if v, ok := m["telephone"].(string); ok {
		m["telephone"] = reDigitsOnly.ReplaceAllString(v, "")
	}

	// vat_rate: "7%" -> "7", 7.0 -> "7"
	switch t := m["vat_rate"].(type) {
	case float64:
		m["vat_rate"] = strconv.Itoa(int(t))
	case string:
		m["vat_rate"] = strings.TrimSuffix(strings.TrimSpace(t), "%")
	}

	// drop null or blank strings, then everything outside the schema
	allowed := map[string]struct{}{
		"invoice_number": {}, "issue_date": {}, "due_date": {}, "tax_date": {},
		"reference": {}, "organization": {}, "branch": {}, "address": {},
		"telephone": {}, "email": {}, "tax_id": {}, "tax_option": {},
		"vat_rate": {}, "subtotal": {}, "vat_amount": {}, "total_amount": {},
		"confidence": {},
	}
	for k, v := range m {
		if v == nil {
			drop(k, "null")
			continue
		}
		if s, ok := v.(string); ok && strings.TrimSpace(s) == "" {
			drop(k, "empty")
			continue
		}
		if _, ok := allowed[k]; !ok {
			drop(k, "unknown")
		}
	}

	out, err := json.Marshal(m)
	if err != nil {
		return nil, dropped, fmt.Errorf("sanitize: encode: %w", err)
	}
	return out, dropped, nil
}
