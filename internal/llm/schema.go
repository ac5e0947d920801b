package llm

// BuildInvoiceJSONSchema returns a JSON-Schema (draft 2020-12 subset) as a
// generic map. It is passed to the model as a structured output constraint
// and also used locally to validate whatever comes back.
func BuildInvoiceJSONSchema() map[string]any {
	props := map[string]any{
		"invoice_number": map[string]any{"type": "string", "minLength": 1},
		"issue_date":     dateProp(),
		"due_date":       dateProp(),
		"tax_date":       dateProp(),
		"reference":      map[string]any{"type": "string"},
		"organization":   map[string]any{"type": "string", "minLength": 1},
		"branch":         map[string]any{"type": "string"},
		"address":        map[string]any{"type": "string"},
		"telephone":      map[string]any{"type": "string", "pattern": `^0\d{8,9}$`},
		"email":          map[string]any{"type": "string", "pattern": `^[^@\s]+@[^@\s]+\.[^@\s]+$`},
		"tax_id":         map[string]any{"type": "string", "pattern": `^\d{13}$`},
		"tax_option":     map[string]any{"type": "string", "enum": []string{"in", "ex"}},
		"vat_rate":       map[string]any{"type": "string", "pattern": `^\d{1,2}$`},
		"subtotal":       decimalProp(),
		"vat_amount":     decimalProp(),
		"total_amount":   decimalProp(),
		"confidence":     map[string]any{"type": "number", "minimum": 0.0, "maximum": 1.0},
	}

	// nothing is required: the model must omit what the document does not
	// show rather than invent a value
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties":           props,
		"required":             []string{},
	}
}

func dateProp() map[string]any {
	return map[string]any{"type": "string", "pattern": `^\d{4}-\d{2}-\d{2}$`}
}

func decimalProp() map[string]any {
	return map[string]any{"type": "string", "pattern": `^\d+(\.\d{1,2})?$`}
}
