package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/rmtsu9/OCRdocTH/constants"
	"github.com/rmtsu9/OCRdocTH/internal/llm"
)

// Name implements llm.Refiner.
func (c *Client) Name() string { return "openai/" + c.cfg.Model }

// Refine implements llm.Refiner with text-only chat/completions. The prompt
// hands the model the rule engine's gaps so it answers only what is needed.
func (c *Client) Refine(ctx context.Context, req llm.RefineRequest) (llm.InvoiceFields, []byte, error) {
	rid := uuid.New().String()
	start := time.Now()

	c.log.Info("llm.refine.start",
		"req_id", rid,
		"model", c.cfg.Model,
		"temp", c.cfg.Temperature,
		"text_len", len(req.OCRText),
		"source_file", req.SourceFile,
	)

	schema := llm.BuildInvoiceJSONSchema()
	body := map[string]any{
		"model":           c.cfg.Model,
		"temperature":     c.cfg.Temperature,
		"response_format": map[string]any{"type": "json_object"},
		"messages": []map[string]any{
			{"role": "system", "content": buildSystemPrompt()},
			{"role": "user", "content": buildUserPrompt(req)},
			{"role": "system", "content": "JSON Schema:\n" + mustJSON(schema)},
		},
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	raw, err := c.post(ctx, endpoint, body)
	if err != nil {
		c.log.Error("llm.refine.http_error",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds())
		return llm.InvoiceFields{}, nil, err
	}

	var cc struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &cc); err != nil {
		c.log.Error("llm.refine.decode_error", "req_id", rid, "error", err, "raw_bytes", len(raw))
		return llm.InvoiceFields{}, raw, fmt.Errorf("decode openai response: %w", err)
	}
	if len(cc.Choices) == 0 {
		c.log.Error("llm.refine.no_choices", "req_id", rid, "raw", string(raw))
		return llm.InvoiceFields{}, raw, fmt.Errorf("no choices in openai response")
	}
	content := []byte(strings.TrimSpace(cc.Choices[0].Message.Content))

	if err := llm.ValidateJSONAgainstSchema(schema, content); err != nil {
		cleaned, dropped, sErr := llm.SanitizeFields(content)
		if sErr != nil {
			c.log.Error("llm.refine.sanitize_failed", "req_id", rid, "error", sErr)
			return llm.InvoiceFields{}, content, fmt.Errorf("sanitize: %w", sErr)
		}
		if vErr := llm.ValidateJSONAgainstSchema(schema, cleaned); vErr != nil {
			c.log.Error("llm.refine.schema_validation_failed",
				"req_id", rid, "error", vErr, "content", string(content))
			return llm.InvoiceFields{}, content, fmt.Errorf("schema validation failed: %w", vErr)
		}
		c.log.Warn("llm.refine.sanitize_applied", "req_id", rid, "dropped", dropped)
		content = cleaned
	}

	var out llm.InvoiceFields
	if err := json.Unmarshal(content, &out); err != nil {
		c.log.Error("llm.refine.unmarshal_failed", "req_id", rid, "error", err)
		return llm.InvoiceFields{}, content, fmt.Errorf("unmarshal fields: %w", err)
	}

	c.log.Info("llm.refine.ok",
		"req_id", rid,
		"invoice_number", out.InvoiceNumber,
		"issue_date", out.IssueDate,
		"total", out.TotalAmount,
		"elapsed_ms", time.Since(start).Milliseconds())
	return out, content, nil
}

func (c *Client) post(ctx context.Context, url string, body map[string]any) ([]byte, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("openai http error: %w", err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			c.log.Warn("llm.refine.body_close_error", "error", cerr)
		}
	}()

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("openai status %d: %s", resp.StatusCode, raw)
	}
	return raw, nil
}

func buildSystemPrompt() string {
	parts := []string{
		"You read OCR text from Thai tax invoices (ใบกำกับภาษี) and return ONLY JSON matching the provided JSON Schema.",
		"Dates use ISO-8601 (YYYY-MM-DD). Convert Buddhist Era years (พ.ศ.) to Gregorian by subtracting 543.",
		"Amounts are plain decimal strings in THB with no thousands separators.",
		"tax_id is the 13-digit taxpayer identification number with separators removed.",
		"tax_option is 'in' when prices include VAT, 'ex' when they exclude it.",
		"Never output null and never guess: if a field is not visible in the text, omit it entirely.",
	}
	return strings.Join(parts, " ")
}

func buildUserPrompt(req llm.RefineRequest) string {
	var b strings.Builder
	if req.SourceFile != "" {
		b.WriteString("Source file: ")
		b.WriteString(req.SourceFile)
		b.WriteString("\n")
	}

	var gaps []string
	for _, f := range req.Baseline.Fields {
		if f.Status != constants.StatusValid {
			gaps = append(gaps, string(f.Key))
		}
	}
	if len(gaps) > 0 {
		b.WriteString("Fields still unresolved by pattern matching: ")
		b.WriteString(strings.Join(gaps, ", "))
		b.WriteString("\n")
	}

	b.WriteString("\nOCR text (first ~4k chars):\n")
	ocr := strings.TrimSpace(req.OCRText)
	if len(ocr) > 4000 {
		b.WriteString(ocr[:4000])
		b.WriteString("\n...(truncated)")
	} else {
		b.WriteString(ocr)
	}
	return b.String()
}

func mustJSON(v any) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}
