package llm

import "context"

// Noop is the refiner used when refinement is disabled: it answers nothing,
// so records pass through on rule-engine output alone.
type Noop struct{}

func (Noop) Name() string { return "noop" }

func (Noop) Refine(context.Context, RefineRequest) (InvoiceFields, []byte, error) {
	return InvoiceFields{}, nil, nil
}
