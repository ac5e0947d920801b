package llm

import (
	"github.com/rmtsu9/OCRdocTH/constants"
	"github.com/rmtsu9/OCRdocTH/internal/entity"
)

// ScoreFields rates a candidate field map: valid fields count fully, suspect
// ones half, weighted by confidence. Used to compare refinement outcomes.
func ScoreFields(fields map[constants.FieldKey]entity.Field) float32 {
	if len(fields) == 0 {
		return 0
	}
	var sum float32
	for _, f := range fields {
		switch f.Status {
		case constants.StatusValid:
			sum += f.Confidence
		case constants.StatusSuspect:
			sum += 0.5 * f.Confidence
		}
	}
	return sum / float32(len(fields))
}

func statusRank(s constants.FieldStatus) int {
	switch s {
	case constants.StatusValid:
		return 2
	case constants.StatusSuspect:
		return 1
	}
	return 0
}

// MergeBest combines two candidate field maps field by field: the better
// status wins, confidence breaks ties, and the first map wins exact ties so
// the rule engine's answer is kept when a refiner adds nothing.
func MergeBest(a, b map[constants.FieldKey]entity.Field) map[constants.FieldKey]entity.Field {
	out := make(map[constants.FieldKey]entity.Field, len(a))
	for key, fa := range a {
		fb, ok := b[key]
		if !ok {
			out[key] = fa
			continue
		}
		ra, rb := statusRank(fa.Status), statusRank(fb.Status)
		switch {
		case rb > ra:
			out[key] = fb
		case rb == ra && fb.Confidence > fa.Confidence:
			out[key] = fb
		default:
			out[key] = fa
		}
	}
	// fields only the second map knows about
	for key, fb := range b {
		if _, ok := a[key]; !ok {
			out[key] = fb
		}
	}
	return out
}
