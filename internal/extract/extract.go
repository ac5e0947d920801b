// Package extract turns normalized OCR text into typed field values by
// consulting the pattern registry. Extraction is pure: the same text and
// registry always yield the same fields, and nothing here touches I/O.
package extract

import (
	"github.com/rmtsu9/OCRdocTH/constants"
	"github.com/rmtsu9/OCRdocTH/internal/entity"
	"github.com/rmtsu9/OCRdocTH/internal/patterns"
)

// Config tunes candidate selection.
type Config struct {
	// ProximityRadius is the max byte distance between a candidate and the
	// field's anchor for the anchor to decide a tie between candidates.
	ProximityRadius int
}

// DefaultProximityRadius covers a label and its value on neighboring lines.
const DefaultProximityRadius = 200

// Extractor runs every registered field definition against a document.
// Safe for concurrent use.
type Extractor struct {
	reg    *patterns.Registry
	radius int
}

func New(reg *patterns.Registry, cfg Config) *Extractor {
	radius := cfg.ProximityRadius
	if radius <= 0 {
		radius = DefaultProximityRadius
	}
	return &Extractor{reg: reg, radius: radius}
}

// Extract produces one field per registered definition. Fields that no rule
// matched come back with StatusMissing and no value; fields that matched but
// failed typed conversion come back StatusSuspect with the raw text kept.
func (e *Extractor) Extract(text string) map[constants.FieldKey]entity.Field {
	out := make(map[constants.FieldKey]entity.Field, len(e.reg.Definitions()))
	for _, def := range e.reg.Definitions() {
		out[def.Key] = e.extractField(def, text)
	}
	return out
}

func (e *Extractor) extractField(def patterns.Definition, text string) entity.Field {
	for i := range def.Rules {
		rule := &def.Rules[i]
		cands := rule.Candidates(text)
		if len(cands) == 0 {
			continue
		}
		c := e.pick(def, text, cands)
		f := entity.Field{
			Key:        def.Key,
			Raw:        c.Raw,
			Rule:       rule.Name,
			Source:     entity.SourceRules,
			Confidence: ruleConfidence(i),
		}
		convert(def.Kind, c.Value, &f)
		return f
	}
	return entity.Field{
		Key:    def.Key,
		Status: constants.StatusMissing,
		Source: entity.SourceRules,
	}
}

// pick chooses among multiple candidates from one rule. The candidate nearest
// the field's anchor wins when it sits within the proximity radius; otherwise
// the first occurrence in document order does.
func (e *Extractor) pick(def patterns.Definition, text string, cands []patterns.Candidate) patterns.Candidate {
	if len(cands) == 1 || def.Anchor == nil {
		return cands[0]
	}
	anchors := def.Anchor.FindAllStringIndex(text, -1)
	if len(anchors) == 0 {
		return cands[0]
	}
	best := -1
	bestDist := e.radius + 1
	for i, c := range cands {
		if d := nearest(anchors, c.Pos); d < bestDist {
			bestDist = d
			best = i
		}
	}
	if best >= 0 {
		return cands[best]
	}
	return cands[0]
}

func nearest(anchors [][]int, pos int) int {
	min := -1
	for _, a := range anchors {
		d := pos - a[1] // distance from anchor end to candidate start
		if d < 0 {
			d = a[0] - pos
		}
		if d < 0 {
			d = 0 // candidate overlaps the anchor match
		}
		if min < 0 || d < min {
			min = d
		}
	}
	return min
}

// ruleConfidence degrades with rule priority: a labeled rule is more
// trustworthy than a bare fallback pattern.
func ruleConfidence(ruleIndex int) float32 {
	c := 0.95 - 0.15*float32(ruleIndex)
	if c < 0.5 {
		return 0.5
	}
	return c
}
