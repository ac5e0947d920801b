// Package patterns is the read-only rule registry consulted by field
// extraction. Each extractable field declares an ordered list of matching
// rules; rules are plain data plus a compiled regex, so they can be tested
// in isolation from extraction control flow.
package patterns

import (
	"regexp"
	"strings"
)

// Kind is the declared data type of a field, driving typed conversion.
type Kind int

const (
	KindString Kind = iota
	KindDate
	KindAmount
	KindIdentifier
)

// Strategy selects how a rule scans the document text.
type Strategy int

const (
	// ScanAll matches anywhere in the text; every match is a candidate.
	ScanAll Strategy = iota
	// ScanHead matches only within the first HeadLines lines. Used for
	// fields that appear near the top of an invoice (company header).
	ScanHead
	// ScanJoinLines collects up to JoinLimit matching lines and joins them
	// into a single candidate. Used for multi-line blocks (addresses).
	ScanJoinLines
)

// RuleSpec is an uncompiled rule. Specs are validated and compiled by
// NewRegistry; a malformed spec is a startup error, never a per-document one.
type RuleSpec struct {
	Name      string
	Pattern   string
	Group     int // capture group holding the value; 0 means the whole match
	Strategy  Strategy
	HeadLines int
	JoinLimit int
	Transform func(string) string // optional; returning "" rejects the candidate
}

// Rule is a compiled matching rule. Rules are immutable after registry
// construction and safe for concurrent use.
type Rule struct {
	Name      string
	re        *regexp.Regexp
	group     int
	strategy  Strategy
	headLines int
	joinLimit int
	transform func(string) string
}

// Candidate is one potential value for a field, with its byte position in
// the scanned text for anchor-proximity tie-breaking.
type Candidate struct {
	Raw   string // matched substring as it appeared
	Value string // after the rule's transform
	Pos   int
}

// Candidates returns every candidate this rule produces for text, in
// document order. An empty result means the rule did not match.
func (r *Rule) Candidates(text string) []Candidate {
	switch r.strategy {
	case ScanHead:
		head := headOf(text, r.headLines)
		return r.scan(head)
	case ScanJoinLines:
		return r.joinLines(text)
	default:
		return r.scan(text)
	}
}

func (r *Rule) scan(text string) []Candidate {
	idx := r.re.FindAllStringSubmatchIndex(text, -1)
	if idx == nil {
		return nil
	}
	out := make([]Candidate, 0, len(idx))
	for _, m := range idx {
		lo, hi := m[2*r.group], m[2*r.group+1]
		if lo < 0 {
			continue
		}
		raw := text[lo:hi]
		val := raw
		if r.transform != nil {
			val = r.transform(raw)
			if val == "" {
				continue
			}
		}
		out = append(out, Candidate{Raw: raw, Value: val, Pos: m[0]})
	}
	return out
}

// joinLines produces at most one candidate built from the first JoinLimit
// matching lines.
func (r *Rule) joinLines(text string) []Candidate {
	var parts []string
	var raws []string
	pos := -1
	offset := 0
	for _, line := range strings.SplitAfter(text, "\n") {
		trimmed := strings.TrimSuffix(line, "\n")
		if r.re.MatchString(trimmed) {
			val := trimmed
			if r.transform != nil {
				val = r.transform(trimmed)
			}
			if val != "" {
				if pos < 0 {
					pos = offset
				}
				parts = append(parts, val)
				raws = append(raws, trimmed)
				if r.joinLimit > 0 && len(parts) >= r.joinLimit {
					break
				}
			}
		}
		offset += len(line)
	}
	if len(parts) == 0 {
		return nil
	}
	return []Candidate{{
		Raw:   strings.Join(raws, "\n"),
		Value: strings.Join(parts, " "),
		Pos:   pos,
	}}
}

func headOf(text string, n int) string {
	if n <= 0 {
		return text
	}
	count := 0
	for i, r := range text {
		if r == '\n' {
			count++
			if count >= n {
				return text[:i]
			}
		}
	}
	return text
}
