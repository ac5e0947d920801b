package patterns

import (
	"fmt"
	"regexp"

	"github.com/rmtsu9/OCRdocTH/constants"
	"github.com/rmtsu9/OCRdocTH/internal/common"
)

// DefinitionSpec declares one extractable field and its uncompiled rules.
type DefinitionSpec struct {
	Key       constants.FieldKey
	Kind      Kind
	Mandatory bool
	Anchor    string // regex locating the field's section header, for tie-breaks
	Rules     []RuleSpec
}

// Definition is a compiled field definition. Immutable after registry
// construction.
type Definition struct {
	Key       constants.FieldKey
	Kind      Kind
	Mandatory bool
	Anchor    *regexp.Regexp // nil when the field has no anchor
	Rules     []Rule         // priority order; first match wins candidate status
}

// Registry is the read-only rule registry. Construct once at process start
// and share across concurrent document runs.
type Registry struct {
	defs  []Definition
	byKey map[constants.FieldKey]int
}

// NewRegistry compiles and validates the default Thai tax invoice rule set.
// Any malformed entry fails construction; registry errors are fatal and must
// surface before documents are processed.
func NewRegistry() (*Registry, error) {
	return Compile(thaiDefinitions())
}

// Compile builds a registry from specs, validating every entry.
func Compile(specs []DefinitionSpec) (*Registry, error) {
	reg := &Registry{byKey: make(map[constants.FieldKey]int, len(specs))}
	for _, spec := range specs {
		if _, dup := reg.byKey[spec.Key]; dup {
			return nil, registryErr(spec.Key, "", fmt.Errorf("duplicate field key"))
		}
		if len(spec.Rules) == 0 {
			return nil, registryErr(spec.Key, "", fmt.Errorf("field has no rules"))
		}
		def := Definition{
			Key:       spec.Key,
			Kind:      spec.Kind,
			Mandatory: spec.Mandatory,
		}
		if spec.Anchor != "" {
			re, err := regexp.Compile(spec.Anchor)
			if err != nil {
				return nil, registryErr(spec.Key, "anchor", err)
			}
			def.Anchor = re
		}
		seen := make(map[string]struct{}, len(spec.Rules))
		for _, rs := range spec.Rules {
			if rs.Name == "" {
				return nil, registryErr(spec.Key, rs.Name, fmt.Errorf("rule has no name"))
			}
			if _, dup := seen[rs.Name]; dup {
				return nil, registryErr(spec.Key, rs.Name, fmt.Errorf("duplicate rule name"))
			}
			seen[rs.Name] = struct{}{}
			re, err := regexp.Compile(rs.Pattern)
			if err != nil {
				return nil, registryErr(spec.Key, rs.Name, err)
			}
			if rs.Group < 0 || rs.Group > re.NumSubexp() {
				return nil, registryErr(spec.Key, rs.Name,
					fmt.Errorf("capture group %d out of range (pattern has %d)", rs.Group, re.NumSubexp()))
			}
			if rs.Strategy == ScanHead && rs.HeadLines <= 0 {
				return nil, registryErr(spec.Key, rs.Name, fmt.Errorf("ScanHead rule needs HeadLines > 0"))
			}
			def.Rules = append(def.Rules, Rule{
				Name:      rs.Name,
				re:        re,
				group:     rs.Group,
				strategy:  rs.Strategy,
				headLines: rs.HeadLines,
				joinLimit: rs.JoinLimit,
				transform: rs.Transform,
			})
		}
		reg.byKey[spec.Key] = len(reg.defs)
		reg.defs = append(reg.defs, def)
	}
	return reg, nil
}

// Definitions returns all field definitions in declaration order.
func (r *Registry) Definitions() []Definition { return r.defs }

// Definition returns the definition for key.
func (r *Registry) Definition(key constants.FieldKey) (Definition, bool) {
	i, ok := r.byKey[key]
	if !ok {
		return Definition{}, false
	}
	return r.defs[i], true
}

// Rules returns the ordered rule list for key, or nil if unknown.
func (r *Registry) Rules(key constants.FieldKey) []Rule {
	if i, ok := r.byKey[key]; ok {
		return r.defs[i].Rules
	}
	return nil
}

func registryErr(key constants.FieldKey, rule string, err error) error {
	msg := fmt.Sprintf("field %q", key)
	if rule != "" {
		msg += fmt.Sprintf(" rule %q", rule)
	}
	return common.NewAppError("REGISTRY_ERROR", msg, fmt.Errorf("%w: %w", common.ErrRegistry, err))
}
