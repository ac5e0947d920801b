package patterns

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rmtsu9/OCRdocTH/constants"
	"github.com/rmtsu9/OCRdocTH/internal/common"
)

func TestNewRegistry_DefaultRuleSet(t *testing.T) {
	reg, err := NewRegistry()
	require.NoError(t, err)

	defs := reg.Definitions()
	require.Len(t, defs, len(constants.Fields))
	for i, key := range constants.Fields {
		assert.Equal(t, key, defs[i].Key, "definition order must follow canonical field order")
	}

	for _, key := range []constants.FieldKey{
		constants.FieldInvoiceNumber,
		constants.FieldIssueDate,
		constants.FieldTaxID,
		constants.FieldTotalAmount,
	} {
		def, ok := reg.Definition(key)
		require.True(t, ok)
		assert.True(t, def.Mandatory, "field %s", key)
	}

	def, ok := reg.Definition(constants.FieldBranch)
	require.True(t, ok)
	assert.False(t, def.Mandatory)
}

func TestCompile_RejectsMalformedSpecs(t *testing.T) {
	base := func() DefinitionSpec {
		return DefinitionSpec{
			Key:   constants.FieldEmail,
			Rules: []RuleSpec{{Name: "ok", Pattern: `(x)`, Group: 1}},
		}
	}

	cases := map[string][]DefinitionSpec{
		"duplicate key":     {base(), base()},
		"no rules":          {{Key: constants.FieldEmail}},
		"bad anchor":        {{Key: constants.FieldEmail, Anchor: `(`, Rules: base().Rules}},
		"unnamed rule":      {{Key: constants.FieldEmail, Rules: []RuleSpec{{Pattern: `x`}}}},
		"duplicate rule":    {{Key: constants.FieldEmail, Rules: []RuleSpec{{Name: "a", Pattern: `x`}, {Name: "a", Pattern: `y`}}}},
		"bad pattern":       {{Key: constants.FieldEmail, Rules: []RuleSpec{{Name: "a", Pattern: `(`}}}},
		"group out of range": {{Key: constants.FieldEmail, Rules: []RuleSpec{{Name: "a", Pattern: `x`, Group: 2}}}},
		"head without lines": {{Key: constants.FieldEmail, Rules: []RuleSpec{{Name: "a", Pattern: `x`, Strategy: ScanHead}}}},
	}

	for name, specs := range cases {
		t.Run(name, func(t *testing.T) {
			reg, err := Compile(specs)
			assert.Nil(t, reg)
			require.Error(t, err)
			assert.ErrorIs(t, err, common.ErrRegistry)
		})
	}
}

func TestRule_Candidates_Scan(t *testing.T) {
	reg, err := NewRegistry()
	require.NoError(t, err)

	rules := reg.Rules(constants.FieldInvoiceNumber)
	require.NotEmpty(t, rules)

	text := "ใบกำกับภาษี\nเลขที่บิล CT 68-000612\nรวม 5,831.00"
	cands := rules[0].Candidates(text)
	require.Len(t, cands, 1)
	assert.Equal(t, "CT68-000612", cands[0].Value)
	assert.Contains(t, cands[0].Raw, "68-000612")
}

func TestRule_Candidates_TaxID(t *testing.T) {
	reg, err := NewRegistry()
	require.NoError(t, err)

	rules := reg.Rules(constants.FieldTaxID)
	text := "เลขประจำตัวผู้เสียภาษี 0 1355 63000 95 2"
	cands := rules[0].Candidates(text)
	require.Len(t, cands, 1)
	assert.Equal(t, "0 1355 63000 95 2", cands[0].Value)
}

func TestRule_Candidates_ScanHead(t *testing.T) {
	reg, err := NewRegistry()
	require.NoError(t, err)

	rules := reg.Rules(constants.FieldOrganization)
	require.Len(t, rules, 1)

	text := "ใบเสร็จรับเงิน/ใบกำกับภาษี\nบริษัท ซี 111 เดคคอร์ จำกัด (สาขาที่ 00001)\nที่อยู่ 99 หมู่ 4\n"
	cands := rules[0].Candidates(text)
	require.Len(t, cands, 1)
	assert.Equal(t, "บริษัท ซี 111 เดคคอร์ จำกัด", cands[0].Value)

	// indicator below the header window is ignored
	deep := "a\nb\nc\nd\ne\nf\ng\nh\ni\nj\nบริษัท ลึกเกินไป จำกัด\n"
	assert.Empty(t, rules[0].Candidates(deep))
}

func TestRule_Candidates_JoinLines(t *testing.T) {
	reg, err := NewRegistry()
	require.NoError(t, err)

	rules := reg.Rules(constants.FieldAddress)
	require.Len(t, rules, 1)

	text := "บริษัท ตัวอย่าง จำกัด\n" +
		"ที่อยู่ 99 หมู่ 4 ถนนพหลโยธิน\n" +
		"ตำบลคลองหนึ่ง อำเภอคลองหลวง\n" +
		"จังหวัดปทุมธานี 12120\n" +
		"จังหวัดอื่น เกินขีดจำกัด\n"
	cands := rules[0].Candidates(text)
	require.Len(t, cands, 1)
	assert.Equal(t,
		"99 หมู่ 4 ถนนพหลโยธิน ตำบลคลองหนึ่ง อำเภอคลองหลวง จังหวัดปทุมธานี 12120",
		cands[0].Value)
}

func TestRule_TransformRejection(t *testing.T) {
	reg, err := NewRegistry()
	require.NoError(t, err)

	rules := reg.Rules(constants.FieldOrganization)
	// a lone indicator word is not a usable company name
	assert.Empty(t, rules[0].Candidates("บริษัท\n"))
}

func TestRule_TaxOptionTransforms(t *testing.T) {
	reg, err := NewRegistry()
	require.NoError(t, err)

	rules := reg.Rules(constants.FieldTaxOption)
	require.Len(t, rules, 2)

	ex := rules[0].Candidates("ราคาไม่รวมภาษีมูลค่าเพิ่ม")
	require.Len(t, ex, 1)
	assert.Equal(t, "ex", ex[0].Value)

	in := rules[1].Candidates("ราคารวมภาษีมูลค่าเพิ่มแล้ว")
	require.Len(t, in, 1)
	assert.Equal(t, "in", in[0].Value)
}
