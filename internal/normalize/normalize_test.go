package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize_Whitespace(t *testing.T) {
	in := "ใบกำกับภาษี\r\n\r\n\r\n\r\nเลขที่บิล\tCT 68-000612   \nวันที่  1/8/2568"
	got := Normalize(in)
	assert.Equal(t, "ใบกำกับภาษี\n\nเลขที่บิล CT 68-000612\nวันที่ 1/8/2568", got)
}

func TestNormalize_ThaiAndFullWidthDigits(t *testing.T) {
	assert.Equal(t, "วันที่ 1/8/2568", Normalize("วันที่ ๑/๘/๒๕๖๘"))
	assert.Equal(t, "0123456789", Normalize("０１２３４５６７８９"))
}

func TestNormalize_DigitConfusions(t *testing.T) {
	// O and l are fixed only between digits
	assert.Equal(t, "5,800.00", Normalize("5,8O0.00"))
	assert.Equal(t, "1020300", Normalize("1O2O3O0"))
	assert.Equal(t, "111", Normalize("1l1"))
	// word context untouched
	assert.Equal(t, "Oak Tools Co., Ltd.", Normalize("Oak Tools Co., Ltd."))
}

func TestNormalize_ControlCharsAndNoise(t *testing.T) {
	got := Normalize("รวมเป็นเงิน\x00\x08 5,449.60\n----------\nVAT 7% 381.40")
	assert.Equal(t, "รวมเป็นเงิน 5,449.60\n\nVAT 7% 381.40", got)
}

func TestNormalize_EmptyAndGarbage(t *testing.T) {
	assert.Equal(t, "", Normalize(""))
	assert.Equal(t, "", Normalize("\x00\x01\x02"))
	assert.Equal(t, "", Normalize("   \n\n\t  "))
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{
		"",
		"บริษัท ซี 111 เดคคอร์ จำกัด (สาขาที่ 00001)",
		"เลขประจำตัวผู้เสียภาษี 0 1355 63000 95 2\r\nวันที่ ๑/๘/๒๕๖๘",
		"1O2O3O  \t total",
		"รวมเป็นเงิน\n\n\n\n5,449.60",
	}
	for _, in := range inputs {
		once := Normalize(in)
		assert.Equal(t, once, Normalize(once), "input %q", in)
	}
}
