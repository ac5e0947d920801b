package assemble

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rmtsu9/OCRdocTH/constants"
	"github.com/rmtsu9/OCRdocTH/internal/entity"
	"github.com/rmtsu9/OCRdocTH/internal/patterns"
)

func testMeta() entity.DocumentMeta {
	return entity.DocumentMeta{
		ID:          uuid.New(),
		SourceFile:  "invoice-001.pdf",
		Engine:      "tesseract",
		ProcessedAt: time.Date(2025, 8, 20, 12, 0, 0, 0, time.UTC),
	}
}

func TestAssemble_CanonicalOrderAndPadding(t *testing.T) {
	reg, err := patterns.NewRegistry()
	require.NoError(t, err)

	// deliberately sparse and unordered input
	fields := map[constants.FieldKey]entity.Field{
		constants.FieldTotalAmount: {Key: constants.FieldTotalAmount, Text: "107.00", Status: constants.StatusValid},
		constants.FieldInvoiceNumber: {Key: constants.FieldInvoiceNumber, Text: "CT68-000612", Status: constants.StatusValid},
	}
	rec := Assemble(testMeta(), fields, reg)

	require.Len(t, rec.Fields, len(constants.Fields))
	for i, key := range constants.Fields {
		assert.Equal(t, key, rec.Fields[i].Key)
	}

	date, ok := rec.Field(constants.FieldIssueDate)
	require.True(t, ok)
	assert.Equal(t, constants.StatusMissing, date.Status)
}

func TestAssemble_IncompleteOnMissingMandatory(t *testing.T) {
	reg, err := patterns.NewRegistry()
	require.NoError(t, err)

	full := map[constants.FieldKey]entity.Field{}
	for _, key := range constants.Fields {
		full[key] = entity.Field{Key: key, Text: "x", Status: constants.StatusValid}
	}
	rec := Assemble(testMeta(), full, reg)
	assert.False(t, rec.Incomplete)

	// losing an optional field does not flag the record
	noBranch := map[constants.FieldKey]entity.Field{}
	for k, v := range full {
		noBranch[k] = v
	}
	noBranch[constants.FieldBranch] = entity.Field{Key: constants.FieldBranch, Status: constants.StatusMissing}
	assert.False(t, Assemble(testMeta(), noBranch, reg).Incomplete)

	// losing a mandatory field does
	noTaxID := map[constants.FieldKey]entity.Field{}
	for k, v := range full {
		noTaxID[k] = v
	}
	noTaxID[constants.FieldTaxID] = entity.Field{Key: constants.FieldTaxID, Status: constants.StatusMissing}
	assert.True(t, Assemble(testMeta(), noTaxID, reg).Incomplete)
}

func TestAssemble_Summary(t *testing.T) {
	reg, err := patterns.NewRegistry()
	require.NoError(t, err)

	fields := map[constants.FieldKey]entity.Field{}
	for i, key := range constants.Fields {
		f := entity.Field{Key: key}
		switch {
		case i < 8:
			f.Status = constants.StatusValid
			f.Text = "x"
		case i < 12:
			f.Status = constants.StatusSuspect
			f.Text = "x"
		default:
			f.Status = constants.StatusMissing
		}
		fields[key] = f
	}
	rec := Assemble(testMeta(), fields, reg)

	assert.Equal(t, 8, rec.Summary.Valid)
	assert.Equal(t, 4, rec.Summary.Suspect)
	assert.Equal(t, 4, rec.Summary.Missing)
	assert.InDelta(t, (8.0+0.5*4)/16.0, float64(rec.Summary.Score), 1e-6)
}
