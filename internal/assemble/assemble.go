// Package assemble builds the final invoice record from validated fields.
package assemble

import (
	"github.com/rmtsu9/OCRdocTH/constants"
	"github.com/rmtsu9/OCRdocTH/internal/entity"
	"github.com/rmtsu9/OCRdocTH/internal/patterns"
)

// Assemble orders validated fields by the registry's declared field order and
// derives the record's completeness flag and status summary. Fields absent
// from the input map come out as missing, so a record always carries one
// entry per registered field.
func Assemble(meta entity.DocumentMeta, fields map[constants.FieldKey]entity.Field, reg *patterns.Registry) entity.InvoiceRecord {
	defs := reg.Definitions()
	rec := entity.InvoiceRecord{
		Meta:   meta,
		Fields: make([]entity.Field, 0, len(defs)),
	}

	for _, def := range defs {
		f, ok := fields[def.Key]
		if !ok {
			f = entity.Field{
				Key:    def.Key,
				Status: constants.StatusMissing,
				Source: entity.SourceRules,
			}
		}
		if f.Missing() && def.Mandatory {
			rec.Incomplete = true
		}
		switch f.Status {
		case constants.StatusValid:
			rec.Summary.Valid++
		case constants.StatusSuspect:
			rec.Summary.Suspect++
		default:
			rec.Summary.Missing++
		}
		rec.Fields = append(rec.Fields, f)
	}

	if n := len(rec.Fields); n > 0 {
		rec.Summary.Score = (float32(rec.Summary.Valid) + 0.5*float32(rec.Summary.Suspect)) / float32(n)
	}
	return rec
}
