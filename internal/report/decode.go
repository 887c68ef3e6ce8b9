// Package report reads and writes the flat family report files: one CSV
// per dataset, one row per record, the data type in the first column.
package report

import (
	"fmt"
	"strconv"
	"strings"

	"famtree/internal/model"
)

// Decoder turns one report row into a record of a single variant.
type Decoder interface {
	Type() model.DataType
	Decode(row []string) (model.Record, error)
}

// BaseDecoder decodes FamilyBase rows.
type BaseDecoder struct{}

func (BaseDecoder) Type() model.DataType { return model.DataTypeFamilyBase }

func (d BaseDecoder) Decode(row []string) (model.Record, error) {
	if err := checkWidth(d.Type(), row); err != nil {
		return nil, err
	}
	return model.BaseRecord{RecordHeader: header(row)}, nil
}

// CategoryDecoder decodes Category rows.
type CategoryDecoder struct{}

func (CategoryDecoder) Type() model.DataType { return model.DataTypeCategory }

func (d CategoryDecoder) Decode(row []string) (model.Record, error) {
	if err := checkWidth(d.Type(), row); err != nil {
		return nil, err
	}
	counter, used, err := usage(row[5], row[6])
	if err != nil {
		return nil, err
	}
	return model.CategoryRecord{
		RecordHeader:           header(row),
		UseCounter:             counter,
		UsedBy:                 used,
		CategoryName:           row[7],
		SubCategoryName:        row[8],
		SubCategoryID:          row[9],
		GraphicStyle3D:         row[10],
		GraphicStyleCut:        row[11],
		GraphicStyleProjection: row[12],
		MaterialName:           row[13],
		MaterialID:             row[14],
		LineWeightCut:          row[15],
		LineWeightProjection:   row[16],
		LineColourRed:          row[17],
		LineColourGreen:        row[18],
		LineColourBlue:         row[19],
	}, nil
}

// LinePatternDecoder decodes LinePattern rows.
type LinePatternDecoder struct{}

func (LinePatternDecoder) Type() model.DataType { return model.DataTypeLinePattern }

func (d LinePatternDecoder) Decode(row []string) (model.Record, error) {
	if err := checkWidth(d.Type(), row); err != nil {
		return nil, err
	}
	counter, used, err := usage(row[5], row[6])
	if err != nil {
		return nil, err
	}
	return model.LinePatternRecord{
		RecordHeader: header(row),
		UseCounter:   counter,
		UsedBy:       used,
		PatternName:  row[7],
		PatternID:    row[8],
	}, nil
}

// SharedParameterDecoder decodes SharedParameter rows.
type SharedParameterDecoder struct{}

func (SharedParameterDecoder) Type() model.DataType { return model.DataTypeSharedParameter }

func (d SharedParameterDecoder) Decode(row []string) (model.Record, error) {
	if err := checkWidth(d.Type(), row); err != nil {
		return nil, err
	}
	counter, used, err := usage(row[8], row[9])
	if err != nil {
		return nil, err
	}
	return model.SharedParameterRecord{
		RecordHeader:  header(row),
		ParameterGUID: row[5],
		ParameterName: row[6],
		ParameterID:   row[7],
		UseCounter:    counter,
		UsedBy:        used,
	}, nil
}

// WarningsDecoder decodes Warnings rows.
type WarningsDecoder struct{}

func (WarningsDecoder) Type() model.DataType { return model.DataTypeWarnings }

func (d WarningsDecoder) Decode(row []string) (model.Record, error) {
	if err := checkWidth(d.Type(), row); err != nil {
		return nil, err
	}
	return model.WarningsRecord{
		RecordHeader:      header(row),
		WarningText:       row[5],
		WarningGUID:       row[6],
		WarningRelatedIDs: row[7],
		WarningOtherIDs:   row[8],
	}, nil
}

var decoders = map[model.DataType]Decoder{
	model.DataTypeFamilyBase:      BaseDecoder{},
	model.DataTypeCategory:        CategoryDecoder{},
	model.DataTypeLinePattern:     LinePatternDecoder{},
	model.DataTypeSharedParameter: SharedParameterDecoder{},
	model.DataTypeWarnings:        WarningsDecoder{},
}

// DecoderFor returns the decoder registered for a data type.
func DecoderFor(d model.DataType) (Decoder, error) {
	dec, ok := decoders[d]
	if !ok {
		return nil, &model.UnsupportedVariantError{DataType: d.String()}
	}
	return dec, nil
}

// DecodeRow dispatches a row on its first column.
func DecodeRow(row []string) (model.Record, error) {
	if len(row) == 0 {
		return nil, fmt.Errorf("decode row: empty row")
	}
	d, err := model.ParseDataType(strings.TrimSpace(row[0]))
	if err != nil {
		return nil, err
	}
	dec, err := DecoderFor(d)
	if err != nil {
		return nil, err
	}
	return dec.Decode(row)
}

func checkWidth(d model.DataType, row []string) error {
	if want := len(model.Columns(d)); len(row) != want {
		return fmt.Errorf("decode %s row: got %d columns, want %d", d, len(row), want)
	}
	return nil
}

func header(row []string) model.RecordHeader {
	return model.RecordHeader{
		RootNamePath:     row[1],
		RootCategoryPath: row[2],
		FamilyName:       row[3],
		FamilyFilePath:   row[4],
	}
}

func usage(counter, usedBy string) (int, []model.UsedBy, error) {
	n := 0
	if c := strings.TrimSpace(counter); c != "" && c != model.NoneValue {
		var err error
		if n, err = strconv.Atoi(c); err != nil {
			return 0, nil, fmt.Errorf("parse use counter %q: %w", counter, err)
		}
	}
	used, err := model.ParseUsedBy(usedBy)
	if err != nil {
		return 0, nil, err
	}
	return n, used, nil
}
