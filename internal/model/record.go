package model

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// DataType discriminates the five report datasets.
type DataType int

const (
	DataTypeUnknown DataType = iota
	DataTypeFamilyBase
	DataTypeCategory
	DataTypeLinePattern
	DataTypeSharedParameter
	DataTypeWarnings
)

// DataTypes lists the known variants in report order.
var DataTypes = []DataType{
	DataTypeFamilyBase,
	DataTypeCategory,
	DataTypeLinePattern,
	DataTypeSharedParameter,
	DataTypeWarnings,
}

var dataTypeNames = map[DataType]string{
	DataTypeFamilyBase:      "FamilyBase",
	DataTypeCategory:        "Category",
	DataTypeLinePattern:     "LinePattern",
	DataTypeSharedParameter: "SharedParameter",
	DataTypeWarnings:        "Warnings",
}

func (d DataType) String() string {
	if name, ok := dataTypeNames[d]; ok {
		return name
	}
	return "Unknown"
}

// ParseDataType maps a report discriminator to its DataType.
func ParseDataType(s string) (DataType, error) {
	for d, name := range dataTypeNames {
		if name == s {
			return d, nil
		}
	}
	return DataTypeUnknown, &UnsupportedVariantError{DataType: s}
}

// Identity is the occurrence identity shared by every record of one
// container.
type Identity struct {
	NamePath     string `json:"root_name_path"`
	CategoryPath string `json:"root_category_path"`
}

func (i Identity) String() string {
	return fmt.Sprintf("(%q, %q)", i.NamePath, i.CategoryPath)
}

// UsedBy cross-references an element inside a nested family that uses a
// record's subject.
type UsedBy struct {
	DataType     string `json:"data_type"`
	RootNamePath string `json:"root_name_path"`
	ElementID    int64  `json:"element_id"`
}

// ParseUsedBy decodes a used-by column: a JSON list or the null literal.
func ParseUsedBy(s string) ([]UsedBy, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == NoneValue {
		return nil, nil
	}
	var used []UsedBy
	if err := json.Unmarshal([]byte(s), &used); err != nil {
		return nil, fmt.Errorf("parse used by: %w", err)
	}
	return used, nil
}

// FormatUsedBy is the inverse of ParseUsedBy.
func FormatUsedBy(used []UsedBy) string {
	if len(used) == 0 {
		return NoneValue
	}
	b, err := json.Marshal(used)
	if err != nil {
		return NoneValue
	}
	return string(b)
}

// RecordHeader holds the columns every report row starts with after the
// data type.
type RecordHeader struct {
	RootNamePath     string `json:"root_name_path"`
	RootCategoryPath string `json:"root_category_path"`
	FamilyName       string `json:"family_name"`
	FamilyFilePath   string `json:"family_file_path"`
}

// Header returns the header itself so embedding types satisfy Record.
func (h RecordHeader) Header() RecordHeader { return h }

// Identity returns the canonical occurrence identity of the row.
func (h RecordHeader) Identity() Identity {
	return Identity{NamePath: CanonicalPath(h.RootNamePath), CategoryPath: CanonicalPath(h.RootCategoryPath)}
}

func (h RecordHeader) values(d DataType) []string {
	return []string{d.String(), h.RootNamePath, h.RootCategoryPath, h.FamilyName, h.FamilyFilePath}
}

var headerColumns = []string{"data_type", "root_name_path", "root_category_path", "family_name", "family_file_path"}

// Record is one row of one of the five report datasets.
type Record interface {
	Type() DataType
	Header() RecordHeader
	// Key is the variant-specific uniqueness key within one container.
	Key() string
	// Columns and Values are the parallel flattened form of the row.
	Columns() []string
	Values() []string
}

// Columns returns the report column names for a data type.
func Columns(d DataType) []string {
	var extra []string
	switch d {
	case DataTypeFamilyBase:
	case DataTypeCategory:
		extra = categoryColumns
	case DataTypeLinePattern:
		extra = linePatternColumns
	case DataTypeSharedParameter:
		extra = sharedParameterColumns
	case DataTypeWarnings:
		extra = warningsColumns
	default:
		return nil
	}
	cols := make([]string, 0, len(headerColumns)+len(extra))
	cols = append(cols, headerColumns...)
	return append(cols, extra...)
}

func joinKey(parts ...string) string {
	return strings.Join(parts, "\x1f")
}

// BaseRecord is a FamilyBase row: the occurrence itself.
type BaseRecord struct {
	RecordHeader
}

func (r BaseRecord) Type() DataType { return DataTypeFamilyBase }
func (r BaseRecord) Key() string { return "" }
func (r BaseRecord) Columns() []string { return Columns(DataTypeFamilyBase) }
func (r BaseRecord) Values() []string { return r.values(DataTypeFamilyBase) }

var categoryColumns = []string{
	"use_counter", "used_by", "category_name", "sub_category_name", "sub_category_id",
	"graphic_style_3d", "graphic_style_cut", "graphic_style_projection",
	"material_name", "material_id", "line_weight_cut", "line_weight_projection",
	"line_colour_red", "line_colour_green", "line_colour_blue",
}

// CategoryRecord describes one (sub)category defined in a family and its
// graphic properties.
type CategoryRecord struct {
	RecordHeader
	UseCounter             int      `json:"use_counter"`
	UsedBy                 []UsedBy `json:"used_by"`
	CategoryName           string   `json:"category_name"`
	SubCategoryName        string   `json:"sub_category_name"`
	SubCategoryID          string   `json:"sub_category_id"`
	GraphicStyle3D         string   `json:"graphic_style_3d"`
	GraphicStyleCut        string   `json:"graphic_style_cut"`
	GraphicStyleProjection string   `json:"graphic_style_projection"`
	MaterialName           string   `json:"material_name"`
	MaterialID             string   `json:"material_id"`
	LineWeightCut          string   `json:"line_weight_cut"`
	LineWeightProjection   string   `json:"line_weight_projection"`
	LineColourRed          string   `json:"line_colour_red"`
	LineColourGreen        string   `json:"line_colour_green"`
	LineColourBlue         string   `json:"line_colour_blue"`
}

func (r CategoryRecord) Type() DataType { return DataTypeCategory }
func (r CategoryRecord) Columns() []string { return Columns(DataTypeCategory) }

func (r CategoryRecord) Key() string {
	return joinKey(r.CategoryName, r.SubCategoryName, r.SubCategoryID)
}

func (r CategoryRecord) Values() []string {
	return append(r.values(DataTypeCategory),
		strconv.Itoa(r.UseCounter), FormatUsedBy(r.UsedBy),
		r.CategoryName, r.SubCategoryName, r.SubCategoryID,
		r.GraphicStyle3D, r.GraphicStyleCut, r.GraphicStyleProjection,
		r.MaterialName, r.MaterialID, r.LineWeightCut, r.LineWeightProjection,
		r.LineColourRed, r.LineColourGreen, r.LineColourBlue,
	)
}

var linePatternColumns = []string{"use_counter", "used_by", "pattern_name", "pattern_id"}

// LinePatternRecord describes one line pattern defined in a family.
type LinePatternRecord struct {
	RecordHeader
	UseCounter  int      `json:"use_counter"`
	UsedBy      []UsedBy `json:"used_by"`
	PatternName string   `json:"pattern_name"`
	PatternID   string   `json:"pattern_id"`
}

func (r LinePatternRecord) Type() DataType { return DataTypeLinePattern }
func (r LinePatternRecord) Key() string { return joinKey(r.PatternName, r.PatternID) }
func (r LinePatternRecord) Columns() []string { return Columns(DataTypeLinePattern) }

func (r LinePatternRecord) Values() []string {
	return append(r.values(DataTypeLinePattern),
		strconv.Itoa(r.UseCounter), FormatUsedBy(r.UsedBy), r.PatternName, r.PatternID)
}

var sharedParameterColumns = []string{"parameter_guid", "parameter_name", "parameter_id", "use_counter", "used_by"}

// SharedParameterRecord describes one shared parameter loaded in a family.
type SharedParameterRecord struct {
	RecordHeader
	ParameterGUID string   `json:"parameter_guid"`
	ParameterName string   `json:"parameter_name"`
	ParameterID   string   `json:"parameter_id"`
	UseCounter    int      `json:"use_counter"`
	UsedBy        []UsedBy `json:"used_by"`
}

func (r SharedParameterRecord) Type() DataType { return DataTypeSharedParameter }
func (r SharedParameterRecord) Key() string { return joinKey(r.ParameterName, r.ParameterID) }
func (r SharedParameterRecord) Columns() []string { return Columns(DataTypeSharedParameter) }

func (r SharedParameterRecord) Values() []string {
	return append(r.values(DataTypeSharedParameter),
		r.ParameterGUID, r.ParameterName, r.ParameterID, strconv.Itoa(r.UseCounter), FormatUsedBy(r.UsedBy))
}

var warningsColumns = []string{"warning_text", "warning_guid", "warning_related_ids", "warning_other_ids"}

// WarningsRecord is one warning reported by the host application for a
// family.
type WarningsRecord struct {
	RecordHeader
	WarningText       string `json:"warning_text"`
	WarningGUID       string `json:"warning_guid"`
	WarningRelatedIDs string `json:"warning_related_ids"`
	WarningOtherIDs   string `json:"warning_other_ids"`
}

func (r WarningsRecord) Type() DataType { return DataTypeWarnings }
func (r WarningsRecord) Key() string { return joinKey(r.WarningText, r.WarningGUID) }
func (r WarningsRecord) Columns() []string { return Columns(DataTypeWarnings) }

func (r WarningsRecord) Values() []string {
	return append(r.values(DataTypeWarnings),
		r.WarningText, r.WarningGUID, r.WarningRelatedIDs, r.WarningOtherIDs)
}
