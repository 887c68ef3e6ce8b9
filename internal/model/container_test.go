package model

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	headerF1 = RecordHeader{RootNamePath: "F1", RootCategoryPath: "Cat1", FamilyName: "F1", FamilyFilePath: `C:\lib\F1.rfa`}
	headerF2 = RecordHeader{RootNamePath: "F2", RootCategoryPath: "Cat2", FamilyName: "F2", FamilyFilePath: `C:\lib\F2.rfa`}
)

func category(h RecordHeader, name, sub, id string) CategoryRecord {
	return CategoryRecord{RecordHeader: h, CategoryName: name, SubCategoryName: sub, SubCategoryID: id}
}

// unknownRecord reports a data type outside the known variants.
type unknownRecord struct{ BaseRecord }

func (unknownRecord) Type() DataType { return DataType(42) }

// lyingRecord is a base record claiming to be a category.
type lyingRecord struct{ BaseRecord }

func (lyingRecord) Type() DataType { return DataTypeCategory }

func TestContainerIdentityLock(t *testing.T) {
	c := NewContainer()
	require.NoError(t, c.Add(category(headerF1, "Doors", "Frame", "1")))

	err := c.Add(SharedParameterRecord{RecordHeader: headerF2, ParameterName: "Width", ParameterID: "7"})
	require.ErrorIs(t, err, ErrIdentityMismatch)
	var mismatch *IdentityMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, headerF1.Identity(), mismatch.Want)
	assert.Equal(t, headerF2.Identity(), mismatch.Got)

	assert.Len(t, c.CategoryData(), 1)
	assert.Empty(t, c.SharedParameterData())
	assert.Equal(t, "F1", c.FamilyNestingPath())
}

func TestContainerDuplicateRejection(t *testing.T) {
	c := NewContainer()
	require.NoError(t, c.Add(category(headerF1, "Doors", "Frame", "1")))
	err := c.Add(category(headerF1, "Doors", "Frame", "1"))
	require.ErrorIs(t, err, ErrDuplicateRecord)
	assert.Len(t, c.CategoryData(), 1)

	// any key part differing is a new record
	require.NoError(t, c.Add(category(headerF1, "Doors", "Frame", "2")))
	require.NoError(t, c.Add(category(headerF1, "Doors", "Panel", "1")))
	assert.Equal(t, 3, c.Count(DataTypeCategory))
}

func TestContainerKeyParts(t *testing.T) {
	// joined keys must not collide when parts shift
	c := NewContainer()
	require.NoError(t, c.Add(LinePatternRecord{RecordHeader: headerF1, PatternName: "Da", PatternID: "sh1"}))
	require.NoError(t, c.Add(LinePatternRecord{RecordHeader: headerF1, PatternName: "Dash", PatternID: "1"}))
	assert.Equal(t, 2, c.Count(DataTypeLinePattern))
}

func TestContainerDuplicateKeysPerVariant(t *testing.T) {
	tests := []struct {
		name   string
		first  Record
		second Record
	}{
		{"base", BaseRecord{RecordHeader: headerF1}, BaseRecord{RecordHeader: headerF1}},
		{"line pattern", LinePatternRecord{RecordHeader: headerF1, PatternName: "Dash", PatternID: "1", UseCounter: 1},
			LinePatternRecord{RecordHeader: headerF1, PatternName: "Dash", PatternID: "1", UseCounter: 5}},
		{"shared parameter", SharedParameterRecord{RecordHeader: headerF1, ParameterGUID: "a", ParameterName: "Width", ParameterID: "3"},
			SharedParameterRecord{RecordHeader: headerF1, ParameterGUID: "b", ParameterName: "Width", ParameterID: "3"}},
		{"warnings", WarningsRecord{RecordHeader: headerF1, WarningText: "overlap", WarningGUID: "g"},
			WarningsRecord{RecordHeader: headerF1, WarningText: "overlap", WarningGUID: "g", WarningRelatedIDs: "1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewContainer()
			require.NoError(t, c.Add(tt.first))
			err := c.Add(tt.second)
			assert.ErrorIs(t, err, ErrDuplicateRecord)
			assert.Equal(t, 1, c.Count(tt.first.Type()))
		})
	}
}

func TestContainerStateMachine(t *testing.T) {
	c := NewContainer()
	assert.Equal(t, StateEmpty, c.State())
	assert.Equal(t, Identity{}, c.Identity())

	require.NoError(t, c.Identify(headerF1))
	assert.Equal(t, StateIdentified, c.State())
	assert.Equal(t, "F1", c.FamilyName())
	assert.Equal(t, "Cat1", c.FamilyCategory())
	assert.True(t, c.IsRootFamily())

	// same identity again is a no-op, different identity is rejected
	require.NoError(t, c.Identify(headerF1))
	assert.ErrorIs(t, c.Identify(headerF2), ErrIdentityMismatch)

	require.NoError(t, c.AddWarnings(WarningsRecord{RecordHeader: headerF1, WarningText: "w"}))
	assert.Equal(t, StatePopulated, c.State())
	assert.ErrorIs(t, c.Identify(headerF2), ErrIdentityMismatch)
	assert.Equal(t, StatePopulated, c.State())

	assert.Equal(t, "empty", StateEmpty.String())
	assert.Equal(t, "identified", StateIdentified.String())
	assert.Equal(t, "populated", StatePopulated.String())
}

func TestContainerRejectsDepthMismatch(t *testing.T) {
	h := RecordHeader{RootNamePath: "H :: A", RootCategoryPath: "Doors", FamilyName: "A", FamilyFilePath: NestedFilePath}

	c := NewContainer()
	err := c.Add(BaseRecord{RecordHeader: h})
	require.ErrorIs(t, err, ErrMalformedPath)
	assert.Contains(t, err.Error(), "name path depth 2 differs from category path depth 1")
	assert.Equal(t, StateEmpty, c.State())

	assert.ErrorIs(t, c.Identify(h), ErrMalformedPath)
	assert.Equal(t, StateEmpty, c.State())
}

func TestContainerCanonicalIdentity(t *testing.T) {
	spaced := RecordHeader{RootNamePath: "H :: A", RootCategoryPath: "C1 :: C2", FamilyName: "A", FamilyFilePath: NestedFilePath}
	tight := RecordHeader{RootNamePath: "H::A", RootCategoryPath: "C1::C2", FamilyName: "A", FamilyFilePath: NestedFilePath}
	assert.Equal(t, spaced.Identity(), tight.Identity())

	c := NewContainer()
	require.NoError(t, c.Add(category(tight, "Doors", "Frame", "1")))
	require.NoError(t, c.Add(BaseRecord{RecordHeader: spaced}))
	assert.Equal(t, 1, c.Count(DataTypeFamilyBase))
	assert.Equal(t, Identity{NamePath: "H :: A", CategoryPath: "C1 :: C2"}, c.Identity())
	// accessors keep the first record's spelling
	assert.Equal(t, "H::A", c.FamilyNestingPath())
}

func TestContainerFirstRecordDerivesIdentity(t *testing.T) {
	h := RecordHeader{
		RootNamePath:     "Sample_Family_Six :: Sample_Family_Thirteen",
		RootCategoryPath: "Specialty Equipment :: Section Marks",
		FamilyName:       "Sample_Family_Thirteen",
		FamilyFilePath:   NestedFilePath,
	}
	c := NewContainer()
	require.NoError(t, c.AddLinePattern(LinePatternRecord{RecordHeader: h, PatternName: "Dash", PatternID: "1"}))

	assert.Equal(t, "Sample_Family_Thirteen", c.FamilyName())
	assert.Equal(t, "Section Marks", c.FamilyCategory())
	assert.Equal(t, h.RootCategoryPath, c.FamilyCategoryNestingPath())
	assert.Equal(t, NestedFilePath, c.FamilyFilePath())
	assert.False(t, c.IsRootFamily())
}

func TestContainerRejectedFirstRecordLeavesEmpty(t *testing.T) {
	c := NewContainer()
	err := c.Add(BaseRecord{RecordHeader: RecordHeader{RootNamePath: NoneValue, RootCategoryPath: "Cat"}})
	require.ErrorIs(t, err, ErrMalformedPath)
	assert.Equal(t, StateEmpty, c.State())
	assert.Empty(t, c.Records())

	err = c.Add(BaseRecord{RecordHeader: RecordHeader{RootNamePath: "A", RootCategoryPath: NoneValue}})
	require.ErrorIs(t, err, ErrMalformedPath)
	assert.Equal(t, StateEmpty, c.State())
}

func TestContainerVariantChecks(t *testing.T) {
	c := NewContainer()

	err := c.AddCategory(BaseRecord{RecordHeader: headerF1})
	require.ErrorIs(t, err, ErrVariantMismatch)
	var vm *VariantMismatchError
	require.ErrorAs(t, err, &vm)
	assert.Equal(t, DataTypeCategory, vm.Want)
	assert.Equal(t, DataTypeFamilyBase, vm.Got)

	assert.ErrorIs(t, c.Add(lyingRecord{BaseRecord{RecordHeader: headerF1}}), ErrVariantMismatch)
	assert.ErrorIs(t, c.Add(unknownRecord{BaseRecord{RecordHeader: headerF1}}), ErrUnsupportedVariant)
	assert.Equal(t, StateEmpty, c.State())

	require.NoError(t, c.AddBase(BaseRecord{RecordHeader: headerF1}))
	require.NoError(t, c.AddCategory(category(headerF1, "Doors", "", "")))
	require.NoError(t, c.AddLinePattern(LinePatternRecord{RecordHeader: headerF1, PatternName: "Dash"}))
	require.NoError(t, c.AddSharedParameter(SharedParameterRecord{RecordHeader: headerF1, ParameterName: "Width"}))
	require.NoError(t, c.AddWarnings(WarningsRecord{RecordHeader: headerF1, WarningText: "w"}))
	for _, d := range DataTypes {
		assert.Equal(t, 1, c.Count(d), d.String())
	}
}

func TestContainerZeroValue(t *testing.T) {
	var c FamilyDataContainer
	require.NoError(t, c.Add(BaseRecord{RecordHeader: headerF1}))
	assert.ErrorIs(t, c.Add(BaseRecord{RecordHeader: headerF1}), ErrDuplicateRecord)
}

func TestContainerAccessorsCopy(t *testing.T) {
	c := NewContainer()
	require.NoError(t, c.Add(category(headerF1, "Doors", "Frame", "1")))
	got := c.CategoryData()
	got[0].CategoryName = "changed"
	assert.Equal(t, "Doors", c.CategoryData()[0].CategoryName)
}

func TestContainerDataRows(t *testing.T) {
	c := NewContainer()
	// added out of variant order, flattened in variant order
	require.NoError(t, c.Add(WarningsRecord{RecordHeader: headerF1, WarningText: "overlap", WarningGUID: "g1", WarningRelatedIDs: "None", WarningOtherIDs: "None"}))
	require.NoError(t, c.Add(BaseRecord{RecordHeader: headerF1}))
	require.NoError(t, c.Add(LinePatternRecord{
		RecordHeader: headerF1, UseCounter: 1, PatternName: "Dash", PatternID: "9",
		UsedBy: []UsedBy{{DataType: "FamilyLinePatternDataStorageUsedBy", RootNamePath: "F1", ElementID: -2009518}},
	}))

	wantRows := [][]string{
		{"FamilyBase", "F1", "Cat1", "F1", `C:\lib\F1.rfa`},
		{"LinePattern", "F1", "Cat1", "F1", `C:\lib\F1.rfa`, "1",
			`[{"data_type":"FamilyLinePatternDataStorageUsedBy","root_name_path":"F1","element_id":-2009518}]`, "Dash", "9"},
		{"Warnings", "F1", "Cat1", "F1", `C:\lib\F1.rfa`, "overlap", "g1", "None", "None"},
	}
	if diff := cmp.Diff(wantRows, c.DataRows()); diff != "" {
		t.Errorf("DataRows() mismatch (-want +got):\n%s", diff)
	}

	headers := c.DataHeaders()
	require.Len(t, headers, 3)
	assert.Equal(t, Columns(DataTypeFamilyBase), headers[0])
	assert.Equal(t, []string{"data_type", "root_name_path", "root_category_path", "family_name", "family_file_path",
		"use_counter", "used_by", "pattern_name", "pattern_id"}, headers[1])
	for i := range headers {
		assert.Len(t, c.DataRows()[i], len(headers[i]))
	}
}

func TestContainerJSON(t *testing.T) {
	c := NewContainer()
	require.NoError(t, c.Add(BaseRecord{RecordHeader: headerF1}))

	b, err := json.Marshal(c)
	require.NoError(t, err)
	var got map[string]any
	require.NoError(t, json.Unmarshal(b, &got))
	assert.Equal(t, "F1", got["family_name"])
	assert.Equal(t, true, got["is_root_family"])
	assert.Len(t, got["base_data"], 1)
	assert.Equal(t, []any{}, got["warnings_data"])
}

func TestErrorMessages(t *testing.T) {
	errs := []error{
		&MalformedPathError{Path: "None", Reason: "path is null"},
		&IdentityMismatchError{Want: headerF1.Identity(), Got: headerF2.Identity()},
		&DuplicateRecordError{Type: DataTypeFamilyBase},
		&DuplicateRecordError{Type: DataTypeCategory, Key: "k"},
		&UnsupportedVariantError{DataType: "Material"},
		&VariantMismatchError{Want: DataTypeCategory, Got: DataTypeWarnings},
	}
	sentinels := []error{ErrMalformedPath, ErrIdentityMismatch, ErrDuplicateRecord, ErrDuplicateRecord, ErrUnsupportedVariant, ErrVariantMismatch}
	for i, err := range errs {
		assert.NotEmpty(t, err.Error())
		assert.True(t, errors.Is(err, sentinels[i]), err.Error())
		assert.False(t, errors.Is(err, ErrMalformedPath) && i != 0, err.Error())
	}
	assert.Equal(t, `unsupported data type "Material"`, errs[4].Error())
	assert.Equal(t, "expected Category record, got Warnings", errs[5].Error())
}
