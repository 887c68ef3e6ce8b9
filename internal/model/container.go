package model

import (
	"encoding/json"
	"fmt"
	"slices"
)

// ContainerState tracks a container through its build-once lifecycle.
type ContainerState int

const (
	StateEmpty      ContainerState = iota // no identity yet
	StateIdentified                       // identity fixed, no records
	StatePopulated                        // at least one record stored
)

func (s ContainerState) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateIdentified:
		return "identified"
	case StatePopulated:
		return "populated"
	}
	return "unknown"
}

// FamilyDataContainer aggregates every record that describes one family
// occurrence, drawn from up to five independently written reports.
// Identity is fixed by the first record and never changes. There is no
// remove.
type FamilyDataContainer struct {
	state ContainerState

	familyName                string
	familyNestingPath         string
	familyCategory            string
	familyCategoryNestingPath string
	familyFilePath            string
	isRootFamily              bool

	base             []BaseRecord
	categories       []CategoryRecord
	linePatterns     []LinePatternRecord
	sharedParameters []SharedParameterRecord
	warnings         []WarningsRecord

	keys map[DataType]map[string]struct{}
}

// NewContainer returns an empty container.
func NewContainer() *FamilyDataContainer {
	return &FamilyDataContainer{keys: make(map[DataType]map[string]struct{})}
}

func (c *FamilyDataContainer) State() ContainerState { return c.state }
func (c *FamilyDataContainer) FamilyName() string { return c.familyName }
func (c *FamilyDataContainer) FamilyNestingPath() string { return c.familyNestingPath }
func (c *FamilyDataContainer) FamilyCategory() string { return c.familyCategory }
func (c *FamilyDataContainer) FamilyFilePath() string { return c.familyFilePath }
func (c *FamilyDataContainer) IsRootFamily() bool { return c.isRootFamily }
func (c *FamilyDataContainer) FamilyCategoryNestingPath() string {
	return c.familyCategoryNestingPath
}

// Identity returns the canonical occurrence identity, zero while the
// container is empty. The path accessors keep the spelling of the first
// record.
func (c *FamilyDataContainer) Identity() Identity {
	if c.state == StateEmpty {
		return Identity{}
	}
	return Identity{NamePath: CanonicalPath(c.familyNestingPath), CategoryPath: CanonicalPath(c.familyCategoryNestingPath)}
}

func (c *FamilyDataContainer) BaseData() []BaseRecord { return slices.Clone(c.base) }
func (c *FamilyDataContainer) CategoryData() []CategoryRecord { return slices.Clone(c.categories) }
func (c *FamilyDataContainer) LinePatternData() []LinePatternRecord {
	return slices.Clone(c.linePatterns)
}
func (c *FamilyDataContainer) SharedParameterData() []SharedParameterRecord {
	return slices.Clone(c.sharedParameters)
}
func (c *FamilyDataContainer) WarningsData() []WarningsRecord { return slices.Clone(c.warnings) }

// Count returns how many records of one variant the container holds.
func (c *FamilyDataContainer) Count(d DataType) int {
	switch d {
	case DataTypeFamilyBase:
		return len(c.base)
	case DataTypeCategory:
		return len(c.categories)
	case DataTypeLinePattern:
		return len(c.linePatterns)
	case DataTypeSharedParameter:
		return len(c.sharedParameters)
	case DataTypeWarnings:
		return len(c.warnings)
	}
	return 0
}

// Identify moves an empty container to Identified using the header's
// paths, family name and file path. Both paths must parse and have the same
// depth. Identifying again with the same identity is a no-op.
func (c *FamilyDataContainer) Identify(h RecordHeader) error {
	if c.state != StateEmpty {
		if got := h.Identity(); got != c.Identity() {
			return &IdentityMismatchError{Want: c.Identity(), Got: got}
		}
		return nil
	}
	names, err := ParsePath(h.RootNamePath)
	if err != nil {
		return err
	}
	categories, err := ParsePath(h.RootCategoryPath)
	if err != nil {
		return err
	}
	if names.Depth() != categories.Depth() {
		return &MalformedPathError{
			Path:   h.RootNamePath,
			Reason: fmt.Sprintf("name path depth %d differs from category path depth %d", names.Depth(), categories.Depth()),
		}
	}
	c.familyName = h.FamilyName
	c.familyFilePath = h.FamilyFilePath
	c.familyNestingPath = h.RootNamePath
	c.familyCategoryNestingPath = h.RootCategoryPath
	c.familyCategory = categories.Leaf()
	c.isRootFamily = !IsNestedPath(h.RootNamePath)
	c.state = StateIdentified
	return nil
}

// Add stores a record of any variant. The container is left unchanged when
// the record is rejected.
func (c *FamilyDataContainer) Add(r Record) error {
	d := r.Type()
	if _, ok := dataTypeNames[d]; !ok {
		return &UnsupportedVariantError{DataType: d.String()}
	}
	if !concreteMatches(r) {
		return &VariantMismatchError{Want: d, Got: concreteType(r)}
	}
	if c.state != StateEmpty {
		if got := r.Header().Identity(); got != c.Identity() {
			return &IdentityMismatchError{Want: c.Identity(), Got: got}
		}
	}
	key := r.Key()
	if _, dup := c.keys[d][key]; dup {
		return &DuplicateRecordError{Type: d, Key: key}
	}
	// Identity last so a rejected first record leaves the container empty.
	if err := c.Identify(r.Header()); err != nil {
		return err
	}

	switch rec := r.(type) {
	case BaseRecord:
		c.base = append(c.base, rec)
	case CategoryRecord:
		c.categories = append(c.categories, rec)
	case LinePatternRecord:
		c.linePatterns = append(c.linePatterns, rec)
	case SharedParameterRecord:
		c.sharedParameters = append(c.sharedParameters, rec)
	case WarningsRecord:
		c.warnings = append(c.warnings, rec)
	}
	if c.keys == nil {
		c.keys = make(map[DataType]map[string]struct{})
	}
	if c.keys[d] == nil {
		c.keys[d] = make(map[string]struct{})
	}
	c.keys[d][key] = struct{}{}
	c.state = StatePopulated
	return nil
}

func (c *FamilyDataContainer) addAs(want DataType, r Record) error {
	if r.Type() != want {
		return &VariantMismatchError{Want: want, Got: r.Type()}
	}
	return c.Add(r)
}

func (c *FamilyDataContainer) AddBase(r Record) error { return c.addAs(DataTypeFamilyBase, r) }
func (c *FamilyDataContainer) AddCategory(r Record) error { return c.addAs(DataTypeCategory, r) }
func (c *FamilyDataContainer) AddLinePattern(r Record) error {
	return c.addAs(DataTypeLinePattern, r)
}
func (c *FamilyDataContainer) AddSharedParameter(r Record) error {
	return c.addAs(DataTypeSharedParameter, r)
}
func (c *FamilyDataContainer) AddWarnings(r Record) error { return c.addAs(DataTypeWarnings, r) }

func concreteType(r Record) DataType {
	switch r.(type) {
	case BaseRecord:
		return DataTypeFamilyBase
	case CategoryRecord:
		return DataTypeCategory
	case LinePatternRecord:
		return DataTypeLinePattern
	case SharedParameterRecord:
		return DataTypeSharedParameter
	case WarningsRecord:
		return DataTypeWarnings
	}
	return DataTypeUnknown
}

func concreteMatches(r Record) bool {
	return concreteType(r) == r.Type()
}

// Records returns every stored record in variant order.
func (c *FamilyDataContainer) Records() []Record {
	out := make([]Record, 0, len(c.base)+len(c.categories)+len(c.linePatterns)+len(c.sharedParameters)+len(c.warnings))
	for _, r := range c.base {
		out = append(out, r)
	}
	for _, r := range c.categories {
		out = append(out, r)
	}
	for _, r := range c.linePatterns {
		out = append(out, r)
	}
	for _, r := range c.sharedParameters {
		out = append(out, r)
	}
	for _, r := range c.warnings {
		out = append(out, r)
	}
	return out
}

// DataRows flattens every stored record to its string row, parallel to
// DataHeaders.
func (c *FamilyDataContainer) DataRows() [][]string {
	records := c.Records()
	rows := make([][]string, len(records))
	for i, r := range records {
		rows[i] = r.Values()
	}
	return rows
}

// DataHeaders returns the column names for each row of DataRows.
func (c *FamilyDataContainer) DataHeaders() [][]string {
	records := c.Records()
	headers := make([][]string, len(records))
	for i, r := range records {
		headers[i] = r.Columns()
	}
	return headers
}

type containerJSON struct {
	FamilyName                string                  `json:"family_name"`
	FamilyNestingPath         string                  `json:"family_nesting_path"`
	FamilyCategory            string                  `json:"family_category"`
	FamilyCategoryNestingPath string                  `json:"family_category_nesting_path"`
	FamilyFilePath            string                  `json:"family_file_path"`
	IsRootFamily              bool                    `json:"is_root_family"`
	BaseData                  []BaseRecord            `json:"base_data"`
	CategoryData              []CategoryRecord        `json:"category_data"`
	LinePatternData           []LinePatternRecord     `json:"line_pattern_data"`
	SharedParameterData       []SharedParameterRecord `json:"shared_parameter_data"`
	WarningsData              []WarningsRecord        `json:"warnings_data"`
}

// MarshalJSON encodes the identity and all record lists.
func (c *FamilyDataContainer) MarshalJSON() ([]byte, error) {
	return json.Marshal(containerJSON{
		FamilyName:                c.familyName,
		FamilyNestingPath:         c.familyNestingPath,
		FamilyCategory:            c.familyCategory,
		FamilyCategoryNestingPath: c.familyCategoryNestingPath,
		FamilyFilePath:            c.familyFilePath,
		IsRootFamily:              c.isRootFamily,
		BaseData:                  nonNil(c.base),
		CategoryData:              nonNil(c.categories),
		LinePatternData:           nonNil(c.linePatterns),
		SharedParameterData:       nonNil(c.sharedParameters),
		WarningsData:              nonNil(c.warnings),
	})
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
