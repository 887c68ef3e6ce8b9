package nesting

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"famtree/internal/model"
)

// occ builds a nested occurrence whose category path is "Cat" at every level.
func occ(t *testing.T, rootPath string) model.NestedFamily {
	t.Helper()
	names := model.MustParsePath(rootPath)
	cats := make(model.NestingPath, len(names))
	for i := range cats {
		cats[i] = "Cat"
	}
	nf, err := model.NewNestedFamily(names.Leaf(), "Cat", model.NestedFilePath, names.String(), cats.String())
	require.NoError(t, err)
	return nf
}

func occs(t *testing.T, paths ...string) []model.NestedFamily {
	t.Helper()
	out := make([]model.NestedFamily, len(paths))
	for i, p := range paths {
		out[i] = occ(t, p)
	}
	return out
}

func rootPaths(records []model.NestedFamily) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.RootPath
	}
	return out
}

func TestCull(t *testing.T) {
	tests := []struct {
		name  string
		paths []string
		want  []string
	}{
		{
			name:  "single entry unchanged",
			paths: []string{"H :: A"},
			want:  []string{"H :: A"},
		},
		{
			name:  "straight chain collapses to deepest",
			paths: []string{"H", "H :: A", "H :: A :: B"},
			want:  []string{"H :: A :: B"},
		},
		{
			name:  "chain in any order",
			paths: []string{"H :: A :: B", "H", "H :: A"},
			want:  []string{"H :: A :: B"},
		},
		{
			name:  "diverging branches both kept",
			paths: []string{"H :: A :: B1", "H :: A :: B2"},
			want:  []string{"H :: A :: B1", "H :: A :: B2"},
		},
		{
			name:  "shared ancestors culled, branches kept in input order",
			paths: []string{"H :: A", "H :: A :: B2", "H", "H :: A :: B1", "H :: C"},
			want:  []string{"H :: A :: B2", "H :: A :: B1", "H :: C"},
		},
		{
			name:  "equal records collapse",
			paths: []string{"H :: A", "H :: A"},
			want:  []string{"H :: A"},
		},
		{
			name:  "segment prefix is not a path prefix",
			paths: []string{"H :: A", "H :: AB"},
			want:  []string{"H :: A", "H :: AB"},
		},
		{
			name:  "empty input",
			paths: nil,
			want:  []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Cull(occs(t, tt.paths...))
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, rootPaths(got)); diff != "" {
				t.Errorf("Cull() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestCullKeepsSamePathWithOtherFields(t *testing.T) {
	a, err := model.NewNestedFamily("A", "Hardware", model.NestedFilePath, "H :: A", "Doors :: Hardware")
	require.NoError(t, err)
	b, err := model.NewNestedFamily("A", "Generic", model.NestedFilePath, "H :: A", "Doors :: Generic")
	require.NoError(t, err)

	got, err := Cull([]model.NestedFamily{a, b, a})
	require.NoError(t, err)
	assert.Equal(t, []model.NestedFamily{a, b}, got)
}

func TestCullIdempotent(t *testing.T) {
	inputs := [][]string{
		{"H"},
		{"H", "H :: A", "H :: A :: B"},
		{"H :: A", "H :: A :: B1", "H :: A :: B2", "H :: C", "H :: C :: D :: E"},
		{"X :: Y", "X :: Y", "X"},
	}
	for _, paths := range inputs {
		t.Run(strings.Join(paths, " | "), func(t *testing.T) {
			once, err := Cull(occs(t, paths...))
			require.NoError(t, err)
			twice, err := Cull(once)
			require.NoError(t, err)
			assert.Equal(t, once, twice)
		})
	}
}

func TestCullPreservesBranchCount(t *testing.T) {
	// three deepest, mutually non-prefix paths behind shared intermediates
	records := occs(t,
		"R", "R :: A", "R :: A :: B", "R :: A :: B :: L1",
		"R :: A :: L2", "R :: C", "R :: C :: L3",
	)
	got, err := Cull(records)
	require.NoError(t, err)
	assert.Len(t, got, 3)
}

func TestCullMalformedPath(t *testing.T) {
	bad := model.NestedFamily{Name: "X", RootPath: model.NoneValue, CategoryPath: "Cat"}
	_, err := Cull([]model.NestedFamily{occ(t, "H :: X"), bad})
	require.ErrorIs(t, err, model.ErrMalformedPath)
}

func TestCullBlocks(t *testing.T) {
	records := occs(t,
		"H1 :: A", "H2 :: A", "H1 :: A :: B", "H2", "H1 :: C",
	)
	got, err := CullBlocks(records)
	require.NoError(t, err)
	assert.Equal(t, []string{"H1 :: A :: B", "H1 :: C", "H2 :: A"}, rootPaths(got))
}

func TestCircularPaths(t *testing.T) {
	got, err := CircularPaths(occs(t, "H :: X :: H", "H :: X :: Y", "A :: B :: C :: B"))
	require.NoError(t, err)
	assert.Equal(t, []string{"H :: X :: H", "A :: B :: C :: B"}, got)

	none, err := CircularPaths(occs(t, "H :: X :: Y", "H"))
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestFindCircular(t *testing.T) {
	nf, err := model.NewNestedFamily("H", "Doors", model.NestedFilePath, "H :: X :: H", "Doors :: Generic :: Doors")
	require.NoError(t, err)

	got, err := FindCircular([]model.NestedFamily{nf})
	require.NoError(t, err)
	want := []Circular{{Path: "H :: X :: H", Level: 2, Family: "H :: Doors"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("FindCircular() mismatch (-want +got):\n%s", diff)
	}
}

func TestCircularNameOnly(t *testing.T) {
	// same name under two categories still counts as a repeat
	nf, err := model.NewNestedFamily("H", "B", model.NestedFilePath, "H :: H", "A :: B")
	require.NoError(t, err)
	got, err := CircularPaths([]model.NestedFamily{nf})
	require.NoError(t, err)
	assert.Equal(t, []string{"H :: H"}, got)
}

func TestCircularMalformed(t *testing.T) {
	_, err := CircularPaths([]model.NestedFamily{{RootPath: model.NoneValue}})
	assert.ErrorIs(t, err, model.ErrMalformedPath)
}

func TestRootsNotNested(t *testing.T) {
	roots := []model.RootFamily{
		{Name: "A", Category: "Cat"},
		{Name: "B", Category: "Cat"},
		{Name: "C", Category: "Cat"},
	}
	got, err := RootsNotNested(roots, occs(t, "X :: A", "Y :: Z :: C"))
	require.NoError(t, err)
	assert.Equal(t, []model.RootFamily{{Name: "B", Category: "Cat"}}, got)
}

func TestSplitBaseRecords(t *testing.T) {
	records := []model.BaseRecord{
		{RecordHeader: model.RecordHeader{RootNamePath: "Door", RootCategoryPath: "Doors", FamilyName: "Door", FamilyFilePath: `C:\lib\Door.rfa`}},
		{RecordHeader: model.RecordHeader{RootNamePath: "Door :: Handle", RootCategoryPath: "Doors :: Hardware", FamilyName: "Handle", FamilyFilePath: "-"}},
	}
	roots, nested, err := SplitBaseRecords(records)
	require.NoError(t, err)
	assert.Equal(t, []model.RootFamily{{Name: "Door", Category: "Doors", FilePath: `C:\lib\Door.rfa`}}, roots)
	require.Len(t, nested, 1)
	assert.Equal(t, "Handle", nested[0].Name)
	assert.Equal(t, "Hardware", nested[0].Category)
	assert.Equal(t, "Door", nested[0].HostFamily)

	_, _, err = SplitBaseRecords([]model.BaseRecord{{RecordHeader: model.RecordHeader{RootNamePath: "A :: B", RootCategoryPath: "Cat"}}})
	assert.ErrorIs(t, err, model.ErrMalformedPath)
}

func TestMissingFamilies(t *testing.T) {
	roots := []model.RootFamily{{Name: "Door", Category: "Doors"}, {Name: "Handle", Category: "Hardware"}}
	longest := []model.NestedFamily{
		mustNested(t, "Door :: Handle :: Screw", "Doors :: Hardware :: Hardware"),
		mustNested(t, "Door :: Panel", "Doors :: Generic"),
		mustNested(t, "Window :: Handle", "Windows :: Hardware"),
		mustNested(t, "Window :: Screw", "Windows :: Hardware"),
	}
	got, err := MissingFamilies(roots, longest)
	require.NoError(t, err)
	want := []model.FamilyRef{{Name: "Screw", Category: "Hardware"}, {Name: "Panel", Category: "Generic"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("MissingFamilies() mismatch (-want +got):\n%s", diff)
	}

	_, err = MissingFamilies(append(roots, model.RootFamily{Name: "Door", Category: "Doors"}), longest)
	assert.ErrorContains(t, err, "duplicated root family")
}

func TestDirectHostsAndRoots(t *testing.T) {
	nested := []model.NestedFamily{
		mustNested(t, "Door :: Handle :: Screw", "Doors :: Hardware :: Hardware"),
		mustNested(t, "Window :: Screw", "Windows :: Hardware"),
		mustNested(t, "Cabinet :: Screw", "Casework :: Generic"),
		mustNested(t, "Door :: Handle", "Doors :: Hardware"),
	}
	screw := model.FamilyRef{Name: "Screw", Category: "Hardware"}

	hosts, err := DirectHosts(screw, nested)
	require.NoError(t, err)
	assert.Equal(t, []model.FamilyRef{{Name: "Handle", Category: "Hardware"}, {Name: "Window", Category: "Windows"}}, hosts)

	all, err := AllDirectHosts([]model.FamilyRef{screw, {Name: "Handle", Category: "Hardware"}}, nested)
	require.NoError(t, err)
	assert.Equal(t, []model.FamilyRef{
		{Name: "Handle", Category: "Hardware"},
		{Name: "Window", Category: "Windows"},
		{Name: "Door", Category: "Doors"},
	}, all)

	roots := []model.RootFamily{
		{Name: "Door", Category: "Doors", FilePath: "door.rfa"},
		{Name: "Window", Category: "Windows", FilePath: "window.rfa"},
	}
	assert.Equal(t, []model.RootFamily{
		{Name: "Window", Category: "Windows", FilePath: "window.rfa"},
		{Name: "Door", Category: "Doors", FilePath: "door.rfa"},
	}, RootsFromHosts(all, roots))
}

func mustNested(t *testing.T, rootPath, categoryPath string) model.NestedFamily {
	t.Helper()
	names := model.MustParsePath(rootPath)
	cats := model.MustParsePath(categoryPath)
	nf, err := model.NewNestedFamily(names.Leaf(), cats.Leaf(), model.NestedFilePath, rootPath, categoryPath)
	require.NoError(t, err)
	return nf
}
