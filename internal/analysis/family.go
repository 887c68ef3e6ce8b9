// Package analysis groups containers into family trees and runs the
// nesting checks over them.
package analysis

import (
	"famtree/internal/model"
	"famtree/internal/nesting"
)

// Family is a root family and every occurrence nested below it.
type Family struct {
	Name     string
	Category string
	// Root is nil when the report has no rows for the root family itself.
	Root   *model.FamilyDataContainer
	Nested []*model.FamilyDataContainer
}

// Ref returns the root family's name and category.
func (f *Family) Ref() model.FamilyRef {
	return model.FamilyRef{Name: f.Name, Category: f.Category}
}

// Containers returns the root container, if any, followed by the nested
// ones.
func (f *Family) Containers() []*model.FamilyDataContainer {
	var out []*model.FamilyDataContainer
	if f.Root != nil {
		out = append(out, f.Root)
	}
	return append(out, f.Nested...)
}

// Occurrences returns every container of the family as a nested family
// record.
func (f *Family) Occurrences() ([]model.NestedFamily, error) {
	containers := f.Containers()
	out := make([]model.NestedFamily, 0, len(containers))
	for _, c := range containers {
		nf, err := occurrence(c)
		if err != nil {
			return nil, err
		}
		out = append(out, nf)
	}
	return out, nil
}

// LongestUniqueNestingPaths culls the family tree down to one occurrence
// per branch.
func (f *Family) LongestUniqueNestingPaths() ([]model.NestedFamily, error) {
	occ, err := f.Occurrences()
	if err != nil {
		return nil, err
	}
	return nesting.Cull(occ)
}

// CircularNesting reports the occurrences nested inside a copy of
// themselves.
func (f *Family) CircularNesting() ([]nesting.Circular, error) {
	occ, err := f.Occurrences()
	if err != nil {
		return nil, err
	}
	return nesting.FindCircular(occ)
}

// GroupFamilies groups containers by the root family their nesting path
// starts at, in first-seen order.
func GroupFamilies(containers []*model.FamilyDataContainer) ([]*Family, error) {
	var families []*Family
	index := make(map[model.FamilyRef]*Family)
	for _, c := range containers {
		names, err := model.ParsePath(c.FamilyNestingPath())
		if err != nil {
			return nil, err
		}
		categories, err := model.ParsePath(c.FamilyCategoryNestingPath())
		if err != nil {
			return nil, err
		}
		ref := model.FamilyRef{Name: names.Root(), Category: categories.Root()}
		f, ok := index[ref]
		if !ok {
			f = &Family{Name: ref.Name, Category: ref.Category}
			index[ref] = f
			families = append(families, f)
		}
		if c.IsRootFamily() {
			f.Root = c
		} else {
			f.Nested = append(f.Nested, c)
		}
	}
	return families, nil
}

func occurrence(c *model.FamilyDataContainer) (model.NestedFamily, error) {
	return model.NewNestedFamily(c.FamilyName(), c.FamilyCategory(), c.FamilyFilePath(),
		c.FamilyNestingPath(), c.FamilyCategoryNestingPath())
}
