package nesting

import (
	"fmt"

	"famtree/internal/model"
)

// SplitBaseRecords turns FamilyBase rows into root families and nested
// occurrences. A row whose name path has no separator is a root family.
func SplitBaseRecords(records []model.BaseRecord) ([]model.RootFamily, []model.NestedFamily, error) {
	var roots []model.RootFamily
	var nested []model.NestedFamily
	for _, r := range records {
		categories, err := model.ParsePath(r.RootCategoryPath)
		if err != nil {
			return nil, nil, err
		}
		if !model.IsNestedPath(r.RootNamePath) {
			roots = append(roots, model.RootFamily{
				Name:     r.FamilyName,
				Category: categories.Leaf(),
				FilePath: r.FamilyFilePath,
			})
			continue
		}
		nf, err := model.NewNestedFamily(r.FamilyName, categories.Leaf(), r.FamilyFilePath, r.RootNamePath, r.RootCategoryPath)
		if err != nil {
			return nil, nil, err
		}
		nested = append(nested, nf)
	}
	return roots, nested, nil
}

// RootsNotNested returns the root families whose name never appears as the
// leaf of a nested occurrence. Root order is kept.
func RootsNotNested(roots []model.RootFamily, nested []model.NestedFamily) ([]model.RootFamily, error) {
	leaves := make(map[string]struct{}, len(nested))
	for _, n := range nested {
		p, err := n.Path()
		if err != nil {
			return nil, err
		}
		leaves[p.Leaf()] = struct{}{}
	}

	var out []model.RootFamily
	for _, r := range roots {
		if _, ok := leaves[r.Name]; !ok {
			out = append(out, r)
		}
	}
	return out, nil
}

// MissingFamilies returns every (name, category) pair nested somewhere in
// the given paths that was never reported as a root family. The root
// segment of each path is ignored. Pairs come back in first-seen order.
func MissingFamilies(roots []model.RootFamily, longest []model.NestedFamily) ([]model.FamilyRef, error) {
	known := make(map[model.FamilyRef]struct{}, len(roots))
	for _, r := range roots {
		if _, dup := known[r.Ref()]; dup {
			return nil, fmt.Errorf("duplicated root family found: %s", r.Ref())
		}
		known[r.Ref()] = struct{}{}
	}

	var missing []model.FamilyRef
	seen := make(map[model.FamilyRef]struct{})
	for _, n := range longest {
		names, categories, err := parsePair(n)
		if err != nil {
			return nil, err
		}
		for i := 1; i < len(names); i++ {
			ref := model.FamilyRef{Name: names[i], Category: categories[i]}
			if _, ok := seen[ref]; ok {
				continue
			}
			seen[ref] = struct{}{}
			if _, ok := known[ref]; !ok {
				missing = append(missing, ref)
			}
		}
	}
	return missing, nil
}

// DirectHosts returns the immediate parents of a family across all nested
// occurrences. A segment matches when both name and category agree.
func DirectHosts(family model.FamilyRef, nested []model.NestedFamily) ([]model.FamilyRef, error) {
	var hosts []model.FamilyRef
	seen := make(map[model.FamilyRef]struct{})
	for _, n := range nested {
		names, categories, err := parsePair(n)
		if err != nil {
			return nil, err
		}
		for i := 1; i < len(names); i++ {
			if names[i] != family.Name || categories[i] != family.Category {
				continue
			}
			host := model.FamilyRef{Name: names[i-1], Category: categories[i-1]}
			if _, ok := seen[host]; !ok {
				seen[host] = struct{}{}
				hosts = append(hosts, host)
			}
		}
	}
	return hosts, nil
}

// AllDirectHosts is DirectHosts over several families, without repeats.
func AllDirectHosts(families []model.FamilyRef, nested []model.NestedFamily) ([]model.FamilyRef, error) {
	var all []model.FamilyRef
	seen := make(map[model.FamilyRef]struct{})
	for _, f := range families {
		hosts, err := DirectHosts(f, nested)
		if err != nil {
			return nil, err
		}
		for _, h := range hosts {
			if _, ok := seen[h]; !ok {
				seen[h] = struct{}{}
				all = append(all, h)
			}
		}
	}
	return all, nil
}

// RootsFromHosts maps host families back to the root family records that
// define them, in host order.
func RootsFromHosts(hosts []model.FamilyRef, roots []model.RootFamily) []model.RootFamily {
	var out []model.RootFamily
	for _, h := range hosts {
		for _, r := range roots {
			if r.Ref() == h {
				out = append(out, r)
			}
		}
	}
	return out
}

func parsePair(n model.NestedFamily) (model.NestingPath, model.NestingPath, error) {
	names, err := n.Path()
	if err != nil {
		return nil, nil, err
	}
	categories, err := n.Categories()
	if err != nil {
		return nil, nil, err
	}
	if len(names) != len(categories) {
		return nil, nil, &model.MalformedPathError{
			Path:   n.RootPath,
			Reason: fmt.Sprintf("name path depth %d differs from category path depth %d", len(names), len(categories)),
		}
	}
	return names, categories, nil
}
