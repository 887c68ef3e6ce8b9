// Package nesting resolves family nesting trees: it culls redundant
// ancestry records, detects circular nesting and relates root families to
// their nested occurrences. Everything here is pure and safe to call from
// several goroutines on disjoint inputs.
package nesting

import (
	"famtree/internal/model"
)

// Cull reduces a set of occurrences to the deepest entry of every branch.
// An occurrence is dropped when its root path is a strict prefix of another
// occurrence's root path. Records equal in every field collapse to the
// first one seen. Records sharing a root path but differing in category
// path, file path or any other field are all kept.
// Survivors keep their input order.
func Cull(records []model.NestedFamily) ([]model.NestedFamily, error) {
	paths := make([]model.NestingPath, len(records))
	for i, r := range records {
		p, err := r.Path()
		if err != nil {
			return nil, err
		}
		paths[i] = p
	}

	removed := make([]bool, len(records))
	for i := range records {
		for j := range records {
			if i != j && paths[i].IsStrictPrefixOf(paths[j]) {
				removed[i] = true
				break
			}
		}
	}

	seen := make(map[model.NestedFamily]struct{}, len(records))
	out := make([]model.NestedFamily, 0, len(records))
	for i, r := range records {
		if removed[i] {
			continue
		}
		if _, dup := seen[r]; dup {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}
	return out, nil
}

// CullBlocks groups occurrences by the root family their path starts at and
// culls each group on its own. Groups appear in first-seen order.
func CullBlocks(records []model.NestedFamily) ([]model.NestedFamily, error) {
	var order []string
	blocks := make(map[string][]model.NestedFamily)
	for _, r := range records {
		p, err := r.Path()
		if err != nil {
			return nil, err
		}
		root := p.Root()
		if _, ok := blocks[root]; !ok {
			order = append(order, root)
		}
		blocks[root] = append(blocks[root], r)
	}

	var out []model.NestedFamily
	for _, root := range order {
		block := blocks[root]
		if len(block) == 1 {
			out = append(out, block[0])
			continue
		}
		culled, err := Cull(block)
		if err != nil {
			return nil, err
		}
		out = append(out, culled...)
	}
	return out, nil
}
