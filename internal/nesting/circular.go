package nesting

import (
	"famtree/internal/model"
)

// Circular describes one occurrence path in which a family is nested inside
// a copy of itself.
type Circular struct {
	Path string `json:"path"`
	// Level is the 0-based nesting level of the first repeated segment.
	Level int `json:"level"`
	// Family is "name :: category" of the repeated segment.
	Family string `json:"family"`
}

// CircularPaths returns the root path of every occurrence whose path names
// the same family more than once. Only names are compared. The result is
// empty for the normal case.
func CircularPaths(occurrences []model.NestedFamily) ([]string, error) {
	found, err := FindCircular(occurrences)
	if err != nil {
		return nil, err
	}
	paths := make([]string, len(found))
	for i, c := range found {
		paths[i] = c.Path
	}
	return paths, nil
}

// FindCircular is CircularPaths with the level and family of the first
// repetition in each path.
func FindCircular(occurrences []model.NestedFamily) ([]Circular, error) {
	var found []Circular
	for _, occ := range occurrences {
		names, err := occ.Path()
		if err != nil {
			return nil, err
		}
		repeated := names.Repeated()
		if len(repeated) == 0 {
			continue
		}
		categories, err := occ.Categories()
		if err != nil {
			return nil, err
		}
		level := repeated[0]
		family := model.FamilyRef{Name: names[level]}
		if level < len(categories) {
			family.Category = categories[level]
		}
		found = append(found, Circular{
			Path:   occ.RootPath,
			Level:  level,
			Family: family.String(),
		})
	}
	return found, nil
}
