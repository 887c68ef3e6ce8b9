package model

import "fmt"

// FamilyRef identifies a family definition by name and category.
type FamilyRef struct {
	Name     string `json:"name"`
	Category string `json:"category"`
}

func (f FamilyRef) String() string {
	return f.Name + Separator + f.Category
}

// RootFamily is a family that sits at the top of its own nesting tree and
// was saved to disk on its own.
type RootFamily struct {
	Name     string `json:"name"`
	Category string `json:"category"`
	FilePath string `json:"file_path"`
}

// Ref returns the name and category of the root family.
func (r RootFamily) Ref() FamilyRef {
	return FamilyRef{Name: r.Name, Category: r.Category}
}

// NestedFamily is one occurrence of a family somewhere in a nesting tree.
// Paths are kept serialized so the value is comparable.
type NestedFamily struct {
	Name         string `json:"name"`
	Category     string `json:"category"`
	FilePath     string `json:"file_path"`     // NestedFilePath when not saved on its own
	RootPath     string `json:"root_path"`     // names, root first, ending in this occurrence
	CategoryPath string `json:"category_path"` // categories, parallel to RootPath
	HostFamily   string `json:"host_family"`   // "" when the occurrence is a root family
}

// NewNestedFamily validates both ancestry paths and derives the host family.
func NewNestedFamily(name, category, filePath, rootPath, categoryPath string) (NestedFamily, error) {
	names, err := ParsePath(rootPath)
	if err != nil {
		return NestedFamily{}, err
	}
	categories, err := ParsePath(categoryPath)
	if err != nil {
		return NestedFamily{}, err
	}
	if names.Depth() != categories.Depth() {
		return NestedFamily{}, &MalformedPathError{
			Path:   rootPath,
			Reason: fmt.Sprintf("name path depth %d differs from category path depth %d", names.Depth(), categories.Depth()),
		}
	}
	return NestedFamily{
		Name:         name,
		Category:     category,
		FilePath:     filePath,
		RootPath:     rootPath,
		CategoryPath: categoryPath,
		HostFamily:   names.Host(),
	}, nil
}

// Path parses RootPath.
func (n NestedFamily) Path() (NestingPath, error) {
	return ParsePath(n.RootPath)
}

// Categories parses CategoryPath.
func (n NestedFamily) Categories() (NestingPath, error) {
	return ParsePath(n.CategoryPath)
}

// Ref returns the name and category of the nested family.
func (n NestedFamily) Ref() FamilyRef {
	return FamilyRef{Name: n.Name, Category: n.Category}
}
