package model

import (
	"strings"
)

const (
	// Separator joins ancestry segments when a path is serialized.
	Separator = " :: "
	// separatorToken is what parsing splits on. Reports are not consistent
	// about the spaces around it.
	separatorToken = "::"
	// NoneValue is the report's literal for an absent value.
	NoneValue = "None"
	// NestedFilePath is the file path sentinel for families that only
	// exist inside a host family.
	NestedFilePath = "-"
)

// NestingPath is the ordered list of family (or category) names from a root
// family down to one occurrence.
type NestingPath []string

// ParsePath splits a serialized ancestry string into its segments.
// The empty string is a valid single-segment path (legacy rows without
// ancestry). The null literal "None" is rejected.
func ParsePath(s string) (NestingPath, error) {
	if s == NoneValue {
		return nil, &MalformedPathError{Path: s, Reason: "path is null"}
	}
	parts := strings.Split(s, separatorToken)
	p := make(NestingPath, len(parts))
	for i, part := range parts {
		p[i] = strings.TrimSpace(part)
	}
	return p, nil
}

// MustParsePath is ParsePath for literals known to be valid.
func MustParsePath(s string) NestingPath {
	p, err := ParsePath(s)
	if err != nil {
		panic(err)
	}
	return p
}

// CanonicalPath re-serializes s with Separator, so "A::B" and "A :: B"
// compare equal. Unparseable input is returned unchanged.
func CanonicalPath(s string) string {
	p, err := ParsePath(s)
	if err != nil {
		return s
	}
	return p.String()
}

// IsNestedPath reports whether a serialized path has more than one segment.
func IsNestedPath(s string) bool {
	return strings.Contains(s, separatorToken)
}

// String serializes the path with Separator.
func (p NestingPath) String() string {
	return strings.Join(p, Separator)
}

// Depth is the number of segments.
func (p NestingPath) Depth() int {
	return len(p)
}

// Leaf returns the last segment: the occurrence itself.
func (p NestingPath) Leaf() string {
	if len(p) == 0 {
		return ""
	}
	return p[len(p)-1]
}

// Host returns the second-to-last segment, or "" for a root path.
func (p NestingPath) Host() string {
	if len(p) < 2 {
		return ""
	}
	return p[len(p)-2]
}

// Root returns the first segment.
func (p NestingPath) Root() string {
	if len(p) == 0 {
		return ""
	}
	return p[0]
}

// Equal reports whether both paths have the same segments in the same order.
func (p NestingPath) Equal(other NestingPath) bool {
	if len(p) != len(other) {
		return false
	}
	for i := range p {
		if p[i] != other[i] {
			return false
		}
	}
	return true
}

// HasPrefix reports whether p begins with every segment of prefix.
// A path is a prefix of itself.
func (p NestingPath) HasPrefix(prefix NestingPath) bool {
	if len(prefix) > len(p) {
		return false
	}
	return p[:len(prefix)].Equal(prefix)
}

// IsStrictPrefixOf reports whether other begins with all of p and is longer.
func (p NestingPath) IsStrictPrefixOf(other NestingPath) bool {
	return len(other) > len(p) && other.HasPrefix(p)
}

// Repeated returns the index of every segment whose name already appeared
// earlier in the path, in path order.
func (p NestingPath) Repeated() []int {
	var repeated []int
	seen := make(map[string]struct{}, len(p))
	for i, name := range p {
		if _, ok := seen[name]; ok {
			repeated = append(repeated, i)
			continue
		}
		seen[name] = struct{}{}
	}
	return repeated
}
