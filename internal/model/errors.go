package model

import (
	"errors"
	"fmt"
)

var (
	ErrMalformedPath      = errors.New("malformed nesting path")
	ErrIdentityMismatch   = errors.New("record identity does not match container")
	ErrDuplicateRecord    = errors.New("duplicate record")
	ErrUnsupportedVariant = errors.New("unsupported data type")
	ErrVariantMismatch    = errors.New("record variant mismatch")
)

// MalformedPathError is returned when an ancestry string cannot be parsed.
type MalformedPathError struct {
	Path   string
	Reason string
}

func (e *MalformedPathError) Error() string {
	return fmt.Sprintf("malformed nesting path %q: %s", e.Path, e.Reason)
}

func (e *MalformedPathError) Is(target error) bool { return target == ErrMalformedPath }

// IdentityMismatchError is returned when a record belongs to a different
// occurrence than the container it is added to.
type IdentityMismatchError struct {
	Want Identity
	Got  Identity
}

func (e *IdentityMismatchError) Error() string {
	return fmt.Sprintf("record identity %s does not match container identity %s", e.Got, e.Want)
}

func (e *IdentityMismatchError) Is(target error) bool { return target == ErrIdentityMismatch }

// DuplicateRecordError is returned when a container already holds a record
// of the same variant with the same uniqueness key.
type DuplicateRecordError struct {
	Type DataType
	Key  string
}

func (e *DuplicateRecordError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("duplicate %s record", e.Type)
	}
	return fmt.Sprintf("duplicate %s record %q", e.Type, e.Key)
}

func (e *DuplicateRecordError) Is(target error) bool { return target == ErrDuplicateRecord }

// UnsupportedVariantError is returned for a data type outside the five
// known report variants.
type UnsupportedVariantError struct {
	DataType string
}

func (e *UnsupportedVariantError) Error() string {
	return fmt.Sprintf("unsupported data type %q", e.DataType)
}

func (e *UnsupportedVariantError) Is(target error) bool { return target == ErrUnsupportedVariant }

// VariantMismatchError is returned when a record is handed to an add
// operation for another variant, or when its concrete type disagrees with
// the data type it reports.
type VariantMismatchError struct {
	Want DataType
	Got  DataType
}

func (e *VariantMismatchError) Error() string {
	return fmt.Sprintf("expected %s record, got %s", e.Want, e.Got)
}

func (e *VariantMismatchError) Is(target error) bool { return target == ErrVariantMismatch }
