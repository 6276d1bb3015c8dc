package meta

import (
	"errors"
	"fmt"
	"reflect"
)

var (
	// ErrUnsupportedValueType is returned when an analysis that needs a
	// reference type is given a value type.
	ErrUnsupportedValueType = errors.New("unsupported value type")
	// ErrConstructionFailure is returned when a type cannot be default constructed.
	ErrConstructionFailure = errors.New("construction failure")
	// ErrUnresolvedToken is returned when a module cannot resolve a field token.
	ErrUnresolvedToken = errors.New("unresolved field token")
	// ErrTypeNotFound is returned when an accessor source does not know a type.
	ErrTypeNotFound = errors.New("type not found")
)

// TypeID uniquely identifies a type by its package path and name.
type TypeID struct {
	PkgPath string // e.g., "layout-inspector/store"
	Name    string // e.g., "Order"
}

// String returns a human-readable representation of the TypeID.
func (t TypeID) String() string {
	if t.PkgPath == "" {
		return t.Name
	}

	return t.PkgPath + "." + t.Name
}

// TypeIDOf returns the identity of t with pointers removed.
// Unnamed types use their literal spelling as name.
func TypeIDOf(t reflect.Type) TypeID {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	if t.Name() == "" {
		return TypeID{Name: t.String()}
	}

	return TypeID{PkgPath: t.PkgPath(), Name: t.Name()}
}

// FieldDescriptor is the resolved identity of an instance field.
type FieldDescriptor struct {
	Declaring TypeID // struct declaring the field; package-level variables have an empty Name
	Name      string // Go field name
	Index     int    // index within the declaring struct
}

func (f FieldDescriptor) String() string {
	return f.Declaring.String() + "." + f.Name
}

// PropertyDescriptor is the resolved identity of a getter method.
type PropertyDescriptor struct {
	Declaring TypeID
	Name      string
}

func (p PropertyDescriptor) String() string {
	return p.Declaring.String() + "." + p.Name + "()"
}

// FieldOf builds the descriptor for field i of struct type st.
func FieldOf(st reflect.Type, i int) FieldDescriptor {
	return FieldDescriptor{
		Declaring: TypeIDOf(st),
		Name:      st.Field(i).Name,
		Index:     i,
	}
}

// IsReferenceType reports whether t is a pointer to a struct: its instances
// live behind the pointer and have stable field addresses.
func IsReferenceType(t reflect.Type) bool {
	return t != nil && t.Kind() == reflect.Pointer && t.Elem().Kind() == reflect.Struct
}

// RequireReferenceType returns ErrUnsupportedValueType unless t is a reference type.
func RequireReferenceType(t reflect.Type) error {
	if t == nil {
		return fmt.Errorf("%w: <nil>", ErrUnsupportedValueType)
	}

	if !IsReferenceType(t) {
		return fmt.Errorf("%w: %s is not a pointer to a struct", ErrUnsupportedValueType, t)
	}

	return nil
}
