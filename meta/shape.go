package meta

import (
	"reflect"
	"time"
)

// Shape classifies a type for graph walks.
type Shape int

const (
	ShapeUnknown    Shape = iota
	ShapePrimitive        // bool, numbers, strings, time.Time, time.Duration and enums over them
	ShapeList             // slices and arrays
	ShapeDictionary       // maps
	ShapeStruct           // structs, reached directly or through pointers
	ShapeOpaque           // interfaces, funcs, chans, unsafe pointers
)

// String returns a human-readable representation of the Shape.
func (s Shape) String() string {
	switch s {
	case ShapePrimitive:
		return "primitive"
	case ShapeList:
		return "list"
	case ShapeDictionary:
		return "dictionary"
	case ShapeStruct:
		return "struct"
	case ShapeOpaque:
		return "opaque"
	default:
		return "unknown"
	}
}

var (
	timeType     = reflect.TypeOf(time.Time{})
	durationType = reflect.TypeOf(time.Duration(0))
)

// ShapeOf classifies t, looking through pointers.
func ShapeOf(t reflect.Type) Shape {
	if t == nil {
		return ShapeUnknown
	}

	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	if t == timeType || t == durationType {
		return ShapePrimitive
	}

	switch t.Kind() {
	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128:
		return ShapePrimitive
	case reflect.Slice, reflect.Array:
		return ShapeList
	case reflect.Map:
		return ShapeDictionary
	case reflect.Struct:
		return ShapeStruct
	default:
		return ShapeOpaque
	}
}

// IsPrimitive reports whether t is a primitive.
func IsPrimitive(t reflect.Type) bool { return ShapeOf(t) == ShapePrimitive }

// IsList reports whether t is a list-like container.
func IsList(t reflect.Type) bool { return ShapeOf(t) == ShapeList }

// IsDictionary reports whether t is a dictionary-like container.
func IsDictionary(t reflect.Type) bool { return ShapeOf(t) == ShapeDictionary }

// IsGetter reports whether m, taken from a method set, is a niladic method
// with exactly one result. Method-set entries include the receiver as the
// first input.
func IsGetter(m reflect.Method) bool {
	return m.Type.NumIn() == 1 && m.Type.NumOut() == 1
}
