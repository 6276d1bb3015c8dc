package constants

import (
	"reflect"

	"layout-inspector/meta"
)

// Names walks the type graph reachable from t and returns every property and
// field name in visit order, duplicates included.
//
// Properties are exported getter methods and fields are exported struct
// fields. Only structs, reached directly or through pointers, are descended
// into: maps, slices, arrays, primitives, opaque types and already visited
// structs are not.
func Names(t reflect.Type) []string {
	w := walker{seen: make(map[reflect.Type]bool)}
	w.walk(t)
	return w.names
}

// Extract builds the constant table for the names reachable from t.
func Extract(t reflect.Type) *Table {
	return Build(Names(t))
}

type walker struct {
	seen  map[reflect.Type]bool
	names []string
}

func (w *walker) walk(t reflect.Type) {
	if t == nil {
		return
	}

	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	if meta.ShapeOf(t) != meta.ShapeStruct || w.seen[t] {
		return
	}

	w.seen[t] = true

	// the pointer method set holds getters of both receiver kinds
	methods := reflect.PointerTo(t)
	for i := range methods.NumMethod() {
		m := methods.Method(i)
		if !meta.IsGetter(m) {
			continue
		}

		w.names = append(w.names, m.Name)
		w.walk(m.Type.Out(0))
	}

	for i := range t.NumField() {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}

		w.names = append(w.names, f.Name)
		w.walk(f.Type)
	}
}
