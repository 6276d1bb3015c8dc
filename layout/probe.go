package layout

import (
	"reflect"
	"runtime"
	"unsafe"

	"layout-inspector/meta"
)

// probe returns the raw address of every probed field of the instance at p,
// parallel to the field list it was synthesized for.
type probe func(p unsafe.Pointer) []uint64

// probedFields lists the instance fields of st in declaration order. Blank
// fields cannot be read by a getter and are not probed.
func probedFields(st reflect.Type) ([]meta.FieldDescriptor, []int) {
	var (
		fields  []meta.FieldDescriptor
		indexes []int
	)

	for i := range st.NumField() {
		sf := st.Field(i)
		if sf.Name == "_" {
			continue
		}

		fields = append(fields, meta.FieldOf(st, i))
		indexes = append(indexes, i)
	}

	return fields, indexes
}

// synthesize builds the address probe for struct type st.
func synthesize(st reflect.Type, indexes []int) probe {
	return func(p unsafe.Pointer) []uint64 {
		v := reflect.NewAt(st, p).Elem()

		addrs := make([]uint64, len(indexes))
		for i, fi := range indexes {
			addrs[i] = uint64(v.Field(fi).UnsafeAddr())
		}

		return addrs
	}
}

// run invokes pr on the pointer held by instance.
func (pr probe) run(instance reflect.Value) []uint64 {
	addrs := pr(instance.UnsafePointer())
	runtime.KeepAlive(instance.Interface())

	return addrs
}
