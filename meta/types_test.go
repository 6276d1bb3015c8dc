package meta

import (
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"layout-inspector/cil"
)

type sample struct {
	Name string
	age  int
}

func (s *sample) Age() int { return s.age }
func (s *sample) SetAge(age int) { s.age = age }

func TestTypeID_String(t *testing.T) {
	id := TypeID{PkgPath: "layout-inspector/store", Name: "Order"}
	assert.Equal(t, "layout-inspector/store.Order", id.String())

	idNoPkg := TypeID{Name: "int"}
	assert.Equal(t, "int", idNoPkg.String())
}

func TestTypeIDOf(t *testing.T) {
	want := TypeID{PkgPath: "layout-inspector/meta", Name: "sample"}
	assert.Equal(t, want, TypeIDOf(reflect.TypeFor[sample]()))
	assert.Equal(t, want, TypeIDOf(reflect.TypeFor[**sample]()))
	assert.Equal(t, TypeID{Name: "struct { X int }"}, TypeIDOf(reflect.TypeFor[struct{ X int }]()))
}

func TestFieldOf(t *testing.T) {
	f := FieldOf(reflect.TypeFor[sample](), 1)
	assert.Equal(t, "age", f.Name)
	assert.Equal(t, 1, f.Index)
	assert.Equal(t, "layout-inspector/meta.sample.age", f.String())
}

func TestRequireReferenceType(t *testing.T) {
	require.NoError(t, RequireReferenceType(reflect.TypeFor[*sample]()))

	for _, typ := range []reflect.Type{
		reflect.TypeFor[sample](),
		reflect.TypeFor[int](),
		reflect.TypeFor[*int](),
		reflect.TypeFor[[]sample](),
		nil,
	} {
		assert.ErrorIs(t, RequireReferenceType(typ), ErrUnsupportedValueType, "%v", typ)
	}
}

func TestShapeOf(t *testing.T) {
	type Status string

	assert.Equal(t, ShapePrimitive, ShapeOf(reflect.TypeFor[int]()))
	assert.Equal(t, ShapePrimitive, ShapeOf(reflect.TypeFor[*string]()))
	assert.Equal(t, ShapePrimitive, ShapeOf(reflect.TypeFor[Status]()))
	assert.Equal(t, ShapePrimitive, ShapeOf(reflect.TypeFor[time.Time]()))
	assert.Equal(t, ShapePrimitive, ShapeOf(reflect.TypeFor[time.Duration]()))
	assert.Equal(t, ShapeList, ShapeOf(reflect.TypeFor[[]sample]()))
	assert.Equal(t, ShapeList, ShapeOf(reflect.TypeFor[[4]int]()))
	assert.Equal(t, ShapeDictionary, ShapeOf(reflect.TypeFor[map[string]int]()))
	assert.Equal(t, ShapeStruct, ShapeOf(reflect.TypeFor[*sample]()))
	assert.Equal(t, ShapeOpaque, ShapeOf(reflect.TypeFor[error]()))
	assert.Equal(t, ShapeUnknown, ShapeOf(nil))

	assert.Equal(t, "dictionary", ShapeDictionary.String())
	assert.Equal(t, "unknown", Shape(42).String())
}

func TestIsGetter(t *testing.T) {
	typ := reflect.TypeFor[*sample]()

	age, ok := typ.MethodByName("Age")
	require.True(t, ok)
	assert.True(t, IsGetter(age))

	setAge, ok := typ.MethodByName("SetAge")
	require.True(t, ok)
	assert.False(t, IsGetter(setAge))
}

func TestFieldTable(t *testing.T) {
	ft := NewFieldTable("layout-inspector/meta")
	name := FieldOf(reflect.TypeFor[sample](), 0)
	age := FieldOf(reflect.TypeFor[sample](), 1)

	tName := ft.Token(name)
	tAge := ft.Token(age)
	assert.Equal(t, cil.MakeToken(cil.TableField, 1), tName)
	assert.Equal(t, cil.MakeToken(cil.TableField, 2), tAge)
	assert.Equal(t, tName, ft.Token(name), "tokens are stable")
	assert.Equal(t, 2, ft.Len())

	got, err := ft.ResolveField(tAge)
	require.NoError(t, err)
	assert.Equal(t, age, got)

	for _, bad := range []cil.FieldToken{
		cil.MakeToken(cil.TableField, 0),
		cil.MakeToken(cil.TableField, 3),
		cil.MakeToken(cil.TableMemberRef, 1),
	} {
		_, err := ft.ResolveField(bad)
		assert.ErrorIs(t, err, ErrUnresolvedToken)
	}
}

func TestFieldTable_Concurrent(t *testing.T) {
	ft := NewFieldTable("m")
	st := reflect.TypeFor[sample]()

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ft.Token(FieldOf(st, 0))
			ft.Token(FieldOf(st, 1))
		}()
	}
	wg.Wait()

	assert.Equal(t, 2, ft.Len())
}

func TestStaticSource(t *testing.T) {
	src := NewStaticSource()
	typ := reflect.TypeFor[*sample]()

	acc := Accessor{Property: PropertyDescriptor{Declaring: TypeIDOf(typ), Name: "Age"}}
	src.Register(typ, acc)

	got, err := src.Accessors(typ)
	require.NoError(t, err)
	assert.Equal(t, []Accessor{acc}, got)

	none, err := src.Accessors(reflect.TypeFor[*int]())
	require.NoError(t, err)
	assert.Empty(t, none)
}
