package engine

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"layout-inspector/accessor"
	"layout-inspector/cil"
	"layout-inspector/internal/config"
	"layout-inspector/internal/diagnostic"
	"layout-inspector/internal/memo"
	"layout-inspector/layout"
	"layout-inspector/meta"
	"layout-inspector/store"
)

var (
	personType = reflect.TypeFor[*store.Person]()
	personID   = meta.TypeID{PkgPath: "layout-inspector/store", Name: "Person"}
)

func TestEngine_PersonFromSource(t *testing.T) {
	e := New()

	usage, err := e.PropertyFieldUsage(personType)
	require.NoError(t, err)

	st := personType.Elem()
	expected := map[meta.PropertyDescriptor][]meta.FieldDescriptor{
		{Declaring: personID, Name: "Name"}: {meta.FieldOf(st, 0)},
		{Declaring: personID, Name: "Age"}:  {meta.FieldOf(st, 1)},
	}
	assert.Equal(t, expected, map[meta.PropertyDescriptor][]meta.FieldDescriptor(usage), spew.Sdump(usage))

	offsets, err := e.FieldOffsets(personType)
	require.NoError(t, err)
	assert.Equal(t, 0, offsets[meta.FieldOf(st, 0)])
	assert.Equal(t, int(st.Field(1).Offset), offsets[meta.FieldOf(st, 1)])
	assert.Greater(t, offsets[meta.FieldOf(st, 1)], 0)

	table := e.ExtractConstants(personType)
	assert.Equal(t, "AgeName", table.Buffer)
	off, ok := table.Offset("Name")
	require.True(t, ok)
	assert.Equal(t, 3, off)
}

func TestEngine_OrderFromSource(t *testing.T) {
	e := New()

	usage, err := e.PropertyFieldUsage(reflect.TypeFor[*store.Order]())
	require.NoError(t, err)

	orderID := meta.TypeID{PkgPath: "layout-inspector/store", Name: "Order"}
	version := usage[meta.PropertyDescriptor{Declaring: orderID, Name: "Version"}]
	require.Len(t, version, 2)
	assert.Equal(t, "Audit", version[0].Name)
	assert.Equal(t, "version", version[1].Name)
	assert.Equal(t, meta.TypeID{PkgPath: "layout-inspector/store", Name: "Audit"}, version[1].Declaring)

	created := usage[meta.PropertyDescriptor{Declaring: orderID, Name: "CreatedBy"}]
	require.Len(t, created, 2, spew.Sdump(usage))
	assert.Equal(t, "Audit", created[0].Name)
	assert.Equal(t, "createdBy", created[1].Name)

	// every property in the name table has a usage entry
	table := e.ExtractConstants(reflect.TypeFor[*store.Order]())
	for name := range usage {
		_, ok := table.Offset(name.Name)
		assert.True(t, ok, name.Name)
	}
	for _, name := range []string{"ID", "Version", "CustomerName", "TotalCents", "Status", "OrderedAt", "CreatedBy"} {
		_, ok := usage[meta.PropertyDescriptor{Declaring: orderID, Name: name}]
		assert.True(t, ok, name)
	}

	offsets, err := e.FieldOffsets(reflect.TypeFor[*store.Order]())
	require.NoError(t, err)
	assert.Len(t, offsets, reflect.TypeFor[store.Order]().NumField())
}

func TestEngine_ValueTypesRejected(t *testing.T) {
	e := New()

	_, err := e.PropertyFieldUsage(reflect.TypeFor[store.Point]())
	assert.True(t, errors.Is(err, meta.ErrUnsupportedValueType))

	_, err = e.FieldOffsets(reflect.TypeFor[store.Point]())
	assert.True(t, errors.Is(err, meta.ErrUnsupportedValueType))

	// constants accept any type
	table := e.ExtractConstants(reflect.TypeFor[store.Point]())
	assert.Equal(t, "XY", table.Buffer)
}

type widget struct {
	id    int64
	label string
}

func (w *widget) Label() string { return w.label }

func TestEngine_WithAccessorSource(t *testing.T) {
	typ := reflect.TypeFor[*widget]()
	st := typ.Elem()

	module := meta.NewFieldTable(st.PkgPath())
	label := meta.FieldOf(st, 1)
	body := cil.NewAssembler().
		Emit(cil.Ldarg0).
		EmitField(cil.Ldfld, module.Token(label)).
		Emit(cil.Ret).
		MustBytes()

	src := meta.NewStaticSource()
	prop := meta.PropertyDescriptor{Declaring: meta.TypeIDOf(st), Name: "Label"}
	src.Register(typ, meta.Accessor{Property: prop, Body: body, Module: module})

	e := New(WithAccessorSource(src))
	assert.Nil(t, e.Loader())

	usage, err := e.PropertyFieldUsage(typ)
	require.NoError(t, err)
	assert.Equal(t, []meta.FieldDescriptor{label}, usage[prop])

	// callers own their copy
	usage[prop] = nil
	again, err := e.PropertyFieldUsage(typ)
	require.NoError(t, err)
	assert.Equal(t, []meta.FieldDescriptor{label}, again[prop])
}

func TestEngine_WithConstructor(t *testing.T) {
	calls := 0
	e := New(WithConstructor(func(t reflect.Type) (any, error) {
		calls++
		return layout.DefaultConstructor(t)
	}))

	for range 3 {
		_, err := e.FieldOffsets(reflect.TypeFor[*widget]())
		require.NoError(t, err)
	}

	assert.Equal(t, 1, calls)
}

func TestEngine_WarmUp(t *testing.T) {
	e := New(
		WithWorkers(2),
		WithConstructor(func(t reflect.Type) (any, error) {
			if t == reflect.TypeFor[*store.Customer]() {
				return nil, errors.New("no customers")
			}
			return layout.DefaultConstructor(t)
		}),
	)

	diags := e.WarmUp(context.Background(),
		personType,
		reflect.TypeFor[*store.Customer](),
		reflect.TypeFor[store.Point](),
		reflect.TypeFor[*store.Address](),
	)

	require.True(t, diags.HasErrors())
	require.Len(t, diags.Errors, 3, spew.Sdump(diags.Errors))

	assert.Equal(t, "*store.Customer", diags.Errors[0].Type)
	assert.Equal(t, AnalysisOffsets, diags.Errors[0].Analysis)
	assert.Equal(t, diagnostic.CodeConstructionFailure, diags.Errors[0].Code)

	assert.Equal(t, "store.Point", diags.Errors[1].Type)
	assert.Equal(t, AnalysisOffsets, diags.Errors[1].Analysis)
	assert.Equal(t, diagnostic.CodeUnsupportedValueType, diags.Errors[1].Code)

	assert.Equal(t, "store.Point", diags.Errors[2].Type)
	assert.Equal(t, AnalysisUsage, diags.Errors[2].Analysis)
	assert.Equal(t, diagnostic.CodeUnsupportedValueType, diags.Errors[2].Code)

	// Customer getters still resolved even though probing failed
	usage, err := e.PropertyFieldUsage(reflect.TypeFor[*store.Customer]())
	require.NoError(t, err)
	assert.Len(t, usage, 5)
}

func TestEngine_WarmUpCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	diags := New().WarmUp(ctx, personType, reflect.TypeFor[*store.Order]())

	require.Len(t, diags.Errors, 2)
	for _, d := range diags.Errors {
		assert.Equal(t, diagnostic.CodeCanceled, d.Code)
	}
}

type blank struct{}

func TestEngine_WarmUpWarnsOnEmptyNameTable(t *testing.T) {
	e := New(WithAccessorSource(meta.NewStaticSource()))

	diags := e.WarmUp(context.Background(), reflect.TypeFor[*blank]())

	assert.False(t, diags.HasErrors(), spew.Sdump(diags.Errors))
	require.Len(t, diags.Warnings, 1)
	assert.Equal(t, diagnostic.CodeNoNames, diags.Warnings[0].Code)
	assert.Equal(t, AnalysisConstants, diags.Warnings[0].Analysis)
}

func TestEngine_SharedCaches(t *testing.T) {
	usage := memo.New[reflect.Type, accessor.Usage]()
	offsets := memo.New[reflect.Type, layout.Offsets]()

	calls := 0
	construct := func(t reflect.Type) (any, error) {
		calls++
		return layout.DefaultConstructor(t)
	}

	first := New(WithUsageCache(usage), WithOffsetCache(offsets), WithConstructor(construct))
	_, err := first.PropertyFieldUsage(personType)
	require.NoError(t, err)
	_, err = first.FieldOffsets(personType)
	require.NoError(t, err)

	assert.Equal(t, 1, usage.Len())
	assert.Equal(t, 1, offsets.Len())

	// a second engine on the same tables is served from them
	second := New(WithUsageCache(usage), WithOffsetCache(offsets), WithConstructor(construct))
	got, err := second.FieldOffsets(personType)
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Equal(t, 1, calls)

	cached, ok := usage.Get(personType)
	require.True(t, ok)
	assert.Len(t, cached, 2)
}

func TestNewFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Workers = 3

	e := NewFromConfig(cfg)
	assert.Equal(t, 3, e.workers)
	require.NotNil(t, e.Loader())

	_, err := e.PropertyFieldUsage(personType)
	require.NoError(t, err)
}

func TestCodeOf(t *testing.T) {
	tests := []struct {
		err  error
		code string
	}{
		{meta.ErrUnsupportedValueType, diagnostic.CodeUnsupportedValueType},
		{meta.ErrConstructionFailure, diagnostic.CodeConstructionFailure},
		{&cil.DecodeError{Offset: 1, Reason: "x"}, diagnostic.CodeMalformedBody},
		{meta.ErrUnresolvedToken, diagnostic.CodeUnresolvedToken},
		{meta.ErrTypeNotFound, diagnostic.CodeTypeNotFound},
		{context.Canceled, diagnostic.CodeCanceled},
		{errors.New("boom"), diagnostic.CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.code, codeOf(tt.err))
		})
	}
}
