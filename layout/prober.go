package layout

import (
	"fmt"
	"reflect"
	"slices"

	"github.com/tliron/commonlog"

	"layout-inspector/internal/memo"
	"layout-inspector/meta"
)

// Offsets maps each field to its byte offset relative to the lowest field
// address of an instance.
type Offsets map[meta.FieldDescriptor]int

// Clone returns a copy.
func (o Offsets) Clone() Offsets {
	out := make(Offsets, len(o))
	for f, off := range o {
		out[f] = off
	}
	return out
}

// Ordered returns the fields sorted by offset.
func (o Offsets) Ordered() []meta.FieldDescriptor {
	fields := make([]meta.FieldDescriptor, 0, len(o))
	for f := range o {
		fields = append(fields, f)
	}

	slices.SortFunc(fields, func(a, b meta.FieldDescriptor) int {
		return o[a] - o[b]
	})

	return fields
}

// Constructor creates a default instance of reference type t and returns it
// as a value of type t.
type Constructor func(t reflect.Type) (any, error)

// DefaultConstructor allocates a zero value behind a new pointer.
func DefaultConstructor(t reflect.Type) (any, error) {
	return reflect.New(t.Elem()).Interface(), nil
}

// Prober determines the relative memory order of instance fields by taking
// their addresses on a constructed instance.
type Prober struct {
	construct Constructor
	cache     *memo.Table[reflect.Type, Offsets]
	log       commonlog.Logger
}

// Option configures a Prober.
type Option func(*Prober)

// WithConstructor replaces the default constructor.
func WithConstructor(c Constructor) Option {
	return func(p *Prober) { p.construct = c }
}

// WithCache shares a memoization table.
func WithCache(c *memo.Table[reflect.Type, Offsets]) Option {
	return func(p *Prober) { p.cache = c }
}

// WithLogger sets the logger.
func WithLogger(log commonlog.Logger) Option {
	return func(p *Prober) { p.log = log }
}

// NewProber creates a Prober.
func NewProber(opts ...Option) *Prober {
	p := &Prober{
		construct: DefaultConstructor,
		cache:     memo.New[reflect.Type, Offsets](),
		log:       commonlog.GetLogger("layout-inspector.layout"),
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// FieldOffsets returns the offset of every named instance field of t.
// Fields of non-zero size have pairwise distinct offsets in
// [0, InstanceSize(t)). A zero-width field shares the offset of the field
// after it, or of the padding that follows the last field.
func (p *Prober) FieldOffsets(t reflect.Type) (Offsets, error) {
	if err := meta.RequireReferenceType(t); err != nil {
		return nil, err
	}

	offsets, err := p.cache.GetOrCompute(t, p.compute)
	if err != nil {
		return nil, err
	}

	return offsets.Clone(), nil
}

func (p *Prober) compute(t reflect.Type) (Offsets, error) {
	st := t.Elem()
	fields, indexes := probedFields(st)
	pr := synthesize(st, indexes)

	instance, err := p.newInstance(t)
	if err != nil {
		return nil, err
	}

	addrs := pr.run(instance)

	offsets := make(Offsets, len(fields))
	if len(addrs) == 0 {
		return offsets, nil
	}

	lowest := slices.Min(addrs)
	for i, f := range fields {
		offsets[f] = int(addrs[i] - lowest)
	}

	p.log.Debugf("probed %d fields of %s", len(offsets), t)

	return offsets, nil
}

func (p *Prober) newInstance(t reflect.Type) (instance reflect.Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: constructing %s panicked: %v", meta.ErrConstructionFailure, t, r)
		}
	}()

	obj, err := p.construct(t)
	if err != nil {
		return reflect.Value{}, fmt.Errorf("%w: constructing %s: %w", meta.ErrConstructionFailure, t, err)
	}

	v := reflect.ValueOf(obj)
	if !v.IsValid() || v.Type() != t {
		return reflect.Value{}, fmt.Errorf("%w: constructor for %s returned %T", meta.ErrConstructionFailure, t, obj)
	}

	if v.IsNil() {
		return reflect.Value{}, fmt.Errorf("%w: constructor for %s returned nil", meta.ErrConstructionFailure, t)
	}

	return v, nil
}

// InstanceSize returns the size in bytes of an instance of reference type t.
func InstanceSize(t reflect.Type) (int, error) {
	if err := meta.RequireReferenceType(t); err != nil {
		return 0, err
	}

	return int(t.Elem().Size()), nil
}
