package accessor

import (
	"fmt"
	"reflect"
	"slices"

	"github.com/tliron/commonlog"

	"layout-inspector/cil"
	"layout-inspector/internal/memo"
	"layout-inspector/meta"
)

// Usage maps each property to the fields its getter references, in
// reference order with duplicates preserved.
type Usage map[meta.PropertyDescriptor][]meta.FieldDescriptor

// Clone returns a deep copy.
func (u Usage) Clone() Usage {
	out := make(Usage, len(u))
	for p, fields := range u {
		out[p] = slices.Clone(fields)
	}
	return out
}

// Resolver maps properties to the backing fields their getters read.
type Resolver struct {
	source meta.AccessorSource
	table  *cil.Table
	cache  *memo.Table[reflect.Type, Usage]
	log    commonlog.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithTable decodes getter bodies with a custom opcode table.
func WithTable(t *cil.Table) Option {
	return func(r *Resolver) { r.table = t }
}

// WithCache shares a memoization table, e.g. across resolvers in tests.
func WithCache(c *memo.Table[reflect.Type, Usage]) Option {
	return func(r *Resolver) { r.cache = c }
}

// WithLogger sets the logger.
func WithLogger(log commonlog.Logger) Option {
	return func(r *Resolver) { r.log = log }
}

// NewResolver creates a Resolver reading getters from source.
func NewResolver(source meta.AccessorSource, opts ...Option) *Resolver {
	r := &Resolver{
		source: source,
		table:  cil.DefaultTable(),
		cache:  memo.New[reflect.Type, Usage](),
		log:    commonlog.GetLogger("layout-inspector.accessor"),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// PropertyFieldUsage returns the field usage of every property of t.
// The result is computed once per type; callers get their own copy.
func (r *Resolver) PropertyFieldUsage(t reflect.Type) (Usage, error) {
	if err := meta.RequireReferenceType(t); err != nil {
		return nil, err
	}

	usage, err := r.cache.GetOrCompute(t, r.compute)
	if err != nil {
		return nil, err
	}

	return usage.Clone(), nil
}

func (r *Resolver) compute(t reflect.Type) (Usage, error) {
	accessors, err := r.source.Accessors(t)
	if err != nil {
		return nil, fmt.Errorf("enumerating accessors of %s: %w", t, err)
	}

	usage := make(Usage, len(accessors))

	for _, acc := range accessors {
		tokens, err := r.table.FieldTokens(acc.Body)
		if err != nil {
			return nil, fmt.Errorf("decoding getter %s: %w", acc.Property, err)
		}

		if acc.Module == nil && len(tokens) > 0 {
			return nil, fmt.Errorf("%w: getter %s has no owning module", meta.ErrUnresolvedToken, acc.Property)
		}

		fields := make([]meta.FieldDescriptor, 0, len(tokens))
		for _, tok := range tokens {
			f, err := acc.Module.ResolveField(tok)
			if err != nil {
				return nil, fmt.Errorf("resolving field of getter %s: %w", acc.Property, err)
			}

			fields = append(fields, f)
		}

		usage[acc.Property] = fields
	}

	r.log.Debugf("resolved %d properties of %s", len(usage), t)

	return usage, nil
}
