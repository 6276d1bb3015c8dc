package engine

import (
	"context"
	"errors"
	"reflect"
	"runtime"

	"github.com/tliron/commonlog"
	"golang.org/x/sync/errgroup"

	"layout-inspector/accessor"
	"layout-inspector/cil"
	"layout-inspector/constants"
	"layout-inspector/internal/config"
	"layout-inspector/internal/diagnostic"
	"layout-inspector/internal/memo"
	"layout-inspector/internal/source"
	"layout-inspector/layout"
	"layout-inspector/meta"
)

// Engine answers the three introspection queries for reference types and
// caches the first two per type.
type Engine struct {
	source   meta.AccessorSource
	loader   *source.Loader
	resolver *accessor.Resolver
	prober   *layout.Prober
	workers  int
	log      commonlog.Logger
}

type settings struct {
	source      meta.AccessorSource
	constructor layout.Constructor
	usage       *memo.Table[reflect.Type, accessor.Usage]
	offsets     *memo.Table[reflect.Type, layout.Offsets]
	log         commonlog.Logger
	workers     int
	dir         string
	buildFlags  []string
	tests       bool
}

// Option configures an Engine.
type Option func(*settings)

// WithAccessorSource replaces the Go package loader as the provider of getter
// bodies.
func WithAccessorSource(src meta.AccessorSource) Option {
	return func(s *settings) { s.source = src }
}

// WithConstructor sets the hook used to create instances for layout probing.
func WithConstructor(c layout.Constructor) Option {
	return func(s *settings) { s.constructor = c }
}

// WithUsageCache shares the table PropertyFieldUsage results are memoized in.
func WithUsageCache(c *memo.Table[reflect.Type, accessor.Usage]) Option {
	return func(s *settings) { s.usage = c }
}

// WithOffsetCache shares the table FieldOffsets results are memoized in.
func WithOffsetCache(c *memo.Table[reflect.Type, layout.Offsets]) Option {
	return func(s *settings) { s.offsets = c }
}

// WithLogger sets the logger.
func WithLogger(log commonlog.Logger) Option {
	return func(s *settings) { s.log = log }
}

// WithWorkers bounds the number of types analysed concurrently by WarmUp.
func WithWorkers(n int) Option {
	return func(s *settings) { s.workers = n }
}

// WithSourceDir sets the directory Go packages are resolved from.
func WithSourceDir(dir string) Option {
	return func(s *settings) { s.dir = dir }
}

// WithBuildFlags passes flags such as -tags to the package loader.
func WithBuildFlags(flags ...string) Option {
	return func(s *settings) { s.buildFlags = flags }
}

// WithTests makes types declared in _test.go files inspectable.
func WithTests(tests bool) Option {
	return func(s *settings) { s.tests = tests }
}

// New creates an Engine. Without WithAccessorSource, getters are read from Go
// source through a package loader.
func New(opts ...Option) *Engine {
	s := settings{
		workers: runtime.GOMAXPROCS(0),
		log:     commonlog.GetLogger("layout-inspector.engine"),
	}

	for _, opt := range opts {
		opt(&s)
	}

	if s.workers <= 0 {
		s.workers = 1
	}

	e := &Engine{
		source:  s.source,
		workers: s.workers,
		log:     s.log,
	}

	if e.source == nil {
		e.loader = source.NewLoader(
			source.WithDir(s.dir),
			source.WithBuildFlags(s.buildFlags...),
			source.WithTests(s.tests),
		)
		e.source = e.loader
	}

	var resolverOpts []accessor.Option
	if s.usage != nil {
		resolverOpts = append(resolverOpts, accessor.WithCache(s.usage))
	}
	e.resolver = accessor.NewResolver(e.source, resolverOpts...)

	var proberOpts []layout.Option
	if s.constructor != nil {
		proberOpts = append(proberOpts, layout.WithConstructor(s.constructor))
	}
	if s.offsets != nil {
		proberOpts = append(proberOpts, layout.WithCache(s.offsets))
	}
	e.prober = layout.NewProber(proberOpts...)

	return e
}

// NewFromConfig creates an Engine from loaded settings. Later options win.
func NewFromConfig(cfg *config.Config, opts ...Option) *Engine {
	base := []Option{
		WithWorkers(cfg.Workers),
		WithSourceDir(cfg.Source.Dir),
		WithBuildFlags(cfg.Source.BuildFlags...),
		WithTests(cfg.Source.Tests),
	}

	return New(append(base, opts...)...)
}

// Loader returns the package loader, or nil when a custom accessor source
// is in use.
func (e *Engine) Loader() *source.Loader {
	return e.loader
}

// PropertyFieldUsage returns, for every property of the reference type t,
// the instance fields its getter references in reference order.
func (e *Engine) PropertyFieldUsage(t reflect.Type) (accessor.Usage, error) {
	return e.resolver.PropertyFieldUsage(t)
}

// FieldOffsets returns the relative memory offset of every instance field of
// the reference type t.
func (e *Engine) FieldOffsets(t reflect.Type) (layout.Offsets, error) {
	return e.prober.FieldOffsets(t)
}

// ExtractConstants builds the deduplicated name table for the type graph
// reachable from t.
func (e *Engine) ExtractConstants(t reflect.Type) *constants.Table {
	return constants.Extract(t)
}

// Analysis names used in WarmUp diagnostics.
const (
	AnalysisUsage     = "usage"
	AnalysisOffsets   = "offsets"
	AnalysisConstants = "constants"
)

// WarmUp runs every analysis for each type, at most WithWorkers types at a
// time, so later queries are served from cache. Failures are reported as
// diagnostics rather than stopping the run.
func (e *Engine) WarmUp(ctx context.Context, types ...reflect.Type) *diagnostic.Diagnostics {
	diags := &diagnostic.Diagnostics{}

	var g errgroup.Group
	g.SetLimit(e.workers)

	for _, t := range types {
		g.Go(func() error {
			name := typeName(t)

			if err := ctx.Err(); err != nil {
				diags.AddError(diagnostic.CodeCanceled, err.Error(), name, "")
				return nil
			}

			if _, err := e.PropertyFieldUsage(t); err != nil {
				diags.AddError(codeOf(err), err.Error(), name, AnalysisUsage)
			}

			if _, err := e.FieldOffsets(t); err != nil {
				diags.AddError(codeOf(err), err.Error(), name, AnalysisOffsets)
			}

			table := e.ExtractConstants(t)
			if table.Len() == 0 {
				diags.AddWarning(diagnostic.CodeNoNames, "no property or field names", name, AnalysisConstants)
			}

			return nil
		})
	}

	_ = g.Wait()
	diags.Sort()

	e.log.Debugf("warmed up %d types, %d errors", len(types), len(diags.Errors))

	return diags
}

func typeName(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}
	return t.String()
}

// codeOf maps an analysis error to a diagnostic code.
func codeOf(err error) string {
	switch {
	case errors.Is(err, meta.ErrUnsupportedValueType):
		return diagnostic.CodeUnsupportedValueType
	case errors.Is(err, meta.ErrConstructionFailure):
		return diagnostic.CodeConstructionFailure
	case errors.Is(err, cil.ErrMalformedInstructionStream):
		return diagnostic.CodeMalformedBody
	case errors.Is(err, meta.ErrUnresolvedToken):
		return diagnostic.CodeUnresolvedToken
	case errors.Is(err, meta.ErrTypeNotFound):
		return diagnostic.CodeTypeNotFound
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return diagnostic.CodeCanceled
	default:
		return diagnostic.CodeInternal
	}
}
