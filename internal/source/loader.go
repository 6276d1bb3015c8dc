package source

import (
	"fmt"
	"go/ast"
	"go/token"
	"go/types"
	"reflect"
	"slices"
	"strings"

	"github.com/tliron/commonlog"
	"golang.org/x/sync/singleflight"
	"golang.org/x/tools/go/packages"

	"layout-inspector/internal/memo"
	"layout-inspector/meta"
)

// LoadMode specifies what information to load from packages.
const LoadMode = packages.NeedName |
	packages.NeedFiles |
	packages.NeedSyntax |
	packages.NeedTypes |
	packages.NeedTypesInfo |
	packages.NeedImports

// Loader loads Go packages on demand and serves the getters of their types
// as compiled instruction streams. It implements meta.AccessorSource.
type Loader struct {
	dir        string
	buildFlags []string
	tests      bool
	log        commonlog.Logger

	group    singleflight.Group
	packages *memo.Table[string, *Package]
}

// Option configures a Loader.
type Option func(*Loader)

// WithDir sets the directory packages are resolved from.
func WithDir(dir string) Option {
	return func(l *Loader) { l.dir = dir }
}

// WithBuildFlags passes flags such as -tags to the build system.
func WithBuildFlags(flags ...string) Option {
	return func(l *Loader) { l.buildFlags = flags }
}

// WithTests also loads types declared in _test.go files.
func WithTests(tests bool) Option {
	return func(l *Loader) { l.tests = tests }
}

// WithLogger sets the logger.
func WithLogger(log commonlog.Logger) Option {
	return func(l *Loader) { l.log = log }
}

// NewLoader creates a Loader.
func NewLoader(opts ...Option) *Loader {
	l := &Loader{
		log:      commonlog.GetLogger("layout-inspector.source"),
		packages: memo.New[string, *Package](),
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// Package is one loaded and type-checked package.
type Package struct {
	Path   string
	Name   string
	Types  *types.Package
	Info   *types.Info
	Fset   *token.FileSet
	Syntax []*ast.File
	Module *Module

	loader    *Loader
	decls     map[*types.Func]*ast.FuncDecl
	accessors *memo.Table[string, []meta.Accessor]
}

// Load returns the package at pkgPath, loading it on first use.
func (l *Loader) Load(pkgPath string) (*Package, error) {
	if pkg, ok := l.packages.Get(pkgPath); ok {
		return pkg, nil
	}

	v, err, _ := l.group.Do(pkgPath, func() (any, error) {
		return l.packages.GetOrCompute(pkgPath, l.load)
	})
	if err != nil {
		return nil, err
	}

	return v.(*Package), nil
}

func (l *Loader) load(pkgPath string) (*Package, error) {
	cfg := &packages.Config{
		Mode:       LoadMode,
		Dir:        l.dir,
		BuildFlags: l.buildFlags,
		Tests:      l.tests,
	}

	pkgs, err := packages.Load(cfg, pkgPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load package %s: %w", pkgPath, err)
	}

	// Check for package errors
	var errs []error
	for _, pkg := range pkgs {
		for _, e := range pkg.Errors {
			errs = append(errs, e)
		}
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("package errors: %v", errs)
	}

	loaded := pickVariant(pkgs, pkgPath)
	if loaded == nil || loaded.Types == nil {
		return nil, fmt.Errorf("%w: no package %s", meta.ErrTypeNotFound, pkgPath)
	}

	pkg := &Package{
		Path:      loaded.PkgPath,
		Name:      loaded.Name,
		Types:     loaded.Types,
		Info:      loaded.TypesInfo,
		Fset:      loaded.Fset,
		Syntax:    loaded.Syntax,
		Module:    newModule(loaded.PkgPath),
		loader:    l,
		decls:     make(map[*types.Func]*ast.FuncDecl),
		accessors: memo.New[string, []meta.Accessor](),
	}

	for _, file := range pkg.Syntax {
		for _, decl := range file.Decls {
			fd, ok := decl.(*ast.FuncDecl)
			if !ok || fd.Recv == nil {
				continue
			}

			if fn, ok := pkg.Info.Defs[fd.Name].(*types.Func); ok {
				pkg.decls[fn] = fd
			}
		}
	}

	l.log.Debugf("loaded package %s (%d files)", pkg.Path, len(pkg.Syntax))

	return pkg, nil
}

// pickVariant prefers the test variant of pkgPath when tests are loaded,
// since it declares a superset of the package's types.
func pickVariant(pkgs []*packages.Package, pkgPath string) *packages.Package {
	var best *packages.Package

	for _, p := range pkgs {
		if p.PkgPath != pkgPath {
			continue
		}

		if best == nil || len(p.Syntax) > len(best.Syntax) {
			best = p
		}
	}

	return best
}

// Accessors implements meta.AccessorSource for pointers to named structs.
func (l *Loader) Accessors(t reflect.Type) ([]meta.Accessor, error) {
	if err := meta.RequireReferenceType(t); err != nil {
		return nil, err
	}

	st := t.Elem()
	if st.Name() == "" {
		return nil, fmt.Errorf("%w: %s is not a named type", meta.ErrTypeNotFound, t)
	}

	return l.AccessorsOf(meta.TypeID{PkgPath: st.PkgPath(), Name: st.Name()})
}

// AccessorsOf returns the getters of the named type id.
func (l *Loader) AccessorsOf(id meta.TypeID) ([]meta.Accessor, error) {
	pkg, err := l.Load(id.PkgPath)
	if err != nil {
		return nil, err
	}

	return pkg.Accessors(id.Name)
}

// TypeNames returns the names of all named struct types in the package.
func (p *Package) TypeNames() []string {
	var names []string

	scope := p.Types.Scope()
	for _, name := range scope.Names() {
		tn, ok := scope.Lookup(name).(*types.TypeName)
		if !ok || tn.IsAlias() {
			continue
		}

		if _, ok := tn.Type().Underlying().(*types.Struct); ok {
			names = append(names, name)
		}
	}

	return names
}

// Accessors returns the getters of the named struct type, exported or not.
// A getter is a method with no parameters and exactly one result. Getters
// declared on the type come first in declaration order, followed by getters
// promoted from embedded structs in embedding order; a promoted getter's body
// loads the embedding fields before its own field accesses. Function literals
// inside a getter are separate methods and their bodies are not lowered, so
// fields read only inside a closure are not reported.
func (p *Package) Accessors(typeName string) ([]meta.Accessor, error) {
	return p.accessors.GetOrCompute(typeName, p.compileAccessors)
}

// promoted is a getter reached through embedded fields.
type promoted struct {
	pkg   *Package
	decl  *ast.FuncDecl
	index []int
	hops  []meta.FieldDescriptor
}

func (p *Package) compileAccessors(typeName string) ([]meta.Accessor, error) {
	named, err := p.lookupStruct(typeName)
	if err != nil {
		return nil, err
	}

	var getters []*ast.FuncDecl
	for i := range named.NumMethods() {
		fn := named.Method(i)
		if !isGetter(fn) {
			continue
		}

		decl, ok := p.decls[fn]
		if !ok || decl.Body == nil {
			continue
		}

		getters = append(getters, decl)
	}

	slices.SortFunc(getters, func(a, b *ast.FuncDecl) int {
		return p.compare(a.Pos(), b.Pos())
	})

	embedded, err := p.promotedGetters(named)
	if err != nil {
		return nil, fmt.Errorf("promoted getters of %s: %w", typeName, err)
	}

	declaring := meta.TypeID{PkgPath: p.Path, Name: typeName}
	accessors := make([]meta.Accessor, 0, len(getters)+len(embedded))

	for _, decl := range getters {
		body, err := p.lowerGetter(decl)
		if err != nil {
			return nil, fmt.Errorf("lowering %s.%s: %w", typeName, decl.Name.Name, err)
		}

		accessors = append(accessors, meta.Accessor{
			Property: meta.PropertyDescriptor{Declaring: declaring, Name: decl.Name.Name},
			Body:     body,
			Module:   p.Module,
		})
	}

	for _, g := range embedded {
		body, err := g.pkg.lowerGetter(g.decl, g.hops...)
		if err != nil {
			return nil, fmt.Errorf("lowering %s.%s: %w", typeName, g.decl.Name.Name, err)
		}

		accessors = append(accessors, meta.Accessor{
			Property: meta.PropertyDescriptor{Declaring: declaring, Name: g.decl.Name.Name},
			Body:     body,
			Module:   g.pkg.Module,
		})
	}

	return accessors, nil
}

// promotedGetters finds the getters in the method set of *named that are
// declared on an embedded type. Embedded interfaces have no bodies and are
// skipped.
func (p *Package) promotedGetters(named *types.Named) ([]promoted, error) {
	mset := types.NewMethodSet(types.NewPointer(named))

	var out []promoted
	for i := range mset.Len() {
		sel := mset.At(i)
		index := sel.Index()
		if len(index) < 2 {
			continue
		}

		fn, ok := sel.Obj().(*types.Func)
		if !ok || fn.Pkg() == nil || !isGetter(fn) {
			continue
		}

		recv := receiverName(fn)
		if recv == "" {
			continue
		}

		owner := p
		if path := fn.Pkg().Path(); path != p.Path {
			var err error
			if owner, err = p.loader.Load(path); err != nil {
				return nil, err
			}
		}

		decl, ok := owner.declOf(recv, fn.Name())
		if !ok {
			continue
		}

		fields := index[:len(index)-1]
		out = append(out, promoted{
			pkg:   owner,
			decl:  decl,
			index: fields,
			hops:  fieldPath(named, fields),
		})
	}

	slices.SortStableFunc(out, func(a, b promoted) int {
		if c := slices.Compare(a.index, b.index); c != 0 {
			return c
		}
		return a.pkg.compare(a.decl.Pos(), b.decl.Pos())
	})

	return out, nil
}

// declOf finds the body of method name declared on the named type recv.
func (p *Package) declOf(recv, name string) (*ast.FuncDecl, bool) {
	tn, ok := p.Types.Scope().Lookup(recv).(*types.TypeName)
	if !ok {
		return nil, false
	}

	named, ok := tn.Type().(*types.Named)
	if !ok {
		return nil, false
	}

	for i := range named.NumMethods() {
		fn := named.Method(i)
		if fn.Name() != name {
			continue
		}

		decl, ok := p.decls[fn]
		return decl, ok && decl.Body != nil
	}

	return nil, false
}

func isGetter(fn *types.Func) bool {
	sig := fn.Type().(*types.Signature)
	return sig.Params().Len() == 0 && sig.Results().Len() == 1
}

func receiverName(fn *types.Func) string {
	recv := fn.Type().(*types.Signature).Recv()
	if recv == nil {
		return ""
	}

	t := recv.Type()
	if ptr, ok := t.(*types.Pointer); ok {
		t = ptr.Elem()
	}

	named, ok := t.(*types.Named)
	if !ok {
		return ""
	}
	return named.Obj().Name()
}

func (p *Package) lookupStruct(typeName string) (*types.Named, error) {
	tn, ok := p.Types.Scope().Lookup(typeName).(*types.TypeName)
	if !ok {
		return nil, fmt.Errorf("%w: %s.%s", meta.ErrTypeNotFound, p.Path, typeName)
	}

	named, ok := tn.Type().(*types.Named)
	if !ok {
		return nil, fmt.Errorf("%w: %s.%s is not a named type", meta.ErrTypeNotFound, p.Path, typeName)
	}

	if _, ok := named.Underlying().(*types.Struct); !ok {
		return nil, fmt.Errorf("%w: %s.%s is not a struct", meta.ErrTypeNotFound, p.Path, typeName)
	}

	return named, nil
}

// compare orders positions by file name, then offset.
func (p *Package) compare(a, b token.Pos) int {
	pa, pb := p.Fset.Position(a), p.Fset.Position(b)
	if c := strings.Compare(pa.Filename, pb.Filename); c != 0 {
		return c
	}

	return pa.Offset - pb.Offset
}
