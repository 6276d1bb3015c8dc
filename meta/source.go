package meta

import (
	"fmt"
	"reflect"
	"sync"

	"layout-inspector/cil"
)

// Module resolves field tokens found in instruction streams it owns.
type Module interface {
	Path() string
	ResolveField(tok cil.FieldToken) (FieldDescriptor, error)
}

// Accessor is one property getter with its compiled body.
type Accessor struct {
	Property PropertyDescriptor
	Body     []byte
	Module   Module
}

// AccessorSource enumerates the instance property getters of a type,
// exported or not.
type AccessorSource interface {
	Accessors(t reflect.Type) ([]Accessor, error)
}

// FieldTable is an in-memory Module handing out tokens in insertion order.
type FieldTable struct {
	path string

	mu     sync.RWMutex
	fields []FieldDescriptor
	tokens map[FieldDescriptor]cil.FieldToken
}

// NewFieldTable creates an empty table for the module at path.
func NewFieldTable(path string) *FieldTable {
	return &FieldTable{
		path:   path,
		tokens: make(map[FieldDescriptor]cil.FieldToken),
	}
}

// Path returns the module path.
func (ft *FieldTable) Path() string {
	return ft.path
}

// Token returns the token for f, allocating one on first use.
func (ft *FieldTable) Token(f FieldDescriptor) cil.FieldToken {
	ft.mu.Lock()
	defer ft.mu.Unlock()

	if tok, ok := ft.tokens[f]; ok {
		return tok
	}

	ft.fields = append(ft.fields, f)
	tok := cil.MakeToken(cil.TableField, uint32(len(ft.fields)))
	ft.tokens[f] = tok

	return tok
}

// ResolveField implements Module.
func (ft *FieldTable) ResolveField(tok cil.FieldToken) (FieldDescriptor, error) {
	ft.mu.RLock()
	defer ft.mu.RUnlock()

	rid := int(tok.RID())
	if tok.Table() != cil.TableField || rid == 0 || rid > len(ft.fields) {
		return FieldDescriptor{}, fmt.Errorf("%w: %s in module %s", ErrUnresolvedToken, tok, ft.path)
	}

	return ft.fields[rid-1], nil
}

// Len returns the number of fields with tokens.
func (ft *FieldTable) Len() int {
	ft.mu.RLock()
	defer ft.mu.RUnlock()

	return len(ft.fields)
}

// StaticSource is an AccessorSource over explicitly registered accessors.
type StaticSource struct {
	mu        sync.RWMutex
	accessors map[reflect.Type][]Accessor
}

// NewStaticSource creates an empty StaticSource.
func NewStaticSource() *StaticSource {
	return &StaticSource{accessors: make(map[reflect.Type][]Accessor)}
}

// Register appends accessors for t.
func (s *StaticSource) Register(t reflect.Type, accessors ...Accessor) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.accessors[t] = append(s.accessors[t], accessors...)
}

// Accessors implements AccessorSource. Types with no registration have no
// properties.
func (s *StaticSource) Accessors(t reflect.Type) ([]Accessor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]Accessor(nil), s.accessors[t]...), nil
}
