package source

import (
	"fmt"
	"sync"

	"layout-inspector/cil"
	"layout-inspector/meta"
)

// memberRef is a row of the member reference table: a field or a method
// declared outside the module.
type memberRef struct {
	field  *meta.FieldDescriptor
	method string
}

// Module is the metadata of one loaded package. It hands out tokens while
// getters are lowered and resolves field tokens afterwards.
type Module struct {
	path string

	mu         sync.RWMutex
	fields     []meta.FieldDescriptor
	memberRefs []memberRef
	tokens     map[string]uint32
	counts     map[byte]uint32
}

func newModule(path string) *Module {
	return &Module{
		path:   path,
		tokens: make(map[string]uint32),
		counts: make(map[byte]uint32),
	}
}

// Path returns the package path.
func (m *Module) Path() string {
	return m.path
}

// FieldToken returns the token for f: a Field row when f is declared in this
// package, a MemberRef row otherwise.
func (m *Module) FieldToken(f meta.FieldDescriptor) cil.FieldToken {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := "field:" + f.Declaring.String() + "#" + fmt.Sprint(f.Index) + "." + f.Name
	if tok, ok := m.tokens[key]; ok {
		return cil.FieldToken(tok)
	}

	var tok cil.FieldToken
	if f.Declaring.PkgPath == m.path {
		m.fields = append(m.fields, f)
		tok = cil.MakeToken(cil.TableField, uint32(len(m.fields)))
	} else {
		fd := f
		m.memberRefs = append(m.memberRefs, memberRef{field: &fd})
		tok = cil.MakeToken(cil.TableMemberRef, uint32(len(m.memberRefs)))
	}

	m.tokens[key] = uint32(tok)
	return tok
}

// MethodToken returns a MethodDef token for methods of this package and a
// MemberRef token for anything else.
func (m *Module) MethodToken(pkgPath, name string) uint32 {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := "method:" + pkgPath + "." + name
	if tok, ok := m.tokens[key]; ok {
		return tok
	}

	var tok cil.FieldToken
	if pkgPath == m.path {
		m.counts[cil.TableMethodDef]++
		tok = cil.MakeToken(cil.TableMethodDef, m.counts[cil.TableMethodDef])
	} else {
		m.memberRefs = append(m.memberRefs, memberRef{method: pkgPath + "." + name})
		tok = cil.MakeToken(cil.TableMemberRef, uint32(len(m.memberRefs)))
	}

	m.tokens[key] = uint32(tok)
	return uint32(tok)
}

// TypeToken returns a TypeDef or TypeRef token.
func (m *Module) TypeToken(pkgPath, name string) uint32 {
	table := cil.TableTypeRef
	if pkgPath == m.path {
		table = cil.TableTypeDef
	}

	return m.intern(table, "type:"+pkgPath+"."+name)
}

// StringToken returns a user-string token for s.
func (m *Module) StringToken(s string) uint32 {
	return m.intern(cil.TableString, "string:"+s)
}

// SigToken returns a standalone signature token for an indirect call.
func (m *Module) SigToken(sig string) uint32 {
	return m.intern(cil.TableSignature, "sig:"+sig)
}

func (m *Module) intern(table byte, key string) uint32 {
	m.mu.Lock()
	defer m.mu.Unlock()

	if tok, ok := m.tokens[key]; ok {
		return tok
	}

	m.counts[table]++
	tok := uint32(cil.MakeToken(table, m.counts[table]))
	m.tokens[key] = tok

	return tok
}

// ResolveField implements meta.Module.
func (m *Module) ResolveField(tok cil.FieldToken) (meta.FieldDescriptor, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rid := int(tok.RID())

	switch tok.Table() {
	case cil.TableField:
		if rid >= 1 && rid <= len(m.fields) {
			return m.fields[rid-1], nil
		}

	case cil.TableMemberRef:
		if rid >= 1 && rid <= len(m.memberRefs) && m.memberRefs[rid-1].field != nil {
			return *m.memberRefs[rid-1].field, nil
		}
	}

	return meta.FieldDescriptor{}, fmt.Errorf("%w: %s in module %s", meta.ErrUnresolvedToken, tok, m.path)
}
