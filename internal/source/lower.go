package source

import (
	"fmt"
	"go/ast"
	"go/constant"
	"go/token"
	"go/types"
	"math"

	"layout-inspector/cil"
	"layout-inspector/meta"
)

var (
	ldcShort = [...]cil.OpCode{
		cil.LdcI40, cil.LdcI41, cil.LdcI42, cil.LdcI43, cil.LdcI44,
		cil.LdcI45, cil.LdcI46, cil.LdcI47, cil.LdcI48,
	}
	ldlocShort = [...]cil.OpCode{cil.Ldloc0, cil.Ldloc1, cil.Ldloc2, cil.Ldloc3}
	stlocShort = [...]cil.OpCode{cil.Stloc0, cil.Stloc1, cil.Stloc2, cil.Stloc3}
)

// breakTarget is an enclosing for, range, switch or select statement.
type breakTarget struct {
	brk     cil.Label
	cont    cil.Label
	hasCont bool
}

// lowerer turns the body of one getter into an instruction stream. The
// receiver is argument 0; locals are numbered in order of first use. A
// getter promoted from an embedded struct reaches its receiver through the
// embedding fields in prefix.
type lowerer struct {
	pkg     *Package
	asm     *cil.Assembler
	recv    types.Object
	prefix  []meta.FieldDescriptor
	results []types.Object
	locals  map[types.Object]int
	nlocals int
	targets []breakTarget
}

func (p *Package) lowerGetter(decl *ast.FuncDecl, prefix ...meta.FieldDescriptor) ([]byte, error) {
	l := &lowerer{
		pkg:    p,
		asm:    cil.NewAssembler(),
		prefix: prefix,
		locals: make(map[types.Object]int),
	}

	if names := decl.Recv.List[0].Names; len(names) > 0 {
		l.recv = p.Info.Defs[names[0]]
	}

	if res := decl.Type.Results; res != nil {
		for _, field := range res.List {
			for _, name := range field.Names {
				if obj := p.Info.Defs[name]; obj != nil {
					l.results = append(l.results, obj)
					l.local(obj)
				}
			}
		}
	}

	l.block(decl.Body.List)

	if n := len(decl.Body.List); n == 0 {
		l.asm.Emit(cil.Ret)
	} else if _, ok := decl.Body.List[n-1].(*ast.ReturnStmt); !ok {
		l.asm.Emit(cil.Ret)
	}

	return l.asm.Bytes()
}

// Locals

func (l *lowerer) local(obj types.Object) int {
	if idx, ok := l.locals[obj]; ok {
		return idx
	}

	idx := l.temp()
	l.locals[obj] = idx
	return idx
}

func (l *lowerer) temp() int {
	l.nlocals++
	return l.nlocals - 1
}

func (l *lowerer) loadLocal(idx int) {
	switch {
	case idx < len(ldlocShort):
		l.asm.Emit(ldlocShort[idx])
	case idx <= math.MaxUint8:
		l.asm.EmitVar(cil.LdlocS, idx)
	default:
		l.asm.EmitVar(cil.Ldloc, idx)
	}
}

func (l *lowerer) storeLocal(idx int) {
	switch {
	case idx < len(stlocShort):
		l.asm.Emit(stlocShort[idx])
	case idx <= math.MaxUint8:
		l.asm.EmitVar(cil.StlocS, idx)
	default:
		l.asm.EmitVar(cil.Stloc, idx)
	}
}

func (l *lowerer) localAddr(idx int) {
	if idx <= math.MaxUint8 {
		l.asm.EmitVar(cil.LdlocaS, idx)
	} else {
		l.asm.EmitVar(cil.Ldloca, idx)
	}
}

// Tokens

func (l *lowerer) fieldToken(f meta.FieldDescriptor) cil.FieldToken {
	return l.pkg.Module.FieldToken(f)
}

func (l *lowerer) typeToken(t types.Type) uint32 {
	id := typeIDOf(t)
	return l.pkg.Module.TypeToken(id.PkgPath, id.Name)
}

func (l *lowerer) funcToken(fn *types.Func) uint32 {
	return l.pkg.Module.MethodToken(pkgPathOf(fn), fn.FullName())
}

func (l *lowerer) builtinToken(name string) uint32 {
	return l.pkg.Module.MethodToken("", "builtin."+name)
}

func pkgPathOf(obj types.Object) string {
	if obj.Pkg() == nil {
		return ""
	}
	return obj.Pkg().Path()
}

func typeIDOf(t types.Type) meta.TypeID {
	if ptr, ok := t.(*types.Pointer); ok {
		t = ptr.Elem()
	}

	if named, ok := t.(*types.Named); ok {
		obj := named.Obj()
		return meta.TypeID{PkgPath: pkgPathOf(obj), Name: obj.Name()}
	}

	return meta.TypeID{Name: types.TypeString(t, nil)}
}

func structOf(t types.Type) *types.Struct {
	if ptr, ok := t.Underlying().(*types.Pointer); ok {
		t = ptr.Elem()
	}
	st, _ := t.Underlying().(*types.Struct)
	return st
}

// fieldPath expands a selection index into one descriptor per hop, so an
// access through embedded structs references every field it passes.
func fieldPath(recv types.Type, index []int) []meta.FieldDescriptor {
	out := make([]meta.FieldDescriptor, 0, len(index))

	t := recv
	for _, idx := range index {
		st := structOf(t)
		if st == nil || idx >= st.NumFields() {
			break
		}

		f := st.Field(idx)
		out = append(out, meta.FieldDescriptor{Declaring: typeIDOf(t), Name: f.Name(), Index: idx})
		t = f.Type()
	}

	return out
}

func staticField(v *types.Var) meta.FieldDescriptor {
	return meta.FieldDescriptor{
		Declaring: meta.TypeID{PkgPath: pkgPathOf(v)},
		Name:      v.Name(),
		Index:     -1,
	}
}

func isPackageVar(v *types.Var) bool {
	return v.Pkg() != nil && v.Parent() == v.Pkg().Scope()
}

func (l *lowerer) objectOf(id *ast.Ident) types.Object {
	if obj := l.pkg.Info.Uses[id]; obj != nil {
		return obj
	}
	return l.pkg.Info.Defs[id]
}

func (l *lowerer) isType(e ast.Expr) bool {
	tv, ok := l.pkg.Info.Types[e]
	return ok && tv.IsType()
}

// Constants

func (l *lowerer) constant(v constant.Value) {
	switch v.Kind() {
	case constant.Bool:
		if constant.BoolVal(v) {
			l.asm.Emit(cil.LdcI41)
		} else {
			l.asm.Emit(cil.LdcI40)
		}

	case constant.String:
		l.asm.EmitToken(cil.Ldstr, l.pkg.Module.StringToken(constant.StringVal(v)))

	case constant.Int:
		if i, exact := constant.Int64Val(v); exact {
			l.integer(i)
			return
		}
		f, _ := constant.Float64Val(v)
		l.asm.EmitFloat(cil.LdcR8, f)

	case constant.Float:
		f, _ := constant.Float64Val(v)
		l.asm.EmitFloat(cil.LdcR8, f)

	case constant.Complex:
		f, _ := constant.Float64Val(constant.Real(v))
		l.asm.EmitFloat(cil.LdcR8, f)

	default:
		l.asm.Emit(cil.Ldnull)
	}
}

func (l *lowerer) integer(i int64) {
	switch {
	case i == -1:
		l.asm.Emit(cil.LdcI4M1)
	case i >= 0 && i < int64(len(ldcShort)):
		l.asm.Emit(ldcShort[i])
	case i >= math.MinInt8 && i <= math.MaxInt8:
		l.asm.EmitInt(cil.LdcI4S, i)
	case i >= math.MinInt32 && i <= math.MaxInt32:
		l.asm.EmitInt(cil.LdcI4, i)
	default:
		l.asm.EmitInt(cil.LdcI8, i)
	}
}

// Expressions

func (l *lowerer) expr(e ast.Expr) {
	if tv, ok := l.pkg.Info.Types[e]; ok && tv.Value != nil {
		l.constant(tv.Value)
		return
	}

	switch e := e.(type) {
	case *ast.ParenExpr:
		l.expr(e.X)

	case *ast.Ident:
		l.object(l.objectOf(e))

	case *ast.SelectorExpr:
		l.selector(e, false)

	case *ast.CallExpr:
		l.call(e)

	case *ast.UnaryExpr:
		l.unary(e)

	case *ast.BinaryExpr:
		l.binary(e)

	case *ast.StarExpr:
		l.expr(e.X)
		l.asm.EmitToken(cil.Ldobj, l.typeToken(l.pkg.Info.TypeOf(e)))

	case *ast.IndexExpr:
		l.index(e)

	case *ast.IndexListExpr:
		l.expr(e.X)

	case *ast.SliceExpr:
		l.expr(e.X)
		for _, bound := range []ast.Expr{e.Low, e.High, e.Max} {
			if bound != nil {
				l.expr(bound)
			}
		}
		l.asm.EmitToken(cil.Call, l.builtinToken("slice"))

	case *ast.TypeAssertExpr:
		l.expr(e.X)
		if e.Type != nil {
			l.asm.EmitToken(cil.Castclass, l.typeToken(l.pkg.Info.TypeOf(e.Type)))
		}

	case *ast.CompositeLit:
		l.composite(e)

	case *ast.FuncLit:
		pos := l.pkg.Fset.Position(e.Pos())
		l.asm.EmitToken(cil.Ldftn, l.pkg.Module.MethodToken(l.pkg.Path, fmt.Sprintf("func@%s:%d", pos.Filename, pos.Offset)))

	case *ast.KeyValueExpr:
		l.expr(e.Value)

	default:
		l.asm.Emit(cil.Ldnull)
	}
}

func (l *lowerer) object(obj types.Object) {
	switch o := obj.(type) {
	case *types.Var:
		if o == l.recv {
			l.asm.Emit(cil.Ldarg0)
			for _, f := range l.prefix {
				l.asm.EmitField(cil.Ldfld, l.fieldToken(f))
			}
			return
		}
		if idx, ok := l.locals[o]; ok {
			l.loadLocal(idx)
			return
		}
		if isPackageVar(o) {
			l.asm.EmitField(cil.Ldsfld, l.fieldToken(staticField(o)))
			return
		}
		l.loadLocal(l.local(o))

	case *types.Func:
		l.asm.EmitToken(cil.Ldftn, l.funcToken(o))

	case *types.Const:
		l.constant(o.Val())

	default:
		l.asm.Emit(cil.Ldnull)
	}
}

// selector lowers x.f. With addr set, the last field hop loads an address.
func (l *lowerer) selector(e *ast.SelectorExpr, addr bool) {
	sel, ok := l.pkg.Info.Selections[e]
	if !ok {
		// qualified identifier
		if v, ok := l.objectOf(e.Sel).(*types.Var); ok && addr {
			l.asm.EmitField(cil.Ldsflda, l.fieldToken(staticField(v)))
			return
		}
		l.object(l.objectOf(e.Sel))
		return
	}

	switch sel.Kind() {
	case types.FieldVal:
		l.expr(e.X)

		hops := fieldPath(sel.Recv(), sel.Index())
		for i, f := range hops {
			op := cil.Ldfld
			if addr && i == len(hops)-1 {
				op = cil.Ldflda
			}
			l.asm.EmitField(op, l.fieldToken(f))
		}

	case types.MethodVal:
		l.methodReceiver(e, sel)
		l.asm.EmitToken(cil.Ldvirtftn, l.funcToken(sel.Obj().(*types.Func)))

	case types.MethodExpr:
		l.asm.EmitToken(cil.Ldftn, l.funcToken(sel.Obj().(*types.Func)))
	}
}

// methodReceiver loads the receiver of a method selection, walking any
// embedded fields the method was promoted through.
func (l *lowerer) methodReceiver(e *ast.SelectorExpr, sel *types.Selection) {
	l.expr(e.X)

	index := sel.Index()
	for _, f := range fieldPath(sel.Recv(), index[:len(index)-1]) {
		l.asm.EmitField(cil.Ldfld, l.fieldToken(f))
	}
}

func (l *lowerer) call(e *ast.CallExpr) {
	fun := ast.Unparen(e.Fun)

	if l.isType(fun) {
		for _, arg := range e.Args {
			l.expr(arg)
		}
		return
	}

	if id, ok := fun.(*ast.Ident); ok {
		if b, ok := l.objectOf(id).(*types.Builtin); ok {
			l.builtin(b.Name(), e.Args)
			return
		}
	}

	if sel, ok := fun.(*ast.SelectorExpr); ok {
		if s, ok := l.pkg.Info.Selections[sel]; ok && s.Kind() == types.MethodVal {
			l.methodReceiver(sel, s)
			l.args(e.Args)
			l.asm.EmitToken(cil.Callvirt, l.funcToken(s.Obj().(*types.Func)))
			return
		}
	}

	var fn *types.Func
	switch f := fun.(type) {
	case *ast.Ident:
		fn, _ = l.objectOf(f).(*types.Func)
	case *ast.SelectorExpr:
		fn, _ = l.objectOf(f.Sel).(*types.Func)
	}

	if fn != nil {
		l.args(e.Args)
		l.asm.EmitToken(cil.Call, l.funcToken(fn))
		return
	}

	l.expr(fun)
	l.args(e.Args)
	l.asm.EmitToken(cil.Calli, l.pkg.Module.SigToken(types.TypeString(l.pkg.Info.TypeOf(fun), nil)))
}

func (l *lowerer) args(args []ast.Expr) {
	for _, arg := range args {
		l.expr(arg)
	}
}

func (l *lowerer) builtin(name string, args []ast.Expr) {
	switch name {
	case "len", "cap":
		l.expr(args[0])
		l.asm.Emit(cil.Ldlen)

	default:
		for _, arg := range args {
			if !l.isType(arg) {
				l.expr(arg)
			}
		}
		l.asm.EmitToken(cil.Call, l.builtinToken(name))
	}
}

func (l *lowerer) index(e *ast.IndexExpr) {
	if l.isInstance(e.X) {
		l.expr(e.X)
		return
	}

	l.expr(e.X)
	l.expr(e.Index)

	if _, ok := l.pkg.Info.TypeOf(e.X).Underlying().(*types.Map); ok {
		l.asm.EmitToken(cil.Callvirt, l.builtinToken("mapindex"))
		return
	}

	l.asm.EmitToken(cil.Ldelem, l.typeToken(l.pkg.Info.TypeOf(e)))
}

// isInstance reports whether e names an instantiated generic function.
func (l *lowerer) isInstance(e ast.Expr) bool {
	var id *ast.Ident
	switch x := ast.Unparen(e).(type) {
	case *ast.Ident:
		id = x
	case *ast.SelectorExpr:
		id = x.Sel
	default:
		return false
	}

	_, ok := l.pkg.Info.Instances[id]
	return ok
}

func (l *lowerer) composite(e *ast.CompositeLit) {
	t := l.pkg.Info.TypeOf(e)
	isStruct := structOf(t) != nil

	for _, elt := range e.Elts {
		kv, ok := elt.(*ast.KeyValueExpr)
		if !ok {
			l.expr(elt)
			continue
		}

		if !isStruct {
			l.expr(kv.Key)
		}
		l.expr(kv.Value)
	}

	id := typeIDOf(t)
	l.asm.EmitToken(cil.Newobj, l.pkg.Module.MethodToken(id.PkgPath, id.Name+".ctor"))
}

func (l *lowerer) unary(e *ast.UnaryExpr) {
	switch e.Op {
	case token.AND:
		l.addressOf(e.X)

	case token.SUB:
		l.expr(e.X)
		l.asm.Emit(cil.Neg)

	case token.XOR:
		l.expr(e.X)
		l.asm.Emit(cil.Not)

	case token.NOT:
		l.expr(e.X)
		l.asm.Emit(cil.LdcI40)
		l.asm.Emit(cil.Ceq)

	case token.ARROW:
		l.expr(e.X)
		l.asm.EmitToken(cil.Callvirt, l.builtinToken("recv"))

	default:
		l.expr(e.X)
	}
}

func (l *lowerer) addressOf(x ast.Expr) {
	switch x := ast.Unparen(x).(type) {
	case *ast.SelectorExpr:
		l.selector(x, true)

	case *ast.Ident:
		v, ok := l.objectOf(x).(*types.Var)
		switch {
		case !ok || v == l.recv:
			l.expr(x)
		case isPackageVar(v):
			l.asm.EmitField(cil.Ldsflda, l.fieldToken(staticField(v)))
		default:
			l.localAddr(l.local(v))
		}

	default:
		l.expr(x)
	}
}

func (l *lowerer) binary(e *ast.BinaryExpr) {
	if e.Op == token.LAND || e.Op == token.LOR {
		end := l.asm.DefineLabel()

		l.expr(e.X)
		l.asm.Emit(cil.Dup)
		if e.Op == token.LAND {
			l.asm.EmitBranch(cil.Brfalse, end)
		} else {
			l.asm.EmitBranch(cil.Brtrue, end)
		}
		l.asm.Emit(cil.Pop)
		l.expr(e.Y)
		l.asm.MarkLabel(end)
		return
	}

	l.expr(e.X)
	l.expr(e.Y)
	l.operator(e.Op)
}

func (l *lowerer) operator(op token.Token) {
	switch op {
	case token.ADD:
		l.asm.Emit(cil.Add)
	case token.SUB:
		l.asm.Emit(cil.Sub)
	case token.MUL:
		l.asm.Emit(cil.Mul)
	case token.QUO:
		l.asm.Emit(cil.Div)
	case token.REM:
		l.asm.Emit(cil.Rem)
	case token.AND:
		l.asm.Emit(cil.And)
	case token.OR:
		l.asm.Emit(cil.Or)
	case token.XOR:
		l.asm.Emit(cil.Xor)
	case token.SHL:
		l.asm.Emit(cil.Shl)
	case token.SHR:
		l.asm.Emit(cil.Shr)
	case token.AND_NOT:
		l.asm.Emit(cil.Not)
		l.asm.Emit(cil.And)
	case token.EQL:
		l.asm.Emit(cil.Ceq)
	case token.NEQ:
		l.asm.Emit(cil.Ceq)
		l.asm.Emit(cil.LdcI40)
		l.asm.Emit(cil.Ceq)
	case token.LSS:
		l.asm.Emit(cil.Clt)
	case token.GTR:
		l.asm.Emit(cil.Cgt)
	case token.LEQ:
		l.asm.Emit(cil.Cgt)
		l.asm.Emit(cil.LdcI40)
		l.asm.Emit(cil.Ceq)
	case token.GEQ:
		l.asm.Emit(cil.Clt)
		l.asm.Emit(cil.LdcI40)
		l.asm.Emit(cil.Ceq)
	}
}

var assignOps = map[token.Token]token.Token{
	token.ADD_ASSIGN:     token.ADD,
	token.SUB_ASSIGN:     token.SUB,
	token.MUL_ASSIGN:     token.MUL,
	token.QUO_ASSIGN:     token.QUO,
	token.REM_ASSIGN:     token.REM,
	token.AND_ASSIGN:     token.AND,
	token.OR_ASSIGN:      token.OR,
	token.XOR_ASSIGN:     token.XOR,
	token.SHL_ASSIGN:     token.SHL,
	token.SHR_ASSIGN:     token.SHR,
	token.AND_NOT_ASSIGN: token.AND_NOT,
}

// Stores

// store assigns the value produced by value to lhs. Addressing operands are
// loaded before the value, as a compiler would.
func (l *lowerer) store(lhs ast.Expr, value func()) {
	switch x := ast.Unparen(lhs).(type) {
	case *ast.Ident:
		if x.Name == "_" {
			value()
			l.asm.Emit(cil.Pop)
			return
		}

		v, ok := l.objectOf(x).(*types.Var)
		if ok && isPackageVar(v) {
			value()
			l.asm.EmitField(cil.Stsfld, l.fieldToken(staticField(v)))
			return
		}

		value()
		if ok && v == l.recv {
			l.asm.EmitVar(cil.StargS, 0)
			return
		}
		l.storeLocal(l.local(l.objectOf(x)))

	case *ast.SelectorExpr:
		sel, ok := l.pkg.Info.Selections[x]
		if !ok || sel.Kind() != types.FieldVal {
			v, ok := l.objectOf(x.Sel).(*types.Var)
			value()
			if ok {
				l.asm.EmitField(cil.Stsfld, l.fieldToken(staticField(v)))
			} else {
				l.asm.Emit(cil.Pop)
			}
			return
		}

		l.expr(x.X)
		hops := fieldPath(sel.Recv(), sel.Index())
		for _, f := range hops[:len(hops)-1] {
			l.asm.EmitField(cil.Ldfld, l.fieldToken(f))
		}
		value()
		l.asm.EmitField(cil.Stfld, l.fieldToken(hops[len(hops)-1]))

	case *ast.IndexExpr:
		l.expr(x.X)
		l.expr(x.Index)
		value()
		if _, ok := l.pkg.Info.TypeOf(x.X).Underlying().(*types.Map); ok {
			l.asm.EmitToken(cil.Callvirt, l.builtinToken("mapassign"))
			return
		}
		l.asm.EmitToken(cil.Stelem, l.typeToken(l.pkg.Info.TypeOf(x)))

	case *ast.StarExpr:
		l.expr(x.X)
		value()
		l.asm.EmitToken(cil.Stobj, l.typeToken(l.pkg.Info.TypeOf(x)))

	default:
		value()
		l.asm.Emit(cil.Pop)
	}
}

// storeTop assigns the value already on the stack to lhs.
func (l *lowerer) storeTop(lhs ast.Expr) {
	tmp := l.temp()
	l.storeLocal(tmp)
	l.store(lhs, func() { l.loadLocal(tmp) })
}

// Statements

func (l *lowerer) block(list []ast.Stmt) {
	for _, s := range list {
		l.stmt(s)
	}
}

func (l *lowerer) stmt(s ast.Stmt) {
	switch s := s.(type) {
	case *ast.BlockStmt:
		l.block(s.List)

	case *ast.ReturnStmt:
		if len(s.Results) == 0 {
			for _, r := range l.results {
				l.loadLocal(l.locals[r])
			}
		}
		l.args(s.Results)
		l.asm.Emit(cil.Ret)

	case *ast.ExprStmt:
		l.expr(s.X)
		l.discard(s.X)

	case *ast.AssignStmt:
		l.assign(s)

	case *ast.IncDecStmt:
		op := cil.Add
		if s.Tok == token.DEC {
			op = cil.Sub
		}
		l.store(s.X, func() {
			l.expr(s.X)
			l.asm.Emit(cil.LdcI41)
			l.asm.Emit(op)
		})

	case *ast.DeclStmt:
		l.decl(s)

	case *ast.IfStmt:
		l.ifStmt(s)

	case *ast.SwitchStmt:
		l.switchStmt(s)

	case *ast.TypeSwitchStmt:
		l.typeSwitch(s)

	case *ast.ForStmt:
		l.forStmt(s)

	case *ast.RangeStmt:
		l.rangeStmt(s)

	case *ast.BranchStmt:
		l.branch(s)

	case *ast.LabeledStmt:
		l.stmt(s.Stmt)

	case *ast.DeferStmt:
		l.expr(s.Call)
		l.discard(s.Call)

	case *ast.GoStmt:
		l.expr(s.Call)
		l.discard(s.Call)

	case *ast.SendStmt:
		l.expr(s.Chan)
		l.expr(s.Value)
		l.asm.EmitToken(cil.Callvirt, l.builtinToken("send"))

	case *ast.SelectStmt:
		end := l.asm.DefineLabel()
		l.targets = append(l.targets, breakTarget{brk: end})
		for _, c := range s.Body.List {
			cc := c.(*ast.CommClause)
			if cc.Comm != nil {
				l.stmt(cc.Comm)
			}
			l.block(cc.Body)
		}
		l.targets = l.targets[:len(l.targets)-1]
		l.asm.MarkLabel(end)

	case *ast.EmptyStmt:

	default:
		l.asm.Emit(cil.Nop)
	}
}

// discard pops whatever a statement-level expression left on the stack.
func (l *lowerer) discard(e ast.Expr) {
	t := l.pkg.Info.TypeOf(e)
	if t == nil {
		return
	}

	n := 1
	if tuple, ok := t.(*types.Tuple); ok {
		n = tuple.Len()
	}

	for range n {
		l.asm.Emit(cil.Pop)
	}
}

func (l *lowerer) assign(s *ast.AssignStmt) {
	if op, ok := assignOps[s.Tok]; ok {
		lhs, rhs := s.Lhs[0], s.Rhs[0]
		l.store(lhs, func() {
			l.expr(lhs)
			l.expr(rhs)
			l.operator(op)
		})
		return
	}

	if len(s.Lhs) == len(s.Rhs) {
		for i, lhs := range s.Lhs {
			rhs := s.Rhs[i]
			l.store(lhs, func() { l.expr(rhs) })
		}
		return
	}

	// a, b := f() and the comma-ok forms
	l.expr(s.Rhs[0])
	for i := len(s.Lhs) - 1; i >= 0; i-- {
		l.storeTop(s.Lhs[i])
	}
}

func (l *lowerer) decl(s *ast.DeclStmt) {
	gen, ok := s.Decl.(*ast.GenDecl)
	if !ok || gen.Tok != token.VAR {
		return
	}

	for _, spec := range gen.Specs {
		vs := spec.(*ast.ValueSpec)

		switch {
		case len(vs.Values) == len(vs.Names):
			for i, name := range vs.Names {
				value := vs.Values[i]
				l.store(name, func() { l.expr(value) })
			}

		case len(vs.Values) == 1:
			l.expr(vs.Values[0])
			for i := len(vs.Names) - 1; i >= 0; i-- {
				l.storeTop(vs.Names[i])
			}

		default:
			for _, name := range vs.Names {
				obj := l.pkg.Info.Defs[name]
				if obj == nil {
					continue
				}
				l.localAddr(l.local(obj))
				l.asm.EmitToken(cil.Initobj, l.typeToken(obj.Type()))
			}
		}
	}
}

func (l *lowerer) ifStmt(s *ast.IfStmt) {
	if s.Init != nil {
		l.stmt(s.Init)
	}

	els := l.asm.DefineLabel()
	end := l.asm.DefineLabel()

	l.expr(s.Cond)
	l.asm.EmitBranch(cil.Brfalse, els)
	l.block(s.Body.List)
	l.asm.EmitBranch(cil.Br, end)

	l.asm.MarkLabel(els)
	if s.Else != nil {
		l.stmt(s.Else)
	}
	l.asm.MarkLabel(end)
}

// clauses emits the bodies of a switch. Each body ends with a branch to the
// end of the switch, or to the next body on fallthrough.
func (l *lowerer) clauses(list []ast.Stmt, bodies []cil.Label, def int, end cil.Label) {
	if def >= 0 {
		l.asm.EmitBranch(cil.Br, bodies[def])
	} else {
		l.asm.EmitBranch(cil.Br, end)
	}

	l.targets = append(l.targets, breakTarget{brk: end})

	for i, c := range list {
		body := c.(*ast.CaseClause).Body

		l.asm.MarkLabel(bodies[i])
		l.block(body)

		next := end
		if n := len(body); n > 0 && i+1 < len(bodies) {
			if br, ok := body[n-1].(*ast.BranchStmt); ok && br.Tok == token.FALLTHROUGH {
				next = bodies[i+1]
			}
		}
		l.asm.EmitBranch(cil.Br, next)
	}

	l.targets = l.targets[:len(l.targets)-1]
	l.asm.MarkLabel(end)
}

func (l *lowerer) labels(n int) []cil.Label {
	out := make([]cil.Label, n)
	for i := range out {
		out[i] = l.asm.DefineLabel()
	}
	return out
}

func (l *lowerer) switchStmt(s *ast.SwitchStmt) {
	if s.Init != nil {
		l.stmt(s.Init)
	}

	tag := -1
	if s.Tag != nil {
		l.expr(s.Tag)
		tag = l.temp()
		l.storeLocal(tag)
	}

	end := l.asm.DefineLabel()
	bodies := l.labels(len(s.Body.List))
	def := -1

	for i, c := range s.Body.List {
		cc := c.(*ast.CaseClause)
		if cc.List == nil {
			def = i
			continue
		}

		for _, v := range cc.List {
			if tag >= 0 {
				l.loadLocal(tag)
				l.expr(v)
				l.asm.EmitBranch(cil.Beq, bodies[i])
			} else {
				l.expr(v)
				l.asm.EmitBranch(cil.Brtrue, bodies[i])
			}
		}
	}

	l.clauses(s.Body.List, bodies, def, end)
}

func (l *lowerer) typeSwitch(s *ast.TypeSwitchStmt) {
	if s.Init != nil {
		l.stmt(s.Init)
	}

	var assert *ast.TypeAssertExpr
	switch a := s.Assign.(type) {
	case *ast.ExprStmt:
		assert, _ = a.X.(*ast.TypeAssertExpr)
	case *ast.AssignStmt:
		assert, _ = a.Rhs[0].(*ast.TypeAssertExpr)
	}
	if assert == nil {
		l.asm.Emit(cil.Nop)
		return
	}

	l.expr(assert.X)
	subject := l.temp()
	l.storeLocal(subject)

	end := l.asm.DefineLabel()
	bodies := l.labels(len(s.Body.List))
	def := -1

	for i, c := range s.Body.List {
		cc := c.(*ast.CaseClause)
		if obj := l.pkg.Info.Implicits[cc]; obj != nil {
			l.locals[obj] = subject
		}

		if cc.List == nil {
			def = i
			continue
		}

		for _, te := range cc.List {
			l.loadLocal(subject)
			if id, ok := te.(*ast.Ident); ok && id.Name == "nil" {
				l.asm.Emit(cil.Ldnull)
				l.asm.EmitBranch(cil.Beq, bodies[i])
				continue
			}
			l.asm.EmitToken(cil.Isinst, l.typeToken(l.pkg.Info.TypeOf(te)))
			l.asm.EmitBranch(cil.Brtrue, bodies[i])
		}
	}

	l.clauses(s.Body.List, bodies, def, end)
}

func (l *lowerer) forStmt(s *ast.ForStmt) {
	if s.Init != nil {
		l.stmt(s.Init)
	}

	top := l.asm.DefineLabel()
	post := l.asm.DefineLabel()
	cond := l.asm.DefineLabel()
	end := l.asm.DefineLabel()

	l.asm.EmitBranch(cil.Br, cond)
	l.asm.MarkLabel(top)

	l.targets = append(l.targets, breakTarget{brk: end, cont: post, hasCont: true})
	l.block(s.Body.List)
	l.targets = l.targets[:len(l.targets)-1]

	l.asm.MarkLabel(post)
	if s.Post != nil {
		l.stmt(s.Post)
	}

	l.asm.MarkLabel(cond)
	if s.Cond != nil {
		l.expr(s.Cond)
		l.asm.EmitBranch(cil.Brtrue, top)
	} else {
		l.asm.EmitBranch(cil.Br, top)
	}

	l.asm.MarkLabel(end)
}

// rangeStmt lowers every range form to an indexed loop over the operand.
func (l *lowerer) rangeStmt(s *ast.RangeStmt) {
	l.expr(s.X)
	coll := l.temp()
	l.storeLocal(coll)

	idx := l.temp()
	l.asm.Emit(cil.LdcI40)
	l.storeLocal(idx)

	top := l.asm.DefineLabel()
	post := l.asm.DefineLabel()
	end := l.asm.DefineLabel()

	l.asm.MarkLabel(top)
	l.loadLocal(idx)
	l.loadLocal(coll)
	l.asm.Emit(cil.Ldlen)
	l.asm.EmitBranch(cil.Bge, end)

	if s.Key != nil {
		l.store(s.Key, func() { l.loadLocal(idx) })
	}
	if s.Value != nil {
		elem := l.pkg.Info.TypeOf(s.Value)
		l.store(s.Value, func() {
			l.loadLocal(coll)
			l.loadLocal(idx)
			l.asm.EmitToken(cil.Ldelem, l.typeToken(elem))
		})
	}

	l.targets = append(l.targets, breakTarget{brk: end, cont: post, hasCont: true})
	l.block(s.Body.List)
	l.targets = l.targets[:len(l.targets)-1]

	l.asm.MarkLabel(post)
	l.loadLocal(idx)
	l.asm.Emit(cil.LdcI41)
	l.asm.Emit(cil.Add)
	l.storeLocal(idx)
	l.asm.EmitBranch(cil.Br, top)

	l.asm.MarkLabel(end)
}

func (l *lowerer) branch(s *ast.BranchStmt) {
	switch s.Tok {
	case token.BREAK:
		if n := len(l.targets); n > 0 {
			l.asm.EmitBranch(cil.Br, l.targets[n-1].brk)
		}

	case token.CONTINUE:
		for i := len(l.targets) - 1; i >= 0; i-- {
			if l.targets[i].hasCont {
				l.asm.EmitBranch(cil.Br, l.targets[i].cont)
				return
			}
		}

	default:
		// goto and fallthrough; the latter is wired by clauses
	}
}
