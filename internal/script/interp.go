package script

import (
	"fmt"
	"math"
)

// DefaultStepLimit is the default evaluation budget per run.
// Generous enough for any plausible game command, small enough that an
// accidental infinite loop fails in well under a second.
const DefaultStepLimit = 100_000

// maxCallDepth bounds user-function recursion so a runaway recursive
// script fails with a runtime error instead of exhausting the Go stack.
const maxCallDepth = 256

// Interp evaluates a parsed program against a closed environment chain.
// One Interp is built per execution; it is not reused.
type Interp struct {
	globals   *Env
	stepLimit int
	steps     int
	callDepth int
}

// Option configures an Interp.
type Option func(*Interp)

// WithStepLimit overrides the default evaluation budget.
func WithStepLimit(n int) Option {
	return func(in *Interp) {
		in.stepLimit = n
	}
}

// New creates an interpreter with an empty global environment.
func New(opts ...Option) *Interp {
	in := &Interp{
		globals:   NewEnv(nil),
		stepLimit: DefaultStepLimit,
	}
	for _, opt := range opts {
		opt(in)
	}
	return in
}

// Globals returns the interpreter's global environment.
func (in *Interp) Globals() *Env {
	return in.globals
}

// Register binds a value in the global environment.
func (in *Interp) Register(name string, v Value) {
	in.globals.Define(name, v)
}

// RegisterNative binds a host function in the global environment.
func (in *Interp) RegisterNative(name string, fn func(args []Value) (Value, error)) {
	in.globals.Define(name, Value{Tag: VTFun, Data: &Fun{Name: name, Native: fn}})
}

// Run parses and evaluates a source string to completion.
// Returns *SyntaxError, *RuntimeError, or *BudgetError on failure.
func (in *Interp) Run(src string) error {
	prog, err := Parse(src)
	if err != nil {
		return err
	}
	for _, stmt := range prog.Stmts {
		if _, err := in.eval(stmt, in.globals); err != nil {
			switch err.(type) {
			case *breakSignal, *continueSignal:
				return in.errAt(stmt, "break or continue outside a loop")
			case *returnSignal:
				return nil // top-level return ends the script
			}
			return err
		}
	}
	return nil
}

// Control-flow signals travel as errors through eval and are absorbed by
// the construct that handles them.

type breakSignal struct{}

func (*breakSignal) Error() string { return "break" }

type continueSignal struct{}

func (*continueSignal) Error() string { return "continue" }

type returnSignal struct {
	value Value
}

func (*returnSignal) Error() string { return "return" }

func (in *Interp) eval(n Node, env *Env) (Value, error) {
	in.steps++
	if in.steps > in.stepLimit {
		return Value{}, &BudgetError{Limit: in.stepLimit}
	}

	switch node := n.(type) {
	case *NullLit:
		return Null(), nil
	case *BoolLit:
		return Bool(node.Value), nil
	case *NumLit:
		return Num(node.Value), nil
	case *StrLit:
		return Str(node.Value), nil

	case *Ident:
		v, ok := env.Get(node.Name)
		if !ok {
			return Value{}, in.errAt(node, "undefined name %q", node.Name)
		}
		return v, nil

	case *ListLit:
		elems := make([]Value, len(node.Elems))
		for i, e := range node.Elems {
			v, err := in.eval(e, env)
			if err != nil {
				return Value{}, err
			}
			elems[i] = v
		}
		return List(&ListObject{Elems: elems}), nil

	case *MapLit:
		m := NewMap()
		for i, k := range node.Keys {
			v, err := in.eval(node.Values[i], env)
			if err != nil {
				return Value{}, err
			}
			m.Set(k, v)
		}
		return Map(m), nil

	case *Unary:
		return in.evalUnary(node, env)
	case *Binary:
		return in.evalBinary(node, env)
	case *Member:
		return in.evalMember(node, env)
	case *Index:
		return in.evalIndex(node, env)
	case *Call:
		return in.evalCall(node, env)

	case *Let:
		v, err := in.eval(node.Value, env)
		if err != nil {
			return Value{}, err
		}
		env.Define(node.Name, v)
		return Null(), nil

	case *Assign:
		return in.evalAssign(node, env)

	case *ExprStmt:
		return in.eval(node.X, env)

	case *Block:
		inner := NewEnv(env)
		for _, stmt := range node.Stmts {
			if _, err := in.eval(stmt, inner); err != nil {
				return Value{}, err
			}
		}
		return Null(), nil

	case *If:
		cond, err := in.eval(node.Cond, env)
		if err != nil {
			return Value{}, err
		}
		if cond.Truthy() {
			return in.eval(node.Then, env)
		}
		if node.Else != nil {
			return in.eval(node.Else, env)
		}
		return Null(), nil

	case *While:
		for {
			cond, err := in.eval(node.Cond, env)
			if err != nil {
				return Value{}, err
			}
			if !cond.Truthy() {
				return Null(), nil
			}
			if _, err := in.eval(node.Body, env); err != nil {
				switch err.(type) {
				case *breakSignal:
					return Null(), nil
				case *continueSignal:
					continue
				}
				return Value{}, err
			}
		}

	case *ForIn:
		return in.evalForIn(node, env)

	case *FunDecl:
		fn := &Fun{Name: node.Name, Params: node.Params, Body: node.Body, Env: env}
		env.Define(node.Name, Value{Tag: VTFun, Data: fn})
		return Null(), nil

	case *Return:
		v := Null()
		if node.Value != nil {
			rv, err := in.eval(node.Value, env)
			if err != nil {
				return Value{}, err
			}
			v = rv
		}
		return Value{}, &returnSignal{value: v}

	case *BreakStmt:
		return Value{}, &breakSignal{}
	case *ContinueStmt:
		return Value{}, &continueSignal{}

	default:
		return Value{}, in.errAt(n, "unsupported syntax node %T", n)
	}
}

func (in *Interp) evalForIn(node *ForIn, env *Env) (Value, error) {
	seq, err := in.eval(node.Seq, env)
	if err != nil {
		return Value{}, err
	}

	var items []Value
	switch seq.Tag {
	case VTList:
		// Iterate a snapshot so body mutations of the list do not shift
		// the iteration.
		src := seq.Data.(*ListObject).Elems
		items = make([]Value, len(src))
		copy(items, src)
	case VTMap:
		m := seq.Data.(*MapObject)
		items = make([]Value, len(m.Keys))
		for i, k := range m.Keys {
			items[i] = Str(k)
		}
	default:
		return Value{}, in.errAt(node, "cannot iterate over %s", seq.Tag)
	}

	for _, item := range items {
		inner := NewEnv(env)
		inner.Define(node.Name, item)
		if _, err := in.eval(node.Body, inner); err != nil {
			switch err.(type) {
			case *breakSignal:
				return Null(), nil
			case *continueSignal:
				continue
			}
			return Value{}, err
		}
	}
	return Null(), nil
}

func (in *Interp) evalUnary(node *Unary, env *Env) (Value, error) {
	x, err := in.eval(node.X, env)
	if err != nil {
		return Value{}, err
	}
	switch node.Op {
	case MINUS:
		n, err := x.AsNum()
		if err != nil {
			return Value{}, in.errAt(node, "cannot negate %s", x.Tag)
		}
		return Num(-n), nil
	case NOT:
		return Bool(!x.Truthy()), nil
	default:
		return Value{}, in.errAt(node, "unsupported unary operator")
	}
}

func (in *Interp) evalBinary(node *Binary, env *Env) (Value, error) {
	// Short-circuit forms evaluate the right side lazily and yield the
	// deciding operand, not a coerced bool.
	if node.Op == AND || node.Op == OR {
		l, err := in.eval(node.L, env)
		if err != nil {
			return Value{}, err
		}
		if node.Op == AND && !l.Truthy() {
			return l, nil
		}
		if node.Op == OR && l.Truthy() {
			return l, nil
		}
		return in.eval(node.R, env)
	}

	l, err := in.eval(node.L, env)
	if err != nil {
		return Value{}, err
	}
	r, err := in.eval(node.R, env)
	if err != nil {
		return Value{}, err
	}

	switch node.Op {
	case EQ:
		return Bool(l.Equal(r)), nil
	case NEQ:
		return Bool(!l.Equal(r)), nil

	case PLUS:
		switch {
		case l.Tag == VTStr || r.Tag == VTStr:
			return Str(l.ToString() + r.ToString()), nil
		case l.Tag == VTNum && r.Tag == VTNum:
			return Num(l.Data.(float64) + r.Data.(float64)), nil
		case l.Tag == VTList && r.Tag == VTList:
			a := l.Data.(*ListObject).Elems
			b := r.Data.(*ListObject).Elems
			elems := make([]Value, 0, len(a)+len(b))
			elems = append(elems, a...)
			elems = append(elems, b...)
			return List(&ListObject{Elems: elems}), nil
		default:
			return Value{}, in.errAt(node, "cannot add %s and %s", l.Tag, r.Tag)
		}

	case MINUS, STAR, SLASH, PERCENT:
		ln, err := l.AsNum()
		if err != nil {
			return Value{}, in.errAt(node, "arithmetic on %s", l.Tag)
		}
		rn, err := r.AsNum()
		if err != nil {
			return Value{}, in.errAt(node, "arithmetic on %s", r.Tag)
		}
		switch node.Op {
		case MINUS:
			return Num(ln - rn), nil
		case STAR:
			return Num(ln * rn), nil
		case SLASH:
			if rn == 0 {
				return Value{}, in.errAt(node, "division by zero")
			}
			return Num(ln / rn), nil
		default:
			if rn == 0 {
				return Value{}, in.errAt(node, "modulo by zero")
			}
			return Num(math.Mod(ln, rn)), nil
		}

	case LESS, LESSEQ, GREATER, GREATEREQ:
		cmp, err := compareValues(l, r)
		if err != nil {
			return Value{}, in.errAt(node, "%s", err)
		}
		switch node.Op {
		case LESS:
			return Bool(cmp < 0), nil
		case LESSEQ:
			return Bool(cmp <= 0), nil
		case GREATER:
			return Bool(cmp > 0), nil
		default:
			return Bool(cmp >= 0), nil
		}

	default:
		return Value{}, in.errAt(node, "unsupported binary operator")
	}
}

func compareValues(l, r Value) (int, error) {
	switch {
	case l.Tag == VTNum && r.Tag == VTNum:
		a, b := l.Data.(float64), r.Data.(float64)
		switch {
		case a < b:
			return -1, nil
		case a > b:
			return 1, nil
		default:
			return 0, nil
		}
	case l.Tag == VTStr && r.Tag == VTStr:
		a, b := l.Data.(string), r.Data.(string)
		switch {
		case a < b:
			return -1, nil
		case a > b:
			return 1, nil
		default:
			return 0, nil
		}
	default:
		return 0, fmt.Errorf("cannot compare %s and %s", l.Tag, r.Tag)
	}
}

func (in *Interp) evalMember(node *Member, env *Env) (Value, error) {
	x, err := in.eval(node.X, env)
	if err != nil {
		return Value{}, err
	}
	if x.Tag != VTMap {
		return Value{}, in.errAt(node, "cannot access %q on %s", node.Name, x.Tag)
	}
	v, ok := x.Data.(*MapObject).Get(node.Name)
	if !ok {
		return Null(), nil
	}
	return v, nil
}

func (in *Interp) evalIndex(node *Index, env *Env) (Value, error) {
	x, err := in.eval(node.X, env)
	if err != nil {
		return Value{}, err
	}
	key, err := in.eval(node.Key, env)
	if err != nil {
		return Value{}, err
	}
	switch x.Tag {
	case VTList:
		idx, err := listIndex(x.Data.(*ListObject), key)
		if err != nil {
			return Value{}, in.errAt(node, "%s", err)
		}
		return x.Data.(*ListObject).Elems[idx], nil
	case VTMap:
		k, err := key.AsStr()
		if err != nil {
			return Value{}, in.errAt(node, "map key must be a string, got %s", key.Tag)
		}
		v, ok := x.Data.(*MapObject).Get(k)
		if !ok {
			return Null(), nil
		}
		return v, nil
	default:
		return Value{}, in.errAt(node, "cannot index %s", x.Tag)
	}
}

func listIndex(l *ListObject, key Value) (int, error) {
	n, err := key.AsNum()
	if err != nil {
		return 0, fmt.Errorf("list index must be a number, got %s", key.Tag)
	}
	idx := int(n)
	if idx < 0 || idx >= len(l.Elems) {
		return 0, fmt.Errorf("list index %d out of range (length %d)", idx, len(l.Elems))
	}
	return idx, nil
}

func (in *Interp) evalAssign(node *Assign, env *Env) (Value, error) {
	v, err := in.eval(node.Value, env)
	if err != nil {
		return Value{}, err
	}

	switch target := node.Target.(type) {
	case *Ident:
		if !env.Set(target.Name, v) {
			// Assigning an unbound name defines it, matching the loose
			// style of generated scripts that skip "let".
			env.Define(target.Name, v)
		}
		return Null(), nil

	case *Member:
		x, err := in.eval(target.X, env)
		if err != nil {
			return Value{}, err
		}
		if x.Tag != VTMap {
			return Value{}, in.errAt(node, "cannot set %q on %s", target.Name, x.Tag)
		}
		x.Data.(*MapObject).Set(target.Name, v)
		return Null(), nil

	case *Index:
		x, err := in.eval(target.X, env)
		if err != nil {
			return Value{}, err
		}
		key, err := in.eval(target.Key, env)
		if err != nil {
			return Value{}, err
		}
		switch x.Tag {
		case VTList:
			l := x.Data.(*ListObject)
			idx, err := listIndex(l, key)
			if err != nil {
				return Value{}, in.errAt(node, "%s", err)
			}
			l.Elems[idx] = v
			return Null(), nil
		case VTMap:
			k, err := key.AsStr()
			if err != nil {
				return Value{}, in.errAt(node, "map key must be a string, got %s", key.Tag)
			}
			x.Data.(*MapObject).Set(k, v)
			return Null(), nil
		default:
			return Value{}, in.errAt(node, "cannot index %s", x.Tag)
		}

	default:
		return Value{}, in.errAt(node, "invalid assignment target")
	}
}

func (in *Interp) evalCall(node *Call, env *Env) (Value, error) {
	fv, err := in.eval(node.Fn, env)
	if err != nil {
		return Value{}, err
	}
	if fv.Tag != VTFun {
		return Value{}, in.errAt(node, "%s is not callable", fv.Tag)
	}
	fn := fv.Data.(*Fun)

	args := make([]Value, len(node.Args))
	for i, a := range node.Args {
		v, err := in.eval(a, env)
		if err != nil {
			return Value{}, err
		}
		args[i] = v
	}

	if fn.Native != nil {
		v, err := fn.Native(args)
		if err != nil {
			// Preserve interpreter error kinds; wrap host errors with the
			// call position.
			switch err.(type) {
			case *RuntimeError, *BudgetError:
				return Value{}, err
			}
			return Value{}, in.errAt(node, "%s: %s", fn.Name, err)
		}
		return v, nil
	}

	if in.callDepth >= maxCallDepth {
		return Value{}, in.errAt(node, "call depth limit exceeded")
	}
	in.callDepth++
	defer func() { in.callDepth-- }()

	frame := NewEnv(fn.Env)
	for i, param := range fn.Params {
		if i < len(args) {
			frame.Define(param, args[i])
		} else {
			frame.Define(param, Null())
		}
	}
	for _, stmt := range fn.Body.Stmts {
		if _, err := in.eval(stmt, frame); err != nil {
			if ret, ok := err.(*returnSignal); ok {
				return ret.value, nil
			}
			return Value{}, err
		}
	}
	return Null(), nil
}

func (in *Interp) errAt(n Node, format string, args ...any) error {
	line, col := n.Pos()
	return &RuntimeError{
		Msg:  fmt.Sprintf(format, args...),
		Line: line,
		Col:  col,
	}
}
