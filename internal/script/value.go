package script

import (
	"fmt"
	"strconv"
)

// ValueTag enumerates the runtime kinds a Value may hold.
type ValueTag int

const (
	VTNull ValueTag = iota
	VTBool
	VTNum
	VTStr
	VTList
	VTMap
	VTFun
)

func (t ValueTag) String() string {
	switch t {
	case VTNull:
		return "null"
	case VTBool:
		return "bool"
	case VTNum:
		return "number"
	case VTStr:
		return "string"
	case VTList:
		return "list"
	case VTMap:
		return "map"
	case VTFun:
		return "function"
	default:
		return "unknown"
	}
}

// Value is the universal runtime carrier. The tag determines which field
// of Data is valid: bool for VTBool, float64 for VTNum, string for VTStr,
// *ListObject for VTList, *MapObject for VTMap, *Fun for VTFun, nil for
// VTNull.
type Value struct {
	Tag  ValueTag
	Data any
}

// Constructors.

func Null() Value { return Value{Tag: VTNull} }

func Bool(b bool) Value { return Value{Tag: VTBool, Data: b} }

func Num(n float64) Value { return Value{Tag: VTNum, Data: n} }

func Str(s string) Value { return Value{Tag: VTStr, Data: s} }

func List(l *ListObject) Value { return Value{Tag: VTList, Data: l} }

func Map(m *MapObject) Value { return Value{Tag: VTMap, Data: m} }

// ListOf builds a list value from elements.
func ListOf(elems ...Value) Value {
	return List(&ListObject{Elems: elems})
}

// ListObject is a mutable list. Lists are reference values: two Values may
// share the same ListObject, matching assignment semantics in the language.
type ListObject struct {
	Elems []Value
}

// MapObject is a mutable map preserving insertion order.
type MapObject struct {
	Keys    []string
	Entries map[string]Value
}

// NewMap creates an empty map object.
func NewMap() *MapObject {
	return &MapObject{Entries: make(map[string]Value)}
}

// Get returns the value for a key.
func (m *MapObject) Get(key string) (Value, bool) {
	v, ok := m.Entries[key]
	return v, ok
}

// Set inserts or replaces a key, preserving first-insertion order.
func (m *MapObject) Set(key string, v Value) {
	if _, ok := m.Entries[key]; !ok {
		m.Keys = append(m.Keys, key)
	}
	m.Entries[key] = v
}

// Fun is a callable value: either a user-defined function (Params/Body/Env)
// or a host native (Native non-nil).
type Fun struct {
	Name   string
	Params []string
	Body   *Block
	Env    *Env
	Native func(args []Value) (Value, error)
}

// Truthy reports the language's truthiness rule: null and false are false;
// zero, the empty string, and empty collections are false; everything else
// is true.
func (v Value) Truthy() bool {
	switch v.Tag {
	case VTNull:
		return false
	case VTBool:
		return v.Data.(bool)
	case VTNum:
		return v.Data.(float64) != 0
	case VTStr:
		return v.Data.(string) != ""
	case VTList:
		return len(v.Data.(*ListObject).Elems) > 0
	case VTMap:
		return len(v.Data.(*MapObject).Keys) > 0
	default:
		return true
	}
}

// Equal reports deep structural equality. Functions are equal only when
// they are the same object.
func (v Value) Equal(o Value) bool {
	if v.Tag != o.Tag {
		return false
	}
	switch v.Tag {
	case VTNull:
		return true
	case VTBool:
		return v.Data.(bool) == o.Data.(bool)
	case VTNum:
		return v.Data.(float64) == o.Data.(float64)
	case VTStr:
		return v.Data.(string) == o.Data.(string)
	case VTList:
		a, b := v.Data.(*ListObject), o.Data.(*ListObject)
		if len(a.Elems) != len(b.Elems) {
			return false
		}
		for i := range a.Elems {
			if !a.Elems[i].Equal(b.Elems[i]) {
				return false
			}
		}
		return true
	case VTMap:
		a, b := v.Data.(*MapObject), o.Data.(*MapObject)
		if len(a.Entries) != len(b.Entries) {
			return false
		}
		for k, av := range a.Entries {
			bv, ok := b.Entries[k]
			if !ok || !av.Equal(bv) {
				return false
			}
		}
		return true
	case VTFun:
		return v.Data == o.Data
	default:
		return false
	}
}

// ToString renders a value for user-facing messages and string
// concatenation. Numbers drop a trailing ".0" so "score: " + 3 reads
// naturally.
func (v Value) ToString() string {
	switch v.Tag {
	case VTNull:
		return "null"
	case VTBool:
		return strconv.FormatBool(v.Data.(bool))
	case VTNum:
		return strconv.FormatFloat(v.Data.(float64), 'f', -1, 64)
	case VTStr:
		return v.Data.(string)
	case VTList:
		l := v.Data.(*ListObject)
		s := "["
		for i, e := range l.Elems {
			if i > 0 {
				s += ", "
			}
			s += e.debugString()
		}
		return s + "]"
	case VTMap:
		m := v.Data.(*MapObject)
		s := "{"
		for i, k := range m.Keys {
			if i > 0 {
				s += ", "
			}
			s += k + ": " + m.Entries[k].debugString()
		}
		return s + "}"
	case VTFun:
		f := v.Data.(*Fun)
		if f.Name != "" {
			return "<fun " + f.Name + ">"
		}
		return "<fun>"
	default:
		return "<unknown>"
	}
}

// debugString is ToString except strings are quoted, for use inside
// rendered collections.
func (v Value) debugString() string {
	if v.Tag == VTStr {
		return fmt.Sprintf("%q", v.Data.(string))
	}
	return v.ToString()
}

// AsNum returns the numeric payload, or an error naming the actual kind.
func (v Value) AsNum() (float64, error) {
	if v.Tag != VTNum {
		return 0, fmt.Errorf("expected a number, got %s", v.Tag)
	}
	return v.Data.(float64), nil
}

// AsStr returns the string payload, or an error naming the actual kind.
func (v Value) AsStr() (string, error) {
	if v.Tag != VTStr {
		return "", fmt.Errorf("expected a string, got %s", v.Tag)
	}
	return v.Data.(string), nil
}

// Env is a lexical environment frame. Name resolution walks the parent
// chain; nothing outside the chain is reachable from a script.
type Env struct {
	vars   map[string]Value
	parent *Env
}

// NewEnv creates an environment with an optional parent.
func NewEnv(parent *Env) *Env {
	return &Env{vars: make(map[string]Value), parent: parent}
}

// Define binds a name in this frame, shadowing any outer binding.
func (e *Env) Define(name string, v Value) {
	e.vars[name] = v
}

// Get resolves a name through the chain.
func (e *Env) Get(name string) (Value, bool) {
	for env := e; env != nil; env = env.parent {
		if v, ok := env.vars[name]; ok {
			return v, true
		}
	}
	return Value{}, false
}

// Set assigns to an existing binding, walking the chain.
// Returns false if the name is not bound anywhere.
func (e *Env) Set(name string, v Value) bool {
	for env := e; env != nil; env = env.parent {
		if _, ok := env.vars[name]; ok {
			env.vars[name] = v
			return true
		}
	}
	return false
}
