package script

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
)

// InstallBuiltins registers the allow-listed utility natives into the
// interpreter's global environment. This is the complete pure-function
// vocabulary a script gets beyond whatever the embedder adds; nothing here
// can reach the host.
func InstallBuiltins(in *Interp) {
	in.RegisterNative("len", builtinLen)
	in.RegisterNative("push", builtinPush)
	in.RegisterNative("keys", builtinKeys)
	in.RegisterNative("abs", numeric1("abs", math.Abs))
	in.RegisterNative("floor", numeric1("floor", math.Floor))
	in.RegisterNative("round", numeric1("round", math.Round))
	in.RegisterNative("min", builtinMin)
	in.RegisterNative("max", builtinMax)
	in.RegisterNative("str", builtinStr)
	in.RegisterNative("num", builtinNum)
	in.RegisterNative("jsonParse", builtinJSONParse)
	in.RegisterNative("jsonStringify", builtinJSONStringify)
}

// InstallInertGlobals binds every dangerous ambient name a generated
// script might reference to null. The interpreter's namespace is closed,
// so these would be unreachable anyway; binding them to an inert value
// turns an accidental reference into a harmless null instead of an
// undefined-name error that would abort sibling statements.
func InstallInertGlobals(in *Interp) {
	for _, name := range []string{
		"fetch", "eval", "require", "import",
		"window", "document", "localStorage", "sessionStorage",
		"setTimeout", "setInterval", "XMLHttpRequest", "process",
	} {
		in.Register(name, Null())
	}
}

func builtinLen(args []Value) (Value, error) {
	if len(args) != 1 {
		return Value{}, fmt.Errorf("expected 1 argument, got %d", len(args))
	}
	switch args[0].Tag {
	case VTStr:
		return Num(float64(len(args[0].Data.(string)))), nil
	case VTList:
		return Num(float64(len(args[0].Data.(*ListObject).Elems))), nil
	case VTMap:
		return Num(float64(len(args[0].Data.(*MapObject).Keys))), nil
	default:
		return Value{}, fmt.Errorf("cannot take length of %s", args[0].Tag)
	}
}

func builtinPush(args []Value) (Value, error) {
	if len(args) != 2 {
		return Value{}, fmt.Errorf("expected 2 arguments, got %d", len(args))
	}
	if args[0].Tag != VTList {
		return Value{}, fmt.Errorf("first argument must be a list, got %s", args[0].Tag)
	}
	l := args[0].Data.(*ListObject)
	l.Elems = append(l.Elems, args[1])
	return args[0], nil
}

func builtinKeys(args []Value) (Value, error) {
	if len(args) != 1 || args[0].Tag != VTMap {
		return Value{}, fmt.Errorf("expected a map argument")
	}
	m := args[0].Data.(*MapObject)
	elems := make([]Value, len(m.Keys))
	for i, k := range m.Keys {
		elems[i] = Str(k)
	}
	return List(&ListObject{Elems: elems}), nil
}

func numeric1(name string, fn func(float64) float64) func([]Value) (Value, error) {
	return func(args []Value) (Value, error) {
		if len(args) != 1 {
			return Value{}, fmt.Errorf("expected 1 argument, got %d", len(args))
		}
		n, err := args[0].AsNum()
		if err != nil {
			return Value{}, err
		}
		return Num(fn(n)), nil
	}
}

func builtinMin(args []Value) (Value, error) {
	return fold("min", args, math.Min)
}

func builtinMax(args []Value) (Value, error) {
	return fold("max", args, math.Max)
}

func fold(name string, args []Value, fn func(a, b float64) float64) (Value, error) {
	if len(args) == 0 {
		return Value{}, fmt.Errorf("%s expects at least 1 argument", name)
	}
	acc, err := args[0].AsNum()
	if err != nil {
		return Value{}, err
	}
	for _, a := range args[1:] {
		n, err := a.AsNum()
		if err != nil {
			return Value{}, err
		}
		acc = fn(acc, n)
	}
	return Num(acc), nil
}

func builtinStr(args []Value) (Value, error) {
	if len(args) != 1 {
		return Value{}, fmt.Errorf("expected 1 argument, got %d", len(args))
	}
	return Str(args[0].ToString()), nil
}

func builtinNum(args []Value) (Value, error) {
	if len(args) != 1 {
		return Value{}, fmt.Errorf("expected 1 argument, got %d", len(args))
	}
	switch args[0].Tag {
	case VTNum:
		return args[0], nil
	case VTStr:
		var n float64
		if _, err := fmt.Sscanf(args[0].Data.(string), "%g", &n); err != nil {
			return Value{}, fmt.Errorf("cannot convert %q to a number", args[0].Data.(string))
		}
		return Num(n), nil
	case VTBool:
		if args[0].Data.(bool) {
			return Num(1), nil
		}
		return Num(0), nil
	default:
		return Value{}, fmt.Errorf("cannot convert %s to a number", args[0].Tag)
	}
}

func builtinJSONParse(args []Value) (Value, error) {
	if len(args) != 1 {
		return Value{}, fmt.Errorf("expected 1 argument, got %d", len(args))
	}
	s, err := args[0].AsStr()
	if err != nil {
		return Value{}, err
	}
	var raw any
	if err := json.Unmarshal([]byte(s), &raw); err != nil {
		return Value{}, fmt.Errorf("invalid JSON: %s", err)
	}
	return FromGo(raw), nil
}

func builtinJSONStringify(args []Value) (Value, error) {
	if len(args) != 1 {
		return Value{}, fmt.Errorf("expected 1 argument, got %d", len(args))
	}
	data, err := json.Marshal(ToGo(args[0]))
	if err != nil {
		return Value{}, fmt.Errorf("cannot serialize %s", args[0].Tag)
	}
	return Str(string(data)), nil
}

// FromGo converts a decoded-JSON Go value into a script Value.
// Map keys are sorted so conversion is deterministic.
func FromGo(v any) Value {
	switch val := v.(type) {
	case nil:
		return Null()
	case bool:
		return Bool(val)
	case float64:
		return Num(val)
	case string:
		return Str(val)
	case []any:
		elems := make([]Value, len(val))
		for i, e := range val {
			elems[i] = FromGo(e)
		}
		return List(&ListObject{Elems: elems})
	case map[string]any:
		m := NewMap()
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			m.Set(k, FromGo(val[k]))
		}
		return Map(m)
	default:
		return Null()
	}
}

// ToGo converts a script Value into a plain Go value for JSON encoding.
// Functions encode as null.
func ToGo(v Value) any {
	switch v.Tag {
	case VTNull, VTFun:
		return nil
	case VTBool:
		return v.Data.(bool)
	case VTNum:
		return v.Data.(float64)
	case VTStr:
		return v.Data.(string)
	case VTList:
		l := v.Data.(*ListObject)
		out := make([]any, len(l.Elems))
		for i, e := range l.Elems {
			out[i] = ToGo(e)
		}
		return out
	case VTMap:
		m := v.Data.(*MapObject)
		out := make(map[string]any, len(m.Keys))
		for _, k := range m.Keys {
			out[k] = ToGo(m.Entries[k])
		}
		return out
	default:
		return nil
	}
}
