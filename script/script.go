// Package script bridges RESP3 frames and Lua values the way Redis does
// for EVAL under RESP3, and runs small scripts that produce frames.
//
// Conversion from frames to Lua:
//   - Integer becomes a number, BulkString a string, Boolean a boolean
//   - SimpleString becomes {ok=...} and Error becomes {err=...}
//   - Double becomes {double=...}
//   - Null becomes nil, NullBulkString and NullArray become false
//   - Array becomes a sequence, Set becomes {set={[elem]=true}}
//   - Map becomes {map={[key]=value}}
//
// FromLua applies the reverse rules.
package script

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/fzft/go-resp3/resp"
	lua "github.com/yuin/gopher-lua"
)

// maxNesting bounds table recursion in FromLua; Lua tables may be cyclic.
const maxNesting = 128

var ErrUnsupportedValue = errors.New("script: value has no RESP3 form")

// ToLua converts f into a value owned by L.
func ToLua(L *lua.LState, f resp.Frame) lua.LValue {
	switch v := f.(type) {
	case resp.Integer:
		return lua.LNumber(v)
	case resp.BulkString:
		return lua.LString(v)
	case resp.SimpleString:
		return singleField(L, "ok", lua.LString(v))
	case resp.Error:
		return singleField(L, "err", lua.LString(v))
	case resp.Boolean:
		return lua.LBool(v)
	case resp.Double:
		return singleField(L, "double", lua.LNumber(v))
	case resp.Null:
		return lua.LNil
	case resp.NullBulkString, resp.NullArray:
		return lua.LFalse
	case resp.Array:
		return sequence(L, v)
	case resp.Set:
		members := L.NewTable()
		for _, e := range v {
			k := ToLua(L, e)
			if k == lua.LNil {
				continue
			}
			members.RawSet(k, lua.LTrue)
		}
		return singleField(L, "set", members)
	case resp.Map:
		fields := L.NewTable()
		v.Range(func(key string, value resp.Frame) bool {
			fields.RawSetString(key, ToLua(L, value))
			return true
		})
		return singleField(L, "map", fields)
	}
	return lua.LNil
}

func singleField(L *lua.LState, name string, value lua.LValue) *lua.LTable {
	t := L.NewTable()
	t.RawSetString(name, value)
	return t
}

// sequence mirrors Redis: a nil element ends up as a hole in the table.
func sequence(L *lua.LState, elems []resp.Frame) *lua.LTable {
	t := L.CreateTable(len(elems), 0)
	for i, e := range elems {
		t.RawSetInt(i+1, ToLua(L, e))
	}
	return t
}

// FromLua converts a Lua value into a frame.
func FromLua(v lua.LValue) (resp.Frame, error) {
	return fromLua(v, 0)
}

func fromLua(v lua.LValue, depth int) (resp.Frame, error) {
	if depth > maxNesting {
		return nil, fmt.Errorf("%w: tables nested deeper than %d", ErrUnsupportedValue, maxNesting)
	}
	switch lv := v.(type) {
	case *lua.LNilType:
		return resp.Null{}, nil
	case lua.LBool:
		return resp.Boolean(lv), nil
	case lua.LNumber:
		return numberToInteger(lv)
	case lua.LString:
		return resp.BulkString(lv), nil
	case *lua.LTable:
		return tableToFrame(lv, depth)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedValue, v.Type())
}

// numberToInteger truncates toward zero like Redis does.
func numberToInteger(n lua.LNumber) (resp.Frame, error) {
	f := float64(n)
	if math.IsNaN(f) || f >= math.MaxInt64 || f < math.MinInt64 {
		return nil, fmt.Errorf("%w: number %v does not fit an integer", ErrUnsupportedValue, f)
	}
	return resp.Integer(int64(f)), nil
}

func tableToFrame(t *lua.LTable, depth int) (resp.Frame, error) {
	if ok, isStr := t.RawGetString("ok").(lua.LString); isStr {
		return resp.SimpleString(ok), nil
	}
	if e, isStr := t.RawGetString("err").(lua.LString); isStr {
		return resp.Error(e), nil
	}
	if d, isNum := t.RawGetString("double").(lua.LNumber); isNum {
		return resp.Double(d), nil
	}
	if m, isTable := t.RawGetString("map").(*lua.LTable); isTable {
		return mapFromTable(m, depth)
	}
	if s, isTable := t.RawGetString("set").(*lua.LTable); isTable {
		return setFromTable(s, depth)
	}

	var arr resp.Array
	for i := 1; ; i++ {
		e := t.RawGetInt(i)
		if e == lua.LNil {
			break
		}
		f, err := fromLua(e, depth+1)
		if err != nil {
			return nil, err
		}
		arr = append(arr, f)
	}
	if arr == nil {
		arr = resp.Array{}
	}
	return arr, nil
}

func mapFromTable(t *lua.LTable, depth int) (resp.Frame, error) {
	var (
		pairs []resp.Pair
		err   error
	)
	t.ForEach(func(k, v lua.LValue) {
		if err != nil {
			return
		}
		var f resp.Frame
		if f, err = fromLua(v, depth+1); err == nil {
			pairs = append(pairs, resp.Pair{Key: k.String(), Value: f})
		}
	})
	if err != nil {
		return nil, err
	}
	return resp.NewMap(pairs...), nil
}

// setFromTable orders members so the result does not depend on Lua's
// table iteration order: strings ascend by content and come first, every
// other member follows in ascending order of its wire form.
func setFromTable(t *lua.LTable, depth int) (resp.Frame, error) {
	type member struct {
		frame  resp.Frame
		isText bool
		key    string
	}
	var (
		members []member
		err     error
	)
	t.ForEach(func(k, _ lua.LValue) {
		if err != nil {
			return
		}
		var f resp.Frame
		if f, err = fromLua(k, depth+1); err != nil {
			return
		}
		if s, ok := f.(resp.BulkString); ok {
			members = append(members, member{frame: f, isText: true, key: string(s)})
			return
		}
		var b []byte
		if b, err = resp.Encode(f); err != nil {
			err = fmt.Errorf("%w: set member: %v", ErrUnsupportedValue, err)
			return
		}
		members = append(members, member{frame: f, key: string(b)})
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(members, func(i, j int) bool {
		if members[i].isText != members[j].isText {
			return members[i].isText
		}
		return members[i].key < members[j].key
	})

	set := make(resp.Set, len(members))
	for i, m := range members {
		set[i] = m.frame
	}
	return set, nil
}

// Eval runs src in a fresh sandboxed state and converts the script's
// return value into a frame. KEYS and ARGV are populated from keys and
// args. Cancelling ctx aborts the script.
func Eval(ctx context.Context, src string, keys, args []string) (resp.Frame, error) {
	L := newState()
	defer L.Close()
	L.SetContext(ctx)

	L.SetGlobal("KEYS", stringsTable(L, keys))
	L.SetGlobal("ARGV", stringsTable(L, args))

	fn, err := L.LoadString(src)
	if err != nil {
		return nil, fmt.Errorf("script: compile: %w", err)
	}
	L.Push(fn)
	if err := L.PCall(0, 1, nil); err != nil {
		return nil, fmt.Errorf("script: run: %w", err)
	}
	ret := L.Get(-1)
	L.Pop(1)
	return FromLua(ret)
}

func stringsTable(L *lua.LState, values []string) *lua.LTable {
	t := L.CreateTable(len(values), 0)
	for i, v := range values {
		t.RawSetInt(i+1, lua.LString(v))
	}
	return t
}
