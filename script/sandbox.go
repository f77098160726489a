package script

import (
	"github.com/fzft/go-resp3/resp"
	lua "github.com/yuin/gopher-lua"
)

var openLibs = []struct {
	name string
	fn   lua.LGFunction
}{
	{lua.BaseLibName, lua.OpenBase},
	{lua.TabLibName, lua.OpenTable},
	{lua.StringLibName, lua.OpenString},
	{lua.MathLibName, lua.OpenMath},
}

// file and module loading stay out of reach of scripts
var removedGlobals = []string{"dofile", "loadfile", "require", "module", "package"}

func newState() *lua.LState {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	for _, lib := range openLibs {
		L.Push(L.NewFunction(lib.fn))
		L.Push(lua.LString(lib.name))
		L.Call(1, 0)
	}
	for _, name := range removedGlobals {
		L.SetGlobal(name, lua.LNil)
	}

	redis := L.NewTable()
	L.SetFuncs(redis, map[string]lua.LGFunction{
		"status_reply": statusReply,
		"error_reply":  errorReply,
	})
	L.SetGlobal("redis", redis)

	codec := L.NewTable()
	L.SetFuncs(codec, map[string]lua.LGFunction{
		"encode": encodeValue,
		"decode": decodeValue,
	})
	L.SetGlobal("resp", codec)
	return L
}

func statusReply(L *lua.LState) int {
	L.Push(singleField(L, "ok", lua.LString(L.CheckString(1))))
	return 1
}

func errorReply(L *lua.LState) int {
	L.Push(singleField(L, "err", lua.LString(L.CheckString(1))))
	return 1
}

// encodeValue implements resp.encode(value) -> wire string.
func encodeValue(L *lua.LState) int {
	f, err := FromLua(L.Get(1))
	if err != nil {
		L.RaiseError("%s", err.Error())
		return 0
	}
	b, err := resp.Encode(f)
	if err != nil {
		L.RaiseError("%s", err.Error())
		return 0
	}
	L.Push(lua.LString(b))
	return 1
}

// decodeValue implements resp.decode(wire string) -> value. Bytes after
// the first frame are ignored.
func decodeValue(L *lua.LState) int {
	f, _, err := resp.Decode([]byte(L.CheckString(1)))
	if err != nil {
		L.RaiseError("%s", err.Error())
		return 0
	}
	L.Push(ToLua(L, f))
	return 1
}
