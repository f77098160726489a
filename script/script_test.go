package script

import (
	"context"
	"testing"
	"time"

	"github.com/fzft/go-resp3/resp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	lua "github.com/yuin/gopher-lua"
)

func TestEval(t *testing.T) {
	tests := []struct {
		name     string
		script   string
		keys     []string
		args     []string
		expected resp.Frame
	}{
		{name: "string", script: "return 'hello'", expected: resp.BulkString("hello")},
		{name: "number", script: "return 42", expected: resp.Integer(42)},
		{name: "fraction truncates", script: "return 3.9", expected: resp.Integer(3)},
		{name: "negative fraction truncates", script: "return -3.9", expected: resp.Integer(-3)},
		{name: "access KEYS", script: "return KEYS[1]", keys: []string{"mykey"}, expected: resp.BulkString("mykey")},
		{name: "access ARGV", script: "return #ARGV", args: []string{"a", "b"}, expected: resp.Integer(2)},
		{name: "boolean", script: "return true", expected: resp.Boolean(true)},
		{name: "nil", script: "return nil", expected: resp.Null{}},
		{name: "no value", script: "local x = 1", expected: resp.Null{}},
		{name: "status reply", script: "return redis.status_reply('PONG')", expected: resp.SimpleString("PONG")},
		{name: "error reply", script: "return redis.error_reply('ERR nope')", expected: resp.Error("ERR nope")},
		{name: "double", script: "return {double=1.5}", expected: resp.Double(1.5)},
		{
			name:     "array",
			script:   "return {1, 'two', {ok='OK'}}",
			expected: resp.Array{resp.Integer(1), resp.BulkString("two"), resp.SimpleString("OK")},
		},
		{name: "array stops at nil", script: "return {1, nil, 3}", expected: resp.Array{resp.Integer(1)}},
		{name: "empty table", script: "return {}", expected: resp.Array{}},
		{
			name:   "map",
			script: "return {map={b='x', a=1}}",
			expected: resp.NewMap(
				resp.Pair{Key: "a", Value: resp.Integer(1)},
				resp.Pair{Key: "b", Value: resp.BulkString("x")},
			),
		},
		{
			name:     "set",
			script:   "return {set={y=true, x=true}}",
			expected: resp.Set{resp.BulkString("x"), resp.BulkString("y")},
		},
		{
			name:     "encode",
			script:   "return resp.encode({1, 'a'})",
			expected: resp.BulkString("*2\r\n:1\r\n$1\r\na\r\n"),
		},
		{
			name:     "decode",
			script:   `local v = resp.decode("%1\r\n+k\r\n:5\r\n") return v.map.k`,
			expected: resp.Integer(5),
		},
		{name: "decode status", script: `return resp.decode("+OK\r\n")`, expected: resp.SimpleString("OK")},
		{
			name:     "sandbox",
			script:   "return dofile == nil and loadfile == nil and require == nil and package == nil",
			expected: resp.Boolean(true),
		},
		{
			name:   "set of tables",
			script: "return {set={[{ok='b'}]=true, [{ok='a'}]=true, [{ok='c'}]=true}}",
			expected: resp.Set{
				resp.SimpleString("a"),
				resp.SimpleString("b"),
				resp.SimpleString("c"),
			},
		},
		{
			name:   "set strings before other members",
			script: "return {set={[10]=true, ['bb']=true, [9]=true, ['a']=true}}",
			expected: resp.Set{
				resp.BulkString("a"),
				resp.BulkString("bb"),
				resp.Integer(10),
				resp.Integer(9),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Eval(context.Background(), tt.script, tt.keys, tt.args)
			require.NoError(t, err)
			assert.Truef(t, resp.Equal(tt.expected, got), "want %#v, got %#v", tt.expected, got)
		})
	}
}

func TestEvalErrors(t *testing.T) {
	tests := []struct {
		name   string
		script string
	}{
		{name: "syntax", script: "return ("},
		{name: "runtime", script: "error('boom')"},
		{name: "function result", script: "return function() end"},
		{name: "huge number", script: "return 1e300"},
		{name: "cyclic table", script: "local t = {} t[1] = t return t"},
		{name: "bad decode", script: "return resp.decode('?')"},
		{name: "bad encode", script: "return resp.encode({ok='a\\nb'})"},
		{name: "module loader", script: "package.path = '/tmp/?.lua' return package.loaders[2]('x')"},
		{name: "invalid set member", script: "return {set={[{ok='a\\nb'}]=true}}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Eval(context.Background(), tt.script, nil, nil)
			assert.Error(t, err)
		})
	}
}

func TestEvalUnsupportedValue(t *testing.T) {
	_, err := Eval(context.Background(), "local t = {} t[1] = t return t", nil, nil)
	assert.ErrorIs(t, err, ErrUnsupportedValue)
}

func TestEvalHonoursContext(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := Eval(ctx, "while true do end", nil, nil)
	assert.Error(t, err)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestToLuaFromLuaRoundTrip(t *testing.T) {
	frames := []resp.Frame{
		resp.Integer(-12),
		resp.BulkString("bulk"),
		resp.SimpleString("OK"),
		resp.Error("ERR x"),
		resp.Boolean(false),
		resp.Double(2.25),
		resp.Null{},
		resp.Array{resp.Integer(1), resp.Array{resp.BulkString("nested")}},
		resp.Set{resp.BulkString("a"), resp.BulkString("b")},
		resp.NewMap(
			resp.Pair{Key: "a", Value: resp.Integer(1)},
			resp.Pair{Key: "b", Value: resp.Array{resp.Boolean(true)}},
		),
	}

	L := lua.NewState()
	defer L.Close()
	for _, f := range frames {
		got, err := FromLua(ToLua(L, f))
		require.NoError(t, err)
		assert.Truef(t, resp.Equal(f, got), "want %#v, got %#v", f, got)
	}
}

func TestToLuaNulls(t *testing.T) {
	L := lua.NewState()
	defer L.Close()

	assert.Equal(t, lua.LNil, ToLua(L, resp.Null{}))
	assert.Equal(t, lua.LFalse, ToLua(L, resp.NullBulkString{}))
	assert.Equal(t, lua.LFalse, ToLua(L, resp.NullArray{}))
}
