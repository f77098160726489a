package resp

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEqual(t *testing.T) {
	nan := Double(math.NaN())
	negZero := Double(math.Copysign(0, -1))

	assert.True(t, Equal(nil, nil))
	assert.False(t, Equal(nil, Null{}))
	assert.True(t, Equal(nan, Double(math.Float64frombits(0x7ff8000000000001))))
	assert.False(t, Equal(nan, Double(0)))
	assert.False(t, Equal(Double(0), negZero))
	assert.True(t, Equal(negZero, negZero))
	assert.True(t, Equal(BulkString(nil), BulkString{}))
	assert.True(t, Equal(Array(nil), Array{}))
	assert.False(t, Equal(Array{}, Set{}))
	assert.False(t, Equal(BulkString("OK"), SimpleString("OK")))
	assert.False(t, Equal(Null{}, NullArray{}))
	assert.False(t, Equal(NullBulkString{}, Null{}))
	assert.True(t, Equal(Array{nan, Set{Integer(1)}}, Array{nan, Set{Integer(1)}}))
	assert.False(t, Equal(Array{Integer(1)}, Array{Integer(1), Integer(2)}))

	a := NewMap(Pair{Key: "x", Value: nan}, Pair{Key: "y", Value: Boolean(true)})
	b := NewMap(Pair{Key: "y", Value: Boolean(true)}, Pair{Key: "x", Value: nan})
	assert.True(t, Equal(a, b))
	assert.False(t, Equal(a, b.With("y", Boolean(false))))
	assert.False(t, Equal(a, b.With("z", Null{})))
}

func TestKind(t *testing.T) {
	assert.Equal(t, "SimpleString", KindSimpleString.String())
	assert.Equal(t, "NullBulkString", NullBulkString{}.Kind().String())
	assert.Equal(t, "Kind(99)", Kind(99).String())
	assert.Equal(t, TypeBlob, KindNullBulkString.Prefix())
	assert.Equal(t, TypeArray, NullArray{}.Kind().Prefix())
	assert.Equal(t, TypeMap, Map{}.Kind().Prefix())
	assert.Equal(t, "boom", Error("boom").Error())
}
