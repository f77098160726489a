// Package resp implements the RESP3 value model and wire codec.
// https://github.com/redis/redis-specifications/blob/master/protocol/RESP3.md
//
// A Frame is one protocol value. Encode turns a Frame into its exact byte
// representation and Decode parses a complete buffer back into a Frame.
// Neither performs I/O or keeps state, so both are safe for concurrent use.
package resp

import "strconv"

const CRLF string = "\r\n"

var crlf = []byte(CRLF)

// Prefix bytes shared with RESP version 2
const (
	TypeArray   byte = '*'
	TypeBlob    byte = '$'
	TypeSimple  byte = '+'
	TypeError   byte = '-'
	TypeInteger byte = ':'
)

// Prefix bytes introduced by RESP3
const (
	TypeNull    byte = '_'
	TypeDouble  byte = ','
	TypeBoolean byte = '#'
	TypeMap     byte = '%'
	TypeSet     byte = '~'
)

// Kind identifies a Frame variant.
type Kind uint8

const (
	KindSimpleString Kind = iota + 1
	KindError
	KindInteger
	KindBulkString
	KindNullBulkString
	KindNull
	KindArray
	KindNullArray
	KindBoolean
	KindDouble
	KindMap
	KindSet
)

var kindNames = map[Kind]string{
	KindSimpleString:   "SimpleString",
	KindError:          "Error",
	KindInteger:        "Integer",
	KindBulkString:     "BulkString",
	KindNullBulkString: "NullBulkString",
	KindNull:           "Null",
	KindArray:          "Array",
	KindNullArray:      "NullArray",
	KindBoolean:        "Boolean",
	KindDouble:         "Double",
	KindMap:            "Map",
	KindSet:            "Set",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "Kind(" + strconv.Itoa(int(k)) + ")"
}

// Prefix returns the type byte that opens the wire form of k.
// The null bulk string and null array share their prefix with
// the non-null variant.
func (k Kind) Prefix() byte {
	switch k {
	case KindSimpleString:
		return TypeSimple
	case KindError:
		return TypeError
	case KindInteger:
		return TypeInteger
	case KindBulkString, KindNullBulkString:
		return TypeBlob
	case KindNull:
		return TypeNull
	case KindArray, KindNullArray:
		return TypeArray
	case KindBoolean:
		return TypeBoolean
	case KindDouble:
		return TypeDouble
	case KindMap:
		return TypeMap
	case KindSet:
		return TypeSet
	}
	return 0
}

// Frame is a RESP3 value. The set of implementations is closed:
// only the types declared in this package satisfy it.
type Frame interface {
	Kind() Kind
	frame()
}

// SimpleString is a single line of text. It must not contain CR or LF.
type SimpleString string

// Error is a single line error message. It must not contain CR or LF.
type Error string

// Integer is a signed 64-bit number.
type Integer int64

// BulkString is a binary safe string.
type BulkString []byte

// NullBulkString is the legacy "$-1" null.
type NullBulkString struct{}

// Null is the RESP3 null.
type Null struct{}

// Array is an ordered collection of frames.
type Array []Frame

// NullArray is the "*-1" null.
type NullArray struct{}

type Boolean bool

// Double is a 64-bit float; infinities and NaN are representable.
type Double float64

// Set is an ordered collection of frames. Uniqueness is not enforced.
type Set []Frame

func (SimpleString) Kind() Kind   { return KindSimpleString }
func (Error) Kind() Kind          { return KindError }
func (Integer) Kind() Kind        { return KindInteger }
func (BulkString) Kind() Kind     { return KindBulkString }
func (NullBulkString) Kind() Kind { return KindNullBulkString }
func (Null) Kind() Kind           { return KindNull }
func (Array) Kind() Kind          { return KindArray }
func (NullArray) Kind() Kind      { return KindNullArray }
func (Boolean) Kind() Kind        { return KindBoolean }
func (Double) Kind() Kind         { return KindDouble }
func (Map) Kind() Kind            { return KindMap }
func (Set) Kind() Kind            { return KindSet }

func (SimpleString) frame()   {}
func (Error) frame()          {}
func (Integer) frame()        {}
func (BulkString) frame()     {}
func (NullBulkString) frame() {}
func (Null) frame()           {}
func (Array) frame()          {}
func (NullArray) frame()      {}
func (Boolean) frame()        {}
func (Double) frame()         {}
func (Map) frame()            {}
func (Set) frame()            {}

// Error implements the error interface so an Error frame can be
// returned where Go code expects an error.
func (e Error) Error() string {
	return string(e)
}

func (b BulkString) String() string {
	return string(b)
}

// String formats d the way it is written on the wire.
func (d Double) String() string {
	return string(appendDouble(nil, float64(d)))
}
