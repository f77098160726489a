package resp

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Encode returns the wire form of f.
//
// Encoding is total for well formed frames. It fails, wrapping
// ErrInvalidFrame, when a SimpleString or Error holds CR, LF or invalid
// UTF-8, when a Map key is not valid UTF-8, or when the tree contains a
// nil Frame.
func Encode(f Frame) ([]byte, error) {
	return AppendFrame(nil, f)
}

// AppendFrame appends the wire form of f to dst. On error dst is
// returned unchanged.
func AppendFrame(dst []byte, f Frame) ([]byte, error) {
	start := len(dst)
	out, err := appendFrame(dst, f)
	if err != nil {
		return dst[:start], err
	}
	return out, nil
}

// Write encodes f and writes it to w in a single call.
func Write(w io.Writer, f Frame) (int, error) {
	b, err := Encode(f)
	if err != nil {
		return 0, err
	}
	return w.Write(b)
}

// Validate reports whether f can be encoded.
func Validate(f Frame) error {
	switch v := f.(type) {
	case nil:
		return fmt.Errorf("%w: nil frame", ErrInvalidFrame)
	case SimpleString:
		return validateLine(KindSimpleString, string(v))
	case Error:
		return validateLine(KindError, string(v))
	case Array:
		return validateElements(KindArray, v)
	case Set:
		return validateElements(KindSet, v)
	case Map:
		for _, k := range v.Keys() {
			if !utf8.ValidString(k) {
				return fmt.Errorf("%w: map key %q is not valid utf-8", ErrInvalidFrame, k)
			}
			if err := Validate(v.entries[k]); err != nil {
				return err
			}
		}
	}
	return nil
}

func validateLine(kind Kind, s string) error {
	if strings.ContainsAny(s, "\r\n") {
		return fmt.Errorf("%w: %s contains CR or LF", ErrInvalidFrame, kind)
	}
	if !utf8.ValidString(s) {
		return fmt.Errorf("%w: %s is not valid utf-8", ErrInvalidFrame, kind)
	}
	return nil
}

func validateElements(kind Kind, elems []Frame) error {
	for i, e := range elems {
		if e == nil {
			return fmt.Errorf("%w: nil element %d in %s", ErrInvalidFrame, i, kind)
		}
		if err := Validate(e); err != nil {
			return err
		}
	}
	return nil
}

func appendFrame(dst []byte, f Frame) ([]byte, error) {
	switch v := f.(type) {
	case SimpleString:
		if err := validateLine(KindSimpleString, string(v)); err != nil {
			return dst, err
		}
		return appendLine(dst, TypeSimple, string(v)), nil
	case Error:
		if err := validateLine(KindError, string(v)); err != nil {
			return dst, err
		}
		return appendLine(dst, TypeError, string(v)), nil
	case Integer:
		dst = append(dst, TypeInteger)
		dst = strconv.AppendInt(dst, int64(v), 10)
		return append(dst, crlf...), nil
	case BulkString:
		return appendBulk(dst, v), nil
	case NullBulkString:
		return append(dst, "$-1\r\n"...), nil
	case Null:
		return append(dst, "_\r\n"...), nil
	case NullArray:
		return append(dst, "*-1\r\n"...), nil
	case Boolean:
		if v {
			return append(dst, "#t\r\n"...), nil
		}
		return append(dst, "#f\r\n"...), nil
	case Double:
		dst = append(dst, TypeDouble)
		dst = appendDouble(dst, float64(v))
		return append(dst, crlf...), nil
	case Array:
		return appendElements(dst, TypeArray, KindArray, v)
	case Set:
		return appendElements(dst, TypeSet, KindSet, v)
	case Map:
		return appendMap(dst, v)
	case nil:
		return dst, fmt.Errorf("%w: nil frame", ErrInvalidFrame)
	}
	return dst, fmt.Errorf("%w: unsupported frame %T", ErrInvalidFrame, f)
}

func appendLine(dst []byte, prefix byte, s string) []byte {
	dst = append(dst, prefix)
	dst = append(dst, s...)
	return append(dst, crlf...)
}

func appendHeader(dst []byte, prefix byte, n int) []byte {
	dst = append(dst, prefix)
	dst = strconv.AppendInt(dst, int64(n), 10)
	return append(dst, crlf...)
}

func appendBulk(dst []byte, b []byte) []byte {
	dst = appendHeader(dst, TypeBlob, len(b))
	dst = append(dst, b...)
	return append(dst, crlf...)
}

// appendDouble writes inf, -inf and nan in lower case and every finite
// value in the shortest form that parses back to the same bits.
func appendDouble(dst []byte, f float64) []byte {
	switch {
	case math.IsInf(f, 1):
		return append(dst, "inf"...)
	case math.IsInf(f, -1):
		return append(dst, "-inf"...)
	case math.IsNaN(f):
		return append(dst, "nan"...)
	}
	return strconv.AppendFloat(dst, f, 'g', -1, 64)
}

func appendElements(dst []byte, prefix byte, kind Kind, elems []Frame) ([]byte, error) {
	dst = appendHeader(dst, prefix, len(elems))
	for i, e := range elems {
		if e == nil {
			return dst, fmt.Errorf("%w: nil element %d in %s", ErrInvalidFrame, i, kind)
		}
		var err error
		if dst, err = appendFrame(dst, e); err != nil {
			return dst, err
		}
	}
	return dst, nil
}

// appendMap writes keys as bulk strings in ascending order.
func appendMap(dst []byte, m Map) ([]byte, error) {
	keys := m.Keys()
	dst = appendHeader(dst, TypeMap, len(keys))
	for _, k := range keys {
		if !utf8.ValidString(k) {
			return dst, fmt.Errorf("%w: map key %q is not valid utf-8", ErrInvalidFrame, k)
		}
		dst = appendBulk(dst, []byte(k))
		var err error
		if dst, err = appendFrame(dst, m.entries[k]); err != nil {
			return dst, err
		}
	}
	return dst, nil
}
