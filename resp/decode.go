package resp

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"strconv"
	"unicode/utf8"
)

// DefaultMaxDepth bounds container nesting when Decoder.MaxDepth is zero.
const DefaultMaxDepth = 1024

var minusOne = []byte("-1")

// Decoder parses frames out of complete buffers. The zero value has no
// length or element limits and nests at most DefaultMaxDepth containers.
// A Decoder is read-only during Decode and may be shared.
type Decoder struct {
	// MaxBulkLength caps a bulk string's declared length; 0 means no cap.
	MaxBulkLength int64
	// MaxElements caps an array, set or map's declared count; 0 means no cap.
	MaxElements int64
	// MaxDepth caps container nesting; 0 means DefaultMaxDepth.
	MaxDepth int
}

// Decode parses the frame at the start of buf and reports how many
// bytes it occupied. Bytes after the frame are left alone.
func Decode(buf []byte) (Frame, int, error) {
	var d Decoder
	return d.Decode(buf)
}

// DecodeAll parses consecutive frames until buf is exhausted. On failure
// it returns the frames decoded before the bad one together with the
// error, whose offset is relative to the start of buf.
func DecodeAll(buf []byte) ([]Frame, error) {
	var d Decoder
	return d.DecodeAll(buf)
}

func (d *Decoder) Decode(buf []byte) (Frame, int, error) {
	p := parser{buf: buf, limits: *d}
	if p.limits.MaxDepth <= 0 {
		p.limits.MaxDepth = DefaultMaxDepth
	}
	f, err := p.frame(0)
	if err != nil {
		return nil, 0, err
	}
	return f, p.pos, nil
}

func (d *Decoder) DecodeAll(buf []byte) ([]Frame, error) {
	var frames []Frame
	for off := 0; off < len(buf); {
		f, n, err := d.Decode(buf[off:])
		if err != nil {
			var pe *ParseError
			if errors.As(err, &pe) {
				pe.Offset += off
			}
			return frames, err
		}
		frames = append(frames, f)
		off += n
	}
	return frames, nil
}

type parser struct {
	buf    []byte
	pos    int
	limits Decoder
}

func (p *parser) frame(depth int) (Frame, error) {
	if p.pos >= len(p.buf) {
		return nil, incomplete(p.pos, "type byte")
	}
	start := p.pos
	prefix := p.buf[p.pos]
	p.pos++

	switch prefix {
	case TypeSimple:
		s, err := p.text()
		if err != nil {
			return nil, err
		}
		return SimpleString(s), nil
	case TypeError:
		s, err := p.text()
		if err != nil {
			return nil, err
		}
		return Error(s), nil
	case TypeInteger:
		n, err := p.integer()
		if err != nil {
			return nil, err
		}
		return Integer(n), nil
	case TypeBlob:
		return p.bulk()
	case TypeNull:
		line, at, err := p.line()
		if err != nil {
			return nil, err
		}
		if len(line) != 0 {
			return nil, parseErr(ErrMalformed, at, "empty null payload", quote(line))
		}
		return Null{}, nil
	case TypeBoolean:
		line, at, err := p.line()
		if err != nil {
			return nil, err
		}
		switch string(line) {
		case "t":
			return Boolean(true), nil
		case "f":
			return Boolean(false), nil
		}
		return nil, parseErr(ErrMalformed, at, `"t" or "f"`, quote(line))
	case TypeDouble:
		return p.double()
	case TypeArray, TypeSet, TypeMap:
		if depth >= p.limits.MaxDepth {
			return nil, parseErr(ErrLimitExceeded, start, fmt.Sprintf("nesting depth <= %d", p.limits.MaxDepth), "deeper container")
		}
		switch prefix {
		case TypeArray:
			return p.array(depth)
		case TypeSet:
			return p.set(depth)
		}
		return p.mapFrame(depth)
	}
	return nil, parseErr(ErrUnknownType, start, "type byte", fmt.Sprintf("%q", prefix))
}

// line consumes up to and including the next CRLF and returns the bytes
// before it along with their offset.
func (p *parser) line() ([]byte, int, error) {
	start := p.pos
	i := bytes.Index(p.buf[start:], crlf)
	if i < 0 {
		return nil, start, incomplete(len(p.buf), "CRLF")
	}
	p.pos = start + i + len(crlf)
	return p.buf[start : start+i], start, nil
}

func (p *parser) text() (string, error) {
	line, at, err := p.line()
	if err != nil {
		return "", err
	}
	if j := bytes.IndexAny(line, "\r\n"); j >= 0 {
		return "", parseErr(ErrMalformed, at+j, "text without CR or LF", quote(line[j:j+1]))
	}
	if !utf8.Valid(line) {
		return "", parseErr(ErrInvalidUTF8, at, "utf-8 text", quote(line))
	}
	return string(line), nil
}

func (p *parser) integer() (int64, error) {
	line, at, err := p.line()
	if err != nil {
		return 0, err
	}
	n, err := strconv.ParseInt(string(line), 10, 64)
	if err != nil {
		return 0, parseErr(ErrInvalidNumber, at, "64-bit decimal integer", quote(line))
	}
	return n, nil
}

// length reads a length or count header. When nullable, the literal -1
// is reported through null instead of failing.
func (p *parser) length(nullable bool) (n int64, null bool, err error) {
	line, at, err := p.line()
	if err != nil {
		return 0, false, err
	}
	if nullable && bytes.Equal(line, minusOne) {
		return 0, true, nil
	}
	n, err = strconv.ParseInt(string(line), 10, 64)
	if err != nil || n < 0 {
		return 0, false, parseErr(ErrInvalidNumber, at, "non-negative length", quote(line))
	}
	return n, false, nil
}

func (p *parser) count(nullable bool) (n int64, null bool, err error) {
	at := p.pos
	n, null, err = p.length(nullable)
	if err != nil || null {
		return n, null, err
	}
	if p.limits.MaxElements > 0 && n > p.limits.MaxElements {
		return 0, false, parseErr(ErrLimitExceeded, at,
			fmt.Sprintf("at most %d elements", p.limits.MaxElements), strconv.FormatInt(n, 10))
	}
	return n, false, nil
}

// capHint bounds a container's preallocation by what the rest of the
// buffer could hold at minSize bytes per element.
func (p *parser) capHint(n int64, minSize int) int {
	fit := int64((len(p.buf) - p.pos) / minSize)
	if n < fit {
		return int(n)
	}
	return int(fit)
}

func (p *parser) bulk() (Frame, error) {
	at := p.pos
	n, null, err := p.length(true)
	if err != nil {
		return nil, err
	}
	if null {
		return NullBulkString{}, nil
	}
	if p.limits.MaxBulkLength > 0 && n > p.limits.MaxBulkLength {
		return nil, parseErr(ErrLimitExceeded, at,
			fmt.Sprintf("at most %d bytes", p.limits.MaxBulkLength), strconv.FormatInt(n, 10))
	}

	start := p.pos
	if n > int64(len(p.buf)-start) {
		return nil, incomplete(len(p.buf), fmt.Sprintf("%d bytes of bulk data", n))
	}
	end := start + int(n)
	tail := p.buf[end:]
	if len(tail) > len(crlf) {
		tail = tail[:len(crlf)]
	}
	if !bytes.HasPrefix(crlf, tail) {
		return nil, parseErr(ErrLengthMismatch, end, fmt.Sprintf("CRLF after %d bytes", n), quote(tail))
	}
	if len(tail) < len(crlf) {
		return nil, incomplete(len(p.buf), "CRLF")
	}

	body := make([]byte, n)
	copy(body, p.buf[start:end])
	p.pos = end + len(crlf)
	return BulkString(body), nil
}

func (p *parser) double() (Frame, error) {
	line, at, err := p.line()
	if err != nil {
		return nil, err
	}
	switch string(line) {
	case "inf":
		return Double(math.Inf(1)), nil
	case "-inf":
		return Double(math.Inf(-1)), nil
	case "nan":
		return Double(math.NaN()), nil
	}
	if !isDecimalFloat(line) {
		return nil, parseErr(ErrInvalidNumber, at, "decimal float", quote(line))
	}
	f, err := strconv.ParseFloat(string(line), 64)
	if err != nil {
		return nil, parseErr(ErrInvalidNumber, at, "decimal float", quote(line))
	}
	return Double(f), nil
}

// isDecimalFloat keeps ParseFloat from accepting hex, underscores and
// spelled out infinities.
func isDecimalFloat(b []byte) bool {
	if len(b) == 0 {
		return false
	}
	for _, c := range b {
		switch {
		case c >= '0' && c <= '9':
		case c == '.', c == 'e', c == 'E', c == '+', c == '-':
		default:
			return false
		}
	}
	return true
}

func (p *parser) elements(n int64, depth int) ([]Frame, error) {
	elems := make([]Frame, 0, p.capHint(n, 3))
	for i := int64(0); i < n; i++ {
		f, err := p.frame(depth + 1)
		if err != nil {
			return nil, err
		}
		elems = append(elems, f)
	}
	return elems, nil
}

func (p *parser) array(depth int) (Frame, error) {
	n, null, err := p.count(true)
	if err != nil {
		return nil, err
	}
	if null {
		return NullArray{}, nil
	}
	elems, err := p.elements(n, depth)
	if err != nil {
		return nil, err
	}
	return Array(elems), nil
}

func (p *parser) set(depth int) (Frame, error) {
	n, _, err := p.count(false)
	if err != nil {
		return nil, err
	}
	elems, err := p.elements(n, depth)
	if err != nil {
		return nil, err
	}
	return Set(elems), nil
}

// mapFrame accepts simple or bulk string keys. A repeated key keeps the
// last value.
func (p *parser) mapFrame(depth int) (Frame, error) {
	n, _, err := p.count(false)
	if err != nil {
		return nil, err
	}
	entries := make(map[string]Frame, p.capHint(n, 6))
	for i := int64(0); i < n; i++ {
		at := p.pos
		key, err := p.frame(depth + 1)
		if err != nil {
			return nil, err
		}
		var k string
		switch kv := key.(type) {
		case SimpleString:
			k = string(kv)
		case BulkString:
			if !utf8.Valid(kv) {
				return nil, parseErr(ErrInvalidUTF8, at, "utf-8 map key", quote(kv))
			}
			k = string(kv)
		default:
			return nil, parseErr(ErrMalformed, at, "text map key", key.Kind().String())
		}
		val, err := p.frame(depth + 1)
		if err != nil {
			return nil, err
		}
		entries[k] = val
	}
	return Map{entries: entries}, nil
}
