package resp

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies a decode failure. It implements error so callers
// can match with errors.Is(err, resp.ErrIncomplete).
type ErrorKind uint8

const (
	// ErrIncomplete: the buffer ends before a terminator or a declared
	// number of bytes. On a complete buffer this is final.
	ErrIncomplete ErrorKind = iota + 1
	ErrInvalidUTF8
	// ErrInvalidNumber: an integer, double, length or count is not
	// well formed or does not fit.
	ErrInvalidNumber
	ErrUnknownType
	// ErrLengthMismatch: a bulk body is not followed by CRLF at its
	// declared length.
	ErrLengthMismatch
	// ErrMalformed: the payload has the wrong shape for its type, e.g.
	// a boolean other than t/f or a map key that is not text.
	ErrMalformed
	// ErrLimitExceeded: a Decoder limit was hit.
	ErrLimitExceeded
)

func (k ErrorKind) Error() string {
	switch k {
	case ErrIncomplete:
		return "resp: incomplete frame"
	case ErrInvalidUTF8:
		return "resp: invalid utf-8"
	case ErrInvalidNumber:
		return "resp: invalid number"
	case ErrUnknownType:
		return "resp: unknown type"
	case ErrLengthMismatch:
		return "resp: length mismatch"
	case ErrMalformed:
		return "resp: malformed frame"
	case ErrLimitExceeded:
		return "resp: limit exceeded"
	}
	return fmt.Sprintf("resp: error kind %d", uint8(k))
}

// ParseError reports where and why Decode rejected its input.
type ParseError struct {
	Kind ErrorKind
	// Offset is the byte position in the decoded buffer where the
	// problem was detected.
	Offset   int
	Expected string
	Found    string
}

func (e *ParseError) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.Error())
	fmt.Fprintf(&b, " at offset %d", e.Offset)
	if e.Expected != "" {
		b.WriteString(": expected " + e.Expected)
		if e.Found != "" {
			b.WriteString(", found " + e.Found)
		}
	} else if e.Found != "" {
		b.WriteString(": found " + e.Found)
	}
	return b.String()
}

func (e *ParseError) Unwrap() error {
	return e.Kind
}

func parseErr(kind ErrorKind, offset int, expected, found string) *ParseError {
	return &ParseError{Kind: kind, Offset: offset, Expected: expected, Found: found}
}

func incomplete(offset int, expected string) *ParseError {
	return parseErr(ErrIncomplete, offset, expected, "end of buffer")
}

// ErrInvalidFrame is wrapped by every encode failure.
var ErrInvalidFrame = errors.New("resp: invalid frame")

// quote renders b for error messages, eliding long payloads.
func quote(b []byte) string {
	const max = 32
	if len(b) > max {
		return fmt.Sprintf("%q...", b[:max])
	}
	return fmt.Sprintf("%q", b)
}
