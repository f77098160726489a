package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/davecgh/go-spew/spew"
	"github.com/fzft/go-resp3/resp"
)

type OutputMode uint8

const (
	OutputStandard OutputMode = iota
	OutputRaw
	OutputJson
	OutputQuotedJson
	OutputWire
	OutputDump
)

var outputModeNames = []string{
	OutputStandard:   "standard",
	OutputRaw:        "raw",
	OutputJson:       "json",
	OutputQuotedJson: "quoted-json",
	OutputWire:       "wire",
	OutputDump:       "dump",
}

func (m OutputMode) String() string {
	if int(m) < len(outputModeNames) {
		return outputModeNames[m]
	}
	return "OutputMode(" + strconv.Itoa(int(m)) + ")"
}

// ParseOutputMode accepts the mode names, case-insensitively.
func ParseOutputMode(s string) (OutputMode, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range outputModeNames {
		if s == name {
			return OutputMode(i), nil
		}
	}
	if s == "quotedjson" || s == "quoted_json" {
		return OutputQuotedJson, nil
	}
	return OutputStandard, fmt.Errorf("unknown output mode %q (want one of %s)", s, strings.Join(outputModeNames, ", "))
}

var dumpConfig = spew.ConfigState{
	Indent:                  "  ",
	DisablePointerAddresses: true,
	DisableCapacities:       true,
	SortKeys:                true,
}

// formatter renders frames for one output mode. width bounds bulk
// strings in standard mode; zero or less means unbounded.
type formatter struct {
	mode  OutputMode
	width int
}

// Format returns the printable form of f including the trailing newline.
func (o formatter) Format(f resp.Frame) (string, error) {
	switch o.mode {
	case OutputStandard:
		var sb strings.Builder
		o.tty(&sb, f, "")
		return sb.String(), nil
	case OutputRaw:
		var sb strings.Builder
		formatRaw(&sb, f)
		sb.WriteByte('\n')
		return sb.String(), nil
	case OutputJson, OutputQuotedJson:
		var buf bytes.Buffer
		if err := formatJSON(&buf, f, o.mode == OutputQuotedJson); err != nil {
			return "", err
		}
		buf.WriteByte('\n')
		return buf.String(), nil
	case OutputWire:
		b, err := resp.Encode(f)
		if err != nil {
			return "", err
		}
		return repr(b) + "\n", nil
	case OutputDump:
		return dumpConfig.Sdump(f), nil
	}
	return "", fmt.Errorf("unknown output mode %s", o.mode)
}

// FormatWire renders encoded protocol bytes. Raw output writes them as
// is so they can be piped to a server; every other mode quotes them.
func (o formatter) FormatWire(b []byte) string {
	if o.mode == OutputRaw {
		return string(b)
	}
	return repr(b) + "\n"
}

// tty follows redis-cli's formatting for a terminal. Nested elements are
// indented under their index, and sets and maps mark indexes with ~ and #.
func (o formatter) tty(sb *strings.Builder, f resp.Frame, prefix string) {
	switch v := f.(type) {
	case resp.SimpleString:
		sb.WriteString(string(v))
	case resp.Error:
		sb.WriteString("(error) ")
		sb.WriteString(string(v))
	case resp.Integer:
		sb.WriteString("(integer) ")
		sb.WriteString(strconv.FormatInt(int64(v), 10))
	case resp.Double:
		sb.WriteString("(double) ")
		sb.WriteString(v.String())
	case resp.Boolean:
		if v {
			sb.WriteString("(true)")
		} else {
			sb.WriteString("(false)")
		}
	case resp.BulkString:
		sb.WriteString(o.elide(v))
	case resp.Null, resp.NullBulkString, resp.NullArray:
		sb.WriteString("(nil)")
	case resp.Array:
		o.ttyElements(sb, []resp.Frame(v), ')', "(empty array)", prefix)
		return
	case resp.Set:
		o.ttyElements(sb, []resp.Frame(v), '~', "(empty set)", prefix)
		return
	case resp.Map:
		o.ttyMap(sb, v, prefix)
		return
	}
	sb.WriteByte('\n')
}

func (o formatter) ttyElements(sb *strings.Builder, elems []resp.Frame, marker byte, empty, prefix string) {
	if len(elems) == 0 {
		sb.WriteString(empty)
		sb.WriteByte('\n')
		return
	}
	idxlen := len(strconv.Itoa(len(elems)))
	child := prefix + strings.Repeat(" ", idxlen+2)
	for i, e := range elems {
		if i > 0 {
			sb.WriteString(prefix)
		}
		fmt.Fprintf(sb, "%*d%c ", idxlen, i+1, marker)
		o.tty(sb, e, child)
	}
}

func (o formatter) ttyMap(sb *strings.Builder, m resp.Map, prefix string) {
	if m.Len() == 0 {
		sb.WriteString("(empty hash)\n")
		return
	}
	idxlen := len(strconv.Itoa(m.Len()))
	child := prefix + strings.Repeat(" ", idxlen+2)
	for i, p := range m.Pairs() {
		if i > 0 {
			sb.WriteString(prefix)
		}
		fmt.Fprintf(sb, "%*d# %s => ", idxlen, i+1, repr([]byte(p.Key)))
		o.tty(sb, p.Value, child)
	}
}

func (o formatter) elide(b []byte) string {
	if o.width <= 0 || len(b) <= o.width {
		return repr(b)
	}
	q := repr(b[:o.width])
	return q[:len(q)-1] + `..." (` + strconv.Itoa(len(b)) + " bytes)"
}

// formatRaw prints values without decoration, one element per line.
func formatRaw(sb *strings.Builder, f resp.Frame) {
	switch v := f.(type) {
	case resp.SimpleString:
		sb.WriteString(string(v))
	case resp.Error:
		sb.WriteString(string(v))
	case resp.Integer:
		sb.WriteString(strconv.FormatInt(int64(v), 10))
	case resp.Double:
		sb.WriteString(v.String())
	case resp.Boolean:
		if v {
			sb.WriteString("(true)")
		} else {
			sb.WriteString("(false)")
		}
	case resp.BulkString:
		sb.Write(v)
	case resp.Array:
		rawElements(sb, v)
	case resp.Set:
		rawElements(sb, v)
	case resp.Map:
		for i, p := range v.Pairs() {
			if i > 0 {
				sb.WriteByte('\n')
			}
			sb.WriteString(p.Key)
			sb.WriteByte('\n')
			formatRaw(sb, p.Value)
		}
	}
}

func rawElements(sb *strings.Builder, elems []resp.Frame) {
	for i, e := range elems {
		if i > 0 {
			sb.WriteByte('\n')
		}
		formatRaw(sb, e)
	}
}

func formatJSON(buf *bytes.Buffer, f resp.Frame, quoted bool) error {
	switch v := f.(type) {
	case resp.SimpleString:
		return jsonString(buf, string(v), quoted)
	case resp.Error:
		return jsonString(buf, "(error) "+string(v), quoted)
	case resp.BulkString:
		return jsonString(buf, string(v), quoted)
	case resp.Integer:
		buf.WriteString(strconv.FormatInt(int64(v), 10))
	case resp.Double:
		s := v.String()
		if s == "inf" || s == "-inf" || s == "nan" {
			return jsonString(buf, s, quoted)
		}
		buf.WriteString(s)
	case resp.Boolean:
		buf.WriteString(strconv.FormatBool(bool(v)))
	case resp.Null, resp.NullBulkString, resp.NullArray:
		buf.WriteString("null")
	case resp.Array:
		return jsonElements(buf, v, quoted)
	case resp.Set:
		return jsonElements(buf, v, quoted)
	case resp.Map:
		buf.WriteByte('{')
		for i, p := range v.Pairs() {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := jsonString(buf, p.Key, quoted); err != nil {
				return err
			}
			buf.WriteByte(':')
			if err := formatJSON(buf, p.Value, quoted); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	default:
		return fmt.Errorf("cannot format %T as json", f)
	}
	return nil
}

func jsonElements(buf *bytes.Buffer, elems []resp.Frame, quoted bool) error {
	buf.WriteByte('[')
	for i, e := range elems {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := formatJSON(buf, e, quoted); err != nil {
			return err
		}
	}
	buf.WriteByte(']')
	return nil
}

// jsonString writes s as a JSON string. Quoted output escapes every
// non-ASCII rune so the result is plain ASCII.
func jsonString(buf *bytes.Buffer, s string, quoted bool) error {
	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return err
	}
	out := bytes.TrimSuffix(tmp.Bytes(), []byte("\n"))
	if !quoted {
		buf.Write(out)
		return nil
	}
	for len(out) > 0 {
		r, size := utf8.DecodeRune(out)
		if r < utf8.RuneSelf {
			buf.WriteByte(out[0])
		} else if r1, r2 := utf16.EncodeRune(r); r1 != utf8.RuneError {
			fmt.Fprintf(buf, `\u%04x\u%04x`, r1, r2)
		} else {
			fmt.Fprintf(buf, `\u%04x`, r)
		}
		out = out[size:]
	}
	return nil
}
