package catalog

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

const (
	EncodingUTF8        = "utf-8"
	EncodingLatin1      = "iso-8859-1"
	EncodingWindows1252 = "windows-1252"
)

var errInvalidUTF8 = errors.New("invalid utf-8 byte sequence")

// FormatError reports bytes that could not be decoded or parsed as a catalog.
type FormatError struct {
	Err error
}

func (e *FormatError) Error() string {
	return "invalid catalog: " + e.Err.Error()
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

type decoder struct {
	name   string
	decode func([]byte) (string, error)
}

// decoders are tried in order; the first one that both decodes and parses wins.
var decoders = []decoder{
	{name: EncodingUTF8, decode: decodeUTF8},
	{name: EncodingLatin1, decode: decodeWith(charmap.ISO8859_1)},
	{name: EncodingWindows1252, decode: decodeWith(charmap.Windows1252)},
}

func decodeUTF8(b []byte) (string, error) {
	b = bytes.TrimPrefix(b, []byte("\xef\xbb\xbf"))
	if !utf8.Valid(b) {
		return "", errInvalidUTF8
	}
	return string(b), nil
}

func decodeWith(enc encoding.Encoding) func([]byte) (string, error) {
	return func(b []byte) (string, error) {
		out, err := enc.NewDecoder().Bytes(b)
		if err != nil {
			return "", err
		}
		return string(out), nil
	}
}

// Parse decodes b and parses it as a PO catalog.
func Parse(b []byte) (*Catalog, error) {
	var lastErr error
	for _, d := range decoders {
		text, err := d.decode(b)
		if err != nil {
			lastErr = fmt.Errorf("%s: %w", d.name, err)
			continue
		}
		c, err := ParseString(text)
		if err != nil {
			lastErr = fmt.Errorf("%s: %w", d.name, err)
			continue
		}
		c.Encoding = d.name
		return c, nil
	}
	return nil, &FormatError{Err: lastErr}
}

type parser struct {
	c       *Catalog
	current *Entry
	// field the next continuation line appends to
	lastField string
	// same for "#|" continuation lines
	prevField string
	pluralIdx int
	// comments of a block that had no keyword yet, carried to the next entry
	pending *Entry

	hasMsgID   bool
	hasMsgStr  bool
	hasHeader  bool
	startLine  int
	hasContent bool
}

// ParseString parses already decoded catalog text.
func ParseString(text string) (*Catalog, error) {
	p := &parser{c: &Catalog{Encoding: EncodingUTF8}}

	scanner := bufio.NewScanner(strings.NewReader(text))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		if err := p.line(lineNum, strings.TrimRight(scanner.Text(), "\r")); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading catalog: %w", err)
	}
	if err := p.flush(); err != nil {
		return nil, fmt.Errorf("line %d: %w", p.startLine, err)
	}
	if p.pending != nil {
		p.c.TrailingComments = p.pending.TranslatorComments
	}
	return p.c, nil
}

func (p *parser) entry(lineNum int) *Entry {
	if p.current == nil {
		p.current = p.pending
		p.pending = nil
		if p.current == nil {
			p.current = &Entry{}
		}
		p.startLine = lineNum
	}
	return p.current
}

func (p *parser) line(lineNum int, line string) error {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return p.flush()
	}

	obsolete := false
	if strings.HasPrefix(line, "#~") {
		obsolete = true
		line = strings.TrimPrefix(strings.TrimPrefix(line, "#~"), " ")
		trimmed = strings.TrimSpace(line)
		if trimmed == "" {
			return nil
		}
		// "#~|" is the previous msgid of an obsolete fuzzy entry
		if strings.HasPrefix(line, "|") {
			line = "#" + line
		}
	}

	// a comment or a new keyword after msgstr starts the next entry
	if p.hasMsgStr && (strings.HasPrefix(line, "#") || strings.HasPrefix(line, "msgctxt") ||
		(strings.HasPrefix(line, "msgid") && !strings.HasPrefix(line, "msgid_plural"))) {
		if err := p.flush(); err != nil {
			return err
		}
	}

	e := p.entry(lineNum)
	if obsolete {
		e.Obsolete = true
	}

	if strings.HasPrefix(line, "#") {
		p.comment(e, line)
		return nil
	}

	p.hasContent = true
	keyword, rest, _ := strings.Cut(trimmed, " ")

	switch {
	case strings.HasPrefix(trimmed, `"`):
		if p.lastField == "" {
			return errors.New("continuation string without a field")
		}
		v, err := unquote(trimmed)
		if err != nil {
			return err
		}
		p.appendValue(e, v)
		return nil
	case keyword == "msgctxt":
		v, err := unquote(rest)
		if err != nil {
			return err
		}
		e.MsgCtxt = v
	case keyword == "msgid":
		if p.hasMsgID {
			return errors.New("duplicate msgid in entry")
		}
		v, err := unquote(rest)
		if err != nil {
			return err
		}
		e.MsgID = v
		p.hasMsgID = true
	case keyword == "msgid_plural":
		v, err := unquote(rest)
		if err != nil {
			return err
		}
		e.MsgIDPlural = v
	case keyword == "msgstr":
		if !p.hasMsgID {
			return errors.New("msgstr without msgid")
		}
		v, err := unquote(rest)
		if err != nil {
			return err
		}
		e.MsgStr = v
		p.hasMsgStr = true
	case strings.HasPrefix(keyword, "msgstr[") && strings.HasSuffix(keyword, "]"):
		if !p.hasMsgID {
			return errors.New("msgstr without msgid")
		}
		idx, err := strconv.Atoi(keyword[len("msgstr[") : len(keyword)-1])
		if err != nil || idx < 0 {
			return fmt.Errorf("invalid plural index %q", keyword)
		}
		v, err := unquote(rest)
		if err != nil {
			return err
		}
		if e.MsgStrPlural == nil {
			e.MsgStrPlural = make(map[int]string)
		}
		e.MsgStrPlural[idx] = v
		p.pluralIdx = idx
		p.hasMsgStr = true
	default:
		return fmt.Errorf("unexpected line %q", truncate(trimmed, 40))
	}
	p.lastField = keyword
	return nil
}

func (p *parser) comment(e *Entry, line string) {
	switch {
	case strings.HasPrefix(line, "#:"):
		if ref := strings.TrimSpace(line[2:]); ref != "" {
			e.References = append(e.References, ref)
		}
	case strings.HasPrefix(line, "#,"):
		for _, flag := range strings.Split(line[2:], ",") {
			if flag = strings.TrimSpace(flag); flag != "" {
				e.Flags = append(e.Flags, flag)
			}
		}
	case strings.HasPrefix(line, "#."):
		e.ExtractedComments = append(e.ExtractedComments, strings.TrimSpace(line[2:]))
	case strings.HasPrefix(line, "#|"):
		p.previous(e, strings.TrimSpace(line[2:]))
	default:
		comment := line[1:]
		comment = strings.TrimPrefix(comment, " ")
		e.TranslatorComments = append(e.TranslatorComments, comment)
	}
}

// previous reads one "#|" line. Lines it cannot read are dropped, as
// comments never fail a parse.
func (p *parser) previous(e *Entry, rest string) {
	if strings.HasPrefix(rest, `"`) {
		v, err := unquote(rest)
		if err != nil {
			return
		}
		switch p.prevField {
		case "msgctxt":
			e.PreviousMsgCtxt += v
		case "msgid":
			e.PreviousMsgID += v
		case "msgid_plural":
			e.PreviousMsgIDPlural += v
		}
		return
	}

	keyword, value, _ := strings.Cut(rest, " ")
	v, err := unquote(value)
	if err != nil {
		return
	}
	switch keyword {
	case "msgctxt":
		e.PreviousMsgCtxt = v
	case "msgid":
		e.PreviousMsgID = v
	case "msgid_plural":
		e.PreviousMsgIDPlural = v
	default:
		return
	}
	p.prevField = keyword
}

func (p *parser) appendValue(e *Entry, v string) {
	switch {
	case p.lastField == "msgctxt":
		e.MsgCtxt += v
	case p.lastField == "msgid":
		e.MsgID += v
	case p.lastField == "msgid_plural":
		e.MsgIDPlural += v
	case p.lastField == "msgstr":
		e.MsgStr += v
	case strings.HasPrefix(p.lastField, "msgstr["):
		e.MsgStrPlural[p.pluralIdx] += v
	}
}

func (p *parser) flush() error {
	e := p.current
	defer func() {
		p.current = nil
		p.lastField = ""
		p.prevField = ""
		p.hasMsgID = false
		p.hasMsgStr = false
		p.hasContent = false
	}()
	if e == nil {
		return nil
	}
	if !p.hasContent {
		// comment-only block such as a copyright note; it belongs to
		// whatever follows
		p.pending = e
		return nil
	}
	if !p.hasMsgID {
		return errors.New("entry without msgid")
	}
	if !p.hasMsgStr {
		return fmt.Errorf("entry %q without msgstr", truncate(e.MsgID, 40))
	}

	if !p.hasHeader && len(p.c.Entries) == 0 && e.MsgID == "" && e.MsgCtxt == "" && !e.Obsolete {
		p.hasHeader = true
		p.c.HeaderComments = e.TranslatorComments
		p.c.HeaderFlags = e.Flags
		p.c.Metadata = parseMetadata(e.MsgStr)
		return nil
	}
	p.c.Entries = append(p.c.Entries, e)
	return nil
}

func parseMetadata(s string) []Field {
	var fields []Field
	for _, line := range strings.Split(s, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		key, value, ok := strings.Cut(line, ":")
		if !ok || strings.TrimSpace(key) == "" {
			if len(fields) > 0 {
				fields[len(fields)-1].Value += "\n" + line
			}
			continue
		}
		fields = append(fields, Field{
			Key:   strings.TrimSpace(key),
			Value: strings.TrimSpace(value),
		})
	}
	return fields
}

// unquote removes PO-style quoting from a string.
func unquote(s string) (string, error) {
	s = strings.TrimSpace(s)
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return "", fmt.Errorf("expected quoted string, got %q", truncate(s, 40))
	}
	s = s[1 : len(s)-1]

	var result strings.Builder
	result.Grow(len(s))

	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '"' {
			return "", errors.New("unescaped quote inside string")
		}
		if c != '\\' {
			result.WriteByte(c)
			continue
		}
		if i+1 >= len(s) {
			return "", errors.New("unterminated string")
		}
		i++
		switch s[i] {
		case 'n':
			result.WriteByte('\n')
		case 't':
			result.WriteByte('\t')
		case 'r':
			result.WriteByte('\r')
		case 'a':
			result.WriteByte('\a')
		case 'b':
			result.WriteByte('\b')
		case 'f':
			result.WriteByte('\f')
		case 'v':
			result.WriteByte('\v')
		case '\\':
			result.WriteByte('\\')
		case '"':
			result.WriteByte('"')
		case 'x':
			j := i + 1
			for j < len(s) && j < i+3 && isHex(s[j]) {
				j++
			}
			if j == i+1 {
				result.WriteString(`\x`)
				continue
			}
			n, _ := strconv.ParseUint(s[i+1:j], 16, 8)
			result.WriteByte(byte(n))
			i = j - 1
		case '0', '1', '2', '3', '4', '5', '6', '7':
			j := i
			for j < len(s) && j < i+3 && s[j] >= '0' && s[j] <= '7' {
				j++
			}
			n, _ := strconv.ParseUint(s[i:j], 8, 16)
			result.WriteByte(byte(n))
			i = j - 1
		default:
			result.WriteByte('\\')
			result.WriteByte(s[i])
		}
	}
	return result.String(), nil
}

func isHex(c byte) bool {
	return ('0' <= c && c <= '9') || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F')
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
