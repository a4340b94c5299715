package catalog

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"sort"
	"strings"
)

// Render serializes c as UTF-8 PO text. The metadata entry is always
// written first so an entry with an empty msgid is never mistaken for it.
func Render(c *Catalog) []byte {
	var buf bytes.Buffer
	// bytes.Buffer writes do not fail
	_ = Write(&buf, c)
	return buf.Bytes()
}

// Write writes c to w in PO format.
func Write(w io.Writer, c *Catalog) error {
	bw := bufio.NewWriter(w)

	header := &Entry{
		TranslatorComments: c.HeaderComments,
		Flags:              c.HeaderFlags,
		MsgStr:             renderMetadata(c.Metadata),
	}
	writeEntry(bw, header)

	for _, e := range c.Entries {
		fmt.Fprintln(bw)
		writeEntry(bw, e)
	}

	if len(c.TrailingComments) > 0 {
		fmt.Fprintln(bw)
		writeComments(bw, c.TrailingComments)
	}

	return bw.Flush()
}

func renderMetadata(fields []Field) string {
	var sb strings.Builder
	for _, f := range fields {
		sb.WriteString(f.Key)
		sb.WriteString(": ")
		sb.WriteString(f.Value)
		sb.WriteByte('\n')
	}
	return sb.String()
}

func writeEntry(w *bufio.Writer, e *Entry) {
	prefix, prevPrefix := "", "#| "
	if e.Obsolete {
		prefix, prevPrefix = "#~ ", "#~| "
	}

	writeComments(w, e.TranslatorComments)
	for _, c := range e.ExtractedComments {
		fmt.Fprintf(w, "#. %s\n", c)
	}
	for _, ref := range e.References {
		fmt.Fprintf(w, "#: %s\n", ref)
	}
	if len(e.Flags) > 0 {
		fmt.Fprintf(w, "#, %s\n", strings.Join(e.Flags, ", "))
	}
	if e.PreviousMsgCtxt != "" {
		writeQuotedField(w, prevPrefix, "msgctxt", e.PreviousMsgCtxt)
	}
	if e.PreviousMsgID != "" || e.PreviousMsgIDPlural != "" {
		writeQuotedField(w, prevPrefix, "msgid", e.PreviousMsgID)
	}
	if e.PreviousMsgIDPlural != "" {
		writeQuotedField(w, prevPrefix, "msgid_plural", e.PreviousMsgIDPlural)
	}

	if e.MsgCtxt != "" {
		writeQuotedField(w, prefix, "msgctxt", e.MsgCtxt)
	}
	writeQuotedField(w, prefix, "msgid", e.MsgID)
	if e.MsgIDPlural != "" {
		writeQuotedField(w, prefix, "msgid_plural", e.MsgIDPlural)
	}

	if len(e.MsgStrPlural) > 0 {
		indices := make([]int, 0, len(e.MsgStrPlural))
		for idx := range e.MsgStrPlural {
			indices = append(indices, idx)
		}
		sort.Ints(indices)
		for _, idx := range indices {
			writeQuotedField(w, prefix, fmt.Sprintf("msgstr[%d]", idx), e.MsgStrPlural[idx])
		}
		return
	}
	writeQuotedField(w, prefix, "msgstr", e.MsgStr)
}

func writeComments(w *bufio.Writer, comments []string) {
	for _, c := range comments {
		if c == "" {
			fmt.Fprintln(w, "#")
			continue
		}
		fmt.Fprintf(w, "# %s\n", c)
	}
}

// writeQuotedField writes a field, splitting multi-line values after each
// newline with an empty first string as gettext tools do.
func writeQuotedField(w *bufio.Writer, prefix, field, value string) {
	if !strings.Contains(strings.TrimSuffix(value, "\n"), "\n") {
		fmt.Fprintf(w, "%s%s %s\n", prefix, field, quote(value))
		return
	}

	fmt.Fprintf(w, "%s%s \"\"\n", prefix, field)
	parts := strings.SplitAfter(value, "\n")
	for _, part := range parts {
		if part == "" {
			continue
		}
		fmt.Fprintf(w, "%s%s\n", prefix, quote(part))
	}
}

// quote produces a PO-style quoted string.
func quote(s string) string {
	var sb strings.Builder
	sb.Grow(len(s) + 2)
	sb.WriteByte('"')
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '\\':
			sb.WriteString(`\\`)
		case '"':
			sb.WriteString(`\"`)
		case '\n':
			sb.WriteString(`\n`)
		case '\t':
			sb.WriteString(`\t`)
		case '\r':
			sb.WriteString(`\r`)
		default:
			sb.WriteByte(c)
		}
	}
	sb.WriteByte('"')
	return sb.String()
}
