package catalog

import "strings"

/*
A catalog is a gettext PO file: an ordered list of messages plus the
metadata block stored in the msgstr of the leading `msgid ""` entry.
Only the msgstr of entries and the Language / Content-Type metadata are
ever rewritten; every other field passes through untouched.
*/

const (
	MetaLanguage    = "Language"
	MetaContentType = "Content-Type"

	ContentTypeUTF8 = "text/plain; charset=UTF-8"
)

// Entry is a single message of a catalog.
type Entry struct {
	// TranslatorComments are "# " lines.
	TranslatorComments []string
	// ExtractedComments are "#." lines.
	ExtractedComments []string
	// References are "#:" source locations (occurrences).
	References []string
	// Flags are "#," lines, e.g. fuzzy or c-format.
	Flags []string
	// Previous* hold the "#|" fields msgmerge keeps on fuzzy entries.
	PreviousMsgCtxt     string
	PreviousMsgID       string
	PreviousMsgIDPlural string

	MsgCtxt      string
	MsgID        string
	MsgIDPlural  string
	MsgStr       string
	MsgStrPlural map[int]string

	Obsolete bool
}

// Clone returns a deep copy of the entry.
func (e *Entry) Clone() *Entry {
	c := *e
	c.TranslatorComments = cloneStrings(e.TranslatorComments)
	c.ExtractedComments = cloneStrings(e.ExtractedComments)
	c.References = cloneStrings(e.References)
	c.Flags = cloneStrings(e.Flags)
	if e.MsgStrPlural != nil {
		c.MsgStrPlural = make(map[int]string, len(e.MsgStrPlural))
		for k, v := range e.MsgStrPlural {
			c.MsgStrPlural[k] = v
		}
	}
	return &c
}

// HasFlag checks if a specific flag is present.
func (e *Entry) HasFlag(flag string) bool {
	for _, f := range e.Flags {
		if f == flag {
			return true
		}
	}
	return false
}

// Field is one "Key: Value" line of the metadata block.
type Field struct {
	Key   string
	Value string
}

// Catalog is a parsed PO file.
type Catalog struct {
	// HeaderComments and HeaderFlags belong to the metadata entry.
	HeaderComments []string
	HeaderFlags    []string
	// Metadata keeps header fields in file order.
	Metadata []Field
	Entries  []*Entry
	// TrailingComments follow the last entry.
	TrailingComments []string

	// Encoding is the character set the source bytes were decoded with.
	Encoding string
}

// New creates a catalog for lang holding the given entries, with the
// minimal metadata a UTF-8 catalog needs.
func New(lang string, entries ...*Entry) *Catalog {
	c := &Catalog{Entries: entries, Encoding: EncodingUTF8}
	c.SetMeta(MetaLanguage, lang)
	c.SetMeta(MetaContentType, ContentTypeUTF8)
	return c
}

// Len returns the number of entries, not counting the metadata entry.
func (c *Catalog) Len() int {
	return len(c.Entries)
}

// Meta returns a metadata value by case-insensitive key.
func (c *Catalog) Meta(key string) (string, bool) {
	for _, f := range c.Metadata {
		if strings.EqualFold(f.Key, key) {
			return f.Value, true
		}
	}
	return "", false
}

// SetMeta replaces the value of key, appending the field when absent.
func (c *Catalog) SetMeta(key, value string) {
	for i, f := range c.Metadata {
		if strings.EqualFold(f.Key, key) {
			c.Metadata[i].Value = value
			return
		}
	}
	c.Metadata = append(c.Metadata, Field{Key: key, Value: value})
}

// Regenerate builds a new catalog for lang from src. Entry values are taken
// from values keyed by msgid; entries whose msgid is absent keep their
// msgstr. All other fields are copied as is. src is never modified.
func Regenerate(src *Catalog, values map[string]string, lang string) *Catalog {
	out := &Catalog{
		HeaderComments: cloneStrings(src.HeaderComments),
		HeaderFlags:    cloneStrings(src.HeaderFlags),
		Metadata:       append([]Field(nil), src.Metadata...),
		Entries:        make([]*Entry, 0, len(src.Entries)),
		Encoding:       EncodingUTF8,

		TrailingComments: cloneStrings(src.TrailingComments),
	}
	out.SetMeta(MetaLanguage, lang)
	out.SetMeta(MetaContentType, ContentTypeUTF8)

	for _, e := range src.Entries {
		ne := e.Clone()
		if v, ok := values[e.MsgID]; ok {
			ne.SetValue(v)
		}
		out.Entries = append(out.Entries, ne)
	}
	return out
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s...)
}

// Value returns the existing translation of the entry: msgstr, or the
// first plural form for plural entries.
func (e *Entry) Value() string {
	if e.MsgIDPlural != "" && len(e.MsgStrPlural) > 0 {
		return e.MsgStrPlural[0]
	}
	return e.MsgStr
}

// SetValue is the inverse of Value.
func (e *Entry) SetValue(v string) {
	if e.MsgIDPlural != "" && len(e.MsgStrPlural) > 0 {
		e.MsgStrPlural[0] = v
		return
	}
	e.MsgStr = v
}
