package catalog

import (
	"errors"
	"strings"
	"testing"

	"github.com/leonelquinteros/gotext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `# Croatian translation for demo.
# Copyright (C) 2024
#, fuzzy
msgid ""
msgstr ""
"Project-Id-Version: demo 1.0\n"
"Language: en\n"
"Content-Type: text/plain; charset=ISO-8859-1\n"
"Plural-Forms: nplurals=2; plural=(n != 1);\n"

#. shown on the landing page
#: app/home.go:12 app/home.go:40
msgid "Hello"
msgstr ""

# reviewed
#: app/menu.go:3
#, c-format
msgctxt "menu"
msgid "Open %s"
msgstr "Otvori %s"

msgid ""
"first line\n"
"second line"
msgstr ""

msgid "file"
msgid_plural "files"
msgstr[0] ""
msgstr[1] ""

#~ msgid "Gone"
#~ msgstr "Nestalo"
`

func TestParse(t *testing.T) {
	c, err := Parse([]byte(sample))
	require.NoError(t, err)

	assert.Equal(t, EncodingUTF8, c.Encoding)
	assert.Equal(t, []string{"Croatian translation for demo.", "Copyright (C) 2024"}, c.HeaderComments)
	assert.Equal(t, []string{"fuzzy"}, c.HeaderFlags)

	lang, ok := c.Meta("language")
	assert.True(t, ok)
	assert.Equal(t, "en", lang)
	assert.Len(t, c.Metadata, 4)
	assert.Equal(t, "Project-Id-Version", c.Metadata[0].Key)

	require.Equal(t, 5, c.Len())

	hello := c.Entries[0]
	assert.Equal(t, "Hello", hello.MsgID)
	assert.Equal(t, "", hello.MsgStr)
	assert.Equal(t, []string{"shown on the landing page"}, hello.ExtractedComments)
	assert.Equal(t, []string{"app/home.go:12 app/home.go:40"}, hello.References)

	open := c.Entries[1]
	assert.Equal(t, "menu", open.MsgCtxt)
	assert.Equal(t, "Otvori %s", open.MsgStr)
	assert.Equal(t, []string{"reviewed"}, open.TranslatorComments)
	assert.True(t, open.HasFlag("c-format"))

	assert.Equal(t, "first line\nsecond line", c.Entries[2].MsgID)

	plural := c.Entries[3]
	assert.Equal(t, "files", plural.MsgIDPlural)
	assert.Equal(t, map[int]string{0: "", 1: ""}, plural.MsgStrPlural)

	assert.True(t, c.Entries[4].Obsolete)
	assert.Equal(t, "Nestalo", c.Entries[4].MsgStr)
}

func TestParseEntriesWithoutBlankLines(t *testing.T) {
	input := "msgid \"a\"\nmsgstr \"\"\n#: x.go:1\nmsgid \"b\"\nmsgstr \"bb\"\nmsgid \"c\"\nmsgstr \"\"\n"

	c, err := Parse([]byte(input))
	require.NoError(t, err)
	require.Equal(t, 3, c.Len())
	assert.Equal(t, []string{"x.go:1"}, c.Entries[1].References)
	assert.Equal(t, "bb", c.Entries[1].MsgStr)
}

func TestParseEncodingFallback(t *testing.T) {
	t.Run("utf-8 with bom", func(t *testing.T) {
		c, err := Parse([]byte("\xef\xbb\xbfmsgid \"caf\xc3\xa9\"\nmsgstr \"\"\n"))
		require.NoError(t, err)
		assert.Equal(t, EncodingUTF8, c.Encoding)
		assert.Equal(t, "café", c.Entries[0].MsgID)
	})

	t.Run("latin-1", func(t *testing.T) {
		c, err := Parse([]byte("msgid \"caf\xe9\"\nmsgstr \"\"\n"))
		require.NoError(t, err)
		assert.Equal(t, EncodingLatin1, c.Encoding)
		assert.Equal(t, "café", c.Entries[0].MsgID)
	})
}

func TestParseMalformed(t *testing.T) {
	cases := map[string]string{
		"unknown keyword":       "msgid \"a\"\nmsgfoo \"b\"\n",
		"unterminated string":   "msgid \"a\nmsgstr \"\"\n",
		"dangling continuation": "\"orphan\"\n",
		"msgstr without msgid":  "msgstr \"x\"\n",
		"missing msgstr":        "msgid \"a\"\n\nmsgid \"b\"\nmsgstr \"\"\n",
		"bad plural index":      "msgid \"a\"\nmsgid_plural \"as\"\nmsgstr[x] \"\"\n",
		"unescaped quote":       "msgid \"a\"b\"\nmsgstr \"\"\n",
		"not a catalog":         "<html><body>nope</body></html>\n",
	}

	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(input))
			require.Error(t, err)
			var fe *FormatError
			assert.True(t, errors.As(err, &fe), "expected FormatError, got %T", err)
		})
	}
}

func TestParseEmpty(t *testing.T) {
	c, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, 0, c.Len())
}

func TestRenderRoundTrip(t *testing.T) {
	c, err := Parse([]byte(sample))
	require.NoError(t, err)

	once := Render(c)
	again, err := Parse(once)
	require.NoError(t, err)
	twice := Render(again)

	assert.Equal(t, string(once), string(twice))
	require.Equal(t, c.Len(), again.Len())
	for i := range c.Entries {
		assert.Equal(t, c.Entries[i].MsgID, again.Entries[i].MsgID)
		assert.Equal(t, c.Entries[i].MsgCtxt, again.Entries[i].MsgCtxt)
		assert.Equal(t, c.Entries[i].References, again.Entries[i].References)
		assert.Equal(t, c.Entries[i].Flags, again.Entries[i].Flags)
	}
}

func TestRenderKeepsEmptyKeyEntries(t *testing.T) {
	c := New("hr",
		&Entry{MsgID: "", MsgStr: ""},
		&Entry{MsgID: "Hello", MsgStr: "Pozdrav"},
	)

	parsed, err := Parse(Render(c))
	require.NoError(t, err)
	require.Equal(t, 2, parsed.Len())
	assert.Equal(t, "", parsed.Entries[0].MsgID)
	assert.Equal(t, "Pozdrav", parsed.Entries[1].MsgStr)
}

func TestRenderEscapes(t *testing.T) {
	c := New("de", &Entry{MsgID: "say \"hi\"\tnow\\", MsgStr: "line one\nline two\n"})
	out := string(Render(c))

	assert.Contains(t, out, `msgid "say \"hi\"\tnow\\"`)
	assert.Contains(t, out, "msgstr \"\"\n\"line one\\n\"\n\"line two\\n\"\n")

	parsed, err := Parse([]byte(out))
	require.NoError(t, err)
	assert.Equal(t, c.Entries[0].MsgID, parsed.Entries[0].MsgID)
	assert.Equal(t, c.Entries[0].MsgStr, parsed.Entries[0].MsgStr)
}

func TestRegenerate(t *testing.T) {
	src, err := Parse([]byte(sample))
	require.NoError(t, err)

	out := Regenerate(src, map[string]string{"Hello": "Pozdrav"}, "hr")

	lang, _ := out.Meta(MetaLanguage)
	assert.Equal(t, "hr", lang)
	ct, _ := out.Meta(MetaContentType)
	assert.Equal(t, ContentTypeUTF8, ct)
	pv, _ := out.Meta("Project-Id-Version")
	assert.Equal(t, "demo 1.0", pv)

	assert.Equal(t, "Pozdrav", out.Entries[0].MsgStr)
	assert.Equal(t, src.Entries[0].References, out.Entries[0].References)
	assert.Equal(t, src.Entries[0].ExtractedComments, out.Entries[0].ExtractedComments)
	assert.Equal(t, "Otvori %s", out.Entries[1].MsgStr)
	assert.Equal(t, "menu", out.Entries[1].MsgCtxt)

	// the source catalog is left alone
	assert.Equal(t, "", src.Entries[0].MsgStr)
	srcLang, _ := src.Meta(MetaLanguage)
	assert.Equal(t, "en", srcLang)

	out.Entries[0].References[0] = "changed"
	assert.Equal(t, "app/home.go:12 app/home.go:40", src.Entries[0].References[0])
}

func TestRegenerateDuplicateKeys(t *testing.T) {
	src := New("en",
		&Entry{MsgID: "Save", MsgCtxt: "button"},
		&Entry{MsgID: "Save", MsgCtxt: "menu"},
	)

	out := Regenerate(src, map[string]string{"Save": "Spremi"}, "hr")
	for _, e := range out.Entries {
		assert.Equal(t, "Spremi", e.MsgStr)
	}
}

func TestRenderReadableByGotext(t *testing.T) {
	c := New("hr",
		&Entry{MsgID: "Hello", MsgStr: "Pozdrav"},
		&Entry{MsgID: "Bye", MsgStr: "Ciao", References: []string{"main.go:1"}},
	)

	po := gotext.NewPo()
	po.Parse(Render(c))

	assert.Equal(t, "Pozdrav", po.Get("Hello"))
	assert.Equal(t, "Ciao", po.Get("Bye"))
	assert.True(t, strings.HasPrefix(string(Render(c)), "msgid \"\"\nmsgstr \"\"\n"))
}

func TestParseObsoletePreviousMsgID(t *testing.T) {
	input := "msgid \"a\"\nmsgstr \"b\"\n\n#, fuzzy\n#~| msgid \"old\"\n#~ msgid \"gone\"\n#~ msgstr \"\"\n"

	c, err := Parse([]byte(input))
	require.NoError(t, err)
	require.Equal(t, 2, c.Len())

	gone := c.Entries[1]
	assert.True(t, gone.Obsolete)
	assert.True(t, gone.HasFlag("fuzzy"))
	assert.Equal(t, "old", gone.PreviousMsgID)
	assert.Equal(t, "gone", gone.MsgID)

	out := string(Render(c))
	assert.Contains(t, out, "#, fuzzy\n#~| msgid \"old\"\n#~ msgid \"gone\"\n#~ msgstr \"\"\n")

	again, err := Parse([]byte(out))
	require.NoError(t, err)
	assert.Equal(t, out, string(Render(again)))
}

func TestParsePreviousFields(t *testing.T) {
	input := `#, fuzzy
#| msgctxt "toolbar"
#| msgid ""
#| "Open the "
#| "file"
#| msgid_plural "Open the files"
msgctxt "toolbar"
msgid "Open a file"
msgid_plural "Open files"
msgstr[0] "Otvori datoteku"
msgstr[1] "Otvori datoteke"
`

	c, err := Parse([]byte(input))
	require.NoError(t, err)
	require.Equal(t, 1, c.Len())

	e := c.Entries[0]
	assert.Equal(t, "toolbar", e.PreviousMsgCtxt)
	assert.Equal(t, "Open the file", e.PreviousMsgID)
	assert.Equal(t, "Open the files", e.PreviousMsgIDPlural)

	out := string(Render(c))
	assert.Contains(t, out, "#| msgctxt \"toolbar\"\n#| msgid \"Open the file\"\n#| msgid_plural \"Open the files\"\n")

	again, err := Parse([]byte(out))
	require.NoError(t, err)
	assert.Equal(t, e.PreviousMsgID, again.Entries[0].PreviousMsgID)
	assert.Equal(t, e.PreviousMsgCtxt, again.Entries[0].PreviousMsgCtxt)
	assert.Equal(t, e.PreviousMsgIDPlural, again.Entries[0].PreviousMsgIDPlural)
}

func TestParseDetachedComments(t *testing.T) {
	input := `# Copyright (C) 2024 Example Ltd.
# This file is distributed under the MIT license.

#, fuzzy
msgid ""
msgstr ""
"Language: en\n"

msgid "a"
msgstr ""

# note for the next entry

msgid "b"
msgstr ""

# end of file
`

	c, err := Parse([]byte(input))
	require.NoError(t, err)

	assert.Equal(t, []string{
		"Copyright (C) 2024 Example Ltd.",
		"This file is distributed under the MIT license.",
	}, c.HeaderComments)
	assert.Equal(t, []string{"fuzzy"}, c.HeaderFlags)
	require.Equal(t, 2, c.Len())
	assert.Equal(t, []string{"note for the next entry"}, c.Entries[1].TranslatorComments)
	assert.Equal(t, []string{"end of file"}, c.TrailingComments)

	out := string(Render(Regenerate(c, nil, "hr")))
	assert.True(t, strings.HasPrefix(out, "# Copyright (C) 2024 Example Ltd.\n# This file is distributed under the MIT license.\n"))
	assert.True(t, strings.HasSuffix(out, "\n# end of file\n"))
}

func TestParseNumericEscapes(t *testing.T) {
	c, err := Parse([]byte("msgid \"tab\\x41\\101\\0\"\nmsgstr \"bad \\x escape\"\n"))
	require.NoError(t, err)

	assert.Equal(t, "tabAA\x00", c.Entries[0].MsgID)
	assert.Equal(t, "bad \\x escape", c.Entries[0].MsgStr)

	out := string(Render(c))
	assert.Contains(t, out, "msgid \"tabAA\x00\"")
}
