package translation

import (
	"path"
	"strings"
	"time"

	"github.com/mdubravic83/POtranslate/internal/catalog"
)

// Status is the outcome of a single entry.
type Status string

const (
	StatusSuccess Status = "success"
	StatusSkipped Status = "skipped"
	StatusError   Status = "error"
)

// Outcome records what happened to one catalog entry.
type Outcome struct {
	MsgID      string `json:"msgid" bson:"msgid"`
	MsgStr     string `json:"msgstr" bson:"msgstr"`
	Translated string `json:"translated" bson:"translated"`
	Status     Status `json:"status" bson:"status"`
}

// Summary is a job without its entry list.
type Summary struct {
	ID                string    `json:"id"`
	Filename          string    `json:"filename"`
	SourceLang        string    `json:"source_lang"`
	TargetLang        string    `json:"target_lang"`
	TotalEntries      int       `json:"total_entries"`
	TranslatedEntries int       `json:"translated_entries"`
	SkippedEntries    int       `json:"skipped_entries"`
	ErrorEntries      int       `json:"error_entries"`
	CreatedAt         time.Time `json:"created_at"`
}

// Job is one complete translate-and-persist operation. It is never
// modified after Build returns it.
type Job struct {
	Summary
	Entries []Outcome `json:"entries"`
}

// Result is the payload returned to the uploader.
type Result struct {
	Job
	POContent string `json:"po_content"`
}

// StatusCheck is a liveness record, unrelated to jobs.
type StatusCheck struct {
	ID         string    `json:"id"`
	ClientName string    `json:"client_name"`
	Timestamp  time.Time `json:"timestamp"`
}

// DownloadName derives the attachment name of a translated catalog,
// e.g. "app.po" and "hr" give "app_hr.po".
func DownloadName(filename, lang string) string {
	base := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	if strings.HasSuffix(strings.ToLower(base), ".po") {
		base = base[:len(base)-len(".po")]
	}
	if base == "" || base == "." || base == "/" {
		base = "translation"
	}
	return base + "_" + lang + ".po"
}

// Catalog rebuilds a catalog from the persisted outcomes. Source
// occurrences, flags and comments are not stored with the job, so the
// result only carries msgid and the translated value.
func (j *Job) Catalog() *catalog.Catalog {
	entries := make([]*catalog.Entry, 0, len(j.Entries))
	for _, o := range j.Entries {
		entries = append(entries, &catalog.Entry{MsgID: o.MsgID, MsgStr: o.Translated})
	}
	return catalog.New(j.TargetLang, entries...)
}

// Counts tallies outcomes by status.
func Counts(outcomes []Outcome) (translated, skipped, failed int) {
	for _, o := range outcomes {
		switch o.Status {
		case StatusSuccess:
			translated++
		case StatusSkipped:
			skipped++
		case StatusError:
			failed++
		}
	}
	return translated, skipped, failed
}
