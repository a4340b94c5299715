package translation

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mdubravic83/POtranslate/internal/catalog"
)

// JobMeta describes the upload a job is built for. ID and CreatedAt are
// generated when empty.
type JobMeta struct {
	ID         string
	Filename   string
	SourceLang string
	TargetLang string
	CreatedAt  time.Time
}

// Build puts the classifier's skips and the pipeline's outcomes back into
// catalog order, counts them and renders the translated catalog.
func Build(src *catalog.Catalog, decisions []Decision, translated []Outcome, meta JobMeta) (*Result, error) {
	eligible := 0
	for _, d := range decisions {
		if d.Eligible {
			eligible++
		}
	}
	if eligible != len(translated) {
		return nil, fmt.Errorf("build job: %d eligible entries but %d outcomes", eligible, len(translated))
	}

	outcomes := make([]Outcome, 0, len(decisions))
	next := 0
	for _, d := range decisions {
		if d.Eligible {
			outcomes = append(outcomes, translated[next])
			next++
			continue
		}
		outcomes = append(outcomes, d.Outcome)
	}

	if meta.ID == "" {
		meta.ID = uuid.NewString()
	}
	if meta.CreatedAt.IsZero() {
		meta.CreatedAt = time.Now().UTC()
	}

	ok, skipped, failed := Counts(outcomes)
	job := Job{
		Summary: Summary{
			ID:                meta.ID,
			Filename:          meta.Filename,
			SourceLang:        meta.SourceLang,
			TargetLang:        meta.TargetLang,
			TotalEntries:      len(outcomes),
			TranslatedEntries: ok,
			SkippedEntries:    skipped,
			ErrorEntries:      failed,
			CreatedAt:         meta.CreatedAt,
		},
		Entries: outcomes,
	}

	// duplicate keys: the last outcome wins
	values := make(map[string]string, len(outcomes))
	for _, o := range outcomes {
		values[o.MsgID] = o.Translated
	}
	rendered := catalog.Render(catalog.Regenerate(src, values, meta.TargetLang))

	return &Result{Job: job, POContent: string(rendered)}, nil
}
