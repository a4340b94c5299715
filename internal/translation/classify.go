package translation

import (
	"strings"

	"github.com/mdubravic83/POtranslate/internal/catalog"
)

// Decision is the classifier's verdict for one entry. Outcome is only
// meaningful when Eligible is false.
type Decision struct {
	Entry    *catalog.Entry
	Eligible bool
	Outcome  Outcome
}

// Classify decides, in order, which entries go to the provider. Entries
// with a blank key or an existing value are skipped and keep that value.
func Classify(entries []*catalog.Entry) []Decision {
	decisions := make([]Decision, len(entries))
	for i, e := range entries {
		d := Decision{Entry: e}
		value := e.Value()
		switch {
		case strings.TrimSpace(e.MsgID) == "", strings.TrimSpace(value) != "":
			d.Outcome = Outcome{
				MsgID:      e.MsgID,
				MsgStr:     value,
				Translated: value,
				Status:     StatusSkipped,
			}
		default:
			d.Eligible = true
		}
		decisions[i] = d
	}
	return decisions
}

// Eligible returns the entries of decisions marked for translation.
func Eligible(decisions []Decision) []*catalog.Entry {
	var out []*catalog.Entry
	for _, d := range decisions {
		if d.Eligible {
			out = append(out, d.Entry)
		}
	}
	return out
}
