package store

import (
	"context"
	"errors"
	"time"

	"github.com/mdubravic83/POtranslate/internal/translation"
)

var (
	ErrNotFound = errors.New("not found")
)

const (
	// DefaultListLimit bounds the history list.
	DefaultListLimit = 100
	// DefaultStatusLimit bounds the status check list.
	DefaultStatusLimit = 1000
)

// Store persists translation jobs and status checks. Records are
// addressed by their generated string ID, never a database key.
// Implementations must be safe for concurrent use.
type Store interface {
	SaveJob(ctx context.Context, job *translation.Job) error
	// GetJob returns ErrNotFound for an unknown id.
	GetJob(ctx context.Context, id string) (*translation.Job, error)
	// ListJobs returns up to limit summaries, newest first.
	ListJobs(ctx context.Context, limit int) ([]translation.Summary, error)

	SaveStatus(ctx context.Context, check *translation.StatusCheck) error
	ListStatus(ctx context.Context, limit int) ([]translation.StatusCheck, error)

	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// timeLayout is a fixed width ISO-8601 layout so stored strings sort in
// time order.
const timeLayout = "2006-01-02T15:04:05.000000Z07:00"

// FormatTime renders t the way timestamps are persisted.
func FormatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// ParseTime accepts persisted timestamps, including ones written with a
// numeric UTC offset.
func ParseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}
