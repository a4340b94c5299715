package events

import (
	"context"
	"sync"
	"time"

	"github.com/mdubravic83/POtranslate/internal/translation"
)

const TypeJobCreated = "job.created"

// Event announces a persisted job. It carries the summary only; consumers
// fetch entries through the API.
type Event struct {
	Type       string              `json:"type"`
	ID         string              `json:"id"`
	OccurredAt time.Time           `json:"occurred_at"`
	Job        translation.Summary `json:"job"`
}

func JobCreated(job translation.Summary) Event {
	return Event{
		Type:       TypeJobCreated,
		ID:         job.ID,
		OccurredAt: time.Now().UTC(),
		Job:        job,
	}
}

// Stats describes the health of a publisher.
type Stats struct {
	ConnectionHealthy bool      `json:"connection_healthy"`
	TotalEvents       int64     `json:"total_events"`
	ErrorCount        int64     `json:"error_count"`
	LastError         string    `json:"last_error,omitempty"`
	LastWriteAt       time.Time `json:"last_write_at,omitempty"`
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close(ctx context.Context) error
	Stats() Stats
}

// Noop discards events.
type Noop struct{}

func (Noop) Publish(ctx context.Context, event Event) error { return nil }
func (Noop) Close(ctx context.Context) error                { return nil }
func (Noop) Stats() Stats                                   { return Stats{ConnectionHealthy: true} }

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Publish(ctx context.Context, event Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *Recorder) Close(ctx context.Context) error { return nil }

func (r *Recorder) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Stats{ConnectionHealthy: true, TotalEvents: int64(len(r.events))}
}

func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}
