package archiver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mdubravic83/POtranslate/internal"
	"github.com/mdubravic83/POtranslate/internal/parquet"
	"github.com/mdubravic83/POtranslate/internal/store"
)

const ManifestKey = "manifest.json"

type Option func(*Archiver)

func WithLogger(logger *zap.Logger) Option {
	return func(a *Archiver) {
		a.logger = logger
	}
}

func WithStore(s store.Store) Option {
	return func(a *Archiver) {
		a.store = s
	}
}

func WithPreserver(p *parquet.Preserver) Option {
	return func(a *Archiver) {
		a.preserver = p
	}
}

func WithRepository(r internal.Repository) Option {
	return func(a *Archiver) {
		a.repository = r
	}
}

// WithSourceName labels the manifest with where jobs were read from.
func WithSourceName(name string) Option {
	return func(a *Archiver) {
		a.sourceName = name
	}
}

// Archiver copies translation history out of the store into parquet files.
type Archiver struct {
	logger     *zap.Logger
	store      store.Store
	preserver  *parquet.Preserver
	repository internal.Repository
	sourceName string
}

func New(opts ...Option) *Archiver {
	a := &Archiver{
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Snapshot archives up to limit of the most recent jobs and writes the
// manifest last. A manifest with Completed false is still written when a
// job fails to load, so partial snapshots are recognisable.
func (a *Archiver) Snapshot(ctx context.Context, id uuid.UUID, limit int) (*Manifest, error) {
	m := &Manifest{
		ID:        id.String(),
		StartTime: time.Now().UTC(),
		Source:    a.sourceName,
	}
	l := a.logger.With(zap.String("snapshot_id", m.ID))
	l.Info("starting snapshot", zap.Int("limit", limit))

	err := a.copyJobs(ctx, m, limit)
	m.EndTime = time.Now().UTC()
	m.Files = a.preserver.Files()
	m.Completed = err == nil

	if werr := a.writeManifest(ctx, m); werr != nil {
		if err == nil {
			err = werr
		} else {
			l.Error("writing manifest", zap.Error(werr))
		}
	}
	if err != nil {
		return m, err
	}

	l.Info("snapshot complete",
		zap.Int("jobs", m.NumSourceRecords),
		zap.Int("rows", m.NumRecordsProcessed),
		zap.Duration("duration", m.EndTime.Sub(m.StartTime)),
	)
	return m, nil
}

func (a *Archiver) copyJobs(ctx context.Context, m *Manifest, limit int) error {
	summaries, err := a.store.ListJobs(ctx, limit)
	if err != nil {
		return fmt.Errorf("listing jobs: %w", err)
	}
	m.NumSourceRecords = len(summaries)

	for _, s := range summaries {
		job, err := a.store.GetJob(ctx, s.ID)
		if err != nil {
			return fmt.Errorf("loading job %s: %w", s.ID, err)
		}
		if err := a.preserver.Preserve(ctx, parquet.Rows(job)...); err != nil {
			return err
		}
	}
	if err := a.preserver.Flush(ctx); err != nil {
		return err
	}
	m.NumRecordsProcessed = a.preserver.NumRecordsWritten()
	return nil
}

func (a *Archiver) writeManifest(ctx context.Context, m *Manifest) error {
	b, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	return a.repository.Write(ctx, ManifestKey, bytes.NewReader(b))
}
