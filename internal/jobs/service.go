package jobs

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mdubravic83/POtranslate/internal"
	"github.com/mdubravic83/POtranslate/internal/catalog"
	"github.com/mdubravic83/POtranslate/internal/events"
	"github.com/mdubravic83/POtranslate/internal/store"
	"github.com/mdubravic83/POtranslate/internal/translation"
)

// ProcessingError wraps a failure that happened after validation, while
// parsing, translating or persisting an upload.
type ProcessingError struct {
	Err error
}

func (e *ProcessingError) Error() string {
	return e.Err.Error()
}

func (e *ProcessingError) Unwrap() error {
	return e.Err
}

// Upload is a catalog submitted for translation.
type Upload struct {
	Filename   string
	SourceLang string
	TargetLang string
	Content    []byte
}

// Service runs uploads through the pipeline and owns everything that
// happens to a job afterwards.
type Service struct {
	pipeline   *translation.Pipeline
	store      store.Store
	repository internal.Repository
	publisher  events.Publisher

	logger *zap.Logger
}

type Option func(*Service)

func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithRepository stores every rendered catalog as {job id}/{download name}.
func WithRepository(r internal.Repository) Option {
	return func(s *Service) {
		s.repository = r
	}
}

func WithPublisher(p events.Publisher) Option {
	return func(s *Service) {
		s.publisher = p
	}
}

func New(pipeline *translation.Pipeline, st store.Store, opts ...Option) *Service {
	s := &Service{
		pipeline:  pipeline,
		store:     st,
		publisher: events.Noop{},
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Translate validates, translates and persists an upload. Validation
// failures return *translation.ValidationError before anything else
// happens; later failures return *ProcessingError and nothing is stored.
func (s *Service) Translate(ctx context.Context, up Upload) (*translation.Result, error) {
	if up.SourceLang == "" {
		up.SourceLang = translation.SourceAuto
	}
	if up.TargetLang == "" {
		up.TargetLang = translation.DefaultTargetLang
	}
	if err := translation.ValidateUpload(up.Filename, up.TargetLang); err != nil {
		return nil, err
	}

	c, err := catalog.Parse(up.Content)
	if err != nil {
		return nil, &ProcessingError{Err: err}
	}

	res, err := s.pipeline.Process(ctx, c, translation.JobMeta{
		Filename:   up.Filename,
		SourceLang: up.SourceLang,
		TargetLang: up.TargetLang,
	}, nil)
	if err != nil {
		return nil, &ProcessingError{Err: err}
	}

	if err := s.store.SaveJob(ctx, &res.Job); err != nil {
		return nil, &ProcessingError{Err: fmt.Errorf("saving job: %w", err)}
	}

	s.afterSave(ctx, res)
	return res, nil
}

// afterSave runs the best effort side effects of a persisted job.
func (s *Service) afterSave(ctx context.Context, res *translation.Result) {
	if s.repository != nil {
		key := path.Join(res.ID, translation.DownloadName(res.Filename, res.TargetLang))
		if err := s.repository.Write(ctx, key, bytes.NewReader([]byte(res.POContent))); err != nil {
			s.logger.Error("storing rendered catalog",
				zap.String("id", res.ID),
				zap.String("key", key),
				zap.Error(err),
			)
		}
	}

	if err := s.publisher.Publish(ctx, events.JobCreated(res.Summary)); err != nil {
		s.logger.Error("publishing job event",
			zap.String("id", res.ID),
			zap.Error(err),
		)
	}
}

func (s *Service) Get(ctx context.Context, id string) (*translation.Job, error) {
	return s.store.GetJob(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]translation.Summary, error) {
	return s.store.ListJobs(ctx, store.DefaultListLimit)
}

// Download renders a stored job as a catalog and names it for the
// attachment.
func (s *Service) Download(ctx context.Context, id string) (string, []byte, error) {
	job, err := s.store.GetJob(ctx, id)
	if err != nil {
		return "", nil, err
	}
	return translation.DownloadName(job.Filename, job.TargetLang), catalog.Render(job.Catalog()), nil
}

func (s *Service) RecordStatus(ctx context.Context, clientName string) (*translation.StatusCheck, error) {
	check := &translation.StatusCheck{
		ID:         uuid.NewString(),
		ClientName: clientName,
		Timestamp:  time.Now().UTC(),
	}
	if err := s.store.SaveStatus(ctx, check); err != nil {
		return nil, err
	}
	return check, nil
}

func (s *Service) ListStatus(ctx context.Context) ([]translation.StatusCheck, error) {
	return s.store.ListStatus(ctx, store.DefaultStatusLimit)
}

// Ping reports whether the store is reachable.
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}
