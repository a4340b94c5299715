package postgres

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"

	"github.com/mdubravic83/POtranslate/internal/store"
	"github.com/mdubravic83/POtranslate/internal/translation"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Store keeps each record as a JSONB document next to the columns it is
// looked up and ordered by.
type Store struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

type Option func(*Store)

func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// New connects to dsn and applies pending migrations.
func New(ctx context.Context, dsn string, opts ...Option) (*Store, error) {
	s := &Store{
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parsing postgres dsn: %w", err)
	}
	cfg.MaxConns = 10
	cfg.HealthCheckPeriod = 30 * time.Second

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}
	s.pool = pool

	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate(ctx context.Context) error {
	fsys, err := fs.Sub(migrations, "migrations")
	if err != nil {
		return err
	}

	db := stdlib.OpenDBFromPool(s.pool)
	defer db.Close()

	provider, err := goose.NewProvider(goose.DialectPostgres, db, fsys)
	if err != nil {
		return fmt.Errorf("loading migrations: %w", err)
	}
	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("applying migrations: %w", err)
	}
	for _, r := range results {
		s.logger.Info("applied migration",
			zap.String("source", r.Source.Path),
			zap.Duration("duration", r.Duration),
		)
	}
	return nil
}

func (s *Store) SaveJob(ctx context.Context, job *translation.Job) error {
	doc, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("encoding job %s: %w", job.ID, err)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO translations (id, created_at, doc) VALUES ($1, $2, $3)`,
		job.ID, store.FormatTime(job.CreatedAt), doc,
	)
	if err != nil {
		return fmt.Errorf("inserting job %s: %w", job.ID, err)
	}
	return nil
}

func (s *Store) GetJob(ctx context.Context, id string) (*translation.Job, error) {
	var doc []byte
	err := s.pool.QueryRow(ctx, `SELECT doc FROM translations WHERE id = $1`, id).Scan(&doc)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("finding job %s: %w", id, err)
	}

	var job translation.Job
	if err := json.Unmarshal(doc, &job); err != nil {
		return nil, fmt.Errorf("decoding job %s: %w", id, err)
	}
	return &job, nil
}

func (s *Store) ListJobs(ctx context.Context, limit int) ([]translation.Summary, error) {
	if limit <= 0 {
		limit = store.DefaultListLimit
	}
	rows, err := s.pool.Query(ctx,
		`SELECT doc - 'entries' FROM translations ORDER BY created_at DESC, id ASC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing jobs: %w", err)
	}
	return collectJSON[translation.Summary](rows)
}

func (s *Store) SaveStatus(ctx context.Context, check *translation.StatusCheck) error {
	doc, err := json.Marshal(check)
	if err != nil {
		return fmt.Errorf("encoding status check: %w", err)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO status_checks (id, timestamp, doc) VALUES ($1, $2, $3)`,
		check.ID, store.FormatTime(check.Timestamp), doc,
	)
	if err != nil {
		return fmt.Errorf("inserting status check: %w", err)
	}
	return nil
}

func (s *Store) ListStatus(ctx context.Context, limit int) ([]translation.StatusCheck, error) {
	if limit <= 0 {
		limit = store.DefaultStatusLimit
	}
	rows, err := s.pool.Query(ctx,
		`SELECT doc FROM status_checks ORDER BY timestamp ASC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing status checks: %w", err)
	}
	return collectJSON[translation.StatusCheck](rows)
}

func collectJSON[T any](rows pgx.Rows) ([]T, error) {
	docs, err := pgx.CollectRows(rows, pgx.RowTo[[]byte])
	if err != nil {
		return nil, fmt.Errorf("reading rows: %w", err)
	}
	out := make([]T, 0, len(docs))
	for _, doc := range docs {
		var v T
		if err := json.Unmarshal(doc, &v); err != nil {
			return nil, fmt.Errorf("decoding row: %w", err)
		}
		out = append(out, v)
	}
	return out, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *Store) Close(ctx context.Context) error {
	s.pool.Close()
	return nil
}
