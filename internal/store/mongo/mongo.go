package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/mdubravic83/POtranslate/internal/store"
	"github.com/mdubravic83/POtranslate/internal/translation"
)

const (
	JobsCollection   = "translations"
	StatusCollection = "status_checks"
)

type jobDocument struct {
	ID                string                `bson:"id"`
	Filename          string                `bson:"filename"`
	SourceLang        string                `bson:"source_lang"`
	TargetLang        string                `bson:"target_lang"`
	TotalEntries      int                   `bson:"total_entries"`
	TranslatedEntries int                   `bson:"translated_entries"`
	SkippedEntries    int                   `bson:"skipped_entries"`
	ErrorEntries      int                   `bson:"error_entries"`
	Entries           []translation.Outcome `bson:"entries,omitempty"`
	CreatedAt         string                `bson:"created_at"`
}

type statusDocument struct {
	ID         string `bson:"id"`
	ClientName string `bson:"client_name"`
	Timestamp  string `bson:"timestamp"`
}

// Store keeps jobs and status checks in two collections of one database.
type Store struct {
	client   *mongo.Client
	database string

	jobs   *mongo.Collection
	status *mongo.Collection

	logger *zap.Logger
}

type Option func(*Store)

func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// New connects to uri, verifies the connection and ensures indexes.
func New(ctx context.Context, uri, database string, opts ...Option) (*Store, error) {
	s := &Store{
		database: database,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connecting to mongodb: %w", err)
	}
	s.client = client

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("pinging mongodb: %w", err)
	}

	db := client.Database(database)
	s.jobs = db.Collection(JobsCollection)
	s.status = db.Collection(StatusCollection)

	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}

	s.logger.Info("connected to mongodb",
		zap.String("database", database),
	)
	return s, nil
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	_, err := s.jobs.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "created_at", Value: -1}, {Key: "id", Value: 1}},
		},
	})
	if err != nil {
		return fmt.Errorf("creating %s indexes: %w", JobsCollection, err)
	}
	return nil
}

func (s *Store) SaveJob(ctx context.Context, job *translation.Job) error {
	doc := jobDocument{
		ID:                job.ID,
		Filename:          job.Filename,
		SourceLang:        job.SourceLang,
		TargetLang:        job.TargetLang,
		TotalEntries:      job.TotalEntries,
		TranslatedEntries: job.TranslatedEntries,
		SkippedEntries:    job.SkippedEntries,
		ErrorEntries:      job.ErrorEntries,
		Entries:           job.Entries,
		CreatedAt:         store.FormatTime(job.CreatedAt),
	}
	if _, err := s.jobs.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("inserting job %s: %w", job.ID, err)
	}
	return nil
}

func (s *Store) GetJob(ctx context.Context, id string) (*translation.Job, error) {
	var doc jobDocument
	err := s.jobs.FindOne(ctx,
		bson.D{{Key: "id", Value: id}},
		options.FindOne().SetProjection(bson.D{{Key: "_id", Value: 0}}),
	).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("finding job %s: %w", id, err)
	}

	summary, err := doc.summary()
	if err != nil {
		return nil, err
	}
	return &translation.Job{Summary: summary, Entries: doc.Entries}, nil
}

func (s *Store) ListJobs(ctx context.Context, limit int) ([]translation.Summary, error) {
	opts := options.Find().
		SetProjection(bson.D{{Key: "_id", Value: 0}, {Key: "entries", Value: 0}}).
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "id", Value: 1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cursor, err := s.jobs.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("listing jobs: %w", err)
	}
	var docs []jobDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decoding jobs: %w", err)
	}

	out := make([]translation.Summary, 0, len(docs))
	for _, doc := range docs {
		summary, err := doc.summary()
		if err != nil {
			return nil, err
		}
		out = append(out, summary)
	}
	return out, nil
}

func (s *Store) SaveStatus(ctx context.Context, check *translation.StatusCheck) error {
	doc := statusDocument{
		ID:         check.ID,
		ClientName: check.ClientName,
		Timestamp:  store.FormatTime(check.Timestamp),
	}
	if _, err := s.status.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("inserting status check: %w", err)
	}
	return nil
}

func (s *Store) ListStatus(ctx context.Context, limit int) ([]translation.StatusCheck, error) {
	opts := options.Find().SetProjection(bson.D{{Key: "_id", Value: 0}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cursor, err := s.status.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("listing status checks: %w", err)
	}
	var docs []statusDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decoding status checks: %w", err)
	}

	out := make([]translation.StatusCheck, 0, len(docs))
	for _, doc := range docs {
		ts, err := store.ParseTime(doc.Timestamp)
		if err != nil {
			return nil, fmt.Errorf("status check %s timestamp: %w", doc.ID, err)
		}
		out = append(out, translation.StatusCheck{
			ID:         doc.ID,
			ClientName: doc.ClientName,
			Timestamp:  ts,
		})
	}
	return out, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

func (s *Store) Close(ctx context.Context) error {
	s.logger.Info("disconnecting from mongodb")
	return s.client.Disconnect(ctx)
}

func (d jobDocument) summary() (translation.Summary, error) {
	created, err := store.ParseTime(d.CreatedAt)
	if err != nil {
		return translation.Summary{}, fmt.Errorf("job %s created_at: %w", d.ID, err)
	}
	return translation.Summary{
		ID:                d.ID,
		Filename:          d.Filename,
		SourceLang:        d.SourceLang,
		TargetLang:        d.TargetLang,
		TotalEntries:      d.TotalEntries,
		TranslatedEntries: d.TranslatedEntries,
		SkippedEntries:    d.SkippedEntries,
		ErrorEntries:      d.ErrorEntries,
		CreatedAt:         created,
	}, nil
}
