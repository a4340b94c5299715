package config

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"go.uber.org/zap"

	"github.com/mdubravic83/POtranslate/internal"
	"github.com/mdubravic83/POtranslate/internal/events"
	"github.com/mdubravic83/POtranslate/internal/integrations/kafka"
	"github.com/mdubravic83/POtranslate/internal/jobs"
	"github.com/mdubravic83/POtranslate/internal/local"
	"github.com/mdubravic83/POtranslate/internal/provider"
	"github.com/mdubravic83/POtranslate/internal/provider/google"
	"github.com/mdubravic83/POtranslate/internal/s3"
	"github.com/mdubravic83/POtranslate/internal/store"
	"github.com/mdubravic83/POtranslate/internal/store/memory"
	"github.com/mdubravic83/POtranslate/internal/store/mongo"
	"github.com/mdubravic83/POtranslate/internal/store/postgres"
	"github.com/mdubravic83/POtranslate/internal/translation"
	"github.com/mdubravic83/POtranslate/internal/workerpool"
)

// NewLogger builds the process logger from the logger section.
func NewLogger(c Logger) (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	if c.Format == "production" {
		cfg = zap.NewProductionConfig()
	}
	if c.Level != "" {
		lvl, err := zap.ParseAtomicLevel(c.Level)
		if err != nil {
			return nil, fmt.Errorf("logger level: %w", err)
		}
		cfg.Level = lvl
	}
	return cfg.Build()
}

func InitializeStore(ctx context.Context, c Store, logger *zap.Logger) (store.Store, error) {
	switch c.Type {
	case StoreMongo:
		s, err := mongo.New(ctx, c.MongoURL, c.DBName, mongo.WithLogger(logger.Named("store.mongo")))
		if err != nil {
			return nil, err
		}
		return s, nil
	case StorePostgres:
		s, err := postgres.New(ctx, c.PostgresDSN, postgres.WithLogger(logger.Named("store.postgres")))
		if err != nil {
			return nil, err
		}
		return s, nil
	case StoreMemory:
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unknown store type: %s", c.Type)
	}
}

func InitializeProvider(c Translator, logger *zap.Logger) (provider.Provider, error) {
	switch c.Provider {
	case ProviderGoogle:
		return google.New(google.WithLogger(logger.Named("provider.google"))), nil
	case ProviderEcho:
		return provider.Echo{}, nil
	default:
		return nil, fmt.Errorf("unknown translation provider: %s", c.Provider)
	}
}

// InitializeRepository returns nil for an empty repository type. prefix is
// appended to the configured prefix.
func InitializeRepository(c Repository, prefix string, logger *zap.Logger) (internal.Repository, error) {
	switch c.Type {
	case "":
		return nil, nil
	case RepositoryLocal:
		return local.New(
			c.LocalConfig.Path,
			local.WithPrefix(prefix),
			local.WithLogger(logger.Named("repository.local")),
		), nil
	case RepositoryS3:
		r, err := s3.New(
			s3.WithLogger(logger.Named("repository.s3")),
			s3.WithRegion(c.S3Config.Region),
			s3.WithBucket(c.S3Config.Bucket),
			s3.WithEndpoint(c.S3Config.Endpoint),
			s3.WithPrefix(joinPrefix(c.S3Config.Prefix, prefix)),
			s3.WithForcePathStyle(c.S3Config.ForcePathStyle),
		)
		if err != nil {
			return nil, err
		}
		return r, nil
	default:
		return nil, fmt.Errorf("unknown repository type: %s", c.Type)
	}
}

func joinPrefix(a, b string) string {
	switch {
	case a == "":
		return b
	case b == "":
		return a
	default:
		return a + "/" + b
	}
}

func InitializePublisher(ctx context.Context, c Events, logger *zap.Logger) (events.Publisher, error) {
	if c.URL == "" {
		return events.Noop{}, nil
	}
	u, err := url.Parse(c.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid events URL: %w", err)
	}

	switch u.Scheme {
	case "kafka":
		p, err := kafka.NewPublisher(u, logger.Named("events.kafka"))
		if err != nil {
			return nil, err
		}
		if err := p.Connect(ctx); err != nil {
			return nil, fmt.Errorf("connecting kafka publisher: %w", err)
		}
		return p, nil
	default:
		return nil, fmt.Errorf("unsupported events protocol: %s", u.Scheme)
	}
}

// Runtime holds everything a serving process owns.
type Runtime struct {
	Store     store.Store
	Pool      *workerpool.Pool
	Publisher events.Publisher
	Pipeline  *translation.Pipeline
	Service   *jobs.Service
}

// Initialize wires the service from c. On error every component created so
// far is closed again.
func Initialize(ctx context.Context, c *Config, logger *zap.Logger) (_ *Runtime, err error) {
	rt := &Runtime{}
	defer func() {
		if err != nil {
			_ = rt.Close(context.Background())
		}
	}()

	if rt.Store, err = InitializeStore(ctx, c.Store, logger); err != nil {
		return nil, err
	}

	prov, err := InitializeProvider(c.Translator, logger)
	if err != nil {
		return nil, err
	}

	repository, err := InitializeRepository(c.Repository, "", logger)
	if err != nil {
		return nil, err
	}

	if rt.Publisher, err = InitializePublisher(ctx, c.Events, logger); err != nil {
		return nil, err
	}

	rt.Pool = workerpool.New(c.Translator.Workers, workerpool.WithLogger(logger.Named("workerpool")))
	rt.Pipeline = translation.NewPipeline(prov, rt.Pool,
		translation.WithPacing(c.Translator.Pacing),
		translation.WithCallTimeout(c.Translator.CallTimeout),
		translation.WithLogger(logger.Named("pipeline")),
	)

	opts := []jobs.Option{
		jobs.WithLogger(logger.Named("jobs")),
		jobs.WithPublisher(rt.Publisher),
	}
	if repository != nil {
		opts = append(opts, jobs.WithRepository(repository))
	}
	rt.Service = jobs.New(rt.Pipeline, rt.Store, opts...)

	return rt, nil
}

// Close stops the pool, then the publisher and the store.
func (rt *Runtime) Close(ctx context.Context) error {
	var errs []error
	if rt.Pool != nil {
		rt.Pool.Close()
	}
	if rt.Publisher != nil {
		errs = append(errs, rt.Publisher.Close(ctx))
	}
	if rt.Store != nil {
		errs = append(errs, rt.Store.Close(ctx))
	}
	return errors.Join(errs...)
}
