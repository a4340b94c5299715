package translation

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mdubravic83/POtranslate/internal/catalog"
	"github.com/mdubravic83/POtranslate/internal/provider"
	"github.com/mdubravic83/POtranslate/internal/workerpool"
)

const DefaultPacing = 100 * time.Millisecond

// ProgressFunc is called after every eligible entry with the number of
// entries done so far.
type ProgressFunc func(done, total int)

// Pipeline drives eligible entries through a provider one at a time. Calls
// run on the shared pool, so concurrent pipelines never exceed its size.
type Pipeline struct {
	provider    provider.Provider
	pool        *workerpool.Pool
	pacing      time.Duration
	callTimeout time.Duration

	logger *zap.Logger
}

type PipelineOption func(*Pipeline)

func WithLogger(logger *zap.Logger) PipelineOption {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithPacing sets the pause after each successful provider call.
func WithPacing(d time.Duration) PipelineOption {
	return func(p *Pipeline) {
		p.pacing = d
	}
}

// WithCallTimeout bounds every provider call. Zero disables the bound.
func WithCallTimeout(d time.Duration) PipelineOption {
	return func(p *Pipeline) {
		p.callTimeout = d
	}
}

func NewPipeline(prov provider.Provider, pool *workerpool.Pool, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		provider: prov,
		pool:     pool,
		pacing:   DefaultPacing,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run translates entries in order and returns one outcome per entry. A
// failed entry keeps its key as the translated value; it never stops the
// batch.
func (p *Pipeline) Run(ctx context.Context, entries []*catalog.Entry, source, target string, progress ProgressFunc) []Outcome {
	outcomes := make([]Outcome, 0, len(entries))

	for i, e := range entries {
		o := Outcome{MsgID: e.MsgID, MsgStr: e.Value()}

		translated, err := p.translate(ctx, e.MsgID, source, target)
		if err != nil {
			p.logger.Error("translation failed",
				zap.String("msgid", e.MsgID),
				zap.String("target", target),
				zap.Error(err),
			)
			o.Translated = e.MsgID
			o.Status = StatusError
		} else {
			if strings.TrimSpace(translated) == "" {
				translated = e.MsgID
			}
			o.Translated = translated
			o.Status = StatusSuccess
		}
		outcomes = append(outcomes, o)

		if progress != nil {
			progress(i+1, len(entries))
		}

		if err == nil && i < len(entries)-1 {
			p.pause(ctx)
		}
	}

	return outcomes
}

func (p *Pipeline) translate(ctx context.Context, text, source, target string) (string, error) {
	return workerpool.Submit(ctx, p.pool, func(ctx context.Context) (string, error) {
		if p.callTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, p.callTimeout)
			defer cancel()
		}
		return p.provider.Translate(ctx, text, source, target)
	})
}

func (p *Pipeline) pause(ctx context.Context) {
	if p.pacing <= 0 {
		return
	}
	timer := time.NewTimer(p.pacing)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}

// Process classifies every entry of c, translates the eligible ones and
// builds the job.
func (p *Pipeline) Process(ctx context.Context, c *catalog.Catalog, meta JobMeta, progress ProgressFunc) (*Result, error) {
	decisions := Classify(c.Entries)
	eligible := Eligible(decisions)

	p.logger.Info("translating catalog",
		zap.String("filename", meta.Filename),
		zap.String("source", meta.SourceLang),
		zap.String("target", meta.TargetLang),
		zap.Int("entries", len(decisions)),
		zap.Int("eligible", len(eligible)),
	)

	start := time.Now()
	outcomes := p.Run(ctx, eligible, meta.SourceLang, meta.TargetLang, progress)

	res, err := Build(c, decisions, outcomes, meta)
	if err != nil {
		return nil, err
	}

	p.logger.Info("catalog translated",
		zap.String("id", res.ID),
		zap.Int("translated", res.TranslatedEntries),
		zap.Int("skipped", res.SkippedEntries),
		zap.Int("errors", res.ErrorEntries),
		zap.Duration("duration", time.Since(start)),
	)
	return res, nil
}
