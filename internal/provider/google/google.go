package google

import (
	"context"
	"fmt"

	"github.com/bregydoc/gtranslate"
	"go.uber.org/zap"
)

const Name = "google"

// Translator calls the public Google Translate endpoint through gtranslate.
// The underlying call cannot be cancelled; ctx is checked before it starts.
type Translator struct {
	logger *zap.Logger
}

type Option func(*Translator)

func WithLogger(logger *zap.Logger) Option {
	return func(t *Translator) {
		t.logger = logger
	}
}

func New(opts ...Option) *Translator {
	t := &Translator{
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *Translator) Translate(ctx context.Context, text, source, target string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if source == "" {
		source = "auto"
	}

	translated, err := gtranslate.TranslateWithParams(
		text,
		gtranslate.TranslationParams{
			From: source,
			To:   target,
		},
	)
	if err != nil {
		return "", fmt.Errorf("google translate %s->%s: %w", source, target, err)
	}

	t.logger.Debug("translated",
		zap.String("source", source),
		zap.String("target", target),
		zap.Int("length", len(text)),
	)
	return translated, nil
}
