package provider

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Provider translates a single text. Implementations may block; callers
// run them on the worker pool.
type Provider interface {
	Translate(ctx context.Context, text, source, target string) (string, error)
}

// Func adapts a plain function to Provider.
type Func func(ctx context.Context, text, source, target string) (string, error)

func (f Func) Translate(ctx context.Context, text, source, target string) (string, error) {
	return f(ctx, text, source, target)
}

// Echo returns the text unchanged. It backs dry runs and the memory setup.
type Echo struct{}

func (Echo) Translate(ctx context.Context, text, _, _ string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return text, nil
}

var ErrNoTranslation = errors.New("no translation")

// Static answers from a fixed dictionary and fails for unknown texts.
// It records every call, which tests use to assert on provider traffic.
type Static struct {
	Translations map[string]string

	mu    sync.Mutex
	calls []string
}

func NewStatic(translations map[string]string) *Static {
	return &Static{Translations: translations}
}

func (s *Static) Translate(ctx context.Context, text, _, target string) (string, error) {
	s.mu.Lock()
	s.calls = append(s.calls, text)
	s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return "", err
	}
	v, ok := s.Translations[text]
	if !ok {
		return "", fmt.Errorf("%q to %s: %w", text, target, ErrNoTranslation)
	}
	return v, nil
}

// Calls returns the texts passed to Translate, in call order.
func (s *Static) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}
