package portal

import (
	"context"
	"errors"
	"time"

	"docuchat/internal/apperr"
	"docuchat/internal/rag/interfaces"
	"docuchat/pkg/circuitbreaker"
)

// guardedEmbedder wraps an embedding provider with a per-call timeout
// and a circuit breaker. A nil breaker disables tripping.
type guardedEmbedder struct {
	inner   interfaces.EmbeddingModel
	breaker *circuitbreaker.Breaker
	timeout time.Duration
}

var _ interfaces.EmbeddingModel = (*guardedEmbedder)(nil)

func (g *guardedEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	callCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	var out [][]float32
	call := func() error {
		var err error
		out, err = g.inner.Embed(callCtx, texts)
		return err
	}

	var err error
	if g.breaker != nil {
		err = g.breaker.Do(call)
	} else {
		err = call()
	}
	if err != nil {
		if errors.Is(err, circuitbreaker.ErrOpen) {
			return nil, apperr.Embedding(err, "embedding provider is unavailable")
		}
		return nil, err
	}
	return out, nil
}

func (g *guardedEmbedder) Fingerprint() string { return g.inner.Fingerprint() }

// guardedLLM applies the same guards to a generation provider.
type guardedLLM struct {
	inner   interfaces.LLM
	breaker *circuitbreaker.Breaker
	timeout time.Duration
}

var _ interfaces.LLM = (*guardedLLM)(nil)

func (g *guardedLLM) Generate(ctx context.Context, prompt string) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	var out string
	call := func() error {
		var err error
		out, err = g.inner.Generate(callCtx, prompt)
		return err
	}

	var err error
	if g.breaker != nil {
		err = g.breaker.Do(call)
	} else {
		err = call()
	}
	if err != nil {
		if errors.Is(err, circuitbreaker.ErrOpen) {
			return "", apperr.Generation(err, "generation provider is unavailable")
		}
		return "", err
	}
	return out, nil
}
