package pdf

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"github.com/helsby/invoicer/internal/domain"
)

const (
	defaultAttempts = 3
	defaultDelay    = time.Second
)

// RendererConfig tunes the retry policy.
type RendererConfig struct {
	// Attempts is the maximum number of render attempts. Zero means 3.
	Attempts int

	// Delay is the fixed wait between attempts. Zero means 1s.
	Delay time.Duration
}

// Renderer drives the render pipeline: fetch markup, acquire an engine,
// print, release. A document that is not yet queryable (not-found class) is
// retried up to the configured attempts with a fixed delay; every other failure
// aborts immediately.
type Renderer struct {
	newEngine EngineFactory
	cfg       RendererConfig
	logger    zerolog.Logger
}

// NewRenderer creates a renderer around an engine factory.
func NewRenderer(factory EngineFactory, cfg RendererConfig, logger zerolog.Logger) *Renderer {
	if cfg.Attempts <= 0 {
		cfg.Attempts = defaultAttempts
	}
	if cfg.Delay <= 0 {
		cfg.Delay = defaultDelay
	}
	return &Renderer{newEngine: factory, cfg: cfg, logger: logger}
}

// Render produces PDF bytes for the markup the source yields. On success the
// bytes are non-empty; on failure no partial output is returned and the error
// is EUNAVAILABLE for pipeline faults, or the source's own error for
// non-retryable request faults (bad template, missing records).
func (r *Renderer) Render(ctx context.Context, source DocumentSource) ([]byte, error) {
	var out []byte
	attempt := 0

	op := func() error {
		attempt++
		data, err := r.renderOnce(ctx, source)
		if err != nil {
			if domain.IsCode(err, domain.ENOTFOUND) {
				// Document not yet queryable: the only retryable class.
				r.logger.Warn().Err(err).Int("attempt", attempt).Msg("document not yet available")
				return err
			}
			return backoff.Permanent(err)
		}
		out = data
		return nil
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(r.cfg.Delay), uint64(r.cfg.Attempts-1)),
		ctx,
	)
	if err := backoff.Retry(op, policy); err != nil {
		if domain.IsCode(err, domain.ENOTFOUND) {
			return nil, domain.WrapError(err, domain.EUNAVAILABLE, "pdf.render",
				fmt.Sprintf("document still unavailable after %d attempts", r.cfg.Attempts))
		}
		return nil, err
	}

	return out, nil
}

// renderOnce performs a single attempt with a freshly acquired engine. The
// engine is released on every exit path.
func (r *Renderer) renderOnce(ctx context.Context, source DocumentSource) ([]byte, error) {
	doc, err := source(ctx)
	if err != nil {
		return nil, err
	}

	engine, err := r.newEngine()
	if err != nil {
		return nil, domain.WrapError(err, domain.EUNAVAILABLE, "pdf.render", "failed to acquire rendering engine")
	}
	defer func() {
		if cerr := engine.Close(); cerr != nil {
			r.logger.Error().Err(cerr).Msg("engine teardown failed")
		}
	}()

	data, err := engine.Render(ctx, doc)
	if err != nil {
		return nil, domain.WrapError(err, domain.EUNAVAILABLE, "pdf.render", "engine render failed")
	}
	if len(data) == 0 {
		return nil, domain.Errorf(domain.EUNAVAILABLE, "pdf.render", "engine produced an empty document")
	}

	return data, nil
}
