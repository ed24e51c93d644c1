// Package relevance narrows aggregated products to the ones that actually
// match the query, using a language model.
//
// Filtering is best effort. Any failure (rate limiter, model error, a reply
// without usable JSON) returns the input unchanged.
package relevance

import (
	"context"
	"time"

	"github.com/rubiojr/basket/pkg/core"
	"github.com/rubiojr/basket/pkg/log"
	"github.com/tmc/langchaingo/llms"
	"golang.org/x/time/rate"
)

// Filter narrows records to those relevant to q.
type Filter interface {
	Filter(ctx context.Context, records []core.ProductRecord, q core.Query) []core.ProductRecord
}

// Passthrough returns records unchanged. Used when relevance filtering is
// disabled.
type Passthrough struct{}

func (Passthrough) Filter(_ context.Context, records []core.ProductRecord, _ core.Query) []core.ProductRecord {
	return records
}

// LLMFilter asks a model which records match the query.
type LLMFilter struct {
	model   llms.Model
	limiter *rate.Limiter
	logger  *log.Logger
}

// Option configures an LLMFilter.
type Option func(*LLMFilter)

// WithRequestsPerMinute limits how often the model is called.
func WithRequestsPerMinute(n int) Option {
	return func(f *LLMFilter) {
		if n > 0 {
			f.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(n)), 1)
		}
	}
}

// WithLimiter sets the limiter waited on before each call.
func WithLimiter(l *rate.Limiter) Option {
	return func(f *LLMFilter) { f.limiter = l }
}

func NewLLMFilter(model llms.Model, opts ...Option) *LLMFilter {
	f := &LLMFilter{
		model:   model,
		limiter: rate.NewLimiter(rate.Inf, 1),
		logger:  log.ForService("relevance"),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Filter makes one model call and returns the records it kept. An empty
// input makes no call.
func (f *LLMFilter) Filter(ctx context.Context, records []core.ProductRecord, q core.Query) []core.ProductRecord {
	if len(records) == 0 {
		return records
	}

	prompt, err := RenderPrompt(q.Text, records)
	if err != nil {
		f.logger.Warnf("rendering prompt: %v, keeping %d products", err, len(records))
		return records
	}

	if err := f.limiter.Wait(ctx); err != nil {
		f.logger.Warnf("rate limiter: %v, keeping %d products", err, len(records))
		return records
	}

	start := time.Now()
	reply, err := llms.GenerateFromSinglePrompt(ctx, f.model, prompt, llms.WithTemperature(0))
	if err != nil {
		f.logger.Warnf("model call failed: %v, keeping %d products", err, len(records))
		return records
	}
	f.logger.Debugf("model replied in %s (%d bytes)", time.Since(start), len(reply))

	filtered, err := ExtractMatches(reply)
	if err != nil {
		f.logger.Warnf("unusable model reply: %v, keeping %d products", err, len(records))
		return records
	}

	for i := range filtered {
		filtered[i].Normalize()
	}
	f.logger.Infof("kept %d of %d products for %q", len(filtered), len(records), q.Text)
	return filtered
}
