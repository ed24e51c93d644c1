// Package aggregator fans a query out to every configured source and merges
// whatever the healthy ones return.
package aggregator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rubiojr/basket/pkg/core"
	"github.com/rubiojr/basket/pkg/log"
	"golang.org/x/sync/errgroup"
)

// DefaultMaxParallel bounds concurrent source sessions when no limit is set.
const DefaultMaxParallel = 4

// SourceLister is the part of core.Registry the aggregator needs.
type SourceLister interface {
	Sources() []core.Source
}

// Outcome is the result of querying a single source.
type Outcome struct {
	Source   string
	Platform string
	Records  []core.ProductRecord
	Err      error
	Elapsed  time.Duration
}

// OK reports whether the source answered.
func (o Outcome) OK() bool {
	return o.Err == nil
}

// Aggregator queries sources in parallel.
type Aggregator struct {
	sources     SourceLister
	maxParallel int
	onOutcome   func(Outcome)
	logger      *log.Logger
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithMaxParallel limits how many sources are queried at once.
func WithMaxParallel(n int) Option {
	return func(a *Aggregator) {
		if n > 0 {
			a.maxParallel = n
		}
	}
}

// WithOutcomeCallback calls fn as each source finishes. fn may be called
// from several goroutines at once.
func WithOutcomeCallback(fn func(Outcome)) Option {
	return func(a *Aggregator) { a.onOutcome = fn }
}

func New(sources SourceLister, opts ...Option) *Aggregator {
	a := &Aggregator{
		sources:     sources,
		maxParallel: DefaultMaxParallel,
		logger:      log.ForService("aggregator"),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Aggregate returns the merged records of every source that answered, in
// source order. Failing sources are logged and contribute nothing. The
// result is never nil.
func (a *Aggregator) Aggregate(ctx context.Context, q core.Query) []core.ProductRecord {
	return Merge(a.Collect(ctx, q))
}

// Collect queries the selected sources and returns one Outcome per source,
// in source order. Sources that need a location are left out entirely when
// q has none.
func (a *Aggregator) Collect(ctx context.Context, q core.Query) []Outcome {
	selected := a.selectSources(q)
	outcomes := make([]Outcome, len(selected))

	g := new(errgroup.Group)
	g.SetLimit(a.maxParallel)

	for i, src := range selected {
		g.Go(func() error {
			outcomes[i] = a.run(ctx, src, q)
			if a.onOutcome != nil {
				a.onOutcome(outcomes[i])
			}
			return nil
		})
	}
	// run never returns an error to the group
	_ = g.Wait()

	failed := 0
	for _, o := range outcomes {
		if !o.OK() {
			failed++
			a.logger.Warnf("%v", o.Err)
		}
	}
	a.logger.Infof("queried %d sources for %q, %d failed", len(selected), q.Text, failed)
	return outcomes
}

func (a *Aggregator) selectSources(q core.Query) []core.Source {
	var selected, skipped []core.Source
	for _, src := range a.sources.Sources() {
		if src.RequiresLocation() && !q.HasLocation() {
			skipped = append(skipped, src)
			continue
		}
		selected = append(selected, src)
	}
	for _, src := range skipped {
		a.logger.Debugf("skipping %s: no location given", src.Name())
	}
	return selected
}

// run queries a single source inside its own timeout. Panics are turned into
// a SourceFailure so one broken provider can't take the others down.
func (a *Aggregator) run(ctx context.Context, src core.Source, q core.Query) (out Outcome) {
	start := time.Now()
	out = Outcome{Source: src.Name(), Platform: src.Platform()}

	defer func() {
		if r := recover(); r != nil {
			out.Records = nil
			out.Err = &core.SourceFailure{Source: src.Name(), Err: fmt.Errorf("panic: %v", r)}
		}
		out.Elapsed = time.Since(start)
	}()

	records, err := a.search(ctx, src, q)
	if err != nil {
		out.Err = &core.SourceFailure{Source: src.Name(), Err: err}
		return out
	}

	for i := range records {
		records[i].Normalize()
		records[i].Platform = src.Platform()
	}
	out.Records = records
	a.logger.Debugf("%s returned %d products", src.Name(), len(records))
	return out
}

func (a *Aggregator) search(ctx context.Context, src core.Source, q core.Query) (records []core.ProductRecord, err error) {
	if timeout := src.Timeout(); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	adapter, err := src.Open(ctx)
	if err != nil {
		return nil, fmt.Errorf("opening session: %w", err)
	}
	defer func() {
		if cerr := adapter.Close(); cerr != nil {
			a.logger.Warnf("closing %s session: %v", src.Name(), cerr)
		}
	}()

	if lc, ok := adapter.(core.LocationConfigurer); ok && q.HasLocation() {
		if err := lc.ConfigureLocation(ctx, q.Location, q.Pincode); err != nil {
			return nil, fmt.Errorf("setting location: %w", err)
		}
	}

	records, err = adapter.Search(ctx, q)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("timed out after %s: %w", src.Timeout(), err)
		}
		return nil, err
	}
	return records, nil
}

// Merge concatenates the records of successful outcomes in order.
func Merge(outcomes []Outcome) []core.ProductRecord {
	merged := []core.ProductRecord{}
	for _, o := range outcomes {
		if o.OK() {
			merged = append(merged, o.Records...)
		}
	}
	return merged
}
