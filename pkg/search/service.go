package search

import (
	"context"
	"time"

	"github.com/rubiojr/basket/pkg/core"
	"github.com/rubiojr/basket/pkg/log"
	"github.com/rubiojr/basket/pkg/relevance"
)

// Response sources.
const (
	SourceCache   = "cache"
	SourceScraper = "scraper"
)

// DefaultRecentLimit is the number of searches Recent returns by default.
const DefaultRecentLimit = 10

// ResultCache is the part of cache.Cache the service needs.
type ResultCache interface {
	FindRelated(ctx context.Context, q core.Query) (*core.Results, error)
	Recent(ctx context.Context, n int) ([]core.SearchRecord, error)
	Store(ctx context.Context, rec core.SearchRecord) error
}

// Aggregator fetches live results from the sources.
type Aggregator interface {
	Aggregate(ctx context.Context, q core.Query) []core.ProductRecord
}

// Publisher is notified of every newly stored search.
type Publisher interface {
	PublishSearch(rec core.SearchRecord)
}

// Response is the outcome of a search.
type Response struct {
	Query   core.Query
	Results core.Results
	// Source is SourceCache or SourceScraper.
	Source string
}

// Service runs searches. It is safe for concurrent use. Two concurrent
// misses for related queries both fetch and both store.
type Service struct {
	cache       ResultCache
	aggregator  Aggregator
	filter      relevance.Filter
	publisher   Publisher
	now         func() time.Time
	recentLimit int
	logger      *log.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the clock used to timestamp stored searches.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithPublisher announces stored searches to p.
func WithPublisher(p Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

// WithRecentLimit sets how many searches Recent returns when asked for n <= 0.
func WithRecentLimit(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.recentLimit = n
		}
	}
}

// NewService builds a Service. A nil filter keeps every aggregated product.
func NewService(cache ResultCache, aggregator Aggregator, filter relevance.Filter, opts ...Option) *Service {
	if filter == nil {
		filter = relevance.Passthrough{}
	}
	s := &Service{
		cache:       cache,
		aggregator:  aggregator,
		filter:      filter,
		now:         time.Now,
		recentLimit: DefaultRecentLimit,
		logger:      log.ForService("search"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Search answers q from the cache when a related search is stored, and from
// the sources otherwise.
func (s *Service) Search(ctx context.Context, q core.Query) (*Response, error) {
	q = core.NewQuery(q.Text, q.Location, q.Pincode)
	if err := q.Validate(); err != nil {
		return nil, err
	}

	cached, err := s.cache.FindRelated(ctx, q)
	if err != nil {
		return nil, err
	}
	if cached != nil {
		s.logger.Infof("found cached results for %q", q.Text)
		return &Response{
			Query:   q,
			Results: core.Results{Matches: stamp(cached.Matches, q)},
			Source:  SourceCache,
		}, nil
	}

	s.logger.Infof("no cached results for %q, querying sources", q.Text)
	start := s.now()
	products := s.aggregator.Aggregate(ctx, q)
	matches := stamp(s.filter.Filter(ctx, products, q), q)

	rec := core.NewSearchRecord(q, matches, s.now())
	if err := s.cache.Store(ctx, rec); err != nil {
		return nil, err
	}
	s.logger.Infof("stored %d of %d products for %q in %s", len(matches), len(products), q.Text, s.now().Sub(start).Round(time.Millisecond))

	if s.publisher != nil {
		s.publisher.PublishSearch(rec)
	}

	return &Response{
		Query:   q,
		Results: rec.Results,
		Source:  SourceScraper,
	}, nil
}

// Recent returns the products of the n most recent searches, newest search
// first, each stamped with the query it was found for. n <= 0 uses the
// configured limit.
func (s *Service) Recent(ctx context.Context, n int) ([]core.ProductRecord, error) {
	if n <= 0 {
		n = s.recentLimit
	}

	records, err := s.cache.Recent(ctx, n)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, core.ErrNoResults
	}

	products := []core.ProductRecord{}
	for _, rec := range records {
		q := core.Query{Text: rec.Query, Location: rec.Location, Pincode: rec.Pincode}
		products = append(products, stamp(rec.Results.Matches, q)...)
	}
	s.logger.Debugf("returning %d products from %d recent searches", len(products), len(records))
	return products, nil
}

// stamp returns a copy of records carrying q's provenance.
func stamp(records []core.ProductRecord, q core.Query) []core.ProductRecord {
	out := make([]core.ProductRecord, len(records))
	for i, r := range records {
		r.Stamp(q)
		out[i] = r
	}
	return out
}
