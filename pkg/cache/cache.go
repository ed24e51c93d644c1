// Package cache persists completed searches and answers new queries from
// earlier related ones.
//
// Each live search is stored as one SearchRecord under `search:<timestamp>`.
// Lookups scan every such key, so the cost of FindRelated grows with the
// number of stored searches.
package cache

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"github.com/rubiojr/basket/pkg/core"
	"github.com/rubiojr/basket/pkg/log"
	"github.com/rubiojr/basket/pkg/matcher"
	"github.com/rubiojr/basket/pkg/store"
)

// KeyPrefix prefixes every search record key.
const KeyPrefix = "search:"

// Cache is the result cache over a key/value store.
type Cache struct {
	store  store.Store
	maxAge time.Duration
	now    func() time.Time
	logger *log.Logger
}

// Option configures a Cache.
type Option func(*Cache)

// WithMaxAge makes lookups ignore records older than d. Zero disables the
// limit. Nothing is deleted.
func WithMaxAge(d time.Duration) Option {
	return func(c *Cache) { c.maxAge = d }
}

// WithClock overrides the clock used for the max age check.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

func New(st store.Store, opts ...Option) *Cache {
	c := &Cache{
		store:  st,
		now:    time.Now,
		logger: log.ForService("cache"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Key returns the store key for a record.
func Key(rec core.SearchRecord) string {
	return KeyPrefix + rec.Timestamp
}

// FindRelated returns the matches of every stored search whose query is
// related to q, concatenated in key order. It returns nil when the
// concatenation is empty, which also covers related searches that found
// nothing.
func (c *Cache) FindRelated(ctx context.Context, q core.Query) (*core.Results, error) {
	records, err := c.all(ctx)
	if err != nil {
		return nil, err
	}

	matches := []core.ProductRecord{}
	related := 0
	for _, rec := range records {
		if c.stale(rec) {
			continue
		}
		if !matcher.Related(q.Text, rec.Query) {
			continue
		}
		related++
		matches = append(matches, rec.Results.Matches...)
	}

	c.logger.Debugf("%q matched %d of %d stored searches", q.Text, related, len(records))
	if len(matches) == 0 {
		return nil, nil
	}
	return &core.Results{Matches: matches}, nil
}

// Recent returns up to n records, newest first. It returns an empty slice
// when nothing is stored.
func (c *Cache) Recent(ctx context.Context, n int) ([]core.SearchRecord, error) {
	records, err := c.all(ctx)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Timestamp > records[j].Timestamp
	})
	if n >= 0 && len(records) > n {
		records = records[:n]
	}
	return records, nil
}

// Store writes rec under its timestamp key. A record written in the same
// microsecond as another replaces it.
func (c *Cache) Store(ctx context.Context, rec core.SearchRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return &core.StoreError{Op: "encode", Err: err}
	}
	if err := c.store.Set(ctx, Key(rec), string(data)); err != nil {
		return &core.StoreError{Op: "set", Err: err}
	}
	c.logger.Debugf("stored %q with %d matches at %s", rec.Query, len(rec.Results.Matches), rec.Timestamp)
	return nil
}

// all loads every decodable record in key order.
func (c *Cache) all(ctx context.Context) ([]core.SearchRecord, error) {
	keys, err := c.store.Keys(ctx, KeyPrefix+"*")
	if err != nil {
		return nil, &core.StoreError{Op: "keys", Err: err}
	}

	records := make([]core.SearchRecord, 0, len(keys))
	for _, key := range keys {
		raw, ok, err := c.store.Get(ctx, key)
		if err != nil {
			return nil, &core.StoreError{Op: "get", Err: err}
		}
		if !ok {
			// removed between Keys and Get
			continue
		}

		var rec core.SearchRecord
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			c.logger.Warnf("skipping undecodable record %s: %v", key, err)
			continue
		}
		for i := range rec.Results.Matches {
			rec.Results.Matches[i].Normalize()
		}
		if rec.Results.Matches == nil {
			rec.Results.Matches = []core.ProductRecord{}
		}
		records = append(records, rec)
	}
	return records, nil
}

func (c *Cache) stale(rec core.SearchRecord) bool {
	if c.maxAge <= 0 {
		return false
	}
	t, err := rec.Time()
	if err != nil {
		c.logger.Warnf("record %q has unparseable timestamp %q", rec.Query, rec.Timestamp)
		return false
	}
	return c.now().Sub(t) > c.maxAge
}
