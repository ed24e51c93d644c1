// Package sources holds what the grocery providers under pkg/sources/...
// have in common: their configuration, instance bookkeeping, static page
// fetching and card parsing helpers.
//
// Each provider lives in its own package and registers itself in init():
//
//	import _ "github.com/rubiojr/basket/pkg/sources/zepto"
//
// Example configuration:
//
//	[sources.zepto]
//	type = "zepto"
//	timeout = "90s"
//	[sources.zepto.config]
//	max_products = 3
//	headless = true
package sources

import (
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rubiojr/basket/pkg/config"
	"github.com/rubiojr/basket/pkg/core"
)

// DefaultMaxProducts is how many cards a provider keeps per search.
const DefaultMaxProducts = 3

// DefaultResultsWait bounds how long a page is given to render its first
// product card before the search is treated as empty.
const DefaultResultsWait = 15 * time.Second

// Config is the provider configuration shared by every source type.
type Config struct {
	MaxProducts int `toml:"max_products"`
	// Headless runs the browser without a window. Defaults to true.
	Headless *bool `toml:"headless,omitempty"`
	// ChromePath overrides the browser executable.
	ChromePath string `toml:"chrome_path"`
	// BaseURL overrides the provider site, mostly useful in tests.
	BaseURL     string          `toml:"base_url"`
	ResultsWait config.Duration `toml:"results_wait"`
}

// Validate fills in defaults.
func (c *Config) Validate() error {
	if c.MaxProducts < 0 {
		return fmt.Errorf("max_products must not be negative")
	}
	if c.MaxProducts == 0 {
		c.MaxProducts = DefaultMaxProducts
	}
	if c.ResultsWait.Duration <= 0 {
		c.ResultsWait = config.Duration{Duration: DefaultResultsWait}
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	return nil
}

// IsHeadless reports whether the browser should run without a window.
func (c *Config) IsHeadless() bool {
	return c.Headless == nil || *c.Headless
}

// URL returns BaseURL when set, def otherwise.
func (c *Config) URL(def string) string {
	if c.BaseURL != "" {
		return c.BaseURL
	}
	return def
}

// Base implements the instance bookkeeping part of core.Source.
type Base struct {
	instanceName string
	config       *Config
	timeout      time.Duration
}

// NewBase validates cfg, which may be nil or a *Config.
func NewBase(instanceName string, cfg any) (*Base, error) {
	c := &Config{}
	if cfg != nil {
		var ok bool
		c, ok = cfg.(*Config)
		if !ok {
			return nil, fmt.Errorf("invalid config type %T", cfg)
		}
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &Base{
		instanceName: instanceName,
		config:       c,
		timeout:      config.DefaultSourceTimeout,
	}, nil
}

func (b *Base) Name() string {
	return b.instanceName
}

func (b *Base) Timeout() time.Duration {
	return b.timeout
}

// SetTimeout implements core.TimeoutSetter.
func (b *Base) SetTimeout(d time.Duration) {
	if d > 0 {
		b.timeout = d
	}
}

func (b *Base) ConfigType() any {
	return &Config{}
}

func (b *Base) SetConfig(cfg any) error {
	c, ok := cfg.(*Config)
	if !ok {
		return fmt.Errorf("invalid config type %T", cfg)
	}
	if err := c.Validate(); err != nil {
		return err
	}
	b.config = c
	return nil
}

func (b *Base) GetConfig() any {
	return b.config
}

// Config returns the typed configuration.
func (b *Base) Config() *Config {
	return b.config
}

// Text returns the trimmed text of the first element matching selector
// inside s, or "" when there is none.
func Text(s *goquery.Selection, selector string) string {
	return strings.Join(strings.Fields(s.Find(selector).First().Text()), " ")
}

// Exists reports whether selector matches inside s.
func Exists(s *goquery.Selection, selector string) bool {
	return s.Find(selector).Length() > 0
}

// StockFromButton maps an add-to-cart button to a stock label: missing
// button means unknown, a disabled one means out of stock.
func StockFromButton(s *goquery.Selection, selector string) string {
	btn := s.Find(selector).First()
	if btn.Length() == 0 {
		return core.NotAvailable
	}
	if _, disabled := btn.Attr("disabled"); disabled || btn.HasClass("disabled") {
		return "Out of Stock"
	}
	return "In Stock"
}

// ParseCards applies parse to at most max elements matching cardSelector
// and returns the normalized records. Cards without a name are skipped.
func ParseCards(doc *goquery.Document, cardSelector string, max int, parse func(card *goquery.Selection) core.ProductRecord) []core.ProductRecord {
	records := []core.ProductRecord{}
	doc.Find(cardSelector).EachWithBreak(func(_ int, card *goquery.Selection) bool {
		if max > 0 && len(records) >= max {
			return false
		}
		rec := parse(card)
		if strings.TrimSpace(rec.Name) == "" {
			return true
		}
		rec.Normalize()
		records = append(records, rec)
		return true
	})
	return records
}

// CleanPrice removes currency markers from a price label.
func CleanPrice(price string, markers ...string) string {
	for _, m := range markers {
		price = strings.ReplaceAll(price, m, "")
	}
	return strings.TrimSpace(price)
}
