// Package catalog provides a source backed by a fixed product list instead
// of a live storefront. It needs no browser or network access, which makes
// it useful for demos, local development and tests of the whole pipeline.
//
// Products are matched against the query with the same fuzzy matcher the
// result cache uses.
//
// Example configuration:
//
//	[sources.pantry]
//	type = "catalog"
//	[sources.pantry.config]
//	platform = "Pantry"
//	file = "/etc/basket/pantry.toml"
//	delay = "200ms"
//
//	[[sources.pantry.config.products]]
//	name = "Amul Taaza Toned Milk"
//	weight = "500 ml"
//	price = "₹27"
//	availability = "In Stock"
package catalog

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/rubiojr/basket/pkg/config"
	"github.com/rubiojr/basket/pkg/core"
	"github.com/rubiojr/basket/pkg/matcher"
	"github.com/rubiojr/basket/pkg/sources"
)

const sourceType = "catalog"

func init() {
	core.RegisterSourcePrototype(sourceType, &Source{Base: &sources.Base{}})
}

type Product struct {
	Name         string `toml:"name"`
	Weight       string `toml:"weight"`
	Price        string `toml:"price"`
	Availability string `toml:"availability"`
}

type Config struct {
	Platform    string    `toml:"platform"`
	MaxProducts int       `toml:"max_products"`
	Products    []Product `toml:"products"`
	// File holds more [[products]] entries, appended to the inline ones.
	File string `toml:"file"`
	// RequiresLocation makes the aggregator skip this source for queries
	// without a location.
	RequiresLocation bool `toml:"requires_location"`
	// Delay is added to every search to mimic a slow storefront.
	Delay config.Duration `toml:"delay"`
	// Fail makes every search return an error with this message.
	Fail string `toml:"fail"`
}

func (c *Config) Validate() error {
	if c.Platform == "" {
		c.Platform = "Catalog"
	}
	if c.MaxProducts < 0 {
		return fmt.Errorf("max_products must not be negative")
	}
	if c.MaxProducts == 0 {
		c.MaxProducts = sources.DefaultMaxProducts
	}
	if c.Delay.Duration < 0 {
		return fmt.Errorf("delay must not be negative")
	}
	return nil
}

type Source struct {
	*sources.Base
	config   *Config
	products []Product
}

func (s *Source) Type() string { return sourceType }

func (s *Source) Platform() string {
	if s.config == nil {
		return "Catalog"
	}
	return s.config.Platform
}

func (s *Source) RequiresLocation() bool {
	return s.config != nil && s.config.RequiresLocation
}

func (s *Source) Factory(instanceName string, cfg any) (core.Source, error) {
	base, err := sources.NewBase(instanceName, nil)
	if err != nil {
		return nil, err
	}
	src := &Source{Base: base}
	if cfg == nil {
		cfg = &Config{}
	}
	if err := src.SetConfig(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return src, nil
}

func (s *Source) ConfigType() any {
	return &Config{}
}

func (s *Source) SetConfig(cfg any) error {
	c, ok := cfg.(*Config)
	if !ok {
		return fmt.Errorf("invalid config type %T", cfg)
	}
	if err := c.Validate(); err != nil {
		return err
	}

	products := append([]Product(nil), c.Products...)
	if c.File != "" {
		more, err := LoadProducts(c.File)
		if err != nil {
			return err
		}
		products = append(products, more...)
	}

	s.config = c
	s.products = products
	return nil
}

func (s *Source) GetConfig() any {
	return s.config
}

func (s *Source) Open(ctx context.Context) (core.Adapter, error) {
	return &adapter{config: s.config, products: s.products}, nil
}

// LoadProducts reads a TOML file of [[products]] tables.
func LoadProducts(path string) ([]Product, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog: %w", err)
	}
	var doc struct {
		Products []Product `toml:"products"`
	}
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing catalog %s: %w", path, err)
	}
	return doc.Products, nil
}

type adapter struct {
	config   *Config
	products []Product
}

func (a *adapter) Search(ctx context.Context, q core.Query) ([]core.ProductRecord, error) {
	if a.config.Delay.Duration > 0 {
		t := time.NewTimer(a.config.Delay.Duration)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-t.C:
		}
	}
	if a.config.Fail != "" {
		return nil, errors.New(a.config.Fail)
	}

	records := []core.ProductRecord{}
	for _, p := range a.products {
		if len(records) >= a.config.MaxProducts {
			break
		}
		if !matcher.Related(q.Text, p.Name) {
			continue
		}
		rec := core.ProductRecord{
			Name:         p.Name,
			Weight:       p.Weight,
			Price:        p.Price,
			Availability: p.Availability,
		}
		rec.Normalize()
		records = append(records, rec)
	}
	return records, nil
}

func (a *adapter) Close() error {
	return nil
}
