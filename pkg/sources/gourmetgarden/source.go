// Package gourmetgarden searches gourmetgarden.in, a Shopify storefront.
package gourmetgarden

import (
	"context"
	"net/url"

	"github.com/PuerkitoBio/goquery"
	"github.com/rubiojr/basket/pkg/core"
	"github.com/rubiojr/basket/pkg/sources"
)

const (
	sourceType = "gourmetgarden"
	platform   = "GourmetGarden"
	siteURL    = "https://gourmetgarden.in"
)

func init() {
	core.RegisterSourcePrototype(sourceType, &Source{Base: &sources.Base{}})
}

type Source struct {
	*sources.Base
}

func (s *Source) Type() string           { return sourceType }
func (s *Source) Platform() string       { return platform }
func (s *Source) RequiresLocation() bool { return false }

func (s *Source) Factory(instanceName string, config any) (core.Source, error) {
	base, err := sources.NewBase(instanceName, config)
	if err != nil {
		return nil, err
	}
	return &Source{Base: base}, nil
}

func (s *Source) Open(ctx context.Context) (core.Adapter, error) {
	cfg := s.Config()
	return &sources.StaticAdapter{
		SearchURL: func(query string) string {
			return cfg.URL(siteURL) + "/search?q=" + url.QueryEscape(query)
		},
		Parse: func(doc *goquery.Document) []core.ProductRecord {
			return Parse(doc, cfg.MaxProducts)
		},
	}, nil
}
