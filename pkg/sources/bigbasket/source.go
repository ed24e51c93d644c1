// Package bigbasket searches bigbasket.com. Result pages are rendered
// client side, so searches run in a browser session.
package bigbasket

import (
	"context"
	"net/url"

	"github.com/rubiojr/basket/pkg/core"
	"github.com/rubiojr/basket/pkg/log"
	"github.com/rubiojr/basket/pkg/sources"
	"github.com/rubiojr/basket/pkg/sources/browser"
)

const (
	sourceType = "bigbasket"
	platform   = "BigBasket"
	siteURL    = "https://www.bigbasket.com"
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
	session, err := sources.OpenBrowser(ctx, s.Config())
	if err != nil {
		return nil, err
	}
	return &adapter{
		session: session,
		config:  s.Config(),
		logger:  log.ForService("sources").Named(s.Name()),
	}, nil
}

// SearchURL returns the product search page for query.
func SearchURL(base, query string) string {
	return base + "/ps/?q=" + url.QueryEscape(query) + "&nc=as"
}

type adapter struct {
	session *browser.Session
	config  *sources.Config
	logger  *log.Logger
}

func (a *adapter) Search(ctx context.Context, q core.Query) ([]core.ProductRecord, error) {
	doc, err := sources.LoadResults(a.session, a.config, SearchURL(a.config.URL(siteURL), q.Text), cardSelector)
	if err != nil {
		return nil, err
	}
	records := Parse(doc, a.config.MaxProducts)
	a.logger.Debugf("%d products for %q", len(records), q.Text)
	return records, nil
}

func (a *adapter) Close() error {
	return a.session.Close()
}
