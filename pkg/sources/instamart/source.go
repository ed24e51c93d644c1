// Package instamart searches Swiggy Instamart. The delivery address is set
// on swiggy.com before the Instamart search page is opened.
package instamart

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/rubiojr/basket/pkg/core"
	"github.com/rubiojr/basket/pkg/log"
	"github.com/rubiojr/basket/pkg/sources"
	"github.com/rubiojr/basket/pkg/sources/browser"
)

const (
	sourceType = "instamart"
	platform   = "Instamart"
	siteURL    = "https://www.swiggy.com"
)

const (
	locationInput   = "input[id='location']"
	firstSuggestion = "div[class*='BgUI']:nth-of-type(2) span[class*='OORn']"
	settleDelay     = time.Second
)

func init() {
	core.RegisterSourcePrototype(sourceType, &Source{Base: &sources.Base{}})
}

type Source struct {
	*sources.Base
}

func (s *Source) Type() string           { return sourceType }
func (s *Source) Platform() string       { return platform }
func (s *Source) RequiresLocation() bool { return true }

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

// SearchURL returns the Instamart search page for query.
func SearchURL(base, query string) string {
	return base + "/instamart/search?custom_back=true&query=" + url.QueryEscape(query)
}

type adapter struct {
	session *browser.Session
	config  *sources.Config
	logger  *log.Logger
}

// ConfigureLocation types location into the swiggy.com address box and picks
// the first suggestion.
func (a *adapter) ConfigureLocation(ctx context.Context, location, pincode string) error {
	if err := a.session.Navigate(a.config.URL(siteURL)); err != nil {
		return err
	}
	if err := a.session.Type(locationInput, location, true); err != nil {
		return fmt.Errorf("entering location: %w", err)
	}
	if err := a.session.Click(firstSuggestion); err != nil {
		return fmt.Errorf("selecting location: %w", err)
	}
	a.logger.Debugf("location set to %s", location)
	return a.session.Sleep(settleDelay)
}

func (a *adapter) Search(ctx context.Context, q core.Query) ([]core.ProductRecord, error) {
	// Opening the storefront first binds the chosen address to the
	// Instamart session.
	if err := a.session.Navigate(a.config.URL(siteURL) + "/instamart"); err != nil {
		return nil, err
	}
	doc, err := sources.LoadResults(a.session, a.config, SearchURL(a.config.URL(siteURL), q.Text), cardSelector)
	if err != nil {
		return nil, err
	}
	return Parse(doc, a.config.MaxProducts), nil
}

func (a *adapter) Close() error {
	return a.session.Close()
}
