// Package blinkit searches blinkit.com. Blinkit only lists products once a
// delivery locality is chosen, so the source requires a location.
package blinkit

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/chromedp/chromedp/kb"
	"github.com/rubiojr/basket/pkg/core"
	"github.com/rubiojr/basket/pkg/log"
	"github.com/rubiojr/basket/pkg/sources"
	"github.com/rubiojr/basket/pkg/sources/browser"
)

const (
	sourceType = "blinkit"
	platform   = "Blinkit"
	siteURL    = "https://blinkit.com"
)

const (
	localityInput      = "input[name='select-locality']"
	localitySuggestion = "div[class*='LocationSearchList']"
	settleDelay        = 2 * time.Second
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

// SearchURL returns the product search page for query.
func SearchURL(base, query string) string {
	return base + "/s/?q=" + url.QueryEscape(query)
}

type adapter struct {
	session *browser.Session
	config  *sources.Config
	logger  *log.Logger
}

// ConfigureLocation picks the first locality Blinkit suggests for location.
func (a *adapter) ConfigureLocation(ctx context.Context, location, pincode string) error {
	if err := a.session.Navigate(a.config.URL(siteURL)); err != nil {
		return err
	}
	// The suggestion list only refreshes on key events after the last
	// character, hence the trailing space and backspace.
	if err := a.session.Type(localityInput, location+" "+kb.Backspace, false); err != nil {
		return fmt.Errorf("setting location: %w", err)
	}
	if err := a.session.Click(localitySuggestion); err != nil {
		return fmt.Errorf("selecting location: %w", err)
	}
	a.logger.Debugf("location set to %s", location)
	return a.session.Sleep(settleDelay)
}

func (a *adapter) Search(ctx context.Context, q core.Query) ([]core.ProductRecord, error) {
	doc, err := sources.LoadResults(a.session, a.config, SearchURL(a.config.URL(siteURL), q.Text), cardSelector)
	if err != nil {
		return nil, err
	}
	return Parse(doc, a.config.MaxProducts), nil
}

func (a *adapter) Close() error {
	return a.session.Close()
}
