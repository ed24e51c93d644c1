// Package zepto searches zeptonow.com. Zepto needs a delivery address before
// it shows a catalogue, so the source requires a location.
package zepto

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/rubiojr/basket/pkg/core"
	"github.com/rubiojr/basket/pkg/log"
	"github.com/rubiojr/basket/pkg/sources"
	"github.com/rubiojr/basket/pkg/sources/browser"
)

const (
	sourceType = "zepto"
	platform   = "Zepto"
	siteURL    = "https://www.zeptonow.com"
)

// Location picker, located by XPath as it has no stable attributes.
const (
	selectLocation = `//span[contains(text(), 'Select Location')]`
	addressInput   = `//input[contains(@class, 'focus')]`
	firstAddress   = `(//div[@data-testid='address-search-item'])[1]//h4`
	confirmAddress = `//button[@aria-label='Confirm Action']`
)

const (
	scrollRounds = 3
	scrollPause  = time.Second
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
	return base + "/search?query=" + url.QueryEscape(query)
}

type adapter struct {
	session *browser.Session
	config  *sources.Config
	logger  *log.Logger
}

// ConfigureLocation selects the first address Zepto suggests for location.
func (a *adapter) ConfigureLocation(ctx context.Context, location, pincode string) error {
	if err := a.session.Navigate(a.config.URL(siteURL)); err != nil {
		return err
	}

	steps := []struct {
		what string
		run  func() error
	}{
		{"opening location picker", func() error { return a.session.Click(selectLocation, chromedp.BySearch) }},
		{"entering location", func() error { return a.session.Type(addressInput, location, false, chromedp.BySearch) }},
		{"selecting address", func() error { return a.session.Click(firstAddress, chromedp.BySearch) }},
		{"confirming address", func() error { return a.session.Click(confirmAddress, chromedp.BySearch) }},
	}
	for _, step := range steps {
		if err := step.run(); err != nil {
			return fmt.Errorf("%s: %w", step.what, err)
		}
	}

	a.logger.Debugf("location set to %s", location)
	return nil
}

func (a *adapter) Search(ctx context.Context, q core.Query) ([]core.ProductRecord, error) {
	doc, err := sources.LoadResults(a.session, a.config, SearchURL(a.config.URL(siteURL), q.Text), cardSelector)
	if err != nil {
		return nil, err
	}

	if n := doc.Find(cardSelector).Length(); n > 0 && n < a.config.MaxProducts {
		if err := a.session.ScrollToBottom(scrollRounds, scrollPause); err != nil {
			return nil, err
		}
		if doc, err = a.session.Document(); err != nil {
			return nil, err
		}
	}

	return Parse(doc, a.config.MaxProducts), nil
}

func (a *adapter) Close() error {
	return a.session.Close()
}
