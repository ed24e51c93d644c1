// Package naturesbasket searches naturesbasket.co.in through its site search
// box. The delivery pincode, when the query has one, is applied first.
package naturesbasket

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/rubiojr/basket/pkg/core"
	"github.com/rubiojr/basket/pkg/log"
	"github.com/rubiojr/basket/pkg/sources"
	"github.com/rubiojr/basket/pkg/sources/browser"
)

const (
	sourceType = "naturesbasket"
	platform   = "Nature's Basket"
	siteURL    = "https://www.naturesbasket.co.in"
)

const (
	pincodeInput  = "#txt"
	pincodeSubmit = "input#btnAddPin[value='SUBMIT']"
	pincodeOK     = `//*[self::button or self::input or self::a][normalize-space(text())='OK' or @value='OK']`
	searchInput   = "#ctl00_txtMasterSearch1"
	popupWait     = 5 * time.Second
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

type adapter struct {
	session *browser.Session
	config  *sources.Config
	logger  *log.Logger
}

func (a *adapter) Search(ctx context.Context, q core.Query) ([]core.ProductRecord, error) {
	if err := a.session.Navigate(a.config.URL(siteURL)); err != nil {
		return nil, err
	}

	if q.Pincode != "" {
		if err := a.applyPincode(q.Pincode); err != nil {
			return nil, err
		}
	}

	if err := a.session.Type(searchInput, q.Text, true); err != nil {
		return nil, fmt.Errorf("submitting search: %w", err)
	}

	doc, err := sources.WaitResults(a.session, a.config, cardSelector)
	if err != nil {
		return nil, err
	}
	return Parse(doc, a.config.MaxProducts), nil
}

// applyPincode fills the delivery popup. A missing popup is not an error:
// the site only shows it to new visitors.
func (a *adapter) applyPincode(pincode string) error {
	shown, err := a.session.WaitFor(pincodeInput, popupWait)
	if err != nil {
		return err
	}
	if !shown {
		a.logger.Debugf("pincode popup not shown, searching without %s", pincode)
		return nil
	}

	if err := a.session.Type(pincodeInput, pincode, false); err != nil {
		return err
	}
	if err := a.session.Click(pincodeSubmit); err != nil {
		return err
	}

	confirm, err := a.session.WaitFor(pincodeOK, popupWait, chromedp.BySearch)
	if err != nil {
		return err
	}
	if confirm {
		return a.session.Click(pincodeOK, chromedp.BySearch)
	}
	return nil
}

func (a *adapter) Close() error {
	return a.session.Close()
}
