package sources

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rubiojr/basket/pkg/sources/browser"
)

// OpenBrowser starts a browser session configured from cfg.
func OpenBrowser(ctx context.Context, cfg *Config) (*browser.Session, error) {
	return browser.NewSession(ctx, browser.Options{
		Headless: cfg.IsHeadless(),
		ExecPath: cfg.ChromePath,
	})
}

// LoadResults navigates to pageURL and waits for the first element matching
// cardSelector. A page that never shows a card yields an empty document
// rather than an error, so "no products" is not reported as a failure.
func LoadResults(s *browser.Session, cfg *Config, pageURL, cardSelector string) (*goquery.Document, error) {
	if err := s.Navigate(pageURL); err != nil {
		return nil, err
	}
	return WaitResults(s, cfg, cardSelector)
}

// WaitResults waits for cardSelector on the current page and returns its DOM.
func WaitResults(s *browser.Session, cfg *Config, cardSelector string) (*goquery.Document, error) {
	found, err := s.WaitFor(cardSelector, cfg.ResultsWait.Duration)
	if err != nil {
		return nil, err
	}
	if !found {
		return goquery.NewDocumentFromReader(emptyPage())
	}
	return s.Document()
}

func emptyPage() *strings.Reader {
	return strings.NewReader("<html><body></body></html>")
}
