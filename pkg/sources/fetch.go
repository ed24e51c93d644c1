package sources

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"
	"github.com/rubiojr/basket/pkg/core"
	"github.com/rubiojr/basket/pkg/version"
)

// FetchDocument downloads a server-rendered page and parses it. The request
// is cancelled with ctx.
func FetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	c := colly.NewCollector(
		colly.UserAgent(version.UserAgent()),
		colly.MaxDepth(1),
		colly.AllowURLRevisit(),
	)
	c.Context = ctx
	if deadline, ok := ctx.Deadline(); ok {
		c.SetRequestTimeout(time.Until(deadline))
	}

	var (
		doc      *goquery.Document
		parseErr error
		fetchErr error
	)
	c.OnResponse(func(r *colly.Response) {
		doc, parseErr = goquery.NewDocumentFromReader(bytes.NewReader(r.Body))
	})
	c.OnError(func(r *colly.Response, err error) {
		if r != nil && r.StatusCode != 0 {
			fetchErr = fmt.Errorf("GET %s: %d %s: %w", pageURL, r.StatusCode, http.StatusText(r.StatusCode), err)
			return
		}
		fetchErr = fmt.Errorf("GET %s: %w", pageURL, err)
	})

	if err := c.Visit(pageURL); err != nil && fetchErr == nil {
		fetchErr = fmt.Errorf("GET %s: %w", pageURL, err)
	}
	c.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if fetchErr != nil {
		return nil, fetchErr
	}
	if parseErr != nil {
		return nil, fmt.Errorf("parsing %s: %w", pageURL, parseErr)
	}
	if doc == nil {
		return nil, fmt.Errorf("GET %s: empty response", pageURL)
	}
	return doc, nil
}

// StaticAdapter searches providers whose result pages are plain HTML. It
// holds no resources between calls.
type StaticAdapter struct {
	SearchURL func(query string) string
	Parse     func(doc *goquery.Document) []core.ProductRecord
}

func (a *StaticAdapter) Search(ctx context.Context, q core.Query) ([]core.ProductRecord, error) {
	doc, err := FetchDocument(ctx, a.SearchURL(q.Text))
	if err != nil {
		return nil, err
	}
	return a.Parse(doc), nil
}

func (a *StaticAdapter) Close() error {
	return nil
}
