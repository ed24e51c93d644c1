package blinkit

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rubiojr/basket/pkg/core"
	"github.com/rubiojr/basket/pkg/sources"
)

const (
	cardSelector   = "div[data-pf='reset'][role='button']"
	nameSelector   = "div.tw-text-300.tw-font-semibold"
	weightSelector = "div.tw-text-200.tw-font-medium"
	priceSelector  = "div.tw-text-200.tw-font-semibold"
	addSelector    = "div[role='button']"
)

// Parse extracts up to max products from a search results page.
func Parse(doc *goquery.Document, max int) []core.ProductRecord {
	return sources.ParseCards(doc, cardSelector, max, func(card *goquery.Selection) core.ProductRecord {
		return core.ProductRecord{
			Name:         sources.Text(card, nameSelector),
			Weight:       sources.Text(card, weightSelector),
			Price:        sources.Text(card, priceSelector),
			Availability: availability(card),
		}
	})
}

func availability(card *goquery.Selection) string {
	if strings.Contains(strings.ToLower(card.Text()), "out of stock") {
		return "Out of Stock"
	}
	added := false
	card.Find(addSelector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		added = strings.EqualFold(strings.TrimSpace(s.Text()), "add")
		return !added
	})
	if added {
		return "In Stock"
	}
	return core.NotAvailable
}
