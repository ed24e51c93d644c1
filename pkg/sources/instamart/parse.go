package instamart

import (
	"github.com/PuerkitoBio/goquery"
	"github.com/rubiojr/basket/pkg/core"
	"github.com/rubiojr/basket/pkg/sources"
)

const (
	cardSelector     = "div.XjYJe"
	nameSelector     = "div.novMV"
	priceSelector    = "div.sc-aXZVg.ihMJwf.JZGfZ"
	weightSelector   = "div.sc-aXZVg.entQHA"
	deliverySelector = "div.sc-aXZVg.giKYGQ.GOJ8s"
)

// Parse extracts up to max products from a search results page. Instamart
// shows a delivery estimate instead of stock, which is reported as the
// availability.
func Parse(doc *goquery.Document, max int) []core.ProductRecord {
	return sources.ParseCards(doc, cardSelector, max, func(card *goquery.Selection) core.ProductRecord {
		return core.ProductRecord{
			Name:         sources.Text(card, nameSelector),
			Price:        sources.Text(card, priceSelector),
			Weight:       sources.Text(card, weightSelector),
			Availability: sources.Text(card, deliverySelector),
		}
	})
}
