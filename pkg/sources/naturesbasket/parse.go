package naturesbasket

import (
	"github.com/PuerkitoBio/goquery"
	"github.com/rubiojr/basket/pkg/core"
	"github.com/rubiojr/basket/pkg/sources"
)

const (
	cardSelector   = `div[class*="pro-id_"]`
	nameSelector   = ".search_Ptitle"
	priceSelector  = ".search_PSellingP"
	weightSelector = ".search_PSelectedSize"
)

// Parse extracts up to max products from a search results page. The site
// doesn't show stock on result cards, so availability is always N/A.
func Parse(doc *goquery.Document, max int) []core.ProductRecord {
	return sources.ParseCards(doc, cardSelector, max, func(card *goquery.Selection) core.ProductRecord {
		return core.ProductRecord{
			Name:         sources.Text(card, nameSelector),
			Price:        sources.CleanPrice(sources.Text(card, priceSelector), "MRP "),
			Weight:       sources.Text(card, weightSelector),
			Availability: core.NotAvailable,
		}
	})
}
