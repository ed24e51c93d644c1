package healthybuddha

import (
	"github.com/PuerkitoBio/goquery"
	"github.com/rubiojr/basket/pkg/core"
	"github.com/rubiojr/basket/pkg/sources"
)

const (
	cardSelector   = ".product-block"
	nameSelector   = ".name a"
	priceSelector  = ".special-price"
	weightSelector = ".price-qty"
	cartSelector   = ".button-cart"
)

// Parse extracts up to max products from a search results page.
func Parse(doc *goquery.Document, max int) []core.ProductRecord {
	return sources.ParseCards(doc, cardSelector, max, func(card *goquery.Selection) core.ProductRecord {
		return core.ProductRecord{
			Name:         sources.Text(card, nameSelector),
			Price:        sources.CleanPrice(sources.Text(card, priceSelector), "Rs"),
			Weight:       sources.Text(card, weightSelector),
			Availability: sources.StockFromButton(card, cartSelector),
		}
	})
}
