package zepto

import (
	"github.com/PuerkitoBio/goquery"
	"github.com/rubiojr/basket/pkg/core"
	"github.com/rubiojr/basket/pkg/sources"
)

const (
	cardSelector   = "a[data-testid='product-card']"
	nameSelector   = "h5[data-testid='product-card-name']"
	weightSelector = "span[data-testid='product-card-quantity'] h4"
	priceSelector  = "h4[data-testid='product-card-price']"
	addSelector    = "button[data-testid='product-card-add-btn']"
)

// Parse extracts up to max products from a search results page. Cards
// without an add button are sold out.
func Parse(doc *goquery.Document, max int) []core.ProductRecord {
	return sources.ParseCards(doc, cardSelector, max, func(card *goquery.Selection) core.ProductRecord {
		availability := "Not Available"
		if sources.Exists(card, addSelector) {
			availability = "Available"
		}
		return core.ProductRecord{
			Name:         sources.Text(card, nameSelector),
			Weight:       sources.Text(card, weightSelector),
			Price:        sources.Text(card, priceSelector),
			Availability: availability,
		}
	})
}
