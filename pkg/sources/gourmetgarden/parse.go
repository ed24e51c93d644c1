package gourmetgarden

import (
	"github.com/PuerkitoBio/goquery"
	"github.com/rubiojr/basket/pkg/core"
	"github.com/rubiojr/basket/pkg/sources"
)

const (
	cardSelector   = ".card__info"
	nameSelector   = ".card__title"
	priceSelector  = ".product__price--sale"
	weightSelector = ".swatch--active"
	cartSelector   = ".button--addToCart"
)

// Parse extracts up to max products from a search results page.
func Parse(doc *goquery.Document, max int) []core.ProductRecord {
	return sources.ParseCards(doc, cardSelector, max, func(card *goquery.Selection) core.ProductRecord {
		return core.ProductRecord{
			Name:         sources.Text(card, nameSelector),
			Price:        sources.CleanPrice(sources.Text(card, priceSelector), "₹"),
			Weight:       sources.Text(card, weightSelector),
			Availability: sources.StockFromButton(card, cartSelector),
		}
	})
}
