package bigbasket

import (
	"github.com/PuerkitoBio/goquery"
	"github.com/rubiojr/basket/pkg/core"
	"github.com/rubiojr/basket/pkg/sources"
)

// The storefront uses generated styled-components class names.
const (
	cardSelector   = "div.SKUDeck___StyledDiv-sc-1e5d9gk-0"
	nameSelector   = "h3.block.m-0.line-clamp-2"
	priceSelector  = "span.Label-sc-15v1nk5-0.Pricing___StyledLabel-sc-pldi2d-1"
	weightSelector = "span.Label-sc-15v1nk5-0.PackChanger___StyledLabel-sc-newjpv-1"
	statusSelector = "span.Label-sc-15v1nk5-0.gJxZPQ"
)

// Parse extracts up to max products from a search results page.
func Parse(doc *goquery.Document, max int) []core.ProductRecord {
	return sources.ParseCards(doc, cardSelector, max, func(card *goquery.Selection) core.ProductRecord {
		return core.ProductRecord{
			Name:         sources.Text(card, nameSelector),
			Price:        sources.Text(card, priceSelector),
			Weight:       sources.Text(card, weightSelector),
			Availability: sources.Text(card, statusSelector),
		}
	})
}
