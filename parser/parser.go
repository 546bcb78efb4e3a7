// Package parser extracts structured records from catalog pages.
//
// All functions are pure: they take an already-parsed document and return
// data, never touching the network. Structural elements that are missing
// from a page map to the named defaults below rather than errors, matching
// the tolerance of the site being scraped.
package parser

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/aluiziolira/catalog-crawler/models"
)

// Defaults applied when a page element is absent or unparsable.
const (
	DefaultPrice       = 0.0
	DefaultRating      = 0
	DefaultReviewCount = 0
)

// Attribute table labels on a product detail page.
const (
	labelUPC          = "UPC"
	labelProductType  = "Product Type"
	labelPriceExclTax = "Price (excl. tax)"
	labelPriceInclTax = "Price (incl. tax)"
	labelTax          = "Tax"
	labelAvailability = "Availability"
	labelReviewCount  = "Number of reviews"
)

var (
	nonPriceChars = regexp.MustCompile(`[^0-9.,]`)
	nonDigitChars = regexp.MustCompile(`[^0-9]`)
)

// ParseSectionList extracts the category navigation's leaf entries in
// document order, resolving each href against baseURL.
func ParseSectionList(doc *goquery.Document, baseURL string) ([]models.SectionLink, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, err
	}

	var sections []models.SectionLink
	doc.Find(".side_categories > ul.nav.nav-list > li > ul > li > a").Each(func(_ int, sel *goquery.Selection) {
		name := strings.TrimSpace(sel.Text())
		href, ok := sel.Attr("href")
		if name == "" || !ok {
			return
		}
		ref, err := url.Parse(href)
		if err != nil {
			return
		}
		sections = append(sections, models.SectionLink{
			Name: name,
			URL:  base.ResolveReference(ref).String(),
		})
	})
	return sections, nil
}

// ParseItemCount reads the result-count element of a listing page. The
// second return is false when the element is absent, which callers treat
// as "no pages to plan".
func ParseItemCount(doc *goquery.Document) (int, bool) {
	sel := doc.Find(".form-horizontal > strong").First()
	if sel.Length() == 0 {
		return 0, false
	}
	count, err := strconv.Atoi(strings.TrimSpace(sel.Text()))
	if err != nil {
		return 0, false
	}
	return count, true
}

// ParseItemListing extracts the product cards of a listing page in
// document order. Detail links are resolved against catalogueURL.
func ParseItemListing(doc *goquery.Document, catalogueURL string) []models.ItemSummary {
	var items []models.ItemSummary
	doc.Find("section > div > ol.row > li > article.product_pod").Each(func(_ int, card *goquery.Selection) {
		link := card.Find("h3 > a").First()
		title := strings.TrimSpace(link.AttrOr("title", ""))
		href := link.AttrOr("href", "")
		if title == "" || href == "" {
			return
		}

		ratingClass := card.Find("p.star-rating").First().AttrOr("class", "")
		ratingLabel := ""
		if parts := strings.Fields(ratingClass); len(parts) > 1 {
			ratingLabel = parts[1]
		}

		items = append(items, models.ItemSummary{
			Title:       title,
			DetailURL:   ResolveDetailURL(catalogueURL, href),
			RatingLabel: ratingLabel,
			RawPrice:    strings.TrimSpace(card.Find("div.product_price > p.price_color").First().Text()),
		})
	})
	return items
}

// ParseItemDetail extracts the narrative description and the labeled
// attribute table of a product detail page. Missing fields map to nil or
// the package defaults.
func ParseItemDetail(doc *goquery.Document) models.ItemDetailFields {
	fields := models.ItemDetailFields{}

	if desc := doc.Find("div.sub-header + p").First(); desc.Length() > 0 {
		text := strings.TrimSpace(desc.Text())
		fields.Description = &text
	}

	attrs := make(map[string]string)
	doc.Find("table.table.table-striped tr").Each(func(_ int, row *goquery.Selection) {
		label := strings.TrimSpace(row.Find("th").First().Text())
		value := strings.TrimSpace(row.Find("td").First().Text())
		if label != "" {
			attrs[label] = value
		}
	})

	fields.UPC = optionalText(attrs, labelUPC)
	fields.ProductType = optionalText(attrs, labelProductType)
	fields.PriceExclTax = ParsePrice(attrs[labelPriceExclTax])
	fields.PriceInclTax = ParsePrice(attrs[labelPriceInclTax])
	fields.Tax = ParsePrice(attrs[labelTax])
	fields.Availability = optionalText(attrs, labelAvailability)
	fields.ReviewCount = parseCount(attrs[labelReviewCount])

	return fields
}

// optionalText returns the attribute value, or nil when the label is
// absent so the column stays NULL.
func optionalText(attrs map[string]string, label string) *string {
	value, ok := attrs[label]
	if !ok {
		return nil
	}
	return &value
}

// ResolveDetailURL turns a product card href into an absolute URL under
// the fixed catalogue base. Root-relative and parent-relative forms are
// flattened onto the base; anything else is resolved as a normal
// reference.
func ResolveDetailURL(catalogueURL, href string) string {
	if strings.HasPrefix(href, "/") || strings.HasPrefix(href, "..") {
		cleaned := strings.ReplaceAll(strings.TrimLeft(href, "/"), "../", "")
		return catalogueURL + cleaned
	}

	base, err := url.Parse(catalogueURL)
	if err != nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}

// ParsePrice strips currency symbols and thousands separators from a
// price string. Unparsable input yields DefaultPrice, never an error.
func ParsePrice(raw string) float64 {
	cleaned := nonPriceChars.ReplaceAllString(raw, "")
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	if cleaned == "" {
		return DefaultPrice
	}
	price, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || price < 0 {
		return DefaultPrice
	}
	return price
}

// RatingToNumeric converts the star-rating class token to a 0-5 integer.
// Unknown labels map to DefaultRating.
func RatingToNumeric(rating string) int {
	switch strings.TrimSpace(rating) {
	case "One":
		return 1
	case "Two":
		return 2
	case "Three":
		return 3
	case "Four":
		return 4
	case "Five":
		return 5
	default:
		return DefaultRating
	}
}

func parseCount(raw string) int {
	cleaned := nonDigitChars.ReplaceAllString(raw, "")
	if cleaned == "" {
		return DefaultReviewCount
	}
	count, err := strconv.Atoi(cleaned)
	if err != nil {
		return DefaultReviewCount
	}
	return count
}
