package parser

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

const sectionListHTML = `<!DOCTYPE html>
<html><body>
<div class="side_categories">
  <ul class="nav nav-list">
    <li>
      <a href="catalogue/category/books_1/index.html">Books</a>
      <ul>
        <li><a href="catalogue/category/books/travel_2/index.html">
          Travel
        </a></li>
        <li><a href="catalogue/category/books/mystery_3/index.html">
          Mystery
        </a></li>
        <li><a href="catalogue/category/books/classics_6/index.html">
          Classics
        </a></li>
      </ul>
    </li>
  </ul>
</div>
</body></html>`

const listingHTML = `<!DOCTYPE html>
<html><body>
<section>
  <div>
    <form class="form-horizontal">
      <strong>45</strong> results - showing <strong>1</strong> to <strong>20</strong>
    </form>
    <ol class="row">
      <li><article class="product_pod">
        <p class="star-rating Three"></p>
        <h3><a href="../../../a-light-in-the-attic_1000/index.html" title="A Light in the Attic">A Light in ...</a></h3>
        <div class="product_price"><p class="price_color">£51.77</p></div>
      </article></li>
      <li><article class="product_pod">
        <p class="star-rating One"></p>
        <h3><a href="../../../tipping-the-velvet_999/index.html" title="Tipping the Velvet">Tipping the ...</a></h3>
        <div class="product_price"><p class="price_color">£53.74</p></div>
      </article></li>
      <li><article class="product_pod">
        <p class="star-rating Gibberish"></p>
        <h3><a href="/catalogue/soumission_998/index.html" title="Soumission">Soumission</a></h3>
        <div class="product_price"><p class="price_color">£1,050.00</p></div>
      </article></li>
    </ol>
  </div>
</section>
</body></html>`

const detailHTML = `<!DOCTYPE html>
<html><body>
<div class="sub-header"><h2>Product Description</h2></div>
<p>A charming collection of poems.</p>
<table class="table table-striped">
  <tr><th>UPC</th><td>a897fe39b1053632</td></tr>
  <tr><th>Product Type</th><td>Books</td></tr>
  <tr><th>Price (excl. tax)</th><td>£51.77</td></tr>
  <tr><th>Price (incl. tax)</th><td>£51.77</td></tr>
  <tr><th>Tax</th><td>£0.00</td></tr>
  <tr><th>Availability</th><td>In stock (22 available)</td></tr>
  <tr><th>Number of reviews</th><td>0</td></tr>
</table>
</body></html>`

const catalogueBase = "https://books.toscrape.com/catalogue/"

func mustDoc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("parse fixture: %v", err)
	}
	return doc
}

func TestParseSectionList(t *testing.T) {
	doc := mustDoc(t, sectionListHTML)

	sections, err := ParseSectionList(doc, "https://books.toscrape.com/index.html")
	if err != nil {
		t.Fatalf("ParseSectionList: %v", err)
	}

	want := []struct {
		name string
		url  string
	}{
		{"Travel", "https://books.toscrape.com/catalogue/category/books/travel_2/index.html"},
		{"Mystery", "https://books.toscrape.com/catalogue/category/books/mystery_3/index.html"},
		{"Classics", "https://books.toscrape.com/catalogue/category/books/classics_6/index.html"},
	}
	if len(sections) != len(want) {
		t.Fatalf("got %d sections, want %d", len(sections), len(want))
	}
	for i, w := range want {
		if sections[i].Name != w.name {
			t.Errorf("section[%d].Name = %q, want %q", i, sections[i].Name, w.name)
		}
		if sections[i].URL != w.url {
			t.Errorf("section[%d].URL = %q, want %q", i, sections[i].URL, w.url)
		}
	}
}

func TestParseSectionListSkipsTopLevelEntry(t *testing.T) {
	doc := mustDoc(t, sectionListHTML)

	sections, err := ParseSectionList(doc, "https://books.toscrape.com/index.html")
	if err != nil {
		t.Fatalf("ParseSectionList: %v", err)
	}
	for _, s := range sections {
		if s.Name == "Books" {
			t.Fatalf("top-level navigation entry should not be a section")
		}
	}
}

func TestParseItemCount(t *testing.T) {
	doc := mustDoc(t, listingHTML)
	count, ok := ParseItemCount(doc)
	if !ok || count != 45 {
		t.Fatalf("ParseItemCount = (%d, %v), want (45, true)", count, ok)
	}
}

func TestParseItemCountAbsent(t *testing.T) {
	doc := mustDoc(t, `<html><body><p>no results block</p></body></html>`)
	count, ok := ParseItemCount(doc)
	if ok || count != 0 {
		t.Fatalf("ParseItemCount = (%d, %v), want (0, false)", count, ok)
	}
}

func TestParseItemListing(t *testing.T) {
	doc := mustDoc(t, listingHTML)
	items := ParseItemListing(doc, catalogueBase)

	if len(items) != 3 {
		t.Fatalf("got %d items, want 3", len(items))
	}

	want := []struct {
		title  string
		url    string
		rating string
		price  string
	}{
		{"A Light in the Attic", catalogueBase + "a-light-in-the-attic_1000/index.html", "Three", "£51.77"},
		{"Tipping the Velvet", catalogueBase + "tipping-the-velvet_999/index.html", "One", "£53.74"},
		{"Soumission", catalogueBase + "catalogue/soumission_998/index.html", "Gibberish", "£1,050.00"},
	}
	for i, w := range want {
		got := items[i]
		if got.Title != w.title {
			t.Errorf("item[%d].Title = %q, want %q", i, got.Title, w.title)
		}
		if got.DetailURL != w.url {
			t.Errorf("item[%d].DetailURL = %q, want %q", i, got.DetailURL, w.url)
		}
		if got.RatingLabel != w.rating {
			t.Errorf("item[%d].RatingLabel = %q, want %q", i, got.RatingLabel, w.rating)
		}
		if got.RawPrice != w.price {
			t.Errorf("item[%d].RawPrice = %q, want %q", i, got.RawPrice, w.price)
		}
	}
}

func TestParseItemDetail(t *testing.T) {
	doc := mustDoc(t, detailHTML)
	fields := ParseItemDetail(doc)

	if fields.Description == nil || *fields.Description != "A charming collection of poems." {
		t.Fatalf("Description = %v, want pointer to fixture text", fields.Description)
	}
	if fields.UPC == nil || *fields.UPC != "a897fe39b1053632" {
		t.Errorf("UPC = %v, want pointer to fixture value", fields.UPC)
	}
	if fields.ProductType == nil || *fields.ProductType != "Books" {
		t.Errorf("ProductType = %v, want pointer to \"Books\"", fields.ProductType)
	}
	if fields.PriceExclTax != 51.77 || fields.PriceInclTax != 51.77 {
		t.Errorf("prices = (%v, %v), want (51.77, 51.77)", fields.PriceExclTax, fields.PriceInclTax)
	}
	if fields.Tax != 0 {
		t.Errorf("Tax = %v, want 0", fields.Tax)
	}
	if fields.Availability == nil || *fields.Availability != "In stock (22 available)" {
		t.Errorf("Availability = %v, want pointer to fixture value", fields.Availability)
	}
	if fields.ReviewCount != 0 {
		t.Errorf("ReviewCount = %d, want 0", fields.ReviewCount)
	}
}

func TestParseItemDetailMissingElements(t *testing.T) {
	doc := mustDoc(t, `<html><body><p>bare page</p></body></html>`)
	fields := ParseItemDetail(doc)

	if fields.Description != nil {
		t.Errorf("Description = %v, want nil", fields.Description)
	}
	if fields.UPC != nil {
		t.Errorf("UPC = %v, want nil", fields.UPC)
	}
	if fields.ProductType != nil {
		t.Errorf("ProductType = %v, want nil", fields.ProductType)
	}
	if fields.Availability != nil {
		t.Errorf("Availability = %v, want nil", fields.Availability)
	}
	if fields.PriceExclTax != DefaultPrice || fields.PriceInclTax != DefaultPrice || fields.Tax != DefaultPrice {
		t.Errorf("numeric fields should default to %v, got %+v", DefaultPrice, fields)
	}
	if fields.ReviewCount != DefaultReviewCount {
		t.Errorf("ReviewCount = %d, want %d", fields.ReviewCount, DefaultReviewCount)
	}
}

func TestParsePrice(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected float64
	}{
		{name: "pound symbol", input: "£51.77", expected: 51.77},
		{name: "thousands separator", input: "1,234.50", expected: 1234.5},
		{name: "symbol and separator", input: "£1,050.00", expected: 1050},
		{name: "surrounding whitespace", input: "  £10.50  ", expected: 10.5},
		{name: "already clean", input: "25.99", expected: 25.99},
		{name: "empty string", input: "", expected: DefaultPrice},
		{name: "no digits", input: "free", expected: DefaultPrice},
		{name: "multiple dots", input: "£1.2.3", expected: DefaultPrice},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ParsePrice(tt.input)
			if result != tt.expected {
				t.Errorf("ParsePrice(%q) = %v, want %v", tt.input, result, tt.expected)
			}
		})
	}
}

func TestRatingToNumeric(t *testing.T) {
	tests := []struct {
		input    string
		expected int
	}{
		{input: "One", expected: 1},
		{input: "Two", expected: 2},
		{input: "Three", expected: 3},
		{input: "Four", expected: 4},
		{input: "Five", expected: 5},
		{input: "Six", expected: DefaultRating},
		{input: "three", expected: DefaultRating},
		{input: "", expected: DefaultRating},
	}

	for _, tt := range tests {
		t.Run("label_"+tt.input, func(t *testing.T) {
			if got := RatingToNumeric(tt.input); got != tt.expected {
				t.Errorf("RatingToNumeric(%q) = %d, want %d", tt.input, got, tt.expected)
			}
		})
	}
}

func TestResolveDetailURL(t *testing.T) {
	tests := []struct {
		name     string
		href     string
		expected string
	}{
		{
			name:     "parent relative",
			href:     "../../catalogue/foo.html",
			expected: catalogueBase + "catalogue/foo.html",
		},
		{
			name:     "root relative",
			href:     "/catalogue/foo.html",
			expected: catalogueBase + "catalogue/foo.html",
		},
		{
			name:     "plain relative",
			href:     "foo.html",
			expected: catalogueBase + "foo.html",
		},
		{
			name:     "already absolute",
			href:     "https://books.toscrape.com/catalogue/foo.html",
			expected: "https://books.toscrape.com/catalogue/foo.html",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ResolveDetailURL(catalogueBase, tt.href); got != tt.expected {
				t.Errorf("ResolveDetailURL(%q) = %q, want %q", tt.href, got, tt.expected)
			}
		})
	}
}
