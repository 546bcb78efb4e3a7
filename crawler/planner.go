package crawler

import (
	"fmt"
	"strings"
)

// PageSize is the number of items the site shows per listing page.
const PageSize = 20

// PlanPages computes the ordered listing page URLs for a section. A count
// of at most one page yields the index URL itself; larger counts yield
// page-{i}.html siblings for every page, page 1 included. The site serves
// page 1 both as index.html and page-1.html, so multi-page plans refetch
// the first page's content under its sibling URL; that quirk is kept for
// output compatibility with the original site convention.
func PlanPages(sectionIndexURL string, itemCount int) []string {
	if itemCount <= PageSize {
		return []string{sectionIndexURL}
	}

	pages := (itemCount + PageSize - 1) / PageSize
	urls := make([]string, 0, pages)
	for i := 1; i <= pages; i++ {
		urls = append(urls, strings.Replace(sectionIndexURL, "index.html", fmt.Sprintf("page-%d.html", i), 1))
	}
	return urls
}
