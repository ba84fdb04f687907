package scraper

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ParseListing returns the detail-page URLs of a listing page in page order.
// A page without product entries yields an empty slice, which the crawler
// reads as the end of the catalogue.
func ParseListing(body []byte, catalogueBase string) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse listing: %w", err)
	}

	links := []string{}
	doc.Find(".product_pod h3 a").Each(func(_ int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		if !ok || strings.TrimSpace(href) == "" {
			return
		}
		links = append(links, resolveCatalogue(catalogueBase, href))
	})
	return links, nil
}

// resolveCatalogue maps the relative hrefs used on listing pages
// ("../../foo_1/index.html", "catalogue/foo_1/index.html", "foo_1/index.html")
// onto the absolute catalogue base.
func resolveCatalogue(catalogueBase, href string) string {
	href = strings.TrimSpace(href)
	if isAbsolute(href) {
		return href
	}
	rel := strings.ReplaceAll(href, "../", "")
	rel = strings.TrimPrefix(rel, "/")
	rel = strings.TrimPrefix(rel, "catalogue/")
	return catalogueBase + rel
}

// resolveSite joins a "../"-relative asset path onto the site base.
func resolveSite(siteBase, src string) string {
	src = strings.TrimSpace(src)
	if src == "" || isAbsolute(src) {
		return src
	}
	rel := strings.ReplaceAll(src, "../", "")
	return siteBase + strings.TrimPrefix(rel, "/")
}

func isAbsolute(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
