package scraper

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"bookhub/pkg/models"
)

const defaultCategory = "Default"

// priceReplacer drops the pound sign and the stray "Â" that shows up when
// the page's UTF-8 is read as Latin-1.
var priceReplacer = strings.NewReplacer("Â", "", "£", "")

// ParseDetail extracts one book from a detail page. Title and price are
// mandatory and produce a *ParseError when absent; the remaining fields
// degrade to empty values. pageURL is only used for error context.
func ParseDetail(body []byte, siteBase, pageURL string) (models.Book, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return models.Book{}, &ParseError{URL: pageURL, Field: "document", Err: err}
	}

	title := strings.TrimSpace(doc.Find("h1").First().Text())
	if title == "" {
		return models.Book{}, &ParseError{URL: pageURL, Field: "title", Err: errMissing}
	}

	price, err := parsePrice(doc.Find(".price_color").First().Text())
	if err != nil {
		return models.Book{}, &ParseError{URL: pageURL, Field: "price", Err: err}
	}

	book := models.Book{
		Title:        title,
		Price:        price,
		Availability: strings.TrimSpace(doc.Find(".availability").First().Text()),
		Rating:       parseRating(doc.Find("p.star-rating").First()),
		Category:     defaultCategory,
	}

	crumbs := doc.Find("ul.breadcrumb li a")
	if crumbs.Length() >= 3 {
		book.Category = strings.TrimSpace(crumbs.Eq(2).Text())
	}

	if src, ok := doc.Find(".item img").First().Attr("src"); ok {
		book.ImageURL = resolveSite(siteBase, src)
	}
	return book, nil
}

func parsePrice(raw string) (float64, error) {
	s := strings.TrimSpace(priceReplacer.Replace(raw))
	if s == "" {
		return 0, errMissing
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid price %q: %w", raw, err)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("invalid price %q", raw)
	}
	if v < 0 {
		return 0, errors.New("negative price")
	}
	return v, nil
}

// parseRating reads the second class token ("star-rating Three") and keeps
// it only when it is part of the known vocabulary.
func parseRating(sel *goquery.Selection) string {
	class, ok := sel.Attr("class")
	if !ok {
		return ""
	}
	fields := strings.Fields(class)
	if len(fields) < 2 {
		return ""
	}
	if models.RatingValue(fields[1]) == 0 {
		return ""
	}
	return fields[1]
}
