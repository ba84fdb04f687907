package scraper

import (
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"sync/atomic"

	"github.com/jarcoal/httpmock"
)

const testBase = "http://books.test/"

func htmlResponder(body string) httpmock.Responder {
	resp := httpmock.NewStringResponse(200, body)
	resp.Header.Set("Content-Type", "text/html")
	return httpmock.ResponderFromResponse(resp)
}

// sequenceResponder answers with the given statuses in turn, then keeps
// returning the last one. A 200 carries body.
func sequenceResponder(body string, statuses ...int) httpmock.Responder {
	var n atomic.Int32
	return func(*http.Request) (*http.Response, error) {
		i := int(n.Add(1)) - 1
		if i >= len(statuses) {
			i = len(statuses) - 1
		}
		status := statuses[i]
		text := ""
		if status == http.StatusOK {
			text = body
		}
		resp := httpmock.NewStringResponse(status, text)
		resp.Header.Set("Content-Type", "text/html")
		return resp, nil
	}
}

// listingPage renders a catalogue page whose product links use the given
// hrefs verbatim.
func listingPage(hrefs ...string) string {
	var b strings.Builder
	b.WriteString(`<html><body><section><ol class="row">`)
	for i, href := range hrefs {
		fmt.Fprintf(&b, `<li><article class="product_pod"><h3><a href="%s" title="Book %d">Book %d</a></h3>`+
			`<p class="price_color">£1.00</p></article></li>`, href, i, i)
	}
	b.WriteString(`</ol></section></body></html>`)
	return b.String()
}

type detailFixture struct {
	Title        string
	Price        string
	Rating       string
	Availability string
	Crumbs       []string
	Image        string
}

func detailPage(d detailFixture) string {
	var b strings.Builder
	b.WriteString(`<html><head><meta charset="utf-8"></head><body><ul class="breadcrumb">`)
	for _, c := range d.Crumbs {
		fmt.Fprintf(&b, `<li><a href="#">%s</a></li>`, c)
	}
	fmt.Fprintf(&b, `<li class="active">%s</li></ul>`, d.Title)
	b.WriteString(`<article class="product_page"><div class="row">`)
	if d.Image != "" {
		fmt.Fprintf(&b, `<div class="item active"><img src="%s" alt="%s" /></div>`, d.Image, d.Title)
	}
	b.WriteString(`<div class="col-sm-6 product_main">`)
	if d.Title != "" {
		fmt.Fprintf(&b, `<h1>%s</h1>`, d.Title)
	}
	if d.Price != "" {
		fmt.Fprintf(&b, `<p class="price_color">%s</p>`, d.Price)
	}
	fmt.Fprintf(&b, `<p class="instock availability"><i class="icon-ok"></i>
        %s
    </p>`, d.Availability)
	if d.Rating != "" {
		fmt.Fprintf(&b, `<p class="star-rating %s"><i class="icon-star"></i></p>`, d.Rating)
	}
	b.WriteString(`</div></div></article></body></html>`)
	return b.String()
}

func book(title string) detailFixture {
	return detailFixture{
		Title:        title,
		Price:        "Â£10.00",
		Rating:       "Three",
		Availability: "In stock (5 available)",
		Crumbs:       []string{"Home", "Books", "Poetry"},
		Image:        "../../media/cache/aa/bb/" + strings.ReplaceAll(strings.ToLower(title), " ", "-") + ".jpg",
	}
}

func mustRegexp(expr string) *regexp.Regexp {
	return regexp.MustCompile(expr)
}
