package scraper

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseListingResolvesLinks(t *testing.T) {
	body := listingPage(
		"../../../a-light-in-the-attic_1000/index.html",
		"catalogue/tipping-the-velvet_999/index.html",
		"soumission_998/index.html",
	)

	links, err := ParseListing([]byte(body), testBase+"catalogue/")
	require.NoError(t, err)
	assert.Equal(t, []string{
		testBase + "catalogue/a-light-in-the-attic_1000/index.html",
		testBase + "catalogue/tipping-the-velvet_999/index.html",
		testBase + "catalogue/soumission_998/index.html",
	}, links)
}

func TestParseListingEmptyPage(t *testing.T) {
	links, err := ParseListing([]byte(`<html><body><p>No products</p></body></html>`), testBase+"catalogue/")
	require.NoError(t, err)
	assert.NotNil(t, links)
	assert.Empty(t, links)
}

func TestParseDetail(t *testing.T) {
	body := detailPage(detailFixture{
		Title:        "A Light in the Attic",
		Price:        "Â£51.77",
		Rating:       "Three",
		Availability: "In stock (22 available)",
		Crumbs:       []string{"Home", "Books", "Poetry"},
		Image:        "../../media/cache/fe/72/fe72f0532301ec28892ae79a629a293c.jpg",
	})

	b, err := ParseDetail([]byte(body), testBase, testBase+"catalogue/a-light_1000/index.html")
	require.NoError(t, err)
	assert.Equal(t, "A Light in the Attic", b.Title)
	assert.InDelta(t, 51.77, b.Price, 1e-9)
	assert.Equal(t, "Three", b.Rating)
	assert.Equal(t, "In stock (22 available)", b.Availability)
	assert.Equal(t, "Poetry", b.Category)
	assert.Equal(t, testBase+"media/cache/fe/72/fe72f0532301ec28892ae79a629a293c.jpg", b.ImageURL)
	assert.Zero(t, b.ID)
}

func TestParseDetailDegradesOptionalFields(t *testing.T) {
	body := detailPage(detailFixture{
		Title:  "Untitled",
		Price:  "£3.50",
		Rating: "Eleven",
		Crumbs: []string{"Home", "Books"},
	})

	b, err := ParseDetail([]byte(body), testBase, "")
	require.NoError(t, err)
	assert.InDelta(t, 3.5, b.Price, 1e-9)
	assert.Empty(t, b.Rating)
	assert.Equal(t, "Default", b.Category)
	assert.Empty(t, b.ImageURL)
	assert.Empty(t, b.Availability)
}

func TestParseDetailMandatoryFields(t *testing.T) {
	tests := []struct {
		name  string
		page  detailFixture
		field string
	}{
		{name: "missing title", page: detailFixture{Price: "£1.00"}, field: "title"},
		{name: "missing price", page: detailFixture{Title: "No Price"}, field: "price"},
		{name: "garbled price", page: detailFixture{Title: "Bad", Price: "£abc"}, field: "price"},
		{name: "negative price", page: detailFixture{Title: "Neg", Price: "£-4.00"}, field: "price"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseDetail([]byte(detailPage(tt.page)), testBase, "http://books.test/x")
			var pe *ParseError
			require.True(t, errors.As(err, &pe), "got %v", err)
			assert.Equal(t, tt.field, pe.Field)
			assert.Equal(t, "http://books.test/x", pe.URL)
		})
	}
}
