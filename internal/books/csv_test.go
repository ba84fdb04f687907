package books

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookhub/pkg/models"
)

func TestReadCSV(t *testing.T) {
	in := "title,price,rating,availability,category,image_url\n" +
		"A Light in the Attic,51.77,Three,In stock (22 available),Poetry,https://books.toscrape.com/media/a.jpg\n" +
		"\"Comma, Inc.\",10,,,,\n"

	got, err := ReadCSV(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, []models.Book{
		{Title: "A Light in the Attic", Price: 51.77, Rating: "Three", Availability: "In stock (22 available)", Category: "Poetry", ImageURL: "https://books.toscrape.com/media/a.jpg"},
		{Title: "Comma, Inc.", Price: 10},
	}, got)
}

func TestReadCSVHeaderOrderAndBOM(t *testing.T) {
	in := "\ufeffPrice,Title\n3.5,Reordered\n"
	got, err := ReadCSV(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Reordered", got[0].Title)
	assert.Equal(t, 3.5, got[0].Price)
}

func TestReadCSVErrors(t *testing.T) {
	_, err := ReadCSV(strings.NewReader(""))
	require.Error(t, err)

	_, err = ReadCSV(strings.NewReader("title,rating\nx,One\n"))
	require.ErrorContains(t, err, `missing "price"`)

	_, err = ReadCSV(strings.NewReader("title,price\nok,1\nbad,£3\n"))
	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, 2, ve.Row)
	assert.Equal(t, "price", ve.Field)
}

func TestWriteCSVRoundTrip(t *testing.T) {
	books := []models.Book{
		{ID: 7, Title: "Sharp Objects", Price: 47.82, Rating: "Four", Availability: "In stock", Category: "Mystery", ImageURL: "http://x/y.jpg"},
		{ID: 8, Title: "Quoted \"Title\"", Price: 5},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, books))
	assert.True(t, strings.HasPrefix(buf.String(), "title,price,rating,availability,category,image_url\n"))
	assert.Contains(t, buf.String(), "Sharp Objects,47.82,Four,In stock,Mystery,http://x/y.jpg\n")

	back, err := ReadCSV(&buf)
	require.NoError(t, err)
	require.Len(t, back, 2)
	assert.Equal(t, "Quoted \"Title\"", back[1].Title)
	assert.Equal(t, 5.0, back[1].Price)
}
