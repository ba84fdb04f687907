package books

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookhub/internal/metrics"
	"bookhub/pkg/models"
)

func sampleBooks() []models.Book {
	return []models.Book{
		{Title: "A Light in the Attic", Price: 51.77, Rating: "Three", Availability: "In stock (22 available)", Category: "Poetry"},
		{Title: "Tipping the Velvet", Price: 53.74, Rating: "One", Availability: "In stock (20 available)", Category: "Historical Fiction"},
		{Title: "Soumission", Price: 50.10, Rating: "One", Availability: "In stock (20 available)", Category: ""},
	}
}

func TestLoadIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	m := metrics.New()
	l := NewLoader(db, nil, m)
	ctx := context.Background()

	first, err := l.Load(ctx, sampleBooks(), false)
	require.NoError(t, err)
	assert.Equal(t, LoadResult{Inserted: 3, Skipped: 0}, first)

	second, err := l.Load(ctx, sampleBooks(), false)
	require.NoError(t, err)
	assert.Equal(t, LoadResult{Inserted: 0, Skipped: 3}, second)

	all, err := NewRepo(db).ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
	assert.Equal(t, 3.0, testutil.ToFloat64(m.LoaderRows.WithLabelValues("inserted")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.LoaderRows.WithLabelValues("skipped")))
}

func TestLoadSkipsDuplicatesWithinBatch(t *testing.T) {
	db := newTestDB(t)
	b := models.Book{Title: "Dup", Price: 9.99, Category: "Travel", Rating: "Two"}
	other := models.Book{Title: "Dup", Price: 9.99, Category: "Poetry"}

	res, err := NewLoader(db, nil, nil).Load(context.Background(), []models.Book{b, other, b, b}, false)
	require.NoError(t, err)
	assert.Equal(t, LoadResult{Inserted: 2, Skipped: 2}, res)
}

func TestLoadDedupTreatsEmptyCategoryAsKey(t *testing.T) {
	db := newTestDB(t)
	b := models.Book{Title: "No Category", Price: 12}

	l := NewLoader(db, nil, nil)
	_, err := l.Load(context.Background(), []models.Book{b}, false)
	require.NoError(t, err)

	res, err := l.Load(context.Background(), []models.Book{b, {Title: "  No Category ", Price: 12, Category: " "}}, false)
	require.NoError(t, err)
	assert.Equal(t, LoadResult{Inserted: 0, Skipped: 2}, res)
}

func TestLoadTruncateReplacesContents(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	seed(t, db, sampleBooks()...)

	fresh := []models.Book{
		{Title: "Sharp Objects", Price: 47.82, Rating: "Four", Category: "Mystery"},
		{Title: "A Light in the Attic", Price: 51.77, Rating: "Three", Category: "Poetry"},
	}
	res, err := NewLoader(db, nil, nil).Load(ctx, fresh, true)
	require.NoError(t, err)
	assert.Equal(t, LoadResult{Inserted: 2}, res)

	all, err := NewRepo(db).ListAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Sharp Objects", "A Light in the Attic"}, titles(all))
}

func TestLoadValidationLeavesStoreUntouched(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	seed(t, db, sampleBooks()...)

	tests := []struct {
		name  string
		batch []models.Book
		row   int
		field string
	}{
		{name: "empty title", batch: []models.Book{{Title: "ok", Price: 1}, {Title: "   ", Price: 2}}, row: 2, field: "title"},
		{name: "negative price", batch: []models.Book{{Title: "neg", Price: -1}}, row: 1, field: "price"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewLoader(db, nil, nil).Load(ctx, tt.batch, true)
			var ve *ValidationError
			require.True(t, errors.As(err, &ve), "got %v", err)
			assert.Equal(t, tt.row, ve.Row)
			assert.Equal(t, tt.field, ve.Field)

			all, err := NewRepo(db).ListAll(ctx)
			require.NoError(t, err)
			assert.Len(t, all, 3)
		})
	}
}

func TestLoadStoresEmptyFieldsAsNull(t *testing.T) {
	db := newTestDB(t)
	seed(t, db, models.Book{Title: "Bare", Price: 3})

	var nulls int
	require.NoError(t, db.QueryRow(`
		SELECT COUNT(*) FROM books
		WHERE category IS NULL AND rating IS NULL AND availability IS NULL AND image_url IS NULL
	`).Scan(&nulls))
	assert.Equal(t, 1, nulls)
}

func TestLoadDropsRatingsOutsideVocabulary(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	in := "title,price,rating,availability,category,image_url\n" +
		"Seven Stars,10.00,Seven,In stock,Poetry,\n" +
		"Lower Case,20.00,five,In stock,Poetry,\n" +
		"Proper,30.00, Five ,In stock,Poetry,\n"
	records, err := ReadCSV(strings.NewReader(in))
	require.NoError(t, err)

	res, err := NewLoader(db, nil, nil).Load(ctx, records, false)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Inserted)

	all, err := NewRepo(db).ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Empty(t, all[0].Rating)
	assert.Empty(t, all[1].Rating)
	assert.Equal(t, "Five", all[2].Rating)

	ov, err := NewRepo(db).Overview(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"Unknown": 2, "Five": 1}, ov.RatingDistribution)
}
