package warehouse

import (
	"context"
	"errors"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookhub/pkg/models"
)

func TestNewWithPoolValidatesTable(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	_, err = NewWithPool(mock, "books; DROP TABLE users")
	require.Error(t, err)

	_, err = NewWithPool(nil, "books")
	require.Error(t, err)

	s, err := NewWithPool(mock, "")
	require.NoError(t, err)
	assert.Equal(t, "books", s.table)
}

func TestEnsureSchema(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	s, err := NewWithPool(mock, "scraped_books")
	require.NoError(t, err)

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS scraped_books").
		WillReturnResult(pgxmock.NewResult("CREATE TABLE", 0))

	require.NoError(t, s.EnsureSchema(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWriteCountsConflicts(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	s, err := NewWithPool(mock, "books")
	require.NoError(t, err)

	books := []models.Book{
		{Title: "Sharp Objects", Price: 47.82, Rating: "Four", Availability: "In stock", Category: "Mystery", ImageURL: "http://x/a.jpg"},
		{Title: "Olio", Price: 23.88, Rating: "One", Category: "Poetry"},
	}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO books").
		WithArgs("Sharp Objects", 47.82, "Four", "In stock", "Mystery", "http://x/a.jpg").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO books").
		WithArgs("Olio", 23.88, "One", "", "Poetry", "").
		WillReturnResult(pgxmock.NewResult("INSERT", 0))
	mock.ExpectCommit()

	res, err := s.Write(context.Background(), books)
	require.NoError(t, err)
	assert.Equal(t, Result{Written: 1, Ignored: 1}, res)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWriteRollsBackOnError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	s, err := NewWithPool(mock, "books")
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO books").WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	_, err = s.Write(context.Background(), []models.Book{{Title: "x", Price: 1}})
	require.ErrorContains(t, err, "connection reset")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWriteEmptyIsNoop(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	s, err := NewWithPool(mock, "books")
	require.NoError(t, err)

	res, err := s.Write(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, res)
	require.NoError(t, mock.ExpectationsWereMet())
}
