package stats_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"maktaba-backend/internal/library/stats"
)

// fakeStore は stats.Store の固定値実装
type fakeStore struct {
	totals stats.Totals
	most   *stats.MostRequestedBook
	cMost  *stats.CategoryCount
	cLeast *stats.CategoryCount
}

func (f *fakeStore) Totals(_ context.Context) (stats.Totals, error) {
	return f.totals, nil
}

func (f *fakeStore) MostRequestedBook(_ context.Context) (*stats.MostRequestedBook, error) {
	return f.most, nil
}

func (f *fakeStore) CategoryExtremes(_ context.Context) (*stats.CategoryCount, *stats.CategoryCount, error) {
	return f.cMost, f.cLeast, nil
}

func TestDashboard(t *testing.T) {
	ctx := context.Background()

	svc := stats.NewServiceWithStore(&fakeStore{
		totals: stats.Totals{TotalBooks: 120, TotalBorrowed: 15, TotalAvailable: 105, TotalDamaged: 7},
		most:   &stats.MostRequestedBook{BookID: 3, Title: "Dune", Author: "Frank Herbert", RequestCount: 9},
		cMost:  &stats.CategoryCount{CategoryID: 1, Name: "Science Fiction", BookCount: 30},
		cLeast: &stats.CategoryCount{CategoryID: 6, Name: "Children's", BookCount: 4},
	})

	res, err := svc.Dashboard(ctx)
	require.NoError(t, err)

	assert.Equal(t, int64(120), res.TotalBooks)
	assert.Equal(t, int64(15), res.TotalBorrowed)
	assert.Equal(t, int64(105), res.TotalAvailable)
	assert.Equal(t, int64(7), res.TotalDamaged)
	require.NotNil(t, res.MostRequestedBook)
	assert.Equal(t, "Dune", res.MostRequestedBook.Title)
	require.NotNil(t, res.CategoryWithMostBooks)
	assert.Equal(t, "Science Fiction", res.CategoryWithMostBooks.Name)
	require.NotNil(t, res.CategoryWithLeastBooks)
	assert.Equal(t, "Children's", res.CategoryWithLeastBooks.Name)
}

// データが無いときは各項目が null で返る
func TestDashboardEmpty(t *testing.T) {
	ctx := context.Background()
	svc := stats.NewServiceWithStore(&fakeStore{})

	res, err := svc.Dashboard(ctx)
	require.NoError(t, err)

	assert.Zero(t, res.TotalBooks)
	assert.Nil(t, res.MostRequestedBook)
	assert.Nil(t, res.CategoryWithMostBooks)
	assert.Nil(t, res.CategoryWithLeastBooks)
}
