package books_test

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"maktaba-backend/internal/library/books"
)

// fakeStore は books.Store のインメモリ実装
type fakeStore struct {
	mu         sync.Mutex
	books      map[int64]*books.Book
	joins      map[int64][]int64 // book_id -> category_ids
	categories map[int64]string
	nextID     int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		books:      make(map[int64]*books.Book),
		joins:      make(map[int64][]int64),
		categories: make(map[int64]string),
		nextID:     1,
	}
}

func (f *fakeStore) addCategory(id int64, name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.categories[id] = name
}

func (f *fakeStore) Insert(_ context.Context, b *books.Book, categoryIDs []int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	b.BookID = f.nextID
	f.nextID++
	cp := *b
	f.books[b.BookID] = &cp
	f.joins[b.BookID] = append([]int64(nil), categoryIDs...)
	return nil
}

func (f *fakeStore) Update(_ context.Context, b *books.Book, categoryIDs []int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.books[b.BookID]; !ok {
		return books.ErrNotFound("book not found")
	}
	cp := *b
	f.books[b.BookID] = &cp
	f.joins[b.BookID] = append([]int64(nil), categoryIDs...)
	return nil
}

func (f *fakeStore) GetByID(_ context.Context, bookID int64) (*books.BookWithCategories, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.books[bookID]
	if !ok {
		return nil, nil
	}
	return f.withCategoriesLocked(b), nil
}

func (f *fakeStore) withCategoriesLocked(b *books.Book) *books.BookWithCategories {
	out := &books.BookWithCategories{Book: *b}
	for _, cid := range f.joins[b.BookID] {
		out.Categories = append(out.Categories, books.CategoryRef{CategoryID: cid, Name: f.categories[cid]})
	}
	sort.Slice(out.Categories, func(i, j int) bool {
		return out.Categories[i].CategoryID < out.Categories[j].CategoryID
	})
	return out
}

func (f *fakeStore) List(_ context.Context, filter books.Filter, p books.Page) ([]books.BookWithCategories, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	matches := func(b *books.Book) bool {
		if filter.CategoryID != nil {
			found := false
			for _, cid := range f.joins[b.BookID] {
				if cid == *filter.CategoryID {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		}
		if filter.Search != "" {
			s := strings.ToLower(filter.Search)
			if !strings.Contains(strings.ToLower(b.Title), s) &&
				!strings.Contains(strings.ToLower(b.Author), s) {
				return false
			}
		}
		return true
	}

	var all []books.BookWithCategories
	for _, b := range f.books {
		if matches(b) {
			all = append(all, *f.withCategoriesLocked(b))
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].BookID < all[j].BookID })

	total := int64(len(all))
	if p.Limit <= 0 {
		p.Limit = 10
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	if p.Offset >= len(all) {
		return nil, total, nil
	}
	end := p.Offset + p.Limit
	if end > len(all) {
		end = len(all)
	}
	return all[p.Offset:end], total, nil
}

func (f *fakeStore) MissingCategories(_ context.Context, ids []int64) ([]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var missing []int64
	for _, id := range ids {
		if _, ok := f.categories[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing, nil
}

func (f *fakeStore) AdjustDamaged(_ context.Context, bookID int64, delta int) (*books.Book, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.books[bookID]
	if !ok {
		return nil, books.ErrNotFound("book not found")
	}
	next := b.DamagedQuantity + delta
	if next < 0 || next > b.TotalQuantity {
		return nil, books.ErrInvariantViolation("damaged_quantity out of bounds")
	}
	b.DamagedQuantity = next
	cp := *b
	return &cp, nil
}

func assertCode(t *testing.T, err error, code books.Code) {
	t.Helper()
	var api *books.APIError
	require.True(t, errors.As(err, &api), "expected *APIError, got %v", err)
	assert.Equal(t, code, api.Code)
}

func TestCreateBook(t *testing.T) {
	ctx := context.Background()

	t.Run("creates_with_categories", func(t *testing.T) {
		store := newFakeStore()
		store.addCategory(1, "Science Fiction")
		store.addCategory(2, "Technology")
		svc := books.NewServiceWithStore(store)

		res, err := svc.CreateBook(ctx, books.CreateBookRequest{
			Title: "Dune", Author: "Frank Herbert",
			TotalQuantity: 3, AvailableQuantity: 3,
			CategoryIDs: []int64{1, 2},
		})
		require.NoError(t, err)
		assert.NotZero(t, res.BookID)
		assert.Equal(t, 0, res.DamagedQuantity)
		require.Len(t, res.Categories, 2)
		assert.Equal(t, "Science Fiction", res.Categories[0].Name)
	})

	t.Run("blank_title_rejected", func(t *testing.T) {
		svc := books.NewServiceWithStore(newFakeStore())
		_, err := svc.CreateBook(ctx, books.CreateBookRequest{
			Title: "   ", Author: "Frank Herbert", TotalQuantity: 1, AvailableQuantity: 1,
		})
		require.Error(t, err)
		assertCode(t, err, books.CodeInvalidArgument)
	})

	t.Run("available_cannot_exceed_total", func(t *testing.T) {
		svc := books.NewServiceWithStore(newFakeStore())
		_, err := svc.CreateBook(ctx, books.CreateBookRequest{
			Title: "Dune", Author: "Frank Herbert", TotalQuantity: 2, AvailableQuantity: 3,
		})
		require.Error(t, err)
		assertCode(t, err, books.CodeInvalidArgument)
	})

	t.Run("damaged_cannot_exceed_total", func(t *testing.T) {
		svc := books.NewServiceWithStore(newFakeStore())
		damaged := 5
		_, err := svc.CreateBook(ctx, books.CreateBookRequest{
			Title: "Dune", Author: "Frank Herbert", TotalQuantity: 2, AvailableQuantity: 1,
			DamagedQuantity: &damaged,
		})
		require.Error(t, err)
		assertCode(t, err, books.CodeInvalidArgument)
	})

	t.Run("unknown_category_rejected", func(t *testing.T) {
		store := newFakeStore()
		store.addCategory(1, "History")
		svc := books.NewServiceWithStore(store)
		_, err := svc.CreateBook(ctx, books.CreateBookRequest{
			Title: "1776", Author: "David McCullough", TotalQuantity: 1, AvailableQuantity: 1,
			CategoryIDs: []int64{1, 99},
		})
		require.Error(t, err)
		assertCode(t, err, books.CodeInvalidArgument)
	})
}

func TestUpdateBook(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	store.addCategory(1, "Mystery")
	store.addCategory(2, "Romance")
	svc := books.NewServiceWithStore(store)

	created, err := svc.CreateBook(ctx, books.CreateBookRequest{
		Title: "Gone Girl", Author: "Gillian Flynn",
		TotalQuantity: 2, AvailableQuantity: 2, CategoryIDs: []int64{1},
	})
	require.NoError(t, err)

	t.Run("replaces_fields_and_categories", func(t *testing.T) {
		res, err := svc.UpdateBook(ctx, created.BookID, books.UpdateBookRequest{
			Title: "Gone Girl", Author: "Gillian Flynn",
			TotalQuantity: 4, AvailableQuantity: 3, CategoryIDs: []int64{2},
		})
		require.NoError(t, err)
		assert.Equal(t, 4, res.TotalQuantity)
		assert.Equal(t, 3, res.AvailableQuantity)
		require.Len(t, res.Categories, 1)
		assert.Equal(t, "Romance", res.Categories[0].Name)
	})

	t.Run("keeps_damaged_when_omitted", func(t *testing.T) {
		_, err := svc.AdjustDamaged(ctx, created.BookID, 1)
		require.NoError(t, err)

		res, err := svc.UpdateBook(ctx, created.BookID, books.UpdateBookRequest{
			Title: "Gone Girl", Author: "Gillian Flynn",
			TotalQuantity: 4, AvailableQuantity: 3,
		})
		require.NoError(t, err)
		assert.Equal(t, 1, res.DamagedQuantity)
	})

	t.Run("unknown_book_is_not_found", func(t *testing.T) {
		_, err := svc.UpdateBook(ctx, 9999, books.UpdateBookRequest{
			Title: "x", Author: "y", TotalQuantity: 1, AvailableQuantity: 1,
		})
		require.Error(t, err)
		assertCode(t, err, books.CodeNotFound)
	})
}

func TestListBooks(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	store.addCategory(1, "Science Fiction")
	store.addCategory(2, "History")
	svc := books.NewServiceWithStore(store)

	seed := []struct {
		title, author string
		cats          []int64
	}{
		{"Dune", "Frank Herbert", []int64{1}},
		{"Foundation", "Isaac Asimov", []int64{1}},
		{"Sapiens", "Yuval Noah Harari", []int64{2}},
	}
	for _, s := range seed {
		_, err := svc.CreateBook(ctx, books.CreateBookRequest{
			Title: s.title, Author: s.author,
			TotalQuantity: 1, AvailableQuantity: 1, CategoryIDs: s.cats,
		})
		require.NoError(t, err)
	}

	t.Run("category_filter", func(t *testing.T) {
		cid := int64(1)
		items, total, err := svc.ListBooks(ctx, books.Filter{CategoryID: &cid}, books.Page{Limit: 10})
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
		require.Len(t, items, 2)
	})

	t.Run("search_matches_author", func(t *testing.T) {
		items, total, err := svc.ListBooks(ctx, books.Filter{Search: "Asimov"}, books.Page{Limit: 10})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, items, 1)
		assert.Equal(t, "Foundation", items[0].Title)
	})

	t.Run("pagination", func(t *testing.T) {
		items, total, err := svc.ListBooks(ctx, books.Filter{}, books.Page{Limit: 2, Offset: 2})
		require.NoError(t, err)
		assert.Equal(t, int64(3), total)
		require.Len(t, items, 1)
		assert.Equal(t, "Sapiens", items[0].Title)
	})
}

func TestAdjustDamaged(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	svc := books.NewServiceWithStore(store)

	created, err := svc.CreateBook(ctx, books.CreateBookRequest{
		Title: "The Martian", Author: "Andy Weir", TotalQuantity: 2, AvailableQuantity: 2,
	})
	require.NoError(t, err)

	t.Run("increments_and_decrements", func(t *testing.T) {
		res, err := svc.AdjustDamaged(ctx, created.BookID, 2)
		require.NoError(t, err)
		assert.Equal(t, 2, res.DamagedQuantity)

		res, err = svc.AdjustDamaged(ctx, created.BookID, -1)
		require.NoError(t, err)
		assert.Equal(t, 1, res.DamagedQuantity)
	})

	t.Run("zero_delta_rejected", func(t *testing.T) {
		_, err := svc.AdjustDamaged(ctx, created.BookID, 0)
		require.Error(t, err)
		assertCode(t, err, books.CodeInvalidArgument)
	})

	t.Run("cannot_go_below_zero", func(t *testing.T) {
		_, err := svc.AdjustDamaged(ctx, created.BookID, -5)
		require.Error(t, err)
		assertCode(t, err, books.CodeInvariantViolation)
	})

	t.Run("cannot_exceed_total", func(t *testing.T) {
		_, err := svc.AdjustDamaged(ctx, created.BookID, 2)
		require.Error(t, err)
		assertCode(t, err, books.CodeInvariantViolation)
	})

	t.Run("unknown_book", func(t *testing.T) {
		_, err := svc.AdjustDamaged(ctx, 9999, 1)
		require.Error(t, err)
		assertCode(t, err, books.CodeNotFound)
	})
}
