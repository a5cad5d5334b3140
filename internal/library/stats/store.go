package stats

import (
	"context"
	"database/sql"

	"maktaba-backend/internal/platform/db"
)

type Totals struct {
	TotalBooks     int64
	TotalBorrowed  int64
	TotalAvailable int64
	TotalDamaged   int64
}

type MostRequestedBook struct {
	BookID       int64  `json:"book_id"`
	Title        string `json:"title"`
	Author       string `json:"author"`
	RequestCount int64  `json:"request_count"`
}

type CategoryCount struct {
	CategoryID int64  `json:"category_id"`
	Name       string `json:"name"`
	BookCount  int64  `json:"book_count"`
}

type Store interface {
	Totals(ctx context.Context) (Totals, error)
	MostRequestedBook(ctx context.Context) (*MostRequestedBook, error)
	CategoryExtremes(ctx context.Context) (most, least *CategoryCount, err error)
}

type SQLStore struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *SQLStore { return &SQLStore{db: db} }

// 蔵書カウンタの合計。borrowed は total - available の差分として導出する。
func (s *SQLStore) Totals(ctx context.Context) (Totals, error) {
	const q = `
	SELECT
		COALESCE(SUM(total_quantity), 0),
		COALESCE(SUM(total_quantity - available_quantity), 0),
		COALESCE(SUM(available_quantity), 0),
		COALESCE(SUM(damaged_quantity), 0)
	FROM books`

	var t Totals
	err := s.db.QueryRowContext(ctx, q).Scan(&t.TotalBooks, &t.TotalBorrowed, &t.TotalAvailable, &t.TotalDamaged)
	return t, err
}

// リクエスト数最多の書籍。同数なら book_id が小さい方を返す。
func (s *SQLStore) MostRequestedBook(ctx context.Context) (*MostRequestedBook, error) {
	const q = `
	SELECT r.book_id, b.title, b.author, COUNT(*) AS cnt
	FROM requests r
	JOIN books b ON b.book_id = r.book_id
	GROUP BY r.book_id, b.title, b.author
	ORDER BY cnt DESC, r.book_id ASC
	LIMIT 1`

	var m MostRequestedBook
	err := s.db.QueryRowContext(ctx, q).Scan(&m.BookID, &m.Title, &m.Author, &m.RequestCount)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// 紐付け数が最多/最少のカテゴリ。同数なら category_id が小さい方。
// 書籍ゼロのカテゴリは対象外（join行ベースの集計）。
// 2クエリが同じスナップショットを見るよう読み取り専用Txで囲む。
func (s *SQLStore) CategoryExtremes(ctx context.Context) (*CategoryCount, *CategoryCount, error) {
	const mostQ = `
	SELECT c.category_id, c.name, COUNT(*) AS cnt
	FROM book_categories bc
	JOIN categories c ON c.category_id = bc.category_id
	GROUP BY c.category_id, c.name
	ORDER BY cnt DESC, c.category_id ASC
	LIMIT 1`

	const leastQ = `
	SELECT c.category_id, c.name, COUNT(*) AS cnt
	FROM book_categories bc
	JOIN categories c ON c.category_id = bc.category_id
	GROUP BY c.category_id, c.name
	ORDER BY cnt ASC, c.category_id ASC
	LIMIT 1`

	var most, least *CategoryCount
	err := db.ReadOnly(ctx, s.db, func(ctx context.Context, tx db.DBTX) error {
		var m CategoryCount
		err := tx.QueryRowContext(ctx, mostQ).Scan(&m.CategoryID, &m.Name, &m.BookCount)
		if err == sql.ErrNoRows {
			return nil
		}
		if err != nil {
			return err
		}

		var l CategoryCount
		if err := tx.QueryRowContext(ctx, leastQ).Scan(&l.CategoryID, &l.Name, &l.BookCount); err != nil {
			return err
		}

		most, least = &m, &l
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return most, least, nil
}
