package categories

import (
	"context"
	"database/sql"

	"maktaba-backend/internal/platform/db"
)

type Category struct {
	CategoryID int64  `json:"category_id"`
	Name       string `json:"name"`
}

type Store interface {
	List(ctx context.Context) ([]Category, error)
	Insert(ctx context.Context, c *Category) error
	Delete(ctx context.Context, categoryID int64) (int64, error)
}

type SQLStore struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *SQLStore { return &SQLStore{db: db} }

func (s *SQLStore) List(ctx context.Context) ([]Category, error) {
	const q = `SELECT category_id, name FROM categories ORDER BY category_id ASC`
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.CategoryID, &c.Name); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *SQLStore) Insert(ctx context.Context, c *Category) error {
	const q = `INSERT INTO categories (name) VALUES (?)`
	res, err := s.db.ExecContext(ctx, q, c.Name)
	if err != nil {
		return err
	}
	id, _ := res.LastInsertId()
	c.CategoryID = id
	return nil
}

// Delete: join行を先に消してからカテゴリ本体を消す
func (s *SQLStore) Delete(ctx context.Context, categoryID int64) (int64, error) {
	var n int64
	err := db.RunInTx(ctx, s.db, &sql.TxOptions{}, func(ctx context.Context, tx db.DBTX) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM book_categories WHERE category_id = ?`, categoryID); err != nil {
			return err
		}

		res, err := tx.ExecContext(ctx, `DELETE FROM categories WHERE category_id = ?`, categoryID)
		if err != nil {
			return err
		}
		n, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return 0, err
	}
	return n, nil
}
