package books

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

type Store interface {
	Insert(ctx context.Context, b *Book, categoryIDs []int64) error
	Update(ctx context.Context, b *Book, categoryIDs []int64) error
	GetByID(ctx context.Context, bookID int64) (*BookWithCategories, error)
	List(ctx context.Context, f Filter, p Page) ([]BookWithCategories, int64, error)
	MissingCategories(ctx context.Context, ids []int64) ([]int64, error)
	AdjustDamaged(ctx context.Context, bookID int64, delta int) (*Book, error)
}

type BookWithCategories struct {
	Book
	Categories []CategoryRef
}

type SQLStore struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *SQLStore { return &SQLStore{db: db} }

func (s *SQLStore) Insert(ctx context.Context, b *Book, categoryIDs []int64) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const q = `
	INSERT INTO books (title, author, total_quantity, available_quantity, damaged_quantity, created_at)
	VALUES (?, ?, ?, ?, ?, NOW(6))`
	res, err := tx.ExecContext(ctx, q, b.Title, b.Author, b.TotalQuantity, b.AvailableQuantity, b.DamagedQuantity)
	if err != nil {
		return err
	}
	id, _ := res.LastInsertId()
	b.BookID = id

	if err = insertJoinRows(ctx, tx, b.BookID, categoryIDs); err != nil {
		return err
	}

	return tx.Commit()
}

// Update: 全カラム更新＋カテゴリ紐付けの張り替え（join行を消して作り直す）
func (s *SQLStore) Update(ctx context.Context, b *Book, categoryIDs []int64) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const q = `
	UPDATE books
	SET title = ?, author = ?, total_quantity = ?, available_quantity = ?, damaged_quantity = ?
	WHERE book_id = ?`
	res, err := tx.ExecContext(ctx, q, b.Title, b.Author, b.TotalQuantity, b.AvailableQuantity, b.DamagedQuantity, b.BookID)
	if err != nil {
		return err
	}
	if aff, _ := res.RowsAffected(); aff == 0 {
		// 変更なし更新でも0になり得るため存在確認で区別する
		var n int
		if err = tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM books WHERE book_id = ?`, b.BookID).Scan(&n); err != nil {
			return err
		}
		if n == 0 {
			err = ErrNotFound("book not found")
			return err
		}
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM book_categories WHERE book_id = ?`, b.BookID); err != nil {
		return err
	}
	if err = insertJoinRows(ctx, tx, b.BookID, categoryIDs); err != nil {
		return err
	}

	return tx.Commit()
}

func insertJoinRows(ctx context.Context, tx *sql.Tx, bookID int64, categoryIDs []int64) error {
	const q = `INSERT INTO book_categories (book_id, category_id) VALUES (?, ?)`
	for _, cid := range categoryIDs {
		if _, err := tx.ExecContext(ctx, q, bookID, cid); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLStore) GetByID(ctx context.Context, bookID int64) (*BookWithCategories, error) {
	const q = `
	SELECT book_id, title, author, total_quantity, available_quantity, damaged_quantity, created_at
	FROM books WHERE book_id = ?`
	var b BookWithCategories
	err := s.db.QueryRowContext(ctx, q, bookID).Scan(
		&b.BookID, &b.Title, &b.Author, &b.TotalQuantity, &b.AvailableQuantity, &b.DamagedQuantity, &b.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	cats, err := s.categoriesFor(ctx, []int64{bookID})
	if err != nil {
		return nil, err
	}
	b.Categories = cats[bookID]
	return &b, nil
}

func (s *SQLStore) List(ctx context.Context, f Filter, p Page) ([]BookWithCategories, int64, error) {
	sb := strings.Builder{}
	sb.WriteString(`
	SELECT DISTINCT b.book_id, b.title, b.author, b.total_quantity, b.available_quantity, b.damaged_quantity, b.created_at
	FROM books b`)

	args := []any{}
	if f.CategoryID != nil {
		sb.WriteString(` JOIN book_categories bc ON bc.book_id = b.book_id AND bc.category_id = ?`)
		args = append(args, *f.CategoryID)
	}
	sb.WriteString(` WHERE 1=1`)
	if f.Search != "" {
		sb.WriteString(` AND (b.title LIKE ? OR b.author LIKE ?)`)
		like := "%" + f.Search + "%"
		args = append(args, like, like)
	}
	sb.WriteString(` ORDER BY b.book_id ASC`)
	if p.Limit <= 0 {
		p.Limit = 10
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	sb.WriteString(` LIMIT ? OFFSET ?`)
	args = append(args, p.Limit, p.Offset)

	rows, err := s.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []BookWithCategories
	var ids []int64
	for rows.Next() {
		var b BookWithCategories
		if err := rows.Scan(
			&b.BookID, &b.Title, &b.Author, &b.TotalQuantity, &b.AvailableQuantity, &b.DamagedQuantity, &b.CreatedAt,
		); err != nil {
			return nil, 0, err
		}
		out = append(out, b)
		ids = append(ids, b.BookID)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	cats, err := s.categoriesFor(ctx, ids)
	if err != nil {
		return nil, 0, err
	}
	for i := range out {
		out[i].Categories = cats[out[i].BookID]
	}

	// Total count query（WHERE条件はリストと同じ）
	cb := strings.Builder{}
	cb.WriteString(`SELECT COUNT(DISTINCT b.book_id) FROM books b`)
	argsCnt := []any{}
	if f.CategoryID != nil {
		cb.WriteString(` JOIN book_categories bc ON bc.book_id = b.book_id AND bc.category_id = ?`)
		argsCnt = append(argsCnt, *f.CategoryID)
	}
	cb.WriteString(` WHERE 1=1`)
	if f.Search != "" {
		cb.WriteString(` AND (b.title LIKE ? OR b.author LIKE ?)`)
		like := "%" + f.Search + "%"
		argsCnt = append(argsCnt, like, like)
	}
	var total int64
	if err := s.db.QueryRowContext(ctx, cb.String(), argsCnt...).Scan(&total); err != nil {
		return nil, 0, err
	}

	return out, total, nil
}

func (s *SQLStore) categoriesFor(ctx context.Context, bookIDs []int64) (map[int64][]CategoryRef, error) {
	result := make(map[int64][]CategoryRef)
	if len(bookIDs) == 0 {
		return result, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(bookIDs)), ",")
	q := fmt.Sprintf(`
	SELECT bc.book_id, c.category_id, c.name
	FROM book_categories bc
	JOIN categories c ON c.category_id = bc.category_id
	WHERE bc.book_id IN (%s)
	ORDER BY c.category_id ASC`, placeholders)

	args := make([]any, len(bookIDs))
	for i, id := range bookIDs {
		args[i] = id
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var bookID int64
		var ref CategoryRef
		if err := rows.Scan(&bookID, &ref.CategoryID, &ref.Name); err != nil {
			return nil, err
		}
		result[bookID] = append(result[bookID], ref)
	}
	return result, rows.Err()
}

// MissingCategories: 存在しないカテゴリIDを返す（入力検証用）
func (s *SQLStore) MissingCategories(ctx context.Context, ids []int64) ([]int64, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	q := fmt.Sprintf(`SELECT category_id FROM categories WHERE category_id IN (%s)`, placeholders)
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	found := make(map[int64]struct{})
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		found[id] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var missing []int64
	for _, id := range ids {
		if _, ok := found[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing, nil
}

// AdjustDamaged: 破損数カウンタの増減。行ロック後にガード付きUPDATEで境界
// (0 ≤ damaged ≤ total) を守る。available とは独立したカウンタ。
func (s *SQLStore) AdjustDamaged(ctx context.Context, bookID int64, delta int) (*Book, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const lockQ = `
	SELECT book_id, title, author, total_quantity, available_quantity, damaged_quantity, created_at
	FROM books WHERE book_id = ? FOR UPDATE`
	var b Book
	if err = tx.QueryRowContext(ctx, lockQ, bookID).Scan(
		&b.BookID, &b.Title, &b.Author, &b.TotalQuantity, &b.AvailableQuantity, &b.DamagedQuantity, &b.CreatedAt,
	); err != nil {
		if err == sql.ErrNoRows {
			err = ErrNotFound("book not found")
		}
		return nil, err
	}

	const updQ = `
	UPDATE books SET damaged_quantity = damaged_quantity + ?
	WHERE book_id = ? AND damaged_quantity + ? BETWEEN 0 AND total_quantity`
	res, err := tx.ExecContext(ctx, updQ, delta, bookID, delta)
	if err != nil {
		return nil, err
	}
	if aff, _ := res.RowsAffected(); aff != 1 {
		err = ErrInvariantViolation("damaged_quantity out of bounds")
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, err
	}

	b.DamagedQuantity += delta
	return &b, nil
}
