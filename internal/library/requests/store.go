package requests

import (
	"context"
	"database/sql"
	"time"
)

// Store は貸出リクエストの読み書き。カウンタ（books.available_quantity /
// users.current_borrowed）の更新はこの層の Exec 系メソッドだけが行う。
type Store interface {
	GetUser(ctx context.Context, userID int64) (*UserInfo, error)
	GetBook(ctx context.Context, bookID int64) (*BookInfo, error)
	HasActiveRequest(ctx context.Context, userID, bookID int64) (bool, error)
	ExecCreateRequest(ctx context.Context, r *Request) error
	ExecApproveRequest(ctx context.Context, requestID, librarianID int64, logULID string, now time.Time) (*Request, error)
	ExecRejectRequest(ctx context.Context, requestID int64) (*Request, error)
	ListPending(ctx context.Context) ([]PendingRow, error)
	ListByUser(ctx context.Context, userID int64) ([]UserRequestRow, error)
	ListLogs(ctx context.Context) ([]LogRow, error)
}

type PendingRow struct {
	Request
	UserName          string
	UserEmail         string
	BookTitle         string
	BookAuthor        string
	AvailableQuantity int
}

type UserRequestRow struct {
	Request
	BookTitle  string
	BookAuthor string
}

type LogRow struct {
	BookLog
	UserName  string
	BookTitle string
}

type SQLStore struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *SQLStore { return &SQLStore{db: db} }

func (s *SQLStore) GetUser(ctx context.Context, userID int64) (*UserInfo, error) {
	const q = `
	SELECT user_id, name, email, role, borrowing_limit, current_borrowed
	FROM users WHERE user_id = ?`
	var u UserInfo
	err := s.db.QueryRowContext(ctx, q, userID).Scan(
		&u.UserID, &u.Name, &u.Email, &u.Role, &u.BorrowingLimit, &u.CurrentBorrowed,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *SQLStore) GetBook(ctx context.Context, bookID int64) (*BookInfo, error) {
	const q = `
	SELECT book_id, title, author, total_quantity, available_quantity
	FROM books WHERE book_id = ?`
	var b BookInfo
	err := s.db.QueryRowContext(ctx, q, bookID).Scan(
		&b.BookID, &b.Title, &b.Author, &b.TotalQuantity, &b.AvailableQuantity,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// アクティブなリクエスト = status が pending か approved のもの
func (s *SQLStore) HasActiveRequest(ctx context.Context, userID, bookID int64) (bool, error) {
	const q = `
	SELECT COUNT(*) FROM requests
	WHERE user_id = ? AND book_id = ? AND status IN ('pending', 'approved')`
	var n int
	if err := s.db.QueryRowContext(ctx, q, userID, bookID).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}

// ---- Transactional Methods ----

// ExecCreateRequest handles the full transaction flow for creating a request.
// ユーザ行をロックして同一ユーザの同時作成を直列化し、重複チェックをロック後に
// やり直してから INSERT する。在庫チェックはここでは行わない（承認時のみ）。
func (s *SQLStore) ExecCreateRequest(ctx context.Context, r *Request) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	// 1. Lock user row
	const userQ = `
	SELECT role, borrowing_limit, current_borrowed
	FROM users WHERE user_id = ? FOR UPDATE`
	var role string
	var limit, borrowed int
	if err = tx.QueryRowContext(ctx, userQ, r.UserID).Scan(&role, &limit, &borrowed); err != nil {
		if err == sql.ErrNoRows {
			err = ErrNotFound("user not found")
		}
		return err
	}

	// 2. Re-check limit post-lock
	if role == "reader" && borrowed >= limit {
		err = ErrLimitReached()
		return err
	}

	// 3. Re-check duplicate post-lock
	const dupQ = `
	SELECT COUNT(*) FROM requests
	WHERE user_id = ? AND book_id = ? AND status IN ('pending', 'approved')`
	var n int
	if err = tx.QueryRowContext(ctx, dupQ, r.UserID, r.BookID).Scan(&n); err != nil {
		return err
	}
	if n > 0 {
		err = ErrDuplicateRequest()
		return err
	}

	// 4. Insert request
	const insQ = `
	INSERT INTO requests (request_ulid, user_id, book_id, status, request_date)
	VALUES (?, ?, ?, 'pending', ?)`
	res, err := tx.ExecContext(ctx, insQ, r.RequestULID, r.UserID, r.BookID, r.RequestDate)
	if err != nil {
		return err
	}
	id, _ := res.LastInsertId()
	r.RequestID = id
	r.Status = StatusPending

	return tx.Commit()
}

// ExecApproveRequest handles the full transaction flow for approving a request.
// 書籍行を FOR UPDATE でロックし、ロック後に在庫とステータスを再検証してから
// カウンタ更新＋ログ追記を1トランザクションで確定する。
func (s *SQLStore) ExecApproveRequest(ctx context.Context, requestID, librarianID int64, logULID string, now time.Time) (*Request, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	// 1. Lock request row & status check
	const reqQ = `
	SELECT request_id, request_ulid, user_id, book_id, status, request_date, approved_by
	FROM requests WHERE request_id = ? FOR UPDATE`
	var r Request
	if err = tx.QueryRowContext(ctx, reqQ, requestID).Scan(
		&r.RequestID, &r.RequestULID, &r.UserID, &r.BookID, &r.Status, &r.RequestDate, &r.ApprovedBy,
	); err != nil {
		if err == sql.ErrNoRows {
			err = ErrNotFound("request not found")
		}
		return nil, err
	}
	if r.Status != StatusPending {
		err = ErrInvalidState("request already processed")
		return nil, err
	}

	// 2. Lock book row & stock check
	const bookQ = `
	SELECT available_quantity FROM books WHERE book_id = ? FOR UPDATE`
	var available int
	if err = tx.QueryRowContext(ctx, bookQ, r.BookID).Scan(&available); err != nil {
		if err == sql.ErrNoRows {
			err = ErrNotFound("book not found")
		}
		return nil, err
	}
	if available < 1 {
		err = ErrBookUnavailable()
		return nil, err
	}

	// 3. Transition request status
	const updReqQ = `
	UPDATE requests SET status = 'approved', approved_by = ?
	WHERE request_id = ? AND status = 'pending'`
	res, err := tx.ExecContext(ctx, updReqQ, librarianID, requestID)
	if err != nil {
		return nil, err
	}
	if aff, _ := res.RowsAffected(); aff != 1 {
		err = ErrInvalidState("request already processed")
		return nil, err
	}

	// 4. Decrement stock (guarded)
	const updBookQ = `
	UPDATE books SET available_quantity = available_quantity - 1
	WHERE book_id = ? AND available_quantity >= 1`
	res, err = tx.ExecContext(ctx, updBookQ, r.BookID)
	if err != nil {
		return nil, err
	}
	if aff, _ := res.RowsAffected(); aff != 1 {
		err = ErrInvariantViolation("available_quantity would drop below 0")
		return nil, err
	}

	// 5. Increment borrower counter (readers のみ、上限ガード付き)
	const roleQ = `SELECT role FROM users WHERE user_id = ? FOR UPDATE`
	var role string
	if err = tx.QueryRowContext(ctx, roleQ, r.UserID).Scan(&role); err != nil {
		if err == sql.ErrNoRows {
			err = ErrNotFound("user not found")
		}
		return nil, err
	}
	if role == "reader" {
		const updUserQ = `
		UPDATE users SET current_borrowed = current_borrowed + 1
		WHERE user_id = ? AND current_borrowed < borrowing_limit`
		res, err = tx.ExecContext(ctx, updUserQ, r.UserID)
		if err != nil {
			return nil, err
		}
		if aff, _ := res.RowsAffected(); aff != 1 {
			err = ErrInvariantViolation("current_borrowed would exceed borrowing_limit")
			return nil, err
		}
	}

	// 6. Append movement log
	const logQ = `
	INSERT INTO book_logs (log_ulid, user_id, book_id, action, action_date, approved_by)
	VALUES (?, ?, ?, 'borrow', ?, ?)`
	if _, err = tx.ExecContext(ctx, logQ, logULID, r.UserID, r.BookID, now, librarianID); err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, err
	}

	r.Status = StatusApproved
	r.ApprovedBy = sql.NullInt64{Int64: librarianID, Valid: true}
	return &r, nil
}

// ExecRejectRequest: ステータス遷移のみ。カウンタもログも触らない。
func (s *SQLStore) ExecRejectRequest(ctx context.Context, requestID int64) (*Request, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const reqQ = `
	SELECT request_id, request_ulid, user_id, book_id, status, request_date, approved_by
	FROM requests WHERE request_id = ? FOR UPDATE`
	var r Request
	if err = tx.QueryRowContext(ctx, reqQ, requestID).Scan(
		&r.RequestID, &r.RequestULID, &r.UserID, &r.BookID, &r.Status, &r.RequestDate, &r.ApprovedBy,
	); err != nil {
		if err == sql.ErrNoRows {
			err = ErrNotFound("request not found")
		}
		return nil, err
	}
	if r.Status != StatusPending {
		err = ErrInvalidState("request already processed")
		return nil, err
	}

	const updQ = `
	UPDATE requests SET status = 'rejected'
	WHERE request_id = ? AND status = 'pending'`
	res, err := tx.ExecContext(ctx, updQ, requestID)
	if err != nil {
		return nil, err
	}
	if aff, _ := res.RowsAffected(); aff != 1 {
		err = ErrInvalidState("request already processed")
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, err
	}

	r.Status = StatusRejected
	return &r, nil
}

// ---- Queries ----

func (s *SQLStore) ListPending(ctx context.Context) ([]PendingRow, error) {
	const q = `
	SELECT
		r.request_id, r.request_ulid, r.user_id, r.book_id, r.status, r.request_date, r.approved_by,
		u.name, u.email,
		b.title, b.author, b.available_quantity
	FROM requests r
	JOIN users u ON u.user_id = r.user_id
	JOIN books b ON b.book_id = r.book_id
	WHERE r.status = 'pending'
	ORDER BY r.request_date ASC, r.request_id ASC`

	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []PendingRow
	for rows.Next() {
		var row PendingRow
		if err := rows.Scan(
			&row.RequestID, &row.RequestULID, &row.UserID, &row.BookID, &row.Status, &row.RequestDate, &row.ApprovedBy,
			&row.UserName, &row.UserEmail,
			&row.BookTitle, &row.BookAuthor, &row.AvailableQuantity,
		); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (s *SQLStore) ListByUser(ctx context.Context, userID int64) ([]UserRequestRow, error) {
	const q = `
	SELECT
		r.request_id, r.request_ulid, r.user_id, r.book_id, r.status, r.request_date, r.approved_by,
		b.title, b.author
	FROM requests r
	JOIN books b ON b.book_id = r.book_id
	WHERE r.user_id = ?
	ORDER BY r.request_date DESC, r.request_id DESC`

	rows, err := s.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []UserRequestRow
	for rows.Next() {
		var row UserRequestRow
		if err := rows.Scan(
			&row.RequestID, &row.RequestULID, &row.UserID, &row.BookID, &row.Status, &row.RequestDate, &row.ApprovedBy,
			&row.BookTitle, &row.BookAuthor,
		); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (s *SQLStore) ListLogs(ctx context.Context) ([]LogRow, error) {
	const q = `
	SELECT
		l.log_id, l.log_ulid, l.user_id, l.book_id, l.action, l.action_date, l.approved_by,
		u.name, b.title
	FROM book_logs l
	JOIN users u ON u.user_id = l.user_id
	JOIN books b ON b.book_id = l.book_id
	ORDER BY l.action_date DESC, l.log_id DESC`

	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []LogRow
	for rows.Next() {
		var row LogRow
		if err := rows.Scan(
			&row.LogID, &row.LogULID, &row.UserID, &row.BookID, &row.Action, &row.ActionDate, &row.ApprovedBy,
			&row.UserName, &row.BookTitle,
		); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
