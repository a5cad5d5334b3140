package auth

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

type User struct {
	UserID          int64
	Name            string
	Email           string
	Role            string
	PasswordHash    string
	BorrowingLimit  int
	CurrentBorrowed int
	CreatedAt       time.Time
}

type UserStore interface {
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id int64) (*User, error)
	Create(ctx context.Context, u *User) error
}

type Store struct{ db *sql.DB }

func NewStore(db *sql.DB) UserStore {
	return &Store{db: db}
}

func (s *Store) GetByEmail(ctx context.Context, email string) (*User, error) {
	const q = `
SELECT user_id, name, email, role, password_hash, borrowing_limit, current_borrowed, created_at
FROM users
WHERE email = ?
LIMIT 1
`
	var u User
	err := s.db.QueryRowContext(ctx, q, email).Scan(
		&u.UserID,
		&u.Name,
		&u.Email,
		&u.Role,
		&u.PasswordHash,
		&u.BorrowingLimit,
		&u.CurrentBorrowed,
		&u.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Store) GetByID(ctx context.Context, id int64) (*User, error) {
	const q = `
SELECT user_id, name, email, role, password_hash, borrowing_limit, current_borrowed, created_at
FROM users
WHERE user_id = ?
LIMIT 1
`
	var u User
	err := s.db.QueryRowContext(ctx, q, id).Scan(
		&u.UserID,
		&u.Name,
		&u.Email,
		&u.Role,
		&u.PasswordHash,
		&u.BorrowingLimit,
		&u.CurrentBorrowed,
		&u.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Store) Create(ctx context.Context, u *User) error {
	const q = `
INSERT INTO users (name, email, role, password_hash, borrowing_limit, current_borrowed, created_at)
VALUES (?, ?, ?, ?, ?, 0, NOW(6))
`
	res, err := s.db.ExecContext(ctx, q, u.Name, u.Email, u.Role, u.PasswordHash, u.BorrowingLimit)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	u.UserID = id
	return nil
}
