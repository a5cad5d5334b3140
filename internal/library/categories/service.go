package categories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	mysql "github.com/go-sql-driver/mysql"
)

// ===== Error model =====
type Code string

const (
	CodeInvalidArgument Code = "INVALID_ARGUMENT"
	CodeNotFound        Code = "NOT_FOUND"
	CodeConflict        Code = "CONFLICT"
	CodeInternal        Code = "INTERNAL"
)

type APIError struct {
	Code    Code
	Message string
}

func (e *APIError) Error() string      { return fmt.Sprintf("%s: %s", e.Code, e.Message) }
func ErrInvalid(msg string) *APIError  { return &APIError{Code: CodeInvalidArgument, Message: msg} }
func ErrNotFound(msg string) *APIError { return &APIError{Code: CodeNotFound, Message: msg} }
func ErrConflict(msg string) *APIError { return &APIError{Code: CodeConflict, Message: msg} }
func ErrInternal(msg string) *APIError { return &APIError{Code: CodeInternal, Message: msg} }

func toHTTPStatus(err error) int {
	var api *APIError
	if errors.As(err, &api) {
		switch api.Code {
		case CodeInvalidArgument:
			return 400
		case CodeNotFound:
			return 404
		case CodeConflict:
			return 409
		default:
			return 500
		}
	}
	return 500
}

type Service struct {
	store Store
}

func NewService(db *sql.DB) *Service { return &Service{store: NewStore(db)} }

// NewServiceWithStore: ストア実装を差し替えたい場合用（テスト等）
func NewServiceWithStore(store Store) *Service { return &Service{store: store} }

func (s *Service) ListCategories(ctx context.Context) ([]Category, error) {
	out, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []Category{}
	}
	return out, nil
}

func (s *Service) CreateCategory(ctx context.Context, name string) (*Category, error) {
	if strings.TrimSpace(name) == "" {
		return nil, ErrInvalid("name is required")
	}

	c := &Category{Name: name}
	if err := s.store.Insert(ctx, c); err != nil {
		var me *mysql.MySQLError
		if errors.As(err, &me) && me.Number == 1062 { // duplicate key
			return nil, ErrConflict("category name already exists")
		}
		return nil, err
	}
	return c, nil
}

func (s *Service) DeleteCategory(ctx context.Context, categoryID int64) error {
	if categoryID <= 0 {
		return ErrInvalid("category_id must be > 0")
	}

	n, err := s.store.Delete(ctx, categoryID)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound("category not found")
	}
	return nil
}
