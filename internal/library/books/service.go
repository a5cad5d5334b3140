package books

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// ===== Error model =====
type Code string

const (
	CodeInvalidArgument    Code = "INVALID_ARGUMENT"
	CodeNotFound           Code = "NOT_FOUND"
	CodeConflict           Code = "CONFLICT"
	CodeInvariantViolation Code = "INVARIANT_VIOLATION"
	CodeInternal           Code = "INTERNAL"
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

func ErrInvariantViolation(msg string) *APIError {
	return &APIError{Code: CodeInvariantViolation, Message: msg}
}

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

// カウンタ境界の入力検証（0 ≤ available ≤ total, 0 ≤ damaged ≤ total）
func validateQuantities(total, available, damaged int) error {
	if total < 0 {
		return ErrInvalid("total_quantity must be >= 0")
	}
	if available < 0 || available > total {
		return ErrInvalid("available_quantity must be between 0 and total_quantity")
	}
	if damaged < 0 || damaged > total {
		return ErrInvalid("damaged_quantity must be between 0 and total_quantity")
	}
	return nil
}

func (s *Service) checkCategories(ctx context.Context, ids []int64) error {
	missing, err := s.store.MissingCategories(ctx, ids)
	if err != nil {
		return err
	}
	if len(missing) > 0 {
		return ErrInvalid(fmt.Sprintf("unknown category ids: %v", missing))
	}
	return nil
}

func (s *Service) CreateBook(ctx context.Context, req CreateBookRequest) (*BookResponse, error) {
	if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.Author) == "" {
		return nil, ErrInvalid("title and author are required")
	}

	damaged := 0
	if req.DamagedQuantity != nil {
		damaged = *req.DamagedQuantity
	}
	if err := validateQuantities(req.TotalQuantity, req.AvailableQuantity, damaged); err != nil {
		return nil, err
	}
	if err := s.checkCategories(ctx, req.CategoryIDs); err != nil {
		return nil, err
	}

	b := &Book{
		Title:             req.Title,
		Author:            req.Author,
		TotalQuantity:     req.TotalQuantity,
		AvailableQuantity: req.AvailableQuantity,
		DamagedQuantity:   damaged,
	}
	if err := s.store.Insert(ctx, b, req.CategoryIDs); err != nil {
		return nil, err
	}

	out, err := s.store.GetByID(ctx, b.BookID)
	if err != nil {
		return nil, err
	}
	if out == nil {
		return nil, ErrInternal("book vanished after insert")
	}
	resp := buildBookResponse(&out.Book, out.Categories)
	return &resp, nil
}

func (s *Service) UpdateBook(ctx context.Context, bookID int64, req UpdateBookRequest) (*BookResponse, error) {
	if bookID <= 0 {
		return nil, ErrInvalid("book_id must be > 0")
	}
	if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.Author) == "" {
		return nil, ErrInvalid("title and author are required")
	}

	current, err := s.store.GetByID(ctx, bookID)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, ErrNotFound("book not found")
	}

	damaged := current.DamagedQuantity
	if req.DamagedQuantity != nil {
		damaged = *req.DamagedQuantity
	}
	if err := validateQuantities(req.TotalQuantity, req.AvailableQuantity, damaged); err != nil {
		return nil, err
	}
	if err := s.checkCategories(ctx, req.CategoryIDs); err != nil {
		return nil, err
	}

	b := &Book{
		BookID:            bookID,
		Title:             req.Title,
		Author:            req.Author,
		TotalQuantity:     req.TotalQuantity,
		AvailableQuantity: req.AvailableQuantity,
		DamagedQuantity:   damaged,
	}
	if err := s.store.Update(ctx, b, req.CategoryIDs); err != nil {
		return nil, err
	}

	out, err := s.store.GetByID(ctx, bookID)
	if err != nil {
		return nil, err
	}
	if out == nil {
		return nil, ErrNotFound("book not found")
	}
	resp := buildBookResponse(&out.Book, out.Categories)
	return &resp, nil
}

func (s *Service) GetBook(ctx context.Context, bookID int64) (*BookResponse, error) {
	if bookID <= 0 {
		return nil, ErrInvalid("book_id must be > 0")
	}

	out, err := s.store.GetByID(ctx, bookID)
	if err != nil {
		return nil, err
	}
	if out == nil {
		return nil, ErrNotFound("book not found")
	}
	resp := buildBookResponse(&out.Book, out.Categories)
	return &resp, nil
}

func (s *Service) ListBooks(ctx context.Context, f Filter, p Page) ([]BookResponse, int64, error) {
	items, total, err := s.store.List(ctx, f, p)
	if err != nil {
		return nil, 0, err
	}

	result := make([]BookResponse, 0, len(items))
	for i := range items {
		result = append(result, buildBookResponse(&items[i].Book, items[i].Categories))
	}
	return result, total, nil
}

// AdjustDamaged: 破損数の増減。境界チェックはストアのガード付きUPDATEが行う。
func (s *Service) AdjustDamaged(ctx context.Context, bookID int64, delta int) (*BookResponse, error) {
	if bookID <= 0 {
		return nil, ErrInvalid("book_id must be > 0")
	}
	if delta == 0 {
		return nil, ErrInvalid("delta must not be 0")
	}

	b, err := s.store.AdjustDamaged(ctx, bookID, delta)
	if err != nil {
		return nil, err
	}

	out, err := s.store.GetByID(ctx, b.BookID)
	if err != nil {
		return nil, err
	}
	if out == nil {
		return nil, ErrNotFound("book not found")
	}
	resp := buildBookResponse(&out.Book, out.Categories)
	return &resp, nil
}
