package stats

import (
	"context"
	"database/sql"
)

type DashboardStats struct {
	TotalBooks             int64              `json:"total_books"`
	TotalBorrowed          int64              `json:"total_borrowed"`
	TotalAvailable         int64              `json:"total_available"`
	TotalDamaged           int64              `json:"total_damaged"`
	MostRequestedBook      *MostRequestedBook `json:"most_requested_book"`
	CategoryWithMostBooks  *CategoryCount     `json:"category_with_most_books"`
	CategoryWithLeastBooks *CategoryCount     `json:"category_with_least_books"`
}

type Service struct {
	store Store
}

func NewService(db *sql.DB) *Service { return &Service{store: NewStore(db)} }

// NewServiceWithStore: ストア実装を差し替えたい場合用（テスト等）
func NewServiceWithStore(store Store) *Service { return &Service{store: store} }

// Dashboard: 読み取り専用の集計。毎回計算し直す（キャッシュ無し）。
func (s *Service) Dashboard(ctx context.Context) (*DashboardStats, error) {
	totals, err := s.store.Totals(ctx)
	if err != nil {
		return nil, err
	}

	most, err := s.store.MostRequestedBook(ctx)
	if err != nil {
		return nil, err
	}

	catMost, catLeast, err := s.store.CategoryExtremes(ctx)
	if err != nil {
		return nil, err
	}

	return &DashboardStats{
		TotalBooks:             totals.TotalBooks,
		TotalBorrowed:          totals.TotalBorrowed,
		TotalAvailable:         totals.TotalAvailable,
		TotalDamaged:           totals.TotalDamaged,
		MostRequestedBook:      most,
		CategoryWithMostBooks:  catMost,
		CategoryWithLeastBooks: catLeast,
	}, nil
}
