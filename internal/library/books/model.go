package books

import "time"

// Book は books テーブルの1行を表す
type Book struct {
	BookID            int64
	Title             string
	Author            string
	TotalQuantity     int
	AvailableQuantity int
	DamagedQuantity   int
	CreatedAt         time.Time
}

// CategoryRef は書籍に紐付くカテゴリの射影
type CategoryRef struct {
	CategoryID int64  `json:"category_id"`
	Name       string `json:"name"`
}

// 書籍一覧の検索条件
type Filter struct {
	CategoryID *int64
	Search     string // title / author の部分一致
}

type Page struct {
	Limit  int
	Offset int
}
