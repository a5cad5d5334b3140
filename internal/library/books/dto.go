package books

import "time"

// ===== Requests =====

type CreateBookRequest struct {
	Title             string  `json:"title" binding:"required"`
	Author            string  `json:"author" binding:"required"`
	TotalQuantity     int     `json:"total_quantity"`
	AvailableQuantity int     `json:"available_quantity"`
	DamagedQuantity   *int    `json:"damaged_quantity,omitempty"`
	CategoryIDs       []int64 `json:"category_ids"`
}

type UpdateBookRequest struct {
	Title             string  `json:"title" binding:"required"`
	Author            string  `json:"author" binding:"required"`
	TotalQuantity     int     `json:"total_quantity"`
	AvailableQuantity int     `json:"available_quantity"`
	DamagedQuantity   *int    `json:"damaged_quantity,omitempty"`
	CategoryIDs       []int64 `json:"category_ids"`
}

// 破損数の増減（在庫操作とは独立のカウンタ）
type AdjustDamagedRequest struct {
	Delta int `json:"delta" binding:"required"`
}

// ===== Responses =====

type BookResponse struct {
	BookID            int64         `json:"book_id"`
	Title             string        `json:"title"`
	Author            string        `json:"author"`
	TotalQuantity     int           `json:"total_quantity"`
	AvailableQuantity int           `json:"available_quantity"`
	DamagedQuantity   int           `json:"damaged_quantity"`
	Categories        []CategoryRef `json:"categories"`
	CreatedAt         time.Time     `json:"created_at"`
}

func buildBookResponse(b *Book, cats []CategoryRef) BookResponse {
	if cats == nil {
		cats = []CategoryRef{}
	}
	return BookResponse{
		BookID:            b.BookID,
		Title:             b.Title,
		Author:            b.Author,
		TotalQuantity:     b.TotalQuantity,
		AvailableQuantity: b.AvailableQuantity,
		DamagedQuantity:   b.DamagedQuantity,
		Categories:        cats,
		CreatedAt:         b.CreatedAt,
	}
}
