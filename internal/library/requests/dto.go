package requests

import "time"

// 貸出リクエスト作成（user_id はトークンから取るのでボディには book_id のみ）
type CreateRequestInput struct {
	BookID int64 `json:"book_id" binding:"required"`
}

type RequestResponse struct {
	RequestID   int64     `json:"request_id"`
	RequestULID string    `json:"request_ulid"`
	UserID      int64     `json:"user_id"`
	BookID      int64     `json:"book_id"`
	Status      string    `json:"status"`
	RequestDate time.Time `json:"request_date"`
	ApprovedBy  *int64    `json:"approved_by,omitempty"`
}

// 司書向け一覧（利用者と書籍をJOINした形）
type PendingRequestResponse struct {
	RequestResponse
	UserName          string `json:"user_name"`
	UserEmail         string `json:"user_email"`
	BookTitle         string `json:"book_title"`
	BookAuthor        string `json:"book_author"`
	AvailableQuantity int    `json:"available_quantity"`
}

// 利用者向け一覧（書籍をJOINした形）
type UserRequestResponse struct {
	RequestResponse
	BookTitle  string `json:"book_title"`
	BookAuthor string `json:"book_author"`
}

type BookLogResponse struct {
	LogID      int64     `json:"log_id"`
	LogULID    string    `json:"log_ulid"`
	UserID     int64     `json:"user_id"`
	UserName   string    `json:"user_name"`
	BookID     int64     `json:"book_id"`
	BookTitle  string    `json:"book_title"`
	Action     string    `json:"action"`
	ActionDate time.Time `json:"action_date"`
	ApprovedBy int64     `json:"approved_by"`
}

func buildRequestResponse(r *Request) RequestResponse {
	resp := RequestResponse{
		RequestID:   r.RequestID,
		RequestULID: r.RequestULID,
		UserID:      r.UserID,
		BookID:      r.BookID,
		Status:      r.Status,
		RequestDate: r.RequestDate,
	}
	if r.ApprovedBy.Valid {
		val := r.ApprovedBy.Int64
		resp.ApprovedBy = &val
	}
	return resp
}
