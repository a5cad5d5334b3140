package requests

import (
	"database/sql"
	"time"
)

// リクエストのステータス（pending から approved / rejected への一方通行）
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// book_logs の action 値
// return は将来の返却フロー用に値だけ予約してある（現状のフローでは borrow のみ記録される）
const (
	ActionBorrow = "borrow"
	ActionReturn = "return"
)

// Request は requests テーブルの1行を表す
type Request struct {
	RequestID   int64
	RequestULID string
	UserID      int64
	BookID      int64
	Status      string
	RequestDate time.Time
	ApprovedBy  sql.NullInt64
}

// BookLog は book_logs テーブルの1行を表す（追記専用）
type BookLog struct {
	LogID      int64
	LogULID    string
	UserID     int64
	BookID     int64
	Action     string
	ActionDate time.Time
	ApprovedBy int64
}

// UserInfo / BookInfo は検証に必要なカラムだけの射影
type UserInfo struct {
	UserID          int64
	Name            string
	Email           string
	Role            string
	BorrowingLimit  int
	CurrentBorrowed int
}

type BookInfo struct {
	BookID            int64
	Title             string
	Author            string
	TotalQuantity     int
	AvailableQuantity int
}
