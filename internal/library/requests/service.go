package requests

import (
	"context"
	"crypto/rand"
	"database/sql"
	"time"

	"github.com/oklog/ulid/v2"
)

// ===== インターフェース群 =====

type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now()
}

type IDGen interface {
	New() (string, error)
}

type ulidGen struct{}

func (ulidGen) New() (string, error) {
	t := time.Now().UTC()
	entropy := ulid.Monotonic(rand.Reader, 0)
	id, err := ulid.New(ulid.Timestamp(t), entropy)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// ===== Service本体 =====

type Service struct {
	store Store
	clock Clock
	id    IDGen
}

func NewService(db *sql.DB) *Service {
	return &Service{
		store: NewStore(db),
		clock: realClock{},
		id:    ulidGen{},
	}
}

// NewServiceWithStore: ストア実装を差し替えたい場合用（テスト等）
func NewServiceWithStore(store Store, clock Clock, id IDGen) *Service {
	return &Service{store: store, clock: clock, id: id}
}

// CreateRequest: 貸出リクエスト作成。
// 検証順: ユーザ存在 → 貸出上限（readerのみ）→ 重複リクエスト。
// 在庫はここでは見ない（在庫0でもリクエスト可、在庫の強制は承認時のみ）。
func (s *Service) CreateRequest(ctx context.Context, userID, bookID int64) (*RequestResponse, error) {
	if userID <= 0 {
		return nil, ErrInvalid("user_id must be > 0")
	}
	if bookID <= 0 {
		return nil, ErrInvalid("book_id must be > 0")
	}

	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrNotFound("user not found")
	}

	if user.Role == "reader" && user.CurrentBorrowed >= user.BorrowingLimit {
		return nil, ErrLimitReached()
	}

	active, err := s.store.HasActiveRequest(ctx, userID, bookID)
	if err != nil {
		return nil, err
	}
	if active {
		return nil, ErrDuplicateRequest()
	}

	idStr, err := s.id.New()
	if err != nil {
		return nil, err
	}

	r := &Request{
		RequestULID: idStr,
		UserID:      userID,
		BookID:      bookID,
		Status:      StatusPending,
		RequestDate: s.clock.Now(),
	}

	// 上のチェックはfail-fast用。確定判定はトランザクション内で再検証される。
	if err := s.store.ExecCreateRequest(ctx, r); err != nil {
		return nil, err
	}

	resp := buildRequestResponse(r)
	return &resp, nil
}

// ApproveRequest: 承認。ステータス遷移・在庫減算・貸出カウンタ加算・ログ追記を
// ストア側が1トランザクションで適用する。
func (s *Service) ApproveRequest(ctx context.Context, requestID, librarianID int64) (*RequestResponse, error) {
	if requestID <= 0 {
		return nil, ErrInvalid("request_id must be > 0")
	}
	if librarianID <= 0 {
		return nil, ErrInvalid("librarian_id must be > 0")
	}

	logULID, err := s.id.New()
	if err != nil {
		return nil, err
	}

	r, err := s.store.ExecApproveRequest(ctx, requestID, librarianID, logULID, s.clock.Now())
	if err != nil {
		return nil, err
	}

	resp := buildRequestResponse(r)
	return &resp, nil
}

// RejectRequest: 却下。カウンタは変えずログも書かない。
func (s *Service) RejectRequest(ctx context.Context, requestID int64) (*RequestResponse, error) {
	if requestID <= 0 {
		return nil, ErrInvalid("request_id must be > 0")
	}

	r, err := s.store.ExecRejectRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}

	resp := buildRequestResponse(r)
	return &resp, nil
}

// 司書向け: 未処理リクエスト一覧
func (s *Service) ListPending(ctx context.Context) ([]PendingRequestResponse, error) {
	rows, err := s.store.ListPending(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]PendingRequestResponse, 0, len(rows))
	for i := range rows {
		row := &rows[i]
		result = append(result, PendingRequestResponse{
			RequestResponse:   buildRequestResponse(&row.Request),
			UserName:          row.UserName,
			UserEmail:         row.UserEmail,
			BookTitle:         row.BookTitle,
			BookAuthor:        row.BookAuthor,
			AvailableQuantity: row.AvailableQuantity,
		})
	}
	return result, nil
}

// 利用者向け: 自分のリクエスト履歴
func (s *Service) ListByUser(ctx context.Context, userID int64) ([]UserRequestResponse, error) {
	if userID <= 0 {
		return nil, ErrInvalid("user_id must be > 0")
	}

	rows, err := s.store.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	result := make([]UserRequestResponse, 0, len(rows))
	for i := range rows {
		row := &rows[i]
		result = append(result, UserRequestResponse{
			RequestResponse: buildRequestResponse(&row.Request),
			BookTitle:       row.BookTitle,
			BookAuthor:      row.BookAuthor,
		})
	}
	return result, nil
}

// 管理者向け: 貸出ログ一覧
func (s *Service) ListLogs(ctx context.Context) ([]BookLogResponse, error) {
	rows, err := s.store.ListLogs(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]BookLogResponse, 0, len(rows))
	for _, row := range rows {
		result = append(result, BookLogResponse{
			LogID:      row.LogID,
			LogULID:    row.LogULID,
			UserID:     row.UserID,
			UserName:   row.UserName,
			BookID:     row.BookID,
			BookTitle:  row.BookTitle,
			Action:     row.Action,
			ActionDate: row.ActionDate,
			ApprovedBy: row.ApprovedBy,
		})
	}
	return result, nil
}
