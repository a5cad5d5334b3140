package requests_test

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"
	"time"

	"maktaba-backend/internal/library/requests"
)

// memStore は requests.Store のインメモリ実装。SQL実装と同じ検証・更新規則を
// mutex で直列化して適用する（bookId/userId 単位のロックの代わりに全体ロック）。
type memStore struct {
	mu sync.Mutex

	users    map[int64]*requests.UserInfo
	books    map[int64]*requests.BookInfo
	requests map[int64]*requests.Request
	logs     []requests.BookLog

	nextRequestID int64
	nextLogID     int64
}

func newMemStore() *memStore {
	return &memStore{
		users:         make(map[int64]*requests.UserInfo),
		books:         make(map[int64]*requests.BookInfo),
		requests:      make(map[int64]*requests.Request),
		nextRequestID: 1,
		nextLogID:     1,
	}
}

func (m *memStore) addUser(u requests.UserInfo) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[u.UserID] = &u
}

func (m *memStore) addBook(b requests.BookInfo) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.books[b.BookID] = &b
}

func (m *memStore) user(id int64) requests.UserInfo {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.users[id]
}

func (m *memStore) book(id int64) requests.BookInfo {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.books[id]
}

func (m *memStore) request(id int64) requests.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.requests[id]
}

func (m *memStore) logCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.logs)
}

func (m *memStore) GetUser(_ context.Context, userID int64) (*requests.UserInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (m *memStore) GetBook(_ context.Context, bookID int64) (*requests.BookInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.books[bookID]
	if !ok {
		return nil, nil
	}
	cp := *b
	return &cp, nil
}

func (m *memStore) HasActiveRequest(_ context.Context, userID, bookID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.hasActiveLocked(userID, bookID), nil
}

func (m *memStore) hasActiveLocked(userID, bookID int64) bool {
	for _, r := range m.requests {
		if r.UserID == userID && r.BookID == bookID &&
			(r.Status == requests.StatusPending || r.Status == requests.StatusApproved) {
			return true
		}
	}
	return false
}

func (m *memStore) ExecCreateRequest(_ context.Context, r *requests.Request) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[r.UserID]
	if !ok {
		return requests.ErrNotFound("user not found")
	}
	if u.Role == "reader" && u.CurrentBorrowed >= u.BorrowingLimit {
		return requests.ErrLimitReached()
	}
	if m.hasActiveLocked(r.UserID, r.BookID) {
		return requests.ErrDuplicateRequest()
	}

	r.RequestID = m.nextRequestID
	m.nextRequestID++
	r.Status = requests.StatusPending
	cp := *r
	m.requests[r.RequestID] = &cp
	return nil
}

func (m *memStore) ExecApproveRequest(_ context.Context, requestID, librarianID int64, logULID string, now time.Time) (*requests.Request, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.requests[requestID]
	if !ok {
		return nil, requests.ErrNotFound("request not found")
	}
	if r.Status != requests.StatusPending {
		return nil, requests.ErrInvalidState("request already processed")
	}

	b, ok := m.books[r.BookID]
	if !ok {
		return nil, requests.ErrNotFound("book not found")
	}
	if b.AvailableQuantity < 1 {
		return nil, requests.ErrBookUnavailable()
	}

	u, ok := m.users[r.UserID]
	if !ok {
		return nil, requests.ErrNotFound("user not found")
	}
	if u.Role == "reader" && u.CurrentBorrowed >= u.BorrowingLimit {
		return nil, requests.ErrInvariantViolation("current_borrowed would exceed borrowing_limit")
	}

	r.Status = requests.StatusApproved
	r.ApprovedBy = sql.NullInt64{Int64: librarianID, Valid: true}
	b.AvailableQuantity--
	if u.Role == "reader" {
		u.CurrentBorrowed++
	}

	m.logs = append(m.logs, requests.BookLog{
		LogID:      m.nextLogID,
		LogULID:    logULID,
		UserID:     r.UserID,
		BookID:     r.BookID,
		Action:     requests.ActionBorrow,
		ActionDate: now,
		ApprovedBy: librarianID,
	})
	m.nextLogID++

	cp := *r
	return &cp, nil
}

func (m *memStore) ExecRejectRequest(_ context.Context, requestID int64) (*requests.Request, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.requests[requestID]
	if !ok {
		return nil, requests.ErrNotFound("request not found")
	}
	if r.Status != requests.StatusPending {
		return nil, requests.ErrInvalidState("request already processed")
	}

	r.Status = requests.StatusRejected
	cp := *r
	return &cp, nil
}

func (m *memStore) ListPending(_ context.Context) ([]requests.PendingRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []requests.PendingRow
	for _, r := range m.requests {
		if r.Status != requests.StatusPending {
			continue
		}
		u := m.users[r.UserID]
		b := m.books[r.BookID]
		out = append(out, requests.PendingRow{
			Request:           *r,
			UserName:          u.Name,
			UserEmail:         u.Email,
			BookTitle:         b.Title,
			BookAuthor:        b.Author,
			AvailableQuantity: b.AvailableQuantity,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].RequestDate.Equal(out[j].RequestDate) {
			return out[i].RequestDate.Before(out[j].RequestDate)
		}
		return out[i].RequestID < out[j].RequestID
	})
	return out, nil
}

func (m *memStore) ListByUser(_ context.Context, userID int64) ([]requests.UserRequestRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []requests.UserRequestRow
	for _, r := range m.requests {
		if r.UserID != userID {
			continue
		}
		b := m.books[r.BookID]
		out = append(out, requests.UserRequestRow{
			Request:    *r,
			BookTitle:  b.Title,
			BookAuthor: b.Author,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].RequestDate.Equal(out[j].RequestDate) {
			return out[i].RequestDate.After(out[j].RequestDate)
		}
		return out[i].RequestID > out[j].RequestID
	})
	return out, nil
}

func (m *memStore) ListLogs(_ context.Context) ([]requests.LogRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]requests.LogRow, 0, len(m.logs))
	for i := len(m.logs) - 1; i >= 0; i-- {
		l := m.logs[i]
		out = append(out, requests.LogRow{
			BookLog:   l,
			UserName:  m.users[l.UserID].Name,
			BookTitle: m.books[l.BookID].Title,
		})
	}
	return out, nil
}

// ---- test doubles for Clock / IDGen ----

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

type seqIDGen struct {
	mu sync.Mutex
	n  int
}

func (g *seqIDGen) New() (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("01TESTULID%016d", g.n), nil
}
