package auth_test

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"maktaba-backend/internal/platform/auth"
)

// fakeUserStore は auth.UserStore のインメモリ実装
type fakeUserStore struct {
	mu     sync.Mutex
	byID   map[int64]*auth.User
	nextID int64
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{byID: make(map[int64]*auth.User), nextID: 1}
}

func (f *fakeUserStore) GetByEmail(_ context.Context, email string) (*auth.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byID {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeUserStore) GetByID(_ context.Context, id int64) (*auth.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUserStore) Create(_ context.Context, u *auth.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u.UserID = f.nextID
	f.nextID++
	u.CreatedAt = time.Now()
	cp := *u
	f.byID[u.UserID] = &cp
	return nil
}

func TestRegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	svc := auth.NewServiceWithStore(newFakeUserStore())

	u, err := svc.Register(ctx, "Samantha Wayne", "reader@maktaba.com", "reader123", "reader")
	require.NoError(t, err)
	assert.NotZero(t, u.UserID)
	assert.Equal(t, "reader", u.Role)
	assert.Equal(t, 3, u.BorrowingLimit)
	// 平文パスワードは保持しない
	assert.NotEqual(t, "reader123", u.PasswordHash)

	token, logged, err := svc.Login(ctx, "reader@maktaba.com", "reader123")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.Equal(t, u.UserID, logged.UserID)

	// 発行したトークンの sub/role が検証可能であること
	parsed, err := jwt.Parse(token, func(*jwt.Token) (any, error) {
		return auth.JWTSecret(), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	require.NoError(t, err)
	claims, ok := parsed.Claims.(jwt.MapClaims)
	require.True(t, ok)
	assert.Equal(t, strconv.FormatInt(u.UserID, 10), claims["sub"])
	assert.Equal(t, "reader", claims["role"])
}

func TestLoginFailures(t *testing.T) {
	ctx := context.Background()
	svc := auth.NewServiceWithStore(newFakeUserStore())

	_, err := svc.Register(ctx, "Samantha Wayne", "reader@maktaba.com", "reader123", "reader")
	require.NoError(t, err)

	t.Run("wrong_password", func(t *testing.T) {
		_, _, err := svc.Login(ctx, "reader@maktaba.com", "wrong")
		assert.ErrorIs(t, err, auth.ErrAuthFailed)
	})

	t.Run("unknown_email", func(t *testing.T) {
		_, _, err := svc.Login(ctx, "nobody@maktaba.com", "reader123")
		assert.ErrorIs(t, err, auth.ErrAuthFailed)
	})
}

func TestRegisterDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	svc := auth.NewServiceWithStore(newFakeUserStore())

	_, err := svc.Register(ctx, "Samantha Wayne", "reader@maktaba.com", "reader123", "reader")
	require.NoError(t, err)

	_, err = svc.Register(ctx, "Someone Else", "reader@maktaba.com", "other456", "reader")
	assert.ErrorIs(t, err, auth.ErrAlreadyExists)
}

func TestMe(t *testing.T) {
	ctx := context.Background()
	svc := auth.NewServiceWithStore(newFakeUserStore())

	u, err := svc.Register(ctx, "Maureen Chepkorir", "admin@maktaba.com", "admin123", "admin")
	require.NoError(t, err)

	got, err := svc.Me(ctx, u.UserID)
	require.NoError(t, err)
	assert.Equal(t, "admin@maktaba.com", got.Email)

	_, err = svc.Me(ctx, 9999)
	assert.ErrorIs(t, err, auth.ErrNotFound)
}
