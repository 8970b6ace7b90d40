package services

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/sessionkeeper/internal/common"
	"github.com/dmitrijs2005/sessionkeeper/internal/dbx"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/auth"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/config"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/models"
	usersrepo "github.com/dmitrijs2005/sessionkeeper/internal/server/repositories/users"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// --- fakes ---

type memUsersRepo struct {
	mu      sync.Mutex
	byID    map[string]*models.User
	failErr error
}

func newMemUsersRepo() *memUsersRepo {
	return &memUsersRepo{byID: map[string]*models.User{}}
}

func (r *memUsersRepo) Create(_ context.Context, u *models.User) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failErr != nil {
		return nil, r.failErr
	}
	for _, existing := range r.byID {
		if existing.Email == u.Email {
			return nil, common.ErrorAlreadyExists
		}
	}
	cp := *u
	r.byID[u.ID] = &cp
	return u, nil
}

func (r *memUsersRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failErr != nil {
		return nil, r.failErr
	}
	for _, u := range r.byID {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *memUsersRepo) GetByID(_ context.Context, id string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failErr != nil {
		return nil, r.failErr
	}
	u, ok := r.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *u
	return &cp, nil
}

type fakeRepoManager struct {
	users *memUsersRepo
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Users(dbx.DBTX) usersrepo.Repository         { return m.users }

// --- helpers ---

var t0 = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newUserService(t *testing.T) (*UserService, *memUsersRepo, *clockwork.FakeClock) {
	t.Helper()
	repo := newMemUsersRepo()
	clock := clockwork.NewFakeClockAt(t0)
	cfg := &config.Config{SecretKey: "k", TokenValidityDuration: time.Hour}

	s := NewUserService(nil, &fakeRepoManager{users: repo}, cfg, clock)
	s.bcryptCost = bcrypt.MinCost
	return s, repo, clock
}

// --- tests ---

func TestRegister_Success(t *testing.T) {
	s, repo, _ := newUserService(t)

	res, err := s.Register(context.Background(), "  Alice@X.io ", "secret")
	require.NoError(t, err)

	assert.Equal(t, "alice@x.io", res.User.Email)
	_, err = uuid.Parse(res.User.ID)
	assert.NoError(t, err)
	assert.Equal(t, t0, res.User.CreatedAt)
	assert.NoError(t, bcrypt.CompareHashAndPassword(res.User.PasswordHash, []byte("secret")))

	claims, err := auth.ParseToken(res.Token, []byte("k"), t0)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, claims.Subject)
	assert.Equal(t, t0.Add(time.Hour).Unix(), claims.ExpiresAt.Unix())

	stored, err := repo.GetByEmail(context.Background(), "alice@x.io")
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, stored.ID)
}

func TestRegister_Duplicate(t *testing.T) {
	s, _, _ := newUserService(t)

	_, err := s.Register(context.Background(), "alice@x.io", "secret")
	require.NoError(t, err)

	_, err = s.Register(context.Background(), "ALICE@x.io", "other")
	assert.ErrorIs(t, err, common.ErrorAlreadyExists)
}

func TestRegister_Validation(t *testing.T) {
	s, _, _ := newUserService(t)

	tests := []struct {
		name, email, password string
	}{
		{"empty email", "", "pw"},
		{"not an email", "alice", "pw"},
		{"display name", "Alice <alice@x.io>", "pw"},
		{"empty password", "alice@x.io", ""},
		{"too long password", "alice@x.io", string(make([]byte, 73))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Register(context.Background(), tt.email, tt.password)
			assert.ErrorIs(t, err, common.ErrorValidation)
		})
	}
}

func TestRegister_RepoError(t *testing.T) {
	s, repo, _ := newUserService(t)
	repo.failErr = errors.New("db down")

	_, err := s.Register(context.Background(), "alice@x.io", "pw")
	assert.ErrorIs(t, err, common.ErrorInternal)
}

func TestLogin(t *testing.T) {
	s, _, clock := newUserService(t)
	reg, err := s.Register(context.Background(), "alice@x.io", "secret")
	require.NoError(t, err)

	clock.Advance(time.Minute)

	t.Run("success", func(t *testing.T) {
		res, err := s.Login(context.Background(), "Alice@x.io", "secret")
		require.NoError(t, err)
		assert.Equal(t, reg.User.ID, res.User.ID)

		claims, err := auth.ParseToken(res.Token, []byte("k"), clock.Now())
		require.NoError(t, err)
		assert.Equal(t, clock.Now().Add(time.Hour).Unix(), claims.ExpiresAt.Unix())
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := s.Login(context.Background(), "alice@x.io", "nope")
		assert.ErrorIs(t, err, common.ErrorUnauthorized)
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := s.Login(context.Background(), "bob@x.io", "secret")
		assert.ErrorIs(t, err, common.ErrorUnauthorized)
	})

	t.Run("empty credentials", func(t *testing.T) {
		_, err := s.Login(context.Background(), "", "")
		assert.ErrorIs(t, err, common.ErrorUnauthorized)
	})
}

func TestLogin_RepoError(t *testing.T) {
	s, repo, _ := newUserService(t)
	repo.failErr = errors.New("db down")

	_, err := s.Login(context.Background(), "alice@x.io", "pw")
	assert.ErrorIs(t, err, common.ErrorInternal)
}

func TestCheckAuth(t *testing.T) {
	s, repo, clock := newUserService(t)
	reg, err := s.Register(context.Background(), "alice@x.io", "secret")
	require.NoError(t, err)

	t.Run("valid", func(t *testing.T) {
		u, err := s.CheckAuth(context.Background(), reg.Token)
		require.NoError(t, err)
		assert.Equal(t, "alice@x.io", u.Email)
	})

	t.Run("forged", func(t *testing.T) {
		forged, err := auth.GenerateToken(reg.User.ID, "alice@x.io", []byte("other"), clock.Now(), time.Hour)
		require.NoError(t, err)
		_, err = s.CheckAuth(context.Background(), forged)
		assert.ErrorIs(t, err, common.ErrInvalidToken)
	})

	t.Run("unknown account", func(t *testing.T) {
		ghost, err := auth.GenerateToken(uuid.NewString(), "ghost@x.io", []byte("k"), clock.Now(), time.Hour)
		require.NoError(t, err)
		_, err = s.CheckAuth(context.Background(), ghost)
		assert.ErrorIs(t, err, common.ErrorUnauthorized)
	})

	t.Run("repo error", func(t *testing.T) {
		repo.failErr = errors.New("db down")
		defer func() { repo.failErr = nil }()
		_, err := s.CheckAuth(context.Background(), reg.Token)
		assert.ErrorIs(t, err, common.ErrorInternal)
	})

	t.Run("expired", func(t *testing.T) {
		clock.Advance(2 * time.Hour)
		_, err := s.CheckAuth(context.Background(), reg.Token)
		assert.ErrorIs(t, err, common.ErrTokenExpired)
	})
}
