package services

import (
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	apierrors "github.com/yukikurage/ai-todo/internal/errors"
	"github.com/yukikurage/ai-todo/internal/models"
	"github.com/yukikurage/ai-todo/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

type memoryUserRepo struct {
	mu      sync.Mutex
	users   []models.User
	saveErr error
	saves   int
}

func (r *memoryUserRepo) LoadUsers() ([]models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.User(nil), r.users...), nil
}

func (r *memoryUserRepo) SaveUsers(users []models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return r.saveErr
	}
	r.saves++
	r.users = append([]models.User(nil), users...)
	return nil
}

func newTestAuthService(t *testing.T, repo repository.UserRepository) *AuthService {
	t.Helper()

	svc, err := NewAuthService(repo, AuthOptions{Cost: bcrypt.MinCost}, nil)
	require.NoError(t, err)
	return svc
}

func TestAuthService_RegisterAndAuthenticate(t *testing.T) {
	svc := newTestAuthService(t, &memoryUserRepo{})

	user, err := svc.Register("alice", "pw1")
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
	assert.NotEqual(t, "pw1", user.PasswordHash)

	assert.True(t, svc.Authenticate("alice", "pw1"))
	assert.False(t, svc.Authenticate("alice", "pw2"))
	assert.False(t, svc.Authenticate("bob", "pw1"))
	assert.True(t, svc.UserExists("alice"))
	assert.False(t, svc.UserExists("bob"))
}

func TestAuthService_SamePasswordDifferentHashes(t *testing.T) {
	svc := newTestAuthService(t, &memoryUserRepo{})

	a, err := svc.Register("alice", "secret")
	require.NoError(t, err)
	b, err := svc.Register("bobby", "secret")
	require.NoError(t, err)

	assert.NotEqual(t, a.PasswordHash, b.PasswordHash)
}

func TestAuthService_RegisterDuplicate(t *testing.T) {
	repo := &memoryUserRepo{}
	svc := newTestAuthService(t, repo)

	_, err := svc.Register("alice", "pw1")
	require.NoError(t, err)

	_, err = svc.Register("alice", "other")
	assert.ErrorIs(t, err, apierrors.ErrDuplicateUser)
	assert.Equal(t, 1, repo.saves)
	assert.True(t, svc.Authenticate("alice", "pw1"))
}

func TestAuthService_RegisterValidation(t *testing.T) {
	svc := newTestAuthService(t, &memoryUserRepo{})

	tests := []struct {
		name     string
		username string
		password string
		wantErr  error
	}{
		{name: "blank username", username: "   ", password: "pw1", wantErr: ErrUsernameRequired},
		{name: "short username", username: "al", password: "pw1", wantErr: ErrUsernameTooShort},
		{name: "short password", username: "alice", password: "pw", wantErr: ErrPasswordTooShort},
		{name: "password over 72 bytes", username: "alice", password: strings.Repeat("x", 73), wantErr: ErrPasswordTooLong},
		{name: "long username", username: strings.Repeat("a", 51), password: "pw1", wantErr: ErrUsernameTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(tt.username, tt.password)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.ErrorIs(t, err, apierrors.ErrValidation)
		})
	}
}

func TestAuthService_UsernameLengthCountsCharacters(t *testing.T) {
	svc := newTestAuthService(t, &memoryUserRepo{})

	// three characters, nine bytes
	_, err := svc.Register("ゆきこ", "pw1")
	require.NoError(t, err)

	// fifty characters, well over fifty bytes
	_, err = svc.Register(strings.Repeat("é", 50), "pw1")
	require.NoError(t, err)

	_, err = svc.Register("éé", "pw1")
	assert.ErrorIs(t, err, ErrUsernameTooShort)
}

func TestAuthService_FailedSaveLeavesDirectoryUnchanged(t *testing.T) {
	repo := &memoryUserRepo{saveErr: errors.New("disk full")}
	svc := newTestAuthService(t, repo)

	_, err := svc.Register("alice", "pw1")
	assert.ErrorIs(t, err, apierrors.ErrPersistence)
	assert.False(t, svc.UserExists("alice"))
	assert.False(t, svc.Authenticate("alice", "pw1"))
}

func TestAuthService_Login(t *testing.T) {
	svc := newTestAuthService(t, &memoryUserRepo{})
	_, err := svc.Register("alice", "pw1")
	require.NoError(t, err)

	user, err := svc.Login("alice", "pw1")
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)

	_, err = svc.Login("alice ", "pw1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Login("Alice", "pw1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login("alice", "nope")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.GetUser("ghost")
	assert.ErrorIs(t, err, apierrors.ErrNotFound)
}

func TestAuthService_PersistsAcrossRestart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.csv")

	svc := newTestAuthService(t, repository.NewCSVUserRepository(path))
	_, err := svc.Register("alice", "pw1")
	require.NoError(t, err)

	reloaded := newTestAuthService(t, repository.NewCSVUserRepository(path))
	assert.True(t, reloaded.Authenticate("alice", "pw1"))
	assert.False(t, reloaded.Authenticate("alice", "pw2"))
}

func TestAuthService_ConcurrentRegisterSameName(t *testing.T) {
	svc := newTestAuthService(t, &memoryUserRepo{})

	const workers = 8
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		success int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.Register("alice", "pw1"); err == nil {
				mu.Lock()
				success++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, success)
}

func TestNewAuthService_InvalidCost(t *testing.T) {
	_, err := NewAuthService(&memoryUserRepo{}, AuthOptions{Cost: bcrypt.MaxCost + 1}, nil)
	assert.Error(t, err)
}
