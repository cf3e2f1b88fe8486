package services

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/yukikurage/ai-todo/internal/constants"
	apierrors "github.com/yukikurage/ai-todo/internal/errors"
	"github.com/yukikurage/ai-todo/internal/models"
	"github.com/yukikurage/ai-todo/internal/repository"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrUsernameRequired   = fmt.Errorf("%w: username is required", apierrors.ErrValidation)
	ErrUsernameTooShort   = fmt.Errorf("%w: username must be at least %d characters", apierrors.ErrValidation, constants.MinUsernameLength)
	ErrUsernameTooLong    = fmt.Errorf("%w: username must be at most %d characters", apierrors.ErrValidation, constants.MaxUsernameLength)
	ErrPasswordTooShort   = fmt.Errorf("%w: password too short", apierrors.ErrValidation)
	ErrPasswordTooLong    = fmt.Errorf("%w: password must be at most %d bytes", apierrors.ErrValidation, maxPasswordBytes)
	ErrUsernameTaken      = apierrors.ErrDuplicateUser
	ErrInvalidCredentials = apierrors.ErrAuthentication
	ErrUserNotFound       = fmt.Errorf("%w: user not found", apierrors.ErrNotFound)
)

// bcrypt only reads the first 72 bytes of a password and rejects longer ones.
const maxPasswordBytes = 72

// AuthOptions tunes credential hashing and validation.
type AuthOptions struct {
	// Cost is the bcrypt work factor. Zero means bcrypt.DefaultCost.
	Cost              int
	MinPasswordLength int
}

// AuthService registers and authenticates users.
type AuthService struct {
	repo      repository.UserRepository
	cost      int
	minPwdLen int
	log       *zap.Logger

	// dummyHash is compared against when the username is unknown.
	dummyHash []byte

	mu    sync.RWMutex
	users []models.User
	index map[string]int
}

// NewAuthService loads the existing users from repo.
func NewAuthService(repo repository.UserRepository, opts AuthOptions, log *zap.Logger) (*AuthService, error) {
	if opts.Cost == 0 {
		opts.Cost = bcrypt.DefaultCost
	}
	if opts.Cost < bcrypt.MinCost || opts.Cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("invalid bcrypt cost %d", opts.Cost)
	}
	if opts.MinPasswordLength <= 0 {
		opts.MinPasswordLength = constants.MinPasswordLength
	}
	if log == nil {
		log = zap.NewNop()
	}

	users, err := repo.LoadUsers()
	if err != nil {
		return nil, fmt.Errorf("failed to load users: %w", err)
	}

	dummy, err := bcrypt.GenerateFromPassword([]byte("not-a-real-password"), opts.Cost)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare dummy hash: %w", err)
	}

	s := &AuthService{
		repo:      repo,
		cost:      opts.Cost,
		minPwdLen: opts.MinPasswordLength,
		log:       log.Named("auth"),
		dummyHash: dummy,
		users:     users,
		index:     make(map[string]int, len(users)),
	}
	for i, u := range users {
		s.index[u.Username] = i
	}
	return s, nil
}

// Register creates a user with a freshly salted bcrypt hash. Surrounding
// whitespace is stripped from the username; afterwards usernames match
// exactly.
func (s *AuthService) Register(username, password string) (*models.User, error) {
	username = strings.TrimSpace(username)
	switch {
	case username == "":
		return nil, ErrUsernameRequired
	case utf8.RuneCountInString(username) < constants.MinUsernameLength:
		return nil, ErrUsernameTooShort
	case utf8.RuneCountInString(username) > constants.MaxUsernameLength:
		return nil, ErrUsernameTooLong
	case len(password) < s.minPwdLen:
		return nil, ErrPasswordTooShort
	case len(password) > maxPasswordBytes:
		return nil, ErrPasswordTooLong
	}

	if s.UserExists(username) {
		return nil, ErrUsernameTaken
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// another request may have taken the name while we were hashing
	if _, ok := s.index[username]; ok {
		return nil, ErrUsernameTaken
	}

	user := models.User{
		Username:     username,
		PasswordHash: string(hashed),
		CreatedAt:    time.Now().Truncate(time.Second),
	}

	next := make([]models.User, len(s.users), len(s.users)+1)
	copy(next, s.users)
	next = append(next, user)

	if err := s.repo.SaveUsers(next); err != nil {
		return nil, wrapPersistence("failed to save users", err)
	}

	s.users = next
	s.index[username] = len(next) - 1
	s.log.Info("user registered", zap.String("username", username))

	return &user, nil
}

// Authenticate reports whether password matches the stored credentials of
// username. Unknown usernames take as long as a wrong password.
func (s *AuthService) Authenticate(username, password string) bool {
	hash := s.dummyHash
	known := false

	s.mu.RLock()
	if i, ok := s.index[username]; ok {
		hash = []byte(s.users[i].PasswordHash)
		known = true
	}
	s.mu.RUnlock()

	err := bcrypt.CompareHashAndPassword(hash, []byte(password))
	return known && err == nil
}

// Login verifies credentials and returns the authenticated user.
func (s *AuthService) Login(username, password string) (*models.User, error) {
	if !s.Authenticate(username, password) {
		return nil, ErrInvalidCredentials
	}
	return s.GetUser(username)
}

// GetUser retrieves a user by username.
func (s *AuthService) GetUser(username string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.index[username]
	if !ok {
		return nil, ErrUserNotFound
	}
	user := s.users[i]
	return &user, nil
}

// UserExists reports whether username is registered.
func (s *AuthService) UserExists(username string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.index[username]
	return ok
}

func wrapPersistence(msg string, err error) error {
	if errors.Is(err, apierrors.ErrPersistence) {
		return fmt.Errorf("%s: %w", msg, err)
	}
	return fmt.Errorf("%s: %w: %v", msg, apierrors.ErrPersistence, err)
}
