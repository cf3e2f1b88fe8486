package repository

import (
	"fmt"
	"sync"

	apierrors "github.com/yukikurage/ai-todo/internal/errors"
	"github.com/yukikurage/ai-todo/internal/models"
)

var userColumns = []string{"username", "password_hash", "created_at"}

// CSVUserRepository stores users in a single CSV file.
type CSVUserRepository struct {
	path string
	mu   sync.Mutex
}

// NewCSVUserRepository creates a CSVUserRepository backed by path.
func NewCSVUserRepository(path string) *CSVUserRepository {
	return &CSVUserRepository{path: path}
}

// LoadUsers reads the user file.
func (r *CSVUserRepository) LoadUsers() ([]models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	table, err := readCSVTable(r.path)
	if err != nil {
		return nil, err
	}
	if len(table.columns) == 0 {
		return []models.User{}, nil
	}
	if err := table.require(r.path, "username", "password_hash"); err != nil {
		return nil, err
	}

	users := make([]models.User, 0, len(table.rows))
	for i, row := range table.rows {
		user := models.User{
			Username:     table.get(row, "username"),
			PasswordHash: table.get(row, "password_hash"),
		}
		if user.Username == "" || user.PasswordHash == "" {
			return nil, fmt.Errorf("%w: %s line %d: empty username or password hash", apierrors.ErrPersistence, r.path, i+2)
		}
		createdAt, err := parseTimestamp(table.get(row, "created_at"))
		if err != nil {
			return nil, fmt.Errorf("%w: %s line %d: invalid created_at: %v", apierrors.ErrPersistence, r.path, i+2, err)
		}
		user.CreatedAt = createdAt
		users = append(users, user)
	}

	return users, nil
}

// SaveUsers rewrites the user file.
func (r *CSVUserRepository) SaveUsers(users []models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows := make([][]string, 0, len(users))
	for _, u := range users {
		rows = append(rows, []string{u.Username, u.PasswordHash, formatTimestamp(u.CreatedAt)})
	}

	return writeCSVTable(r.path, userColumns, rows)
}
