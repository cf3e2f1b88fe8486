package repository

import (
	"github.com/yukikurage/ai-todo/internal/models"
)

// TaskRepository defines whole-set persistence for tasks.
type TaskRepository interface {
	// LoadTasks returns every persisted task in insertion order.
	// A store that was never written yields an empty slice.
	LoadTasks() ([]models.Task, error)

	// SaveTasks replaces the persisted task set with tasks. Readers observe
	// either the previous set or the new one, never a mix.
	SaveTasks(tasks []models.Task) error
}

// UserRepository defines whole-set persistence for users.
type UserRepository interface {
	// LoadUsers returns every persisted user in registration order.
	LoadUsers() ([]models.User, error)

	// SaveUsers replaces the persisted user set with users.
	SaveUsers(users []models.User) error
}
