package repository

import (
	"fmt"

	apierrors "github.com/yukikurage/ai-todo/internal/errors"
	"github.com/yukikurage/ai-todo/internal/models"
	"gorm.io/gorm"
)

// userRow keeps registration order, like taskRow does for tasks.
type userRow struct {
	models.User `gorm:"embedded"`
	Position    int `gorm:"not null"`
}

func (userRow) TableName() string {
	return "users"
}

// GormUserRepository is a GORM implementation of UserRepository
type GormUserRepository struct {
	db *gorm.DB
}

// NewGormUserRepository creates a new GormUserRepository
func NewGormUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

// LoadUsers returns every user in registration order
func (r *GormUserRepository) LoadUsers() ([]models.User, error) {
	var rows []userRow
	if err := r.db.Order("position ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("%w: load users: %v", apierrors.ErrPersistence, err)
	}

	users := make([]models.User, 0, len(rows))
	for _, row := range rows {
		users = append(users, row.User)
	}
	return users, nil
}

// SaveUsers replaces the user table contents in one transaction
func (r *GormUserRepository) SaveUsers(users []models.User) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&userRow{}).Error; err != nil {
			return err
		}
		if len(users) == 0 {
			return nil
		}

		rows := make([]userRow, len(users))
		for i, u := range users {
			rows[i] = userRow{User: u, Position: i}
		}
		return tx.CreateInBatches(rows, 100).Error
	})
	if err != nil {
		return fmt.Errorf("%w: save users: %v", apierrors.ErrPersistence, err)
	}
	return nil
}

// AutoMigrate creates or updates the tables used by the GORM repositories.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&userRow{}, &taskRow{})
}
