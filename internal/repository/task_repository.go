package repository

import (
	"fmt"

	apierrors "github.com/yukikurage/ai-todo/internal/errors"
	"github.com/yukikurage/ai-todo/internal/models"
	"gorm.io/gorm"
)

// taskRow adds the insertion position to a task so ListTasks order survives
// a round trip through the database.
type taskRow struct {
	models.Task `gorm:"embedded"`
	Position    int `gorm:"not null;index"`
}

func (taskRow) TableName() string {
	return "tasks"
}

// GormTaskRepository is a GORM implementation of TaskRepository
type GormTaskRepository struct {
	db *gorm.DB
}

// NewGormTaskRepository creates a new GormTaskRepository
func NewGormTaskRepository(db *gorm.DB) *GormTaskRepository {
	return &GormTaskRepository{db: db}
}

// LoadTasks returns every task ordered by position
func (r *GormTaskRepository) LoadTasks() ([]models.Task, error) {
	var rows []taskRow
	if err := r.db.Order("position ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("%w: load tasks: %v", apierrors.ErrPersistence, err)
	}

	tasks := make([]models.Task, 0, len(rows))
	for _, row := range rows {
		tasks = append(tasks, row.Task)
	}
	return tasks, nil
}

// SaveTasks replaces the task table contents in one transaction
func (r *GormTaskRepository) SaveTasks(tasks []models.Task) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&taskRow{}).Error; err != nil {
			return err
		}
		if len(tasks) == 0 {
			return nil
		}

		rows := make([]taskRow, len(tasks))
		for i, t := range tasks {
			rows[i] = taskRow{Task: t, Position: i}
		}
		return tx.CreateInBatches(rows, 100).Error
	})
	if err != nil {
		return fmt.Errorf("%w: save tasks: %v", apierrors.ErrPersistence, err)
	}
	return nil
}
