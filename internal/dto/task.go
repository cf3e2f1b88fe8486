package dto

import (
	"time"

	"github.com/yukikurage/ai-todo/internal/models"
	"github.com/yukikurage/ai-todo/internal/scheduler"
)

// UserDTO represents a user in API responses
type UserDTO struct {
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
}

// TaskDTO represents a task in API responses
type TaskDTO struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Category    models.Category `json:"category"`
	Priority    models.Priority `json:"priority"`
	Completed   bool            `json:"completed"`
	Description string          `json:"description"`
	DueAt       *time.Time      `json:"due_at"`
	CreatedAt   time.Time       `json:"created_at"`
}

// TaskListResponse represents a paginated list of tasks
type TaskListResponse struct {
	Tasks      []TaskDTO `json:"tasks"`
	Page       int       `json:"page"`
	PageSize   int       `json:"page_size"`
	TotalCount int64     `json:"total_count"`
	TotalPages int       `json:"total_pages"`
}

// ReminderDTO represents a queued reminder in API responses
type ReminderDTO struct {
	TaskID  string    `json:"task_id"`
	Message string    `json:"message"`
	FireAt  time.Time `json:"fire_at"`
}

// Conversion functions

// ToUserDTO converts a User model to UserDTO
func ToUserDTO(user models.User) UserDTO {
	return UserDTO{
		Username:  user.Username,
		CreatedAt: user.CreatedAt,
	}
}

// ToTaskDTO converts a Task model to TaskDTO
func ToTaskDTO(task models.Task) TaskDTO {
	return TaskDTO{
		ID:          task.ID,
		Title:       task.Title,
		Category:    task.Category,
		Priority:    task.Priority,
		Completed:   task.Completed,
		Description: task.Description,
		DueAt:       task.DueAt,
		CreatedAt:   task.CreatedAt,
	}
}

// ToTaskListResponse converts one page of tasks to TaskListResponse
func ToTaskListResponse(tasks []models.Task, page, pageSize int, totalCount int64) TaskListResponse {
	items := make([]TaskDTO, len(tasks))
	for i, task := range tasks {
		items[i] = ToTaskDTO(task)
	}

	totalPages := int(totalCount) / pageSize
	if int(totalCount)%pageSize > 0 {
		totalPages++
	}

	return TaskListResponse{
		Tasks:      items,
		Page:       page,
		PageSize:   pageSize,
		TotalCount: totalCount,
		TotalPages: totalPages,
	}
}

// ToReminderDTO converts a scheduler job to ReminderDTO
func ToReminderDTO(job scheduler.Job) ReminderDTO {
	return ReminderDTO{
		TaskID:  job.TaskID,
		Message: job.Message,
		FireAt:  job.FireAt,
	}
}
