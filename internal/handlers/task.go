package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/ai-todo/internal/dto"
	apierrors "github.com/yukikurage/ai-todo/internal/errors"
	"github.com/yukikurage/ai-todo/internal/middleware"
	"github.com/yukikurage/ai-todo/internal/models"
	"github.com/yukikurage/ai-todo/internal/scheduler"
	"github.com/yukikurage/ai-todo/internal/services"
	"github.com/yukikurage/ai-todo/internal/utils"
)

// ReminderLister exposes the queued reminders.
type ReminderLister interface {
	Pending() []scheduler.Job
}

type TaskHandler struct {
	tasks     *services.TaskService
	reminders ReminderLister
}

func NewTaskHandler(tasks *services.TaskService, reminders ReminderLister) *TaskHandler {
	return &TaskHandler{
		tasks:     tasks,
		reminders: reminders,
	}
}

// ListTasks returns a page of the current user's tasks in creation order
func (h *TaskHandler) ListTasks(c *gin.Context) {
	username, exists := middleware.GetUsername(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	params := utils.GetPaginationParams(c)
	tasks := h.tasks.ListTasks(username)
	page := utils.Paginate(tasks, params)

	c.JSON(http.StatusOK, dto.ToTaskListResponse(page, params.Page, params.Limit, int64(len(tasks))))
}

// GetTask returns a specific task by ID
// Task is already loaded by RequireTaskAccess middleware
func (h *TaskHandler) GetTask(c *gin.Context) {
	task, ok := middleware.GetTask(c)
	if !ok {
		apierrors.InternalError(c, "Task not found in context")
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(task))
}

// CreateTask creates a new task
func (h *TaskHandler) CreateTask(c *gin.Context) {
	username, exists := middleware.GetUsername(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	type CreateTaskRequest struct {
		Title       string     `json:"title" binding:"required"`
		Category    string     `json:"category"`
		Priority    string     `json:"priority"`
		Description string     `json:"description"`
		DueAt       *time.Time `json:"due_at"`
		UseAI       bool       `json:"use_ai"`
	}

	var req CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	input := services.CreateTaskInput{
		Owner:       username,
		Title:       req.Title,
		Description: req.Description,
		DueAt:       req.DueAt,
		UseAI:       req.UseAI,
	}
	if req.Category != "" {
		category, ok := models.ParseCategory(req.Category)
		if !ok {
			apierrors.BadRequest(c, "Invalid category")
			return
		}
		input.Category = category
	}
	if req.Priority != "" {
		priority, ok := models.ParsePriority(req.Priority)
		if !ok {
			apierrors.BadRequest(c, "Invalid priority")
			return
		}
		input.Priority = priority
	}

	task, err := h.tasks.CreateTask(c.Request.Context(), input)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToTaskDTO(*task))
}

// UpdateTask updates an existing task. A JSON null due_at clears the due time.
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	task, ok := middleware.GetTask(c)
	if !ok {
		apierrors.InternalError(c, "Task not found in context")
		return
	}

	type UpdateTaskRequest struct {
		Title       *string         `json:"title"`
		Category    *string         `json:"category"`
		Priority    *string         `json:"priority"`
		Description *string         `json:"description"`
		DueAt       json.RawMessage `json:"due_at"`
	}

	var req UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	input := services.UpdateTaskInput{
		Title:       req.Title,
		Description: req.Description,
	}
	if req.Category != nil {
		category, ok := models.ParseCategory(*req.Category)
		if !ok {
			apierrors.BadRequest(c, "Invalid category")
			return
		}
		input.Category = &category
	}
	if req.Priority != nil {
		priority, ok := models.ParsePriority(*req.Priority)
		if !ok {
			apierrors.BadRequest(c, "Invalid priority")
			return
		}
		input.Priority = &priority
	}
	if len(req.DueAt) > 0 {
		if bytes.Equal(bytes.TrimSpace(req.DueAt), []byte("null")) {
			input.ClearDueAt = true
		} else {
			var due time.Time
			if err := json.Unmarshal(req.DueAt, &due); err != nil {
				apierrors.BadRequest(c, "Invalid due_at")
				return
			}
			input.DueAt = &due
		}
	}

	updated, err := h.tasks.UpdateTask(c.Request.Context(), task.ID, task.Owner, input)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*updated))
}

// CompleteTask marks a task as done
func (h *TaskHandler) CompleteTask(c *gin.Context) {
	task, ok := middleware.GetTask(c)
	if !ok {
		apierrors.InternalError(c, "Task not found in context")
		return
	}

	if err := h.tasks.MarkComplete(task.ID, task.Owner); err != nil {
		apierrors.Respond(c, err)
		return
	}

	task.Completed = true
	c.JSON(http.StatusOK, dto.ToTaskDTO(task))
}

// DeleteTask deletes a task
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	task, ok := middleware.GetTask(c)
	if !ok {
		apierrors.InternalError(c, "Task not found in context")
		return
	}

	if err := h.tasks.DeleteTask(task.ID, task.Owner); err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Task deleted successfully",
	})
}

// ClearCompleted removes the current user's completed tasks
func (h *TaskHandler) ClearCompleted(c *gin.Context) {
	username, exists := middleware.GetUsername(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	removed, err := h.tasks.ClearCompleted(username)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"removed": removed,
	})
}

// ListReminders returns the queued reminders for the current user's tasks
func (h *TaskHandler) ListReminders(c *gin.Context) {
	username, exists := middleware.GetUsername(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	owned := make(map[string]struct{})
	for _, t := range h.tasks.ListTasks(username) {
		owned[t.ID] = struct{}{}
	}

	reminders := []dto.ReminderDTO{}
	if h.reminders != nil {
		for _, job := range h.reminders.Pending() {
			if _, ok := owned[job.TaskID]; ok {
				reminders = append(reminders, dto.ToReminderDTO(job))
			}
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"reminders": reminders,
	})
}
