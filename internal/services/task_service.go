package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/yukikurage/ai-todo/internal/constants"
	apierrors "github.com/yukikurage/ai-todo/internal/errors"
	"github.com/yukikurage/ai-todo/internal/metrics"
	"github.com/yukikurage/ai-todo/internal/models"
	"github.com/yukikurage/ai-todo/internal/repository"
	"go.uber.org/zap"
)

var (
	ErrTaskNotFound    = fmt.Errorf("%w: task not found", apierrors.ErrNotFound)
	ErrTitleRequired   = fmt.Errorf("%w: title is required", apierrors.ErrValidation)
	ErrInvalidCategory = fmt.Errorf("%w: unknown category", apierrors.ErrValidation)
	ErrInvalidPriority = fmt.Errorf("%w: unknown priority", apierrors.ErrValidation)
	ErrUnknownOwner    = fmt.Errorf("%w: unknown owner", apierrors.ErrValidation)
)

// DescriptionProvider drafts a description for a new task.
type DescriptionProvider interface {
	GenerateDescription(ctx context.Context, title string, category models.Category, priority models.Priority) (string, error)
}

// ReminderScheduler queues and cancels one-shot reminders keyed by task ID.
type ReminderScheduler interface {
	Schedule(taskID string, dueAt time.Time, message string) bool
	Cancel(taskID string) bool
}

// OwnerDirectory validates task owners.
type OwnerDirectory interface {
	UserExists(username string) bool
}

type TaskServiceOptions struct {
	// DescriptionTimeout bounds a single provider call.
	DescriptionTimeout time.Duration
	Logger             *zap.Logger
	Now                func() time.Time
}

// TaskService owns the task records of every user. Mutations are serialized
// and only become visible after the repository accepted the new state.
type TaskService struct {
	repo      repository.TaskRepository
	owners    OwnerDirectory
	reminders ReminderScheduler
	describer DescriptionProvider

	descTimeout time.Duration
	now         func() time.Time
	log         *zap.Logger

	mu    sync.RWMutex
	tasks []models.Task
}

// NewTaskService loads the persisted tasks. describer may be nil, in which
// case new tasks without a description get the fallback text.
func NewTaskService(repo repository.TaskRepository, owners OwnerDirectory, reminders ReminderScheduler, describer DescriptionProvider, opts TaskServiceOptions) (*TaskService, error) {
	if opts.DescriptionTimeout <= 0 {
		opts.DescriptionTimeout = constants.DefaultDescriptionTimeout
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	tasks, err := repo.LoadTasks()
	if err != nil {
		return nil, fmt.Errorf("failed to load tasks: %w", err)
	}

	return &TaskService{
		repo:        repo,
		owners:      owners,
		reminders:   reminders,
		describer:   describer,
		descTimeout: opts.DescriptionTimeout,
		now:         opts.Now,
		log:         opts.Logger.Named("tasks"),
		tasks:       tasks,
	}, nil
}

// CreateTaskInput represents input for creating a task
type CreateTaskInput struct {
	Owner       string
	Title       string
	Category    models.Category
	Priority    models.Priority
	Description string
	DueAt       *time.Time
	// UseAI asks the description provider for text when Description is blank.
	UseAI bool
}

// UpdateTaskInput represents input for updating a task. Nil fields are left
// unchanged.
type UpdateTaskInput struct {
	Title       *string
	Category    *models.Category
	Priority    *models.Priority
	Description *string
	DueAt       *time.Time
	ClearDueAt  bool
}

// CreateTask validates input, fills in the description and stores the task.
// A reminder is scheduled when the task has a due time.
func (s *TaskService) CreateTask(ctx context.Context, input CreateTaskInput) (*models.Task, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, ErrTitleRequired
	}
	if input.Category == "" {
		input.Category = models.CategoryOther
	}
	if !input.Category.Valid() {
		return nil, ErrInvalidCategory
	}
	if input.Priority == "" {
		input.Priority = models.PriorityMedium
	}
	if !input.Priority.Valid() {
		return nil, ErrInvalidPriority
	}
	if s.owners == nil || !s.owners.UserExists(input.Owner) {
		return nil, ErrUnknownOwner
	}

	description := strings.TrimSpace(input.Description)
	if description == "" {
		description = s.describe(ctx, input.UseAI, title, input.Category, input.Priority)
	}

	task := models.Task{
		ID:          uuid.NewString(),
		Owner:       input.Owner,
		Title:       title,
		Category:    input.Category,
		Priority:    input.Priority,
		Description: description,
		DueAt:       truncateDue(input.DueAt),
		CreatedAt:   s.now().Truncate(time.Second),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := make([]models.Task, len(s.tasks), len(s.tasks)+1)
	copy(next, s.tasks)
	next = append(next, task)

	if err := s.commitLocked(next, "create"); err != nil {
		return nil, err
	}

	if task.DueAt != nil {
		s.scheduleLocked(task)
	}

	s.log.Info("task created", zap.String("task_id", task.ID), zap.String("owner", task.Owner))
	created := task.Clone()
	return &created, nil
}

// ListTasks returns copies of owner's tasks in insertion order.
func (s *TaskService) ListTasks(owner string) []models.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []models.Task{}
	for _, t := range s.tasks {
		if t.Owner == owner {
			out = append(out, t.Clone())
		}
	}
	return out
}

// GetTask returns a copy of a task owned by owner.
func (s *TaskService) GetTask(id, owner string) (*models.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.findLocked(id, owner)
	if i < 0 {
		return nil, ErrTaskNotFound
	}
	task := s.tasks[i].Clone()
	return &task, nil
}

// UpdateTask applies the non-nil fields of input. A changed title or due time
// replaces the pending reminder.
func (s *TaskService) UpdateTask(ctx context.Context, id, owner string, input UpdateTaskInput) (*models.Task, error) {
	var title string
	if input.Title != nil {
		title = strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, ErrTitleRequired
		}
	}
	if input.Category != nil && !input.Category.Valid() {
		return nil, ErrInvalidCategory
	}
	if input.Priority != nil && !input.Priority.Valid() {
		return nil, ErrInvalidPriority
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.findLocked(id, owner)
	if i < 0 {
		return nil, ErrTaskNotFound
	}

	before := s.tasks[i]
	task := before.Clone()

	if input.Title != nil {
		task.Title = title
	}
	if input.Category != nil {
		task.Category = *input.Category
	}
	if input.Priority != nil {
		task.Priority = *input.Priority
	}
	if input.Description != nil {
		task.Description = strings.TrimSpace(*input.Description)
		if task.Description == "" {
			task.Description = constants.FallbackDescription
		}
	}
	if input.ClearDueAt {
		task.DueAt = nil
	} else if input.DueAt != nil {
		task.DueAt = truncateDue(input.DueAt)
	}

	next := make([]models.Task, len(s.tasks))
	copy(next, s.tasks)
	next[i] = task

	if err := s.commitLocked(next, "update"); err != nil {
		return nil, err
	}

	if !sameDue(before.DueAt, task.DueAt) || before.Title != task.Title {
		s.cancelReminder(task.ID)
		if task.DueAt != nil && !task.Completed {
			s.scheduleLocked(task)
		}
	}

	updated := task.Clone()
	return &updated, nil
}

// MarkComplete marks a task as done and drops its pending reminder.
// Completing an already completed task changes nothing.
func (s *TaskService) MarkComplete(id, owner string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.findLocked(id, owner)
	if i < 0 {
		return ErrTaskNotFound
	}
	if s.tasks[i].Completed {
		return nil
	}

	next := make([]models.Task, len(s.tasks))
	copy(next, s.tasks)
	next[i].Completed = true

	if err := s.commitLocked(next, "complete"); err != nil {
		return err
	}

	s.cancelReminder(id)
	return nil
}

// DeleteTask removes a task and its pending reminder.
func (s *TaskService) DeleteTask(id, owner string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.findLocked(id, owner)
	if i < 0 {
		return ErrTaskNotFound
	}

	next := make([]models.Task, 0, len(s.tasks)-1)
	next = append(next, s.tasks[:i]...)
	next = append(next, s.tasks[i+1:]...)

	if err := s.commitLocked(next, "delete"); err != nil {
		return err
	}

	s.cancelReminder(id)
	return nil
}

// ClearCompleted removes owner's completed tasks and returns how many were
// removed. Other users' tasks are untouched.
func (s *TaskService) ClearCompleted(owner string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make([]models.Task, 0, len(s.tasks))
	var removed []string
	for _, t := range s.tasks {
		if t.Owner == owner && t.Completed {
			removed = append(removed, t.ID)
			continue
		}
		next = append(next, t)
	}
	if len(removed) == 0 {
		return 0, nil
	}

	if err := s.commitLocked(next, "clear_completed"); err != nil {
		return 0, err
	}

	for _, id := range removed {
		s.cancelReminder(id)
	}
	return len(removed), nil
}

// RestoreReminders schedules reminders for every open task with a due time,
// typically once after startup. It returns how many were queued.
func (s *TaskService) RestoreReminders() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	restored := 0
	for _, t := range s.tasks {
		if t.Completed || t.DueAt == nil {
			continue
		}
		if s.scheduleLocked(t) {
			restored++
		}
	}
	s.log.Info("reminders restored", zap.Int("count", restored))
	return restored
}

// describe asks the provider for a description, falling back to the default
// text when it is disabled, fails or runs out of time.
func (s *TaskService) describe(ctx context.Context, useAI bool, title string, category models.Category, priority models.Priority) string {
	if !useAI || s.describer == nil {
		metrics.DescriptionRequests.WithLabelValues(metrics.SourceFallback).Inc()
		return constants.FallbackDescription
	}

	ctx, cancel := context.WithTimeout(ctx, s.descTimeout)
	defer cancel()

	type result struct {
		text string
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		text, err := s.describer.GenerateDescription(ctx, title, category, priority)
		ch <- result{text: text, err: err}
	}()

	var (
		text string
		err  error
	)
	select {
	case r := <-ch:
		text, err = strings.TrimSpace(r.text), r.err
		if err == nil && text == "" {
			err = errors.New("empty description")
		}
		if errors.Is(err, context.DeadlineExceeded) {
			err = fmt.Errorf("%w: %v", apierrors.ErrProviderTimeout, err)
		}
	case <-ctx.Done():
		err = fmt.Errorf("%w: %v", apierrors.ErrProviderTimeout, ctx.Err())
	}

	if err != nil {
		metrics.DescriptionRequests.WithLabelValues(metrics.SourceFallback).Inc()
		s.log.Warn("description generation failed, using fallback",
			zap.String("title", title),
			zap.Error(err),
		)
		return constants.FallbackDescription
	}

	metrics.DescriptionRequests.WithLabelValues(metrics.SourceGenerated).Inc()
	return text
}

// commitLocked persists next and swaps it in. On failure the current state
// is kept.
func (s *TaskService) commitLocked(next []models.Task, operation string) error {
	if err := s.repo.SaveTasks(next); err != nil {
		metrics.TaskMutations.WithLabelValues(operation, metrics.ResultFailed).Inc()
		s.log.Error("failed to save tasks", zap.String("operation", operation), zap.Error(err))
		return wrapPersistence("failed to save tasks", err)
	}
	metrics.TaskMutations.WithLabelValues(operation, metrics.ResultOK).Inc()
	s.tasks = next
	return nil
}

func (s *TaskService) scheduleLocked(task models.Task) bool {
	if s.reminders == nil || task.DueAt == nil {
		return false
	}
	return s.reminders.Schedule(task.ID, *task.DueAt, ReminderMessage(task))
}

func (s *TaskService) cancelReminder(taskID string) {
	if s.reminders != nil {
		s.reminders.Cancel(taskID)
	}
}

func (s *TaskService) findLocked(id, owner string) int {
	for i, t := range s.tasks {
		if t.ID == id && t.Owner == owner {
			return i
		}
	}
	return -1
}

// ReminderMessage is the text delivered when a task's reminder fires.
func ReminderMessage(task models.Task) string {
	if task.DueAt == nil {
		return fmt.Sprintf("Reminder: %q", task.Title)
	}
	return fmt.Sprintf("Reminder: %q is due at %s", task.Title, task.DueAt.Format("2006-01-02 15:04 MST"))
}

func truncateDue(due *time.Time) *time.Time {
	if due == nil {
		return nil
	}
	t := due.Truncate(time.Second)
	return &t
}

func sameDue(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}
