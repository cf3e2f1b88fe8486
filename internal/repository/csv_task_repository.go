package repository

import (
	"fmt"
	"strconv"
	"sync"

	apierrors "github.com/yukikurage/ai-todo/internal/errors"
	"github.com/yukikurage/ai-todo/internal/models"
)

var taskColumns = []string{
	"id",
	"owner",
	"title",
	"category",
	"priority",
	"completed",
	"description",
	"due_date",
	"due_time",
	"due_zone",
	"created_at",
}

// CSVTaskRepository stores tasks in a single CSV file.
type CSVTaskRepository struct {
	path string
	mu   sync.Mutex
}

// NewCSVTaskRepository creates a CSVTaskRepository backed by path.
func NewCSVTaskRepository(path string) *CSVTaskRepository {
	return &CSVTaskRepository{path: path}
}

// LoadTasks reads the task file. Optional columns that are absent fall back
// to defaults; id, owner and title are required.
func (r *CSVTaskRepository) LoadTasks() ([]models.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	table, err := readCSVTable(r.path)
	if err != nil {
		return nil, err
	}
	if len(table.columns) == 0 {
		return []models.Task{}, nil
	}
	if err := table.require(r.path, "id", "owner", "title"); err != nil {
		return nil, err
	}

	tasks := make([]models.Task, 0, len(table.rows))
	for i, row := range table.rows {
		task, err := decodeTask(table, row)
		if err != nil {
			// header is line 1
			return nil, fmt.Errorf("%w: %s line %d: %v", apierrors.ErrPersistence, r.path, i+2, err)
		}
		tasks = append(tasks, task)
	}

	return tasks, nil
}

// SaveTasks rewrites the task file.
func (r *CSVTaskRepository) SaveTasks(tasks []models.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows := make([][]string, 0, len(tasks))
	for _, t := range tasks {
		dueDate, dueTime, dueZone := formatDue(t.DueAt)
		rows = append(rows, []string{
			t.ID,
			t.Owner,
			t.Title,
			string(t.Category),
			string(t.Priority),
			strconv.FormatBool(t.Completed),
			t.Description,
			dueDate,
			dueTime,
			dueZone,
			formatTimestamp(t.CreatedAt),
		})
	}

	return writeCSVTable(r.path, taskColumns, rows)
}

func decodeTask(table csvTable, row []string) (models.Task, error) {
	task := models.Task{
		ID:          table.get(row, "id"),
		Owner:       table.get(row, "owner"),
		Title:       table.get(row, "title"),
		Category:    models.CategoryOther,
		Priority:    models.PriorityMedium,
		Description: table.raw(row, "description"),
	}
	if task.ID == "" {
		return task, fmt.Errorf("empty id")
	}

	if v := table.get(row, "category"); v != "" {
		category, ok := models.ParseCategory(v)
		if !ok {
			return task, fmt.Errorf("unknown category %q", v)
		}
		task.Category = category
	}

	if v := table.get(row, "priority"); v != "" {
		priority, ok := models.ParsePriority(v)
		if !ok {
			return task, fmt.Errorf("unknown priority %q", v)
		}
		task.Priority = priority
	}

	if v := table.get(row, "completed"); v != "" {
		completed, err := strconv.ParseBool(v)
		if err != nil {
			return task, fmt.Errorf("invalid completed flag %q", v)
		}
		task.Completed = completed
	}

	due, err := parseDue(table.get(row, "due_date"), table.get(row, "due_time"), table.get(row, "due_zone"))
	if err != nil {
		return task, fmt.Errorf("invalid due time: %v", err)
	}
	task.DueAt = due

	createdAt, err := parseTimestamp(table.get(row, "created_at"))
	if err != nil {
		return task, fmt.Errorf("invalid created_at: %v", err)
	}
	task.CreatedAt = createdAt

	return task, nil
}
