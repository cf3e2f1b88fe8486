package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseCategory(t *testing.T) {
	c, ok := ParseCategory(" work ")
	assert.True(t, ok)
	assert.Equal(t, CategoryWork, c)

	_, ok = ParseCategory("Errands")
	assert.False(t, ok)
}

func TestParsePriority(t *testing.T) {
	p, ok := ParsePriority("HIGH")
	assert.True(t, ok)
	assert.Equal(t, PriorityHigh, p)

	_, ok = ParsePriority("")
	assert.False(t, ok)
}

func TestTaskClone(t *testing.T) {
	due := time.Date(2026, 10, 17, 10, 0, 0, 0, time.UTC)
	task := Task{ID: "t1", DueAt: &due}

	clone := task.Clone()
	*clone.DueAt = clone.DueAt.Add(time.Hour)

	assert.True(t, task.DueAt.Equal(due))
	assert.Nil(t, Task{}.Clone().DueAt)
}
