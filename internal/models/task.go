package models

import (
	"strings"
	"time"
)

type Category string

const (
	CategoryWork     Category = "Work"
	CategoryPersonal Category = "Personal"
	CategoryOther    Category = "Other"
)

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryWork, CategoryPersonal, CategoryOther:
		return true
	}
	return false
}

// ParseCategory matches s case-insensitively against the known categories.
func ParseCategory(s string) (Category, bool) {
	for _, c := range []Category{CategoryWork, CategoryPersonal, CategoryOther} {
		if strings.EqualFold(strings.TrimSpace(s), string(c)) {
			return c, true
		}
	}
	return "", false
}

type Priority string

const (
	PriorityLow    Priority = "Low"
	PriorityMedium Priority = "Medium"
	PriorityHigh   Priority = "High"
)

// Valid reports whether p is one of the known priorities.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// ParsePriority matches s case-insensitively against the known priorities.
func ParsePriority(s string) (Priority, bool) {
	for _, p := range []Priority{PriorityLow, PriorityMedium, PriorityHigh} {
		if strings.EqualFold(strings.TrimSpace(s), string(p)) {
			return p, true
		}
	}
	return "", false
}

type Task struct {
	ID          string     `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Owner       string     `gorm:"type:varchar(50);index;not null" json:"owner"`
	Title       string     `gorm:"not null" json:"title"`
	Category    Category   `gorm:"type:varchar(20);not null" json:"category"`
	Priority    Priority   `gorm:"type:varchar(20);not null" json:"priority"`
	Completed   bool       `gorm:"not null;default:false" json:"completed"`
	Description string     `gorm:"type:text" json:"description"`
	DueAt       *time.Time `json:"due_at"`
	CreatedAt   time.Time  `gorm:"autoCreateTime:false" json:"created_at"`
}

// Clone returns a copy of t that shares no memory with it.
func (t Task) Clone() Task {
	if t.DueAt != nil {
		due := *t.DueAt
		t.DueAt = &due
	}
	return t
}
