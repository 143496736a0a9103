package domain

import (
	"strings"
	"time"
)

// Task priorities.
const (
	PriorityHigh     = "high"
	PriorityModerate = "moderate"
	PriorityLow      = "low"
)

// ChecklistItem is a single entry on a task's checklist. ID is stable and
// independent of the entry's position.
type ChecklistItem struct {
	ID        string `json:"id"`
	Content   string `json:"content"`
	Completed bool   `json:"completed"`
}

// Task represents a single board item.
type Task struct {
	ID        string          `json:"id"`
	Title     string          `json:"title"`
	Priority  string          `json:"priority"`
	Owner     string          `json:"owner"`
	Assignee  string          `json:"assignee,omitempty"`
	Member    string          `json:"member,omitempty"`
	Checklist []ChecklistItem `json:"checklist"`
	Category  string          `json:"category"`
	CreatedAt time.Time       `json:"createdAt"`
	DueDate   *time.Time      `json:"duedate,omitempty"`
}

// PublicTask is the unauthenticated by-id projection. Owner, assignee, member,
// creation time and the internal id are withheld.
type PublicTask struct {
	Title     string          `json:"title"`
	Priority  string          `json:"priority"`
	Checklist []ChecklistItem `json:"checklist"`
	Category  string          `json:"category"`
	DueDate   *time.Time      `json:"duedate,omitempty"`
}

// Public returns the field-filtered projection of t.
func (t Task) Public() PublicTask {
	return PublicTask{
		Title:     t.Title,
		Priority:  t.Priority,
		Checklist: t.Checklist,
		Category:  t.Category,
		DueDate:   t.DueDate,
	}
}

// ValidPriority reports whether p is one of the enumerated priorities.
func ValidPriority(p string) bool {
	switch p {
	case PriorityHigh, PriorityModerate, PriorityLow:
		return true
	}
	return false
}

// Validate checks the invariants every stored task must hold.
func (t Task) Validate() error {
	if strings.TrimSpace(t.Title) == "" {
		return ValidationError{Field: "title", Reason: "must not be empty"}
	}
	if !ValidPriority(t.Priority) {
		return ErrInvalidPriority
	}
	if !ValidCategory(t.Category) {
		return ErrInvalidCategory
	}
	if t.Owner == "" {
		return ValidationError{Field: "owner", Reason: "must not be empty"}
	}
	return nil
}

// User is referenced by the core only through its id; credentials stay with the
// credential endpoints.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// PublicUser is the listing projection used by assignee pickers.
type PublicUser struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Public returns the listing projection of u.
func (u User) Public() PublicUser {
	return PublicUser{ID: u.ID, Name: u.Name}
}
