package domain

import (
	"strings"

	"github.com/google/uuid"
)

// SplitChecklist turns a comma-delimited string of item titles into fresh
// checklist entries: trimmed, uncompleted, each with its own stable id.
// Segments that are empty after trimming are dropped.
func SplitChecklist(text string) []ChecklistItem {
	if strings.TrimSpace(text) == "" {
		return []ChecklistItem{}
	}
	parts := strings.Split(text, ",")
	items := make([]ChecklistItem, 0, len(parts))
	for _, p := range parts {
		content := strings.TrimSpace(p)
		if content == "" {
			continue
		}
		items = append(items, ChecklistItem{
			ID:      uuid.NewString(),
			Content: content,
		})
	}
	return items
}

// ToggleChecklistItem sets the completed flag of the entry identified by
// itemID and leaves every other entry untouched. Returns ErrNotFound when no
// entry matches; the task is not mutated in that case.
func ToggleChecklistItem(t Task, itemID string, completed bool) (Task, error) {
	for i := range t.Checklist {
		if t.Checklist[i].ID != itemID {
			continue
		}
		items := make([]ChecklistItem, len(t.Checklist))
		copy(items, t.Checklist)
		items[i].Completed = completed
		t.Checklist = items
		return t, nil
	}
	return Task{}, ErrNotFound
}
