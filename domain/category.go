package domain

// Workflow categories. The four states are fully connected: any authorized
// actor may move a task to any category at any time. Ordering is a UI
// convention, not a backend invariant.
const (
	CategoryBacklog    = "backlog"
	CategoryTodo       = "to-do"
	CategoryInProgress = "in-progress"
	CategoryDone       = "done"
)

// DefaultCategory is assigned at creation when the request supplies none.
const DefaultCategory = CategoryTodo

// Categories lists the workflow states in board order.
var Categories = []string{CategoryBacklog, CategoryTodo, CategoryInProgress, CategoryDone}

// ValidCategory reports whether c is one of the enumerated categories.
func ValidCategory(c string) bool {
	switch c {
	case CategoryBacklog, CategoryTodo, CategoryInProgress, CategoryDone:
		return true
	}
	return false
}

// ApplyCategory moves t to category c. Re-applying the current category is a
// no-op success.
func ApplyCategory(t Task, c string) (Task, error) {
	if !ValidCategory(c) {
		return Task{}, ErrInvalidCategory
	}
	t.Category = c
	return t, nil
}
