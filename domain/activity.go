package domain

import "github.com/bytedance/sonic"

// Activity event types emitted after successful mutations.
const (
	ActivityTaskCreated      = "task-created"
	ActivityTaskUpdated      = "task-updated"
	ActivityTaskDeleted      = "task-deleted"
	ActivityCategoryChanged  = "category-changed"
	ActivityChecklistToggled = "checklist-toggled"
	ActivityMemberSet        = "member-set"
)

// Activity records a single board mutation for the activity feed queue.
type Activity struct {
	ID        string                 `json:"id"`
	TaskID    string                 `json:"taskId,omitempty"`
	Type      string                 `json:"type"`
	Data      sonic.NoCopyRawMessage `json:"data,omitempty"`
	Timestamp int64                  `json:"timestamp"`
}

// ActivityEnvelope wraps an activity with the actor performing it.
type ActivityEnvelope struct {
	ActorID  string   `json:"actorId"`
	Activity Activity `json:"activity"`
}
