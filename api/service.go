package api

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"

	"taskboard-api/domain"
)

// ActivityPublisher records board mutations on the activity feed without
// blocking the request path.
type ActivityPublisher interface {
	Publish(actorID string, events []domain.Activity)
}

// TaskService orchestrates access control, categorization, checklist and
// analytics logic over the persistence collaborator. It holds no mutable
// state of its own; concurrent requests only share the storage behind it.
type TaskService struct {
	store   Storage
	publish ActivityPublisher
	now     func() time.Time
}

// NewTaskService creates a TaskService. publisher may be nil, in which case
// no activity events are recorded.
func NewTaskService(store Storage, publisher ActivityPublisher) *TaskService {
	return &TaskService{store: store, publish: publisher, now: time.Now}
}

// CreateTaskInput carries the caller-supplied fields for a new task. The
// owner is never part of the input; it is bound to the authenticated actor.
type CreateTaskInput struct {
	Title     string     `json:"title"`
	Priority  string     `json:"priority"`
	Checklist string     `json:"checklist"`
	Assignee  string     `json:"assignee,omitempty"`
	Member    string     `json:"member,omitempty"`
	Category  string     `json:"category,omitempty"`
	DueDate   *time.Time `json:"duedate,omitempty"`
}

// Create binds owner to actor, splits the checklist text into entries and
// persists the new task.
func (s *TaskService) Create(ctx context.Context, actor string, in CreateTaskInput) (domain.Task, error) {
	category := in.Category
	if category == "" {
		category = domain.DefaultCategory
	}
	task := domain.Task{
		ID:        uuid.NewString(),
		Title:     strings.TrimSpace(in.Title),
		Priority:  in.Priority,
		Owner:     actor,
		Assignee:  in.Assignee,
		Member:    in.Member,
		Checklist: domain.SplitChecklist(in.Checklist),
		Category:  category,
		CreatedAt: s.now(),
		DueDate:   in.DueDate,
	}
	if err := task.Validate(); err != nil {
		return domain.Task{}, err
	}
	if err := s.store.InsertTask(ctx, task); err != nil {
		return domain.Task{}, fmt.Errorf("insert task: %w", err)
	}
	s.emit(actor, task.ID, domain.ActivityTaskCreated, map[string]string{"title": task.Title})
	return task, nil
}

// Get returns the public, field-filtered projection of a task. No
// authorization gate applies; sensitive fields are withheld by the projection.
func (s *TaskService) Get(ctx context.Context, id string) (domain.PublicTask, error) {
	if err := validateTaskID(id); err != nil {
		return domain.PublicTask{}, err
	}
	task, err := s.store.FetchTask(ctx, id)
	if err != nil {
		return domain.PublicTask{}, err
	}
	return task.Public(), nil
}

// Board partitions an actor's scoped tasks into the four workflow buckets.
type Board struct {
	Backlog    []domain.Task `json:"backlog"`
	Todo       []domain.Task `json:"todo"`
	InProgress []domain.Task `json:"inProgress"`
	Done       []domain.Task `json:"done"`
}

// List fetches the actor's scoped tasks, applies the requested time window to
// their creation dates and partitions the result into category buckets.
// filterKind "" means no window; unrecognized kinds fail with ErrInvalidFilter.
func (s *TaskService) List(ctx context.Context, actor, filterKind string) (Board, error) {
	var window *domain.Window
	if filterKind != "" {
		w, err := domain.ResolveWindow(filterKind, s.now())
		if err != nil {
			return Board{}, err
		}
		window = &w
	}

	tasks, err := s.store.FetchTasksByActor(ctx, actor)
	if err != nil {
		return Board{}, fmt.Errorf("fetch scoped tasks: %w", err)
	}

	board := Board{
		Backlog:    []domain.Task{},
		Todo:       []domain.Task{},
		InProgress: []domain.Task{},
		Done:       []domain.Task{},
	}
	for _, t := range tasks {
		if window != nil && !window.ContainsDate(t.CreatedAt) {
			continue
		}
		switch t.Category {
		case domain.CategoryBacklog:
			board.Backlog = append(board.Backlog, t)
		case domain.CategoryTodo:
			board.Todo = append(board.Todo, t)
		case domain.CategoryInProgress:
			board.InProgress = append(board.InProgress, t)
		case domain.CategoryDone:
			board.Done = append(board.Done, t)
		}
	}
	return board, nil
}

// UpdateTaskInput enumerates the mutable fields of a task. Absent fields are
// left unchanged; owner, creation time and id are never updatable.
type UpdateTaskInput struct {
	Title       *string    `json:"title,omitempty"`
	Priority    *string    `json:"priority,omitempty"`
	Checklist   *string    `json:"checklist,omitempty"`
	Assignee    *string    `json:"assignee,omitempty"`
	Category    *string    `json:"category,omitempty"`
	DueDate     *time.Time `json:"duedate,omitempty"`
	ClearDue    bool       `json:"clearDuedate,omitempty"`
	ClearMember bool       `json:"clearMember,omitempty"`
}

// Update applies the supplied fields to an existing task after the
// authorization gate. Supplying a checklist replaces the entries with fresh,
// uncompleted ones.
func (s *TaskService) Update(ctx context.Context, actor, id string, in UpdateTaskInput) (domain.Task, error) {
	task, err := s.fetchAuthorized(ctx, actor, id)
	if err != nil {
		return domain.Task{}, err
	}

	if in.Title != nil {
		task.Title = strings.TrimSpace(*in.Title)
	}
	if in.Priority != nil {
		task.Priority = *in.Priority
	}
	if in.Checklist != nil {
		task.Checklist = domain.SplitChecklist(*in.Checklist)
	}
	if in.Assignee != nil {
		task.Assignee = *in.Assignee
	}
	if in.Category != nil {
		task.Category = *in.Category
	}
	if in.DueDate != nil {
		task.DueDate = in.DueDate
	}
	if in.ClearDue {
		task.DueDate = nil
	}
	if in.ClearMember {
		task.Member = ""
	}

	if err := task.Validate(); err != nil {
		return domain.Task{}, err
	}
	if err := s.store.UpdateTask(ctx, task); err != nil {
		return domain.Task{}, fmt.Errorf("update task: %w", err)
	}
	s.emit(actor, task.ID, domain.ActivityTaskUpdated, nil)
	return task, nil
}

// Delete removes a task after the authorization gate. Deletion is terminal.
func (s *TaskService) Delete(ctx context.Context, actor, id string) error {
	task, err := s.fetchAuthorized(ctx, actor, id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteTask(ctx, task); err != nil {
		return err
	}
	s.emit(actor, task.ID, domain.ActivityTaskDeleted, nil)
	return nil
}

// ChangeCategory moves a task to the given category. All four categories are
// reachable from any state; re-applying the current one succeeds.
func (s *TaskService) ChangeCategory(ctx context.Context, actor, id, category string) (domain.Task, error) {
	task, err := s.fetchAuthorized(ctx, actor, id)
	if err != nil {
		return domain.Task{}, err
	}
	task, err = domain.ApplyCategory(task, category)
	if err != nil {
		return domain.Task{}, err
	}
	if err := s.store.UpdateTask(ctx, task); err != nil {
		return domain.Task{}, fmt.Errorf("update task: %w", err)
	}
	s.emit(actor, task.ID, domain.ActivityCategoryChanged, map[string]string{"category": category})
	return task, nil
}

// ToggleChecklistItem sets the completed flag of one checklist entry.
func (s *TaskService) ToggleChecklistItem(ctx context.Context, actor, id, itemID string, completed bool) (domain.Task, error) {
	task, err := s.fetchAuthorized(ctx, actor, id)
	if err != nil {
		return domain.Task{}, err
	}
	task, err = domain.ToggleChecklistItem(task, itemID, completed)
	if err != nil {
		return domain.Task{}, err
	}
	if err := s.store.UpdateTask(ctx, task); err != nil {
		return domain.Task{}, fmt.Errorf("update task: %w", err)
	}
	s.emit(actor, task.ID, domain.ActivityChecklistToggled, map[string]string{"itemId": itemID})
	return task, nil
}

// SetBoardMember sets the board-wide collaborator on every task the actor
// owns and returns the number of tasks touched. The bulk update is not
// atomic; partial application surfaces as an error.
func (s *TaskService) SetBoardMember(ctx context.Context, actor, memberID string) (int, error) {
	if memberID == "" {
		return 0, domain.ValidationError{Field: "member", Reason: "must not be empty"}
	}
	n, err := s.store.SetMemberForOwner(ctx, actor, memberID)
	if err != nil {
		return n, fmt.Errorf("set board member: %w", err)
	}
	s.emit(actor, "", domain.ActivityMemberSet, map[string]string{"member": memberID})
	return n, nil
}

// Analytics aggregates grouped counts over the actor's scoped tasks.
func (s *TaskService) Analytics(ctx context.Context, actor string) (domain.Summary, error) {
	tasks, err := s.store.FetchTasksByActor(ctx, actor)
	if err != nil {
		return domain.Summary{}, fmt.Errorf("fetch scoped tasks: %w", err)
	}
	return domain.Aggregate(tasks), nil
}

// fetchAuthorized loads a task and applies the mutation authorization gate:
// the actor must be owner, assignee or member. A task's existence is not
// hidden from non-authorized callers.
func (s *TaskService) fetchAuthorized(ctx context.Context, actor, id string) (domain.Task, error) {
	if err := validateTaskID(id); err != nil {
		return domain.Task{}, err
	}
	task, err := s.store.FetchTask(ctx, id)
	if err != nil {
		return domain.Task{}, err
	}
	if err := domain.Authorize(actor, task); err != nil {
		return domain.Task{}, err
	}
	return task, nil
}

// validateTaskID is the single identifier-parsing boundary; malformed ids
// fail with ErrInvalidID, distinct from ErrNotFound.
func validateTaskID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return domain.ErrInvalidID
	}
	return nil
}

func (s *TaskService) emit(actor, taskID, eventType string, data map[string]string) {
	if s.publish == nil {
		return
	}
	ev := domain.Activity{
		ID:        uuid.NewString(),
		TaskID:    taskID,
		Type:      eventType,
		Timestamp: nextTimestamp(),
	}
	if len(data) > 0 {
		if payload, err := sonic.Marshal(data); err == nil {
			ev.Data = payload
		}
	}
	s.publish.Publish(actor, []domain.Activity{ev})
}
