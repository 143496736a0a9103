package storage

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azqueue"

	"taskboard-api/domain"
)

// ErrUserExists is returned when registering an email that is already taken.
var ErrUserExists = errors.New("user already exists")

const userPartition = "user"

// Storage provides access to underlying persistence mechanisms. Tasks are
// partitioned by owner with the task id as row key; users are partitioned
// under a single key with the email as row key.
type Storage struct {
	taskTable     *aztables.Client
	userTable     *aztables.Client
	activityQueue *azqueue.QueueClient
}

// New creates a Storage instance from the given connection string.
func New(connStr, tasksTable, usersTable, activityQueue string) (*Storage, error) {
	tablesClientOptions := aztables.ClientOptions{
		ClientOptions: azcore.ClientOptions{
			Retry: policy.RetryOptions{
				MaxRetries:    3,
				TryTimeout:    time.Minute * 3,
				RetryDelay:    time.Second * 1,
				MaxRetryDelay: time.Second * 15,
				StatusCodes:   []int{408, 429, 500, 502, 503, 504},
			},
		},
	}
	svc, err := aztables.NewServiceClientFromConnectionString(connStr, &tablesClientOptions)
	if err != nil {
		return nil, err
	}
	tt := svc.NewClient(tasksTable)
	ut := svc.NewClient(usersTable)
	queueClientOptions := azqueue.ClientOptions{
		ClientOptions: azcore.ClientOptions{
			Retry: policy.RetryOptions{
				MaxRetries:    5,
				TryTimeout:    time.Minute * 5,
				RetryDelay:    time.Second * 1,
				MaxRetryDelay: time.Second * 60,
				StatusCodes:   []int{408, 429, 500, 502, 503, 504},
			},
		},
	}
	aq, err := azqueue.NewQueueClientFromConnectionString(connStr, activityQueue, &queueClientOptions)
	if err != nil {
		return nil, err
	}
	return &Storage{taskTable: tt, userTable: ut, activityQueue: aq}, nil
}

type taskEntity struct {
	aztables.Entity
	Title     string `json:"Title"`
	Priority  string `json:"Priority"`
	Assignee  string `json:"Assignee"`
	Member    string `json:"Member"`
	Category  string `json:"Category"`
	Checklist string `json:"Checklist"`
	CreatedAt string `json:"CreatedAt"`
	DueDate   string `json:"DueDate"`
}

func encodeTask(t domain.Task) ([]byte, error) {
	checklist, err := json.Marshal(t.Checklist)
	if err != nil {
		return nil, err
	}
	ent := taskEntity{
		Entity: aztables.Entity{
			PartitionKey: t.Owner,
			RowKey:       t.ID,
		},
		Title:     t.Title,
		Priority:  t.Priority,
		Assignee:  t.Assignee,
		Member:    t.Member,
		Category:  t.Category,
		Checklist: string(checklist),
		CreatedAt: t.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
	if t.DueDate != nil {
		ent.DueDate = t.DueDate.UTC().Format(time.RFC3339Nano)
	}
	return json.Marshal(ent)
}

func decodeTask(data []byte) (domain.Task, error) {
	var ent taskEntity
	if err := json.Unmarshal(data, &ent); err != nil {
		return domain.Task{}, err
	}
	task := domain.Task{
		ID:       ent.RowKey,
		Title:    ent.Title,
		Priority: ent.Priority,
		Owner:    ent.PartitionKey,
		Assignee: ent.Assignee,
		Member:   ent.Member,
		Category: ent.Category,
	}
	if ent.Checklist != "" {
		if err := json.Unmarshal([]byte(ent.Checklist), &task.Checklist); err != nil {
			return domain.Task{}, err
		}
	}
	if task.Checklist == nil {
		task.Checklist = []domain.ChecklistItem{}
	}
	if ent.CreatedAt != "" {
		ts, err := time.Parse(time.RFC3339Nano, ent.CreatedAt)
		if err != nil {
			return domain.Task{}, err
		}
		task.CreatedAt = ts
	}
	if ent.DueDate != "" {
		due, err := time.Parse(time.RFC3339Nano, ent.DueDate)
		if err != nil {
			return domain.Task{}, err
		}
		task.DueDate = &due
	}
	return task, nil
}

// quoteFilter escapes a value for use inside an OData string literal.
func quoteFilter(v string) string {
	return "'" + strings.ReplaceAll(v, "'", "''") + "'"
}

// InsertTask persists a freshly created task.
func (s *Storage) InsertTask(ctx context.Context, t domain.Task) error {
	data, err := encodeTask(t)
	if err != nil {
		return err
	}
	_, err = s.taskTable.AddEntity(ctx, data, nil)
	return mapTableError(err)
}

// FetchTask retrieves a task by id regardless of owner. The row key is unique
// across partitions, so the first match wins.
func (s *Storage) FetchTask(ctx context.Context, id string) (domain.Task, error) {
	filter := "RowKey eq " + quoteFilter(id)
	pager := s.taskTable.NewListEntitiesPager(&aztables.ListEntitiesOptions{Filter: &filter})
	for pager.More() {
		resp, err := pager.NextPage(ctx)
		if err != nil {
			return domain.Task{}, mapTableError(err)
		}
		for _, e := range resp.Entities {
			return decodeTask(e)
		}
	}
	return domain.Task{}, domain.ErrNotFound
}

// FetchTasksByActor retrieves every task where actor is owner, assignee or
// member.
func (s *Storage) FetchTasksByActor(ctx context.Context, actor string) ([]domain.Task, error) {
	q := quoteFilter(actor)
	filter := "PartitionKey eq " + q + " or Assignee eq " + q + " or Member eq " + q
	pager := s.taskTable.NewListEntitiesPager(&aztables.ListEntitiesOptions{Filter: &filter})
	tasks := []domain.Task{}
	for pager.More() {
		resp, err := pager.NextPage(ctx)
		if err != nil {
			return nil, mapTableError(err)
		}
		for _, e := range resp.Entities {
			task, err := decodeTask(e)
			if err != nil {
				return nil, err
			}
			tasks = append(tasks, task)
		}
	}
	return tasks, nil
}

// UpdateTask replaces the stored record with t. The task must already exist.
func (s *Storage) UpdateTask(ctx context.Context, t domain.Task) error {
	data, err := encodeTask(t)
	if err != nil {
		return err
	}
	_, err = s.taskTable.UpdateEntity(ctx, data, &aztables.UpdateEntityOptions{
		UpdateMode: aztables.UpdateModeReplace,
	})
	return mapTableError(err)
}

// DeleteTask removes the record for t. Deletion is terminal.
func (s *Storage) DeleteTask(ctx context.Context, t domain.Task) error {
	_, err := s.taskTable.DeleteEntity(ctx, t.Owner, t.ID, nil)
	return mapTableError(err)
}

// SetMemberForOwner sets the member field on every task owned by owner and
// returns how many records were updated. The bulk update is not atomic; the
// first failure is reported after the remaining records were attempted.
func (s *Storage) SetMemberForOwner(ctx context.Context, owner, member string) (int, error) {
	filter := "PartitionKey eq " + quoteFilter(owner)
	pager := s.taskTable.NewListEntitiesPager(&aztables.ListEntitiesOptions{Filter: &filter})
	updated := 0
	var firstErr error
	for pager.More() {
		resp, err := pager.NextPage(ctx)
		if err != nil {
			return updated, mapTableError(err)
		}
		for _, e := range resp.Entities {
			task, err := decodeTask(e)
			if err != nil {
				if firstErr == nil {
					firstErr = err
				}
				continue
			}
			task.Member = member
			data, err := encodeTask(task)
			if err != nil {
				if firstErr == nil {
					firstErr = err
				}
				continue
			}
			if _, err := s.taskTable.UpdateEntity(ctx, data, &aztables.UpdateEntityOptions{
				UpdateMode: aztables.UpdateModeReplace,
			}); err != nil {
				if firstErr == nil {
					firstErr = mapTableError(err)
				}
				continue
			}
			updated++
		}
	}
	return updated, firstErr
}

type userEntity struct {
	aztables.Entity
	ID           string `json:"ID"`
	Name         string `json:"Name"`
	PasswordHash string `json:"PasswordHash"`
	CreatedAt    string `json:"CreatedAt"`
}

func decodeUser(data []byte) (domain.User, error) {
	var ent userEntity
	if err := json.Unmarshal(data, &ent); err != nil {
		return domain.User{}, err
	}
	u := domain.User{
		ID:           ent.ID,
		Name:         ent.Name,
		Email:        ent.RowKey,
		PasswordHash: ent.PasswordHash,
	}
	if ent.CreatedAt != "" {
		ts, err := time.Parse(time.RFC3339Nano, ent.CreatedAt)
		if err != nil {
			return domain.User{}, err
		}
		u.CreatedAt = ts
	}
	return u, nil
}

// InsertUser persists a new account. A duplicate email fails with
// ErrUserExists.
func (s *Storage) InsertUser(ctx context.Context, u domain.User) error {
	ent := userEntity{
		Entity: aztables.Entity{
			PartitionKey: userPartition,
			RowKey:       u.Email,
		},
		ID:           u.ID,
		Name:         u.Name,
		PasswordHash: u.PasswordHash,
		CreatedAt:    u.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
	data, err := json.Marshal(ent)
	if err != nil {
		return err
	}
	if _, err := s.userTable.AddEntity(ctx, data, nil); err != nil {
		if statusCode(err) == 409 {
			return ErrUserExists
		}
		return err
	}
	return nil
}

// FetchUserByEmail looks up an account by email.
func (s *Storage) FetchUserByEmail(ctx context.Context, email string) (domain.User, error) {
	resp, err := s.userTable.GetEntity(ctx, userPartition, email, nil)
	if err != nil {
		return domain.User{}, mapTableError(err)
	}
	return decodeUser(resp.Value)
}

// FetchUsers lists all accounts.
func (s *Storage) FetchUsers(ctx context.Context) ([]domain.User, error) {
	filter := "PartitionKey eq " + quoteFilter(userPartition)
	pager := s.userTable.NewListEntitiesPager(&aztables.ListEntitiesOptions{Filter: &filter})
	users := []domain.User{}
	for pager.More() {
		resp, err := pager.NextPage(ctx)
		if err != nil {
			return nil, mapTableError(err)
		}
		for _, e := range resp.Entities {
			u, err := decodeUser(e)
			if err != nil {
				return nil, err
			}
			users = append(users, u)
		}
	}
	return users, nil
}

// EnqueueActivities sends the given activity events to the feed queue.
func (s *Storage) EnqueueActivities(ctx context.Context, actorID string, events []domain.Activity) error {
	for _, ev := range events {
		env := domain.ActivityEnvelope{ActorID: actorID, Activity: ev}
		data, err := json.Marshal(env)
		if err != nil {
			return err
		}
		if _, err := s.activityQueue.EnqueueMessage(ctx, string(data), nil); err != nil {
			return err
		}
	}
	return nil
}

func statusCode(err error) int {
	var respErr *azcore.ResponseError
	if errors.As(err, &respErr) {
		return respErr.StatusCode
	}
	return 0
}

func mapTableError(err error) error {
	if err == nil {
		return nil
	}
	if statusCode(err) == 404 {
		return domain.ErrNotFound
	}
	return err
}
