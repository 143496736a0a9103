package api

import (
	"context"

	"taskboard-api/domain"
)

// Storage abstracts persistence for the task service and handlers.
type Storage interface {
	InsertTask(ctx context.Context, t domain.Task) error
	FetchTask(ctx context.Context, id string) (domain.Task, error)
	FetchTasksByActor(ctx context.Context, actor string) ([]domain.Task, error)
	UpdateTask(ctx context.Context, t domain.Task) error
	DeleteTask(ctx context.Context, t domain.Task) error
	SetMemberForOwner(ctx context.Context, owner, member string) (int, error)

	InsertUser(ctx context.Context, u domain.User) error
	FetchUserByEmail(ctx context.Context, email string) (domain.User, error)
	FetchUsers(ctx context.Context) ([]domain.User, error)

	EnqueueActivities(ctx context.Context, actorID string, events []domain.Activity) error
}

// Authenticator is implemented by types able to extract actor IDs from
// Authorization headers.
type Authenticator interface {
	UserIDFromAuthHeader(string) (string, error)
}

// TokenIssuer mints a bearer token for a freshly authenticated actor. Only
// available in shared-secret auth mode; the JWKS mode delegates issuance to
// the external identity provider.
type TokenIssuer interface {
	IssueToken(userID string) (string, error)
}

// Deduper prevents reprocessing of duplicate create requests.
type Deduper interface {
	// Claim records the idempotency key and returns true when it was newly
	// added; otherwise it returns the task id recorded for the original
	// request, or "" when that request is still in flight.
	Claim(ctx context.Context, actorID, key string) (bool, string, error)
	// Record stores the task id produced by the claimed request so replays
	// can return it.
	Record(ctx context.Context, actorID, key, taskID string) error
	// Release deletes a claimed key, used when the create fails so the
	// caller may retry.
	Release(ctx context.Context, actorID, key string) error
}
