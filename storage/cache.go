package storage

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"taskboard-api/domain"
)

type backend interface {
	InsertTask(ctx context.Context, t domain.Task) error
	FetchTask(ctx context.Context, id string) (domain.Task, error)
	FetchTasksByActor(ctx context.Context, actor string) ([]domain.Task, error)
	UpdateTask(ctx context.Context, t domain.Task) error
	DeleteTask(ctx context.Context, t domain.Task) error
	SetMemberForOwner(ctx context.Context, owner, member string) (int, error)
}

// Cache wraps a Storage instance with Redis-backed caching of per-actor
// scoped task lists. Mutations evict the lists of every actor related to the
// touched task; staleness beyond that (for example a previous board member
// after a member change) is bounded by the TTL.
type Cache struct {
	*Storage
	base  backend
	redis *redis.Client
	ttl   time.Duration
}

// NewCache creates a caching Storage wrapper using the provided Redis client
// and TTL.
func NewCache(base backend, client *redis.Client, ttl time.Duration) *Cache {
	if base == nil {
		panic("storage.NewCache: base storage is nil")
	}
	if ttl < 0 {
		ttl = 0
	}

	c := &Cache{
		base:  base,
		redis: client,
		ttl:   ttl,
	}
	if s, ok := base.(*Storage); ok {
		c.Storage = s
	}
	return c
}

// FetchTasksByActor serves the scoped list from cache when possible.
func (c *Cache) FetchTasksByActor(ctx context.Context, actor string) ([]domain.Task, error) {
	if tasks, ok := c.loadScope(ctx, actor); ok {
		return tasks, nil
	}

	tasks, err := c.base.FetchTasksByActor(ctx, actor)
	if err != nil {
		return nil, err
	}

	c.storeScope(ctx, actor, tasks)
	return tasks, nil
}

func (c *Cache) FetchTask(ctx context.Context, id string) (domain.Task, error) {
	return c.base.FetchTask(ctx, id)
}

func (c *Cache) InsertTask(ctx context.Context, t domain.Task) error {
	if err := c.base.InsertTask(ctx, t); err != nil {
		return err
	}
	c.evict(ctx, relatedActors(t)...)
	return nil
}

func (c *Cache) UpdateTask(ctx context.Context, t domain.Task) error {
	if err := c.base.UpdateTask(ctx, t); err != nil {
		return err
	}
	c.evict(ctx, relatedActors(t)...)
	return nil
}

func (c *Cache) DeleteTask(ctx context.Context, t domain.Task) error {
	if err := c.base.DeleteTask(ctx, t); err != nil {
		return err
	}
	c.evict(ctx, relatedActors(t)...)
	return nil
}

func (c *Cache) SetMemberForOwner(ctx context.Context, owner, member string) (int, error) {
	n, err := c.base.SetMemberForOwner(ctx, owner, member)
	if n > 0 || err == nil {
		c.evict(ctx, owner, member)
	}
	return n, err
}

func relatedActors(t domain.Task) []string {
	actors := []string{t.Owner}
	if t.Assignee != "" {
		actors = append(actors, t.Assignee)
	}
	if t.Member != "" {
		actors = append(actors, t.Member)
	}
	return actors
}

func (c *Cache) loadScope(ctx context.Context, actor string) ([]domain.Task, bool) {
	if c.redis == nil {
		return nil, false
	}
	data, err := c.redis.Get(ctx, scopeCacheKey(actor)).Bytes()
	if err != nil {
		if err != redis.Nil {
			// On redis errors fall back to the backing storage without failing.
			_ = c.redis.Del(ctx, scopeCacheKey(actor)).Err()
		}
		return nil, false
	}
	var tasks []domain.Task
	if err := json.Unmarshal(data, &tasks); err != nil {
		_ = c.redis.Del(ctx, scopeCacheKey(actor)).Err()
		return nil, false
	}
	return tasks, true
}

func (c *Cache) storeScope(ctx context.Context, actor string, tasks []domain.Task) {
	if c.redis == nil || c.ttl == 0 {
		return
	}
	data, err := json.Marshal(tasks)
	if err != nil {
		return
	}
	_ = c.redis.Set(ctx, scopeCacheKey(actor), data, c.ttl).Err()
}

func (c *Cache) evict(ctx context.Context, actors ...string) {
	if c.redis == nil || len(actors) == 0 {
		return
	}
	keys := make([]string, 0, len(actors))
	for _, a := range actors {
		if a == "" {
			continue
		}
		keys = append(keys, scopeCacheKey(a))
	}
	if len(keys) == 0 {
		return
	}
	_, _ = c.redis.Del(ctx, keys...).Result()
}

func scopeCacheKey(actor string) string {
	return "scope:" + actor
}
