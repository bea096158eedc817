package storage

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"todo-stream/domain"
	"todo-stream/internal/consts"
)

type backend interface {
	ListTasks(ctx context.Context, userID string) ([]domain.Task, error)
	CreateTask(ctx context.Context, userID, title, description string) (domain.Task, error)
	ToggleTask(ctx context.Context, userID, id string) error
	DeleteTask(ctx context.Context, userID, id string) error
}

// Cache wraps a Storage instance with Redis-backed snapshot caching for
// reads. Every successful write evicts the owner's cached snapshot and
// publishes an update notification, which is what drives live subscribers
// to refetch.
type Cache struct {
	base    backend
	redis   *redis.Client
	ttl     time.Duration
	channel string
}

// NewCache creates a caching Storage wrapper using the provided Redis
// client, TTL and update channel.
func NewCache(base backend, client *redis.Client, ttl time.Duration, channel string) *Cache {
	if base == nil {
		panic("storage.NewCache: base storage is nil")
	}
	if ttl < 0 {
		ttl = 0
	}
	if channel == "" {
		channel = consts.TaskUpdatesChannel
	}
	return &Cache{base: base, redis: client, ttl: ttl, channel: channel}
}

func (c *Cache) ListTasks(ctx context.Context, userID string) ([]domain.Task, error) {
	if tasks, ok := c.loadFromCache(ctx, userID); ok {
		return tasks, nil
	}
	tasks, err := c.base.ListTasks(ctx, userID)
	if err != nil {
		return nil, err
	}
	c.storeTasks(ctx, userID, tasks)
	return tasks, nil
}

func (c *Cache) CreateTask(ctx context.Context, userID, title, description string) (domain.Task, error) {
	task, err := c.base.CreateTask(ctx, userID, title, description)
	if err != nil {
		return domain.Task{}, err
	}
	c.invalidate(ctx, userID)
	return task, nil
}

func (c *Cache) ToggleTask(ctx context.Context, userID, id string) error {
	if err := c.base.ToggleTask(ctx, userID, id); err != nil {
		return err
	}
	c.invalidate(ctx, userID)
	return nil
}

func (c *Cache) DeleteTask(ctx context.Context, userID, id string) error {
	if err := c.base.DeleteTask(ctx, userID, id); err != nil {
		return err
	}
	c.invalidate(ctx, userID)
	return nil
}

func (c *Cache) loadFromCache(ctx context.Context, userID string) ([]domain.Task, bool) {
	if c.redis == nil {
		return nil, false
	}
	data, err := c.redis.Get(ctx, tasksKey(userID)).Bytes()
	if err != nil {
		if err != redis.Nil {
			// On redis errors fall back to the backing storage without failing.
			_ = c.redis.Del(ctx, tasksKey(userID)).Err()
		}
		return nil, false
	}
	var tasks []domain.Task
	if err := json.Unmarshal(data, &tasks); err != nil {
		_ = c.redis.Del(ctx, tasksKey(userID)).Err()
		return nil, false
	}
	return tasks, true
}

func (c *Cache) storeTasks(ctx context.Context, userID string, tasks []domain.Task) {
	if c.redis == nil {
		return
	}
	data, err := json.Marshal(tasks)
	if err != nil {
		return
	}
	if err := c.redis.Set(ctx, tasksKey(userID), data, c.ttl).Err(); err != nil {
		log.Debugf("cache tasks for %s: %v", userID, err)
	}
}

func (c *Cache) invalidate(ctx context.Context, userID string) {
	if c.redis == nil {
		return
	}
	if err := c.redis.Del(ctx, tasksKey(userID)).Err(); err != nil {
		log.Debugf("evict tasks for %s: %v", userID, err)
	}
	payload, err := json.Marshal(struct {
		UserID string `json:"UserId"`
	}{userID})
	if err != nil {
		return
	}
	if err := c.redis.Publish(ctx, c.channel, payload).Err(); err != nil {
		log.Errorf("publish task update for %s: %v", userID, err)
	}
}

func tasksKey(userID string) string {
	return consts.TasksKeyPrefix + userID
}
