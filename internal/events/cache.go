package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"ticketly/internal/logger"
	"ticketly/internal/models"

	"github.com/go-redis/redis/v8"
)

const eventKeyPrefix = "events:id:"

// listKeysSet tracks every list cache key currently alive so Invalidate can
// clear all pages at once.
const listKeysSet = "events:list-keys"

// RedisCache is a best-effort read-through cache for the public event read
// path. Any Redis failure degrades to a miss; callers never see an error.
type RedisCache struct {
	Client *redis.Client
	TTL    time.Duration
	Log    *logger.Logger
}

func NewRedisCache(client *redis.Client, ttl time.Duration, log *logger.Logger) *RedisCache {
	return &RedisCache{Client: client, TTL: ttl, Log: log}
}

func (c *RedisCache) GetList(ctx context.Context, key string) (*models.EventList, bool) {
	raw, err := c.Client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.Log.Warn("CACHE", fmt.Sprintf("Get %s failed: %v", key, err))
		}
		return nil, false
	}
	var list models.EventList
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, false
	}
	return &list, true
}

func (c *RedisCache) SetList(ctx context.Context, key string, list *models.EventList) {
	raw, err := json.Marshal(list)
	if err != nil {
		return
	}
	pipe := c.Client.TxPipeline()
	pipe.Set(ctx, key, raw, c.TTL)
	pipe.SAdd(ctx, listKeysSet, key)
	if _, err := pipe.Exec(ctx); err != nil {
		c.Log.Warn("CACHE", fmt.Sprintf("Set %s failed: %v", key, err))
	}
}

func (c *RedisCache) GetEvent(ctx context.Context, id string) (*models.Event, bool) {
	raw, err := c.Client.Get(ctx, eventKeyPrefix+id).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.Log.Warn("CACHE", fmt.Sprintf("Get event %s failed: %v", id, err))
		}
		return nil, false
	}
	var event models.Event
	if err := json.Unmarshal(raw, &event); err != nil {
		return nil, false
	}
	return &event, true
}

func (c *RedisCache) SetEvent(ctx context.Context, event *models.Event) {
	raw, err := json.Marshal(event)
	if err != nil {
		return
	}
	if err := c.Client.Set(ctx, eventKeyPrefix+event.ID, raw, c.TTL).Err(); err != nil {
		c.Log.Warn("CACHE", fmt.Sprintf("Set event %s failed: %v", event.ID, err))
	}
}

// Invalidate drops the cached detail for one event and every cached list
// page. Called after any catalog mutation and after each seat decrement.
func (c *RedisCache) Invalidate(ctx context.Context, id string) {
	keys, err := c.Client.SMembers(ctx, listKeysSet).Result()
	if err != nil && err != redis.Nil {
		c.Log.Warn("CACHE", fmt.Sprintf("Invalidate list keys lookup failed: %v", err))
	}

	keys = append(keys, eventKeyPrefix+id, listKeysSet)
	if err := c.Client.Del(ctx, keys...).Err(); err != nil {
		c.Log.Warn("CACHE", fmt.Sprintf("Invalidate failed: %v", err))
	}
}

// NoopCache satisfies Cache without a Redis backend. Used in tests and when
// Redis is not configured.
type NoopCache struct{}

func (NoopCache) GetList(context.Context, string) (*models.EventList, bool) { return nil, false }
func (NoopCache) SetList(context.Context, string, *models.EventList)       {}
func (NoopCache) GetEvent(context.Context, string) (*models.Event, bool)   { return nil, false }
func (NoopCache) SetEvent(context.Context, *models.Event)                  {}
func (NoopCache) Invalidate(context.Context, string)                       {}
