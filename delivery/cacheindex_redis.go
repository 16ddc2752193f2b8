package delivery

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "safedocs:cache:"

// RedisCacheIndex shares the cache index between delivery replicas. Entries
// carry a redis TTL matching their expiry so redis evicts them on its own.
type RedisCacheIndex struct {
	client *redis.Client
	now    func() time.Time
}

func NewRedisCacheIndex(client *redis.Client) *RedisCacheIndex {
	return &RedisCacheIndex{
		client: client,
		now:    time.Now,
	}
}

func redisKey(contentID string, nodeID string) string {
	return redisKeyPrefix + contentID + ":" + nodeID
}

func (r *RedisCacheIndex) Lookup(ctx context.Context, contentID string, nodeID string) (*CacheEntry, bool, error) {
	payload, err := r.client.Get(ctx, redisKey(contentID, nodeID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}

	if err != nil {
		return nil, false, errors.Wrap(err, "failed to read cache entry from redis")
	}

	entry := new(CacheEntry)
	if err := json.Unmarshal(payload, entry); err != nil {
		return nil, false, errors.Wrap(err, "failed to unmarshal cache entry")
	}

	if entry.expired(r.now()) {
		return nil, false, nil
	}

	return entry, true, nil
}

func (r *RedisCacheIndex) Put(ctx context.Context, entry CacheEntry) error {
	payload, err := json.Marshal(entry)
	if err != nil {
		return errors.Wrap(err, "failed to marshal cache entry")
	}

	ttl := entry.ExpiresAt.Sub(r.now())
	if ttl <= 0 {
		return errors.New("cache entry is already expired")
	}

	err = r.client.Set(ctx, redisKey(entry.ContentID, entry.NodeID), payload, ttl).Err()
	if err != nil {
		return errors.Wrap(err, "failed to write cache entry to redis")
	}

	return nil
}

func (r *RedisCacheIndex) RecordAccess(ctx context.Context, contentID string, nodeID string) (*CacheEntry, error) {
	entry, found, err := r.Lookup(ctx, contentID, nodeID)
	if err != nil {
		return nil, err
	}

	if !found {
		return nil, ErrContentNotFound
	}

	now := r.now()
	entry.AccessCount++
	entry.LastAccessedAt = now
	entry.Popularity = entry.popularity(now)

	if err := r.Put(ctx, *entry); err != nil {
		return nil, err
	}

	return entry, nil
}

func (r *RedisCacheIndex) Invalidate(ctx context.Context, contentID string) (int, error) {
	removed := 0

	iter := r.client.Scan(ctx, 0, redisKeyPrefix+contentID+":*", 0).Iterator()
	for iter.Next(ctx) {
		if err := r.client.Del(ctx, iter.Val()).Err(); err != nil {
			return removed, errors.Wrap(err, "failed to delete cache entry from redis")
		}

		removed++
	}

	if err := iter.Err(); err != nil {
		return removed, errors.Wrap(err, "failed to scan cache entries in redis")
	}

	return removed, nil
}

func (r *RedisCacheIndex) EntriesFor(ctx context.Context, contentID string) ([]CacheEntry, error) {
	entries := make([]CacheEntry, 0)
	now := r.now()

	iter := r.client.Scan(ctx, 0, redisKeyPrefix+contentID+":*", 0).Iterator()
	for iter.Next(ctx) {
		payload, err := r.client.Get(ctx, iter.Val()).Bytes()
		if errors.Is(err, redis.Nil) {
			continue
		}

		if err != nil {
			return nil, errors.Wrap(err, "failed to read cache entry from redis")
		}

		entry := CacheEntry{}
		if err := json.Unmarshal(payload, &entry); err != nil {
			return nil, errors.Wrap(err, "failed to unmarshal cache entry")
		}

		if !entry.expired(now) {
			entries = append(entries, entry)
		}
	}

	if err := iter.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to scan cache entries in redis")
	}

	return entries, nil
}
