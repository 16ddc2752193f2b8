package delivery

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func testEntry(contentID string, nodeID string, now time.Time) CacheEntry {
	return CacheEntry{
		ContentID:      contentID,
		NodeID:         nodeID,
		CachedAt:       now,
		ExpiresAt:      now.Add(DefaultCacheTTL),
		LastAccessedAt: now,
		SizeBytes:      512,
	}
}

func TestMemoryCacheIndex_PutAndLookup(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	index := NewMemoryCacheIndex()
	now := time.Now()

	_, found, err := index.Lookup(ctx, "content-a", "us-east-1")
	assert.NoError(err)
	assert.False(found)

	assert.NoError(index.Put(ctx, testEntry("content-a", "us-east-1", now)))

	entry, found, err := index.Lookup(ctx, "content-a", "us-east-1")
	assert.NoError(err)
	assert.True(found)
	assert.Equal(int64(512), entry.SizeBytes)

	// same pair overwrites rather than duplicates
	bigger := testEntry("content-a", "us-east-1", now)
	bigger.SizeBytes = 2048
	assert.NoError(index.Put(ctx, bigger))

	entries, err := index.EntriesFor(ctx, "content-a")
	assert.NoError(err)
	assert.Len(entries, 1)
	assert.Equal(int64(2048), entries[0].SizeBytes)
}

func TestMemoryCacheIndex_Expiry(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	index := NewMemoryCacheIndex()

	current := time.Now()
	index.now = func() time.Time { return current }

	assert.NoError(index.Put(ctx, testEntry("content-a", "us-east-1", current)))

	current = current.Add(DefaultCacheTTL + time.Minute)

	_, found, err := index.Lookup(ctx, "content-a", "us-east-1")
	assert.NoError(err)
	assert.False(found)

	entries, err := index.EntriesFor(ctx, "content-a")
	assert.NoError(err)
	assert.Empty(entries)
}

func TestMemoryCacheIndex_RecordAccess(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	index := NewMemoryCacheIndex()

	current := time.Now()
	index.now = func() time.Time { return current }

	assert.NoError(index.Put(ctx, testEntry("content-a", "us-east-1", current)))

	current = current.Add(48 * time.Hour)

	entry, err := index.RecordAccess(ctx, "content-a", "us-east-1")
	assert.NoError(err)
	assert.Equal(int64(1), entry.AccessCount)
	assert.Equal(current, entry.LastAccessedAt)
	assert.InDelta(0.5, entry.Popularity, 0.001)

	_, err = index.RecordAccess(ctx, "content-a", "eu-west-1")
	assert.ErrorIs(err, ErrContentNotFound)
}

func TestMemoryCacheIndex_Invalidate(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	index := NewMemoryCacheIndex()
	now := time.Now()

	assert.NoError(index.Put(ctx, testEntry("content-a", "us-east-1", now)))
	assert.NoError(index.Put(ctx, testEntry("content-a", "eu-west-1", now)))
	assert.NoError(index.Put(ctx, testEntry("content-b", "us-east-1", now)))

	removed, err := index.Invalidate(ctx, "content-a")
	assert.NoError(err)
	assert.Equal(2, removed)

	_, found, err := index.Lookup(ctx, "content-a", "us-east-1")
	assert.NoError(err)
	assert.False(found)

	_, found, err = index.Lookup(ctx, "content-b", "us-east-1")
	assert.NoError(err)
	assert.True(found)
}
