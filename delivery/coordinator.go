package delivery

import (
	"context"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/ipfs/go-cid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	log2 "github.com/rs/zerolog/log"

	"github.com/sambitsargam/SafeDocs-sub000/metrics"
)

// OriginStore is the authoritative content-addressed backing store. It
// decrypts transparently if the content was encrypted at rest.
type OriginStore interface {
	Retrieve(ctx context.Context, contentID string) ([]byte, error)
}

// ContentDirectory answers whether a content identifier holds encrypted
// content. Encrypted plaintext must never land on an edge node.
type ContentDirectory interface {
	IsEncrypted(ctx context.Context, contentID string) (bool, error)
}

// EdgeFetcher fetches cached bytes from a delivery node on a cache hit.
type EdgeFetcher interface {
	Fetch(ctx context.Context, node *Node, contentID string) ([]byte, error)
}

// originEdgeFetcher serves hits from the origin store. It stands in for node
// transport until edge nodes expose a fetch API; the cache index semantics
// are unaffected.
type originEdgeFetcher struct {
	origin OriginStore
}

func (f originEdgeFetcher) Fetch(ctx context.Context, _ *Node, contentID string) ([]byte, error) {
	return f.origin.Retrieve(ctx, contentID)
}

type CoordinatorConfig struct {
	Nodes     []*Node
	Index     CacheIndex
	Origin    OriginStore
	Directory ContentDirectory
	Edge      EdgeFetcher
	Metrics   *metrics.Delivery
	CacheTTL  time.Duration
}

// Coordinator orchestrates cache-first, origin-fallback retrieval across the
// node registry.
type Coordinator struct {
	nodes    []*Node
	selector Selector
	index    CacheIndex
	origin   OriginStore
	dir      ContentDirectory
	edge     EdgeFetcher
	metrics  *metrics.Delivery
	cacheTTL time.Duration
	log      zerolog.Logger
	now      func() time.Time
}

func NewCoordinator(config CoordinatorConfig) (*Coordinator, error) {
	if config.Origin == nil {
		return nil, errors.New("origin store is required")
	}

	if config.Index == nil {
		return nil, errors.New("cache index is required")
	}

	nodes := config.Nodes
	if len(nodes) == 0 {
		nodes = DefaultRegistry()
	}

	edge := config.Edge
	if edge == nil {
		edge = originEdgeFetcher{origin: config.Origin}
	}

	cacheTTL := config.CacheTTL
	if cacheTTL <= 0 {
		cacheTTL = DefaultCacheTTL
	}

	return &Coordinator{
		nodes:    nodes,
		selector: Selector{},
		index:    config.Index,
		origin:   config.Origin,
		dir:      config.Directory,
		edge:     edge,
		metrics:  config.Metrics,
		cacheTTL: cacheTTL,
		log:      log2.With().Str("role", "retrieval_coordinator").Caller().Logger(),
		now:      time.Now,
	}, nil
}

// Nodes exposes the registry, for callers that report on node state.
func (c *Coordinator) Nodes() []*Node {
	return c.nodes
}

// Retrieve returns the content bytes and the metrics describing how they
// were served. Encrypted content always goes straight to origin because the
// cache layer cannot decrypt at the edge.
func (c *Coordinator) Retrieve(ctx context.Context, contentID string, loc *Location) ([]byte, Metrics, error) {
	start := c.now()

	if _, err := cid.Decode(contentID); err != nil {
		return nil, Metrics{}, errors.Wrapf(err, "invalid content identifier %s", contentID)
	}

	node, err := c.selector.Select(c.nodes, loc)
	if err != nil {
		return nil, Metrics{}, err
	}

	encrypted := false

	if c.dir != nil {
		encrypted, err = c.dir.IsEncrypted(ctx, contentID)
		if err != nil {
			return nil, Metrics{}, errors.Wrap(err, "failed to resolve content encryption state")
		}
	}

	if !encrypted {
		entry, found, err := c.index.Lookup(ctx, contentID, node.ID)
		if err != nil {
			c.log.Warn().Err(err).Str("contentId", contentID).Msg("cache lookup failed, falling back to origin")
		}

		if err == nil && found {
			return c.serveFromNode(ctx, contentID, node, entry, start)
		}

		c.metrics.IncCacheMiss()
	}

	return c.serveFromOrigin(ctx, contentID, node, encrypted, start)
}

func (c *Coordinator) serveFromNode(
	ctx context.Context,
	contentID string,
	node *Node,
	entry *CacheEntry,
	start time.Time,
) ([]byte, Metrics, error) {
	data, err := c.edge.Fetch(ctx, node, contentID)
	if err != nil {
		c.log.Warn().Err(err).Str("node", node.ID).Str("contentId", contentID).
			Msg("edge fetch failed, falling back to origin")

		c.metrics.IncCacheMiss()

		return c.serveFromOrigin(ctx, contentID, node, false, start)
	}

	if _, err := c.index.RecordAccess(ctx, contentID, node.ID); err != nil {
		c.log.Warn().Err(err).Str("node", node.ID).Str("contentId", contentID).
			Msg("failed to record cache access")
	}

	elapsed := c.now().Sub(start)
	c.metrics.IncCacheHit()
	c.metrics.ObserveRetrieval(elapsed)

	c.log.Debug().Str("contentId", contentID).Str("node", node.ID).
		Str("size", humanize.Bytes(uint64(len(data)))).
		Int64("accessCount", entry.AccessCount+1).
		Msg("served content from cache node")

	return data, Metrics{
		Source:          SourceCDN,
		NodeUsed:        node.ID,
		RetrievalTimeMs: elapsed.Milliseconds(),
		CacheHit:        true,
		TransferSize:    int64(len(data)),
	}, nil
}

func (c *Coordinator) serveFromOrigin(
	ctx context.Context,
	contentID string,
	node *Node,
	encrypted bool,
	start time.Time,
) ([]byte, Metrics, error) {
	data, err := c.origin.Retrieve(ctx, contentID)
	if err != nil {
		if errors.Is(err, ErrContentNotFound) {
			return nil, Metrics{}, err
		}

		return nil, Metrics{}, errors.Wrapf(err, "failed to retrieve %s from origin", contentID)
	}

	// cache fill is best-effort: the caller already has its bytes
	if !encrypted {
		if err := c.writeEntry(ctx, contentID, node, int64(len(data))); err != nil {
			c.log.Warn().Err(err).Str("node", node.ID).Str("contentId", contentID).
				Msg("failed to fill cache after origin fetch")
		} else {
			c.metrics.IncCacheFill()
		}
	}

	elapsed := c.now().Sub(start)
	c.metrics.IncOriginRetrieval()
	c.metrics.ObserveRetrieval(elapsed)

	c.log.Debug().Str("contentId", contentID).Bool("encrypted", encrypted).
		Str("size", humanize.Bytes(uint64(len(data)))).
		Msg("served content from origin")

	return data, Metrics{
		Source:          SourceOrigin,
		NodeUsed:        node.ID,
		RetrievalTimeMs: elapsed.Milliseconds(),
		CacheHit:        false,
		TransferSize:    int64(len(data)),
	}, nil
}

func (c *Coordinator) writeEntry(ctx context.Context, contentID string, node *Node, size int64) error {
	now := c.now()

	err := c.index.Put(ctx, CacheEntry{
		ContentID:      contentID,
		NodeID:         node.ID,
		CachedAt:       now,
		ExpiresAt:      now.Add(c.cacheTTL),
		AccessCount:    0,
		LastAccessedAt: now,
		SizeBytes:      size,
		Popularity:     0,
	})
	if err != nil {
		return err
	}

	node.recordCacheWrite()

	return nil
}

// Prewarm fetches the content once from origin and fans cache entries out to
// a priority-dependent node subset. Returns how many nodes were warmed; one
// node's failure does not block the others.
func (c *Coordinator) Prewarm(ctx context.Context, contentID string, priority Priority) (int, error) {
	if _, err := cid.Decode(contentID); err != nil {
		return 0, errors.Wrapf(err, "invalid content identifier %s", contentID)
	}

	if c.dir != nil {
		encrypted, err := c.dir.IsEncrypted(ctx, contentID)
		if err != nil {
			return 0, errors.Wrap(err, "failed to resolve content encryption state")
		}

		if encrypted {
			return 0, errors.New("encrypted content cannot be pre-warmed")
		}
	}

	data, err := c.origin.Retrieve(ctx, contentID)
	if err != nil {
		return 0, errors.Wrapf(err, "failed to retrieve %s from origin", contentID)
	}

	ranked := c.selector.Rank(c.nodes, nil)

	var limit int

	switch priority {
	case PriorityHigh:
		limit = len(ranked)
	case PriorityMedium:
		limit = 3
	case PriorityLow:
		limit = 1
	default:
		return 0, errors.Errorf("unknown prewarm priority %s", priority)
	}

	if limit > len(ranked) {
		limit = len(ranked)
	}

	warmed := 0

	for _, node := range ranked[:limit] {
		if err := c.writeEntry(ctx, contentID, node, int64(len(data))); err != nil {
			c.log.Warn().Err(err).Str("node", node.ID).Str("contentId", contentID).
				Msg("failed to pre-warm cache node")

			continue
		}

		warmed++
	}

	c.metrics.AddPrewarmWrites(warmed)
	c.log.Info().Str("contentId", contentID).Str("priority", string(priority)).
		Int("nodes", warmed).Msg("pre-warmed cache")

	return warmed, nil
}

// Invalidate removes every cache entry for the content across all nodes.
func (c *Coordinator) Invalidate(ctx context.Context, contentID string) (int, error) {
	entries, err := c.index.EntriesFor(ctx, contentID)
	if err != nil {
		c.log.Warn().Err(err).Str("contentId", contentID).Msg("failed to list cache entries before invalidation")
	}

	removed, err := c.index.Invalidate(ctx, contentID)
	if err != nil {
		return 0, errors.Wrapf(err, "failed to invalidate cache for %s", contentID)
	}

	for _, entry := range entries {
		for _, node := range c.nodes {
			if node.ID == entry.NodeID {
				node.recordCacheEviction(1)
				break
			}
		}
	}

	c.metrics.AddInvalidations(removed)
	c.log.Info().Str("contentId", contentID).Int("removed", removed).Msg("invalidated cache entries")

	return removed, nil
}
