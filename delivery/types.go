package delivery

import (
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
)

var (
	// ErrContentNotFound is returned when the origin store has no bytes for
	// a content identifier.
	ErrContentNotFound = errors.New("content not found")

	// ErrNoActiveNodes is returned when the registry has no node available
	// to serve a request.
	ErrNoActiveNodes = errors.New("no active delivery nodes")
)

type Source string

const (
	SourceCDN    Source = "cdn"
	SourceOrigin Source = "origin"
)

type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

type Location struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Node is a single delivery node in the registry. The cached-object counter
// is the only field mutated at runtime and is updated atomically because
// concurrent retrievals race on cache fills for the same node.
type Node struct {
	ID        string   `json:"id"`
	Location  Location `json:"location"`
	Endpoint  string   `json:"endpoint"`
	Capacity  int64    `json:"capacity"`
	LatencyMs float64  `json:"latency_ms"`
	IsActive  bool     `json:"is_active"`

	cached atomic.Int64
}

// Load reports the node's current load as a fraction of capacity in [0, 1].
func (n *Node) Load() float64 {
	if n.Capacity <= 0 {
		return 1
	}

	load := float64(n.cached.Load()) / float64(n.Capacity)
	if load > 1 {
		return 1
	}

	return load
}

func (n *Node) recordCacheWrite() {
	n.cached.Add(1)
}

func (n *Node) recordCacheEviction(count int64) {
	if n.cached.Add(-count) < 0 {
		n.cached.Store(0)
	}
}

// DefaultRegistry returns the fixed set of delivery nodes initialized at
// process start.
func DefaultRegistry() []*Node {
	return []*Node{
		{ID: "us-east-1", Location: Location{Lat: 38.95, Lng: -77.45}, Endpoint: "https://us-east-1.cdn.safedocs.io", Capacity: 1000, LatencyMs: 20, IsActive: true},
		{ID: "eu-west-1", Location: Location{Lat: 53.35, Lng: -6.26}, Endpoint: "https://eu-west-1.cdn.safedocs.io", Capacity: 1000, LatencyMs: 35, IsActive: true},
		{ID: "ap-southeast-1", Location: Location{Lat: 1.29, Lng: 103.85}, Endpoint: "https://ap-southeast-1.cdn.safedocs.io", Capacity: 800, LatencyMs: 50, IsActive: true},
		{ID: "us-west-2", Location: Location{Lat: 45.52, Lng: -122.68}, Endpoint: "https://us-west-2.cdn.safedocs.io", Capacity: 1000, LatencyMs: 25, IsActive: true},
		{ID: "sa-east-1", Location: Location{Lat: -23.55, Lng: -46.63}, Endpoint: "https://sa-east-1.cdn.safedocs.io", Capacity: 600, LatencyMs: 65, IsActive: true},
	}
}

// DefaultCacheTTL is the lifetime of a cache entry from creation.
const DefaultCacheTTL = 7 * 24 * time.Hour

// CacheEntry records that a content identifier is cached at a node. An entry
// is uniquely identified by the (ContentID, NodeID) pair; writes overwrite.
type CacheEntry struct {
	ContentID      string    `json:"content_id"`
	NodeID         string    `json:"node_id"`
	CachedAt       time.Time `json:"cached_at"`
	ExpiresAt      time.Time `json:"expires_at"`
	AccessCount    int64     `json:"access_count"`
	LastAccessedAt time.Time `json:"last_accessed_at"`
	SizeBytes      int64     `json:"size_bytes"`
	Popularity     float64   `json:"popularity"`
}

func (e CacheEntry) expired(now time.Time) bool {
	return now.After(e.ExpiresAt)
}

// popularity is access frequency normalized by entry age in days.
func (e CacheEntry) popularity(now time.Time) float64 {
	ageDays := now.Sub(e.CachedAt).Hours() / 24
	if ageDays < 1 {
		ageDays = 1
	}

	return float64(e.AccessCount) / ageDays
}

// Metrics describes how a single retrieval was served.
type Metrics struct {
	Source          Source `json:"source"`
	NodeUsed        string `json:"node_used,omitempty"`
	RetrievalTimeMs int64  `json:"retrieval_time_ms"`
	CacheHit        bool   `json:"cache_hit"`
	TransferSize    int64  `json:"transfer_size"`
}
