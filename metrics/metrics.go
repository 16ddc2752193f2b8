package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Delivery holds the content delivery counters. A nil *Delivery is a no-op,
// so components can be wired without metrics in tests.
type Delivery struct {
	CacheHits        prometheus.Counter
	CacheMisses      prometheus.Counter
	CacheFills       prometheus.Counter
	PrewarmWrites    prometheus.Counter
	Invalidations    prometheus.Counter
	OriginRetrievals prometheus.Counter
	RetrievalSeconds prometheus.Histogram
}

func NewDelivery(reg prometheus.Registerer) *Delivery {
	factory := promauto.With(reg)

	return &Delivery{
		CacheHits: factory.NewCounter(prometheus.CounterOpts{
			Name: "safedocs_delivery_cache_hits_total",
			Help: "Total number of retrievals served from a cache node",
		}),
		CacheMisses: factory.NewCounter(prometheus.CounterOpts{
			Name: "safedocs_delivery_cache_misses_total",
			Help: "Total number of cache lookups that missed",
		}),
		CacheFills: factory.NewCounter(prometheus.CounterOpts{
			Name: "safedocs_delivery_cache_fills_total",
			Help: "Total number of cache entries written after an origin fetch",
		}),
		PrewarmWrites: factory.NewCounter(prometheus.CounterOpts{
			Name: "safedocs_delivery_prewarm_writes_total",
			Help: "Total number of cache entries written by pre-warming",
		}),
		Invalidations: factory.NewCounter(prometheus.CounterOpts{
			Name: "safedocs_delivery_invalidations_total",
			Help: "Total number of cache entries removed by invalidation",
		}),
		OriginRetrievals: factory.NewCounter(prometheus.CounterOpts{
			Name: "safedocs_delivery_origin_retrievals_total",
			Help: "Total number of retrievals served by the origin store",
		}),
		RetrievalSeconds: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "safedocs_delivery_retrieval_seconds",
			Help:    "Wall clock duration of content retrievals",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

func (d *Delivery) IncCacheHit() {
	if d != nil {
		d.CacheHits.Inc()
	}
}

func (d *Delivery) IncCacheMiss() {
	if d != nil {
		d.CacheMisses.Inc()
	}
}

func (d *Delivery) IncCacheFill() {
	if d != nil {
		d.CacheFills.Inc()
	}
}

func (d *Delivery) AddPrewarmWrites(count int) {
	if d != nil {
		d.PrewarmWrites.Add(float64(count))
	}
}

func (d *Delivery) AddInvalidations(count int) {
	if d != nil {
		d.Invalidations.Add(float64(count))
	}
}

func (d *Delivery) IncOriginRetrieval() {
	if d != nil {
		d.OriginRetrievals.Inc()
	}
}

func (d *Delivery) ObserveRetrieval(elapsed time.Duration) {
	if d != nil {
		d.RetrievalSeconds.Observe(elapsed.Seconds())
	}
}

// Verification holds the verification pipeline counters. A nil *Verification
// is a no-op.
type Verification struct {
	VerificationsTotal *prometheus.CounterVec
	BatchSeconds       prometheus.Histogram
}

func NewVerification(reg prometheus.Registerer) *Verification {
	factory := promauto.With(reg)

	return &Verification{
		VerificationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "safedocs_verifications_total",
			Help: "Total number of document verifications by level and outcome",
		}, []string{"level", "valid"}),
		BatchSeconds: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "safedocs_verification_batch_seconds",
			Help:    "Wall clock duration of batch verifications",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

func (v *Verification) IncVerification(level string, valid bool) {
	if v == nil {
		return
	}

	outcome := "false"
	if valid {
		outcome = "true"
	}

	v.VerificationsTotal.WithLabelValues(level, outcome).Inc()
}

func (v *Verification) ObserveBatch(elapsed time.Duration) {
	if v != nil {
		v.BatchSeconds.Observe(elapsed.Seconds())
	}
}
