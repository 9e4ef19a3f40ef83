// Package promhooks exports pylon.Hooks events as Prometheus metrics.
package promhooks

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/unkn0wn-root/pylon"
	"github.com/unkn0wn-root/pylon/chain"
)

const namespace = "pylon"

type Hooks struct {
	// ReadsTotal counts refused or flagged reads by outcome (missing, stale, aging).
	ReadsTotal *prometheus.CounterVec
	// ReadAgeBlocks observes the age of served-or-refused entries.
	ReadAgeBlocks *prometheus.HistogramVec
	// DecodeFailures counts undecodable entries.
	DecodeFailures prometheus.Counter
	// StoreRejections counts writes the provider refused.
	StoreRejections prometheus.Counter
	// RefreshFailures counts failed refreshes by stage.
	RefreshFailures *prometheus.CounterVec
	// LastRefreshedBlock is the block number of the latest saved entry.
	LastRefreshedBlock *prometheus.GaugeVec
}

var _ pylon.Hooks = (*Hooks)(nil)

// New registers the collectors on reg. A nil reg registers on
// prometheus.DefaultRegisterer.
func New(reg prometheus.Registerer) *Hooks {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Hooks{
		ReadsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recent_reads_total",
			Help:      "Reads of recent data that were missing, stale or aging",
		}, []string{"object", "netuid", "outcome"}),
		ReadAgeBlocks: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "recent_read_age_blocks",
			Help:      "Age in blocks of stale or aging entries",
			Buckets:   []float64{1, 2, 4, 8, 16, 32, 64, 128, 256},
		}, []string{"object"}),
		DecodeFailures: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decode_failures_total",
			Help:      "Stored entries that could not be decoded",
		}),
		StoreRejections: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_rejections_total",
			Help:      "Writes rejected by the storage provider",
		}),
		RefreshFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refresh_failures_total",
			Help:      "Failed refreshes by stage",
		}, []string{"object", "netuid", "stage"}),
		LastRefreshedBlock: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_refreshed_block",
			Help:      "Block number of the most recently saved entry",
		}, []string{"object", "netuid"}),
	}
}

func (h *Hooks) RecentMissing(kind string, netuid chain.NetUID) {
	h.ReadsTotal.WithLabelValues(kind, netuid.String(), "missing").Inc()
}

func (h *Hooks) RecentStale(kind string, netuid chain.NetUID, elapsed, _ int64) {
	h.ReadsTotal.WithLabelValues(kind, netuid.String(), "stale").Inc()
	h.ReadAgeBlocks.WithLabelValues(kind).Observe(float64(elapsed))
}

func (h *Hooks) RecentAging(kind string, netuid chain.NetUID, elapsed, _ int64) {
	h.ReadsTotal.WithLabelValues(kind, netuid.String(), "aging").Inc()
	h.ReadAgeBlocks.WithLabelValues(kind).Observe(float64(elapsed))
}

func (h *Hooks) DecodeFailed(string, error) { h.DecodeFailures.Inc() }
func (h *Hooks) StoreSetRejected(string)    { h.StoreRejections.Inc() }

func (h *Hooks) RefreshFailed(kind string, netuid chain.NetUID, stage string, _ error) {
	h.RefreshFailures.WithLabelValues(kind, netuid.String(), stage).Inc()
}

func (h *Hooks) RefreshSaved(kind string, netuid chain.NetUID, b chain.Block) {
	h.LastRefreshedBlock.WithLabelValues(kind, netuid.String()).Set(float64(b.Number))
}
