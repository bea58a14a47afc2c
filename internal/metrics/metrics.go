// Package metrics exposes an RDP connection's statistics block (rdp.Stats)
// as Prometheus collectors, grounded on m-lab-tcp-info/metrics and
// runZeroInc-sockstats/pkg/exporter — the retrieval pack's two Prometheus
// collector examples. The collectors change only when Observe is called;
// the CLI front-ends call it once, after the transfer has finished, so
// the counters stay at zero while a transfer is in progress.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/brinewalk/rdp/internal/rdp"
)

var (
	// DataBytesTotal tracks total vs. unique data bytes transferred,
	// split by the "unique" label the way spec.md §3 defines the two
	// counters.
	DataBytesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rdp_data_bytes_total",
			Help: "Data bytes observed on an RDP connection.",
		},
		[]string{"role", "unique"},
	)

	// DataPacketsTotal mirrors DataBytesTotal for packet counts.
	DataPacketsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rdp_data_packets_total",
			Help: "DAT packets observed on an RDP connection.",
		},
		[]string{"role", "unique"},
	)

	// ControlPacketsTotal tracks ACK/SYN/FIN/RST counts.
	ControlPacketsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rdp_control_packets_total",
			Help: "Control packets (ACK, SYN, FIN, RST) observed on an RDP connection.",
		},
		[]string{"role", "type"},
	)

	// ElapsedSeconds records the finalized connection duration.
	ElapsedSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "rdp_connection_elapsed_seconds",
			Help:    "Wall-clock duration of a completed RDP connection.",
			Buckets: prometheus.DefBuckets,
		},
	)
)

// Observe records a finalized connection's Stats against the collectors
// above. role is "sender" or "receiver", matching the CLI front-end that
// calls it.
func Observe(role string, s rdp.Stats) {
	DataBytesTotal.WithLabelValues(role, "false").Add(float64(s.TotalDataBytes))
	DataBytesTotal.WithLabelValues(role, "true").Add(float64(s.UniqueDataBytes))
	DataPacketsTotal.WithLabelValues(role, "false").Add(float64(s.TotalDataPackets))
	DataPacketsTotal.WithLabelValues(role, "true").Add(float64(s.UniqueDataPackets))

	ControlPacketsTotal.WithLabelValues(role, "ack").Add(float64(s.Ack))
	ControlPacketsTotal.WithLabelValues(role, "syn").Add(float64(s.Syn))
	ControlPacketsTotal.WithLabelValues(role, "fin").Add(float64(s.Fin))
	ControlPacketsTotal.WithLabelValues(role, "rst_received").Add(float64(s.RstReceived))
	ControlPacketsTotal.WithLabelValues(role, "rst_sent").Add(float64(s.RstSent))

	ElapsedSeconds.Observe(s.Elapsed.Seconds())
}
