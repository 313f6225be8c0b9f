// Package telemetry exposes metricsd's own operational counters, the
// standalone-daemon equivalent of the teacher's internalStats struct
// (MaxConnections, TCPPacketsRecv, ParseTimeNS, ...) registered through
// selfstat.Register. Here the counters are prometheus/client_golang
// collectors registered on the registry passed to NewStats, instead of
// being folded back into telegraf's own accumulator; the daemon does not
// serve that registry over HTTP.
package telemetry

import "github.com/prometheus/client_golang/prometheus"

// Stats is the fixed set of self-operational counters and gauges the
// daemon maintains across its lifetime.
type Stats struct {
	SamplesAccepted  prometheus.Counter
	ParseErrors      prometheus.Counter
	FramingErrors    prometheus.Counter
	ConnectionsOpen  prometheus.Gauge
	ConnectionsTotal prometheus.Counter
	RotationsTotal   prometheus.Counter
	RotationSeconds  prometheus.Histogram
	SinkWriteErrors  prometheus.Counter
	UDPPacketsRecv   prometheus.Counter
	UDPBytesRecv     prometheus.Counter
	UDPPacketsDrop   prometheus.Counter
}

// NewStats builds and registers one Stats set against reg. Pass
// prometheus.NewRegistry() in production and a fresh registry per test in
// tests, so repeated daemon construction in a test process never hits
// prometheus's duplicate-registration panic.
func NewStats(reg prometheus.Registerer) *Stats {
	s := &Stats{
		SamplesAccepted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "metricsd",
			Name:      "samples_accepted_total",
			Help:      "Samples successfully folded into the current registry.",
		}),
		ParseErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "metricsd",
			Name:      "parse_errors_total",
			Help:      "Text-protocol lines rejected by the parser.",
		}),
		FramingErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "metricsd",
			Name:      "framing_errors_total",
			Help:      "Binary-protocol records rejected as malformed.",
		}),
		ConnectionsOpen: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "metricsd",
			Name:      "tcp_connections_open",
			Help:      "Currently open TCP connections.",
		}),
		ConnectionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "metricsd",
			Name:      "tcp_connections_total",
			Help:      "TCP connections accepted since start.",
		}),
		RotationsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "metricsd",
			Name:      "rotations_total",
			Help:      "Flush rotations completed.",
		}),
		RotationSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "metricsd",
			Name:      "rotation_seconds",
			Help:      "Wall-clock time spent in one rotation call (swap and freeze; serialization runs in the background).",
			Buckets:   prometheus.DefBuckets,
		}),
		SinkWriteErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "metricsd",
			Name:      "sink_write_errors_total",
			Help:      "Flushes that failed to write to or close the downstream sink.",
		}),
		UDPPacketsRecv: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "metricsd",
			Name:      "udp_packets_received_total",
			Help:      "UDP packets read off the listener socket.",
		}),
		UDPBytesRecv: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "metricsd",
			Name:      "udp_bytes_received_total",
			Help:      "Bytes read off the UDP listener socket.",
		}),
		UDPPacketsDrop: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "metricsd",
			Name:      "udp_packets_dropped_total",
			Help:      "UDP packets reported dropped through the transport's OnUDPDrop hook.",
		}),
	}
	reg.MustRegister(
		s.SamplesAccepted, s.ParseErrors, s.FramingErrors,
		s.ConnectionsOpen, s.ConnectionsTotal,
		s.RotationsTotal, s.RotationSeconds, s.SinkWriteErrors,
		s.UDPPacketsRecv, s.UDPBytesRecv, s.UDPPacketsDrop,
	)
	return s
}
