// Package metrics defines the sink interface used to observe planning runs.
// Sinks like the Prometheus and InfluxDB adapters in infra/metrics record
// solve attempts and final plans, and can be combined with NewMultiSink. The
// factory helpers return a MultiSink automatically when several sinks are
// configured.
package metrics
