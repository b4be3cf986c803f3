// Package prometheus exposes chatauth metrics through
// prometheus/client_golang.
//
// [NewCollector] returns a prometheus.Collector that reads
// chatauth.Engine.MetricsSnapshot on every scrape; [Handler] serves it from
// a private registry. Counter names are prefixed chatauth_ and end in
// _total; the single histogram is chatauth_validate_latency_seconds.
package prometheus
