// Copyright 2026 Simperby Authors

package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the counters a Simperby node exposes on /metrics: one
// per subsystem named in the domain-stack wiring (DMS packets
// accepted, CSV commits applied, Vetomint responses emitted). Callers
// in the node's glue layer increment these after driving the
// corresponding pure subsystem call - the subsystems themselves stay
// free of the metrics concern.
type Metrics struct {
	DMSPacketsAccepted   prometheus.Counter
	CSVCommitsApplied    prometheus.Counter
	VetomintResponses    *prometheus.CounterVec
}

// NewMetrics registers and returns a fresh Metrics set against reg.
// Pass prometheus.DefaultRegisterer for a process-wide singleton, or a
// fresh prometheus.NewRegistry() in tests to avoid duplicate
// registration across test runs.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		DMSPacketsAccepted: factory.NewCounter(prometheus.CounterOpts{
			Name: "simperby_dms_packets_accepted_total",
			Help: "Number of DMS packets accepted into a local message set.",
		}),
		CSVCommitsApplied: factory.NewCounter(prometheus.CounterOpts{
			Name: "simperby_csv_commits_applied_total",
			Help: "Number of commits accepted by the commit sequence verifier.",
		}),
		VetomintResponses: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "simperby_vetomint_responses_total",
			Help: "Number of Vetomint responses emitted, labeled by response kind.",
		}, []string{"kind"}),
	}
}
