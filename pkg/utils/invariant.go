// Invariants are conditions in code that must be true; otherwise, there is a bug in the caller or in this module.
// Ring preconditions (a node inserted twice, a linked node re-initialized, a cursor detached mid-traversal) cannot
// be expressed in Go's type system, so they are checked at runtime and reported here instead of silently corrupting
// the ring.
//
// A violation records an error log and increments a monitoring counter. Builds made with TestMode=true panic
// instead, which is the loud failure a debug build is expected to produce. It is still up to the caller to handle
// the erroneous case, usually by returning early and skipping the mutation.
//
// Do not use invariants for conditions that depend on external factors, such as a missing config file.

package utils

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	promclient "github.com/prometheus/client_model/go"
)

var invariantsMetric = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "invariants_total",
	Help: "The total number of invariant violations",
}, []string{
	"module", // The module in which this invariant occurred.
	"type",   // The type of the invariant that occurred.
})

// RaiseInvariant reports a violated invariant of the given module. args are slog key/value pairs.
func RaiseInvariant(module, invariantType, msg string, args ...any) {
	invariantsMetric.WithLabelValues(module, invariantType).Inc()
	slog.With("invariant", invariantType, "module", module).Error(msg, args...)
	if IsTestMode {
		panic("invariant violated: " + module + "/" + invariantType)
	}
}

// GetMetricValue returns how many times the invariant `invariantType` of `module` has been raised.
func GetMetricValue(module, invariantType string) int {
	var metric = &promclient.Metric{}
	if err := invariantsMetric.WithLabelValues(module, invariantType).Write(metric); err != nil {
		slog.Error("Failed to read invariant metric.", "module", module, "type", invariantType, "error", err)
		return 0
	}
	return int(metric.Counter.GetValue())
}
