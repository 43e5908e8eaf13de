package compute

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	programCacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kernels_program_cache_hits_total",
		Help: "Total number of kernel requests served from the program cache",
	}, []string{"entry"})

	programCacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kernels_program_cache_misses_total",
		Help: "Total number of kernel requests that compiled a new program",
	}, []string{"entry"})

	programCompileFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kernels_program_compile_failures_total",
		Help: "Total number of programs rejected by the compiler",
	}, []string{"entry"})

	dispatchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kernels_dispatch_total",
		Help: "Total number of kernel dispatches submitted to a queue",
	}, []string{"device", "entry"})
)

// CountDispatch records one kernel launch on the named device.
func CountDispatch(device, entry string) {
	dispatchTotal.WithLabelValues(device, entry).Inc()
}
