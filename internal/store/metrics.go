package store

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	readsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "yrlschool",
		Subsystem: "store",
		Name:      "reads_total",
		Help:      "Reads per logical key.",
	}, []string{"key"})

	readDegradations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "yrlschool",
		Subsystem: "store",
		Name:      "read_degradations_total",
		Help:      "Reads that fell back to the empty default because the stored value was unreadable or the backend failed.",
	}, []string{"key"})

	writesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "yrlschool",
		Subsystem: "store",
		Name:      "writes_total",
		Help:      "Writes per logical key.",
	}, []string{"key"})

	writeFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "yrlschool",
		Subsystem: "store",
		Name:      "write_failures_total",
		Help:      "Writes that failed and were swallowed by the adapter.",
	}, []string{"key"})
)
