package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// GRPCRequestDuration tracks RPC latency, shared across all services and
// labeled by gRPC method full name.
var GRPCRequestDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: "frnctl",
		Subsystem: "rpc",
		Name:      "request_duration_seconds",
		Help:      "gRPC request duration in seconds.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"method", "code"},
)

// OperationsClaimedTotal counts operations claimed by workers, by op_type.
var OperationsClaimedTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "frnctl",
		Subsystem: "operations",
		Name:      "claimed_total",
		Help:      "Total number of operations claimed by worker pool.",
	},
	[]string{"op_type"},
)

// OperationsTerminalTotal counts operations reaching a terminal status.
var OperationsTerminalTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "frnctl",
		Subsystem: "operations",
		Name:      "terminal_total",
		Help:      "Total number of operations reaching a terminal state.",
	},
	[]string{"op_type", "status"},
)

// OperationExecuteDuration tracks executor latency, by op_type.
var OperationExecuteDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: "frnctl",
		Subsystem: "operations",
		Name:      "execute_duration_seconds",
		Help:      "Executor call duration in seconds.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"op_type"},
)

// IPAMAllocationsTotal counts IP allocations by kind.
var IPAMAllocationsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "frnctl",
		Subsystem: "ipam",
		Name:      "allocations_total",
		Help:      "Total number of IP allocations performed.",
	},
	[]string{"kind"},
)

// HypervisorTaskDuration tracks how long vendor tasks take to complete.
var HypervisorTaskDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: "frnctl",
		Subsystem: "hypervisor",
		Name:      "task_duration_seconds",
		Help:      "Hypervisor asynchronous task duration in seconds.",
		Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
	},
	[]string{"operation"},
)

// InstanceCPUUsagePercent mirrors the last cluster_resources_list reading
// for each running instance, labeled by instance id.
var InstanceCPUUsagePercent = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: "frnctl",
		Subsystem: "instance",
		Name:      "cpu_usage_percent",
		Help:      "Last observed guest CPU usage, as a percentage of one core.",
	},
	[]string{"instance_id"},
)

// InstanceMemoryUsageBytes mirrors the last cluster_resources_list reading
// for each running instance's memory usage, labeled by instance id.
var InstanceMemoryUsageBytes = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: "frnctl",
		Subsystem: "instance",
		Name:      "memory_usage_bytes",
		Help:      "Last observed guest memory usage in bytes.",
	},
	[]string{"instance_id"},
)

// All returns every control-plane-specific collector for registration.
func All() []prometheus.Collector {
	return []prometheus.Collector{
		GRPCRequestDuration,
		OperationsClaimedTotal,
		OperationsTerminalTotal,
		OperationExecuteDuration,
		IPAMAllocationsTotal,
		HypervisorTaskDuration,
		InstanceCPUUsagePercent,
		InstanceMemoryUsageBytes,
	}
}

// NewMetricsRegistry creates a Prometheus registry with Go/process
// collectors plus all control-plane metrics.
func NewMetricsRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	for _, c := range All() {
		reg.MustRegister(c)
	}
	return reg
}
