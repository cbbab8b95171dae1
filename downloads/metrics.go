package downloads

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Suppressed failures must stay observable to operators even though they
// are never surfaced to callers.
var (
	bookkeepingFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "godownload_bookkeeping_failures_total",
		Help: "Download completion bookkeeping writes that were swallowed.",
	})

	auditWriteFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "godownload_audit_write_failures_total",
		Help: "Audit trail writes that failed and were only logged.",
	})
)
