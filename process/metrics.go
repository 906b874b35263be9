package process

import (
	"sync"

	"github.com/kbukum/prockit/logger"
	"github.com/kbukum/prockit/observability"
)

const instrumentationName = "github.com/kbukum/prockit/process"

var (
	metricsOnce sync.Once
	metrics     *observability.ProcessMetrics
)

// processMetrics returns instruments bound to the global meter provider, or
// nil if they could not be created.
func processMetrics() *observability.ProcessMetrics {
	metricsOnce.Do(func() {
		m, err := observability.NewProcessMetrics(observability.Meter(instrumentationName))
		if err != nil {
			logger.Get("process").Warn("process metrics disabled", logger.ErrorFields("metrics", err))
			return
		}
		metrics = m
	})
	return metrics
}
