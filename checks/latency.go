package checks

import (
	"fmt"
	"time"

	"github.com/jonwraymond/healthrun/health"
)

// defaultTimeout bounds a probe when its config leaves Timeout unset.
const defaultTimeout = 5 * time.Second

// latencyResult reports Healthy, or Degraded when slow > 0 and took exceeds it.
func latencyResult(desc string, took, slow time.Duration, data *health.Data) health.Result {
	data.Set("latency_ms", float64(took.Microseconds())/1000)
	if slow > 0 && took > slow {
		return health.Degraded(fmt.Sprintf("%s (slow: %s > %s)", desc, took.Round(time.Millisecond), slow)).WithData(data)
	}
	return health.Healthy(desc).WithData(data)
}
