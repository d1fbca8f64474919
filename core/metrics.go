package core

import (
	"github.com/ethereum/go-ethereum/metrics"
)

var (
	localRouteCounter  = metrics.NewRegisteredCounter("forge/route/local", nil)
	remoteRouteCounter = metrics.NewRegisteredCounter("forge/route/remote", nil)
	revertedCounter    = metrics.NewRegisteredCounter("forge/exec/reverted", nil)
	executionTimer     = metrics.NewRegisteredTimer("forge/exec", nil)
)

func markRoute(local bool) {
	if local {
		localRouteCounter.Inc(1)
	} else {
		remoteRouteCounter.Inc(1)
	}
}

// ResetRouteCounters zeros the routing counters.
func ResetRouteCounters() {
	localRouteCounter.Clear()
	remoteRouteCounter.Clear()
}

// RouteCounters returns (local, remote) routing decisions since last reset.
// Both stay zero unless metrics collection is enabled.
func RouteCounters() (int64, int64) {
	return localRouteCounter.Snapshot().Count(), remoteRouteCounter.Snapshot().Count()
}
