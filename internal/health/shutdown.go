package health

import "sync/atomic"

// ready gates the readiness probe during startup and graceful shutdown.
// It starts true so single-binary deployments without an explicit startup
// phase stay reachable.
var ready atomic.Bool

func init() {
	ready.Store(true)
}

// SetReady flips the readiness gate. Servers call SetReady(false) before
// draining connections so load balancers stop routing new traffic.
func SetReady(v bool) {
	ready.Store(v)
}

func isReady() bool {
	return ready.Load()
}
