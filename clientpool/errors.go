package clientpool

import "fmt"

// ConfigError is returned by New when the given PoolConfig is not usable.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return "clientpool: invalid config: " + e.Reason
}

// NoServersAvailableError is returned by New when every configured server
// failed eager connection bootstrap, leaving zero usable partitions.
type NoServersAvailableError struct {
	Attempted int
}

func (e *NoServersAvailableError) Error() string {
	return fmt.Sprintf(
		"clientpool: no servers available, all %d configured server(s) failed initial connect",
		e.Attempted,
	)
}

// ConnectionCreateError wraps a failure from a ConnectionFactory.
type ConnectionCreateError struct {
	Server ServerInfo
	Cause  error
}

func (e *ConnectionCreateError) Error() string {
	return fmt.Sprintf("clientpool: failed to create connection to %s: %v", e.Server, e.Cause)
}

func (e *ConnectionCreateError) Unwrap() error {
	return e.Cause
}

// ConnectionAcquireFailedError is returned by the pool's create path once
// every create retry against a server has failed. The Watcher and
// ReleaseConnection log it; GetConnection never returns it, and a caller
// waiting on a partition that stays empty gets AcquisitionTimeoutError.
type ConnectionAcquireFailedError struct {
	Server ServerInfo
	Cause  error
}

func (e *ConnectionAcquireFailedError) Error() string {
	return fmt.Sprintf("clientpool: failed to acquire connection to %s: %v", e.Server, e.Cause)
}

func (e *ConnectionAcquireFailedError) Unwrap() error {
	return e.Cause
}

// AcquisitionTimeoutError is returned by GetConnection when no handle
// becomes free before PoolConfig.ConnectionTimeout elapses.
type AcquisitionTimeoutError struct{}

func (e *AcquisitionTimeoutError) Error() string {
	return "clientpool: timed out waiting for a free connection"
}

// PoolClosedError is returned by GetConnection once Pool.Close has been
// called, including to calls already blocked waiting for a free handle.
// ReleaseConnection after Close destroys the handle and returns nil.
type PoolClosedError struct{}

func (e *PoolClosedError) Error() string {
	return "clientpool: pool is closed"
}

// LivenessFailedError records a connection that the configured
// LivenessProbe rejected on release. ReleaseConnection logs one of these
// when the handle is repaired in place via reacquire; when the reacquire
// fails too, it logs the reacquire's error instead and destroys the handle.
type LivenessFailedError struct {
	Server ServerInfo
}

func (e *LivenessFailedError) Error() string {
	return fmt.Sprintf("clientpool: liveness probe failed for %s", e.Server)
}

// InternalInvariantError marks a bug: an operation observed pool state that
// should be impossible under the documented invariants.
type InternalInvariantError struct {
	Detail string
}

func (e *InternalInvariantError) Error() string {
	return "clientpool: internal invariant violated: " + e.Detail
}

var (
	_ error = (*ConfigError)(nil)
	_ error = (*NoServersAvailableError)(nil)
	_ error = (*ConnectionCreateError)(nil)
	_ error = (*ConnectionAcquireFailedError)(nil)
	_ error = (*AcquisitionTimeoutError)(nil)
	_ error = (*PoolClosedError)(nil)
	_ error = (*LivenessFailedError)(nil)
	_ error = (*InternalInvariantError)(nil)
)
