// Package clientpool implements a client-side connection pool for RPC
// clients that are thin wrappers around a transport+protocol pair and are
// constructed by user-supplied factories.
//
// The pool multiplexes a bounded set of long-lived connections across a
// fleet of backend servers: one Partition per server, each with its own
// bounded free queue, a Watcher goroutine that refills it on demand, an
// IdleReaper that retires idle or unhealthy connections and an AgeReaper
// that retires connections past their absolute age limit. Application
// goroutines only ever talk to the AcquisitionStrategy, via
// Pool.GetConnection and Pool.ReleaseConnection.
//
// clientpool is wire-protocol agnostic. It knows nothing about Thrift,
// sockets, or client-stub generation; it consumes those through the
// ConnectionFactory and LivenessProbe contracts in interface.go. A
// Thrift-specific adapter that implements those contracts lives in the
// sibling thriftbp package.
//
// This package is considered low level and most services should configure
// a pool through thriftbp rather than constructing one directly.
package clientpool
