package clientpool

import (
	"context"
	"io"
)

// Connection is a single live connection to a server. It is opaque to the
// pool: the pool never reads or writes through it, it only creates, holds
// and closes it.
//
// Close must be idempotent; the pool, reapers and Handle.internalClose may
// all race to close the same Connection during shutdown.
type Connection interface {
	io.Closer
}

// ConnectionFactory turns a ServerInfo into a live Connection.
//
// Implementations must be safe for concurrent use: the Watcher of every
// Partition may call it at the same time. On failure it should return a
// descriptive error; the pool wraps it in ConnectionCreateError.
type ConnectionFactory func(ctx context.Context, server ServerInfo) (Connection, error)

// LivenessProbe reports whether an existing Connection is still usable.
//
// A nil LivenessProbe is treated as "always alive": the pool will never
// proactively probe and will rely solely on caller-reported
// Handle.MarkPossiblyBroken hints and connection age.
type LivenessProbe func(ctx context.Context, conn Connection) bool

func alwaysAlive(context.Context, Connection) bool {
	return true
}
