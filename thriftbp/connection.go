package thriftbp

import (
	"github.com/apache/thrift/lib/go/thrift"

	"github.com/jiangwei/thriftconnpool/clientpool"
)

// connection is the concrete clientpool.Connection for a Thrift client: the
// socket that owns the TCP connection plus the TClient built on top of it.
//
// clientpool only ever calls Close on this; Client's Call method is reached
// through ClientPool.Call, after a Connection has been type-asserted back
// out of a borrowed clientpool.Handle.
type connection struct {
	socket thrift.TTransport
	client thrift.TClient
}

var _ clientpool.Connection = (*connection)(nil)

// Close closes the underlying transport. It is safe to call more than once;
// thrift.TSocket.Close is itself idempotent against a transport that isn't
// open.
func (c *connection) Close() error {
	return c.socket.Close()
}

// isOpen reports whether the underlying transport still believes it has a
// live socket. It is a cheap, non-blocking liveness signal; it does not
// detect a half-open TCP connection the way an active ping would.
func (c *connection) isOpen() bool {
	return c.socket.IsOpen()
}
