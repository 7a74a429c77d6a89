package thriftbp

import (
	"context"

	"github.com/jiangwei/thriftconnpool/clientpool"
)

// livenessProbe is the clientpool.LivenessProbe for Thrift connections. It
// only checks the socket's own IsOpen state; it never performs an active
// ping, since Thrift has no universal no-op RPC to call for that.
func livenessProbe(_ context.Context, conn clientpool.Connection) bool {
	c, ok := conn.(*connection)
	if !ok {
		return false
	}
	return c.isOpen()
}
