package thriftbp

import (
	"context"
	"fmt"
	"time"

	"github.com/apache/thrift/lib/go/thrift"

	"github.com/jiangwei/thriftconnpool/clientpool"
)

// Protocol selects the wire protocol a ClientPool's connections speak.
//
// Apache Thrift's Java implementation also offers a Tuple protocol; the Go
// library this package is built on doesn't expose one, so there is no
// ProtocolTuple here.
type Protocol int

const (
	// ProtocolBinary is the default, most widely supported Thrift protocol.
	ProtocolBinary Protocol = iota
	// ProtocolCompact is a smaller-on-the-wire variable-length encoding.
	ProtocolCompact
	// ProtocolJSON encodes messages as JSON, mainly useful for debugging.
	ProtocolJSON
)

func (p Protocol) factory() (thrift.TProtocolFactory, error) {
	switch p {
	case ProtocolBinary:
		return thrift.NewTBinaryProtocolFactoryDefault(), nil
	case ProtocolCompact:
		return thrift.NewTCompactProtocolFactory(), nil
	case ProtocolJSON:
		return thrift.NewTJSONProtocolFactory(), nil
	default:
		return nil, fmt.Errorf("thriftbp: unknown protocol %d", p)
	}
}

// newConnectionFactory builds a clientpool.ConnectionFactory that dials a
// plain TCP socket to whatever clientpool.ServerInfo it's given, wraps it in
// the configured wire protocol, and multiplexes it under ServiceName if one
// is set.
func newConnectionFactory(cfg ClientPoolConfig) (clientpool.ConnectionFactory, error) {
	protoFactory, err := cfg.Protocol.factory()
	if err != nil {
		return nil, err
	}

	return func(_ context.Context, server clientpool.ServerInfo) (clientpool.Connection, error) {
		timeout := cfg.SocketTimeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		socket, err := thrift.NewTSocketTimeout(server.String(), timeout, timeout)
		if err != nil {
			return nil, fmt.Errorf("thriftbp: error building TSocket for %s: %w", server, err)
		}
		if err := socket.Open(); err != nil {
			return nil, fmt.Errorf("thriftbp: error opening TSocket for %s: %w", server, err)
		}

		// Only outgoing calls need the multiplexed service tag; responses
		// come back untagged, so the input protocol is left plain.
		inProto := protoFactory.GetProtocol(socket)
		var outProto thrift.TProtocol = protoFactory.GetProtocol(socket)
		if cfg.ServiceName != "" {
			outProto = thrift.NewTMultiplexedProtocol(outProto, cfg.ServiceName)
		}

		client := thrift.NewTStandardClient(inProto, outProto)
		return &connection{socket: socket, client: client}, nil
	}, nil
}
