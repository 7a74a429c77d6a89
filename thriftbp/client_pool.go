package thriftbp

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/apache/thrift/lib/go/thrift"
	"github.com/go-kit/kit/metrics"
	"github.com/go-kit/kit/metrics/discard"

	"github.com/jiangwei/thriftconnpool/clientpool"
	"github.com/jiangwei/thriftconnpool/log"
)

// PoolError is returned by ClientPool.Call when it fails to get a
// connection from its pool; the actual Thrift call never happened.
type PoolError struct {
	Cause error
}

func (err PoolError) Error() string {
	return "thriftbp: error getting a connection from the pool: " + err.Cause.Error()
}

func (err PoolError) Unwrap() error {
	return err.Cause
}

var (
	_ error = PoolError{}
	_ error = (*PoolError)(nil)
)

// ClientPoolConfig configures a ClientPool. It combines the Thrift-specific
// knobs (protocol, multiplexed service name, socket timeout) with the
// protocol-agnostic pool knobs from clientpool.PoolConfig.
type ClientPoolConfig struct {
	// ServiceSlug is a short identifier for the thrift service this pool
	// talks to, used to label metrics and logs. The preferred convention
	// is the service's name with any "Service" suffix removed and
	// converted to hyphen-separated lower case, e.g. "authentication".
	ServiceSlug string

	// Servers is the initial list of backend servers.
	Servers []clientpool.ServerInfo

	// ServiceName, if set, multiplexes every call under this Thrift
	// service name via thrift.TMultiplexedProtocol. Leave empty for a
	// pool talking to a single, non-multiplexed service.
	ServiceName string

	// Protocol selects the wire protocol. Defaults to ProtocolBinary.
	Protocol Protocol

	// SocketTimeout bounds both connect and I/O on the underlying
	// TSocket. Defaults to 30 seconds.
	SocketTimeout time.Duration

	MinConnectionsPerServer        int
	MaxConnectionsPerServer        int
	AcquireIncrement               int
	AcquireRetryAttempts           int
	AcquireRetryDelay              time.Duration
	MaxConnectionCreateFailedCount int
	IdleMaxAge                     time.Duration
	IdleConnectionTestPeriod       time.Duration
	MaxConnectionAge               time.Duration
	LazyInit                       bool
	ConnectionTimeout              time.Duration
	PoolAvailabilityThreshold      int
	ServiceOrder                   clientpool.ServiceOrder

	// ReportPoolStats, when true, registers the Prometheus metrics
	// described in clientpool's doc for this pool.
	ReportPoolStats bool

	// PoolExhaustedCounter and ReleaseErrorCounter are go-kit metrics
	// sinks for, respectively, calls that failed because the pool was
	// exhausted and calls whose ReleaseConnection returned an error.
	// clientpool's ReleaseConnection returns nil in every case, including
	// when it destroys the handle, so ReleaseErrorCounter is never added
	// to. Both default to a discard.Counter if nil.
	PoolExhaustedCounter metrics.Counter
	ReleaseErrorCounter  metrics.Counter
}

func (cfg ClientPoolConfig) poolConfig(factory clientpool.ConnectionFactory) clientpool.PoolConfig {
	return clientpool.PoolConfig{
		Servers:                        cfg.Servers,
		Factory:                        factory,
		Probe:                          livenessProbe,
		MinConnectionsPerServer:        cfg.MinConnectionsPerServer,
		MaxConnectionsPerServer:        cfg.MaxConnectionsPerServer,
		AcquireIncrement:               cfg.AcquireIncrement,
		AcquireRetryAttempts:           cfg.AcquireRetryAttempts,
		AcquireRetryDelay:              cfg.AcquireRetryDelay,
		MaxConnectionCreateFailedCount: cfg.MaxConnectionCreateFailedCount,
		IdleMaxAge:                     cfg.IdleMaxAge,
		IdleConnectionTestPeriod:       cfg.IdleConnectionTestPeriod,
		MaxConnectionAge:               cfg.MaxConnectionAge,
		LazyInit:                       cfg.LazyInit,
		ConnectionTimeout:              cfg.ConnectionTimeout,
		PoolAvailabilityThreshold:      cfg.PoolAvailabilityThreshold,
		ServiceOrder:                   cfg.ServiceOrder,
		PoolName:                       cfg.ServiceSlug,
		ReportPoolStats:                cfg.ReportPoolStats,
	}
}

// ClientPool implements thrift.TClient over a pool of Thrift connections,
// acquiring a connection for each Call and releasing it afterwards.
type ClientPool interface {
	thrift.TClient

	// Close shuts down the underlying clientpool.Pool.
	Close() error
}

// NewClientPool builds a ClientPool from cfg.
func NewClientPool(cfg ClientPoolConfig) (ClientPool, error) {
	factory, err := newConnectionFactory(cfg)
	if err != nil {
		return nil, fmt.Errorf("thriftbp: error building connection factory: %w", err)
	}

	pool, err := clientpool.New(cfg.poolConfig(factory))
	if err != nil {
		return nil, fmt.Errorf("thriftbp: error initializing pool: %w", err)
	}

	exhausted := cfg.PoolExhaustedCounter
	if exhausted == nil {
		exhausted = discard.NewCounter()
	}
	releaseErr := cfg.ReleaseErrorCounter
	if releaseErr == nil {
		releaseErr = discard.NewCounter()
	}

	return &clientPool{
		pool:                 pool,
		serviceSlug:          cfg.ServiceSlug,
		poolExhaustedCounter: exhausted,
		releaseErrorCounter:  releaseErr,
	}, nil
}

type clientPool struct {
	pool *clientpool.Pool

	serviceSlug string

	poolExhaustedCounter metrics.Counter
	releaseErrorCounter  metrics.Counter
}

// Call implements thrift.TClient by acquiring a connection from the pool,
// making the call, and releasing the connection afterwards. A network error
// observed during the call marks the connection possibly broken so the pool
// liveness-probes it before recycling.
//
// If acquiring a connection fails, Call returns a PoolError wrapping the
// underlying clientpool error; the Thrift call itself never runs.
func (p *clientPool) Call(ctx context.Context, method string, args, result thrift.TStruct) (err error) {
	h, err := p.pool.GetConnection(ctx)
	if err != nil {
		if _, ok := err.(*clientpool.AcquisitionTimeoutError); ok {
			p.poolExhaustedCounter.Add(1)
		}
		log.Errorw("thriftbp: failed to get connection from pool", "pool", p.serviceSlug, "err", err)
		return PoolError{Cause: err}
	}

	conn, ok := h.Connection().(*connection)
	if !ok {
		return PoolError{Cause: errors.New("thriftbp: handle held a non-thrift connection")}
	}

	callErr := conn.client.Call(ctx, method, args, result)
	if callErr != nil && errors.As(callErr, new(net.Error)) {
		h.MarkPossiblyBroken()
	}

	if err := p.pool.ReleaseConnection(h); err != nil {
		log.Errorw("thriftbp: failed to release connection to pool", "pool", p.serviceSlug, "err", err)
		p.releaseErrorCounter.Add(1)
	}

	return callErr
}

func (p *clientPool) Close() error {
	return p.pool.Close()
}
