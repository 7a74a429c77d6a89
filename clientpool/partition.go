package clientpool

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/sony/gobreaker"

	"github.com/jiangwei/thriftconnpool/log"
)

// Partition owns one backend server's bounded free queue, its connection
// counters and the circuit that trips when that server can't be reached.
//
// All Partition operations are safe for concurrent use. Contention is
// per-partition, never global: the only pool-wide shared state is the
// Pool's shuttingDown flag.
type Partition struct {
	pool   *Pool
	server ServerInfo

	free chan *Handle

	created int32 // atomic

	min, max, acquireIncrement int

	// signal is the single-slot, coalescing channel the Watcher blocks on.
	signal chan struct{}

	unableToCreateMore int32 // atomic bool
	draining            int32 // atomic bool

	// breaker implements the server-down latch: it trips after
	// MaxConnectionCreateFailedCount consecutive ConnectionFactory
	// failures and half-opens on the first attempt made after
	// AcquireRetryDelay has passed (gobreaker's 60s default when that is
	// zero).
	breaker *gobreaker.CircuitBreaker
}

func newPartition(pool *Pool, server ServerInfo) *Partition {
	cfg := pool.config
	p := &Partition{
		pool:             pool,
		server:           server,
		free:             make(chan *Handle, cfg.MaxConnectionsPerServer),
		min:              cfg.MinConnectionsPerServer,
		max:              cfg.MaxConnectionsPerServer,
		acquireIncrement: cfg.acquireIncrement(),
		signal:           make(chan struct{}, 1),
	}
	p.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "clientpool-" + server.String(),
		MaxRequests: 1,
		Interval:    0,
		Timeout:     cfg.AcquireRetryDelay,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= uint32(cfg.maxFailedCount())
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Infow(
				"clientpool: server-down latch state change",
				"pool", pool.name(),
				"server", server,
				"from", from,
				"to", to,
			)
		},
	})
	return p
}

// pollFreeNonBlocking returns the head of the free queue, or nil if empty.
func (p *Partition) pollFreeNonBlocking() *Handle {
	select {
	case h := <-p.free:
		return h
	default:
		return nil
	}
}

// pollFree blocks up to timeout (or forever if timeout <= 0) waiting for a
// free Handle. It returns nil, PoolClosedError if the pool is closed while
// waiting, and nil, nil on timeout.
func (p *Partition) pollFree(ctx context.Context, timeout time.Duration) (*Handle, error) {
	if timeout <= 0 {
		select {
		case h := <-p.free:
			return h, nil
		case <-p.pool.closing:
			return nil, &PoolClosedError{}
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case h := <-p.free:
		return h, nil
	case <-p.pool.closing:
		return nil, &PoolClosedError{}
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
		return nil, nil
	}
}

// offerFree enqueues h at the tail of the free queue. It returns false if
// the queue is already full, which should never happen while
// created <= max; a false return is a bug signal and is logged as an
// InternalInvariantError.
func (p *Partition) offerFree(h *Handle) bool {
	select {
	case p.free <- h:
		return true
	default:
		log.Errorw(
			"clientpool: free queue full on offer, dropping handle",
			"pool", p.pool.name(),
			"server", p.server,
			"handle", h.ID,
			"err", (&InternalInvariantError{Detail: "offerFree on a full queue"}).Error(),
		)
		return false
	}
}

func (p *Partition) addCreated(delta int32) int32 {
	return atomic.AddInt32(&p.created, delta)
}

func (p *Partition) getCreated() int32 {
	return atomic.LoadInt32(&p.created)
}

func (p *Partition) available() int {
	return len(p.free)
}

// signalRefill posts one coalescing token to the Watcher. Repeated signals
// while one is already pending are harmless no-ops.
func (p *Partition) signalRefill() {
	select {
	case p.signal <- struct{}{}:
	default:
	}
}

// maybeSignal posts a refill signal iff the partition isn't already at
// ceiling, the pool isn't shutting down, and availability has dropped to or
// below the configured threshold.
func (p *Partition) maybeSignal() {
	if p.isUnableToCreateMore() || p.pool.isShuttingDown() {
		return
	}
	if p.available()*100/p.max <= p.pool.config.threshold() {
		p.signalRefill()
	}
}

func (p *Partition) setUnableToCreateMore(v bool) {
	if v {
		atomic.StoreInt32(&p.unableToCreateMore, 1)
	} else {
		atomic.StoreInt32(&p.unableToCreateMore, 0)
	}
}

func (p *Partition) isUnableToCreateMore() bool {
	return atomic.LoadInt32(&p.unableToCreateMore) != 0
}

func (p *Partition) setDraining(v bool) {
	if v {
		atomic.StoreInt32(&p.draining, 1)
	} else {
		atomic.StoreInt32(&p.draining, 0)
	}
}

func (p *Partition) isDraining() bool {
	return atomic.LoadInt32(&p.draining) != 0
}

func (p *Partition) isServerDown() bool {
	return p.breaker.State() == gobreaker.StateOpen
}

// createOne asks the ConnectionFactory for one Connection, routing the
// attempt through the server-down breaker so consecutive failures trip the
// latch and a half-open probe clears it.
func (p *Partition) createOne(ctx context.Context) (Connection, error) {
	result, err := p.breaker.Execute(func() (interface{}, error) {
		conn, err := p.pool.config.Factory(ctx, p.server)
		if err != nil {
			return nil, &ConnectionCreateError{Server: p.server, Cause: err}
		}
		return conn, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(Connection), nil
}
