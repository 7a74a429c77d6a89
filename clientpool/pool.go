package clientpool

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/jiangwei/thriftconnpool/errorsbp"
	"github.com/jiangwei/thriftconnpool/log"
)

// Pool is a bounded, per-server connection pool. One Pool is created per
// logical backend service; New starts one Watcher, one IdleReaper and one
// AgeReaper goroutine per configured server.
//
// A Pool is safe for concurrent use by any number of goroutines.
type Pool struct {
	config PoolConfig

	mu         sync.RWMutex
	partitions []*Partition

	strategy *acquisitionStrategy

	closing      chan struct{}
	closeOnce    sync.Once
	shuttingDown int32 // atomic bool
	wg           sync.WaitGroup

	metrics *poolMetrics
}

// New validates config, bootstraps a Partition per reachable server and
// starts each partition's background actors.
//
// Unless config.LazyInit is set, New eagerly probes every server with one
// Factory call to decide whether its Partition is worth keeping, then fills
// each surviving partition up to MinConnectionsPerServer before returning.
// If every server fails eager bootstrap, New returns a
// NoServersAvailableError.
func New(config PoolConfig) (*Pool, error) {
	if err := config.validate(); err != nil {
		return nil, err
	}

	p := &Pool{
		config:  config,
		closing: make(chan struct{}),
	}
	p.strategy = newAcquisitionStrategy(p)

	var bootstrapErrs errorsbp.Batch
	for _, server := range config.Servers {
		partition := newPartition(p, server)

		if !config.LazyInit {
			conn, err := partition.createOne(context.Background())
			if err != nil {
				bootstrapErrs.Add(&ConnectionCreateError{Server: server, Cause: err})
				log.Errorw(
					"clientpool: dropping server that failed initial connect",
					"pool", p.name(),
					"server", server,
					"err", err,
				)
				continue
			}
			// This was only a reachability probe; fillConnections below
			// creates the handles that actually populate the partition.
			if cerr := conn.Close(); cerr != nil {
				log.Errorw(
					"clientpool: error closing bootstrap probe connection",
					"pool", p.name(),
					"server", server,
					"err", cerr,
				)
			}
		}

		p.partitions = append(p.partitions, partition)
	}

	if len(p.partitions) == 0 {
		return nil, &NoServersAvailableError{Attempted: len(config.Servers)}
	}
	if bootstrapErrs.Len() > 0 {
		log.Warnw(
			"clientpool: some servers were dropped during bootstrap",
			"pool", p.name(),
			"dropped", bootstrapErrs.Len(),
			"total", len(config.Servers),
		)
	}

	if !config.LazyInit {
		for _, partition := range p.partitions {
			p.fillConnections(partition, partition.min)
		}
	}

	for _, partition := range p.partitions {
		p.startPartitionActors(partition)
	}

	if config.ReportPoolStats {
		p.metrics = newPoolMetrics(p)
	}

	return p, nil
}

func (p *Pool) startPartitionActors(partition *Partition) {
	p.wg.Add(3)
	go p.runWatcher(partition)
	go p.runIdleReaper(partition)
	go p.runAgeReaper(partition)
}

// GetConnection borrows a Handle from whichever partition the acquisition
// strategy picks. The caller must pass the returned Handle to
// ReleaseConnection exactly once when done with it.
func (p *Pool) GetConnection(ctx context.Context) (*Handle, error) {
	h, err := p.strategy.acquire(ctx)
	if err != nil {
		if p.metrics != nil {
			if _, ok := err.(*AcquisitionTimeoutError); ok {
				p.metrics.acquireTimeouts.Inc()
			} else {
				p.metrics.acquireFailed.Inc()
			}
		}
		return nil, err
	}
	h.touchUsed()
	return h, nil
}

// ReleaseConnection returns a borrowed Handle to its partition. If h is
// expired or its partition is draining, it is destroyed instead of
// recycled. If h is marked possibly-broken and fails a liveness probe, the
// pool tries to reacquire a fresh Connection in place; only when that
// reacquire also fails is the Handle destroyed.
func (p *Pool) ReleaseConnection(h *Handle) error {
	partition := h.partition

	if p.isShuttingDown() || partition.isDraining() {
		h.markReleased()
		p.destroyHandle(h, partition)
		return nil
	}

	if h.isExpired(p.config.MaxConnectionAge) {
		h.markReleased()
		p.destroyHandle(h, partition)
		partition.maybeSignal()
		return nil
	}

	if h.isPossiblyBroken() {
		if !p.config.probe()(context.Background(), h.Connection()) {
			livenessErr := &LivenessFailedError{Server: partition.server}
			if rerr := h.reacquireVia(p, context.Background()); rerr != nil {
				log.Errorw(
					"clientpool: failed to reacquire handle after failed liveness probe",
					"pool", p.name(),
					"server", partition.server,
					"handle", h.ID,
					"err", rerr,
				)
				h.markReleased()
				p.destroyHandle(h, partition)
				partition.maybeSignal()
				if p.metrics != nil {
					p.metrics.releaseErrors.Inc()
				}
				return nil
			}
			log.Warnw(
				"clientpool: replaced connection in place after failed liveness probe",
				"pool", p.name(),
				"server", partition.server,
				"handle", h.ID,
				"err", livenessErr,
			)
		}
		h.clearPossiblyBroken()
		h.touchReset()
	}

	h.touchUsed()
	h.markReleased()
	if !partition.offerFree(h) {
		p.destroyHandle(h, partition)
	}
	return nil
}

// Close shuts the pool down: it stops accepting new acquisitions, destroys
// every idle handle in every partition, and waits for all Watcher and
// reaper goroutines to exit. It is idempotent and safe to call more than
// once.
func (p *Pool) Close() error {
	p.closeOnce.Do(func() {
		atomic.StoreInt32(&p.shuttingDown, 1)
		close(p.closing)
		p.strategy.terminateAllConnections()
		p.wg.Wait()
	})
	return nil
}

func (p *Pool) isShuttingDown() bool {
	return atomic.LoadInt32(&p.shuttingDown) != 0
}

func (p *Pool) name() string {
	if p.config.PoolName != "" {
		return p.config.PoolName
	}
	return "clientpool"
}

func (p *Pool) snapshotPartitions() []*Partition {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]*Partition, len(p.partitions))
	copy(out, p.partitions)
	return out
}

// AddServer adds a new backend server to the pool and starts its
// background actors. It is an error to add a server that is already
// present.
func (p *Pool) AddServer(server ServerInfo) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, partition := range p.partitions {
		if partition.server == server {
			return &ConfigError{Reason: "server " + server.String() + " already present"}
		}
	}

	partition := newPartition(p, server)
	p.partitions = append(p.partitions, partition)
	p.startPartitionActors(partition)
	return nil
}

// RemoveServer marks a server's partition as draining: it stops accepting
// new acquisitions and new refills, and its currently idle handles are
// destroyed immediately. Handles already on loan are destroyed as they are
// released. The background actors exit on their own once the pool closes;
// RemoveServer does not stop them early since a drained partition's
// Watcher simply idles.
func (p *Pool) RemoveServer(server ServerInfo) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, partition := range p.partitions {
		if partition.server != server {
			continue
		}
		partition.setDraining(true)
		for {
			h := partition.pollFreeNonBlocking()
			if h == nil {
				break
			}
			p.destroyHandle(h, partition)
		}
		return nil
	}
	return &ConfigError{Reason: "server " + server.String() + " not found"}
}
