package clientpool

import (
	"context"
	"sync"
	"sync/atomic"
)

// acquisitionStrategy picks a partition to acquire from, with fall-through
// to every other partition before blocking.
//
// Go exposes no stable, cheap goroutine identifier, so affinity is driven
// by an atomically incremented round-robin counter sampled once per
// GetConnection call instead of a thread id. It spreads acquisitions
// across partitions in O(1) before falling through to a scan.
type acquisitionStrategy struct {
	pool *Pool

	rr uint64 // atomic round-robin cursor

	// terminationMu serializes terminateAllConnections against itself; it
	// does not need to exclude acquire/release, which are always safe to
	// run concurrently with a drain of an already-removed handle.
	terminationMu sync.Mutex
}

func newAcquisitionStrategy(pool *Pool) *acquisitionStrategy {
	return &acquisitionStrategy{pool: pool}
}

// acquire picks a partition and returns a borrowed Handle, or an error.
func (s *acquisitionStrategy) acquire(ctx context.Context) (*Handle, error) {
	if s.pool.isShuttingDown() {
		return nil, &PoolClosedError{}
	}

	partitions := s.pool.snapshotPartitions()
	n := len(partitions)
	if n == 0 {
		return nil, &NoServersAvailableError{}
	}

	start := int(atomic.AddUint64(&s.rr, 1) % uint64(n))

	if h, p := s.tryPartition(partitions[start]); h != nil {
		p.maybeSignal()
		return h, nil
	}

	for i := 1; i < n; i++ {
		idx := (start + i) % n
		if h, p := s.tryPartition(partitions[idx]); h != nil {
			p.maybeSignal()
			return h, nil
		}
	}

	affine := partitions[start]
	if affine.isDraining() {
		return nil, &AcquisitionTimeoutError{}
	}
	h, err := affine.pollFree(ctx, s.pool.config.ConnectionTimeout)
	if err != nil {
		return nil, err
	}
	if h == nil {
		return nil, &AcquisitionTimeoutError{}
	}
	if !h.tryAcquire() {
		return nil, &InternalInvariantError{Detail: "handle already logically open on blocking acquire"}
	}
	affine.maybeSignal()
	return h, nil
}

// tryPartition attempts a non-blocking poll of p, returning the acquired
// Handle (already CASed open) and p itself on success.
func (s *acquisitionStrategy) tryPartition(p *Partition) (*Handle, *Partition) {
	if p.isDraining() {
		return nil, nil
	}
	h := p.pollFreeNonBlocking()
	if h == nil {
		return nil, nil
	}
	if !h.tryAcquire() {
		// Single-consumer free queue, so this should be unreachable; treat
		// it as a miss rather than panicking.
		return nil, nil
	}
	return h, p
}

// terminateAllConnections drains and destroys every partition's free queue
// under an exclusive lock.
func (s *acquisitionStrategy) terminateAllConnections() {
	s.terminationMu.Lock()
	defer s.terminationMu.Unlock()

	for _, p := range s.pool.snapshotPartitions() {
		p.setUnableToCreateMore(false)
		for {
			h := p.pollFreeNonBlocking()
			if h == nil {
				break
			}
			s.pool.destroyHandle(h, p)
		}
	}
}
