package clientpool

import (
	"context"
	"time"
)

// runIdleReaper is the per-partition idle reaper. Its period is
// the larger of IdleMaxAge and IdleConnectionTestPeriod when both are set,
// or whichever one is set; it does not run at all if neither is configured.
func (p *Pool) runIdleReaper(partition *Partition) {
	defer p.wg.Done()

	period := idleReaperPeriod(p.config)
	if period <= 0 {
		return
	}
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-p.closing:
			return
		case <-ticker.C:
			p.reapIdle(partition)
		}
	}
}

func idleReaperPeriod(cfg PoolConfig) time.Duration {
	switch {
	case cfg.IdleMaxAge > 0 && cfg.IdleConnectionTestPeriod > 0:
		if cfg.IdleMaxAge > cfg.IdleConnectionTestPeriod {
			return cfg.IdleMaxAge
		}
		return cfg.IdleConnectionTestPeriod
	case cfg.IdleMaxAge > 0:
		return cfg.IdleMaxAge
	case cfg.IdleConnectionTestPeriod > 0:
		return cfg.IdleConnectionTestPeriod
	default:
		return 0
	}
}

// reapIdle walks partition's free queue once, in ServiceOrder traversal
// order, destroying handles idle past IdleMaxAge and liveness-probing
// handles due for IdleConnectionTestPeriod. A handle reserved for probing is
// not visible to acquirers until it is either destroyed or reinserted.
func (p *Pool) reapIdle(partition *Partition) {
	handles := drainFree(partition)
	if partition.pool.config.ServiceOrder == LIFO {
		reverseHandles(handles)
	}

	cfg := p.config
	for _, h := range handles {
		if p.isShuttingDown() {
			p.destroyHandle(h, partition)
			continue
		}
		if cfg.IdleMaxAge > 0 && h.idleFor() >= cfg.IdleMaxAge {
			p.destroyHandle(h, partition)
			partition.maybeSignal()
			continue
		}
		if cfg.IdleConnectionTestPeriod > 0 && h.resetDue(cfg.IdleConnectionTestPeriod) {
			if !cfg.probe()(context.Background(), h.Connection()) {
				p.destroyHandle(h, partition)
				partition.maybeSignal()
				continue
			}
			h.touchReset()
		}
		partition.offerFree(h)
	}
}

// runAgeReaper is the per-partition absolute-age reaper. It never
// runs if MaxConnectionAge is unset.
func (p *Pool) runAgeReaper(partition *Partition) {
	defer p.wg.Done()

	if p.config.MaxConnectionAge <= 0 {
		return
	}
	ticker := time.NewTicker(p.config.MaxConnectionAge)
	defer ticker.Stop()

	for {
		select {
		case <-p.closing:
			return
		case <-ticker.C:
			p.reapAge(partition)
		}
	}
}

func (p *Pool) reapAge(partition *Partition) {
	handles := drainFree(partition)
	if p.config.ServiceOrder == LIFO {
		reverseHandles(handles)
	}

	for _, h := range handles {
		if h.isExpired(p.config.MaxConnectionAge) {
			p.destroyHandle(h, partition)
			partition.maybeSignal()
			continue
		}
		partition.offerFree(h)
	}
}

// drainFree removes every handle currently sitting in partition's free
// queue. It never touches handles that are out on loan.
func drainFree(partition *Partition) []*Handle {
	n := partition.available()
	handles := make([]*Handle, 0, n)
	for i := 0; i < n; i++ {
		h := partition.pollFreeNonBlocking()
		if h == nil {
			break
		}
		handles = append(handles, h)
	}
	return handles
}

func reverseHandles(handles []*Handle) {
	for i, j := 0, len(handles)-1; i < j; i, j = i+1, j-1 {
		handles[i], handles[j] = handles[j], handles[i]
	}
}

// destroyHandle closes h's Connection, decrements its partition's created
// counter and clears the "can't create more" latch so the Watcher will
// consider refilling again.
func (p *Pool) destroyHandle(h *Handle, partition *Partition) {
	partition.addCreated(-1)
	partition.setUnableToCreateMore(false)
	h.internalClose()
}

func (h *Handle) resetDue(period time.Duration) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return time.Since(h.lastResetAt) >= period
}
