package clientpool

import (
	"context"

	"github.com/avast/retry-go"

	"github.com/jiangwei/thriftconnpool/log"
)

// runWatcher is the per-partition background refill actor. It sleeps on
// partition.signal (except on the first iteration, unless LazyInit is set).
// On each wake where the partition is below its max and availability is at
// or below the configured threshold, it creates one batch of at most
// acquireIncrement connections, then tops the partition up to its min if it
// is still below it.
func (p *Pool) runWatcher(partition *Partition) {
	defer p.wg.Done()

	first := true
	for {
		if p.config.LazyInit || !first {
			select {
			case <-partition.signal:
			case <-p.closing:
				return
			}
		}
		first = false

		if p.isShuttingDown() {
			return
		}

		deficit := int(int32(partition.max) - partition.getCreated())
		if deficit <= 0 {
			partition.setUnableToCreateMore(true)
			continue
		}
		if partition.max > 0 && partition.available()*100/partition.max > p.config.threshold() {
			continue
		}

		batch := deficit
		if batch > partition.acquireIncrement {
			batch = partition.acquireIncrement
		}
		p.fillConnections(partition, batch)

		if int(partition.getCreated()) < partition.min {
			p.fillConnections(partition, partition.min-int(partition.getCreated()))
		}
	}
}

// fillConnections creates up to n new handles for partition, stopping the
// whole batch the first time a create fails (the Watcher will be re-signaled
// on the next release or the next threshold breach).
func (p *Pool) fillConnections(partition *Partition, n int) {
	for i := 0; i < n; i++ {
		if p.isShuttingDown() {
			return
		}
		h := newHandle(partition)
		if err := p.obtainInternalConnection(context.Background(), h, partition); err != nil {
			log.Errorw(
				"clientpool: watcher failed to create connection",
				"pool", p.name(),
				"server", partition.server,
				"err", err,
			)
			return
		}
		partition.addCreated(1)
		partition.offerFree(h)
	}
}

// obtainInternalConnection creates (or re-creates) the Connection behind h,
// retrying up to AcquireRetryAttempts times. On success, whatever Connection
// h held before the attempt is closed and replaced. On final failure it
// restores that same previous Connection (closing it first if present)
// rather than leaving h with no Connection at all, and surfaces a
// ConnectionAcquireFailedError.
func (p *Pool) obtainInternalConnection(ctx context.Context, h *Handle, partition *Partition) error {
	previous := h.Connection()

	var created Connection
	attempts := uint(p.config.AcquireRetryAttempts) + 1
	err := retry.Do(
		func() error {
			conn, cerr := partition.createOne(ctx)
			if cerr != nil {
				return cerr
			}
			created = conn
			return nil
		},
		retry.Attempts(attempts),
		retry.Delay(p.config.AcquireRetryDelay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		if previous != nil {
			_ = previous.Close()
		}
		h.setConnection(previous)
		return &ConnectionAcquireFailedError{Server: partition.server, Cause: err}
	}

	if previous != nil {
		if cerr := previous.Close(); cerr != nil {
			log.Errorw(
				"clientpool: error closing replaced connection",
				"pool", p.name(),
				"server", partition.server,
				"handle", h.ID,
				"err", cerr,
			)
		}
	}
	h.setConnection(created)
	h.touchReset()
	return nil
}

// reacquireVia replaces h's underlying Connection in place, keeping h's
// identity intact. ReleaseConnection uses it on a borrowed Handle that was
// marked possibly broken and then failed its liveness probe.
func (h *Handle) reacquireVia(p *Pool, ctx context.Context) error {
	return p.obtainInternalConnection(ctx, h, h.partition)
}
