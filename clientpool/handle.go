package clientpool

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/uuid"

	"github.com/jiangwei/thriftconnpool/log"
)

// Handle wraps one live Connection plus the bookkeeping the pool needs to
// decide when to recycle or retire it.
//
// A Handle is created by a Watcher and lives for as long as its owning
// Partition keeps it, surviving any number of underlying Connection
// replacements via reacquire. Its identity (the *Handle pointer, logged via
// ID) is what callers hold onto across a borrow; the Connection underneath
// is swappable.
type Handle struct {
	// ID is a stable identity token for this Handle, attached to every log
	// line it produces, even across Connection replacement.
	ID uuid.UUID

	partition *Partition

	mu   sync.Mutex
	conn Connection

	createdAt   time.Time
	lastUsedAt  time.Time
	lastResetAt time.Time

	// logicallyClosed is 1 while the Handle sits in the free queue and 0
	// while it is handed out to a caller. It is the only field acquirers and
	// releasers CAS on the hot path.
	logicallyClosed int32
	// possiblyBroken is set by the caller via MarkPossiblyBroken after an
	// observed I/O error.
	possiblyBroken int32
	// destroyed makes internalClose idempotent against concurrent reaper
	// and shutdown races.
	destroyed int32
}

func newHandle(p *Partition) *Handle {
	id, err := uuid.NewV4()
	if err != nil {
		// Extremely unlikely (would require the system CSPRNG to be
		// broken); fall back to the zero UUID rather than failing handle
		// creation over a logging nicety.
		id = uuid.UUID{}
	}
	now := time.Now()
	h := &Handle{
		ID:          id,
		partition:   p,
		createdAt:   now,
		lastUsedAt:  now,
		lastResetAt: now,
	}
	// New handles start logically closed (in the free queue, not handed
	// out); the acquirer flips this with a CAS before returning it.
	atomic.StoreInt32(&h.logicallyClosed, 1)
	return h
}

// Connection returns the live Connection. Only valid while the Handle is
// borrowed (i.e. between a successful acquire and the matching release).
func (h *Handle) Connection() Connection {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.conn
}

// MarkPossiblyBroken records a caller-observed I/O error. On release, the
// pool will run the LivenessProbe before returning this Handle to the free
// queue; if the probe fails, it tries to reacquire a fresh Connection in
// place and only destroys the Handle if that also fails.
func (h *Handle) MarkPossiblyBroken() {
	atomic.StoreInt32(&h.possiblyBroken, 1)
}

func (h *Handle) isPossiblyBroken() bool {
	return atomic.LoadInt32(&h.possiblyBroken) != 0
}

func (h *Handle) clearPossiblyBroken() {
	atomic.StoreInt32(&h.possiblyBroken, 0)
}

// tryAcquire CASes logicallyClosed true->false, the move that makes a free
// handle "handed out". Returns false if another goroutine already took it
// (should not happen for handles drained from a single-consumer channel,
// but acquisition code checks it anyway as a defensive invariant guard).
func (h *Handle) tryAcquire() bool {
	return atomic.CompareAndSwapInt32(&h.logicallyClosed, 1, 0)
}

func (h *Handle) markReleased() {
	atomic.StoreInt32(&h.logicallyClosed, 1)
}

func (h *Handle) isExpired(maxAge time.Duration) bool {
	if maxAge <= 0 {
		return false
	}
	return time.Since(h.createdAt) >= maxAge
}

func (h *Handle) idleFor() time.Duration {
	h.mu.Lock()
	defer h.mu.Unlock()
	return time.Since(h.lastUsedAt)
}

func (h *Handle) touchUsed() {
	h.mu.Lock()
	h.lastUsedAt = time.Now()
	h.mu.Unlock()
}

func (h *Handle) touchReset() {
	h.mu.Lock()
	h.lastResetAt = time.Now()
	h.mu.Unlock()
}

// setConnection installs conn as the Handle's live Connection. It does not
// close the Connection it replaces; obtainInternalConnection closes that one
// itself before calling it.
func (h *Handle) setConnection(conn Connection) {
	h.mu.Lock()
	h.conn = conn
	h.mu.Unlock()
}

// internalClose closes the underlying Connection exactly once, guarding
// against concurrent reaper/release races with a one-shot CAS.
func (h *Handle) internalClose() error {
	if !atomic.CompareAndSwapInt32(&h.destroyed, 0, 1) {
		return nil
	}
	h.mu.Lock()
	conn := h.conn
	h.conn = nil
	h.mu.Unlock()
	if conn == nil {
		return nil
	}
	if err := conn.Close(); err != nil {
		log.Errorw(
			"clientpool: error closing connection",
			"pool", h.partition.pool.name(),
			"server", h.partition.server,
			"handle", h.ID,
			"err", err,
		)
		return err
	}
	return nil
}
