package clientpool

import (
	"context"
	"errors"
	"sync"
)

// fakeConn is a minimal Connection double: it records whether it has been
// closed and can be made to fail that close.
type fakeConn struct {
	mu       sync.Mutex
	closed   bool
	closeErr error
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	return c.closeErr
}

func (c *fakeConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// fakeFactory builds a ConnectionFactory that fails for any server in
// failFor, and otherwise hands back a fresh *fakeConn while counting calls
// per server.
type fakeFactory struct {
	mu      sync.Mutex
	calls   map[ServerInfo]int
	failFor map[ServerInfo]bool
	created []*fakeConn
}

func newFakeFactory(failFor ...ServerInfo) *fakeFactory {
	f := &fakeFactory{
		calls:   make(map[ServerInfo]int),
		failFor: make(map[ServerInfo]bool),
	}
	for _, s := range failFor {
		f.failFor[s] = true
	}
	return f
}

func (f *fakeFactory) factory(_ context.Context, server ServerInfo) (Connection, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[server]++
	if f.failFor[server] {
		return nil, errors.New("fakeFactory: refused to dial " + server.String())
	}
	c := &fakeConn{}
	f.created = append(f.created, c)
	return c, nil
}

func (f *fakeFactory) callCount(server ServerInfo) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[server]
}

func (f *fakeFactory) setFailing(server ServerInfo, failing bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failFor[server] = failing
}
