package clientpool

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestLoadPoolConfig(t *testing.T) {
	const doc = `
servers:
  - host: a.internal
    port: 1234
  - host: b.internal
    port: 5678
minConnectionsPerServer: 2
maxConnectionsPerServer: 10
acquireIncrement: 3
acquireRetryAttempts: 4
acquireRetryDelay: 50ms
maxConnectionCreateFailedCount: 5
idleMaxAge: 1h
idleConnectionTestPeriod: 5m
maxConnectionAge: 24h
lazyInit: true
connectionTimeoutInMs: 100ms
poolAvailabilityThreshold: 25
serviceOrder: 1
poolName: my-pool
reportPoolStats: true
`

	cfg, err := LoadPoolConfig(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("LoadPoolConfig: %v", err)
	}

	want := []ServerInfo{
		{Host: "a.internal", Port: 1234},
		{Host: "b.internal", Port: 5678},
	}
	if diff := cmp.Diff(want, cfg.Servers); diff != "" {
		t.Errorf("Servers mismatch (-want +got):\n%s", diff)
	}
	if cfg.MinConnectionsPerServer != 2 {
		t.Errorf("MinConnectionsPerServer = %d, want 2", cfg.MinConnectionsPerServer)
	}
	if cfg.MaxConnectionsPerServer != 10 {
		t.Errorf("MaxConnectionsPerServer = %d, want 10", cfg.MaxConnectionsPerServer)
	}
	if cfg.AcquireIncrement != 3 {
		t.Errorf("AcquireIncrement = %d, want 3", cfg.AcquireIncrement)
	}
	if cfg.AcquireRetryDelay != 50*time.Millisecond {
		t.Errorf("AcquireRetryDelay = %s, want 50ms", cfg.AcquireRetryDelay)
	}
	if cfg.IdleMaxAge != time.Hour {
		t.Errorf("IdleMaxAge = %s, want 1h", cfg.IdleMaxAge)
	}
	if !cfg.LazyInit {
		t.Error("expected LazyInit to be true")
	}
	if cfg.ServiceOrder != LIFO {
		t.Errorf("ServiceOrder = %v, want LIFO", cfg.ServiceOrder)
	}
	if cfg.PoolName != "my-pool" {
		t.Errorf("PoolName = %q, want my-pool", cfg.PoolName)
	}
	if !cfg.ReportPoolStats {
		t.Error("expected ReportPoolStats to be true")
	}

	// Factory and Probe are not yaml-serializable; LoadPoolConfig leaves
	// them nil for the caller to set before calling New.
	if cfg.Factory != nil {
		t.Error("expected Factory to be nil after decoding")
	}
	if cfg.Probe != nil {
		t.Error("expected Probe to be nil after decoding")
	}

	cfg.Factory = func(_ context.Context, _ ServerInfo) (Connection, error) {
		return nil, nil
	}
	if err := cfg.validate(); err != nil {
		t.Errorf("validate() after setting Factory: %v", err)
	}
}

func TestLoadPoolConfigRejectsInvalidYAML(t *testing.T) {
	if _, err := LoadPoolConfig(strings.NewReader("not: [valid")); err == nil {
		t.Fatal("expected an error decoding malformed yaml")
	}
}
