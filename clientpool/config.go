package clientpool

import (
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v2"
)

// DefaultPoolAvailabilityThreshold is used when PoolConfig.PoolAvailabilityThreshold
// is zero.
const DefaultPoolAvailabilityThreshold = 20

// PoolConfig configures a Pool. It is immutable once passed to New; a Pool
// keeps its own copy and never mutates it.
type PoolConfig struct {
	// Servers is the initial list of backend servers, one Partition per
	// entry. At least one is required.
	Servers []ServerInfo `yaml:"servers"`

	// Factory creates a new Connection to a given ServerInfo. Required.
	Factory ConnectionFactory `yaml:"-"`

	// Probe checks whether an existing Connection is still usable. If nil,
	// every probe is treated as successful.
	Probe LivenessProbe `yaml:"-"`

	// MinConnectionsPerServer is the floor the Watcher fills each
	// partition up to.
	MinConnectionsPerServer int `yaml:"minConnectionsPerServer"`

	// MaxConnectionsPerServer is each partition's free-queue capacity and
	// the ceiling on Partition.created.
	MaxConnectionsPerServer int `yaml:"maxConnectionsPerServer"`

	// AcquireIncrement is the batch size the Watcher creates per refill
	// pass. If zero, defaults to 1.
	AcquireIncrement int `yaml:"acquireIncrement"`

	// AcquireRetryAttempts is how many times the Watcher retries a failed
	// Factory call before giving up on that batch element.
	AcquireRetryAttempts int `yaml:"acquireRetryAttempts"`

	// AcquireRetryDelay is the sleep between create retries.
	AcquireRetryDelay time.Duration `yaml:"acquireRetryDelay"`

	// MaxConnectionCreateFailedCount is the number of consecutive Factory
	// failures against a server before its Partition's server-down latch
	// trips. If zero, defaults to 1 (trip on first failure).
	MaxConnectionCreateFailedCount int `yaml:"maxConnectionCreateFailedCount"`

	// IdleMaxAge is how long a free handle may sit unused before the
	// IdleReaper destroys it. Zero disables idle reaping.
	IdleMaxAge time.Duration `yaml:"idleMaxAge"`

	// IdleConnectionTestPeriod is how often the IdleReaper liveness-probes
	// a free handle that hasn't been reaped for age. Zero disables
	// periodic liveness testing.
	IdleConnectionTestPeriod time.Duration `yaml:"idleConnectionTestPeriod"`

	// MaxConnectionAge is the absolute TTL of a connection, tested by the
	// AgeReaper. Zero disables age reaping.
	MaxConnectionAge time.Duration `yaml:"maxConnectionAge"`

	// LazyInit defers eager bootstrap: if true, New does not pre-create
	// any connections and the first Watcher wake is not skipped.
	LazyInit bool `yaml:"lazyInit"`

	// ConnectionTimeout bounds how long GetConnection blocks waiting for a
	// free handle. Zero means wait forever.
	ConnectionTimeout time.Duration `yaml:"connectionTimeoutInMs"`

	// PoolAvailabilityThreshold is the integer percentage of
	// available/max at or below which a refill signal fires. Zero
	// defaults to DefaultPoolAvailabilityThreshold.
	PoolAvailabilityThreshold int `yaml:"poolAvailabilityThreshold"`

	// ServiceOrder controls reaper traversal direction over the free
	// queue.
	ServiceOrder ServiceOrder `yaml:"serviceOrder"`

	// PoolName labels every log line and goroutine this pool starts. It
	// has no semantic effect otherwise.
	PoolName string `yaml:"poolName"`

	// ReportPoolStats, when true, registers Prometheus gauges/counters
	// for this pool's partitions. See metrics.go.
	ReportPoolStats bool `yaml:"reportPoolStats"`
}

// LoadPoolConfig decodes a PoolConfig from the YAML read from r, the way a
// service's baseplate.yaml embeds a client pool's tunables.
//
// Factory and Probe are tagged yaml:"-" since a ConnectionFactory and a
// LivenessProbe are Go closures, not data; the caller must set both on the
// returned PoolConfig before passing it to New.
func LoadPoolConfig(r io.Reader) (PoolConfig, error) {
	var cfg PoolConfig
	if err := yaml.NewDecoder(r).Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("clientpool: error decoding pool config yaml: %w", err)
	}
	return cfg, nil
}

func (c *PoolConfig) validate() error {
	if len(c.Servers) == 0 {
		return &ConfigError{Reason: "at least one server is required"}
	}
	if c.Factory == nil {
		return &ConfigError{Reason: "Factory is required"}
	}
	if c.MaxConnectionsPerServer <= 0 {
		return &ConfigError{Reason: "MaxConnectionsPerServer must be positive"}
	}
	if c.MinConnectionsPerServer < 0 {
		return &ConfigError{Reason: "MinConnectionsPerServer must not be negative"}
	}
	if c.MinConnectionsPerServer > c.MaxConnectionsPerServer {
		return &ConfigError{Reason: "MinConnectionsPerServer > MaxConnectionsPerServer"}
	}
	if c.PoolAvailabilityThreshold < 0 || c.PoolAvailabilityThreshold > 100 {
		return &ConfigError{Reason: "PoolAvailabilityThreshold must be in [0, 100]"}
	}
	return nil
}

func (c *PoolConfig) acquireIncrement() int {
	if c.AcquireIncrement <= 0 {
		return 1
	}
	return c.AcquireIncrement
}

func (c *PoolConfig) threshold() int {
	if c.PoolAvailabilityThreshold <= 0 {
		return DefaultPoolAvailabilityThreshold
	}
	return c.PoolAvailabilityThreshold
}

func (c *PoolConfig) maxFailedCount() int {
	if c.MaxConnectionCreateFailedCount <= 0 {
		return 1
	}
	return c.MaxConnectionCreateFailedCount
}

func (c *PoolConfig) probe() LivenessProbe {
	if c.Probe == nil {
		return alwaysAlive
	}
	return c.Probe
}
