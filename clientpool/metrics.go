package clientpool

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	poolLabel   = "pool"
	serverLabel = "server"
)

var (
	createdGauge = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "clientpool_connections_created",
		Help: "Number of connections currently created for a partition.",
	}, []string{poolLabel, serverLabel})

	availableGauge = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "clientpool_connections_available",
		Help: "Number of idle connections currently sitting in a partition's free queue.",
	}, []string{poolLabel, serverLabel})

	serverDownGauge = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "clientpool_server_down",
		Help: "1 if a partition's server-down latch is tripped, 0 otherwise.",
	}, []string{poolLabel, serverLabel})

	acquireTimeoutCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "clientpool_acquire_timeouts_total",
		Help: "Total GetConnection calls that returned AcquisitionTimeoutError.",
	}, []string{poolLabel})

	acquireFailedCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "clientpool_acquire_failed_total",
		Help: "Total GetConnection calls that failed for a reason other than timeout.",
	}, []string{poolLabel})

	releaseErrorCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "clientpool_release_errors_total",
		Help: "Total ReleaseConnection calls that destroyed a handle due to a failed liveness probe.",
	}, []string{poolLabel})
)

// poolMetrics is the Prometheus reporting attached to a Pool when
// PoolConfig.ReportPoolStats is set. Gauges are refreshed by a background
// goroutine; counters are updated inline by GetConnection/ReleaseConnection.
type poolMetrics struct {
	pool *Pool

	acquireTimeouts prometheus.Counter
	acquireFailed   prometheus.Counter
	releaseErrors   prometheus.Counter
}

func newPoolMetrics(p *Pool) *poolMetrics {
	m := &poolMetrics{
		pool:            p,
		acquireTimeouts: acquireTimeoutCounter.WithLabelValues(p.name()),
		acquireFailed:   acquireFailedCounter.WithLabelValues(p.name()),
		releaseErrors:   releaseErrorCounter.WithLabelValues(p.name()),
	}
	p.wg.Add(1)
	go m.reportLoop()
	return m
}

func (m *poolMetrics) reportLoop() {
	defer m.pool.wg.Done()

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-m.pool.closing:
			return
		case <-ticker.C:
			m.report()
		}
	}
}

func (m *poolMetrics) report() {
	poolName := m.pool.name()
	for _, partition := range m.pool.snapshotPartitions() {
		server := partition.server.String()
		createdGauge.WithLabelValues(poolName, server).Set(float64(partition.getCreated()))
		availableGauge.WithLabelValues(poolName, server).Set(float64(partition.available()))
		if partition.isServerDown() {
			serverDownGauge.WithLabelValues(poolName, server).Set(1)
		} else {
			serverDownGauge.WithLabelValues(poolName, server).Set(0)
		}
	}
}
