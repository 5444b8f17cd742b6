package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/armadaproject/jointester/internal/jointester/model"
)

const MetricsPrefix = "jointester_"

// Metrics records what the index client has done during a run. Counts are kept both as Prometheus
// collectors, for scraping while the run is in progress, and as plain totals for the end of run report.
type Metrics struct {
	batchesSent   prometheus.Counter
	batchFailures prometheus.Counter
	recordsSent   *prometheus.CounterVec
	sendLatency   prometheus.Histogram
	queuedBatches prometheus.Gauge
	commits       prometheus.Counter

	mu     sync.Mutex
	totals Totals
}

// Totals are the counters of a run, as reported in the results file.
type Totals struct {
	BatchesSent     int64
	BatchesFailed   int64
	BodiesSent      int64
	InstancesSent   int64
	Commits         int64
	MaxSendLatency  time.Duration
	SumSendLatency  time.Duration
	PeakQueuedCount int
}

func New(registerer prometheus.Registerer) *Metrics {
	factory := promauto.With(registerer)
	return &Metrics{
		batchesSent: factory.NewCounter(prometheus.CounterOpts{
			Name: MetricsPrefix + "batches_sent",
			Help: "Number of batches accepted by the index",
		}),
		batchFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: MetricsPrefix + "batch_failures",
			Help: "Number of batches the index rejected",
		}),
		recordsSent: factory.NewCounterVec(prometheus.CounterOpts{
			Name: MetricsPrefix + "records_sent",
			Help: "Number of records accepted by the index grouped by record kind",
		}, []string{"kind"}),
		sendLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    MetricsPrefix + "batch_send_latency_seconds",
			Help:    "Time taken to send a single batch to the index",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 15),
		}),
		queuedBatches: factory.NewGauge(prometheus.GaugeOpts{
			Name: MetricsPrefix + "queued_batches",
			Help: "Number of batches waiting for a sender",
		}),
		commits: factory.NewCounter(prometheus.CounterOpts{
			Name: MetricsPrefix + "commits",
			Help: "Number of hard commits issued",
		}),
	}
}

// RecordBatchSent is safe for concurrent use by several senders.
func (m *Metrics) RecordBatchSent(records []model.Record, duration time.Duration, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sendLatency.Observe(duration.Seconds())
	m.totals.SumSendLatency += duration
	if duration > m.totals.MaxSendLatency {
		m.totals.MaxSendLatency = duration
	}
	if err != nil {
		m.batchFailures.Inc()
		m.totals.BatchesFailed++
		return
	}
	m.batchesSent.Inc()
	m.totals.BatchesSent++

	bodies, instances := countByKind(records)
	m.recordsSent.WithLabelValues(string(model.KindBody)).Add(float64(bodies))
	m.recordsSent.WithLabelValues(string(model.KindInstance)).Add(float64(instances))
	m.totals.BodiesSent += bodies
	m.totals.InstancesSent += instances
}

func (m *Metrics) RecordQueueDepth(depth int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queuedBatches.Set(float64(depth))
	if depth > m.totals.PeakQueuedCount {
		m.totals.PeakQueuedCount = depth
	}
}

func (m *Metrics) RecordCommit() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.commits.Inc()
	m.totals.Commits++
}

func (m *Metrics) Totals() Totals {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.totals
}

func countByKind(records []model.Record) (bodies, instances int64) {
	for _, r := range records {
		switch r.Kind {
		case model.KindBody:
			bodies++
		case model.KindInstance:
			instances++
		}
		for _, child := range r.Children {
			if child.Kind == model.KindInstance {
				instances++
			}
		}
	}
	return bodies, instances
}
