package ingest

import (
	"errors"
	"time"

	"github.com/gclaussn/go-bpmn-query/projection"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	outcomeApplied = "applied"
	outcomeFailed  = "failed"
	outcomeIgnored = "ignored"
)

type metrics struct {
	events        *prometheus.CounterVec
	batchDuration prometheus.Histogram
	auditFailures prometheus.Counter
}

// newMetrics creates the consumer metrics and registers them, if a registerer is given.
// Already registered collectors are reused, so that multiple consumers can share a registry.
func newMetrics(registerer prometheus.Registerer) (*metrics, error) {
	m := metrics{
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "go_bpmn_query",
			Name:      "events_total",
			Help:      "Number of consumed events by event type and outcome.",
		}, []string{"event_type", "outcome"}),
		batchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "go_bpmn_query",
			Name:      "batch_duration_seconds",
			Help:      "Time to audit and project a batch of events.",
			Buckets:   prometheus.DefBuckets,
		}),
		auditFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "go_bpmn_query",
			Name:      "audit_failures_total",
			Help:      "Number of batches, which could not be appended to the audit log.",
		}),
	}

	if registerer == nil {
		return &m, nil
	}

	if err := registerer.Register(m.events); err != nil {
		existing, err := existingCollector(err)
		if err != nil {
			return nil, err
		}
		m.events = existing.(*prometheus.CounterVec)
	}
	if err := registerer.Register(m.batchDuration); err != nil {
		existing, err := existingCollector(err)
		if err != nil {
			return nil, err
		}
		m.batchDuration = existing.(prometheus.Histogram)
	}
	if err := registerer.Register(m.auditFailures); err != nil {
		existing, err := existingCollector(err)
		if err != nil {
			return nil, err
		}
		m.auditFailures = existing.(prometheus.Counter)
	}

	return &m, nil
}

func (m *metrics) observe(events []projection.Event, result projection.ProjectResult, duration time.Duration) {
	failed := make(map[string]bool, len(result.Failed))
	for _, failure := range result.Failed {
		failed[failure.EventId] = true
	}

	for _, event := range events {
		var outcome string
		switch {
		case failed[event.Id]:
			outcome = outcomeFailed
		case event.Type() == 0:
			outcome = outcomeIgnored
		default:
			outcome = outcomeApplied
		}

		m.events.WithLabelValues(event.EventType, outcome).Inc()
	}

	m.batchDuration.Observe(duration.Seconds())
}

func existingCollector(err error) (prometheus.Collector, error) {
	var alreadyRegisteredErr prometheus.AlreadyRegisteredError
	if errors.As(err, &alreadyRegisteredErr) {
		return alreadyRegisteredErr.ExistingCollector, nil
	}
	return nil, err
}
