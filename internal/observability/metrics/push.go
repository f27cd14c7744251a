package metrics

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

var ErrPushgatewayEndpointRequired = errors.New("pushgateway_endpoint_required")

// SweepReport is the outcome of a one-shot reconciliation run.
type SweepReport struct {
	Scanned      int
	Transitioned int
	Failed       int
	FinishedAt   time.Time
	Succeeded    bool
}

// PushgatewayPusher sends batch job results to a Prometheus Pushgateway.
// Short-lived processes exit before a scrape can reach them.
type PushgatewayPusher struct {
	endpoint string
	job      string
	grouping map[string]string
}

func NewPushgatewayPusher(endpoint, job string, grouping map[string]string) *PushgatewayPusher {
	return &PushgatewayPusher{
		endpoint: strings.TrimSpace(endpoint),
		job:      strings.TrimSpace(job),
		grouping: grouping,
	}
}

// PushSweep replaces the job's metric group with the given report.
func (p *PushgatewayPusher) PushSweep(ctx context.Context, report SweepReport) error {
	if p == nil {
		return nil
	}
	if p.endpoint == "" {
		return ErrPushgatewayEndpointRequired
	}
	job := p.job
	if job == "" {
		job = "reconcile_sweep"
	}

	registry := prometheus.NewRegistry()
	counts := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "gizzle",
		Subsystem: "sweep",
		Name:      "transactions",
		Help:      "Transactions handled by the last sweep run, by outcome.",
	}, []string{"outcome"})
	finished := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "gizzle",
		Subsystem: "sweep",
		Name:      "last_run_timestamp_seconds",
		Help:      "Unix time the last sweep run finished.",
	})
	lastSuccess := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "gizzle",
		Subsystem: "sweep",
		Name:      "last_success_timestamp_seconds",
		Help:      "Unix time of the last sweep run that finished without errors.",
	})
	registry.MustRegister(counts, finished)

	counts.WithLabelValues("scanned").Set(float64(report.Scanned))
	counts.WithLabelValues("transitioned").Set(float64(report.Transitioned))
	counts.WithLabelValues("failed").Set(float64(report.Failed))

	finishedAt := report.FinishedAt
	if finishedAt.IsZero() {
		finishedAt = time.Now()
	}
	finished.Set(float64(finishedAt.Unix()))

	pusher := push.New(p.endpoint, job).Gatherer(registry)
	for key, value := range p.grouping {
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		if key == "" || value == "" {
			continue
		}
		pusher = pusher.Grouping(key, value)
	}

	if report.Succeeded {
		registry.MustRegister(lastSuccess)
		lastSuccess.Set(float64(finishedAt.Unix()))
		return pusher.PushContext(ctx)
	}
	// A failed run must not wipe the previous success timestamp.
	return pusher.AddContext(ctx)
}
