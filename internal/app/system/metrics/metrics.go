// internal/app/system/metrics/metrics.go
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Notification kinds and outcomes used as label values.
const (
	KindCoordinator = "coordinator"
	KindDonor       = "donor"
	KindAPI         = "api"

	OutcomeSent   = "sent"
	OutcomeFailed = "failed"
)

// Recorder counts notification and emergency events. The zero value is not
// usable; construct with New.
type Recorder struct {
	registry      *prometheus.Registry
	notifications *prometheus.CounterVec
	emergencies   prometheus.Counter
}

// New builds a Recorder on its own registry, with Go and process collectors.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	rec := &Recorder{
		registry: reg,
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bloodconnect_notifications_total",
			Help: "Notification emails attempted, by kind and outcome.",
		}, []string{"kind", "outcome"}),
		emergencies: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bloodconnect_emergencies_total",
			Help: "Emergency requests recorded.",
		}),
	}
	reg.MustRegister(
		rec.notifications,
		rec.emergencies,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return rec
}

// Notification counts one send attempt. Nil receivers are ignored so
// callers can run without metrics in tests.
func (r *Recorder) Notification(kind string, ok bool) {
	if r == nil {
		return
	}
	outcome := OutcomeSent
	if !ok {
		outcome = OutcomeFailed
	}
	r.notifications.WithLabelValues(kind, outcome).Inc()
}

// Emergency counts one recorded request.
func (r *Recorder) Emergency() {
	if r == nil {
		return
	}
	r.emergencies.Inc()
}

// Handler serves the registry in the Prometheus text format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
