// Package analytics tracks the server-wide request counters and uptime
// that back both Prometheus scraping and the /health report.
package analytics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// Counters is process-wide but, like handlerregistry.Registry, built as
// an explicit value rather than a package-level singleton.
type Counters struct {
	Gets      prometheus.Counter
	Posts     prometheus.Counter
	Invalid   prometheus.Counter
	Malicious prometheus.Counter
	Health    prometheus.Counter

	startTime time.Time
}

// New returns a Counters registered against reg. reg may be
// prometheus.NewRegistry() for an isolated registry, or
// prometheus.DefaultRegisterer to expose on the default /metrics path.
func New(reg prometheus.Registerer) *Counters {
	c := &Counters{
		Gets: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "nginxgod_requests_get_total",
			Help: "Total GET requests dispatched to the file handler.",
		}),
		Posts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "nginxgod_requests_post_total",
			Help: "Total POST requests dispatched to the dynamic handler.",
		}),
		Invalid: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "nginxgod_requests_invalid_total",
			Help: "Total requests rejected by the request verifier.",
		}),
		Malicious: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "nginxgod_requests_malicious_total",
			Help: "Total requests flagged as malicious (traversal attempts, missing executables).",
		}),
		Health: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "nginxgod_requests_health_total",
			Help: "Total /health requests.",
		}),
		startTime: time.Now(),
	}

	reg.MustRegister(c.Gets, c.Posts, c.Invalid, c.Malicious, c.Health)
	return c
}

// Uptime reports how long this Counters value has existed.
func (c *Counters) Uptime() time.Duration {
	return time.Since(c.startTime)
}

// Report renders the short HTML counters/uptime summary served by the
// health handler.
func (c *Counters) Report() string {
	return fmt.Sprintf(
		"<html><body><h1>nginxgod</h1>"+
			"<p>uptime: %s</p>"+
			"<p>gets: %d</p>"+
			"<p>posts: %d</p>"+
			"<p>invalid: %d</p>"+
			"<p>malicious: %d</p>"+
			"<p>health: %d</p>"+
			"</body></html>",
		c.Uptime().Round(time.Second),
		int(counterValue(c.Gets)),
		int(counterValue(c.Posts)),
		int(counterValue(c.Invalid)),
		int(counterValue(c.Malicious)),
		int(counterValue(c.Health)),
	)
}

func counterValue(c prometheus.Counter) float64 {
	m := &dto.Metric{}
	if err := c.Write(m); err != nil {
		return 0
	}
	return m.GetCounter().GetValue()
}
