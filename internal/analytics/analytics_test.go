package analytics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
)

func TestCountersIncrementAndReport(t *testing.T) {
	c := New(prometheus.NewRegistry())
	c.Gets.Inc()
	c.Gets.Inc()
	c.Health.Inc()

	report := c.Report()
	assert.Contains(t, report, "gets: 2")
	assert.Contains(t, report, "health: 1")
}

func TestCountersUptimeIsPositive(t *testing.T) {
	c := New(prometheus.NewRegistry())
	assert.GreaterOrEqual(t, c.Uptime(), time.Duration(0))
}
