package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type recordedMetric struct {
	kind string
	name string
	tags map[string]string
}

type recordingSink struct {
	metrics []recordedMetric
}

func (r *recordingSink) Count(name string, _ int64, tags map[string]string) {
	r.metrics = append(r.metrics, recordedMetric{kind: "count", name: name, tags: tags})
}

func (r *recordingSink) Gauge(name string, _ float64, tags map[string]string) {
	r.metrics = append(r.metrics, recordedMetric{kind: "gauge", name: name, tags: tags})
}

func (r *recordingSink) Timing(name string, _ time.Duration, tags map[string]string) {
	r.metrics = append(r.metrics, recordedMetric{kind: "timing", name: name, tags: tags})
}

func TestEmitReportRun(t *testing.T) {
	sink := &recordingSink{}

	EmitReportRun(sink, ReportRun{Result: ResultSuccess, Duration: time.Second})

	assert.Len(t, sink.metrics, 2)
	assert.Equal(t, "report.run", sink.metrics[0].name)
	assert.Equal(t, ResultSuccess, sink.metrics[0].tags["result"])
	assert.Equal(t, "report.duration", sink.metrics[1].name)

	// Nil sink is a no-op.
	EmitReportRun(nil, ReportRun{Result: ResultSuccess})
}

func TestEmitReportStores(t *testing.T) {
	sink := &recordingSink{}

	EmitReportStores(sink, 12)

	assert.Len(t, sink.metrics, 1)
	assert.Equal(t, "gauge", sink.metrics[0].kind)
	assert.Equal(t, "report.stores", sink.metrics[0].name)

	// Unknown fleet size skips the gauge; so does a nil sink.
	sink.metrics = nil
	EmitReportStores(sink, 0)
	assert.Empty(t, sink.metrics)
	EmitReportStores(nil, 12)
}

func TestEmitTrigger(t *testing.T) {
	sink := &recordingSink{}

	EmitTrigger(sink, true)
	EmitTrigger(sink, false)

	assert.Len(t, sink.metrics, 2)
	assert.Equal(t, "created", sink.metrics[0].tags["outcome"])
	assert.Equal(t, "joined", sink.metrics[1].tags["outcome"])

	EmitTrigger(nil, true)
}
