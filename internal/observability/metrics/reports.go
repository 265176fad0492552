// Package metrics standardises metric names and tags for report lifecycle
// events so dashboards do not depend on call sites agreeing by accident.
package metrics

import (
	"time"

	"github.com/loopkitchen/storewatch/internal/observability/statsd"
)

// Result values for the report run counter.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

// ReportRun captures the outcome of one report generation run.
type ReportRun struct {
	Result   string
	Duration time.Duration
}

// EmitReportRun emits the standard counter and timing for a finished report
// run. A nil sink drops everything.
func EmitReportRun(sink statsd.Sink, run ReportRun) {
	if sink == nil {
		return
	}

	tags := map[string]string{"result": run.Result}
	sink.Count("report.run", 1, tags)
	sink.Timing("report.duration", run.Duration, tags)
}

// EmitReportStores gauges the fleet size covered by the latest artifact.
func EmitReportStores(sink statsd.Sink, stores int) {
	if sink == nil || stores <= 0 {
		return
	}
	sink.Gauge("report.stores", float64(stores), nil)
}

// EmitTrigger counts trigger requests, split by whether a new run started.
func EmitTrigger(sink statsd.Sink, created bool) {
	if sink == nil {
		return
	}
	outcome := "joined"
	if created {
		outcome = "created"
	}
	sink.Count("report.trigger", 1, map[string]string{"outcome": outcome})
}
