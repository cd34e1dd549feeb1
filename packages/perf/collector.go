// Package perf collects step and scenario timings during a run. It hooks
// into the runtime and aggregates durations into HDR histograms for
// percentile reporting.
package perf

import (
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"

	"github.com/karatelabs/karate-v2-sub006/packages/core/runtime"
	"github.com/karatelabs/karate-v2-sub006/packages/gherkin"
)

// Collector implements runtime.Hook. Safe for concurrent use.
type Collector struct {
	mu        sync.Mutex
	steps     *hdrhistogram.Histogram
	scenarios *hdrhistogram.Histogram
	failures  int
}

// histograms track microseconds from 1us to 10 minutes at 3 significant
// digits
func NewCollector() *Collector {
	return &Collector{
		steps:     hdrhistogram.New(1, 600_000_000, 3),
		scenarios: hdrhistogram.New(1, 600_000_000, 3),
	}
}

func (c *Collector) BeforeScenario(*gherkin.Scenario) {}

func (c *Collector) AfterStep(_ *gherkin.Scenario, step runtime.StepResult) {
	if step.Status == runtime.StatusSkipped {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.steps.RecordValue(step.Duration.Microseconds())
}

func (c *Collector) AfterScenario(res *runtime.ScenarioResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.scenarios.RecordValue(res.Duration.Microseconds())
	if res.Failed() {
		c.failures++
	}
}

// Summary is a point-in-time snapshot of collected timings.
type Summary struct {
	Steps     Timing
	Scenarios Timing
	Failures  int
}

type Timing struct {
	Count int64
	Mean  time.Duration
	P50   time.Duration
	P95   time.Duration
	P99   time.Duration
	Max   time.Duration
}

func (c *Collector) Summary() Summary {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Summary{
		Steps:     timingOf(c.steps),
		Scenarios: timingOf(c.scenarios),
		Failures:  c.failures,
	}
}

func timingOf(h *hdrhistogram.Histogram) Timing {
	return Timing{
		Count: h.TotalCount(),
		Mean:  time.Duration(h.Mean()) * time.Microsecond,
		P50:   time.Duration(h.ValueAtQuantile(50)) * time.Microsecond,
		P95:   time.Duration(h.ValueAtQuantile(95)) * time.Microsecond,
		P99:   time.Duration(h.ValueAtQuantile(99)) * time.Microsecond,
		Max:   time.Duration(h.Max()) * time.Microsecond,
	}
}
