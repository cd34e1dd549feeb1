package runtime

import "time"

// Status is the outcome of a step or scenario.
type Status int

const (
	StatusPassed Status = iota
	StatusFailed
	StatusSkipped
)

func (s Status) String() string {
	switch s {
	case StatusPassed:
		return "passed"
	case StatusFailed:
		return "failed"
	case StatusSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

type StepResult struct {
	Prefix   string
	Text     string
	Status   Status
	Error    string
	Duration time.Duration
}

type ScenarioResult struct {
	Name        string
	Description string

	SectionIndex int
	// ExampleIndex is -1 for scenarios that did not come from an outline.
	ExampleIndex int
	ExampleData  map[string]any

	Tags      []string
	TagValues map[string][]string

	Status         Status
	FailureMessage string
	Steps          []StepResult

	StartedAt time.Time
	Duration  time.Duration
}

func (r *ScenarioResult) Failed() bool {
	return r.Status == StatusFailed
}

type FeatureResult struct {
	Name        string
	Description string
	Path        string

	Passed  int
	Failed  int
	Skipped int

	Scenarios []*ScenarioResult

	StartedAt time.Time
	Duration  time.Duration
}

func (r *FeatureResult) add(sr *ScenarioResult) {
	r.Scenarios = append(r.Scenarios, sr)
	switch sr.Status {
	case StatusPassed:
		r.Passed++
	case StatusFailed:
		r.Failed++
	default:
		r.Skipped++
	}
}

func (r *FeatureResult) Ok() bool {
	return r.Failed == 0
}
