package output

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/karatelabs/karate-v2-sub006/packages/core/runtime"
)

func sampleResult() *runtime.FeatureResult {
	return &runtime.FeatureResult{
		Name:   "users",
		Path:   "users.feature",
		Passed: 1,
		Failed: 1,
		Scenarios: []*runtime.ScenarioResult{
			{
				Name:         "create user",
				ExampleIndex: -1,
				Status:       runtime.StatusPassed,
				Duration:     12 * time.Millisecond,
				Steps: []runtime.StepResult{
					{Prefix: "*", Text: "def a = 1", Status: runtime.StatusPassed},
				},
			},
			{
				Name:           "delete user",
				ExampleIndex:   1,
				Status:         runtime.StatusFailed,
				FailureMessage: "match failed: EQUALS",
				Steps: []runtime.StepResult{
					{Prefix: "*", Text: "match a == 2", Status: runtime.StatusFailed},
					{Prefix: "*", Text: "print a", Status: runtime.StatusSkipped},
				},
			},
		},
	}
}

func TestFormatResult(t *testing.T) {
	var buf bytes.Buffer
	f := NewConsoleFormatter(WithWriter(&buf), WithNoColor(true))

	f.FormatResult(sampleResult())
	out := buf.String()

	assert.Contains(t, out, "Feature: users")
	assert.Contains(t, out, "✓ create user")
	assert.Contains(t, out, "✗ delete user [1]")
	assert.Contains(t, out, "match failed: EQUALS")
	assert.Contains(t, out, "FAIL 1 passed, 1 failed")
	assert.NotContains(t, out, "def a = 1", "steps only print in verbose mode")
}

func TestFormatResultVerbose(t *testing.T) {
	var buf bytes.Buffer
	f := NewConsoleFormatter(WithWriter(&buf), WithNoColor(true), WithVerbose(true))

	f.FormatResult(sampleResult())
	out := buf.String()

	assert.Contains(t, out, "def a = 1")
	assert.Contains(t, out, "x * match a == 2")
	assert.Contains(t, out, "- * print a")
}

func TestFormatSummary(t *testing.T) {
	var buf bytes.Buffer
	f := NewConsoleFormatter(WithWriter(&buf), WithNoColor(true))

	f.FormatSummary([]*runtime.FeatureResult{sampleResult(), {Passed: 3}})

	assert.Contains(t, buf.String(), "2 features, 4 scenarios passed, 1 failed")
}
