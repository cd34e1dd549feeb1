package runtime

import "github.com/karatelabs/karate-v2-sub006/packages/gherkin"

// Hook observes scenario execution. Hooks never influence outcomes; they are
// for timing collectors and reporters.
type Hook interface {
	BeforeScenario(sc *gherkin.Scenario)
	AfterStep(sc *gherkin.Scenario, step StepResult)
	AfterScenario(res *ScenarioResult)
}

// NopHook makes partial hook implementations easy to embed.
type NopHook struct{}

func (NopHook) BeforeScenario(*gherkin.Scenario)        {}
func (NopHook) AfterStep(*gherkin.Scenario, StepResult) {}
func (NopHook) AfterScenario(*ScenarioResult)           {}
