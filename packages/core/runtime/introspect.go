package runtime

import (
	goruntime "runtime"

	"github.com/karatelabs/karate-v2-sub006/packages/gherkin"
)

// osInfo reports the host platform as expressions see it under 'os'.
func osInfo() map[string]any {
	osType := "unknown"
	switch goruntime.GOOS {
	case "windows":
		osType = "windows"
	case "darwin":
		osType = "macosx"
	case "linux":
		osType = "linux"
	}
	return map[string]any{"type": osType, "name": goruntime.GOOS}
}

// bindIntrospection installs the read-only bindings step expressions can
// reference: info, scenario, feature, tags, tagValues, os and env.
func (sr *ScenarioRuntime) bindIntrospection(scope *Scope) {
	f := sr.feature.feature
	sc := sr.scenario

	sr.info = map[string]any{
		"name":         sc.Name,
		"description":  sc.Description,
		"errorMessage": nil,
	}
	scope.Set("info", sr.info)
	scope.Set("scenario", map[string]any{
		"name":         sc.Name,
		"description":  sc.Description,
		"sectionIndex": sc.SectionIndex,
		"exampleIndex": sc.ExampleIndex,
		"exampleData":  sc.ExampleData,
		"line":         sc.Line,
	})
	scope.Set("feature", map[string]any{
		"name":        f.Name,
		"description": f.Description,
		"path":        f.Path,
	})
	tags := gherkin.EffectiveTags(f.Tags, sc.Tags)
	tagList := make([]any, len(tags))
	for i, t := range tags {
		tagList[i] = t
	}
	scope.Set("tags", tagList)
	tagValues := map[string]any{}
	for name, values := range gherkin.MergeTagValues(f.Tags, sc.Tags) {
		list := make([]any, len(values))
		for i, v := range values {
			list[i] = v
		}
		tagValues[name] = list
	}
	scope.Set("tagValues", tagValues)
	scope.Set("os", osInfo())
	if sr.feature.opts.env != "" {
		scope.Set("env", sr.feature.opts.env)
	}
}
