package gherkin

import "strings"

const (
	TagSetup  = "setup"
	TagIgnore = "ignore"
)

// Tag is a parsed annotation. @smoke becomes {Name: "smoke"}, while
// @env=dev,qa becomes {Name: "env", Values: ["dev", "qa"]}.
type Tag struct {
	Name   string
	Values []string
}

// ParseTag parses one raw tag token, with or without the leading '@'.
func ParseTag(raw string) Tag {
	raw = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(raw), "@"))
	name, rest, found := strings.Cut(raw, "=")
	tag := Tag{Name: name}
	if found {
		for _, v := range strings.Split(rest, ",") {
			tag.Values = append(tag.Values, strings.TrimSpace(v))
		}
	}
	return tag
}

func ParseTags(raw []string) []Tag {
	if len(raw) == 0 {
		return nil
	}
	tags := make([]Tag, 0, len(raw))
	for _, r := range raw {
		tags = append(tags, ParseTag(r))
	}
	return tags
}

func (t Tag) String() string {
	if len(t.Values) == 0 {
		return "@" + t.Name
	}
	return "@" + t.Name + "=" + strings.Join(t.Values, ",")
}

// EffectiveTags returns the feature-level and scenario-level tags flattened
// into display strings, feature tags first.
func EffectiveTags(feature []Tag, scenario []Tag) []string {
	out := make([]string, 0, len(feature)+len(scenario))
	for _, t := range feature {
		out = append(out, t.String())
	}
	for _, t := range scenario {
		out = append(out, t.String())
	}
	return out
}

// MergeTagValues merges feature and scenario tags into a name to value-list
// map. Scenario-level values replace feature-level ones for the same name.
// A bare tag maps to an empty list.
func MergeTagValues(feature []Tag, scenario []Tag) map[string][]string {
	out := map[string][]string{}
	for _, t := range feature {
		out[t.Name] = valuesOrEmpty(t)
	}
	for _, t := range scenario {
		out[t.Name] = valuesOrEmpty(t)
	}
	return out
}

func valuesOrEmpty(t Tag) []string {
	if t.Values == nil {
		return []string{}
	}
	return t.Values
}
