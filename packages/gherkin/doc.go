// Package gherkin defines the parsed feature model executed by the runtime:
// features, sections, scenarios, outlines with examples tables, steps and
// tags. It carries no parsing logic for feature text; documents arrive
// already structured (see packages/provider).
package gherkin
