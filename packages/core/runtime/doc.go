// Package runtime executes parsed features: scopes and step commands,
// scenario and feature runtimes, outline expansion with static, inline,
// setup-backed and generator-backed examples sources, a per-run setupOnce
// cache, and the result tree handed to reporters.
package runtime
