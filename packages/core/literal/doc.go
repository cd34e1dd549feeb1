// Package literal implements the default runtime.Evaluator. It understands
// literal values in YAML/JSON syntax, variable paths, function calls and
// simple comparisons, which is enough for feature documents that carry
// their data inline.
package literal
