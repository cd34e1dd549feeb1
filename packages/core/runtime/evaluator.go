package runtime

// Evaluator is the embedded-expression capability. The runtime treats it as
// opaque: it hands over the expression text and the current scope and gets a
// value or an error back. See packages/core/literal for the default.
type Evaluator interface {
	Evaluate(expr string, scope *Scope) (any, error)
}

// EvaluatorFunc adapts a function to the Evaluator interface.
type EvaluatorFunc func(expr string, scope *Scope) (any, error)

func (f EvaluatorFunc) Evaluate(expr string, scope *Scope) (any, error) {
	return f(expr, scope)
}

// Function is a callable value an evaluator may produce, such as a row
// generator referenced from a dynamic examples source.
type Function func(scope *Scope, args ...any) (any, error)
