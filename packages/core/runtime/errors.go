package runtime

import "fmt"

// ConfigError marks a structural problem with the feature itself, such as a
// missing setup scenario or a dynamic examples source that does not yield
// rows. It is fatal to the enclosing feature run.
type ConfigError struct {
	Msg string
}

func (e *ConfigError) Error() string {
	return e.Msg
}

func configErrorf(format string, args ...any) *ConfigError {
	return &ConfigError{Msg: fmt.Sprintf(format, args...)}
}

// EvalError wraps a syntax or runtime failure raised while evaluating an
// embedded expression. It fails the surrounding step but stays local to its
// scenario.
type EvalError struct {
	Expr string
	Err  error
}

func (e *EvalError) Error() string {
	return fmt.Sprintf("evaluation of '%s' failed: %v", e.Expr, e.Err)
}

func (e *EvalError) Unwrap() error {
	return e.Err
}
