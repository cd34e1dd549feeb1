package runtime

import (
	"fmt"
	"strings"

	"github.com/karatelabs/karate-v2-sub006/packages/expect"
	"github.com/karatelabs/karate-v2-sub006/packages/match"
)

type stepKind int

const (
	stepDef stepKind = iota
	stepMatch
	stepAssert
	stepPrint
	stepExpr
)

type stepCommand struct {
	kind      stepKind
	name      string // def target
	expr      string // def rhs, assert, print or bare expression
	lhs       string
	rhs       string
	matchType match.Type
}

// matchOperators in longest-first order so 'contains deep' wins over
// 'contains' and '!contains' over 'contains'.
var matchOperators = []struct {
	token string
	typ   match.Type
}{
	{" contains deep ", match.ContainsDeep},
	{" !contains ", match.NotContains},
	{" contains ", match.Contains},
	{" == ", match.Equals},
	{" != ", match.NotEquals},
}

// parseStep classifies one step's text into a command. A docstring argument
// becomes the right-hand side where the text leaves it empty.
func parseStep(text, docstring string) (stepCommand, error) {
	text = strings.TrimSpace(text)
	switch {
	case strings.HasPrefix(text, "def "):
		rest := strings.TrimSpace(strings.TrimPrefix(text, "def "))
		name, expr, found := strings.Cut(rest, "=")
		name = strings.TrimSpace(name)
		expr = strings.TrimSpace(expr)
		if name == "" || (!found && docstring == "") {
			return stepCommand{}, fmt.Errorf("malformed def step: %s", text)
		}
		if expr == "" && docstring != "" {
			expr = docstring
		}
		return stepCommand{kind: stepDef, name: name, expr: expr}, nil
	case strings.HasPrefix(text, "match "):
		rest := strings.TrimPrefix(text, "match ")
		if i, typ, token, ok := findMatchOperator(rest); ok {
			lhs := strings.TrimSpace(rest[:i])
			rhs := strings.TrimSpace(rest[i+len(token):])
			if rhs == "" {
				rhs = docstring
			}
			if lhs == "" || rhs == "" {
				return stepCommand{}, fmt.Errorf("malformed match step: %s", text)
			}
			return stepCommand{kind: stepMatch, lhs: lhs, rhs: rhs, matchType: typ}, nil
		}
		// trailing operator with a docstring right-hand side
		for _, op := range matchOperators {
			token := strings.TrimRight(op.token, " ")
			if strings.HasSuffix(rest, token) && docstring != "" {
				lhs := strings.TrimSpace(strings.TrimSuffix(rest, token))
				if lhs != "" {
					return stepCommand{kind: stepMatch, lhs: lhs, rhs: docstring, matchType: op.typ}, nil
				}
			}
		}
		return stepCommand{}, fmt.Errorf("malformed match step: %s", text)
	case strings.HasPrefix(text, "assert "):
		return stepCommand{kind: stepAssert, expr: strings.TrimSpace(strings.TrimPrefix(text, "assert "))}, nil
	case strings.HasPrefix(text, "print "):
		return stepCommand{kind: stepPrint, expr: strings.TrimSpace(strings.TrimPrefix(text, "print "))}, nil
	default:
		if text == "" {
			return stepCommand{}, fmt.Errorf("empty step")
		}
		return stepCommand{kind: stepExpr, expr: text}, nil
	}
}

// findMatchOperator locates the first operator token outside quotes and
// brackets, scanning left to right with longest tokens first at each
// position.
func findMatchOperator(rest string) (idx int, typ match.Type, token string, found bool) {
	depth := 0
	var quote byte
	for i := 0; i < len(rest); i++ {
		ch := rest[i]
		if quote != 0 {
			if ch == quote {
				quote = 0
			}
			continue
		}
		switch ch {
		case '\'', '"':
			quote = ch
		case '{', '[', '(':
			depth++
		case '}', ']', ')':
			depth--
		}
		if depth != 0 || quote != 0 {
			continue
		}
		for _, op := range matchOperators {
			if strings.HasPrefix(rest[i:], op.token) {
				return i, op.typ, op.token, true
			}
		}
	}
	return 0, 0, "", false
}

func (cmd stepCommand) run(sr *ScenarioRuntime) error {
	switch cmd.kind {
	case stepDef:
		v, err := sr.eval(cmd.expr)
		if err != nil {
			return err
		}
		sr.scope.Set(cmd.name, v)
		return nil
	case stepMatch:
		actual, err := sr.eval(cmd.lhs)
		if err != nil {
			return err
		}
		expected, err := sr.eval(cmd.rhs)
		if err != nil {
			return err
		}
		r := match.Compare(actual, expected, cmd.matchType)
		if !r.Pass {
			return &expect.AssertionError{Msg: fmt.Sprintf("match failed: %s\n%s", cmd.matchType, r.Message)}
		}
		return nil
	case stepAssert:
		v, err := sr.eval(cmd.expr)
		if err != nil {
			return err
		}
		if !expect.Truthy(v) {
			return &expect.AssertionError{Msg: fmt.Sprintf("assert evaluated to false: %s", cmd.expr)}
		}
		return nil
	case stepPrint:
		v, err := sr.eval(cmd.expr)
		if err != nil {
			return err
		}
		sr.feature.print(fmt.Sprintf("%v", v))
		return nil
	default:
		_, err := sr.eval(cmd.expr)
		return err
	}
}
