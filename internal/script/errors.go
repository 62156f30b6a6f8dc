package script

import "fmt"

// SyntaxError reports a lexing or parsing failure with a 1-based position.
type SyntaxError struct {
	Msg  string
	Line int
	Col  int
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at %d:%d: %s", e.Line, e.Col, e.Msg)
}

// RuntimeError reports an evaluation failure with a 1-based position.
type RuntimeError struct {
	Msg  string
	Line int
	Col  int
}

func (e *RuntimeError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("runtime error at %d:%d: %s", e.Line, e.Col, e.Msg)
	}
	return "runtime error: " + e.Msg
}

// BudgetError reports that the interpreter's step budget was exhausted.
// Callers use errors.As to distinguish a runaway script from an ordinary
// runtime failure.
type BudgetError struct {
	Limit int
}

func (e *BudgetError) Error() string {
	return fmt.Sprintf("script exceeded the step budget (limit %d)", e.Limit)
}
