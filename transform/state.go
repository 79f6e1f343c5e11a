package transform

import (
	"slices"

	"github.com/ilkit/ilexpr/ast"
	"github.com/ilkit/ilexpr/bytecode"
	"github.com/ilkit/ilexpr/errz"
)

// state is the abstract machine state along one control-flow path: the
// evaluation stack and the expression currently bound to each slot.
type state struct {
	stack  []ast.Expr
	args   []ast.Expr
	locals []ast.Expr
}

func (s *state) clone() *state {
	return &state{
		stack:  slices.Clone(s.stack),
		args:   slices.Clone(s.args),
		locals: slices.Clone(s.locals),
	}
}

func (s *state) push(e ast.Expr) {
	s.stack = append(s.stack, e)
}

func (s *state) pop(ins *bytecode.Instruction) (ast.Expr, error) {
	n := len(s.stack)
	if n == 0 {
		return nil, errz.Malformed(ins.Offset(), "stack underflow").WithOpcode(ins.Code())
	}
	e := s.stack[n-1]
	s.stack = s.stack[:n-1]
	return e, nil
}

// popN pops n values and returns them in the order they were pushed.
func (s *state) popN(ins *bytecode.Instruction, n int) ([]ast.Expr, error) {
	if len(s.stack) < n {
		return nil, errz.Malformed(ins.Offset(), "stack underflow: need %d values, have %d",
			n, len(s.stack)).WithOpcode(ins.Code())
	}
	values := make([]ast.Expr, n)
	for i := n - 1; i >= 0; i-- {
		values[i], _ = s.pop(ins)
	}
	return values, nil
}

func (s *state) peek(ins *bytecode.Instruction) (ast.Expr, error) {
	if len(s.stack) == 0 {
		return nil, errz.Malformed(ins.Offset(), "stack underflow").WithOpcode(ins.Code())
	}
	return s.stack[len(s.stack)-1], nil
}

// slot returns the binding table and index for the slot ins refers to.
func (s *state) slot(ins *bytecode.Instruction) ([]ast.Expr, int, error) {
	ref, ok := ins.Slot()
	if !ok {
		return nil, 0, errz.Malformed(ins.Offset(), "missing slot operand").WithOpcode(ins.Code())
	}
	table := s.args
	if ref.Kind == bytecode.SlotLocal {
		table = s.locals
	}
	if ref.Index < 0 || ref.Index >= len(table) {
		return nil, 0, errz.Malformed(ins.Offset(), "%s is out of range (%d declared)",
			ref, len(table)).WithOpcode(ins.Code())
	}
	return table, ref.Index, nil
}
