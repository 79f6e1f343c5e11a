package transform

import (
	"github.com/ilkit/ilexpr/ast"
	"github.com/ilkit/ilexpr/bytecode"
	"github.com/ilkit/ilexpr/errz"
	"github.com/ilkit/ilexpr/op"
)

// noStop marks a region that runs until the method returns.
const noStop = -1

// outcome is how a region ended: either control returned from the method
// with value, or it reached the region's stop offset in state.
type outcome struct {
	returned bool
	value    ast.Expr
	state    *state
}

func joined(st *state) outcome {
	return outcome{state: st}
}

func returned(value ast.Expr) outcome {
	return outcome{returned: true, value: value}
}

// region executes from ins until control reaches the instruction at stop or
// returns from the method.
func (r *run) region(ins *bytecode.Instruction, stop int, st *state) (outcome, error) {
	for ins != nil {
		if ins.Offset() == stop {
			return joined(st), nil
		}
		code := ins.Code()
		r.logger.Trace().
			Int("offset", ins.Offset()).
			Stringer("op", code).
			Int("depth", len(st.stack)).
			Msg("step")

		switch {
		case code == op.Ret:
			return r.ret(ins, st)
		case code == op.Br || code == op.BrS:
			next, done, err := r.jump(ins, stop)
			if err != nil {
				return outcome{}, err
			}
			if done {
				return joined(st), nil
			}
			ins = next
			continue
		case isConditional(code):
			return r.conditional(ins, stop, st)
		default:
			if err := r.step(ins, st); err != nil {
				return outcome{}, err
			}
		}
		ins = r.list.Next(ins)
	}
	return outcome{}, errz.Malformed(r.list.Tail().Offset(), "control falls off the end of the body")
}

func (r *run) ret(ins *bytecode.Instruction, st *state) (outcome, error) {
	var value ast.Expr
	if r.method.HasResult() {
		v, err := st.pop(ins)
		if err != nil {
			return outcome{}, err
		}
		value = v
	}
	if len(st.stack) != 0 {
		return outcome{}, errz.Malformed(ins.Offset(), "%d values left on the stack at return",
			len(st.stack)).WithOpcode(ins.Code())
	}
	return returned(value), nil
}

// jump handles an unconditional branch. A branch to the next instruction or
// to a reconvergence point continues there; a branch to the region's stop
// ends the region. Anything else is outside the structured forms the
// transformer recovers.
func (r *run) jump(ins *bytecode.Instruction, stop int) (next *bytecode.Instruction, done bool, err error) {
	target, err := r.target(ins, stop)
	if err != nil {
		return nil, false, err
	}
	switch {
	case target == r.list.Next(ins):
		return target, false, nil
	case target.Offset() == stop:
		return nil, true, nil
	case r.graph.reconverges(target.Offset()):
		return target, false, nil
	}
	return nil, false, errz.Pattern(ins.Offset(), "unstructured branch to IL_%04x", target.Offset()).WithOpcode(ins.Code())
}

// target resolves the destination of a branch and rejects back-edges and
// exits from the enclosing region.
func (r *run) target(ins *bytecode.Instruction, stop int) (*bytecode.Instruction, error) {
	b, _ := ins.Branch()
	target, ok := r.list.Target(b)
	if !ok {
		return nil, errz.Malformed(ins.Offset(), "unresolved branch to %s", b).WithOpcode(ins.Code())
	}
	if target.Offset() <= ins.Offset() {
		return nil, errz.Pattern(ins.Offset(), "backward branch to IL_%04x (loop)", target.Offset()).WithOpcode(ins.Code())
	}
	if stop != noStop && target.Offset() > stop {
		return nil, errz.Pattern(ins.Offset(), "branch to IL_%04x leaves the enclosing conditional", target.Offset()).WithOpcode(ins.Code())
	}
	return target, nil
}

func isConditional(code op.Code) bool {
	switch code {
	case op.Brfalse, op.BrfalseS, op.Brtrue, op.BrtrueS:
		return true
	}
	_, ok := compareBranches[code]
	return ok
}

// conditional recovers a forward conditional branch. Its arms start at the
// next instruction and at the branch target and each runs up to the point
// where they reconverge, or to the method's return when no such point
// exists. Code reachable from both arms before that point, such as the
// result of a short-circuit test, is walked once per arm.
func (r *run) conditional(ins *bytecode.Instruction, stop int, st *state) (outcome, error) {
	target, err := r.target(ins, stop)
	if err != nil {
		return outcome{}, err
	}
	test, jumpWhenTrue, err := r.test(ins, st)
	if err != nil {
		return outcome{}, err
	}

	join := r.graph.join(ins.Offset())
	if stop != noStop && (join == noStop || join > stop) {
		return outcome{}, errz.Pattern(ins.Offset(), "conditional does not rejoin before IL_%04x", stop).WithOpcode(ins.Code())
	}
	r.logger.Debug().
		Int("offset", ins.Offset()).
		Int("target", target.Offset()).
		Int("join", join).
		Msg("conditional")

	fall, err := r.region(r.list.Next(ins), join, st.clone())
	if err != nil {
		return outcome{}, err
	}
	jump, err := r.region(target, join, st.clone())
	if err != nil {
		return outcome{}, err
	}
	then, els := fall, jump
	if jumpWhenTrue {
		then, els = jump, fall
	}
	return r.combine(ins, test, then, els, join, stop)
}

// test pops the operands of a conditional branch and returns the tested
// expression, and whether the branch is taken when it is true.
func (r *run) test(ins *bytecode.Instruction, st *state) (ast.Expr, bool, error) {
	switch code := ins.Code(); code {
	case op.Brfalse, op.BrfalseS:
		v, err := st.pop(ins)
		return v, false, err
	case op.Brtrue, op.BrtrueS:
		v, err := st.pop(ins)
		return v, true, err
	default:
		rule := compareBranches[code]
		values, err := st.popN(ins, 2)
		if err != nil {
			return nil, false, err
		}
		return &ast.Binary{
			Offset:   ins.Offset(),
			Op:       rule.kind,
			X:        values[0],
			Y:        values[1],
			Unsigned: rule.unsigned,
		}, true, nil
	}
}

// combine joins the two arms of a conditional and continues the enclosing
// region from the reconvergence point.
func (r *run) combine(ins *bytecode.Instruction, test ast.Expr, then, els outcome, join, stop int) (outcome, error) {
	if then.returned && els.returned {
		return returned(choose(ins, test, then.value, els.value)), nil
	}
	if then.returned || els.returned {
		return outcome{}, errz.Pattern(ins.Offset(), "one arm returns while the other rejoins at IL_%04x", join).WithOpcode(ins.Code())
	}
	next, ok := r.list.FindOffset(join)
	if !ok {
		return outcome{}, errz.Malformed(ins.Offset(), "conditional rejoins past the end of the body").WithOpcode(ins.Code())
	}
	merged, err := merge(ins, test, then.state, els.state)
	if err != nil {
		return outcome{}, err
	}
	return r.region(next, stop, merged)
}

// merge combines the states of two arms at their reconvergence point. Stack
// entries and slot bindings that differ become conditionals over test.
func merge(ins *bytecode.Instruction, test ast.Expr, then, els *state) (*state, error) {
	if len(then.stack) != len(els.stack) {
		return nil, errz.Malformed(ins.Offset(), "stack height differs at reconvergence (%d vs %d)",
			len(then.stack), len(els.stack)).WithOpcode(ins.Code())
	}
	merged := &state{
		stack:  make([]ast.Expr, len(then.stack)),
		args:   make([]ast.Expr, len(then.args)),
		locals: make([]ast.Expr, len(then.locals)),
	}
	for i := range then.stack {
		merged.stack[i] = choose(ins, test, then.stack[i], els.stack[i])
	}
	for i := range then.args {
		merged.args[i] = choose(ins, test, then.args[i], els.args[i])
	}
	for i := range then.locals {
		merged.locals[i] = choose(ins, test, then.locals[i], els.locals[i])
	}
	return merged, nil
}

// choose returns the expression selecting a or b by test, or a alone when
// both are the same.
func choose(ins *bytecode.Instruction, test, a, b ast.Expr) ast.Expr {
	if a == b || ast.Equal(a, b) {
		return a
	}
	return &ast.Conditional{Offset: ins.Offset(), Test: test, Then: a, Else: b}
}
