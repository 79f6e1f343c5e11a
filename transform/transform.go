// Package transform reconstructs expression trees from decoded method bodies
// by executing them symbolically.
//
// The transformer walks the instruction list with an abstract evaluation
// stack. Loads push the expression bound to a slot, operations pop their
// operands and push a node combining them, and stores rebind a slot to the
// popped expression. Forward conditional branches are recovered as
// ast.Conditional nodes; any backward branch is rejected.
package transform

import (
	"github.com/ilkit/ilexpr/ast"
	"github.com/ilkit/ilexpr/bytecode"
	"github.com/ilkit/ilexpr/errz"
	"github.com/ilkit/ilexpr/metadata"
	"github.com/rs/zerolog"
)

// Transformer turns instruction lists into expression trees. It holds no
// per-call state and may be shared between goroutines.
type Transformer struct {
	logger zerolog.Logger
}

// New returns a Transformer configured with the given options.
func New(opts ...Option) *Transformer {
	t := &Transformer{logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Transform transforms list with a new Transformer.
func Transform(list *bytecode.List, body *metadata.MethodBody, opts ...Option) (*ast.Tree, error) {
	return New(opts...).Transform(list, body)
}

// Transform symbolically executes list, which must be the decoded code of
// body, and returns the tree computing the method's result. Either the whole
// tree is returned or an error naming the failing instruction.
func (t *Transformer) Transform(list *bytecode.List, body *metadata.MethodBody) (*ast.Tree, error) {
	if list == nil || list.Len() == 0 {
		return nil, errz.Malformed(errz.NoOffset, "empty instruction list")
	}
	if body == nil || body.Method == nil {
		return nil, errz.Malformed(errz.NoOffset, "missing method descriptor")
	}
	tree := &ast.Tree{Method: body.Method}
	st := &state{}
	for i, typ := range body.ArgTypes() {
		slot := &ast.Slot{Kind: bytecode.SlotArg, Index: i, T: typ}
		tree.Args = append(tree.Args, slot)
		st.args = append(st.args, slot)
	}
	for i, typ := range body.Locals {
		slot := &ast.Slot{Kind: bytecode.SlotLocal, Index: i, T: typ}
		tree.Locals = append(tree.Locals, slot)
		st.locals = append(st.locals, slot)
	}

	r := &run{
		list:   list,
		graph:  newGraph(list),
		method: body.Method,
		logger: t.logger.With().Str("method", body.Method.String()).Logger(),
	}
	out, err := r.region(list.Head(), noStop, st)
	if err != nil {
		r.logger.Debug().Err(err).Msg("transform failed")
		return nil, err
	}
	tree.Root = out.value
	r.logger.Debug().Stringer("tree", tree).Msg("transformed")
	return tree, nil
}

// run is the state of one Transform call.
type run struct {
	list   *bytecode.List
	graph  *graph
	method *metadata.Method
	logger zerolog.Logger
}
