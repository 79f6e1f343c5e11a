// Package ast defines the expression trees reconstructed from method bodies.
package ast

import "github.com/ilkit/ilexpr/metadata"

// NoPos is the position of nodes that do not come from a single instruction,
// such as the per-slot symbols created before a body is walked.
const NoPos = -1

// Expr is a node of an expression tree. Trees are immutable once built.
type Expr interface {
	// Pos returns the offset of the instruction that produced the node.
	Pos() int

	// Type returns the static type of the value the node computes, or nil
	// when it is not known.
	Type() *metadata.Type

	// String returns a human friendly rendering of the expression.
	String() string

	exprNode()
}

// Tree is the result of transforming one method body. Root is nil for
// methods that return no value. A node may be referenced more than once,
// as slot symbols are and as a duplicated stack value is, so a tree is a DAG
// and consumers must not mutate nodes in place.
type Tree struct {
	Method *metadata.Method
	Args   []*Slot
	Locals []*Slot
	Root   Expr
}

func (t *Tree) String() string {
	if t.Root == nil {
		return "<void>"
	}
	return t.Root.String()
}
