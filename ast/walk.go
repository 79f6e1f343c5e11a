package ast

import "iter"

// Visitor defines the interface for tree traversal. If Visit returns nil,
// children of the node are not visited. Otherwise, the returned Visitor is
// used to visit children.
type Visitor interface {
	Visit(node Expr) (w Visitor)
}

// Walk traverses a tree in depth-first order. It starts by calling
// v.Visit(node); if the returned visitor w is not nil, Walk is invoked
// recursively with visitor w for each of the non-nil children of node.
func Walk(v Visitor, node Expr) {
	if v = v.Visit(node); v == nil {
		return
	}
	for _, child := range Children(node) {
		Walk(v, child)
	}
}

// Children returns the non-nil direct children of node in evaluation order.
func Children(node Expr) []Expr {
	var children []Expr
	add := func(exprs ...Expr) {
		for _, e := range exprs {
			if e != nil {
				children = append(children, e)
			}
		}
	}
	switch n := node.(type) {
	case *Constant, *Slot:
	case *FieldAccess:
		add(n.X)
	case *ArrayAccess:
		add(n.X, n.Index)
	case *Call:
		add(n.Receiver)
		add(n.Args...)
	case *Unary:
		add(n.X)
	case *Binary:
		add(n.X, n.Y)
	case *Convert:
		add(n.X)
	case *Conditional:
		add(n.Test, n.Then, n.Else)
	}
	return children
}

type inspector func(Expr) bool

func (f inspector) Visit(node Expr) Visitor {
	if f(node) {
		return f
	}
	return nil
}

// Inspect traverses a tree in depth-first order, calling f for each node.
// If f returns false, the children of that node are skipped.
func Inspect(node Expr, f func(Expr) bool) {
	Walk(inspector(f), node)
}

// Preorder returns an iterator over all nodes of the tree in depth-first
// preorder.
func Preorder(root Expr) iter.Seq[Expr] {
	return func(yield func(Expr) bool) {
		var visit func(Expr) bool
		visit = func(n Expr) bool {
			if !yield(n) {
				return false
			}
			for _, child := range Children(n) {
				if !visit(child) {
					return false
				}
			}
			return true
		}
		if root != nil {
			visit(root)
		}
	}
}
