package transform

import (
	"math"

	"github.com/ilkit/ilexpr/bytecode"
	"github.com/ilkit/ilexpr/op"
)

// exit is the virtual node every return flows into.
const exit = math.MaxInt

// graph is the forward control-flow graph of a method body, keyed by
// instruction offset. Back-edges and unresolved branches are left out; the
// walk reports them when it reaches them.
type graph struct {
	// ipdom maps each instruction to its immediate post-dominator: the first
	// point every path from it passes through. For a conditional branch this
	// is where its two arms reconverge.
	ipdom map[int]int
	// preds counts the reachable predecessors of each instruction.
	preds map[int]int
}

func newGraph(list *bytecode.List) *graph {
	g := &graph{ipdom: make(map[int]int), preds: make(map[int]int)}
	if list.Len() == 0 {
		return g
	}
	reachable := map[int]bool{list.Head().Offset(): true}
	for ins := range list.Instructions() {
		if !reachable[ins.Offset()] {
			continue
		}
		for _, s := range successors(list, ins) {
			if s != exit {
				reachable[s] = true
				g.preds[s]++
			}
		}
	}
	// Every edge points forward, so walking backwards visits each
	// instruction after all of its successors.
	for ins := list.Tail(); ins != nil; ins = list.Prev(ins) {
		succ := successors(list, ins)
		d := succ[0]
		for _, s := range succ[1:] {
			d = g.intersect(d, s)
		}
		g.ipdom[ins.Offset()] = d
	}
	return g
}

// intersect returns the nearest common post-dominator of a and b.
func (g *graph) intersect(a, b int) int {
	for a != b {
		if a < b {
			a = g.ipdom[a]
		} else {
			b = g.ipdom[b]
		}
	}
	return a
}

// join returns where the arms of the conditional branch at offset rejoin,
// or noStop when both of them return from the method.
func (g *graph) join(offset int) int {
	d, ok := g.ipdom[offset]
	if !ok || d == exit {
		return noStop
	}
	return d
}

// reconverges reports whether more than one reachable path enters offset.
func (g *graph) reconverges(offset int) bool {
	return g.preds[offset] > 1
}

// successors returns the offsets control may continue at after ins. The
// result is never empty.
func successors(list *bytecode.List, ins *bytecode.Instruction) []int {
	if ins.Code() == op.Ret {
		return []int{exit}
	}
	next := exit
	if n := list.Next(ins); n != nil {
		next = n.Offset()
	}
	b, ok := ins.Branch()
	if !ok {
		return []int{next}
	}
	var succ []int
	if target, ok := list.Target(b); ok && target.Offset() > ins.Offset() {
		succ = append(succ, target.Offset())
	}
	if isConditional(ins.Code()) {
		succ = append(succ, next)
	}
	if len(succ) == 0 {
		succ = append(succ, exit)
	}
	return succ
}
