// Package bytecode provides the decoded form of a compiled method body.
//
// A method body is held as a [List] of [Instruction] values. Each instruction
// carries an immutable opcode and [Operand]; its position in the body and its
// links to its neighbours are owned by the list.
//
// # Key Types
//
//   - [List]: An arena of instructions linked in stream order
//   - [Instruction]: An opcode, its decoded operand, and its byte offset
//   - [Operand]: The closed set of operand variants ([BranchTarget],
//     [FieldRef], [MethodRef], [TypeRef], [StringRef], [Immediate],
//     [SlotRef], [DataBlob])
//
// # Arena Addressing
//
// Instructions are stored by index and link to each other by index. Splicing
// an instruction in or out never moves another instruction, so branch
// targets, which record the index of the instruction they jump to, stay
// valid across edits:
//
//	list.InsertAfter(list.Head(), bytecode.MustInstruction(op.Nop, nil))
//	for ins := range list.Instructions() {
//	    fmt.Println(ins)
//	}
//
// Offsets are never stored independently of the chain. After every splice
// they are recomputed from the head, so offset(n) = offset(prev(n)) +
// length(prev(n)) always holds. [List.Verify] checks this and the other
// structural invariants.
//
// # Package Dependencies
//
// This package depends on [github.com/ilkit/ilexpr/op] for opcode facts and
// [github.com/ilkit/ilexpr/metadata] for the symbols operands resolve to.
package bytecode
