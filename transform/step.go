package transform

import (
	"github.com/ilkit/ilexpr/ast"
	"github.com/ilkit/ilexpr/bytecode"
	"github.com/ilkit/ilexpr/errz"
	"github.com/ilkit/ilexpr/metadata"
	"github.com/ilkit/ilexpr/op"
)

// step applies the stack effect of one straight-line instruction. Control
// transfers are handled by the caller.
func (r *run) step(ins *bytecode.Instruction, st *state) error {
	code := ins.Code()
	pos := ins.Offset()

	if rule, ok := binaryRules[code]; ok {
		values, err := st.popN(ins, 2)
		if err != nil {
			return err
		}
		st.push(&ast.Binary{
			Offset:   pos,
			Op:       rule.kind,
			X:        values[0],
			Y:        values[1],
			Unsigned: rule.unsigned,
			Checked:  rule.checked,
		})
		return nil
	}
	if kind, ok := unaryRules[code]; ok {
		x, err := st.pop(ins)
		if err != nil {
			return err
		}
		st.push(&ast.Unary{Offset: pos, Op: kind, X: x})
		return nil
	}
	if rule, ok := convRules[code]; ok {
		x, err := st.pop(ins)
		if err != nil {
			return err
		}
		var e ast.Expr = &ast.Convert{
			Offset:   pos,
			Op:       ast.Numeric,
			X:        x,
			To:       rule.to,
			Checked:  rule.checked,
			Unsigned: rule.unsigned,
		}
		if narrow(rule.to) {
			e = &ast.Convert{Offset: pos, Op: ast.Numeric, X: e, To: metadata.Int32}
		}
		st.push(e)
		return nil
	}
	if kind, ok := castRules[code]; ok {
		to, err := typeOf(ins)
		if err != nil {
			return err
		}
		if kind == ast.Box {
			to = metadata.Object
		}
		x, err := st.pop(ins)
		if err != nil {
			return err
		}
		st.push(&ast.Convert{Offset: pos, Op: kind, X: x, To: to})
		return nil
	}
	if elem, ok := elemTypes[code]; ok {
		return r.loadElem(ins, st, elem)
	}

	switch code {
	case op.Nop, op.Break, op.Volatile, op.Tail, op.Readonly, op.Unaligned, op.No, op.Constrained:
		return nil

	case op.Ldarg0, op.Ldarg1, op.Ldarg2, op.Ldarg3, op.LdargS, op.Ldarg, op.LdargaS, op.Ldarga,
		op.Ldloc0, op.Ldloc1, op.Ldloc2, op.Ldloc3, op.LdlocS, op.Ldloc, op.LdlocaS, op.Ldloca:
		table, i, err := st.slot(ins)
		if err != nil {
			return err
		}
		st.push(table[i])
		return nil

	case op.Stloc0, op.Stloc1, op.Stloc2, op.Stloc3, op.StlocS, op.Stloc, op.StargS, op.Starg:
		table, i, err := st.slot(ins)
		if err != nil {
			return err
		}
		v, err := st.pop(ins)
		if err != nil {
			return err
		}
		table[i] = v
		return nil

	case op.Ldnull:
		st.push(&ast.Constant{Offset: pos, T: metadata.Object})
	case op.LdcI4M1, op.LdcI40, op.LdcI41, op.LdcI42, op.LdcI43, op.LdcI44, op.LdcI45, op.LdcI46, op.LdcI47, op.LdcI48:
		st.push(&ast.Constant{Offset: pos, Value: int32(code) - int32(op.LdcI40), T: metadata.Int32})
	case op.LdcI4S, op.LdcI4, op.LdcI8, op.LdcR4, op.LdcR8:
		c, err := constant(ins)
		if err != nil {
			return err
		}
		st.push(c)
	case op.Ldstr:
		ref, ok := ins.Operand().(bytecode.StringRef)
		if !ok || !ref.OK {
			return errz.Malformed(pos, "unresolved string %s", ins.Operand()).WithOpcode(code)
		}
		st.push(&ast.Constant{Offset: pos, Value: ref.Value, T: metadata.String})

	case op.Dup:
		v, err := st.peek(ins)
		if err != nil {
			return err
		}
		st.push(v)
	case op.Pop:
		_, err := st.pop(ins)
		return err

	case op.Ldfld, op.Ldflda:
		f, err := fieldOf(ins)
		if err != nil {
			return err
		}
		x, err := st.pop(ins)
		if err != nil {
			return err
		}
		st.push(&ast.FieldAccess{Offset: pos, X: x, Field: f})
	case op.Ldsfld, op.Ldsflda:
		f, err := fieldOf(ins)
		if err != nil {
			return err
		}
		st.push(&ast.FieldAccess{Offset: pos, Field: f})

	case op.Ldelema, op.Ldelem:
		elem, err := typeOf(ins)
		if err != nil {
			return err
		}
		return r.loadElem(ins, st, elem)

	case op.Ldobj:
		_, err := st.peek(ins)
		return err

	case op.Ldtoken:
		c, err := token(ins)
		if err != nil {
			return err
		}
		st.push(c)

	case op.Call, op.Callvirt, op.Newobj:
		return r.call(ins, st)

	default:
		return errz.Unsupported(pos, code)
	}
	return nil
}

func (r *run) loadElem(ins *bytecode.Instruction, st *state, elem *metadata.Type) error {
	values, err := st.popN(ins, 2)
	if err != nil {
		return err
	}
	st.push(&ast.ArrayAccess{Offset: ins.Offset(), X: values[0], Index: values[1], Elem: elem})
	return nil
}

// call pops the arguments of a call in reverse, then the receiver of an
// instance callee, and pushes the call.
func (r *run) call(ins *bytecode.Instruction, st *state) error {
	code, pos := ins.Code(), ins.Offset()
	ref, ok := ins.Operand().(bytecode.MethodRef)
	if !ok || ref.Method == nil {
		return errz.Malformed(pos, "unresolved method %s", ins.Operand()).WithOpcode(code)
	}
	m := ref.Method
	if code == op.Newobj {
		args, err := st.popN(ins, m.Arity())
		if err != nil {
			return err
		}
		st.push(&ast.Call{Offset: pos, Method: m, Args: args, New: true})
		return nil
	}
	if code == op.Call && !m.Static && len(st.stack) < m.Arity()+1 {
		return errz.Pattern(pos, "call to instance method %s without a receiver", m).WithOpcode(code)
	}
	if !m.HasResult() {
		return errz.Pattern(pos, "call to %s has no value", m).WithOpcode(code)
	}
	args, err := st.popN(ins, m.Arity())
	if err != nil {
		return err
	}
	var recv ast.Expr
	if !m.Static {
		if recv, err = st.pop(ins); err != nil {
			return err
		}
	}
	st.push(&ast.Call{
		Offset:   pos,
		Method:   m,
		Receiver: recv,
		Args:     args,
		Virtual:  code == op.Callvirt,
	})
	return nil
}

func constant(ins *bytecode.Instruction) (*ast.Constant, error) {
	c := &ast.Constant{Offset: ins.Offset()}
	switch v := ins.Operand().(type) {
	case bytecode.Immediate[int8]:
		c.Value, c.T = int32(v.Value), metadata.Int32
	case bytecode.Immediate[int32]:
		c.Value, c.T = v.Value, metadata.Int32
	case bytecode.Immediate[int64]:
		c.Value, c.T = v.Value, metadata.Int64
	case bytecode.Immediate[float32]:
		c.Value, c.T = v.Value, metadata.Float32
	case bytecode.Immediate[float64]:
		c.Value, c.T = v.Value, metadata.Float64
	default:
		return nil, errz.Malformed(ins.Offset(), "unexpected operand %v", ins.Operand()).WithOpcode(ins.Code())
	}
	return c, nil
}

func token(ins *bytecode.Instruction) (*ast.Constant, error) {
	c := &ast.Constant{Offset: ins.Offset(), T: metadata.RuntimeHandle}
	switch v := ins.Operand().(type) {
	case bytecode.TypeRef:
		if v.Type != nil {
			c.Value = v.Type
			return c, nil
		}
	case bytecode.FieldRef:
		if v.Field != nil {
			c.Value = v.Field
			return c, nil
		}
	case bytecode.MethodRef:
		if v.Method != nil {
			c.Value = v.Method
			return c, nil
		}
	}
	return nil, errz.Malformed(ins.Offset(), "unresolved token %v", ins.Operand()).WithOpcode(ins.Code())
}

func fieldOf(ins *bytecode.Instruction) (*metadata.Field, error) {
	ref, ok := ins.Operand().(bytecode.FieldRef)
	if !ok || ref.Field == nil {
		return nil, errz.Malformed(ins.Offset(), "unresolved field %v", ins.Operand()).WithOpcode(ins.Code())
	}
	return ref.Field, nil
}

func typeOf(ins *bytecode.Instruction) (*metadata.Type, error) {
	ref, ok := ins.Operand().(bytecode.TypeRef)
	if !ok || ref.Type == nil {
		return nil, errz.Malformed(ins.Offset(), "unresolved type %v", ins.Operand()).WithOpcode(ins.Code())
	}
	return ref.Type, nil
}
