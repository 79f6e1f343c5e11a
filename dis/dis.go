// Package dis renders decoded method bodies as a readable listing.
package dis

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/ilkit/ilexpr/bytecode"
	"github.com/olekukonko/tablewriter"
)

var (
	symbolColor     = color.New(color.FgCyan).SprintFunc()
	unresolvedColor = color.New(color.FgRed).SprintFunc()
	branchColor     = color.New(color.FgYellow).SprintFunc()
)

// Instruction is one row of a listing.
type Instruction struct {
	Offset     int
	Name       string
	Operand    string
	Annotation string
}

// Disassemble returns one row per instruction of list, in stream order.
// Tokens are shown raw in the operand column and annotated with the symbol
// they resolved to.
func Disassemble(list *bytecode.List) ([]Instruction, error) {
	if list == nil {
		return nil, fmt.Errorf("dis: nil instruction list")
	}
	rows := make([]Instruction, 0, list.Len())
	for ins := range list.Instructions() {
		row := Instruction{Offset: ins.Offset(), Name: ins.Info().Name}
		switch v := ins.Operand().(type) {
		case nil:
		case *bytecode.BranchTarget:
			row.Operand = v.String()
			if !v.Resolved() {
				row.Annotation = unresolvedColor("dangling")
			} else if target, ok := list.Target(v); ok && target.Offset() < ins.Offset() {
				row.Annotation = branchColor("back-edge")
			}
		case bytecode.FieldRef:
			row.Operand, row.Annotation = v.Token.String(), annotate(v.Field != nil, v)
		case bytecode.MethodRef:
			row.Operand, row.Annotation = v.Token.String(), annotate(v.Method != nil, v)
		case bytecode.TypeRef:
			row.Operand, row.Annotation = v.Token.String(), annotate(v.Type != nil, v)
		case bytecode.StringRef:
			row.Operand, row.Annotation = v.Token.String(), annotate(v.OK, v)
		case bytecode.DataBlob:
			row.Operand = v.Token.String()
			if v.Bytes != nil {
				row.Annotation = symbolColor(fmt.Sprintf("% x", v.Bytes))
			} else {
				row.Annotation = unresolvedColor("unresolved")
			}
		default:
			row.Operand = v.String()
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func annotate(resolved bool, s fmt.Stringer) string {
	if !resolved {
		return unresolvedColor("unresolved")
	}
	return symbolColor(s.String())
}

// Print writes the listing to w as a table.
func Print(instructions []Instruction, w io.Writer) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Offset", "Opcode", "Operand", "Info"})
	table.SetAutoWrapText(false)
	rows := make([][]string, len(instructions))
	for i, ins := range instructions {
		rows[i] = []string{fmt.Sprintf("IL_%04x", ins.Offset), ins.Name, ins.Operand, ins.Annotation}
	}
	table.AppendBulk(rows)
	table.Render()
}
