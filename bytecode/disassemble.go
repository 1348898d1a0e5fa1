package bytecode

import (
	"fmt"
	"io"
)

// Disassemble writes one line per instruction in code (and recursively,
// each entry of code.Children, indented) to w — the --disassemble CLI
// surface (spec §6). It reads operand bytes generically off
// Opcode.OperandBytes() rather than decoding each opcode's specific
// operand shape, the same flat-field-count approach OperandBytes itself
// already centralizes for the interpreter's own pc-advance.
func Disassemble(w io.Writer, code *InterpretedCode) {
	disassemble(w, code, 0)
}

func disassemble(w io.Writer, code *InterpretedCode, depth int) {
	indent := ""
	for i := 0; i < depth; i++ {
		indent += "  "
	}
	name := code.Name
	if name == "" {
		name = "<anon>"
	}
	fmt.Fprintf(w, "%s; %s (%s)\n", indent, name, code.SourceFile)

	ins := code.Instructions
	for pc := 0; pc < len(ins); {
		op := Opcode(ins[pc])
		n := op.OperandBytes()
		if pc+1+n > len(ins) {
			fmt.Fprintf(w, "%s%04d  %-20s <truncated operands>\n", indent, pc, op.String())
			break
		}
		line := code.LineFor(pc)
		operands := ins[pc+1 : pc+1+n]
		fmt.Fprintf(w, "%s%04d  L%-4d %-20s % x\n", indent, pc, line, op.String(), operands)
		pc += 1 + n
	}

	for i, child := range code.Children {
		fmt.Fprintf(w, "%s; -- child %d --\n", indent, i)
		disassemble(w, child, depth+1)
	}
}
