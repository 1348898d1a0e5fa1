package compiler

import (
	"fmt"
	"io"
)

// DumpProgram writes prog's parsed AST to w — the --parse CLI surface
// (spec §6: "dump AST to stderr; no execution"). Go's %#v already walks
// every Node field (including the []Node slices holding concrete node
// types behind the interface) recursively, which is enough for a
// debugging dump; spec §6 names no stable wire format for it ("Wire/file
// formats: none defined by the CORE").
func DumpProgram(w io.Writer, prog *Program) {
	fmt.Fprintf(w, "%#v\n", prog)
}
