package compiler

import "fmt"

// ParseProgram is the seam to the lexer/parser that turns Perl source text
// into a *Program — deliberately out of scope for this module (the
// front-end producing the AST is an external collaborator; this package
// and interp only consume the AST it builds). cmd/jperl's -e/<file> surface
// and interp.EvalString/EvalFile call through this variable instead of
// parsing text themselves; every compiler/interp test instead builds a
// *Program directly, the same way interp/run_test.go hand-assembles
// bytecode without going through a front end at all.
//
// Left nil (its zero value) until something wires a real front end in.
var ParseProgram func(source, filename string) (*Program, error)

// CompileError reports a parse/compile failure in `eval STRING` or
// `do FILE` — one of the catchable error kinds, which wraps whatever the
// front end (ParseProgram) or Compile itself returned.
type CompileError struct {
	Filename string
	Err      error
}

func (e *CompileError) Error() string {
	if e.Filename != "" {
		return fmt.Sprintf("compile error in %s: %v", e.Filename, e.Err)
	}
	return fmt.Sprintf("compile error: %v", e.Err)
}

func (e *CompileError) Unwrap() error { return e.Err }

// ErrNoFrontEnd is the Err a CompileError carries when ParseProgram has
// never been wired to an implementation — the explicit report of that
// boundary in place of a nil-pointer panic.
var ErrNoFrontEnd = fmt.Errorf("compiler: no front end wired (ParseProgram is nil); supply a *compiler.Program directly, or set compiler.ParseProgram")
