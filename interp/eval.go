package interp

import (
	"os"

	"github.com/pkg/errors"

	"github.com/jperl-run/jperl/bytecode"
	"github.com/jperl-run/jperl/compiler"
	"github.com/jperl-run/jperl/container"
	"github.com/jperl-run/jperl/ctrlflow"
	"github.com/jperl-run/jperl/value"
)

// Eval compiles prog (already parsed by the external front end — see
// compiler.ParseProgram) under name/source and runs it via EvalCode.
func Eval(ctx *Context, prog *compiler.Program, name, source string) (*value.Scalar, error) {
	return EvalCode(ctx, compiler.New(name, source).Compile(prog))
}

// EvalCode runs an already-compiled top-level program (one Invoke, no
// enclosing sub or eval frame above it) and is the one call site that
// turns a marker Invoke left pending (an unclaimed last/next/redo nothing
// downstream claimed) into Perl's own "Can't ... outside a loop block"
// (spec §5.2) — every call site below it instead leaves an unclaimed
// marker pending for whoever called it to decide, per Invoke's own doc
// comment. Exposed separately from Eval so a caller that already has a
// compiled InterpretedCode (e.g. cmd/jperl's --disassemble, which needs
// the compiled form before running it) doesn't have to recompile.
func EvalCode(ctx *Context, body *bytecode.InterpretedCode) (*value.Scalar, error) {
	result, err := Invoke(ctx, container.NewCode(body), nil)
	if err != nil {
		return nil, err
	}
	if m := ctx.Ctrl.Peek(); m.Kind != ctrlflow.None {
		ctx.Ctrl.Clear()
		return nil, errors.Errorf("Can't %q outside a loop block", loopVerb(m.Kind))
	}
	return result, nil
}

// loopVerb renders a ctrlflow.Kind the way the Perl construct that
// produced it reads in source: lowercase, matching "last"/"next"/"redo".
func loopVerb(k ctrlflow.Kind) string {
	switch k {
	case ctrlflow.Last:
		return "last"
	case ctrlflow.Next:
		return "next"
	case ctrlflow.Redo:
		return "redo"
	default:
		return k.String()
	}
}

// EvalString parses and runs source as a standalone program in a fresh
// Context — the `-e <code>` CLI surface and `eval STRING` entry point
// (spec §6, §4.7). Use Eval directly (with a Context built ahead of time)
// when the caller needs to share globals or inspect $@/Ctrl afterward.
func EvalString(source string) (*value.Scalar, error) {
	if compiler.ParseProgram == nil {
		return nil, &compiler.CompileError{Err: compiler.ErrNoFrontEnd}
	}
	prog, err := compiler.ParseProgram(source, "-e")
	if err != nil {
		return nil, &compiler.CompileError{Filename: "-e", Err: err}
	}
	return Eval(NewContext(), prog, "main", source)
}

// EvalFile reads, parses, and runs path's contents — the `<file>` CLI
// surface and `do FILE` entry point (spec §6).
func EvalFile(path string) (*value.Scalar, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", path)
	}
	if compiler.ParseProgram == nil {
		return nil, &compiler.CompileError{Filename: path, Err: compiler.ErrNoFrontEnd}
	}
	prog, err := compiler.ParseProgram(string(src), path)
	if err != nil {
		return nil, &compiler.CompileError{Filename: path, Err: err}
	}
	return Eval(NewContext(), prog, path, string(src))
}
