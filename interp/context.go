// Package interp implements the switch-dispatched bytecode interpreter
// (spec §3 "Interpreter", §4.6): the register-machine stepper that walks a
// compiled bytecode.InterpretedCode, one Context per top-level Eval call.
package interp

import (
	"github.com/sirupsen/logrus"

	"github.com/jperl-run/jperl/container"
	"github.com/jperl-run/jperl/ctrlflow"
	"github.com/jperl-run/jperl/dynscope"
	"github.com/jperl-run/jperl/regexvm"
	"github.com/jperl-run/jperl/regexvm/preprocess"
	"github.com/jperl-run/jperl/symtable"
	"github.com/jperl-run/jperl/value"
)

// Context bundles everything a running program shares across every call
// frame: the Global Symbol Table, the Dynamic Scope Manager, the
// Control-Flow Marker registry, and the regex engine's last-match state
// (spec §3). One Context exists per top-level Eval/EvalString/EvalFile
// call — never shared across concurrently executing interpreters, the
// same single-goroutine-ownership assumption dynscope.Manager documents.
type Context struct {
	Symtable *symtable.Table
	MRO      *symtable.MRO
	Dyn      *dynscope.Manager
	Ctrl     *ctrlflow.Registry
	Regex    *regexvm.State

	patterns map[string]*regexvm.Pattern

	// Overloads holds operator-overload implementations registered by
	// package name (populated by `use overload`, which has no AST node
	// yet since the lexer/parser is an external collaborator — spec §1
	// Non-goals). Resolve always misses until something populates this,
	// which is fine: DispatchBinary/DispatchCompound then fall through to
	// built-in arithmetic, exactly as they do for any unblessed operand.
	Overloads map[string]map[string]*container.Code

	// UnimplementedWarn mirrors JPERL_UNIMPLEMENTED=warn (spec §6):
	// when true, a regex construct the preprocessor can't lower
	// downgrades to a Warnings entry instead of preprocess.UnimplementedError.
	// Left false (the catchable-exception default) unless config.Config
	// sets it.
	UnimplementedWarn bool

	// Log receives structured interpreter diagnostics — currently a
	// pattern's preprocessor Warnings, logged once per distinct
	// (source, flags) compiled under JPERL_UNIMPLEMENTED=warn. Never a
	// bare package-level logger — every Context gets its own
	// *logrus.Entry so concurrently running interpreters (one Context
	// each) don't share mutable logger state.
	Log *logrus.Entry

	// regexSnapshots is the eval-frame save/restore stack OP_SAVE_REGEX_STATE/
	// OP_RESTORE_REGEX_STATE push and pop. Nested eval frames within this
	// Context push and pop it in strict LIFO order regardless of which
	// frame's bytecode emitted the instruction — the same stack discipline
	// regexvm.State.Save/Restore's own doc comment describes. Per-Context
	// like everything else here, since two Contexts must never share
	// mutable state.
	regexSnapshots []regexvm.Snapshot
}

// NewContext returns a freshly wired Context with an empty symbol table.
func NewContext() *Context {
	tbl := symtable.New()
	return &Context{
		Symtable:  tbl,
		MRO:       symtable.NewMRO(tbl),
		Dyn:       dynscope.New(),
		Ctrl:      ctrlflow.NewRegistry(),
		Regex:     regexvm.NewState(),
		patterns:  make(map[string]*regexvm.Pattern),
		Overloads: make(map[string]map[string]*container.Code),
		Log:       logrus.NewEntry(logrus.New()),
	}
}

// Resolve implements value.OverloadResolver.
func (c *Context) Resolve(pkg string) (value.Overloadable, bool) {
	ops, ok := c.Overloads[pkg]
	if !ok || len(ops) == 0 {
		return nil, false
	}
	return &overloadSet{ctx: c, ops: ops}, true
}

// overloadSet adapts a package's registered operator methods to
// value.Overloadable by calling through the interpreter the same way
// OP_CALL does.
type overloadSet struct {
	ctx *Context
	ops map[string]*container.Code
}

func (o *overloadSet) Invoke(op string, args []*value.Scalar, swapped bool) (*value.Scalar, bool) {
	code, ok := o.ops[op]
	if !ok {
		return nil, false
	}
	_ = swapped
	result, err := Invoke(o.ctx, code, args)
	if err != nil {
		return nil, false
	}
	return result, true
}

// patternFor compiles (or returns the cached compilation of) src/flags as
// a regexvm.Pattern, keyed on their concatenation — patterns are literal
// text fixed at compile time for every construct this interpreter
// currently lowers (spec §1 Non-goals excludes runtime pattern
// interpolation's dynamic-recompilation edge cases from CORE).
func (c *Context) patternFor(src, flags string) (*regexvm.Pattern, error) {
	key := src + "\x00" + flags
	if p, ok := c.patterns[key]; ok {
		return p, nil
	}
	pf := preprocess.Flags{}
	for _, f := range flags {
		switch f {
		case 'i':
			pf.CaseInsensitive = true
		case 'm':
			pf.Multiline = true
		case 's':
			pf.DotAll = true
		case 'x':
			pf.Extended = true
		}
	}
	p, err := regexvm.Compile(src, pf, c.UnimplementedWarn)
	if err != nil {
		return nil, err
	}
	for _, w := range p.Warnings {
		c.Log.WithField("pattern", src).Warn(w)
	}
	c.patterns[key] = p
	return p, nil
}
