// Package config binds jperl's recognised environment variables (spec §6)
// and CLI flags into one Config struct, following the cobra-for-flags +
// viper-for-env-and-defaults convention the corpus's other CLI tools share
// (e.g. rcornwell-S370, moby-moby) — the teacher itself is a library with
// no CLI of its own, so this package has no teacher-side counterpart to
// adapt from.
package config

import (
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config is the fully resolved runtime configuration for one cmd/jperl
// invocation: CLI flags layered over JPERL_* environment variables layered
// over defaults, in viper's usual precedence order.
type Config struct {
	// Program is the inline `-e <code>` source, or "" if a file argument
	// was given instead.
	Program string

	// File is the <file> argument's path, or "" if -e was given instead.
	File string

	// Parse, when true, dumps the parsed AST to stderr and exits without
	// running it (spec §6 --parse).
	Parse bool

	// Disassemble, when true, dumps the compiled bytecode to stderr
	// before executing it (spec §6 --disassemble).
	Disassemble bool

	// Interpreter forces the register-bytecode interpreter backend.
	// CORE only ever implements that backend (the alternative
	// native-host-bytecode backend is out of scope — spec §1), so this
	// flag is accepted for surface compatibility and is always
	// effectively true; it is still threaded through so a future
	// alternative backend has a flag to dispatch on.
	Interpreter bool

	// UnimplementedWarn mirrors JPERL_UNIMPLEMENTED=warn: demote a regex
	// Unimplemented error to a warning and continue instead of raising a
	// catchable exception (spec §6, §7).
	UnimplementedWarn bool

	// EvalUseInterpreter mirrors JPERL_EVAL_USE_INTERPRETER=1: route
	// `eval STRING` through the register-bytecode interpreter rather than
	// the host-bytecode backend. Since CORE implements only the
	// interpreter backend, this is always true in practice; recognised
	// for §6 compliance and for whoever eventually wires the alternative
	// backend in.
	EvalUseInterpreter bool
}

// Load resolves flags (already parsed onto fs by the caller's cobra
// command) against JPERL_*-prefixed environment variables and returns the
// combined Config. args holds any remaining positional arguments after
// flag parsing — at most one, the <file> to run, unless -e was given.
func Load(fs *pflag.FlagSet, args []string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("JPERL")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.BindPFlags(fs); err != nil {
		return nil, err
	}

	// JPERL_EVAL_USE_INTERPRETER and JPERL_UNIMPLEMENTED (spec §6) have no
	// flag of the same name — --interpreter is a distinct CLI-only switch
	// (force the register-bytecode backend regardless of eval STRING),
	// and JPERL_UNIMPLEMENTED carries a string value ("warn" being the one
	// §6 documents) rather than a bare bool — so each is bound to its own
	// viper key under its documented env var name instead of riding along
	// on an existing flag's key.
	_ = v.BindEnv("eval-use-interpreter", "JPERL_EVAL_USE_INTERPRETER")
	_ = v.BindEnv("unimplemented", "JPERL_UNIMPLEMENTED")

	cfg := &Config{
		Parse:              v.GetBool("parse"),
		Disassemble:        v.GetBool("disassemble"),
		Interpreter:        v.GetBool("interpreter"),
		EvalUseInterpreter: v.GetBool("eval-use-interpreter"),
		UnimplementedWarn: v.GetBool("unimplemented-warn") ||
			strings.EqualFold(v.GetString("unimplemented"), "warn"),
	}

	if e := v.GetString("e"); e != "" {
		cfg.Program = e
	} else if len(args) > 0 {
		cfg.File = args[0]
	}

	return cfg, nil
}

// Source returns the program text cmd/jperl should run, and the name to
// compile it under (the source filename, or "-e" for an inline program;
// spec §6's two execution forms). It is an error to have neither -e nor a
// <file> argument.
func (c *Config) Source() (source, filename string, err error) {
	if c.Program != "" {
		return c.Program, "-e", nil
	}
	if c.File != "" {
		data, err := os.ReadFile(c.File)
		if err != nil {
			return "", "", errors.Wrapf(err, "read %s", c.File)
		}
		return string(data), c.File, nil
	}
	return "", "", errors.New("jperl: no program given (use -e <code> or pass a file)")
}
