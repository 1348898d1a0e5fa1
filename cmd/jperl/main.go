// Command jperl is the minimal CLI surface spec §6 names: `-e <code>` or
// a <file> argument execute a program; --parse and --disassemble dump
// intermediate representations to stderr; --interpreter forces the
// register-bytecode interpreter backend (the only backend CORE
// implements — the alternative native-host-bytecode backend is out of
// scope, spec §1).
package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/jperl-run/jperl/bytecode"
	"github.com/jperl-run/jperl/compiler"
	"github.com/jperl-run/jperl/config"
	"github.com/jperl-run/jperl/interp"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	var programFlag string

	root := &cobra.Command{
		Use:           "jperl [flags] [file]",
		Short:         "register-bytecode Perl 5 core runtime",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.MaximumNArgs(1),
	}
	root.SetArgs(args)
	flags := root.Flags()
	flags.StringVarP(&programFlag, "e", "e", "", "execute inline program")
	flags.Bool("parse", false, "dump AST to stderr; no execution")
	flags.Bool("disassemble", false, "dump compiled bytecode to stderr; then execute")
	flags.Bool("interpreter", false, "force the register-bytecode interpreter backend")
	flags.Bool("unimplemented-warn", false, "demote Unimplemented regex errors to warnings")

	exitCode := 0
	root.RunE = func(cmd *cobra.Command, positional []string) error {
		cfg, err := config.Load(flags, positional)
		if err != nil {
			return err
		}
		code := exitJperl(cfg)
		exitCode = code
		return nil
	}

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "jperl: %v\n", err)
		return 255
	}
	return exitCode
}

// exitJperl runs cfg's program/file and returns the process exit code:
// 0 on success, 255 on an uncaught exception. die's own payload carries no
// separate exit-code field in this runtime (OpDie's operand is a plain
// message string, spec §7's UserDie kind), so every uncaught error — a
// die, or any other propagated interpreter error — maps to 255 uniformly,
// rather than the numeric-$! exit code Perl itself sometimes picks.
func exitJperl(cfg *config.Config) int {
	source, filename, err := cfg.Source()
	if err != nil {
		fmt.Fprintf(os.Stderr, "jperl: %v\n", err)
		return 255
	}

	if compiler.ParseProgram == nil {
		fmt.Fprintln(os.Stderr, "jperl: no front end wired (compiler.ParseProgram is nil); this build only accepts a pre-parsed *compiler.Program")
		return 255
	}
	prog, err := compiler.ParseProgram(source, filename)
	if err != nil {
		fmt.Fprintf(os.Stderr, "jperl: %v\n", err)
		return 255
	}

	if cfg.Parse {
		compiler.DumpProgram(os.Stderr, prog)
		return 0
	}

	body := compiler.New(filename, source).Compile(prog)
	if cfg.Disassemble {
		bytecode.Disassemble(os.Stderr, body)
	}

	ctx := interp.NewContext()
	ctx.UnimplementedWarn = cfg.UnimplementedWarn
	ctx.Log.Logger.SetLevel(logLevel(cfg))

	if _, err := interp.EvalCode(ctx, body); err != nil {
		fmt.Fprintf(os.Stderr, "jperl: %v\n", err)
		return 255
	}
	return 0
}

func logLevel(cfg *config.Config) logrus.Level {
	if cfg.Disassemble {
		return logrus.DebugLevel
	}
	return logrus.WarnLevel
}
