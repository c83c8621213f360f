package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"

	"github.com/ninecc/ninecc/pkg/cli"
	"github.com/ninecc/ninecc/pkg/compiler"
	"github.com/ninecc/ninecc/pkg/config"
	"github.com/ninecc/ninecc/pkg/util"
	"github.com/ninecc/ninecc/pkg/vm"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// errReported marks an error that has already been rendered to stderr.
var errReported = errors.New("reported")

func run(args []string, stdout, stderr io.Writer) int {
	app := cli.NewApp("ninecc")
	app.Synopsis = "[options] '<source>'"
	app.Description = "Compiles a 9cc program given as a single argument to x86-64 assembly. The value of the last statement becomes the exit status."
	app.Repository = "<https://github.com/ninecc/ninecc>"
	app.Stdout, app.Stderr = stdout, stderr

	var (
		outFile    string
		target     string
		std        string
		dumpIR     bool
		dumpAST    bool
		dumpTokens bool
		runVM      bool
		trace      bool
	)

	fs := app.FlagSet
	fs.String(&outFile, "output", "o", "-", "Place the output into <file>.", "file")
	fs.String(&target, "target", "t", "amd64", "Set the backend and target ABI.", "backend/target")
	fs.String(&std, "std", "", "9cc", "Specify language standard (9cc, 9ccx)", "std")
	fs.Bool(&dumpIR, "dump-ir", "d", false, "Dump the intermediate representation and exit.")
	fs.Bool(&dumpAST, "dump-ast", "", false, "Dump the syntax tree and exit.")
	fs.Bool(&dumpTokens, "dump-tokens", "", false, "Dump the token stream and exit.")
	fs.Bool(&runVM, "run", "r", false, "Evaluate the program and print its result instead of compiling.")
	fs.Bool(&trace, "trace", "", false, "With --run, trace every executed instruction to stderr.")
	// programs always contain ';', flags never do
	fs.Positional = func(arg string) bool { return strings.Contains(arg, ";") }

	cfg := config.NewConfig()
	groups := cfg.SetupFlagGroups(fs)

	app.Action = func(sources []string) error {
		if len(sources) != 1 {
			err := util.Errorf(util.ArgumentCountError, "expected exactly one source argument, got %d", len(sources))
			util.Report(stderr, "", err)
			return errReported
		}
		src := sources[0]

		if err := cfg.ApplyStd(std); err != nil {
			return err
		}
		if err := cfg.ApplyFlagGroups(groups); err != nil {
			return err
		}
		if err := cfg.SetTarget(runtime.GOOS, runtime.GOARCH, target); err != nil {
			return err
		}

		opts := options{dumpIR: dumpIR, dumpAST: dumpAST, dumpTokens: dumpTokens, run: runVM, outFile: outFile}
		if trace {
			opts.vmOpts = append(opts.vmOpts, vm.WithTrace(stderr))
		}
		return compile(src, cfg, opts, stdout, stderr)
	}

	if err := app.Run(args); err != nil {
		var parseErr *cli.ParseError
		if !errors.Is(err, errReported) && !errors.As(err, &parseErr) {
			util.Report(stderr, "", err)
		}
		return 1
	}
	return 0
}

type options struct {
	dumpIR     bool
	dumpAST    bool
	dumpTokens bool
	run        bool
	outFile    string
	vmOpts     []vm.Option
}

func compile(src string, cfg *config.Config, opts options, stdout, stderr io.Writer) error {
	rep := util.NewReporter(stderr, src)

	var (
		res *compiler.Result
		err error
	)
	switch {
	case opts.dumpTokens, opts.dumpAST, opts.dumpIR:
		res, err = compiler.Frontend(src, cfg)
	case opts.run:
		var v int64
		v, res, err = compiler.Evaluate(src, cfg, opts.vmOpts...)
		if err == nil {
			reportWarnings(rep, res)
			fmt.Fprintln(stdout, v)
			return nil
		}
	default:
		res, err = compiler.Compile(src, cfg)
	}

	reportWarnings(rep, res)
	if err != nil {
		rep.Error(err)
		return errReported
	}

	switch {
	case opts.dumpTokens:
		for _, tok := range res.Tokens {
			fmt.Fprintf(stdout, "%d:%d\t%-10s\t%s\n", tok.Line, tok.Column, tok.Kind(), tok.Describe())
		}
		return nil
	case opts.dumpAST:
		if s := res.AST.String(); s != "" {
			fmt.Fprintln(stdout, s)
		}
		return nil
	case opts.dumpIR:
		text, err := compiler.DumpIR(res, cfg)
		if err != nil {
			rep.Error(err)
			return errReported
		}
		fmt.Fprint(stdout, text)
		return nil
	}

	if opts.outFile == "" || opts.outFile == "-" {
		_, err = res.Output.WriteTo(stdout)
		return err
	}
	if err := os.WriteFile(opts.outFile, res.Output.Bytes(), 0o644); err != nil {
		return fmt.Errorf("could not write '%s': %w", opts.outFile, err)
	}
	return nil
}

func reportWarnings(rep *util.Reporter, res *compiler.Result) {
	if res == nil {
		return
	}
	for _, w := range res.Warnings {
		rep.Warning(w)
	}
}
