// Package compiler chains the tokenizer, parser, IR generator and a code
// generation backend into a single call.
package compiler

import (
	"bytes"

	"github.com/ninecc/ninecc/pkg/ast"
	"github.com/ninecc/ninecc/pkg/checker"
	"github.com/ninecc/ninecc/pkg/codegen"
	"github.com/ninecc/ninecc/pkg/config"
	"github.com/ninecc/ninecc/pkg/ir"
	"github.com/ninecc/ninecc/pkg/lexer"
	"github.com/ninecc/ninecc/pkg/parser"
	"github.com/ninecc/ninecc/pkg/token"
	"github.com/ninecc/ninecc/pkg/util"
	"github.com/ninecc/ninecc/pkg/vm"
)

// Result holds every intermediate form of one compilation. Output is nil
// when only the front end ran.
type Result struct {
	Tokens   []token.Token
	AST      *ast.Program
	IR       *ir.Program
	Output   *bytes.Buffer
	Warnings []util.Warning
}

// Frontend tokenizes, parses and lowers src to IR without selecting a
// backend. Warnings gathered before a failure are still returned.
func Frontend(src string, cfg *config.Config) (*Result, error) {
	res := &Result{}

	toks, warns, err := lexer.Tokenize(src, cfg)
	res.Warnings = append(res.Warnings, warns...)
	if err != nil {
		return res, err
	}
	res.Tokens = toks

	p := parser.NewParser(toks, cfg)
	tree, err := p.Parse()
	res.Warnings = append(res.Warnings, p.Warnings()...)
	if err != nil {
		return res, err
	}
	res.AST = tree
	res.Warnings = append(res.Warnings, checker.NewChecker(cfg).Check(tree)...)

	res.IR = codegen.NewContext(cfg).GenerateIR(tree)
	return res, nil
}

// Compile runs the front end and the backend named by cfg.BackendName.
// The output depends only on src and cfg.
func Compile(src string, cfg *config.Config) (*Result, error) {
	res, err := Frontend(src, cfg)
	if err != nil {
		return res, err
	}

	backend, err := codegen.NewBackend(cfg.BackendName)
	if err != nil {
		return res, util.Errorf(util.BackendError, "%v", err)
	}
	out, err := backend.Generate(res.IR, cfg)
	if err != nil {
		return res, util.Errorf(util.BackendError, "%v", err)
	}
	res.Output = out
	return res, nil
}

// DumpIR returns the backend specific intermediate form of res.IR.
func DumpIR(res *Result, cfg *config.Config) (string, error) {
	backend, err := codegen.NewBackend(cfg.BackendName)
	if err != nil {
		return "", util.Errorf(util.BackendError, "%v", err)
	}
	text, err := backend.GenerateIR(res.IR, cfg)
	if err != nil {
		return "", util.Errorf(util.BackendError, "%v", err)
	}
	return text, nil
}

// Evaluate compiles src to IR and executes it on the VM, returning the
// value the compiled program would exit with.
func Evaluate(src string, cfg *config.Config, opts ...vm.Option) (int64, *Result, error) {
	res, err := Frontend(src, cfg)
	if err != nil {
		return 0, res, err
	}
	v, err := vm.New(opts...).Run(res.IR)
	return v, res, err
}
