package compiler

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ninecc/ninecc/pkg/casefile"
	"github.com/ninecc/ninecc/pkg/config"
	"github.com/ninecc/ninecc/pkg/util"
	"github.com/ninecc/ninecc/pkg/vm"
)

func configFor(t *testing.T, flags []string) *config.Config {
	t.Helper()
	cfg := config.NewConfig()
	for _, f := range flags {
		if std, ok := strings.CutPrefix(f, "--std="); ok {
			require.NoError(t, cfg.ApplyStd(std))
			continue
		}
		require.NoError(t, cfg.ApplyFlag(f))
	}
	return cfg
}

func TestCorpus(t *testing.T) {
	cases, err := casefile.LoadDir(filepath.Join("..", "..", "testdata"))
	require.NoError(t, err)

	for _, tc := range cases {
		tc := tc
		t.Run(tc.ID(), func(t *testing.T) {
			cfg := configFor(t, tc.Flags)
			got, res, err := Evaluate(tc.Source, cfg)

			for _, a := range tc.Assertions {
				switch a.Type {
				case casefile.AssertExecute:
					want, perr := a.Value()
					require.NoError(t, perr)
					require.NoError(t, err)
					assert.Equal(t, want, got)
				case casefile.AssertAST:
					require.NoError(t, err)
					if diff := cmp.Diff(a.Content, res.AST.String()); diff != "" {
						t.Errorf("ast mismatch (-want +got):\n%s", diff)
					}
				case casefile.AssertCompileError:
					kind, msg, perr := a.CompileError()
					require.NoError(t, perr)
					var e *util.Error
					require.True(t, errors.As(err, &e), "expected a compile error, got %v", err)
					assert.Equal(t, kind, e.Kind.String())
					assert.Equal(t, msg, e.Msg)
				}
			}
		})
	}
}

func TestCompileAMD64(t *testing.T) {
	res, err := Compile("a=1;b=2;a+b;", config.NewConfig())
	require.NoError(t, err)
	require.NotNil(t, res.Output)

	asm := res.Output.String()
	assert.True(t, strings.HasPrefix(asm, ".intel_syntax noprefix\n.globl main\nmain:\n"))
	assert.True(t, strings.HasSuffix(asm, "  mov rsp, rbp\n  pop rbp\n  ret\n"))
	assert.Len(t, res.IR.Stmts, 3)
	assert.Len(t, res.Tokens, 13)
}

func TestCompileIsDeterministic(t *testing.T) {
	src := "a=b=5;c=a*(b-2);c>=a==1;"
	for _, target := range []string{"amd64", "qbe/amd64_sysv"} {
		cfg := config.NewConfig()
		require.NoError(t, cfg.SetTarget("linux", "amd64", target))

		first, err := dumpIR(t, src, cfg)
		require.NoError(t, err)
		second, err := dumpIR(t, src, cfg)
		require.NoError(t, err)
		assert.Equal(t, first, second, target)

		a, err := Compile(src, cfg)
		require.NoError(t, err)
		b, err := Compile(src, cfg)
		require.NoError(t, err)
		assert.True(t, bytes.Equal(a.Output.Bytes(), b.Output.Bytes()), target)
	}
}

func dumpIR(t *testing.T, src string, cfg *config.Config) (string, error) {
	t.Helper()
	res, err := Frontend(src, cfg)
	require.NoError(t, err)
	return DumpIR(res, cfg)
}

func TestCompileErrors(t *testing.T) {
	tests := []struct {
		src  string
		kind util.ErrorKind
		pos  int
	}{
		{"1+;", util.SyntaxError, 2},
		{"1+2#;", util.TokenizeError, 3},
		{"(1;", util.SyntaxError, 2},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			res, err := Compile(tt.src, config.NewConfig())
			require.Error(t, err)
			assert.True(t, util.IsKind(err, tt.kind))
			assert.Equal(t, tt.pos, err.(*util.Error).Pos)
			assert.Nil(t, res.Output)
		})
	}
}

func TestUnknownBackend(t *testing.T) {
	cfg := config.NewConfig()
	cfg.BackendName = "wasm"
	_, err := Compile("1;", cfg)
	require.Error(t, err)
	assert.True(t, util.IsKind(err, util.BackendError))
	assert.Equal(t, -1, err.(*util.Error).Pos)
}

func TestWarningsSurviveErrors(t *testing.T) {
	res, err := Compile("99999999999999999999;1+;", config.NewConfig())
	require.Error(t, err)
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, "overflow", res.Warnings[0].Name)

	res, err = Compile("a=1/0;a;", config.NewConfig())
	require.NoError(t, err)
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, "div-zero", res.Warnings[0].Name)
}

func TestEvaluateDivideByZero(t *testing.T) {
	_, _, err := Evaluate("a=0;4/a;", config.NewConfig())
	var f *vm.Fault
	require.ErrorAs(t, err, &f)
	assert.Equal(t, vm.DivideByZero, f.Kind)
}

func TestCheckerWarnings(t *testing.T) {
	res, err := Frontend("b=a+1;b;", config.NewConfig())
	require.NoError(t, err)
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, "extra", res.Warnings[0].Name)
	assert.Equal(t, 2, res.Warnings[0].Pos)
}
