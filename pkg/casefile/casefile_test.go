package casefile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = "# Sample\n" +
	"\n" +
	"Prose with an untagged fence:\n" +
	"\n" +
	"```\n" +
	"not a test\n" +
	"```\n" +
	"\n" +
	"## Test: sum\n" +
	"\n" +
	"```9cc\n" +
	"1+2;\n" +
	"```\n" +
	"\n" +
	"```execute\n" +
	"3\n" +
	"```\n" +
	"\n" +
	"```ast\n" +
	"(+ 1 2)\n" +
	"```\n" +
	"\n" +
	"## Test: broken\n" +
	"\n" +
	"```flags\n" +
	"-Flong-idents\n" +
	"-Wno-overflow\n" +
	"```\n" +
	"\n" +
	"```9cc\n" +
	"1+;\n" +
	"```\n" +
	"\n" +
	"```compile-error\n" +
	"ExpectedNumberError: expected a number, found ';'\n" +
	"```\n"

func TestParse(t *testing.T) {
	cases, err := Parse([]byte(sample))
	require.NoError(t, err)
	require.Len(t, cases, 2)

	sum := cases[0]
	assert.Equal(t, "sum", sum.Name)
	assert.Equal(t, 9, sum.Line)
	assert.Equal(t, "1+2;", sum.Source)
	assert.Empty(t, sum.Flags)
	require.Len(t, sum.Assertions, 2)

	exec, ok := sum.Find(AssertExecute)
	require.True(t, ok)
	v, err := exec.Value()
	require.NoError(t, err)
	assert.Equal(t, int64(3), v)
	assert.Equal(t, 16, exec.Line)

	tree, ok := sum.Find(AssertAST)
	require.True(t, ok)
	assert.Equal(t, "(+ 1 2)", tree.Content)

	broken := cases[1]
	assert.Equal(t, []string{"-Flong-idents", "-Wno-overflow"}, broken.Flags)
	ce, ok := broken.Find(AssertCompileError)
	require.True(t, ok)
	kind, msg, err := ce.CompileError()
	require.NoError(t, err)
	assert.Equal(t, "ExpectedNumberError", kind)
	assert.Equal(t, "expected a number, found ';'", msg)

	_, ok = broken.Find(AssertExecute)
	assert.False(t, ok)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{
			"fence outside test",
			"```9cc\n1;\n```\n",
			"line 2: 9cc fence outside of a test case",
		},
		{
			"unknown fence",
			"## Test: x\n\n```9cc\n1;\n```\n\n```wasm\n1\n```\n",
			"line 8: unknown fence language 'wasm' in test 'x'",
		},
		{
			"two sources",
			"## Test: x\n\n```9cc\n1;\n```\n\n```9cc\n2;\n```\n",
			"line 8: test 'x' has more than one 9cc fence",
		},
		{
			"no source",
			"## Test: x\n\n```execute\n1\n```\n",
			"line 1: test 'x' has no 9cc fence",
		},
		{
			"no assertion",
			"## Test: x\n\n```9cc\n1;\n```\n",
			"line 1: test 'x' has no assertion fences",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			assert.EqualError(t, err, tt.want)
		})
	}
}

func TestMalformedCompileError(t *testing.T) {
	_, _, err := Assertion{Content: "just words", Line: 4}.CompileError()
	assert.EqualError(t, err, `line 4: compile-error must look like 'Kind: message', got "just words"`)
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.md"), []byte(sample), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.md"), []byte("## Test: sum\n\n```9cc\n1;\n```\n\n```execute\n1\n```\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))

	cases, err := LoadDir(dir)
	require.NoError(t, err)
	require.Len(t, cases, 3)
	assert.Equal(t, "a/sum", cases[0].ID())
	assert.Equal(t, "b/sum", cases[1].ID())
	assert.Equal(t, "b/broken", cases[2].ID())
}

func TestLoadDirDuplicate(t *testing.T) {
	dir := t.TempDir()
	doc := "## Test: x\n\n```9cc\n1;\n```\n\n```execute\n1\n```\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.md"), []byte(doc+"\n"+doc), 0o644))

	_, err := LoadDir(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate test 'x'")
}

func TestRepositoryCorpus(t *testing.T) {
	cases, err := LoadDir(filepath.Join("..", "..", "testdata"))
	require.NoError(t, err)
	assert.NotEmpty(t, cases)
}
