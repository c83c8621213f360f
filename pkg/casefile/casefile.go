// Package casefile reads compiler test cases written as Markdown.
//
// A case starts at a heading "Test: <name>" and holds one ```9cc fence
// with the program, an optional ```flags fence with one compiler flag per
// line, and one or more assertion fences:
//
//	```execute        expected program result
//	```ast            expected tree, one s-expression per statement
//	```compile-error  "<ErrorKind>: <message>"
//
// Fences without a language are treated as prose.
package casefile

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

const (
	fenceSource = "9cc"
	fenceFlags  = "flags"
)

type AssertionType string

const (
	AssertExecute      AssertionType = "execute"
	AssertAST          AssertionType = "ast"
	AssertCompileError AssertionType = "compile-error"
)

type Assertion struct {
	Type    AssertionType
	Content string
	Line    int
}

// Value parses an execute assertion.
func (a Assertion) Value() (int64, error) {
	return strconv.ParseInt(strings.TrimSpace(a.Content), 10, 64)
}

// CompileError splits a compile-error assertion into kind and message.
func (a Assertion) CompileError() (kind, msg string, err error) {
	kind, msg, ok := strings.Cut(strings.TrimSpace(a.Content), ": ")
	if !ok {
		return "", "", fmt.Errorf("line %d: compile-error must look like 'Kind: message', got %q", a.Line, a.Content)
	}
	return kind, msg, nil
}

type TestCase struct {
	File       string
	Name       string
	Line       int
	Source     string
	Flags      []string
	Assertions []Assertion
}

// ID names the case uniquely within a corpus.
func (tc *TestCase) ID() string {
	if tc.File == "" {
		return tc.Name
	}
	return strings.TrimSuffix(filepath.Base(tc.File), ".md") + "/" + tc.Name
}

// Find returns the first assertion of the given type.
func (tc *TestCase) Find(typ AssertionType) (Assertion, bool) {
	for _, a := range tc.Assertions {
		if a.Type == typ {
			return a, true
		}
	}
	return Assertion{}, false
}

func isAssertion(lang string) bool {
	switch AssertionType(lang) {
	case AssertExecute, AssertAST, AssertCompileError:
		return true
	}
	return false
}

// Parse extracts every test case from a Markdown document.
func Parse(markdown []byte) ([]TestCase, error) {
	doc := goldmark.New().Parser().Parse(text.NewReader(markdown))

	var cases []TestCase
	var cur *TestCase
	flush := func() error {
		if cur == nil {
			return nil
		}
		if err := validate(cur); err != nil {
			return err
		}
		cases = append(cases, *cur)
		return nil
	}

	err := ast.Walk(doc, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		switch n := node.(type) {
		case *ast.Heading:
			title := headingText(n, markdown)
			name, ok := strings.CutPrefix(title, "Test: ")
			if !ok {
				return ast.WalkSkipChildren, nil
			}
			if err := flush(); err != nil {
				return ast.WalkStop, err
			}
			cur = &TestCase{Name: strings.TrimSpace(name), Line: lineOf(n, markdown)}
			return ast.WalkSkipChildren, nil

		case *ast.FencedCodeBlock:
			lang := string(n.Language(markdown))
			if lang == "" {
				return ast.WalkContinue, nil
			}
			line := lineOf(n, markdown)
			if cur == nil {
				return ast.WalkStop, fmt.Errorf("line %d: %s fence outside of a test case", line, lang)
			}
			content := strings.TrimRight(fenceContent(n, markdown), "\n")

			switch {
			case lang == fenceSource:
				if cur.Source != "" {
					return ast.WalkStop, fmt.Errorf("line %d: test '%s' has more than one %s fence", line, cur.Name, fenceSource)
				}
				cur.Source = content
			case lang == fenceFlags:
				cur.Flags = append(cur.Flags, strings.Fields(content)...)
			case isAssertion(lang):
				cur.Assertions = append(cur.Assertions, Assertion{Type: AssertionType(lang), Content: content, Line: line})
			default:
				return ast.WalkStop, fmt.Errorf("line %d: unknown fence language '%s' in test '%s'", line, lang, cur.Name)
			}
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return nil, err
	}
	if err := flush(); err != nil {
		return nil, err
	}
	return cases, nil
}

func validate(tc *TestCase) error {
	if tc.Source == "" {
		return fmt.Errorf("line %d: test '%s' has no %s fence", tc.Line, tc.Name, fenceSource)
	}
	if len(tc.Assertions) == 0 {
		return fmt.Errorf("line %d: test '%s' has no assertion fences", tc.Line, tc.Name)
	}
	return nil
}

// LoadFile parses one Markdown file and stamps its cases with the path.
func LoadFile(path string) ([]TestCase, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cases, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	for i := range cases {
		cases[i].File = path
	}
	return cases, nil
}

// LoadDir parses every *.md file in dir, in name order.
func LoadDir(dir string) ([]TestCase, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.md"))
	if err != nil {
		return nil, err
	}
	sort.Strings(files)

	var all []TestCase
	seen := make(map[string]int)
	for _, f := range files {
		cases, err := LoadFile(f)
		if err != nil {
			return nil, err
		}
		for _, tc := range cases {
			if line, dup := seen[tc.ID()]; dup {
				return nil, fmt.Errorf("%s:%d: duplicate test '%s' (first at line %d)", f, tc.Line, tc.Name, line)
			}
			seen[tc.ID()] = tc.Line
			all = append(all, tc)
		}
	}
	return all, nil
}

func headingText(n ast.Node, source []byte) string {
	var buf bytes.Buffer
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if t, ok := c.(*ast.Text); ok && entering {
			buf.Write(t.Segment.Value(source))
		}
		return ast.WalkContinue, nil
	})
	return buf.String()
}

func fenceContent(n *ast.FencedCodeBlock, source []byte) string {
	var buf bytes.Buffer
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		buf.Write(seg.Value(source))
	}
	return buf.String()
}

// lineOf returns the 1-based line of the node's first content line.
func lineOf(n ast.Node, source []byte) int {
	if n.Lines().Len() == 0 {
		return 1
	}
	return bytes.Count(source[:n.Lines().At(0).Start], []byte("\n")) + 1
}
