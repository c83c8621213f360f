package lexer

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/nalgeon/be"

	"github.com/ninecc/ninecc/pkg/config"
	"github.com/ninecc/ninecc/pkg/token"
	"github.com/ninecc/ninecc/pkg/util"
)

// shape drops positions so tests can compare kinds and values only.
type shape struct {
	Type  token.Type
	Value string
	Num   int64
}

func lexShapes(t *testing.T, input string, cfg *config.Config) []shape {
	t.Helper()
	toks, _, err := Tokenize(input, cfg)
	be.Err(t, err, nil)
	var out []shape
	for _, tok := range toks {
		out = append(out, shape{tok.Type, tok.Value, tok.Num})
	}
	return out
}

func TestTokenizeSimpleSum(t *testing.T) {
	got := lexShapes(t, "1+2;", config.NewConfig())
	want := []shape{
		{token.Number, "1", 1},
		{token.Plus, "+", 0},
		{token.Number, "2", 2},
		{token.Semi, ";", 0},
		{token.EOF, "", 0},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Tokenize mismatch (-want +got):\n%s", diff)
	}
}

func TestKinds(t *testing.T) {
	toks, _, err := Tokenize("1+a;", config.NewConfig())
	be.Err(t, err, nil)
	be.Equal(t, len(toks), 5)
	be.Equal(t, toks[0].Kind(), token.KindNumber)
	be.Equal(t, toks[1].Kind(), token.KindReserved)
	be.Equal(t, toks[2].Kind(), token.KindIdent)
	be.Equal(t, toks[3].Kind(), token.KindReserved)
	be.Equal(t, toks[4].Kind(), token.KindEOF)
}

func TestOperators(t *testing.T) {
	tests := []struct {
		input    string
		expected token.Type
	}{
		{"+", token.Plus},
		{"-", token.Minus},
		{"*", token.Star},
		{"/", token.Slash},
		{"(", token.LParen},
		{")", token.RParen},
		{"<", token.Lt},
		{">", token.Gt},
		{"=", token.Eq},
		{";", token.Semi},
		{"==", token.EqEq},
		{"!=", token.Neq},
		{"<=", token.Lte},
		{">=", token.Gte},
	}

	for _, tt := range tests {
		toks, _, err := Tokenize(tt.input, config.NewConfig())
		be.Err(t, err, nil)
		be.Equal(t, toks[0].Type, tt.expected)
		be.Equal(t, toks[0].Len, len(tt.input))
		be.Equal(t, toks[1].Type, token.EOF)
	}
}

func TestLongestMatch(t *testing.T) {
	got := lexShapes(t, "a<=b>=c==d!=e", config.NewConfig())
	var types []token.Type
	for _, s := range got {
		types = append(types, s.Type)
	}
	want := []token.Type{
		token.Ident, token.Lte, token.Ident, token.Gte, token.Ident,
		token.EqEq, token.Ident, token.Neq, token.Ident, token.EOF,
	}
	if diff := cmp.Diff(want, types); diff != "" {
		t.Errorf("token types mismatch (-want +got):\n%s", diff)
	}

	// "< =" is two tokens because whitespace breaks the match
	got = lexShapes(t, "1< =2", config.NewConfig())
	be.Equal(t, got[1].Type, token.Lt)
	be.Equal(t, got[2].Type, token.Eq)
}

func TestPositions(t *testing.T) {
	toks, _, err := Tokenize("a = 10;\n  b;", config.NewConfig())
	be.Err(t, err, nil)

	want := []token.Token{
		{Type: token.Ident, Value: "a", Pos: 0, Line: 1, Column: 1, Len: 1},
		{Type: token.Eq, Value: "=", Pos: 2, Line: 1, Column: 3, Len: 1},
		{Type: token.Number, Value: "10", Num: 10, Pos: 4, Line: 1, Column: 5, Len: 2},
		{Type: token.Semi, Value: ";", Pos: 6, Line: 1, Column: 7, Len: 1},
		{Type: token.Ident, Value: "b", Pos: 10, Line: 2, Column: 3, Len: 1},
		{Type: token.Semi, Value: ";", Pos: 11, Line: 2, Column: 4, Len: 1},
		{Type: token.EOF, Value: "", Pos: 12, Line: 2, Column: 5, Len: 0},
	}
	if diff := cmp.Diff(want, toks); diff != "" {
		t.Errorf("positions mismatch (-want +got):\n%s", diff)
	}
}

func TestSingleLetterIdentifiers(t *testing.T) {
	got := lexShapes(t, "ab", config.NewConfig())
	be.Equal(t, len(got), 3)
	be.Equal(t, got[0], shape{token.Ident, "a", 0})
	be.Equal(t, got[1], shape{token.Ident, "b", 0})
}

func TestLongIdentifiers(t *testing.T) {
	cfg := config.NewConfig()
	cfg.SetFeature(config.FeatLongIdents, true)

	got := lexShapes(t, "foo_1 = _x2;", cfg)
	be.Equal(t, got[0], shape{token.Ident, "foo_1", 0})
	be.Equal(t, got[1].Type, token.Eq)
	be.Equal(t, got[2], shape{token.Ident, "_x2", 0})
}

func TestInvalidCharacter(t *testing.T) {
	tests := []struct {
		input string
		pos   int
	}{
		{"1+2#;", 3},
		{"@", 0},
		{"a = B;", 4},
		{"1 ! 2;", 2},
		{"_a;", 0},
		{"1+é;", 2},
	}
	for _, tt := range tests {
		_, _, err := Tokenize(tt.input, config.NewConfig())
		be.True(t, util.IsKind(err, util.TokenizeError))
		be.Equal(t, err.(*util.Error).Pos, tt.pos)
	}
}

func TestNumberOverflowWraps(t *testing.T) {
	toks, warnings, err := Tokenize("18446744073709551617;", config.NewConfig())
	be.Err(t, err, nil)
	be.Equal(t, toks[0].Num, int64(1))
	be.Equal(t, len(warnings), 1)
	be.Equal(t, warnings[0].Name, "overflow")

	toks, warnings, err = Tokenize("9223372036854775808;", config.NewConfig())
	be.Err(t, err, nil)
	be.Equal(t, toks[0].Num, int64(-9223372036854775808))
	be.Equal(t, len(warnings), 1)

	toks, warnings, err = Tokenize("9223372036854775807;", config.NewConfig())
	be.Err(t, err, nil)
	be.Equal(t, toks[0].Num, int64(9223372036854775807))
	be.Equal(t, len(warnings), 0)
}

func TestNumberOverflowWarningDisabled(t *testing.T) {
	cfg := config.NewConfig()
	cfg.SetWarning(config.WarnOverflow, false)
	_, warnings, err := Tokenize("99999999999999999999;", cfg)
	be.Err(t, err, nil)
	be.Equal(t, len(warnings), 0)
}

func TestEmptyInput(t *testing.T) {
	toks, _, err := Tokenize("  \t\n ", config.NewConfig())
	be.Err(t, err, nil)
	if diff := cmp.Diff([]token.Token{{Type: token.EOF, Pos: 5}}, toks, cmpopts.IgnoreFields(token.Token{}, "Line", "Column")); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestDeterministic(t *testing.T) {
	a, _, _ := Tokenize("a=b=5;a;", config.NewConfig())
	b, _, _ := Tokenize("a=b=5;a;", config.NewConfig())
	be.Equal(t, cmp.Diff(a, b), "")
}
