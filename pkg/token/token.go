package token

type Type int

const (
	EOF Type = iota
	Ident
	Number
	LParen
	RParen
	Semi
	Eq
	Plus
	Minus
	Star
	Slash
	EqEq
	Neq
	Lt
	Gt
	Lte
	Gte
)

// Kind is the coarse classification of a token used by diagnostics and
// the token dump.
type Kind int

const (
	KindEOF Kind = iota
	KindReserved
	KindIdent
	KindNumber
)

func (k Kind) String() string {
	switch k {
	case KindReserved:
		return "Reserved"
	case KindIdent:
		return "Identifier"
	case KindNumber:
		return "Number"
	default:
		return "EndOfInput"
	}
}

// Reserved maps every operator and punctuation lexeme to its type. Two
// character lexemes must be tried before single character ones.
var Reserved = map[string]Type{
	"(":  LParen,
	")":  RParen,
	";":  Semi,
	"=":  Eq,
	"+":  Plus,
	"-":  Minus,
	"*":  Star,
	"/":  Slash,
	"==": EqEq,
	"!=": Neq,
	"<":  Lt,
	">":  Gt,
	"<=": Lte,
	">=": Gte,
}

// Reverse mapping from Type to the reserved lexeme
var TypeStrings = make(map[Type]string)

func init() {
	for str, typ := range Reserved {
		TypeStrings[typ] = str
	}
}

func (t Type) String() string {
	switch t {
	case EOF:
		return "end of input"
	case Ident:
		return "identifier"
	case Number:
		return "number"
	}
	if s, ok := TypeStrings[t]; ok {
		return s
	}
	return "unknown"
}

func (t Type) Kind() Kind {
	switch t {
	case EOF:
		return KindEOF
	case Ident:
		return KindIdent
	case Number:
		return KindNumber
	default:
		return KindReserved
	}
}

type Token struct {
	Type   Type
	Value  string // lexeme as written in the source
	Num    int64  // value of a Number token
	Pos    int    // byte offset into the source
	Line   int
	Column int
	Len    int
}

// Kind reports the token's classification.
func (t Token) Kind() Kind { return t.Type.Kind() }

// Describe renders the token for "expected X, found Y" messages.
func (t Token) Describe() string {
	switch t.Type {
	case EOF:
		return "end of input"
	case Ident, Number:
		return "'" + t.Value + "'"
	default:
		return "'" + t.Type.String() + "'"
	}
}
