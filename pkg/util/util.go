package util

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/ninecc/ninecc/pkg/config"
	"github.com/ninecc/ninecc/pkg/token"
	"golang.org/x/term"
)

// ErrorKind classifies a compilation failure.
type ErrorKind int

const (
	ArgumentCountError ErrorKind = iota
	TokenizeError
	SyntaxError
	ExpectedNumberError
	FrameOverflowError
	BackendError
)

var errorKindNames = map[ErrorKind]string{
	ArgumentCountError:  "ArgumentCountError",
	TokenizeError:       "TokenizeError",
	SyntaxError:         "SyntaxError",
	ExpectedNumberError: "ExpectedNumberError",
	FrameOverflowError:  "FrameOverflowError",
	BackendError:        "BackendError",
}

func (k ErrorKind) String() string {
	if name, ok := errorKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// ParseErrorKind is the inverse of ErrorKind.String.
func ParseErrorKind(name string) (ErrorKind, bool) {
	for k, n := range errorKindNames {
		if n == name {
			return k, true
		}
	}
	return 0, false
}

// Error is a terminal compilation error. Pos is a byte offset into the
// source, or -1 when the error has no source location.
type Error struct {
	Kind ErrorKind
	Pos  int
	Len  int
	Msg  string
}

func (e *Error) Error() string {
	if e.Pos < 0 {
		return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
	}
	return fmt.Sprintf("%s at offset %d: %s", e.Kind, e.Pos, e.Msg)
}

// NewError builds an Error located at tok.
func NewError(kind ErrorKind, tok token.Token, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Pos: tok.Pos, Len: tok.Len, Msg: fmt.Sprintf(format, args...)}
}

// Errorf builds an Error without a source location.
func Errorf(kind ErrorKind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Pos: -1, Msg: fmt.Sprintf(format, args...)}
}

// Is reports whether k is target or a refinement of it. An
// ExpectedNumberError is a SyntaxError raised where only a number could
// have followed.
func (k ErrorKind) Is(target ErrorKind) bool {
	return k == target || (k == ExpectedNumberError && target == SyntaxError)
}

// IsKind reports whether err wraps an *Error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind.Is(kind)
}

// Warning is a non-fatal diagnostic raised while compiling.
type Warning struct {
	Warning config.Warning
	Name    string
	Pos     int
	Len     int
	Msg     string
}

// Warn returns a warning for tok if wt is enabled in cfg.
func Warn(cfg *config.Config, wt config.Warning, tok token.Token, format string, args ...interface{}) (Warning, bool) {
	if !cfg.IsWarningEnabled(wt) {
		return Warning{}, false
	}
	return Warning{
		Warning: wt,
		Name:    cfg.Warnings[wt].Name,
		Pos:     tok.Pos,
		Len:     tok.Len,
		Msg:     fmt.Sprintf(format, args...),
	}, true
}

const (
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorNone   = "\033[0m"
)

// Reporter renders diagnostics against a single source text.
type Reporter struct {
	w      io.Writer
	source string
	color  bool
}

// NewReporter creates a Reporter writing to w. Colour is used only when
// w is a terminal.
func NewReporter(w io.Writer, source string) *Reporter {
	color := false
	if f, ok := w.(*os.File); ok {
		color = term.IsTerminal(int(f.Fd()))
	}
	return &Reporter{w: w, source: source, color: color}
}

func (r *Reporter) paint(color, s string) string {
	if !r.color {
		return s
	}
	return color + s + colorNone
}

// lineAt returns the line of the source containing pos and the column of
// pos within it, counted in runes.
func (r *Reporter) lineAt(pos int) (string, int) {
	if pos > len(r.source) {
		pos = len(r.source)
	}
	lineStart := strings.LastIndexByte(r.source[:pos], '\n') + 1
	lineEnd := len(r.source)
	if i := strings.IndexByte(r.source[pos:], '\n'); i >= 0 {
		lineEnd = pos + i
	}
	return r.source[lineStart:lineEnd], utf8.RuneCountInString(r.source[lineStart:pos])
}

// printErrorLine prints the source line and a caret indicating pos,
// followed by msg on the caret line
func (r *Reporter) printErrorLine(pos, length int, msg string) {
	line, col := r.lineAt(pos)
	fmt.Fprintln(r.w, line)
	marker := "^"
	if length > 1 {
		marker += strings.Repeat("~", length-1)
	}
	fmt.Fprintf(r.w, "%s%s %s\n", strings.Repeat(" ", col), r.paint(colorGreen, marker), msg)
}

// Error renders err. Errors that are not *Error are printed verbatim.
func (r *Reporter) Error(err error) {
	var e *Error
	if !errors.As(err, &e) {
		fmt.Fprintf(r.w, "%s %v\n", r.paint(colorRed, "error:"), err)
		return
	}
	if e.Pos < 0 {
		fmt.Fprintf(r.w, "%s %s\n", r.paint(colorRed, "error:"), e.Msg)
		return
	}
	r.printErrorLine(e.Pos, e.Len, e.Msg)
}

// Warning renders w the same way as an error, tagged with its flag name.
func (r *Reporter) Warning(w Warning) {
	r.printErrorLine(w.Pos, w.Len, fmt.Sprintf("%s %s [-W%s]", r.paint(colorYellow, "warning:"), w.Msg, w.Name))
}

// Report renders err against source on w.
func Report(w io.Writer, source string, err error) {
	NewReporter(w, source).Error(err)
}

// ReportWarning renders a warning against source on w.
func ReportWarning(w io.Writer, source string, warn Warning) {
	NewReporter(w, source).Warning(warn)
}
