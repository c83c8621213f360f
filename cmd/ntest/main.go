// ntest runs a ninecc binary over the Markdown test corpus.
//
// Each case is compiled by the binary under test. Execute assertions are
// checked natively (assemble with cc, run, compare the exit status) when
// the host can run x86-64 ELF programs, and with --run otherwise. Results
// are written to a JSON report that doubles as a cache keyed by the
// xxhash of the case and of the compiler binary.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/google/go-cmp/cmp"

	"github.com/ninecc/ninecc/pkg/casefile"
	"github.com/ninecc/ninecc/pkg/cli"
	"github.com/ninecc/ninecc/pkg/util"
)

type Execution struct {
	Args     []string      `json:"args,omitempty"`
	Stdout   string        `json:"stdout"`
	Stderr   string        `json:"stderr"`
	ExitCode int           `json:"exitCode"`
	Duration time.Duration `json:"duration"`
	TimedOut bool          `json:"timed_out,omitempty"`
}

type CaseResult struct {
	ID      string      `json:"id"`
	File    string      `json:"file"`
	Hash    string      `json:"hash"`
	Status  string      `json:"status"` // PASS, FAIL, SKIP, ERROR
	Message string      `json:"message,omitempty"`
	Diff    string      `json:"diff,omitempty"`
	Runs    []Execution `json:"runs,omitempty"`
}

type Report map[string]*CaseResult

const (
	modeAuto   = "auto"
	modeNative = "native"
	modeVM     = "vm"
)

const (
	cRed    = "\x1b[91m"
	cYellow = "\x1b[93m"
	cGreen  = "\x1b[92m"
	cCyan   = "\x1b[96m"
	cBold   = "\x1b[1m"
	cNone   = "\x1b[0m"
)

type suite struct {
	compiler     string
	compilerArgs []string
	compilerHash string
	mode         string
	timeout      time.Duration
	tempDir      string
	cached       bool
	previous     Report
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	app := cli.NewApp("ntest")
	app.Synopsis = "[options]"
	app.Description = "Runs a ninecc binary over the Markdown test corpus and compares every assertion."
	app.Stdout, app.Stderr = stdout, stderr

	var (
		s            suite
		compilerArgs string
		casesDir     string
		reportPath   string
		jobs         int
		verbose      bool
	)
	fs := app.FlagSet
	fs.String(&s.compiler, "compiler", "c", "./ninecc", "Path to the compiler under test.", "path")
	fs.String(&compilerArgs, "compiler-args", "", "", "Extra compiler arguments (space-separated).", "args")
	fs.String(&casesDir, "cases", "", "testdata", "Directory holding the *.md corpus.", "dir")
	fs.String(&reportPath, "output", "o", ".ntest_results.json", "JSON report, also read back by --cached.", "file")
	fs.String(&s.mode, "mode", "m", modeAuto, "Execution mode: auto, native or vm.", "mode")
	fs.Duration(&s.timeout, "timeout", "", 5*time.Second, "Timeout for each command.")
	fs.Int(&jobs, "jobs", "j", runtime.NumCPU(), "Number of parallel jobs.")
	fs.Bool(&s.cached, "cached", "", false, "Reuse passing results whose case and compiler are unchanged.")
	fs.Bool(&verbose, "verbose", "v", false, "Print passing cases too.")

	app.Action = func([]string) error {
		s.compilerArgs = strings.Fields(compilerArgs)
		mode, err := resolveMode(s.mode, runtime.GOOS, runtime.GOARCH, hasCC())
		if err != nil {
			return err
		}
		s.mode = mode

		cases, err := casefile.LoadDir(casesDir)
		if err != nil {
			return err
		}
		if len(cases) == 0 {
			fmt.Fprintf(stdout, "No test cases found in %s.\n", casesDir)
			return nil
		}

		s.compilerHash, err = hashFile(s.compiler)
		if err != nil {
			return fmt.Errorf("could not read compiler '%s': %w", s.compiler, err)
		}
		s.previous = loadReport(reportPath)

		s.tempDir, err = os.MkdirTemp("", "ntest-*")
		if err != nil {
			return err
		}
		defer os.RemoveAll(s.tempDir)
		stop := cleanupOnInterrupt(s.tempDir, stderr)
		defer stop()

		results := s.runAll(cases, jobs)
		printSummary(stdout, results, s.mode, verbose)
		if err := writeReport(reportPath, results); err != nil {
			return err
		}
		for _, r := range results {
			if r.Status == "FAIL" || r.Status == "ERROR" {
				return errFailed
			}
		}
		return nil
	}

	if err := app.Run(args); err != nil {
		var parseErr *cli.ParseError
		if !errors.Is(err, errFailed) && !errors.As(err, &parseErr) {
			fmt.Fprintf(stderr, "%s[ERROR]%s %v\n", cRed, cNone, err)
		}
		return 1
	}
	return 0
}

var errFailed = errors.New("test failures")

func cleanupOnInterrupt(tempDir string, stderr io.Writer) func() {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)
	go func() {
		if _, ok := <-c; ok {
			os.RemoveAll(tempDir)
			fmt.Fprintf(stderr, "\n%s[INTERRUPT]%s Test run cancelled. Cleaning up...\n", cYellow, cNone)
			os.Exit(1)
		}
	}()
	return func() {
		signal.Stop(c)
		close(c)
	}
}

func hasCC() bool {
	_, err := exec.LookPath("cc")
	return err == nil
}

// resolveMode picks native execution only where the generated ELF
// assembly can be assembled and run.
func resolveMode(mode, goos, goarch string, cc bool) (string, error) {
	native := goos == "linux" && goarch == "amd64" && cc
	switch mode {
	case modeAuto:
		if native {
			return modeNative, nil
		}
		return modeVM, nil
	case modeNative:
		if !native {
			return "", fmt.Errorf("native mode needs cc on linux/amd64, running on %s/%s", goos, goarch)
		}
		return modeNative, nil
	case modeVM:
		return modeVM, nil
	default:
		return "", fmt.Errorf("unknown mode '%s'. Supported: auto, native, vm", mode)
	}
}

// caseKey identifies a case together with the compiler that ran it.
func caseKey(tc casefile.TestCase, compilerHash, mode string) string {
	h := xxhash.New()
	h.WriteString(tc.Source)
	h.WriteString("\x00")
	h.WriteString(strings.Join(tc.Flags, " "))
	for _, a := range tc.Assertions {
		h.WriteString("\x00" + string(a.Type) + "\x00" + a.Content)
	}
	h.WriteString("\x00" + compilerHash + "\x00" + mode)
	return strconv.FormatUint(h.Sum64(), 16)
}

func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := xxhash.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return strconv.FormatUint(h.Sum64(), 16), nil
}

func (s *suite) runAll(cases []casefile.TestCase, jobs int) []*CaseResult {
	if jobs < 1 {
		jobs = 1
	}
	tasks := make(chan int, len(cases))
	results := make([]*CaseResult, len(cases))
	var wg sync.WaitGroup

	for w := 0; w < jobs; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range tasks {
				results[i] = s.runCase(i, cases[i])
			}
		}()
	}
	for i := range cases {
		tasks <- i
	}
	close(tasks)
	wg.Wait()

	sort.SliceStable(results, func(i, j int) bool { return results[i].ID < results[j].ID })
	return results
}

func (s *suite) runCase(index int, tc casefile.TestCase) *CaseResult {
	res := &CaseResult{ID: tc.ID(), File: tc.File, Hash: caseKey(tc, s.compilerHash, s.mode)}

	if prev, ok := s.previous[res.ID]; s.cached && ok && prev.Hash == res.Hash && prev.Status == "PASS" {
		*res = *prev
		res.Message = "cached: " + prev.Message
		return res
	}

	var diffs strings.Builder
	for ai, a := range tc.Assertions {
		var (
			runs []Execution
			diff string
			err  error
		)
		switch a.Type {
		case casefile.AssertExecute:
			runs, diff, err = s.checkExecute(fmt.Sprintf("%d-%d", index, ai), tc, a)
		case casefile.AssertAST:
			runs, diff = s.checkAST(tc, a)
		case casefile.AssertCompileError:
			runs, diff, err = s.checkCompileError(tc, a)
		}
		res.Runs = append(res.Runs, runs...)
		if err != nil {
			res.Status, res.Message = "ERROR", fmt.Sprintf("%s assertion: %v", a.Type, err)
			return res
		}
		if diff != "" {
			fmt.Fprintf(&diffs, "%s assertion (line %d):\n%s", a.Type, a.Line, diff)
		}
	}

	if diffs.Len() > 0 {
		res.Status, res.Message, res.Diff = "FAIL", "assertion mismatch", diffs.String()
		return res
	}
	res.Status, res.Message = "PASS", fmt.Sprintf("%d assertion(s) passed", len(tc.Assertions))
	return res
}

// compilerCommand builds the argument list for one compiler invocation.
// The source always follows "--" so programs starting with '-' are never
// mistaken for flags.
func (s *suite) compilerCommand(tc casefile.TestCase, extra ...string) []string {
	args := append([]string{}, s.compilerArgs...)
	args = append(args, tc.Flags...)
	args = append(args, extra...)
	return append(args, "--", tc.Source)
}

func (s *suite) exec(name string, args ...string) Execution {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	return executeCommand(ctx, name, args...)
}

func (s *suite) checkExecute(tag string, tc casefile.TestCase, a casefile.Assertion) ([]Execution, string, error) {
	want, err := a.Value()
	if err != nil {
		return nil, "", err
	}

	if s.mode == modeVM {
		res := s.exec(s.compiler, s.compilerCommand(tc, "--run")...)
		if res.ExitCode != 0 || res.TimedOut {
			return []Execution{res}, compileFailure(res), nil
		}
		return []Execution{res}, cmp.Diff(strconv.FormatInt(want, 10), strings.TrimSpace(res.Stdout)), nil
	}

	asmPath := filepath.Join(s.tempDir, tag+".s")
	binPath := filepath.Join(s.tempDir, tag)
	comp := s.exec(s.compiler, s.compilerCommand(tc, "-o", asmPath)...)
	if comp.ExitCode != 0 || comp.TimedOut {
		return []Execution{comp}, compileFailure(comp), nil
	}
	link := s.exec("cc", "-o", binPath, asmPath)
	if link.ExitCode != 0 || link.TimedOut {
		return []Execution{comp, link}, "", fmt.Errorf("cc failed: %s", strings.TrimSpace(link.Stderr))
	}
	prog := s.exec(binPath)
	runs := []Execution{comp, link, prog}
	if prog.TimedOut {
		return runs, "program timed out\n", nil
	}
	return runs, cmp.Diff(exitStatus(want), prog.ExitCode), nil
}

// exitStatus is the value a shell sees when main returns v.
func exitStatus(v int64) int { return int(v & 0xff) }

func (s *suite) checkAST(tc casefile.TestCase, a casefile.Assertion) ([]Execution, string) {
	res := s.exec(s.compiler, s.compilerCommand(tc, "--dump-ast")...)
	if res.ExitCode != 0 || res.TimedOut {
		return []Execution{res}, compileFailure(res)
	}
	return []Execution{res}, cmp.Diff(a.Content+"\n", res.Stdout)
}

func (s *suite) checkCompileError(tc casefile.TestCase, a casefile.Assertion) ([]Execution, string, error) {
	kind, msg, err := a.CompileError()
	if err != nil {
		return nil, "", err
	}
	// stderr only carries the message; kinds are checked in-process by the
	// pkg/compiler corpus test
	if _, ok := util.ParseErrorKind(kind); !ok {
		return nil, "", fmt.Errorf("line %d: unknown error kind '%s'", a.Line, kind)
	}
	res := s.exec(s.compiler, s.compilerCommand(tc, "--dump-ast")...)
	return []Execution{res}, compareCompileError(msg, res), nil
}

// compareCompileError expects exit status 1 and a caret line ending in
// msg on stderr. The marker may be underlined as "^~~".
func compareCompileError(msg string, res Execution) string {
	if res.ExitCode != 1 {
		return fmt.Sprintf("exit code: want 1, got %d\n", res.ExitCode)
	}
	for _, line := range strings.Split(res.Stderr, "\n") {
		marker, text, ok := strings.Cut(strings.TrimLeft(line, " "), " ")
		if ok && text == msg && strings.HasPrefix(marker, "^") && strings.Trim(marker[1:], "~") == "" {
			return ""
		}
	}
	return cmp.Diff("^ "+msg, strings.TrimSpace(lastLine(res.Stderr)))
}

func lastLine(s string) string {
	s = strings.TrimRight(s, "\n")
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return s[i+1:]
	}
	return s
}

func compileFailure(res Execution) string {
	if res.TimedOut {
		return "compiler timed out\n"
	}
	return fmt.Sprintf("compiler exited with %d:\n%s", res.ExitCode, res.Stderr)
}

// executeCommand runs a command with a timeout and captures its output.
func executeCommand(ctx context.Context, name string, args ...string) Execution {
	start := time.Now()
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := Execution{
		Args:     append([]string{name}, args...),
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}

	var exitErr *exec.ExitError
	switch {
	case ctx.Err() == context.DeadlineExceeded:
		res.TimedOut = true
		res.ExitCode = -1
	case errors.As(err, &exitErr):
		res.ExitCode = exitErr.ExitCode()
	case err != nil:
		res.ExitCode = -2
		res.Stderr += "\nexecution error: " + err.Error()
	}
	return res
}

func loadReport(path string) Report {
	prev := make(Report)
	data, err := os.ReadFile(path)
	if err != nil {
		return prev
	}
	if json.Unmarshal(data, &prev) != nil {
		return make(Report)
	}
	return prev
}

func writeReport(path string, results []*CaseResult) error {
	report := make(Report, len(results))
	for _, r := range results {
		report[r.ID] = r
	}
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func printSummary(w io.Writer, results []*CaseResult, mode string, verbose bool) {
	counts := make(map[string]int)
	for _, r := range results {
		counts[r.Status]++
		switch r.Status {
		case "PASS":
			if verbose {
				fmt.Fprintf(w, "  [%sPASS%s] %s%s%s %s\n", cGreen, cNone, cCyan, r.ID, cNone, r.Message)
			}
		case "FAIL":
			fmt.Fprintf(w, "  [%sFAIL%s] %s%s%s %s\n", cRed, cNone, cCyan, r.ID, cNone, r.Message)
			fmt.Fprint(w, formatDiff(r.Diff))
		case "ERROR":
			fmt.Fprintf(w, "  [%sERROR%s] %s%s%s %s\n", cRed, cNone, cCyan, r.ID, cNone, r.Message)
		case "SKIP":
			fmt.Fprintf(w, "  [%sSKIP%s] %s%s%s %s\n", cYellow, cNone, cCyan, r.ID, cNone, r.Message)
		}
	}
	fmt.Fprintf(w, "%sTest Summary (%s):%s %s%d Passed%s, %s%d Failed%s, %s%d Skipped%s, %s%d Errored%s, %d Total\n",
		cBold, mode, cNone, cGreen, counts["PASS"], cNone, cRed, counts["FAIL"], cNone,
		cYellow, counts["SKIP"], cNone, cRed, counts["ERROR"], cNone, len(results))
}

func formatDiff(diff string) string {
	if diff == "" {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("    --- Diff ---\n")
	for _, line := range strings.Split(strings.TrimRight(diff, "\n"), "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, "-"):
			sb.WriteString(cRed)
		case strings.HasPrefix(trimmed, "+"):
			sb.WriteString(cGreen)
		}
		sb.WriteString("    " + line + cNone + "\n")
	}
	return sb.String()
}
