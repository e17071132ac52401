package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// runCLI runs the command line with an isolated home directory so no user
// config is picked up
func runCLI(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	testChdir(t, t.TempDir())

	var stdout, stderr bytes.Buffer
	getenv := func(string) string { return "" }
	err := run(context.Background(), args, strings.NewReader(stdin), &stdout, &stderr, getenv)
	return stdout.String(), stderr.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestVersionAndHelp(t *testing.T) {
	stdout, _, err := runCLI(t, "", "--version")
	if err != nil || stdout != "alethia version "+Version+"\n" {
		t.Errorf("--version: %q, %v", stdout, err)
	}

	stdout, _, err = runCLI(t, "", "-h")
	if err != nil || !strings.Contains(stdout, "Usage:") {
		t.Errorf("-h: %q, %v", stdout, err)
	}
}

func TestUsageErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"no command", nil},
		{"unknown command", []string{"launch"}},
		{"run without files", []string{"run"}},
		{"check without files", []string{"check"}},
		{"fmt without files", []string{"fmt"}},
		{"eval without code", []string{"eval"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, stderr, err := runCLI(t, "", tt.args...)
			if !errors.Is(err, errUsage) {
				t.Errorf("expected usage error, got %v", err)
			}
			if !strings.Contains(stderr, "Usage:") {
				t.Errorf("stderr = %q", stderr)
			}
		})
	}
}

func TestEval(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected string
	}{
		{"flag", []string{"-e", "print 6 * 7;"}, "42\n"},
		{"subcommand", []string{"eval", `let s = "ab"; print s * 2;`}, "abab\n"},
		{"nothing printed", []string{"eval", "let x = 1;"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stdout, stderr, err := runCLI(t, "", tt.args...)
			if err != nil {
				t.Fatalf("unexpected error: %v (%s)", err, stderr)
			}
			if stdout != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, stdout)
			}
		})
	}
}

func TestEvalRuntimeError(t *testing.T) {
	stdout, stderr, err := runCLI(t, "", "-e", "print 1;print 1/0;")
	if !errors.Is(err, errReported) {
		t.Fatalf("expected reported error, got %v", err)
	}
	if stdout != "1\n" {
		t.Errorf("stdout = %q", stdout)
	}
	expected := "Error: Runtime error: Division by zero\n" +
		"  at line 1, column 16\n" +
		"    print 1;print 1/0;\n" +
		"                   ^\n"
	if stderr != expected {
		t.Errorf("expected:\n%s\ngot:\n%s", expected, stderr)
	}
}

func TestErrorCaretCountsCharacters(t *testing.T) {
	_, stderr, err := runCLI(t, "", "-e", "\tlet s = \"héllo wörld\"; print s / 0;")
	if !errors.Is(err, errReported) {
		t.Fatalf("expected reported error, got %v", err)
	}
	// '/' is the 33rd character of the line; the leading tab is trimmed
	expected := "Error: Runtime error: Division by zero\n" +
		"  at line 1, column 33\n" +
		"    let s = \"héllo wörld\"; print s / 0;\n" +
		"    " + strings.Repeat(" ", 31) + "^\n"
	if stderr != expected {
		t.Errorf("expected:\n%s\ngot:\n%s", expected, stderr)
	}
}

func TestRunFiles(t *testing.T) {
	dir := t.TempDir()
	first := writeFile(t, dir, "first.at", "let n = 3;\nprint n * n;\n")
	second := writeFile(t, dir, "second.at", "print n;\n")
	doc := writeFile(t, dir, "doc.md", "# Doc\n\n```alethia\nprint \"from markdown\";\n```\n")

	stdout, stderr, err := runCLI(t, "", "run", first, doc)
	if err != nil {
		t.Fatalf("unexpected error: %v (%s)", err, stderr)
	}
	if stdout != "9\nfrom markdown\n" {
		t.Errorf("stdout = %q", stdout)
	}

	// every file gets a fresh environment
	_, stderr, err = runCLI(t, "", "run", first, second)
	if !errors.Is(err, errReported) {
		t.Fatalf("expected reported error, got %v", err)
	}
	if !strings.HasPrefix(stderr, "Error: Runtime error: Undefined variable: n\n  in "+second+": line 1, column 7\n") {
		t.Errorf("stderr = %q", stderr)
	}
}

func TestRunFileErrors(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name     string
		path     string
		expected string
	}{
		{"missing", filepath.Join(dir, "nope.at"), "Error: File not found: "},
		{"wrong extension", writeFile(t, dir, "prog.txt", "print 1;"), "Error: File must have .at extension"},
		{"parse error", writeFile(t, dir, "bad.at", "let = 1;"), "Error: Parsing error: Expected identifier after 'let'"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, stderr, err := runCLI(t, "", "run", tt.path)
			if !errors.Is(err, errReported) {
				t.Fatalf("expected reported error, got %v", err)
			}
			if !strings.HasPrefix(stderr, tt.expected) {
				t.Errorf("stderr = %q, want prefix %q", stderr, tt.expected)
			}
		})
	}
}

func TestRunWatchStopsWithContext(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := writeFile(t, t.TempDir(), "prog.at", "print 1;")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for _, args := range [][]string{{"run", "--watch", path}, {"watch", path}} {
		var stdout, stderr bytes.Buffer
		err := run(ctx, args, strings.NewReader(""), &stdout, &stderr, func(string) string { return "" })
		if err != nil {
			t.Fatalf("%v: unexpected error: %v", args, err)
		}
		if stdout.String() != "1\n" {
			t.Errorf("%v: stdout = %q", args, stdout.String())
		}
		if !strings.Contains(stderr.String(), "[WATCH] watching "+path) {
			t.Errorf("%v: stderr = %q", args, stderr.String())
		}
	}
}

func TestCheck(t *testing.T) {
	dir := t.TempDir()
	good := writeFile(t, dir, "good.at", "print 1 / 0;\n")
	bad := writeFile(t, dir, "bad.at", "print 1;\n  let 5 = x;\n")

	stdout, stderr, err := runCLI(t, "", "check", good)
	if err != nil || stdout != "" || stderr != "" {
		t.Errorf("check good file: %q %q %v", stdout, stderr, err)
	}

	_, stderr, err = runCLI(t, "", "check", good, bad)
	if !errors.Is(err, errReported) {
		t.Fatalf("expected reported error, got %v", err)
	}
	expected := "Error: Parsing error: Expected identifier after 'let', found 5\n" +
		"  in " + bad + ": line 2, column 7\n" +
		"    let 5 = x;\n" +
		"        ^\n"
	if stderr != expected {
		t.Errorf("expected:\n%s\ngot:\n%s", expected, stderr)
	}
}

func TestFmt(t *testing.T) {
	dir := t.TempDir()
	messy := writeFile(t, dir, "messy.at", "let x=1;print x;")
	tidy := writeFile(t, dir, "tidy.at", "print 1;\n")

	stdout, _, err := runCLI(t, "", "fmt", messy)
	if err != nil || stdout != "let x = 1;\nprint x;\n" {
		t.Errorf("fmt: %q, %v", stdout, err)
	}

	stdout, _, err = runCLI(t, "", "fmt", "-l", messy, tidy)
	if err != nil || stdout != messy+"\n" {
		t.Errorf("fmt -l: %q, %v", stdout, err)
	}

	stdout, _, err = runCLI(t, "", "fmt", "-d", messy)
	if err != nil || !strings.Contains(stdout, "-1: let x=1;print x;\n+1: let x = 1;\n+2: print x;\n") {
		t.Errorf("fmt -d: %q, %v", stdout, err)
	}

	if _, _, err := runCLI(t, "", "fmt", "-w", messy); err != nil {
		t.Fatalf("fmt -w: %v", err)
	}
	data, err := os.ReadFile(messy)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "let x = 1;\nprint x;\n" {
		t.Errorf("rewritten file = %q", data)
	}
}

func TestFmtRefusesLiterateRewrite(t *testing.T) {
	doc := writeFile(t, t.TempDir(), "doc.md", "```at\nprint   1;\n```\n")
	_, stderr, err := runCLI(t, "", "fmt", "-w", doc)
	if !errors.Is(err, errReported) {
		t.Fatalf("expected reported error, got %v", err)
	}
	if !strings.Contains(stderr, "cannot rewrite a literate or compressed file") {
		t.Errorf("stderr = %q", stderr)
	}
}

func TestRepl(t *testing.T) {
	stdout, stderr, err := runCLI(t, "let x = 2\nprint x + 1\nprint y\n", "repl")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stdout != "3\n" {
		t.Errorf("stdout = %q", stdout)
	}
	if stderr != "Error: Runtime error: Undefined variable: y\n" {
		t.Errorf("stderr = %q", stderr)
	}
}

func TestConfig(t *testing.T) {
	dir := t.TempDir()
	prog := writeFile(t, dir, "prog.alethia", "print \"configured\";")
	cfgPath := writeFile(t, dir, "alethia.yaml", "run:\n  extensions: [\".alethia\"]\noutput:\n  print: ${OUT_FILE:-out.log}\n")

	stdout, stderr, err := runCLI(t, "", "--config", cfgPath, "run", prog)
	if err != nil {
		t.Fatalf("unexpected error: %v (%s)", err, stderr)
	}
	if stdout != "" {
		t.Errorf("stdout = %q", stdout)
	}
	data, err := os.ReadFile(filepath.Join(dir, "out.log"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "configured\n" {
		t.Errorf("output file = %q", data)
	}

	bad := writeFile(t, dir, "bad.yaml", "repl:\n  history_limit: -5\n")
	_, _, err = runCLI(t, "", "--config", bad, "-e", "print 1;")
	if err == nil || !strings.Contains(err.Error(), "repl.history_limit") {
		t.Errorf("expected config validation error, got %v", err)
	}
}

// testChdir changes the working directory for the duration of the test and
// restores it afterwards (stand-in for testing.T.Chdir, added in Go 1.24)
func testChdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(wd); err != nil {
			t.Fatal(err)
		}
	})
}
