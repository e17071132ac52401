package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"unicode/utf8"

	"github.com/sambeau/alethia/config"
	"github.com/sambeau/alethia/pkg/alethia/alethia"
	perrors "github.com/sambeau/alethia/pkg/alethia/errors"
	"github.com/sambeau/alethia/pkg/alethia/evaluator"
	"github.com/sambeau/alethia/pkg/alethia/format"
	"github.com/sambeau/alethia/pkg/alethia/repl"
	"github.com/sambeau/alethia/pkg/alethia/source"
	"github.com/sambeau/alethia/pkg/alethia/watch"
)

// Version is set at build time via -ldflags
var Version = "0.1.0-dev"

// errReported means the failure has already been written to stderr
var errReported = errors.New("failed")

// errUsage means the command line was wrong; usage has been printed
var errUsage = errors.New("usage")

func main() {
	ctx := context.Background()
	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr, os.Getenv); err != nil {
		if !errors.Is(err, errReported) && !errors.Is(err, errUsage) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

// cli carries what every subcommand needs
type cli struct {
	cfg    *config.Config
	loader *source.Loader
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	output io.Writer // where print goes
}

// run is the main entry point, designed for testability (Mat Ryer pattern)
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer, getenv func(string) string) error {
	flags := flag.NewFlagSet("alethia", flag.ContinueOnError)
	flags.SetOutput(stderr)
	flags.Usage = func() { printUsage(stderr) }

	var (
		configPath  = flags.String("config", "", "Path to config file")
		evalCode    = flags.String("e", "", "Evaluate code string")
		showVersion = flags.Bool("version", false, "Show version")
		versionV    = flags.Bool("V", false, "Show version")
		showHelp    = flags.Bool("help", false, "Show help")
		helpH       = flags.Bool("h", false, "Show help")
	)

	if err := flags.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return errUsage
	}

	if *showHelp || *helpH {
		printUsage(stdout)
		return nil
	}
	if *showVersion || *versionV {
		fmt.Fprintf(stdout, "alethia version %s\n", Version)
		return nil
	}

	cfg, err := config.Load(*configPath, getenv)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	output, closeOutput, err := openOutput(cfg.Output.Print, stdout, stderr)
	if err != nil {
		return err
	}
	defer closeOutput()

	c := &cli{
		cfg: cfg,
		loader: &source.Loader{
			Extensions:        cfg.Run.Extensions,
			MarkdownLanguages: cfg.Run.MarkdownLanguages,
		},
		stdin:  stdin,
		stdout: stdout,
		stderr: stderr,
		output: output,
	}

	if *evalCode != "" {
		return c.eval(*evalCode)
	}

	rest := flags.Args()
	if len(rest) == 0 {
		printUsage(stderr)
		return errUsage
	}

	switch rest[0] {
	case "run":
		return c.runCommand(ctx, rest[1:])
	case "watch":
		return c.runCommand(ctx, append([]string{"--watch"}, rest[1:]...))
	case "repl":
		return c.replCommand()
	case "eval":
		if len(rest) != 2 {
			fmt.Fprintln(stderr, "Usage: alethia eval <code>")
			return errUsage
		}
		return c.eval(rest[1])
	case "check":
		return c.checkCommand(rest[1:])
	case "fmt":
		return c.fmtCommand(rest[1:])
	default:
		fmt.Fprintf(stderr, "Unknown command: %s\n\n", rest[0])
		printUsage(stderr)
		return errUsage
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintf(w, `alethia - Alethia language interpreter version %s

Usage:
  alethia [options] <command> [args]

Commands:
  run [--watch] <file>...   Run .at files (or literate .md files)
  watch <file>...           Same as run --watch
  repl                      Start an interactive session
  eval <code>               Evaluate a code string
  check <file>...           Check syntax without executing
  fmt [-w|-l|-d] <file>...  Format source files

Options:
  --config <path>   Path to config file (default: $ALETHIA_CONFIG, ./alethia.yaml,
                    ~/.config/alethia/alethia.yaml)
  -e <code>         Evaluate a code string
  -V, --version     Show version information
  -h, --help        Show this help message

Examples:
  alethia run fib.at
  alethia run --watch fib.at
  alethia -e 'print 6 * 7;'
  alethia fmt -w *.at
`, Version)
}

// openOutput resolves output.print to a writer
func openOutput(dest string, stdout, stderr io.Writer) (io.Writer, func(), error) {
	switch dest {
	case config.OutputStdout:
		return stdout, func() {}, nil
	case config.OutputStderr:
		return stderr, func() {}, nil
	}
	f, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("opening output file: %w", err)
	}
	return f, func() { f.Close() }, nil
}

func (c *cli) newEnvironment(filename string) *evaluator.Environment {
	env := evaluator.NewEnvironment()
	env.Filename = filename
	env.Logger = alethia.WriterLogger(c.output)
	return env
}

// eval runs an inline code string
func (c *cli) eval(code string) error {
	if err := alethia.Execute(code, c.newEnvironment("")); err != nil {
		printError(c.stderr, err, code)
		return errReported
	}
	return nil
}

// runCommand implements 'alethia run'
func (c *cli) runCommand(ctx context.Context, args []string) error {
	flags := flag.NewFlagSet("run", flag.ContinueOnError)
	flags.SetOutput(c.stderr)
	watchFlag := flags.Bool("watch", false, "Re-run files when they change")
	if err := flags.Parse(args); err != nil {
		return errUsage
	}

	files := flags.Args()
	if len(files) == 0 {
		fmt.Fprintln(c.stderr, "Usage: alethia run [--watch] <file>...")
		return errUsage
	}

	failed := false
	for _, path := range files {
		if !c.runFile(path) {
			failed = true
		}
	}

	if !*watchFlag {
		if failed {
			return errReported
		}
		return nil
	}
	return c.watchFiles(ctx, files)
}

// runFile loads and executes one file, reporting any error. It returns
// false when the program failed.
func (c *cli) runFile(path string) bool {
	f, err := c.loader.Load(path)
	if err != nil {
		printError(c.stderr, err, "")
		return false
	}
	if err := alethia.Execute(f.Text, c.newEnvironment(path)); err != nil {
		printError(c.stderr, err, f.Text)
		return false
	}
	return true
}

func (c *cli) watchFiles(ctx context.Context, files []string) error {
	debounce, err := c.cfg.DebounceDuration()
	if err != nil {
		return fmt.Errorf("watch.debounce: %w", err)
	}

	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	w, err := watch.New(files, func(path string) { c.runFile(path) }, c.stderr, c.stderr)
	if err != nil {
		return err
	}
	defer w.Close()
	w.SetDebounce(debounce)

	return w.Run(ctx)
}

// replCommand implements 'alethia repl'
func (c *cli) replCommand() error {
	return repl.Start(c.stdin, c.output, c.stderr, repl.Options{
		Prompt:             c.cfg.REPL.Prompt,
		ContinuationPrompt: c.cfg.REPL.ContinuationPrompt,
		HistoryFile:        c.cfg.REPL.HistoryFile,
		HistoryLimit:       c.cfg.REPL.HistoryLimit,
		Banner:             c.cfg.REPL.Banner,
		Version:            Version,
	})
}

// checkCommand implements 'alethia check'
func (c *cli) checkCommand(files []string) error {
	if len(files) == 0 {
		fmt.Fprintln(c.stderr, "Usage: alethia check <file>...")
		return errUsage
	}

	hasErrors := false
	for _, path := range files {
		f, err := c.loader.Load(path)
		if err != nil {
			printError(c.stderr, err, "")
			hasErrors = true
			continue
		}
		if _, err := alethia.Parse(f.Text, path); err != nil {
			printError(c.stderr, err, f.Text)
			hasErrors = true
		}
	}

	if hasErrors {
		return errReported
	}
	return nil
}

// fmtCommand implements 'alethia fmt'
func (c *cli) fmtCommand(args []string) error {
	flags := flag.NewFlagSet("fmt", flag.ContinueOnError)
	flags.SetOutput(c.stderr)
	writeFlag := flags.Bool("w", false, "Write result to source file instead of stdout")
	listFlag := flags.Bool("l", false, "List files whose formatting differs")
	diffFlag := flags.Bool("d", false, "Display diffs instead of rewriting files")
	if err := flags.Parse(args); err != nil {
		return errUsage
	}

	files := flags.Args()
	if len(files) == 0 {
		fmt.Fprintln(c.stderr, "Usage: alethia fmt [-w|-l|-d] <file>...")
		return errUsage
	}

	failed := false
	for _, path := range files {
		if err := c.formatFile(path, *writeFlag, *listFlag, *diffFlag); err != nil {
			printError(c.stderr, err, "")
			failed = true
		}
	}
	if failed {
		return errReported
	}
	return nil
}

func (c *cli) formatFile(path string, write, list, diff bool) error {
	f, err := c.loader.Load(path)
	if err != nil {
		return err
	}

	formatted, err := format.Source(f.Text, path)
	if err != nil {
		return err
	}
	changed := formatted != f.Text

	switch {
	case list:
		if changed {
			fmt.Fprintln(c.stdout, path)
		}
	case diff:
		if changed {
			showDiff(c.stdout, path, f.Text, formatted)
		}
	case write:
		if !changed {
			return nil
		}
		if f.Literate || f.Compressed {
			return fmt.Errorf("%s: cannot rewrite a literate or compressed file", path)
		}
		if err := os.WriteFile(path, []byte(formatted), 0o644); err != nil {
			return fmt.Errorf("writing file: %w", err)
		}
	default:
		fmt.Fprint(c.stdout, formatted)
	}
	return nil
}

// showDiff displays a simple line-by-line diff
func showDiff(w io.Writer, path, original, formatted string) {
	fmt.Fprintf(w, "diff %s\n", path)

	origLines := strings.Split(original, "\n")
	fmtLines := strings.Split(formatted, "\n")

	for i := 0; i < max(len(origLines), len(fmtLines)); i++ {
		var origLine, fmtLine string
		if i < len(origLines) {
			origLine = origLines[i]
		}
		if i < len(fmtLines) {
			fmtLine = fmtLines[i]
		}
		if origLine == fmtLine {
			continue
		}
		if origLine != "" {
			fmt.Fprintf(w, "-%d: %s\n", i+1, origLine)
		}
		if fmtLine != "" {
			fmt.Fprintf(w, "+%d: %s\n", i+1, fmtLine)
		}
	}
}

// printError reports err on w. Alethia errors get their location, hints and
// the offending source line when src is available.
func printError(w io.Writer, err error, src string) {
	var aerr *perrors.AlethiaError
	if !errors.As(err, &aerr) {
		fmt.Fprintf(w, "Error: %v\n", err)
		return
	}

	fmt.Fprintf(w, "Error: %s\n", aerr.Summary())
	if aerr.Line > 0 {
		if aerr.File != "" {
			fmt.Fprintf(w, "  in %s: line %d, column %d\n", aerr.File, aerr.Line, aerr.Column)
		} else {
			fmt.Fprintf(w, "  at line %d, column %d\n", aerr.Line, aerr.Column)
		}
	}
	for _, hint := range aerr.Hints {
		fmt.Fprintf(w, "  %s\n", hint)
	}
	if src != "" {
		printSourceContext(w, strings.Split(src, "\n"), aerr.Line, aerr.Column)
	}
}

// printSourceContext prints the source line and a pointer to the column.
// Columns count characters, not bytes.
func printSourceContext(w io.Writer, lines []string, lineNum, colNum int) {
	if lineNum <= 0 || lineNum > len(lines) {
		return
	}

	sourceLine := lines[lineNum-1]
	trimmed := strings.TrimLeft(sourceLine, " \t")
	if trimmed == "" {
		return
	}
	indent := utf8.RuneCountInString(sourceLine) - utf8.RuneCountInString(trimmed)

	fmt.Fprintf(w, "    %s\n", trimmed)
	if colNum > indent {
		fmt.Fprintf(w, "    %s^\n", strings.Repeat(" ", colNum-1-indent))
	}
}
