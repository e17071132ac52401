// Package repl runs interactive Alethia sessions.
package repl

import (
	"bufio"
	"bytes"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/peterh/liner"

	"github.com/sambeau/alethia/pkg/alethia/alethia"
	perrors "github.com/sambeau/alethia/pkg/alethia/errors"
	"github.com/sambeau/alethia/pkg/alethia/evaluator"
	"github.com/sambeau/alethia/pkg/alethia/lexer"
)

const PROMPT = "> "
const CONTINUATION_PROMPT = ".. "

const LOGO = `
▄▀█ █░░ █▀▀ ▀█▀ █░█ █ ▄▀█
█▀█ █▄▄ ██▄ ░█░ █▀█ █ █▀█ `

// Options configures a session
type Options struct {
	Prompt             string
	ContinuationPrompt string
	HistoryFile        string // defaults to .alethia_history in the temp dir
	HistoryLimit       int    // entries kept in the history file, 0 for no limit
	Banner             bool
	Version            string
}

func (o Options) prompt(pending bool) string {
	if pending {
		if o.ContinuationPrompt != "" {
			return o.ContinuationPrompt
		}
		return CONTINUATION_PROMPT
	}
	if o.Prompt != "" {
		return o.Prompt
	}
	return PROMPT
}

func (o Options) historyFile() string {
	if o.HistoryFile != "" {
		return o.HistoryFile
	}
	return filepath.Join(os.TempDir(), ".alethia_history")
}

// Start runs a session until exit or end of input. A terminal gets line
// editing, history and tab completion; any other reader is consumed line by
// line without prompts.
func Start(in io.Reader, out, errOut io.Writer, opts Options) error {
	if f, ok := in.(*os.File); ok && isTerminal(f) {
		return startInteractive(out, errOut, opts)
	}
	return startPlain(in, out, errOut)
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func startPlain(in io.Reader, out, errOut io.Writer) error {
	session := NewSession(out, errOut)
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if session.Feed(scanner.Text()) {
			return nil
		}
	}
	session.Flush()
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading input: %w", err)
	}
	return nil
}

func startInteractive(out, errOut io.Writer, opts Options) error {
	line := liner.NewLiner()
	defer line.Close()

	line.SetCtrlCAborts(true)

	session := NewSession(out, errOut)
	line.SetWordCompleter(func(text string, pos int) (string, []string, string) {
		return session.Complete(text, pos)
	})

	historyFile := opts.historyFile()
	if f, err := os.Open(historyFile); err == nil {
		line.ReadHistory(f)
		f.Close()
	}
	defer saveHistory(line, historyFile, opts.HistoryLimit)

	if opts.Banner {
		fmt.Fprintln(out, LOGO)
		if opts.Version != "" {
			fmt.Fprintln(out, "v", opts.Version)
		}
		fmt.Fprintln(out, "")
		fmt.Fprintln(out, "Type 'exit' or Ctrl+D to quit, ':help' for commands")
		fmt.Fprintln(out, "")
	}

	for {
		input, err := line.Prompt(opts.prompt(session.Pending()))
		if err != nil {
			if err == liner.ErrPromptAborted {
				// Ctrl+C drops a half-typed statement
				if session.Pending() {
					fmt.Fprintln(out, "^C (cleared)")
				} else {
					fmt.Fprintln(out, "^C")
				}
				session.Discard()
				continue
			}
			if err == io.EOF {
				fmt.Fprintln(out, "\nGoodbye!")
				return nil
			}
			return fmt.Errorf("reading input: %w", err)
		}

		if strings.TrimSpace(input) != "" {
			line.AppendHistory(input)
		}
		if session.Feed(input) {
			fmt.Fprintln(out, "Goodbye!")
			return nil
		}
	}
}

// saveHistory writes the liner history, keeping the newest limit entries
func saveHistory(line *liner.State, path string, limit int) {
	var buf bytes.Buffer
	if _, err := line.WriteHistory(&buf); err != nil {
		return
	}
	entries := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if limit > 0 && len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}
	os.WriteFile(path, []byte(strings.Join(entries, "\n")+"\n"), 0o600)
}

// Session holds the interpreter state of one interactive session. Input is
// fed a line at a time; a statement spanning several lines runs once its
// brackets balance.
type Session struct {
	env    *evaluator.Environment
	out    io.Writer
	errOut io.Writer
	buffer strings.Builder
}

// NewSession creates a session printing program output to out and errors
// to errOut
func NewSession(out, errOut io.Writer) *Session {
	env := evaluator.NewEnvironment()
	env.Logger = alethia.WriterLogger(out)
	return &Session{env: env, out: out, errOut: errOut}
}

// Env returns the session's interpreter state
func (s *Session) Env() *evaluator.Environment {
	return s.env
}

// Pending reports whether an incomplete statement is buffered
func (s *Session) Pending() bool {
	return s.buffer.Len() > 0
}

// Discard drops buffered input
func (s *Session) Discard() {
	s.buffer.Reset()
}

// Feed handles one line of input and reports whether the session should end
func (s *Session) Feed(input string) bool {
	trimmed := strings.TrimSpace(input)

	if !s.Pending() {
		switch {
		case trimmed == "exit" || trimmed == "quit":
			return true
		case strings.HasPrefix(trimmed, ":"):
			s.command(trimmed)
			return false
		case trimmed == "":
			return false
		}
	}

	if s.Pending() {
		s.buffer.WriteString("\n")
	}
	s.buffer.WriteString(input)

	if needsMoreInput(s.buffer.String()) {
		return false
	}
	s.Flush()
	return false
}

// Flush runs whatever input is buffered
func (s *Session) Flush() {
	if !s.Pending() {
		return
	}
	source := s.buffer.String()
	s.buffer.Reset()

	if err := alethia.ExecuteIncremental(source, s.env); err != nil {
		s.printError(err)
	}
}

func (s *Session) printError(err error) {
	var aerr *perrors.AlethiaError
	if !stderrors.As(err, &aerr) {
		fmt.Fprintf(s.errOut, "Error: %v\n", err)
		return
	}
	fmt.Fprintf(s.errOut, "Error: %s\n", aerr.Summary())
	for _, hint := range aerr.Hints {
		fmt.Fprintf(s.errOut, "  %s\n", hint)
	}
}

func (s *Session) command(cmd string) {
	switch cmd {
	case ":help", ":h", ":?":
		fmt.Fprintln(s.out, "REPL Commands:")
		fmt.Fprintln(s.out, "  :help, :h, :?   Show this help")
		fmt.Fprintln(s.out, "  :env            Show global variables")
		fmt.Fprintln(s.out, "  :clear          Forget all variables and functions")
		fmt.Fprintln(s.out, "  exit, quit      Exit the REPL")
		fmt.Fprintln(s.out, "")
		fmt.Fprintln(s.out, "Statements run when their brackets balance; ';' is optional.")
	case ":env":
		s.printEnvironment()
	case ":clear":
		s.env.Reset()
		fmt.Fprintln(s.out, "Environment cleared")
	default:
		fmt.Fprintf(s.out, "Unknown command: %s (type :help for commands)\n", cmd)
	}
}

// printEnvironment lists global bindings in name order
func (s *Session) printEnvironment() {
	globals := s.env.Globals()
	if len(globals) == 0 {
		fmt.Fprintln(s.out, "(no variables)")
		return
	}

	for _, name := range s.env.Names() {
		obj, ok := globals[name]
		if !ok {
			continue
		}
		fmt.Fprintf(s.out, "  %s: %s = %s\n", name, evaluator.TypeName(obj), truncate(obj.Inspect(), 60))
	}
}

// truncate shortens s to at most limit characters, ending in "..."
func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-3]) + "..."
}

// Complete offers keywords and bound names for the word ending at pos
func (s *Session) Complete(line string, pos int) (head string, completions []string, tail string) {
	if pos > len(line) {
		pos = len(line)
	}
	start := pos
	for start > 0 && isWordByte(line[start-1]) {
		start--
	}
	head, word, tail := line[:start], line[start:pos], line[pos:]
	if word == "" {
		return head, nil, tail
	}

	seen := make(map[string]bool)
	candidates := append(lexer.Keywords(), s.env.Names()...)
	for _, c := range candidates {
		if strings.HasPrefix(c, word) && !seen[c] {
			seen[c] = true
			completions = append(completions, c)
		}
	}
	return head, completions, tail
}

func isWordByte(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}

// needsMoreInput reports whether input has unclosed braces, brackets or
// parentheses outside string literals. Strings have no escapes.
func needsMoreInput(input string) bool {
	depth := 0
	inString := false

	for i := 0; i < len(input); i++ {
		ch := input[i]
		if ch == '"' {
			inString = !inString
			continue
		}
		if inString {
			continue
		}
		switch ch {
		case '{', '[', '(':
			depth++
		case '}', ']', ')':
			depth--
		}
	}

	return depth > 0
}
