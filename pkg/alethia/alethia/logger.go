package alethia

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/sambeau/alethia/pkg/alethia/evaluator"
)

// Logger receives the output of print statements
type Logger = evaluator.Logger

// StdoutLogger returns the logger ExecuteProgram uses
func StdoutLogger() Logger {
	return evaluator.DefaultLogger
}

type writerLogger struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *writerLogger) Log(values ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprint(l.w, joinValues(values))
}

func (l *writerLogger) LogLine(values ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintln(l.w, joinValues(values))
}

// WriterLogger returns a logger that writes each print to w
func WriterLogger(w io.Writer) Logger {
	return &writerLogger{w: w}
}

// BufferedLogger keeps printed lines in memory
type BufferedLogger struct {
	mu      sync.Mutex
	lines   []string
	partial strings.Builder
}

// NewBufferedLogger creates an empty BufferedLogger
func NewBufferedLogger() *BufferedLogger {
	return &BufferedLogger{}
}

func (l *BufferedLogger) Log(values ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.partial.WriteString(joinValues(values))
}

// LogLine completes the current line, including anything written by Log
func (l *BufferedLogger) LogLine(values ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = append(l.lines, l.partial.String()+joinValues(values))
	l.partial.Reset()
}

// Lines returns a copy of the completed lines
func (l *BufferedLogger) Lines() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.lines...)
}

// String returns everything captured, one line per print
func (l *BufferedLogger) String() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	var sb strings.Builder
	for _, line := range l.lines {
		sb.WriteString(line)
		sb.WriteByte('\n')
	}
	sb.WriteString(l.partial.String())
	return sb.String()
}

// Reset discards captured output
func (l *BufferedLogger) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = nil
	l.partial.Reset()
}

type nullLogger struct{}

func (nullLogger) Log(values ...any)     {}
func (nullLogger) LogLine(values ...any) {}

// NullLogger returns a logger that discards output, for syntax checks and
// benchmarks
func NullLogger() Logger {
	return nullLogger{}
}

func joinValues(values []any) string {
	switch len(values) {
	case 0:
		return ""
	case 1:
		return fmt.Sprint(values[0])
	}
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = fmt.Sprint(v)
	}
	return strings.Join(parts, " ")
}
