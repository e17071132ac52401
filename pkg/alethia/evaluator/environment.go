package evaluator

import (
	"fmt"
	"sort"
)

// Logger interface for print output
type Logger interface {
	Log(values ...interface{})
	LogLine(values ...interface{})
}

// defaultStdoutLogger is the default logger that writes to stdout
type defaultStdoutLogger struct{}

func (l *defaultStdoutLogger) Log(values ...interface{}) {
	for i, v := range values {
		if i > 0 {
			fmt.Print(" ")
		}
		fmt.Print(v)
	}
}

func (l *defaultStdoutLogger) LogLine(values ...interface{}) {
	l.Log(values...)
	fmt.Println()
}

// DefaultLogger is the default stdout logger
var DefaultLogger Logger = &defaultStdoutLogger{}

// DefaultMaxDepth bounds nested function calls
const DefaultMaxDepth = 10000

// Environment is the interpreter state: one global map plus a stack of
// frames. The bottom frame is the top-level scope and is never popped; every
// function call pushes one more.
//
// An Environment is owned by a single caller. ExecuteProgram builds a fresh
// one per run; an interactive session keeps one alive across inputs.
type Environment struct {
	globals  map[string]Object
	frames   []map[string]Object
	Filename string
	Logger   Logger // Logger for print output
	MaxDepth int    // call depth limit, 0 for DefaultMaxDepth
}

// NewEnvironment creates an empty environment that prints to stdout
func NewEnvironment() *Environment {
	return &Environment{
		globals: make(map[string]Object),
		frames:  []map[string]Object{make(map[string]Object)},
		Logger:  DefaultLogger,
	}
}

// Get resolves a name: frames from innermost to outermost, then globals
func (e *Environment) Get(name string) (Object, bool) {
	for i := len(e.frames) - 1; i >= 0; i-- {
		if obj, ok := e.frames[i][name]; ok {
			return obj, true
		}
	}
	obj, ok := e.globals[name]
	return obj, ok
}

// Declare binds a name for 'let'. Declarations always write the global map,
// whatever the current call depth. A frame binding of the same name still
// wins on lookup.
func (e *Environment) Declare(name string, val Object) Object {
	e.globals[name] = val
	return val
}

// Assign binds a name for plain assignment. An existing binding in any frame
// is overwritten in place (innermost first); otherwise the name goes into
// the innermost frame, which is the top-level frame outside any call.
func (e *Environment) Assign(name string, val Object) Object {
	for i := len(e.frames) - 1; i >= 0; i-- {
		if _, ok := e.frames[i][name]; ok {
			e.frames[i][name] = val
			return val
		}
	}
	e.frames[len(e.frames)-1][name] = val
	return val
}

// pushFrame opens a frame for a function call with its parameters bound
func (e *Environment) pushFrame(bindings map[string]Object) {
	e.frames = append(e.frames, bindings)
}

// popFrame discards the innermost call frame. The top-level frame stays.
func (e *Environment) popFrame() {
	if len(e.frames) <= 1 {
		return
	}
	e.frames[len(e.frames)-1] = nil
	e.frames = e.frames[:len(e.frames)-1]
}

// Depth returns the number of active call frames
func (e *Environment) Depth() int {
	return len(e.frames) - 1
}

func (e *Environment) maxDepth() int {
	if e.MaxDepth > 0 {
		return e.MaxDepth
	}
	return DefaultMaxDepth
}

// Names returns every visible name, sorted
func (e *Environment) Names() []string {
	seen := make(map[string]bool)
	for name := range e.globals {
		seen[name] = true
	}
	for _, frame := range e.frames {
		for name := range frame {
			seen[name] = true
		}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Globals returns a copy of the bindings visible at top level: the global
// map overlaid with the top-level frame, which wins on lookup.
func (e *Environment) Globals() map[string]Object {
	out := make(map[string]Object, len(e.globals)+len(e.frames[0]))
	for k, v := range e.globals {
		out[k] = v
	}
	for k, v := range e.frames[0] {
		out[k] = v
	}
	return out
}

// Reset drops every binding and call frame, keeping the logger
func (e *Environment) Reset() {
	e.globals = make(map[string]Object)
	e.frames = []map[string]Object{make(map[string]Object)}
}
