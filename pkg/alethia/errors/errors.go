// Package errors provides structured error types for the Alethia language.
//
// AlethiaError is the single error type returned by the parser, the
// evaluator and the embedding API. Messages come from a catalog of codes so
// that every failure of the same kind reads the same way.
package errors

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
	"text/template"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// ErrorClass categorizes errors for filtering and templating.
type ErrorClass string

const (
	ClassParse     ErrorClass = "parse"     // Parser/syntax errors
	ClassType      ErrorClass = "type"      // Type mismatches
	ClassUndefined ErrorClass = "undefined" // Not found/defined
	ClassIndex     ErrorClass = "index"     // Out of bounds, missing keys
	ClassOperator  ErrorClass = "operator"  // Invalid operations
	ClassState     ErrorClass = "state"     // Signals escaping their construct
	ClassIO        ErrorClass = "io"        // Source loading
)

// AlethiaError represents any error from parsing or evaluation.
type AlethiaError struct {
	Class   ErrorClass     `json:"class"`
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Hints   []string       `json:"hints,omitempty"`
	Line    int            `json:"line"`   // 1-based line (0 if unknown)
	Column  int            `json:"column"` // 1-based column (0 if unknown)
	File    string         `json:"file,omitempty"`
	Data    map[string]any `json:"data,omitempty"`
}

// Error implements the error interface.
func (e *AlethiaError) Error() string {
	return e.String()
}

// String returns a formatted string representation of the error.
func (e *AlethiaError) String() string {
	var sb strings.Builder

	if e.File != "" {
		sb.WriteString(e.File)
		sb.WriteString(": ")
	}
	if e.Line > 0 {
		sb.WriteString(fmt.Sprintf("line %d, column %d: ", e.Line, e.Column))
	}

	sb.WriteString(e.Message)

	for _, hint := range e.Hints {
		sb.WriteString("\n  ")
		sb.WriteString(hint)
	}

	return sb.String()
}

// PrettyString returns a multi-line formatted string for display.
func (e *AlethiaError) PrettyString() string {
	var sb strings.Builder

	switch e.Class {
	case ClassParse:
		sb.WriteString("Parser error")
	case ClassIO:
		sb.WriteString("File error")
	default:
		sb.WriteString("Runtime error")
	}

	if e.File != "" {
		sb.WriteString(":\n  in: ")
		sb.WriteString(e.File)
		if e.Line > 0 {
			sb.WriteString(fmt.Sprintf("\n  at: line %d, column %d", e.Line, e.Column))
		}
		sb.WriteString("\n  ")
	} else if e.Line > 0 {
		sb.WriteString(fmt.Sprintf(": line %d, column %d\n  ", e.Line, e.Column))
	} else {
		sb.WriteString(":\n  ")
	}

	sb.WriteString(e.Message)

	for _, hint := range e.Hints {
		sb.WriteString("\n  ")
		sb.WriteString(hint)
	}

	return sb.String()
}

// Summary returns the message prefixed the way the command line reports
// failures: "Parsing error: ..." or "Runtime error: ...". Signals escaping
// their construct and file errors are reported bare.
func (e *AlethiaError) Summary() string {
	switch {
	case e.IsParseError():
		return "Parsing error: " + e.Message
	case e.IsRuntimeError() && e.Class != ClassState:
		return "Runtime error: " + e.Message
	default:
		return e.Message
	}
}

// WithFile returns a copy of the error with the file path set.
func (e *AlethiaError) WithFile(file string) *AlethiaError {
	copy := *e
	copy.File = file
	return &copy
}

// IsParseError returns true if this is a parser error.
func (e *AlethiaError) IsParseError() bool {
	return e.Class == ClassParse
}

// IsRuntimeError returns true if the error came from evaluating a program,
// including signals that escaped their construct.
func (e *AlethiaError) IsRuntimeError() bool {
	return e.Class != ClassParse && e.Class != ClassIO
}

// ErrorDef defines an error in the catalog.
type ErrorDef struct {
	Class    ErrorClass // Error category
	Template string     // Message template with {{.placeholders}}
	Hints    []string   // Hint templates (may use {{.placeholders}})
}

// ErrorCatalog maps error codes to their definitions.
var ErrorCatalog = map[string]ErrorDef{
	// Parse errors (PARSE-0xxx)
	"PARSE-0001": {
		Class:    ClassParse,
		Template: "Expected {{.Expected}}, but found {{.Got}}",
	},
	"PARSE-0002": {
		Class:    ClassParse,
		Template: "Unexpected token in statement: {{.Got}}",
	},
	"PARSE-0003": {
		Class:    ClassParse,
		Template: "Unexpected token in factor: {{.Got}}",
	},
	"PARSE-0004": {
		Class:    ClassParse,
		Template: "Expected identifier after '{{.After}}', found {{.Got}}",
		Hints:    []string{"{{if .Reserved}}'{{.Reserved}}' is a reserved word{{end}}"},
	},
	"PARSE-0005": {
		Class:    ClassParse,
		Template: "Expected '=' after identifier in let statement, found {{.Got}}",
	},
	"PARSE-0006": {
		Class:    ClassParse,
		Template: "Expected ',' or '{{.Closer}}', found {{.Got}}",
	},
	"PARSE-0007": {
		Class:    ClassParse,
		Template: "Expected identifier or string literal as dictionary key, found {{.Got}}",
	},
	"PARSE-0008": {
		Class:    ClassParse,
		Template: "Expected parameter name, found {{.Got}}",
	},
	"PARSE-0009": {
		Class:    ClassParse,
		Template: "Expected ';' or '}', found {{.Got}}",
	},
	"PARSE-0010": {
		Class:    ClassParse,
		Template: "Unterminated string literal",
		Hints:    []string{"close the string with a matching \""},
	},
	"PARSE-0011": {
		Class:    ClassParse,
		Template: "Unknown character {{.Got}}",
	},

	// Type errors (TYPE-0xxx)
	"TYPE-0001": {
		Class:    ClassType,
		Template: "Cannot convert {{.Value}} to boolean",
		Hints:    []string{"conditions must be true, false, or the result of a comparison"},
	},
	"TYPE-0002": {
		Class:    ClassType,
		Template: "Cannot compare non-numeric values with {{.Operator}}",
	},
	"TYPE-0003": {
		Class:    ClassType,
		Template: "Cannot apply `{{.Operator}}` to non-boolean values",
	},
	"TYPE-0004": {
		Class:    ClassType,
		Template: "Not a function",
	},
	"TYPE-0005": {
		Class:    ClassType,
		Template: "Cannot display a {{.Type}} value",
	},

	// Operator errors (OP-0xxx)
	"OP-0001": {
		Class:    ClassOperator,
		Template: "Cannot add {{.Left}} and {{.Right}}",
	},
	"OP-0002": {
		Class:    ClassOperator,
		Template: "Cannot subtract non-numeric values",
	},
	"OP-0003": {
		Class:    ClassOperator,
		Template: "Cannot multiply string by negative number",
	},
	"OP-0004": {
		Class:    ClassOperator,
		Template: "Cannot multiply two strings",
	},
	"OP-0005": {
		Class:    ClassOperator,
		Template: "Cannot multiply {{.Left}} by {{.Right}}",
	},
	"OP-0006": {
		Class:    ClassOperator,
		Template: "Cannot divide non-numeric values",
	},
	"OP-0007": {
		Class:    ClassOperator,
		Template: "Division by zero",
	},
	"OP-0008": {
		Class:    ClassOperator,
		Template: "Unsupported operator: {{.Operator}}",
	},
	"OP-0009": {
		Class:    ClassOperator,
		Template: "Cannot repeat a string {{.Count}} times",
	},

	// Undefined errors (UNDEF-0xxx)
	"UNDEF-0001": {
		Class:    ClassUndefined,
		Template: "Undefined variable: {{.Name}}",
	},

	// Index errors (INDEX-0xxx)
	"INDEX-0001": {
		Class:    ClassIndex,
		Template: "Array index {{.Index}} out of bounds",
		Hints:    []string{"the array has {{.Length}} elements"},
	},
	"INDEX-0002": {
		Class:    ClassIndex,
		Template: "Key '{{.Key}}' not found in dictionary",
	},
	"INDEX-0003": {
		Class:    ClassIndex,
		Template: "Indexing error: expected array or dictionary with correct key type",
	},

	// State errors (STATE-0xxx)
	"STATE-0001": {
		Class:    ClassState,
		Template: "Break statement outside of loop",
	},
	"STATE-0002": {
		Class:    ClassState,
		Template: "Return statement outside of function: {{.Value}}",
	},
	"STATE-0003": {
		Class:    ClassState,
		Template: "Maximum call depth of {{.Depth}} exceeded",
		Hints:    []string{"check for a recursive function without a base case"},
	},

	// IO errors (IO-0xxx)
	"IO-0001": {
		Class:    ClassIO,
		Template: "File not found: {{.Path}}",
	},
	"IO-0002": {
		Class:    ClassIO,
		Template: "File must have {{.Extensions}} extension",
	},
	"IO-0003": {
		Class:    ClassIO,
		Template: "Cannot read {{.Path}}: {{.Reason}}",
	},
}

// New creates an AlethiaError from the catalog.
// Unknown codes produce an error whose message is the code itself.
func New(code string, data map[string]any) *AlethiaError {
	def, ok := ErrorCatalog[code]
	if !ok {
		return &AlethiaError{
			Class:   ClassType,
			Code:    code,
			Message: code,
			Data:    data,
		}
	}

	msg := renderTemplate(def.Template, data)

	hintData := data
	if hintData == nil {
		hintData = map[string]any{}
	}
	var hints []string
	for _, hintTmpl := range def.Hints {
		rendered := renderTemplate(hintTmpl, hintData)
		if rendered != "" && !strings.Contains(rendered, "<no value>") {
			hints = append(hints, rendered)
		}
	}

	return &AlethiaError{
		Class:   def.Class,
		Code:    code,
		Message: msg,
		Hints:   hints,
		Data:    data,
	}
}

// NewWithPosition creates an AlethiaError with position information.
func NewWithPosition(code string, line, column int, data map[string]any) *AlethiaError {
	err := New(code, data)
	err.Line = line
	err.Column = column
	return err
}

// renderTemplate renders a Go template with the given data.
func renderTemplate(tmplStr string, data map[string]any) string {
	if data == nil {
		return tmplStr
	}

	tmpl, err := template.New("").Parse(tmplStr)
	if err != nil {
		return tmplStr
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return tmplStr
	}

	return buf.String()
}

// suggestionThreshold is the largest edit distance worth suggesting
// for a name of the given length. Names under three characters are too
// short for edit distance to mean anything.
func suggestionThreshold(name string) int {
	switch {
	case len(name) >= 7:
		return 3
	case len(name) >= 4:
		return 2
	case len(name) >= 3:
		return 1
	default:
		return 0
	}
}

// FindClosestMatch finds the candidate closest to input. Typos are matched
// by edit distance; abbreviations ("cnt" for "count") by fuzzy subsequence
// ranking. It returns "" when nothing is close enough.
func FindClosestMatch(input string, candidates []string) string {
	if len(input) == 0 || len(candidates) == 0 {
		return ""
	}

	inputLower := strings.ToLower(input)
	bestMatch := ""
	bestDistance := -1

	sorted := append([]string(nil), candidates...)
	sort.Strings(sorted)
	for _, candidate := range sorted {
		dist := fuzzy.LevenshteinDistance(inputLower, strings.ToLower(candidate))
		if dist == 0 {
			continue
		}
		if bestDistance == -1 || dist < bestDistance {
			bestDistance = dist
			bestMatch = candidate
		}
	}
	if bestDistance > 0 && bestDistance <= suggestionThreshold(input) {
		return bestMatch
	}

	ranks := fuzzy.RankFindFold(input, sorted)
	sort.Sort(ranks)
	for _, rank := range ranks {
		if rank.Distance > 0 {
			return rank.Target
		}
	}

	return ""
}

// NewUndefinedVariable creates an undefined variable error with a
// "Did you mean?" hint drawn from the names currently in scope.
func NewUndefinedVariable(name string, available []string) *AlethiaError {
	err := New("UNDEF-0001", map[string]any{"Name": name})

	if suggestion := FindClosestMatch(name, available); suggestion != "" {
		err.Hints = append(err.Hints, "Did you mean `"+suggestion+"`?")
	}

	return err
}
