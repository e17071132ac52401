package format

import (
	"strings"
)

// Printer accumulates formatted output
type Printer struct {
	output  strings.Builder
	indent  int // Current indentation level
	linePos int // Display column in the current line
}

// NewPrinter creates a new Printer instance
func NewPrinter() *Printer {
	return &Printer{}
}

// String returns the formatted output
func (p *Printer) String() string {
	return p.output.String()
}

// Reset clears the printer for reuse
func (p *Printer) Reset() {
	p.output.Reset()
	p.indent = 0
	p.linePos = 0
}

func (p *Printer) write(s string) {
	p.output.WriteString(s)
	if idx := strings.LastIndex(s, "\n"); idx >= 0 {
		p.linePos = len(s) - idx - 1
	} else {
		p.linePos += len(s)
	}
}

func (p *Printer) newline() {
	p.output.WriteString("\n")
	p.linePos = 0
}

func (p *Printer) writeIndent() {
	p.output.WriteString(strings.Repeat(IndentString, p.indent))
	p.linePos += p.indent * IndentWidth
}

func (p *Printer) indentInc() {
	p.indent++
}

func (p *Printer) indentDec() {
	if p.indent > 0 {
		p.indent--
	}
}

// fits reports whether s can be written on the current line without passing
// limit, counted from the start of the line
func (p *Printer) fits(s string, limit int) bool {
	if strings.Contains(s, "\n") {
		return false
	}
	return p.linePos+len(s) <= limit
}
