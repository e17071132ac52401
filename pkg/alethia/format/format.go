package format

import (
	"strings"

	"github.com/sambeau/alethia/pkg/alethia/ast"
	"github.com/sambeau/alethia/pkg/alethia/lexer"
	"github.com/sambeau/alethia/pkg/alethia/parser"
)

// Source parses input and returns it in canonical form. The parse error,
// if any, is returned unchanged.
func Source(input, filename string) (string, error) {
	p := parser.New(lexer.NewWithFilename(input, filename))
	prog := p.ParseProgram()
	if err := p.Err(); err != nil {
		return "", err
	}
	return FormatProgram(prog), nil
}

// FormatProgram renders a program in canonical form: one statement per
// line, tab indentation, blank lines around top-level functions. The result
// ends in a newline unless the program is empty.
func FormatProgram(prog *ast.Program) string {
	if prog == nil || len(prog.Statements) == 0 {
		return ""
	}
	p := NewPrinter()
	p.formatProgram(prog)
	p.newline()
	return p.String()
}

// FormatNode renders a single statement or expression
func FormatNode(node ast.Node) string {
	if node == nil {
		return ""
	}
	p := NewPrinter()
	switch n := node.(type) {
	case *ast.Program:
		return FormatProgram(n)
	case ast.Statement:
		p.formatStatement(n)
	case ast.Expression:
		p.formatExpression(n)
	}
	return p.String()
}

func (p *Printer) formatProgram(prog *ast.Program) {
	for i, stmt := range prog.Statements {
		if i > 0 {
			p.newline()
			if isFunc(stmt) || isFunc(prog.Statements[i-1]) {
				for n := 0; n < BlankLinesAroundFuncs; n++ {
					p.newline()
				}
			}
		}
		p.formatStatement(stmt)
	}
}

func isFunc(stmt ast.Statement) bool {
	_, ok := stmt.(*ast.FunctionDeclaration)
	return ok
}

func (p *Printer) formatStatement(stmt ast.Statement) {
	switch s := stmt.(type) {
	case *ast.VariableDeclaration:
		if s.IsDeclaration() {
			p.write("let ")
		}
		p.write(s.Name.Value + " = ")
		p.formatExpression(s.Value)
		p.write(";")

	case *ast.PrintStatement:
		p.write("print ")
		p.formatExpression(s.Value)
		p.write(";")

	case *ast.ExpressionStatement:
		p.formatExpression(s.Expression)
		p.write(";")

	case *ast.BreakStatement:
		p.write("break;")

	case *ast.ReturnStatement:
		if s.ReturnValue == nil {
			p.write("return;")
			return
		}
		p.write("return ")
		p.formatExpression(s.ReturnValue)
		p.write(";")

	case *ast.IfStatement:
		p.formatIf(s)

	case *ast.WhileStatement:
		p.write("while ")
		p.formatExpression(s.Condition)
		p.write(" ")
		p.formatBlock(s.Body)

	case *ast.FunctionDeclaration:
		p.write("func " + s.Name.Value + "(" + strings.Join(s.ParamNames(), ", ") + ") ")
		p.formatBlock(s.Body)

	case *ast.BlockStatement:
		p.formatBlock(s)
	}
}

func (p *Printer) formatIf(is *ast.IfStatement) {
	p.write("if ")
	p.formatExpression(is.Condition)
	p.write(" ")
	p.formatBlock(is.Consequence)

	if is.Alternative == nil {
		return
	}
	p.write(" else ")
	if elseIf := is.ElseIf(); elseIf != nil {
		p.formatIf(elseIf)
		return
	}
	p.formatBlock(is.Alternative)
}

func (p *Printer) formatBlock(bs *ast.BlockStatement) {
	if bs == nil || len(bs.Statements) == 0 {
		p.write("{}")
		return
	}

	p.write("{")
	p.newline()
	p.indentInc()
	for _, stmt := range bs.Statements {
		p.writeIndent()
		p.formatStatement(stmt)
		p.newline()
	}
	p.indentDec()
	p.writeIndent()
	p.write("}")
}

func (p *Printer) formatExpression(expr ast.Expression) {
	switch e := expr.(type) {
	case *ast.ArrayLiteral:
		p.formatArray(e)
	case *ast.DictionaryLiteral:
		p.formatDictionary(e)
	default:
		p.write(inline(expr))
	}
}

func (p *Printer) formatArray(al *ast.ArrayLiteral) {
	text := inline(al)
	if len(al.Elements) == 0 || p.fitsInline(text) {
		p.write(text)
		return
	}

	p.write("[")
	p.newline()
	p.indentInc()
	for i, el := range al.Elements {
		p.writeIndent()
		p.formatExpression(el)
		if TrailingCommaMultiline || i < len(al.Elements)-1 {
			p.write(",")
		}
		p.newline()
	}
	p.indentDec()
	p.writeIndent()
	p.write("]")
}

func (p *Printer) formatDictionary(dl *ast.DictionaryLiteral) {
	text := inline(dl)
	if len(dl.Pairs) == 0 || p.fitsInline(text) {
		p.write(text)
		return
	}

	p.write("{")
	p.newline()
	p.indentInc()
	for i, pair := range dl.Pairs {
		p.writeIndent()
		p.write(dictKey(pair) + ": ")
		p.formatExpression(pair.Value)
		if TrailingCommaMultiline || i < len(dl.Pairs)-1 {
			p.write(",")
		}
		p.newline()
	}
	p.indentDec()
	p.writeIndent()
	p.write("}")
}

// fitsInline keeps short collections on one line even when the current
// line is already long
func (p *Printer) fitsInline(text string) bool {
	return len(text) <= CollectionThreshold || p.fits(text, MaxLineWidth)
}

// Binding strength of each operator, lowest first. Negation binds tighter
// than any binary operator and postfix tighter still.
const (
	precLowest = iota
	precOr
	precAnd
	precCompare
	precSum
	precProduct
	precUnary
	precPostfix
)

func precedence(expr ast.Expression) int {
	be, ok := expr.(*ast.BinaryExpression)
	if !ok {
		return precPostfix
	}
	if be.IsNegation() {
		return precUnary
	}
	switch be.Operator {
	case lexer.OR:
		return precOr
	case lexer.AND:
		return precAnd
	case lexer.EQ, lexer.LT, lexer.GT:
		return precCompare
	case lexer.PLUS, lexer.MINUS:
		return precSum
	case lexer.ASTERISK, lexer.SLASH:
		return precProduct
	}
	return precLowest
}

// inline renders an expression on a single line, adding parentheses only
// where precedence or left associativity requires them
func inline(expr ast.Expression) string {
	switch e := expr.(type) {
	case *ast.Identifier:
		return e.Value
	case *ast.NumberLiteral:
		if e.Token.Type == lexer.NUMBER {
			return e.Token.Literal
		}
		return e.String()
	case *ast.StringLiteral:
		return `"` + e.Value + `"`
	case *ast.Boolean, *ast.NilLiteral:
		return e.String()

	case *ast.ArrayLiteral:
		parts := make([]string, len(e.Elements))
		for i, el := range e.Elements {
			parts[i] = inline(el)
		}
		return "[" + strings.Join(parts, ", ") + "]"

	case *ast.DictionaryLiteral:
		parts := make([]string, len(e.Pairs))
		for i, pair := range e.Pairs {
			parts[i] = dictKey(pair) + ": " + inline(pair.Value)
		}
		return "{" + strings.Join(parts, ", ") + "}"

	case *ast.IndexExpression:
		return operand(e.Left, precPostfix) + "[" + inline(e.Index) + "]"

	case *ast.FunctionCall:
		args := make([]string, len(e.Arguments))
		for i, a := range e.Arguments {
			args[i] = inline(a)
		}
		return operand(e.Callee, precPostfix) + "(" + strings.Join(args, ", ") + ")"

	case *ast.BinaryExpression:
		if e.IsNegation() {
			return "-" + operand(e.Right, precUnary)
		}
		prec := precedence(e)
		return operand(e.Left, prec) + " " + e.Token.Literal + " " + operand(e.Right, prec+1)
	}
	if expr == nil {
		return ""
	}
	return expr.String()
}

// operand renders expr, parenthesised when it binds more loosely than floor
func operand(expr ast.Expression, floor int) string {
	text := inline(expr)
	if precedence(expr) < floor {
		return "(" + text + ")"
	}
	return text
}

// dictKey writes a key the way it was written: bare when it was an
// identifier, quoted otherwise
func dictKey(pair ast.DictionaryPair) string {
	if pair.KeyToken.Type == lexer.IDENT {
		return pair.Key
	}
	return `"` + pair.Key + `"`
}
