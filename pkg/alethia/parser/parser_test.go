package parser

import (
	"strings"
	"testing"

	"github.com/sambeau/alethia/pkg/alethia/ast"
	"github.com/sambeau/alethia/pkg/alethia/lexer"
)

func parse(t *testing.T, input string) *ast.Program {
	t.Helper()
	p := New(lexer.New(input))
	program := p.ParseProgram()
	checkParserErrors(t, p)
	return program
}

func checkParserErrors(t *testing.T, p *Parser) {
	t.Helper()
	errors := p.Errors()
	if len(errors) == 0 {
		return
	}

	t.Errorf("parser has %d errors", len(errors))
	for _, msg := range errors {
		t.Errorf("parser error: %q", msg)
	}
	t.FailNow()
}

func parseError(t *testing.T, input string) string {
	t.Helper()
	p := New(lexer.New(input))
	program := p.ParseProgram()
	if program != nil {
		t.Fatalf("expected parse error for %q, got program %q", input, program.String())
	}
	errs := p.StructuredErrors()
	if len(errs) != 1 {
		t.Fatalf("expected exactly one error, got %d", len(errs))
	}
	return errs[0].Message
}

func TestVariableDeclarations(t *testing.T) {
	tests := []struct {
		input         string
		name          string
		isDeclaration bool
		value         string
	}{
		{"let x = 5;", "x", true, "5"},
		{"let y = true;", "y", true, "true"},
		{"foobar = y;", "foobar", false, "y"},
		{`let s = "hi";`, "s", true, `"hi"`},
	}

	for _, tt := range tests {
		program := parse(t, tt.input)
		if len(program.Statements) != 1 {
			t.Fatalf("program.Statements does not contain 1 statement. got=%d", len(program.Statements))
		}

		stmt, ok := program.Statements[0].(*ast.VariableDeclaration)
		if !ok {
			t.Fatalf("stmt not *ast.VariableDeclaration. got=%T", program.Statements[0])
		}
		if stmt.Name.Value != tt.name {
			t.Errorf("name wrong. expected=%q, got=%q", tt.name, stmt.Name.Value)
		}
		if stmt.IsDeclaration() != tt.isDeclaration {
			t.Errorf("IsDeclaration wrong for %q", tt.input)
		}
		if stmt.Value.String() != tt.value {
			t.Errorf("value wrong. expected=%q, got=%q", tt.value, stmt.Value.String())
		}
	}
}

func TestOperatorPrecedence(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"a + b * c;", "(a + (b * c));"},
		{"a * b + c;", "((a * b) + c);"},
		{"a - b - c;", "((a - b) - c);"},
		{"a / b * c;", "((a / b) * c);"},
		{"a + b < c;", "((a + b) < c);"},
		{"a < b == c > d;", "(((a < b) == c) > d);"},
		{"a or b and c;", "(a or (b and c));"},
		{"a and b or c and d;", "((a and b) or (c and d));"},
		{"a == 1 and b == 2;", "((a == 1) and (b == 2));"},
		{"(a + b) * c;", "((a + b) * c);"},
		{"-a * b;", "((-a) * b);"},
		{"- -a;", "(-(-a));"},
		{"a + f(b * c, d)[0];", "(a + (f((b * c), d)[0]));"},
		{"m[0][1];", "((m[0])[1]);"},
		{"f(1)(2);", "f(1)(2);"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			program := parse(t, tt.input)
			if actual := program.String(); actual != tt.expected {
				t.Errorf("expected=%q, got=%q", tt.expected, actual)
			}
		})
	}
}

func TestUnaryMinusIsDesugared(t *testing.T) {
	program := parse(t, "-5;")
	stmt := program.Statements[0].(*ast.ExpressionStatement)
	bin, ok := stmt.Expression.(*ast.BinaryExpression)
	if !ok {
		t.Fatalf("expected *ast.BinaryExpression, got %T", stmt.Expression)
	}
	if !bin.IsNegation() {
		t.Errorf("expected negation")
	}
	if zero, ok := bin.Left.(*ast.NumberLiteral); !ok || zero.Value != 0 {
		t.Errorf("left operand should be 0, got %s", bin.Left)
	}
}

func TestSemicolonRules(t *testing.T) {
	tests := []struct {
		input string
		count int
	}{
		{"if x { print 1; }", 1},
		{"if x { print 1; }; print 2;", 2},
		{"while x { break; } print 1;", 2},
		{"func f() { return 1; } f();", 2},
		{";;print 1;;", 1},
		{"", 0},
		{"if x { print 1 }", 1},
		{"if x { ;; print 1;; print 2 }", 1},
		{"if a { if b { print 1 } print 2 }", 1},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			program := parse(t, tt.input)
			if len(program.Statements) != tt.count {
				t.Errorf("expected %d statements, got %d", tt.count, len(program.Statements))
			}
		})
	}
}

func TestIfElse(t *testing.T) {
	program := parse(t, "if x < y { x } else { y }")
	stmt, ok := program.Statements[0].(*ast.IfStatement)
	if !ok {
		t.Fatalf("expected *ast.IfStatement, got %T", program.Statements[0])
	}
	if stmt.Condition.String() != "(x < y)" {
		t.Errorf("condition wrong: %s", stmt.Condition)
	}
	if len(stmt.Consequence.Statements) != 1 {
		t.Errorf("consequence should have 1 statement")
	}
	if stmt.Alternative == nil || len(stmt.Alternative.Statements) != 1 {
		t.Fatalf("alternative should have 1 statement")
	}
	if stmt.ElseIf() != nil {
		t.Errorf("plain else should not be an else-if")
	}
}

func TestElseIfChain(t *testing.T) {
	program := parse(t, `if a { print 1 } else if b { print 2 } else { print 3 }`)
	stmt := program.Statements[0].(*ast.IfStatement)

	nested := stmt.ElseIf()
	if nested == nil {
		t.Fatalf("expected else-if")
	}
	if nested.Condition.String() != "b" {
		t.Errorf("nested condition wrong: %s", nested.Condition)
	}
	if nested.Alternative == nil {
		t.Errorf("final else missing")
	}
}

func TestFunctionDeclaration(t *testing.T) {
	program := parse(t, "func add(x, y) { return x + y; }")
	fn, ok := program.Statements[0].(*ast.FunctionDeclaration)
	if !ok {
		t.Fatalf("expected *ast.FunctionDeclaration, got %T", program.Statements[0])
	}
	if fn.Name.Value != "add" {
		t.Errorf("name wrong: %s", fn.Name.Value)
	}
	if strings.Join(fn.ParamNames(), ",") != "x,y" {
		t.Errorf("params wrong: %v", fn.ParamNames())
	}
	ret, ok := fn.Body.Statements[0].(*ast.ReturnStatement)
	if !ok {
		t.Fatalf("expected return statement, got %T", fn.Body.Statements[0])
	}
	if ret.ReturnValue.String() != "(x + y)" {
		t.Errorf("return value wrong: %s", ret.ReturnValue)
	}

	program = parse(t, "func noop() { }")
	fn = program.Statements[0].(*ast.FunctionDeclaration)
	if len(fn.Parameters) != 0 || len(fn.Body.Statements) != 0 {
		t.Errorf("expected empty function")
	}
}

func TestBareReturn(t *testing.T) {
	for _, input := range []string{"func f() { return; }", "func f() { return }"} {
		program := parse(t, input)
		fn := program.Statements[0].(*ast.FunctionDeclaration)
		ret := fn.Body.Statements[0].(*ast.ReturnStatement)
		if ret.ReturnValue != nil {
			t.Errorf("%q: expected bare return", input)
		}
	}
}

func TestCollectionLiterals(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"[];", "[];"},
		{"[1, 2, 3];", "[1, 2, 3];"},
		{"[1, 2,];", "[1, 2];"},
		{"{};", "{};"},
		{`{"k": 5, name: "x"};`, `{"k": 5, "name": "x"};`},
		{`{a: 1,};`, `{"a": 1};`},
		{`let d = {"k": [1, {x: 2}]};`, `let d = {"k": [1, {"x": 2}]};`},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			program := parse(t, tt.input)
			if actual := program.String(); actual != tt.expected {
				t.Errorf("expected=%q, got=%q", tt.expected, actual)
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"print 1", "Expected ';', but found end of input"},
		{"print 1 print 2;", "Expected ';', but found print"},
		{"let = 5;", "Expected identifier after 'let', found ="},
		{"let x 5;", "Expected '=' after identifier in let statement, found 5"},
		{"else { }", "Unexpected token in statement: else"},
		{"print ;", "Unexpected token in factor: ;"},
		{"f(1,);", "Unexpected token in factor: )"},
		{"f(1 2);", "Expected ',' or ')', found 2"},
		{"[1 2];", "Expected ',' or ']', found 2"},
		{"{1: 2};", "Expected identifier or string literal as dictionary key, found 1"},
		{"func (x) { }", "Expected identifier after 'func', found ("},
		{"func f(1) { }", "Expected parameter name, found 1"},
		{"if x { print 1 print 2 }", "Expected ';' or '}', found print"},
		{"if x print 1;", "Expected '{', but found print"},
		{`print "abc;`, "Unterminated string literal"},
		{"print 1 ! 2;", "Unknown character '!'"},
		{"# comment", "Unknown character '#'"},
		{"(1 + 2;", "Expected ')', but found ;"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			msg := parseError(t, tt.input)
			if msg != tt.expected {
				t.Errorf("expected=%q, got=%q", tt.expected, msg)
			}
		})
	}
}

func TestReservedWordHint(t *testing.T) {
	tests := []struct {
		input string
		hints []string
	}{
		{"let print = 1;", []string{"'print' is a reserved word"}},
		{"func while() { }", []string{"'while' is a reserved word"}},
		{"let = 1;", nil},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			p := New(lexer.New(tt.input))
			p.ParseProgram()
			errs := p.StructuredErrors()
			if len(errs) != 1 {
				t.Fatalf("expected one error, got %d", len(errs))
			}
			if strings.Join(errs[0].Hints, "|") != strings.Join(tt.hints, "|") {
				t.Errorf("hints = %v, want %v", errs[0].Hints, tt.hints)
			}
		})
	}
}

func TestParseErrorPosition(t *testing.T) {
	p := New(lexer.New("let x = 1;\nprint x\nprint y;"))
	p.ParseProgram()

	errs := p.StructuredErrors()
	if len(errs) != 1 {
		t.Fatalf("expected one error, got %d", len(errs))
	}
	if errs[0].Line != 3 || errs[0].Column != 1 {
		t.Errorf("position = %d:%d, want 3:1", errs[0].Line, errs[0].Column)
	}
	if p.Errors()[0] != "line 3, column 1: Expected ';', but found print" {
		t.Errorf("unexpected error string %q", p.Errors()[0])
	}
}

func TestParseIncremental(t *testing.T) {
	tests := []struct {
		input string
		count int
	}{
		{"let x = 1;", 1},
		{"let x = 1", 1},
		{"print x", 1},
		{"let a = 1; print a; a = a + 1", 3},
		{"", 0},
		{";", 0},
		{"if x { print 1 } print 2", 2},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			p := New(lexer.New(tt.input))
			program := p.ParseIncremental()
			checkParserErrors(t, p)
			if len(program.Statements) != tt.count {
				t.Errorf("expected %d statements, got %d", tt.count, len(program.Statements))
			}
		})
	}
}

func TestNewFromTokensAddsEOF(t *testing.T) {
	tokens := []lexer.Token{
		{Type: lexer.PRINT, Literal: "print"},
		{Type: lexer.NUMBER, Literal: "1", Number: 1},
		{Type: lexer.SEMICOLON, Literal: ";"},
	}
	p := NewFromTokens(tokens)
	program := p.ParseProgram()
	checkParserErrors(t, p)
	if program.String() != "print 1;" {
		t.Errorf("unexpected program %q", program.String())
	}
	if !p.AtEOF() {
		t.Errorf("parser should be at EOF")
	}
}
