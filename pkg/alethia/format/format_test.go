package format

import (
	"strings"
	"testing"

	"github.com/sambeau/alethia/pkg/alethia/lexer"
	"github.com/sambeau/alethia/pkg/alethia/parser"
)

// helper to parse and format code
func parseAndFormat(t *testing.T, input string) string {
	t.Helper()
	p := parser.New(lexer.New(input))
	program := p.ParseProgram()
	if len(p.Errors()) > 0 {
		t.Fatalf("parser errors for input %q: %v", input, p.Errors())
	}
	return FormatProgram(program)
}

func TestFormatSimpleStatements(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"let x=5;", "let x = 5;\n"},
		{"x = 1 + 2 * 3;", "x = 1 + 2 * 3;\n"},
		{`print "x";`, "print \"x\";\n"},
		{"print true; print nil;", "print true;\nprint nil;\n"},
		{"print 3.9;", "print 3.9;\n"},
		{"break;", "break;\n"},
		{"f();;;g(1);", "f();\ng(1);\n"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := parseAndFormat(t, tt.input)
			if result != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, result)
			}
		})
	}
}

func TestFormatParentheses(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"print (1 + 2) * 3;", "print (1 + 2) * 3;\n"},
		{"print ((1 + 2));", "print 1 + 2;\n"},
		{"print 1 - (2 - 3);", "print 1 - (2 - 3);\n"},
		{"print (1 - 2) - 3;", "print 1 - 2 - 3;\n"},
		{"print 8 / (4 / 2);", "print 8 / (4 / 2);\n"},
		{"print -(a + b);", "print -(a + b);\n"},
		{"print - - a;", "print --a;\n"},
		{"print a * -b;", "print a * -b;\n"},
		{"print -a * b;", "print -a * b;\n"},
		{"print (a or b) and c;", "print (a or b) and c;\n"},
		{"print a or (b and c);", "print a or b and c;\n"},
		{"print (1 < 2) == (3 > 4);", "print 1 < 2 == (3 > 4);\n"},
		{"print 0 - x;", "print 0 - x;\n"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := parseAndFormat(t, tt.input)
			if result != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, result)
			}
		})
	}
}

func TestFormatCollectionsAndPostfix(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"print [];", "print [];\n"},
		{"print {};", "print {};\n"},
		{"print [1,2,3,];", "print [1, 2, 3];\n"},
		{`print {a: 1, "b c": 2};`, "print {a: 1, \"b c\": 2};\n"},
		{"print m[0][1];", "print m[0][1];\n"},
		{"print f(1, 2)(3);", "print f(1, 2)(3);\n"},
		{"print d[\"k\"](x + 1);", "print d[\"k\"](x + 1);\n"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := parseAndFormat(t, tt.input)
			if result != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, result)
			}
		})
	}
}

func TestFormatBlocks(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			"else if chain",
			"if x {print 1;} else if y {print 2;} else {print 3;}",
			"if x {\n\tprint 1;\n} else if y {\n\tprint 2;\n} else {\n\tprint 3;\n}\n",
		},
		{
			"nested while",
			"while i < 3 { i = i + 1; if i == 2 { break; } }",
			"while i < 3 {\n\ti = i + 1;\n\tif i == 2 {\n\t\tbreak;\n\t}\n}\n",
		},
		{
			"function spacing",
			"let a = 1; func f(x, y) { return x + y; } print f(a, 2);",
			"let a = 1;\n\nfunc f(x, y) {\n\treturn x + y;\n}\n\nprint f(a, 2);\n",
		},
		{
			"empty body",
			"func f() {} f();",
			"func f() {}\n\nf();\n",
		},
		{
			"bare return",
			"func f() { return }",
			"func f() {\n\treturn;\n}\n",
		},
		{
			"explicit else block",
			"if a { } else { if b { } }",
			"if a {} else {\n\tif b {}\n}\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := parseAndFormat(t, tt.input)
			if result != tt.expected {
				t.Errorf("expected:\n%s\ngot:\n%s", tt.expected, result)
			}
		})
	}
}

func TestFormatLongArray(t *testing.T) {
	words := []string{"aaaaaaaaaa", "bbbbbbbbbb", "cccccccccc", "dddddddddd", "eeeeeeeeee", "ffffffffff", "gggggggggg"}
	quoted := make([]string, len(words))
	for i, w := range words {
		quoted[i] = `"` + w + `"`
	}
	input := "let xs = [" + strings.Join(quoted, ", ") + "];"

	var expected strings.Builder
	expected.WriteString("let xs = [\n")
	for _, q := range quoted {
		expected.WriteString("\t" + q + ",\n")
	}
	expected.WriteString("];\n")

	result := parseAndFormat(t, input)
	if result != expected.String() {
		t.Errorf("expected:\n%s\ngot:\n%s", expected.String(), result)
	}
}

func TestFormatIsStable(t *testing.T) {
	inputs := []string{
		"let i = 0; while i < 3 { print i; i = i + 1; if i == 2 { break; }; };",
		"func fact(n) { if n < 2 { return 1; } return n * fact(n - 1); } print fact(10);",
		`let d = {name: "x", "list": [1, [2, 3], {k: -1}]}; print d["list"][1][0];`,
		"print -(1 - -2) * (3 + 4) / 5;",
	}

	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			first := parseAndFormat(t, input)
			second := parseAndFormat(t, first)
			if first != second {
				t.Errorf("formatting is not stable:\n%s\nthen:\n%s", first, second)
			}

			// the formatted program must have the same tree as the input
			orig := parser.New(lexer.New(input)).ParseProgram()
			again := parser.New(lexer.New(first)).ParseProgram()
			if orig.String() != again.String() {
				t.Errorf("tree changed:\n%s\n%s", orig.String(), again.String())
			}
		})
	}
}

func TestSource(t *testing.T) {
	out, err := Source("print   1 ;", "demo.at")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "print 1;\n" {
		t.Errorf("got %q", out)
	}

	out, err = Source("", "empty.at")
	if err != nil || out != "" {
		t.Errorf("empty source: %q, %v", out, err)
	}

	_, err = Source("print 1", "bad.at")
	if err == nil {
		t.Fatal("expected a parse error")
	}
	if !strings.HasPrefix(err.Error(), "bad.at: line 1, column ") {
		t.Errorf("error = %q", err.Error())
	}
}

func TestFormatNode(t *testing.T) {
	p := parser.New(lexer.New("print (1 + 2) * x;"))
	prog := p.ParseProgram()
	if got := FormatNode(prog.Statements[0]); got != "print (1 + 2) * x;" {
		t.Errorf("statement: %q", got)
	}
	if got := FormatNode(nil); got != "" {
		t.Errorf("nil: %q", got)
	}
}
