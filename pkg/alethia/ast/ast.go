package ast

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/sambeau/alethia/pkg/alethia/lexer"
)

// Node represents any node in the AST
type Node interface {
	TokenLiteral() string
	String() string
}

// Statement represents statement nodes
type Statement interface {
	Node
	statementNode()
}

// Expression represents expression nodes
type Expression interface {
	Node
	expressionNode()
}

// Position returns the line and column of the token that starts a node.
// Nodes without a source token (for example an empty Program) report 0, 0.
func Position(node Node) (int, int) {
	if p, ok := node.(interface{ Pos() lexer.Token }); ok {
		tok := p.Pos()
		return tok.Line, tok.Column
	}
	return 0, 0
}

// Program represents the root node of every AST
type Program struct {
	Statements []Statement
}

func (p *Program) TokenLiteral() string {
	if len(p.Statements) > 0 {
		return p.Statements[0].TokenLiteral()
	}
	return ""
}

func (p *Program) String() string {
	var out bytes.Buffer

	for i, s := range p.Statements {
		if i > 0 {
			out.WriteString(" ")
		}
		out.WriteString(s.String())
	}

	return out.String()
}

// VariableDeclaration binds a name to a value. It covers both 'let x = 5;'
// and plain assignment 'x = 5;'; Token is the LET keyword for the first form
// and the identifier for the second.
type VariableDeclaration struct {
	Token lexer.Token
	Name  *Identifier
	Value Expression
}

func (vd *VariableDeclaration) statementNode()       {}
func (vd *VariableDeclaration) TokenLiteral() string { return vd.Token.Literal }
func (vd *VariableDeclaration) Pos() lexer.Token     { return vd.Token }

// IsDeclaration reports whether the binding was written with 'let'
func (vd *VariableDeclaration) IsDeclaration() bool { return vd.Token.Type == lexer.LET }

func (vd *VariableDeclaration) String() string {
	var out bytes.Buffer

	if vd.IsDeclaration() {
		out.WriteString("let ")
	}
	out.WriteString(vd.Name.String())
	out.WriteString(" = ")
	if vd.Value != nil {
		out.WriteString(vd.Value.String())
	}
	out.WriteString(";")
	return out.String()
}

// PrintStatement represents 'print expr;'
type PrintStatement struct {
	Token lexer.Token // the lexer.PRINT token
	Value Expression
}

func (ps *PrintStatement) statementNode()       {}
func (ps *PrintStatement) TokenLiteral() string { return ps.Token.Literal }
func (ps *PrintStatement) Pos() lexer.Token     { return ps.Token }
func (ps *PrintStatement) String() string {
	return "print " + ps.Value.String() + ";"
}

// ExpressionStatement wraps an expression used in statement position
type ExpressionStatement struct {
	Token      lexer.Token // the first token of the expression
	Expression Expression
}

func (es *ExpressionStatement) statementNode()       {}
func (es *ExpressionStatement) TokenLiteral() string { return es.Token.Literal }
func (es *ExpressionStatement) Pos() lexer.Token     { return es.Token }
func (es *ExpressionStatement) String() string {
	if es.Expression != nil {
		return es.Expression.String() + ";"
	}
	return ""
}

// BlockStatement represents a braced sequence of statements
type BlockStatement struct {
	Token      lexer.Token // the '{' token
	Statements []Statement
}

func (bs *BlockStatement) statementNode()       {}
func (bs *BlockStatement) TokenLiteral() string { return bs.Token.Literal }
func (bs *BlockStatement) Pos() lexer.Token     { return bs.Token }
func (bs *BlockStatement) String() string {
	var out bytes.Buffer

	out.WriteString("{")
	for _, s := range bs.Statements {
		out.WriteString(" ")
		out.WriteString(s.String())
	}
	out.WriteString(" }")

	return out.String()
}

// IfStatement represents 'if cond { ... } else { ... }'. An 'else if' chain
// is stored as an Alternative block holding a single IfStatement.
type IfStatement struct {
	Token       lexer.Token // the 'if' token
	Condition   Expression
	Consequence *BlockStatement
	Alternative *BlockStatement
}

func (is *IfStatement) statementNode()       {}
func (is *IfStatement) TokenLiteral() string { return is.Token.Literal }
func (is *IfStatement) Pos() lexer.Token     { return is.Token }

// ElseIf returns the chained if statement when the alternative is an 'else if'
func (is *IfStatement) ElseIf() *IfStatement {
	if is.Alternative == nil || len(is.Alternative.Statements) != 1 {
		return nil
	}
	if is.Alternative.Token.Type != lexer.IF {
		return nil
	}
	nested, _ := is.Alternative.Statements[0].(*IfStatement)
	return nested
}

func (is *IfStatement) String() string {
	var out bytes.Buffer

	out.WriteString("if ")
	out.WriteString(is.Condition.String())
	out.WriteString(" ")
	out.WriteString(is.Consequence.String())

	if nested := is.ElseIf(); nested != nil {
		out.WriteString(" else ")
		out.WriteString(nested.String())
	} else if is.Alternative != nil {
		out.WriteString(" else ")
		out.WriteString(is.Alternative.String())
	}

	return out.String()
}

// WhileStatement represents 'while cond { ... }'
type WhileStatement struct {
	Token     lexer.Token // the 'while' token
	Condition Expression
	Body      *BlockStatement
}

func (ws *WhileStatement) statementNode()       {}
func (ws *WhileStatement) TokenLiteral() string { return ws.Token.Literal }
func (ws *WhileStatement) Pos() lexer.Token     { return ws.Token }
func (ws *WhileStatement) String() string {
	return "while " + ws.Condition.String() + " " + ws.Body.String()
}

// BreakStatement represents 'break'
type BreakStatement struct {
	Token lexer.Token
}

func (bs *BreakStatement) statementNode()       {}
func (bs *BreakStatement) TokenLiteral() string { return bs.Token.Literal }
func (bs *BreakStatement) Pos() lexer.Token     { return bs.Token }
func (bs *BreakStatement) String() string       { return "break;" }

// FunctionDeclaration represents 'func name(a, b) { ... }'
type FunctionDeclaration struct {
	Token      lexer.Token // the 'func' token
	Name       *Identifier
	Parameters []*Identifier
	Body       *BlockStatement
}

func (fd *FunctionDeclaration) statementNode()       {}
func (fd *FunctionDeclaration) TokenLiteral() string { return fd.Token.Literal }
func (fd *FunctionDeclaration) Pos() lexer.Token     { return fd.Token }

// ParamNames returns the declared parameter names in order
func (fd *FunctionDeclaration) ParamNames() []string {
	names := make([]string, len(fd.Parameters))
	for i, p := range fd.Parameters {
		names[i] = p.Value
	}
	return names
}

func (fd *FunctionDeclaration) String() string {
	var out bytes.Buffer

	out.WriteString("func ")
	out.WriteString(fd.Name.String())
	out.WriteString("(")
	out.WriteString(strings.Join(fd.ParamNames(), ", "))
	out.WriteString(") ")
	out.WriteString(fd.Body.String())

	return out.String()
}

// ReturnStatement represents 'return;' or 'return expr;'
type ReturnStatement struct {
	Token       lexer.Token // the 'return' token
	ReturnValue Expression  // nil for a bare return
}

func (rs *ReturnStatement) statementNode()       {}
func (rs *ReturnStatement) TokenLiteral() string { return rs.Token.Literal }
func (rs *ReturnStatement) Pos() lexer.Token     { return rs.Token }
func (rs *ReturnStatement) String() string {
	if rs.ReturnValue == nil {
		return "return;"
	}
	return "return " + rs.ReturnValue.String() + ";"
}

// Identifier represents identifier expressions
type Identifier struct {
	Token lexer.Token // the lexer.IDENT token
	Value string
}

func (i *Identifier) expressionNode()      {}
func (i *Identifier) TokenLiteral() string { return i.Token.Literal }
func (i *Identifier) Pos() lexer.Token     { return i.Token }
func (i *Identifier) String() string       { return i.Value }

// NumberLiteral represents integer literals
type NumberLiteral struct {
	Token lexer.Token
	Value int64
}

func (nl *NumberLiteral) expressionNode()      {}
func (nl *NumberLiteral) TokenLiteral() string { return nl.Token.Literal }
func (nl *NumberLiteral) Pos() lexer.Token     { return nl.Token }
func (nl *NumberLiteral) String() string       { return strconv.FormatInt(nl.Value, 10) }

// StringLiteral represents string literals
type StringLiteral struct {
	Token lexer.Token
	Value string
}

func (sl *StringLiteral) expressionNode()      {}
func (sl *StringLiteral) TokenLiteral() string { return sl.Token.Literal }
func (sl *StringLiteral) Pos() lexer.Token     { return sl.Token }
func (sl *StringLiteral) String() string       { return `"` + sl.Value + `"` }

// Boolean represents 'true' and 'false'
type Boolean struct {
	Token lexer.Token
	Value bool
}

func (b *Boolean) expressionNode()      {}
func (b *Boolean) TokenLiteral() string { return b.Token.Literal }
func (b *Boolean) Pos() lexer.Token     { return b.Token }
func (b *Boolean) String() string       { return b.Token.Literal }

// NilLiteral represents 'nil'
type NilLiteral struct {
	Token lexer.Token
}

func (n *NilLiteral) expressionNode()      {}
func (n *NilLiteral) TokenLiteral() string { return n.Token.Literal }
func (n *NilLiteral) Pos() lexer.Token     { return n.Token }
func (n *NilLiteral) String() string       { return "nil" }

// ArrayLiteral represents '[a, b, c]'
type ArrayLiteral struct {
	Token    lexer.Token // the '[' token
	Elements []Expression
}

func (al *ArrayLiteral) expressionNode()      {}
func (al *ArrayLiteral) TokenLiteral() string { return al.Token.Literal }
func (al *ArrayLiteral) Pos() lexer.Token     { return al.Token }
func (al *ArrayLiteral) String() string {
	elements := make([]string, len(al.Elements))
	for i, el := range al.Elements {
		elements[i] = el.String()
	}
	return "[" + strings.Join(elements, ", ") + "]"
}

// DictionaryPair is one 'key: value' entry of a dictionary literal
type DictionaryPair struct {
	Key      string
	KeyToken lexer.Token // IDENT or STRING, kept for formatting
	Value    Expression
}

// DictionaryLiteral represents '{key: value, "other": value}'.
// Pairs keep their source order.
type DictionaryLiteral struct {
	Token lexer.Token // the '{' token
	Pairs []DictionaryPair
}

func (dl *DictionaryLiteral) expressionNode()      {}
func (dl *DictionaryLiteral) TokenLiteral() string { return dl.Token.Literal }
func (dl *DictionaryLiteral) Pos() lexer.Token     { return dl.Token }
func (dl *DictionaryLiteral) String() string {
	pairs := make([]string, len(dl.Pairs))
	for i, p := range dl.Pairs {
		pairs[i] = `"` + p.Key + `": ` + p.Value.String()
	}
	return "{" + strings.Join(pairs, ", ") + "}"
}

// IndexExpression represents 'collection[index]'
type IndexExpression struct {
	Token lexer.Token // the '[' token
	Left  Expression
	Index Expression
}

func (ie *IndexExpression) expressionNode()      {}
func (ie *IndexExpression) TokenLiteral() string { return ie.Token.Literal }
func (ie *IndexExpression) Pos() lexer.Token     { return ie.Token }
func (ie *IndexExpression) String() string {
	return "(" + ie.Left.String() + "[" + ie.Index.String() + "])"
}

// BinaryExpression represents 'left op right'. Unary minus is stored as
// '0 - right' with a zero literal carrying the MINUS token.
type BinaryExpression struct {
	Token    lexer.Token // the operator token
	Left     Expression
	Operator lexer.TokenType
	Right    Expression
}

func (be *BinaryExpression) expressionNode()      {}
func (be *BinaryExpression) TokenLiteral() string { return be.Token.Literal }
func (be *BinaryExpression) Pos() lexer.Token     { return be.Token }

// IsNegation reports whether the node was written as unary minus
func (be *BinaryExpression) IsNegation() bool {
	zero, ok := be.Left.(*NumberLiteral)
	return ok && be.Operator == lexer.MINUS && zero.Value == 0 && zero.Token.Type == lexer.MINUS
}

func (be *BinaryExpression) String() string {
	if be.IsNegation() {
		return "(-" + be.Right.String() + ")"
	}
	return "(" + be.Left.String() + " " + be.Token.Literal + " " + be.Right.String() + ")"
}

// FunctionCall represents 'callee(arg, arg)'
type FunctionCall struct {
	Token     lexer.Token // the '(' token
	Callee    Expression
	Arguments []Expression
}

func (fc *FunctionCall) expressionNode()      {}
func (fc *FunctionCall) TokenLiteral() string { return fc.Token.Literal }
func (fc *FunctionCall) Pos() lexer.Token     { return fc.Token }
func (fc *FunctionCall) String() string {
	args := make([]string, len(fc.Arguments))
	for i, a := range fc.Arguments {
		args[i] = a.String()
	}
	return fc.Callee.String() + "(" + strings.Join(args, ", ") + ")"
}
