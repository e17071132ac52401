package parser

import (
	"fmt"

	"github.com/sambeau/alethia/pkg/alethia/ast"
	perrors "github.com/sambeau/alethia/pkg/alethia/errors"
	"github.com/sambeau/alethia/pkg/alethia/lexer"
)

// Binary operator levels, lowest binding first. Each level is
// left-associative and its operands are parsed at the next level up.
var binaryLevels = [][]lexer.TokenType{
	{lexer.OR},
	{lexer.AND},
	{lexer.EQ, lexer.LT, lexer.GT},
	{lexer.PLUS, lexer.MINUS},
	{lexer.ASTERISK, lexer.SLASH},
}

// Parser is a recursive-descent parser over a fully materialized token
// sequence. The first syntax error aborts the parse; nothing is recovered.
type Parser struct {
	tokens   []lexer.Token
	position int
	filename string

	structuredErrors []*perrors.AlethiaError

	curToken  lexer.Token
	peekToken lexer.Token
}

// New creates a parser that reads every token from l up front
func New(l *lexer.Lexer) *Parser {
	p := NewFromTokens(l.Tokens())
	p.filename = l.Filename()
	return p
}

// NewFromTokens creates a parser over an existing token sequence.
// A missing trailing EOF token is supplied.
func NewFromTokens(tokens []lexer.Token) *Parser {
	if len(tokens) == 0 || tokens[len(tokens)-1].Type != lexer.EOF {
		eof := lexer.Token{Type: lexer.EOF}
		if len(tokens) > 0 {
			last := tokens[len(tokens)-1]
			eof.Line, eof.Column = last.Line, last.Column+len(last.Literal)
		}
		tokens = append(tokens, eof)
	}
	p := &Parser{tokens: tokens, position: -1}
	p.nextToken()
	return p
}

// Errors returns parser errors as strings
func (p *Parser) Errors() []string {
	result := make([]string, len(p.structuredErrors))
	for i, err := range p.structuredErrors {
		if err.Line > 0 {
			result[i] = fmt.Sprintf("line %d, column %d: %s", err.Line, err.Column, err.Message)
		} else {
			result[i] = err.Message
		}
	}
	return result
}

// StructuredErrors returns parser errors as structured AlethiaError objects.
func (p *Parser) StructuredErrors() []*perrors.AlethiaError {
	return p.structuredErrors
}

// Err returns the first parse error, or nil
func (p *Parser) Err() error {
	if len(p.structuredErrors) == 0 {
		return nil
	}
	return p.structuredErrors[0]
}

func (p *Parser) failed() bool {
	return len(p.structuredErrors) > 0
}

// addError records an error from the catalog at the current token.
// Only the first error is recorded.
func (p *Parser) addError(code string, data map[string]any) {
	if p.failed() {
		return
	}
	err := perrors.NewWithPosition(code, p.curToken.Line, p.curToken.Column, data)
	if p.filename != "" && p.filename != "<input>" {
		err.File = p.filename
	}
	p.structuredErrors = append(p.structuredErrors, err)
}

// foundError reports the current token as unexpected where something else
// was required. An UNKNOWN token is reported as the character it is.
func (p *Parser) foundError(code string, data map[string]any) {
	if p.curTokenIs(lexer.UNKNOWN) {
		if p.curToken.Literal == `"` {
			p.addError("PARSE-0010", nil)
		} else {
			p.addError("PARSE-0011", map[string]any{"Got": "'" + p.curToken.Literal + "'"})
		}
		return
	}
	if data == nil {
		data = map[string]any{}
	}
	data["Got"] = p.curToken.Describe()
	if p.curToken.Type.IsKeyword() {
		data["Reserved"] = p.curToken.Literal
	}
	p.addError(code, data)
}

func (p *Parser) nextToken() {
	if p.position < len(p.tokens)-1 {
		p.position++
	}
	p.curToken = p.tokens[p.position]
	if p.position+1 < len(p.tokens) {
		p.peekToken = p.tokens[p.position+1]
	} else {
		p.peekToken = p.curToken
	}
}

func (p *Parser) curTokenIs(t lexer.TokenType) bool {
	return p.curToken.Type == t
}

func (p *Parser) peekTokenIs(t lexer.TokenType) bool {
	return p.peekToken.Type == t
}

// expect consumes the current token if it has type t, otherwise records
// "Expected X, but found Y".
func (p *Parser) expect(t lexer.TokenType) bool {
	if p.curTokenIs(t) {
		p.nextToken()
		return true
	}
	p.foundError("PARSE-0001", map[string]any{"Expected": describeType(t)})
	return false
}

// ParseProgram parses a whole program. Statements are separated by
// semicolons, which are optional only after if, while and func.
func (p *Parser) ParseProgram() *ast.Program {
	program := &ast.Program{Statements: []ast.Statement{}}

	for !p.curTokenIs(lexer.EOF) && !p.failed() {
		if p.curTokenIs(lexer.SEMICOLON) {
			p.nextToken()
			continue
		}

		stmt := p.parseStatement()
		if stmt == nil {
			return nil
		}
		program.Statements = append(program.Statements, stmt)

		if isCompound(stmt) {
			if p.curTokenIs(lexer.SEMICOLON) {
				p.nextToken()
			}
		} else if !p.expect(lexer.SEMICOLON) {
			return nil
		}
	}

	if p.failed() {
		return nil
	}
	return program
}

// ParseIncremental parses zero or more statements for an interactive
// session. Semicolons between statements are optional.
func (p *Parser) ParseIncremental() *ast.Program {
	program := &ast.Program{Statements: []ast.Statement{}}

	for !p.curTokenIs(lexer.EOF) && !p.failed() {
		if p.curTokenIs(lexer.SEMICOLON) {
			p.nextToken()
			continue
		}
		stmt := p.ParseStatement()
		if stmt == nil {
			return nil
		}
		program.Statements = append(program.Statements, stmt)
	}

	if p.failed() {
		return nil
	}
	return program
}

// ParseStatement parses a single statement starting at the current token
// and leaves the parser on the token after it.
func (p *Parser) ParseStatement() ast.Statement {
	return p.parseStatement()
}

// AtEOF reports whether every token has been consumed
func (p *Parser) AtEOF() bool {
	return p.curTokenIs(lexer.EOF)
}

// isCompound reports whether a statement ends in a block and so takes an
// optional semicolon.
func isCompound(stmt ast.Statement) bool {
	switch stmt.(type) {
	case *ast.IfStatement, *ast.WhileStatement, *ast.FunctionDeclaration:
		return true
	}
	return false
}

func (p *Parser) parseStatement() ast.Statement {
	switch p.curToken.Type {
	case lexer.LET:
		return p.parseLetStatement()
	case lexer.IDENT:
		if p.peekTokenIs(lexer.ASSIGN) {
			return p.parseAssignment()
		}
		return p.parseExpressionStatement()
	case lexer.PRINT:
		return p.parsePrintStatement()
	case lexer.IF:
		return p.parseIfStatement()
	case lexer.WHILE:
		return p.parseWhileStatement()
	case lexer.BREAK:
		stmt := &ast.BreakStatement{Token: p.curToken}
		p.nextToken()
		return stmt
	case lexer.FUNC:
		return p.parseFunctionDeclaration()
	case lexer.RETURN:
		return p.parseReturnStatement()
	case lexer.NUMBER, lexer.STRING, lexer.TRUE, lexer.FALSE, lexer.NIL,
		lexer.LPAREN, lexer.LBRACKET, lexer.LBRACE, lexer.MINUS:
		return p.parseExpressionStatement()
	}
	p.foundError("PARSE-0002", nil)
	return nil
}

func (p *Parser) parseLetStatement() ast.Statement {
	stmt := &ast.VariableDeclaration{Token: p.curToken}
	p.nextToken()

	if !p.curTokenIs(lexer.IDENT) {
		p.foundError("PARSE-0004", map[string]any{"After": "let"})
		return nil
	}
	stmt.Name = &ast.Identifier{Token: p.curToken, Value: p.curToken.Literal}
	p.nextToken()

	if !p.curTokenIs(lexer.ASSIGN) {
		p.foundError("PARSE-0005", nil)
		return nil
	}
	p.nextToken()

	stmt.Value = p.parseExpression()
	if stmt.Value == nil {
		return nil
	}
	return stmt
}

func (p *Parser) parseAssignment() ast.Statement {
	stmt := &ast.VariableDeclaration{
		Token: p.curToken,
		Name:  &ast.Identifier{Token: p.curToken, Value: p.curToken.Literal},
	}
	p.nextToken() // identifier
	p.nextToken() // '='

	stmt.Value = p.parseExpression()
	if stmt.Value == nil {
		return nil
	}
	return stmt
}

func (p *Parser) parsePrintStatement() ast.Statement {
	stmt := &ast.PrintStatement{Token: p.curToken}
	p.nextToken()

	stmt.Value = p.parseExpression()
	if stmt.Value == nil {
		return nil
	}
	return stmt
}

func (p *Parser) parseExpressionStatement() ast.Statement {
	stmt := &ast.ExpressionStatement{Token: p.curToken}
	stmt.Expression = p.parseExpression()
	if stmt.Expression == nil {
		return nil
	}
	return stmt
}

func (p *Parser) parseIfStatement() ast.Statement {
	stmt := p.parseIf()
	if stmt == nil {
		return nil
	}
	return stmt
}

// parseIf parses 'if cond { } [else { } | else if ...]'
func (p *Parser) parseIf() *ast.IfStatement {
	stmt := &ast.IfStatement{Token: p.curToken}
	p.nextToken()

	stmt.Condition = p.parseExpression()
	if stmt.Condition == nil {
		return nil
	}

	stmt.Consequence = p.parseBlock()
	if stmt.Consequence == nil {
		return nil
	}

	if !p.curTokenIs(lexer.ELSE) {
		return stmt
	}
	p.nextToken()

	if p.curTokenIs(lexer.IF) {
		ifTok := p.curToken
		nested := p.parseIf()
		if nested == nil {
			return nil
		}
		stmt.Alternative = &ast.BlockStatement{Token: ifTok, Statements: []ast.Statement{nested}}
		return stmt
	}

	stmt.Alternative = p.parseBlock()
	if stmt.Alternative == nil {
		return nil
	}
	return stmt
}

func (p *Parser) parseWhileStatement() ast.Statement {
	stmt := &ast.WhileStatement{Token: p.curToken}
	p.nextToken()

	stmt.Condition = p.parseExpression()
	if stmt.Condition == nil {
		return nil
	}

	stmt.Body = p.parseBlock()
	if stmt.Body == nil {
		return nil
	}
	return stmt
}

func (p *Parser) parseFunctionDeclaration() ast.Statement {
	stmt := &ast.FunctionDeclaration{Token: p.curToken}
	p.nextToken()

	if !p.curTokenIs(lexer.IDENT) {
		p.foundError("PARSE-0004", map[string]any{"After": "func"})
		return nil
	}
	stmt.Name = &ast.Identifier{Token: p.curToken, Value: p.curToken.Literal}
	p.nextToken()

	if !p.expect(lexer.LPAREN) {
		return nil
	}

	stmt.Parameters = []*ast.Identifier{}
	if !p.curTokenIs(lexer.RPAREN) {
		for {
			if !p.curTokenIs(lexer.IDENT) {
				p.foundError("PARSE-0008", nil)
				return nil
			}
			stmt.Parameters = append(stmt.Parameters, &ast.Identifier{Token: p.curToken, Value: p.curToken.Literal})
			p.nextToken()

			if p.curTokenIs(lexer.COMMA) {
				p.nextToken()
				continue
			}
			if p.curTokenIs(lexer.RPAREN) {
				break
			}
			p.foundError("PARSE-0006", map[string]any{"Closer": ")"})
			return nil
		}
	}
	p.nextToken() // ')'

	stmt.Body = p.parseBlock()
	if stmt.Body == nil {
		return nil
	}
	return stmt
}

func (p *Parser) parseReturnStatement() ast.Statement {
	stmt := &ast.ReturnStatement{Token: p.curToken}
	p.nextToken()

	switch p.curToken.Type {
	case lexer.SEMICOLON, lexer.RBRACE, lexer.EOF:
		return stmt
	}

	stmt.ReturnValue = p.parseExpression()
	if stmt.ReturnValue == nil {
		return nil
	}
	return stmt
}

// parseBlock parses '{ statements }'. Inside a block the last statement
// needs no semicolon and stray semicolons are skipped.
func (p *Parser) parseBlock() *ast.BlockStatement {
	block := &ast.BlockStatement{Token: p.curToken, Statements: []ast.Statement{}}
	if !p.expect(lexer.LBRACE) {
		return nil
	}

	for !p.curTokenIs(lexer.RBRACE) && !p.curTokenIs(lexer.EOF) {
		if p.curTokenIs(lexer.SEMICOLON) {
			p.nextToken()
			continue
		}

		stmt := p.parseStatement()
		if stmt == nil {
			return nil
		}
		block.Statements = append(block.Statements, stmt)

		if isCompound(stmt) {
			if p.curTokenIs(lexer.SEMICOLON) {
				p.nextToken()
			}
			continue
		}
		if p.curTokenIs(lexer.RBRACE) {
			continue
		}
		if !p.curTokenIs(lexer.SEMICOLON) {
			p.foundError("PARSE-0009", nil)
			return nil
		}
		p.nextToken()
	}

	if !p.expect(lexer.RBRACE) {
		return nil
	}
	return block
}

func (p *Parser) parseExpression() ast.Expression {
	return p.parseBinary(0)
}

// parseBinary parses one precedence level, folding operators of that level
// into a left-deepening BinaryExpression.
func (p *Parser) parseBinary(level int) ast.Expression {
	if level == len(binaryLevels) {
		return p.parseUnary()
	}

	left := p.parseBinary(level + 1)
	if left == nil {
		return nil
	}

	for isOneOf(p.curToken.Type, binaryLevels[level]) {
		opToken := p.curToken
		p.nextToken()

		right := p.parseBinary(level + 1)
		if right == nil {
			return nil
		}
		left = &ast.BinaryExpression{
			Token:    opToken,
			Left:     left,
			Operator: opToken.Type,
			Right:    right,
		}
	}

	return left
}

func isOneOf(t lexer.TokenType, types []lexer.TokenType) bool {
	for _, candidate := range types {
		if t == candidate {
			return true
		}
	}
	return false
}

// parseUnary handles prefix minus, stored as '0 - operand'
func (p *Parser) parseUnary() ast.Expression {
	if !p.curTokenIs(lexer.MINUS) {
		return p.parseFactor()
	}

	minus := p.curToken
	p.nextToken()

	operand := p.parseUnary()
	if operand == nil {
		return nil
	}
	return &ast.BinaryExpression{
		Token:    minus,
		Left:     &ast.NumberLiteral{Token: minus, Value: 0},
		Operator: lexer.MINUS,
		Right:    operand,
	}
}

func (p *Parser) parseFactor() ast.Expression {
	tok := p.curToken

	switch tok.Type {
	case lexer.NUMBER:
		p.nextToken()
		return &ast.NumberLiteral{Token: tok, Value: tok.Number}
	case lexer.STRING:
		p.nextToken()
		return &ast.StringLiteral{Token: tok, Value: tok.Literal}
	case lexer.TRUE, lexer.FALSE:
		p.nextToken()
		return &ast.Boolean{Token: tok, Value: tok.Type == lexer.TRUE}
	case lexer.NIL:
		p.nextToken()
		return &ast.NilLiteral{Token: tok}
	case lexer.IDENT:
		p.nextToken()
		return p.parsePostfix(&ast.Identifier{Token: tok, Value: tok.Literal})
	case lexer.LPAREN:
		p.nextToken()
		expr := p.parseExpression()
		if expr == nil {
			return nil
		}
		if !p.expect(lexer.RPAREN) {
			return nil
		}
		return expr
	case lexer.LBRACKET:
		return p.parseArrayLiteral()
	case lexer.LBRACE:
		return p.parseDictionaryLiteral()
	}

	p.foundError("PARSE-0003", nil)
	return nil
}

// parsePostfix applies any run of index and call suffixes to an identifier
func (p *Parser) parsePostfix(expr ast.Expression) ast.Expression {
	for {
		switch p.curToken.Type {
		case lexer.LBRACKET:
			tok := p.curToken
			p.nextToken()
			index := p.parseExpression()
			if index == nil {
				return nil
			}
			if !p.expect(lexer.RBRACKET) {
				return nil
			}
			expr = &ast.IndexExpression{Token: tok, Left: expr, Index: index}
		case lexer.LPAREN:
			tok := p.curToken
			p.nextToken()
			args := p.parseCallArguments()
			if args == nil {
				return nil
			}
			expr = &ast.FunctionCall{Token: tok, Callee: expr, Arguments: args}
		default:
			return expr
		}
	}
}

// parseCallArguments parses 'a, b)' after the opening paren.
// Trailing commas are not allowed.
func (p *Parser) parseCallArguments() []ast.Expression {
	args := []ast.Expression{}

	if p.curTokenIs(lexer.RPAREN) {
		p.nextToken()
		return args
	}

	for {
		arg := p.parseExpression()
		if arg == nil {
			return nil
		}
		args = append(args, arg)

		if p.curTokenIs(lexer.COMMA) {
			p.nextToken()
			continue
		}
		if p.curTokenIs(lexer.RPAREN) {
			p.nextToken()
			return args
		}
		p.foundError("PARSE-0006", map[string]any{"Closer": ")"})
		return nil
	}
}

func (p *Parser) parseArrayLiteral() ast.Expression {
	array := &ast.ArrayLiteral{Token: p.curToken, Elements: []ast.Expression{}}
	p.nextToken()

	for !p.curTokenIs(lexer.RBRACKET) {
		el := p.parseExpression()
		if el == nil {
			return nil
		}
		array.Elements = append(array.Elements, el)

		if p.curTokenIs(lexer.COMMA) {
			p.nextToken()
			continue
		}
		if !p.curTokenIs(lexer.RBRACKET) {
			p.foundError("PARSE-0006", map[string]any{"Closer": "]"})
			return nil
		}
	}
	p.nextToken() // ']'

	return array
}

func (p *Parser) parseDictionaryLiteral() ast.Expression {
	dict := &ast.DictionaryLiteral{Token: p.curToken, Pairs: []ast.DictionaryPair{}}
	p.nextToken()

	for !p.curTokenIs(lexer.RBRACE) {
		keyTok := p.curToken
		if !keyTok.Is(lexer.IDENT) && !keyTok.Is(lexer.STRING) {
			p.foundError("PARSE-0007", nil)
			return nil
		}
		p.nextToken()

		if !p.expect(lexer.COLON) {
			return nil
		}

		value := p.parseExpression()
		if value == nil {
			return nil
		}
		dict.Pairs = append(dict.Pairs, ast.DictionaryPair{Key: keyTok.Literal, KeyToken: keyTok, Value: value})

		if p.curTokenIs(lexer.COMMA) {
			p.nextToken()
			continue
		}
		if !p.curTokenIs(lexer.RBRACE) {
			p.foundError("PARSE-0006", map[string]any{"Closer": "}"})
			return nil
		}
	}
	p.nextToken() // '}'

	return dict
}

// describeType names a token type the way it appears in source
func describeType(t lexer.TokenType) string {
	switch t {
	case lexer.SEMICOLON:
		return "';'"
	case lexer.LPAREN:
		return "'('"
	case lexer.RPAREN:
		return "')'"
	case lexer.LBRACKET:
		return "'['"
	case lexer.RBRACKET:
		return "']'"
	case lexer.LBRACE:
		return "'{'"
	case lexer.RBRACE:
		return "'}'"
	case lexer.COLON:
		return "':'"
	case lexer.ASSIGN:
		return "'='"
	case lexer.IDENT:
		return "identifier"
	case lexer.EOF:
		return "end of input"
	}
	return t.String()
}
