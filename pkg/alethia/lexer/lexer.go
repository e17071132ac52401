package lexer

import (
	"math"
	"strconv"
	"unicode"
	"unicode/utf8"
)

// Lexer represents the lexical analyzer. It keeps a single character of
// lookahead and produces one token per call to NextToken.
type Lexer struct {
	filename     string
	input        string
	position     int  // current position in input (points to current char)
	readPosition int  // current reading position in input (after current char)
	ch           rune // current char under examination, 0 at end of input
	chSize       int  // byte size of current character
	line         int  // current line number
	column       int  // current column number
}

// New creates a new lexer instance
func New(input string) *Lexer {
	return NewWithFilename(input, "<input>")
}

// NewWithFilename creates a new lexer instance with a specific filename
func NewWithFilename(input string, filename string) *Lexer {
	l := &Lexer{
		filename: filename,
		input:    input,
		line:     1,
		column:   0,
	}
	l.readChar()
	return l
}

// Filename returns the name the lexer was created with
func (l *Lexer) Filename() string {
	return l.filename
}

// readChar reads the next character and advances position.
// At the end of input ch is set to 0 and the position stops moving.
func (l *Lexer) readChar() {
	if l.readPosition >= len(l.input) {
		l.ch = 0
		l.chSize = 0
		l.position = len(l.input)
		return
	}

	b := l.input[l.readPosition]
	if b < utf8.RuneSelf {
		l.ch = rune(b)
		l.chSize = 1
	} else {
		l.ch, l.chSize = utf8.DecodeRuneInString(l.input[l.readPosition:])
	}
	l.position = l.readPosition
	l.readPosition += l.chSize

	if l.position > 0 && l.input[l.position-1] == '\n' {
		l.line++
		l.column = 1
	} else {
		l.column++
	}
}

// atEnd reports whether the cursor has run past the last character.
// A literal NUL inside the input is still a character.
func (l *Lexer) atEnd() bool {
	return l.chSize == 0
}

// peekChar returns the next character without advancing position
func (l *Lexer) peekChar() rune {
	if l.readPosition >= len(l.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.input[l.readPosition:])
	return r
}

// NextToken scans the input and returns the next token.
// Once the input is exhausted it returns EOF on every call.
func (l *Lexer) NextToken() Token {
	l.skipWhitespace()

	line, column := l.line, l.column
	if l.atEnd() {
		return Token{Type: EOF, Line: line, Column: column}
	}

	var tok Token
	switch l.ch {
	case '=':
		if l.peekChar() == '=' {
			l.readChar()
			tok = Token{Type: EQ, Literal: "=="}
		} else {
			tok = newToken(ASSIGN, l.ch)
		}
	case '+':
		tok = newToken(PLUS, l.ch)
	case '-':
		tok = newToken(MINUS, l.ch)
	case '*':
		tok = newToken(ASTERISK, l.ch)
	case '/':
		tok = newToken(SLASH, l.ch)
	case '<':
		tok = newToken(LT, l.ch)
	case '>':
		tok = newToken(GT, l.ch)
	case '(':
		tok = newToken(LPAREN, l.ch)
	case ')':
		tok = newToken(RPAREN, l.ch)
	case '[':
		tok = newToken(LBRACKET, l.ch)
	case ']':
		tok = newToken(RBRACKET, l.ch)
	case '{':
		tok = newToken(LBRACE, l.ch)
	case '}':
		tok = newToken(RBRACE, l.ch)
	case ':':
		tok = newToken(COLON, l.ch)
	case ',':
		tok = newToken(COMMA, l.ch)
	case ';':
		tok = newToken(SEMICOLON, l.ch)
	case '"':
		tok = l.readString()
		tok.Line, tok.Column = line, column
		return tok // readString leaves the cursor after the literal
	default:
		if isDigit(l.ch) {
			tok = l.readNumber()
			tok.Line, tok.Column = line, column
			return tok
		}
		if isLetter(l.ch) {
			ident := l.readIdentifier()
			tok = Token{Type: LookupIdent(ident), Literal: ident, Line: line, Column: column}
			return tok
		}
		tok = newToken(UNKNOWN, l.ch)
	}

	l.readChar()
	tok.Line, tok.Column = line, column
	return tok
}

// Tokens drains the lexer and returns every token up to and including EOF
func (l *Lexer) Tokens() []Token {
	var tokens []Token
	for {
		tok := l.NextToken()
		tokens = append(tokens, tok)
		if tok.Type == EOF {
			return tokens
		}
	}
}

// newToken creates a single-character token
func newToken(tokenType TokenType, ch rune) Token {
	return Token{Type: tokenType, Literal: string(ch)}
}

// readIdentifier reads an identifier or keyword: a letter or underscore
// followed by any run of letters, digits and underscores.
func (l *Lexer) readIdentifier() string {
	position := l.position
	for !l.atEnd() && (l.ch == '_' || unicode.IsLetter(l.ch) || unicode.IsDigit(l.ch)) {
		l.readChar()
	}
	return l.input[position:l.position]
}

// readNumber reads a run of digits containing at most one '.'.
// A second '.' ends the number and is left for the next call.
//
// Numbers are integers at runtime. A literal without a fractional part is
// parsed exactly; one with a fractional part is scanned as a float and
// truncated toward zero. Out-of-range values saturate at the int64 limits.
func (l *Lexer) readNumber() Token {
	position := l.position
	hasDecimal := false
	for !l.atEnd() {
		if isDigit(l.ch) {
			l.readChar()
		} else if l.ch == '.' && !hasDecimal {
			hasDecimal = true
			l.readChar()
		} else {
			break
		}
	}
	literal := l.input[position:l.position]
	return Token{Type: NUMBER, Literal: literal, Number: numberValue(literal, hasDecimal)}
}

// numberValue converts the scanned literal to the integer carried by the token
func numberValue(literal string, hasDecimal bool) int64 {
	if !hasDecimal {
		if n, err := strconv.ParseInt(literal, 10, 64); err == nil {
			return n
		}
	}
	f, err := strconv.ParseFloat(literal, 64)
	if err != nil && f == 0 {
		return 0
	}
	switch {
	case f >= math.MaxInt64:
		return math.MaxInt64
	case f <= math.MinInt64:
		return math.MinInt64
	}
	return int64(f)
}

// readString reads a double-quoted string literal. Characters are taken
// verbatim; there are no escape sequences. A string that runs into the end
// of input produces an UNKNOWN token for the opening quote.
func (l *Lexer) readString() Token {
	l.readChar() // skip opening quote
	position := l.position
	for !l.atEnd() && l.ch != '"' {
		l.readChar()
	}
	if l.atEnd() {
		return Token{Type: UNKNOWN, Literal: `"`}
	}
	value := l.input[position:l.position]
	l.readChar() // skip closing quote
	return Token{Type: STRING, Literal: value}
}

// skipWhitespace skips spaces, tabs, carriage returns and newlines
func (l *Lexer) skipWhitespace() {
	for l.ch == ' ' || l.ch == '\t' || l.ch == '\n' || l.ch == '\r' {
		l.readChar()
	}
}

// isLetter checks if a rune can start an identifier (ASCII letter or underscore)
func isLetter(ch rune) bool {
	return ch == '_' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

// isDigit checks if the character is a digit
func isDigit(ch rune) bool {
	return '0' <= ch && ch <= '9'
}
