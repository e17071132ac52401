package lexer

import (
	"fmt"
	"sort"
)

// TokenType represents different types of tokens
type TokenType int

const (
	// Special tokens
	UNKNOWN TokenType = iota // any character that cannot start a token
	EOF

	// Identifiers and literals
	IDENT  // add, foobar, x, y, ...
	NUMBER // 1343456
	STRING // "foobar"

	// Operators
	ASSIGN   // =
	EQ       // ==
	PLUS     // +
	MINUS    // -
	ASTERISK // *
	SLASH    // /
	LT       // <
	GT       // >

	// Delimiters
	LPAREN    // (
	RPAREN    // )
	LBRACKET  // [
	RBRACKET  // ]
	LBRACE    // {
	RBRACE    // }
	COLON     // :
	COMMA     // ,
	SEMICOLON // ;

	// Keywords
	LET    // "let"
	PRINT  // "print"
	IF     // "if"
	ELSE   // "else"
	WHILE  // "while"
	BREAK  // "break"
	FUNC   // "func"
	RETURN // "return"
	TRUE   // "true"
	FALSE  // "false"
	OR     // "or"
	AND    // "and"
	NIL    // "nil"
)

var tokenTypeNames = map[TokenType]string{
	UNKNOWN:   "UNKNOWN",
	EOF:       "EOF",
	IDENT:     "IDENT",
	NUMBER:    "NUMBER",
	STRING:    "STRING",
	ASSIGN:    "ASSIGN",
	EQ:        "EQ",
	PLUS:      "PLUS",
	MINUS:     "MINUS",
	ASTERISK:  "ASTERISK",
	SLASH:     "SLASH",
	LT:        "LT",
	GT:        "GT",
	LPAREN:    "LPAREN",
	RPAREN:    "RPAREN",
	LBRACKET:  "LBRACKET",
	RBRACKET:  "RBRACKET",
	LBRACE:    "LBRACE",
	RBRACE:    "RBRACE",
	COLON:     "COLON",
	COMMA:     "COMMA",
	SEMICOLON: "SEMICOLON",
	LET:       "LET",
	PRINT:     "PRINT",
	IF:        "IF",
	ELSE:      "ELSE",
	WHILE:     "WHILE",
	BREAK:     "BREAK",
	FUNC:      "FUNC",
	RETURN:    "RETURN",
	TRUE:      "TRUE",
	FALSE:     "FALSE",
	OR:        "OR",
	AND:       "AND",
	NIL:       "NIL",
}

// String returns a string representation of the token type
func (tt TokenType) String() string {
	if name, ok := tokenTypeNames[tt]; ok {
		return name
	}
	return "INVALID"
}

// IsKeyword reports whether the token type is one of the reserved words
func (tt TokenType) IsKeyword() bool {
	return tt >= LET && tt <= NIL
}

// keywords maps reserved words to their token types
var keywords = map[string]TokenType{
	"let":    LET,
	"print":  PRINT,
	"if":     IF,
	"else":   ELSE,
	"while":  WHILE,
	"break":  BREAK,
	"func":   FUNC,
	"return": RETURN,
	"true":   TRUE,
	"false":  FALSE,
	"or":     OR,
	"and":    AND,
	"nil":    NIL,
}

// Keywords returns the reserved words of the language, used for completion and typo hints
func Keywords() []string {
	words := make([]string, 0, len(keywords))
	for w := range keywords {
		words = append(words, w)
	}
	sort.Strings(words)
	return words
}

// LookupIdent checks if an identifier is a keyword
func LookupIdent(ident string) TokenType {
	if tok, ok := keywords[ident]; ok {
		return tok
	}
	return IDENT
}

// Token represents a single token.
//
// Number holds the integer payload of NUMBER tokens. Line and Column locate
// the first character of the token and take no part in equality.
type Token struct {
	Type    TokenType
	Literal string
	Number  int64
	Line    int
	Column  int
}

// Equal compares two tokens by category and payload, ignoring position
func (t Token) Equal(other Token) bool {
	return t.Type == other.Type && t.Literal == other.Literal && t.Number == other.Number
}

// Is reports whether the token has the given type
func (t Token) Is(tt TokenType) bool {
	return t.Type == tt
}

// String returns a string representation of the token
func (t Token) String() string {
	return fmt.Sprintf("{Type: %s, Literal: %s, Line: %d, Column: %d}",
		t.Type.String(), t.Literal, t.Line, t.Column)
}

// Describe renders the token the way it appears in diagnostics
func (t Token) Describe() string {
	switch t.Type {
	case EOF:
		return "end of input"
	case STRING:
		return `"` + t.Literal + `"`
	default:
		return t.Literal
	}
}
