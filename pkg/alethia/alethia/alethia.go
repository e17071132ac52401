// Package alethia is the embedding API for the Alethia interpreter.
//
// ExecuteProgram runs a complete program against a fresh environment.
// ExecuteIncremental runs a fragment against a caller-owned environment, so
// bindings persist from one call to the next:
//
//	env := evaluator.NewEnvironment()
//	alethia.ExecuteIncremental("let x = 1;", env)
//	alethia.ExecuteIncremental("print x;", env) // prints 1
package alethia

import (
	"github.com/sambeau/alethia/pkg/alethia/ast"
	perrors "github.com/sambeau/alethia/pkg/alethia/errors"
	"github.com/sambeau/alethia/pkg/alethia/evaluator"
	"github.com/sambeau/alethia/pkg/alethia/lexer"
	"github.com/sambeau/alethia/pkg/alethia/parser"
)

// ExecuteProgram lexes, parses and evaluates a complete program in a new
// environment. Printed output goes to stdout. The returned error is a
// *errors.AlethiaError.
func ExecuteProgram(source string) error {
	return Execute(source, evaluator.NewEnvironment())
}

// Execute runs a complete program against env. Output goes to env.Logger.
func Execute(source string, env *evaluator.Environment) error {
	program, err := Parse(source, env.Filename)
	if err != nil {
		return err
	}
	return Run(program, env)
}

// ExecuteIncremental parses zero or more statements, with optional
// semicolons between them, and evaluates them against env.
func ExecuteIncremental(source string, env *evaluator.Environment) error {
	p := parser.New(newLexer(source, env.Filename))
	program := p.ParseIncremental()
	if len(p.StructuredErrors()) > 0 {
		return p.StructuredErrors()[0]
	}
	return Run(program, env)
}

// Parse parses a complete program without running it
func Parse(source, filename string) (*ast.Program, error) {
	p := parser.New(newLexer(source, filename))
	program := p.ParseProgram()
	if len(p.StructuredErrors()) > 0 {
		return nil, p.StructuredErrors()[0]
	}
	return program, nil
}

// Run evaluates a parsed program. A runtime error, or a return that reaches
// the top level, is reported as an *errors.AlethiaError.
func Run(program *ast.Program, env *evaluator.Environment) error {
	switch result := evaluator.Eval(program, env).(type) {
	case *evaluator.Error:
		return withFile(result.ToAlethiaError(), env.Filename)
	case *evaluator.ReturnValue:
		err := perrors.NewWithPosition("STATE-0002", result.Line, result.Column,
			map[string]any{"Value": result.Value.Inspect()})
		return withFile(err, env.Filename)
	}
	return nil
}

func newLexer(source, filename string) *lexer.Lexer {
	if filename == "" {
		return lexer.New(source)
	}
	return lexer.NewWithFilename(source, filename)
}

func withFile(err *perrors.AlethiaError, filename string) *perrors.AlethiaError {
	if err.File == "" && filename != "" && filename != "<input>" {
		err.File = filename
	}
	return err
}
