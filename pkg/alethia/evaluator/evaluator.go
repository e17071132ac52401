package evaluator

import (
	"github.com/sambeau/alethia/pkg/alethia/ast"
	perrors "github.com/sambeau/alethia/pkg/alethia/errors"
)

// Eval evaluates a node against env. The result is a value, a control-flow
// signal (*ReturnValue, *BreakSignal) or an *Error.
func Eval(node ast.Node, env *Environment) Object {
	switch node := node.(type) {

	// Statements
	case *ast.Program:
		return evalProgram(node, env)

	case *ast.BlockStatement:
		return evalBlockStatement(node, env)

	case *ast.ExpressionStatement:
		return Eval(node.Expression, env)

	case *ast.VariableDeclaration:
		val := Eval(node.Value, env)
		if isTerminal(val) {
			return val
		}
		val = Clone(val)
		if node.IsDeclaration() {
			return env.Declare(node.Name.Value, val)
		}
		return env.Assign(node.Name.Value, val)

	case *ast.PrintStatement:
		return evalPrintStatement(node, env)

	case *ast.IfStatement:
		return evalIfStatement(node, env)

	case *ast.WhileStatement:
		return evalWhileStatement(node, env)

	case *ast.BreakStatement:
		return &BreakSignal{Line: node.Token.Line, Column: node.Token.Column}

	case *ast.FunctionDeclaration:
		fn := &Function{Name: node.Name.Value, Params: node.ParamNames(), Body: node.Body}
		env.Assign(node.Name.Value, fn)
		return fn

	case *ast.ReturnStatement:
		var val Object = NIL
		if node.ReturnValue != nil {
			val = Eval(node.ReturnValue, env)
			if isTerminal(val) {
				return val
			}
		}
		return &ReturnValue{Value: val, Line: node.Token.Line, Column: node.Token.Column}

	// Expressions
	case *ast.NumberLiteral:
		return &Number{Value: node.Value}

	case *ast.StringLiteral:
		return &String{Value: node.Value}

	case *ast.Boolean:
		return nativeBoolToBooleanObject(node.Value)

	case *ast.NilLiteral:
		return NIL

	case *ast.Identifier:
		return evalIdentifier(node, env)

	case *ast.ArrayLiteral:
		elements := make([]Object, 0, len(node.Elements))
		for _, el := range node.Elements {
			val := Eval(el, env)
			if isTerminal(val) {
				return val
			}
			elements = append(elements, val)
		}
		return &Array{Elements: elements}

	case *ast.DictionaryLiteral:
		pairs := make(map[string]Object, len(node.Pairs))
		for _, pair := range node.Pairs {
			val := Eval(pair.Value, env)
			if isTerminal(val) {
				return val
			}
			pairs[pair.Key] = val
		}
		return &Dictionary{Pairs: pairs}

	case *ast.IndexExpression:
		return evalIndexExpression(node, env)

	case *ast.BinaryExpression:
		left := Eval(node.Left, env)
		if isTerminal(left) {
			return left
		}
		right := Eval(node.Right, env)
		if isTerminal(right) {
			return right
		}
		return evalBinaryExpression(node, left, right)

	case *ast.FunctionCall:
		return evalFunctionCall(node, env)
	}

	return nil
}

// evalProgram runs top-level statements and yields the value of the last
// one, or 0 for an empty program. A break that reaches this level becomes
// an error. A return is passed up for the caller to report.
func evalProgram(program *ast.Program, env *Environment) Object {
	var result Object = ZERO

	for _, stmt := range program.Statements {
		result = Eval(stmt, env)

		switch r := result.(type) {
		case *Error, *ReturnValue:
			return r
		case *BreakSignal:
			return newErrorAt(r.Line, r.Column, "STATE-0001", nil)
		}
	}

	return result
}

func evalBlockStatement(block *ast.BlockStatement, env *Environment) Object {
	var result Object = ZERO

	for _, stmt := range block.Statements {
		result = Eval(stmt, env)
		if isTerminal(result) {
			return result
		}
	}

	return result
}

// evalPrintStatement writes the value as one line. Nil prints nothing.
func evalPrintStatement(node *ast.PrintStatement, env *Environment) Object {
	val := Eval(node.Value, env)
	if isTerminal(val) {
		return val
	}

	if _, isNil := val.(*Nil); !isNil {
		if !Displayable(val) {
			return newError(node, "TYPE-0005", map[string]any{"Type": "function"})
		}
		env.Logger.LogLine(val.Inspect())
	}

	return ZERO
}

func evalIfStatement(node *ast.IfStatement, env *Environment) Object {
	cond := Eval(node.Condition, env)
	if isTerminal(cond) {
		return cond
	}

	truthy, err := isTruthy(node.Condition, cond)
	if err != nil {
		return err
	}

	if truthy {
		return Eval(node.Consequence, env)
	}
	if node.Alternative != nil {
		return Eval(node.Alternative, env)
	}
	return ZERO
}

// evalWhileStatement re-checks the condition before every pass. A break in
// the body ends the loop normally; errors and returns pass through.
func evalWhileStatement(node *ast.WhileStatement, env *Environment) Object {
	for {
		cond := Eval(node.Condition, env)
		if isTerminal(cond) {
			return cond
		}

		truthy, err := isTruthy(node.Condition, cond)
		if err != nil {
			return err
		}
		if !truthy {
			return ZERO
		}

		result := Eval(node.Body, env)
		switch result.(type) {
		case *BreakSignal:
			return ZERO
		case *Error, *ReturnValue:
			return result
		}
	}
}

func evalIdentifier(node *ast.Identifier, env *Environment) Object {
	if val, ok := env.Get(node.Value); ok {
		return val
	}

	perr := perrors.NewUndefinedVariable(node.Value, env.Names())
	return &Error{
		Message: perr.Message,
		Line:    node.Token.Line,
		Column:  node.Token.Column,
		Class:   perr.Class,
		Code:    perr.Code,
		Hints:   perr.Hints,
		File:    env.Filename,
		Data:    perr.Data,
	}
}

func evalIndexExpression(node *ast.IndexExpression, env *Environment) Object {
	left := Eval(node.Left, env)
	if isTerminal(left) {
		return left
	}
	index := Eval(node.Index, env)
	if isTerminal(index) {
		return index
	}

	switch collection := left.(type) {
	case *Array:
		idx, ok := index.(*Number)
		if !ok {
			break
		}
		if idx.Value < 0 || idx.Value >= int64(len(collection.Elements)) {
			return newError(node, "INDEX-0001", map[string]any{
				"Index":  idx.Value,
				"Length": len(collection.Elements),
			})
		}
		return collection.Elements[idx.Value]
	case *Dictionary:
		key, ok := index.(*String)
		if !ok {
			break
		}
		val, found := collection.Pairs[key.Value]
		if !found {
			return newError(node, "INDEX-0002", map[string]any{"Key": key.Value})
		}
		return val
	}

	return newError(node, "INDEX-0003", nil)
}

// evalFunctionCall invokes a function in a fresh frame. Arguments are
// evaluated in the caller's scope, left to right, and paired with parameters
// by position; extra arguments are ignored and missing ones stay unbound.
// The frame is popped on every exit path.
func evalFunctionCall(node *ast.FunctionCall, env *Environment) Object {
	callee := Eval(node.Callee, env)
	if isTerminal(callee) {
		return callee
	}

	fn, ok := callee.(*Function)
	if !ok {
		return newError(node, "TYPE-0004", nil)
	}

	bindings := make(map[string]Object, len(fn.Params))
	for i, param := range fn.Params {
		if i >= len(node.Arguments) {
			break
		}
		val := Eval(node.Arguments[i], env)
		if isTerminal(val) {
			return val
		}
		bindings[param] = Clone(val)
	}

	if env.Depth() >= env.maxDepth() {
		return newError(node, "STATE-0003", map[string]any{"Depth": env.maxDepth()})
	}

	env.pushFrame(bindings)
	defer env.popFrame()

	result := Eval(fn.Body, env)
	if rv, ok := result.(*ReturnValue); ok {
		return rv.Value
	}
	return result
}

// isTerminal reports whether evaluation must stop and hand obj upward
func isTerminal(obj Object) bool {
	if obj == nil {
		return false
	}
	switch obj.Type() {
	case ERROR_OBJ, RETURN_OBJ, BREAK_OBJ:
		return true
	}
	return false
}

// newError builds a runtime error from the catalog, positioned at node
func newError(node ast.Node, code string, data map[string]any) *Error {
	line, column := ast.Position(node)
	return newErrorAt(line, column, code, data)
}

func newErrorAt(line, column int, code string, data map[string]any) *Error {
	perr := perrors.New(code, data)
	return &Error{
		Message: perr.Message,
		Line:    line,
		Column:  column,
		Class:   perr.Class,
		Code:    perr.Code,
		Hints:   perr.Hints,
		Data:    perr.Data,
	}
}
