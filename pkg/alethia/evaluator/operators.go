package evaluator

import (
	"math"
	"strconv"
	"strings"

	"github.com/sambeau/alethia/pkg/alethia/ast"
	"github.com/sambeau/alethia/pkg/alethia/lexer"
)

// evalBinaryExpression applies an operator to two already evaluated operands
func evalBinaryExpression(node *ast.BinaryExpression, left, right Object) Object {
	switch node.Operator {
	case lexer.PLUS:
		return evalPlus(node, left, right)
	case lexer.MINUS:
		return evalMinus(node, left, right)
	case lexer.ASTERISK:
		return evalMultiply(node, left, right)
	case lexer.SLASH:
		return evalDivide(node, left, right)
	case lexer.EQ:
		return comparisonResult(Equal(left, right))
	case lexer.LT, lexer.GT:
		return evalOrdering(node, left, right)
	case lexer.AND, lexer.OR:
		return evalLogical(node, left, right)
	}
	return newError(node, "OP-0008", map[string]any{"Operator": node.Token.Literal})
}

func evalPlus(node ast.Node, left, right Object) Object {
	switch l := left.(type) {
	case *Number:
		switch r := right.(type) {
		case *Number:
			return &Number{Value: l.Value + r.Value}
		case *String:
			return &String{Value: strconv.FormatInt(l.Value, 10) + r.Value}
		}
	case *String:
		switch r := right.(type) {
		case *String:
			return &String{Value: l.Value + r.Value}
		case *Number:
			return &String{Value: l.Value + strconv.FormatInt(r.Value, 10)}
		case *Nil:
			return &String{Value: l.Value + "nil"}
		}
	case *Nil:
		// nil + "s" appends too: the string comes first either way
		if r, ok := right.(*String); ok {
			return &String{Value: r.Value + "nil"}
		}
	}
	return newError(node, "OP-0001", map[string]any{"Left": TypeName(left), "Right": TypeName(right)})
}

func evalMinus(node ast.Node, left, right Object) Object {
	l, lok := left.(*Number)
	r, rok := right.(*Number)
	if !lok || !rok {
		return newError(node, "OP-0002", nil)
	}
	return &Number{Value: l.Value - r.Value}
}

func evalMultiply(node ast.Node, left, right Object) Object {
	switch l := left.(type) {
	case *Number:
		switch r := right.(type) {
		case *Number:
			return &Number{Value: l.Value * r.Value}
		case *String:
			return repeatString(node, r.Value, l.Value)
		}
	case *String:
		switch r := right.(type) {
		case *Number:
			return repeatString(node, l.Value, r.Value)
		case *String:
			return newError(node, "OP-0004", nil)
		}
	}
	return newError(node, "OP-0005", map[string]any{"Left": TypeName(left), "Right": TypeName(right)})
}

func repeatString(node ast.Node, s string, count int64) Object {
	if count < 0 {
		return newError(node, "OP-0003", nil)
	}
	if len(s) > 0 && count > int64(math.MaxInt32)/int64(len(s)) {
		return newError(node, "OP-0009", map[string]any{"Count": count})
	}
	return &String{Value: strings.Repeat(s, int(count))}
}

// evalDivide truncates toward zero. A zero divisor is reported before the
// operand types are checked.
func evalDivide(node ast.Node, left, right Object) Object {
	if r, ok := right.(*Number); ok && r.Value == 0 {
		return newError(node, "OP-0007", nil)
	}
	l, lok := left.(*Number)
	r, rok := right.(*Number)
	if !lok || !rok {
		return newError(node, "OP-0006", nil)
	}
	return &Number{Value: l.Value / r.Value}
}

func evalOrdering(node *ast.BinaryExpression, left, right Object) Object {
	l, lok := left.(*Number)
	r, rok := right.(*Number)
	if !lok || !rok {
		return newError(node, "TYPE-0002", map[string]any{"Operator": node.Token.Literal})
	}
	if node.Operator == lexer.LT {
		return comparisonResult(l.Value < r.Value)
	}
	return comparisonResult(l.Value > r.Value)
}

// evalLogical applies 'and' / 'or'. Both operands have already been
// evaluated. They must both be booleans or both be "true"/"false" strings;
// the result is a native boolean.
func evalLogical(node *ast.BinaryExpression, left, right Object) Object {
	var lv, rv bool
	switch l := left.(type) {
	case *Boolean:
		r, ok := right.(*Boolean)
		if !ok {
			return newError(node, "TYPE-0003", map[string]any{"Operator": node.Token.Literal})
		}
		lv, rv = l.Value, r.Value
	case *String:
		r, ok := right.(*String)
		if !ok || !isBoolString(l.Value) || !isBoolString(r.Value) {
			return newError(node, "TYPE-0003", map[string]any{"Operator": node.Token.Literal})
		}
		lv, rv = l.Value == "true", r.Value == "true"
	default:
		return newError(node, "TYPE-0003", map[string]any{"Operator": node.Token.Literal})
	}

	if node.Operator == lexer.AND {
		return nativeBoolToBooleanObject(lv && rv)
	}
	return nativeBoolToBooleanObject(lv || rv)
}

func isBoolString(s string) bool {
	return s == "true" || s == "false"
}

// isTruthy converts a condition value. Only booleans and the strings
// "true" and "false" are conditions; anything else is an error.
func isTruthy(node ast.Node, obj Object) (bool, *Error) {
	switch obj := obj.(type) {
	case *Boolean:
		return obj.Value, nil
	case *String:
		if isBoolString(obj.Value) {
			return obj.Value == "true", nil
		}
	}
	return false, newError(node, "TYPE-0001", map[string]any{"Value": describeValue(obj)})
}

// describeValue renders a value for error messages, tagged with its type
func describeValue(obj Object) string {
	switch obj := obj.(type) {
	case *String:
		return "String(" + strconv.Quote(obj.Value) + ")"
	case *Number:
		return "Number(" + obj.Inspect() + ")"
	case *Nil:
		return "Nil"
	case *Function:
		return "Function(" + obj.Name + ")"
	}
	label := typeLabels[obj.Type()]
	if Displayable(obj) {
		return label + "(" + obj.Inspect() + ")"
	}
	return label
}

var typeLabels = map[ObjectType]string{
	BOOLEAN_OBJ:    "Bool",
	ARRAY_OBJ:      "Array",
	DICTIONARY_OBJ: "Dictionary",
}
