package evaluator

import (
	"sort"
	"strconv"
	"strings"

	"github.com/sambeau/alethia/pkg/alethia/ast"
	perrors "github.com/sambeau/alethia/pkg/alethia/errors"
)

// ObjectType represents the type of objects in our language
type ObjectType string

const (
	NUMBER_OBJ     = "NUMBER"
	STRING_OBJ     = "STRING"
	BOOLEAN_OBJ    = "BOOLEAN"
	ARRAY_OBJ      = "ARRAY"
	DICTIONARY_OBJ = "DICTIONARY"
	FUNCTION_OBJ   = "FUNCTION"
	NIL_OBJ        = "NIL"

	RETURN_OBJ = "RETURN_VALUE"
	BREAK_OBJ  = "BREAK"
	ERROR_OBJ  = "ERROR"
)

// Object represents all values in our language, plus the in-band
// control-flow signals (return, break) and runtime errors.
type Object interface {
	Type() ObjectType
	Inspect() string
}

// Number represents integer objects
type Number struct {
	Value int64
}

func (n *Number) Inspect() string  { return strconv.FormatInt(n.Value, 10) }
func (n *Number) Type() ObjectType { return NUMBER_OBJ }

// String represents string objects
type String struct {
	Value string
}

func (s *String) Inspect() string  { return s.Value }
func (s *String) Type() ObjectType { return STRING_OBJ }

// Boolean represents boolean objects
type Boolean struct {
	Value bool
}

func (b *Boolean) Inspect() string  { return strconv.FormatBool(b.Value) }
func (b *Boolean) Type() ObjectType { return BOOLEAN_OBJ }

// Nil represents the absence of a value
type Nil struct{}

func (n *Nil) Inspect() string  { return "nil" }
func (n *Nil) Type() ObjectType { return NIL_OBJ }

// Array represents an ordered sequence of values
type Array struct {
	Elements []Object
}

func (a *Array) Type() ObjectType { return ARRAY_OBJ }
func (a *Array) Inspect() string {
	elements := make([]string, len(a.Elements))
	for i, el := range a.Elements {
		elements[i] = el.Inspect()
	}
	return "[" + strings.Join(elements, ", ") + "]"
}

// Dictionary maps string keys to values. Keys are rendered in sorted order.
type Dictionary struct {
	Pairs map[string]Object
}

func (d *Dictionary) Type() ObjectType { return DICTIONARY_OBJ }
func (d *Dictionary) Inspect() string {
	keys := d.Keys()
	pairs := make([]string, len(keys))
	for i, k := range keys {
		pairs[i] = `"` + k + `": ` + d.Pairs[k].Inspect()
	}
	return "{" + strings.Join(pairs, ", ") + "}"
}

// Keys returns the dictionary keys in sorted order
func (d *Dictionary) Keys() []string {
	keys := make([]string, 0, len(d.Pairs))
	for k := range d.Pairs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Function is a declared function. Body is shared with the AST and never
// modified, so copies of a Function value all refer to the same body.
type Function struct {
	Name   string
	Params []string
	Body   *ast.BlockStatement
}

func (f *Function) Type() ObjectType { return FUNCTION_OBJ }
func (f *Function) Inspect() string {
	return "func " + f.Name + "(" + strings.Join(f.Params, ", ") + ")"
}

// ReturnValue carries a returned value up to the enclosing function call
type ReturnValue struct {
	Value  Object
	Line   int
	Column int
}

func (rv *ReturnValue) Type() ObjectType { return RETURN_OBJ }
func (rv *ReturnValue) Inspect() string  { return rv.Value.Inspect() }

// BreakSignal unwinds to the nearest enclosing while loop
type BreakSignal struct {
	Line   int
	Column int
}

func (bs *BreakSignal) Type() ObjectType { return BREAK_OBJ }
func (bs *BreakSignal) Inspect() string  { return "break" }

// Error is a runtime error. It travels in-band like the signals and ends
// the current top-level execution.
type Error struct {
	Message string
	Line    int
	Column  int
	Class   perrors.ErrorClass
	Code    string
	Hints   []string
	File    string
	Data    map[string]any
}

func (e *Error) Type() ObjectType { return ERROR_OBJ }
func (e *Error) Inspect() string {
	if e.Line > 0 {
		return "line " + strconv.Itoa(e.Line) + ", column " + strconv.Itoa(e.Column) + ": " + e.Message
	}
	return "ERROR: " + e.Message
}

// ToAlethiaError converts this Error to an AlethiaError for structured error handling.
func (e *Error) ToAlethiaError() *perrors.AlethiaError {
	return &perrors.AlethiaError{
		Class:   e.Class,
		Code:    e.Code,
		Message: e.Message,
		Hints:   e.Hints,
		Line:    e.Line,
		Column:  e.Column,
		File:    e.File,
		Data:    e.Data,
	}
}

// Shared immutable singletons
var (
	NIL   = &Nil{}
	TRUE  = &Boolean{Value: true}
	FALSE = &Boolean{Value: false}
	ZERO  = &Number{Value: 0}
)

func nativeBoolToBooleanObject(input bool) *Boolean {
	if input {
		return TRUE
	}
	return FALSE
}

// comparisonResult renders a comparison outcome the way the language exposes
// it: as the string "true" or "false".
func comparisonResult(input bool) *String {
	return &String{Value: strconv.FormatBool(input)}
}

// Clone returns a copy of a value that shares no mutable state with the
// original. Arrays and dictionaries are copied deeply.
func Clone(obj Object) Object {
	switch obj := obj.(type) {
	case *Array:
		elements := make([]Object, len(obj.Elements))
		for i, el := range obj.Elements {
			elements[i] = Clone(el)
		}
		return &Array{Elements: elements}
	case *Dictionary:
		pairs := make(map[string]Object, len(obj.Pairs))
		for k, v := range obj.Pairs {
			pairs[k] = Clone(v)
		}
		return &Dictionary{Pairs: pairs}
	case *Function:
		params := append([]string(nil), obj.Params...)
		return &Function{Name: obj.Name, Params: params, Body: obj.Body}
	default:
		return obj
	}
}

// Equal implements the language's value equality. Only nil, numbers,
// strings, booleans and arrays of equal elements can be equal; any other
// pairing, including dictionaries and functions, is unequal.
func Equal(left, right Object) bool {
	switch l := left.(type) {
	case *Nil:
		_, ok := right.(*Nil)
		return ok
	case *Number:
		r, ok := right.(*Number)
		return ok && l.Value == r.Value
	case *String:
		r, ok := right.(*String)
		return ok && l.Value == r.Value
	case *Boolean:
		r, ok := right.(*Boolean)
		return ok && l.Value == r.Value
	case *Array:
		r, ok := right.(*Array)
		if !ok || len(l.Elements) != len(r.Elements) {
			return false
		}
		for i := range l.Elements {
			if !Equal(l.Elements[i], r.Elements[i]) {
				return false
			}
		}
		return true
	}
	return false
}

// Displayable reports whether a value can be printed. Functions, and
// collections holding them, cannot.
func Displayable(obj Object) bool {
	switch obj := obj.(type) {
	case *Function:
		return false
	case *Array:
		for _, el := range obj.Elements {
			if !Displayable(el) {
				return false
			}
		}
	case *Dictionary:
		for _, v := range obj.Pairs {
			if !Displayable(v) {
				return false
			}
		}
	}
	return true
}

// TypeName returns a lowercase type name for error messages.
func TypeName(obj Object) string {
	return strings.ToLower(string(obj.Type()))
}
