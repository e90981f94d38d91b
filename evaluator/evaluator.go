// Package evaluator is a tree-walking interpreter: it visits each AST node
// and evaluates it immediately against an environment, producing an
// object.Object. Runtime failures are *object.Error values that travel up
// through the same return path as every other value.
package evaluator

import (
	"fmt"
	"log/slog"

	"monkey/ast"
	"monkey/object"
)

var (
	NULL  = object.NULL
	TRUE  = object.TRUE
	FALSE = object.FALSE
)

// DefaultMaxDepth bounds nested function calls so runaway recursion ends
// in an error value instead of exhausting the Go stack.
const DefaultMaxDepth = 10000

type Evaluator struct {
	Heap     *object.Heap
	MaxDepth int // <= 0 disables the guard
	Logger   *slog.Logger

	depth int
}

func New(heap *object.Heap) *Evaluator {
	return &Evaluator{
		Heap:     heap,
		MaxDepth: DefaultMaxDepth,
		Logger:   slog.Default(),
	}
}

// Eval evaluates node in env. Every value it allocates is registered with
// e.Heap; none of it is reclaimed until the host calls Heap.Collect.
func (e *Evaluator) Eval(node ast.Node, env *object.Environment) object.Object {
	switch node := node.(type) {

	// statements
	case *ast.Program:
		return e.evalProgram(node, env)

	case *ast.BlockStatement:
		return e.evalBlockStatement(node, env)

	case *ast.ExpressionStatement:
		return e.Eval(node.Expression, env)

	case *ast.ReturnStatement:
		val := e.Eval(node.ReturnValue, env)
		if unwinds(val) {
			return val
		}
		return e.Heap.NewReturnValue(val)

	case *ast.LetStatement:
		val := e.Eval(node.Value, env)
		if unwinds(val) {
			return val
		}
		env.Set(node.Name.Value, val)
		return NULL

	// expressions
	case *ast.IntegerLiteral:
		return e.Heap.NewInteger(node.Value)

	case *ast.StringLiteral:
		return e.Heap.NewString(node.Value)

	case *ast.Boolean:
		return nativeBoolToBooleanObject(node.Value)

	case *ast.PrefixExpression:
		right := e.Eval(node.Right, env)
		if unwinds(right) {
			return right
		}
		return e.evalPrefixExpression(node.Operator, right)

	case *ast.InfixExpression:
		left := e.Eval(node.Left, env)
		if unwinds(left) {
			return left
		}
		right := e.Eval(node.Right, env)
		if unwinds(right) {
			return right
		}
		return e.evalInfixExpression(node.Operator, left, right)

	case *ast.IfExpression:
		return e.evalIfExpression(node, env)

	case *ast.Identifier:
		return e.evalIdentifier(node, env)

	case *ast.FunctionLiteral:
		return e.Heap.NewFunction(node.Parameters, node.Body, env)

	case *ast.CallExpression:
		function := e.Eval(node.Function, env)
		if unwinds(function) {
			return function
		}
		args := e.evalExpressions(node.Arguments, env)
		if len(args) == 1 && unwinds(args[0]) {
			return args[0]
		}
		return e.applyFunction(function, args)

	case *ast.ArrayLiteral:
		elements := e.evalExpressions(node.Elements, env)
		if len(elements) == 1 && unwinds(elements[0]) {
			return elements[0]
		}
		return e.Heap.NewArray(elements)

	case *ast.HashLiteral:
		return e.evalHashLiteral(node, env)

	case *ast.IndexExpression:
		left := e.Eval(node.Left, env)
		if unwinds(left) {
			return left
		}
		index := e.Eval(node.Index, env)
		if unwinds(index) {
			return index
		}
		return e.evalIndexExpression(left, index)
	}

	panic(fmt.Sprintf("evaluator: unhandled node %T", node))
}

// evalProgram unwraps a top-level return, so `return 5;` behaves like `5;`.
func (e *Evaluator) evalProgram(program *ast.Program, env *object.Environment) object.Object {
	var result object.Object = NULL

	for _, statement := range program.Statements {
		result = e.Eval(statement, env)

		switch result := result.(type) {
		case *object.ReturnValue:
			return result.Value
		case *object.Error:
			return result
		}
	}

	return result
}

// evalBlockStatement stops at a return or error but leaves a return
// wrapped, so it keeps unwinding through nested blocks up to the call.
func (e *Evaluator) evalBlockStatement(block *ast.BlockStatement, env *object.Environment) object.Object {
	var result object.Object = NULL

	for _, statement := range block.Statements {
		result = e.Eval(statement, env)

		rt := result.Type()
		if rt == object.RETURN_VALUE_OBJ || rt == object.ERROR_OBJ {
			return result
		}
	}

	return result
}

func nativeBoolToBooleanObject(input bool) *object.Boolean {
	if input {
		return TRUE
	}
	return FALSE
}

func (e *Evaluator) evalPrefixExpression(operator string, right object.Object) object.Object {
	switch operator {
	case "!":
		return evalBangOperatorExpression(right)
	case "-":
		return e.evalMinusPrefixOperatorExpression(right)
	default:
		return e.newError("unknown operator: %s%s", operator, right.Type())
	}
}

func evalBangOperatorExpression(right object.Object) object.Object {
	if isTruthy(right) {
		return FALSE
	}
	return TRUE
}

func (e *Evaluator) evalMinusPrefixOperatorExpression(right object.Object) object.Object {
	if right.Type() != object.INTEGER_OBJ {
		return e.newError("unknown operator: -%s", right.Type())
	}

	value := right.(*object.Integer).Value
	return e.Heap.NewInteger(-value)
}

func (e *Evaluator) evalInfixExpression(operator string, left, right object.Object) object.Object {
	switch {
	case left.Type() == object.INTEGER_OBJ && right.Type() == object.INTEGER_OBJ:
		return e.evalIntegerInfixExpression(operator, left, right)
	case left.Type() == object.STRING_OBJ && right.Type() == object.STRING_OBJ:
		return e.evalStringInfixExpression(operator, left, right)
	// identity comparison; correct for the boolean and null singletons
	case operator == "==":
		return nativeBoolToBooleanObject(left == right)
	case operator == "!=":
		return nativeBoolToBooleanObject(left != right)
	case left.Type() != right.Type():
		return e.newError("type mismatch: %s %s %s",
			left.Type(), operator, right.Type())
	default:
		return e.newError("unknown operator: %s %s %s",
			left.Type(), operator, right.Type())
	}
}

func (e *Evaluator) evalIntegerInfixExpression(operator string, left, right object.Object) object.Object {
	leftVal := left.(*object.Integer).Value
	rightVal := right.(*object.Integer).Value

	switch operator {
	case "+":
		return e.Heap.NewInteger(leftVal + rightVal)
	case "-":
		return e.Heap.NewInteger(leftVal - rightVal)
	case "*":
		return e.Heap.NewInteger(leftVal * rightVal)
	case "/":
		if rightVal == 0 {
			return e.newError("division by zero")
		}
		return e.Heap.NewInteger(leftVal / rightVal)
	case "<":
		return nativeBoolToBooleanObject(leftVal < rightVal)
	case ">":
		return nativeBoolToBooleanObject(leftVal > rightVal)
	case "==":
		return nativeBoolToBooleanObject(leftVal == rightVal)
	case "!=":
		return nativeBoolToBooleanObject(leftVal != rightVal)
	default:
		return e.newError("unknown operator: %s %s %s",
			left.Type(), operator, right.Type())
	}
}

func (e *Evaluator) evalStringInfixExpression(operator string, left, right object.Object) object.Object {
	if operator != "+" {
		return e.newError("unknown operator: %s %s %s",
			left.Type(), operator, right.Type())
	}

	leftVal := left.(*object.String).Value
	rightVal := right.(*object.String).Value

	return e.Heap.NewString(leftVal + rightVal)
}

func (e *Evaluator) evalIfExpression(ie *ast.IfExpression, env *object.Environment) object.Object {
	condition := e.Eval(ie.Condition, env)
	if unwinds(condition) {
		return condition
	}

	if isTruthy(condition) {
		return e.Eval(ie.Consequence, env)
	} else if ie.Alternative != nil {
		return e.Eval(ie.Alternative, env)
	}
	return NULL
}

// isTruthy: only false and null are falsy; 0, "" and [] are truthy.
func isTruthy(obj object.Object) bool {
	switch obj {
	case NULL:
		return false
	case FALSE:
		return false
	default:
		return true
	}
}

func (e *Evaluator) evalIdentifier(node *ast.Identifier, env *object.Environment) object.Object {
	if val, ok := env.Get(node.Value); ok {
		return val
	}

	if builtin, ok := builtins[node.Value]; ok {
		return builtin
	}

	return e.newError("identifier not found: %s", node.Value)
}

// evalExpressions evaluates left to right. On the first error or return
// it stops and returns a slice holding only that value.
func (e *Evaluator) evalExpressions(exps []ast.Expression, env *object.Environment) []object.Object {
	result := make([]object.Object, 0, len(exps))

	for _, exp := range exps {
		evaluated := e.Eval(exp, env)
		if unwinds(evaluated) {
			return []object.Object{evaluated}
		}
		result = append(result, evaluated)
	}

	return result
}

func (e *Evaluator) applyFunction(fn object.Object, args []object.Object) object.Object {
	switch fn := fn.(type) {
	case *object.Function:
		if len(args) != len(fn.Parameters) {
			return e.newError("wrong number of arguments. got=%d, want=%d",
				len(args), len(fn.Parameters))
		}
		if e.MaxDepth > 0 && e.depth >= e.MaxDepth {
			e.Logger.Warn("call depth limit reached", slog.Int("max_depth", e.MaxDepth))
			return e.newError("maximum call depth exceeded: %d", e.MaxDepth)
		}

		e.depth++
		defer func() { e.depth-- }()

		extendedEnv := e.extendFunctionEnv(fn, args)
		evaluated := e.Eval(fn.Body, extendedEnv)
		return unwrapReturnValue(evaluated)

	case *object.Builtin:
		return e.Heap.Track(fn.Fn(args...))

	default:
		return e.newError("not a function: %s", fn.Type())
	}
}

// extendFunctionEnv creates the call scope: enclosed by the environment
// the function was defined in, not the one it is called from.
func (e *Evaluator) extendFunctionEnv(fn *object.Function, args []object.Object) *object.Environment {
	env := e.Heap.NewEnvironment(fn.Env)

	for paramIdx, param := range fn.Parameters {
		env.Set(param.Value, args[paramIdx])
	}

	return env
}

func unwrapReturnValue(obj object.Object) object.Object {
	if returnValue, ok := obj.(*object.ReturnValue); ok {
		return returnValue.Value
	}
	return obj
}

func (e *Evaluator) evalIndexExpression(left, index object.Object) object.Object {
	switch {
	case left.Type() == object.ARRAY_OBJ && index.Type() == object.INTEGER_OBJ:
		return evalArrayIndexExpression(left, index)
	case left.Type() == object.HASH_OBJ:
		return e.evalHashIndexExpression(left, index)
	default:
		return e.newError("index operator not supported: %s", left.Type())
	}
}

// evalArrayIndexExpression returns NULL for an out of range index.
func evalArrayIndexExpression(array, index object.Object) object.Object {
	arrayObject := array.(*object.Array)
	idx := index.(*object.Integer).Value
	max := int64(len(arrayObject.Elements) - 1)

	if idx < 0 || idx > max {
		return NULL
	}

	return arrayObject.Elements[idx]
}

// evalHashLiteral evaluates key then value for each pair in source order.
// A repeated key keeps the last value.
func (e *Evaluator) evalHashLiteral(node *ast.HashLiteral, env *object.Environment) object.Object {
	hash := e.Heap.NewHash()

	for _, pair := range node.Pairs {
		key := e.Eval(pair.Key, env)
		if unwinds(key) {
			return key
		}

		hashKey, ok := key.(object.Hashable)
		if !ok {
			return e.newError("unusable as hash key, got %s", key.Type())
		}

		value := e.Eval(pair.Value, env)
		if unwinds(value) {
			return value
		}

		hash.Set(hashKey, value)
	}

	return hash
}

func (e *Evaluator) evalHashIndexExpression(hash, index object.Object) object.Object {
	hashObject := hash.(*object.Hash)

	key, ok := index.(object.Hashable)
	if !ok {
		return e.newError("unusable as hash key, got %s", index.Type())
	}

	value, ok := hashObject.Get(key)
	if !ok {
		return NULL
	}

	return value
}

func (e *Evaluator) newError(format string, a ...interface{}) *object.Error {
	return e.Heap.NewError(format, a...)
}

// unwinds reports whether obj must travel up unchanged instead of being
// used as an operand: an error, or a return on its way to the enclosing
// call or the program.
func unwinds(obj object.Object) bool {
	if obj == nil {
		return false
	}
	rt := obj.Type()
	return rt == object.ERROR_OBJ || rt == object.RETURN_VALUE_OBJ
}
