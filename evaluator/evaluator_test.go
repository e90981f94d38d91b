package evaluator

import (
	"testing"

	"monkey/lexer"
	"monkey/object"
	"monkey/parser"
)

func TestEvalIntegerExpression(t *testing.T) {
	tests := []struct {
		input    string
		expected int64
	}{
		{"5", 5},
		{"10", 10},
		{"-5", -5},
		{"-10", -10},
		{"5 + 5 + 5 + 5 - 10", 10},
		{"2 * 2 * 2 * 2 * 2", 32},
		{"-50 + 100 + -50", 0},
		{"5 * 2 + 10", 20},
		{"5 + 2 * 10", 25},
		{"5 + 5 * 2", 15},
		{"20 + 2 * -10", 0},
		{"50 / 2 * 2 + 10", 60},
		{"2 * (5 + 10)", 30},
		{"3 * 3 * 3 + 10", 37},
		{"3 * (3 * 3) + 10", 37},
		{"(5 + 10 * 2 + 15 / 3) * 2 + -10", 50},
		{"10 / 3", 3},
		{"-7 / 2", -3},
		{"10 - 2 - 3", 5},
	}

	for _, tt := range tests {
		evaluated := testEval(t, tt.input)
		testIntegerObject(t, evaluated, tt.expected)
	}
}

func TestEvalBooleanExpression(t *testing.T) {
	tests := []struct {
		input    string
		expected bool
	}{
		{"true", true},
		{"false", false},
		{"1 < 2", true},
		{"1 > 2", false},
		{"1 < 1", false},
		{"1 > 1", false},
		{"1 == 1", true},
		{"1 != 1", false},
		{"1 == 2", false},
		{"1 != 2", true},
		{"true == true", true},
		{"false == false", true},
		{"true == false", false},
		{"true != false", true},
		{"false != true", true},
		{"(1 < 2) == true", true},
		{"(1 < 2) == false", false},
		{"(1 > 2) == true", false},
		{"(1 > 2) == false", true},
		{"1 == true", false},
		{"1 != true", true},
		{`"a" != 1`, true},
		{"if (false) { 1 } == if (false) { 2 }", true},
	}

	for _, tt := range tests {
		evaluated := testEval(t, tt.input)
		testBooleanObject(t, evaluated, tt.expected)
	}
}

func TestBangOperator(t *testing.T) {
	tests := []struct {
		input    string
		expected bool
	}{
		{"!true", false},
		{"!false", true},
		{"!5", false},
		{"!!true", true},
		{"!!false", false},
		{"!!5", true},
		{"!!0", true},
		{`!""`, false},
		{"![]", false},
		{"!if (false) { 1 }", true},
	}

	for _, tt := range tests {
		evaluated := testEval(t, tt.input)
		testBooleanObject(t, evaluated, tt.expected)
	}
}

func TestIfElseExpressions(t *testing.T) {
	tests := []struct {
		input    string
		expected interface{}
	}{
		{"if (true) { 10 }", 10},
		{"if (false) { 10 }", nil},
		{"if (1) { 10 }", 10},
		{"if (0) { 1 } else { 2 }", 1},
		{"if (1 < 2) { 10 }", 10},
		{"if (1 > 2) { 10 }", nil},
		{"if (1 > 2) { 10 } else { 20 }", 20},
		{"if (1 < 2) { 10 } else { 20 }", 10},
		{"if (if (false) { 1 }) { 10 } else { 20 }", 20},
		{"if (true) { }", nil},
	}

	for _, tt := range tests {
		evaluated := testEval(t, tt.input)
		integer, ok := tt.expected.(int)
		if ok {
			testIntegerObject(t, evaluated, int64(integer))
		} else {
			testNullObject(t, evaluated)
		}
	}
}

func TestReturnStatements(t *testing.T) {
	tests := []struct {
		input    string
		expected int64
	}{
		{"return 10;", 10},
		{"return 10; 9;", 10},
		{"return 2 * 5; 9;", 10},
		{"9; return 2 * 5; 9;", 10},
		{"if (10 > 1) { return 10; }", 10},
		{
			`
if (10 > 1) {
  if (10 > 1) {
    return 10;
  }

  return 1;
}
`,
			10,
		},
		{
			`
let f = fn(x) {
  return x;
  x + 10;
};
f(10);`,
			10,
		},
		{
			`
let f = fn(x) {
   let result = x + 10;
   return result;
   return 10;
};
f(10);`,
			20,
		},
	}

	for _, tt := range tests {
		evaluated := testEval(t, tt.input)
		testIntegerObject(t, evaluated, tt.expected)
	}
}

func TestReturnValueDoesNotEscapeCall(t *testing.T) {
	evaluated := testEval(t, "let f = fn() { return 1; }; [f(), f()]")

	arr, ok := evaluated.(*object.Array)
	if !ok {
		t.Fatalf("object is not Array. got=%T (%+v)", evaluated, evaluated)
	}
	for i, el := range arr.Elements {
		if _, wrapped := el.(*object.ReturnValue); wrapped {
			t.Fatalf("element %d is still wrapped in a return value", i)
		}
		testIntegerObject(t, el, 1)
	}
}

func TestReturnInsideExpressionLeavesTheFunction(t *testing.T) {
	tests := []struct {
		input    string
		expected int64
	}{
		{"let x = if (true) { return 5; }; x + 1", 5},
		{"let f = fn() { let x = if (true) { return 5; }; 10 }; f()", 5},
		{"[if (true) { return 1; }][0] == 1", 1},
		{`let f = fn() { [if (true) { return "abc"; }] }; len(f())`, 3},
		{"let f = fn() { 1 + if (true) { return 7; } }; f()", 7},
		{"let f = fn() { -if (true) { return 6; } }; f()", 6},
		{"let f = fn() { if (if (true) { return 3; }) { 10 } }; f()", 3},
		{"let f = fn() { [1, 2][if (true) { return 4; }] }; f()", 4},
		{`let f = fn() { {"a": if (true) { return 8; }} }; f()`, 8},
		{"let f = fn() { {if (true) { return 2; }: 1} }; f()", 2},
		{"let g = fn(x) { x }; let f = fn() { g(if (true) { return 9; }) + 100 }; f()", 9},
		{"let f = fn() { (if (true) { return len; })([1]) }; f()([1, 2])", 2},
		{"let f = fn() { return if (true) { return 11; }; }; f()", 11},
	}

	for _, tt := range tests {
		evaluated := testEval(t, tt.input)
		if _, wrapped := evaluated.(*object.ReturnValue); wrapped {
			t.Errorf("input %q: result is still wrapped in a return value", tt.input)
			continue
		}
		testIntegerObject(t, evaluated, tt.expected)
	}
}

func TestErrorHandling(t *testing.T) {
	tests := []struct {
		input           string
		expectedMessage string
	}{
		{"5 + true;", "type mismatch: INTEGER + BOOLEAN"},
		{"5 + true; 5;", "type mismatch: INTEGER + BOOLEAN"},
		{"5 + true; 10", "type mismatch: INTEGER + BOOLEAN"},
		{"1 < true", "type mismatch: INTEGER < BOOLEAN"},
		{"-true", "unknown operator: -BOOLEAN"},
		{`-"a"`, "unknown operator: -STRING"},
		{"true + false;", "unknown operator: BOOLEAN + BOOLEAN"},
		{"true > false;", "unknown operator: BOOLEAN > BOOLEAN"},
		{"5; true + false; 5", "unknown operator: BOOLEAN + BOOLEAN"},
		{"if (10 > 1) { true + false; }", "unknown operator: BOOLEAN + BOOLEAN"},
		{
			`
if (10 > 1) {
  if (10 > 1) {
    return true + false;
  }

  return 1;
}
`,
			"unknown operator: BOOLEAN + BOOLEAN",
		},
		{"foobar", "identifier not found: foobar"},
		{`"Hello" - "World"`, "unknown operator: STRING - STRING"},
		{`"a" == "a"`, "unknown operator: STRING == STRING"},
		{`{"name": "Monkey"}[fn(x) { x }];`, "unusable as hash key, got FUNCTION"},
		{"{[1]: 2}", "unusable as hash key, got ARRAY"},
		{"5()", "not a function: INTEGER"},
		{`"fn"(1)`, "not a function: STRING"},
		{"1[0]", "index operator not supported: INTEGER"},
		{`[1, 2]["a"]`, "index operator not supported: ARRAY"},
		{"10 / 0", "division by zero"},
		{"fn(x) { x }(1, 2)", "wrong number of arguments. got=2, want=1"},
		{"fn(x, y) { x }(1)", "wrong number of arguments. got=1, want=2"},
		{"[1, a, b]", "identifier not found: a"},
		{"{a: b}", "identifier not found: a"},
		{`{"k": b}`, "identifier not found: b"},
		{"fn(x, y) { x }(a, b)", "identifier not found: a"},
		{"missing(1 + true)", "identifier not found: missing"},
		{"let f = fn() { 1 + true }; f(); 10", "type mismatch: INTEGER + BOOLEAN"},
		{"let x = -true; x", "unknown operator: -BOOLEAN"},
	}

	for _, tt := range tests {
		evaluated := testEval(t, tt.input)

		errObj, ok := evaluated.(*object.Error)
		if !ok {
			t.Errorf("input %q: no error object returned. got=%T(%+v)",
				tt.input, evaluated, evaluated)
			continue
		}

		if errObj.Message != tt.expectedMessage {
			t.Errorf("input %q: wrong error message. expected=%q, got=%q",
				tt.input, tt.expectedMessage, errObj.Message)
		}
	}
}

func TestLetStatements(t *testing.T) {
	tests := []struct {
		input    string
		expected int64
	}{
		{"let a = 5; a;", 5},
		{"let a = 5 * 5; a;", 25},
		{"let a = 5; let b = a; b;", 5},
		{"let a = 5; let b = a; let c = a + b + 5; c;", 15},
		{"let a = 5; let a = a + 1; a;", 6},
	}

	for _, tt := range tests {
		testIntegerObject(t, testEval(t, tt.input), tt.expected)
	}
}

func TestLetStatementEvaluatesToNull(t *testing.T) {
	testNullObject(t, testEval(t, "let a = 5;"))
	testNullObject(t, testEval(t, ""))
}

func TestFunctionObject(t *testing.T) {
	input := "fn(x) { x + 2; };"

	evaluated := testEval(t, input)
	fn, ok := evaluated.(*object.Function)
	if !ok {
		t.Fatalf("object is not Function. got=%T (%+v)", evaluated, evaluated)
	}

	if len(fn.Parameters) != 1 {
		t.Fatalf("function has wrong parameters. Parameters=%+v", fn.Parameters)
	}
	if fn.Parameters[0].String() != "x" {
		t.Fatalf("parameter is not 'x'. got=%q", fn.Parameters[0])
	}

	expectedBody := "(x + 2)"
	if fn.Body.String() != expectedBody {
		t.Fatalf("body is not %q. got=%q", expectedBody, fn.Body.String())
	}

	expectedInspect := "fn(x) {\n(x + 2)\n}"
	if fn.Inspect() != expectedInspect {
		t.Fatalf("inspect is not %q. got=%q", expectedInspect, fn.Inspect())
	}
}

func TestFunctionApplication(t *testing.T) {
	tests := []struct {
		input    string
		expected int64
	}{
		{"let identity = fn(x) { x; }; identity(5);", 5},
		{"let identity = fn(x) { return x; }; identity(5);", 5},
		{"let double = fn(x) { x * 2; }; double(5);", 10},
		{"let add = fn(x, y) { x + y; }; add(5, 5);", 10},
		{"let add = fn(x, y) { x + y; }; add(5 + 5, add(5, 5));", 20},
		{"fn(x) { x; }(5)", 5},
		{"let fib = fn(n) { if (n < 2) { n } else { fib(n - 1) + fib(n - 2) } }; fib(15)", 610},
	}

	for _, tt := range tests {
		testIntegerObject(t, testEval(t, tt.input), tt.expected)
	}
}

func TestEmptyFunctionBodyReturnsNull(t *testing.T) {
	testNullObject(t, testEval(t, "fn() { }()"))
}

func TestClosures(t *testing.T) {
	input := `
let newAdder = fn(x) {
  fn(y) { x + y };
};

let addTwo = newAdder(2);
addTwo(3);`

	testIntegerObject(t, testEval(t, input), 5)
}

func TestClosuresShareTheDefiningEnvironment(t *testing.T) {
	input := `
let x = 1;
let getX = fn() { x };
let x = 2;
getX();`

	testIntegerObject(t, testEval(t, input), 2)
}

func TestLetInFunctionShadowsOuterBinding(t *testing.T) {
	tests := []struct {
		input    string
		expected int64
	}{
		{"let x = 10; let f = fn() { let x = 20; x }; f();", 20},
		{"let x = 10; let f = fn() { let x = 20; x }; f(); x", 10},
		{"let x = 10; let f = fn(x) { x }; f(1); x", 10},
	}

	for _, tt := range tests {
		testIntegerObject(t, testEval(t, tt.input), tt.expected)
	}
}

func TestLexicalNotDynamicScope(t *testing.T) {
	input := `
let x = 1;
let f = fn() { x };
let g = fn() { let x = 100; f() };
g();`

	testIntegerObject(t, testEval(t, input), 1)
}

func TestStringLiteral(t *testing.T) {
	evaluated := testEval(t, `"Hello World!"`)

	str, ok := evaluated.(*object.String)
	if !ok {
		t.Fatalf("object is not String. got=%T (%+v)", evaluated, evaluated)
	}
	if str.Value != "Hello World!" {
		t.Errorf("String has wrong value. got=%q", str.Value)
	}
}

func TestStringConcatenation(t *testing.T) {
	evaluated := testEval(t, `"Hello" + " " + "World!"`)

	str, ok := evaluated.(*object.String)
	if !ok {
		t.Fatalf("object is not String. got=%T (%+v)", evaluated, evaluated)
	}
	if str.Value != "Hello World!" {
		t.Errorf("String has wrong value. got=%q", str.Value)
	}
}

func TestArrayLiterals(t *testing.T) {
	evaluated := testEval(t, "[1, 2 * 2, 3 + 3]")

	result, ok := evaluated.(*object.Array)
	if !ok {
		t.Fatalf("object is not Array. got=%T (%+v)", evaluated, evaluated)
	}

	if len(result.Elements) != 3 {
		t.Fatalf("array has wrong num of elements. got=%d", len(result.Elements))
	}

	testIntegerObject(t, result.Elements[0], 1)
	testIntegerObject(t, result.Elements[1], 4)
	testIntegerObject(t, result.Elements[2], 6)

	if got := result.Inspect(); got != "[1, 4, 6]" {
		t.Errorf("inspect wrong. got=%q", got)
	}
}

func TestArrayIndexExpressions(t *testing.T) {
	tests := []struct {
		input    string
		expected interface{}
	}{
		{"[1, 2, 3][0]", 1},
		{"[1, 2, 3][1]", 2},
		{"[1, 2, 3][2]", 3},
		{"let i = 0; [1][i];", 1},
		{"[1, 2, 3][1 + 1];", 3},
		{"let myArray = [1, 2, 3]; myArray[2];", 3},
		{"let myArray = [1, 2, 3]; myArray[0] + myArray[1] + myArray[2];", 6},
		{"let myArray = [1, 2, 3]; let i = myArray[0]; myArray[i]", 2},
		{"[1, 2, 3][3]", nil},
		{"[1, 2, 3][5]", nil},
		{"[1, 2, 3][-1]", nil},
		{"[][0]", nil},
	}

	for _, tt := range tests {
		evaluated := testEval(t, tt.input)
		integer, ok := tt.expected.(int)
		if ok {
			testIntegerObject(t, evaluated, int64(integer))
		} else {
			testNullObject(t, evaluated)
		}
	}
}

func TestHashLiterals(t *testing.T) {
	input := `let two = "two";
	{
		"one": 10 - 9,
		two: 1 + 1,
		"thr" + "ee": 6 / 2,
		4: 4,
		true: 5,
		false: 6
	}`

	evaluated := testEval(t, input)
	result, ok := evaluated.(*object.Hash)
	if !ok {
		t.Fatalf("Eval didn't return Hash. got=%T (%+v)", evaluated, evaluated)
	}

	expected := []struct {
		key   object.Hashable
		value int64
	}{
		{&object.String{Value: "one"}, 1},
		{&object.String{Value: "two"}, 2},
		{&object.String{Value: "three"}, 3},
		{&object.Integer{Value: 4}, 4},
		{TRUE, 5},
		{FALSE, 6},
	}

	if result.Len() != len(expected) {
		t.Fatalf("Hash has wrong num of pairs. got=%d", result.Len())
	}

	for _, want := range expected {
		value, ok := result.Get(want.key)
		if !ok {
			t.Errorf("no pair for given key %s in Pairs", want.key.Inspect())
			continue
		}
		testIntegerObject(t, value, want.value)
	}

	if got := result.Inspect(); got != "{one:1, two:2, three:3, 4:4, true:5, false:6}" {
		t.Errorf("inspect wrong. got=%q", got)
	}
}

func TestHashLiteralDuplicateKeysLastWriteWins(t *testing.T) {
	evaluated := testEval(t, `{"a": 1, "b": 2, "a": 3}`)

	hash, ok := evaluated.(*object.Hash)
	if !ok {
		t.Fatalf("Eval didn't return Hash. got=%T (%+v)", evaluated, evaluated)
	}
	if hash.Len() != 2 {
		t.Fatalf("Hash has wrong num of pairs. got=%d", hash.Len())
	}
	if got := hash.Inspect(); got != "{a:3, b:2}" {
		t.Errorf("inspect wrong. got=%q", got)
	}
}

func TestHashIndexExpressions(t *testing.T) {
	tests := []struct {
		input    string
		expected interface{}
	}{
		{`{"foo": 5}["foo"]`, 5},
		{`{"foo": 5}["bar"]`, nil},
		{`let key = "foo"; {"foo": 5}[key]`, 5},
		{`{}["foo"]`, nil},
		{`{5: 5}[5]`, 5},
		{`{true: 5}[true]`, 5},
		{`{false: 5}[false]`, 5},
		{`{1: 5}[true]`, nil},
		{`let h = {"a": [1, 2, 3]}; h["a"][1]`, 2},
	}

	for _, tt := range tests {
		evaluated := testEval(t, tt.input)
		integer, ok := tt.expected.(int)
		if ok {
			testIntegerObject(t, evaluated, int64(integer))
		} else {
			testNullObject(t, evaluated)
		}
	}
}

func TestInspectIsRepeatable(t *testing.T) {
	inputs := []string{
		`{"z": 1, "y": [1, "two", true], 3: {"nested": fn(a, b) { a + b }}}`,
		`[1, [2, [3]], "s", false, if (false) { 1 }]`,
	}

	for _, input := range inputs {
		evaluated := testEval(t, input)
		first := evaluated.Inspect()
		for i := 0; i < 20; i++ {
			if got := evaluated.Inspect(); got != first {
				t.Fatalf("inspect changed between calls: %q vs %q", first, got)
			}
		}
	}
}

func TestCallDepthLimit(t *testing.T) {
	l := lexer.New("let f = fn(n) { f(n + 1) }; f(0);")
	p := parser.New(l)
	program := p.ParseProgram()

	heap := object.NewHeap()
	e := New(heap)
	e.MaxDepth = 50

	evaluated := e.Eval(program, heap.NewEnvironment(nil))

	errObj, ok := evaluated.(*object.Error)
	if !ok {
		t.Fatalf("no error object returned. got=%T(%+v)", evaluated, evaluated)
	}
	if errObj.Message != "maximum call depth exceeded: 50" {
		t.Errorf("wrong error message. got=%q", errObj.Message)
	}
	if e.depth != 0 {
		t.Errorf("depth not restored after unwinding. got=%d", e.depth)
	}
}

func TestCallDepthWithinLimit(t *testing.T) {
	l := lexer.New("let count = fn(n) { if (n == 0) { 0 } else { 1 + count(n - 1) } }; count(40);")
	program := parser.New(l).ParseProgram()

	heap := object.NewHeap()
	e := New(heap)
	e.MaxDepth = 50

	testIntegerObject(t, e.Eval(program, heap.NewEnvironment(nil)), 40)
}

func testEval(t *testing.T, input string) object.Object {
	t.Helper()

	l := lexer.New(input)
	p := parser.New(l)
	program := p.ParseProgram()
	if errs := p.Errors(); len(errs) != 0 {
		t.Fatalf("input %q: parser errors: %v", input, errs)
	}

	heap := object.NewHeap()
	env := heap.NewEnvironment(nil)

	return New(heap).Eval(program, env)
}

func testIntegerObject(t *testing.T, obj object.Object, expected int64) bool {
	t.Helper()

	result, ok := obj.(*object.Integer)
	if !ok {
		t.Errorf("object is not Integer. got=%T (%+v)", obj, obj)
		return false
	}
	if result.Value != expected {
		t.Errorf("object has wrong value. got=%d, want=%d", result.Value, expected)
		return false
	}
	return true
}

func testBooleanObject(t *testing.T, obj object.Object, expected bool) bool {
	t.Helper()

	result, ok := obj.(*object.Boolean)
	if !ok {
		t.Errorf("object is not Boolean. got=%T (%+v)", obj, obj)
		return false
	}
	if result.Value != expected {
		t.Errorf("object has wrong value. got=%t, want=%t", result.Value, expected)
		return false
	}
	if expected && result != TRUE || !expected && result != FALSE {
		t.Errorf("boolean is not the shared singleton")
		return false
	}
	return true
}

func testNullObject(t *testing.T, obj object.Object) bool {
	t.Helper()

	if obj != NULL {
		t.Errorf("object is not NULL. got=%T (%+v)", obj, obj)
		return false
	}
	return true
}
