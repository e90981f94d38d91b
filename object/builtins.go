package object

import "fmt"

// Builtins is the table of native functions, in a fixed order. The
// evaluator falls back to it when a name is not bound in any scope.
var Builtins = []struct {
	Name    string
	Builtin *Builtin
}{
	{
		"len",
		&Builtin{Name: "len", Fn: func(args ...Object) Object {
			if len(args) != 1 {
				return wrongArgumentCount(len(args), 1)
			}

			switch arg := args[0].(type) {
			case *Array:
				return &Integer{Value: int64(len(arg.Elements))}
			case *String:
				return &Integer{Value: int64(len(arg.Value))}
			default:
				return newError("argument to 'len' not supported, got %s",
					args[0].Type())
			}
		}},
	},
	{
		"first",
		&Builtin{Name: "first", Fn: func(args ...Object) Object {
			arr, err := arrayArgument("first", 1, args)
			if err != nil {
				return err
			}
			if len(arr.Elements) > 0 {
				return arr.Elements[0]
			}
			return NULL
		}},
	},
	{
		"last",
		&Builtin{Name: "last", Fn: func(args ...Object) Object {
			arr, err := arrayArgument("last", 1, args)
			if err != nil {
				return err
			}
			length := len(arr.Elements)
			if length > 0 {
				return arr.Elements[length-1]
			}
			return NULL
		}},
	},
	{
		"rest",
		&Builtin{Name: "rest", Fn: func(args ...Object) Object {
			arr, err := arrayArgument("rest", 1, args)
			if err != nil {
				return err
			}
			length := len(arr.Elements)
			if length > 0 {
				newElements := make([]Object, length-1)
				copy(newElements, arr.Elements[1:length])
				return &Array{Elements: newElements}
			}
			return NULL
		}},
	},
	{
		"push",
		&Builtin{Name: "push", Fn: func(args ...Object) Object {
			arr, err := arrayArgument("push", 2, args)
			if err != nil {
				return err
			}
			length := len(arr.Elements)

			newElements := make([]Object, length+1)
			copy(newElements, arr.Elements)
			newElements[length] = args[1]

			return &Array{Elements: newElements}
		}},
	},
}

// GetBuiltinByName returns nil when there is no builtin called name.
func GetBuiltinByName(name string) *Builtin {
	for _, def := range Builtins {
		if def.Name == name {
			return def.Builtin
		}
	}
	return nil
}

// arrayArgument checks arity and that the first argument is an array.
func arrayArgument(name string, want int, args []Object) (*Array, *Error) {
	if len(args) != want {
		return nil, wrongArgumentCount(len(args), want)
	}
	arr, ok := args[0].(*Array)
	if !ok {
		return nil, newError("argument to '%s' must be ARRAY, got %s",
			name, args[0].Type())
	}
	return arr, nil
}

func wrongArgumentCount(got, want int) *Error {
	return newError("wrong number of arguments. got=%d, want=%d", got, want)
}

func newError(format string, a ...interface{}) *Error {
	return &Error{Message: fmt.Sprintf(format, a...)}
}
