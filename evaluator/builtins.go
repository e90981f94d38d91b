package evaluator

import "monkey/object"

// builtins is consulted only after environment lookup fails, so a let
// binding can shadow any of these names.
var builtins = func() map[string]*object.Builtin {
	m := make(map[string]*object.Builtin, len(object.Builtins))
	for _, def := range object.Builtins {
		m[def.Name] = def.Builtin
	}
	return m
}()
