// Package functiontable tracks declared function signatures across nested
// lexical scopes, mirroring symboltable but keyed on callable shape rather
// than storage slot.
package functiontable

import (
	"fmt"

	"luminar/scope"
	"luminar/types"
)

// Parameter describes one declared function parameter.
type Parameter struct {
	Name string
	Type *types.Type
}

// Info describes a declared function's full signature and the bytecode
// constant index the compiler assigned its CompiledFunction to.
type Info struct {
	Name       string
	Parameters []Parameter
	ReturnType *types.Type
	Address    int
}

// Table wraps a scope.Manager specialised for function declarations.
type Table struct {
	manager *scope.Manager[Info]
}

func New() *Table {
	return &Table{manager: scope.New[Info]()}
}

func (t *Table) EnterScope() { t.manager.Enter() }
func (t *Table) ExitScope()  { t.manager.Exit() }

// Declare registers a function in the current scope. It errors if a
// function with the same name is already declared there.
func (t *Table) Declare(info Info) error {
	if err := t.manager.Add(info.Name, info); err != nil {
		return fmt.Errorf("redefinition of function '%s'", info.Name)
	}
	return nil
}

func (t *Table) Has(name string) bool {
	return t.manager.Exists(name)
}

func (t *Table) Resolve(name string) (Info, bool) {
	return t.manager.Get(name)
}

// Address returns the declared function's constant-pool index.
func (t *Table) Address(name string) (int, error) {
	info, ok := t.manager.Get(name)
	if !ok {
		return 0, fmt.Errorf("undefined function '%s'", name)
	}
	return info.Address, nil
}

// ReturnType returns the declared function's return type.
func (t *Table) ReturnType(name string) (*types.Type, error) {
	info, ok := t.manager.Get(name)
	if !ok {
		return nil, fmt.Errorf("undefined function '%s'", name)
	}
	return info.ReturnType, nil
}

// CheckArguments validates a call's argument types against the function's
// declared parameters, including arity.
func CheckArguments(info Info, argTypes []*types.Type) error {
	if len(argTypes) != len(info.Parameters) {
		return fmt.Errorf("function '%s' expects %d argument(s), got %d",
			info.Name, len(info.Parameters), len(argTypes))
	}
	for i, param := range info.Parameters {
		if !types.IsCompatible(argTypes[i], param.Type) {
			return fmt.Errorf("function '%s' argument %d: cannot use %s as %s",
				info.Name, i+1, argTypes[i], param.Type)
		}
	}
	return nil
}
