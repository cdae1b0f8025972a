// Package symboltable tracks declared variables across nested lexical
// scopes, recording each variable's declared type and the VM storage slot
// the compiler assigned it.
package symboltable

import (
	"fmt"

	"luminar/scope"
	"luminar/types"
)

// Symbol describes one declared variable.
type Symbol struct {
	Name   string
	Type   *types.Type
	Global bool
	// Slot is the local variable's stack slot index; meaningless when Global.
	Slot int
}

// Table wraps a scope.Manager specialised for variable declarations.
type Table struct {
	manager *scope.Manager[Symbol]
}

func New() *Table {
	return &Table{manager: scope.New[Symbol]()}
}

func (t *Table) EnterScope() { t.manager.Enter() }
func (t *Table) ExitScope()  { t.manager.Exit() }
func (t *Table) Depth() int  { return t.manager.Depth() }

// Declare adds a variable to the current scope. It errors on redeclaration
// within the same scope, matching the compiler's existing shadow-by-nesting
// semantics.
func (t *Table) Declare(name string, typ *types.Type, slot int) error {
	symbol := Symbol{Name: name, Type: typ, Global: t.manager.Depth() == 0, Slot: slot}
	if err := t.manager.Add(name, symbol); err != nil {
		return fmt.Errorf("redefinition of variable '%s'", name)
	}
	return nil
}

// Resolve looks a variable up starting from the innermost scope.
func (t *Table) Resolve(name string) (Symbol, bool) {
	return t.manager.Get(name)
}

// CheckAssignable reports whether a value of type valueType may be stored
// into the variable declared as symbol.
func CheckAssignable(symbol Symbol, valueType *types.Type) bool {
	if symbol.Type == nil {
		return true
	}
	return types.IsCompatible(valueType, symbol.Type)
}
