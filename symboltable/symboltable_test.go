package symboltable

import (
	"testing"

	"luminar/types"
)

func TestTableDeclareAndResolve(t *testing.T) {
	table := New()

	if err := table.Declare("count", types.Simple(types.Int), 0); err != nil {
		t.Fatalf("Declare returned error: %v", err)
	}

	symbol, ok := table.Resolve("count")
	if !ok {
		t.Fatal("expected to resolve 'count'")
	}
	if !symbol.Global {
		t.Error("expected a variable declared at depth 0 to be Global")
	}
	if symbol.Type.Tag != types.Int {
		t.Errorf("symbol.Type.Tag = %s, want Int", symbol.Type.Tag)
	}
}

func TestTableRedeclarationInSameScopeErrors(t *testing.T) {
	table := New()
	table.Declare("x", types.Simple(types.Any), 0)

	if err := table.Declare("x", types.Simple(types.Any), 1); err == nil {
		t.Error("expected redeclaring 'x' in the same scope to error")
	}
}

func TestTableNestedScopeShadowsOuter(t *testing.T) {
	table := New()
	table.Declare("x", types.Simple(types.Int), 0)

	table.EnterScope()
	table.Declare("x", types.Simple(types.String), 0)

	symbol, _ := table.Resolve("x")
	if symbol.Type.Tag != types.String {
		t.Errorf("inner 'x'.Type.Tag = %s, want String", symbol.Type.Tag)
	}
	if symbol.Global {
		t.Error("expected inner 'x' not to be Global")
	}

	table.ExitScope()
	symbol, _ = table.Resolve("x")
	if symbol.Type.Tag != types.Int {
		t.Errorf("outer 'x'.Type.Tag = %s, want Int", symbol.Type.Tag)
	}
}

func TestCheckAssignable(t *testing.T) {
	intSymbol := Symbol{Name: "n", Type: types.Simple(types.Int)}
	if !CheckAssignable(intSymbol, types.Simple(types.Float64)) {
		t.Error("expected Float64 value to be assignable to Int-widening check")
	}
	if CheckAssignable(intSymbol, types.Simple(types.String)) {
		t.Error("did not expect String to be assignable to Int")
	}
}
