package functiontable

import (
	"testing"

	"luminar/types"
)

func TestTableDeclareAndResolve(t *testing.T) {
	table := New()

	info := Info{
		Name:       "add",
		Parameters: []Parameter{{Name: "a", Type: types.Simple(types.Int)}, {Name: "b", Type: types.Simple(types.Int)}},
		ReturnType: types.Simple(types.Int),
		Address:    3,
	}
	if err := table.Declare(info); err != nil {
		t.Fatalf("Declare returned error: %v", err)
	}

	got, ok := table.Resolve("add")
	if !ok {
		t.Fatal("expected to resolve 'add'")
	}
	if got.Address != 3 {
		t.Errorf("Address = %d, want 3", got.Address)
	}
}

func TestTableRedeclarationErrors(t *testing.T) {
	table := New()
	table.Declare(Info{Name: "f"})

	if err := table.Declare(Info{Name: "f"}); err == nil {
		t.Error("expected redeclaring 'f' to error")
	}
}

func TestAddressAndReturnTypeOfUndefinedFunction(t *testing.T) {
	table := New()

	if _, err := table.Address("missing"); err == nil {
		t.Error("expected Address of undefined function to error")
	}
	if _, err := table.ReturnType("missing"); err == nil {
		t.Error("expected ReturnType of undefined function to error")
	}
}

func TestCheckArguments(t *testing.T) {
	info := Info{
		Name:       "greet",
		Parameters: []Parameter{{Name: "name", Type: types.Simple(types.String)}},
		ReturnType: types.Simple(types.Nil),
	}

	if err := CheckArguments(info, []*types.Type{types.Simple(types.String)}); err != nil {
		t.Errorf("expected matching argument types to pass, got %v", err)
	}
	if err := CheckArguments(info, nil); err == nil {
		t.Error("expected arity mismatch to error")
	}
	if err := CheckArguments(info, []*types.Type{types.Simple(types.Int)}); err == nil {
		t.Error("expected incompatible argument type to error")
	}
}
