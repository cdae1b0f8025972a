package scope

import "testing"

func TestManagerDeclareAndGet(t *testing.T) {
	m := New[int]()

	if err := m.Add("x", 1); err != nil {
		t.Fatalf("Add returned error: %v", err)
	}

	value, ok := m.Get("x")
	if !ok || value != 1 {
		t.Fatalf("Get(x) = %d, %v; want 1, true", value, ok)
	}

	if err := m.Add("x", 2); err == nil {
		t.Error("expected redeclaration in same scope to error")
	}
}

func TestManagerNestedScopeShadowing(t *testing.T) {
	m := New[string]()
	m.Add("name", "global")

	m.Enter()
	m.Add("name", "local")

	value, _ := m.Get("name")
	if value != "local" {
		t.Errorf("Get(name) inside nested scope = %q, want %q", value, "local")
	}

	m.Exit()

	value, _ = m.Get("name")
	if value != "global" {
		t.Errorf("Get(name) after exiting scope = %q, want %q", value, "global")
	}
}

func TestManagerExitGlobalScopePanics(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("expected Exit on the global scope to panic")
		}
	}()

	m := New[int]()
	m.Exit()
}

func TestManagerUpdateFindsNearestDeclaration(t *testing.T) {
	m := New[int]()
	m.Add("counter", 0)

	m.Enter()
	if !m.Update("counter", 5) {
		t.Fatal("expected Update to find counter in the enclosing scope")
	}
	m.Exit()

	value, _ := m.Get("counter")
	if value != 5 {
		t.Errorf("Get(counter) = %d, want 5", value)
	}

	if m.Update("missing", 1) {
		t.Error("expected Update on an undeclared name to return false")
	}
}
