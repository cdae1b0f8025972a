package vm

import (
	"bytes"
	"io"
	"os"
	"testing"

	"luminar/compiler"
	"luminar/lexer"
	"luminar/parser"
)

// run compiles and executes source through the full pipeline, capturing
// anything printed via the "print" statement.
func run(t *testing.T, source string) string {
	t.Helper()

	tokens, lexErrs := lexer.New(source).Scan()
	if len(lexErrs) > 0 {
		t.Fatalf("lexing failed: %v", lexErrs)
	}

	statements, parseErrs := parser.Make(tokens).Parse()
	if len(parseErrs) > 0 {
		t.Fatalf("parsing failed: %v", parseErrs[0])
	}

	bytecode, err := compiler.NewASTCompiler().CompileAST(statements)
	if err != nil {
		t.Fatalf("compilation failed: %v", err)
	}

	stdout := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w
	defer func() { os.Stdout = stdout }()

	runErr := New().Run(bytecode)

	w.Close()
	var buf bytes.Buffer
	io.Copy(&buf, r)

	if runErr != nil {
		t.Fatalf("vm run failed: %v", runErr)
	}
	return buf.String()
}

func TestFunctionCallReturnsValue(t *testing.T) {
	source := `
fn add(a, b) {
	return a + b;
}
print add(2, 3);
`
	got := run(t, source)
	if got != "5\n" {
		t.Errorf("output = %q, want %q", got, "5\n")
	}
}

func TestClassInstantiationAndMethodCall(t *testing.T) {
	source := `
class Counter {
	fn init(start) {
		this.value = start;
	}
	fn increment() {
		this.value = this.value + 1;
		return this.value;
	}
}
var c = Counter(10);
print c.increment();
`
	got := run(t, source)
	if got != "11\n" {
		t.Errorf("output = %q, want %q", got, "11\n")
	}
}

func TestAttemptHandleCatchesRaisedError(t *testing.T) {
	source := `
attempt {
	print 1 / 0;
} handle err {
	print "caught";
}
`
	got := run(t, source)
	if got != "caught\n" {
		t.Errorf("output = %q, want %q", got, "caught\n")
	}
}

func TestListIndexingRoundTrip(t *testing.T) {
	source := `
var items = [1, 2, 3];
items[1] = 9;
print items[1];
`
	got := run(t, source)
	if got != "9\n" {
		t.Errorf("output = %q, want %q", got, "9\n")
	}
}
