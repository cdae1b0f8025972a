package compiler

// CompiledFunction is the runtime representation of a compiled function or
// method body, stored as a constant and invoked by the VM through OP_CALL
// or OP_INVOKE_METHOD.
type CompiledFunction struct {
	Name     string
	Arity    int
	Bytecode Bytecode
}

// CompiledClass is the runtime representation of a compiled class
// declaration, stored as a constant and instantiated by the VM.
type CompiledClass struct {
	Name       string
	Superclass string
	Methods    map[string]CompiledFunction
}
