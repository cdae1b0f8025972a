package vm

import "luminar/compiler"

// Frame tracks one function or method activation on the call stack.
type Frame struct {
	bytecode compiler.Bytecode
	ip       int
	// basePointer is the VM stack index of this frame's first local (arg0,
	// or "this" for bound methods).
	basePointer int
	// calleeIndex is the VM stack index that held the callee value before
	// the call; OP_RETURN truncates the stack back to this index.
	calleeIndex int
}
