package vm

import (
	"fmt"
	"luminar/compiler"
)

// Instance is a runtime object created by calling a CompiledClass.
type Instance struct {
	Class  *compiler.CompiledClass
	Fields map[string]any
}

func newInstance(class *compiler.CompiledClass) *Instance {
	return &Instance{Class: class, Fields: make(map[string]any)}
}

func (i *Instance) String() string {
	return fmt.Sprintf("<%s instance>", i.Class.Name)
}

// BoundMethod pairs a method's compiled body with the receiver it was
// looked up on. Produced by OP_INVOKE_METHOD, consumed by OP_CALL.
type BoundMethod struct {
	Receiver any
	Fn       compiler.CompiledFunction
}

// RangeValue is the runtime representation of a "start..end" expression.
type RangeValue struct {
	Start int64
	End   int64
}

// classRegistry resolves a class name to its compiled definition, used to
// walk superclass chains for method lookup.
type classRegistry map[string]*compiler.CompiledClass

// lookupMethod searches class and its superclass chain for a method.
func (reg classRegistry) lookupMethod(class *compiler.CompiledClass, name string) (compiler.CompiledFunction, bool) {
	for class != nil {
		if fn, ok := class.Methods[name]; ok {
			return fn, true
		}
		if class.Superclass == "" {
			break
		}
		class = reg[class.Superclass]
	}
	return compiler.CompiledFunction{}, false
}
