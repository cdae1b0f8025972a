package vm

import (
	"encoding/binary"
	"fmt"
	"luminar/compiler"
	"os"
	"sync"
)

// VM is a stack based virtual-machine. It is the runtime environment where
// Luminar bytecode gets executed.
type VM struct {
	stack    Stack
	frames   []*Frame
	globals  map[string]any
	globalMu *sync.RWMutex
	classes  classRegistry
	handlers []attemptHandler
	debug    bool
	halted   bool
}

// New creates a new VM instance.
func New() *VM {
	return &VM{
		globals:  make(map[string]any),
		globalMu: &sync.RWMutex{},
		classes:  make(classRegistry),
	}
}

func (vm *VM) push(value any) {
	vm.stack.Push(value)
}

func (vm *VM) pop() any {
	value, ok := vm.stack.Pop()
	if !ok {
		panic(RuntimeError{Message: "stack underflow"})
	}
	return value
}

func (vm *VM) peek() any {
	value, ok := vm.stack.Peek()
	if !ok {
		panic(RuntimeError{Message: "stack underflow"})
	}
	return value
}

func (vm *VM) currentFrame() *Frame {
	return vm.frames[len(vm.frames)-1]
}

// readOperand decodes the 2-byte big-endian operand that follows the
// opcode byte at frame.ip.
func readOperand(frame *Frame) int {
	start := frame.ip + compiler.OPCODE_TOTAL_BYTES
	return int(binary.BigEndian.Uint16(frame.bytecode.Instructions[start : start+2]))
}

// defineGlobal stores a value under name in the global table. Class values
// are additionally registered so method lookups can walk superclass chains.
// Safe for concurrent use by tasks spawned from "parallel"/"concurrent" blocks.
func (vm *VM) defineGlobal(name string, value any) {
	vm.globalMu.Lock()
	defer vm.globalMu.Unlock()
	vm.globals[name] = value
	if class, ok := value.(compiler.CompiledClass); ok {
		classCopy := class
		vm.classes[name] = &classCopy
	}
}

func (vm *VM) lookupGlobal(name string) (any, bool) {
	vm.globalMu.RLock()
	defer vm.globalMu.RUnlock()
	value, ok := vm.globals[name]
	return value, ok
}

// raise unwinds to the nearest registered "attempt" handler, if any,
// truncating the stack and call frames back to the point the handler was
// registered and resuming execution at its handle block with the error
// message pushed on the stack. It then panics with the internal `handled`
// sentinel so the opcode case that called raise does not also advance the
// instruction pointer past the jump raise just performed; step's recover
// catches that sentinel. With no handler registered, it panics with a
// RuntimeError instead, which propagates out of Run as a Go error.
func (vm *VM) raise(message string) {
	if len(vm.handlers) == 0 {
		panic(RuntimeError{Message: message})
	}
	handler := vm.handlers[len(vm.handlers)-1]
	vm.handlers = vm.handlers[:len(vm.handlers)-1]
	vm.frames = vm.frames[:handler.frameDepth]
	vm.stack = vm.stack[:handler.stackDepth]
	vm.push(message)
	vm.currentFrame().ip = handler.targetIP
	panic(handled{})
}

// Run executes the provided bytecode on the virtual machine.
func (vm *VM) Run(bytecode compiler.Bytecode) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if rte, ok := r.(RuntimeError); ok {
				err = rte
				return
			}
			panic(r)
		}
	}()

	vm.frames = []*Frame{{bytecode: bytecode, calleeIndex: -1}}
	vm.halted = false
	return vm.loop()
}

// loop fetches and dispatches instructions starting at the top frame's
// instruction pointer until an OP_END is reached (the top-level program
// completed) or the outermost call frame returns.
func (vm *VM) loop() error {
	for len(vm.frames) > 0 && !vm.halted {
		frame := vm.currentFrame()

		if frame.ip >= len(frame.bytecode.Instructions) {
			return nil
		}

		vm.step(frame)
	}
	return nil
}

// step executes exactly one instruction of frame. A raise() call deep
// inside an opcode case panics with the internal `handled` sentinel once it
// has already repositioned frame.ip at the matching "handle" block; step's
// recover swallows that sentinel so the opcode case's own ip-advance never
// runs and clobbers the jump. Any other panic (an unhandled RuntimeError)
// propagates past step to Run's top-level recover.
func (vm *VM) step(frame *Frame) {
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(handled); ok {
				return
			}
			panic(r)
		}
	}()

	opCode := compiler.Opcode(frame.bytecode.Instructions[frame.ip])

	switch opCode {
	case compiler.OP_END:
		vm.halted = true

		case compiler.OP_CONSTANT:
			operand := readOperand(frame)
			vm.push(frame.bytecode.ConstantsPool[operand])
			frame.ip += compiler.THREE_BYTE_INSTRUCTION_LENGTH

		case compiler.OP_ADD:
			b, a := vm.pop(), vm.pop()
			as, aok := a.(string)
			bs, bok := b.(string)
			if aok && bok {
				vm.push(as + bs)
			} else if ai, bi, ok := bothInts(a, b); ok {
				vm.push(ai + bi)
			} else if af, aok := asFloat(a); aok {
				if bf, bok := asFloat(b); bok {
					vm.push(af + bf)
				} else {
					vm.raise("cannot add values of incompatible types")
				}
			} else {
				vm.raise("cannot add values of incompatible types")
			}
			frame.ip += compiler.OPCODE_TOTAL_BYTES

		case compiler.OP_SUBTRACT:
			b, a := vm.pop(), vm.pop()
			if ai, bi, ok := bothInts(a, b); ok {
				vm.push(ai - bi)
			} else if af, aok := asFloat(a); aok {
				if bf, bok := asFloat(b); bok {
					vm.push(af - bf)
				} else {
					vm.raise("cannot subtract values of incompatible types")
				}
			} else {
				vm.raise("cannot subtract values of incompatible types")
			}
			frame.ip += compiler.OPCODE_TOTAL_BYTES

		case compiler.OP_MULTIPLY:
			b, a := vm.pop(), vm.pop()
			if ai, bi, ok := bothInts(a, b); ok {
				vm.push(ai * bi)
			} else if af, aok := asFloat(a); aok {
				if bf, bok := asFloat(b); bok {
					vm.push(af * bf)
				} else {
					vm.raise("cannot multiply values of incompatible types")
				}
			} else {
				vm.raise("cannot multiply values of incompatible types")
			}
			frame.ip += compiler.OPCODE_TOTAL_BYTES

		case compiler.OP_DIVIDE:
			b, a := vm.pop(), vm.pop()
			af, aok := asFloat(a)
			bf, bok := asFloat(b)
			if !aok || !bok {
				vm.raise("cannot divide values of incompatible types")
			} else if bf == 0 {
				vm.raise("division by zero")
			} else {
				vm.push(af / bf)
			}
			frame.ip += compiler.OPCODE_TOTAL_BYTES

		case compiler.OP_MODULUS:
			b, a := vm.pop(), vm.pop()
			ai, aok := asInt(a)
			bi, bok := asInt(b)
			if !aok || !bok {
				vm.raise("cannot apply modulus to non-integer values")
			} else if bi == 0 {
				vm.raise("modulus by zero")
			} else {
				vm.push(ai % bi)
			}
			frame.ip += compiler.OPCODE_TOTAL_BYTES

		case compiler.OP_NEGATE:
			a := vm.pop()
			switch t := a.(type) {
			case int64:
				vm.push(-t)
			case float64:
				vm.push(-t)
			default:
				vm.raise("cannot negate a non-numeric value")
			}
			frame.ip += compiler.OPCODE_TOTAL_BYTES

		case compiler.OP_NOT:
			vm.push(!truthy(vm.pop()))
			frame.ip += compiler.OPCODE_TOTAL_BYTES

		case compiler.OP_EQUALITY:
			b, a := vm.pop(), vm.pop()
			vm.push(valuesEqual(a, b))
			frame.ip += compiler.OPCODE_TOTAL_BYTES

		case compiler.OP_NOT_EQUAL:
			b, a := vm.pop(), vm.pop()
			vm.push(!valuesEqual(a, b))
			frame.ip += compiler.OPCODE_TOTAL_BYTES

		case compiler.OP_LARGER, compiler.OP_LESS, compiler.OP_LARGER_EQUAL, compiler.OP_LESS_EQUAL:
			b, a := vm.pop(), vm.pop()
			cmp, ok := compareNumbers(a, b)
			if !ok {
				vm.raise("cannot compare values of incompatible types")
			} else {
				switch opCode {
				case compiler.OP_LARGER:
					vm.push(cmp > 0)
				case compiler.OP_LESS:
					vm.push(cmp < 0)
				case compiler.OP_LARGER_EQUAL:
					vm.push(cmp >= 0)
				case compiler.OP_LESS_EQUAL:
					vm.push(cmp <= 0)
				}
			}
			frame.ip += compiler.OPCODE_TOTAL_BYTES

		case compiler.OP_AND:
			b, a := vm.pop(), vm.pop()
			vm.push(truthy(a) && truthy(b))
			frame.ip += compiler.OPCODE_TOTAL_BYTES

		case compiler.OP_OR:
			b, a := vm.pop(), vm.pop()
			vm.push(truthy(a) || truthy(b))
			frame.ip += compiler.OPCODE_TOTAL_BYTES

		case compiler.OP_PRINT:
			fmt.Println(stringify(vm.pop()))
			frame.ip += compiler.OPCODE_TOTAL_BYTES

		case compiler.OP_POP:
			vm.pop()
			frame.ip += compiler.OPCODE_TOTAL_BYTES

		case compiler.OP_DUP:
			vm.push(vm.peek())
			frame.ip += compiler.OPCODE_TOTAL_BYTES

		case compiler.OP_DEFINE_GLOBAL, compiler.OP_SET_GLOBAL:
			operand := readOperand(frame)
			name := frame.bytecode.NameConstants[operand]
			vm.defineGlobal(name, vm.peek())
			frame.ip += compiler.THREE_BYTE_INSTRUCTION_LENGTH

		case compiler.OP_GET_GLOBAL:
			operand := readOperand(frame)
			name := frame.bytecode.NameConstants[operand]
			value, ok := vm.lookupGlobal(name)
			if !ok {
				vm.raise(fmt.Sprintf("name '%s' is not defined", name))
			} else {
				vm.push(value)
			}
			frame.ip += compiler.THREE_BYTE_INSTRUCTION_LENGTH

		case compiler.OP_DEFINE_LOCAL, compiler.OP_SET_LOCAL:
			operand := readOperand(frame)
			index := frame.basePointer + operand
			value := vm.peek()
			for index >= len(vm.stack) {
				vm.stack = append(vm.stack, nil)
			}
			vm.stack[index] = value
			frame.ip += compiler.THREE_BYTE_INSTRUCTION_LENGTH

		case compiler.OP_GET_LOCAL:
			operand := readOperand(frame)
			vm.push(vm.stack[frame.basePointer+operand])
			frame.ip += compiler.THREE_BYTE_INSTRUCTION_LENGTH

		case compiler.OP_SCOPE_EXIT:
			operand := readOperand(frame)
			if operand > len(vm.stack) {
				operand = len(vm.stack)
			}
			vm.stack = vm.stack[:len(vm.stack)-operand]
			frame.ip += compiler.THREE_BYTE_INSTRUCTION_LENGTH

		case compiler.OP_JUMP:
			frame.ip = readOperand(frame)

		case compiler.OP_JUMP_IF_FALSE:
			if !truthy(vm.peek()) {
				frame.ip = readOperand(frame)
			} else {
				frame.ip += compiler.THREE_BYTE_INSTRUCTION_LENGTH
			}

		case compiler.OP_CALL:
			argc := readOperand(frame)
			frame.ip += compiler.THREE_BYTE_INSTRUCTION_LENGTH
			vm.dispatchCall(argc)

		case compiler.OP_RETURN:
			returnValue := vm.pop()
			finished := vm.frames[len(vm.frames)-1]
			vm.frames = vm.frames[:len(vm.frames)-1]
			if finished.calleeIndex >= 0 {
				vm.stack = vm.stack[:finished.calleeIndex]
			}
			vm.push(returnValue)
			// loop's `len(vm.frames) > 0` check handles the "task/program
			// finished" case; nothing further to do here.

		case compiler.OP_BUILD_LIST:
			count := readOperand(frame)
			elements := make([]any, count)
			for i := count - 1; i >= 0; i-- {
				elements[i] = vm.pop()
			}
			vm.push(elements)
			frame.ip += compiler.THREE_BYTE_INSTRUCTION_LENGTH

		case compiler.OP_BUILD_DICT:
			count := readOperand(frame)
			dict := make(map[any]any, count)
			for i := 0; i < count; i++ {
				value := vm.pop()
				key := vm.pop()
				dict[key] = value
			}
			vm.push(dict)
			frame.ip += compiler.THREE_BYTE_INSTRUCTION_LENGTH

		case compiler.OP_INDEX_GET:
			index := vm.pop()
			collection := vm.pop()
			vm.push(vm.indexGet(collection, index))
			frame.ip += compiler.OPCODE_TOTAL_BYTES

		case compiler.OP_INDEX_SET:
			value := vm.pop()
			index := vm.pop()
			collection := vm.pop()
			vm.indexSet(collection, index, value)
			vm.push(value)
			frame.ip += compiler.OPCODE_TOTAL_BYTES

		case compiler.OP_GET_PROPERTY:
			operand := readOperand(frame)
			name := frame.bytecode.PropertyNames[operand]
			object := vm.pop()
			vm.push(vm.getProperty(object, name))
			frame.ip += compiler.THREE_BYTE_INSTRUCTION_LENGTH

		case compiler.OP_SET_PROPERTY:
			operand := readOperand(frame)
			name := frame.bytecode.PropertyNames[operand]
			value := vm.pop()
			object := vm.pop()
			instance, ok := object.(*Instance)
			if !ok {
				vm.raise("cannot set a property on a non-object value")
			} else {
				instance.Fields[name] = value
			}
			vm.push(value)
			frame.ip += compiler.THREE_BYTE_INSTRUCTION_LENGTH

		case compiler.OP_INVOKE_METHOD:
			operand := readOperand(frame)
			name := frame.bytecode.PropertyNames[operand]
			receiver := vm.pop()
			vm.push(vm.bindMethod(receiver, name))
			frame.ip += compiler.THREE_BYTE_INSTRUCTION_LENGTH

		case compiler.OP_INTERPOLATE:
			count := readOperand(frame)
			parts := make([]string, count)
			for i := count - 1; i >= 0; i-- {
				parts[i] = stringify(vm.pop())
			}
			result := ""
			for _, p := range parts {
				result += p
			}
			vm.push(result)
			frame.ip += compiler.THREE_BYTE_INSTRUCTION_LENGTH

		case compiler.OP_BUILD_RANGE:
			end := vm.pop()
			start := vm.pop()
			startI, sok := asInt(start)
			endI, eok := asInt(end)
			if !sok || !eok {
				vm.raise("range bounds must be numeric")
			} else {
				vm.push(RangeValue{Start: startI, End: endI})
			}
			frame.ip += compiler.OPCODE_TOTAL_BYTES

		case compiler.OP_ATTEMPT:
			target := readOperand(frame)
			frame.ip += compiler.THREE_BYTE_INSTRUCTION_LENGTH
			vm.handlers = append(vm.handlers, attemptHandler{
				frameDepth: len(vm.frames),
				stackDepth: len(vm.stack),
				targetIP:   target,
			})

		case compiler.OP_HANDLE:
			if len(vm.handlers) > 0 {
				vm.handlers = vm.handlers[:len(vm.handlers)-1]
			}
			frame.ip += compiler.OPCODE_TOTAL_BYTES

		case compiler.OP_PARALLEL:
			count := readOperand(frame)
			frame.ip += compiler.THREE_BYTE_INSTRUCTION_LENGTH
			vm.runParallel(frame, count)

		case compiler.OP_CONCURRENT:
			count := readOperand(frame)
			frame.ip += compiler.THREE_BYTE_INSTRUCTION_LENGTH
			vm.runConcurrent(frame, count)

		case compiler.OP_AWAIT:
			// Calls are synchronous, so the awaited value is already
			// resolved by the time execution reaches this instruction.
			frame.ip += compiler.OPCODE_TOTAL_BYTES

		case compiler.OP_IMPORT:
			readOperand(frame) // the module path is not resolved or loaded
			frame.ip += compiler.THREE_BYTE_INSTRUCTION_LENGTH

		default:
			panic(RuntimeError{Message: fmt.Sprintf("unknown opcode %v at ip %d", opCode, frame.ip)})
		}
}

// dispatchCall pops argc arguments and the callee off the stack and pushes
// a new call frame, or — for a callee that is a CompiledClass — constructs
// and pushes a new Instance directly.
func (vm *VM) dispatchCall(argc int) {
	calleeIndex := len(vm.stack) - 1 - argc
	callee := vm.stack[calleeIndex]

	switch fn := callee.(type) {
	case compiler.CompiledFunction:
		if argc != fn.Arity {
			vm.raise(fmt.Sprintf("expected %d arguments but got %d", fn.Arity, argc))
			return
		}
		vm.frames = append(vm.frames, &Frame{
			bytecode:    fn.Bytecode,
			basePointer: calleeIndex + 1,
			calleeIndex: calleeIndex,
		})

	case BoundMethod:
		if argc != fn.Fn.Arity-1 {
			vm.raise(fmt.Sprintf("expected %d arguments but got %d", fn.Fn.Arity-1, argc))
			return
		}
		vm.stack[calleeIndex] = fn.Receiver
		vm.frames = append(vm.frames, &Frame{
			bytecode:    fn.Fn.Bytecode,
			basePointer: calleeIndex,
			calleeIndex: calleeIndex,
		})

	case compiler.CompiledClass:
		vm.globalMu.RLock()
		resolved := vm.classes[fn.Name]
		vm.globalMu.RUnlock()
		instance := newInstance(resolved)
		if instance.Class == nil {
			classCopy := fn
			instance.Class = &classCopy
		}
		vm.globalMu.RLock()
		init, hasInit := vm.classes.lookupMethod(instance.Class, "init")
		vm.globalMu.RUnlock()
		if hasInit {
			if argc != init.Arity-1 {
				vm.raise(fmt.Sprintf("expected %d arguments but got %d", init.Arity-1, argc))
				return
			}
			vm.stack[calleeIndex] = instance
			vm.frames = append(vm.frames, &Frame{
				bytecode:    init.Bytecode,
				basePointer: calleeIndex,
				calleeIndex: calleeIndex,
			})
			return
		}
		vm.stack = vm.stack[:calleeIndex]
		vm.push(instance)

	default:
		vm.raise("value is not callable")
	}
}

func (vm *VM) indexGet(collection, index any) any {
	switch c := collection.(type) {
	case []any:
		i, ok := asInt(index)
		if !ok || i < 0 || int(i) >= len(c) {
			vm.raise("list index out of range")
			return nil
		}
		return c[i]
	case map[any]any:
		value, ok := c[index]
		if !ok {
			vm.raise("key not found in dict")
			return nil
		}
		return value
	case string:
		i, ok := asInt(index)
		if !ok || i < 0 || int(i) >= len(c) {
			vm.raise("string index out of range")
			return nil
		}
		return string(c[i])
	default:
		vm.raise("value is not indexable")
		return nil
	}
}

func (vm *VM) indexSet(collection, index, value any) {
	switch c := collection.(type) {
	case []any:
		i, ok := asInt(index)
		if !ok || i < 0 || int(i) >= len(c) {
			vm.raise("list index out of range")
			return
		}
		c[i] = value
	case map[any]any:
		c[index] = value
	default:
		vm.raise("value does not support index assignment")
	}
}

func (vm *VM) getProperty(object any, name string) any {
	instance, ok := object.(*Instance)
	if !ok {
		vm.raise("only objects have properties")
		return nil
	}
	if value, ok := instance.Fields[name]; ok {
		return value
	}
	return vm.bindMethod(instance, name)
}

func (vm *VM) bindMethod(receiver any, name string) any {
	instance, ok := receiver.(*Instance)
	if !ok {
		vm.raise("only objects have methods")
		return nil
	}
	vm.globalMu.RLock()
	fn, ok := vm.classes.lookupMethod(instance.Class, name)
	vm.globalMu.RUnlock()
	if !ok {
		vm.raise(fmt.Sprintf("undefined property or method '%s'", name))
		return nil
	}
	return BoundMethod{Receiver: instance, Fn: fn}
}

// runParallel dispatches count precompiled tasks (the last count entries in
// the current frame's constants pool) across worker goroutines and waits
// for all of them to finish before returning.
func (vm *VM) runParallel(frame *Frame, count int) {
	tasks := vm.extractTasks(frame, count)
	var wg sync.WaitGroup
	errs := make([]error, len(tasks))
	for i, task := range tasks {
		wg.Add(1)
		go func(i int, task compiler.CompiledFunction) {
			defer wg.Done()
			errs[i] = vm.runTask(task)
		}(i, task)
	}
	wg.Wait()
	for _, err := range errs {
		if err != nil {
			vm.raise(err.Error())
			return
		}
	}
}

// runConcurrent dispatches count precompiled tasks without waiting for
// completion; task errors are reported to stderr since there is no
// synchronous caller left to unwind to.
func (vm *VM) runConcurrent(frame *Frame, count int) {
	tasks := vm.extractTasks(frame, count)
	for _, task := range tasks {
		go func(task compiler.CompiledFunction) {
			if err := vm.runTask(task); err != nil {
				fmt.Fprintln(os.Stderr, err.Error())
			}
		}(task)
	}
}

func (vm *VM) extractTasks(frame *Frame, count int) []compiler.CompiledFunction {
	total := len(frame.bytecode.ConstantsPool)
	start := total - count
	tasks := make([]compiler.CompiledFunction, count)
	for i := 0; i < count; i++ {
		tasks[i] = frame.bytecode.ConstantsPool[start+i].(compiler.CompiledFunction)
	}
	return tasks
}

// runTask executes a single task's bytecode on a fresh VM that shares this
// VM's globals and class registry but has its own stack and call frames.
func (vm *VM) runTask(task compiler.CompiledFunction) error {
	taskVM := &VM{globals: vm.globals, globalMu: vm.globalMu, classes: vm.classes}
	return taskVM.Run(task.Bytecode)
}
