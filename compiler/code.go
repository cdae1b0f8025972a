package compiler

import (
	"encoding/binary"
	"fmt"
)

// Represents the definition of the `Bytecode`
// which will be created by the compiler and passed to
// the Virtual Machine (VM) to execute
//
// Fields:
//   - Instructions: An array of instructions defined by opcodes and
//     their operands
//   - ConstantsPool: An array containing all the constant values from the source code.
//   - NameConstants: An array containing the names of all global variables,
//     referenced by OP_GET_GLOBAL/OP_SET_GLOBAL operands.
type Bytecode struct {
	Instructions  Instructions
	ConstantsPool []any
	NameConstants []string
	// PropertyNames holds the distinct property/method names referenced by
	// OP_GET_PROPERTY/OP_SET_PROPERTY/OP_INVOKE_METHOD operands. Unlike
	// NameConstants (globals), the same name may be interned more than once.
	PropertyNames []string
}

type Opcode byte

type Instructions []byte

// OPCODE_TOTAL_BYTES is the number of bytes an opcode itself occupies at
// the front of any instruction, before its operand bytes (if any).
const OPCODE_TOTAL_BYTES = 1

// THREE_BYTE_INSTRUCTION_LENGTH is the total width, in bytes, of an
// instruction carrying a single 2-byte operand (1 opcode byte + 2 operand bytes).
const THREE_BYTE_INSTRUCTION_LENGTH = 3

// opcodes
// iota generates a distinct byte for each bytecode
const (
	// represents a opcode constant with a single operand with a size of
	// 2 bytes, which represents a `uint16`.
	// `uint16` -> set of all unsigned 16-bit integers (0 to 65535)
	// this will restrict a luminar program to have a total of 65535 constants.
	// NOTE: This is not a hard constraint, could be changed to uint32 if needed
	OP_CONSTANT Opcode = iota

	// OP_END marks the end of the instruction stream.
	OP_END

	// Arithmetic operators. All operate on the top two values on the VM's stack.
	OP_ADD
	OP_SUBTRACT
	OP_MULTIPLY
	OP_DIVIDE
	OP_MODULUS

	// Unary operators.
	OP_NEGATE
	OP_NOT

	// Comparison operators.
	OP_EQUALITY
	OP_NOT_EQUAL
	OP_LARGER
	OP_LESS
	OP_LARGER_EQUAL
	OP_LESS_EQUAL

	// Eager logical operators: the VM pops two values and pushes their
	// boolean "and"/"or". The compiler lowers "and"/"or" to jumps instead
	// and does not emit these.
	OP_AND
	OP_OR

	// OP_PRINT pops the top of the stack and writes it to standard output.
	OP_PRINT

	// OP_POP discards the top value of the stack.
	OP_POP

	// Global variable access. Operand is an index into Bytecode.NameConstants.
	OP_DEFINE_GLOBAL
	OP_SET_GLOBAL
	OP_GET_GLOBAL

	// Local variable access. Operand is a slot index on the VM's value stack.
	OP_DEFINE_LOCAL
	OP_SET_LOCAL
	OP_GET_LOCAL

	// OP_SCOPE_EXIT pops N locals off the stack when a block scope ends.
	// Operand is the count of locals to discard.
	OP_SCOPE_EXIT

	// Control flow. Operand is an absolute byte index into the instruction stream.
	OP_JUMP
	OP_JUMP_IF_FALSE

	// Function call support.
	OP_CALL
	OP_RETURN

	// Collections.
	OP_BUILD_LIST
	OP_BUILD_DICT
	OP_INDEX_GET
	OP_INDEX_SET

	// Object/class support. Classes are compiled to CompiledClass constants
	// and instantiated by OP_CALL directly; there is no separate build opcode.
	OP_GET_PROPERTY
	OP_SET_PROPERTY
	OP_INVOKE_METHOD

	// String interpolation: concatenates the top N stack values into one string.
	OP_INTERPOLATE

	// Error handling.
	OP_ATTEMPT
	OP_HANDLE

	// Concurrency.
	OP_PARALLEL
	OP_CONCURRENT
	OP_AWAIT

	// OP_DUP duplicates the top value of the stack.
	OP_DUP

	// OP_BUILD_RANGE pops two values (end, then start) and pushes a Range value.
	OP_BUILD_RANGE

	// OP_IMPORT carries the constant pool index of a module path. The VM
	// skips over it; no module is loaded.
	OP_IMPORT
)

// Represents a definition of an opcode.
// Fields:
//   - Name: The human-readable name for the opcode e.g "OP_CONSTANT"
//   - OperandWidths: The number of bytes each operand takes up.
type OpCodeDefinition struct {
	Name          string
	OperandWidths []int
}

var definitions = map[Opcode]*OpCodeDefinition{
	OP_CONSTANT: {Name: "OP_CONSTANT", OperandWidths: []int{2}},
	OP_END:      {Name: "OP_END", OperandWidths: []int{}},

	OP_ADD:      {Name: "OP_ADD", OperandWidths: []int{}},
	OP_SUBTRACT: {Name: "OP_SUBTRACT", OperandWidths: []int{}},
	OP_MULTIPLY: {Name: "OP_MULTIPLY", OperandWidths: []int{}},
	OP_DIVIDE:   {Name: "OP_DIVIDE", OperandWidths: []int{}},
	OP_MODULUS:  {Name: "OP_MODULUS", OperandWidths: []int{}},

	OP_NEGATE: {Name: "OP_NEGATE", OperandWidths: []int{}},
	OP_NOT:    {Name: "OP_NOT", OperandWidths: []int{}},

	OP_EQUALITY:     {Name: "OP_EQUALITY", OperandWidths: []int{}},
	OP_NOT_EQUAL:    {Name: "OP_NOT_EQUAL", OperandWidths: []int{}},
	OP_LARGER:       {Name: "OP_LARGER", OperandWidths: []int{}},
	OP_LESS:         {Name: "OP_LESS", OperandWidths: []int{}},
	OP_LARGER_EQUAL: {Name: "OP_LARGER_EQUAL", OperandWidths: []int{}},
	OP_LESS_EQUAL:   {Name: "OP_LESS_EQUAL", OperandWidths: []int{}},

	OP_AND: {Name: "OP_AND", OperandWidths: []int{}},
	OP_OR:  {Name: "OP_OR", OperandWidths: []int{}},

	OP_PRINT: {Name: "OP_PRINT", OperandWidths: []int{}},
	OP_POP:   {Name: "OP_POP", OperandWidths: []int{}},

	OP_DEFINE_GLOBAL: {Name: "OP_DEFINE_GLOBAL", OperandWidths: []int{2}},
	OP_SET_GLOBAL:    {Name: "OP_SET_GLOBAL", OperandWidths: []int{2}},
	OP_GET_GLOBAL:    {Name: "OP_GET_GLOBAL", OperandWidths: []int{2}},

	OP_DEFINE_LOCAL: {Name: "OP_DEFINE_LOCAL", OperandWidths: []int{2}},
	OP_SET_LOCAL:    {Name: "OP_SET_LOCAL", OperandWidths: []int{2}},
	OP_GET_LOCAL:    {Name: "OP_GET_LOCAL", OperandWidths: []int{2}},

	OP_SCOPE_EXIT: {Name: "OP_SCOPE_EXIT", OperandWidths: []int{2}},

	OP_JUMP:          {Name: "OP_JUMP", OperandWidths: []int{2}},
	OP_JUMP_IF_FALSE: {Name: "OP_JUMP_IF_FALSE", OperandWidths: []int{2}},

	OP_CALL:   {Name: "OP_CALL", OperandWidths: []int{2}},
	OP_RETURN: {Name: "OP_RETURN", OperandWidths: []int{}},

	OP_BUILD_LIST: {Name: "OP_BUILD_LIST", OperandWidths: []int{2}},
	OP_BUILD_DICT: {Name: "OP_BUILD_DICT", OperandWidths: []int{2}},
	OP_INDEX_GET:  {Name: "OP_INDEX_GET", OperandWidths: []int{}},
	OP_INDEX_SET:  {Name: "OP_INDEX_SET", OperandWidths: []int{}},

	OP_GET_PROPERTY:  {Name: "OP_GET_PROPERTY", OperandWidths: []int{2}},
	OP_SET_PROPERTY:  {Name: "OP_SET_PROPERTY", OperandWidths: []int{2}},
	OP_INVOKE_METHOD: {Name: "OP_INVOKE_METHOD", OperandWidths: []int{2}},

	OP_INTERPOLATE: {Name: "OP_INTERPOLATE", OperandWidths: []int{2}},

	OP_ATTEMPT: {Name: "OP_ATTEMPT", OperandWidths: []int{2}},
	OP_HANDLE:  {Name: "OP_HANDLE", OperandWidths: []int{}},

	OP_PARALLEL:   {Name: "OP_PARALLEL", OperandWidths: []int{2}},
	OP_CONCURRENT: {Name: "OP_CONCURRENT", OperandWidths: []int{2}},
	OP_AWAIT:      {Name: "OP_AWAIT", OperandWidths: []int{}},

	OP_DUP:         {Name: "OP_DUP", OperandWidths: []int{}},
	OP_BUILD_RANGE: {Name: "OP_BUILD_RANGE", OperandWidths: []int{}},
	OP_IMPORT:      {Name: "OP_IMPORT", OperandWidths: []int{2}},
}

func Get(op Opcode) (*OpCodeDefinition, error) {
	def, ok := definitions[op]
	if !ok {
		return nil, fmt.Errorf("opcode: '%d' undefined", op)
	}
	return def, nil
}

// AssembleInstruction constructs a bytecode instruction from an opcode and its operands.
// The bytecode operands are encoded in BigEndian order
//
// The resulting byte slice always begins with the opcode, followed by each
// operand encoded according to its defined width in Big-Endian order. This
// means that each `uint16` operand will be encoded with the two bytes stored with the most significant
// byte first (the largest byte), followed by the least significant byte (the smallest byte).
// For example, the instruction for OP_CONSTANT could be defined as:
// [0,253,232] , if its operand is 65000. 65000 in Big Endian format is defined as
// 253 and 232.
//
// Parameters:
//   - op: The opcode representing the instruction to encode.
//   - operands: A variadic list of integers providing the operand values
//     corresponding to the opcode's expected operand widths.
//
// Returns:
//   - A byte slice containing the encoded instruction, or an error if the
//     opcode is not recognized.
//
// Example:
//
//	// Suppose OP_CONSTANT expects a 2-byte operand (index into constants table).
//	instr, _ := AssembleInstruction(OP_CONSTANT, 42)
//	// instr now contains: [<opcode for OP_CONSTANT>, 0x00, 0x2A]
func AssembleInstruction(op Opcode, operands ...int) ([]byte, error) {
	def, err := Get(op)
	if err != nil {
		return nil, err
	}

	byteOffset := OPCODE_TOTAL_BYTES
	instructionLength := byteOffset // starts at one for the opcode
	for _, i := range def.OperandWidths {
		instructionLength += i
	}

	instruction := make([]byte, instructionLength)

	// The first byte of the instruction will be the opcode
	instruction[0] = byte(op)

	for i, o := range operands {
		width := def.OperandWidths[i]
		switch width {
		case 2:
			binary.BigEndian.PutUint16(instruction[byteOffset:], uint16(o))
		}
		byteOffset += width
	}
	return instruction, nil
}

// DiassembleInstruction decodes a single instruction's leading opcode byte
// (plus operand bytes, if any) into a human-readable string, of the form
// "opcode: OP_NAME, operand: <value|None>, operand widths: <n> bytes".
func DiassembleInstruction(instruction []byte) (string, error) {
	if len(instruction) == 0 {
		return "", fmt.Errorf("cannot diassemble an empty instruction")
	}

	op := Opcode(instruction[0])
	def, err := Get(op)
	if err != nil {
		return "", err
	}

	if len(def.OperandWidths) == 0 {
		return fmt.Sprintf("opcode: %s, operand: None, operand widths: 0 bytes", def.Name), nil
	}

	width := def.OperandWidths[0]
	switch width {
	case 2:
		operand := binary.BigEndian.Uint16(instruction[OPCODE_TOTAL_BYTES:])
		return fmt.Sprintf("opcode: %s, operand: %d, operand widths: %d bytes", def.Name, operand, width), nil
	}

	return "", fmt.Errorf("unsupported operand width %d for opcode %s", width, def.Name)
}
