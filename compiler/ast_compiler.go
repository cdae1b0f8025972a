package compiler

// This file implements the ASTCompiler, which compiles the abstract syntax tree (AST) directly to bytecode.

import (
	"encoding/binary"
	"fmt"
	"luminar/ast"
	"luminar/token"
	"os"
	"strings"
)

// Local represents a local variable in the compiler.
// NOTE/TODO: The struct layout can probably be optimised by packing the fields differently.
// So the struct has better cache locality and takes up less memory.
type Local struct {

	// The variable's name
	name string
	// The variable's depth in the scope stack. Used to determine when variables go out of scope.
	depth uint16
	// Whether the variable has been initialized. Used to prevent accessing uninitialized variables.
	initialized bool
	// The slot index where the variable is stored. Used for local variable access in the VM.
	slot uint16
}

// ASTCompiler is a visitor that compiles AST nodes directly to bytecode.
// It implements both ast.ExpressionVisitor and ast.StmtVisitor interfaces
// to traverse and compile the abstract syntax tree to bytecode.
type ASTCompiler struct {

	// The resulting compiled bytecode.
	bytecode Bytecode
	// Tracks initialized global variables
	initialized map[string]bool
	// A stack of local variables in the current scope. Used for local variable management and access.
	// Locals are orderd by by their declaration order that appears in the code. The most recently declared variable
	// will always be at the top of the stack.
	// TODO: We can re-factor the `Stack` implementation in the VM package so it can be used here. We should move that implementation
	// to a new package.
	locals []Local
	// The current depth of nested scopes. Used to determine when local variables go out of scope.
	scopeDepth uint16
}

// NewASTCompiler creates a new AST-to-bytecode compiler.
func NewASTCompiler() *ASTCompiler {
	return &ASTCompiler{
		bytecode: Bytecode{
			Instructions:  Instructions{},
			ConstantsPool: []any{},
			NameConstants: []string{},
		},
		initialized: make(map[string]bool),
		locals:      []Local{},
		scopeDepth:  0,
	}
}

// DumpBytecode writes the compiled bytecode to a file with a `.lnic` extension.
// The bytecode is encoded as hexadecimal so it can be viewed in a text editor.
func (ac *ASTCompiler) DumpBytecode(filePath string) error {
	if filePath == "" {
		filePath = "bytecode.lnic"
	} else {
		filePath = filePath + ".lnic"
	}
	fDescriptor, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("error creating luminar bytecode file: %s", err.Error())
	}

	encoded := fmt.Sprintf("%x", ac.bytecode.Instructions)
	fDescriptor.Write([]byte(encoded))
	defer fDescriptor.Close()
	return nil
}

// DiassembleBytecode disassembles the compiled bytecode to a human readable format
// and optionally saves it to disk.
// It returns the disassembled bytecode as a string or an error if the file could not be created.
func (ac *ASTCompiler) DiassembleBytecode(saveToDisk bool, filePath string) (string, error) {
	var diassembledBytecode string
	var builder strings.Builder
	var instructionLength int
	totalInstructions := len(ac.bytecode.Instructions) - 1
	ip := 0

	// NOTE: Slicing in go includes the first element, but excludes the last one.
	// for example, [0:4] will include index 0 to index 3 of the array.

	for ip <= totalInstructions {
		opCode := Opcode(ac.bytecode.Instructions[ip])
		switch opCode {
		case OP_ADD, OP_LESS, OP_LARGER, OP_PRINT, OP_SUBTRACT, OP_DIVIDE,
			OP_MULTIPLY, OP_NEGATE, OP_NOT, OP_AND, OP_OR,
			OP_EQUALITY, OP_NOT_EQUAL, OP_LARGER_EQUAL, OP_LESS_EQUAL,
			OP_END, OP_POP:

			result, err := DiassembleInstruction([]byte{ac.bytecode.Instructions[ip]})
			if err != nil {
				panic(err.Error())
			}
			builder.WriteString(result)
			if opCode == OP_END {
				break
			}
			builder.WriteString("\n")
			instructionLength = OPCODE_TOTAL_BYTES

		case OP_GET_LOCAL, OP_SET_LOCAL:
			// The  operand is the index where the local variable is stored in the VM's stack.
			operand, dia := ac.diassemble3ByteInstruction(ip)
			result := dia + fmt.Sprintf(", vm stack index: %d", operand)
			builder.WriteString(result)
			builder.WriteString("\n")
			instructionLength = THREE_BYTE_INSTRUCTION_LENGTH

		case OP_SCOPE_EXIT:
			operand, dia := ac.diassemble3ByteInstruction(ip)
			result := dia + fmt.Sprintf(", total local variables to pop from the VM's stack: %d", operand)
			builder.WriteString(result)
			builder.WriteString("\n")
			instructionLength = THREE_BYTE_INSTRUCTION_LENGTH

		// Handles all opcodes which store data in the constants pool.
		// all these opcodes have an operand (index into constants pool) with a width of 2 bytes.
		case OP_CONSTANT, OP_SET_GLOBAL, OP_GET_GLOBAL:

			// The operand is the index into the constants pool where the actual value is stored.
			operand, dia := ac.diassemble3ByteInstruction(ip)
			value := ac.bytecode.ConstantsPool[operand]
			result := dia + fmt.Sprintf(", value: %d", value)
			builder.WriteString(result)
			builder.WriteString("\n")
			instructionLength = THREE_BYTE_INSTRUCTION_LENGTH

		case OP_JUMP, OP_JUMP_IF_FALSE:

			operand, dia := ac.diassemble3ByteInstruction(ip)
			result := dia + fmt.Sprintf(", byte index in instruction array: %d", operand)
			builder.WriteString(result)
			builder.WriteString("\n")
			instructionLength = THREE_BYTE_INSTRUCTION_LENGTH

		default:
			def, err := Get(opCode)
			if err != nil {
				panic(err.Error())
			}
			instructionLength = OPCODE_TOTAL_BYTES
			for _, width := range def.OperandWidths {
				instructionLength += width
			}
			result, err := DiassembleInstruction(ac.bytecode.Instructions[ip : ip+instructionLength])
			if err != nil {
				panic(err.Error())
			}
			builder.WriteString(result)
			builder.WriteString("\n")
		}

		ip += instructionLength
	}
	diassembledBytecode = builder.String()
	if saveToDisk {
		if filePath == "" {
			filePath = "bytecode.ldnic"
		} else {
			filePath = filePath + ".ldnic"
		}
		fDescriptor, err := os.Create(filePath)
		if err != nil {
			return "", fmt.Errorf("error creating diassembled bytecode file: %s", err.Error())
		}
		fDescriptor.WriteString(diassembledBytecode)
		defer fDescriptor.Close()
	}
	return diassembledBytecode, nil
}

func (ac *ASTCompiler) CompileAST(statements []ast.Stmt) (b Bytecode, err error) {
	// Recover from any panic that may occur during compilation
	defer func() {
		if r := recover(); r != nil {
			switch v := r.(type) {
			case SemanticError:
				err = v
			case DeveloperError:
				err = v
			}
		}
	}()

	// If previous compilation left an OP_END at the end, drop it
	if len(ac.bytecode.Instructions) > 0 {
		if ac.bytecode.Instructions[len(ac.bytecode.Instructions)-1] == byte(OP_END) {
			ac.bytecode.Instructions = ac.bytecode.Instructions[:len(ac.bytecode.Instructions)-1]
		}
	}

	for _, stmt := range statements {
		func() {
			//NOTE: Catch panics per statement to avoid aborting the whole loop
			defer func() {
				if r := recover(); r != nil {
					panic(r)
				}
			}()
			stmt.Accept(ac)
		}()
	}

	ac.emit(OP_END)
	return ac.bytecode, nil
}

// VisitBinary handles binary expressions (arithmetic operators: +, -, *, /)
func (ac *ASTCompiler) VisitBinary(binary ast.Binary) any {

	// NOTE: Left expression is compiled first to ensure correct evaluation order
	binary.Left.Accept(ac)
	binary.Right.Accept(ac)

	switch binary.Operator.TokenType {
	case token.ADD:
		ac.emit(OP_ADD)
	case token.SUB:
		ac.emit(OP_SUBTRACT)
	case token.MULT:
		ac.emit(OP_MULTIPLY)
	case token.DIV:
		ac.emit(OP_DIVIDE)
	case token.MODULUS:
		ac.emit(OP_MODULUS)

	case token.EQUAL_EQUAL:
		ac.emit(OP_EQUALITY)
	case token.LARGER:
		ac.emit(OP_LARGER)
	case token.LESS:
		ac.emit(OP_LESS)
	case token.LESS_EQUAL:
		ac.emit(OP_LESS_EQUAL)
	case token.LARGER_EQUAL:
		ac.emit(OP_LARGER_EQUAL)
	case token.NOT_EQUAL:
		ac.emit(OP_NOT_EQUAL)
	}

	return nil
}

// VisitUnary handles unary expressions (operators: -, !)
func (ac *ASTCompiler) VisitUnary(unary ast.Unary) any {

	unary.Right.Accept(ac)

	switch unary.Operator.TokenType {
	case token.SUB:
		ac.emit(OP_NEGATE)
	case token.BANG:
		ac.emit(OP_NOT)
	}
	return nil
}

// VisitLiteral handles literal values (numbers, strings, booleans, null)
// Adds the literal value to the constants pool.
func (ac *ASTCompiler) VisitLiteral(literal ast.Literal) any {
	ac.addConstant(literal.Value)
	return nil
}

// VisitGrouping handles parenthesized expressions
func (ac *ASTCompiler) VisitGrouping(grouping ast.Grouping) any {
	// Recursively compile the inner expression
	grouping.Expression.Accept(ac)
	return nil
}

// VisitVariableExpression compiles variable access by emitting bytecode to load the variable's
// value onto the VM's stack.
//
// For local variabables, it emites an OP_GET_LOCAL instruction with the variable's slot index as the operand.
//
// For global variables, it emits an OP_GET_GLOBAL instruction with the variable's index in the NameConstants pool as the operand.
//
// For example, this compiles code such as `x` or `y` by emitting the appropriate instruction to get
// the variable's value from the VM's stack.
func (ac *ASTCompiler) VisitVariableExpression(variable ast.Variable) any {

	identifier := variable.Name.Lexeme

	slotIndex := ac.resolveLocal(identifier)
	if slotIndex != -1 {
		if !ac.locals[slotIndex].initialized {
			panic(SemanticError{
				Message: fmt.Sprintf("Cant access uninitialised variable '%s'", identifier),
			})
		}
		ac.emit(OP_GET_LOCAL, slotIndex)
		return nil
	}

	globalIndex := ac.resolveGlobal(identifier)
	if globalIndex == -1 {
		panic(SemanticError{
			Message: fmt.Sprintf("name '%s' is not defined", identifier),
		})
	}
	if !ac.initialized[identifier] {
		panic(SemanticError{
			Message: fmt.Sprintf("Cant access uninitialised variable '%s'", identifier),
		})
	}

	ac.emit(OP_GET_GLOBAL, globalIndex)
	return nil
}

// VisitAssignExpression compiles an assignment expression by first compiling the right-hand side expression,
// and then attempting to resolve the variable name as local or global.
//
// For local variables, it emits an OP_SET_LOCAL instruction with the variable's slot index as the operand.
//
// For global variables, it emits an OP_SET_GLOBAL instruction with the variable's index in the NameConstants pool as the operand.
//
// For exmaple, this compiles code such as `x = 5` or `y = x + 2` by first compiling the right hand side expression
// (`5` or `x + 2`), then emitting the appropriate instruction to store the value in the corresponding variable.
func (ac *ASTCompiler) VisitAssignExpression(assign ast.Assign) any {

	name := assign.Name.Lexeme

	// compile the right hand side expression first.
	// This ensures that the correct value is on top of the stack when the OP_SET_LOCAL
	// or OP_SET_GLOBAL instruction is emitted.
	assign.Value.Accept(ac)

	slotIndex := ac.resolveLocal(name)
	if slotIndex != -1 {
		ac.locals[slotIndex].initialized = true
		ac.emit(OP_SET_LOCAL, slotIndex)
		return nil
	}

	globalIndex := ac.resolveGlobal(name)
	if globalIndex == -1 {
		panic(SemanticError{
			Message: fmt.Sprintf("name '%s' is not defined", name),
		})
	}

	ac.initialized[name] = true
	ac.emit(OP_SET_GLOBAL, globalIndex)
	return nil
}

// VisitVarStmt handles variable declaration statements.
//
// For global variables, it adds the variable name to the NameConstants pool and,
// when the declaration has an initializer, emits an OP_SET_GLOBAL instruction.
//
// For local variables it declares the variable in the current scope and emits an OP_SET_LOCAL instruction.
//
// For example, this compiles code such as `var x = 5`,  `var y`, var z = 10+2` ... etc
func (ac *ASTCompiler) VisitVarStmt(varStmt ast.VarStmt) any {

	variableName := varStmt.Name.Lexeme
	if ac.scopeDepth == 0 {
		// Handles global variable declaration.
		index := ac.addNameConstant(variableName)
		if varStmt.Initializer != nil {
			varStmt.Initializer.Accept(ac)
			ac.emit(OP_SET_GLOBAL, index)
		}
		ac.initialized[variableName] = varStmt.Initializer != nil
	} else {
		// Handles local variable declaration.
		ac.declareLocal(variableName)
		if varStmt.Initializer != nil {
			varStmt.Initializer.Accept(ac)
		} else {
			ac.addConstant(nil)
		}
		slot := ac.locals[len(ac.locals)-1].slot
		ac.emit(OP_SET_LOCAL, int(slot))
		ac.locals[len(ac.locals)-1].initialized = varStmt.Initializer != nil
	}

	return nil
}

// VisitLogicalExpression compiles logical expressions (and, or) by emitting bytecode that implements short-circuiting behaviour.
func (ac *ASTCompiler) VisitLogicalExpression(logical ast.Logical) any {

	// left expression is compiled first to ensure correct evaluation order and short-circuiting behaviour.
	logical.Left.Accept(ac)

	switch logical.Operator.TokenType {
	case token.OR:
		// For an "or" expression, if the left operand is truthy, we want to short-circuit and skip
		// evaluating the right operand.

		jumpIfFalsePos := ac.emitPlaceholderJump(OP_JUMP_IF_FALSE)
		jumpEndPos := ac.emitPlaceholderJump(OP_JUMP)

		rightStart := len(ac.bytecode.Instructions)
		ac.patchJump(jumpIfFalsePos, rightStart)

		ac.emit(OP_POP)

		// The right expression is compiled after emitting the jump instruction. If the left operand is truthy,
		// the VM will jump over the right expression. This is achieved by the below patchJump call.
		logical.Right.Accept(ac)

		ac.patchJump(jumpEndPos, len(ac.bytecode.Instructions))
	case token.AND:
		// For an "and" expression, if the left operand is falsy, we want to short-circuit and skip evaluating the right operand.
		jumpIfFalsePos := ac.emitPlaceholderJump(OP_JUMP_IF_FALSE)

		ac.emit(OP_POP)
		logical.Right.Accept(ac)

		ac.patchJump(jumpIfFalsePos, len(ac.bytecode.Instructions))
	}
	return nil
}

// VisitExpressionStmt is not directly called; handled by CompileAST
func (ac *ASTCompiler) VisitExpressionStmt(exprStmt ast.ExpressionStmt) any {
	exprStmt.Expression.Accept(ac)
	return nil
}

func (ac *ASTCompiler) VisitPrintStmt(printStmt ast.PrintStmt) any {
	printStmt.Expression.Accept(ac)
	ac.emit(OP_PRINT)
	return nil
}

// VisitBlockStmt compiles a block statement by sequentially compiling each statement
// in the block.
func (ac *ASTCompiler) VisitBlockStmt(blockStmt ast.BlockStmt) any {

	ac.beginScope()
	for _, stmt := range blockStmt.Statements {
		func() {
			//NOTE: Catch panics per statement to avoid aborting the whole loop
			defer func() {
				if r := recover(); r != nil {
					panic(r)
				}
			}()
			stmt.Accept(ac)
		}()
	}

	popped := ac.endScope()
	if popped > 0 {
		ac.emit(OP_SCOPE_EXIT, popped)
	}
	return nil
}

// VisitIfStmt compiles an if or if-else statement by emitting bytecode.
// It uses backpatching to resolve jump offsets for branching.
func (ac *ASTCompiler) VisitIfStmt(ifStmt ast.IfStmt) any {

	// compile the condition expression first
	ifStmt.Condition.Accept(ac)

	jumpIfFalsePatch := ac.emitPlaceholderJump(OP_JUMP_IF_FALSE)
	// For example, the intructions would now be something like: [..., OP_JUMP_IF_FALSE,  0x00, 0x00]
	// where `0x00, 0x0` are the placeholder operand bytes.

	ifStmt.Then.Accept(ac)

	if ifStmt.Else != nil {
		// If there is an "else" branch, emit a jump instruction to skip over it after executing the "then" branch.
		jumpPatch := ac.emitPlaceholderJump(OP_JUMP)

		// Patch the operand of the OP_JUMP_IF_FALSE instruction defined at the beginning.
		// This allows the VM to correctly jump to the start of the "else" branch, if the "then"
		// branch condition evaluates false.
		elsePos := len(ac.bytecode.Instructions)
		ac.patchJump(jumpIfFalsePatch, elsePos)

		ifStmt.Else.Accept(ac)

		endPos := len(ac.bytecode.Instructions)
		// Patch the operand of `OP_JUMP` so the VM can jump to the end of the "else" branch.
		ac.patchJump(jumpPatch, endPos)
	} else {
		// If there is no "else" branch, patch the OP_JUMP_IF_FALSE so that
		// control jumps to the instruction after the "then" branch when
		// the condition is false.
		afterPos := len(ac.bytecode.Instructions)
		ac.patchJump(jumpIfFalsePatch, afterPos)
	}
	// Emits `OP_POP` so the VM can pop the condition expression's value from the stack.
	ac.emit(OP_POP)
	return nil
}

func (ac *ASTCompiler) VisitWhileStmt(whileStmt ast.WhileStmt) any {

	loopstartPos := len(ac.bytecode.Instructions)

	// compile the condition expression first
	whileStmt.Condition.Accept(ac)

	jumpIfFalsePatch := ac.emitPlaceholderJump(OP_JUMP_IF_FALSE)

	// compile the loop body
	whileStmt.Body.Accept(ac)

	// After compiling the loop body, we need to emit a jump instruction
	// so the VM can jump back to the start of the loop condition.
	ac.emit(OP_POP)
	ac.emit(OP_JUMP, loopstartPos)

	// if the while condition is false, the VM needs to jump to the end of the loop body,
	// which is the current position in the instruction array.
	loopEndPos := len(ac.bytecode.Instructions)
	ac.patchJump(jumpIfFalsePatch, loopEndPos)
	ac.emit(OP_POP)

	return nil
}

// patchjump overwrites a jump instruction's operand with the actual correct byte offset.
// When compiling if statements, its not possible to know the else branch (or the statement after
// the if) will be until the then-branch is compiled. Jump instructions are emmited with placeholder operands,
// then later call patchJump to fix those operands.

// The jumpPos is the byte index where the jump instruction's OPCODE is located.
//
//	This is the position BEFORE the jump was emitted
//
// The targetPos is the byte index where the jump instruction should jump to.
// Example:
// jumpPos = 10, targetPos = 20
// Before patching: [..., OP_JUMP_IF_FALSE, 0x00, 0x00, ...] (jump instruction starts at index 10)
// After patching: [..., OP_JUMP_IF_FALSE, 0x00, 0x14, ...] (jump instruction now correctly jumps to index 20)
func (ac *ASTCompiler) patchJump(jumpPos int, targetPos int) {

	operandPos := jumpPos + OPCODE_TOTAL_BYTES

	instruction := make([]byte, 2)
	binary.BigEndian.PutUint16(instruction, uint16(targetPos))

	// override the 2-byte placeholder operand in the instruction array with
	// the correct operand bytes that will make the jump instruction jump to the target position.
	ac.bytecode.Instructions[operandPos] = instruction[0]
	ac.bytecode.Instructions[operandPos+1] = instruction[1]

}

// addConstant appends a value to the constant pool and emits an OP_CONSTANT instruction.
// The operand of the instruction will be its index in the constants pool.
func (ac *ASTCompiler) addConstant(value any) {
	ac.bytecode.ConstantsPool = append(ac.bytecode.ConstantsPool, value)
	index := len(ac.bytecode.ConstantsPool) - 1
	ac.emit(OP_CONSTANT, index)
}

// addNameConstant adds a variable name to the NameConstants pool
// and returns its index.
func (ac *ASTCompiler) addNameConstant(value string) int {

	for _, name := range ac.bytecode.NameConstants {
		if name == value {
			panic(SemanticError{
				Message: fmt.Sprintf("Redefinition of variable '%s'", value),
			})
		}
	}
	ac.bytecode.NameConstants = append(ac.bytecode.NameConstants, value)
	return len(ac.bytecode.NameConstants) - 1
}

// emit constructs a bytecode instruction and appends it to the instruction stream
func (ac *ASTCompiler) emit(opcode Opcode, operands ...int) {
	instruction, err := AssembleInstruction(opcode, operands...)
	if err != nil {
		// TODO: Improve error handling in compiler.
		// Although in this case its can be OK as the error returned is of type `DeveloperError`
		// which would only be raised during development.
		panic(err.Error())
	}
	ac.bytecode.Instructions = append(ac.bytecode.Instructions, instruction...)
}

// emitPlaceholderJump emits a jump instruction with the specified opcode and a placeholder operand (0).
// It returns the position in the bytecode where the jump instruction was emitted,
// which can later be passed to `patchJump` to update the operand with
// the correct jump target.
func (ac *ASTCompiler) emitPlaceholderJump(opcode Opcode) int {
	position := len(ac.bytecode.Instructions)
	ac.emit(opcode, 0)
	return position
}

// beginScope increments the scope depth, when compiling a block statement.
func (ac *ASTCompiler) beginScope() {
	ac.scopeDepth++
}

// endScope decrements the scope depth and removes any local variables that go out of scope.
// It returns the number of local variables that went out of scope,
// which is used by the VM to pop them from the stack.
func (ac *ASTCompiler) endScope() int {
	ac.scopeDepth--

	count := 0
	for len(ac.locals) > 0 && ac.locals[len(ac.locals)-1].depth > ac.scopeDepth {
		ac.locals = ac.locals[:len(ac.locals)-1]
		count++
	}

	return count
}

// declareLocal adds a local variable name, checking for same-scope duplicates
// and assigns it a slot index for the VM to access it.
// It panics if there is a duplicate variable declaration in the same scope.
func (ac *ASTCompiler) declareLocal(name string) {

	for i := len(ac.locals) - 1; i >= 0; i-- {

		// By virtue of iterating backwards through the local stack,
		// we can stop checking
		if ac.locals[i].depth < ac.scopeDepth {
			break
		}
		if ac.locals[i].name == name {
			panic(SemanticError{
				Message: fmt.Sprintf("Redefinition of variable '%s'", name),
			})
		}
	}

	slot := uint16(len(ac.locals))
	local := Local{
		name:        name,
		depth:       ac.scopeDepth,
		initialized: false,
		slot:        slot,
	}
	ac.locals = append(ac.locals, local)

}

// defineLocal marks the most recently declared local variable as initialized.
func (ac *ASTCompiler) defineLocal() {
	if len(ac.locals) > 0 {
		ac.locals[len(ac.locals)-1].initialized = true
	}
}

// resolveLocal checks if a variable name exists in the current local scope and returns its slot index.
// It returns -1 if the variable is not found in the local scope.
func (ac *ASTCompiler) resolveLocal(name string) int {
	for i := len(ac.locals) - 1; i >= 0; i-- {
		if ac.locals[i].name == name {
			return int(ac.locals[i].slot)
		}
	}
	return -1
}

// resolveGlobal checks if a variable name exists in the global scope and returns its index in the NameConstants pool.
// It returns -1 if the variable is not found in the global scope.
func (ac ASTCompiler) resolveGlobal(name string) int {
	for i, n := range ac.bytecode.NameConstants {
		if n == name {
			return i
		}
	}
	return -1
}

// internProperty finds or adds a property/method name in the bytecode's
// PropertyNames pool, returning its index. Unlike addNameConstant, the same
// name may be interned multiple times across different call sites.
func (ac *ASTCompiler) internProperty(name string) int {
	for i, n := range ac.bytecode.PropertyNames {
		if n == name {
			return i
		}
	}
	ac.bytecode.PropertyNames = append(ac.bytecode.PropertyNames, name)
	return len(ac.bytecode.PropertyNames) - 1
}

// defineNamedBinding emits the bytecode to bind a freshly-pushed value
// (already on top of the stack) to name, either as a global or, inside a
// scope, as a new local.
func (ac *ASTCompiler) defineNamedBinding(name string) {
	if ac.scopeDepth == 0 {
		index := ac.addNameConstant(name)
		ac.emit(OP_SET_GLOBAL, index)
		ac.initialized[name] = true
		return
	}
	ac.declareLocal(name)
	slot := ac.locals[len(ac.locals)-1].slot
	ac.emit(OP_SET_LOCAL, int(slot))
	ac.locals[len(ac.locals)-1].initialized = true
}

// VisitCall compiles a function or method invocation.
func (ac *ASTCompiler) VisitCall(call ast.Call) any {
	call.Callee.Accept(ac)
	for _, arg := range call.Arguments {
		arg.Accept(ac)
	}
	ac.emit(OP_CALL, len(call.Arguments))
	return nil
}

// VisitGet compiles a property read, e.g. "point.x".
func (ac *ASTCompiler) VisitGet(get ast.Get) any {
	get.Object.Accept(ac)
	index := ac.internProperty(get.Name.Lexeme)
	ac.emit(OP_GET_PROPERTY, index)
	return nil
}

// VisitSet compiles a property write, e.g. "point.x = 1".
func (ac *ASTCompiler) VisitSet(set ast.Set) any {
	set.Object.Accept(ac)
	set.Value.Accept(ac)
	index := ac.internProperty(set.Name.Lexeme)
	ac.emit(OP_SET_PROPERTY, index)
	return nil
}

// VisitIndexGet compiles a collection index read, e.g. "xs[0]".
func (ac *ASTCompiler) VisitIndexGet(index ast.IndexGet) any {
	index.Collection.Accept(ac)
	index.Index.Accept(ac)
	ac.emit(OP_INDEX_GET)
	return nil
}

// VisitIndexSet compiles a collection index write, e.g. "xs[0] = 1".
func (ac *ASTCompiler) VisitIndexSet(index ast.IndexSet) any {
	index.Collection.Accept(ac)
	index.Index.Accept(ac)
	index.Value.Accept(ac)
	ac.emit(OP_INDEX_SET)
	return nil
}

// VisitListLiteral compiles a list literal, pushing each element then
// collecting them with OP_BUILD_LIST.
func (ac *ASTCompiler) VisitListLiteral(list ast.ListLiteral) any {
	for _, element := range list.Elements {
		element.Accept(ac)
	}
	ac.emit(OP_BUILD_LIST, len(list.Elements))
	return nil
}

// VisitDictLiteral compiles a dict literal, pushing each key/value pair then
// collecting them with OP_BUILD_DICT.
func (ac *ASTCompiler) VisitDictLiteral(dict ast.DictLiteral) any {
	for i := range dict.Keys {
		dict.Keys[i].Accept(ac)
		dict.Values[i].Accept(ac)
	}
	ac.emit(OP_BUILD_DICT, len(dict.Keys))
	return nil
}

// VisitRange compiles a "start..end" range expression.
func (ac *ASTCompiler) VisitRange(r ast.Range) any {
	r.Start.Accept(ac)
	r.End.Accept(ac)
	ac.emit(OP_BUILD_RANGE)
	return nil
}

// VisitInterpolation compiles an interpolated string literal by pushing
// each part (literal fragment or embedded expression) then collapsing them
// with OP_INTERPOLATE.
func (ac *ASTCompiler) VisitInterpolation(interp ast.Interpolation) any {
	for _, part := range interp.Parts {
		part.Accept(ac)
	}
	ac.emit(OP_INTERPOLATE, len(interp.Parts))
	return nil
}

// VisitThis compiles a "this" expression, which resolves to the local
// variable bound at method-call time.
func (ac *ASTCompiler) VisitThis(this ast.This) any {
	slotIndex := ac.resolveLocal("this")
	if slotIndex == -1 {
		panic(SemanticError{Message: "Cannot use 'this' outside of a method"})
	}
	ac.emit(OP_GET_LOCAL, slotIndex)
	return nil
}

// VisitSuper compiles a "super.method" expression.
func (ac *ASTCompiler) VisitSuper(super ast.Super) any {
	slotIndex := ac.resolveLocal("this")
	if slotIndex == -1 {
		panic(SemanticError{Message: "Cannot use 'super' outside of a method"})
	}
	ac.emit(OP_GET_LOCAL, slotIndex)
	index := ac.internProperty(super.Method.Lexeme)
	ac.emit(OP_INVOKE_METHOD, index)
	return nil
}

// VisitAwait compiles an "await" expression applied to an async call result.
func (ac *ASTCompiler) VisitAwait(await ast.Await) any {
	await.Value.Accept(ac)
	ac.emit(OP_AWAIT)
	return nil
}

// VisitForStmt compiles a C-style for loop.
func (ac *ASTCompiler) VisitForStmt(forStmt ast.ForStmt) any {
	ac.beginScope()

	if forStmt.Initializer != nil {
		forStmt.Initializer.Accept(ac)
	}

	loopStart := len(ac.bytecode.Instructions)

	hasCondition := forStmt.Condition != nil
	var jumpIfFalsePatch int
	if hasCondition {
		forStmt.Condition.Accept(ac)
		jumpIfFalsePatch = ac.emitPlaceholderJump(OP_JUMP_IF_FALSE)
		ac.emit(OP_POP)
	}

	forStmt.Body.Accept(ac)

	if forStmt.Increment != nil {
		forStmt.Increment.Accept(ac)
		ac.emit(OP_POP)
	}

	ac.emit(OP_JUMP, loopStart)

	loopEnd := len(ac.bytecode.Instructions)
	if hasCondition {
		ac.patchJump(jumpIfFalsePatch, loopEnd)
		ac.emit(OP_POP)
	}

	popped := ac.endScope()
	if popped > 0 {
		ac.emit(OP_SCOPE_EXIT, popped)
	}
	return nil
}

// VisitFuncStmt compiles a function declaration by compiling its body with
// a fresh nested compiler, storing the result as a CompiledFunction
// constant, and binding that constant to the function's name.
func (ac *ASTCompiler) VisitFuncStmt(funcStmt ast.FuncStmt) any {
	nested := NewASTCompiler()
	nested.beginScope()
	for _, param := range funcStmt.Params {
		nested.declareLocal(param.Name.Lexeme)
		nested.defineLocal()
	}
	for _, stmt := range funcStmt.Body {
		stmt.Accept(nested)
	}
	nested.emit(OP_RETURN)

	fn := CompiledFunction{
		Name:     funcStmt.Name.Lexeme,
		Arity:    len(funcStmt.Params),
		Bytecode: nested.bytecode,
	}
	ac.addConstant(fn)
	ac.defineNamedBinding(funcStmt.Name.Lexeme)
	return nil
}

// VisitReturnStmt compiles a return statement.
func (ac *ASTCompiler) VisitReturnStmt(returnStmt ast.ReturnStmt) any {
	if returnStmt.Value != nil {
		returnStmt.Value.Accept(ac)
	} else {
		ac.addConstant(nil)
	}
	ac.emit(OP_RETURN)
	return nil
}

// VisitClassStmt compiles a class declaration, compiling each method body
// with its own nested compiler (binding "this" at slot 0) and storing the
// result as a CompiledClass constant.
func (ac *ASTCompiler) VisitClassStmt(classStmt ast.ClassStmt) any {
	methods := make(map[string]CompiledFunction, len(classStmt.Methods))
	for _, method := range classStmt.Methods {
		nested := NewASTCompiler()
		nested.beginScope()
		nested.declareLocal("this")
		nested.defineLocal()
		for _, param := range method.Params {
			nested.declareLocal(param.Name.Lexeme)
			nested.defineLocal()
		}
		for _, stmt := range method.Body {
			stmt.Accept(nested)
		}
		if method.Name.Lexeme == "init" {
			// An initializer returns the instance it was called on.
			nested.emit(OP_GET_LOCAL, 0)
		}
		nested.emit(OP_RETURN)
		methods[method.Name.Lexeme] = CompiledFunction{
			Name: method.Name.Lexeme,
			// The VM counts the "this" receiver in a method's arity.
			Arity:    len(method.Params) + 1,
			Bytecode: nested.bytecode,
		}
	}

	var superclassName string
	if classStmt.Superclass != nil {
		superclassName = classStmt.Superclass.Name.Lexeme
	}

	class := CompiledClass{
		Name:       classStmt.Name.Lexeme,
		Superclass: superclassName,
		Methods:    methods,
	}
	ac.addConstant(class)
	ac.defineNamedBinding(classStmt.Name.Lexeme)
	return nil
}

// VisitAttemptStmt compiles an "attempt { ... } handle err { ... }" block.
// OP_ATTEMPT registers the handler's start offset with the VM; if the body
// raises an error, the VM unwinds to the handler, pushing the error value
// onto the stack. If the body completes without raising, OP_HANDLE
// unregisters the now-unneeded handler before jumping past the handle
// block entirely.
func (ac *ASTCompiler) VisitAttemptStmt(attemptStmt ast.AttemptStmt) any {
	attemptPatch := ac.emitPlaceholderJump(OP_ATTEMPT)

	attemptStmt.Body.Accept(ac)
	ac.emit(OP_HANDLE)
	endPatch := ac.emitPlaceholderJump(OP_JUMP)

	handlerStart := len(ac.bytecode.Instructions)
	ac.patchJump(attemptPatch, handlerStart)

	ac.beginScope()
	ac.declareLocal(attemptStmt.HandleName.Lexeme)
	slot := ac.locals[len(ac.locals)-1].slot
	ac.emit(OP_SET_LOCAL, int(slot))
	ac.locals[len(ac.locals)-1].initialized = true

	attemptStmt.HandleBody.Accept(ac)

	popped := ac.endScope()
	if popped > 0 {
		ac.emit(OP_SCOPE_EXIT, popped)
	}

	endPos := len(ac.bytecode.Instructions)
	ac.patchJump(endPatch, endPos)
	return nil
}

// compileStmtAsTask compiles a single statement into its own standalone
// bytecode blob (the same shape as a zero-arity CompiledFunction), so the
// VM can hand it to a goroutine without interleaving its instructions with
// the surrounding stream.
func (ac *ASTCompiler) compileStmtAsTask(stmt ast.Stmt) CompiledFunction {
	nested := NewASTCompiler()
	stmt.Accept(nested)
	nested.emit(OP_RETURN)
	return CompiledFunction{Bytecode: nested.bytecode}
}

// VisitParallelStmt compiles a "parallel { ... }" block. Each top-level
// statement is compiled into its own task and pushed as a constant; the VM
// dispatches the tasks across worker goroutines and rejoins before
// execution continues. Operand is the task count N; the N task constants
// are the last N entries appended to the constants pool.
func (ac *ASTCompiler) VisitParallelStmt(parallelStmt ast.ParallelStmt) any {
	for _, stmt := range parallelStmt.Body {
		ac.bytecode.ConstantsPool = append(ac.bytecode.ConstantsPool, ac.compileStmtAsTask(stmt))
	}
	ac.emit(OP_PARALLEL, len(parallelStmt.Body))
	return nil
}

// VisitConcurrentStmt compiles a "concurrent { ... }" block the same way as
// VisitParallelStmt, except the VM does not wait for the spawned tasks to
// finish before continuing.
func (ac *ASTCompiler) VisitConcurrentStmt(concurrentStmt ast.ConcurrentStmt) any {
	for _, stmt := range concurrentStmt.Body {
		ac.bytecode.ConstantsPool = append(ac.bytecode.ConstantsPool, ac.compileStmtAsTask(stmt))
	}
	ac.emit(OP_CONCURRENT, len(concurrentStmt.Body))
	return nil
}

// VisitMatchStmt compiles a "match subject { pattern: body ... default: body }"
// statement. The subject is pushed once and duplicated (OP_DUP) for each
// pattern comparison, so each arm's equality test leaves the original
// subject value on the stack for the next comparison.
func (ac *ASTCompiler) VisitMatchStmt(matchStmt ast.MatchStmt) any {
	matchStmt.Subject.Accept(ac)

	endPatches := []int{}
	for _, matchCase := range matchStmt.Cases {
		if matchCase.Pattern == nil {
			matchCase.Body.Accept(ac)
			ac.emit(OP_POP)
			endPatches = append(endPatches, ac.emitPlaceholderJump(OP_JUMP))
			continue
		}

		ac.emit(OP_DUP)
		matchCase.Pattern.Accept(ac)
		ac.emit(OP_EQUALITY)

		skipPatch := ac.emitPlaceholderJump(OP_JUMP_IF_FALSE)
		ac.emit(OP_POP)

		matchCase.Body.Accept(ac)
		ac.emit(OP_POP)
		endPatches = append(endPatches, ac.emitPlaceholderJump(OP_JUMP))

		skipPos := len(ac.bytecode.Instructions)
		ac.patchJump(skipPatch, skipPos)
		ac.emit(OP_POP)
	}

	// No arm matched: drop the subject value left on the stack.
	ac.emit(OP_POP)

	endPos := len(ac.bytecode.Instructions)
	for _, patch := range endPatches {
		ac.patchJump(patch, endPos)
	}
	return nil
}

// VisitImportStmt compiles an "import \"path\"" statement.
func (ac *ASTCompiler) VisitImportStmt(importStmt ast.ImportStmt) any {
	ac.bytecode.ConstantsPool = append(ac.bytecode.ConstantsPool, importStmt.Path.Literal)
	index := len(ac.bytecode.ConstantsPool) - 1
	ac.emit(OP_IMPORT, index)
	return nil
}

// diassemble3ByteInstruction reads a 3-byte instruction starting at the instruction pointer(ip),
// in the bytecodes instruction array. IT interprets the final two bytes as a big-endian uint16 operand,
// and returns it along with the textual disassembly produced by DiassembleInstruction.
// A panic is raised if DiassembleInstruction returns an error.
func (ac *ASTCompiler) diassemble3ByteInstruction(ip int) (uint16, string) {
	offset := ip + 3
	instruction := ac.bytecode.Instructions[ip:offset]
	operand := binary.BigEndian.Uint16(instruction[OPCODE_TOTAL_BYTES:])
	dia, err := DiassembleInstruction(instruction)
	if err != nil {
		panic(err.Error())
	}

	return operand, dia
}
