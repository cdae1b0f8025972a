// Recursive descent parser
// https://en.wikipedia.org/wiki/Recursive_descent_parser

//	A Recursive descent parser is a top-down parser because it starts from the top
//
// grammar rule and works its way down in to the nested sub-experessions before reaching
// the leaves of the syntax tree (terminal rules)
package parser

import (
	"fmt"
	"luminar/ast"
	"luminar/lexer"
	"luminar/token"
	"strings"
)

var comparisonTokenTypes = []token.TokenType{
	token.LARGER,
	token.LARGER_EQUAL,
	token.LESS,
	token.LESS_EQUAL,
}

var equalityTokenTypes = []token.TokenType{
	token.NOT_EQUAL,
	token.EQUAL_EQUAL,
}

var termTokenTypes = []token.TokenType{
	token.SUB,
	token.ADD,
}

var factorExpressionTypes = []token.TokenType{
	token.MULT,
	token.DIV,
	token.MODULUS,
}

var unaryExpressionTypes = []token.TokenType{
	token.BANG,
	token.SUB,

	// NOTE: not supported operands on unary expressions are included
	// So they can be parsed, but then the VM can raise a more detailed
	// runtime error message. This is known as "error productions"
	token.MULT,
	token.ADD,
	token.DIV,
}

type Parser struct {
	tokens   []token.Token
	position int
}

// NOTE: The parsers position is always one unit ahead of the
// current token

// Initializes and returns a new Parser instance.
func Make(tokens []token.Token) *Parser {
	return &Parser{
		tokens:   tokens,
		position: 0,
	}
}

// Print prints the AST as prettified JSON to standard output.
func (parser *Parser) Print(statements []ast.Stmt) {
	_, err := PrintASTJSON(statements)
	if err != nil {
		fmt.Println("error producing AST JSON:", err)
	}
}

// PrintToFile writes the AST for the provided statements to a .json file at the given path.
func (parser *Parser) PrintToFile(statements []ast.Stmt, path string) error {
	return WriteASTJSONToFile(statements, path)
}

// Peeks the token at the parser's current position, without advancing.
func (parser *Parser) peek() token.Token {
	return parser.tokens[parser.position]
}

// Retrieves the token at the parser's previous position (position -1).
func (parser *Parser) previous() token.Token {
	return parser.tokens[parser.position-1]
}

// Increments the parser's position by one unit and consumes the current token.
func (parser *Parser) advance() token.Token {
	if !parser.isFinished() {
		parser.position++
	}
	return parser.previous()
}

// Determines if the parser has finished scanning all the tokens.
func (parser *Parser) isFinished() bool {
	tok := parser.peek()
	return tok.TokenType == token.EOF
}

// Determines if the provided tokenType matches the TokenType at the
// parser's current position.
func (parser *Parser) checkType(tokeType token.TokenType) bool {
	if parser.isFinished() {
		return false
	}
	tok := parser.peek()
	return tok.TokenType == tokeType
}

// Determines if the TokenType at the current position matches any of the
// provided tokenTypes. If a match is found the parser advances.
func (parser *Parser) isMatch(tokenTypes []token.TokenType) bool {
	for i := range tokenTypes {
		tokenType := tokenTypes[i]

		if parser.checkType(tokenType) {
			parser.advance()
			return true
		}
	}
	return false
}

// Parse parses the entire token stream into a slice of Stmt (statement) nodes,
// continuing until the end of input. Errors during parsing are collected
// but parsing continues to find additional errors where possible.
func (parser *Parser) Parse() ([]ast.Stmt, []error) {
	statements := []ast.Stmt{}
	errors := []error{}

	for {
		if parser.isFinished() {
			break
		}
		statement, err := parser.declaration()
		if err != nil {
			errors = append(errors, err)
			if !parser.isFinished() {
				parser.position++
			}
			continue
		}
		statements = append(statements, statement)
	}

	return statements, errors
}

// declaration parses a declaration statement: a variable, function, or
// class declaration. Anything else falls through to statement(). A ';'
// following the parsed statement is consumed when present.
func (parser *Parser) declaration() (stmt ast.Stmt, err error) {
	defer func() {
		if err == nil {
			parser.isMatch([]token.TokenType{token.SEMICOLON})
		}
	}()
	if parser.isMatch([]token.TokenType{token.VAR}) {
		return parser.variableDeclaration()
	}
	if parser.isMatch([]token.TokenType{token.FUNC}) {
		return parser.functionDeclaration("function")
	}
	if parser.isMatch([]token.TokenType{token.CLASS}) {
		return parser.classDeclaration()
	}
	return parser.statement()
}

// variableDeclaration parses a variable declaration statement, with an
// optional ": TYPE" annotation and an optional "= initializer".
func (parser *Parser) variableDeclaration() (ast.Stmt, error) {
	tok, consumeError := parser.consume(token.IDENTIFIER, "Expected variable name")
	if consumeError != nil {
		return nil, consumeError
	}

	typeName := ""
	if parser.isMatch([]token.TokenType{token.COLON}) {
		typeTok, err := parser.consume(token.TYPE_NAME, "Expected type name after ':'")
		if err != nil {
			return nil, err
		}
		typeName = typeTok.Lexeme
	}

	var initialiser ast.Expression
	if parser.isMatch([]token.TokenType{token.ASSIGN}) {
		var err error
		initialiser, err = parser.expression()
		if err != nil {
			return nil, err
		}
	}

	return ast.VarStmt{
		Name:        tok,
		Type:        typeName,
		Initializer: initialiser,
	}, nil
}

// functionDeclaration parses "fn name(param: type, ...) [-> type] { body }".
func (parser *Parser) functionDeclaration(kind string) (ast.FuncStmt, error) {
	name, err := parser.consume(token.IDENTIFIER, fmt.Sprintf("Expected %s name", kind))
	if err != nil {
		return ast.FuncStmt{}, err
	}

	if _, err := parser.consume(token.LPA, fmt.Sprintf("Expected '(' after %s name", kind)); err != nil {
		return ast.FuncStmt{}, err
	}

	params := []ast.Param{}
	if !parser.checkType(token.RPA) {
		for {
			paramName, err := parser.consume(token.IDENTIFIER, "Expected parameter name")
			if err != nil {
				return ast.FuncStmt{}, err
			}
			paramType := ""
			if parser.isMatch([]token.TokenType{token.COLON}) {
				typeTok, err := parser.consume(token.TYPE_NAME, "Expected parameter type")
				if err != nil {
					return ast.FuncStmt{}, err
				}
				paramType = typeTok.Lexeme
			}
			params = append(params, ast.Param{Name: paramName, Type: paramType})
			if !parser.isMatch([]token.TokenType{token.COMMA}) {
				break
			}
		}
	}
	if _, err := parser.consume(token.RPA, "Expected ')' after parameters"); err != nil {
		return ast.FuncStmt{}, err
	}

	returnType := ""
	if parser.isMatch([]token.TokenType{token.ARROW}) {
		typeTok, err := parser.consume(token.TYPE_NAME, "Expected return type after '->'")
		if err != nil {
			return ast.FuncStmt{}, err
		}
		returnType = typeTok.Lexeme
	}

	if _, err := parser.consume(token.LCUR, fmt.Sprintf("Expected '{' before %s body", kind)); err != nil {
		return ast.FuncStmt{}, err
	}
	body, err := parser.block()
	if err != nil {
		return ast.FuncStmt{}, err
	}

	return ast.FuncStmt{Name: name, Params: params, ReturnType: returnType, Body: body}, nil
}

// classDeclaration parses "class Name [: Superclass] { fn method() {...} ... }".
func (parser *Parser) classDeclaration() (ast.Stmt, error) {
	name, err := parser.consume(token.IDENTIFIER, "Expected class name")
	if err != nil {
		return nil, err
	}

	var superclass *ast.Variable
	if parser.isMatch([]token.TokenType{token.COLON}) {
		superName, err := parser.consume(token.IDENTIFIER, "Expected superclass name")
		if err != nil {
			return nil, err
		}
		sc := ast.Variable{Name: superName}
		superclass = &sc
	}

	if _, err := parser.consume(token.LCUR, "Expected '{' before class body"); err != nil {
		return nil, err
	}

	methods := []ast.FuncStmt{}
	for !parser.checkType(token.RCUR) && !parser.isFinished() {
		if _, err := parser.consume(token.FUNC, "Expected method declaration inside class body"); err != nil {
			return nil, err
		}
		method, err := parser.functionDeclaration("method")
		if err != nil {
			return nil, err
		}
		methods = append(methods, method)
	}
	if _, err := parser.consume(token.RCUR, "Expected '}' after class body"); err != nil {
		return nil, err
	}

	return ast.ClassStmt{Name: name, Superclass: superclass, Methods: methods}, nil
}

// statement parses a single statement.
func (parser *Parser) statement() (ast.Stmt, error) {

	if parser.isMatch([]token.TokenType{token.PRINT}) {
		return parser.printStatement()
	}

	if parser.isMatch([]token.TokenType{token.LCUR}) {
		statements, err := parser.block()
		if err != nil {
			return nil, err
		}
		return ast.BlockStmt{Statements: statements}, nil
	}

	if parser.isMatch([]token.TokenType{token.IF}) {
		return parser.ifStatement()
	}

	if parser.isMatch([]token.TokenType{token.WHILE}) {
		return parser.WhileStatement()
	}

	if parser.isMatch([]token.TokenType{token.FOR}) {
		return parser.forStatement()
	}

	if parser.isMatch([]token.TokenType{token.RETURN}) {
		return parser.returnStatement()
	}

	if parser.isMatch([]token.TokenType{token.ATTEMPT}) {
		return parser.attemptStatement()
	}

	if parser.isMatch([]token.TokenType{token.PARALLEL}) {
		return parser.parallelStatement(false)
	}

	if parser.isMatch([]token.TokenType{token.CONCURRENT}) {
		return parser.parallelStatement(true)
	}

	if parser.isMatch([]token.TokenType{token.MATCH}) {
		return parser.matchStatement()
	}

	if parser.isMatch([]token.TokenType{token.IMPORT}) {
		return parser.importStatement()
	}

	expression, err := parser.expression()
	if err != nil {
		return nil, err
	}
	return ast.ExpressionStmt{Expression: expression}, nil
}

// printStatement parses a print statement of the form "print <expression>".
func (parser *Parser) printStatement() (ast.Stmt, error) {
	expression, err := parser.expression()
	if err != nil {
		return nil, err
	}
	return ast.PrintStmt{Expression: expression}, nil
}

// WhileStatement parses a while loop statement from the token stream.
func (parser *Parser) WhileStatement() (ast.Stmt, error) {

	expr, err := parser.expression()
	if err != nil {
		return nil, err
	}

	stmt, err := parser.statement()
	if err != nil {
		return nil, err
	}

	return ast.WhileStmt{
		Condition: expr,
		Body:      stmt,
	}, nil
}

// forStatement parses a C-style for loop:
// "for [initializer]; [condition]; [increment] { body }".
// Any of the three clauses may be omitted.
func (parser *Parser) forStatement() (ast.Stmt, error) {
	var initializer ast.Stmt

	if parser.isMatch([]token.TokenType{token.SEMICOLON}) {
		initializer = nil
	} else if parser.isMatch([]token.TokenType{token.VAR}) {
		varStmt, err := parser.variableDeclaration()
		if err != nil {
			return nil, err
		}
		initializer = varStmt
		if _, err := parser.consume(token.SEMICOLON, "Expected ';' after for-loop initializer"); err != nil {
			return nil, err
		}
	} else {
		expr, err := parser.expression()
		if err != nil {
			return nil, err
		}
		initializer = ast.ExpressionStmt{Expression: expr}
		if _, err := parser.consume(token.SEMICOLON, "Expected ';' after for-loop initializer"); err != nil {
			return nil, err
		}
	}

	var condition ast.Expression
	if !parser.checkType(token.SEMICOLON) {
		var err error
		condition, err = parser.expression()
		if err != nil {
			return nil, err
		}
	}
	if _, err := parser.consume(token.SEMICOLON, "Expected ';' after for-loop condition"); err != nil {
		return nil, err
	}

	var increment ast.Expression
	if !parser.checkType(token.LCUR) {
		var err error
		increment, err = parser.expression()
		if err != nil {
			return nil, err
		}
	}

	if _, err := parser.consume(token.LCUR, "Expected '{' before for-loop body"); err != nil {
		return nil, err
	}
	bodyStmts, err := parser.block()
	if err != nil {
		return nil, err
	}

	return ast.ForStmt{
		Initializer: initializer,
		Condition:   condition,
		Increment:   increment,
		Body:        ast.BlockStmt{Statements: bodyStmts},
	}, nil
}

// returnStatement parses "return [expression]".
func (parser *Parser) returnStatement() (ast.Stmt, error) {
	keyword := parser.previous()
	var value ast.Expression
	if !parser.checkType(token.RCUR) && !parser.isFinished() {
		var err error
		value, err = parser.expression()
		if err != nil {
			return nil, err
		}
	}
	return ast.ReturnStmt{Keyword: keyword, Value: value}, nil
}

// attemptStatement parses "attempt { body } handle err { body }".
func (parser *Parser) attemptStatement() (ast.Stmt, error) {
	if _, err := parser.consume(token.LCUR, "Expected '{' after 'attempt'"); err != nil {
		return nil, err
	}
	bodyStmts, err := parser.block()
	if err != nil {
		return nil, err
	}

	if _, err := parser.consume(token.HANDLE, "Expected 'handle' after attempt block"); err != nil {
		return nil, err
	}
	handleName, err := parser.consume(token.IDENTIFIER, "Expected error binding name after 'handle'")
	if err != nil {
		return nil, err
	}
	if _, err := parser.consume(token.LCUR, "Expected '{' after handle binding"); err != nil {
		return nil, err
	}
	handleStmts, err := parser.block()
	if err != nil {
		return nil, err
	}

	return ast.AttemptStmt{
		Body:       ast.BlockStmt{Statements: bodyStmts},
		HandleName: handleName,
		HandleBody: ast.BlockStmt{Statements: handleStmts},
	}, nil
}

// parallelStatement parses "parallel { ... }" or "concurrent { ... }".
func (parser *Parser) parallelStatement(isConcurrent bool) (ast.Stmt, error) {
	keyword := parser.previous()
	if _, err := parser.consume(token.LCUR, "Expected '{' after block keyword"); err != nil {
		return nil, err
	}
	stmts, err := parser.block()
	if err != nil {
		return nil, err
	}
	if isConcurrent {
		return ast.ConcurrentStmt{Keyword: keyword, Body: stmts}, nil
	}
	return ast.ParallelStmt{Keyword: keyword, Body: stmts}, nil
}

// matchStatement parses "match subject { pattern: stmt ... default: stmt }".
func (parser *Parser) matchStatement() (ast.Stmt, error) {
	subject, err := parser.expression()
	if err != nil {
		return nil, err
	}
	if _, err := parser.consume(token.LCUR, "Expected '{' after match subject"); err != nil {
		return nil, err
	}

	cases := []ast.MatchCase{}
	for !parser.checkType(token.RCUR) && !parser.isFinished() {
		var pattern ast.Expression
		if parser.isMatch([]token.TokenType{token.DEFAULT}) {
			pattern = nil
		} else {
			pattern, err = parser.expression()
			if err != nil {
				return nil, err
			}
		}
		if _, err := parser.consume(token.COLON, "Expected ':' after match pattern"); err != nil {
			return nil, err
		}
		body, err := parser.statement()
		if err != nil {
			return nil, err
		}
		cases = append(cases, ast.MatchCase{Pattern: pattern, Body: body})
	}
	if _, err := parser.consume(token.RCUR, "Expected '}' after match cases"); err != nil {
		return nil, err
	}

	return ast.MatchStmt{Subject: subject, Cases: cases}, nil
}

// importStatement parses "import \"path\"".
func (parser *Parser) importStatement() (ast.Stmt, error) {
	path, err := parser.consume(token.STRING, "Expected string path after 'import'")
	if err != nil {
		return nil, err
	}
	return ast.ImportStmt{Path: path}, nil
}

// ifStatement parses an if/elif/else chain. An "elif" re-enters ifStatement
// directly so the chain compiles to nested IfStmt nodes.
func (parser *Parser) ifStatement() (ast.Stmt, error) {

	conditionExpr, err := parser.expression()
	if err != nil {
		return nil, err
	}

	thenStmt, err := parser.statement()
	if err != nil {
		return nil, err
	}

	var elseStmt ast.Stmt
	if parser.isMatch([]token.TokenType{token.ELIF}) {
		elifStmt, err := parser.ifStatement()
		if err != nil {
			return nil, err
		}
		elseStmt = elifStmt
	} else if parser.isMatch([]token.TokenType{token.ELSE}) {
		stmt, err := parser.statement()
		if err != nil {
			return nil, err
		}
		elseStmt = stmt
	}

	return ast.IfStmt{
		Condition: conditionExpr,
		Then:      thenStmt,
		Else:      elseStmt,
	}, nil
}

// block parses a block statement consisting of a list of declarations.
func (parser *Parser) block() ([]ast.Stmt, error) {
	statements := []ast.Stmt{}

	for !parser.isMatch([]token.TokenType{token.RCUR}) && !parser.isFinished() {
		stmt, err := parser.declaration()
		if err != nil {
			return nil, err
		}
		statements = append(statements, stmt)
	}

	previousToken := parser.previous()
	if previousToken.TokenType != token.RCUR {
		errMsg := fmt.Sprintf("Expected '%s' after block.", token.RCUR)
		err := CreateSyntaxError(previousToken.Line, previousToken.Column, errMsg)
		return nil, err
	}
	return statements, nil
}

// expression is the entry point for parsing expressions.
func (parser *Parser) expression() (ast.Expression, error) {
	return parser.assignment()
}

// assignment parses a plain assignment ("=") or compound assignment
// ("+=", "-="). Valid targets are variables, property accesses, and index
// accesses; compound assignment currently only supports plain variables.
func (parser *Parser) assignment() (ast.Expression, error) {
	expr, err := parser.or()
	if err != nil {
		return nil, err
	}

	if parser.isMatch([]token.TokenType{token.ASSIGN}) {
		equalsToken := parser.previous()
		value, err := parser.assignment()
		if err != nil {
			return nil, err
		}
		switch target := expr.(type) {
		case ast.Variable:
			return ast.Assign{Name: target.Name, Value: value}, nil
		case ast.Get:
			return ast.Set{Object: target.Object, Name: target.Name, Value: value}, nil
		case ast.IndexGet:
			return ast.IndexSet{Collection: target.Collection, Bracket: target.Bracket, Index: target.Index, Value: value}, nil
		default:
			return nil, CreateSyntaxError(equalsToken.Line, equalsToken.Column, "Invalid assignment target")
		}
	}

	if parser.isMatch([]token.TokenType{token.ADD_ASSIGN, token.SUB_ASSIGN}) {
		opTok := parser.previous()
		value, err := parser.assignment()
		if err != nil {
			return nil, err
		}
		var binaryOp token.TokenType = token.ADD
		if opTok.TokenType == token.SUB_ASSIGN {
			binaryOp = token.SUB
		}
		target, ok := expr.(ast.Variable)
		if !ok {
			return nil, CreateSyntaxError(opTok.Line, opTok.Column, "Invalid compound assignment target")
		}
		combined := ast.Binary{
			Left:     target,
			Operator: token.CreateToken(binaryOp, opTok.Line, opTok.Column),
			Right:    value,
		}
		return ast.Assign{Name: target.Name, Value: combined}, nil
	}

	return expr, nil
}

// or parses a logical OR expression.
func (parser *Parser) or() (ast.Expression, error) {
	expr, err := parser.and()
	if err != nil {
		return nil, err
	}

	for parser.isMatch([]token.TokenType{token.OR}) {
		op := parser.previous()
		rightExpr, err := parser.and()
		if err != nil {
			return nil, err
		}
		expr = ast.Logical{Left: expr, Operator: op, Right: rightExpr}
	}

	return expr, nil
}

// and parses a logical AND expression.
func (parser *Parser) and() (ast.Expression, error) {
	expr, err := parser.equality()
	if err != nil {
		return nil, err
	}

	for parser.isMatch([]token.TokenType{token.AND}) {
		op := parser.previous()
		rightExpr, err := parser.equality()
		if err != nil {
			return nil, err
		}

		expr = ast.Logical{Left: expr, Operator: op, Right: rightExpr}
	}
	return expr, nil
}

// equality parses equality expressions using operators "==" and "!=".
func (parser *Parser) equality() (ast.Expression, error) {
	exp, err := parser.rangeExpr()
	if err != nil {
		return nil, err
	}
	for parser.isMatch(equalityTokenTypes) {
		operator := parser.previous()
		right, err := parser.rangeExpr()
		if err != nil {
			return nil, err
		}
		exp = ast.Binary{Left: exp, Operator: operator, Right: right}
	}
	return exp, nil
}

// rangeExpr parses a "start..end" range expression.
func (parser *Parser) rangeExpr() (ast.Expression, error) {
	exp, err := parser.comparison()
	if err != nil {
		return nil, err
	}
	if parser.isMatch([]token.TokenType{token.DOTDOT}) {
		end, err := parser.comparison()
		if err != nil {
			return nil, err
		}
		return ast.Range{Start: exp, End: end}, nil
	}
	return exp, nil
}

// comparison parses comparison expressions using operators "<", "<=", ">", ">=".
func (parser *Parser) comparison() (ast.Expression, error) {
	exp, err := parser.term()
	if err != nil {
		return nil, err
	}
	for parser.isMatch(comparisonTokenTypes) {
		operator := parser.previous()
		right, err := parser.term()
		if err != nil {
			return nil, err
		}
		exp = ast.Binary{Left: exp, Operator: operator, Right: right}
	}
	return exp, nil
}

// term parses addition and subtraction expressions using operators "+" and "-".
func (parser *Parser) term() (ast.Expression, error) {
	exp, err := parser.factor()
	if err != nil {
		return nil, err
	}
	for parser.isMatch(termTokenTypes) {
		operator := parser.previous()
		right, err := parser.factor()
		if err != nil {
			return nil, err
		}
		exp = ast.Binary{Left: exp, Operator: operator, Right: right}
	}
	return exp, nil
}

// factor parses multiplication, division, and modulus expressions.
func (parser *Parser) factor() (ast.Expression, error) {
	exp, err := parser.unary()
	if err != nil {
		return nil, err
	}
	for parser.isMatch(factorExpressionTypes) {
		operator := parser.previous()
		right, err := parser.unary()
		if err != nil {
			return nil, err
		}
		exp = ast.Binary{Left: exp, Operator: operator, Right: right}
	}
	return exp, nil
}

// unary parses "await" expressions and unary prefix expressions ("!", "-"),
// falling through to call() for anything else.
func (parser *Parser) unary() (ast.Expression, error) {
	if parser.isMatch([]token.TokenType{token.AWAIT}) {
		keyword := parser.previous()
		value, err := parser.unary()
		if err != nil {
			return nil, err
		}
		return ast.Await{Keyword: keyword, Value: value}, nil
	}

	if parser.isMatch(unaryExpressionTypes) {
		operator := parser.previous()
		right, err := parser.unary()
		if err != nil {
			return nil, err
		}
		return ast.Unary{Operator: operator, Right: right}, nil
	}
	return parser.call()
}

// call parses a primary expression followed by any chain of call, property
// access, or index operations: "f(a, b).field[0]".
func (parser *Parser) call() (ast.Expression, error) {
	expr, err := parser.primary()
	if err != nil {
		return nil, err
	}

	for {
		if parser.isMatch([]token.TokenType{token.LPA}) {
			expr, err = parser.finishCall(expr)
			if err != nil {
				return nil, err
			}
		} else if parser.isMatch([]token.TokenType{token.DOT}) {
			name, err := parser.consume(token.IDENTIFIER, "Expected property name after '.'")
			if err != nil {
				return nil, err
			}
			expr = ast.Get{Object: expr, Name: name}
		} else if parser.isMatch([]token.TokenType{token.LBRACKET}) {
			bracket := parser.previous()
			index, err := parser.expression()
			if err != nil {
				return nil, err
			}
			if _, err := parser.consume(token.RBRACKET, "Expected ']' after index expression"); err != nil {
				return nil, err
			}
			expr = ast.IndexGet{Collection: expr, Bracket: bracket, Index: index}
		} else {
			break
		}
	}

	return expr, nil
}

func (parser *Parser) finishCall(callee ast.Expression) (ast.Expression, error) {
	arguments := []ast.Expression{}
	if !parser.checkType(token.RPA) {
		for {
			arg, err := parser.expression()
			if err != nil {
				return nil, err
			}
			arguments = append(arguments, arg)
			if !parser.isMatch([]token.TokenType{token.COMMA}) {
				break
			}
		}
	}
	paren, err := parser.consume(token.RPA, "Expected ')' after call arguments")
	if err != nil {
		return nil, err
	}
	return ast.Call{Callee: callee, Paren: paren, Arguments: arguments}, nil
}

// primary parses the most basic forms of expressions: literals, grouping,
// identifiers, list/dict literals, and keyword expressions like this/super.
func (parser *Parser) primary() (ast.Expression, error) {
	if parser.isMatch([]token.TokenType{token.FALSE}) {
		return ast.Literal{Value: false}, nil
	}
	if parser.isMatch([]token.TokenType{token.NIL}) {
		return ast.Literal{Value: nil}, nil
	}
	if parser.isMatch([]token.TokenType{token.TRUE}) {
		return ast.Literal{Value: true}, nil
	}

	if parser.isMatch([]token.TokenType{token.FLOAT, token.INT}) {
		return ast.Literal{Value: parser.previous().Literal}, nil
	}

	if parser.isMatch([]token.TokenType{token.STRING}) {
		raw, _ := parser.previous().Literal.(string)
		if strings.Contains(raw, "{") {
			return parseInterpolation(raw)
		}
		return ast.Literal{Value: raw}, nil
	}

	if parser.isMatch([]token.TokenType{token.THIS}) {
		return ast.This{Keyword: parser.previous()}, nil
	}

	if parser.isMatch([]token.TokenType{token.SUPER}) {
		keyword := parser.previous()
		if _, err := parser.consume(token.DOT, "Expected '.' after 'super'"); err != nil {
			return nil, err
		}
		method, err := parser.consume(token.IDENTIFIER, "Expected superclass method name")
		if err != nil {
			return nil, err
		}
		return ast.Super{Keyword: keyword, Method: method}, nil
	}

	if parser.isMatch([]token.TokenType{token.IDENTIFIER}) {
		return ast.Variable{Name: parser.previous()}, nil
	}

	if parser.isMatch([]token.TokenType{token.LBRACKET}) {
		bracket := parser.previous()
		elements := []ast.Expression{}
		if !parser.checkType(token.RBRACKET) {
			for {
				el, err := parser.expression()
				if err != nil {
					return nil, err
				}
				elements = append(elements, el)
				if !parser.isMatch([]token.TokenType{token.COMMA}) {
					break
				}
			}
		}
		if _, err := parser.consume(token.RBRACKET, "Expected ']' after list elements"); err != nil {
			return nil, err
		}
		return ast.ListLiteral{Bracket: bracket, Elements: elements}, nil
	}

	if parser.isMatch([]token.TokenType{token.LCUR}) {
		brace := parser.previous()
		keys := []ast.Expression{}
		values := []ast.Expression{}
		if !parser.checkType(token.RCUR) {
			for {
				key, err := parser.expression()
				if err != nil {
					return nil, err
				}
				if _, err := parser.consume(token.COLON, "Expected ':' after dict key"); err != nil {
					return nil, err
				}
				value, err := parser.expression()
				if err != nil {
					return nil, err
				}
				keys = append(keys, key)
				values = append(values, value)
				if !parser.isMatch([]token.TokenType{token.COMMA}) {
					break
				}
			}
		}
		if _, err := parser.consume(token.RCUR, "Expected '}' after dict entries"); err != nil {
			return nil, err
		}
		return ast.DictLiteral{Brace: brace, Keys: keys, Values: values}, nil
	}

	if parser.isMatch([]token.TokenType{token.LPA}) {
		expr, err := parser.expression()
		if err != nil {
			return nil, err
		}
		_, consumeErr := parser.consume(token.RPA, fmt.Sprintf("expression is missing '%s'", token.RPA))
		if consumeErr != nil {
			return nil, consumeErr
		}
		return ast.Grouping{Expression: expr}, nil
	}

	currentToken := parser.peek()
	return nil, CreateSyntaxError(currentToken.Line, currentToken.Column, "Unrecognised expression.")
}

// parseInterpolation splits the raw text of a string literal into a run of
// static fragments and "{ expr }" placeholders, parsing each placeholder's
// contents as a standalone expression using a fresh lexer/parser.
func parseInterpolation(raw string) (ast.Expression, error) {
	parts := []ast.Expression{}
	var builder strings.Builder
	i := 0
	for i < len(raw) {
		ch := raw[i]
		if ch == '{' {
			if builder.Len() > 0 {
				parts = append(parts, ast.Literal{Value: builder.String()})
				builder.Reset()
			}
			closeIdx := strings.IndexByte(raw[i:], '}')
			if closeIdx == -1 {
				return nil, fmt.Errorf("unterminated interpolation placeholder in string literal")
			}
			exprSource := raw[i+1 : i+closeIdx]
			exprAST, err := parseEmbeddedExpression(exprSource)
			if err != nil {
				return nil, err
			}
			parts = append(parts, exprAST)
			i += closeIdx + 1
			continue
		}
		builder.WriteByte(ch)
		i++
	}
	if builder.Len() > 0 {
		parts = append(parts, ast.Literal{Value: builder.String()})
	}

	if len(parts) == 1 {
		if lit, ok := parts[0].(ast.Literal); ok {
			return lit, nil
		}
	}
	return ast.Interpolation{Parts: parts}, nil
}

// parseEmbeddedExpression lexes and parses a standalone expression, used to
// compile the "{ expr }" placeholders found inside an interpolated string.
func parseEmbeddedExpression(source string) (ast.Expression, error) {
	tokens, errs := lexer.New(source).Scan()
	if len(errs) > 0 {
		return nil, errs[0]
	}
	embedded := Make(tokens)
	return embedded.expression()
}

// Consumes the current token by advancing the parser's position by one unit
// if tokenType matches the token at the parser's current position.
func (parser *Parser) consume(tokenType token.TokenType, errorMessage string) (token.Token, error) {
	if parser.checkType(tokenType) {
		return parser.advance(), nil
	}
	currentToken := parser.peek()
	return token.CreateToken(token.EOF, 0, 0), CreateSyntaxError(currentToken.Line, currentToken.Column, errorMessage)
}
