// expressions.go contains all the expression AST nodes. An expression node always evaluates to a value.

package ast

import (
	"luminar/token"
)

// Binary represents a binary operation expression (e.g., "a + b").
// It consists of a left-hand side expression, an operator token (e.g., +, -, *, /),
// and a right-hand side expression.
type Binary struct {
	Left     Expression  // The left-hand expression (e.g., "a" in "a + b")
	Operator token.Token // The operator (e.g., "+")
	Right    Expression  // The right-hand expression (e.g., "b" in "a + b")
}

func (binary Binary) Accept(v ExpressionVisitor) any {
	return v.VisitBinary(binary)
}

// Unary represents a unary operation expression (e.g., "!a" or "-b").
// It consists of an operator token and a single right-hand expression.
type Unary struct {
	Operator token.Token // The operator (e.g., "!" or "-")
	Right    Expression  // The expression the operator is applied to (e.g., "a" or "b")
}

func (unary Unary) Accept(v ExpressionVisitor) any {
	return v.VisitUnary(unary)
}

// Literal represents a literal value in the source code
// (e.g., numbers, strings, booleans, or nil).
type Literal struct {
	Value any // The literal value (Go's `any` allows different possible types)
}

func (literal Literal) Accept(v ExpressionVisitor) any {
	return v.VisitLiteral(literal)
}

// Grouping represents a parenthesized expression (e.g., "(a + b)").
// Useful for controlling evaluation precedence.
type Grouping struct {
	Expression Expression // The inner expression inside the parentheses
}

func (grouping Grouping) Accept(v ExpressionVisitor) any {
	return v.VisitGrouping(grouping)
}

// Variable represents a variable expression in the abstract syntax tree (AST).
// It models the retrieval of a value previously bound to a variable name.
type Variable struct {
	Name token.Token // An IDENTIFIER token
}

func (variable Variable) Accept(v ExpressionVisitor) any {
	return v.VisitVariableExpression(variable)
}

// Assign represents an assignment expression in the abstract syntax tree (AST).
// It models the operation of assigning a new value to an existing variable.
type Assign struct {
	Name  token.Token
	Value Expression
}

func (assign Assign) Accept(v ExpressionVisitor) any {
	return v.VisitAssignExpression(assign)
}

// Logical represents a short-circuiting "and"/"or" expression. Unlike Binary,
// the right-hand operand is not guaranteed to be evaluated.
type Logical struct {
	Left     Expression
	Operator token.Token
	Right    Expression
}

func (logical Logical) Accept(v ExpressionVisitor) any {
	return v.VisitLogicalExpression(logical)
}

// Call represents a function or method invocation, e.g. "add(1, 2)".
type Call struct {
	Callee    Expression
	Paren     token.Token // the closing ")" token, used for error locations
	Arguments []Expression
}

func (call Call) Accept(v ExpressionVisitor) any {
	return v.VisitCall(call)
}

// Get represents reading a property off an object, e.g. "point.x".
type Get struct {
	Object Expression
	Name   token.Token
}

func (get Get) Accept(v ExpressionVisitor) any {
	return v.VisitGet(get)
}

// Set represents writing a property on an object, e.g. "point.x = 1".
type Set struct {
	Object Expression
	Name   token.Token
	Value  Expression
}

func (set Set) Accept(v ExpressionVisitor) any {
	return v.VisitSet(set)
}

// IndexGet represents reading an element out of a list or dict, e.g. "xs[0]".
type IndexGet struct {
	Collection Expression
	Bracket    token.Token
	Index      Expression
}

func (index IndexGet) Accept(v ExpressionVisitor) any {
	return v.VisitIndexGet(index)
}

// IndexSet represents writing an element into a list or dict, e.g. "xs[0] = 1".
type IndexSet struct {
	Collection Expression
	Bracket    token.Token
	Index      Expression
	Value      Expression
}

func (index IndexSet) Accept(v ExpressionVisitor) any {
	return v.VisitIndexSet(index)
}

// ListLiteral represents a list literal, e.g. "[1, 2, 3]".
type ListLiteral struct {
	Bracket  token.Token
	Elements []Expression
}

func (list ListLiteral) Accept(v ExpressionVisitor) any {
	return v.VisitListLiteral(list)
}

// DictLiteral represents a dict literal, e.g. "{1: 'a', 2: 'b'}". Keys and
// Values are parallel slices: Keys[i] maps to Values[i].
type DictLiteral struct {
	Brace  token.Token
	Keys   []Expression
	Values []Expression
}

func (dict DictLiteral) Accept(v ExpressionVisitor) any {
	return v.VisitDictLiteral(dict)
}

// Range represents a "start..end" range expression, used by for-in loops
// and list slicing.
type Range struct {
	Start Expression
	End   Expression
}

func (r Range) Accept(v ExpressionVisitor) any {
	return v.VisitRange(r)
}

// Interpolation represents an interpolated string literal, e.g.
// "\"total: {a + b} items\"". Parts alternates between string Literal nodes
// (the static fragments) and arbitrary embedded Expression nodes.
type Interpolation struct {
	Parts []Expression
}

func (interp Interpolation) Accept(v ExpressionVisitor) any {
	return v.VisitInterpolation(interp)
}

// This represents a "this" expression referring to the receiver inside a
// method body.
type This struct {
	Keyword token.Token
}

func (this This) Accept(v ExpressionVisitor) any {
	return v.VisitThis(this)
}

// Super represents a "super.method" expression used inside a subclass
// method to invoke the overridden superclass implementation.
type Super struct {
	Keyword token.Token
	Method  token.Token
}

func (super Super) Accept(v ExpressionVisitor) any {
	return v.VisitSuper(super)
}

// Await represents an "await" expression applied to an async call result.
type Await struct {
	Keyword token.Token
	Value   Expression
}

func (await Await) Accept(v ExpressionVisitor) any {
	return v.VisitAwait(await)
}
