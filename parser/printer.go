package parser

import (
	"encoding/json"
	"fmt"
	"luminar/ast"
	"os"
)

const (
	colorYellow = "\033[33m"
	colorReset  = "\033[0m"
)

// astPrinter implements the Visitor interfaces and builds a
// JSON-friendly representation of the AST using maps and slices.
// Each Visit method returns an object that can be marshaled to JSON.
type astPrinter struct{}

func (p astPrinter) VisitExpressionStmt(exprStmt ast.ExpressionStmt) any {
	return map[string]any{
		"type":       "ExpressionStmt",
		"expression": exprStmt.Expression.Accept(p),
	}
}

func (p astPrinter) VisitPrintStmt(printStmt ast.PrintStmt) any {
	return map[string]any{
		"type":       "PrintStmt",
		"expression": printStmt.Expression.Accept(p),
	}
}

func (p astPrinter) VisitVarStmt(varStmt ast.VarStmt) any {
	return map[string]any{
		"type":        "VarStmt",
		"name":        varStmt.Name.Lexeme,
		"initializer": nilOrAccept(varStmt.Initializer, p),
	}
}

func (p astPrinter) VisitBlockStmt(blockStmt ast.BlockStmt) any {
	stmts := make([]any, 0, len(blockStmt.Statements))
	for _, stmt := range blockStmt.Statements {
		stmts = append(stmts, stmt.Accept(p))
	}
	return map[string]any{
		"type":       "BlockStmt",
		"statements": stmts,
	}
}

func (p astPrinter) VisitWhileStmt(stmt ast.WhileStmt) any {
	return map[string]any{
		"type":      "WhileStmt",
		"condition": stmt.Condition.Accept(p),
		"body":      stmt.Body.Accept(p),
	}
}

func (p astPrinter) VisitIfStmt(stmt ast.IfStmt) any {
	var elseVal any
	if stmt.Else != nil {
		elseVal = stmt.Else.Accept(p)
	} else {
		elseVal = nil
	}
	return map[string]any{
		"type":      "IfStmt",
		"condition": stmt.Condition.Accept(p),
		"then":      stmt.Then.Accept(p),
		"else":      elseVal,
	}
}

func (p astPrinter) VisitLogicalExpression(expr ast.Logical) any {
	return map[string]any{
		"type":     "Logical",
		"operator": expr.Operator.Lexeme,
		"left":     expr.Left.Accept(p),
		"right":    expr.Right.Accept(p),
	}
}

func (p astPrinter) VisitAssignExpression(assign ast.Assign) any {
	return map[string]any{
		"type":  "Assign",
		"name":  assign.Name.Lexeme,
		"value": assign.Value.Accept(p),
	}
}

func (p astPrinter) VisitVariableExpression(variable ast.Variable) any {
	return map[string]any{
		"type": "Variable",
		"name": variable.Name.Lexeme,
	}
}

func (p astPrinter) VisitBinary(b ast.Binary) any {
	return map[string]any{
		"type":     "Binary",
		"operator": b.Operator.Lexeme,
		"left":     b.Left.Accept(p),
		"right":    b.Right.Accept(p),
	}
}

func (p astPrinter) VisitUnary(u ast.Unary) any {
	return map[string]any{
		"type":     "Unary",
		"operator": u.Operator.Lexeme,
		"right":    u.Right.Accept(p),
	}
}

func (p astPrinter) VisitLiteral(l ast.Literal) any {
	// literals are terminal values and can be used directly in JSON
	return l.Value
}

func (p astPrinter) VisitGrouping(g ast.Grouping) any {
	return map[string]any{
		"type":       "Grouping",
		"expression": g.Expression.Accept(p),
	}
}

func (p astPrinter) VisitForStmt(stmt ast.ForStmt) any {
	return map[string]any{
		"type":        "ForStmt",
		"initializer": nilOrAcceptStmt(stmt.Initializer, p),
		"condition":   nilOrAccept(stmt.Condition, p),
		"increment":   nilOrAccept(stmt.Increment, p),
		"body":        stmt.Body.Accept(p),
	}
}

func (p astPrinter) VisitFuncStmt(stmt ast.FuncStmt) any {
	params := make([]any, 0, len(stmt.Params))
	for _, param := range stmt.Params {
		params = append(params, map[string]any{"name": param.Name.Lexeme, "type": param.Type})
	}
	body := make([]any, 0, len(stmt.Body))
	for _, s := range stmt.Body {
		body = append(body, s.Accept(p))
	}
	return map[string]any{
		"type":       "FuncStmt",
		"name":       stmt.Name.Lexeme,
		"params":     params,
		"returnType": stmt.ReturnType,
		"body":       body,
	}
}

func (p astPrinter) VisitReturnStmt(stmt ast.ReturnStmt) any {
	return map[string]any{
		"type":  "ReturnStmt",
		"value": nilOrAccept(stmt.Value, p),
	}
}

func (p astPrinter) VisitClassStmt(stmt ast.ClassStmt) any {
	methods := make([]any, 0, len(stmt.Methods))
	for _, m := range stmt.Methods {
		methods = append(methods, p.VisitFuncStmt(m))
	}
	var superclass any
	if stmt.Superclass != nil {
		superclass = stmt.Superclass.Name.Lexeme
	}
	return map[string]any{
		"type":       "ClassStmt",
		"name":       stmt.Name.Lexeme,
		"superclass": superclass,
		"methods":    methods,
	}
}

func (p astPrinter) VisitAttemptStmt(stmt ast.AttemptStmt) any {
	return map[string]any{
		"type":       "AttemptStmt",
		"body":       stmt.Body.Accept(p),
		"handleName": stmt.HandleName.Lexeme,
		"handleBody": stmt.HandleBody.Accept(p),
	}
}

func (p astPrinter) VisitParallelStmt(stmt ast.ParallelStmt) any {
	body := make([]any, 0, len(stmt.Body))
	for _, s := range stmt.Body {
		body = append(body, s.Accept(p))
	}
	return map[string]any{
		"type": "ParallelStmt",
		"body": body,
	}
}

func (p astPrinter) VisitConcurrentStmt(stmt ast.ConcurrentStmt) any {
	body := make([]any, 0, len(stmt.Body))
	for _, s := range stmt.Body {
		body = append(body, s.Accept(p))
	}
	return map[string]any{
		"type": "ConcurrentStmt",
		"body": body,
	}
}

func (p astPrinter) VisitMatchStmt(stmt ast.MatchStmt) any {
	cases := make([]any, 0, len(stmt.Cases))
	for _, c := range stmt.Cases {
		cases = append(cases, map[string]any{
			"pattern": nilOrAccept(c.Pattern, p),
			"body":    c.Body.Accept(p),
		})
	}
	return map[string]any{
		"type":    "MatchStmt",
		"subject": stmt.Subject.Accept(p),
		"cases":   cases,
	}
}

func (p astPrinter) VisitImportStmt(stmt ast.ImportStmt) any {
	return map[string]any{
		"type": "ImportStmt",
		"path": stmt.Path.Lexeme,
	}
}

func (p astPrinter) VisitCall(call ast.Call) any {
	args := make([]any, 0, len(call.Arguments))
	for _, a := range call.Arguments {
		args = append(args, a.Accept(p))
	}
	return map[string]any{
		"type":      "Call",
		"callee":    call.Callee.Accept(p),
		"arguments": args,
	}
}

func (p astPrinter) VisitGet(get ast.Get) any {
	return map[string]any{
		"type":   "Get",
		"object": get.Object.Accept(p),
		"name":   get.Name.Lexeme,
	}
}

func (p astPrinter) VisitSet(set ast.Set) any {
	return map[string]any{
		"type":   "Set",
		"object": set.Object.Accept(p),
		"name":   set.Name.Lexeme,
		"value":  set.Value.Accept(p),
	}
}

func (p astPrinter) VisitIndexGet(index ast.IndexGet) any {
	return map[string]any{
		"type":       "IndexGet",
		"collection": index.Collection.Accept(p),
		"index":      index.Index.Accept(p),
	}
}

func (p astPrinter) VisitIndexSet(index ast.IndexSet) any {
	return map[string]any{
		"type":       "IndexSet",
		"collection": index.Collection.Accept(p),
		"index":      index.Index.Accept(p),
		"value":      index.Value.Accept(p),
	}
}

func (p astPrinter) VisitListLiteral(list ast.ListLiteral) any {
	elements := make([]any, 0, len(list.Elements))
	for _, e := range list.Elements {
		elements = append(elements, e.Accept(p))
	}
	return map[string]any{
		"type":     "ListLiteral",
		"elements": elements,
	}
}

func (p astPrinter) VisitDictLiteral(dict ast.DictLiteral) any {
	entries := make([]any, 0, len(dict.Keys))
	for i := range dict.Keys {
		entries = append(entries, map[string]any{
			"key":   dict.Keys[i].Accept(p),
			"value": dict.Values[i].Accept(p),
		})
	}
	return map[string]any{
		"type":    "DictLiteral",
		"entries": entries,
	}
}

func (p astPrinter) VisitRange(r ast.Range) any {
	return map[string]any{
		"type":  "Range",
		"start": r.Start.Accept(p),
		"end":   r.End.Accept(p),
	}
}

func (p astPrinter) VisitInterpolation(interp ast.Interpolation) any {
	parts := make([]any, 0, len(interp.Parts))
	for _, part := range interp.Parts {
		parts = append(parts, part.Accept(p))
	}
	return map[string]any{
		"type":  "Interpolation",
		"parts": parts,
	}
}

func (p astPrinter) VisitThis(this ast.This) any {
	return map[string]any{"type": "This"}
}

func (p astPrinter) VisitSuper(super ast.Super) any {
	return map[string]any{
		"type":   "Super",
		"method": super.Method.Lexeme,
	}
}

func (p astPrinter) VisitAwait(await ast.Await) any {
	return map[string]any{
		"type":  "Await",
		"value": await.Value.Accept(p),
	}
}

// nilOrAccept returns nil if expr is nil, otherwise it continues
// processintg the expression and returns the result.
func nilOrAccept(expr ast.Expression, p ast.ExpressionVisitor) any {
	if expr == nil {
		return nil
	}
	return expr.Accept(p)
}

// nilOrAcceptStmt returns nil if stmt is nil, otherwise it continues
// processing the statement and returns the result.
func nilOrAcceptStmt(stmt ast.Stmt, p ast.StmtVisitor) any {
	if stmt == nil {
		return nil
	}
	return stmt.Accept(p)
}

// PrintASTJSON converts a slice of statements into a prettified JSON string.
func PrintASTJSON(statements []ast.Stmt) (string, error) {
	printer := astPrinter{}
	out := make([]any, 0, len(statements))
	for _, s := range statements {
		out = append(out, s.Accept(printer))
	}
	bytes, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return "", err
	}

	jsonStr := string(bytes)
	fmt.Println(colorYellow + "----- AST JSON -----")
	fmt.Println(colorYellow + jsonStr)
	fmt.Println(colorYellow + "-----" + colorReset)
	fmt.Println("")
	return jsonStr, nil
}

// WriteASTJSONToFile writes the prettified AST JSON to the given file path.
func WriteASTJSONToFile(statements []ast.Stmt, path string) error {
	s, err := PrintASTJSON(statements)
	if err != nil {
		return err
	}
	fDescriptor, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("error creating AST file: %s", err.Error())
	}

	_, error := fDescriptor.Write([]byte(s))
	if error != nil {
		return fmt.Errorf("error writing AST to file: %s", error.Error())
	}
	defer fDescriptor.Close()
	return nil
}
