// Package driver wires the scanner, parser, compiler and VM together into
// the two ways a Luminar program is actually run: a single file (RunFile) and
// an interactive, readline-backed REPL (REPL), following the teacher's
// cmd_run_compiled.go/cmd_repl_compiled.go shape.
package driver

import (
	"fmt"
	"os"
	"strings"

	"github.com/chzyer/readline"

	"luminar/compiler"
	"luminar/diagnostics"
	"luminar/lexer"
	"luminar/parser"
	"luminar/token"
	"luminar/vm"
)

// Options configures a driver run: which extra artifacts to emit and where
// diagnostics are logged.
type Options struct {
	Disassemble  bool
	DumpBytecode bool
	DumpAST      bool
	LogPath      string
}

// Driver owns one compiler/VM pair across a REPL session so that globals
// and class definitions declared on one line remain visible on the next.
type Driver struct {
	compiler *compiler.ASTCompiler
	vm       *vm.VM
	sink     *diagnostics.Sink
	opts     Options
}

func New(opts Options) *Driver {
	if opts.LogPath == "" {
		opts.LogPath = "debug_log.log"
	}
	return &Driver{
		compiler: compiler.NewASTCompiler(),
		vm:       vm.New(),
		sink:     diagnostics.New(os.Stderr, opts.LogPath),
		opts:     opts,
	}
}

// RunFile loads path from disk, compiles it and runs it to completion.
func (d *Driver) RunFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		d.sink.ReportError(diagnostics.StageLexer, path, err)
		return err
	}
	return d.RunSource(path, string(data))
}

// RunSource compiles and executes source attributed to file (used for both
// file-mode and REPL-mode runs so diagnostics always carry a file name).
func (d *Driver) RunSource(file, source string) error {
	lex := lexer.New(source)
	tokens, lexErrs := lex.Scan()
	if len(lexErrs) > 0 {
		for _, lexErr := range lexErrs {
			d.sink.Report(diagnostics.Record{Stage: diagnostics.StageLexer, File: file, Message: lexErr.Error()})
		}
		return lexErrs[0]
	}

	p := parser.Make(tokens)
	statements, parseErrs := p.Parse()
	if len(parseErrs) > 0 {
		for _, parseErr := range parseErrs {
			line, column := locationOf(parseErr)
			d.sink.Report(diagnostics.Record{
				Stage: diagnostics.StageParser, File: file, Line: line, Column: column,
				Message: parseErr.Error(),
			})
		}
		return parseErrs[0]
	}

	if d.opts.DumpAST {
		if err := p.PrintToFile(statements, "ast.json"); err != nil {
			fmt.Fprintf(os.Stderr, "failed to dump AST: %v\n", err)
		}
	}

	bytecode, err := d.compiler.CompileAST(statements)
	if err != nil {
		d.sink.Report(diagnostics.Record{Stage: diagnostics.StageCompiler, File: file, Message: err.Error()})
		return err
	}

	if d.opts.Disassemble {
		if _, err := d.compiler.DiassembleBytecode(true, strings.TrimSuffix(file, ".lum")); err != nil {
			fmt.Fprintf(os.Stderr, "failed to disassemble bytecode: %v\n", err)
		}
	}
	if d.opts.DumpBytecode {
		if err := d.compiler.DumpBytecode(strings.TrimSuffix(file, ".lum")); err != nil {
			fmt.Fprintf(os.Stderr, "failed to dump bytecode: %v\n", err)
		}
	}

	if err := d.vm.Run(bytecode); err != nil {
		d.sink.Report(diagnostics.Record{Stage: diagnostics.StageVM, File: file, Message: err.Error()})
		return err
	}
	return nil
}

// locationOf extracts a line/column from a parser error when it is a
// parser.SyntaxError, falling back to 0,0 for anything else.
func locationOf(err error) (int, int) {
	if syntaxErr, ok := err.(parser.SyntaxError); ok {
		return int(syntaxErr.Line), syntaxErr.Column
	}
	return 0, 0
}

// REPL runs an interactive session against stdin/stdout using readline for
// history and line editing, buffering input until isInputReady reports a
// complete statement (balanced braces, no dangling operator), per the
// teacher's cmd_repl_compiled.go.
func (d *Driver) REPL() error {
	rl, err := readline.New(">>> ")
	if err != nil {
		return fmt.Errorf("failed to start readline: %w", err)
	}
	defer rl.Close()

	fmt.Println("\nWelcome to Luminar!")

	var buffer strings.Builder
	for {
		if buffer.Len() == 0 {
			rl.SetPrompt(">>> ")
		} else {
			rl.SetPrompt("... ")
		}

		line, err := rl.Readline()
		if err != nil { // io.EOF (Ctrl-D) or readline.ErrInterrupt (Ctrl-C)
			return nil
		}
		if strings.TrimSpace(line) == "exit" && buffer.Len() == 0 {
			return nil
		}

		if buffer.Len() > 0 {
			buffer.WriteString("\n")
		}
		buffer.WriteString(line)
		source := buffer.String()

		lex := lexer.New(source)
		tokens, lexErrs := lex.Scan()
		if len(lexErrs) > 0 {
			fmt.Println(lexErrs[0])
			buffer.Reset()
			continue
		}

		if !isInputReady(tokens) {
			continue
		}

		if err := d.RunSource("<repl>", source); err != nil {
			// Errors are already reported through the sink; just reset the
			// buffer so a bad statement doesn't wedge the REPL.
		}
		buffer.Reset()
	}
}

// isInputReady reports whether tokens form a complete statement: braces
// must be balanced and the last non-EOF token must not be an operator or
// keyword that expects a continuation.
func isInputReady(tokens []token.Token) bool {
	braceBalance := 0
	for _, tok := range tokens {
		switch tok.TokenType {
		case token.LCUR:
			braceBalance++
		case token.RCUR:
			braceBalance--
		}
	}
	if braceBalance > 0 {
		return false
	}

	last := lastNonEOF(tokens)
	if last == nil {
		return true
	}

	switch last.TokenType {
	case token.ASSIGN, token.ADD, token.SUB, token.MULT, token.DIV, token.MODULUS,
		token.BANG, token.EQUAL_EQUAL, token.NOT_EQUAL, token.LESS, token.LESS_EQUAL,
		token.LARGER, token.LARGER_EQUAL, token.COMMA, token.LPA, token.LCUR,
		token.IF, token.ELSE, token.ELIF, token.WHILE, token.FOR, token.FUNC,
		token.RETURN, token.VAR, token.AND, token.OR, token.PRINT,
		token.ATTEMPT, token.HANDLE, token.PARALLEL, token.CONCURRENT, token.AWAIT:
		return false
	}
	return true
}

func lastNonEOF(tokens []token.Token) *token.Token {
	for i := len(tokens) - 1; i >= 0; i-- {
		if tokens[i].TokenType != token.EOF {
			return &tokens[i]
		}
	}
	return nil
}
