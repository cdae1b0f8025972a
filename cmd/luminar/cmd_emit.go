package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/subcommands"

	"luminar/compiler"
	"luminar/lexer"
	"luminar/parser"
)

// emitCmd compiles a file and writes its bytecode/disassembly to disk
// without executing it, following the teacher's cmd_emit_bytecode.go.
type emitCmd struct {
	disassemble  bool
	dumpBytecode bool
}

func (*emitCmd) Name() string     { return "emit" }
func (*emitCmd) Synopsis() string { return "Emit the bytecode representation of a source file" }
func (*emitCmd) Usage() string {
	return "luminar emit <file> [-disassemble] [-dumpBytecode]\n"
}

func (cmd *emitCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&cmd.disassemble, "disassemble", true, "write a human-readable disassembly")
	f.BoolVar(&cmd.dumpBytecode, "dumpBytecode", true, "write the encoded bytecode as hex to a .lnic file")
}

func (cmd *emitCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	args := f.Args()
	if len(args) < 1 {
		fmt.Fprintf(os.Stderr, "💥 File not provided\n")
		return subcommands.ExitUsageError
	}
	luminarFile := args[0]

	data, err := os.ReadFile(luminarFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "💥 Failed to read file:\n\t%v\n", err)
		return subcommands.ExitFailure
	}

	lex := lexer.New(string(data))
	tokens, lexErrs := lex.Scan()
	if len(lexErrs) > 0 {
		fmt.Fprintf(os.Stderr, "Lexing error: %v\n", lexErrs[0])
		return subcommands.ExitFailure
	}

	p := parser.Make(tokens)
	statements, parseErrs := p.Parse()
	if len(parseErrs) > 0 {
		fmt.Fprintf(os.Stderr, "💥 Parsing error:\n")
		for _, parseErr := range parseErrs {
			fmt.Fprintf(os.Stderr, "\t%v\n", parseErr)
		}
		return subcommands.ExitFailure
	}

	astCompiler := compiler.NewASTCompiler()
	if _, err := astCompiler.CompileAST(statements); err != nil {
		fmt.Fprintf(os.Stderr, "💥 Compilation error:\n\t%v\n", err)
		return subcommands.ExitFailure
	}

	fileName := strings.TrimSuffix(luminarFile, ".lum")

	if cmd.disassemble {
		if _, err := astCompiler.DiassembleBytecode(true, fileName); err != nil {
			fmt.Fprintf(os.Stderr, "💥 Bytecode disassemble error:\n\t%s\n", err)
			return subcommands.ExitFailure
		}
	}

	if cmd.dumpBytecode {
		if err := astCompiler.DumpBytecode(fileName); err != nil {
			fmt.Fprintf(os.Stderr, "💥 Dump bytecode error:\n\t%s\n", err)
			return subcommands.ExitFailure
		}
	}

	return subcommands.ExitSuccess
}
