package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"luminar/internal/driver"
)

// replCmd starts an interactive, readline-backed REPL session.
type replCmd struct {
	disassemble bool
}

func (*replCmd) Name() string     { return "repl" }
func (*replCmd) Synopsis() string { return "Start an interactive Luminar REPL session" }
func (*replCmd) Usage() string {
	return "luminar repl [-disassemble]\n"
}

func (cmd *replCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&cmd.disassemble, "disassemble", false, "disassemble each compiled statement to a .lnic.txt file")
}

func (cmd *replCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	d := driver.New(driver.Options{Disassemble: cmd.disassemble})
	if err := d.REPL(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
