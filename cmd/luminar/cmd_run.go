package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"luminar/internal/driver"
)

// runCmd executes a single Luminar source file to completion.
type runCmd struct{}

func (*runCmd) Name() string     { return "run" }
func (*runCmd) Synopsis() string { return "Execute a Luminar source file" }
func (*runCmd) Usage() string {
	return "luminar run <file>\n"
}
func (*runCmd) SetFlags(f *flag.FlagSet) {}

func (cmd *runCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	args := f.Args()
	if len(args) < 1 {
		fmt.Fprintf(os.Stderr, "💥 File not provided\n")
		return subcommands.ExitUsageError
	}

	d := driver.New(driver.Options{})
	if err := d.RunFile(args[0]); err != nil {
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
