package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"luminar/internal/driver"
)

// buildCmd is a reserved ahead-of-time compilation entrypoint. Luminar has
// no native code backend, so it produces no artifact for the target and
// starts the interactive REPL instead.
type buildCmd struct{}

func (*buildCmd) Name() string     { return "build" }
func (*buildCmd) Synopsis() string { return "(reserved) Ahead-of-time build of a Luminar source file" }
func (*buildCmd) Usage() string {
	return "luminar build <target>\n"
}
func (*buildCmd) SetFlags(f *flag.FlagSet) {}

func (cmd *buildCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	args := f.Args()
	if len(args) < 1 {
		fmt.Fprintf(os.Stderr, "💥 Target not provided\n")
		return subcommands.ExitUsageError
	}

	fmt.Fprintln(os.Stderr, "note: 'build' produces no standalone artifact; starting the REPL instead.")

	d := driver.New(driver.Options{})
	if err := d.REPL(); err != nil {
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
