package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"luminar/internal/driver"
)

func main() {
	subcommands.Register(subcommands.HelpCommand(), "")
	subcommands.Register(subcommands.FlagsCommand(), "")
	subcommands.Register(subcommands.CommandsCommand(), "")
	subcommands.Register(&replCmd{}, "")
	subcommands.Register(&runCmd{}, "")
	subcommands.Register(&emitCmd{}, "")
	subcommands.Register(&buildCmd{}, "")

	flag.Parse()

	if flag.NArg() == 0 {
		fmt.Println("\n\nWelcome to Luminar!")
		if err := driver.New(driver.Options{}).REPL(); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		os.Exit(0)
	}

	ctx := context.Background()
	os.Exit(int(subcommands.Execute(ctx)))
}
