package main

import (
	"fmt"
	"os"
	"runtime/debug"

	"ecommerce-loader/internal/cli"
)

func main() {
	var exitCode int
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "panic: %v\n%s\n", r, debug.Stack())
			exitCode = cli.ExitPanic
		}
		os.Exit(exitCode)
	}()

	exitCode = cli.ExitCodeForError(cli.Execute())
}
