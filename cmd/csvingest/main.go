package main

import (
	"context"
	"fmt"
	"os"
	"runtime/debug"

	"github.com/JonMunkholm/csvingest/internal/cli"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "panic: %v\n%s\n", r, debug.Stack())
			os.Exit(cli.ExitPanic)
		}
	}()

	os.Exit(cli.Main(context.Background()))
}
