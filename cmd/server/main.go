// Package main is the entry point for the user service.
//
// main stays small: it builds the cobra command tree and runs it. The
// commands load config, open the store, and hand off to internal/server.
//
//	usersvc                 serve (the default)
//	usersvc serve --port 9000
//	usersvc migrate         create tables and exit
//	usersvc version
package main

import (
	"context"
	"fmt"
	"os"
)

// Set via -ldflags at build time.
var (
	version = "dev"
	commit  = "none"
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
