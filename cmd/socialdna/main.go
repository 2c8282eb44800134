// Command socialdna is the command-line front end to the socialdna engine.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/fluxsocial/socialdna/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := cli.Execute(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
