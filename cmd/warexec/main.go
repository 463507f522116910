// Command warexec runs the entry point of a web-application archive.
//
// This build registers no programs, so running an archive ends in an
// unlinked error unless the entry point is provided by the host. It is
// useful as is for --inspect; binaries that bundle programs pass them to
// cli.Main with cli.WithDefiner (see package cli).
package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/meigma/warexec/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := cli.Main(ctx, os.Args[1:])
	stop()
	os.Exit(code)
}
