// Command electra compiles electra documents into paged output.
package main

import (
	"context"
	"errors"
	"os"

	"github.com/electratype/electra/internal/cli"
	"github.com/electratype/electra/internal/logging"
)

// Build-time variables set via ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	rootCmd := cli.NewRootCommand(cli.BuildInfo{
		Version: version,
		Commit:  commit,
		Date:    date,
	})

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		// diagnostics were already printed
		if !errors.Is(err, cli.ErrCompileFailed) {
			logging.Default().Error("command failed", logging.FieldError, err)
		}
		return cli.ExitCode(err)
	}
	return cli.ExitSuccess
}
