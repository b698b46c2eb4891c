// Command canvasport exports design documents to portable bundles and
// imports them back.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/matzehuels/canvasport/internal/cli"
	cperrors "github.com/matzehuels/canvasport/pkg/errors"
)

// Exit codes. 130 follows the shell convention for SIGINT.
const (
	exitFailure     = 1
	exitBadInput    = 2
	exitInterrupted = 130
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRoot().ExecuteContext(ctx)
	stop()
	os.Exit(exitCode(err))
}

// newRoot adds --verbose on top of the CLI's root command. The level has to
// be raised before the config hook runs, since the config may only lower it.
func newRoot() *cobra.Command {
	c := cli.New(os.Stderr, cli.LogInfo)
	root := c.RootCommand()

	var verbose bool
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	next := root.PersistentPreRunE
	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if verbose {
			c.SetLogLevel(cli.LogDebug)
		}
		if next == nil {
			return nil
		}
		return next(cmd, args)
	}
	return root
}

func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, context.Canceled):
		return exitInterrupted
	}
	fmt.Fprintln(os.Stderr, cperrors.UserMessage(err))
	switch cperrors.GetCode(err) {
	case cperrors.ErrCodeInvalidInput, cperrors.ErrCodeInvalidMessage, cperrors.ErrCodeInvalidPath:
		return exitBadInput
	}
	return exitFailure
}
