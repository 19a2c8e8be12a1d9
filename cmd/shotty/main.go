// shotty manages EC2 instances, volumes and snapshots.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/yairfalse/shotty/internal/executor"
)

// Exit codes.
const (
	exitOK      = 0
	exitError   = 1
	exitRefused = 2
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, newApp(os.Stdout, os.Stderr), os.Args[1:])
	cancel()
	os.Exit(code)
}

// run executes one command line and returns the process exit code.
func run(ctx context.Context, a *app, args []string) int {
	cmd := newRootCmd(a)
	cmd.SetArgs(args)
	cmd.SetOut(a.stdout)
	cmd.SetErr(a.stderr)

	err := cmd.ExecuteContext(ctx)

	closeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if cerr := a.close(closeCtx); cerr != nil && err == nil {
		err = cerr
	}
	return exitCode(a.stderr, err)
}

func exitCode(stderr io.Writer, err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, executor.ErrRefused):
		fmt.Fprintf(stderr, "ERR: %v\n", err)
		return exitRefused
	default:
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitError
	}
}
