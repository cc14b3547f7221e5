// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

// Package cli implements the rowscan command-line interface.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/rowscan/pkg/cli/exit"
	"github.com/cockroachdb/rowscan/pkg/kv/kvpb"
	"github.com/cockroachdb/rowscan/pkg/util/encoding"
	"github.com/cockroachdb/rowscan/pkg/util/log"
	"github.com/spf13/cobra"
)

// Proxies to allow overrides in tests.
var (
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
)

// errCommandLine marks errors in the command line or in the files it
// names.
var errCommandLine = errors.New("invalid command line")

func markCommandLine(err error) error {
	if err == nil {
		return nil
	}
	return errors.Mark(err, errCommandLine)
}

var rowscanCmd = &cobra.Command{
	Use:   "rowscan [command] (flags)",
	Short: "rowscan reads table rows from region stores",
	Long: `
rowscan reads the rows of a table from the stores serving its regions, using
the streaming coprocessor API, and prints them in key order.
`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	cobra.EnableCommandSorting = false

	rowscanCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return markCommandLine(err)
	})
	AddPersistentPreRunE(rowscanCmd, func(cmd *cobra.Command, _ []string) error {
		return markCommandLine(log.Init(logConfig()))
	})

	rowscanCmd.AddCommand(
		scanCmd,
		demoCmd,
	)
}

// Run runs the command line given by args.
func Run(ctx context.Context, args []string) error {
	rowscanCmd.SetArgs(args)
	rowscanCmd.SetOut(stdout)
	rowscanCmd.SetErr(stderr)
	return rowscanCmd.ExecuteContext(ctx)
}

// Main is the entry point of the rowscan binary.
func Main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err := Run(ctx, os.Args[1:])
	log.Flush()
	if err == nil {
		exit.WithCode(exit.Success())
	}
	fmt.Fprintf(stderr, "ERROR: %v\n", err)
	code := errorCode(ctx, err)
	stop()
	exit.WithCode(code)
}

// errorCode maps err to the process exit code.
func errorCode(ctx context.Context, err error) exit.Code {
	switch {
	case ctx.Err() != nil && errors.Is(err, context.Canceled):
		return exit.Interrupted()
	case errors.Is(err, errCommandLine):
		return exit.CommandLineFlagError()
	case errors.Is(err, encoding.ErrCorrupt):
		return exit.CorruptData()
	case kvpb.IsClientInternalError(err):
		return exit.StoreUnavailable()
	default:
		return exit.UnspecifiedError()
	}
}
