// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package cli

import (
	"os"
	"time"

	"github.com/cockroachdb/rowscan/pkg/cli/cliflags"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// AddPersistentPreRunE add 'fn' as a persistent pre-run function to 'cmd'.
// If the command has an existing pre-run function, it is saved and will be
// called at the beginning of 'fn'.
func AddPersistentPreRunE(cmd *cobra.Command, fn func(*cobra.Command, []string) error) {
	wrapped := cmd.PersistentPreRunE

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if wrapped != nil {
			if err := wrapped(cmd, args); err != nil {
				return err
			}
		}
		return fn(cmd, args)
	}
}

func setFlagFromEnv(f *pflag.FlagSet, flagInfo cliflags.FlagInfo) {
	if flagInfo.EnvVar != "" {
		if value, set := os.LookupEnv(flagInfo.EnvVar); set {
			if err := f.Set(flagInfo.Name, value); err != nil {
				panic(err)
			}
		}
	}
}

// StringFlag creates a string flag and registers it with the FlagSet.
func StringFlag(f *pflag.FlagSet, valPtr *string, flagInfo cliflags.FlagInfo, defaultVal string) {
	f.StringVarP(valPtr, flagInfo.Name, flagInfo.Shorthand, defaultVal, flagInfo.Usage())

	setFlagFromEnv(f, flagInfo)
}

// IntFlag creates an int flag and registers it with the FlagSet.
func IntFlag(f *pflag.FlagSet, valPtr *int, flagInfo cliflags.FlagInfo, defaultVal int) {
	f.IntVarP(valPtr, flagInfo.Name, flagInfo.Shorthand, defaultVal, flagInfo.Usage())

	setFlagFromEnv(f, flagInfo)
}

// BoolFlag creates a bool flag and registers it with the FlagSet.
func BoolFlag(f *pflag.FlagSet, valPtr *bool, flagInfo cliflags.FlagInfo, defaultVal bool) {
	f.BoolVarP(valPtr, flagInfo.Name, flagInfo.Shorthand, defaultVal, flagInfo.Usage())

	setFlagFromEnv(f, flagInfo)
}

// DurationFlag creates a duration flag and registers it with the FlagSet.
func DurationFlag(
	f *pflag.FlagSet, valPtr *time.Duration, flagInfo cliflags.FlagInfo, defaultVal time.Duration,
) {
	f.DurationVarP(valPtr, flagInfo.Name, flagInfo.Shorthand, defaultVal, flagInfo.Usage())

	setFlagFromEnv(f, flagInfo)
}

// VarFlag creates a custom-variable flag and registers it with the FlagSet.
func VarFlag(f *pflag.FlagSet, value pflag.Value, flagInfo cliflags.FlagInfo) {
	f.VarP(value, flagInfo.Name, flagInfo.Shorthand, flagInfo.Usage())

	setFlagFromEnv(f, flagInfo)
}

func init() {
	initCLIDefaults()

	// Flags shared by every command.
	{
		f := rowscanCmd.PersistentFlags()
		IntFlag(f, &cliCtx.logVerbosity, cliflags.LogVerbosity, cliCtx.logVerbosity)
		StringFlag(f, &cliCtx.logFormat, cliflags.LogFormat, cliCtx.logFormat)
		BoolFlag(f, &cliCtx.logRedact, cliflags.LogRedact, cliCtx.logRedact)
		StringFlag(f, &cliCtx.metricsAddr, cliflags.MetricsAddr, cliCtx.metricsAddr)
		BoolFlag(f, &cliCtx.compression, cliflags.Compression, cliCtx.compression)
		DurationFlag(f, &cliCtx.connectTimeout, cliflags.ConnectTimeout, cliCtx.connectTimeout)
	}

	// Scan parameters.
	for _, cmd := range []*cobra.Command{scanCmd, demoCmd} {
		f := cmd.Flags()
		BoolFlag(f, &scanCtx.indexScan, cliflags.IndexScan, scanCtx.indexScan)
		BoolFlag(f, &scanCtx.desc, cliflags.Descending, scanCtx.desc)
		VarFlag(f, &scanCtx.startHandle, cliflags.StartHandle)
		VarFlag(f, &scanCtx.endHandle, cliflags.EndHandle)
		VarFlag(f, &scanCtx.format, cliflags.TableDisplayFormat)
	}

	{
		f := scanCmd.Flags()
		StringFlag(f, &scanCtx.topologyFile, cliflags.Topology, scanCtx.topologyFile)
		IntFlag(f, &scanCtx.tableID, cliflags.TableID, scanCtx.tableID)
		StringFlag(f, &scanCtx.columns, cliflags.Columns, scanCtx.columns)
		_ = scanCmd.MarkFlagRequired(cliflags.Topology.Name)
		_ = scanCmd.MarkFlagRequired(cliflags.TableID.Name)
	}

	{
		f := demoCmd.Flags()
		IntFlag(f, &demoCtx.rows, cliflags.DemoRows, demoCtx.rows)
		IntFlag(f, &demoCtx.regions, cliflags.DemoRegions, demoCtx.regions)
		IntFlag(f, &demoCtx.rowsPerChunk, cliflags.DemoRowsPerChunk, demoCtx.rowsPerChunk)
		IntFlag(f, &demoCtx.dropRegion, cliflags.DemoDropRegion, demoCtx.dropRegion)
	}
}
