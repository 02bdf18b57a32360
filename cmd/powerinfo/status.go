package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/powerinfo/powerinfo/pkg/client"
	"github.com/powerinfo/powerinfo/pkg/config"
	"github.com/powerinfo/powerinfo/pkg/daemon"
	"github.com/powerinfo/powerinfo/pkg/format"
	"github.com/powerinfo/powerinfo/pkg/sysutil"
	"github.com/powerinfo/powerinfo/pkg/types"
)

// buildLocal runs one snapshot build in-process.
func buildLocal() (*types.BatterySnapshot, error) {
	conf, err := config.NewFile(configPath)
	if err != nil {
		return nil, err
	}
	builder := daemon.NewBuilder(sysutil.NewExecRunner(), conf)
	return builder.Build(sysutil.Privileged())
}

func NewStatusCommand() *cobra.Command {
	var remote bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the full power and battery report",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var snap *types.BatterySnapshot
			var err error
			if remote {
				snap, err = client.NewClient(unixSocketPath).Snapshot()
			} else {
				snap, err = buildLocal()
			}
			if err != nil {
				return err
			}
			format.Write(cmd.OutOrStdout(), snap)
			return nil
		},
	}

	cmd.Flags().BoolVar(&remote, "remote", false, "read from the running daemon instead of querying hardware directly")
	return cmd
}

func NewJSONCommand() *cobra.Command {
	var remote bool

	cmd := &cobra.Command{
		Use:   "json",
		Short: "Print the snapshot as JSON",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var snap *types.BatterySnapshot
			var err error
			if remote {
				snap, err = client.NewClient(unixSocketPath).Snapshot()
			} else {
				snap, err = buildLocal()
			}
			if err != nil {
				return err
			}
			b, err := json.MarshalIndent(snap, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(b))
			return nil
		},
	}

	cmd.Flags().BoolVar(&remote, "remote", false, "read from the running daemon instead of querying hardware directly")
	return cmd
}

func NewServeCommand() *cobra.Command {
	var allowNonRoot bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the telemetry daemon",
		RunE: func(_ *cobra.Command, _ []string) error {
			return daemon.Run(configPath, unixSocketPath, allowNonRoot)
		},
	}

	cmd.Flags().BoolVar(&allowNonRoot, "allow-non-root-access", false, "allow non-root users to query the daemon socket")
	return cmd
}
