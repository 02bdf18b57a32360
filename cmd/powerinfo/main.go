package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/powerinfo/powerinfo/pkg/client"
	"github.com/powerinfo/powerinfo/pkg/utils/osver"
)

var (
	logLevel       = "info"
	unixSocketPath = "/var/run/powerinfo.sock"
	configPath     = "/etc/powerinfo.toml"
)

func setupLogger() error {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		return fmt.Errorf("failed to parse log level: %v", err)
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.TextFormatter{})
	if term.IsTerminal(int(os.Stderr.Fd())) {
		logrus.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: time.Kitchen,
		})
	}

	return nil
}

func handleCmdError(err error) {
	if errors.Is(err, client.ErrDaemonNotRunning) {
		fmt.Fprintln(os.Stderr, "\nError: powerinfo daemon is not running")
		fmt.Fprintln(os.Stderr, "Run 'powerinfo serve' first, or drop --remote to read directly.")
	} else if errors.Is(err, client.ErrPermissionDenied) {
		fmt.Fprintln(os.Stderr, "\nError: Permission Denied")
		fmt.Fprintln(os.Stderr, "  - Try running the command again with 'sudo'")
		fmt.Fprintln(os.Stderr, "  - Or restart the daemon with '--allow-non-root-access'")
	}
}

func main() {
	// Apple Silicon implies Big Sur, but a universal binary can still end up
	// on an unsupported Intel system.
	if !osver.IsAtLeast(11, 0, 0) {
		fmt.Fprintln(os.Stderr, "powerinfo requires macOS 11.0 or later")
		os.Exit(1)
	}

	cmd := NewCommand()
	if err := cmd.Execute(); err != nil {
		handleCmdError(err)
		os.Exit(1)
	}
}

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "powerinfo",
		Short: "powerinfo reads battery and power telemetry on Apple Silicon Macs",
		Long: `powerinfo reads battery, charger, USB-C PD, and power telemetry from the
IO registry and system utilities on Apple Silicon Macs, and renders it as
human-readable diagnostics. Run with sudo for the per-component power
breakdown and gauge diagnostics.`,
		SilenceUsage: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return setupLogger()
		},
	}

	globalFlags := cmd.PersistentFlags()
	globalFlags.StringVarP(&logLevel, "log-level", "l", "info", "log level (trace, debug, info, warn, error, fatal, panic)")
	globalFlags.StringVar(&configPath, "config", configPath, "config file path")
	globalFlags.StringVar(&unixSocketPath, "daemon-socket", unixSocketPath, "powerinfo daemon unix socket path")

	cmd.AddCommand(
		NewStatusCommand(),
		NewJSONCommand(),
		NewServeCommand(),
	)

	return cmd
}
