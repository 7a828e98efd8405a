package main

import (
	"fmt"
	"os"

	"github.com/esolhaug/aq/internal/config"
	"github.com/spf13/cobra"
)

// Version info set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "aq",
		Short: "aq — ADQL survey query workflow",
		Long:  "aq generates, submits and tracks ADQL survey queries against NOIRLab Data Lab, and fetches their results from virtual storage.",
	}

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newMakeCmd())
	cmd.AddCommand(newSubmitCmd())
	cmd.AddCommand(newRunCmd())
	cmd.AddCommand(newFetchCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newDashboardCmd())
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "aq %s (commit: %s, built: %s)\n", Version, Commit, Date)
		},
	}
}

// loadConfig reads the YAML config, falling back to defaults when the file
// is absent, and applies any non-empty command-line overrides.
func loadConfig(path, queryDir, logFile, vosDir string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if queryDir != "" {
		cfg.QueryDir = queryDir
	}
	if logFile != "" {
		cfg.LogFile = logFile
	}
	if vosDir != "" {
		cfg.VOSDir = vosDir
	}
	return cfg, nil
}

func execute(cmd *cobra.Command) int {
	if err := cmd.Execute(); err != nil {
		return 1
	}
	return 0
}

func main() {
	os.Exit(execute(newRootCmd()))
}
