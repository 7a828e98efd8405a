package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/esolhaug/aq/internal/dashboard"
	"github.com/spf13/cobra"
)

func newDashboardCmd() *cobra.Command {
	var (
		configPath string
		queryDir   string
		logFile    string
		port       int
	)

	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Serve a local status page for the survey run",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDashboard(cmd, configPath, queryDir, logFile, port)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "aq.yaml", "path to aq config file")
	cmd.Flags().StringVar(&queryDir, "query-dir", "", "directory of .adql files (default from config)")
	cmd.Flags().StringVar(&logFile, "log-file", "", "completion log to read (default from config)")
	cmd.Flags().IntVarP(&port, "port", "p", 8080, "port to listen on")
	return cmd
}

func runDashboard(cmd *cobra.Command, configPath, queryDir, logFile string, port int) error {
	cfg, err := loadConfig(configPath, queryDir, logFile, "")
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	return dashboard.Start(ctx, dashboard.StartOpts{
		QueryDir: cfg.QueryDir,
		LogFile:  cfg.LogFile,
		Port:     port,
		Out:      cmd.OutOrStdout(),
	})
}
