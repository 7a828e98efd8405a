package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/esolhaug/aq/internal/submit"
	"github.com/spf13/cobra"
)

func newSubmitCmd() *cobra.Command {
	var (
		configPath string
		queryDir   string
		logFile    string
		noBrowser  bool
	)

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Walk through pending queries in the browser",
		Long: "Presents each pending query file in order: the query text is copied to the clipboard, the Data Explorer page is opened, and the guided prompts hand over the preview limit, result name and storage limit. Confirming the final prompt renames the file with the DONE_ prefix and appends it to the completion log. Type q (or press Ctrl-C) at any prompt to stop; the current query stays pending.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSubmit(cmd, configPath, queryDir, logFile, noBrowser)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "aq.yaml", "path to aq config file")
	cmd.Flags().StringVar(&queryDir, "query-dir", "", "directory of .adql files (default from config)")
	cmd.Flags().StringVar(&logFile, "log-file", "", "completion log to append (default from config)")
	cmd.Flags().BoolVar(&noBrowser, "no-browser", false, "do not open the Data Explorer page")
	return cmd
}

func runSubmit(cmd *cobra.Command, configPath, queryDir, logFile string, noBrowser bool) error {
	cfg, err := loadConfig(configPath, queryDir, logFile, "")
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	s := &submit.Session{
		QueryDir:     cfg.QueryDir,
		LogFile:      cfg.LogFile,
		ExplorerURL:  cfg.ExplorerURL,
		VOSPrefix:    cfg.VOSDir + "/",
		PreviewLimit: cfg.Limits.Preview,
		StorageLimit: cfg.Limits.Storage,
		OpenBrowser:  !noBrowser,
		In:           cmd.InOrStdin(),
		Out:          cmd.OutOrStdout(),
	}
	return s.Run(ctx)
}
