package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/esolhaug/aq/internal/queue"
	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	var (
		configPath string
		queryDir   string
		logFile    string
		limit      int
	)

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show queue progress and recent completions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(cmd, configPath, queryDir, logFile, limit)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "aq.yaml", "path to aq config file")
	cmd.Flags().StringVar(&queryDir, "query-dir", "", "directory of .adql files (default from config)")
	cmd.Flags().StringVar(&logFile, "log-file", "", "completion log to read (default from config)")
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "number of recent log entries to show")
	return cmd
}

func runStatus(cmd *cobra.Command, configPath, queryDir, logFile string, limit int) error {
	cfg, err := loadConfig(configPath, queryDir, logFile, "")
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	pending, done, err := queue.Stats(cfg.QueryDir)
	if err != nil {
		return err
	}
	total := pending + done
	fmt.Fprintf(out, "Queue %s: %d done / %d total (%d pending)\n", cfg.QueryDir, done, total, pending)

	if _, err := os.Stat(cfg.LogFile); err != nil {
		fmt.Fprintln(out, "No completion log yet.")
		return nil
	}
	entries, err := queue.ReadLog(cfg.LogFile)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(out, "Completion log is empty.")
		return nil
	}

	start := len(entries) - limit
	if start < 0 {
		start = 0
	}
	fmt.Fprintf(out, "\nLast %d completions:\n", len(entries)-start)
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "FILE\tACTION\tTIME\tJOB\tPHASE")
	for _, e := range entries[start:] {
		job, phase := e.JobID, e.Phase
		if job == "" {
			job = "-"
		}
		if phase == "" {
			phase = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", e.File, e.Action, e.Time.Format("2006-01-02 15:04:05"), job, phase)
	}
	return w.Flush()
}
