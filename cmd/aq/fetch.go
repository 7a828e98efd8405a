package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/esolhaug/aq/internal/datalab"
	"github.com/esolhaug/aq/internal/fetch"
	"github.com/esolhaug/aq/internal/notify"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
)

// cronParser uses standard 5-field cron expressions (minute, hour, dom, month, dow).
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

func newFetchCmd() *cobra.Command {
	var (
		configPath string
		vosDir     string
		localDir   string
		logFile    string
		watch      bool
		schedule   string
	)

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Download query results from VOS",
		Long:  "Lists the remote VOS directory and downloads result files into the local directory, skipping files already present. With --log-file, only results of logged queries are fetched; without it, everything under the remote directory is. --watch re-runs the sync on a cron schedule until every expected file is local.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFetch(cmd, configPath, vosDir, localDir, logFile, watch, schedule)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "aq.yaml", "path to aq config file")
	cmd.Flags().StringVar(&vosDir, "vos-dir", "", "remote VOS directory (default from config)")
	cmd.Flags().StringVar(&localDir, "local-dir", ".", "local directory to save files")
	cmd.Flags().StringVar(&logFile, "log-file", "", "completion log scoping the downloads (optional)")
	cmd.Flags().BoolVar(&watch, "watch", false, "keep re-syncing on a schedule until complete")
	cmd.Flags().StringVar(&schedule, "schedule", "*/10 * * * *", "cron expression for --watch")
	return cmd
}

func runFetch(cmd *cobra.Command, configPath, vosDir, localDir, logFile string, watch bool, schedule string) error {
	cfg, err := loadConfig(configPath, "", "", vosDir)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	var sched cron.Schedule
	if watch {
		sched, err = cronParser.Parse(schedule)
		if err != nil {
			return fmt.Errorf("bad --schedule %q: %w", schedule, err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	client, err := newClient(cfg)
	if err != nil {
		return err
	}
	if err := login(ctx, cmd, client); err != nil {
		return err
	}

	vosRoot := datalab.VOSPath(cfg.VOSDir)
	if !datalab.Access(ctx, client, vosRoot) {
		return fmt.Errorf("VOS directory %s does not exist or is not accessible", vosRoot)
	}

	var notifier notify.Notifier
	if cfg.Notify.SlackToken != "" {
		notifier, err = notify.NewSlack(cfg.Notify.SlackToken, cfg.Notify.SlackChannel)
		if err != nil {
			return err
		}
	}

	opts := fetch.Options{
		VOSDir:   cfg.VOSDir,
		LocalDir: localDir,
		LogFile:  logFile,
		Out:      out,
	}

	res, err := fetch.Sync(ctx, vosStore{client}, opts)
	if err != nil {
		return err
	}
	if !watch {
		return nil
	}
	if res.Complete() {
		fmt.Fprintln(out, "All expected results are local; nothing to watch.")
		return nil
	}

	for {
		next := sched.Next(time.Now())
		fmt.Fprintf(out, "Next sync at %s (Ctrl-C to stop).\n", next.Format("15:04:05"))
		select {
		case <-ctx.Done():
			fmt.Fprintln(out, "Watch stopped.")
			return nil
		case <-time.After(time.Until(next)):
		}

		res, err = fetch.Sync(ctx, vosStore{client}, opts)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			// Transient service trouble should not end a long watch.
			fmt.Fprintf(out, "sync failed, will retry: %v\n", err)
			continue
		}
		if res.Complete() {
			fmt.Fprintln(out, "All expected results are local.")
			notify.Send(notifier, fmt.Sprintf("aq: all expected results from %s are downloaded", vosRoot))
			return nil
		}
	}
}
