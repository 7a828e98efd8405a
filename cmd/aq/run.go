package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/esolhaug/aq/internal/datalab"
	"github.com/esolhaug/aq/internal/queue"
	"github.com/spf13/cobra"
)

func newRunCmd() *cobra.Command {
	var (
		configPath string
		queryDir   string
		logFile    string
		vosDir     string
		createDir  bool
		wait       bool
		poll       time.Duration
		format     string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Submit pending queries through the query service",
		Long:  "Submits each pending query file as an async job with its output directed to the VOS directory, then marks it done and logs the job id. No browser involved. A query whose submission fails stays pending.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRun(cmd, runOpts{
				configPath: configPath,
				queryDir:   queryDir,
				logFile:    logFile,
				vosDir:     vosDir,
				createDir:  createDir,
				wait:       wait,
				poll:       poll,
				format:     format,
			})
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "aq.yaml", "path to aq config file")
	cmd.Flags().StringVar(&queryDir, "query-dir", "", "directory of .adql files (default from config)")
	cmd.Flags().StringVar(&logFile, "log-file", "", "completion log to append (default from config)")
	cmd.Flags().StringVar(&vosDir, "vos-dir", "", "remote VOS directory (default from config)")
	cmd.Flags().BoolVar(&createDir, "create-vos-dir", false, "create the VOS directory if it does not exist")
	cmd.Flags().BoolVar(&wait, "wait", false, "poll each job until it reaches a terminal phase")
	cmd.Flags().DurationVar(&poll, "poll", 30*time.Second, "job status polling interval with --wait")
	cmd.Flags().StringVar(&format, "format", "csv", "output format to request")
	return cmd
}

type runOpts struct {
	configPath string
	queryDir   string
	logFile    string
	vosDir     string
	createDir  bool
	wait       bool
	poll       time.Duration
	format     string
}

func runRun(cmd *cobra.Command, opts runOpts) error {
	cfg, err := loadConfig(opts.configPath, opts.queryDir, opts.logFile, opts.vosDir)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	files, err := queue.Pending(cfg.QueryDir)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		fmt.Fprintln(out, "No pending queries; nothing to do.")
		return nil
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
	defer func() {
		if err := datalab.Logout(context.Background(), client); err != nil {
			fmt.Fprintf(out, "logout: %v\n", err)
		}
	}()

	vosRoot := datalab.VOSPath(cfg.VOSDir)
	if !datalab.Access(ctx, client, vosRoot) {
		if !opts.createDir {
			return fmt.Errorf("VOS directory %s is not accessible (use --create-vos-dir to create it)", vosRoot)
		}
		if err := datalab.MkDir(ctx, client, vosRoot); err != nil {
			return err
		}
	}

	fmt.Fprintf(out, "Submitting %d queries to %s.\n", len(files), vosRoot)
	submitted := 0
	for _, f := range files {
		if ctx.Err() != nil {
			fmt.Fprintln(out, "\nInterrupted; remaining queries stay pending.")
			break
		}

		adql, err := f.Read()
		if err != nil {
			return err
		}
		vosPath := datalab.VOSPath(cfg.VOSDir, f.ResultFile())

		jobID, err := datalab.Submit(ctx, client, adql, datalab.SubmitOpts{
			Out: vosPath, Format: opts.format, Async: true,
		})
		if err != nil {
			fmt.Fprintf(out, "submit failed, left pending: %s: %v\n", f.Name, err)
			continue
		}

		phase := ""
		if opts.wait {
			phase, err = waitForJob(ctx, client, jobID, opts.poll, out)
			if err != nil {
				fmt.Fprintf(out, "job %s: %v\n", jobID, err)
			}
		}

		entry := queue.LogEntry{
			File: f.Name + queue.Ext, Action: "submitted", Time: time.Now(),
			JobID: jobID, Phase: phase, VOSPath: vosPath,
		}
		if err := queue.Complete(f, cfg.LogFile, entry); err != nil {
			return err
		}
		submitted++
		fmt.Fprintf(out, "submitted %s -> %s (job %s)\n", f.Name, vosPath, jobID)
	}

	fmt.Fprintf(out, "Done: %d/%d queries submitted.\n", submitted, len(files))
	return nil
}

// waitForJob polls a job until it reaches a terminal phase or ctx ends.
func waitForJob(ctx context.Context, client *datalab.Client, jobID string, poll time.Duration, out io.Writer) (string, error) {
	ticker := time.NewTicker(poll)
	defer ticker.Stop()
	for {
		phase, err := datalab.JobStatus(ctx, client, jobID)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(out, "job %s: %s\n", jobID, phase)
		if datalab.TerminalPhase(phase) {
			return phase, nil
		}
		select {
		case <-ctx.Done():
			return phase, ctx.Err()
		case <-ticker.C:
		}
	}
}
