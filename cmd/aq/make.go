package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/esolhaug/aq/internal/datalab"
	"github.com/esolhaug/aq/internal/precheck"
	"github.com/esolhaug/aq/internal/sky"
	"github.com/spf13/cobra"
)

func newMakeCmd() *cobra.Command {
	var (
		configPath string
		outputDir  string
		noPrecheck bool
	)

	cmd := &cobra.Command{
		Use:   "make",
		Short: "Generate ADQL query files for the survey footprint",
		Long:  "Tiles the configured sky footprint into declination bands and writes one .adql file per region. With precheck enabled, regions are first checked for catalog rows via the query service (results cached locally) and empty regions are skipped.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMake(cmd, configPath, outputDir, noPrecheck)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "aq.yaml", "path to aq config file")
	cmd.Flags().StringVar(&outputDir, "output", "", "directory to write query files (default from config)")
	cmd.Flags().BoolVar(&noPrecheck, "no-precheck", false, "skip the row-count precheck even if enabled in config")
	return cmd
}

func runMake(cmd *cobra.Command, configPath, outputDir string, noPrecheck bool) error {
	cfg, err := loadConfig(configPath, outputDir, "", "")
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	regions := sky.Tile(sky.Footprint{
		RAMin:    cfg.Survey.RAMin,
		RAMax:    cfg.Survey.RAMax,
		DecStart: cfg.Survey.DecStart,
		DecEnd:   cfg.Survey.DecEnd,
		DecStep:  cfg.Survey.DecStep,
		Galactic: cfg.Survey.Galactic,
	})
	if len(regions) == 0 {
		fmt.Fprintln(out, "Footprint produced no regions; check the survey config.")
		return nil
	}

	if err := os.MkdirAll(cfg.QueryDir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", cfg.QueryDir, err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	hasData := map[string]bool{}
	usePrecheck := cfg.Survey.Precheck && !noPrecheck
	if usePrecheck {
		client, err := newClient(cfg)
		if err != nil {
			return err
		}
		db, err := precheck.Open(filepath.Join(cfg.QueryDir, cfg.Survey.PrecheckCache))
		if err != nil {
			return err
		}
		runner := &precheck.Runner{
			Store:   precheck.NewStore(db),
			Workers: cfg.Survey.PrecheckWorkers,
			Count: func(ctx context.Context, r sky.Region) (int64, error) {
				body, err := datalab.SubmitSync(ctx, client, r.CountQuery())
				if err != nil {
					return 0, err
				}
				return precheck.ParseCount(body)
			},
		}
		fmt.Fprintf(out, "Prechecking %d regions...\n", len(regions))
		hasData, err = runner.HasData(ctx, regions)
		if err != nil {
			return err
		}
	}

	written, skipped := 0, 0
	for _, r := range regions {
		if usePrecheck && !hasData[r.Name()] {
			fmt.Fprintf(out, "skip (no data): %s\n", r.Name())
			skipped++
			continue
		}
		path := filepath.Join(cfg.QueryDir, r.Name()+".adql")
		if err := os.WriteFile(path, []byte(r.Query()), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		written++
	}

	fmt.Fprintf(out, "Wrote %d query files to %s", written, cfg.QueryDir)
	if skipped > 0 {
		fmt.Fprintf(out, " (%d empty regions skipped)", skipped)
	}
	fmt.Fprintln(out)
	return nil
}
