// Package fetch synchronizes a local directory with the result files a
// survey run left in remote VOS storage.
package fetch

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/esolhaug/aq/internal/datalab"
	"github.com/esolhaug/aq/internal/queue"
)

// Storage is the slice of the storage client the fetcher needs.
type Storage interface {
	List(ctx context.Context, name string) ([]string, error)
	Get(ctx context.Context, name, localPath string) error
}

// Options configures one sync pass.
type Options struct {
	VOSDir   string // remote directory name (not the vos:// form)
	LocalDir string // destination; created if missing
	LogFile  string // optional; scopes the sync to logged queries
	Out      io.Writer
}

// Result summarizes one sync pass.
type Result struct {
	Downloaded []string
	Skipped    []string // already present locally
	Failed     []string // download errors, reported and not retried
	Missing    []string // expected from the log but not in the remote listing
}

// Complete reports whether every expected file is now local. Only
// meaningful for log-scoped syncs; an unbounded sync is complete when
// nothing failed.
func (r *Result) Complete() bool {
	return len(r.Failed) == 0 && len(r.Missing) == 0
}

// Sync downloads eligible remote files into LocalDir. Files already
// present locally are left untouched; a failed download is reported and
// the loop moves on. Expected-but-absent remote files are not an error —
// the remote processing may still be running.
func Sync(ctx context.Context, store Storage, opts Options) (*Result, error) {
	var expected map[string]bool
	if opts.LogFile != "" {
		entries, err := queue.ReadLog(opts.LogFile)
		if err != nil {
			return nil, err
		}
		expected = queue.ExpectedResults(entries)
		if len(expected) == 0 {
			fmt.Fprintln(opts.Out, "Completion log lists no queries; nothing to fetch.")
			return &Result{}, nil
		}
	}

	if err := os.MkdirAll(opts.LocalDir, 0o755); err != nil {
		return nil, fmt.Errorf("fetch: create %s: %w", opts.LocalDir, err)
	}

	vosDir := datalab.VOSPath(opts.VOSDir)
	listing, err := store.List(ctx, vosDir)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}

	remote := make(map[string]bool, len(listing))
	var targets []string
	for _, entry := range listing {
		base := path.Base(strings.TrimSuffix(entry, "/"))
		if base == "" || base == "." {
			continue
		}
		remote[base] = true
		if expected != nil && !expected[base] {
			continue
		}
		targets = append(targets, base)
	}
	sort.Strings(targets)

	res := &Result{}
	for i, name := range targets {
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		local := filepath.Join(opts.LocalDir, name)
		if _, err := os.Stat(local); err == nil {
			res.Skipped = append(res.Skipped, name)
			continue
		}
		fmt.Fprintf(opts.Out, "[%d/%d] downloading %s\n", i+1, len(targets), name)
		if err := store.Get(ctx, vosDir+"/"+name, local); err != nil {
			fmt.Fprintf(opts.Out, "download failed: %s: %v\n", name, err)
			res.Failed = append(res.Failed, name)
			continue
		}
		res.Downloaded = append(res.Downloaded, name)
	}

	for name := range expected {
		if !remote[name] {
			res.Missing = append(res.Missing, name)
		}
	}
	sort.Strings(res.Missing)

	fmt.Fprintf(opts.Out, "Fetched %d, skipped %d existing, %d failed",
		len(res.Downloaded), len(res.Skipped), len(res.Failed))
	if expected != nil {
		fmt.Fprintf(opts.Out, ", %d not yet in VOS", len(res.Missing))
	}
	fmt.Fprintln(opts.Out, ".")
	for _, name := range res.Failed {
		fmt.Fprintf(opts.Out, "  failed: %s\n", name)
	}
	return res, nil
}
