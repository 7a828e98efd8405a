// Package queue tracks ADQL query files on disk and the completion log.
//
// A query's state lives entirely in its filename: pending files are
// `<name>.adql`, completed files are `DONE_<name>.adql`. There is no other
// bookkeeping, which is what makes the submission loop resumable after an
// interrupt — the pending list is recomputed from the directory every run.
package queue

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const (
	// Ext is the query file extension.
	Ext = ".adql"
	// DonePrefix marks a query file as submitted.
	DonePrefix = "DONE_"
)

// QueryFile is one ADQL query unit in the queue directory.
type QueryFile struct {
	Path string // absolute or dir-relative location on disk
	Name string // base name without DonePrefix and Ext
	Done bool
}

// ResultFile returns the output filename the remote service produces for
// this query: the query name with a .csv extension.
func (q QueryFile) ResultFile() string {
	return q.Name + ".csv"
}

// Read returns the query text. The content is an opaque payload; it is
// copied and displayed, never parsed.
func (q QueryFile) Read() (string, error) {
	data, err := os.ReadFile(q.Path)
	if err != nil {
		return "", fmt.Errorf("queue: read %s: %w", q.Path, err)
	}
	return string(data), nil
}

// Pending scans dir and returns the not-yet-submitted query files in
// lexicographic order. An empty result is a normal "queue empty" outcome,
// not an error.
func Pending(dir string) ([]QueryFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("queue: read directory %s: %w", dir, err)
	}

	var files []QueryFile
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasSuffix(name, Ext) || strings.HasPrefix(name, DonePrefix) {
			continue
		}
		files = append(files, QueryFile{
			Path: filepath.Join(dir, name),
			Name: strings.TrimSuffix(name, Ext),
		})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, nil
}

// Stats counts pending and completed query files in dir.
func Stats(dir string) (pending, done int, err error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, 0, fmt.Errorf("queue: read directory %s: %w", dir, err)
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), Ext) {
			continue
		}
		if strings.HasPrefix(e.Name(), DonePrefix) {
			done++
		} else {
			pending++
		}
	}
	return pending, done, nil
}

// MarkDone renames q's file with the DonePrefix so future Pending scans
// skip it. The rename is the commit point: once it succeeds the query is
// completed regardless of whether the log append that follows lands.
func (q QueryFile) MarkDone() error {
	if q.Done {
		return nil
	}
	done := filepath.Join(filepath.Dir(q.Path), DonePrefix+filepath.Base(q.Path))
	if err := os.Rename(q.Path, done); err != nil {
		return fmt.Errorf("queue: mark %s done: %w", q.Name, err)
	}
	return nil
}

// Complete marks q done and appends entry to the log at logPath, in that
// order. If the append fails after a successful rename, the error is
// returned but the rename stands: the file will not be re-offered, and the
// fetcher simply will not expect its output. (Appending first instead would
// risk a duplicate log line when the rename fails, which is the worse gap.)
func Complete(q QueryFile, logPath string, entry LogEntry) error {
	if err := q.MarkDone(); err != nil {
		return err
	}
	if err := AppendLog(logPath, entry); err != nil {
		return fmt.Errorf("queue: %s marked done but not logged: %w", q.Name, err)
	}
	return nil
}
