package queue

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"
)

// timeLayout is the timestamp format used in the completion log.
const timeLayout = "2006-01-02 15:04:05"

// LogEntry is one line of the append-only completion log.
//
// Layout is tab-separated: query filename, action, timestamp, then three
// optional columns (job id, job phase, VOS output path) written as "-" when
// absent. The first field always ends in .adql, which is what the parser
// keys on; the file stays greppable and splittable by hand.
type LogEntry struct {
	File    string // original query filename, with extension
	Action  string // "executed" for browser submissions, "submitted" for client ones
	Time    time.Time
	JobID   string
	Phase   string
	VOSPath string
}

// ResultFile returns the remote output filename for the logged query.
func (e LogEntry) ResultFile() string {
	return strings.TrimSuffix(e.File, Ext) + ".csv"
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func dashEmpty(s string) string {
	if s == "-" {
		return ""
	}
	return s
}

// AppendLog appends one entry to the log file at path, creating it if
// needed. The log is append-only; nothing in aq ever rewrites it.
func AppendLog(path string, e LogEntry) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("queue: open log %s: %w", path, err)
	}

	line := fmt.Sprintf("%s\t%s\t%s", e.File, orDash(e.Action), e.Time.Format(timeLayout))
	if e.JobID != "" || e.Phase != "" || e.VOSPath != "" {
		line += fmt.Sprintf("\t%s\t%s\t%s", orDash(e.JobID), orDash(e.Phase), orDash(e.VOSPath))
	}
	if _, err := fmt.Fprintln(f, line); err != nil {
		f.Close()
		return fmt.Errorf("queue: append log %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("queue: close log %s: %w", path, err)
	}
	return nil
}

// ReadLog parses the completion log at path. Lines whose first field does
// not end in .adql are skipped, so stray notes in the file are harmless.
func ReadLog(path string) ([]LogEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("queue: open log %s: %w", path, err)
	}
	defer f.Close()

	var entries []LogEntry
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 || !strings.HasSuffix(fields[0], Ext) {
			continue
		}
		e := LogEntry{File: fields[0]}
		if len(fields) > 1 {
			e.Action = dashEmpty(fields[1])
		}
		// Timestamp occupies two whitespace-split fields.
		if len(fields) > 3 {
			if t, err := time.ParseInLocation(timeLayout, fields[2]+" "+fields[3], time.Local); err == nil {
				e.Time = t
			}
		}
		if len(fields) > 6 {
			e.JobID = dashEmpty(fields[4])
			e.Phase = dashEmpty(fields[5])
			e.VOSPath = dashEmpty(fields[6])
		}
		entries = append(entries, e)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("queue: read log %s: %w", path, err)
	}
	return entries, nil
}

// ExpectedResults maps a parsed log to the set of remote output filenames
// the fetcher should look for. Duplicate log lines collapse to one name.
func ExpectedResults(entries []LogEntry) map[string]bool {
	set := make(map[string]bool, len(entries))
	for _, e := range entries {
		set[e.ResultFile()] = true
	}
	return set
}
