package queue

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeQuery(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestPending_FiltersAndSorts(t *testing.T) {
	dir := t.TempDir()
	writeQuery(t, dir, "b_r10_d2.adql", "SELECT 2")
	writeQuery(t, dir, "a_r10_d1.adql", "SELECT 1")
	writeQuery(t, dir, "DONE_a_r10_d0.adql", "SELECT 0")
	writeQuery(t, dir, "notes.txt", "not a query")
	if err := os.Mkdir(filepath.Join(dir, "sub.adql"), 0o755); err != nil {
		t.Fatal(err)
	}

	files, err := Pending(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("got %d pending files, want 2: %+v", len(files), files)
	}
	if files[0].Name != "a_r10_d1" || files[1].Name != "b_r10_d2" {
		t.Errorf("wrong order: %q, %q", files[0].Name, files[1].Name)
	}
	if files[0].Done {
		t.Error("pending file reported as done")
	}
}

func TestPending_EmptyQueue(t *testing.T) {
	files, err := Pending(t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(files) != 0 {
		t.Errorf("got %d files, want 0", len(files))
	}
}

func TestPending_MissingDir(t *testing.T) {
	if _, err := Pending(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Fatal("expected error for missing directory")
	}
}

func TestQueryFile_Read(t *testing.T) {
	dir := t.TempDir()
	writeQuery(t, dir, "q.adql", "SELECT ra, dec FROM tbl\n")

	files, err := Pending(dir)
	if err != nil {
		t.Fatal(err)
	}
	text, err := files[0].Read()
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if text != "SELECT ra, dec FROM tbl\n" {
		t.Errorf("Read = %q", text)
	}
}

func TestMarkDone_RemovesFromPending(t *testing.T) {
	dir := t.TempDir()
	writeQuery(t, dir, "q1.adql", "SELECT 1")
	writeQuery(t, dir, "q2.adql", "SELECT 2")

	files, err := Pending(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := files[0].MarkDone(); err != nil {
		t.Fatalf("MarkDone: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, "DONE_q1.adql")); err != nil {
		t.Errorf("renamed file missing: %v", err)
	}

	again, err := Pending(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(again) != 1 || again[0].Name != "q2" {
		t.Errorf("pending after MarkDone = %+v, want just q2", again)
	}
}

func TestMarkDone_AlreadyDoneIsNoop(t *testing.T) {
	q := QueryFile{Path: "/does/not/exist.adql", Name: "exist", Done: true}
	if err := q.MarkDone(); err != nil {
		t.Errorf("MarkDone on done file: %v", err)
	}
}

func TestComplete_RenamesAndLogs(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "query_log.txt")
	writeQuery(t, dir, "q1.adql", "SELECT 1")

	files, err := Pending(dir)
	if err != nil {
		t.Fatal(err)
	}
	entry := LogEntry{File: "q1.adql", Action: "executed", Time: time.Now()}
	if err := Complete(files[0], logPath, entry); err != nil {
		t.Fatalf("Complete: %v", err)
	}

	entries, err := ReadLog(logPath)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].File != "q1.adql" {
		t.Fatalf("log entries = %+v", entries)
	}

	pending, done, err := Stats(dir)
	if err != nil {
		t.Fatal(err)
	}
	if pending != 0 || done != 1 {
		t.Errorf("Stats = (%d pending, %d done), want (0, 1)", pending, done)
	}
}

func TestComplete_AtMostOneLogEntryAcrossRuns(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "query_log.txt")
	writeQuery(t, dir, "q1.adql", "SELECT 1")
	writeQuery(t, dir, "q2.adql", "SELECT 2")

	// First run completes q1 and stops.
	files, err := Pending(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := Complete(files[0], logPath, LogEntry{File: "q1.adql", Action: "executed", Time: time.Now()}); err != nil {
		t.Fatal(err)
	}

	// Second run recomputes the queue from disk: only q2 remains.
	files, err = Pending(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 1 || files[0].Name != "q2" {
		t.Fatalf("second run pending = %+v, want just q2", files)
	}
	if err := Complete(files[0], logPath, LogEntry{File: "q2.adql", Action: "executed", Time: time.Now()}); err != nil {
		t.Fatal(err)
	}

	entries, err := ReadLog(logPath)
	if err != nil {
		t.Fatal(err)
	}
	seen := map[string]int{}
	for _, e := range entries {
		seen[e.File]++
	}
	for name, n := range seen {
		if n != 1 {
			t.Errorf("%s logged %d times, want 1", name, n)
		}
	}
}

func TestQueryFile_ResultFile(t *testing.T) {
	q := QueryFile{Name: "r89.50_120.50_d1.0_2.0"}
	if got := q.ResultFile(); got != "r89.50_120.50_d1.0_2.0.csv" {
		t.Errorf("ResultFile = %q", got)
	}
}

func TestStats_MissingDir(t *testing.T) {
	if _, _, err := Stats(filepath.Join(t.TempDir(), "gone")); err == nil {
		t.Fatal("expected error")
	}
	if _, _, err := Stats(t.TempDir()); err != nil {
		t.Fatalf("empty dir should not error: %v", err)
	}
}

func TestRenamedButUnlogged_NotReoffered(t *testing.T) {
	// Simulates a crash between rename and log append: the DONE_ file
	// exists with no log line. The scanner must not re-offer it.
	dir := t.TempDir()
	writeQuery(t, dir, "DONE_crashed.adql", "SELECT 1")

	files, err := Pending(dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, f := range files {
		if strings.Contains(f.Name, "crashed") {
			t.Errorf("renamed-but-unlogged file re-offered: %+v", f)
		}
	}
}
