package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSubmitCmd_Help(t *testing.T) {
	cmd := newRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"submit", "--help"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("submit --help failed: %v", err)
	}
	if !strings.Contains(buf.String(), "clipboard") {
		t.Errorf("expected help to mention the clipboard, got: %s", buf.String())
	}
}

func TestSubmitCmd_Flags(t *testing.T) {
	cmd := newSubmitCmd()
	for _, flag := range []string{"config", "query-dir", "log-file", "no-browser"} {
		if cmd.Flags().Lookup(flag) == nil {
			t.Errorf("expected --%s flag", flag)
		}
	}
}

func TestSubmitCmd_EmptyQueue(t *testing.T) {
	dir := t.TempDir()
	cmd := newRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetIn(strings.NewReader(""))
	cmd.SetArgs([]string{"submit", "--query-dir", dir, "--no-browser"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if !strings.Contains(buf.String(), "nothing to do") {
		t.Errorf("output = %q", buf.String())
	}
}

func TestSubmitCmd_MissingQueryDir(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetIn(strings.NewReader(""))
	cmd.SetArgs([]string{"submit", "--query-dir", filepath.Join(t.TempDir(), "gone"), "--no-browser"})

	if err := cmd.Execute(); err == nil {
		t.Fatal("expected error for missing query directory")
	}
}

func TestSubmitCmd_ConfirmMarksDone(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "q1.adql"), []byte("SELECT 1"), 0o644); err != nil {
		t.Fatal(err)
	}
	logFile := filepath.Join(dir, "query_log.txt")

	cmd := newRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	// Clipboard may be unavailable in test environments; that is a
	// non-fatal condition, the loop must still complete.
	cmd.SetIn(strings.NewReader("\n\n\n\n"))
	cmd.SetArgs([]string{"submit", "--query-dir", dir, "--log-file", logFile, "--no-browser"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "DONE_q1.adql")); err != nil {
		t.Errorf("query not marked done: %v", err)
	}
	data, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatalf("log not written: %v", err)
	}
	if !strings.Contains(string(data), "q1.adql\texecuted") {
		t.Errorf("log = %q", data)
	}
}
