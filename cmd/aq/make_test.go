package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestMakeCmd_Flags(t *testing.T) {
	cmd := newMakeCmd()
	for _, flag := range []string{"config", "output", "no-precheck"} {
		if cmd.Flags().Lookup(flag) == nil {
			t.Errorf("expected --%s flag", flag)
		}
	}
}

func TestMakeCmd_WritesQueryFiles(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "aq.yaml")
	queryDir := filepath.Join(dir, "queries")
	cfgYAML := `
query_dir: ` + queryDir + `
survey:
  ra_min: 100
  ra_max: 102
  dec_start: 10
  dec_end: 12
  dec_step: 1
`
	if err := os.WriteFile(cfgPath, []byte(cfgYAML), 0o644); err != nil {
		t.Fatal(err)
	}

	cmd := newRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"make", "--config", cfgPath, "--no-precheck"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("make failed: %v", err)
	}

	entries, err := os.ReadDir(queryDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 query files, got %d", len(entries))
	}
	for _, e := range entries {
		if !strings.HasSuffix(e.Name(), ".adql") {
			t.Errorf("unexpected file %s", e.Name())
		}
		data, err := os.ReadFile(filepath.Join(queryDir, e.Name()))
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(string(data), "ls_dr10.tractor") {
			t.Errorf("%s does not look like a survey query: %s", e.Name(), data)
		}
	}
	if !strings.Contains(buf.String(), "Wrote 2 query files") {
		t.Errorf("output = %q", buf.String())
	}
}

func TestMakeCmd_EmptyFootprint(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "aq.yaml")
	cfgYAML := `
query_dir: ` + filepath.Join(dir, "queries") + `
survey:
  ra_min: 100
  ra_max: 102
  dec_start: 10
  dec_end: 12
  dec_step: 1
  galactic: north
`
	if err := os.WriteFile(cfgPath, []byte(cfgYAML), 0o644); err != nil {
		t.Fatal(err)
	}

	// The whole footprint sits below the galactic plane cut, so the
	// northern selection leaves nothing to tile.
	cmd := newRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"make", "--config", cfgPath, "--no-precheck"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("make failed: %v", err)
	}
	if !strings.Contains(buf.String(), "no regions") {
		t.Errorf("output = %q", buf.String())
	}
}
